// mock-tmcl simulates a TMCL stepper driver module on a Unix socket so
// the microstep table tools can be tested without hardware. It answers
// the register access subset of the protocol:
// - Motion controller register read/write (WRITE_MC, READ_MC)
// - Driver register read/write (WRITE_DRV, READ_DRV)
// - GET_FIRMWARE_VERSION in binary format
//
// Register state is shared across connections, so a table uploaded by
// one invocation of mslut-calc can be read back by a later one. Whenever
// all ten microstep table registers of a bank have been written, the
// table is decoded and the waveform it produces is reported.
//
// Usage:
//
//	mock-tmcl -socket /tmp/tmcl_module [options]
//
// Options:
//
//	-socket string        Unix socket path (default "/tmp/tmcl_module")
//	-module-address int   TMCL module address to answer on (default 1)
//	-log string           Log file path, rotated at 10 MB (default: stderr)
//	-v                    Log every register write
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"tmc-tools/pkg/log"
	"tmc-tools/pkg/microsteps"
	"tmc-tools/pkg/tmc"
	"tmc-tools/pkg/tmcl"
)

func main() {
	socketPath := flag.String("socket", "/tmp/tmcl_module", "Unix socket path")
	moduleAddress := flag.Int("module-address", 1, "TMCL module address to answer on")
	logFile := flag.String("log", "", "Log file path (default: stderr)")
	verbose := flag.Bool("v", false, "Log every register write")
	flag.Parse()

	if *moduleAddress < 1 || *moduleAddress > 255 {
		fmt.Fprintf(os.Stderr, "Error: -module-address must be between 1 and 255\n")
		os.Exit(1)
	}

	logger := log.GetLogger("mock-tmcl")
	if *logFile != "" {
		fileLogger, writer, err := log.NewFileLogger("mock-tmcl", log.RotationConfig{
			Filename: *logFile,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer writer.Close()
		logger = fileLogger
	}
	if *verbose {
		logger.SetLevel(log.DEBUG)
	}

	sim := tmcl.NewSimulator(byte(*moduleAddress))
	watcher := newTableWatcher(sim, logger)
	sim.OnWrite = watcher.registerWritten

	os.Remove(*socketPath)

	listener, err := net.Listen("unix", *socketPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating socket: %v\n", err)
		os.Exit(1)
	}
	defer listener.Close()
	defer os.Remove(*socketPath)

	fmt.Printf("Mock TMCL module listening on %s\n", *socketPath)
	fmt.Printf("Module address: %d\n", *moduleAddress)
	fmt.Println("Press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	connCh := make(chan net.Conn, 1)
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			connCh <- conn
		}
	}()

	for {
		select {
		case <-sigCh:
			fmt.Println("\nShutting down...")
			return
		case conn := <-connCh:
			logger.Info("client connected")
			go func(conn net.Conn) {
				defer conn.Close()
				if err := sim.ServeConn(conn); err != nil {
					logger.Warn("connection error: %v", err)
				}
				logger.Info("client disconnected")
			}(conn)
		}
	}
}

// tableWatcher reports a bank's microstep table once all ten of its
// registers have been written.
type tableWatcher struct {
	mu     sync.Mutex
	sim    *tmcl.Simulator
	logger *log.Logger
	seen   map[byte]map[uint8]bool
}

func newTableWatcher(sim *tmcl.Simulator, logger *log.Logger) *tableWatcher {
	return &tableWatcher{
		sim:    sim,
		logger: logger,
		seen:   make(map[byte]map[uint8]bool),
	}
}

func (w *tableWatcher) registerWritten(bank, register byte, value uint32) {
	name := tmc.RegisterName(register)
	w.logger.Debug("bank %d write %s = 0x%08x", bank, name, value)

	if _, tracked := tmc.TMC5041Registers[name]; !tracked {
		return
	}

	w.mu.Lock()
	if w.seen[bank] == nil {
		w.seen[bank] = make(map[uint8]bool)
	}
	w.seen[bank][register] = true
	complete := len(w.seen[bank]) == len(tmc.MicrostepRegisterOrder)
	w.mu.Unlock()

	// The calculator writes MSLUTSTART last, so report once per upload
	// instead of on every table word update.
	if complete && name == "MSLUTSTART" {
		w.report(bank)
	}
}

// report decodes the bank's table and logs the waveform it produces.
func (w *tableWatcher) report(bank byte) {
	var mslut [8]uint32
	for n := range mslut {
		addr := tmc.TMC5041Registers[fmt.Sprintf("MSLUT%d", n)]
		mslut[n], _ = w.sim.Register(bank, addr)
	}
	mslutsel, _ := w.sim.Register(bank, tmc.TMC5041Registers["MSLUTSEL"])
	mslutstart, _ := w.sim.Register(bank, tmc.TMC5041Registers["MSLUTSTART"])

	samples := microsteps.DecodeRegisters(mslut, mslutsel, mslutstart)
	min, max := samples[0], samples[0]
	for _, s := range samples {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}

	w.logger.Info("bank %d table uploaded: start=%d end=%d min=%d max=%d start_sin90=%d",
		bank, samples[0], samples[len(samples)-1], min, max,
		microsteps.StartSin90(mslutstart))
}
