// mslut-calc calculates a modulated microstep table and optionally writes
// it to a TMC5041 based module over the TMCL protocol.
//
// The basis for the default table is a sine wave. 256 values are sampled
// from the first quarter wave and encoded into the microstep table
// register format. By default the sampling points are moved like a
// longitudinal wave, which modulates the motor velocity over the electrical
// period. Negative modulation amplitudes slow the movement around the full
// steps, compensating for low quality motors.
//
// Usage:
//
//	mslut-calc [options]
//
// Options:
//
//	-config string       Configuration file ([waveform] and [upload] sections)
//	-shape string        Sampling points: "modulated", "linear" or "hardcoded"
//	                     (default "modulated")
//	-amplitude int       Sine wave amplitude (default 248)
//	-offset int          Sine wave offset (default -1)
//	-modulation float    Modulation amplitude, 0 disables (default -27)
//	-dump-wave           Print the reconstructed waveform samples
//	-upload              Write the table to a module
//	-device string       Serial device path (default: first available port)
//	-baud int            Baud rate (default 9600)
//	-socket              Connect via Unix socket instead of serial port;
//	                     -device defaults to /tmp/tmcl_module (for mock-tmcl)
//	-module-address int  TMCL module address (default 1)
//	-bank int            Motor bank on the module, 0 or 1 (default 0)
//	-verify              Read the table back after writing and compare
//	-v                   Enable debug logging (every TMCL datagram)
//
// Examples:
//
//	# Print the register values of the default modulated table
//	mslut-calc
//
//	# Plain sine table without modulation
//	mslut-calc -modulation 0
//
//	# Upload to a module connected over USB and verify
//	mslut-calc -upload -device /dev/ttyACM0 -verify
//
//	# Upload to a mock module
//	mslut-calc -upload -socket -v
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"tmc-tools/pkg/config"
	"tmc-tools/pkg/log"
	"tmc-tools/pkg/microsteps"
	"tmc-tools/pkg/serial"
	"tmc-tools/pkg/tmcl"
	"tmc-tools/pkg/wave"
)

const (
	defaultShape      = "modulated"
	defaultAmplitude  = 248
	defaultOffset     = -1
	defaultModulation = -27.0
	defaultBaudRate   = 9600
	defaultSocketPath = "/tmp/tmcl_module"
)

// options holds the resolved tool parameters. Command line flags win over
// config file values, which win over the built-in defaults.
type options struct {
	shape      string
	amplitude  int
	offset     int
	modulation float64
	points     []float64

	upload        bool
	device        string
	baud          int
	socket        bool
	moduleAddress int
	bank          int
	verify        bool
}

func main() {
	configFile := flag.String("config", "", "Configuration file")
	shape := flag.String("shape", defaultShape, "Sampling points: modulated, linear or hardcoded")
	amplitude := flag.Int("amplitude", defaultAmplitude, "Sine wave amplitude")
	offset := flag.Int("offset", defaultOffset, "Sine wave offset")
	modulation := flag.Float64("modulation", defaultModulation, "Modulation amplitude (0 disables)")
	dumpWave := flag.Bool("dump-wave", false, "Print the reconstructed waveform samples")
	upload := flag.Bool("upload", false, "Write the table to a module")
	device := flag.String("device", "", "Serial device path (default: first available port)")
	baud := flag.Int("baud", defaultBaudRate, "Baud rate")
	socket := flag.Bool("socket", false, "Connect via Unix socket instead of serial port")
	moduleAddress := flag.Int("module-address", 1, "TMCL module address")
	bank := flag.Int("bank", 0, "Motor bank on the module (0 or 1)")
	verify := flag.Bool("verify", false, "Read the table back after writing and compare")
	verbose := flag.Bool("v", false, "Enable debug logging")
	flag.Parse()

	if *verbose {
		debugLogger := log.New("tmctool")
		log.ConfigureFromEnv(debugLogger)
		debugLogger.SetLevel(log.DEBUG)
		log.SetDefaultLogger(debugLogger)
	}
	logger := log.GetLogger("mslut-calc")

	opts := &options{
		shape:         *shape,
		amplitude:     *amplitude,
		offset:        *offset,
		modulation:    *modulation,
		upload:        *upload,
		device:        *device,
		baud:          *baud,
		socket:        *socket,
		moduleAddress: *moduleAddress,
		bank:          *bank,
		verify:        *verify,
	}

	if *configFile != "" {
		if err := applyConfig(*configFile, opts, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
			os.Exit(1)
		}
	}

	if opts.moduleAddress < 1 || opts.moduleAddress > 255 {
		fmt.Fprintf(os.Stderr, "Error: module address must be between 1 and 255\n")
		os.Exit(1)
	}
	if opts.bank < 0 || opts.bank > 1 {
		fmt.Fprintf(os.Stderr, "Error: bank must be 0 or 1\n")
		os.Exit(1)
	}

	// Generate the sampling points and sample the sine wave.
	points, err := samplingPoints(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	values, err := wave.Sine(opts.amplitude, opts.offset, points)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Encode the wave into the microstep table format.
	table, err := microsteps.EncodeWaveform(values)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: waveform could not be encoded: %v\n", err)
		os.Exit(1)
	}
	for _, warning := range table.Warnings() {
		logger.Warn("%s", warning)
	}

	fmt.Print(table.Dump())

	if *dumpWave {
		fmt.Println("# quarter wave")
		for i, v := range table.QuarterWave() {
			fmt.Printf("%d %d\n", i, v)
		}
		fmt.Println("# full wave")
		for i, v := range table.FullWave() {
			fmt.Printf("%d %d\n", i, v)
		}
	}

	if !opts.upload {
		return
	}

	port, err := openPort(opts, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening port: %v\n", err)
		os.Exit(1)
	}
	iface := tmcl.NewInterface(port, byte(opts.moduleAddress))
	defer iface.Close()

	version, err := iface.GetFirmwareVersion()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: module not answering: %v\n", err)
		os.Exit(1)
	}
	logger.Info("module %d, firmware %d.%d", version>>16, (version>>8)&0xff, version&0xff)

	if err := iface.UploadTable(byte(opts.bank), table); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing table: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Table written to module %d, bank %d\n", opts.moduleAddress, opts.bank)

	if opts.verify {
		if err := iface.VerifyTable(byte(opts.bank), table); err != nil {
			fmt.Fprintf(os.Stderr, "Error: verification failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Table verified")
	}
}

// applyConfig merges config file values into opts. Flags changed from
// their built-in defaults keep their command line value.
func applyConfig(path string, opts *options, logger *log.Logger) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	if wf := cfg.GetSectionOptional("waveform"); wf != nil {
		if opts.shape == defaultShape {
			opts.shape, err = wf.GetChoice("shape",
				[]string{"modulated", "linear", "hardcoded"}, defaultShape)
			if err != nil {
				return err
			}
		}
		if opts.amplitude == defaultAmplitude {
			if opts.amplitude, err = wf.GetInt("amplitude", defaultAmplitude); err != nil {
				return err
			}
		}
		if opts.offset == defaultOffset {
			if opts.offset, err = wf.GetInt("offset", defaultOffset); err != nil {
				return err
			}
		}
		if opts.modulation == defaultModulation {
			if opts.modulation, err = wf.GetFloat("modulation", defaultModulation); err != nil {
				return err
			}
		}
		// Explicit sampling points override the shape entirely.
		if wf.HasOption("points") {
			if opts.points, err = wf.GetFloatList("points", ","); err != nil {
				return err
			}
		}
	}

	if up := cfg.GetSectionOptional("upload"); up != nil {
		if !opts.upload {
			if opts.upload, err = up.GetBool("enabled", false); err != nil {
				return err
			}
		}
		if opts.device == "" {
			if opts.device, err = up.Get("device", ""); err != nil {
				return err
			}
		}
		if opts.baud == defaultBaudRate {
			if opts.baud, err = up.GetInt("baud", defaultBaudRate); err != nil {
				return err
			}
		}
		if !opts.socket {
			if opts.socket, err = up.GetBool("socket", false); err != nil {
				return err
			}
		}
		if opts.moduleAddress == 1 {
			minAddr, maxAddr := 1, 255
			opts.moduleAddress, err = up.GetIntWithBounds("module-address", &minAddr, &maxAddr, 1)
			if err != nil {
				return err
			}
		}
		if opts.bank == 0 {
			minBank, maxBank := 0, 1
			if opts.bank, err = up.GetIntWithBounds("bank", &minBank, &maxBank, 0); err != nil {
				return err
			}
		}
		if !opts.verify {
			if opts.verify, err = up.GetBool("verify", false); err != nil {
				return err
			}
		}
	}

	if err := cfg.CheckUnusedOptions(); err != nil {
		logger.Warn("%v", err)
	}
	return nil
}

// samplingPoints builds the 256 sampling point positions.
func samplingPoints(opts *options) ([]float64, error) {
	if opts.points != nil {
		return opts.points, nil
	}
	switch opts.shape {
	case "modulated":
		return wave.ModulatedPoints(opts.modulation), nil
	case "linear":
		return wave.LinearPoints(), nil
	case "hardcoded":
		return wave.HardcodedPoints(), nil
	default:
		return nil, fmt.Errorf("unknown shape %q (choose modulated, linear or hardcoded)", opts.shape)
	}
}

// openPort connects to the module over a serial port or a Unix socket.
func openPort(opts *options, logger *log.Logger) (*serial.Port, error) {
	if opts.socket {
		device := opts.device
		if device == "" {
			device = defaultSocketPath
		}
		logger.Info("connecting to socket %s", device)
		return serial.OpenSocket(device, 10*time.Second)
	}

	cfg := serial.DefaultConfig()
	cfg.BaudRate = opts.baud

	if opts.device == "" {
		port, err := serial.Detect(cfg, cfg.ConnectTimeout)
		if err != nil {
			return nil, err
		}
		logger.Info("using detected port %s", port.Device())
		return port, nil
	}

	device, err := serial.ResolveDevice(opts.device)
	if err != nil {
		return nil, err
	}
	cfg.Device = device
	logger.Info("connecting to %s at %d baud", cfg.Device, cfg.BaudRate)
	return serial.Open(cfg)
}
