package serial

import (
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.BaudRate != 9600 {
		t.Errorf("Expected default baud rate 9600, got %d", cfg.BaudRate)
	}
	if cfg.ConnectTimeout != 10*time.Second {
		t.Errorf("Expected default connect timeout 10s, got %v", cfg.ConnectTimeout)
	}
	if cfg.ReadTimeout != 2*time.Second {
		t.Errorf("Expected default read timeout 2s, got %v", cfg.ReadTimeout)
	}
	if !cfg.RTSOnConnect || !cfg.DTROnConnect {
		t.Error("Expected RTS and DTR asserted by default")
	}
}

func TestBaudRateToSpeed(t *testing.T) {
	for _, baud := range []int{9600, 19200, 38400, 57600, 115200, 230400} {
		speed, custom, err := baudRateToSpeed(baud)
		if err != nil {
			t.Errorf("baudRateToSpeed(%d) failed: %v", baud, err)
			continue
		}
		if speed == 0 {
			t.Errorf("baudRateToSpeed(%d) returned zero speed", baud)
		}
		if custom != 0 {
			t.Errorf("baudRateToSpeed(%d) returned custom baud %d for a standard rate", baud, custom)
		}
	}

	// 250000 is not in the standard termios table
	speed, custom, err := baudRateToSpeed(250000)
	if err != nil {
		t.Fatalf("baudRateToSpeed(250000) failed: %v", err)
	}
	switch runtime.GOOS {
	case "linux":
		if speed != 0x1000|250000 {
			t.Errorf("Expected BOTHER speed 0x%x, got 0x%x", 0x1000|250000, speed)
		}
		if custom != 0 {
			t.Errorf("Expected no custom baud on linux, got %d", custom)
		}
	case "darwin":
		if custom != 250000 {
			t.Errorf("Expected custom baud 250000 for IOSSIOSPEED, got %d", custom)
		}
	}
}

func TestOpenSocket(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "tmcl_module")

	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("Failed to listen on %s: %v", sockPath, err)
	}
	t.Cleanup(func() { ln.Close() })

	connCh := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		connCh <- conn
	}()

	port, err := OpenSocket(sockPath, 2*time.Second)
	if err != nil {
		t.Fatalf("OpenSocket failed: %v", err)
	}
	t.Cleanup(func() { port.Close() })

	server := <-connCh
	t.Cleanup(func() { server.Close() })

	if !port.IsSocket() {
		t.Error("Expected IsSocket() true for a socket connection")
	}
	if port.Device() != sockPath {
		t.Errorf("Expected device %s, got %s", sockPath, port.Device())
	}

	// Module to host direction
	sent := []byte{0x02, 0x01, 0x64}
	if _, err := server.Write(sent); err != nil {
		t.Fatalf("Server write failed: %v", err)
	}
	got := make([]byte, len(sent))
	if _, err := io.ReadFull(port, got); err != nil {
		t.Fatalf("Port read failed: %v", err)
	}
	for i := range sent {
		if got[i] != sent[i] {
			t.Fatalf("Byte %d: expected 0x%02x, got 0x%02x", i, sent[i], got[i])
		}
	}

	// Host to module direction
	frame := []byte{0x01, 0x88, 0x01, 0x00}
	if _, err := port.Write(frame); err != nil {
		t.Fatalf("Port write failed: %v", err)
	}
	echo := make([]byte, len(frame))
	if _, err := io.ReadFull(server, echo); err != nil {
		t.Fatalf("Server read failed: %v", err)
	}
	for i := range frame {
		if echo[i] != frame[i] {
			t.Fatalf("Byte %d: expected 0x%02x, got 0x%02x", i, frame[i], echo[i])
		}
	}

	// Nothing pending, short timeout
	port.SetReadTimeout(50 * time.Millisecond)
	if _, err := port.Read(make([]byte, 1)); !errors.Is(err, ErrTimeout) {
		t.Errorf("Expected ErrTimeout on idle read, got %v", err)
	}

	if err := port.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := port.Close(); err != nil {
		t.Errorf("Second close should be a no-op, got %v", err)
	}
	if _, err := port.Read(make([]byte, 1)); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed reading a closed port, got %v", err)
	}
	if _, err := port.Write([]byte{0x00}); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed writing a closed port, got %v", err)
	}
}

func TestOpenSocketMissing(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "no_such_module")

	if _, err := OpenSocket(sockPath, 200*time.Millisecond); err == nil {
		t.Error("Expected error connecting to a missing socket")
	}
	if _, err := OpenSocket("", time.Second); err == nil {
		t.Error("Expected error for empty socket path")
	}
}

func TestIsDeviceAvailable(t *testing.T) {
	regular := filepath.Join(t.TempDir(), "not_a_tty")
	if err := os.WriteFile(regular, []byte("x"), 0o600); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	if IsDeviceAvailable(regular) {
		t.Error("Expected false for a regular file")
	}
	if IsDeviceAvailable(filepath.Join(t.TempDir(), "missing")) {
		t.Error("Expected false for a missing path")
	}
	if !IsDeviceAvailable("/dev/null") {
		t.Error("Expected true for /dev/null")
	}
}

func TestResolveDevice(t *testing.T) {
	device, err := ResolveDevice("/dev/ttyUSB0")
	if err != nil {
		t.Fatalf("ResolveDevice failed: %v", err)
	}
	if device != "/dev/ttyUSB0" {
		t.Errorf("Expected path unchanged, got %s", device)
	}

	if _, err := ResolveDevice("/dev/serial/by-id/usb-missing-if00"); err == nil {
		t.Error("Expected error resolving a missing by-id link")
	}
}

func TestListPorts(t *testing.T) {
	ports, err := ListPorts()
	if err != nil {
		t.Fatalf("ListPorts failed: %v", err)
	}
	// No duplicates after symlink resolution
	seen := make(map[string]bool)
	for _, p := range ports {
		if seen[p] {
			t.Errorf("Duplicate port %s", p)
		}
		seen[p] = true
	}
}
