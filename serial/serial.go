// Package serial wraps the radio's UART link behind a small Port interface
package serial

import (
	"io"
)

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - Loopback/mock ports for testing
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate (38400 for the UV-K5 UART)
	Baud int

	// Read timeout in milliseconds. Kept short so reads behave as a
	// non-blocking poll from the link runner's single goroutine.
	ReadTimeout int
}

// DefaultConfig returns the default configuration for the radio link
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        38400,
		ReadTimeout: 5,
	}
}
