// Package console carries the exported trace stream to a host over a serial
// line.
package console

import (
	"errors"
	"io"

	"riotgo/trace"
)

// ErrNoConfig is returned by Open for a nil configuration.
var ErrNoConfig = errors.New("console: config cannot be nil")

// Port is a serial line. Tests substitute an in-memory implementation.
type Port interface {
	io.ReadWriteCloser

	// Flush pushes out buffered output.
	Flush() error
}

// Config selects the serial device.
type Config struct {
	// Device path, e.g. /dev/ttyUSB0 or COM3
	Device string

	// Baud rate. USB CDC devices ignore it.
	Baud int

	// ReadTimeout in milliseconds, 0 blocks.
	ReadTimeout int
}

// DefaultBaud is the line rate used by DefaultConfig.
const DefaultBaud = 115200

// DefaultConfig returns the configuration for device at DefaultBaud.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 100,
	}
}

// SendTrace writes the trace ring to p as frames and flushes it.
func SendTrace(p Port) error {
	if err := trace.Export(p); err != nil {
		return err
	}
	return p.Flush()
}

// Writer returns a trace.Writer that copies every debug line to p,
// newline terminated. Write errors are dropped.
func Writer(p Port) trace.Writer {
	return func(s string) {
		_, _ = io.WriteString(p, s+"\n")
	}
}
