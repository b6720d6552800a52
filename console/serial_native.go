//go:build !tinygo && !wasm

package console

import (
	"fmt"
	"time"

	"github.com/tarm/serial"
)

// NativePort is a host serial port.
type NativePort struct {
	port *serial.Port
	cfg  *Config
}

// Open opens the serial device described by cfg.
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, ErrNoConfig
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("console: open %s: %w", cfg.Device, err)
	}
	return &NativePort{port: port, cfg: cfg}, nil
}

func (p *NativePort) Read(b []byte) (int, error) {
	return p.port.Read(b)
}

func (p *NativePort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

// Close closes the device.
func (p *NativePort) Close() error {
	if p.port == nil {
		return nil
	}
	return p.port.Close()
}

// Flush discards whatever the driver still queues in either direction.
func (p *NativePort) Flush() error {
	return p.port.Flush()
}

// Device returns the device path.
func (p *NativePort) Device() string {
	return p.cfg.Device
}
