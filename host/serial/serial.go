// Package serial opens the USB CDC link to the generator
package serial

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"

	"sqwave/config"
)

// Port is an open serial link
type Port interface {
	io.ReadWriteCloser

	// Flush discards anything buffered but not yet read or sent
	Flush() error
}

// Config describes how to open the link
type Config struct {
	Device string
	// USB CDC ignores the rate but the OS still wants one
	Baud int

	// ReadTimeout bounds a single Read. The remote client polls, so this
	// must not be zero.
	ReadTimeout time.Duration
}

// DefaultConfig builds a Config from the link section of the config file
func DefaultConfig(link config.LinkConfig) *Config {
	return &Config{
		Device:      link.Device,
		Baud:        link.Baud,
		ReadTimeout: 20 * time.Millisecond,
	}
}

var (
	errNilConfig = errors.New("serial: nil config")
	errNoTimeout = errors.New("serial: read timeout must be positive")
)

// cdcPort is a tarm/serial port; its Read, Write, Close and Flush satisfy
// Port directly
type cdcPort struct {
	*serial.Port
}

// Open opens the device and discards whatever it sent before we were
// listening, so the first frame read answers our first request
func Open(cfg *Config) (Port, error) {
	switch {
	case cfg == nil:
		return nil, errNilConfig
	case cfg.ReadTimeout <= 0:
		return nil, errNoTimeout
	}

	sp, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Device, err)
	}
	if err := sp.Flush(); err != nil {
		sp.Close()
		return nil, fmt.Errorf("flush %s: %w", cfg.Device, err)
	}
	return cdcPort{sp}, nil
}
