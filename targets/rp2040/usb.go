//go:build rp2040

package main

import "machine"

// usbLink is the CDC serial port the host talks to
type usbLink struct {
	chunk [64]byte
}

var usb usbLink

func (u *usbLink) open() {
	_ = machine.Serial.Configure(machine.UARTConfig{})
}

// drain reads whatever the CDC endpoint has buffered, up to one chunk.
// It returns nil when nothing is waiting.
func (u *usbLink) drain() ([]byte, error) {
	port := machine.Serial
	n := 0
	for n < len(u.chunk) && port.Buffered() > 0 {
		b, err := port.ReadByte()
		if err != nil {
			return u.chunk[:n], err
		}
		u.chunk[n] = b
		n++
	}
	return u.chunk[:n], nil
}

func (u *usbLink) Write(p []byte) (int, error) {
	return machine.Serial.Write(p)
}
