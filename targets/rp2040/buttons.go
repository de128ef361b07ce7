//go:build rp2040

package main

import (
	"machine"

	"sqwave/core"
)

// Badger 2040 button wiring. The five front buttons pull up to 3V3 when
// pressed; USER is wired to ground and reads low when held.
const (
	pinButtonA    = machine.Pin(12)
	pinButtonB    = machine.Pin(13)
	pinButtonC    = machine.Pin(14)
	pinButtonUp   = machine.Pin(15)
	pinButtonDown = machine.Pin(11)
	pinButtonUser = machine.Pin(23)
)

type buttonPin struct {
	pin      machine.Pin
	button   core.Button
	inverted bool
}

// BadgerButtons implements core.InputDriver on the Badger 2040 buttons
type BadgerButtons struct {
	pins []buttonPin
}

// NewBadgerButtons returns the driver; call Configure before sampling
func NewBadgerButtons() *BadgerButtons {
	return &BadgerButtons{
		pins: []buttonPin{
			{pinButtonA, core.ButtonA, false},
			{pinButtonB, core.ButtonB, false},
			{pinButtonC, core.ButtonC, false},
			{pinButtonUp, core.ButtonUp, false},
			{pinButtonDown, core.ButtonDown, false},
			{pinButtonUser, core.ButtonUser, true},
		},
	}
}

func (b *BadgerButtons) Configure() error {
	for _, p := range b.pins {
		mode := machine.PinInputPulldown
		if p.inverted {
			mode = machine.PinInputPullup
		}
		p.pin.Configure(machine.PinConfig{Mode: mode})
	}
	return nil
}

// Sample reads every button once and returns the set currently held
func (b *BadgerButtons) Sample() core.ButtonSet {
	var set core.ButtonSet
	for _, p := range b.pins {
		if p.pin.Get() != p.inverted {
			set = set.With(p.button)
		}
	}
	return set
}
