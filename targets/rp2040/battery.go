//go:build rp2040

package main

import (
	"errors"
	"machine"
)

// Badger 2040 battery sense: VBAT through a 1/3 divider on ADC3 and the
// 1.24V reference on ADC2, powered only while sampling.
const (
	pinBatterySense = machine.Pin(29)
	pinVrefSense    = machine.Pin(28)
	pinVrefPower    = machine.Pin(27)
)

var errNoReference = errors.New("battery: reference reads zero")

// BadgerBattery implements core.BatterySensor
type BadgerBattery struct {
	vbat   machine.ADC
	vref   machine.ADC
	vrefEn machine.Pin
}

// NewBadgerBattery configures both ADC inputs and leaves the reference off
func NewBadgerBattery() *BadgerBattery {
	machine.InitADC()

	b := &BadgerBattery{
		vbat:   machine.ADC{Pin: pinBatterySense},
		vref:   machine.ADC{Pin: pinVrefSense},
		vrefEn: pinVrefPower,
	}
	b.vbat.Configure(machine.ADCConfig{})
	b.vref.Configure(machine.ADCConfig{})
	b.vrefEn.Configure(machine.PinConfig{Mode: machine.PinOutput})
	b.vrefEn.Low()
	return b
}

// ReadBattery switches the reference on for the duration of one reading pair
func (b *BadgerBattery) ReadBattery() (uint16, uint16, error) {
	b.vrefEn.High()
	vref := b.vref.Get()
	vbat := b.vbat.Get()
	b.vrefEn.Low()

	if vref == 0 {
		return 0, 0, errNoReference
	}
	return vbat, vref, nil
}
