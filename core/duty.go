package core

import "errors"

// CycleBitWidth is the number of bits streamed per waveform cycle.
// The PIO autopulls a fresh word after this many bits, so it also fixes
// the output frequency granularity to 1/10th of the PIO instruction rate.
const CycleBitWidth = 10

// PatternWords is the number of words in the pattern buffer handed to DMA.
// Every word carries one complete cycle in its low CycleBitWidth bits.
const PatternWords = 4

// DutyCycle is the percentage of one cycle during which the output is high
type DutyCycle uint8

// Duty steps are tied to the cycle width: one bit per step.
const (
	DutyStep    DutyCycle = 100 / CycleBitWidth
	MinDuty     DutyCycle = DutyStep
	MaxDuty     DutyCycle = 100 - DutyStep
	DefaultDuty DutyCycle = 50
)

var ErrInvalidDuty = errors.New("duty cycle must be a multiple of 10 between 10 and 90")

// Valid reports whether d leaves at least one high and one low bit per cycle
// and lands exactly on a bit boundary.
func (d DutyCycle) Valid() bool {
	return d >= MinDuty && d <= MaxDuty && d%DutyStep == 0
}

// Next returns the duty one step up, wrapping 90 back to 10.
// 0 and 100 are never produced.
func (d DutyCycle) Next() DutyCycle {
	n := d + DutyStep
	if n > MaxDuty {
		return MinDuty
	}
	return n
}

// Low returns the low share of the cycle in percent
func (d DutyCycle) Low() uint8 {
	return 100 - uint8(d)
}

// HighBits returns how many of the width bits are high for this duty
func (d DutyCycle) HighBits(width uint8) uint8 {
	return uint8(uint32(d) * uint32(width) / 100)
}

// NormalizeDuty maps an arbitrary percentage onto the nearest valid duty step.
// Values outside the usable range are pulled in to MinDuty/MaxDuty.
func NormalizeDuty(percent int) DutyCycle {
	step := int(DutyStep)
	rounded := (percent + step/2) / step * step
	if rounded < int(MinDuty) {
		return MinDuty
	}
	if rounded > int(MaxDuty) {
		return MaxDuty
	}
	return DutyCycle(rounded)
}

// EncodeDuty returns the pattern word for duty over a width-bit cycle.
//
// The PIO shifts LSB first, so the low bits of the word leave the pin first.
// The pattern is all ones shifted left by the low count: the cycle starts low
// and finishes with the high bits at the most-significant end of the width.
// Bits above width are never shifted out.
func EncodeDuty(duty DutyCycle, width uint8) uint32 {
	high := duty.HighBits(width)
	low := width - high
	return 0xffffffff << low
}

// BitPattern is the buffer streamed by the DMA feeder channel.
// DMA holds its address for as long as the chain runs, so it is only ever
// rewritten in place.
type BitPattern [PatternWords]uint32

// Encode rewrites every word of the pattern for duty.
// Each store is a whole word and each word is a whole cycle, so DMA never
// observes a torn cycle while an update is in progress.
func (p *BitPattern) Encode(duty DutyCycle) error {
	if !duty.Valid() {
		return ErrInvalidDuty
	}
	word := EncodeDuty(duty, CycleBitWidth)
	for i := range p {
		p[i] = word
	}
	return nil
}

// Words exposes the backing words without copying
func (p *BitPattern) Words() []uint32 {
	return p[:]
}

// CycleMask selects the bits of a word that are shifted out per cycle
func CycleMask(width uint8) uint32 {
	return 1<<width - 1
}
