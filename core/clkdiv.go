package core

// DefaultSystemClock is the RP2040 reset-default system clock (125 MHz)
const DefaultSystemClock = 125000000

// MaxClockDivider is the largest integer divisor the 16-bit CLKDIV_INT field holds
const MaxClockDivider = 0xffff

// CLKDIV register layout
const (
	clkdivIntPos  = 16
	clkdivFracPos = 8
)

// ClockDivider is the value loaded into a PIO state machine's CLKDIV register.
// The PIO executes one instruction every Int + Frac/256 system clocks.
type ClockDivider struct {
	Int  uint16
	Frac uint8 // always 0: a fractional divider jitters the cycle period
}

// ComputeDivider maps a requested output frequency onto a clock divider.
//
//	divider = floor(system_clock / (target * width)) + 1
//
// The +1 biases the result toward a frequency at or below the request, so
// target is an upper bound and not an exact result. A zero target or a
// quotient that does not fit in 16 bits yields MaxClockDivider.
func ComputeDivider(targetHz, systemClockHz uint32, width uint8) ClockDivider {
	perCycle := uint64(targetHz) * uint64(width)
	if perCycle == 0 {
		return ClockDivider{Int: MaxClockDivider}
	}
	div := uint64(systemClockHz)/perCycle + 1
	if div > MaxClockDivider {
		div = MaxClockDivider
	}
	return ClockDivider{Int: uint16(div)}
}

// Register packs the divider into the CLKDIV register word
func (c ClockDivider) Register() uint32 {
	return uint32(c.Int)<<clkdivIntPos | uint32(c.Frac)<<clkdivFracPos
}

// DividerFromRegister unpacks a CLKDIV register word
func DividerFromRegister(v uint32) ClockDivider {
	return ClockDivider{
		Int:  uint16(v >> clkdivIntPos),
		Frac: uint8(v >> clkdivFracPos),
	}
}

// OutputFrequency returns the frequency the pin actually toggles at with this
// divider: system_clock / (divider * width), rounded down.
func (c ClockDivider) OutputFrequency(systemClockHz uint32, width uint8) uint32 {
	den := uint64(c.Int) * uint64(width)
	if den == 0 {
		return 0
	}
	return uint32(uint64(systemClockHz) / den)
}
