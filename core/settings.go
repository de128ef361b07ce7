package core

import "errors"

// Frequency is a requested output frequency in hertz
type Frequency uint32

// Frequency range. The floor keeps the divider inside 16 bits and away from
// zero; the ceiling is the fastest the 10-bit pattern is expected to carry.
const (
	MinFrequency     Frequency = 1000
	MaxFrequency     Frequency = 10000000
	DefaultFrequency Frequency = 20000
)

// FrequencyIncrement is the step applied by one increase/decrease request
type FrequencyIncrement uint32

const (
	IncrementFine   FrequencyIncrement = 1000
	IncrementCoarse FrequencyIncrement = 10000
)

var (
	ErrInvalidFrequency = errors.New("frequency out of range 1kHz-10MHz")
	ErrInvalidIncrement = errors.New("frequency increment must be 1000 or 10000")
)

// Valid reports whether f is inside [MinFrequency, MaxFrequency]
func (f Frequency) Valid() bool {
	return f >= MinFrequency && f <= MaxFrequency
}

// Valid reports whether inc is one of the selectable increments
func (inc FrequencyIncrement) Valid() bool {
	return inc == IncrementFine || inc == IncrementCoarse
}

// Settings is the user-adjustable state of the generator.
// It is owned by the control loop and handed to the Generator by value.
type Settings struct {
	Frequency Frequency
	Increment FrequencyIncrement
	Duty      DutyCycle
}

// DefaultSettings returns the power-on state: 20 kHz, 50/50, 1 kHz steps
func DefaultSettings() Settings {
	return Settings{
		Frequency: DefaultFrequency,
		Increment: IncrementFine,
		Duty:      DefaultDuty,
	}
}

// Validate checks every field against its range
func (s Settings) Validate() error {
	if !s.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if !s.Increment.Valid() {
		return ErrInvalidIncrement
	}
	if !s.Duty.Valid() {
		return ErrInvalidDuty
	}
	return nil
}

// IncreaseFrequency raises the frequency by `by`, saturating at MaxFrequency
func (s *Settings) IncreaseFrequency(by FrequencyIncrement) {
	next := uint64(s.Frequency) + uint64(by)
	if next > uint64(MaxFrequency) {
		next = uint64(MaxFrequency)
	}
	s.Frequency = Frequency(next)
}

// DecreaseFrequency lowers the frequency by `by`, saturating at MinFrequency
func (s *Settings) DecreaseFrequency(by FrequencyIncrement) {
	if uint64(s.Frequency) < uint64(MinFrequency)+uint64(by) {
		s.Frequency = MinFrequency
		return
	}
	s.Frequency -= Frequency(by)
}

// SelectIncrement changes the step used by the frequency buttons
func (s *Settings) SelectIncrement(inc FrequencyIncrement) error {
	if !inc.Valid() {
		return ErrInvalidIncrement
	}
	s.Increment = inc
	return nil
}

// StepDuty advances the duty by one step, wrapping 90 to 10
func (s *Settings) StepDuty() {
	s.Duty = s.Duty.Next()
}

// Change flags which derived hardware state must be recomputed
type Change uint8

const (
	ChangeFrequency Change = 1 << iota
	ChangeDuty
)

// Diff returns what differs between two settings snapshots.
// The increment only affects input handling, so it never triggers hardware work.
func (s Settings) Diff(prev Settings) Change {
	var c Change
	if s.Frequency != prev.Frequency {
		c |= ChangeFrequency
	}
	if s.Duty != prev.Duty {
		c |= ChangeDuty
	}
	return c
}
