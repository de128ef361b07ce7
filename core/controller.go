package core

// Button identifies one of the badge's input buttons
type Button uint8

const (
	ButtonA    Button = iota // step duty
	ButtonB                  // select 1 kHz increment
	ButtonC                  // select 10 kHz increment
	ButtonUp                 // increase frequency
	ButtonDown               // decrease frequency
	ButtonUser               // modifier; suppresses the others while held
	NumButtons
)

// ButtonSet is a bitmask of buttons
type ButtonSet uint8

// Has reports whether b is in the set
func (s ButtonSet) Has(b Button) bool {
	return s&(1<<b) != 0
}

// With returns the set with b added
func (s ButtonSet) With(b Button) ButtonSet {
	return s | 1<<b
}

// Pressed returns the buttons that went down between two samples
func Pressed(prev, cur ButtonSet) ButtonSet {
	return cur &^ prev
}

// Controller is the control loop's owned state. Input events mutate the
// settings; Poll pushes changes into the generator.
type Controller struct {
	settings Settings
	gen      *Generator
	dirty    bool
}

// NewController creates a controller around a generator and takes its settings
func NewController(gen *Generator) *Controller {
	return &Controller{
		settings: gen.Settings(),
		gen:      gen,
	}
}

// Settings returns the requested settings (not necessarily applied yet)
func (c *Controller) Settings() Settings {
	return c.settings
}

// Generator returns the controlled generator
func (c *Controller) Generator() *Generator {
	return c.gen
}

// IncreaseFrequency raises the frequency, saturating at 10 MHz
func (c *Controller) IncreaseFrequency(by FrequencyIncrement) {
	c.settings.IncreaseFrequency(by)
	c.dirty = true
}

// DecreaseFrequency lowers the frequency, saturating at 1 kHz
func (c *Controller) DecreaseFrequency(by FrequencyIncrement) {
	c.settings.DecreaseFrequency(by)
	c.dirty = true
}

// SelectIncrement picks the step used by the frequency buttons
func (c *Controller) SelectIncrement(inc FrequencyIncrement) error {
	if err := c.settings.SelectIncrement(inc); err != nil {
		return err
	}
	c.dirty = true
	return nil
}

// StepDuty advances the duty by 10, wrapping 90 to 10
func (c *Controller) StepDuty() {
	c.settings.StepDuty()
	c.dirty = true
}

// SetDuty sets the duty from an arbitrary percentage, renormalized to a
// valid step
func (c *Controller) SetDuty(percent int) {
	c.settings.Duty = NormalizeDuty(percent)
	c.dirty = true
}

// HandleButtons applies newly pressed buttons. held is the full current
// sample, used for the USER modifier. It reports whether anything the
// display shows has changed.
func (c *Controller) HandleButtons(pressed, held ButtonSet) bool {
	if held.Has(ButtonUser) || pressed == 0 {
		return false
	}
	if pressed.Has(ButtonA) {
		c.StepDuty()
	}
	if pressed.Has(ButtonB) {
		_ = c.SelectIncrement(IncrementFine)
	}
	if pressed.Has(ButtonC) {
		_ = c.SelectIncrement(IncrementCoarse)
	}
	if pressed.Has(ButtonUp) {
		c.IncreaseFrequency(c.settings.Increment)
	}
	if pressed.Has(ButtonDown) {
		c.DecreaseFrequency(c.settings.Increment)
	}
	return true
}

// Poll pushes changed settings into the generator. Recomputation is edge
// triggered: nothing is written unless something changed since the last Poll.
func (c *Controller) Poll() (Change, error) {
	if !c.dirty {
		return 0, nil
	}
	change, err := c.gen.Update(c.settings)
	if err != nil {
		return 0, err
	}
	c.dirty = false
	return change, nil
}

// Status captures what the display and remote link report
func (c *Controller) Status(battery int) Status {
	s := c.gen.Settings()
	return Status{
		FrequencyHz: uint32(s.Frequency),
		ActualHz:    c.gen.OutputFrequency(),
		Duty:        s.Duty,
		Increment:   s.Increment,
		Running:     c.gen.Running(),
		Battery:     battery,
	}
}
