package core

import "errors"

// Panel is the badge front end: it turns button samples into controller
// requests, keeps the battery level and redraws the display when the shown
// status changes.
type Panel struct {
	ctrl    *Controller
	input   InputDriver
	battery BatterySensor
	display Display

	prev  ButtonSet
	level int

	shown Status
	drawn bool
}

// NewPanel creates a panel. battery and display may be nil.
func NewPanel(ctrl *Controller, input InputDriver, battery BatterySensor, display Display) *Panel {
	return &Panel{
		ctrl:    ctrl,
		input:   input,
		battery: battery,
		display: display,
		level:   -1,
	}
}

// PollInput samples the buttons, handles new presses and applies the
// resulting settings.
func (p *Panel) PollInput() (Change, error) {
	cur := p.input.Sample()
	pressed := Pressed(p.prev, cur)
	p.prev = cur
	p.ctrl.HandleButtons(pressed, cur)
	return p.ctrl.Poll()
}

// SampleBattery refreshes the battery level. A failed read leaves the level
// unknown (-1).
func (p *Panel) SampleBattery() error {
	if p.battery == nil {
		return nil
	}
	vbat, vref, err := p.battery.ReadBattery()
	if err != nil {
		p.level = -1
		return err
	}
	p.level = BatteryLevel(vbat, vref)
	return nil
}

// Battery returns the last battery level, -1 when unknown
func (p *Panel) Battery() int {
	return p.level
}

// Status returns the current status including the battery level
func (p *Panel) Status() Status {
	return p.ctrl.Status(p.level)
}

// Refresh redraws the display if the status changed since the last draw.
// It reports whether anything was written. A busy display is not an error;
// the change is drawn on a later call.
func (p *Panel) Refresh() (bool, error) {
	if p.display == nil {
		return false, nil
	}
	st := p.Status()
	if p.drawn && st == p.shown {
		return false, nil
	}
	err := p.display.Show(st)
	if errors.Is(err, ErrDisplayBusy) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	p.shown = st
	p.drawn = true
	return true, nil
}
