package core

import (
	"errors"
	"testing"
)

type scriptedInput struct {
	samples []ButtonSet
}

func (s *scriptedInput) Configure() error { return nil }

func (s *scriptedInput) Sample() ButtonSet {
	if len(s.samples) == 0 {
		return 0
	}
	b := s.samples[0]
	s.samples = s.samples[1:]
	return b
}

type fixedBattery struct {
	vbat, vref uint16
	err        error
}

func (b *fixedBattery) ReadBattery() (uint16, uint16, error) {
	return b.vbat, b.vref, b.err
}

type recordingDisplay struct {
	shown []Status
	busy  int // calls to answer with ErrDisplayBusy
}

func (d *recordingDisplay) Show(st Status) error {
	if d.busy > 0 {
		d.busy--
		return ErrDisplayBusy
	}
	d.shown = append(d.shown, st)
	return nil
}

func TestPanelHoldCountsOnce(t *testing.T) {
	c, _, _ := newTestController(t)
	up := press(ButtonUp)
	in := &scriptedInput{samples: []ButtonSet{up, up, up, 0, up}}
	p := NewPanel(c, in, nil, nil)

	for i := 0; i < 5; i++ {
		if _, err := p.PollInput(); err != nil {
			t.Fatalf("PollInput failed: %v", err)
		}
	}
	// Two separate presses, each worth one increment
	if got := c.Generator().Settings().Frequency; got != 22000 {
		t.Errorf("Expected 22000 Hz, got %d", got)
	}
}

func TestPanelRefreshOnlyOnChange(t *testing.T) {
	c, _, _ := newTestController(t)
	d := &recordingDisplay{}
	bat := &fixedBattery{vbat: 24493, vref: vref33}
	in := &scriptedInput{samples: []ButtonSet{0, press(ButtonA)}}
	p := NewPanel(c, in, bat, d)

	if err := p.SampleBattery(); err != nil {
		t.Fatalf("SampleBattery failed: %v", err)
	}
	if drawn, _ := p.Refresh(); !drawn {
		t.Fatal("First refresh must draw")
	}
	if drawn, _ := p.Refresh(); drawn {
		t.Error("Unchanged status redrawn")
	}

	p.PollInput()
	p.PollInput()
	if drawn, _ := p.Refresh(); !drawn {
		t.Error("Duty change not redrawn")
	}

	if len(d.shown) != 2 {
		t.Fatalf("Expected 2 draws, got %d", len(d.shown))
	}
	if first := d.shown[0]; first.FrequencyHz != 20000 || first.Duty != 50 || first.Battery != 2 {
		t.Errorf("Unexpected first draw %+v", first)
	}
	if d.shown[1].Duty != 60 {
		t.Errorf("Expected 60%% on the second draw, got %d", d.shown[1].Duty)
	}
}

func TestPanelRetriesBusyDisplay(t *testing.T) {
	c, _, _ := newTestController(t)
	d := &recordingDisplay{busy: 2}
	p := NewPanel(c, &scriptedInput{}, nil, d)

	for i := 0; i < 2; i++ {
		drawn, err := p.Refresh()
		if err != nil || drawn {
			t.Errorf("Expected a quiet skip while busy, got %v, %v", drawn, err)
		}
	}
	if drawn, err := p.Refresh(); err != nil || !drawn {
		t.Errorf("Expected the draw once idle, got %v, %v", drawn, err)
	}
	if len(d.shown) != 1 {
		t.Errorf("Expected 1 draw, got %d", len(d.shown))
	}
}

func TestPanelBatteryError(t *testing.T) {
	c, _, _ := newTestController(t)
	bat := &fixedBattery{vbat: 24493, vref: vref33}
	p := NewPanel(c, &scriptedInput{}, bat, nil)

	if p.Battery() != -1 {
		t.Errorf("Expected unknown battery before sampling, got %d", p.Battery())
	}
	p.SampleBattery()
	if p.Battery() != 2 {
		t.Errorf("Expected level 2, got %d", p.Battery())
	}

	bat.err = errors.New("adc busy")
	if err := p.SampleBattery(); err == nil {
		t.Error("Expected the read error to be returned")
	}
	if p.Battery() != -1 {
		t.Errorf("Expected unknown battery after a failed read, got %d", p.Battery())
	}
}
