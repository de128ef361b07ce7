// Package plot previews the generator output without hardware: it runs the
// generator against the simulated PIO and DMA blocks and draws the pin trace.
package plot

import (
	"image"
	"image/color"
	"io"

	"github.com/fogleman/gg"

	"sqwave/core"
	"sqwave/sim"
)

// Trace is a recorded pin waveform, one entry per PIO instruction slot
type Trace struct {
	Bits     []bool
	Width    uint8 // slots per waveform cycle
	Settings core.Settings
	ActualHz uint32
	Stalls   int
}

// Simulate starts a generator on a simulated machine and records cycles
// waveform cycles
func Simulate(s core.Settings, cycles int, systemClockHz uint32) (*Trace, error) {
	m := sim.NewMachine(0, 0)
	cfg := core.GeneratorConfig{Pin: 5, Feeder: 0, Rearmer: 1, SystemClockHz: systemClockHz}
	g, err := core.NewGenerator(cfg, m, m, s)
	if err != nil {
		return nil, err
	}
	if err := g.Start(); err != nil {
		return nil, err
	}
	m.RunCycles(cycles, core.CycleBitWidth)

	return &Trace{
		Bits:     append([]bool(nil), m.Bits...),
		Width:    core.CycleBitWidth,
		Settings: s,
		ActualHz: g.OutputFrequency(),
		Stalls:   m.Stalls,
	}, nil
}

// HighPercent returns the share of slots the pin was high
func (t *Trace) HighPercent() int {
	if len(t.Bits) == 0 {
		return 0
	}
	high := 0
	for _, b := range t.Bits {
		if b {
			high++
		}
	}
	return high * 100 / len(t.Bits)
}

// Options controls the image geometry
type Options struct {
	SlotWidth int // pixels per instruction slot
	Height    int
	Margin    int
}

// DefaultOptions returns a compact layout readable for a few dozen cycles
func DefaultOptions() Options {
	return Options{SlotWidth: 6, Height: 160, Margin: 24}
}

// levelY returns the y coordinate of the high and low trace levels
func (o Options) levelY() (high, low float64) {
	return float64(o.Margin + 16), float64(o.Height - o.Margin)
}

// SlotX returns the x coordinate of the left edge of slot i
func (o Options) SlotX(i int) float64 {
	return float64(o.Margin + i*o.SlotWidth)
}

var (
	colorGrid  = color.RGBA{0xd0, 0xd0, 0xd0, 0xff}
	colorTrace = color.RGBA{0x10, 0x30, 0x90, 0xff}
)

// Render draws the trace with a grid line at every cycle boundary and a
// caption with the requested and produced frequency
func Render(t *Trace, o Options) image.Image {
	w := 2*o.Margin + len(t.Bits)*o.SlotWidth
	c := gg.NewContext(w, o.Height)
	c.SetRGB(1, 1, 1)
	c.Clear()

	yHigh, yLow := o.levelY()

	c.SetColor(colorGrid)
	c.SetLineWidth(1)
	for i := 0; i <= len(t.Bits); i += int(t.Width) {
		c.DrawLine(o.SlotX(i), yHigh-8, o.SlotX(i), yLow+8)
	}
	c.Stroke()

	c.SetColor(colorTrace)
	c.SetLineWidth(2)
	y := yLow
	for i, b := range t.Bits {
		next := yLow
		if b {
			next = yHigh
		}
		if i == 0 {
			c.MoveTo(o.SlotX(0), next)
		} else if next != y {
			c.LineTo(o.SlotX(i), next)
		}
		c.LineTo(o.SlotX(i+1), next)
		y = next
	}
	c.Stroke()

	c.SetRGB(0, 0, 0)
	c.DrawString(Caption(t), float64(o.Margin), float64(o.Margin))
	return c.Image()
}

// Caption describes the trace in the display's own format
func Caption(t *Trace) string {
	buf := make([]byte, 0, 64)
	buf = core.AppendFrequency(buf, uint32(t.Settings.Frequency))
	buf = append(buf, " requested, "...)
	buf = core.AppendFrequency(buf, t.ActualHz)
	buf = append(buf, " actual, duty "...)
	buf = core.AppendDuty(buf, t.Settings.Duty)
	return string(buf)
}

// WritePNG renders the trace and encodes it as PNG
func WritePNG(w io.Writer, t *Trace, o Options) error {
	c := gg.NewContextForImage(Render(t, o))
	return c.EncodePNG(w)
}
