package core

import "errors"

var (
	ErrRunning    = errors.New("generator already running")
	ErrNotRunning = errors.New("generator not running")
)

// GeneratorConfig fixes the hardware resources of a Generator
type GeneratorConfig struct {
	Pin           uint8
	Feeder        DMAChannel
	Rearmer       DMAChannel
	SystemClockHz uint32
}

// Generator drives the square wave: it owns the pattern buffer and the
// rearm scratch cell for the lifetime of the DMA chain and keeps the
// hardware in step with the latest Settings.
type Generator struct {
	cfg     GeneratorConfig
	sm      StreamMachine
	dma     DMAEngine
	applied Settings
	divider ClockDivider
	layout  ChainLayout
	running bool

	// Both are read by DMA through raw addresses; they live inside the
	// Generator and are only ever rewritten in place.
	pattern BitPattern
	scratch [1]uint32
}

// NewGenerator creates a stopped generator holding the given settings
func NewGenerator(cfg GeneratorConfig, sm StreamMachine, dma DMAEngine, s Settings) (*Generator, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if cfg.SystemClockHz == 0 {
		cfg.SystemClockHz = DefaultSystemClock
	}
	if cfg.Feeder == cfg.Rearmer {
		return nil, ErrChainSame
	}
	g := &Generator{
		cfg:     cfg,
		sm:      sm,
		dma:     dma,
		applied: s,
	}
	g.divider = ComputeDivider(uint32(s.Frequency), cfg.SystemClockHz, CycleBitWidth)
	if err := g.pattern.Encode(s.Duty); err != nil {
		return nil, err
	}
	return g, nil
}

// Start brings the waveform up.
//
// The state machine is enabled with its divider before the chain is
// triggered, otherwise the first words would be shifted at the wrong rate
// or the FIFO could underrun.
func (g *Generator) Start() error {
	if g.running {
		return ErrRunning
	}

	txAddr, dreq := g.sm.TxFIFO()
	patternAddr := g.dma.AddressOf(g.pattern.Words())
	g.scratch[0] = patternAddr
	layout := ChainLayout{
		Feeder:       g.cfg.Feeder,
		Rearmer:      g.cfg.Rearmer,
		PatternAddr:  patternAddr,
		PatternWords: PatternWords,
		ScratchAddr:  g.dma.AddressOf(g.scratch[:]),
		TxFIFOAddr:   txAddr,
		TxDREQ:       dreq,
	}
	if err := layout.Validate(); err != nil {
		return err
	}

	err := g.sm.Start(StreamConfig{
		Pin:     g.cfg.Pin,
		Width:   CycleBitWidth,
		Divider: g.divider,
	})
	if err != nil {
		return err
	}
	RecordEvent(EvtStreamStart, uint32(g.cfg.Pin), g.divider.Register())

	// The feeder is loaded without a trigger; writing the rearmer's
	// CTRL_TRIG copies the pattern address into the feeder and chains to it.
	g.dma.Load(layout.FeederDescriptor())
	g.dma.Trigger(layout.RearmerDescriptor())
	RecordEvent(EvtChainArmed, uint32(layout.Feeder), uint32(layout.Rearmer))

	g.layout = layout
	g.running = true
	return nil
}

// Update applies new settings, touching only what changed since the last
// call. It is valid while stopped; the values are used on the next Start.
func (g *Generator) Update(s Settings) (Change, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	change := s.Diff(g.applied)
	if change&ChangeFrequency != 0 {
		g.divider = ComputeDivider(uint32(s.Frequency), g.cfg.SystemClockHz, CycleBitWidth)
		if g.running {
			g.sm.SetClockDivider(g.divider)
		}
		RecordEvent(EvtDivider, uint32(s.Frequency), g.divider.Register())
	}
	if change&ChangeDuty != 0 {
		// In place: DMA keeps reading from the same address.
		if err := g.pattern.Encode(s.Duty); err != nil {
			return 0, err
		}
		RecordEvent(EvtPattern, uint32(s.Duty), g.pattern[0])
	}
	g.applied = s
	return change, nil
}

// Stop disarms both DMA channels and then disables the state machine.
// The chain is aborted first so the feeder never waits on a dead FIFO.
func (g *Generator) Stop() error {
	if !g.running {
		return ErrNotRunning
	}
	g.dma.Abort(g.layout.Feeder, g.layout.Rearmer)
	g.sm.Stop()
	g.running = false
	RecordEvent(EvtStop, uint32(g.layout.Feeder), uint32(g.layout.Rearmer))
	return nil
}

// Running reports whether the chain is armed
func (g *Generator) Running() bool {
	return g.running
}

// Settings returns the settings last applied
func (g *Generator) Settings() Settings {
	return g.applied
}

// Divider returns the current clock divider
func (g *Generator) Divider() ClockDivider {
	return g.divider
}

// OutputFrequency returns the frequency actually produced for the current divider
func (g *Generator) OutputFrequency() uint32 {
	return g.divider.OutputFrequency(g.cfg.SystemClockHz, CycleBitWidth)
}

// Pattern returns the pattern buffer. Callers must not write to it.
func (g *Generator) Pattern() *BitPattern {
	return &g.pattern
}

// Layout returns the chain layout in use, valid once started
func (g *Generator) Layout() ChainLayout {
	return g.layout
}
