package core

// StreamConfig describes the one-instruction bit streaming program
type StreamConfig struct {
	Pin     uint8        // output pin driven by `out pins, 1`
	Width   uint8        // autopull threshold in bits
	Divider ClockDivider // initial pacing divider
}

// StreamMachine is the abstract PIO state machine that shifts the pattern out.
// Platform-specific implementations handle actual hardware control.
type StreamMachine interface {
	// Start loads the program, drives the pin high as the idle level,
	// applies the divider and enables the state machine.
	Start(cfg StreamConfig) error

	// SetClockDivider rewrites CLKDIV; safe while running
	SetClockDivider(div ClockDivider)

	// Stop disables the state machine, clears its FIFOs and drives the pin low
	Stop()

	// TxFIFO returns the TXF register address and the DREQ that paces it
	TxFIFO() (addr uint32, dreq uint8)
}

// DMAEngine is the abstract DMA controller used by the feed/rearm chain
type DMAEngine interface {
	// AddressOf returns the bus address of words. The words must not move.
	AddressOf(words []uint32) uint32

	// Load writes a descriptor without starting the channel
	Load(d Descriptor)

	// Trigger writes a descriptor and starts the channel
	Trigger(d Descriptor)

	// Abort stops the given channels and waits until they are idle
	Abort(channels ...DMAChannel)
}
