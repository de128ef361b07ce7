// Package sim models the RP2040 blocks the waveform generator drives: one PIO
// state machine running the `out pins, 1` stream program and the DMA channels
// feeding it. It implements core.StreamMachine and core.DMAEngine so a
// core.Generator can run unmodified off-target, and it records the pin level
// for every PIO instruction slot.
//
// The model works at instruction-slot granularity: each Step executes one
// PIO instruction and gives the DMA engine a bounded number of transfers,
// which is plenty to keep a 4-deep FIFO topped up. Register writes go through
// the same absolute addresses the firmware uses.
package sim

import (
	"sqwave/core"
)

const (
	fifoDepth = 4

	// Transfers the DMA engine may perform per PIO instruction slot
	dmaBurst = 4

	// First bus address handed out by AddressOf (RP2040 SRAM)
	sramBase = 0x20000000
)

type region struct {
	base  uint32
	words []uint32
}

type channel struct {
	read   uint32
	write  uint32
	count  uint32
	reload uint32
	ctrl   uint32
	busy   bool
}

// ChannelState is a snapshot of one simulated DMA channel
type ChannelState struct {
	ReadAddr   uint32
	WriteAddr  uint32
	TransCount uint32
	Ctrl       core.DMAControl
	Busy       bool
}

// Machine is a simulated PIO state machine plus DMA engine
type Machine struct {
	pio, sm uint8

	regions []region
	next    uint32

	channels [core.DMAChannels]channel
	rr       int // round-robin position of the DMA arbiter

	enabled   bool
	clkdiv    core.ClockDivider
	threshold uint8
	pin       uint8
	fifo      []uint32
	osr       uint32
	shifted   uint8
	level     bool

	// Bits holds the pin level after every instruction slot, including
	// slots where the state machine stalled on an empty FIFO.
	Bits []bool
	// Stalls counts slots where autopull found the FIFO empty
	Stalls int
	// Faults counts bus accesses to unmapped addresses
	Faults int
	// Completions counts finished transfers per channel
	Completions [core.DMAChannels]int
}

// NewMachine returns a machine standing in for state machine sm of block pio
func NewMachine(pio, sm uint8) *Machine {
	return &Machine{
		pio:  pio,
		sm:   sm,
		next: sramBase,
	}
}

// AddressOf maps words onto the simulated bus. The machine keeps a reference
// to the slice, so in-place writes by the caller are visible to DMA.
func (m *Machine) AddressOf(words []uint32) uint32 {
	if len(words) == 0 {
		return 0
	}
	for _, r := range m.regions {
		if &r.words[0] == &words[0] {
			return r.base
		}
	}
	base := m.next
	m.regions = append(m.regions, region{base: base, words: words})
	size := uint32(len(words)) * 4
	m.next += (size + 0xff) &^ 0xff
	return base
}

// Load writes a descriptor through the non-triggering AL1_CTRL alias
func (m *Machine) Load(d core.Descriptor) {
	m.Write32(core.ChannelRegister(d.Channel, core.DMAReadAddr), d.ReadAddr)
	m.Write32(core.ChannelRegister(d.Channel, core.DMAWriteAddr), d.WriteAddr)
	m.Write32(core.ChannelRegister(d.Channel, core.DMATransCount), d.TransCount)
	m.Write32(core.ChannelRegister(d.Channel, core.DMAAl1Ctrl), d.Ctrl.Pack())
}

// Trigger writes a descriptor and starts it through CTRL_TRIG
func (m *Machine) Trigger(d core.Descriptor) {
	m.Write32(core.ChannelRegister(d.Channel, core.DMAReadAddr), d.ReadAddr)
	m.Write32(core.ChannelRegister(d.Channel, core.DMAWriteAddr), d.WriteAddr)
	m.Write32(core.ChannelRegister(d.Channel, core.DMATransCount), d.TransCount)
	m.Write32(core.ChannelRegister(d.Channel, core.DMACtrlTrig), d.Ctrl.Pack())
}

// Abort stops channels without chaining, like a write to CHAN_ABORT
func (m *Machine) Abort(channels ...core.DMAChannel) {
	var mask uint32
	for _, ch := range channels {
		mask |= 1 << ch
	}
	m.Write32(core.DMABase+core.DMAChanAbort, mask)
}

// Start loads the stream program state: pin idle high, divider applied, enabled
func (m *Machine) Start(cfg core.StreamConfig) error {
	m.pin = cfg.Pin
	m.threshold = cfg.Width
	m.clkdiv = cfg.Divider
	m.fifo = m.fifo[:0]
	m.shifted = cfg.Width // empty OSR: the first out autopulls
	m.level = true
	m.enabled = true
	return nil
}

// SetClockDivider rewrites CLKDIV
func (m *Machine) SetClockDivider(div core.ClockDivider) {
	m.Write32(core.PIOClkdiv(m.pio, m.sm), div.Register())
}

// Stop disables the state machine, drops the FIFO and drives the pin low
func (m *Machine) Stop() {
	m.enabled = false
	m.fifo = m.fifo[:0]
	m.level = false
}

// TxFIFO returns the TXF address and pacing DREQ of the state machine
func (m *Machine) TxFIFO() (uint32, uint8) {
	return core.PIOTxFIFO(m.pio, m.sm), core.PIOTxDREQ(m.pio, m.sm)
}

// Enabled reports whether the state machine is running
func (m *Machine) Enabled() bool {
	return m.enabled
}

// ClockDivider returns the divider currently in CLKDIV
func (m *Machine) ClockDivider() core.ClockDivider {
	return m.clkdiv
}

// Level returns the current pin level
func (m *Machine) Level() bool {
	return m.level
}

// Channel returns a snapshot of a DMA channel
func (m *Machine) Channel(ch core.DMAChannel) ChannelState {
	c := &m.channels[ch]
	return ChannelState{
		ReadAddr:   c.read,
		WriteAddr:  c.write,
		TransCount: c.count,
		Ctrl:       core.UnpackDMAControl(c.ctrl),
		Busy:       c.busy,
	}
}

// Busy reports whether any DMA channel is active
func (m *Machine) Busy() bool {
	for i := range m.channels {
		if m.channels[i].busy {
			return true
		}
	}
	return false
}
