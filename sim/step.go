package sim

import "sqwave/core"

func (m *Machine) trigger(ch core.DMAChannel) {
	c := &m.channels[ch]
	if core.UnpackDMAControl(c.ctrl).Enable {
		c.count = c.reload
		c.busy = c.count > 0
	}
}

// ready reports whether a channel's DREQ currently allows a transfer
func (m *Machine) ready(c *channel) bool {
	treq := core.UnpackDMAControl(c.ctrl).TreqSel
	if treq == core.TreqPermanent {
		return true
	}
	_, dreq := m.TxFIFO()
	if treq == dreq {
		return m.enabled && len(m.fifo) < fifoDepth
	}
	// Nothing else in the model raises a DREQ.
	return false
}

// transfer moves one word for the first ready channel after the arbiter position
func (m *Machine) transfer() bool {
	for i := 0; i < core.DMAChannels; i++ {
		ch := (m.rr + i) % core.DMAChannels
		c := &m.channels[ch]
		if !c.busy || !m.ready(c) {
			continue
		}
		m.rr = (ch + 1) % core.DMAChannels

		ctrl := core.UnpackDMAControl(c.ctrl)
		m.Write32(c.write, m.Read32(c.read))
		if ctrl.IncrRead {
			c.read += 4
		}
		if ctrl.IncrWrite {
			c.write += 4
		}
		c.count--
		if c.count == 0 {
			c.busy = false
			m.Completions[ch]++
			if ctrl.ChainTo != core.DMAChannel(ch) {
				m.trigger(ctrl.ChainTo)
			}
		}
		return true
	}
	return false
}

// Step executes one PIO instruction slot of `out pins, 1` with autopull
func (m *Machine) Step() {
	for i := 0; i < dmaBurst; i++ {
		if !m.transfer() {
			break
		}
	}
	if !m.enabled {
		m.Bits = append(m.Bits, m.level)
		return
	}
	if m.shifted >= m.threshold {
		if len(m.fifo) == 0 {
			m.Stalls++
			m.Bits = append(m.Bits, m.level)
			return
		}
		m.osr = m.fifo[0]
		m.fifo = m.fifo[1:]
		m.shifted = 0
	}
	m.level = m.osr&1 != 0
	m.osr >>= 1
	m.shifted++
	m.Bits = append(m.Bits, m.level)
}

// Run executes n instruction slots
func (m *Machine) Run(n int) {
	for i := 0; i < n; i++ {
		m.Step()
	}
}

// RunCycles executes enough slots for n waveform cycles of width bits
func (m *Machine) RunCycles(n int, width uint8) {
	m.Run(n * int(width))
}

// Reset clears the recorded trace and counters, keeping machine state
func (m *Machine) Reset() {
	m.Bits = m.Bits[:0]
	m.Stalls = 0
	m.Faults = 0
	m.Completions = [core.DMAChannels]int{}
}

// Cycles packs the recorded bits into words of width bits, LSB first,
// starting at bit offset start. A trailing partial cycle is dropped.
func (m *Machine) Cycles(start int, width uint8) []uint32 {
	var out []uint32
	w := int(width)
	for i := start; i+w <= len(m.Bits); i += w {
		var word uint32
		for b := 0; b < w; b++ {
			if m.Bits[i+b] {
				word |= 1 << b
			}
		}
		out = append(out, word)
	}
	return out
}
