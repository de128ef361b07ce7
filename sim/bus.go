package sim

import "sqwave/core"

// Read32 reads a word from the simulated bus
func (m *Machine) Read32(addr uint32) uint32 {
	if ch, off, ok := dmaRegister(addr); ok {
		c := &m.channels[ch]
		switch off {
		case core.DMAReadAddr:
			return c.read
		case core.DMAWriteAddr:
			return c.write
		case core.DMATransCount:
			return c.count
		case core.DMACtrlTrig, core.DMAAl1Ctrl:
			return c.ctrl
		}
	}
	if addr == core.PIOClkdiv(m.pio, m.sm) {
		return m.clkdiv.Register()
	}
	if p := m.word(addr); p != nil {
		return *p
	}
	m.Faults++
	return 0
}

// Write32 writes a word to the simulated bus
func (m *Machine) Write32(addr, v uint32) {
	if addr == core.DMABase+core.DMAChanAbort {
		for ch := range m.channels {
			if v&(1<<ch) != 0 {
				m.channels[ch].busy = false
			}
		}
		return
	}
	if ch, off, ok := dmaRegister(addr); ok {
		c := &m.channels[ch]
		switch off {
		case core.DMAReadAddr:
			c.read = v
		case core.DMAWriteAddr:
			c.write = v
		case core.DMATransCount:
			// The written value is also the reload value used on every trigger.
			c.count = v
			c.reload = v
		case core.DMAAl1Ctrl:
			c.ctrl = v
		case core.DMACtrlTrig:
			c.ctrl = v
			m.trigger(core.DMAChannel(ch))
		default:
			m.Faults++
		}
		return
	}
	if addr == core.PIOTxFIFO(m.pio, m.sm) {
		if len(m.fifo) < fifoDepth {
			m.fifo = append(m.fifo, v)
		}
		return
	}
	if addr == core.PIOClkdiv(m.pio, m.sm) {
		m.clkdiv = core.DividerFromRegister(v)
		return
	}
	if p := m.word(addr); p != nil {
		*p = v
		return
	}
	m.Faults++
}

func (m *Machine) word(addr uint32) *uint32 {
	if addr&3 != 0 {
		return nil
	}
	for _, r := range m.regions {
		if addr >= r.base && addr < r.base+uint32(len(r.words))*4 {
			return &r.words[(addr-r.base)/4]
		}
	}
	return nil
}

func dmaRegister(addr uint32) (ch int, off uint32, ok bool) {
	if addr < core.DMABase || addr >= core.DMABase+core.DMAChannels*core.DMAChannelStride {
		return 0, 0, false
	}
	rel := addr - core.DMABase
	return int(rel / core.DMAChannelStride), rel % core.DMAChannelStride, true
}
