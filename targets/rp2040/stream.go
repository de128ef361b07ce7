//go:build rp2040

package main

import (
	"machine"

	"sqwave/core"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// buildStreamProgram returns the one-instruction bit streamer. Autopull
// refills the OSR from the TX FIFO every CycleBitWidth shifts, so the loop
// is a single `out pins, 1` with the wrap pointing at itself.
func buildStreamProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Out(rp2pio.OutDestPins, 1).Encode(), // 0: out pins, 1
		// .wrap
	}
}

const streamOrigin = -1 // relocatable

// PIOStream implements core.StreamMachine on one RP2040 state machine
type PIOStream struct {
	pio    *rp2pio.PIO
	sm     rp2pio.StateMachine
	pioNum uint8
	smNum  uint8
	pin    machine.Pin
	offset uint8
	loaded bool
}

// NewPIOStream selects the state machine; nothing is touched until Start
func NewPIOStream(pioNum, smNum uint8) *PIOStream {
	pioHW := rp2pio.PIO0
	if pioNum == 1 {
		pioHW = rp2pio.PIO1
	}
	return &PIOStream{
		pio:    pioHW,
		sm:     pioHW.StateMachine(smNum),
		pioNum: pioNum,
		smNum:  smNum,
	}
}

// Start loads the program once, configures the state machine and enables it
func (s *PIOStream) Start(cfg core.StreamConfig) error {
	s.sm.TryClaim()

	if !s.loaded {
		offset, err := s.pio.AddProgram(buildStreamProgram(), streamOrigin)
		if err != nil {
			return err
		}
		s.offset = offset
		s.loaded = true
	}

	s.pin = machine.Pin(cfg.Pin)
	s.pin.Configure(machine.PinConfig{Mode: s.pio.PinMode()})

	smc := rp2pio.DefaultStateMachineConfig()
	smc.SetOutPins(s.pin, 1)
	// Shift right so the LSB leaves first, autopull at the cycle width
	smc.SetOutShift(true, true, uint16(cfg.Width))
	smc.SetWrap(s.offset, s.offset)
	smc.SetClkDivIntFrac(cfg.Divider.Int, cfg.Divider.Frac)

	s.sm.Init(s.offset, smc)

	// Pin directions and the idle level must follow Init
	s.sm.SetPindirsConsecutive(s.pin, 1, true)
	s.sm.SetPinsConsecutive(s.pin, 1, true)

	s.sm.SetEnabled(true)
	return nil
}

// SetClockDivider rewrites CLKDIV on the running state machine
func (s *PIOStream) SetClockDivider(div core.ClockDivider) {
	s.sm.SetClkDiv(div.Int, div.Frac)
}

// Stop disables the state machine, drops anything queued and parks the pin low
func (s *PIOStream) Stop() {
	s.sm.SetEnabled(false)
	s.sm.ClearFIFOs()
	s.sm.Restart()
	s.sm.SetPinsConsecutive(s.pin, 1, false)
}

// TxFIFO returns the TXF register address and its DREQ number
func (s *PIOStream) TxFIFO() (uint32, uint8) {
	return core.PIOTxFIFO(s.pioNum, s.smNum), core.PIOTxDREQ(s.pioNum, s.smNum)
}
