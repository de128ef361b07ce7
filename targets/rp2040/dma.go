//go:build rp2040

package main

import (
	"device/rp"
	"runtime/volatile"
	"unsafe"

	"sqwave/core"
)

// dmaChannelRegs is the first alias of one channel's register block
type dmaChannelRegs struct {
	READ_ADDR   volatile.Register32
	WRITE_ADDR  volatile.Register32
	TRANS_COUNT volatile.Register32
	CTRL_TRIG   volatile.Register32
	AL1_CTRL    volatile.Register32
}

var dmaChanAbort = (*volatile.Register32)(unsafe.Pointer(uintptr(core.DMABase + core.DMAChanAbort)))

// RPDMA implements core.DMAEngine on the RP2040 DMA controller
type RPDMA struct{}

// NewRPDMA takes the DMA block out of reset
func NewRPDMA() *RPDMA {
	rp.RESETS.RESET.ClearBits(rp.RESETS_RESET_DMA)
	for !rp.RESETS.RESET_DONE.HasBits(rp.RESETS_RESET_DONE_DMA) {
	}
	return &RPDMA{}
}

func (d *RPDMA) channel(ch core.DMAChannel) *dmaChannelRegs {
	return (*dmaChannelRegs)(unsafe.Pointer(uintptr(core.ChannelRegister(ch, 0))))
}

// AddressOf returns the bus address of words. SRAM is mapped 1:1.
func (d *RPDMA) AddressOf(words []uint32) uint32 {
	if len(words) == 0 {
		return 0
	}
	return uint32(uintptr(unsafe.Pointer(&words[0])))
}

// Load writes the descriptor through the AL1 alias so the channel is not started
func (d *RPDMA) Load(desc core.Descriptor) {
	r := d.channel(desc.Channel)
	r.READ_ADDR.Set(desc.ReadAddr)
	r.WRITE_ADDR.Set(desc.WriteAddr)
	r.TRANS_COUNT.Set(desc.TransCount)
	r.AL1_CTRL.Set(desc.Ctrl.Pack())
}

// Trigger writes the descriptor with CTRL_TRIG last, which starts the channel
func (d *RPDMA) Trigger(desc core.Descriptor) {
	r := d.channel(desc.Channel)
	r.READ_ADDR.Set(desc.ReadAddr)
	r.WRITE_ADDR.Set(desc.WriteAddr)
	r.TRANS_COUNT.Set(desc.TransCount)
	r.CTRL_TRIG.Set(desc.Ctrl.Pack())
}

// Abort stops the channels and spins until the hardware reports them idle.
// Both channels of a chain must be aborted together or one restarts the other.
func (d *RPDMA) Abort(channels ...core.DMAChannel) {
	var mask uint32
	for _, ch := range channels {
		mask |= 1 << ch
		// Clear EN so a chain trigger arriving mid-abort cannot restart it
		d.channel(ch).AL1_CTRL.ClearBits(1)
	}
	dmaChanAbort.Set(mask)
	for dmaChanAbort.Get()&mask != 0 {
	}
	for _, ch := range channels {
		for core.DMABusy(d.channel(ch).CTRL_TRIG.Get()) {
		}
	}
}
