package core

import "errors"

// RP2040 DMA register map
const (
	DMABase          = 0x50000000
	DMAChannelStride = 0x40
	DMAChannels      = 12

	DMAReadAddr   = 0x000
	DMAWriteAddr  = 0x004
	DMATransCount = 0x008
	DMACtrlTrig   = 0x00c
	DMAAl1Ctrl    = 0x010

	DMAChanAbort = 0x444
)

// RP2040 PIO register map
const (
	PIO0Base = 0x50200000
	PIO1Base = 0x50300000

	PIOCtrl       = 0x000
	PIOTxf0       = 0x010
	PIOSM0Clkdiv  = 0x0c8
	PIOSMStride   = 0x018
	PIOStateCount = 4
)

// DMA CTRL register bit positions
const (
	dmaCtrlEnPos           = 0
	dmaCtrlHighPriorityPos = 1
	dmaCtrlDataSizePos     = 2
	dmaCtrlIncrReadPos     = 4
	dmaCtrlIncrWritePos    = 5
	dmaCtrlRingSizePos     = 6
	dmaCtrlRingSelPos      = 10
	dmaCtrlChainToPos      = 11
	dmaCtrlTreqSelPos      = 15
	dmaCtrlIRQQuietPos     = 21
	dmaCtrlBusyPos         = 24
)

// TreqPermanent selects unpaced transfers: the channel runs as fast as it can
const TreqPermanent = 0x3f

// DMAChannel is a DMA channel index 0..11
type DMAChannel uint8

// TransferSize is the DATA_SIZE code of a DMA channel
type TransferSize uint8

const (
	SizeByte     TransferSize = 0
	SizeHalfword TransferSize = 1
	SizeWord     TransferSize = 2
)

// DMAControl is the decoded form of a channel's CTRL register
type DMAControl struct {
	Enable       bool
	HighPriority bool
	DataSize     TransferSize
	IncrRead     bool
	IncrWrite    bool
	RingSize     uint8 // 0 disables wrapping
	RingSel      bool
	ChainTo      DMAChannel
	TreqSel      uint8
	IRQQuiet     bool
}

// Pack encodes the control fields into the 32-bit CTRL word
func (c DMAControl) Pack() uint32 {
	return boolBit(c.IRQQuiet)<<dmaCtrlIRQQuietPos |
		uint32(c.TreqSel&0x3f)<<dmaCtrlTreqSelPos |
		uint32(c.ChainTo&0xf)<<dmaCtrlChainToPos |
		boolBit(c.RingSel)<<dmaCtrlRingSelPos |
		uint32(c.RingSize&0xf)<<dmaCtrlRingSizePos |
		boolBit(c.IncrWrite)<<dmaCtrlIncrWritePos |
		boolBit(c.IncrRead)<<dmaCtrlIncrReadPos |
		uint32(c.DataSize&0x3)<<dmaCtrlDataSizePos |
		boolBit(c.HighPriority)<<dmaCtrlHighPriorityPos |
		boolBit(c.Enable)<<dmaCtrlEnPos
}

// UnpackDMAControl decodes a CTRL word
func UnpackDMAControl(v uint32) DMAControl {
	return DMAControl{
		Enable:       v>>dmaCtrlEnPos&1 != 0,
		HighPriority: v>>dmaCtrlHighPriorityPos&1 != 0,
		DataSize:     TransferSize(v >> dmaCtrlDataSizePos & 0x3),
		IncrRead:     v>>dmaCtrlIncrReadPos&1 != 0,
		IncrWrite:    v>>dmaCtrlIncrWritePos&1 != 0,
		RingSize:     uint8(v >> dmaCtrlRingSizePos & 0xf),
		RingSel:      v>>dmaCtrlRingSelPos&1 != 0,
		ChainTo:      DMAChannel(v >> dmaCtrlChainToPos & 0xf),
		TreqSel:      uint8(v >> dmaCtrlTreqSelPos & 0x3f),
		IRQQuiet:     v>>dmaCtrlIRQQuietPos&1 != 0,
	}
}

// DMABusy reports the BUSY flag of a CTRL register value
func DMABusy(ctrl uint32) bool {
	return ctrl>>dmaCtrlBusyPos&1 != 0
}

// ChannelRegister returns the absolute address of a channel register
func ChannelRegister(ch DMAChannel, offset uint32) uint32 {
	return DMABase + uint32(ch)*DMAChannelStride + offset
}

// PIOBase returns the register base of PIO block n (0 or 1)
func PIOBase(n uint8) uint32 {
	if n == 1 {
		return PIO1Base
	}
	return PIO0Base
}

// PIOTxFIFO returns the TXF register address of a state machine
func PIOTxFIFO(pio, sm uint8) uint32 {
	return PIOBase(pio) + PIOTxf0 + uint32(sm)*4
}

// PIOClkdiv returns the CLKDIV register address of a state machine
func PIOClkdiv(pio, sm uint8) uint32 {
	return PIOBase(pio) + PIOSM0Clkdiv + uint32(sm)*PIOSMStride
}

// PIOTxDREQ returns the DREQ number pacing a state machine's TX FIFO
func PIOTxDREQ(pio, sm uint8) uint8 {
	return pio*8 + sm
}

// Descriptor is the full register image of one DMA channel
type Descriptor struct {
	Channel    DMAChannel
	ReadAddr   uint32
	WriteAddr  uint32
	TransCount uint32
	Ctrl       DMAControl
}

var (
	ErrChainChannel   = errors.New("dma: channel out of range")
	ErrChainSame      = errors.New("dma: feeder and rearmer must be different channels")
	ErrChainAddress   = errors.New("dma: chain address not set")
	ErrChainLength    = errors.New("dma: pattern must hold at least one word")
	ErrChainCrossLink = errors.New("dma: chain targets do not form a feed/rearm cycle")
)

// ChainLayout describes the two-channel feed/rearm chain.
//
// The feeder streams the pattern into the PIO TX FIFO paced by the FIFO's
// DREQ, then chains to the rearmer. The rearmer copies the pattern base
// address from the scratch cell into the feeder's READ_ADDR and chains back
// to the feeder. Neither raises an interrupt; the loop never needs the CPU.
type ChainLayout struct {
	Feeder       DMAChannel
	Rearmer      DMAChannel
	PatternAddr  uint32
	PatternWords uint32
	ScratchAddr  uint32 // word holding PatternAddr, read by the rearmer
	TxFIFOAddr   uint32
	TxDREQ       uint8
}

// FeederDescriptor returns the register image of the feeder channel
func (l ChainLayout) FeederDescriptor() Descriptor {
	return Descriptor{
		Channel:    l.Feeder,
		ReadAddr:   l.PatternAddr,
		WriteAddr:  l.TxFIFOAddr,
		TransCount: l.PatternWords,
		Ctrl: DMAControl{
			IRQQuiet:     true,
			TreqSel:      l.TxDREQ,
			ChainTo:      l.Rearmer,
			IncrRead:     true,
			DataSize:     SizeWord,
			HighPriority: true,
			Enable:       true,
		},
	}
}

// RearmerDescriptor returns the register image of the rearmer channel
func (l ChainLayout) RearmerDescriptor() Descriptor {
	return Descriptor{
		Channel:    l.Rearmer,
		ReadAddr:   l.ScratchAddr,
		WriteAddr:  ChannelRegister(l.Feeder, DMAReadAddr),
		TransCount: 1,
		Ctrl: DMAControl{
			IRQQuiet:     true,
			TreqSel:      TreqPermanent,
			ChainTo:      l.Feeder,
			DataSize:     SizeWord,
			HighPriority: true,
			Enable:       true,
		},
	}
}

// Validate checks the layout before any register is touched.
// A wrong chain target is silent on hardware, so it is caught here.
func (l ChainLayout) Validate() error {
	if l.Feeder >= DMAChannels || l.Rearmer >= DMAChannels {
		return ErrChainChannel
	}
	if l.Feeder == l.Rearmer {
		return ErrChainSame
	}
	if l.PatternAddr == 0 || l.ScratchAddr == 0 || l.TxFIFOAddr == 0 {
		return ErrChainAddress
	}
	if l.PatternWords == 0 {
		return ErrChainLength
	}
	if _, err := l.Cycle(); err != nil {
		return err
	}
	return nil
}

// ChainState is the phase of the DMA loop. The states live in hardware;
// this models them so the configured chain targets can be checked.
type ChainState uint8

const (
	Feeding ChainState = iota
	Rearming
)

func (s ChainState) String() string {
	switch s {
	case Feeding:
		return "feeding"
	case Rearming:
		return "rearming"
	default:
		return "unknown"
	}
}

// Next returns the state entered when the current channel completes
func (s ChainState) Next() ChainState {
	if s == Feeding {
		return Rearming
	}
	return Feeding
}

// Channel returns which channel is active in state s
func (l ChainLayout) Channel(s ChainState) DMAChannel {
	if s == Feeding {
		return l.Feeder
	}
	return l.Rearmer
}

// Cycle follows the configured CHAIN_TO fields starting at the feeder and
// returns the visited states.
func (l ChainLayout) Cycle() ([]ChainState, error) {
	return VerifyChain(l.FeederDescriptor(), l.RearmerDescriptor())
}

// VerifyChain walks the CHAIN_TO fields of a descriptor pair and fails unless
// the walk is exactly Feeding -> Rearming -> Feeding. A channel chained to
// itself never chains, so the stream would stop after one pattern; a rearmer
// that does not point back at the feeder never restarts it.
func VerifyChain(feeder, rearmer Descriptor) ([]ChainState, error) {
	if feeder.Channel == rearmer.Channel {
		return nil, ErrChainSame
	}
	if rearmer.WriteAddr != ChannelRegister(feeder.Channel, DMAReadAddr) {
		return nil, ErrChainCrossLink
	}
	byState := [2]Descriptor{Feeding: feeder, Rearming: rearmer}
	states := []ChainState{Feeding}
	state := Feeding
	for i := 0; i < 2; i++ {
		cur := byState[state]
		state = state.Next()
		next := cur.Ctrl.ChainTo
		if next == cur.Channel || next != byState[state].Channel {
			return nil, ErrChainCrossLink
		}
		states = append(states, state)
	}
	return states, nil
}

func boolBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
