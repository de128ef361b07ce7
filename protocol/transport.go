package protocol

import (
	"bytes"
	"errors"
)

var (
	ErrIncomplete    = errors.New("incomplete frame")
	ErrBadFrame      = errors.New("malformed frame")
	ErrFrameTooLarge = errors.New("frame payload too large")
)

// Frame is a decoded message block
type Frame struct {
	Seq     uint8
	Payload []byte
}

// ParseFrame decodes the frame at the start of data and returns it with the
// number of bytes it occupies. ErrIncomplete means more input is needed;
// ErrBadFrame means the head of data is not a valid frame and the reader
// should resynchronize on the next sync byte. Payload aliases data.
func ParseFrame(data []byte) (Frame, int, error) {
	if len(data) < MessageLengthMin {
		return Frame{}, 0, ErrIncomplete
	}
	msgLen := int(data[MessagePositionLen])
	if msgLen < MessageLengthMin || msgLen > MessageMax {
		return Frame{}, 0, ErrBadFrame
	}
	seq := data[MessagePositionSeq]
	if seq&^MessageSeqMask != MessageDest {
		return Frame{}, 0, ErrBadFrame
	}
	if len(data) < msgLen {
		return Frame{}, 0, ErrIncomplete
	}
	if data[msgLen-MessageTrailerSync] != MessageValueSync {
		return Frame{}, 0, ErrBadFrame
	}
	frameCRC := uint16(data[msgLen-MessageTrailerCRC])<<8 |
		uint16(data[msgLen-MessageTrailerCRC+1])
	if frameCRC != CRC16(data[:msgLen-MessageTrailerSize]) {
		return Frame{}, 0, ErrBadFrame
	}
	return Frame{
		Seq:     seq,
		Payload: data[MessageHeaderSize : msgLen-MessageTrailerSize],
	}, msgLen, nil
}

// SkipToSync returns the offset just past the next sync byte in data. If
// there is none it returns len(data) and false.
func SkipToSync(data []byte) (int, bool) {
	i := bytes.IndexByte(data, MessageValueSync)
	if i < 0 {
		return len(data), false
	}
	return i + 1, true
}

// EncodeFrame writes a complete frame with the given sequence byte.
// payload may be nil for an empty (acknowledge-only) frame.
func EncodeFrame(output OutputBuffer, seq uint8, payload func(output OutputBuffer)) error {
	cursor := output.CurPosition()
	output.Output([]byte{0, seq})
	if payload != nil {
		payload(output)
	}

	body := output.DataSince(cursor)
	if len(body)-MessageHeaderSize > MessagePayloadMax {
		return ErrFrameTooLarge
	}
	output.Update(cursor, uint8(len(body)+MessageTrailerSize))

	crc := CRC16(output.DataSince(cursor))
	output.Output([]byte{
		uint8(crc >> 8),
		uint8(crc & 0xFF),
		MessageValueSync,
	})
	return nil
}

// FrameHandler processes the payload of an in-sequence frame
type FrameHandler func(payload []byte) error

// Transport is the device end of the link. It validates frames, tracks the
// expected sequence and hands payloads to the handler. A frame that arrives
// out of sequence is not executed; it is answered with an empty frame that
// carries the expected sequence so the host can resend. A resend of the
// frame executed last gets its reply again without running it twice.
//
// An empty frame from the host starts a session: the sequence restarts
// after the frame's own and the cached reply is dropped.
//
// Transport is owned by the control loop and is not safe for concurrent use.
type Transport struct {
	synchronized bool
	nextSeq      uint8
	output       OutputBuffer
	handler      FrameHandler

	resetCallback func()

	// Reply to the last executed frame, replayed for a resend
	lastReply [MessageMax]byte
	lastLen   int

	// Dropped counts bytes discarded while resynchronizing
	Dropped uint32
	// Errors counts handler failures
	Errors uint32
	// Replayed counts resends answered from the reply cache
	Replayed uint32
}

// NewTransport creates a Transport writing replies to output
func NewTransport(output OutputBuffer, handler FrameHandler) *Transport {
	return &Transport{
		synchronized: true,
		nextSeq:      MessageDest,
		output:       output,
		handler:      handler,
	}
}

// Receive processes as many complete frames from input as possible and
// pops what it consumed. A trailing partial frame is left in place.
func (t *Transport) Receive(input InputBuffer) {
	data := input.Data()

	for len(data) > 0 {
		if !t.synchronized {
			skip, found := SkipToSync(data)
			t.Dropped += uint32(skip)
			data = data[skip:]
			if found {
				t.synchronized = true
				t.sendAck()
			}
			continue
		}

		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}

		frame, n, err := ParseFrame(data)
		if err == ErrIncomplete {
			break
		}
		if err != nil {
			t.synchronized = false
			continue
		}
		data = data[n:]

		if len(frame.Payload) == 0 {
			t.restart(NextSequence(frame.Seq))
			t.sendAck()
			continue
		}

		if frame.Seq != t.nextSeq {
			if t.lastLen > 0 && NextSequence(frame.Seq) == t.nextSeq {
				t.output.Output(t.lastReply[:t.lastLen])
				t.Replayed++
			} else {
				t.sendAck()
			}
			continue
		}
		t.nextSeq = NextSequence(frame.Seq)

		before := t.output.CurPosition()
		if t.handler != nil {
			if err := t.handler(frame.Payload); err != nil {
				t.Errors++
			}
		}
		if t.output.CurPosition() == before {
			t.sendAck()
		}
		t.lastLen = copy(t.lastReply[:], t.output.DataSince(before))
	}

	consumed := input.Available() - len(data)
	if consumed > 0 {
		input.Pop(consumed)
	}
}

// SendFrame writes a reply frame tagged with the current sequence
func (t *Transport) SendFrame(payload func(output OutputBuffer)) error {
	return EncodeFrame(t.output, t.nextSeq, payload)
}

// SendCommand writes a reply frame holding id followed by args
func (t *Transport) SendCommand(id uint32, args ...uint32) error {
	return t.SendFrame(func(output OutputBuffer) {
		EncodeVLQUint(output, id)
		for _, a := range args {
			EncodeVLQUint(output, a)
		}
	})
}

func (t *Transport) sendAck() {
	_ = EncodeFrame(t.output, t.nextSeq, nil)
}

// Sequence returns the sequence byte the next host frame must carry
func (t *Transport) Sequence() uint8 {
	return t.nextSeq
}

// Synchronized reports whether the transport is in frame sync
func (t *Transport) Synchronized() bool {
	return t.synchronized
}

// Reset returns the transport to its power-on state
func (t *Transport) Reset() {
	t.synchronized = true
	t.restart(MessageDest)
}

func (t *Transport) restart(next uint8) {
	t.nextSeq = next
	t.lastLen = 0
	if t.resetCallback != nil {
		t.resetCallback()
	}
}

// SetResetCallback sets a callback run when the host starts a new session
func (t *Transport) SetResetCallback(callback func()) {
	t.resetCallback = callback
}
