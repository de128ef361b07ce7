// Package protocol implements the framed serial link used to control the
// generator from a host.
//
// A frame is
//
//	len seq payload... crc_hi crc_lo 0x7e
//
// where len counts the whole frame, seq carries 0x10 in the high nibble and a
// 4-bit sequence number in the low nibble, and the CRC covers len, seq and the
// payload. Payloads are a VLQ command or reply ID followed by VLQ arguments.
package protocol

// Version is the link protocol version reported by the firmware
const Version = "1"

const (
	MessageMax         = 64 // largest frame on the wire
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessagePayloadMax  = MessageMax - MessageLengthMin

	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1

	MessageValueSync = 0x7E
	MessageDest      = 0x10
	MessageSeqMask   = 0x0F
)

// NextSequence returns the sequence byte following seq
func NextSequence(seq uint8) uint8 {
	return ((seq + 1) & MessageSeqMask) | MessageDest
}
