package protocol

// CRC16 returns the frame checksum over len, seq and payload.
// This is CRC-16/MCRF4XX (reflected CCITT, seed 0xffff); frames carry it
// high byte first.
func CRC16(data []byte) uint16 {
	crc := uint16(0xffff)
	for _, b := range data {
		b ^= uint8(crc)
		b ^= b << 4
		w := uint16(b)
		crc = (w<<8 | crc>>8) ^ (w >> 4) ^ (w << 3)
	}
	return crc
}
