package protocol

import "testing"

func TestCRC16(t *testing.T) {
	testCases := []struct {
		name     string
		data     []byte
		expected uint16
	}{
		{"empty", nil, 0xffff},
		{"check string", []byte("123456789"), 0x6f91},
		{"ack header", []byte{5, MessageDest}, 0x9e81},
		{"status request", []byte{6, MessageDest, byte(CmdStatus)}, 0x7a7b},
	}
	for _, tc := range testCases {
		if got := CRC16(tc.data); got != tc.expected {
			t.Errorf("%s: expected 0x%04x, got 0x%04x", tc.name, tc.expected, got)
		}
	}
}

func TestCRC16DetectsSingleBitErrors(t *testing.T) {
	frame := []byte{7, 0x13, byte(CmdSetDuty), 70}
	want := CRC16(frame)
	for i := range frame {
		for bit := 0; bit < 8; bit++ {
			frame[i] ^= 1 << bit
			if CRC16(frame) == want {
				t.Errorf("Flip of byte %d bit %d not detected", i, bit)
			}
			frame[i] ^= 1 << bit
		}
	}
}
