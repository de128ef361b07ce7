package protocol

import "testing"

func TestVLQRoundTrip(t *testing.T) {
	// Values the link actually carries: command IDs, frequencies at both
	// ends of the range, duties, battery -1 and the status reply ID
	values := []int32{0, 1, 5, 10, 90, -1, 0x80, 1000, 10000, 19968, 10000000, -1000000}

	output := NewScratchOutput()
	for _, v := range values {
		EncodeVLQInt(output, v)
	}
	data := output.Result()

	for _, expected := range values {
		got, err := DecodeVLQInt(&data)
		if err != nil {
			t.Fatalf("Decode of %d failed: %v", expected, err)
		}
		if got != expected {
			t.Errorf("Expected %d, got %d", expected, got)
		}
	}
	if len(data) != 0 {
		t.Errorf("Expected all bytes consumed, %d left", len(data))
	}
}

func TestVLQUintFullRange(t *testing.T) {
	for _, expected := range []uint32{0, 127, 0x7fffffff, 0xffffffff} {
		data := EncodeVLQ(int32(expected))
		got, err := DecodeVLQUint(&data)
		if err != nil || got != expected {
			t.Errorf("Expected %d, got %d (%v)", expected, got, err)
		}
	}
}

func TestDecodeVLQLeavesInput(t *testing.T) {
	data := []byte{0x87, 0x68, 0x05}
	v, n, err := DecodeVLQ(data)
	if err != nil || v != 1000 || n != 2 {
		t.Errorf("Expected 1000 in 2 bytes, got %d in %d (%v)", v, n, err)
	}
	if len(data) != 3 {
		t.Error("DecodeVLQ modified its input")
	}
}

func TestVLQBufferTooSmall(t *testing.T) {
	for _, data := range [][]byte{{}, {0x80}, {0x81, 0x9c}} {
		if _, err := DecodeVLQInt(&data); err != ErrBufferTooSmall {
			t.Errorf("% x: expected ErrBufferTooSmall, got %v", data, err)
		}
	}
}

func TestVLQKnownEncodings(t *testing.T) {
	testCases := []struct {
		v        int32
		expected []byte
	}{
		{0, []byte{0x00}},
		{-1, []byte{0x7f}},
		{95, []byte{0x5f}},
		{0x80, []byte{0x81, 0x00}},
		{1000, []byte{0x87, 0x68}},
		{20000, []byte{0x81, 0x9c, 0x20}},
	}
	for _, tc := range testCases {
		got := EncodeVLQ(tc.v)
		if string(got) != string(tc.expected) {
			t.Errorf("%d: expected % x, got % x", tc.v, tc.expected, got)
		}
	}
}

func TestVLQTooLong(t *testing.T) {
	data := []byte{0x81, 0x81, 0x81, 0x81, 0x81, 0x01}
	if _, err := DecodeVLQInt(&data); err != ErrInvalidVLQ {
		t.Errorf("Expected ErrInvalidVLQ, got %v", err)
	}
}
