package protocol

import "errors"

var (
	ErrInvalidVLQ     = errors.New("invalid VLQ encoding")
	ErrBufferTooSmall = errors.New("buffer too small for VLQ")
)

// EncodeVLQInt encodes a signed integer, most significant group first.
// Values in [-32, 96) take one byte; every further byte adds 7 bits.
func EncodeVLQInt(output OutputBuffer, v int32) {
	var buf [5]byte
	n := 0
	// A leading group is needed whenever v falls outside the range the
	// remaining groups can express with the sign bit at 0x40
	for shift := 28; shift > 0; shift -= 7 {
		limit := int32(1) << (shift - 2)
		if v < -limit || v >= 3*limit {
			buf[n] = byte(v>>shift)&0x7f | 0x80
			n++
		}
	}
	buf[n] = byte(v) & 0x7f
	output.Output(buf[:n+1])
}

// EncodeVLQUint encodes an unsigned integer
func EncodeVLQUint(output OutputBuffer, v uint32) {
	EncodeVLQInt(output, int32(v))
}

// DecodeVLQInt decodes a signed integer and advances data past it
func DecodeVLQInt(data *[]byte) (int32, error) {
	in := *data
	if len(in) == 0 {
		return 0, ErrBufferTooSmall
	}

	v := uint32(in[0] & 0x7f)
	if in[0]&0x60 == 0x60 {
		v |= ^uint32(0x1f)
	}
	i := 0
	for in[i]&0x80 != 0 {
		i++
		if i == 5 {
			return 0, ErrInvalidVLQ
		}
		if i == len(in) {
			return 0, ErrBufferTooSmall
		}
		v = v<<7 | uint32(in[i]&0x7f)
	}

	*data = in[i+1:]
	return int32(v), nil
}

// DecodeVLQUint decodes an unsigned integer and advances data past it
func DecodeVLQUint(data *[]byte) (uint32, error) {
	val, err := DecodeVLQInt(data)
	return uint32(val), err
}

// EncodeVLQ returns the encoding of v
func EncodeVLQ(v int32) []byte {
	output := NewScratchOutput()
	EncodeVLQInt(output, v)
	return output.Result()
}

// DecodeVLQ decodes the value at the start of data and reports how many
// bytes it took; data is left as is
func DecodeVLQ(data []byte) (int32, int, error) {
	rest := data
	v, err := DecodeVLQInt(&rest)
	if err != nil {
		return 0, 0, err
	}
	return v, len(data) - len(rest), nil
}
