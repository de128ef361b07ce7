package core

import "strconv"

// Status is the read-only view handed to the display and the remote link
type Status struct {
	FrequencyHz uint32
	ActualHz    uint32
	Duty        DutyCycle
	Increment   FrequencyIncrement
	Running     bool
	Battery     int // 0..4, -1 when unknown
}

// AppendFrequency appends hz as kilohertz with three decimals, e.g. "20.000 kHz"
func AppendFrequency(buf []byte, hz uint32) []byte {
	buf = strconv.AppendUint(buf, uint64(hz/1000), 10)
	buf = append(buf, '.')
	frac := hz % 1000
	if frac < 100 {
		buf = append(buf, '0')
	}
	if frac < 10 {
		buf = append(buf, '0')
	}
	buf = strconv.AppendUint(buf, uint64(frac), 10)
	return append(buf, " kHz"...)
}

// AppendDuty appends the high/low split, e.g. "30/70"
func AppendDuty(buf []byte, d DutyCycle) []byte {
	buf = strconv.AppendUint(buf, uint64(d), 10)
	buf = append(buf, '/')
	return strconv.AppendUint(buf, uint64(d.Low()), 10)
}

// AppendIncrement appends the selected step, e.g. "+1K"
func AppendIncrement(buf []byte, inc FrequencyIncrement) []byte {
	buf = append(buf, '+')
	buf = strconv.AppendUint(buf, uint64(inc/1000), 10)
	return append(buf, 'K')
}

// Lines renders the status as two short text lines, e.g. for a terminal.
// line1/line2 are reused to keep the heap quiet.
func (s Status) Lines(line1, line2 []byte) ([]byte, []byte) {
	line1 = append(line1[:0], "F "...)
	line1 = AppendFrequency(line1, s.FrequencyHz)

	line2 = append(line2[:0], "D "...)
	line2 = AppendDuty(line2, s.Duty)
	line2 = append(line2, ' ')
	line2 = AppendIncrement(line2, s.Increment)
	if s.Battery >= 0 {
		line2 = append(line2, " B"...)
		line2 = strconv.AppendInt(line2, int64(s.Battery), 10)
	}
	if !s.Running {
		line2 = append(line2, " OFF"...)
	}
	return line1, line2
}
