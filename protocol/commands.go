package protocol

import "errors"

// CommandID identifies a request or reply in a frame payload
type CommandID uint32

// Host to device
const (
	CmdStatus          CommandID = 0
	CmdIncrease        CommandID = 1
	CmdDecrease        CommandID = 2
	CmdSelectIncrement CommandID = 3 // arg: increment in Hz
	CmdStepDuty        CommandID = 4
	CmdSetDuty         CommandID = 5 // arg: duty in percent
	CmdStart           CommandID = 6
	CmdStop            CommandID = 7
)

// Device to host
const (
	ReplyStatus CommandID = 0x80
)

// Result codes carried in a status reply
const (
	ResultOK uint8 = iota
	ResultUnknownCommand
	ResultBadArgument
	ResultRunning
	ResultNotRunning
	ResultFailed
)

var (
	ErrUnexpectedReply = errors.New("unexpected reply")

	ErrUnknownCommand = errors.New("device: unknown command")
	ErrBadArgument    = errors.New("device: bad argument")
	ErrDeviceRunning  = errors.New("device: generator already running")
	ErrDeviceStopped  = errors.New("device: generator not running")
	ErrDeviceFailed   = errors.New("device: command failed")
)

var commandNames = map[CommandID]string{
	CmdStatus:          "status",
	CmdIncrease:        "increase",
	CmdDecrease:        "decrease",
	CmdSelectIncrement: "select_increment",
	CmdStepDuty:        "step_duty",
	CmdSetDuty:         "set_duty",
	CmdStart:           "start",
	CmdStop:            "stop",
	ReplyStatus:        "status_reply",
}

func (id CommandID) String() string {
	if name, ok := commandNames[id]; ok {
		return name
	}
	return "unknown"
}

// ArgCount returns how many VLQ arguments a request carries
func (id CommandID) ArgCount() int {
	switch id {
	case CmdSelectIncrement, CmdSetDuty:
		return 1
	default:
		return 0
	}
}

// EncodeCommand writes a request payload
func EncodeCommand(output OutputBuffer, id CommandID, args ...uint32) {
	EncodeVLQUint(output, uint32(id))
	for _, a := range args {
		EncodeVLQUint(output, a)
	}
}

// StatusReply is the device state sent in answer to every request
type StatusReply struct {
	FrequencyHz uint32
	ActualHz    uint32
	Duty        uint32
	Increment   uint32
	Running     bool
	Battery     int32 // -1 when unknown
	Result      uint8
}

// Encode writes the reply payload
func (r StatusReply) Encode(output OutputBuffer) {
	EncodeVLQUint(output, uint32(ReplyStatus))
	EncodeVLQUint(output, r.FrequencyHz)
	EncodeVLQUint(output, r.ActualHz)
	EncodeVLQUint(output, r.Duty)
	EncodeVLQUint(output, r.Increment)
	var running uint32
	if r.Running {
		running = 1
	}
	EncodeVLQUint(output, running)
	EncodeVLQInt(output, r.Battery)
	EncodeVLQUint(output, uint32(r.Result))
}

// DecodeStatusReply parses a reply payload
func DecodeStatusReply(payload []byte) (StatusReply, error) {
	var r StatusReply
	id, err := DecodeVLQUint(&payload)
	if err != nil {
		return r, err
	}
	if CommandID(id) != ReplyStatus {
		return r, ErrUnexpectedReply
	}

	var fields [5]uint32
	for i := range fields {
		if fields[i], err = DecodeVLQUint(&payload); err != nil {
			return r, err
		}
	}
	battery, err := DecodeVLQInt(&payload)
	if err != nil {
		return r, err
	}
	result, err := DecodeVLQUint(&payload)
	if err != nil {
		return r, err
	}

	r.FrequencyHz = fields[0]
	r.ActualHz = fields[1]
	r.Duty = fields[2]
	r.Increment = fields[3]
	r.Running = fields[4] != 0
	r.Battery = battery
	r.Result = uint8(result)
	return r, nil
}

// ResultError maps a result code back to an error, nil for ResultOK
func ResultError(code uint8) error {
	switch code {
	case ResultOK:
		return nil
	case ResultUnknownCommand:
		return ErrUnknownCommand
	case ResultBadArgument:
		return ErrBadArgument
	case ResultRunning:
		return ErrDeviceRunning
	case ResultNotRunning:
		return ErrDeviceStopped
	default:
		return ErrDeviceFailed
	}
}
