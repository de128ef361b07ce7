package core

import "strconv"

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// Event captures a generator state change for post-mortem analysis
type Event struct {
	EventType uint8  // Event type code
	Clock     uint32 // System clock at event
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtStreamStart = 1 // state machine enabled, v1=pin v2=CLKDIV
	EvtChainArmed  = 2 // DMA chain triggered, v1=feeder v2=rearmer
	EvtDivider     = 3 // CLKDIV rewritten, v1=frequency v2=CLKDIV
	EvtPattern     = 4 // pattern rewritten, v1=duty v2=pattern word
	EvtStop        = 5 // chain aborted and state machine disabled
	EvtRemote      = 6 // remote command handled, v1=command v2=error code
)

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	eventRing     [EventRingSize]Event
	eventRingHead uint8 // Next write position
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordEvent captures an event in the ring buffer.
// Never blocks and never allocates, so it is safe on the update path.
func RecordEvent(eventType uint8, value1, value2 uint32) {
	idx := eventRingHead
	eventRing[idx] = Event{
		EventType: eventType,
		Clock:     GetTime(),
		Value1:    value1,
		Value2:    value2,
	}
	eventRingHead = (idx + 1) % EventRingSize
}

// Events returns the recorded events, oldest first
func Events() []Event {
	out := make([]Event, 0, EventRingSize)
	start := eventRingHead
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(start+i)%EventRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}
		out = append(out, evt)
	}
	return out
}

// EventName returns a short label for an event type
func EventName(eventType uint8) string {
	switch eventType {
	case EvtStreamStart:
		return "STREAM_START"
	case EvtChainArmed:
		return "CHAIN_ARMED"
	case EvtDivider:
		return "CLKDIV"
	case EvtPattern:
		return "PATTERN"
	case EvtStop:
		return "STOP"
	case EvtRemote:
		return "REMOTE"
	default:
		return "UNKNOWN"
	}
}

// DumpEvents outputs the event ring (call on shutdown/error)
func DumpEvents() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[EVENTS] === Event Ring Dump ===")
	line := make([]byte, 0, 64)
	for _, evt := range Events() {
		line = append(line[:0], "[EVENTS] "...)
		line = append(line, EventName(evt.EventType)...)
		line = appendField(line, " clock=", evt.Clock)
		line = appendField(line, " v1=", evt.Value1)
		line = appendField(line, " v2=", evt.Value2)
		debugPrintln(string(line))
	}
	debugPrintln("[EVENTS] === End Dump ===")
}

func appendField(buf []byte, name string, v uint32) []byte {
	buf = append(buf, name...)
	return strconv.AppendUint(buf, uint64(v), 10)
}

// ClearEvents clears the event ring
func ClearEvents() {
	for i := range eventRing {
		eventRing[i] = Event{}
	}
	eventRingHead = 0
}
