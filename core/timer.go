package core

// TimerFreq is the rate of the RP2040 TIMER peripheral (1 MHz)
const TimerFreq = 1000000

// clockNow is published by the control loop once per pass and only read
// from it, so it needs no synchronization
var clockNow uint32

// GetTime returns the current system time in timer ticks
func GetTime() uint32 {
	return clockNow
}

// SetTime sets the current system time (for testing/hardware integration)
func SetTime(ticks uint32) {
	clockNow = ticks
}

// TimerFromMS converts milliseconds to timer ticks
func TimerFromMS(ms uint32) uint32 {
	return ms * (TimerFreq / 1000)
}

// TimerToMS converts timer ticks to milliseconds
func TimerToMS(ticks uint32) uint32 {
	return ticks / (TimerFreq / 1000)
}
