//go:build rp2040

package main

import (
	"machine"
	"runtime/volatile"
	"unsafe"

	"sqwave/core"
)

// TIMERAWL: low word of the free running microsecond counter, read
// without latching the high word
var usCounter = (*volatile.Register32)(unsafe.Pointer(uintptr(0x40054000 + 0x0c)))

// syncClock publishes the microsecond counter to the scheduler.
// Called once per pass of the control loop.
func syncClock() {
	core.SetTime(usCounter.Get())
}

// cpuHz is the clk_sys rate the PIO divider is computed against
func cpuHz() uint32 {
	return machine.CPUFrequency()
}
