//go:build rp2040

package main

import (
	"runtime/volatile"
	"unsafe"
)

// RP2040 timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x08 // Raw timer high word
	timerTIMERAWL = timerBase + 0x0C // Raw timer low word
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)

// GetHardwareTime reads the RP2040 hardware timer.
// The timer runs at 1MHz, matching core.TimerFreq, so the value feeds
// core.SetTime without conversion. Returns the low 32 bits.
func GetHardwareTime() uint32 {
	return timerRAWL.Get()
}

// GetHardwareUptime reads the full 64-bit RP2040 hardware timer
func GetHardwareUptime() uint64 {
	// Read high, low, high again to catch a rollover between reads
	for {
		high := timerRAWH.Get()
		low := timerRAWL.Get()
		if timerRAWH.Get() == high {
			return uint64(high)<<32 | uint64(low)
		}
	}
}
