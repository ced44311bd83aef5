package core

// TimerFreq is the tick rate of the system clock. The RP2040 hardware
// timer runs at 1MHz; the host-side executor uses the same resolution so
// interval arithmetic is identical on both sides.
const TimerFreq = 1000000

var (
	bootTime uint64

	// 64-bit uptime tracking: uptimeHigh counts observed 32-bit clock
	// wraps. GetUptime must run at least once per wrap period
	// (~71 minutes at 1MHz) to keep the high word current.
	uptimeHigh     uint32
	uptimeLastSeen uint32
)

// GetTime returns the current system time in timer ticks
func GetTime() uint32 {
	return getSystemTicks()
}

// SetTime sets the current system time (hardware integration and tests)
func SetTime(ticks uint32) {
	setSystemTicks(ticks)
}

// AdvanceTime moves the system time forward by delta ticks. Test and
// simulation helper; hardware targets feed time from the timer peripheral.
func AdvanceTime(delta uint32) {
	setSystemTicks(getSystemTicks() + delta)
}

// GetUptime returns 64-bit uptime in timer ticks, accumulating 32-bit
// clock wraps as it observes them
func GetUptime() uint64 {
	now := GetTime()
	if now < uptimeLastSeen {
		uptimeHigh++
	}
	uptimeLastSeen = now
	return (uint64(uptimeHigh)<<32 | uint64(now)) - bootTime
}

// TimerFromUS converts microseconds to timer ticks
func TimerFromUS(us uint32) uint32 {
	return us * (TimerFreq / 1000000)
}

// TimerToUS converts timer ticks to microseconds
func TimerToUS(ticks uint32) uint32 {
	return ticks / (TimerFreq / 1000000)
}

// TimerInit initializes the system timer
func TimerInit() {
	uptimeHigh = 0
	uptimeLastSeen = GetTime()
	bootTime = uint64(uptimeLastSeen)
}

// ProcessTimers runs every timer that is due at the current time
func ProcessTimers() {
	currentTime = GetTime()
	TimerDispatch()
}
