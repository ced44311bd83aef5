package core

// Timer is a scheduled callback. Handlers run in timer-dispatch context,
// which on hardware targets is interrupt-like: they must be non-blocking
// and bounded-time.
type Timer struct {
	WakeTime uint32
	Handler  func(*Timer) uint8
	Next     *Timer
}

// Handler return codes
const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

var (
	timerList   *Timer
	currentTime uint32
)

// ScheduleTimer adds a timer to the pending list. Scheduling a timer that
// is already pending is an error the list cannot detect; unschedule first.
func ScheduleTimer(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	insertTimer(t)
}

// UnscheduleTimer removes a timer from the pending list. Removing a timer
// that is not pending is a no-op.
func UnscheduleTimer(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if timerList == nil {
		return
	}
	if timerList == t {
		timerList = t.Next
		t.Next = nil
		return
	}
	for current := timerList; current.Next != nil; current = current.Next {
		if current.Next == t {
			current.Next = t.Next
			t.Next = nil
			return
		}
	}
}

// timeBefore reports whether a comes before b on the wrapping 32-bit
// clock. Signed difference keeps the ordering correct across the
// ~71 minute rollover, as long as no two pending wake times are more
// than half the clock range apart.
func timeBefore(a, b uint32) bool {
	return int32(a-b) < 0
}

// insertTimer inserts a timer in sorted order by WakeTime
func insertTimer(t *Timer) {
	if timerList == nil || timeBefore(t.WakeTime, timerList.WakeTime) {
		t.Next = timerList
		timerList = t
		return
	}

	current := timerList
	for current.Next != nil && timeBefore(current.Next.WakeTime, t.WakeTime) {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

// TimerDispatch processes due timers
func TimerDispatch() {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	for timerList != nil && !timeBefore(currentTime, timerList.WakeTime) {
		timer := timerList
		timerList = timer.Next
		timer.Next = nil

		result := timer.Handler(timer)

		if result == SF_RESCHEDULE {
			insertTimer(timer)
		}
	}
}

// ClearTimers drops every pending timer. Test helper.
func ClearTimers() {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	for timerList != nil {
		timer := timerList
		timerList = timer.Next
		timer.Next = nil
	}
}
