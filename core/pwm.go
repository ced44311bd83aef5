// Multi-channel waveform playback.
// Drives a phase cursor through an externally owned level table at a
// configured cycle frequency, tolerating live table swaps and live
// frequency changes.
package core

import "math"

// MaxPhaseChannels is the fixed number of waveform channels tracked per
// phase: primary trigger, secondary trigger, cam, and one spare.
const MaxPhaseChannels = 4

// PhaseSource is the read-only view of an externally owned cyclic level
// table. The owner may replace the table contents at any time; Version
// must change whenever it does.
type PhaseSource interface {
	PhaseCount() int
	Version() int

	// ChannelHigh reports whether the channel is at the high level at the
	// given phase index. Implementations index modulo the current phase
	// count.
	ChannelHigh(channel, phaseIndex int) bool
}

// PhaseCallback is invoked once per phase transition with the timestamp
// captured at tick start. Runs in timer-dispatch context: non-blocking,
// bounded-time, no allocation.
type PhaseCallback func(src PhaseSource, phaseIndex int, stamp uint32)

// idlePollTicks is how often a paused scheduler re-checks its frequency
// and table version.
const idlePollTicks = TimerFreq / 100 // 10ms

// WaveformScheduler advances a phase cursor through a PhaseSource.
// One cycle (a full pass through the table) takes 1/frequency seconds;
// phases within a cycle are evenly spaced.
//
// The cursor and cached version are mutated only from tick context.
// SetFrequency may be called from the control path; the tick re-reads
// the frequency once per tick, so a change takes effect within one tick
// without locking.
type WaveformScheduler struct {
	source   PhaseSource
	callback PhaseCallback

	timer Timer

	// Cycle frequency in table passes per second. NaN or <= 0 parks the
	// cursor without disarming the timer.
	frequency float32

	phaseIndex int
	srcVersion int

	// false forces the next interval to be computed from "now" instead of
	// extrapolated from the previous wake time.
	intervalValid bool

	running bool
}

// SetFrequency updates the cycle frequency. NaN or a non-positive value
// pauses playback; there is no automatic resumption.
func (ws *WaveformScheduler) SetFrequency(perSecond float32) {
	ws.frequency = perSecond
	ws.intervalValid = false
	RecordTiming(EvtFreqChange, 0, GetTime(), math.Float32bits(perSecond), 0)
}

// Frequency returns the configured cycle frequency
func (ws *WaveformScheduler) Frequency() float32 {
	return ws.frequency
}

// PhaseIndex returns the current cursor position
func (ws *WaveformScheduler) PhaseIndex() int {
	return ws.phaseIndex
}

// Running reports whether the scheduler timer is armed
func (ws *WaveformScheduler) Running() bool {
	return ws.running
}

// Start resets the cursor to phase 0, adopts the source's current
// version and arms the timer. The first tick fires at the current time
// and advances to phase 1.
func (ws *WaveformScheduler) Start(src PhaseSource, callback PhaseCallback) {
	if ws.running {
		ws.Stop()
	}

	ws.source = src
	ws.callback = callback
	ws.phaseIndex = 0
	ws.srcVersion = src.Version()
	ws.intervalValid = false

	ws.timer.Handler = ws.tick
	ws.timer.WakeTime = GetTime()
	ScheduleTimer(&ws.timer)
	ws.running = true
	RecordTiming(EvtStimStart, 0, GetTime(), uint32(src.PhaseCount()), 0)
}

// Stop disarms the timer. The cursor keeps its position until the next
// Start resets it.
func (ws *WaveformScheduler) Stop() {
	if !ws.running {
		return
	}
	UnscheduleTimer(&ws.timer)
	ws.running = false
	RecordTiming(EvtStimStop, 0, GetTime(), 0, 0)
}

// tick is the per-phase timer handler.
func (ws *WaveformScheduler) tick(t *Timer) uint8 {
	stamp := GetTime()

	// Reconcile before advancing so a table swap is observed on this
	// tick, not the next one.
	ws.reconcileSource()

	frequency := ws.frequency
	if !(frequency > 0) { // catches NaN, zero and negative
		// Paused. Keep polling so a later SetFrequency takes effect
		// without re-arming.
		t.WakeTime = stamp + idlePollTicks
		ws.intervalValid = false
		return SF_RESCHEDULE
	}

	phaseCount := ws.source.PhaseCount()
	if phaseCount <= 0 {
		t.WakeTime = stamp + idlePollTicks
		ws.intervalValid = false
		return SF_RESCHEDULE
	}

	ws.phaseIndex = (ws.phaseIndex + 1) % phaseCount
	ws.callback(ws.source, ws.phaseIndex, stamp)
	RecordTiming(EvtPhaseAdvance, 0, stamp, uint32(ws.phaseIndex), uint32(phaseCount))

	interval := phaseIntervalTicks(frequency, phaseCount)
	if ws.intervalValid {
		// Extrapolate from the previous wake time so per-phase rounding
		// does not accumulate into cycle drift.
		t.WakeTime += interval
	} else {
		t.WakeTime = stamp + interval
		ws.intervalValid = true
	}
	return SF_RESCHEDULE
}

// reconcileSource adopts a new table version: clamp the cursor into the
// new range and drop any timing extrapolated against the old table.
func (ws *WaveformScheduler) reconcileSource() {
	version := ws.source.Version()
	if version == ws.srcVersion {
		return
	}
	ws.srcVersion = version

	phaseCount := ws.source.PhaseCount()
	if phaseCount > 0 {
		ws.phaseIndex = ws.phaseIndex % phaseCount
	} else {
		ws.phaseIndex = 0
	}
	ws.intervalValid = false
	RecordTiming(EvtShapeSwap, 0, GetTime(), uint32(version), uint32(phaseCount))
}

// phaseIntervalTicks returns the tick interval between two phases of a
// cycle running at the given frequency. Never returns zero.
func phaseIntervalTicks(perSecond float32, phaseCount int) uint32 {
	cycleTicks := float32(TimerFreq) / perSecond
	interval := uint32(cycleTicks / float32(phaseCount))
	if interval == 0 {
		interval = 1
	}
	return interval
}
