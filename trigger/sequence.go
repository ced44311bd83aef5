// Trigger waveform playback and emulation.
//
// A StateSequence is the precomputed cyclic table of per-channel signal
// levels for one trigger-wheel pattern. Building tables from wheel
// geometry is an external concern; this package only plays them back.
package trigger

import "github.com/Zazins/rusefi/core"

// PhaseRow holds the per-channel levels of one table entry; true is high.
type PhaseRow [core.MaxPhaseChannels]bool

// StateSequence is a cyclic multi-channel level table with a version tag.
// The external waveform builder owns it and may replace its contents at
// any time; every replacement bumps the version so a running scheduler
// can reconcile. Implements core.PhaseSource.
type StateSequence struct {
	rows    []PhaseRow
	version int
}

// NewStateSequence creates a sequence from the given rows. The slice is
// used directly, not copied; the caller hands over ownership.
func NewStateSequence(rows []PhaseRow) *StateSequence {
	return &StateSequence{rows: rows, version: 1}
}

// SetShape replaces the table contents and bumps the version. May be
// called while a scheduler is playing the sequence; the scheduler adopts
// the new shape on its next tick.
func (s *StateSequence) SetShape(rows []PhaseRow) {
	s.rows = rows
	s.version++
}

// PhaseCount returns the number of entries in the table
func (s *StateSequence) PhaseCount() int {
	return len(s.rows)
}

// Version returns the current table version
func (s *StateSequence) Version() int {
	return s.version
}

// ChannelHigh reports whether the channel is at the high level at the
// given phase index, taken modulo the current phase count. Out-of-range
// channels and an empty table read as low.
func (s *StateSequence) ChannelHigh(channel, phaseIndex int) bool {
	if len(s.rows) == 0 || channel < 0 || channel >= core.MaxPhaseChannels {
		return false
	}
	return s.rows[phaseIndex%len(s.rows)][channel]
}
