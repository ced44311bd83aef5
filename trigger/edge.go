package trigger

import "github.com/Zazins/rusefi/core"

// PreviousIndex returns the table index preceding currentIndex on a
// cyclic table of the given size.
func PreviousIndex(currentIndex, size int) int {
	return (currentIndex + size - 1) % size
}

// EdgeOccurred reports whether the channel level differs between the
// previous phase index and the current one. A single-phase table never
// reports an edge: the previous index equals the current one.
func EdgeOccurred(src core.PhaseSource, currentIndex, channel int) bool {
	prevIndex := PreviousIndex(currentIndex, src.PhaseCount())
	return src.ChannelHigh(channel, prevIndex) != src.ChannelHigh(channel, currentIndex)
}
