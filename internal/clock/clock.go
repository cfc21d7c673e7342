// Package clock provides the engine's monotonic timestamp source.
//
// Grounded on original_source/src/util/timer.hpp's get_monotonic_ns, which
// wraps std::chrono::steady_clock. Go's time.Since(epoch) over a fixed
// start instant is the idiomatic equivalent of a steady clock: it never
// jumps with wall-clock adjustments.
package clock

import "time"

// Source returns nanosecond timestamps, monotonically increasing from an
// arbitrary epoch fixed at construction.
type Source struct {
	start time.Time
}

// New returns a Source epoched at the call site.
func New() Source {
	return Source{start: time.Now()}
}

// NowNS returns nanoseconds elapsed since the Source was constructed.
func (s Source) NowNS() uint64 {
	return uint64(time.Since(s.start))
}
