package collector

import "time"

// CycleStats summarizes one collect_generation execution. This is the
// "Collection statistics over time" feature SPEC_FULL adds beyond the
// stable ABI's stats record — useful for debugging and for trigen bench,
// never claimed as ABI-stable.
type CycleStats struct {
	CycleID            string
	Generation         int
	Candidates         int
	Reclaimed          int
	Promoted           int
	UncollectableDelta int
	Duration           time.Duration
}

// historyLimit bounds the ring buffer of past cycles kept in memory,
// following the teacher's AggregateByField top-N pattern of bounding
// unbounded collections rather than growing them forever.
const historyLimit = 64

// history is a small ring buffer of the most recent CycleStats.
type history struct {
	entries []CycleStats
}

func (h *history) push(s CycleStats) {
	h.entries = append(h.entries, s)
	if len(h.entries) > historyLimit {
		h.entries = h.entries[len(h.entries)-historyLimit:]
	}
}

// Recent returns up to n of the most recent cycles, newest last.
func (h *history) Recent(n int) []CycleStats {
	if n <= 0 || n > len(h.entries) {
		n = len(h.entries)
	}
	out := make([]CycleStats, n)
	copy(out, h.entries[len(h.entries)-n:])
	return out
}
