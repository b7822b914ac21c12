package gcgen

// CollectFunc runs a collection cycle against generation g. Supplied by the
// core so gcgen never depends on the collector package.
type CollectFunc func(g int) error

// Scheduler decides when collect_if_needed actually triggers a cycle and
// delegates to CollectFunc for the generation it picked.
type Scheduler struct {
	Thresholds *Thresholds
}

// NewScheduler creates a Scheduler at default thresholds.
func NewScheduler() *Scheduler {
	return &Scheduler{Thresholds: NewThresholds()}
}

// NeedsCollection reports whether any scheduling rule currently fires.
func (s *Scheduler) NeedsCollection() bool {
	return s.Thresholds.NeedsCollection() >= 0
}

// CollectIfNeeded evaluates the highest-generation rule that fires and, if
// one does, delegates to collect. Returns nil if no rule fired (this is
// success: "nothing to do" is not an error).
func (s *Scheduler) CollectIfNeeded(collect CollectFunc) error {
	g := s.Thresholds.NeedsCollection()
	if g < 0 {
		return nil
	}
	return collect(g)
}
