// Package bench is a load-generation harness for internal/core: it drives
// concurrent track/untrack/collect traffic against a Core and reports
// throughput plus trigen's own process overhead while doing so, so a host
// can decide whether the collector's bookkeeping is cheap enough for its
// allocation rate.
//
// Structurally this follows the teacher's internal/orchestrator.Orchestrator
// (fan out N goroutines over a WaitGroup, each writing its own result slot,
// report elapsed time for the run) generalized from "run every configured
// system collector once" to "run one synthetic workload repeatedly for a
// duration", combined with the teacher's internal/observer overhead
// snapshotting.
package bench

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dkrasnov/trigen/internal/core"
)

// Config controls one Run.
type Config struct {
	Workers      int           // concurrent goroutines; <=0 defaults to 4
	Duration     time.Duration // wall-clock budget per worker
	LiveSet      int           // addresses each worker keeps tracked at once
	CollectEvery int           // worker calls CollectIfNeeded every N track/untrack pairs; <=0 disables
}

// WorkerResult is one goroutine's tally.
type WorkerResult struct {
	Worker    int
	Tracked   int64
	Untracked int64
	Collects  int64
	Errors    int64
}

// Report is the outcome of one Run, identified by a fresh run ID so
// repeated benchmark invocations can be told apart in stored output.
type Report struct {
	RunID    string
	Started  time.Time
	Elapsed  time.Duration
	Config   Config
	Workers  []WorkerResult
	Overhead Snapshot
}

// TotalOps sums tracked+untracked+collects across every worker.
func (r Report) TotalOps() int64 {
	var n int64
	for _, w := range r.Workers {
		n += w.Tracked + w.Untracked + w.Collects
	}
	return n
}

// OpsPerSecond divides TotalOps by elapsed wall-clock time.
func (r Report) OpsPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.TotalOps()) / r.Elapsed.Seconds()
}

// Run drives cfg's workload against c for cfg.Duration and returns a
// Report. Each worker uses a disjoint address range (worker index in the
// high bits) so no two workers ever contend on the same tracked address.
func Run(c *core.Core, cfg Config) (Report, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Duration <= 0 {
		cfg.Duration = time.Second
	}
	if cfg.LiveSet <= 0 {
		cfg.LiveSet = 64
	}

	tracker := NewOverheadTracker()
	tracker.SnapshotBefore()

	started := time.Now()
	deadline := started.Add(cfg.Duration)

	results := make([]WorkerResult, cfg.Workers)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			results[w] = runWorker(c, w, cfg, deadline)
		}(w)
	}
	wg.Wait()

	return Report{
		RunID:    uuid.NewString(),
		Started:  started,
		Elapsed:  time.Since(started),
		Config:   cfg,
		Workers:  results,
		Overhead: tracker.SnapshotAfter(),
	}, nil
}

// runWorker repeatedly tracks a rolling window of cfg.LiveSet addresses,
// untracking the oldest as it tracks a new one, occasionally invoking
// CollectIfNeeded, until deadline passes.
func runWorker(c *core.Core, w int, cfg Config, deadline time.Time) WorkerResult {
	res := WorkerResult{Worker: w}
	base := uintptr(w+1) << 40
	var next uintptr
	live := make([]uintptr, 0, cfg.LiveSet)
	pairCount := 0

	for time.Now().Before(deadline) {
		next++
		addr := base | next
		if err := c.Track(addr); err != nil {
			res.Errors++
		} else {
			res.Tracked++
			live = append(live, addr)
		}

		if len(live) > cfg.LiveSet {
			oldest := live[0]
			live = live[1:]
			if err := c.Untrack(oldest); err != nil {
				res.Errors++
			} else {
				res.Untracked++
			}
		}

		pairCount++
		if cfg.CollectEvery > 0 && pairCount%cfg.CollectEvery == 0 {
			if err := c.CollectIfNeeded(); err != nil {
				res.Errors++
			} else {
				res.Collects++
			}
		}
	}

	for _, addr := range live {
		if err := c.Untrack(addr); err != nil {
			res.Errors++
		} else {
			res.Untracked++
		}
	}

	return res
}

// Format renders a human-readable summary for `trigen bench`.
func Format(r Report) string {
	s := fmt.Sprintf("bench run=%s elapsed=%s workers=%d ops=%d ops/s=%.0f\n",
		r.RunID, r.Elapsed.Round(time.Millisecond), len(r.Workers), r.TotalOps(), r.OpsPerSecond())
	for _, w := range r.Workers {
		s += fmt.Sprintf("  worker[%d] tracked=%d untracked=%d collects=%d errors=%d\n",
			w.Worker, w.Tracked, w.Untracked, w.Collects, w.Errors)
	}
	s += fmt.Sprintf("  overhead cpu_user_ms=%d cpu_system_ms=%d rss_bytes=%d ctx_switches=%d\n",
		r.Overhead.CPUUserMs, r.Overhead.CPUSystemMs, r.Overhead.MemoryRSSBytes, r.Overhead.ContextSwitches)
	return s
}
