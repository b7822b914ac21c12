// Package collector implements the collection cycle: candidate selection,
// mark, classify, sweep, and promotion, plus the uncollectable-list
// bookkeeping and the optional reference-edge graph. It is the "Collector"
// component of the design: it holds shared, read-mostly views during a
// cycle but never owns ObjectEntry records — those belong exclusively to
// the registry.
//
// The cycle structure (bounded phases under one lock, non-blocking
// contention guard) is grounded on the teacher's orchestrator.Run: a single
// exported entrypoint that fans out work, collects results under a mutex,
// and reports a summary — generalized here from parallel metric collection
// to sequential mark/classify/sweep/promote phases, since collect_generation
// must itself be serialized process-wide.
package collector

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dkrasnov/trigen/internal/gcgen"
	"github.com/dkrasnov/trigen/internal/registry"
)

// FinalizerHook is invoked once per reclaimed entry during sweep, after the
// registry lock for the cycle has been released (so the hook may safely
// call back into Track/Untrack) but while collection is still marked in
// progress (so a hook that tries to start another cycle is rejected rather
// than deadlocking — the reentrancy rule in the concurrency model).
type FinalizerHook func(addr uintptr)

// Collector runs collection cycles against a Registry.
type Collector struct {
	reg       *registry.Registry
	scheduler *gcgen.Scheduler

	cycleMu sync.Mutex // collection_in_progress guard; TryLock gives non-blocking acquisition

	edgeMu sync.RWMutex
	edges  map[uintptr]map[uintptr]bool // from -> set of to

	uncollectMu sync.Mutex
	uncollect   []uintptr

	finalizerMu sync.RWMutex
	finalizer   FinalizerHook

	historyMu sync.Mutex
	hist      history
}

// New creates a Collector over reg, scheduled by sched.
func New(reg *registry.Registry, sched *gcgen.Scheduler) *Collector {
	return &Collector{
		reg:       reg,
		scheduler: sched,
		edges:     make(map[uintptr]map[uintptr]bool),
	}
}

// RegisterFinalizer installs the process-wide finalizer hook. Passing nil
// removes it.
func (c *Collector) RegisterFinalizer(fn FinalizerHook) {
	c.finalizerMu.Lock()
	c.finalizer = fn
	c.finalizerMu.Unlock()
}

// AddReference records a from->to edge in the optional reference graph.
// Once any edge is registered, the mark phase stops treating every tracked
// object as a root and instead computes reachability from objects with no
// recorded incoming edge.
func (c *Collector) AddReference(from, to uintptr) {
	c.edgeMu.Lock()
	defer c.edgeMu.Unlock()
	set, ok := c.edges[from]
	if !ok {
		set = make(map[uintptr]bool)
		c.edges[from] = set
	}
	set[to] = true
}

// RemoveReference deletes a previously registered from->to edge, if present.
func (c *Collector) RemoveReference(from, to uintptr) {
	c.edgeMu.Lock()
	defer c.edgeMu.Unlock()
	if set, ok := c.edges[from]; ok {
		delete(set, to)
		if len(set) == 0 {
			delete(c.edges, from)
		}
	}
}

// Collect runs collect_generation(2).
func (c *Collector) Collect() (CycleStats, error) {
	return c.CollectGeneration(2)
}

// CollectGeneration runs one collection cycle against generations 0..g.
func (c *Collector) CollectGeneration(g int) (CycleStats, error) {
	if g < 0 || g >= gcgen.NumGenerations {
		return CycleStats{}, gcgen.ErrInvalidGeneration
	}

	if !c.cycleMu.TryLock() {
		return CycleStats{}, errInProgress
	}
	defer c.cycleMu.Unlock()

	start := time.Now()
	stats := CycleStats{CycleID: uuid.NewString(), Generation: g}
	var toFinalize []uintptr

	c.reg.Transaction(func(tx *registry.Tx) {
		candidates := tx.CandidatesUpTo(g)
		stats.Candidates = len(candidates)

		reachable, noInfoRooted := c.reachableSet(tx, candidates)
		tx.ClearVisited(candidates)
		for _, a := range candidates {
			if tx.IsUncollectable(a) || reachable[a] {
				tx.MarkVisited(a)
			}
		}

		// Candidates rooted only for lack of incoming-edge information (never
		// traced reachable from anything else) that also carry HAS_FINALIZER
		// are classified uncollectable: the collector has no basis to prove
		// they are live, but a registered finalizer means it cannot safely
		// guess they are garbage either, so it parks them rather than either
		// assuming.
		newlyUncollectable := 0
		for _, a := range candidates {
			if noInfoRooted[a] && tx.HasFinalizer(a) && !tx.IsUncollectable(a) {
				tx.SetUncollectable(a, true)
				c.pushUncollectable(a)
				newlyUncollectable++
			}
		}
		stats.UncollectableDelta = newlyUncollectable

		for _, a := range candidates {
			if tx.IsVisited(a) {
				continue
			}
			if tx.HasFinalizer(a) {
				toFinalize = append(toFinalize, a)
			}
			tx.Remove(a)
			stats.Reclaimed++
		}

		for _, a := range candidates {
			if tx.Exists(a) && tx.IsVisited(a) && tx.Generation(a) < gcgen.NumGenerations-1 {
				tx.Promote(a)
				stats.Promoted++
			}
		}
	})

	c.finalizerMu.RLock()
	hook := c.finalizer
	c.finalizerMu.RUnlock()
	if hook != nil {
		for _, a := range toFinalize {
			hook(a)
		}
	}

	c.scheduler.Thresholds.RecordCollection(g)
	stats.Duration = time.Since(start)

	c.historyMu.Lock()
	c.hist.push(stats)
	c.historyMu.Unlock()

	return stats, nil
}

// reachableSet computes which candidates are reachable, and separately
// which candidates were rooted purely for lack of incoming-edge information
// (as opposed to being traced reachable from some other root). With no
// registered edges at all, every candidate is conservatively its own root
// (sound, but defeats cycle collection, per the design notes' documented
// default) and noInfoRooted is left empty — without any edge information
// process-wide the collector makes no claim about which roots are "real".
// Once edges exist anywhere, roots are tracked addresses with no recorded
// incoming edge, and reachability follows the edge graph from there,
// including roots outside the candidate set, so an older-generation object
// can keep a younger candidate alive.
func (c *Collector) reachableSet(tx *registry.Tx, candidates []uintptr) (reachable, noInfoRooted map[uintptr]bool) {
	c.edgeMu.RLock()
	defer c.edgeMu.RUnlock()

	if len(c.edges) == 0 {
		roots := make(map[uintptr]bool, len(candidates))
		for _, a := range candidates {
			roots[a] = true
		}
		return roots, nil
	}

	// incoming counts an edge regardless of whether its source is still
	// tracked: a reference recorded from an address that has since gone
	// away still means the target is not an unreferenced root, it is just
	// unreachable (its only referrer is gone). Traversal below only walks
	// from sources that still exist, so a dangling source cannot itself
	// resurrect anything.
	incoming := make(map[uintptr]bool)
	for _, tos := range c.edges {
		for to := range tos {
			incoming[to] = true
		}
	}

	visited := make(map[uintptr]bool)
	noInfo := make(map[uintptr]bool)
	var stack []uintptr
	push := func(a uintptr) {
		if !visited[a] && tx.Exists(a) {
			visited[a] = true
			stack = append(stack, a)
		}
	}
	for _, a := range candidates {
		if !incoming[a] {
			push(a)
			noInfo[a] = true
		}
	}
	for from := range c.edges {
		if !incoming[from] {
			push(from)
		}
	}
	for len(stack) > 0 {
		a := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for to := range c.edges[a] {
			push(to)
		}
	}
	return visited, noInfo
}

func (c *Collector) pushUncollectable(addr uintptr) {
	c.uncollectMu.Lock()
	defer c.uncollectMu.Unlock()
	for _, a := range c.uncollect {
		if a == addr {
			return
		}
	}
	c.uncollect = append(c.uncollect, addr)
}

// GetUncollectableCount returns the length of the collector-maintained
// uncollectable list (distinct from the per-entry UNCOLLECTABLE flag count).
func (c *Collector) GetUncollectableCount() int {
	c.uncollectMu.Lock()
	defer c.uncollectMu.Unlock()
	return len(c.uncollect)
}

// ClearUncollectable empties the list and clears the UNCOLLECTABLE flag on
// every entry that was in it, making them eligible for reclassification on
// the next cycle — entries stay tracked throughout.
func (c *Collector) ClearUncollectable() {
	c.uncollectMu.Lock()
	addrs := c.uncollect
	c.uncollect = nil
	c.uncollectMu.Unlock()

	c.reg.Transaction(func(tx *registry.Tx) {
		for _, a := range addrs {
			tx.SetUncollectable(a, false)
		}
	})
}

// MarkUncollectable sets the per-entry UNCOLLECTABLE flag directly (the
// host-driven API, distinct from classification during a cycle).
func (c *Collector) MarkUncollectable(addr uintptr) error {
	if addr == 0 {
		return errNullAddress
	}
	if !c.reg.IsTracked(addr) {
		return errNotTrackedForFlag
	}
	c.reg.Transaction(func(tx *registry.Tx) {
		tx.SetUncollectable(addr, true)
	})
	return nil
}

// UnmarkUncollectable clears the per-entry UNCOLLECTABLE flag.
func (c *Collector) UnmarkUncollectable(addr uintptr) error {
	if addr == 0 {
		return errNullAddress
	}
	if !c.reg.IsTracked(addr) {
		return errNotTrackedForFlag
	}
	c.reg.Transaction(func(tx *registry.Tx) {
		tx.SetUncollectable(addr, false)
	})
	return nil
}

// IsUncollectable is a total predicate: false for null/untracked addresses,
// never fails.
func (c *Collector) IsUncollectable(addr uintptr) bool {
	if addr == 0 || !c.reg.IsTracked(addr) {
		return false
	}
	var flagged bool
	c.reg.Transaction(func(tx *registry.Tx) {
		flagged = tx.IsUncollectable(addr)
	})
	return flagged
}

// MarkHasFinalizer declares that addr has a host-side finalizer: if a sweep
// finds it unreachable, it is handed to the registered FinalizerHook instead
// of being silently reclaimed (and, if it also has no recorded incoming
// edge, it is classified uncollectable rather than finalized at all, since
// resurrection-by-finalizer cannot be ruled out). Unexposed by spec.md's ABI
// surface directly; a host sets this once per address at track time.
func (c *Collector) MarkHasFinalizer(addr uintptr) error {
	if addr == 0 {
		return errNullAddress
	}
	if !c.reg.IsTracked(addr) {
		return errNotTrackedForFlag
	}
	c.reg.Transaction(func(tx *registry.Tx) {
		tx.SetHasFinalizer(addr, true)
	})
	return nil
}

// UnmarkHasFinalizer clears the per-entry HAS_FINALIZER flag.
func (c *Collector) UnmarkHasFinalizer(addr uintptr) error {
	if addr == 0 {
		return errNullAddress
	}
	if !c.reg.IsTracked(addr) {
		return errNotTrackedForFlag
	}
	c.reg.Transaction(func(tx *registry.Tx) {
		tx.SetHasFinalizer(addr, false)
	})
	return nil
}

// History returns up to n of the most recent cycle summaries.
func (c *Collector) History(n int) []CycleStats {
	c.historyMu.Lock()
	defer c.historyMu.Unlock()
	return c.hist.Recent(n)
}
