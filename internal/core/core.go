package core

import (
	"fmt"
	"strings"

	"github.com/dkrasnov/trigen/internal/collector"
	"github.com/dkrasnov/trigen/internal/gcgen"
	"github.com/dkrasnov/trigen/internal/registry"
)

// Stats mirrors spec.md's stable statistics record layout: three signed
// 32-bit fields in order (total_tracked, generation_counts[3],
// uncollectable). The ABI layer serializes this into the host's struct
// without reordering fields.
type Stats struct {
	TotalTracked      int32
	GenerationCounts  [3]int32
	Uncollectable     int32
}

// Core wires the Registry, GenerationSet/Scheduler, and Collector together
// and exposes every operation spec.md groups under "Core operations". It
// holds no ABI concerns (pointer validation, return-code translation,
// buffer writes) — that belongs to internal/abi, which holds a *Core behind
// the process singleton.
type Core struct {
	reg   *registry.Registry
	sched *gcgen.Scheduler
	coll  *collector.Collector
	sm    *StateMachine
}

// New constructs a freshly initialized Core: Registry and uncollectable
// list empty, thresholds from cfg (zero slots keep the built-in default),
// enabled, debug flags from cfg applied immediately.
func New(cfg Config) *Core {
	reg := registry.New()
	sched := gcgen.NewScheduler()
	for g, v := range cfg.Thresholds {
		if v > 0 {
			_ = sched.Thresholds.Set(g, v)
		}
	}
	coll := collector.New(reg, sched)
	sm := newStateMachine()
	sm.SetDebug(cfg.DebugFlags)
	return &Core{reg: reg, sched: sched, coll: coll, sm: sm}
}

// Cleanup tears the core down; subsequent operations on it return
// errNotInitialized, mirroring spec.md's "cleanup leaves the singleton
// absent but the program running".
func (c *Core) Cleanup() {
	c.sm.cleanup()
}

func (c *Core) checkInitialized() error {
	if !c.sm.IsInitialized() {
		return errNotInitialized
	}
	return nil
}

// IsInitialized reports whether this Core is still live.
func (c *Core) IsInitialized() bool { return c.sm.IsInitialized() }

// Enable turns automatic scheduling back on.
func (c *Core) Enable() error {
	if err := c.checkInitialized(); err != nil {
		return err
	}
	c.sm.Enable()
	return nil
}

// Disable turns off automatic scheduling; explicit Collect/CollectGeneration
// calls still run.
func (c *Core) Disable() error {
	if err := c.checkInitialized(); err != nil {
		return err
	}
	c.sm.Disable()
	return nil
}

// IsEnabled reports the current enabled flag; false (not an error) once
// the core is torn down.
func (c *Core) IsEnabled() bool {
	return c.sm.IsInitialized() && c.sm.IsEnabled()
}

// Track inserts addr at generation 0 and records the allocation against the
// scheduler's generation-0 counter (spec.md §3: the allocation counter
// "increments on every track targeting that generation").
func (c *Core) Track(addr uintptr) error {
	if err := c.checkInitialized(); err != nil {
		return err
	}
	if err := c.reg.Track(addr); err != nil {
		return err
	}
	c.sched.Thresholds.RecordAllocation()
	return nil
}

// Untrack removes addr regardless of the enabled flag: when disabled,
// untrack still runs (spec.md only gates collect_if_needed on enabled, not
// tracking operations).
func (c *Core) Untrack(addr uintptr) error {
	if err := c.checkInitialized(); err != nil {
		return err
	}
	return c.reg.Untrack(addr)
}

// DebugUntrack is the authoritative removal path: it bypasses no check
// present in Untrack today beyond initialization, but is kept distinct per
// spec.md's open question so the two paths never silently diverge if a
// host-visible check is added to Untrack later.
func (c *Core) DebugUntrack(addr uintptr) error {
	if err := c.checkInitialized(); err != nil {
		return err
	}
	return c.reg.Untrack(addr)
}

// IsTracked is a total predicate: false once torn down or for a null/absent
// address, never an error.
func (c *Core) IsTracked(addr uintptr) bool {
	return c.sm.IsInitialized() && c.reg.IsTracked(addr)
}

// ClearRegistry empties the Registry and the collector's uncollectable
// list.
func (c *Core) ClearRegistry() error {
	if err := c.checkInitialized(); err != nil {
		return err
	}
	c.reg.Clear()
	c.coll.ClearUncollectable()
	return nil
}

// GetRegistryCount returns the total tracked count, or -1 once torn down.
func (c *Core) GetRegistryCount() int {
	if !c.sm.IsInitialized() {
		return -1
	}
	return c.reg.Count()
}

// GetTrackedInfo renders the single-line diagnostic description of addr.
func (c *Core) GetTrackedInfo(addr uintptr) (string, error) {
	if err := c.checkInitialized(); err != nil {
		return "", err
	}
	return c.reg.GetInfo(addr)
}

// Collect runs collect_generation(2).
func (c *Core) Collect() (collector.CycleStats, error) {
	if err := c.checkInitialized(); err != nil {
		return collector.CycleStats{}, err
	}
	return c.coll.Collect()
}

// CollectGeneration runs one collection cycle against generations 0..g.
func (c *Core) CollectGeneration(g int) (collector.CycleStats, error) {
	if err := c.checkInitialized(); err != nil {
		return collector.CycleStats{}, err
	}
	return c.coll.CollectGeneration(g)
}

// NeedsCollection reports whether any scheduling rule currently fires.
func (c *Core) NeedsCollection() (bool, error) {
	if err := c.checkInitialized(); err != nil {
		return false, err
	}
	return c.sched.NeedsCollection(), nil
}

// CollectIfNeeded evaluates scheduling rules and, if one fires and the core
// is enabled, runs the corresponding cycle. When disabled, it is a no-op
// that still reports success, per spec.md §4.4.
func (c *Core) CollectIfNeeded() error {
	if err := c.checkInitialized(); err != nil {
		return err
	}
	if !c.sm.IsEnabled() {
		return nil
	}
	return c.sched.CollectIfNeeded(func(g int) error {
		_, err := c.coll.CollectGeneration(g)
		return err
	})
}

// GetCount returns total_tracked, or -1 once torn down.
func (c *Core) GetCount() int { return c.GetRegistryCount() }

// GetGenerationCount returns the membership count of generation g, or -1
// for g outside {0,1,2} or once torn down.
func (c *Core) GetGenerationCount(g int) int {
	if !c.sm.IsInitialized() {
		return -1
	}
	return c.reg.GenerationCount(g)
}

// SetThreshold mutates T[g]; g outside {0,1,2} or v<0 is rejected.
func (c *Core) SetThreshold(g, v int) error {
	if err := c.checkInitialized(); err != nil {
		return err
	}
	return c.sched.Thresholds.Set(g, v)
}

// GetThreshold returns T[g], or -1 for g outside {0,1,2} or once torn down.
func (c *Core) GetThreshold(g int) int {
	if !c.sm.IsInitialized() {
		return -1
	}
	return c.sched.Thresholds.Get(g)
}

// GetUncollectableCount returns the length of the uncollectable list.
func (c *Core) GetUncollectableCount() (int, error) {
	if err := c.checkInitialized(); err != nil {
		return 0, err
	}
	return c.coll.GetUncollectableCount(), nil
}

// ClearUncollectable empties the uncollectable list without untracking its
// entries.
func (c *Core) ClearUncollectable() error {
	if err := c.checkInitialized(); err != nil {
		return err
	}
	c.coll.ClearUncollectable()
	return nil
}

// MarkUncollectable sets the per-entry UNCOLLECTABLE flag.
func (c *Core) MarkUncollectable(addr uintptr) error {
	if err := c.checkInitialized(); err != nil {
		return err
	}
	return c.coll.MarkUncollectable(addr)
}

// UnmarkUncollectable clears the per-entry UNCOLLECTABLE flag.
func (c *Core) UnmarkUncollectable(addr uintptr) error {
	if err := c.checkInitialized(); err != nil {
		return err
	}
	return c.coll.UnmarkUncollectable(addr)
}

// IsUncollectable is a total predicate.
func (c *Core) IsUncollectable(addr uintptr) bool {
	return c.sm.IsInitialized() && c.coll.IsUncollectable(addr)
}

// MarkHasFinalizer declares that addr carries a host-side finalizer,
// consulted by the collector's classify phase.
func (c *Core) MarkHasFinalizer(addr uintptr) error {
	if err := c.checkInitialized(); err != nil {
		return err
	}
	return c.coll.MarkHasFinalizer(addr)
}

// UnmarkHasFinalizer clears the per-entry HAS_FINALIZER flag.
func (c *Core) UnmarkHasFinalizer(addr uintptr) error {
	if err := c.checkInitialized(); err != nil {
		return err
	}
	return c.coll.UnmarkHasFinalizer(addr)
}

// RegisterFinalizer installs the process-wide finalizer hook invoked once
// per reclaimed, HAS_FINALIZER-flagged entry.
func (c *Core) RegisterFinalizer(fn collector.FinalizerHook) error {
	if err := c.checkInitialized(); err != nil {
		return err
	}
	c.coll.RegisterFinalizer(fn)
	return nil
}

// AddReference records a from->to edge in the optional reference graph.
func (c *Core) AddReference(from, to uintptr) error {
	if err := c.checkInitialized(); err != nil {
		return err
	}
	c.coll.AddReference(from, to)
	return nil
}

// RemoveReference deletes a previously registered from->to edge.
func (c *Core) RemoveReference(from, to uintptr) error {
	if err := c.checkInitialized(); err != nil {
		return err
	}
	c.coll.RemoveReference(from, to)
	return nil
}

// GetStats snapshots the stable statistics record. total_tracked and the
// per-generation counts are read together via Registry.CountSnapshot, under
// a single RLock acquisition, so a concurrent Track/Untrack cannot be
// interleaved between them (spec.md §5: snapshots must reflect one
// consistent point in time; §6/I8: total_tracked == Σ generation_counts).
func (c *Core) GetStats() (Stats, error) {
	if err := c.checkInitialized(); err != nil {
		return Stats{}, err
	}
	var s Stats
	total, byGen := c.reg.CountSnapshot()
	s.TotalTracked = int32(total)
	for g := 0; g < registry.NumGenerations; g++ {
		s.GenerationCounts[g] = int32(byGen[g])
	}
	n, err := c.GetUncollectableCount()
	if err != nil {
		return Stats{}, err
	}
	s.Uncollectable = int32(n)
	return s, nil
}

// SetDebug stores the opaque debug bitmask.
func (c *Core) SetDebug(flags uint64) error {
	if err := c.checkInitialized(); err != nil {
		return err
	}
	c.sm.SetDebug(flags)
	return nil
}

// GetDebug returns the current debug bitmask.
func (c *Core) GetDebug() uint64 { return c.sm.Debug() }

// GetStateString renders the single-line summary spec.md requires:
// initialized, enabled, every generation count, every threshold, and the
// uncollectable count.
func (c *Core) GetStateString() (string, error) {
	if err := c.checkInitialized(); err != nil {
		return "", err
	}
	stats, err := c.GetStats()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "initialized=%t enabled=%t", c.sm.IsInitialized(), c.sm.IsEnabled())
	for g := 0; g < registry.NumGenerations; g++ {
		fmt.Fprintf(&b, " gen%d=%d/%d", g, stats.GenerationCounts[g], c.sched.Thresholds.Get(g))
	}
	fmt.Fprintf(&b, " uncollectable=%d", stats.Uncollectable)
	return b.String(), nil
}

// DebugState returns a fuller snapshot than GetStateString for local
// diagnostics and the `trigen stats` command; it is not part of the
// stable ABI textual-output contract.
type DebugState struct {
	Initialized  bool
	Enabled      bool
	DebugFlags   uint64
	Stats        Stats
	Thresholds   [3]int
	ByGeneration [3][]uintptr
	RecentCycles []collector.CycleStats
}

// DebugState snapshots everything the CLI's `trigen stats --debug` wants
// in one call. It is composed from several getters, each taking its own
// lock, so the parts are not read at one single instant.
func (c *Core) DebugState() (DebugState, error) {
	if err := c.checkInitialized(); err != nil {
		return DebugState{}, err
	}
	stats, err := c.GetStats()
	if err != nil {
		return DebugState{}, err
	}
	var th [3]int
	var byGen [3][]uintptr
	for g := range th {
		th[g] = c.sched.Thresholds.Get(g)
		byGen[g] = c.reg.AddressesByGeneration(g)
	}
	return DebugState{
		Initialized:  c.sm.IsInitialized(),
		Enabled:      c.sm.IsEnabled(),
		DebugFlags:   c.sm.Debug(),
		Stats:        stats,
		Thresholds:   th,
		ByGeneration: byGen,
		RecentCycles: c.coll.History(8),
	}, nil
}
