package collector

import (
	"sync"
	"testing"

	"github.com/dkrasnov/trigen/internal/gcgen"
	"github.com/dkrasnov/trigen/internal/registry"
)

func newTestCollector() (*registry.Registry, *Collector) {
	reg := registry.New()
	sched := gcgen.NewScheduler()
	return reg, New(reg, sched)
}

func TestCollectGenerationInvalidGeneration(t *testing.T) {
	_, c := newTestCollector()
	if _, err := c.CollectGeneration(3); err != gcgen.ErrInvalidGeneration {
		t.Fatalf("CollectGeneration(3) = %v, want ErrInvalidGeneration", err)
	}
	if _, err := c.CollectGeneration(-1); err != gcgen.ErrInvalidGeneration {
		t.Fatalf("CollectGeneration(-1) = %v, want ErrInvalidGeneration", err)
	}
}

// TestPromotionWithoutEdges mirrors the literal scenario in spec.md §8.6:
// with no reference edges registered, every tracked object is conservatively
// rooted, so a generation-0 collection promotes survivors rather than
// reclaiming them.
func TestPromotionWithoutEdges(t *testing.T) {
	reg, c := newTestCollector()
	const p uintptr = 0xA

	if err := reg.Track(p); err != nil {
		t.Fatal(err)
	}

	stats, err := c.CollectGeneration(0)
	if err != nil {
		t.Fatalf("CollectGeneration(0): %v", err)
	}
	if stats.Reclaimed != 0 {
		t.Errorf("Reclaimed = %d, want 0", stats.Reclaimed)
	}
	if got := reg.GenerationCount(0); got != 0 {
		t.Errorf("GenerationCount(0) = %d, want 0", got)
	}
	if got := reg.GenerationCount(1); got != 1 {
		t.Errorf("GenerationCount(1) = %d, want 1", got)
	}

	if _, err := c.CollectGeneration(0); err != nil {
		t.Fatalf("second CollectGeneration(0): %v", err)
	}
	if got := reg.GenerationCount(1); got != 1 {
		t.Errorf("GenerationCount(1) after second collection = %d, want 1", got)
	}
}

// TestUnreferencedIsSweptWithEdges shows the other side of the default:
// once any reference edge is registered, objects with no incoming edge are
// the only roots, so a candidate whose only incoming edges come from
// untracked or unreachable sources (and which has no finalizer) is swept
// rather than conservatively retained.
func TestUnreferencedIsSweptWithEdges(t *testing.T) {
	reg, c := newTestCollector()
	const root, garbage uintptr = 0x1, 0x2

	_ = reg.Track(root)
	_ = reg.Track(garbage)

	// root gets no edge at all. Without an incoming edge garbage would also
	// look like a root, so give it one from a third tracked object, ref,
	// whose own only referrer is untracked: garbage is then kept alive only
	// if ref is, not by a bare absence of edges.
	const ref uintptr = 0x3
	_ = reg.Track(ref)
	c.AddReference(ref, garbage)
	c.AddReference(0xDEAD, ref) // incoming edge from an untracked, unreachable source

	stats, err := c.CollectGeneration(0)
	if err != nil {
		t.Fatalf("CollectGeneration(0): %v", err)
	}

	// root has no incoming edge -> root. ref has an incoming edge from an
	// untracked address -> ref is NOT a root (its only referrer does not
	// exist), so ref and garbage are unreachable and swept; root survives.
	if reg.IsTracked(ref) {
		t.Errorf("ref should have been swept (unreachable)")
	}
	if reg.IsTracked(garbage) {
		t.Errorf("garbage should have been swept (unreachable)")
	}
	if !reg.IsTracked(root) {
		t.Errorf("root should survive (no incoming edge => rooted)")
	}
	if stats.Reclaimed != 2 {
		t.Errorf("Reclaimed = %d, want 2", stats.Reclaimed)
	}
}

// TestFinalizerInvokedOnSweep: an unreachable object that carries the
// HAS_FINALIZER flag but does have an incoming edge (from something that
// itself gets reclaimed) is swept, not classified uncollectable, and the
// registered hook fires for it exactly once after the cycle's registry
// transaction releases its lock.
func TestFinalizerInvokedOnSweep(t *testing.T) {
	reg, c := newTestCollector()
	const garbage, ref uintptr = 0x7, 0x9

	_ = reg.Track(garbage)
	_ = reg.Track(ref)
	c.AddReference(ref, garbage)  // garbage has an incoming edge, from ref
	c.AddReference(0xBEEF, ref) // ref's only referrer is untracked -> ref is not a root either

	if err := c.MarkHasFinalizer(garbage); err != nil {
		t.Fatal(err)
	}

	var finalized []uintptr
	var mu sync.Mutex
	c.RegisterFinalizer(func(addr uintptr) {
		mu.Lock()
		finalized = append(finalized, addr)
		mu.Unlock()
	})

	if _, err := c.CollectGeneration(0); err != nil {
		t.Fatal(err)
	}
	if reg.IsTracked(garbage) {
		t.Errorf("finalized entry should still be swept, not retained")
	}
	if reg.IsTracked(ref) {
		t.Errorf("ref should have been swept (unreachable)")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(finalized) != 1 || finalized[0] != garbage {
		t.Errorf("finalized = %v, want [%#x]", finalized, garbage)
	}
}

// TestHasFinalizerWithoutIncomingEdgeIsUncollectable shows the classify
// step's other branch: once edges exist, an object with HAS_FINALIZER set
// and no recorded incoming edge at all is rooted only for lack of edge
// information, and is classified uncollectable (and stays tracked) rather
// than finalized, since nothing proves it reachable.
func TestHasFinalizerWithoutIncomingEdgeIsUncollectable(t *testing.T) {
	reg, c := newTestCollector()
	const root, lonely uintptr = 0x10, 0x11

	_ = reg.Track(root)
	_ = reg.Track(lonely)
	c.AddReference(root, 0) // give the edge graph at least one entry

	if err := c.MarkHasFinalizer(lonely); err != nil {
		t.Fatal(err)
	}

	stats, err := c.CollectGeneration(0)
	if err != nil {
		t.Fatal(err)
	}
	if !reg.IsTracked(lonely) {
		t.Errorf("lonely should remain tracked as uncollectable")
	}
	if !c.IsUncollectable(lonely) {
		t.Errorf("lonely should be flagged uncollectable")
	}
	if stats.UncollectableDelta != 1 {
		t.Errorf("UncollectableDelta = %d, want 1", stats.UncollectableDelta)
	}
}

func TestUncollectableFlagAPI(t *testing.T) {
	reg, c := newTestCollector()
	const addr uintptr = 0x55

	if err := c.MarkUncollectable(0); !IsNullAddress(err) {
		t.Errorf("MarkUncollectable(0) = %v, want null address error", err)
	}
	if err := c.MarkUncollectable(addr); !IsNotTracked(err) {
		t.Errorf("MarkUncollectable(untracked) = %v, want not-tracked error", err)
	}

	_ = reg.Track(addr)
	if c.IsUncollectable(addr) {
		t.Errorf("IsUncollectable() = true before marking, want false")
	}
	if err := c.MarkUncollectable(addr); err != nil {
		t.Fatal(err)
	}
	if !c.IsUncollectable(addr) {
		t.Errorf("IsUncollectable() = false after marking, want true")
	}
	if err := c.UnmarkUncollectable(addr); err != nil {
		t.Fatal(err)
	}
	if c.IsUncollectable(addr) {
		t.Errorf("IsUncollectable() = true after unmarking, want false")
	}
}

func TestCollectionInProgressGuard(t *testing.T) {
	_, c := newTestCollector()
	if !c.cycleMu.TryLock() {
		t.Fatal("expected to acquire cycle lock")
	}
	defer c.cycleMu.Unlock()

	if _, err := c.CollectGeneration(0); !IsInProgress(err) {
		t.Errorf("CollectGeneration while locked = %v, want in-progress error", err)
	}
}
