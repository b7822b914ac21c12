package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dkrasnov/trigen/internal/gcgen"
	"github.com/dkrasnov/trigen/internal/registry"
)

// TestFreshInitTrackThree mirrors spec.md §8 scenario 1.
func TestFreshInitTrackThree(t *testing.T) {
	c := New(DefaultConfig())
	const a, b, d uintptr = 0x1, 0x2, 0x3

	for _, p := range []uintptr{a, b, d} {
		if err := c.Track(p); err != nil {
			t.Fatalf("Track(%#x) = %v, want nil", p, err)
		}
	}
	if got := c.GetRegistryCount(); got != 3 {
		t.Errorf("GetRegistryCount() = %d, want 3", got)
	}
	if got := c.GetGenerationCount(0); got != 3 {
		t.Errorf("GetGenerationCount(0) = %d, want 3", got)
	}
	if got := c.GetGenerationCount(1); got != 0 {
		t.Errorf("GetGenerationCount(1) = %d, want 0", got)
	}
}

// TestDuplicateTrack mirrors scenario 2.
func TestDuplicateTrack(t *testing.T) {
	c := New(DefaultConfig())
	const a uintptr = 0x1
	_ = c.Track(a)
	if err := c.Track(a); !registry.IsAlreadyTracked(err) {
		t.Errorf("second Track = %v, want already-tracked", err)
	}
	if got := c.GetRegistryCount(); got != 1 {
		t.Errorf("GetRegistryCount() = %d, want 1", got)
	}
}

// TestUntrackUnknown mirrors scenario 3.
func TestUntrackUnknown(t *testing.T) {
	c := New(DefaultConfig())
	const d uintptr = 0xD
	if err := c.Untrack(d); !registry.IsNotTracked(err) {
		t.Errorf("Untrack(never tracked) = %v, want not-tracked", err)
	}
	if c.IsTracked(d) {
		t.Errorf("IsTracked(never tracked) = true, want false")
	}
}

// TestNullGuards mirrors scenario 4: every fallible op rejects the null
// address, and every predicate returns false rather than erroring.
func TestNullGuards(t *testing.T) {
	c := New(DefaultConfig())
	if err := c.Track(0); !registry.IsNullAddress(err) {
		t.Errorf("Track(0) = %v, want null-address", err)
	}
	if err := c.Untrack(0); !registry.IsNullAddress(err) {
		t.Errorf("Untrack(0) = %v, want null-address", err)
	}
	if c.IsTracked(0) {
		t.Errorf("IsTracked(0) = true, want false")
	}
	if _, err := c.GetTrackedInfo(0); !registry.IsNullAddress(err) {
		t.Errorf("GetTrackedInfo(0) = %v, want null-address", err)
	}
}

// TestThresholdBounds mirrors scenario 5.
func TestThresholdBounds(t *testing.T) {
	c := New(DefaultConfig())
	tests := []struct {
		gen  int
		want int
	}{{0, 700}, {1, 10}, {2, 10}}
	for _, tt := range tests {
		if got := c.GetThreshold(tt.gen); got != tt.want {
			t.Errorf("GetThreshold(%d) = %d, want %d", tt.gen, got, tt.want)
		}
	}
	if err := c.SetThreshold(3, 1); err != gcgen.ErrInvalidGeneration {
		t.Errorf("SetThreshold(3, 1) = %v, want ErrInvalidGeneration", err)
	}
	if got := c.GetThreshold(3); got != -1 {
		t.Errorf("GetThreshold(3) = %d, want -1", got)
	}
	if err := c.SetThreshold(0, 1000); err != nil {
		t.Fatalf("SetThreshold(0, 1000) = %v, want nil", err)
	}
	if got := c.GetThreshold(0); got != 1000 {
		t.Errorf("GetThreshold(0) = %d, want 1000", got)
	}
}

// TestPromotionScenario mirrors scenario 6.
func TestPromotionScenario(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Thresholds[0] = 1
	c := New(cfg)
	const p uintptr = 0xA

	_ = c.Track(p)
	if _, err := c.CollectGeneration(0); err != nil {
		t.Fatalf("CollectGeneration(0): %v", err)
	}
	if got := c.GetGenerationCount(0); got != 0 {
		t.Errorf("GetGenerationCount(0) = %d, want 0", got)
	}
	if got := c.GetGenerationCount(1); got != 1 {
		t.Errorf("GetGenerationCount(1) = %d, want 1", got)
	}
	if _, err := c.CollectGeneration(0); err != nil {
		t.Fatalf("second CollectGeneration(0): %v", err)
	}
	if got := c.GetGenerationCount(1); got != 1 {
		t.Errorf("GetGenerationCount(1) after second collection = %d, want 1", got)
	}
}

// TestCollectIfNeededTriggersOnAllocationThreshold verifies that Track
// actually feeds the scheduler's generation-0 allocation counter (spec.md
// §3/§4.2): NeedsCollection must flip true, and CollectIfNeeded must run a
// real cycle, purely from crossing T0 via Track — no explicit
// CollectGeneration call.
func TestCollectIfNeededTriggersOnAllocationThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Thresholds[0] = 2
	c := New(cfg)

	_ = c.Track(0x1)
	if needs, err := c.NeedsCollection(); err != nil || needs {
		t.Fatalf("NeedsCollection() after 1 track = %v, %v; want false, nil", needs, err)
	}
	_ = c.Track(0x2)
	needs, err := c.NeedsCollection()
	if err != nil || !needs {
		t.Fatalf("NeedsCollection() after 2 tracks = %v, %v; want true, nil", needs, err)
	}

	if err := c.CollectIfNeeded(); err != nil {
		t.Fatalf("CollectIfNeeded(): %v", err)
	}
	if got := c.GetGenerationCount(1); got != 2 {
		t.Errorf("GetGenerationCount(1) after CollectIfNeeded = %d, want 2 (both survivors promoted)", got)
	}
	if needs, err := c.NeedsCollection(); err != nil || needs {
		t.Errorf("NeedsCollection() after CollectIfNeeded = %v, %v; want false, nil (A0 reset)", needs, err)
	}
}

func TestClearRegistryResetsCounts(t *testing.T) {
	c := New(DefaultConfig())
	const a, b uintptr = 0x1, 0x2
	_ = c.Track(a)
	_ = c.Track(b)

	if err := c.ClearRegistry(); err != nil {
		t.Fatal(err)
	}
	if got := c.GetRegistryCount(); got != 0 {
		t.Errorf("GetRegistryCount() = %d, want 0", got)
	}
	if c.IsTracked(a) || c.IsTracked(b) {
		t.Errorf("entries survived ClearRegistry")
	}
}

func TestGetStatsInvariant(t *testing.T) {
	c := New(DefaultConfig())
	for _, p := range []uintptr{0x1, 0x2, 0x3} {
		_ = c.Track(p)
	}
	stats, err := c.GetStats()
	if err != nil {
		t.Fatal(err)
	}
	var sum int32
	for _, n := range stats.GenerationCounts {
		sum += n
	}
	if sum != stats.TotalTracked {
		t.Errorf("sum(generation_counts) = %d, want total_tracked = %d", sum, stats.TotalTracked)
	}
	if stats.Uncollectable > stats.TotalTracked {
		t.Errorf("uncollectable %d exceeds total_tracked %d", stats.Uncollectable, stats.TotalTracked)
	}
}

func TestOperationsAfterCleanupReturnNotInitialized(t *testing.T) {
	c := New(DefaultConfig())
	c.Cleanup()

	if err := c.Track(0x1); !IsNotInitialized(err) {
		t.Errorf("Track after Cleanup = %v, want not-initialized", err)
	}
	if c.IsTracked(0x1) {
		t.Errorf("IsTracked after Cleanup = true, want false")
	}
	if got := c.GetRegistryCount(); got != -1 {
		t.Errorf("GetRegistryCount after Cleanup = %d, want -1", got)
	}
}

// TestGetStatsSnapshotMatchesAfterIdenticalSetup exercises the stable
// statistics record's deep-equality: two Cores built and populated the
// same way must report identical Stats, independent of map/slice
// iteration order.
func TestGetStatsSnapshotMatchesAfterIdenticalSetup(t *testing.T) {
	build := func() Stats {
		c := New(DefaultConfig())
		defer c.Cleanup()
		for _, p := range []uintptr{0x10, 0x20, 0x30} {
			_ = c.Track(p)
		}
		s, err := c.GetStats()
		if err != nil {
			t.Fatal(err)
		}
		return s
	}

	a, b := build(), build()
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("Stats snapshots differ for identical setups (-a +b):\n%s", diff)
	}
}

func TestSingletonInitCleanupRoundTrip(t *testing.T) {
	Init(DefaultConfig())
	defer Cleanup()

	if !IsInitialized() {
		t.Fatal("IsInitialized() = false after Init")
	}
	c := Get()
	if c == nil {
		t.Fatal("Get() = nil after Init")
	}
	if err := c.Track(0x1); err != nil {
		t.Fatal(err)
	}

	Init(DefaultConfig()) // re-init clears the registry per spec.md §4.4
	if got := Get().GetRegistryCount(); got != 0 {
		t.Errorf("GetRegistryCount() after re-Init = %d, want 0", got)
	}

	Cleanup()
	if IsInitialized() {
		t.Error("IsInitialized() = true after Cleanup")
	}
	if Get() != nil {
		t.Error("Get() != nil after Cleanup")
	}

	Init(DefaultConfig()) // init after cleanup re-succeeds
	if !IsInitialized() {
		t.Error("IsInitialized() = false after re-Init post-cleanup")
	}
}
