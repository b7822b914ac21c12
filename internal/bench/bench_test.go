package bench

import (
	"strings"
	"testing"
	"time"

	"github.com/dkrasnov/trigen/internal/core"
)

func TestRunProducesPerWorkerResults(t *testing.T) {
	c := core.New(core.DefaultConfig())
	defer c.Cleanup()

	report, err := Run(c, Config{Workers: 3, Duration: 20 * time.Millisecond, LiveSet: 4})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Workers) != 3 {
		t.Fatalf("len(Workers) = %d, want 3", len(report.Workers))
	}
	if report.TotalOps() == 0 {
		t.Error("expected nonzero total ops over 20ms of work")
	}
	if report.RunID == "" {
		t.Error("expected a non-empty RunID")
	}
}

func TestRunLeavesNoResidualTrackedAddresses(t *testing.T) {
	c := core.New(core.DefaultConfig())
	defer c.Cleanup()

	if _, err := Run(c, Config{Workers: 2, Duration: 10 * time.Millisecond, LiveSet: 8}); err != nil {
		t.Fatal(err)
	}
	if got := c.GetRegistryCount(); got != 0 {
		t.Errorf("GetRegistryCount() = %d, want 0 (every tracked address should be untracked at worker exit)", got)
	}
}

func TestFormatIncludesRunID(t *testing.T) {
	r := Report{RunID: "abc-123", Workers: []WorkerResult{{Worker: 0, Tracked: 5}}}
	out := Format(r)
	if out == "" {
		t.Fatal("expected non-empty output")
	}
	if !strings.Contains(out, "run=abc-123") {
		t.Errorf("Format() = %q, missing run ID", out)
	}
}

func TestOverheadTrackerZeroBeforeArm(t *testing.T) {
	tr := NewOverheadTracker()
	snap := tr.SnapshotAfter()
	if snap != (Snapshot{}) {
		t.Errorf("expected zero Snapshot before SnapshotBefore, got %+v", snap)
	}
}
