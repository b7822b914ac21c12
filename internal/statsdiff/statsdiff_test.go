package statsdiff

import (
	"strings"
	"testing"

	"github.com/dkrasnov/trigen/internal/core"
)

func TestCompareDetectsGrowthAsRegression(t *testing.T) {
	baseline := core.DebugState{Stats: core.Stats{TotalTracked: 10}}
	current := core.DebugState{Stats: core.Stats{TotalTracked: 20}}

	r := Compare(baseline, current)
	if r.Regressions == 0 {
		t.Fatal("expected growth in total_tracked to count as a regression")
	}
	found := false
	for _, c := range r.Changes {
		if c.Metric == "total_tracked" {
			found = true
			if c.Direction != "regression" {
				t.Errorf("total_tracked direction = %q, want regression", c.Direction)
			}
		}
	}
	if !found {
		t.Error("expected a total_tracked change entry")
	}
}

func TestCompareDetectsShrinkAsImprovement(t *testing.T) {
	baseline := core.DebugState{Stats: core.Stats{Uncollectable: 5}}
	current := core.DebugState{Stats: core.Stats{Uncollectable: 1}}

	r := Compare(baseline, current)
	if r.Improvements == 0 {
		t.Fatal("expected shrinking uncollectable count to count as an improvement")
	}
}

func TestCompareSkipsUnchangedMetrics(t *testing.T) {
	ds := core.DebugState{Stats: core.Stats{TotalTracked: 7}, Thresholds: [3]int{700, 10, 10}}
	r := Compare(ds, ds)
	if len(r.Changes) != 0 {
		t.Errorf("expected no changes between identical snapshots, got %+v", r.Changes)
	}
}

func TestFormatDiffIncludesSections(t *testing.T) {
	r := Compare(
		core.DebugState{Stats: core.Stats{TotalTracked: 1}},
		core.DebugState{Stats: core.Stats{TotalTracked: 100}},
	)
	out := FormatDiff(r)
	if !strings.Contains(out, "Regressions:") {
		t.Errorf("expected formatted output to mention regressions, got %q", out)
	}
}

func TestLoadStateMissingFile(t *testing.T) {
	if _, err := LoadState("/nonexistent/path/to/state.json"); err == nil {
		t.Fatal("expected an error reading a nonexistent file")
	}
}
