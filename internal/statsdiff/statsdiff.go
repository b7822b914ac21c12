// Package statsdiff compares two DebugState snapshots captured from
// internal/core and highlights what changed between them: generation
// growth, uncollectable-count drift, and threshold changes. Grounded on
// the teacher's internal/diff package (DiffReport/MetricChange/addChange's
// threshold-gated regression-vs-improvement classification,
// LoadReport/FormatDiff), narrowed from a multi-resource USE-metric report
// to trigen's single Stats record and regeneralized so "improvement" means
// "the collector reclaimed more, not less".
package statsdiff

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/dkrasnov/trigen/internal/core"
)

// MetricChange is one changed field between two snapshots.
type MetricChange struct {
	Metric       string  `json:"metric"`
	OldValue     float64 `json:"old_value"`
	NewValue     float64 `json:"new_value"`
	Delta        float64 `json:"delta"`
	DeltaPct     float64 `json:"delta_pct"`
	Direction    string  `json:"direction"`    // "regression", "improvement", "unchanged"
	Significance string  `json:"significance"` // "high", "medium", "low"
}

// Report is the comparison between two DebugState snapshots.
type Report struct {
	Baseline     core.DebugState `json:"-"`
	Current      core.DebugState `json:"-"`
	Changes      []MetricChange  `json:"changes"`
	Regressions  int             `json:"regressions"`
	Improvements int             `json:"improvements"`
}

// LoadState reads and parses a JSON-encoded DebugState snapshot file,
// previously written by `trigen stats --debug --json > file`.
func LoadState(path string) (core.DebugState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.DebugState{}, fmt.Errorf("read %s: %w", path, err)
	}
	var ds core.DebugState
	if err := json.Unmarshal(data, &ds); err != nil {
		return core.DebugState{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return ds, nil
}

// Compare computes every tracked metric's change from baseline to current.
// Growing total_tracked/generation counts/uncollectable count is a
// "regression" (more live bookkeeping, closer to needing collection);
// shrinking is an "improvement".
func Compare(baseline, current core.DebugState) Report {
	r := Report{Baseline: baseline, Current: current}

	addChange(&r, "total_tracked",
		float64(baseline.Stats.TotalTracked), float64(current.Stats.TotalTracked), true)
	for g := 0; g < 3; g++ {
		addChange(&r, fmt.Sprintf("generation_%d_count", g),
			float64(baseline.Stats.GenerationCounts[g]), float64(current.Stats.GenerationCounts[g]), true)
		addChange(&r, fmt.Sprintf("generation_%d_threshold", g),
			float64(baseline.Thresholds[g]), float64(current.Thresholds[g]), false)
	}
	addChange(&r, "uncollectable",
		float64(baseline.Stats.Uncollectable), float64(current.Stats.Uncollectable), true)

	for _, c := range r.Changes {
		switch c.Direction {
		case "regression":
			r.Regressions++
		case "improvement":
			r.Improvements++
		}
	}
	return r
}

func addChange(r *Report, metric string, oldVal, newVal float64, higherIsWorse bool) {
	delta := newVal - oldVal
	deltaPct := 0.0
	if oldVal != 0 {
		deltaPct = (delta / math.Abs(oldVal)) * 100
	}

	if delta == 0 {
		return
	}

	direction := "unchanged"
	if higherIsWorse {
		if delta > 0 {
			direction = "regression"
		} else {
			direction = "improvement"
		}
	} else {
		if delta < 0 {
			direction = "regression"
		} else {
			direction = "improvement"
		}
	}

	significance := "low"
	absPct := math.Abs(deltaPct)
	if absPct >= 50 {
		significance = "high"
	} else if absPct >= 20 {
		significance = "medium"
	}

	r.Changes = append(r.Changes, MetricChange{
		Metric:       metric,
		OldValue:     oldVal,
		NewValue:     newVal,
		Delta:        delta,
		DeltaPct:     deltaPct,
		Direction:    direction,
		Significance: significance,
	})
}

// FormatDiff returns a human-readable summary of r.
func FormatDiff(r Report) string {
	var sb strings.Builder
	sb.WriteString("=== trigen stats diff ===\n")
	sb.WriteString(fmt.Sprintf("Regressions: %d, Improvements: %d\n\n", r.Regressions, r.Improvements))

	if r.Regressions > 0 {
		sb.WriteString("Regressions:\n")
		for _, c := range r.Changes {
			if c.Direction == "regression" {
				sb.WriteString(fmt.Sprintf("  [%s] %s: %.0f -> %.0f (%+.1f%%)\n",
					strings.ToUpper(c.Significance), c.Metric, c.OldValue, c.NewValue, c.DeltaPct))
			}
		}
		sb.WriteString("\n")
	}
	if r.Improvements > 0 {
		sb.WriteString("Improvements:\n")
		for _, c := range r.Changes {
			if c.Direction == "improvement" {
				sb.WriteString(fmt.Sprintf("  [%s] %s: %.0f -> %.0f (%+.1f%%)\n",
					strings.ToUpper(c.Significance), c.Metric, c.OldValue, c.NewValue, c.DeltaPct))
			}
		}
	}
	return sb.String()
}
