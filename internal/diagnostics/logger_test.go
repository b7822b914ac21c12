package diagnostics

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogGatedByMask(t *testing.T) {
	var buf bytes.Buffer
	l := New(0)
	l.w = &buf

	l.Log(LevelCycle, "collector", "cycle %d ran", 1)
	if buf.Len() != 0 {
		t.Fatalf("expected no output with mask 0, got %q", buf.String())
	}

	l.SetMask(LevelCycle)
	l.Log(LevelCycle, "collector", "cycle %d ran", 1)
	if !strings.Contains(buf.String(), "collector: cycle 1 ran") {
		t.Errorf("output = %q, missing expected message", buf.String())
	}

	buf.Reset()
	l.Log(LevelTrack, "registry", "track called")
	if buf.Len() != 0 {
		t.Errorf("expected LevelTrack to stay gated, got %q", buf.String())
	}
}
