// Package diagnostics provides a leveled logger for debug-gated output. No
// other package in this repository constructs one. The core itself
// never logs to host streams (spec.md §7); this logger is strictly an
// ambient concern, generalized from the teacher's
// output.Progress (an enabled-flag-gated elapsed-time stderr writer) into a
// bitmask-gated, component-tagged one.
package diagnostics

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Level is one bit of the StateMachine debug bitmask. Hosts may define
// their own bits beyond these; the logger only interprets the ones it
// knows about, following spec.md §4.4's "opaque bitmask" description.
type Level uint64

const (
	LevelCycle  Level = 1 << iota // collection cycle start/end, candidate/reclaim/promote counts
	LevelTrack                    // track/untrack calls
	LevelABI                      // every ABI entrypoint invocation and its return code
)

// Logger writes "[elapsed] component: message" lines to w when the
// corresponding Level bit is set in the debug mask it was constructed
// with. A Logger with mask 0 never writes anything, which is the default
// for both the core's StateMachine and a freshly built Logger.
type Logger struct {
	w     io.Writer
	start time.Time
	mask  Level
}

// New creates a Logger writing to os.Stderr, gated by mask.
func New(mask Level) *Logger {
	return &Logger{w: os.Stderr, start: time.Now(), mask: mask}
}

// SetMask updates the gate.
func (l *Logger) SetMask(mask Level) { l.mask = mask }

// Log writes a line if any of levels is set in the logger's mask.
func (l *Logger) Log(levels Level, component, format string, args ...interface{}) {
	if l.mask&levels == 0 {
		return
	}
	elapsed := time.Since(l.start).Round(time.Millisecond)
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(l.w, "[%s] %s: %s\n", elapsed, component, msg)
}
