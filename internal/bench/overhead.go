package bench

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Snapshot captures trigen's own resource consumption across one bench Run,
// adapted from the teacher's observer.OverheadSummary: same /proc/[pid]
// fields, narrowed to the current process since bench spawns goroutines,
// never child processes.
type Snapshot struct {
	CPUUserMs       int64
	CPUSystemMs     int64
	MemoryRSSBytes  int64
	ContextSwitches int64
}

type procSnapshot struct {
	utime          uint64
	stime          uint64
	rss            int64
	voluntaryCtxSw int64
	nonvolCtxSw    int64
}

// OverheadTracker holds the pre-Run reading for delta computation.
type OverheadTracker struct {
	mu     sync.Mutex
	pid    int
	before procSnapshot
	armed  bool
}

// NewOverheadTracker targets the calling process.
func NewOverheadTracker() *OverheadTracker {
	return &OverheadTracker{pid: os.Getpid()}
}

// SnapshotBefore records the starting reading. Call before the workload.
func (t *OverheadTracker) SnapshotBefore() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.before = readProcSnapshot(t.pid)
	t.armed = true
}

// SnapshotAfter reads the current values and returns the CPU and
// context-switch deltas since SnapshotBefore; MemoryRSSBytes is the current
// RSS, not a delta. Returns a zero Snapshot if SnapshotBefore was never
// called.
func (t *OverheadTracker) SnapshotAfter() Snapshot {
	t.mu.Lock()
	before := t.before
	armed := t.armed
	t.mu.Unlock()

	if !armed {
		return Snapshot{}
	}

	now := readProcSnapshot(t.pid)
	return Snapshot{
		CPUUserMs:      ticksToMs(now.utime - before.utime),
		CPUSystemMs:    ticksToMs(now.stime - before.stime),
		MemoryRSSBytes: now.rss * 4096,
		ContextSwitches: (now.voluntaryCtxSw - before.voluntaryCtxSw) +
			(now.nonvolCtxSw - before.nonvolCtxSw),
	}
}

func ticksToMs(ticks uint64) int64 {
	return int64(ticks) * 10
}

func readProcSnapshot(pid int) procSnapshot {
	var snap procSnapshot

	statData, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return snap
	}
	snap = parseProcStat(string(statData))

	statusData, err := os.ReadFile(fmt.Sprintf("/proc/%d/status", pid))
	if err != nil {
		return snap
	}
	snap.voluntaryCtxSw, snap.nonvolCtxSw = parseProcStatus(string(statusData))

	return snap
}

func parseProcStat(content string) procSnapshot {
	var snap procSnapshot

	commEnd := strings.LastIndex(content, ")")
	if commEnd < 0 || commEnd+2 >= len(content) {
		return snap
	}

	fields := strings.Fields(content[commEnd+2:])
	if len(fields) > 12 {
		snap.utime, _ = strconv.ParseUint(fields[11], 10, 64)
		snap.stime, _ = strconv.ParseUint(fields[12], 10, 64)
	}
	if len(fields) > 21 {
		snap.rss, _ = strconv.ParseInt(fields[21], 10, 64)
	}

	return snap
}

func parseProcStatus(content string) (voluntary, nonvoluntary int64) {
	for _, line := range strings.Split(content, "\n") {
		fields := strings.SplitN(line, ":\t", 2)
		if len(fields) != 2 {
			continue
		}
		val, _ := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
		switch fields[0] {
		case "voluntary_ctxt_switches":
			voluntary = val
		case "nonvoluntary_ctxt_switches":
			nonvoluntary = val
		}
	}
	return
}
