// Package core wires the Registry, GenerationSet/Scheduler, and Collector
// into the lifecycle spec.md calls the StateMachine, and exposes every
// operation the ABI layer forwards to: init/cleanup, enable/disable,
// tracking, collection, thresholds, uncollectables, stats, and debug
// output. It is pure Go throughout — cgo and C types live one layer up, in
// cmd/libtrigen.
package core

import "sync/atomic"

// StateMachine tracks the lifecycle flags spec.md assigns to the collector:
// whether it has been initialized, whether collection is currently enabled,
// and an opaque debug bitmask. It holds no event counter: ObjectEntry
// timestamps come from the Registry's own monotonic clock
// (Registry.NextTimestamp), which starts afresh with each new Registry.
type StateMachine struct {
	initialized int32
	enabled     int32
	debug       uint64
}

func newStateMachine() *StateMachine {
	sm := &StateMachine{}
	sm.init()
	return sm
}

func (sm *StateMachine) init() {
	atomic.StoreInt32(&sm.initialized, 1)
	atomic.StoreInt32(&sm.enabled, 1)
}

func (sm *StateMachine) cleanup() {
	atomic.StoreInt32(&sm.initialized, 0)
	atomic.StoreInt32(&sm.enabled, 0)
}

// IsInitialized reports whether the state machine has been initialized and
// not subsequently cleaned up.
func (sm *StateMachine) IsInitialized() bool {
	return atomic.LoadInt32(&sm.initialized) != 0
}

// Enable turns collection scheduling back on.
func (sm *StateMachine) Enable() {
	atomic.StoreInt32(&sm.enabled, 1)
}

// Disable turns off automatic scheduling; collect/collect_generation still
// run when called explicitly.
func (sm *StateMachine) Disable() {
	atomic.StoreInt32(&sm.enabled, 0)
}

// IsEnabled reports the current enabled flag.
func (sm *StateMachine) IsEnabled() bool {
	return atomic.LoadInt32(&sm.enabled) != 0
}

// SetDebug stores an opaque bitmask, reported back through Debug; the core
// itself never branches on it.
func (sm *StateMachine) SetDebug(flags uint64) {
	atomic.StoreUint64(&sm.debug, flags)
}

// Debug returns the current debug bitmask.
func (sm *StateMachine) Debug() uint64 {
	return atomic.LoadUint64(&sm.debug)
}
