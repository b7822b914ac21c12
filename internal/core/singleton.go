package core

import "sync"

// Singleton owns the one process-wide Core instance the ABI layer forwards
// every operation to. Grounded on the teacher pack's cc-backend
// metricstore.go pattern (a package-level instance behind a guarded
// accessor), generalized here to support spec.md's cleanup/re-init cycle: a
// bare sync.Once cannot be reset, so a mutex-guarded pointer stands in for
// it, replacing the Once-wrapped "construct once, forever" shape with one
// that tolerates init after cleanup.
type Singleton struct {
	mu   sync.Mutex
	core *Core
}

var global Singleton

// Init (re)constructs the singleton Core. It is idempotent: calling it
// again while already initialized discards the previous Core and starts
// fresh, which satisfies spec.md's "clears the Registry and uncollectable
// list" requirement for repeat calls without needing a separate reset path.
func Init(cfg Config) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.core = New(cfg)
}

// Cleanup tears the singleton down. Subsequent Get calls return nil until
// the next Init.
func Cleanup() {
	global.mu.Lock()
	defer global.mu.Unlock()
	if global.core != nil {
		global.core.Cleanup()
	}
	global.core = nil
}

// Get returns the live singleton Core, or nil if Init has not been called
// (or Cleanup has torn it down). Callers map a nil result to INTERNAL.
func Get() *Core {
	global.mu.Lock()
	defer global.mu.Unlock()
	return global.core
}

// IsInitialized reports whether Init has established a live singleton.
func IsInitialized() bool {
	global.mu.Lock()
	defer global.mu.Unlock()
	return global.core != nil
}
