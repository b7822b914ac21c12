// Package abi is the C-callable shim's pure-Go half: it validates pointer
// parameters, translates the core's native errors and recovered panics into
// the stable codes.Code return-code ABI, and renders textual outputs as
// plain Go strings for cmd/libtrigen to copy into caller-supplied buffers.
// Keeping this logic free of cgo/unsafe lets it be tested with ordinary Go
// tooling; cmd/libtrigen is a thin //export wrapper around it.
package abi

import (
	"github.com/dkrasnov/trigen/internal/codes"
	"github.com/dkrasnov/trigen/internal/collector"
	"github.com/dkrasnov/trigen/internal/core"
	"github.com/dkrasnov/trigen/internal/gcgen"
	"github.com/dkrasnov/trigen/internal/registry"
)

// translate maps an internal error from any lower layer to its stable code.
// Unrecognized errors are INTERNAL, per the unexpected-failure catch-all in
// spec.md §7.
func translate(err error) codes.Code {
	switch {
	case err == nil:
		return codes.Success
	case core.IsNotInitialized(err):
		return codes.Internal
	case registry.IsNullAddress(err):
		return codes.Internal
	case registry.IsAlreadyTracked(err):
		return codes.AlreadyTracked
	case registry.IsNotTracked(err):
		return codes.NotTracked
	case collector.IsNullAddress(err):
		return codes.Internal
	case collector.IsNotTracked(err):
		return codes.NotTracked
	case collector.IsInProgress(err):
		return codes.CollectionInProgress
	case err == gcgen.ErrInvalidGeneration:
		return codes.InvalidGeneration
	default:
		return codes.Internal
	}
}

// withRecover runs fn and converts any panic into codes.Internal, per
// spec.md §4.5(c): no foreign-language unwind may cross the ABI boundary.
func withRecover(fn func() codes.Code) (code codes.Code) {
	defer func() {
		if r := recover(); r != nil {
			code = codes.Internal
		}
	}()
	return fn()
}

func singleton() *core.Core {
	return core.Get()
}

// Init (re)initializes the singleton core. Always returns SUCCESS per
// spec.md §4.4.
func Init(cfg core.Config) codes.Code {
	return withRecover(func() codes.Code {
		core.Init(cfg)
		return codes.Success
	})
}

// Cleanup tears the singleton down. Always returns SUCCESS.
func Cleanup() codes.Code {
	return withRecover(func() codes.Code {
		core.Cleanup()
		return codes.Success
	})
}

// IsInitialized is a predicate: never fails.
func IsInitialized() bool {
	return core.IsInitialized()
}

// Enable turns automatic scheduling on.
func Enable() codes.Code {
	return withRecover(func() codes.Code {
		c := singleton()
		if c == nil {
			return codes.Internal
		}
		return translate(c.Enable())
	})
}

// Disable turns automatic scheduling off.
func Disable() codes.Code {
	return withRecover(func() codes.Code {
		c := singleton()
		if c == nil {
			return codes.Internal
		}
		return translate(c.Disable())
	})
}

// IsEnabled is a predicate: false (not a failure) once torn down.
func IsEnabled() bool {
	c := singleton()
	return c != nil && c.IsEnabled()
}

// Track tracks addr at generation 0.
func Track(addr uintptr) codes.Code {
	return withRecover(func() codes.Code {
		if addr == 0 {
			return codes.Internal
		}
		c := singleton()
		if c == nil {
			return codes.Internal
		}
		return translate(c.Track(addr))
	})
}

// Untrack removes addr.
func Untrack(addr uintptr) codes.Code {
	return withRecover(func() codes.Code {
		if addr == 0 {
			return codes.Internal
		}
		c := singleton()
		if c == nil {
			return codes.Internal
		}
		return translate(c.Untrack(addr))
	})
}

// DebugUntrack bypasses the enabled check (there is none on Untrack today)
// but is kept as a distinct entrypoint per spec.md's open question so the
// two paths stay independently adjustable.
func DebugUntrack(addr uintptr) codes.Code {
	return withRecover(func() codes.Code {
		if addr == 0 {
			return codes.Internal
		}
		c := singleton()
		if c == nil {
			return codes.Internal
		}
		return translate(c.DebugUntrack(addr))
	})
}

// IsTracked is a total predicate.
func IsTracked(addr uintptr) bool {
	c := singleton()
	return c != nil && c.IsTracked(addr)
}

// ClearRegistry empties the registry and the uncollectable list.
func ClearRegistry() codes.Code {
	return withRecover(func() codes.Code {
		c := singleton()
		if c == nil {
			return codes.Internal
		}
		return translate(c.ClearRegistry())
	})
}

// GetRegistryCount returns total_tracked, or -1 once torn down.
func GetRegistryCount() int {
	c := singleton()
	if c == nil {
		return -1
	}
	return c.GetRegistryCount()
}

// GetTrackedInfo renders the single-line diagnostic description for addr.
// Returns ("", code) on any failure; cmd/libtrigen writes the string into
// the caller's buffer only when code == Success.
func GetTrackedInfo(addr uintptr) (string, codes.Code) {
	if addr == 0 {
		return "", codes.Internal
	}
	c := singleton()
	if c == nil {
		return "", codes.Internal
	}
	info, err := c.GetTrackedInfo(addr)
	if err != nil {
		return "", translate(err)
	}
	return info, codes.Success
}

// Collect runs collect_generation(2).
func Collect() codes.Code {
	return withRecover(func() codes.Code {
		c := singleton()
		if c == nil {
			return codes.Internal
		}
		_, err := c.Collect()
		return translate(err)
	})
}

// CollectGeneration runs one collection cycle against generations 0..g.
func CollectGeneration(g int) codes.Code {
	return withRecover(func() codes.Code {
		c := singleton()
		if c == nil {
			return codes.Internal
		}
		_, err := c.CollectGeneration(g)
		return translate(err)
	})
}

// NeedsCollection is a predicate; false once torn down.
func NeedsCollection() bool {
	c := singleton()
	if c == nil {
		return false
	}
	ok, err := c.NeedsCollection()
	return err == nil && ok
}

// CollectIfNeeded evaluates scheduling rules and runs a cycle if one fires.
func CollectIfNeeded() codes.Code {
	return withRecover(func() codes.Code {
		c := singleton()
		if c == nil {
			return codes.Internal
		}
		return translate(c.CollectIfNeeded())
	})
}

// GetCount returns total_tracked, or -1 once torn down.
func GetCount() int { return GetRegistryCount() }

// GetGenerationCount returns generation g's membership count, or -1 for an
// invalid generation or a torn-down core.
func GetGenerationCount(g int) int {
	c := singleton()
	if c == nil {
		return -1
	}
	return c.GetGenerationCount(g)
}

// SetThreshold mutates T[g].
func SetThreshold(g, v int) codes.Code {
	return withRecover(func() codes.Code {
		c := singleton()
		if c == nil {
			return codes.Internal
		}
		return translate(c.SetThreshold(g, v))
	})
}

// GetThreshold returns T[g], or -1 for an invalid generation or a torn-down
// core.
func GetThreshold(g int) int {
	c := singleton()
	if c == nil {
		return -1
	}
	return c.GetThreshold(g)
}

// GetUncollectableCount returns the uncollectable list length.
func GetUncollectableCount() (int, codes.Code) {
	c := singleton()
	if c == nil {
		return 0, codes.Internal
	}
	n, err := c.GetUncollectableCount()
	if err != nil {
		return 0, translate(err)
	}
	return n, codes.Success
}

// ClearUncollectable empties the uncollectable list.
func ClearUncollectable() codes.Code {
	return withRecover(func() codes.Code {
		c := singleton()
		if c == nil {
			return codes.Internal
		}
		return translate(c.ClearUncollectable())
	})
}

// MarkUncollectable sets the per-entry UNCOLLECTABLE flag.
func MarkUncollectable(addr uintptr) codes.Code {
	return withRecover(func() codes.Code {
		if addr == 0 {
			return codes.Internal
		}
		c := singleton()
		if c == nil {
			return codes.Internal
		}
		return translate(c.MarkUncollectable(addr))
	})
}

// UnmarkUncollectable clears the per-entry UNCOLLECTABLE flag.
func UnmarkUncollectable(addr uintptr) codes.Code {
	return withRecover(func() codes.Code {
		if addr == 0 {
			return codes.Internal
		}
		c := singleton()
		if c == nil {
			return codes.Internal
		}
		return translate(c.UnmarkUncollectable(addr))
	})
}

// IsUncollectable is a total predicate.
func IsUncollectable(addr uintptr) bool {
	c := singleton()
	return c != nil && c.IsUncollectable(addr)
}

// AddReference records a from->to edge in the optional reference graph.
func AddReference(from, to uintptr) codes.Code {
	return withRecover(func() codes.Code {
		if from == 0 || to == 0 {
			return codes.Internal
		}
		c := singleton()
		if c == nil {
			return codes.Internal
		}
		return translate(c.AddReference(from, to))
	})
}

// RemoveReference deletes a previously registered from->to edge.
func RemoveReference(from, to uintptr) codes.Code {
	return withRecover(func() codes.Code {
		if from == 0 || to == 0 {
			return codes.Internal
		}
		c := singleton()
		if c == nil {
			return codes.Internal
		}
		return translate(c.RemoveReference(from, to))
	})
}

// GetStats snapshots the stable statistics record.
func GetStats() (core.Stats, codes.Code) {
	c := singleton()
	if c == nil {
		return core.Stats{}, codes.Internal
	}
	s, err := c.GetStats()
	if err != nil {
		return core.Stats{}, translate(err)
	}
	return s, codes.Success
}

// SetDebug stores the opaque debug bitmask.
func SetDebug(flags uint64) codes.Code {
	return withRecover(func() codes.Code {
		c := singleton()
		if c == nil {
			return codes.Internal
		}
		return translate(c.SetDebug(flags))
	})
}

// GetStateString renders the single-line state summary.
func GetStateString() (string, codes.Code) {
	c := singleton()
	if c == nil {
		return "", codes.Internal
	}
	s, err := c.GetStateString()
	if err != nil {
		return "", translate(err)
	}
	return s, codes.Success
}

// DebugState returns the fuller, non-ABI-stable diagnostic snapshot.
func DebugState() (core.DebugState, codes.Code) {
	c := singleton()
	if c == nil {
		return core.DebugState{}, codes.Internal
	}
	s, err := c.DebugState()
	if err != nil {
		return core.DebugState{}, translate(err)
	}
	return s, codes.Success
}
