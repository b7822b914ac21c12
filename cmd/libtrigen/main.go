// Command libtrigen builds the C-callable shared library: cgo //export
// shims over internal/abi, built with `-buildmode=c-shared`. It holds no
// logic of its own beyond C-type translation (the stable C ABI's contract
// from spec.md §4.5) — validation, error translation, and buffer rendering
// live in internal/abi, where they can be exercised with plain Go tests.
//
// No repo in the example pack links cgo; this file follows the standard
// library's own cgo/c-shared conventions rather than a teacher pattern (see
// DESIGN.md).
package main

/*
#include <stdint.h>
#include <stddef.h>

typedef struct trigen_stats {
	int32_t total_tracked;
	int32_t generation_counts[3];
	int32_t uncollectable;
} trigen_stats;
*/
import "C"

import (
	"unsafe"

	"github.com/dkrasnov/trigen/internal/abi"
	"github.com/dkrasnov/trigen/internal/codes"
	"github.com/dkrasnov/trigen/internal/core"
)

// writeCString copies s, NUL-terminated, into buf (size bytes), truncating
// (with terminator) if it does not fit. Returns false if size == 0.
func writeCString(buf *C.char, size C.size_t, s string) bool {
	if size == 0 {
		return false
	}
	n := int(size) - 1
	if len(s) < n {
		n = len(s)
	}
	dst := unsafe.Slice((*byte)(unsafe.Pointer(buf)), int(size))
	copy(dst, s[:n])
	dst[n] = 0
	return true
}

//export trigen_init
func trigen_init() C.int {
	return C.int(abi.Init(core.DefaultConfig()))
}

//export trigen_cleanup
func trigen_cleanup() C.int {
	return C.int(abi.Cleanup())
}

//export trigen_is_initialized
func trigen_is_initialized() C.int {
	if abi.IsInitialized() {
		return 1
	}
	return 0
}

//export trigen_enable
func trigen_enable() C.int { return C.int(abi.Enable()) }

//export trigen_disable
func trigen_disable() C.int { return C.int(abi.Disable()) }

//export trigen_is_enabled
func trigen_is_enabled() C.int {
	if abi.IsEnabled() {
		return 1
	}
	return 0
}

//export trigen_track
func trigen_track(addr unsafe.Pointer) C.int {
	return C.int(abi.Track(uintptr(addr)))
}

//export trigen_untrack
func trigen_untrack(addr unsafe.Pointer) C.int {
	return C.int(abi.Untrack(uintptr(addr)))
}

//export trigen_debug_untrack
func trigen_debug_untrack(addr unsafe.Pointer) C.int {
	return C.int(abi.DebugUntrack(uintptr(addr)))
}

//export trigen_is_tracked
func trigen_is_tracked(addr unsafe.Pointer) C.int {
	if abi.IsTracked(uintptr(addr)) {
		return 1
	}
	return 0
}

//export trigen_clear_registry
func trigen_clear_registry() C.int { return C.int(abi.ClearRegistry()) }

//export trigen_get_registry_count
func trigen_get_registry_count() C.int { return C.int(abi.GetRegistryCount()) }

//export trigen_get_tracked_info
func trigen_get_tracked_info(addr unsafe.Pointer, buf *C.char, size C.size_t) C.int {
	if buf == nil || size == 0 {
		return C.int(codes.Internal)
	}
	info, code := abi.GetTrackedInfo(uintptr(addr))
	if code != codes.Success {
		return C.int(code)
	}
	writeCString(buf, size, info)
	return C.int(codes.Success)
}

//export trigen_collect
func trigen_collect() C.int { return C.int(abi.Collect()) }

//export trigen_collect_generation
func trigen_collect_generation(g C.int) C.int {
	return C.int(abi.CollectGeneration(int(g)))
}

//export trigen_needs_collection
func trigen_needs_collection() C.int {
	if abi.NeedsCollection() {
		return 1
	}
	return 0
}

//export trigen_collect_if_needed
func trigen_collect_if_needed() C.int { return C.int(abi.CollectIfNeeded()) }

//export trigen_get_count
func trigen_get_count() C.int { return C.int(abi.GetCount()) }

//export trigen_get_generation_count
func trigen_get_generation_count(g C.int) C.int {
	return C.int(abi.GetGenerationCount(int(g)))
}

//export trigen_set_threshold
func trigen_set_threshold(g, v C.int) C.int {
	return C.int(abi.SetThreshold(int(g), int(v)))
}

//export trigen_get_threshold
func trigen_get_threshold(g C.int) C.int {
	return C.int(abi.GetThreshold(int(g)))
}

//export trigen_get_uncollectable_count
func trigen_get_uncollectable_count() C.int {
	n, code := abi.GetUncollectableCount()
	if code != codes.Success {
		return C.int(code)
	}
	return C.int(n)
}

//export trigen_clear_uncollectable
func trigen_clear_uncollectable() C.int { return C.int(abi.ClearUncollectable()) }

//export trigen_mark_uncollectable
func trigen_mark_uncollectable(addr unsafe.Pointer) C.int {
	return C.int(abi.MarkUncollectable(uintptr(addr)))
}

//export trigen_unmark_uncollectable
func trigen_unmark_uncollectable(addr unsafe.Pointer) C.int {
	return C.int(abi.UnmarkUncollectable(uintptr(addr)))
}

//export trigen_is_uncollectable
func trigen_is_uncollectable(addr unsafe.Pointer) C.int {
	if abi.IsUncollectable(uintptr(addr)) {
		return 1
	}
	return 0
}

//export trigen_add_reference
func trigen_add_reference(from, to unsafe.Pointer) C.int {
	return C.int(abi.AddReference(uintptr(from), uintptr(to)))
}

//export trigen_remove_reference
func trigen_remove_reference(from, to unsafe.Pointer) C.int {
	return C.int(abi.RemoveReference(uintptr(from), uintptr(to)))
}

//export trigen_get_stats
func trigen_get_stats(out *C.trigen_stats) C.int {
	if out == nil {
		return C.int(codes.Internal)
	}
	stats, code := abi.GetStats()
	if code != codes.Success {
		return C.int(code)
	}
	out.total_tracked = C.int32_t(stats.TotalTracked)
	for i, n := range stats.GenerationCounts {
		out.generation_counts[i] = C.int32_t(n)
	}
	out.uncollectable = C.int32_t(stats.Uncollectable)
	return C.int(codes.Success)
}

//export trigen_set_debug
func trigen_set_debug(flags C.uint64_t) C.int {
	return C.int(abi.SetDebug(uint64(flags)))
}

//export trigen_get_state_string
func trigen_get_state_string(buf *C.char, size C.size_t) C.int {
	if buf == nil || size == 0 {
		return C.int(codes.Internal)
	}
	s, code := abi.GetStateString()
	if code != codes.Success {
		return C.int(code)
	}
	writeCString(buf, size, s)
	return C.int(codes.Success)
}

func main() {} // required by -buildmode=c-shared, never invoked
