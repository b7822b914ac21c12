// Package registry implements the process-wide, thread-safe mapping from
// opaque object addresses to tracking metadata (ObjectEntry in spec
// terminology). It owns ObjectEntry records exclusively: the collector only
// ever touches them through a Transaction taken out on the Registry.
//
// The locking shape follows the teacher's PIDTracker: a sync.RWMutex guards
// a map, reads take RLock, writes take Lock. Deterministic iteration order
// (insertion order) is needed for stable debug output, so the map is backed
// by an ordered map rather than a bare Go map, whose range order is
// unspecified.
package registry

import (
	"fmt"
	"sync"
	"sync/atomic"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// NumGenerations is the number of generations the registry classifies
// entries into (0, 1, 2).
const NumGenerations = 3

// Registry is the address-keyed map of ObjectEntry records.
type Registry struct {
	mu   sync.RWMutex
	byAddr *orderedmap.OrderedMap[uintptr, *Entry]
	genCounts [NumGenerations]int

	clock uint64 // monotonic event counter, source of Entry.Timestamp
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		byAddr: orderedmap.New[uintptr, *Entry](),
	}
}

// NextTimestamp returns the next monotonic event counter value. Exposed so
// callers outside the tracking path (e.g. the StateMachine) can stamp
// debug events against the same clock.
func (r *Registry) NextTimestamp() uint64 {
	return atomic.AddUint64(&r.clock, 1)
}

// Track inserts a new ObjectEntry at generation 0. Fails with a "already
// tracked" condition if addr is present, or "null address" if addr is zero.
func (r *Registry) Track(addr uintptr) error {
	if addr == 0 {
		return errNullAddress
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, present := r.byAddr.Get(addr); present {
		return errAlreadyTracked
	}

	r.byAddr.Set(addr, &Entry{
		Address:    addr,
		Generation: 0,
		Timestamp:  r.NextTimestamp(),
	})
	r.genCounts[0]++
	return nil
}

// Untrack removes the entry for addr.
func (r *Registry) Untrack(addr uintptr) error {
	if addr == 0 {
		return errNullAddress
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(addr)
}

func (r *Registry) removeLocked(addr uintptr) error {
	entry, present := r.byAddr.Get(addr)
	if !present {
		return errNotTracked
	}
	r.byAddr.Delete(addr)
	r.genCounts[entry.Generation]--
	return nil
}

// IsTracked is a total function: 0 for a null or absent address, 1 if
// present. Never fails.
func (r *Registry) IsTracked(addr uintptr) bool {
	if addr == 0 {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, present := r.byAddr.Get(addr)
	return present
}

// Get returns a copy of the entry for addr, if tracked.
func (r *Registry) Get(addr uintptr) (Entry, bool) {
	if addr == 0 {
		return Entry{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, present := r.byAddr.Get(addr)
	if !present {
		return Entry{}, false
	}
	return *e, true
}

// FormatInfo renders the single-line diagnostic description required by
// get_tracked_info: address in hex, generation, timestamp, flag letters.
func FormatInfo(e Entry) string {
	return fmt.Sprintf("addr=0x%x gen=%d ts=%d flags=%s", e.Address, e.Generation, e.Timestamp, e.Flags.Letters())
}

// GetInfo returns FormatInfo(entry) for addr. It writes no buffer itself;
// copying into a caller's buffer, with truncation and a terminator, is done
// by cmd/libtrigen's writeCString.
func (r *Registry) GetInfo(addr uintptr) (string, error) {
	if addr == 0 {
		return "", errNullAddress
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, present := r.byAddr.Get(addr)
	if !present {
		return "", errNotTracked
	}
	return FormatInfo(*e), nil
}

// Clear removes all entries and zeros the per-generation membership counts.
// The scheduler's generation-0 allocation counter lives in gcgen and is not
// reset by Clear or by Core.ClearRegistry.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byAddr = orderedmap.New[uintptr, *Entry]()
	r.genCounts = [NumGenerations]int{}
}

// Count returns the total number of tracked entries.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byAddr.Len()
}

// GenerationCount returns the number of entries in generation g, or -1 if
// g is not in {0,1,2}.
func (r *Registry) GenerationCount(g int) int {
	if g < 0 || g >= NumGenerations {
		return -1
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.genCounts[g]
}

// CountSnapshot returns the total tracked count together with every
// per-generation count, all read under a single RLock acquisition so the
// result reflects one consistent instant (spec.md §5: "statistics snapshots
// reflect a consistent point in time, captured under the read lock").
// Composing Count() and GenerationCount(g) calls separately cannot give this
// guarantee, since a writer can run between them.
func (r *Registry) CountSnapshot() (total int, byGeneration [NumGenerations]int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byAddr.Len(), r.genCounts
}

// AddressesByGeneration returns, in insertion order, every tracked address
// in generation g. Backs debug_state's enumeration; not part of the stable
// ABI textual-output contract.
func (r *Registry) AddressesByGeneration(g int) []uintptr {
	if g < 0 || g >= NumGenerations {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]uintptr, 0, r.genCounts[g])
	for p := r.byAddr.Oldest(); p != nil; p = p.Next() {
		if p.Value.Generation == g {
			out = append(out, p.Key)
		}
	}
	return out
}
