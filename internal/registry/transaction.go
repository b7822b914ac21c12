package registry

// Tx is a handle for the bounded write-lock phases a collection cycle runs
// through (mark, classify, sweep, promote). The default, simplest
// implementation described in the design notes holds the Registry's write
// lock for the whole cycle, so Transaction takes the lock once and hands
// the caller a Tx valid only for the duration of fn.
type Tx struct {
	r *Registry
}

// Transaction runs fn with exclusive access to the Registry. fn must not
// call back into any other Registry method — doing so would deadlock,
// since the write lock is already held.
func (r *Registry) Transaction(fn func(tx *Tx)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&Tx{r: r})
}

// CandidatesUpTo returns, in insertion order, the addresses of every entry
// in generations 0..g inclusive. This is the candidate set for a
// collect_generation(g) cycle (spec: "the multiset union of all entries in
// generations 0..g").
func (t *Tx) CandidatesUpTo(g int) []uintptr {
	var out []uintptr
	for pair := t.r.byAddr.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.Generation <= g {
			out = append(out, pair.Key)
		}
	}
	return out
}

// ClearVisited clears the transient Visited bit on every address in addrs.
func (t *Tx) ClearVisited(addrs []uintptr) {
	for _, a := range addrs {
		if e, ok := t.r.byAddr.Get(a); ok {
			e.setFlag(Visited, false)
		}
	}
}

// MarkVisited sets the Visited bit for addr, if still tracked.
func (t *Tx) MarkVisited(addr uintptr) {
	if e, ok := t.r.byAddr.Get(addr); ok {
		e.setFlag(Visited, true)
	}
}

// IsVisited reports whether addr carries the Visited bit.
func (t *Tx) IsVisited(addr uintptr) bool {
	e, ok := t.r.byAddr.Get(addr)
	return ok && e.Flags.has(Visited)
}

// IsUncollectable reports whether addr carries the Uncollectable bit.
func (t *Tx) IsUncollectable(addr uintptr) bool {
	e, ok := t.r.byAddr.Get(addr)
	return ok && e.Flags.has(Uncollectable)
}

// SetUncollectable sets or clears the Uncollectable bit for addr. No-op if
// addr is not tracked (the uncollectable list may outlive reclamation of
// unrelated entries).
func (t *Tx) SetUncollectable(addr uintptr, on bool) {
	if e, ok := t.r.byAddr.Get(addr); ok {
		e.setFlag(Uncollectable, on)
	}
}

// HasFinalizer reports whether addr carries the HasFinalizer bit.
func (t *Tx) HasFinalizer(addr uintptr) bool {
	e, ok := t.r.byAddr.Get(addr)
	return ok && e.Flags.has(HasFinalizer)
}

// SetHasFinalizer sets or clears the HasFinalizer bit for addr.
func (t *Tx) SetHasFinalizer(addr uintptr, on bool) {
	if e, ok := t.r.byAddr.Get(addr); ok {
		e.setFlag(HasFinalizer, on)
	}
}

// Generation returns the current generation of addr, or -1 if untracked.
func (t *Tx) Generation(addr uintptr) int {
	e, ok := t.r.byAddr.Get(addr)
	if !ok {
		return -1
	}
	return e.Generation
}

// Promote advances addr to generation g+1, capped at the oldest generation.
// Updates the per-generation counters to keep invariant R3 (sum of
// per-generation counts equals total_tracked) intact.
func (t *Tx) Promote(addr uintptr) {
	e, ok := t.r.byAddr.Get(addr)
	if !ok {
		return
	}
	if e.Generation >= NumGenerations-1 {
		return
	}
	t.r.genCounts[e.Generation]--
	e.Generation++
	t.r.genCounts[e.Generation]++
}

// Remove deletes addr unconditionally, e.g. during sweep. Returns false if
// addr was not tracked.
func (t *Tx) Remove(addr uintptr) bool {
	e, ok := t.r.byAddr.Get(addr)
	if !ok {
		return false
	}
	t.r.byAddr.Delete(addr)
	t.r.genCounts[e.Generation]--
	return true
}

// Exists reports whether addr is still tracked within the transaction.
func (t *Tx) Exists(addr uintptr) bool {
	_, ok := t.r.byAddr.Get(addr)
	return ok
}
