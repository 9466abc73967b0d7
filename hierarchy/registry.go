package hierarchy

import (
	"slices"
	"sync"
)

// registry is a copy-on-write set of registrations in insertion order.
// Iteration works on the snapshot taken when it starts, so registering or
// unregistering during a notification pass never disturbs that pass.
type registry[E comparable] struct {
	mu    sync.RWMutex
	items []E
}

// add registers e once. Returns false if e was already present.
func (r *registry[E]) add(e E) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if slices.Contains(r.items, e) {
		return false
	}
	next := make([]E, len(r.items), len(r.items)+1)
	copy(next, r.items)
	r.items = append(next, e)
	return true
}

// remove unregisters e. Returns false if e was not present.
func (r *registry[E]) remove(e E) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := slices.Index(r.items, e)
	if i < 0 {
		return false
	}
	next := make([]E, 0, len(r.items)-1)
	next = append(next, r.items[:i]...)
	r.items = append(next, r.items[i+1:]...)
	return true
}

// snapshot returns the current registrations. The slice is never mutated.
func (r *registry[E]) snapshot() []E {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.items
}

func (r *registry[E]) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
