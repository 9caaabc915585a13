// Package registry tracks the live application windows and which one has focus.
package registry

import (
	"sort"
	"sync"
)

// Entry is a registered window.
type Entry interface {
	ID() int
	Incognito() bool
}

// Registry is a concurrency-safe set of windows keyed by id.
type Registry struct {
	mu      sync.Mutex
	entries map[int]Entry
	order   []int
	current Entry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[int]Entry)}
}

// Register adds e. Registering an id twice replaces the entry in place.
func (r *Registry) Register(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[e.ID()]; !ok {
		r.order = append(r.order, e.ID())
	}
	r.entries[e.ID()] = e
}

// Unregister removes the window with id. Removing the focused window clears
// the focus.
func (r *Registry) Unregister(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return
	}
	delete(r.entries, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.current != nil && r.current.ID() == id {
		r.current = nil
	}
}

// SetFocused marks e as the current window. Unregistered entries are ignored.
func (r *Registry) SetFocused(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[e.ID()]; ok {
		r.current = e
	}
}

// Current returns the focused window, or nil.
func (r *Registry) Current() Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Get returns the window with id.
func (r *Registry) Get(id int) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	return e, ok
}

// All returns the windows in registration order.
func (r *Registry) All() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id])
	}
	return out
}

// IDs returns the registered ids in ascending order.
func (r *Registry) IDs() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := append([]int(nil), r.order...)
	sort.Ints(ids)
	return ids
}

// CountIncognito returns how many registered windows are incognito.
func (r *Registry) CountIncognito() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.Incognito() {
			n++
		}
	}
	return n
}
