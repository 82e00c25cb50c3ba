package session

import (
	"context"
	"sync"
	"time"
)

// Registry holds one value per session id, created on first use. It is
// where per-session state machines live between requests.
type Registry[T any] struct {
	create  func(sid string) T
	release func(T)
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*registryEntry[T]
}

type registryEntry[T any] struct {
	value   T
	touched time.Time
}

// NewRegistry creates a registry that builds values with create.
// release, if set, runs on values that are deleted or swept.
func NewRegistry[T any](create func(sid string) T, release func(T)) *Registry[T] {
	return &Registry[T]{
		create:  create,
		release: release,
		now:     time.Now,
		entries: make(map[string]*registryEntry[T]),
	}
}

// Get returns the value for sid, creating it if needed, and marks it used.
func (r *Registry[T]) Get(sid string) T {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[sid]
	if !ok {
		e = &registryEntry[T]{value: r.create(sid)}
		r.entries[sid] = e
	}
	e.touched = r.now()
	return e.value
}

// Peek returns the value for sid without creating one.
func (r *Registry[T]) Peek(sid string) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[sid]
	if !ok {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Delete drops the value for sid.
func (r *Registry[T]) Delete(sid string) {
	r.mu.Lock()
	e, ok := r.entries[sid]
	delete(r.entries, sid)
	r.mu.Unlock()
	if ok && r.release != nil {
		r.release(e.value)
	}
}

// Len returns the number of live entries.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep drops entries not used since before cutoff.
func (r *Registry[T]) Sweep(_ context.Context, cutoff time.Time) (int64, error) {
	var stale []T
	r.mu.Lock()
	for sid, e := range r.entries {
		if e.touched.Before(cutoff) {
			stale = append(stale, e.value)
			delete(r.entries, sid)
		}
	}
	r.mu.Unlock()

	if r.release != nil {
		for _, v := range stale {
			r.release(v)
		}
	}
	return int64(len(stale)), nil
}
