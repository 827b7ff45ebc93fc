// Package registry assigns compact integer handles to data-set types.
package registry

import (
	"reflect"
	"sync"
)

// TypeHandle identifies one distinct data-set type. Handles are
// assigned lazily on first request, are dense and monotonic from
// zero, and never change for the lifetime of the registry.
type TypeHandle int

// None is the absent handle.
const None TypeHandle = -1

// Registry maps type identities to handles. It has an explicit
// lifecycle and is injected into the store and the world; there is no
// package-level instance. Safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	handles map[reflect.Type]TypeHandle
	names   []string
}

func New() *Registry {
	return &Registry{handles: make(map[reflect.Type]TypeHandle)}
}

// Handle returns the handle for t, assigning the next one on first
// use.
func (r *Registry) Handle(t reflect.Type) TypeHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.handles[t]; ok {
		return h
	}
	h := TypeHandle(len(r.names))
	r.handles[t] = h
	r.names = append(r.names, t.String())
	return h
}

// Lookup returns the handle for t without assigning one.
func (r *Registry) Lookup(t reflect.Type) (TypeHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[t]
	return h, ok
}

// Name returns the type name recorded for h, or "" for an unknown
// handle. Used in logs and schedule listings.
func (r *Registry) Name(h TypeHandle) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h < 0 || int(h) >= len(r.names) {
		return ""
	}
	return r.names[h]
}

// Count returns the number of assigned handles.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.names)
}

// HandleFor returns the handle for type T.
func HandleFor[T any](r *Registry) TypeHandle {
	return r.Handle(reflect.TypeFor[T]())
}
