package query

import (
	"fmt"

	"github.com/weft-sim/weft/internal/registry"
	"github.com/weft-sim/weft/internal/sparse"
)

// Access is the storage surface a query runs against. The scheduler
// hands each system an implementation scoped to its declared handles;
// tests use lighter fakes.
type Access interface {
	// Len and Keys describe candidate driving sets.
	Len(h registry.TypeHandle) int
	Keys(h registry.TypeHandle) []int
	// Contains probes a set for a key.
	Contains(h registry.TypeHandle, key int) bool
	// ChangedSince and ChangedAny compare against the owning system's
	// last run.
	ChangedSince(h registry.TypeHandle, key int) bool
	ChangedAny(h registry.TypeHandle) bool
	// Position resolves a key through the world's spatial provider.
	// ok is false when no provider is configured or the key has no
	// position; such keys fail spatial filters.
	Position(key int) ([3]float64, bool)
	// ViewAny returns the type-erased set under h after checking the
	// handle against the system's declaration.
	ViewAny(h registry.TypeHandle) (any, error)
	// RequestWrite checks h against the declared write set, recording
	// a promotion when only a read was declared.
	RequestWrite(h registry.TypeHandle) error
	// Stamp records a mutation of key under h at the current tick.
	Stamp(h registry.TypeHandle, key int)
}

// Iter walks the keys matching a query. The driving set is the
// requested set with the fewest live entries; every other requested
// set is probed per key, and the filter chain runs in precedence
// order before a key is yielded.
type Iter struct {
	ax      Access
	q       Query
	driving registry.TypeHandle
	keys    []int
	pos     int
	key     int
}

// Iter binds the query to an access surface and positions before the
// first match.
func (q Query) Iter(ax Access) *Iter {
	it := &Iter{ax: ax, q: q, key: -1}
	if len(q.targets) == 0 {
		return it
	}
	it.driving = q.targets[0]
	for _, h := range q.targets[1:] {
		if ax.Len(h) < ax.Len(it.driving) {
			it.driving = h
		}
	}
	it.keys = ax.Keys(it.driving)
	return it
}

// Next advances to the next matching key.
func (it *Iter) Next() bool {
candidates:
	for it.pos < len(it.keys) {
		key := it.keys[it.pos]
		it.pos++

		for _, f := range it.q.chain {
			switch f.Kind {
			case KindCloserThan:
				p, ok := it.ax.Position(key)
				if !ok || distSq(p, f.Origin) >= f.Dist*f.Dist {
					continue candidates
				}
			case KindFurtherThan:
				p, ok := it.ax.Position(key)
				if !ok || distSq(p, f.Origin) <= f.Dist*f.Dist {
					continue candidates
				}
			case KindChanged:
				if !it.ax.ChangedSince(f.Handles[0], key) {
					continue candidates
				}
			case KindAnyChanged:
				if !it.ax.ChangedAny(f.Handles[0]) {
					continue candidates
				}
			case KindWithout:
				if it.ax.Contains(f.Handles[0], key) {
					continue candidates
				}
			case KindAccess, KindWrite:
				// The expensive step: probe every requested set.
				for _, h := range it.q.targets {
					if h == it.driving {
						continue
					}
					if !it.ax.Contains(h, key) {
						continue candidates
					}
				}
			}
		}

		it.key = key
		return true
	}
	return false
}

// Key returns the entity key at the cursor.
func (it *Iter) Key() int { return it.key }

func distSq(p, o [3]float64) float64 {
	dx, dy, dz := p[0]-o[0], p[1]-o[1], p[2]-o[2]
	return dx*dx + dy*dy + dz*dz
}

// Get returns a read-only copy of the value under h for the cursor
// key.
func Get[T any](it *Iter, h registry.TypeHandle) (T, error) {
	var zero T
	set, err := view[T](it, h)
	if err != nil {
		return zero, err
	}
	v, ok := set.Get(it.key)
	if !ok {
		return zero, fmt.Errorf("%w: key %d", ErrAbsentKey, it.key)
	}
	return *v, nil
}

// Mut returns a mutable view of the value under h for the cursor key.
// The first call on a handle the system declared read-only records a
// write promotion and fails with ErrWritePromoted instead of exposing
// the pointer; see the scheduler's promotion policy.
func Mut[T any](it *Iter, h registry.TypeHandle) (*T, error) {
	if err := it.ax.RequestWrite(h); err != nil {
		return nil, err
	}
	set, err := view[T](it, h)
	if err != nil {
		return nil, err
	}
	v, ok := set.Get(it.key)
	if !ok {
		return nil, fmt.Errorf("%w: key %d", ErrAbsentKey, it.key)
	}
	it.ax.Stamp(h, it.key)
	return v, nil
}

func view[T any](it *Iter, h registry.TypeHandle) (*sparse.Set[T], error) {
	raw, err := it.ax.ViewAny(h)
	if err != nil {
		return nil, err
	}
	set, ok := raw.(*sparse.Set[T])
	if !ok {
		return nil, fmt.Errorf("%w: handle %d", ErrTypeMismatch, h)
	}
	return set, nil
}
