// Package store owns every typed data set in a world. Each distinct
// value type gets one sparse set, registered under the compact handle
// its type resolves to. The container is type-erased; typed views are
// handed out only after the requested handle matches the recorded one.
package store

import (
	"fmt"
	"reflect"

	"github.com/weft-sim/weft/internal/registry"
	"github.com/weft-sim/weft/internal/sparse"
)

// componentSet pairs one typed sparse set with its handle, per-key
// change stamps, and type-erased operations for the command paths.
type componentSet struct {
	handle   registry.TypeHandle
	name     string
	set      any // *sparse.Set[T]
	ticks    *sparse.Set[uint64]
	maxStamp uint64

	insertAny func(key int, v any) error
	removeKey func(key int) bool
	length    func() int
	keys      func() []int
	contains  func(key int) bool
}

// Store is a collection of named, type-erased component sets indexed
// by type handle. The index itself is a sparse set, same primitive as
// the payloads. Not safe for concurrent mutation; the scheduler
// serializes access.
type Store struct {
	reg  *registry.Registry
	sets *sparse.Set[*componentSet]
}

func New(reg *registry.Registry) *Store {
	return &Store{reg: reg, sets: sparse.New[*componentSet]()}
}

// Registry returns the injected type registry.
func (s *Store) Registry() *registry.Registry {
	return s.reg
}

func (s *Store) lookup(h registry.TypeHandle) (*componentSet, error) {
	cs, ok := s.sets.Get(int(h))
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	return *cs, nil
}

// InsertAny stores a type-erased value for key under h, stamping the
// change tick. The value's dynamic type must match the registered set.
func (s *Store) InsertAny(h registry.TypeHandle, key int, v any, tick uint64) error {
	cs, err := s.lookup(h)
	if err != nil {
		return err
	}
	if err := cs.insertAny(key, v); err != nil {
		return err
	}
	s.stamp(cs, key, tick)
	return nil
}

// RemoveKey deletes key from the set under h. Unknown handles and
// absent keys report false.
func (s *Store) RemoveKey(h registry.TypeHandle, key int) bool {
	cs, err := s.lookup(h)
	if err != nil {
		return false
	}
	cs.ticks.Remove(key)
	return cs.removeKey(key)
}

// DropKey deletes key from every registered set. Used on entity
// despawn.
func (s *Store) DropKey(key int) {
	for _, cs := range s.sets.Values() {
		cs.removeKey(key)
		cs.ticks.Remove(key)
	}
}

// Len returns the number of live keys under h, 0 for unknown handles.
func (s *Store) Len(h registry.TypeHandle) int {
	cs, err := s.lookup(h)
	if err != nil {
		return 0
	}
	return cs.length()
}

// Keys returns the live keys under h in dense order. The slice aliases
// internal storage.
func (s *Store) Keys(h registry.TypeHandle) []int {
	cs, err := s.lookup(h)
	if err != nil {
		return nil
	}
	return cs.keys()
}

// Contains reports whether key is live under h.
func (s *Store) Contains(h registry.TypeHandle, key int) bool {
	cs, err := s.lookup(h)
	if err != nil {
		return false
	}
	return cs.contains(key)
}

// Name returns the recorded type name for h.
func (s *Store) Name(h registry.TypeHandle) string {
	cs, err := s.lookup(h)
	if err != nil {
		return ""
	}
	return cs.name
}

// Handles returns the handles of all registered sets.
func (s *Store) Handles() []registry.TypeHandle {
	out := make([]registry.TypeHandle, 0, s.sets.Len())
	for _, cs := range s.sets.Values() {
		out = append(out, cs.handle)
	}
	return out
}

// SetAny returns the type-erased container under h. Callers assert it
// back to *sparse.Set[T] through View; the scheduler hands it to query
// iteration, which carries the assertion itself.
func (s *Store) SetAny(h registry.TypeHandle) (any, error) {
	cs, err := s.lookup(h)
	if err != nil {
		return nil, err
	}
	return cs.set, nil
}

// Stamp records a change to key under h at tick. Inserts stamp
// implicitly; mutable query views stamp through here.
func (s *Store) Stamp(h registry.TypeHandle, key int, tick uint64) {
	cs, err := s.lookup(h)
	if err != nil {
		return
	}
	s.stamp(cs, key, tick)
}

func (s *Store) stamp(cs *componentSet, key int, tick uint64) {
	cs.ticks.Insert(key, tick)
	if tick > cs.maxStamp {
		cs.maxStamp = tick
	}
}

// ChangedSince reports whether key under h changed after the given
// tick. Keys without a stamp read as unchanged.
func (s *Store) ChangedSince(h registry.TypeHandle, key int, since uint64) bool {
	cs, err := s.lookup(h)
	if err != nil {
		return false
	}
	stamp, ok := cs.ticks.Get(key)
	return ok && *stamp > since
}

// ChangedAny reports whether anything under h changed after the given
// tick.
func (s *Store) ChangedAny(h registry.TypeHandle, since uint64) bool {
	cs, err := s.lookup(h)
	if err != nil {
		return false
	}
	return cs.maxStamp > since
}

// RegisterSet creates the data set for T if it does not exist yet and
// returns its handle. Idempotent.
func RegisterSet[T any](s *Store) (registry.TypeHandle, error) {
	h := registry.HandleFor[T](s.reg)
	if s.sets.Contains(int(h)) {
		return h, nil
	}
	set := sparse.New[T]()
	cs := &componentSet{
		handle: h,
		name:   s.reg.Name(h),
		set:    set,
		ticks:  sparse.New[uint64](),
	}
	cs.insertAny = func(key int, v any) error {
		tv, ok := v.(T)
		if !ok {
			return fmt.Errorf("%w: %s cannot hold %T", ErrTypeMismatch, cs.name, v)
		}
		_, _, err := set.Insert(key, tv)
		return err
	}
	cs.removeKey = func(key int) bool {
		_, ok := set.Remove(key)
		return ok
	}
	cs.length = set.Len
	cs.keys = set.Keys
	cs.contains = set.Contains
	if _, _, err := s.sets.Insert(int(h), cs); err != nil {
		return registry.None, err
	}
	return h, nil
}

// View returns the typed sparse set recorded under h. The requested
// handle must equal the one T resolves to; the check runs before any
// type assertion touches the erased container.
func View[T any](s *Store, h registry.TypeHandle) (*sparse.Set[T], error) {
	cs, err := s.lookup(h)
	if err != nil {
		return nil, err
	}
	if want := registry.HandleFor[T](s.reg); want != cs.handle {
		return nil, fmt.Errorf("%w: handle %d holds %s", ErrTypeMismatch, h, cs.name)
	}
	set, ok := cs.set.(*sparse.Set[T])
	if !ok {
		return nil, fmt.Errorf("%w: handle %d holds %s", ErrTypeMismatch, h, cs.name)
	}
	return set, nil
}

// Insert stores v for key, registering the set for T on first use and
// stamping the change tick.
func Insert[T any](s *Store, key int, v T, tick uint64) error {
	h, err := RegisterSet[T](s)
	if err != nil {
		return err
	}
	return s.InsertAny(h, key, v, tick)
}

// Remove deletes key from T's set and returns the removed value.
func Remove[T any](s *Store, key int) (T, bool) {
	var zero T
	h, ok := s.reg.Lookup(reflect.TypeFor[T]())
	if !ok {
		return zero, false
	}
	cs, err := s.lookup(h)
	if err != nil {
		return zero, false
	}
	set, ok := cs.set.(*sparse.Set[T])
	if !ok {
		return zero, false
	}
	cs.ticks.Remove(key)
	return set.Remove(key)
}
