package sparse

import (
	"fmt"
	"iter"
)

// Set is a dense/sparse indexed set mapping integer keys to values of
// type V. The zero value is not usable; construct with New or
// WithCapacity.
type Set[V any] struct {
	sparse []int
	dense  []int
	data   []V
}

// New returns an empty set with no reserved capacity.
func New[V any]() *Set[V] {
	return &Set[V]{}
}

// WithCapacity returns an empty set with room for keys in [0, n).
func WithCapacity[V any](n int) (*Set[V], error) {
	s := New[V]()
	if err := s.Reserve(n); err != nil {
		return nil, err
	}
	return s, nil
}

// slot resolves a key to its dense slot. The round-trip check makes
// stale sparse entries (left behind by Remove, Clear and growth)
// read as absent.
func (s *Set[V]) slot(key int) (int, bool) {
	if key < 0 || key >= len(s.sparse) {
		return 0, false
	}
	idx := s.sparse[key]
	if idx >= len(s.dense) || s.dense[idx] != key {
		return 0, false
	}
	return idx, true
}

// Insert stores v under key, growing capacity as needed. If the key is
// already live its value is overwritten in place and the previous
// value is returned with replaced == true.
func (s *Set[V]) Insert(key int, v V) (prev V, replaced bool, err error) {
	var zero V
	if key < 0 {
		return zero, false, ErrInvalidKey
	}
	for key >= len(s.sparse) {
		if err := s.Reserve(max(1, len(s.sparse))); err != nil {
			return zero, false, err
		}
	}
	if idx, live := s.slot(key); live {
		prev = s.data[idx]
		s.data[idx] = v
		return prev, true, nil
	}
	s.sparse[key] = len(s.dense)
	s.dense = append(s.dense, key)
	s.data = append(s.data, v)
	return zero, false, nil
}

// InsertAuto stores v under the first absent key, reusing freed keys
// before extending the key range. Used when the caller does not care
// about key values.
func (s *Set[V]) InsertAuto(v V) (int, error) {
	key := len(s.sparse)
	for k := range s.sparse {
		if _, live := s.slot(k); !live {
			key = k
			break
		}
	}
	if _, _, err := s.Insert(key, v); err != nil {
		return 0, err
	}
	return key, nil
}

// Remove deletes key and returns its value. Removing an absent key is
// a no-op returning false. The last dense slot is swapped into the
// vacated position so the payload stays contiguous.
func (s *Set[V]) Remove(key int) (V, bool) {
	var zero V
	idx, live := s.slot(key)
	if !live {
		return zero, false
	}
	out := s.data[idx]
	last := len(s.dense) - 1
	if idx != last {
		moved := s.dense[last]
		s.dense[idx] = moved
		s.data[idx] = s.data[last]
		s.sparse[moved] = idx
	}
	s.data[last] = zero
	s.dense = s.dense[:last]
	s.data = s.data[:last]
	s.sparse[key] = len(s.sparse)
	return out, true
}

// Get returns a pointer to the value stored under key. The pointer is
// valid until the next mutation of the set.
func (s *Set[V]) Get(key int) (*V, bool) {
	idx, live := s.slot(key)
	if !live {
		return nil, false
	}
	return &s.data[idx], true
}

// Contains reports whether key is live.
func (s *Set[V]) Contains(key int) bool {
	_, live := s.slot(key)
	return live
}

// Len returns the number of live keys.
func (s *Set[V]) Len() int {
	return len(s.dense)
}

// Cap returns the current key capacity.
func (s *Set[V]) Cap() int {
	return len(s.sparse)
}

// Values exposes the dense payload array, the primary iteration fast
// path. The slice aliases internal storage: its order is unspecified
// and shifts on removal.
func (s *Set[V]) Values() []V {
	return s.data
}

// Keys exposes the dense key array, parallel to Values. Same aliasing
// and ordering caveats apply.
func (s *Set[V]) Keys() []int {
	return s.dense
}

// All iterates key/value pairs in dense order. Like Keys and Values it
// reflects internal layout: the order is unspecified and shifts on
// removal, and the set must not be mutated during iteration.
func (s *Set[V]) All() iter.Seq2[int, V] {
	return func(yield func(int, V) bool) {
		for i, k := range s.dense {
			if !yield(k, s.data[i]) {
				return
			}
		}
	}
}

// Clear drops all live entries. Sparse entries are left stale; the
// round-trip check reads them as absent.
func (s *Set[V]) Clear() {
	clear(s.data)
	s.dense = s.dense[:0]
	s.data = s.data[:0]
}

// Reserve grows the backing arrays to hold additional more keys. On
// failure the set is left in its prior observable state and a distinct
// error kind is returned: ErrCapacityOverflow when the new capacity
// does not fit in an int, ErrAllocFailed when the allocator refuses.
// New sparse slots are filled with the new capacity, which can never
// pass the round-trip check.
func (s *Set[V]) Reserve(additional int) error {
	if additional < 0 {
		return ErrNegativeCount
	}
	if additional == 0 {
		return nil
	}
	newCap := len(s.sparse) + additional
	if newCap < len(s.sparse) {
		return fmt.Errorf("%w: %d+%d keys", ErrCapacityOverflow, len(s.sparse), additional)
	}
	return s.grow(newCap)
}

func (s *Set[V]) grow(newCap int) (err error) {
	defer func() {
		if recover() != nil {
			err = fmt.Errorf("%w: %d keys", ErrAllocFailed, newCap)
		}
	}()
	sp := make([]int, newCap)
	copy(sp, s.sparse)
	for i := len(s.sparse); i < newCap; i++ {
		sp[i] = newCap
	}
	dn := make([]int, len(s.dense), newCap)
	copy(dn, s.dense)
	dt := make([]V, len(s.data), newCap)
	copy(dt, s.data)
	s.sparse, s.dense, s.data = sp, dn, dt
	return nil
}
