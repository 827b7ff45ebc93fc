package sparse

import (
	"errors"
	"math/rand"
	"testing"
)

func TestInsertGet(t *testing.T) {
	s := New[string]()

	if _, _, err := s.Insert(3, "three"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if _, _, err := s.Insert(0, "zero"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	v, ok := s.Get(3)
	if !ok || *v != "three" {
		t.Errorf("Get(3) = %v, %v; want three, true", v, ok)
	}
	if _, ok := s.Get(1); ok {
		t.Errorf("Get(1) should be absent")
	}
	if _, ok := s.Get(-1); ok {
		t.Errorf("Get(-1) should be absent")
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
}

func TestInsertOverwrite(t *testing.T) {
	s := New[int]()

	if _, replaced, _ := s.Insert(7, 1); replaced {
		t.Errorf("first insert should not replace")
	}
	prev, replaced, err := s.Insert(7, 2)
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if !replaced || prev != 1 {
		t.Errorf("overwrite = %d, %v; want 1, true", prev, replaced)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
	v, _ := s.Get(7)
	if *v != 2 {
		t.Errorf("Get(7) = %d, want 2", *v)
	}
}

func TestInsertNegativeKey(t *testing.T) {
	s := New[int]()
	if _, _, err := s.Insert(-1, 0); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Insert(-1) = %v, want ErrInvalidKey", err)
	}
}

func TestRemoveRoundTrip(t *testing.T) {
	s := New[int]()
	s.Insert(5, 50)

	v, ok := s.Remove(5)
	if !ok || v != 50 {
		t.Errorf("Remove(5) = %d, %v; want 50, true", v, ok)
	}
	if _, ok := s.Get(5); ok {
		t.Errorf("Get(5) after remove should be absent")
	}
	if _, ok := s.Remove(5); ok {
		t.Errorf("second Remove(5) should report absent")
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestRemoveRelinksSwappedKey(t *testing.T) {
	s := New[int]()
	for k := 0; k < 4; k++ {
		s.Insert(k, k*10)
	}

	// Removing a middle key moves the last slot into its place.
	s.Remove(1)

	for _, k := range []int{0, 2, 3} {
		v, ok := s.Get(k)
		if !ok || *v != k*10 {
			t.Errorf("Get(%d) = %v, %v; want %d", k, v, ok, k*10)
		}
	}
	if s.Contains(1) {
		t.Errorf("key 1 should be absent")
	}
	if s.Len() != 3 {
		t.Errorf("Len = %d, want 3", s.Len())
	}
}

func TestInsertAutoReusesFreedKeys(t *testing.T) {
	s := New[string]()
	for i := 0; i < 3; i++ {
		if _, err := s.InsertAuto("x"); err != nil {
			t.Fatalf("InsertAuto failed: %v", err)
		}
	}
	s.Remove(1)

	k, err := s.InsertAuto("y")
	if err != nil {
		t.Fatalf("InsertAuto failed: %v", err)
	}
	if k != 1 {
		t.Errorf("InsertAuto reused key %d, want 1", k)
	}

	k, _ = s.InsertAuto("z")
	if s.Contains(k) != true || s.Len() != 4 {
		t.Errorf("fresh key %d not live, Len = %d", k, s.Len())
	}
}

func TestGrowthPreservesEntries(t *testing.T) {
	s := New[int]()
	s.Insert(0, 100)

	// Forces several rounds of doubling.
	if _, _, err := s.Insert(1000, 200); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	v, ok := s.Get(0)
	if !ok || *v != 100 {
		t.Errorf("Get(0) after growth = %v, %v; want 100", v, ok)
	}
	v, _ = s.Get(1000)
	if *v != 200 {
		t.Errorf("Get(1000) = %d, want 200", *v)
	}
	if s.Cap() < 1001 {
		t.Errorf("Cap = %d, want >= 1001", s.Cap())
	}
}

func TestReserveErrors(t *testing.T) {
	s := New[int]()
	s.Insert(0, 1)

	if err := s.Reserve(-1); !errors.Is(err, ErrNegativeCount) {
		t.Errorf("Reserve(-1) = %v, want ErrNegativeCount", err)
	}
	if err := s.Reserve(int(^uint(0) >> 1)); !errors.Is(err, ErrCapacityOverflow) {
		t.Errorf("huge Reserve = %v, want ErrCapacityOverflow", err)
	}

	// Prior state survives the failed calls.
	v, ok := s.Get(0)
	if !ok || *v != 1 {
		t.Errorf("Get(0) after failed reserve = %v, %v; want 1, true", v, ok)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestClear(t *testing.T) {
	s := New[int]()
	for k := 0; k < 8; k++ {
		s.Insert(k, k)
	}
	s.Clear()

	if s.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", s.Len())
	}
	for k := 0; k < 8; k++ {
		if s.Contains(k) {
			t.Errorf("key %d live after Clear", k)
		}
	}

	// The set stays usable.
	s.Insert(2, 20)
	if v, ok := s.Get(2); !ok || *v != 20 {
		t.Errorf("Get(2) after Clear+Insert = %v, %v", v, ok)
	}
}

func TestKeysValuesParallel(t *testing.T) {
	s := New[int]()
	want := map[int]int{2: 20, 5: 50, 9: 90}
	for k, v := range want {
		s.Insert(k, v)
	}

	keys := s.Keys()
	vals := s.Values()
	if len(keys) != len(vals) || len(keys) != 3 {
		t.Fatalf("len(keys) = %d, len(vals) = %d", len(keys), len(vals))
	}
	for i, k := range keys {
		if vals[i] != want[k] {
			t.Errorf("slot %d: key %d has value %d, want %d", i, k, vals[i], want[k])
		}
	}
}

func TestAllMatchesKeysValues(t *testing.T) {
	s := New[int]()
	for k := 0; k < 5; k++ {
		s.Insert(k*2, k*100)
	}
	s.Remove(4)

	got := make(map[int]int)
	for k, v := range s.All() {
		got[k] = v
	}
	if len(got) != s.Len() {
		t.Fatalf("All yielded %d pairs, want %d", len(got), s.Len())
	}
	for i, k := range s.Keys() {
		if got[k] != s.Values()[i] {
			t.Errorf("All[%d] = %d, want %d", k, got[k], s.Values()[i])
		}
	}
}

// TestAgainstMap drives a random insert/remove sequence and checks the
// set against a plain map after every operation.
func TestAgainstMap(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	s := New[int]()
	ref := make(map[int]int)

	for op := 0; op < 2000; op++ {
		k := rng.Intn(64)
		if rng.Intn(3) == 0 {
			_, okSet := s.Remove(k)
			_, okRef := ref[k]
			if okSet != okRef {
				t.Fatalf("op %d: Remove(%d) = %v, want %v", op, k, okSet, okRef)
			}
			delete(ref, k)
		} else {
			v := rng.Int()
			if _, _, err := s.Insert(k, v); err != nil {
				t.Fatalf("op %d: Insert failed: %v", op, err)
			}
			ref[k] = v
		}

		if s.Len() != len(ref) {
			t.Fatalf("op %d: Len = %d, want %d", op, s.Len(), len(ref))
		}
	}

	for k, want := range ref {
		v, ok := s.Get(k)
		if !ok || *v != want {
			t.Errorf("Get(%d) = %v, %v; want %d", k, v, ok, want)
		}
	}
}
