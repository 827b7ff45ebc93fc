// Package sparse implements a dense/sparse indexed set, the storage
// primitive backing every typed data set in the runtime.
//
// A [Set] maps small non-negative integer keys to values through three
// parallel arrays:
//
//   - sparse: key -> slot in the dense array, or a stale marker
//   - dense:  slot -> key
//   - data:   slot -> value
//
// Membership is a single bounds comparison plus a round-trip check
// (dense[sparse[k]] == k), so lookups, inserts and removals are O(1)
// amortized. Removal compacts by swapping with the last slot, so the
// dense payload never contains holes and [Set.Values] can be ranged
// over directly.
//
// # Iteration
//
// Values and Keys expose the internal dense layout. The order is
// unspecified and changes on removal; callers must not assume it is
// stable across mutations.
//
// # Thread Safety
//
// A Set is NOT safe for concurrent use. The scheduler guarantees
// exclusive access per batch instead.
package sparse
