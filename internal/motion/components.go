// Package motion is the built-in workload: a small set of kinematic
// components and systems whose declarations produce interesting
// schedules. Three topologies are installable: uniform (no conflicts,
// one wide batch), contended (every system writes the same set, all
// batches singletons), and mixed (a conflict graph with real width).
package motion

// Pos is a body's position.
type Pos struct {
	X, Y, Z float64
}

// Vel is a body's velocity per simulated second.
type Vel struct {
	X, Y, Z float64
}

// Acc is a body's acceleration per simulated second.
type Acc struct {
	X, Y, Z float64
}

// Heat is a body's thermal state in kelvin.
type Heat struct {
	K float64
}

// Tag groups bodies for census passes.
type Tag struct {
	Group uint8
}
