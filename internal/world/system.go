package world

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/weft-sim/weft/internal/query"
)

// SystemID identifies a registered system within one world.
type SystemID int

// SystemFunc is the body of a system, invoked once per tick with an
// access surface scoped to the system's declaration.
type SystemFunc func(*Tick) error

// System pairs a tick function with its dependency declaration. The
// read and write bitmaps drive conflict edges; pending collects write
// promotions until the next resolve folds them into writes.
type System struct {
	id      SystemID
	name    string
	fn      SystemFunc
	q       query.Query
	reads   *roaring.Bitmap
	writes  *roaring.Bitmap
	pending *roaring.Bitmap

	// lastRun is the last tick the system completed without
	// deferring. Change filters compare stamps against it.
	lastRun uint64
}

func (s *System) ID() SystemID {
	return s.id
}

func (s *System) Name() string {
	return s.name
}

// Query returns the declaration the system registered with. Pending
// promotions are not reflected until the next resolve.
func (s *System) Query() query.Query {
	return s.q
}

// conflicts reports whether two systems cannot share a batch: either
// one's writes overlapping the other's reads or writes.
func conflicts(a, b *System) bool {
	return a.writes.Intersects(b.writes) ||
		a.writes.Intersects(b.reads) ||
		a.reads.Intersects(b.writes)
}
