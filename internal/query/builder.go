package query

import (
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/weft-sim/weft/internal/registry"
)

// Builder accumulates filters in any call order. Build sorts them by
// precedence, prunes the evaluation chain, and captures the read and
// write declarations for the scheduler.
type Builder struct {
	filters []Filter
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Reads declares data sets the system reads.
func (b *Builder) Reads(hs ...registry.TypeHandle) *Builder {
	b.filters = append(b.filters, Filter{Kind: KindAccess, Handles: hs})
	return b
}

// Writes declares data sets the system mutates. A write implies read
// access.
func (b *Builder) Writes(hs ...registry.TypeHandle) *Builder {
	b.filters = append(b.filters, Filter{Kind: KindWrite, Handles: hs})
	return b
}

// Without excludes keys that have an entry under h.
func (b *Builder) Without(h registry.TypeHandle) *Builder {
	b.filters = append(b.filters, Filter{Kind: KindWithout, Handles: []registry.TypeHandle{h}})
	return b
}

// Changed passes only keys whose entry under h changed since the
// system last ran. Counts as a read of h for scheduling.
func (b *Builder) Changed(h registry.TypeHandle) *Builder {
	b.filters = append(b.filters, Filter{Kind: KindChanged, Handles: []registry.TypeHandle{h}})
	return b
}

// AnyChanged passes all keys if any entry under h changed since the
// system last ran, and none otherwise. Counts as a read of h for
// scheduling.
func (b *Builder) AnyChanged(h registry.TypeHandle) *Builder {
	b.filters = append(b.filters, Filter{Kind: KindAnyChanged, Handles: []registry.TypeHandle{h}})
	return b
}

// CloserThan passes keys within dist of origin.
func (b *Builder) CloserThan(dist float64, origin [3]float64) *Builder {
	b.filters = append(b.filters, Filter{Kind: KindCloserThan, Dist: dist, Origin: origin})
	return b
}

// FurtherThan passes keys beyond dist of origin.
func (b *Builder) FurtherThan(dist float64, origin [3]float64) *Builder {
	b.filters = append(b.filters, Filter{Kind: KindFurtherThan, Dist: dist, Origin: origin})
	return b
}

// Build finalizes the declaration into an executable query. The
// declared handle sets are collected from every access/write entry
// before the chain is pruned, so a pruned entry still contributes to
// the conflict profile and the iteration targets.
func (b *Builder) Build() Query {
	reads := roaring.New()
	writes := roaring.New()
	var targets []registry.TypeHandle
	for _, f := range b.filters {
		switch f.Kind {
		case KindAccess:
			for _, h := range f.Handles {
				reads.Add(uint32(h))
				if !slices.Contains(targets, h) {
					targets = append(targets, h)
				}
			}
		case KindWrite:
			for _, h := range f.Handles {
				writes.Add(uint32(h))
				if !slices.Contains(targets, h) {
					targets = append(targets, h)
				}
			}
		case KindChanged, KindAnyChanged:
			// Stamp probes read h concurrently with whoever writes
			// it, so change filters contribute read edges. They do
			// not become iteration targets.
			for _, h := range f.Handles {
				reads.Add(uint32(h))
			}
		}
	}

	chain := slices.Clone(b.filters)
	sortFilters(chain)
	chain = pruneFilters(chain)

	return Query{
		chain:   chain,
		reads:   reads,
		writes:  writes,
		targets: targets,
	}
}

// Query is a finalized declaration: the scheduler reads its conflict
// profile, the owning system iterates it each run.
type Query struct {
	chain   []Filter
	reads   *roaring.Bitmap
	writes  *roaring.Bitmap
	targets []registry.TypeHandle
}

// ReadSet returns the declared read handles. The bitmap is shared;
// callers that mutate must clone.
func (q Query) ReadSet() *roaring.Bitmap { return q.reads }

// WriteSet returns the declared write handles. Shared, as ReadSet.
func (q Query) WriteSet() *roaring.Bitmap { return q.writes }

// Filters returns the sorted, pruned evaluation chain.
func (q Query) Filters() []Filter { return q.chain }

// HasSpatial reports whether the chain carries a distance filter. The
// world checks this at registration to warn when no position provider
// is installed.
func (q Query) HasSpatial() bool {
	for _, f := range q.chain {
		if f.Kind == KindCloserThan || f.Kind == KindFurtherThan {
			return true
		}
	}
	return false
}
