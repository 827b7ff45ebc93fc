package world

import (
	"context"
	"fmt"

	"github.com/weft-sim/weft/internal/query"
	"github.com/weft-sim/weft/internal/registry"
)

// Tick is the access surface a system runs against for one tick. It
// implements [query.Access] scoped to the owning system's declaration:
// membership probes are open, data views are checked at dispatch.
//
// Membership is stable for the whole tick because structural changes
// only apply between ticks, so Len, Keys, and Contains need no
// declaration.
type Tick struct {
	w   *World
	sys *System
	ctx context.Context
	now uint64
	dt  float64
}

// N returns the executing tick number. The first tick is 1.
func (t *Tick) N() uint64 {
	return t.now
}

// Delta returns the simulated seconds per tick.
func (t *Tick) Delta() float64 {
	return t.dt
}

// Context returns the batch context, canceled when a batch member
// fails.
func (t *Tick) Context() context.Context {
	return t.ctx
}

// Iter runs the system's own query against this tick.
func (t *Tick) Iter() *query.Iter {
	return t.sys.q.Iter(t)
}

// Enqueue forwards a structural command to the world's queue. Safe
// mid-tick; the command applies before the next tick executes.
func (t *Tick) Enqueue(c Command) error {
	return t.w.Enqueue(c)
}

func (t *Tick) Len(h registry.TypeHandle) int {
	return t.w.store.Len(h)
}

func (t *Tick) Keys(h registry.TypeHandle) []int {
	return t.w.store.Keys(h)
}

func (t *Tick) Contains(h registry.TypeHandle, key int) bool {
	return t.w.store.Contains(h, key)
}

// ChangedSince compares key's stamp under h against the system's last
// completed run.
func (t *Tick) ChangedSince(h registry.TypeHandle, key int) bool {
	return t.w.store.ChangedSince(h, key, t.sys.lastRun)
}

// ChangedAny reports whether anything under h changed since the
// system's last completed run.
func (t *Tick) ChangedAny(h registry.TypeHandle) bool {
	return t.w.store.ChangedAny(h, t.sys.lastRun)
}

// Position resolves key through the world's position provider. ok is
// false without a provider or when the key has no position.
func (t *Tick) Position(key int) ([3]float64, bool) {
	if t.w.spatial == nil {
		return [3]float64{}, false
	}
	return t.w.spatial(key)
}

// ViewAny hands out the type-erased set under h, declared handles
// only.
func (t *Tick) ViewAny(h registry.TypeHandle) (any, error) {
	hb := uint32(h)
	if !t.sys.reads.Contains(hb) && !t.sys.writes.Contains(hb) {
		return nil, fmt.Errorf("%w: %s not declared by system %s",
			query.ErrUndeclaredHandle, t.w.store.Name(h), t.sys.name)
	}
	return t.w.store.SetAny(h)
}

// RequestWrite grants mutation for declared writes. Against a handle
// declared read-only it records a write promotion: the schedule goes
// stale, the declaration widens at the next resolve, and this run gets
// ErrWritePromoted. Undeclared handles fail outright.
func (t *Tick) RequestWrite(h registry.TypeHandle) error {
	hb := uint32(h)
	if t.sys.writes.Contains(hb) {
		return nil
	}
	if t.sys.reads.Contains(hb) {
		if !t.sys.pending.Contains(hb) {
			t.sys.pending.Add(hb)
			t.w.stale.Store(true)
			t.w.log.Info("write promotion recorded",
				"system", t.sys.name, "set", t.w.store.Name(h), "tick", t.now)
		}
		return fmt.Errorf("%w: %s in system %s",
			query.ErrWritePromoted, t.w.store.Name(h), t.sys.name)
	}
	return fmt.Errorf("%w: %s not declared by system %s",
		query.ErrUndeclaredHandle, t.w.store.Name(h), t.sys.name)
}

// Stamp records a mutation of key under h at the executing tick.
func (t *Tick) Stamp(h registry.TypeHandle, key int) {
	t.w.store.Stamp(h, key, t.now)
}
