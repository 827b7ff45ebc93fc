package motion

import (
	"github.com/weft-sim/weft/internal/query"
	"github.com/weft-sim/weft/internal/world"
)

const (
	ambientK    = 270.0
	coolRate    = 0.05
	annealPoint = 330.0
	jitterAmp   = 0.5
	radarRange  = 25.0
	strayLimit  = 100.0
)

// driftSystem integrates positions from velocities.
func (wk *Workload) driftSystem() (world.SystemFunc, query.Query) {
	h := wk.Handles
	q := query.NewBuilder().Writes(h.Pos).Reads(h.Vel).Build()
	fn := func(t *world.Tick) error {
		for it := t.Iter(); it.Next(); {
			v, err := query.Get[Vel](it, h.Vel)
			if err != nil {
				return err
			}
			p, err := query.Mut[Pos](it, h.Pos)
			if err != nil {
				return err
			}
			p.X += v.X * t.Delta()
			p.Y += v.Y * t.Delta()
			p.Z += v.Z * t.Delta()
		}
		return nil
	}
	return fn, q
}

// accelSystem integrates velocities from accelerations.
func (wk *Workload) accelSystem() (world.SystemFunc, query.Query) {
	h := wk.Handles
	q := query.NewBuilder().Writes(h.Vel).Reads(h.Acc).Build()
	fn := func(t *world.Tick) error {
		for it := t.Iter(); it.Next(); {
			a, err := query.Get[Acc](it, h.Acc)
			if err != nil {
				return err
			}
			v, err := query.Mut[Vel](it, h.Vel)
			if err != nil {
				return err
			}
			v.X += a.X * t.Delta()
			v.Y += a.Y * t.Delta()
			v.Z += a.Z * t.Delta()
		}
		return nil
	}
	return fn, q
}

// jitterSystem random-walks accelerations. It is the only consumer of
// the workload's rng once the install finishes.
func (wk *Workload) jitterSystem() (world.SystemFunc, query.Query) {
	h := wk.Handles
	q := query.NewBuilder().Writes(h.Acc).Build()
	fn := func(t *world.Tick) error {
		for it := t.Iter(); it.Next(); {
			a, err := query.Mut[Acc](it, h.Acc)
			if err != nil {
				return err
			}
			a.X = a.X*0.9 + (wk.rng.Float64()*2-1)*jitterAmp
			a.Y = a.Y*0.9 + (wk.rng.Float64()*2-1)*jitterAmp
			a.Z = a.Z*0.9 + (wk.rng.Float64()*2-1)*jitterAmp
		}
		return nil
	}
	return fn, q
}

// coolSystem relaxes heat toward ambient.
func (wk *Workload) coolSystem() (world.SystemFunc, query.Query) {
	h := wk.Handles
	q := query.NewBuilder().Writes(h.Heat).Build()
	fn := func(t *world.Tick) error {
		for it := t.Iter(); it.Next(); {
			v, err := query.Mut[Heat](it, h.Heat)
			if err != nil {
				return err
			}
			v.K -= (v.K - ambientK) * coolRate * t.Delta()
		}
		return nil
	}
	return fn, q
}

// annealSystem declares only a read of heat and clamps overheated
// bodies lazily. The first overheated body promotes the read to a
// write: that run defers, the schedule rebuilds, and the clamp lands
// on the next tick.
func (wk *Workload) annealSystem() (world.SystemFunc, query.Query) {
	h := wk.Handles
	q := query.NewBuilder().Reads(h.Heat).Build()
	fn := func(t *world.Tick) error {
		for it := t.Iter(); it.Next(); {
			v, err := query.Get[Heat](it, h.Heat)
			if err != nil {
				return err
			}
			if v.K <= annealPoint {
				continue
			}
			m, err := query.Mut[Heat](it, h.Heat)
			if err != nil {
				return err
			}
			m.K = annealPoint
		}
		return nil
	}
	return fn, q
}

// radarSystem counts bodies within range of the origin.
func (wk *Workload) radarSystem() (world.SystemFunc, query.Query) {
	h := wk.Handles
	q := query.NewBuilder().Reads(h.Pos).CloserThan(radarRange, [3]float64{}).Build()
	fn := func(t *world.Tick) error {
		n := int64(0)
		for it := t.Iter(); it.Next(); {
			n++
		}
		wk.InRange.Store(n)
		return nil
	}
	return fn, q
}

// censusSystem counts tagged bodies that carry no heat entry.
func (wk *Workload) censusSystem() (world.SystemFunc, query.Query) {
	h := wk.Handles
	q := query.NewBuilder().Reads(h.Tag).Without(h.Heat).Build()
	fn := func(t *world.Tick) error {
		n := int64(0)
		for it := t.Iter(); it.Next(); {
			n++
		}
		wk.Census.Store(n)
		return nil
	}
	return fn, q
}

// watchSystem counts strays, bodies drifted past the arena edge.
// Read-only on positions, so replicas share a batch.
func (wk *Workload) watchSystem() (world.SystemFunc, query.Query) {
	h := wk.Handles
	q := query.NewBuilder().Reads(h.Pos).Build()
	fn := func(t *world.Tick) error {
		n := int64(0)
		for it := t.Iter(); it.Next(); {
			p, err := query.Get[Pos](it, h.Pos)
			if err != nil {
				return err
			}
			if p.X > strayLimit || p.X < -strayLimit ||
				p.Y > strayLimit || p.Y < -strayLimit ||
				p.Z > strayLimit || p.Z < -strayLimit {
				n++
			}
		}
		wk.Strays.Store(n)
		return nil
	}
	return fn, q
}

// pushSystem advances positions at unit speed, no reads. The
// contended topology registers many of these against one set.
func (wk *Workload) pushSystem() (world.SystemFunc, query.Query) {
	h := wk.Handles
	q := query.NewBuilder().Writes(h.Pos).Build()
	fn := func(t *world.Tick) error {
		for it := t.Iter(); it.Next(); {
			p, err := query.Mut[Pos](it, h.Pos)
			if err != nil {
				return err
			}
			p.X += t.Delta()
		}
		return nil
	}
	return fn, q
}

// stirSystem nudges velocities without reading anything else.
func (wk *Workload) stirSystem() (world.SystemFunc, query.Query) {
	h := wk.Handles
	q := query.NewBuilder().Writes(h.Vel).Build()
	fn := func(t *world.Tick) error {
		for it := t.Iter(); it.Next(); {
			v, err := query.Mut[Vel](it, h.Vel)
			if err != nil {
				return err
			}
			v.Y += 0.1 * t.Delta()
		}
		return nil
	}
	return fn, q
}

// tallySystem is a conflict-free rider for padding the uniform
// topology to the configured width.
func (wk *Workload) tallySystem() (world.SystemFunc, query.Query) {
	h := wk.Handles
	q := query.NewBuilder().Reads(h.Tag).Build()
	fn := func(t *world.Tick) error {
		for it := t.Iter(); it.Next(); {
		}
		return nil
	}
	return fn, q
}
