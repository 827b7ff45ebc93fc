package motion

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/weft-sim/weft/internal/config"
	"github.com/weft-sim/weft/internal/query"
	"github.com/weft-sim/weft/internal/registry"
	"github.com/weft-sim/weft/internal/store"
	"github.com/weft-sim/weft/internal/world"
)

// Handles carries the component handles the workload registers.
type Handles struct {
	Pos  registry.TypeHandle
	Vel  registry.TypeHandle
	Acc  registry.TypeHandle
	Heat registry.TypeHandle
	Tag  registry.TypeHandle
}

// Workload owns the installed component handles and the counters the
// read-only systems publish. Counters are atomics so the TUI can read
// them while the loop runs.
type Workload struct {
	Handles Handles

	Census  atomic.Int64
	InRange atomic.Int64
	Strays  atomic.Int64

	rng *rand.Rand
}

// baseRoster is the size of the mixed topology before watcher padding.
const baseRoster = 7

// Install registers the component sets, spawns the configured bodies,
// installs the position provider, and registers the systems of the
// configured topology. The system count pads with read-only systems
// where the topology allows; counts below the base roster install the
// full roster.
func Install(w *world.World, cfg *config.Config) (*Workload, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	wk := &Workload{rng: rand.New(rand.NewSource(seed))}

	st := w.Store()
	var err error
	if wk.Handles.Pos, err = store.RegisterSet[Pos](st); err != nil {
		return nil, err
	}
	if wk.Handles.Vel, err = store.RegisterSet[Vel](st); err != nil {
		return nil, err
	}
	if wk.Handles.Acc, err = store.RegisterSet[Acc](st); err != nil {
		return nil, err
	}
	if wk.Handles.Heat, err = store.RegisterSet[Heat](st); err != nil {
		return nil, err
	}
	if wk.Handles.Tag, err = store.RegisterSet[Tag](st); err != nil {
		return nil, err
	}

	if err := world.SpatialFrom[Pos](w, func(p Pos) [3]float64 {
		return [3]float64{p.X, p.Y, p.Z}
	}); err != nil {
		return nil, err
	}

	if err := wk.spawn(w, cfg.Bodies); err != nil {
		return nil, err
	}

	switch cfg.Workload {
	case "uniform":
		err = wk.installUniform(w, cfg.Systems)
	case "contended":
		err = wk.installContended(w, cfg.Systems)
	case "mixed":
		err = wk.installMixed(w, cfg.Systems)
	default:
		return nil, fmt.Errorf("motion: unknown workload %q", cfg.Workload)
	}
	if err != nil {
		return nil, err
	}
	return wk, nil
}

// spawn scatters bodies around the origin. Component coverage is
// deliberately uneven so driving-set selection has something to pick
// between: every body moves, most accelerate, half carry heat, a
// quarter are tagged.
func (wk *Workload) spawn(w *world.World, bodies int) error {
	for i := range bodies {
		e, err := w.Spawn()
		if err != nil {
			return err
		}
		if err := w.Put(e, wk.Handles.Pos, Pos{
			X: wk.rng.Float64()*100 - 50,
			Y: wk.rng.Float64()*100 - 50,
			Z: wk.rng.Float64()*100 - 50,
		}); err != nil {
			return err
		}
		if err := w.Put(e, wk.Handles.Vel, Vel{
			X: wk.rng.Float64()*2 - 1,
			Y: wk.rng.Float64()*2 - 1,
			Z: wk.rng.Float64()*2 - 1,
		}); err != nil {
			return err
		}
		if i%4 != 3 {
			if err := w.Put(e, wk.Handles.Acc, Acc{}); err != nil {
				return err
			}
		}
		if i%2 == 0 {
			if err := w.Put(e, wk.Handles.Heat, Heat{K: 280 + wk.rng.Float64()*60}); err != nil {
				return err
			}
		}
		if i%4 == 1 {
			if err := w.Put(e, wk.Handles.Tag, Tag{Group: uint8(i % 3)}); err != nil {
				return err
			}
		}
	}
	return nil
}

type namedSystem struct {
	name string
	make func() (world.SystemFunc, query.Query)
}

func (wk *Workload) register(w *world.World, roster []namedSystem) error {
	for _, ns := range roster {
		fn, q := ns.make()
		if _, err := w.Register(ns.name, fn, q); err != nil {
			return err
		}
	}
	return nil
}

// installUniform registers pairwise conflict-free systems: one wide
// batch regardless of count.
func (wk *Workload) installUniform(w *world.World, n int) error {
	roster := []namedSystem{
		{"push", wk.pushSystem},
		{"stir", wk.stirSystem},
		{"cool", wk.coolSystem},
		{"census", wk.censusSystem},
	}
	for i := len(roster); i < n; i++ {
		roster = append(roster, namedSystem{fmt.Sprintf("tally-%d", i-3), wk.tallySystem})
	}
	return wk.register(w, roster)
}

// installContended registers n writers of the same set: every batch a
// singleton.
func (wk *Workload) installContended(w *world.World, n int) error {
	if n < 2 {
		n = 2
	}
	var roster []namedSystem
	for i := range n {
		roster = append(roster, namedSystem{fmt.Sprintf("push-%d", i), wk.pushSystem})
	}
	return wk.register(w, roster)
}

// installMixed registers the full roster: integration chain, thermal
// pair with the lazy-promotion annealer, spatial radar, census, and
// watcher padding up to n.
func (wk *Workload) installMixed(w *world.World, n int) error {
	roster := []namedSystem{
		{"drift", wk.driftSystem},
		{"accel", wk.accelSystem},
		{"jitter", wk.jitterSystem},
		{"cool", wk.coolSystem},
		{"anneal", wk.annealSystem},
		{"radar", wk.radarSystem},
		{"census", wk.censusSystem},
	}
	for i := baseRoster; i < n; i++ {
		roster = append(roster, namedSystem{fmt.Sprintf("watch-%d", i-baseRoster), wk.watchSystem})
	}
	return wk.register(w, roster)
}
