package motion

import (
	"context"
	"testing"

	"github.com/weft-sim/weft/internal/config"
	"github.com/weft-sim/weft/internal/store"
	"github.com/weft-sim/weft/internal/world"
)

func testConfig(workload string, bodies, systems int) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Workload = workload
	cfg.Bodies = bodies
	cfg.Systems = systems
	cfg.Seed = 7
	return cfg
}

func TestInstallUniformIsOneBatch(t *testing.T) {
	w := world.New()
	if _, err := Install(w, testConfig("uniform", 16, 6)); err != nil {
		t.Fatalf("install: %v", err)
	}
	if err := w.Resolve(); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	shape := w.BatchShape()
	if len(shape) != 1 || shape[0] != 6 {
		t.Errorf("uniform workload must be one wide batch, got %v", shape)
	}
}

func TestInstallContendedSerializes(t *testing.T) {
	w := world.New()
	if _, err := Install(w, testConfig("contended", 8, 5)); err != nil {
		t.Fatalf("install: %v", err)
	}
	if err := w.Resolve(); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	shape := w.BatchShape()
	if len(shape) != 5 {
		t.Fatalf("expected 5 singleton batches, got %v", shape)
	}
	for _, size := range shape {
		if size != 1 {
			t.Errorf("contended batches must be singletons, got %v", shape)
		}
	}
}

func TestInstallMixedHasWidth(t *testing.T) {
	w := world.New()
	if _, err := Install(w, testConfig("mixed", 32, 9)); err != nil {
		t.Fatalf("install: %v", err)
	}
	if err := w.Resolve(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if w.SystemCount() != 9 {
		t.Fatalf("expected 9 systems, got %d", w.SystemCount())
	}

	shape := w.BatchShape()
	total := 0
	wide := false
	for _, size := range shape {
		total += size
		if size > 1 {
			wide = true
		}
	}
	if total != 9 {
		t.Errorf("partition lost systems: %v", shape)
	}
	if len(shape) < 2 || !wide {
		t.Errorf("mixed workload should have both conflicts and width, got %v", shape)
	}
	if w.EntityCount() != 32 {
		t.Errorf("expected 32 bodies, got %d", w.EntityCount())
	}
}

func TestInstallUnknownWorkload(t *testing.T) {
	w := world.New()
	if _, err := Install(w, testConfig("spiral", 4, 4)); err == nil {
		t.Fatal("expected error for unknown workload")
	}
}

func TestUniformPushMovesBodies(t *testing.T) {
	w := world.New(world.WithDelta(1))
	cfg := testConfig("uniform", 8, 4)
	wk, err := Install(w, cfg)
	if err != nil {
		t.Fatalf("install: %v", err)
	}

	set, err := store.View[Pos](w.Store(), wk.Handles.Pos)
	if err != nil {
		t.Fatal(err)
	}
	before := map[int]float64{}
	for _, k := range append([]int(nil), set.Keys()...) {
		v, _ := set.Get(k)
		before[k] = v.X
	}

	ctx := context.Background()
	for range 2 {
		if err := w.Step(ctx); err != nil {
			t.Fatalf("step: %v", err)
		}
	}

	for k, x0 := range before {
		v, ok := set.Get(k)
		if !ok {
			t.Fatalf("body %d vanished", k)
		}
		want := x0 + 2*1.0
		if diff := v.X - want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("body %d at %v, want %v", k, v.X, want)
		}
	}
}

func TestAnnealPromotesThenClamps(t *testing.T) {
	w := world.New()
	cfg := testConfig("mixed", 0, 7)
	wk, err := Install(w, cfg)
	if err != nil {
		t.Fatalf("install: %v", err)
	}

	e, err := w.Spawn()
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Put(e, wk.Handles.Heat, Heat{K: 400}); err != nil {
		t.Fatal(err)
	}

	set, err := store.View[Heat](w.Store(), wk.Handles.Heat)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if err := w.Step(ctx); err != nil {
		t.Fatalf("step: %v", err)
	}
	// Cooling still applies on the deferred tick, the clamp does not.
	v, _ := set.Get(int(e))
	if v.K < 390 {
		t.Errorf("deferred anneal must not clamp on its first tick, heat %v", v.K)
	}
	if !w.Stale() {
		t.Error("promotion must mark the schedule stale")
	}

	if err := w.Step(ctx); err != nil {
		t.Fatalf("step: %v", err)
	}
	v, _ = set.Get(int(e))
	if v.K > annealPoint+1e-9 {
		t.Errorf("anneal should clamp to %v after widening, heat %v", annealPoint, v.K)
	}
}
