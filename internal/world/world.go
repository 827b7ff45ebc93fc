package world

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/weft-sim/weft/internal/graph"
	"github.com/weft-sim/weft/internal/metrics"
	"github.com/weft-sim/weft/internal/query"
	"github.com/weft-sim/weft/internal/registry"
	"github.com/weft-sim/weft/internal/sparse"
	"github.com/weft-sim/weft/internal/store"
)

const defaultCommandBuffer = 64

// World owns the storage, systems, and schedule of one simulation.
type World struct {
	id  uuid.UUID
	log *slog.Logger

	reg      *registry.Registry
	store    *store.Store
	systems  *sparse.Set[*System]
	entities *sparse.Set[struct{}]

	batches [][]*System
	stale   atomic.Bool

	commands  chan Command
	limiter   *rate.Limiter
	collector *metrics.Collector

	spatial       func(key int) ([3]float64, bool)
	spatialHandle registry.TypeHandle

	delta    float64
	maxTicks uint64
	duration time.Duration

	tick    uint64
	stopped bool
}

// Option configures a World at construction.
type Option func(*World)

// WithLogger routes run-loop logging. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(w *World) { w.log = l }
}

// WithRegistry injects a shared type registry.
func WithRegistry(r *registry.Registry) Option {
	return func(w *World) { w.reg = r }
}

// WithTickRate paces Run at limit ticks per second. Zero leaves the
// loop unpaced.
func WithTickRate(limit rate.Limit) Option {
	return func(w *World) {
		if limit > 0 {
			w.limiter = rate.NewLimiter(limit, 1)
		}
	}
}

// WithDelta sets the simulated seconds handed to systems each tick.
func WithDelta(dt float64) Option {
	return func(w *World) { w.delta = dt }
}

// WithCommandBuffer sizes the command queue.
func WithCommandBuffer(n int) Option {
	return func(w *World) {
		if n > 0 {
			w.commands = make(chan Command, n)
		}
	}
}

// WithCollector attaches run statistics.
func WithCollector(c *metrics.Collector) Option {
	return func(w *World) { w.collector = c }
}

// WithMaxTicks stops Run after n completed ticks. Zero means no
// limit.
func WithMaxTicks(n uint64) Option {
	return func(w *World) { w.maxTicks = n }
}

// WithDuration stops Run after wall-clock d. Zero means no limit.
func WithDuration(d time.Duration) Option {
	return func(w *World) { w.duration = d }
}

func New(opts ...Option) *World {
	w := &World{
		id:            uuid.New(),
		delta:         1,
		spatialHandle: registry.None,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.log == nil {
		w.log = slog.New(slog.DiscardHandler)
	}
	if w.reg == nil {
		w.reg = registry.New()
	}
	if w.commands == nil {
		w.commands = make(chan Command, defaultCommandBuffer)
	}
	w.log = w.log.With("world", w.id.String()[:8])
	w.store = store.New(w.reg)
	w.systems = sparse.New[*System]()
	w.entities = sparse.New[struct{}]()
	return w
}

// ID returns the instance identifier carried in log fields.
func (w *World) ID() uuid.UUID {
	return w.id
}

// Registry returns the type registry.
func (w *World) Registry() *registry.Registry {
	return w.reg
}

// Store returns the component storage.
func (w *World) Store() *store.Store {
	return w.store
}

// Ticks returns the number of completed ticks.
func (w *World) Ticks() uint64 {
	return w.tick
}

// Stale reports whether the schedule must be rebuilt before the next
// tick.
func (w *World) Stale() bool {
	return w.stale.Load()
}

func (w *World) SystemCount() int {
	return w.systems.Len()
}

func (w *World) EntityCount() int {
	return w.entities.Len()
}

// BatchNames returns the resolved schedule as system names per batch.
func (w *World) BatchNames() [][]string {
	out := make([][]string, len(w.batches))
	for i, batch := range w.batches {
		names := make([]string, len(batch))
		for j, sys := range batch {
			names[j] = sys.name
		}
		out[i] = names
	}
	return out
}

// BatchShape returns the size of each resolved batch.
func (w *World) BatchShape() []int {
	out := make([]int, len(w.batches))
	for i, batch := range w.batches {
		out[i] = len(batch)
	}
	return out
}

// Register adds a system under name with its declaration and marks
// the schedule stale. Fails only when the system store cannot grow.
func (w *World) Register(name string, fn SystemFunc, q query.Query) (SystemID, error) {
	sys := &System{
		name:    name,
		fn:      fn,
		q:       q,
		reads:   q.ReadSet().Clone(),
		writes:  q.WriteSet().Clone(),
		pending: roaring.New(),
	}
	key, err := w.systems.InsertAuto(sys)
	if err != nil {
		return 0, fmt.Errorf("world: register %s: %w", name, err)
	}
	sys.id = SystemID(key)
	w.stale.Store(true)
	if q.HasSpatial() && w.spatial == nil {
		w.log.Warn("spatial filter declared without position provider", "system", name)
	}
	w.log.Debug("system registered", "system", name,
		"reads", sys.reads.GetCardinality(), "writes", sys.writes.GetCardinality())
	return sys.id, nil
}

// Spawn allocates an entity key.
func (w *World) Spawn() (Entity, error) {
	key, err := w.entities.InsertAuto(struct{}{})
	if err != nil {
		return 0, fmt.Errorf("world: spawn: %w", err)
	}
	return Entity(key), nil
}

// Despawn drops e from every data set and frees its key.
func (w *World) Despawn(e Entity) {
	w.store.DropKey(int(e))
	w.entities.Remove(int(e))
}

// Put stores a value for e under h, stamped for the upcoming tick.
func (w *World) Put(e Entity, h registry.TypeHandle, v any) error {
	return w.store.InsertAny(h, int(e), v, w.tick+1)
}

// Delete removes e's entry under h.
func (w *World) Delete(e Entity, h registry.TypeHandle) {
	w.store.RemoveKey(h, int(e))
}

// SpatialFrom installs the position provider backed by T's data set.
// Distance filters resolve keys through it, and systems declaring
// spatial filters pick up a read of T's handle at the next resolve.
func SpatialFrom[T any](w *World, at func(T) [3]float64) error {
	h, err := store.RegisterSet[T](w.store)
	if err != nil {
		return err
	}
	set, err := store.View[T](w.store, h)
	if err != nil {
		return err
	}
	w.spatialHandle = h
	w.spatial = func(key int) ([3]float64, bool) {
		v, ok := set.Get(key)
		if !ok {
			return [3]float64{}, false
		}
		return at(*v), true
	}
	w.stale.Store(true)
	return nil
}

// Enqueue queues a structural command for the next drain. Safe from
// any goroutine.
func (w *World) Enqueue(c Command) error {
	select {
	case w.commands <- c:
		return nil
	default:
		return fmt.Errorf("%w: capacity %d", ErrQueueFull, cap(w.commands))
	}
}

func (w *World) drain(now uint64) {
	for {
		select {
		case c := <-w.commands:
			w.apply(c, now)
		default:
			return
		}
	}
}

func (w *World) apply(c Command, now uint64) {
	switch c.Op {
	case OpSpawn:
		e, err := w.Spawn()
		if c.Reply != nil {
			if err != nil {
				close(c.Reply)
			} else {
				select {
				case c.Reply <- e:
				default:
					w.log.Warn("spawn reply dropped", "entity", int(e))
				}
			}
		}
		if err != nil {
			w.log.Error("spawn failed", "error", err)
		}
	case OpDespawn:
		w.Despawn(c.Entity)
	case OpPut:
		if err := w.store.InsertAny(c.Handle, int(c.Entity), c.Value, now); err != nil {
			w.log.Error("put failed", "entity", int(c.Entity),
				"set", w.store.Name(c.Handle), "error", err)
		}
	case OpDelete:
		w.store.RemoveKey(c.Handle, int(c.Entity))
	case OpReschedule:
		w.stale.Store(true)
	case OpStop:
		w.stopped = true
	}
}

// Resolve folds pending promotions into the declarations, rebuilds
// the conflict graph, and partitions systems into batches. A coloring
// that fails verification is fatal.
func (w *World) Resolve() error {
	all := w.systems.Values()
	for _, sys := range all {
		if !sys.pending.IsEmpty() {
			sys.writes.Or(sys.pending)
			sys.pending.Clear()
			w.log.Info("declaration widened",
				"system", sys.name, "writes", sys.writes.GetCardinality())
		}
		if w.spatialHandle != registry.None && sys.q.HasSpatial() {
			sys.reads.Add(uint32(w.spatialHandle))
		}
	}

	start := time.Now()
	g := graph.New(conflicts)
	for _, sys := range all {
		if _, err := g.Insert(sys); err != nil {
			return fmt.Errorf("world: resolve: %w", err)
		}
	}
	groups, err := g.Cliques()
	if err != nil {
		return fmt.Errorf("world: resolve: %w", err)
	}
	if err := g.Verify(); err != nil {
		return fmt.Errorf("world: resolve: %w", err)
	}
	w.batches = groups
	w.stale.Store(false)

	shape := w.BatchShape()
	if w.collector != nil {
		w.collector.ObserveResolve(time.Since(start), shape)
	}
	w.log.Info("schedule resolved",
		"systems", len(all), "batches", len(shape), "shape", shape)
	return nil
}

// Step runs exactly one loop iteration: drain the queue, resolve when
// stale, execute every batch, advance the tick. A Stop command makes
// it return before executing.
func (w *World) Step(ctx context.Context) error {
	now := w.tick + 1
	w.drain(now)
	if w.stopped {
		return nil
	}
	if w.stale.Load() {
		if err := w.Resolve(); err != nil {
			return err
		}
	}
	start := time.Now()
	if err := w.execute(ctx, now); err != nil {
		return err
	}
	w.tick = now
	if w.collector != nil {
		w.collector.ObserveTick(time.Since(start))
	}
	return nil
}

func (w *World) execute(ctx context.Context, now uint64) error {
	for i, batch := range w.batches {
		bstart := time.Now()
		g, gctx := errgroup.WithContext(ctx)
		for _, sys := range batch {
			g.Go(func() error {
				t := &Tick{w: w, sys: sys, ctx: gctx, now: now, dt: w.delta}
				if err := sys.fn(t); err != nil {
					if errors.Is(err, query.ErrWritePromoted) {
						if w.collector != nil {
							w.collector.ObserveDeferred()
						}
						w.log.Debug("system deferred", "system", sys.name, "tick", now)
						return nil
					}
					return &SystemError{System: sys.name, Tick: now, Err: err}
				}
				sys.lastRun = now
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		if w.collector != nil {
			w.collector.ObserveBatch(i, len(batch), time.Since(bstart))
		}
	}
	return nil
}

// Run loops Step until the context cancels, a Stop command lands, the
// tick limit or duration elapses, or a system fails.
func (w *World) Run(ctx context.Context) error {
	w.stopped = false
	var deadline time.Time
	if w.duration > 0 {
		deadline = time.Now().Add(w.duration)
	}
	w.log.Info("run started",
		"systems", w.systems.Len(), "entities", w.entities.Len())
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.Step(ctx); err != nil {
			return err
		}
		if w.stopped {
			w.log.Info("run stopped", "ticks", w.tick)
			return nil
		}
		if w.maxTicks > 0 && w.tick >= w.maxTicks {
			w.log.Info("tick limit reached", "ticks", w.tick)
			return nil
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			w.log.Info("duration elapsed", "ticks", w.tick)
			return nil
		}
		if w.limiter != nil {
			if err := w.limiter.Wait(ctx); err != nil {
				return err
			}
		}
	}
}
