// Package metrics collects run statistics for the scheduler: tick and
// resolve durations, batch shapes, and throughput. The bench command
// and the live view read snapshots; the run loop writes observations.
package metrics

import (
	"sync"
	"time"
)

// Collector accumulates observations from a running world. Safe for
// concurrent use.
type Collector struct {
	mu sync.Mutex

	started       time.Time
	ticks         uint64
	tickTotal     time.Duration
	tickLast      time.Duration
	resolves      uint64
	resolveLast   time.Duration
	shape         []int
	batchDurLast  []time.Duration
	deferredUnits uint64
}

func NewCollector() *Collector {
	return &Collector{started: time.Now()}
}

// ObserveTick records one completed loop iteration.
func (c *Collector) ObserveTick(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks++
	c.tickTotal += d
	c.tickLast = d
}

// ObserveResolve records a schedule rebuild and its batch shape.
func (c *Collector) ObserveResolve(d time.Duration, shape []int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolves++
	c.resolveLast = d
	c.shape = append(c.shape[:0], shape...)
	if len(c.batchDurLast) != len(shape) {
		c.batchDurLast = make([]time.Duration, len(shape))
	}
}

// ObserveBatch records the execution of batch i.
func (c *Collector) ObserveBatch(i, size int, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i >= 0 && i < len(c.batchDurLast) {
		c.batchDurLast[i] = d
	}
}

// ObserveDeferred records a system deferring on a write promotion.
func (c *Collector) ObserveDeferred() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deferredUnits++
}

// Stats is a point-in-time snapshot.
type Stats struct {
	Ticks        uint64
	TickAvg      time.Duration
	TickLast     time.Duration
	TicksPerSec  float64
	Resolves     uint64
	ResolveLast  time.Duration
	Shape        []int
	BatchDurLast []time.Duration
	Deferred     uint64
}

// Systems returns the total system count in the last resolved shape.
func (s Stats) Systems() int {
	n := 0
	for _, b := range s.Shape {
		n += b
	}
	return n
}

// MeanWidth is the average batch size, the parallelism the coloring
// extracted. 0 when nothing is resolved.
func (s Stats) MeanWidth() float64 {
	if len(s.Shape) == 0 {
		return 0
	}
	return float64(s.Systems()) / float64(len(s.Shape))
}

// Snapshot copies the current counters.
func (c *Collector) Snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := Stats{
		Ticks:        c.ticks,
		TickLast:     c.tickLast,
		Resolves:     c.resolves,
		ResolveLast:  c.resolveLast,
		Shape:        append([]int(nil), c.shape...),
		BatchDurLast: append([]time.Duration(nil), c.batchDurLast...),
		Deferred:     c.deferredUnits,
	}
	if c.ticks > 0 {
		st.TickAvg = c.tickTotal / time.Duration(c.ticks)
	}
	if elapsed := time.Since(c.started).Seconds(); elapsed > 0 {
		st.TicksPerSec = float64(c.ticks) / elapsed
	}
	return st
}
