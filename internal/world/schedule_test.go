package world_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/weft-sim/weft/internal/query"
	"github.com/weft-sim/weft/internal/registry"
	"github.com/weft-sim/weft/internal/store"
	"github.com/weft-sim/weft/internal/world"
)

type position struct{ X, Y, Z float64 }
type velocity struct{ X, Y, Z float64 }
type temperature struct{ K float64 }

var _ = Describe("Schedule", func() {
	var (
		w     *world.World
		hPos  registry.TypeHandle
		hVel  registry.TypeHandle
		hTemp registry.TypeHandle
		noop  world.SystemFunc
	)

	BeforeEach(func() {
		w = world.New()
		var err error
		hPos, err = store.RegisterSet[position](w.Store())
		Expect(err).NotTo(HaveOccurred())
		hVel, err = store.RegisterSet[velocity](w.Store())
		Expect(err).NotTo(HaveOccurred())
		hTemp, err = store.RegisterSet[temperature](w.Store())
		Expect(err).NotTo(HaveOccurred())
		noop = func(*world.Tick) error { return nil }
	})

	Context("with disjoint declarations", func() {
		BeforeEach(func() {
			_, err := w.Register("drift", noop,
				query.NewBuilder().Writes(hPos).Reads(hVel).Build())
			Expect(err).NotTo(HaveOccurred())
			_, err = w.Register("cool", noop,
				query.NewBuilder().Writes(hTemp).Build())
			Expect(err).NotTo(HaveOccurred())
		})

		It("packs every system into one batch", func() {
			Expect(w.Resolve()).To(Succeed())
			Expect(w.BatchShape()).To(Equal([]int{2}))
		})

		It("resolves to the same schedule twice", func() {
			Expect(w.Resolve()).To(Succeed())
			first := w.BatchNames()
			Expect(w.Resolve()).To(Succeed())
			Expect(w.BatchNames()).To(Equal(first))
		})
	})

	Context("with one contended set", func() {
		BeforeEach(func() {
			for _, name := range []string{"alpha", "beta", "gamma"} {
				_, err := w.Register(name, noop,
					query.NewBuilder().Writes(hPos).Build())
				Expect(err).NotTo(HaveOccurred())
			}
		})

		It("serializes every system", func() {
			Expect(w.Resolve()).To(Succeed())
			Expect(w.BatchShape()).To(Equal([]int{1, 1, 1}))
		})

		It("keeps the partition complete", func() {
			Expect(w.Resolve()).To(Succeed())
			var seen []string
			for _, batch := range w.BatchNames() {
				seen = append(seen, batch...)
			}
			Expect(seen).To(ConsistOf("alpha", "beta", "gamma"))
		})
	})

	Context("when readers and writers mix", func() {
		It("never schedules a writer with a reader of the same set", func() {
			_, err := w.Register("integrate", noop,
				query.NewBuilder().Writes(hPos).Reads(hVel).Build())
			Expect(err).NotTo(HaveOccurred())
			_, err = w.Register("render", noop,
				query.NewBuilder().Reads(hPos).Build())
			Expect(err).NotTo(HaveOccurred())
			_, err = w.Register("thermal", noop,
				query.NewBuilder().Writes(hTemp).Build())
			Expect(err).NotTo(HaveOccurred())

			Expect(w.Resolve()).To(Succeed())

			byBatch := map[string]int{}
			for i, batch := range w.BatchNames() {
				for _, name := range batch {
					byBatch[name] = i
				}
			}
			Expect(byBatch["integrate"]).NotTo(Equal(byBatch["render"]))
			// thermal touches nothing shared, it rides along with one
			// of the two.
			Expect(len(w.BatchNames())).To(Equal(2))
		})
	})

	Context("when a reader promotes to a writer", func() {
		It("defers the run once, then widens the declaration", func() {
			e, err := w.Spawn()
			Expect(err).NotTo(HaveOccurred())
			Expect(w.Put(e, hTemp, temperature{K: 10})).To(Succeed())

			var mutatedAt []uint64
			_, err = w.Register("lazy", func(t *world.Tick) error {
				for it := t.Iter(); it.Next(); {
					v, err := query.Mut[temperature](it, hTemp)
					if err != nil {
						return err
					}
					v.K++
				}
				mutatedAt = append(mutatedAt, t.N())
				return nil
			}, query.NewBuilder().Reads(hTemp).Build())
			Expect(err).NotTo(HaveOccurred())

			_, err = w.Register("audit", noop,
				query.NewBuilder().Reads(hTemp).Build())
			Expect(err).NotTo(HaveOccurred())

			ctx := context.Background()
			Expect(w.Step(ctx)).To(Succeed())
			Expect(mutatedAt).To(BeEmpty(), "promoting run must defer")
			Expect(w.Stale()).To(BeTrue(), "promotion must stale the schedule")

			set, err := store.View[temperature](w.Store(), hTemp)
			Expect(err).NotTo(HaveOccurred())
			v, ok := set.Get(int(e))
			Expect(ok).To(BeTrue())
			Expect(v.K).To(Equal(10.0), "deferred run must not mutate")

			Expect(w.Step(ctx)).To(Succeed())
			Expect(mutatedAt).To(Equal([]uint64{2}))
			Expect(w.BatchShape()).To(Equal([]int{1, 1}),
				"widened writer must no longer share a batch with the reader")

			v, ok = set.Get(int(e))
			Expect(ok).To(BeTrue())
			Expect(v.K).To(Equal(11.0))
		})
	})
})
