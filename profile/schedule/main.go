// Profiling:
// go build ./profile/schedule
// go tool pprof -http=":8000" -nodefraction=0.001 ./schedule cpu.pprof

package main

import (
	"context"
	"log"

	"github.com/pkg/profile"

	"github.com/weft-sim/weft/internal/config"
	"github.com/weft-sim/weft/internal/motion"
	"github.com/weft-sim/weft/internal/world"
)

func main() {
	p := profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	run(32, 4096, 2000)
	p.Stop()
}

func run(numSystems, numBodies int, ticks uint64) {
	cfg := &config.Config{
		Workload: "mixed",
		Bodies:   numBodies,
		Systems:  numSystems,
		Delta:    0.01,
		Seed:     42,
		Buffer:   config.DefaultBuffer,
	}

	w := world.New(
		world.WithDelta(cfg.Delta),
		world.WithMaxTicks(ticks),
	)
	if _, err := motion.Install(w, cfg); err != nil {
		log.Fatal(err)
	}
	if err := w.Resolve(); err != nil {
		log.Fatal(err)
	}
	if err := w.Run(context.Background()); err != nil {
		log.Fatal(err)
	}
}
