package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/weft-sim/weft/internal/config"
	"github.com/weft-sim/weft/internal/metrics"
	"github.com/weft-sim/weft/internal/motion"
	"github.com/weft-sim/weft/internal/tui"
	"github.com/weft-sim/weft/internal/world"
)

var (
	configFile string
	preset     string
	workload   string
	bodies     int
	systems    int
	tickRate   float64
	ticks      uint64
	duration   float64
	delta      float64
	seed       int64
	logLevel   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "weft",
		Short: "conflict-scheduled simulation runtime",
		Long: "weft registers systems with declared read/write dependencies,\n" +
			"colors the conflict graph between them, and runs the resulting\n" +
			"conflict-free batches concurrently.",
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().StringVar(&workload, "workload", config.DefaultWorkload, "workload topology (uniform, contended, mixed)")
	rootCmd.PersistentFlags().IntVar(&bodies, "bodies", config.DefaultBodies, "number of bodies")
	rootCmd.PersistentFlags().IntVar(&systems, "systems", config.DefaultSystems, "number of systems")
	rootCmd.PersistentFlags().Float64Var(&tickRate, "rate", 0, "tick rate limit (0 = unpaced)")
	rootCmd.PersistentFlags().Uint64Var(&ticks, "ticks", config.DefaultTicks, "tick limit (0 = unlimited)")
	rootCmd.PersistentFlags().Float64Var(&duration, "time", 0, "wall-clock duration in seconds (0 = unlimited)")
	rootCmd.PersistentFlags().Float64Var(&delta, "dt", config.DefaultDelta, "simulated timestep")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "random seed (0 = time-based)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a workload to completion",
		RunE:  runWorkload,
	}

	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "resolve a workload's schedule and print the batches",
		RunE:  printSchedule,
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "run a workload and report tick and resolve timings",
		RunE:  benchWorkload,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a workload with the live schedule view",
		RunE:  runLive,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset configurations",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tWORKLOAD\tBODIES\tSYSTEMS\tTICKS")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n",
					name, p.Workload, p.Bodies, p.Systems, p.Ticks)
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(runCmd, scheduleCmd, benchCmd, liveCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildConfig layers preset, config file, and flags, in that order:
// explicitly set flags win over the file, the file wins over the
// preset, the preset wins over defaults.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		*cfg = *p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("workload") {
		cfg.Workload = workload
	}
	if cmd.Flags().Changed("bodies") {
		cfg.Bodies = bodies
	}
	if cmd.Flags().Changed("systems") {
		cfg.Systems = systems
	}
	if cmd.Flags().Changed("rate") {
		cfg.TickRate = tickRate
	}
	if cmd.Flags().Changed("ticks") {
		cfg.Ticks = ticks
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	if cmd.Flags().Changed("dt") {
		cfg.Delta = delta
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

// buildWorld constructs a world from the config and installs the
// configured workload on it.
func buildWorld(cfg *config.Config, col *metrics.Collector, quiet bool) (*world.World, *motion.Workload, error) {
	var logger *slog.Logger
	if !quiet {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.SlogLevel(),
		}))
	}

	opts := []world.Option{
		world.WithDelta(cfg.Delta),
		world.WithMaxTicks(cfg.Ticks),
		world.WithDuration(cfg.RunDuration()),
		world.WithCommandBuffer(cfg.Buffer),
		world.WithCollector(col),
	}
	if logger != nil {
		opts = append(opts, world.WithLogger(logger))
	}
	if cfg.TickRate > 0 {
		opts = append(opts, world.WithTickRate(rate.Limit(cfg.TickRate)))
	}

	w := world.New(opts...)
	wk, err := motion.Install(w, cfg)
	if err != nil {
		return nil, nil, err
	}
	return w, wk, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runWorkload(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	col := metrics.NewCollector()
	w, wk, err := buildWorld(cfg, col, false)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s workload: %d bodies, %d systems\n", cfg.Workload, cfg.Bodies, cfg.Systems)
	start := time.Now()
	if err := w.Run(ctx); err != nil {
		return err
	}
	elapsed := time.Since(start)

	st := col.Snapshot()
	fmt.Printf("completed %d ticks in %v\n", st.Ticks, elapsed.Round(time.Millisecond))
	fmt.Printf("schedule: %d batches, shape %v, mean width %.2f\n",
		len(st.Shape), st.Shape, st.MeanWidth())
	fmt.Printf("census: %d tagged, %d in range, %d strays\n",
		wk.Census.Load(), wk.InRange.Load(), wk.Strays.Load())
	return nil
}

func printSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	w, _, err := buildWorld(cfg, nil, true)
	if err != nil {
		return err
	}
	if err := w.Resolve(); err != nil {
		return err
	}

	fmt.Printf("workload: %s, %d systems over %d bodies\n\n", cfg.Workload, w.SystemCount(), cfg.Bodies)

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BATCH\tWIDTH\tSYSTEMS")
	names := w.BatchNames()
	for i, batch := range names {
		fmt.Fprintf(tw, "%d\t%d\t%s\n", i, len(batch), strings.Join(batch, "  "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(names) > 1 {
		widths := make([]float64, len(names))
		for i, batch := range names {
			widths[i] = float64(len(batch))
		}
		fmt.Println()
		fmt.Println(asciigraph.Plot(widths,
			asciigraph.Height(8),
			asciigraph.Width(60),
			asciigraph.Caption("batch width"),
		))
	}
	return nil
}

func benchWorkload(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Ticks == 0 {
		cfg.Ticks = config.DefaultTicks
	}
	cfg.TickRate = 0 // bench runs unpaced

	col := metrics.NewCollector()
	w, _, err := buildWorld(cfg, col, true)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	// Per-tick history for the plot; sampled via Step so the
	// collector's last-tick value is read between iterations.
	history := make([]float64, 0, cfg.Ticks)
	start := time.Now()
	for w.Ticks() < cfg.Ticks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.Step(ctx); err != nil {
			return err
		}
		st := col.Snapshot()
		history = append(history, float64(st.TickLast.Microseconds()))
	}
	elapsed := time.Since(start)

	st := col.Snapshot()
	fmt.Printf("benchmarked %s: %d bodies, %d systems\n\n", cfg.Workload, cfg.Bodies, w.SystemCount())

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TICKS\tTIME\tTICK AVG\tTICKS/SEC\tRESOLVES\tRESOLVE LAST\tSHAPE\tDEFERRED")
	fmt.Fprintf(tw, "%d\t%v\t%v\t%.0f\t%d\t%v\t%v\t%d\n",
		st.Ticks,
		elapsed.Round(time.Millisecond),
		st.TickAvg.Round(time.Microsecond),
		float64(st.Ticks)/elapsed.Seconds(),
		st.Resolves,
		st.ResolveLast.Round(time.Microsecond),
		st.Shape,
		st.Deferred,
	)
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(history) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(history,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("tick time (us)"),
		))
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Ticks = 0 // the view owns stepping; quit from the keyboard

	col := metrics.NewCollector()
	w, wk, err := buildWorld(cfg, col, true)
	if err != nil {
		return err
	}
	if err := w.Resolve(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	return tui.Run(ctx, w, wk, col)
}
