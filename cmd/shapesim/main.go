package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/shapesim/internal/config"
	"github.com/san-kum/shapesim/internal/logging"
	"github.com/san-kum/shapesim/internal/sim"
	"github.com/san-kum/shapesim/internal/storage"
	"github.com/san-kum/shapesim/internal/stream"
	"github.com/san-kum/shapesim/internal/tui"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	seed       int64
	dt         float64
	duration   float64
	count      int
	// run
	live      bool
	frameRate int
	noRecord  bool
	// plot
	entity uint32
	field  string
	// export
	outPath string
	// serve
	addr string
	// ensemble
	numRuns int
	// svg
	svgWidth int
	// sweep and tune
	param     string
	paramMin  float64
	paramMax  float64
	numSteps  int
	metric    string
	gridSpecs []string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "shapesim",
		Short:         "2d shape arena simulation",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runInteractive,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".shapesim", "data directory")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "preset applied over the config")
	pf.StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug|info|warn|error)")
	pf.Int64Var(&seed, "seed", 0, "random seed")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and store it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addStepFlags(runCmd)
	runCmd.Flags().BoolVar(&live, "live", false, "draw the arena while running")
	runCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate for --live")
	runCmd.Flags().BoolVar(&noRecord, "no-record", false, "store metadata only")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "print run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot one entity of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().Uint32Var(&entity, "entity", 1, "entity id")
	plotCmd.Flags().StringVar(&field, "field", "", "x, y, vx, vy or speed (default all)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(args[0], outPath)
		},
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "-", "output file")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the effective config to a yaml file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "interactive arena view",
		Args:  cobra.NoArgs,
		RunE:  runInteractive,
	}
	addStepFlags(liveCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "stream frames to websocket clients in real time",
		Args:  cobra.NoArgs,
		RunE:  serve,
	}
	addStepFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "run many seeds in parallel and summarise",
		Args:  cobra.NoArgs,
		RunE:  runEnsemble,
	}
	addStepFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&numRuns, "runs", 8, "number of seeds")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "measure step throughput by entity count",
		Args:  cobra.NoArgs,
		RunE:  bench,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw run trajectories as svg",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outPath, "out", "o", "-", "output file")
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 1080, "image width in pixels")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run and store every step of a yaml scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	addStepFlags(scenarioCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep one parameter and tabulate metrics",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addStepFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&param, "param", "friction", "parameter name")
	sweepCmd.Flags().Float64Var(&paramMin, "min", 0.1, "first value")
	sweepCmd.Flags().Float64Var(&paramMax, "max", 1, "last value")
	sweepCmd.Flags().IntVar(&numSteps, "steps", 10, "number of values")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search for the lowest metric value",
		Args:  cobra.NoArgs,
		RunE:  runTune,
	}
	addStepFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&gridSpecs, "grid", nil, "name=v1,v2,... (repeatable)")
	tuneCmd.Flags().StringVar(&metric, "metric", "kinetic_energy", "metric to minimise")

	rootCmd.AddCommand(runCmd, listCmd, showCmd, plotCmd, exportJSONCmd, exportSVGCmd, presetsCmd, initCmd,
		liveCmd, serveCmd, ensembleCmd, benchCmd, scenarioCmd, sweepCmd, tuneCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addStepFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().IntVar(&count, "count", sim.DefaultSpawnCount, "number of shapes")
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg, "")
	if err != nil {
		return err
	}
	defer log.Sync()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	s, report, err := newSimulator(cfg, log)
	if err != nil {
		return err
	}

	runCfg := cfg.RunConfig(!noRecord)
	if live {
		r := tui.NewLiveRenderer(s.World().Arena, frameRate)
		s.AddObserver(r)
		s.AddObserver(pacer(runCfg.Dt))
		r.Start()
		defer r.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %d shapes for %.1fs...\n", s.World().Len(), cfg.Duration)
	start := time.Now()

	result, err := s.Run(ctx, runCfg)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	elapsed := time.Since(start)

	name := preset
	if name == "" {
		name = "run"
	}
	runID, err := st.Save(storage.RunMetadata{
		Name:      name,
		Seed:      cfg.Seed,
		Dt:        cfg.Dt,
		Duration:  cfg.Duration,
		Arena:     s.World().Arena,
		Colliders: &report,
	}, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d  fires: %d  reflections: %d\n", result.StepsTaken, result.Fires, result.Reflections)
	fmt.Printf("fingerprint: %016x\n", result.Fingerprint)
	printMetrics(result.Metrics)
	return nil
}

// pacer is an observer that sleeps each tick so a live run plays in real time.
type pacer float32

func (p pacer) OnStep(*sim.World, int, float64) {
	time.Sleep(time.Duration(float64(p) * float64(time.Second)))
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tSEED\tSHAPES\tDURATION\tDT\tFIRES\tREFLECTIONS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.2fs\t%.4fs\t%d\t%d\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Seed,
			run.Entities,
			run.Duration,
			run.Dt,
			run.Fires,
			run.Reflections,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	meta, err := storage.New(dataDir).Load(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}

	fields := []string{"x", "y", "speed"}
	if field != "" {
		fields = []string{field}
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("entity: %d\n", entity)
	fmt.Printf("samples: %d\n\n", len(frames))

	for _, f := range fields {
		data, err := storage.Series(frames, sim.EntityID(entity), f)
		if err != nil {
			return err
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(f+" vs tick"),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func runInteractive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg, filepath.Join(dataDir, "shapesim.log"))
	if err != nil {
		return err
	}
	defer log.Sync()

	base := *cfg
	factory := func(name string) (*sim.Simulator, error) {
		c := base
		if name != "" && name != preset && !config.Apply(&c, name) {
			return nil, fmt.Errorf("unknown preset: %s", name)
		}
		s, _, err := newSimulator(&c, log)
		return s, err
	}
	return tui.RunInteractive(config.ListPresets(), preset, factory, float32(cfg.Dt), cfg.Duration)
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg, "")
	if err != nil {
		return err
	}
	defer log.Sync()

	s, _, err := newSimulator(cfg, log)
	if err != nil {
		return err
	}

	hub := stream.NewHub(s.World().Arena, log)
	defer hub.Close()
	s.AddObserver(hub)

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()
	go func() {
		err := stream.Pump(ctx, s, float32(cfg.Dt), time.Duration(cfg.Dt*float64(time.Second)))
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("simulation stopped", zap.Error(err))
			stop()
		}
	}()

	log.Info("serving frames", zap.String("addr", addr), zap.String("path", "/ws"))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if numRuns <= 0 {
		return fmt.Errorf("runs must be positive, got %d", numRuns)
	}
	log, err := newLogger(cfg, "")
	if err != nil {
		return err
	}
	defer log.Sync()

	opts, err := cfg.Options()
	if err != nil {
		return err
	}

	ens := sim.NewEnsemble(opts, numRuns, cfg.Seed, logging.Nop())
	start := time.Now()
	results, err := ens.Run(context.Background(), cfg.RunConfig(false), func(s *sim.Simulator) error {
		_, err := prepare(s)
		return err
	})
	if err != nil {
		return err
	}
	log.Info("ensemble finished", zap.Int("runs", numRuns), zap.Duration("elapsed", time.Since(start)))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tFIRES\tREFLECTIONS\tENERGY\tREST\tFINGERPRINT")
	mean := make(map[string]float64)
	for i, r := range results {
		fmt.Fprintf(w, "%d\t%d\t%d\t%.2f\t%.3f\t%016x\n",
			cfg.Seed+int64(i), r.Fires, r.Reflections,
			r.Metrics["kinetic_energy"], r.Metrics["rest_ratio"], r.Fingerprint)
		for k, v := range r.Metrics {
			mean[k] += v / float64(len(results))
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	printMetrics(mean)
	return nil
}

func bench(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	counts := []int{6, 60, 600, 6000}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SHAPES\tSTEPS\tTIME\tSTEPS/SEC")

	for _, n := range counts {
		c := *cfg
		c.Spawn.Count = n
		c.Duration = 5
		s, _, err := newSimulator(&c, logging.Nop())
		if err != nil {
			return err
		}

		start := time.Now()
		result, err := s.Run(context.Background(), c.RunConfig(false))
		if err != nil {
			return err
		}
		elapsed := time.Since(start)

		fmt.Fprintf(w, "%d\t%d\t%v\t%s\n", n, result.StepsTaken, elapsed,
			strconv.FormatFloat(float64(result.StepsTaken)/elapsed.Seconds(), 'f', 0, 64))
	}
	return w.Flush()
}
