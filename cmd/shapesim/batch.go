package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/shapesim/internal/automation"
	"github.com/san-kum/shapesim/internal/config"
	"github.com/san-kum/shapesim/internal/export"
	"github.com/san-kum/shapesim/internal/optim"
	"github.com/san-kum/shapesim/internal/sim"
	"github.com/san-kum/shapesim/internal/storage"
)

func buildQuiet(log *zap.Logger) automation.Builder {
	return func(cfg *config.Config) (*sim.Simulator, error) {
		s, _, err := newSimulator(cfg, log)
		return s, err
	}
}

func exportSVG(cmd *cobra.Command, args []string) error {
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
	if len(frames) == 0 {
		return storage.ErrNoFrames
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	catalog, err := cfg.Catalog()
	if err != nil {
		return err
	}

	svg := export.TrajectoryToSVG(frames, meta.Arena, catalog, svgWidth)
	if outPath == "" || outPath == "-" {
		_, err = fmt.Println(svg)
		return err
	}
	return os.WriteFile(outPath, []byte(svg), 0644)
}

func runScenario(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	log, err := newLogger(base, "")
	if err != nil {
		return err
	}
	defer log.Sync()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	results, runErr := automation.RunScenario(context.Background(), base, scenario, buildQuiet(log), true, log)
	for _, r := range results {
		runID, err := st.Save(storage.RunMetadata{
			Name:     r.Name,
			Seed:     r.Config.Seed,
			Dt:       r.Config.Dt,
			Duration: r.Config.Duration,
			Arena:    sim.Arena{Width: float32(r.Config.Arena.Width), Height: float32(r.Config.Arena.Height)},
		}, r.Result)
		if err != nil {
			return err
		}
		fmt.Printf("step %d: %s  fires=%d reflections=%d\n", r.Index+1, runID, r.Result.Fires, r.Result.Reflections)
	}
	return runErr
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(base, "")
	if err != nil {
		return err
	}
	defer log.Sync()

	sweep := &automation.ParameterSweep{ParamName: param, ParamMin: paramMin, ParamMax: paramMax, NumSteps: numSteps}
	results, err := automation.RunSweep(context.Background(), base, sweep, buildQuiet(log), log)
	if err != nil {
		return err
	}

	names := metricNames(results[0].Metrics)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tFIRES\tREFLECTIONS\t%s\n", strings.ToUpper(param), strings.ToUpper(strings.Join(names, "\t")))
	for _, r := range results {
		row := []string{
			strconv.FormatFloat(r.ParamValue, 'g', 6, 64),
			strconv.Itoa(r.Fires),
			strconv.Itoa(r.Reflections),
		}
		for _, n := range names {
			row = append(row, strconv.FormatFloat(r.Metrics[n], 'f', 4, 64))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

func runTune(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	names, ranges, err := parseGrid(gridSpecs)
	if err != nil {
		return err
	}
	log, err := newLogger(base, "")
	if err != nil {
		return err
	}
	defer log.Sync()

	g := optim.NewGridSearch(names, ranges)
	best, value, err := g.Search(context.Background(), base, buildQuiet(log), metric)
	if err != nil {
		return err
	}

	fmt.Printf("best %s: %.6f\n", metric, value)
	for _, n := range names {
		fmt.Printf("  %s = %g\n", n, best[n])
	}
	return nil
}

// parseGrid reads specs of the form name=v1,v2,...
func parseGrid(specs []string) ([]string, [][]float64, error) {
	if len(specs) == 0 {
		return nil, nil, fmt.Errorf("at least one --grid is required (parameters: %s)", strings.Join(config.ParamNames(), ", "))
	}
	names := make([]string, 0, len(specs))
	ranges := make([][]float64, 0, len(specs))
	for _, spec := range specs {
		name, list, ok := strings.Cut(spec, "=")
		if !ok || name == "" || list == "" {
			return nil, nil, fmt.Errorf("bad grid %q, want name=v1,v2", spec)
		}
		var values []float64
		for _, f := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("grid %s: %w", name, err)
			}
			values = append(values, v)
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func metricNames(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
