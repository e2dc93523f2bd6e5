package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/shapesim/internal/config"
	"github.com/san-kum/shapesim/internal/logging"
	"github.com/san-kum/shapesim/internal/mesh"
	"github.com/san-kum/shapesim/internal/metrics"
	"github.com/san-kum/shapesim/internal/sim"
)

// loadConfig resolves the effective configuration: the config file or the
// defaults, then the preset on top, then any flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if preset != "" && !config.Apply(cfg, preset) {
		return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = seed
		cfg.SeedHex = ""
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("count") {
		cfg.Spawn.Count = count
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the logger for cfg. Full-screen commands pass a file so
// log lines do not tear the terminal.
func newLogger(cfg *config.Config, file string) (*zap.Logger, error) {
	if file == "" {
		return logging.New(cfg.LogLevel)
	}
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return nil, err
	}
	return logging.New(cfg.LogLevel, file)
}

// newSimulator builds, spawns and prepares a simulator: colliders from the
// tessellated catalog shapes and the default metrics.
func newSimulator(cfg *config.Config, log *zap.Logger) (*sim.Simulator, sim.ColliderReport, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, sim.ColliderReport{}, err
	}
	s, err := sim.New(opts, log)
	if err != nil {
		return nil, sim.ColliderReport{}, err
	}
	report, err := prepare(s)
	return s, report, err
}

func prepare(s *sim.Simulator) (sim.ColliderReport, error) {
	if _, err := s.Spawn(); err != nil {
		return sim.ColliderReport{}, err
	}
	report := s.AttachColliders(mesh.NewSource())
	for _, m := range metrics.Defaults() {
		s.AddMetric(m)
	}
	return report, nil
}
