// Package automation runs scripted batches of simulations: YAML scenarios
// and single-parameter sweeps over a base configuration.
package automation

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/shapesim/internal/config"
	"github.com/san-kum/shapesim/internal/sim"
)

// Builder turns a resolved configuration into a spawned, ready simulator.
type Builder func(cfg *config.Config) (*sim.Simulator, error)

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep overrides the base configuration for one run. Zero values
// keep the base setting.
type ScenarioStep struct {
	Preset   string             `yaml:"preset"`
	Seed     int64              `yaml:"seed"`
	Duration float64            `yaml:"duration"`
	Dt       float64            `yaml:"dt"`
	Params   map[string]float64 `yaml:"params"`
	SaveAs   string             `yaml:"save_as"`
}

type StepResult struct {
	Index  int
	Name   string
	Config *config.Config
	Result *sim.Result
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

// Resolve applies the step to a copy of base.
func (s ScenarioStep) Resolve(base *config.Config) (*config.Config, error) {
	cfg := base.Clone()
	if s.Preset != "" && !config.Apply(cfg, s.Preset) {
		return nil, fmt.Errorf("unknown preset: %s", s.Preset)
	}
	if s.Seed != 0 {
		cfg.Seed = s.Seed
		cfg.SeedHex = ""
	}
	if s.Duration > 0 {
		cfg.Duration = s.Duration
	}
	if s.Dt > 0 {
		cfg.Dt = s.Dt
	}
	for name, v := range s.Params {
		if err := cfg.SetParam(name, v); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RunScenario executes all steps in order. Results of completed steps are
// returned alongside the first error.
func RunScenario(ctx context.Context, base *config.Config, scenario *Scenario, build Builder, record bool, log *zap.Logger) ([]StepResult, error) {
	if log == nil {
		log = zap.NewNop()
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.SaveAs
		if name == "" {
			name = fmt.Sprintf("%s_%d", scenario.Name, i+1)
		}
		log.Info("scenario step", zap.String("scenario", scenario.Name),
			zap.Int("step", i+1), zap.Int("of", len(scenario.Steps)), zap.String("name", name))

		cfg, err := step.Resolve(base)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		s, err := build(cfg)
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := s.Run(ctx, cfg.RunConfig(record))
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, StepResult{Index: i, Name: name, Config: cfg, Result: result})
	}

	return results, nil
}

// ParameterSweep runs the base configuration across evenly spaced values of
// one parameter.
type ParameterSweep struct {
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

type SweepResult struct {
	ParamValue  float64
	Metrics     map[string]float64
	Fires       int
	Reflections int
	Fingerprint uint64
}

func (sw *ParameterSweep) Values() ([]float64, error) {
	if sw.NumSteps < 2 {
		return nil, fmt.Errorf("sweep needs at least 2 steps, got %d", sw.NumSteps)
	}
	values := make([]float64, sw.NumSteps)
	step := (sw.ParamMax - sw.ParamMin) / float64(sw.NumSteps-1)
	for i := range values {
		values[i] = sw.ParamMin + float64(i)*step
	}
	values[len(values)-1] = sw.ParamMax
	return values, nil
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, base *config.Config, sweep *ParameterSweep, build Builder, log *zap.Logger) ([]SweepResult, error) {
	if log == nil {
		log = zap.NewNop()
	}
	values, err := sweep.Values()
	if err != nil {
		return nil, err
	}

	results := make([]SweepResult, 0, len(values))
	for i, v := range values {
		cfg := base.Clone()
		if err := cfg.SetParam(sweep.ParamName, v); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.ParamName, v, err)
		}

		s, err := build(cfg)
		if err != nil {
			return nil, err
		}
		result, err := s.Run(ctx, cfg.RunConfig(false))
		if err != nil {
			return nil, err
		}

		results = append(results, SweepResult{
			ParamValue:  v,
			Metrics:     result.Metrics,
			Fires:       result.Fires,
			Reflections: result.Reflections,
			Fingerprint: result.Fingerprint,
		})
		log.Debug("sweep point", zap.Int("step", i+1), zap.String("param", sweep.ParamName), zap.Float64("value", v))
	}

	return results, nil
}
