package sim

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"
)

// Simulator owns a world and the per-run state threaded through every tick:
// the random stream, the impulse clock and the fixed stage pipeline.
type Simulator struct {
	opts      Options
	world     *World
	rng       *RandomSource
	clock     *ImpulseClock
	impulse   *ImpulseInjector
	reflector *BoundaryReflector
	planner   *SpawnPlanner
	stages    []Stage
	metrics   []Metric
	observers []Observer
	log       *zap.Logger

	tick int
	time float64
}

// New validates opts and builds an empty world. Call Spawn and AttachColliders
// before stepping.
func New(opts Options, log *zap.Logger) (*Simulator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	rng := NewRandomSource(opts.Seed)
	clock := NewImpulseClock(opts.Impulse.Period)

	s := &Simulator{
		opts:      opts,
		world:     NewWorld(opts.Arena),
		rng:       rng,
		clock:     clock,
		impulse:   NewImpulseInjector(clock, rng, opts.Impulse, log),
		reflector: NewBoundaryReflector(),
		planner:   NewSpawnPlanner(rng, opts.Spawn),
		log:       log,
	}

	// reflect before moving so the wall test sees this tick's starting position
	s.stages = []Stage{
		s.impulse,
		NewFrictionIntegrator(opts.RestEpsilon),
		s.reflector,
		NewPositionIntegrator(),
	}
	return s, nil
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) World() *World         { return s.world }
func (s *Simulator) Options() Options      { return s.opts }
func (s *Simulator) Random() *RandomSource { return s.rng }
func (s *Simulator) Clock() *ImpulseClock  { return s.clock }
func (s *Simulator) Tick() int             { return s.tick }
func (s *Simulator) Time() float64         { return s.time }
func (s *Simulator) Reflections() int      { return s.reflector.Reflections() }

// Stages returns the stage names in execution order.
func (s *Simulator) Stages() []string {
	names := make([]string, len(s.stages))
	for i, st := range s.stages {
		names[i] = st.Name()
	}
	return names
}

// Spawn runs the spawn planner once.
func (s *Simulator) Spawn() ([]*Entity, error) {
	spawned, err := s.planner.Plan(s.world)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, e := range spawned {
		counts[e.Shape.Kind().String()]++
	}
	s.log.Info("spawned shapes",
		zap.Int("count", len(spawned)),
		zap.Any("kinds", counts),
	)
	return spawned, nil
}

// AddEntity places a host-defined entity in the world.
func (s *Simulator) AddEntity(spec EntitySpec) (*Entity, error) {
	return s.world.Spawn(spec)
}

func (s *Simulator) AttachColliders(src MeshSource) ColliderReport {
	report := AttachColliders(s.world, src, s.log)
	s.log.Info("colliders attached",
		zap.Int("attached", report.Attached),
		zap.Int("missing", report.Missing),
		zap.Int("degenerate", report.Degenerate),
	)
	return report
}

// Step advances the world by dt seconds through the stage pipeline.
func (s *Simulator) Step(dt float32) error {
	if !(dt > 0) || math.IsInf(float64(dt), 0) {
		return fmt.Errorf("%w: got %g", ErrInvalidDelta, dt)
	}

	for _, st := range s.stages {
		st.Apply(s.world, dt)
	}

	s.tick++
	s.time += float64(dt)

	for _, m := range s.metrics {
		m.Observe(s.world, s.time)
	}
	for _, obs := range s.observers {
		obs.OnStep(s.world, s.tick, s.time)
	}
	return nil
}

// Run steps the world with a fixed dt for cfg.Duration seconds.
func (s *Simulator) Run(ctx context.Context, cfg RunConfig) (*Result, error) {
	if err := s.validateRun(cfg); err != nil {
		return nil, err
	}

	steps := int(math.Round(cfg.Duration / float64(cfg.Dt)))
	result := &Result{
		Metrics: make(map[string]float64),
	}
	if cfg.Record {
		result.Frames = make([]Frame, 0, steps+1)
		result.Frames = append(result.Frames, s.frame())
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	firesBefore := s.clock.Fires()
	reflectionsBefore := s.reflector.Reflections()
	hash := newTrajectoryHash()
	hash.add(s.world)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			s.finish(result, hash, firesBefore, reflectionsBefore)
			return result, ctx.Err()
		default:
		}

		if err := s.Step(cfg.Dt); err != nil {
			return result, err
		}
		hash.add(s.world)
		result.StepsTaken++

		if cfg.Record {
			result.Frames = append(result.Frames, s.frame())
		}
	}

	s.finish(result, hash, firesBefore, reflectionsBefore)
	s.log.Debug("run finished",
		zap.Int("steps", result.StepsTaken),
		zap.Int("fires", result.Fires),
		zap.Int("reflections", result.Reflections),
		zap.Uint64("fingerprint", result.Fingerprint),
	)
	return result, nil
}

func (s *Simulator) finish(result *Result, hash *trajectoryHash, fires, reflections int) {
	result.Fires = s.clock.Fires() - fires
	result.Reflections = s.reflector.Reflections() - reflections
	result.Fingerprint = hash.sum()
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func (s *Simulator) frame() Frame {
	return Frame{Tick: s.tick, Time: s.time, Bodies: Snapshot(s.world)}
}

func (s *Simulator) validateRun(cfg RunConfig) error {
	if !(cfg.Dt > 0) {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if !(cfg.Duration > 0) {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	return nil
}
