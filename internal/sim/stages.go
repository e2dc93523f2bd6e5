package sim

import (
	"math"
	"math/rand/v2"
	"sync/atomic"

	"go.uber.org/zap"
)

// entities per goroutine before a stage splits its loop
const parallelChunk = 512

// ImpulseInjector replaces the velocity of a random subset of impulsive
// entities each time the clock fires.
type ImpulseInjector struct {
	clock       *ImpulseClock
	rng         *RandomSource
	probability float32
	minSpeed    float32
	maxSpeed    float32
	log         *zap.Logger
}

func NewImpulseInjector(clock *ImpulseClock, rng *RandomSource, opts ImpulseOptions, log *zap.Logger) *ImpulseInjector {
	if log == nil {
		log = zap.NewNop()
	}
	return &ImpulseInjector{
		clock:       clock,
		rng:         rng,
		probability: opts.Probability,
		minSpeed:    opts.MinSpeed,
		maxSpeed:    opts.MaxSpeed,
		log:         log,
	}
}

func (s *ImpulseInjector) Name() string { return "impulse" }

func (s *ImpulseInjector) Apply(w *World, dt float32) {
	if !s.clock.Advance(dt) {
		return
	}

	kicked := 0
	for _, e := range w.entities {
		if !e.Impulsive {
			continue
		}
		if v, ok := s.sample(); ok {
			e.Motion.Velocity = v
			kicked++
		}
	}

	s.log.Debug("impulse fired",
		zap.Int("fire", s.clock.Fires()),
		zap.Int("kicked", kicked),
	)
}

// sample draws the selection and, if selected, both velocity components in one
// critical section so the stream order per entity is fixed.
func (s *ImpulseInjector) sample() (Vec2, bool) {
	var v Vec2
	selected := false
	s.rng.Draw(func(r *rand.Rand) {
		if r.Float32() >= s.probability {
			return
		}
		selected = true
		v[0] = uniform(r, s.minSpeed, s.maxSpeed) * sign(r)
		v[1] = uniform(r, s.minSpeed, s.maxSpeed) * sign(r)
	})
	return v, selected
}

func (s *ImpulseInjector) Fires() int { return s.clock.Fires() }

// FrictionIntegrator decays velocity exponentially: v *= friction^dt.
type FrictionIntegrator struct {
	epsilon float32
}

func NewFrictionIntegrator(restEpsilon float32) *FrictionIntegrator {
	return &FrictionIntegrator{epsilon: restEpsilon}
}

func (s *FrictionIntegrator) Name() string { return "friction" }

func (s *FrictionIntegrator) Apply(w *World, dt float32) {
	ParallelFor(len(w.entities), parallelChunk, func(start, end int) {
		for _, e := range w.entities[start:end] {
			e.Motion.Velocity = Decay(e.Motion, dt, s.epsilon)
		}
	})
}

// Decay returns the velocity of m after dt seconds of friction, snapped to zero
// at or below epsilon.
func Decay(m MotionState, dt, epsilon float32) Vec2 {
	v := m.Velocity
	if m.Friction != 1 {
		v = v.Mul(float32(math.Pow(float64(m.Friction), float64(dt))))
	}
	if v.Len() <= epsilon {
		return Vec2{}
	}
	return v
}

// BoundaryReflector turns velocity components back toward the arena when an
// entity's bounds cross a wall. Positions are never corrected, so a fast entity
// may stay outside for a tick.
type BoundaryReflector struct {
	reflections atomic.Int64
}

func NewBoundaryReflector() *BoundaryReflector {
	return &BoundaryReflector{}
}

func (s *BoundaryReflector) Name() string { return "boundary" }

func (s *BoundaryReflector) Apply(w *World, dt float32) {
	hw, hh := w.Arena.Half()
	ParallelFor(len(w.entities), parallelChunk, func(start, end int) {
		var flips int64
		for _, e := range w.entities[start:end] {
			b := e.Bounds()
			v := &e.Motion.Velocity
			var fx, fy bool
			v[0], fx = reflect(v[0], b.Min[0], b.Max[0], hw)
			v[1], fy = reflect(v[1], b.Min[1], b.Max[1], hh)
			if fx {
				flips++
			}
			if fy {
				flips++
			}
		}
		if flips > 0 {
			s.reflections.Add(flips)
		}
	})
}

func (s *BoundaryReflector) Reflections() int { return int(s.reflections.Load()) }

// reflect returns the new velocity component along one axis and whether its
// direction changed. Crossing both walls at once negates.
func reflect(v, lo, hi, half float32) (float32, bool) {
	over := hi > half
	under := lo < -half
	switch {
	case over && under:
		return -v, v != 0
	case over:
		return -abs32(v), v > 0
	case under:
		return abs32(v), v < 0
	}
	return v, false
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// PositionIntegrator advances position with explicit Euler.
type PositionIntegrator struct{}

func NewPositionIntegrator() *PositionIntegrator {
	return &PositionIntegrator{}
}

func (s *PositionIntegrator) Name() string { return "position" }

func (s *PositionIntegrator) Apply(w *World, dt float32) {
	ParallelFor(len(w.entities), parallelChunk, func(start, end int) {
		for _, e := range w.entities[start:end] {
			p := &e.Transform.Position
			*p = p.Add(e.Motion.Velocity.Mul(dt))
		}
	})
}
