package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/shapesim/internal/geom"
)

const (
	DefaultArenaWidth  = 1080
	DefaultArenaHeight = 720

	DefaultImpulsePeriod      = 1.5
	DefaultImpulseProbability = 0.4
	DefaultMaxSpeed           = 300

	DefaultSpawnCount  = 6
	DefaultSpawnRegion = 200
	DefaultFriction    = 0.9

	DefaultRestEpsilon = 0.01
)

type Options struct {
	Arena   Arena
	Impulse ImpulseOptions
	Spawn   SpawnOptions
	// RestEpsilon is the speed at or below which friction snaps velocity to zero.
	RestEpsilon float32
	Seed        [32]byte
}

type ImpulseOptions struct {
	Period      float32
	Probability float32
	// MinSpeed and MaxSpeed bound the per-axis magnitude, [MinSpeed, MaxSpeed).
	MinSpeed float32
	MaxSpeed float32
}

type SpawnOptions struct {
	Count int
	// Region holds the half extents of the placement area around the origin.
	Region   Vec2
	Friction float32
	Catalog  []geom.Shape
}

// DefaultCatalog returns one shape per kind, in Kind order.
func DefaultCatalog() []geom.Shape {
	return []geom.Shape{
		geom.Circle{Radius: 50},
		geom.Rectangle{Width: 100, Height: 75},
		geom.Annulus{InnerRadius: 25, OuterRadius: 50},
		geom.Rhombus{Width: 100, Height: 75},
		geom.RegularPolygon{Circumradius: 50, Sides: 12},
		geom.Triangle{A: Vec2{0, 50}, B: Vec2{-50, -50}, C: Vec2{50, -50}},
	}
}

func DefaultOptions() Options {
	return Options{
		Arena: Arena{Width: DefaultArenaWidth, Height: DefaultArenaHeight},
		Impulse: ImpulseOptions{
			Period:      DefaultImpulsePeriod,
			Probability: DefaultImpulseProbability,
			MinSpeed:    0,
			MaxSpeed:    DefaultMaxSpeed,
		},
		Spawn: SpawnOptions{
			Count:    DefaultSpawnCount,
			Region:   Vec2{DefaultSpawnRegion, DefaultSpawnRegion},
			Friction: DefaultFriction,
			Catalog:  DefaultCatalog(),
		},
		RestEpsilon: DefaultRestEpsilon,
	}
}

func (o Options) Validate() error {
	if err := o.Arena.Validate(); err != nil {
		return err
	}

	imp := o.Impulse
	if !(imp.Period > 0) || math.IsInf(float64(imp.Period), 0) {
		return fmt.Errorf("%w: impulse period must be positive, got %g", ErrInvalidConfig, imp.Period)
	}
	if !(imp.Probability >= 0 && imp.Probability <= 1) {
		return fmt.Errorf("%w: impulse probability must be in [0,1], got %g", ErrInvalidConfig, imp.Probability)
	}
	if !(imp.MinSpeed >= 0) || !(imp.MaxSpeed > imp.MinSpeed) {
		return fmt.Errorf("%w: impulse speed range [%g,%g) is empty or negative", ErrInvalidConfig, imp.MinSpeed, imp.MaxSpeed)
	}

	if !(o.RestEpsilon >= 0) {
		return fmt.Errorf("%w: rest epsilon must not be negative, got %g", ErrInvalidConfig, o.RestEpsilon)
	}

	sp := o.Spawn
	if sp.Count < 0 {
		return fmt.Errorf("%w: spawn count must not be negative, got %d", ErrInvalidConfig, sp.Count)
	}
	hw, hh := o.Arena.Half()
	if !(sp.Region[0] >= 0 && sp.Region[0] <= hw) || !(sp.Region[1] >= 0 && sp.Region[1] <= hh) {
		return fmt.Errorf("%w: spawn region %v must lie inside the arena half extents (%g,%g)",
			ErrInvalidConfig, sp.Region, hw, hh)
	}
	if err := validateFriction(sp.Friction); err != nil {
		return err
	}
	if sp.Count > 0 && len(sp.Catalog) == 0 {
		return fmt.Errorf("%w: spawn catalog is empty", ErrInvalidConfig)
	}
	for i, s := range sp.Catalog {
		if s == nil {
			return fmt.Errorf("%w: catalog entry %d has no shape", ErrInvalidConfig, i)
		}
		if err := s.Validate(); err != nil {
			return fmt.Errorf("%w: catalog entry %d: %w", ErrInvalidConfig, i, err)
		}
	}
	return nil
}

func validateFriction(f float32) error {
	if !(f > 0 && f <= 1) {
		return fmt.Errorf("%w: friction must be in (0,1], got %g", ErrInvalidConfig, f)
	}
	return nil
}
