package config

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/san-kum/shapesim/internal/geom"
	"github.com/san-kum/shapesim/internal/sim"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt       = 1.0 / 60
	DefaultDuration = 30.0
	DefaultLogLevel = "info"
)

type Config struct {
	Dt          float64       `yaml:"dt"`
	Duration    float64       `yaml:"duration"`
	Seed        int64         `yaml:"seed"`
	SeedHex     string        `yaml:"seed_hex,omitempty"`
	LogLevel    string        `yaml:"log_level"`
	RestEpsilon float64       `yaml:"rest_epsilon"`
	Arena       ArenaConfig   `yaml:"arena"`
	Impulse     ImpulseConfig `yaml:"impulse"`
	Spawn       SpawnConfig   `yaml:"spawn"`
	Shapes      ShapeConfig   `yaml:"shapes"`
}

type ArenaConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type ImpulseConfig struct {
	Period      float64 `yaml:"period"`
	Probability float64 `yaml:"probability"`
	MinSpeed    float64 `yaml:"min_speed"`
	MaxSpeed    float64 `yaml:"max_speed"`
}

type SpawnConfig struct {
	Count        int     `yaml:"count"`
	RegionWidth  float64 `yaml:"region_width"`
	RegionHeight float64 `yaml:"region_height"`
	Friction     float64 `yaml:"friction"`
	// Kinds restricts the catalog; empty means every kind.
	Kinds []string `yaml:"kinds,omitempty"`
}

// ShapeConfig holds the dimensions of the catalog shape of each kind.
type ShapeConfig struct {
	CircleRadius    float64       `yaml:"circle_radius"`
	RectangleWidth  float64       `yaml:"rectangle_width"`
	RectangleHeight float64       `yaml:"rectangle_height"`
	AnnulusInner    float64       `yaml:"annulus_inner"`
	AnnulusOuter    float64       `yaml:"annulus_outer"`
	RhombusWidth    float64       `yaml:"rhombus_width"`
	RhombusHeight   float64       `yaml:"rhombus_height"`
	PolygonRadius   float64       `yaml:"polygon_radius"`
	PolygonSides    int           `yaml:"polygon_sides"`
	Triangle        [3][2]float64 `yaml:"triangle,flow"`
}

func DefaultConfig() *Config {
	return &Config{
		Dt:          DefaultDt,
		Duration:    DefaultDuration,
		LogLevel:    DefaultLogLevel,
		RestEpsilon: sim.DefaultRestEpsilon,
		Arena: ArenaConfig{
			Width:  sim.DefaultArenaWidth,
			Height: sim.DefaultArenaHeight,
		},
		Impulse: ImpulseConfig{
			Period:      sim.DefaultImpulsePeriod,
			Probability: sim.DefaultImpulseProbability,
			MaxSpeed:    sim.DefaultMaxSpeed,
		},
		Spawn: SpawnConfig{
			Count:        sim.DefaultSpawnCount,
			RegionWidth:  2 * sim.DefaultSpawnRegion,
			RegionHeight: 2 * sim.DefaultSpawnRegion,
			Friction:     sim.DefaultFriction,
		},
		Shapes: ShapeConfig{
			CircleRadius:    50,
			RectangleWidth:  100,
			RectangleHeight: 75,
			AnnulusInner:    25,
			AnnulusOuter:    50,
			RhombusWidth:    100,
			RhombusHeight:   75,
			PolygonRadius:   50,
			PolygonSides:    12,
			Triangle:        [3][2]float64{{0, 50}, {-50, -50}, {50, -50}},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the run settings and everything the simulator checks at construction.
func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", sim.ErrInvalidConfig, c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %g", sim.ErrInvalidConfig, c.Duration)
	}
	opts, err := c.Options()
	if err != nil {
		return err
	}
	return opts.Validate()
}

// Catalog builds the spawn catalog in Kind order, filtered by Spawn.Kinds.
func (c *Config) Catalog() ([]geom.Shape, error) {
	s := c.Shapes
	all := []geom.Shape{
		geom.Circle{Radius: float32(s.CircleRadius)},
		geom.Rectangle{Width: float32(s.RectangleWidth), Height: float32(s.RectangleHeight)},
		geom.Annulus{InnerRadius: float32(s.AnnulusInner), OuterRadius: float32(s.AnnulusOuter)},
		geom.Rhombus{Width: float32(s.RhombusWidth), Height: float32(s.RhombusHeight)},
		geom.RegularPolygon{Circumradius: float32(s.PolygonRadius), Sides: s.PolygonSides},
		geom.Triangle{A: vec(s.Triangle[0]), B: vec(s.Triangle[1]), C: vec(s.Triangle[2])},
	}
	if len(c.Spawn.Kinds) == 0 {
		return all, nil
	}

	catalog := make([]geom.Shape, 0, len(c.Spawn.Kinds))
	for _, name := range c.Spawn.Kinds {
		k, err := geom.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", sim.ErrInvalidConfig, err)
		}
		catalog = append(catalog, all[k])
	}
	return catalog, nil
}

// SeedBytes returns the 32-byte seed: SeedHex when set, otherwise Seed expanded.
func (c *Config) SeedBytes() ([32]byte, error) {
	if c.SeedHex == "" {
		return sim.SeedFromInt64(c.Seed), nil
	}
	var seed [32]byte
	raw, err := hex.DecodeString(c.SeedHex)
	if err != nil {
		return seed, fmt.Errorf("%w: seed_hex: %w", sim.ErrInvalidConfig, err)
	}
	if len(raw) != len(seed) {
		return seed, fmt.Errorf("%w: seed_hex must encode %d bytes, got %d", sim.ErrInvalidConfig, len(seed), len(raw))
	}
	copy(seed[:], raw)
	return seed, nil
}

// Options converts the config into simulator options. It does not validate ranges.
func (c *Config) Options() (sim.Options, error) {
	catalog, err := c.Catalog()
	if err != nil {
		return sim.Options{}, err
	}
	seed, err := c.SeedBytes()
	if err != nil {
		return sim.Options{}, err
	}
	return sim.Options{
		Arena: sim.Arena{Width: float32(c.Arena.Width), Height: float32(c.Arena.Height)},
		Impulse: sim.ImpulseOptions{
			Period:      float32(c.Impulse.Period),
			Probability: float32(c.Impulse.Probability),
			MinSpeed:    float32(c.Impulse.MinSpeed),
			MaxSpeed:    float32(c.Impulse.MaxSpeed),
		},
		Spawn: sim.SpawnOptions{
			Count:    c.Spawn.Count,
			Region:   sim.Vec2{float32(c.Spawn.RegionWidth / 2), float32(c.Spawn.RegionHeight / 2)},
			Friction: float32(c.Spawn.Friction),
			Catalog:  catalog,
		},
		RestEpsilon: float32(c.RestEpsilon),
		Seed:        seed,
	}, nil
}

// RunConfig returns the fixed-step settings of a headless run.
func (c *Config) RunConfig(record bool) sim.RunConfig {
	return sim.RunConfig{Dt: float32(c.Dt), Duration: c.Duration, Record: record}
}

func vec(p [2]float64) geom.Vec2 {
	return geom.Vec2{float32(p[0]), float32(p[1])}
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	out.Spawn.Kinds = append([]string(nil), c.Spawn.Kinds...)
	return &out
}
