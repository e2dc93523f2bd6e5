package config

import (
	"fmt"
	"sort"

	"github.com/san-kum/shapesim/internal/sim"
)

// params maps tunable parameter names to their fields. Sweeps and searches
// address the config through these names.
var params = map[string]func(*Config) *float64{
	"friction":     func(c *Config) *float64 { return &c.Spawn.Friction },
	"probability":  func(c *Config) *float64 { return &c.Impulse.Probability },
	"period":       func(c *Config) *float64 { return &c.Impulse.Period },
	"min_speed":    func(c *Config) *float64 { return &c.Impulse.MinSpeed },
	"max_speed":    func(c *Config) *float64 { return &c.Impulse.MaxSpeed },
	"rest_epsilon": func(c *Config) *float64 { return &c.RestEpsilon },
	"dt":           func(c *Config) *float64 { return &c.Dt },
	"duration":     func(c *Config) *float64 { return &c.Duration },
}

// SetParam sets a named parameter. "count" is accepted and truncated.
func (c *Config) SetParam(name string, value float64) error {
	if name == "count" {
		c.Spawn.Count = int(value)
		return nil
	}
	field, ok := params[name]
	if !ok {
		return fmt.Errorf("%w: unknown parameter %q", sim.ErrInvalidConfig, name)
	}
	*field(c) = value
	return nil
}

func (c *Config) Param(name string) (float64, error) {
	if name == "count" {
		return float64(c.Spawn.Count), nil
	}
	field, ok := params[name]
	if !ok {
		return 0, fmt.Errorf("%w: unknown parameter %q", sim.ErrInvalidConfig, name)
	}
	return *field(c), nil
}

func ParamNames() []string {
	names := []string{"count"}
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
