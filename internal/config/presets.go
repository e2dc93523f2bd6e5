package config

import "sort"

// Presets are partial configurations applied on top of DefaultConfig.
var Presets = map[string]func(*Config){
	// few slow shapes that settle quickly
	"calm": func(c *Config) {
		c.Spawn.Count = 4
		c.Spawn.Friction = 0.5
		c.Impulse.Period = 3
		c.Impulse.Probability = 0.2
		c.Impulse.MaxSpeed = 120
	},
	"chaotic": func(c *Config) {
		c.Spawn.Friction = 0.98
		c.Impulse.Period = 0.5
		c.Impulse.Probability = 0.8
		c.Impulse.MaxSpeed = 900
	},
	"crowded": func(c *Config) {
		c.Spawn.Count = 60
		c.Spawn.RegionWidth = 900
		c.Spawn.RegionHeight = 560
	},
	"bounce": func(c *Config) {
		c.Spawn.Count = 1
		c.Spawn.Kinds = []string{"circle"}
		c.Spawn.Friction = 1
		c.Impulse.Probability = 1
		c.Impulse.Period = 10
	},
}

// GetPreset returns DefaultConfig with the named preset applied, or nil.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

// Apply overlays the named preset on cfg.
func Apply(cfg *Config, name string) bool {
	apply, ok := Presets[name]
	if ok {
		apply(cfg)
	}
	return ok
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
