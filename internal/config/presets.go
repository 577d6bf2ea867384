package config

import "sort"

// Presets are named variations on the defaults.
var Presets = map[string]*Config{
	"default": DefaultConfig(),
	"calm": preset(func(c *Config) {
		c.Swarm.Particles = 8
		c.Swarm.SpawnSpeed = 0
		c.Anchor.Damping = 1.0
		c.Field.Strength = 0.5
	}),
	"swarm": preset(func(c *Config) {
		c.Swarm.Particles = 64
		c.Swarm.SpawnRange = 15
	}),
	"dense": preset(func(c *Config) {
		c.Swarm.Particles = 128
		c.Swarm.SpawnRange = 6
		c.Anchor.IdleDistance = 8
		c.Collision.MaxPasses = 8
	}),
	"storm": preset(func(c *Config) {
		c.Swarm.Particles = 48
		c.Swarm.SpawnSpeed = 6
		c.Anchor.Damping = 0.05
		c.Field.Strength = 4
		c.Field.Sigma = 3
		c.Field.KernelRadius = 9
	}),
}

func preset(mutate func(*Config)) *Config {
	c := DefaultConfig()
	mutate(c)
	return c
}

// GetPreset returns a copy of the named preset, or nil if there is none.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
