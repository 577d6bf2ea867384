package config

import (
	"fmt"
	"math"
	"os"

	"github.com/san-kum/swarmfield/internal/dynamo"
	"github.com/san-kum/swarmfield/internal/field"
	"github.com/san-kum/swarmfield/internal/physics"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSeed          = 1
	DefaultFieldStrength = 1.0
	DefaultGravity       = -10.0
	DefaultParticles     = 32
	DefaultSpawnRange    = 10.0
	DefaultSpawnHeight   = 20.0
	DefaultSpawnSpeed    = 1.0
	DefaultDt            = 1.0 / 60
	DefaultSteps         = 3600
	DefaultFPS           = 60
	DefaultMaxDt         = 0.1
)

type Config struct {
	Seed      int64           `yaml:"seed"`
	Field     FieldConfig     `yaml:"field"`
	Anchor    AnchorConfig    `yaml:"anchor"`
	Swarm     SwarmConfig     `yaml:"swarm"`
	Collision CollisionConfig `yaml:"collision"`
	Run       RunConfig       `yaml:"run"`
	Host      HostConfig      `yaml:"host"`
	Log       LogConfig       `yaml:"log"`
}

// FieldConfig describes the terrain grid. Strength is the deformation each
// particle applies per second of simulated time.
type FieldConfig struct {
	Extent       int     `yaml:"extent"`
	Scale        float64 `yaml:"scale"`
	CenterOffset float64 `yaml:"center_offset"`
	Sigma        float64 `yaml:"sigma"`
	KernelRadius int     `yaml:"kernel_radius"`
	Quantum      float64 `yaml:"quantum"`
	Strength     float64 `yaml:"strength"`
}

type AnchorConfig struct {
	X            float64 `yaml:"x"`
	Y            float64 `yaml:"y"`
	Z            float64 `yaml:"z"`
	Strength     float64 `yaml:"strength"`
	IdleDistance float64 `yaml:"idle_distance"`
	Damping      float64 `yaml:"damping"`
}

// SwarmConfig places the particles. They spawn uniformly in
// [-SpawnRange, SpawnRange]² at SpawnHeight with a random horizontal
// velocity of at most SpawnSpeed.
type SwarmConfig struct {
	Particles   int     `yaml:"particles"`
	SpawnRange  float64 `yaml:"spawn_range"`
	SpawnHeight float64 `yaml:"spawn_height"`
	SpawnSpeed  float64 `yaml:"spawn_speed"`
	Gravity     float64 `yaml:"gravity"`
}

type CollisionConfig struct {
	Diameter  float64 `yaml:"diameter"`
	Padding   float64 `yaml:"padding"`
	MaxPasses int     `yaml:"max_passes"`
}

type RunConfig struct {
	Dt    float64 `yaml:"dt"`
	Steps int     `yaml:"steps"`
}

// HostConfig drives the interactive terminal host. MaxDt caps the real
// elapsed time handed to a single tick.
type HostConfig struct {
	FPS   int     `yaml:"fps"`
	MaxDt float64 `yaml:"max_dt"`
	Theme string  `yaml:"theme"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

func DefaultConfig() *Config {
	return &Config{
		Seed: DefaultSeed,
		Field: FieldConfig{
			Extent:       field.DefaultExtent,
			Scale:        field.DefaultScale,
			CenterOffset: field.DefaultCenterOffset,
			Sigma:        field.DefaultSigma,
			KernelRadius: field.DefaultKernelRadius,
			Quantum:      field.DefaultQuantum,
			Strength:     DefaultFieldStrength,
		},
		Anchor: AnchorConfig{
			Strength:     physics.DefaultStrength,
			IdleDistance: physics.DefaultIdleDistance,
			Damping:      physics.DefaultDamping,
		},
		Swarm: SwarmConfig{
			Particles:   DefaultParticles,
			SpawnRange:  DefaultSpawnRange,
			SpawnHeight: DefaultSpawnHeight,
			SpawnSpeed:  DefaultSpawnSpeed,
			Gravity:     DefaultGravity,
		},
		Collision: CollisionConfig{
			Diameter:  physics.DefaultDiameter,
			Padding:   physics.DefaultPadding,
			MaxPasses: physics.DefaultMaxPasses,
		},
		Run: RunConfig{
			Dt:    DefaultDt,
			Steps: DefaultSteps,
		},
		Host: HostConfig{
			FPS:   DefaultFPS,
			MaxDt: DefaultMaxDt,
			Theme: "cyberpunk",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML file over the defaults, so a file only needs the keys
// it changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
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

func (c *Config) FieldConfig() field.Config {
	return field.Config{
		Extent:       c.Field.Extent,
		Scale:        c.Field.Scale,
		CenterOffset: c.Field.CenterOffset,
		Sigma:        c.Field.Sigma,
		KernelRadius: c.Field.KernelRadius,
		Quantum:      c.Field.Quantum,
	}
}

func (c *Config) AnchorPos() r3.Vec {
	return r3.Vec{X: c.Anchor.X, Y: c.Anchor.Y, Z: c.Anchor.Z}
}

func (c *Config) NewAnchor() physics.Anchor {
	return physics.NewAnchor(c.AnchorPos(), c.Anchor.Strength, c.Anchor.IdleDistance, c.Anchor.Damping)
}

func (c *Config) CollisionConfig() physics.CollisionConfig {
	return physics.CollisionConfig{
		Diameter:  c.Collision.Diameter,
		Padding:   c.Collision.Padding,
		MaxPasses: c.Collision.MaxPasses,
	}
}

// Validate checks parameter ranges and that the spawn box and the anchor's
// idle shell both lie inside the field.
func (c *Config) Validate() error {
	fc := c.FieldConfig()
	if err := fc.Validate(); err != nil {
		return err
	}
	if err := c.CollisionConfig().Validate(); err != nil {
		return err
	}
	if c.Swarm.Particles < 1 {
		return fmt.Errorf("%w: swarm needs at least one particle, got %d", dynamo.ErrInvalidConfig, c.Swarm.Particles)
	}
	if c.Swarm.SpawnRange < 0 || c.Swarm.SpawnSpeed < 0 {
		return fmt.Errorf("%w: spawn range and speed must not be negative", dynamo.ErrInvalidConfig)
	}
	if c.Anchor.IdleDistance < 0 || c.Anchor.Strength < 0 || c.Anchor.Damping < 0 {
		return fmt.Errorf("%w: anchor parameters must not be negative", dynamo.ErrInvalidConfig)
	}
	if c.Run.Dt <= 0 || math.IsInf(c.Run.Dt, 0) {
		return fmt.Errorf("%w: dt must be positive and finite, got %f", dynamo.ErrInvalidConfig, c.Run.Dt)
	}
	if c.Host.FPS < 1 || c.Host.MaxDt <= 0 {
		return fmt.Errorf("%w: host fps and max_dt must be positive", dynamo.ErrInvalidConfig)
	}

	b := field.New(fc).Bounds()
	spawn := field.Rect{
		MinX: -c.Swarm.SpawnRange, MinY: -c.Swarm.SpawnRange,
		MaxX: c.Swarm.SpawnRange, MaxY: c.Swarm.SpawnRange,
	}
	if !inside(b, spawn) {
		return fmt.Errorf("%w: spawn range %.2f exceeds field bounds %+v", dynamo.ErrInvalidConfig, c.Swarm.SpawnRange, b)
	}
	r := c.Anchor.IdleDistance
	shell := field.Rect{
		MinX: c.Anchor.X - r, MinY: c.Anchor.Y - r,
		MaxX: c.Anchor.X + r, MaxY: c.Anchor.Y + r,
	}
	if !inside(b, shell) {
		return fmt.Errorf("%w: anchor shell %+v exceeds field bounds %+v", dynamo.ErrInvalidConfig, shell, b)
	}
	return nil
}

func inside(outer, inner field.Rect) bool {
	return outer.Contains(inner.MinX, inner.MinY) && outer.Contains(inner.MaxX, inner.MaxY)
}
