// Package automation runs scripted scenarios and parameter sweeps over
// headless simulations.
package automation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/san-kum/swarmfield/internal/config"
	"github.com/san-kum/swarmfield/internal/dynamo"
	"github.com/san-kum/swarmfield/internal/metrics"
	"github.com/san-kum/swarmfield/internal/sim"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Scenario defines a scripted sequence of stages on one simulation.
type Scenario struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Preset      string  `yaml:"preset"`
	Seed        int64   `yaml:"seed"`
	Particles   int     `yaml:"particles"`
	Stages      []Stage `yaml:"stages"`
}

// Stage applies an optional host action, then runs Steps ticks.
type Stage struct {
	Name     string  `yaml:"name"`
	Action   string  `yaml:"action"`
	Particle int     `yaml:"particle"`
	Steps    int     `yaml:"steps"`
	Dt       float64 `yaml:"dt"`
}

const (
	ActionNone       = ""
	ActionFlatten    = "flatten"
	ActionRespawn    = "respawn"
	ActionRespawnAll = "respawn_all"
)

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &scenario, nil
}

// Config resolves the scenario's preset and overrides.
func (sc *Scenario) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if sc.Preset != "" {
		if cfg = config.GetPreset(sc.Preset); cfg == nil {
			return nil, fmt.Errorf("%w: unknown preset %q", dynamo.ErrInvalidConfig, sc.Preset)
		}
	}
	if sc.Seed != 0 {
		cfg.Seed = sc.Seed
	}
	if sc.Particles > 0 {
		cfg.Swarm.Particles = sc.Particles
	}
	return cfg, cfg.Validate()
}

// StageResult is the outcome of one stage. Metrics are reset per stage.
type StageResult struct {
	Stage  Stage
	Result *sim.Result
}

// RunScenario executes all stages in order on a single simulation. A
// failing stage stops the scenario; the results so far are returned with
// the error.
func RunScenario(ctx context.Context, sc *Scenario, logger *zap.Logger) ([]StageResult, error) {
	cfg, err := sc.Config()
	if err != nil {
		return nil, err
	}
	s, err := sim.New(cfg, sim.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	for _, m := range metrics.Standard() {
		s.AddMetric(m)
	}

	results := make([]StageResult, 0, len(sc.Stages))
	for i, stage := range sc.Stages {
		logger.Info("stage",
			zap.Int("index", i+1),
			zap.Int("of", len(sc.Stages)),
			zap.String("name", stage.Name),
			zap.String("action", stage.Action),
		)

		if err := apply(s, stage); err != nil {
			return results, fmt.Errorf("stage %d: %w", i+1, err)
		}

		dt := stage.Dt
		if dt == 0 {
			dt = cfg.Run.Dt
		}
		result, err := s.Run(ctx, stage.Steps, dt)
		if result != nil {
			results = append(results, StageResult{Stage: stage, Result: result})
		}
		if err != nil {
			return results, fmt.Errorf("stage %d run: %w", i+1, err)
		}
	}
	return results, nil
}

func apply(s *sim.Simulation, stage Stage) error {
	switch stage.Action {
	case ActionNone:
	case ActionFlatten:
		s.Flatten()
	case ActionRespawn:
		return s.RespawnRandom(stage.Particle)
	case ActionRespawnAll:
		s.RespawnAll()
	default:
		return fmt.Errorf("%w: unknown action %q", dynamo.ErrInvalidConfig, stage.Action)
	}
	return nil
}

// params maps sweepable parameter names to config fields.
var params = map[string]func(*config.Config, float64){
	"anchor.strength":      func(c *config.Config, v float64) { c.Anchor.Strength = v },
	"anchor.idle_distance": func(c *config.Config, v float64) { c.Anchor.IdleDistance = v },
	"anchor.damping":       func(c *config.Config, v float64) { c.Anchor.Damping = v },
	"field.strength":       func(c *config.Config, v float64) { c.Field.Strength = v },
	"field.sigma":          func(c *config.Config, v float64) { c.Field.Sigma = v },
	"swarm.gravity":        func(c *config.Config, v float64) { c.Swarm.Gravity = v },
	"collision.padding":    func(c *config.Config, v float64) { c.Collision.Padding = v },
}

// SweepParams lists the parameter names RunSweep accepts.
func SweepParams() []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParameterSweep runs simulations across a range of parameter values
type ParameterSweep struct {
	Param  string
	Min    float64
	Max    float64
	Points int
	Steps  int
	Dt     float64
}

// SweepResult holds results from one point of a sweep. Halted is set when
// the swarm left the terrain; Result then covers the ticks that completed.
type SweepResult struct {
	Value  float64
	Result *sim.Result
	Halted bool
}

// RunSweep executes a parameter sweep starting from base.
func RunSweep(ctx context.Context, base *config.Config, sweep *ParameterSweep, logger *zap.Logger) ([]SweepResult, error) {
	set, ok := params[sweep.Param]
	if !ok {
		return nil, fmt.Errorf("%w: parameter %q is not sweepable (have %v)", dynamo.ErrInvalidConfig, sweep.Param, SweepParams())
	}
	if sweep.Points < 2 {
		return nil, fmt.Errorf("%w: a sweep needs at least 2 points, got %d", dynamo.ErrInvalidConfig, sweep.Points)
	}

	step := (sweep.Max - sweep.Min) / float64(sweep.Points-1)
	results := make([]SweepResult, 0, sweep.Points)

	for i := 0; i < sweep.Points; i++ {
		value := sweep.Min + float64(i)*step
		cfg := *base
		set(&cfg, value)

		s, err := sim.New(&cfg, sim.WithLogger(logger))
		if err != nil {
			return results, fmt.Errorf("%s=%.4f: %w", sweep.Param, value, err)
		}
		for _, m := range metrics.Standard() {
			s.AddMetric(m)
		}

		result, err := s.Run(ctx, sweep.Steps, sweep.Dt)
		halted := errors.Is(err, dynamo.ErrOutOfBounds)
		if err != nil && !halted {
			return results, err
		}
		results = append(results, SweepResult{Value: value, Result: result, Halted: halted})

		logger.Info("sweep point",
			zap.Int("index", i+1),
			zap.Int("of", sweep.Points),
			zap.String("param", sweep.Param),
			zap.Float64("value", value),
			zap.Bool("halted", halted),
		)
	}
	return results, nil
}
