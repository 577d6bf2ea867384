package sim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/swarmfield/internal/config"
	"github.com/san-kum/swarmfield/internal/dynamo"
	"github.com/san-kum/swarmfield/internal/field"
	"github.com/san-kum/swarmfield/internal/physics"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// Simulation owns a swarm, its anchor and the terrain they deform. It is
// single-threaded: every method must be called from one goroutine.
type Simulation struct {
	cfg      config.Config
	field    *field.DeformableField
	anchor   physics.Anchor
	resolver *physics.Resolver
	gravity  r3.Vec

	particles []physics.Particle
	rng       *rand.Rand
	logger    *zap.Logger

	metrics   []Metric
	observers []Observer

	step   int
	time   float64
	last   physics.Report
	halted error
}

type Option func(*Simulation)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Simulation) { s.logger = logger }
}

// New validates cfg and spawns cfg.Swarm.Particles particles with ids
// 0..N-1 from a source seeded with cfg.Seed.
func New(cfg *config.Config, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Simulation{
		cfg:      *cfg,
		field:    field.New(cfg.FieldConfig()),
		anchor:   cfg.NewAnchor(),
		resolver: physics.NewResolver(cfg.CollisionConfig()),
		gravity:  r3.Vec{Z: cfg.Swarm.Gravity},
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.particles = make([]physics.Particle, cfg.Swarm.Particles)
	for i := range s.particles {
		s.particles[i] = physics.Particle{
			ID:  i,
			Pos: s.spawnPos(),
			Vel: s.spawnVel(),
		}
	}

	s.logger.Debug("simulation created",
		zap.Int64("seed", cfg.Seed),
		zap.Int("particles", len(s.particles)),
		zap.Float64("idle_distance", s.anchor.IdleDistance()),
	)
	return s, nil
}

func (s *Simulation) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulation) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Tick advances the simulation by dt: every particle deforms the field, is
// accelerated by the anchor, the field slope and gravity, and is integrated,
// then overlaps are resolved. dt is not clamped. A position outside the field
// or a non-finite particle state halts the simulation, and every later Tick returns the same error.
func (s *Simulation) Tick(dt float64) error {
	if s.halted != nil {
		return s.halted
	}
	if dt < 0 || math.IsNaN(dt) {
		return fmt.Errorf("%w: dt must not be negative, got %f", dynamo.ErrInvalidConfig, dt)
	}

	for i := range s.particles {
		p := &s.particles[i]
		if !dynamo.IsFinite(p.Pos) || !dynamo.IsFinite(p.Vel) {
			return s.halt(p.ID, fmt.Errorf("%w: particle %d at %v moving %v", dynamo.ErrNonFinite, p.ID, p.Pos, p.Vel))
		}
	}

	magnitude := s.cfg.Field.Strength * dt
	for i := range s.particles {
		if err := s.field.Deform(s.particles[i].Pos, magnitude); err != nil {
			return s.halt(s.particles[i].ID, err)
		}
	}

	for i := range s.particles {
		p := &s.particles[i]
		slope, err := s.field.GradientAt(p.Pos)
		if err != nil {
			return s.halt(p.ID, err)
		}
		acc := r3.Add(s.anchor.DampedForceAt(p.Pos, p.Vel), r3.Add(slope, s.gravity))
		p.Integrate(dt, acc)
	}

	s.last = s.resolver.Resolve(s.particles)
	if s.last.Unresolved > 0 {
		s.logger.Debug("collisions left unresolved",
			zap.Int("step", s.step),
			zap.Int("pairs", s.last.Unresolved),
			zap.Int("passes", s.last.Passes),
		)
	}

	s.step++
	s.time += dt
	s.notify(dt)
	return nil
}

func (s *Simulation) halt(id int, err error) error {
	s.halted = &dynamo.HaltedError{Step: s.step, Time: s.time, Wrapped: err}
	s.logger.Error("simulation halted",
		zap.Int("particle", id),
		zap.Int("step", s.step),
		zap.Float64("time", s.time),
		zap.Error(err),
	)
	return s.halted
}

func (s *Simulation) notify(dt float64) {
	if len(s.metrics) == 0 && len(s.observers) == 0 {
		return
	}
	f := &Frame{
		Step:      s.step,
		Time:      s.time,
		Dt:        dt,
		Particles: s.particles,
		Anchor:    s.anchor,
		Collision: s.last,
		field:     s.field,
	}
	for _, m := range s.metrics {
		m.Observe(f)
	}
	for _, o := range s.observers {
		o.OnStep(f)
	}
}

// Err returns the error that halted the simulation, or nil.
func (s *Simulation) Err() error { return s.halted }

func (s *Simulation) HeightAt(pos r3.Vec) (float64, error) {
	return s.field.HeightAt(pos)
}

// GradientAt returns the downhill push of the field at pos.
func (s *Simulation) GradientAt(pos r3.Vec) (r3.Vec, error) {
	return s.field.GradientAt(pos)
}

// Particles returns a copy of the swarm in id order.
func (s *Simulation) Particles() []physics.Particle {
	out := make([]physics.Particle, len(s.particles))
	copy(out, s.particles)
	return out
}

func (s *Simulation) Len() int { return len(s.particles) }

// Respawn moves particle id to pos and stops it.
func (s *Simulation) Respawn(id int, pos r3.Vec) error {
	if id < 0 || id >= len(s.particles) {
		return fmt.Errorf("%w: %d (swarm has %d)", dynamo.ErrUnknownParticle, id, len(s.particles))
	}
	s.particles[id].Pos = pos
	s.particles[id].Vel = r3.Vec{}
	s.logger.Info("particle respawned",
		zap.Int("particle", id),
		zap.Float64("x", pos.X),
		zap.Float64("y", pos.Y),
		zap.Float64("z", pos.Z),
	)
	return nil
}

// RespawnRandom respawns particle id at a random point of the spawn box.
func (s *Simulation) RespawnRandom(id int) error {
	return s.Respawn(id, s.spawnPos())
}

func (s *Simulation) RespawnAll() {
	for i := range s.particles {
		s.particles[i].Pos = s.spawnPos()
		s.particles[i].Vel = r3.Vec{}
	}
	s.logger.Info("swarm respawned", zap.Int("particles", len(s.particles)))
}

// Flatten removes every deformation the swarm has applied to the field.
func (s *Simulation) Flatten() {
	n := s.field.Records()
	s.field.Flatten()
	s.logger.Info("field flattened", zap.Int("records", n))
}

func (s *Simulation) spawnPos() r3.Vec {
	r := s.cfg.Swarm.SpawnRange
	return r3.Vec{
		X: (s.rng.Float64()*2 - 1) * r,
		Y: (s.rng.Float64()*2 - 1) * r,
		Z: s.cfg.Swarm.SpawnHeight,
	}
}

func (s *Simulation) spawnVel() r3.Vec {
	theta := s.rng.Float64() * 2 * math.Pi
	speed := s.rng.Float64() * s.cfg.Swarm.SpawnSpeed
	return r3.Vec{X: speed * math.Cos(theta), Y: speed * math.Sin(theta)}
}

func (s *Simulation) Time() float64 { return s.time }
func (s *Simulation) Steps() int { return s.step }
func (s *Simulation) LastCollision() physics.Report { return s.last }
func (s *Simulation) Anchor() physics.Anchor { return s.anchor }
func (s *Simulation) Bounds() field.Rect { return s.field.Bounds() }
func (s *Simulation) FieldStats() FieldStats { return statsOf(s.field) }
func (s *Simulation) Config() config.Config { return s.cfg }
