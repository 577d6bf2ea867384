package physics

import (
	"fmt"

	"github.com/san-kum/swarmfield/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	DefaultDiameter  = 1.0
	DefaultPadding   = 0.05
	DefaultMaxPasses = 5
)

// CollisionConfig tunes overlap detection and resolution. Padding is a
// fraction of Diameter added to every separation. MaxPasses caps the work
// spent per Resolve call.
type CollisionConfig struct {
	Diameter  float64
	Padding   float64
	MaxPasses int
}

func DefaultCollisionConfig() CollisionConfig {
	return CollisionConfig{
		Diameter:  DefaultDiameter,
		Padding:   DefaultPadding,
		MaxPasses: DefaultMaxPasses,
	}
}

func (c CollisionConfig) Validate() error {
	if c.Diameter <= 0 {
		return fmt.Errorf("%w: collision diameter must be positive, got %f", dynamo.ErrInvalidConfig, c.Diameter)
	}
	if c.Padding < 0 {
		return fmt.Errorf("%w: collision padding must not be negative, got %f", dynamo.ErrInvalidConfig, c.Padding)
	}
	if c.MaxPasses < 1 {
		return fmt.Errorf("%w: collision passes must be at least 1, got %d", dynamo.ErrInvalidConfig, c.MaxPasses)
	}
	return nil
}

// Pair is an overlapping pair of particles by slice index, with I < J.
type Pair struct {
	I, J int
}

// Report summarizes one Resolve call. Detected counts the pairs found by the
// first pass and Unresolved the pairs still overlapping after the last one.
type Report struct {
	Detected   int
	Passes     int
	Unresolved int
}

// Resolver separates overlapping particles. Each pass detects pairs against a
// snapshot of the swarm, accumulates every pair's correction, and applies them
// together, so the result does not depend on how corrections interleave.
// The scratch buffers are reused across calls; a Resolver is not safe for
// concurrent use.
type Resolver struct {
	cfg CollisionConfig

	pos, vel   []r3.Vec
	dpos, dvel []r3.Vec
	contacts   []int
	pairs      []Pair
}

func NewResolver(cfg CollisionConfig) *Resolver {
	return &Resolver{cfg: cfg}
}

func (r *Resolver) Config() CollisionConfig { return r.cfg }

func (r *Resolver) ensureScratch(n int) {
	if len(r.pos) != n {
		r.pos = make([]r3.Vec, n)
		r.vel = make([]r3.Vec, n)
		r.dpos = make([]r3.Vec, n)
		r.dvel = make([]r3.Vec, n)
		r.contacts = make([]int, n)
	}
}

// Detect returns every overlapping pair in ascending (I, J) order.
func (r *Resolver) Detect(ps []Particle) []Pair {
	pos := make([]r3.Vec, len(ps))
	for i := range ps {
		pos[i] = ps[i].Pos
	}
	return r.detect(pos, nil)
}

func (r *Resolver) detect(pos []r3.Vec, out []Pair) []Pair {
	out = out[:0]
	d2 := r.cfg.Diameter * r.cfg.Diameter
	for i := 0; i < len(pos); i++ {
		for j := i + 1; j < len(pos); j++ {
			if r3.Norm2(r3.Sub(pos[i], pos[j])) < d2 {
				out = append(out, Pair{I: i, J: j})
			}
		}
	}
	return out
}

// Resolve runs up to MaxPasses correction passes over ps, stopping at the
// first pass that finds no overlap. Overlaps left after the last pass are
// reported, not treated as errors.
func (r *Resolver) Resolve(ps []Particle) Report {
	var rep Report
	r.ensureScratch(len(ps))

	for pass := 0; pass < r.cfg.MaxPasses; pass++ {
		r.snapshot(ps)
		r.pairs = r.detect(r.pos, r.pairs)
		if pass == 0 {
			rep.Detected = len(r.pairs)
		}
		if len(r.pairs) == 0 {
			return rep
		}
		r.correct()
		for i := range ps {
			ps[i].Pos = r3.Add(ps[i].Pos, r.dpos[i])
			if r.contacts[i] > 0 {
				ps[i].Vel = r3.Add(ps[i].Vel, r3.Scale(1/float64(r.contacts[i]), r.dvel[i]))
			}
		}
		rep.Passes++
	}

	r.snapshot(ps)
	r.pairs = r.detect(r.pos, r.pairs)
	rep.Unresolved = len(r.pairs)
	return rep
}

func (r *Resolver) snapshot(ps []Particle) {
	for i := range ps {
		r.pos[i] = ps[i].Pos
		r.vel[i] = ps[i].Vel
		r.dpos[i] = r3.Vec{}
		r.dvel[i] = r3.Vec{}
		r.contacts[i] = 0
	}
}

// correct accumulates the deltas for every detected pair. Each particle moves
// half the padded overlap along the line joining the pair, and the pair's
// summed velocity is split between them with opposite signs. Position pushes
// add up; a particle's new velocity is the mean of its per-pair targets, so
// contacts counts the pairs each particle took part in. Coincident particles
// are pushed apart along dynamo.UnitX.
func (r *Resolver) correct() {
	target := r.cfg.Diameter * (1 + r.cfg.Padding)
	for _, p := range r.pairs {
		delta := r3.Sub(r.pos[p.I], r.pos[p.J])
		dist := r3.Norm(delta)
		push := dynamo.NormalizeTo(delta, 0.5*(target-dist))

		r.dpos[p.I] = r3.Add(r.dpos[p.I], push)
		r.dpos[p.J] = r3.Sub(r.dpos[p.J], push)

		combined := r3.Add(r.vel[p.I], r.vel[p.J])
		r.dvel[p.I] = r3.Add(r.dvel[p.I], r3.Sub(r3.Scale(-0.5, combined), r.vel[p.I]))
		r.dvel[p.J] = r3.Add(r.dvel[p.J], r3.Sub(r3.Scale(0.5, combined), r.vel[p.J]))
		r.contacts[p.I]++
		r.contacts[p.J]++
	}
}
