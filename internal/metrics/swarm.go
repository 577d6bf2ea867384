// Package metrics holds per-tick observers that reduce a swarm to scalars.
package metrics

import (
	"math"

	"github.com/san-kum/swarmfield/internal/physics"
	"gonum.org/v1/gonum/floats"
)

// TotalKineticEnergy sums the kinetic energy of unit-mass particles.
func TotalKineticEnergy(ps []physics.Particle) float64 {
	e := 0.0
	for i := range ps {
		e += ps[i].KineticEnergy()
	}
	return e
}

// MeanRadius is the mean distance of the swarm from the anchor.
func MeanRadius(ps []physics.Particle, a physics.Anchor) float64 {
	if len(ps) == 0 {
		return 0
	}
	r := make([]float64, len(ps))
	for i := range ps {
		r[i] = a.ShellDistance(ps[i].Pos) + a.IdleDistance()
	}
	return floats.Sum(r) / float64(len(r))
}

// MaxShellDeviation is the largest absolute distance of any particle from
// the anchor's idle shell.
func MaxShellDeviation(ps []physics.Particle, a physics.Anchor) float64 {
	if len(ps) == 0 {
		return 0
	}
	d := make([]float64, len(ps))
	for i := range ps {
		d[i] = math.Abs(a.ShellDistance(ps[i].Pos))
	}
	return floats.Max(d)
}
