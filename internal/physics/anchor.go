package physics

import (
	"github.com/san-kum/swarmfield/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	DefaultStrength     = 15.0
	DefaultIdleDistance = 15.0
	DefaultDamping      = 0.2
)

// Anchor is a fixed point that pulls everything toward a shell of radius
// IdleDistance around itself. Its parameters never change after construction.
type Anchor struct {
	pos      r3.Vec
	strength float64
	idle     float64
	damping  float64
}

func NewAnchor(pos r3.Vec, strength, idleDistance, damping float64) Anchor {
	return Anchor{
		pos:      pos,
		strength: strength,
		idle:     idleDistance,
		damping:  damping,
	}
}

// DefaultAnchor sits at the origin with the default force constants.
func DefaultAnchor() Anchor {
	return NewAnchor(r3.Vec{}, DefaultStrength, DefaultIdleDistance, DefaultDamping)
}

func (a Anchor) Pos() r3.Vec { return a.pos }
func (a Anchor) Strength() float64 { return a.strength }
func (a Anchor) IdleDistance() float64 { return a.idle }
func (a Anchor) Damping() float64 { return a.damping }

// ForceAt returns (delta - idle)·strength where delta points from pos to the
// anchor and idle is delta rescaled to the idle distance. The force vanishes
// on the shell and grows linearly with the deviation from it.
func (a Anchor) ForceAt(pos r3.Vec) r3.Vec {
	delta := r3.Sub(a.pos, pos)
	idle := dynamo.NormalizeTo(delta, a.idle)
	return r3.Scale(a.strength, r3.Sub(delta, idle))
}

// DampedForceAt subtracts vel·damping from ForceAt. The anchor is stationary,
// so only the particle's velocity contributes.
func (a Anchor) DampedForceAt(pos, vel r3.Vec) r3.Vec {
	return r3.Sub(a.ForceAt(pos), r3.Scale(a.damping, vel))
}

// ShellDistance is the signed distance of pos from the idle shell,
// negative inside it.
func (a Anchor) ShellDistance(pos r3.Vec) float64 {
	return r3.Norm(r3.Sub(a.pos, pos)) - a.idle
}
