package physics

import "gonum.org/v1/gonum/spatial/r3"

// Particle is a unit-mass point. ID is stable for the particle's lifetime.
type Particle struct {
	ID  int
	Pos r3.Vec
	Vel r3.Vec
}

// Integrate advances the particle by one semi-implicit Euler step. Velocity
// is updated first and the new velocity moves the position.
func (p *Particle) Integrate(dt float64, acc r3.Vec) {
	p.Vel = r3.Add(p.Vel, r3.Scale(dt, acc))
	p.Pos = r3.Add(p.Pos, r3.Scale(dt, p.Vel))
}

func (p *Particle) KineticEnergy() float64 {
	return 0.5 * r3.Norm2(p.Vel)
}

func (p *Particle) Speed() float64 {
	return r3.Norm(p.Vel)
}
