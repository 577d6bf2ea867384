package export

import (
	"github.com/san-kum/swarmfield/internal/sim"
	"gonum.org/v1/gonum/spatial/r3"
)

// Path is a sim.Observer that records the position of one particle after
// every tick.
type Path struct {
	id     int
	points []r3.Vec
}

func NewPath(id int) *Path { return &Path{id: id} }

func (p *Path) OnStep(f *sim.Frame) {
	if p.id < 0 || p.id >= len(f.Particles) {
		return
	}
	p.points = append(p.points, f.Particles[p.id].Pos)
}

func (p *Path) Points() []r3.Vec { return p.points }
