package metrics

import "github.com/san-kum/swarmfield/internal/sim"

// Trace records one value per tick. Its Value is the latest sample.
type Trace struct {
	name   string
	sample func(*sim.Frame) float64
	values []float64
}

func NewTrace(name string, sample func(*sim.Frame) float64) *Trace {
	return &Trace{name: name, sample: sample}
}

// NewEnergyTrace records the swarm's total kinetic energy.
func NewEnergyTrace() *Trace {
	return NewTrace("kinetic_energy_trace", func(f *sim.Frame) float64 {
		return TotalKineticEnergy(f.Particles)
	})
}

// NewRadiusTrace records the swarm's mean distance from the anchor.
func NewRadiusTrace() *Trace {
	return NewTrace("mean_radius_trace", func(f *sim.Frame) float64 {
		return MeanRadius(f.Particles, f.Anchor)
	})
}

func (t *Trace) Name() string { return t.name }

func (t *Trace) Observe(f *sim.Frame) {
	t.values = append(t.values, t.sample(f))
}

func (t *Trace) Value() float64 {
	if len(t.values) == 0 {
		return 0
	}
	return t.values[len(t.values)-1]
}

func (t *Trace) Reset() { t.values = t.values[:0] }

// Values returns the recorded samples. The slice is reused after Reset.
func (t *Trace) Values() []float64 { return t.values }

// Standard is the metric set reported by headless runs.
func Standard() []sim.Metric {
	return []sim.Metric{
		NewKineticEnergy(),
		NewEnergyDrift(),
		NewStability(5),
		NewCollisionRate(),
		NewFieldPeak(),
	}
}
