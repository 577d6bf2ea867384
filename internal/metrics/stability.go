package metrics

import "github.com/san-kum/swarmfield/internal/sim"

// Stability is the fraction of ticks in which every particle stayed within
// threshold of the anchor's idle shell.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(f *sim.Frame) {
	s.samples++
	if MaxShellDeviation(f.Particles, f.Anchor) > s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
