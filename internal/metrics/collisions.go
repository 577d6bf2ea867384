package metrics

import "github.com/san-kum/swarmfield/internal/sim"

// CollisionRate is the mean number of overlapping pairs detected per tick.
type CollisionRate struct {
	name    string
	sum     int
	samples int
}

func NewCollisionRate() *CollisionRate {
	return &CollisionRate{name: "collision_rate"}
}

func (c *CollisionRate) Name() string {
	return c.name
}

func (c *CollisionRate) Observe(f *sim.Frame) {
	c.sum += f.Collision.Detected
	c.samples++
}

func (c *CollisionRate) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return float64(c.sum) / float64(c.samples)
}

func (c *CollisionRate) Reset() {
	c.sum = 0
	c.samples = 0
}

// FieldPeak tracks the highest absolute terrain value seen.
type FieldPeak struct {
	name string
	peak float64
}

func NewFieldPeak() *FieldPeak {
	return &FieldPeak{name: "field_peak"}
}

func (p *FieldPeak) Name() string { return p.name }

func (p *FieldPeak) Observe(f *sim.Frame) {
	if v := f.FieldPeak(); v > p.peak {
		p.peak = v
	}
}

func (p *FieldPeak) Value() float64 { return p.peak }
func (p *FieldPeak) Reset()         { p.peak = 0 }
