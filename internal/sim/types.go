package sim

import (
	"time"

	"github.com/san-kum/swarmfield/internal/field"
	"github.com/san-kum/swarmfield/internal/physics"
)

// Frame is the state of a simulation right after a tick. Particles aliases
// the simulation's own storage and is only valid during the callback.
type Frame struct {
	Step      int
	Time      float64
	Dt        float64
	Particles []physics.Particle
	Anchor    physics.Anchor
	Collision physics.Report

	field *field.DeformableField
}

// FieldPeak returns the largest absolute field height. It scans every
// allocated tile, so metrics should call it at most once per frame.
func (f *Frame) FieldPeak() float64 {
	if f.field == nil {
		return 0
	}
	v, _ := f.field.Peak()
	return v
}

// FieldStats reports the deformation history and kernel cache.
func (f *Frame) FieldStats() FieldStats {
	if f.field == nil {
		return FieldStats{}
	}
	return statsOf(f.field)
}

type FieldStats struct {
	Records int
	Tiles   int
	Kernels field.CacheStats
}

func statsOf(df *field.DeformableField) FieldStats {
	return FieldStats{
		Records: df.Records(),
		Tiles:   df.TouchedTiles(),
		Kernels: df.KernelStats(),
	}
}

type Metric interface {
	Name() string
	Observe(f *Frame)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(f *Frame)
}

// MetricFactory builds a fresh set of metrics for one simulation.
type MetricFactory func() []Metric

type Result struct {
	Seed       int64
	Steps      int
	Time       float64
	Elapsed    time.Duration
	Collisions int
	Unresolved int
	Metrics    map[string]float64
}

// TicksPerSecond is the wall-clock tick rate of the run.
func (r *Result) TicksPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Steps) / r.Elapsed.Seconds()
}
