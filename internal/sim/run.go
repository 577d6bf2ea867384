package sim

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Run ticks the simulation steps times with a fixed dt, checking ctx between
// ticks. Metrics are reset first. On failure the partial result is returned
// with the error.
func (s *Simulation) Run(ctx context.Context, steps int, dt float64) (*Result, error) {
	if steps < 0 {
		return nil, fmt.Errorf("steps must not be negative, got %d", steps)
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	result := &Result{
		Seed:    s.cfg.Seed,
		Metrics: make(map[string]float64, len(s.metrics)),
	}
	start := time.Now()

	var err error
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			err = ctx.Err()
		default:
			err = s.Tick(dt)
		}
		if err != nil {
			break
		}
		result.Steps++
		result.Collisions += s.last.Detected
		result.Unresolved += s.last.Unresolved
	}

	result.Elapsed = time.Since(start)
	result.Time = s.time
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	s.logger.Debug("run finished",
		zap.Int("steps", result.Steps),
		zap.Duration("elapsed", result.Elapsed),
		zap.Error(err),
	)
	return result, err
}
