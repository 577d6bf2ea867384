package sim

import (
	"context"
	"runtime"

	"github.com/san-kum/swarmfield/internal/config"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Ensemble runs independent copies of a configuration with consecutive
// seeds. Each simulation stays on its own goroutine.
type Ensemble struct {
	cfg        config.Config
	numRuns    int
	seedStart  int64
	newMetrics MetricFactory
	logger     *zap.Logger
}

func NewEnsemble(cfg *config.Config, numRuns int, newMetrics MetricFactory, logger *zap.Logger) *Ensemble {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ensemble{
		cfg:        *cfg,
		numRuns:    numRuns,
		seedStart:  cfg.Seed,
		newMetrics: newMetrics,
		logger:     logger,
	}
}

// Run returns one result per seed, in seed order. The first failing run
// cancels the others.
func (e *Ensemble) Run(ctx context.Context, steps int, dt float64) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := 0; i < e.numRuns; i++ {
		g.Go(func() error {
			cfg := e.cfg
			cfg.Seed = e.seedStart + int64(i)

			s, err := New(&cfg, WithLogger(e.logger.With(zap.Int("run", i))))
			if err != nil {
				return err
			}
			if e.newMetrics != nil {
				for _, m := range e.newMetrics() {
					s.AddMetric(m)
				}
			}

			results[i], err = s.Run(gctx, steps, dt)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
