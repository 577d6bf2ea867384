package sim_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/swarmfield/internal/config"
	"github.com/san-kum/swarmfield/internal/sim"
)

var _ = Describe("Run", func() {
	It("ticks the requested number of steps and collects metrics", func() {
		s := newSim(func(c *config.Config) { c.Swarm.Particles = 8 })
		m := &stepCounter{}
		s.AddMetric(m)

		res, err := s.Run(context.Background(), 90, dt)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Steps).To(Equal(90))
		Expect(res.Time).To(BeNumerically("~", 90*dt, 1e-12))
		Expect(res.Metrics).To(HaveKeyWithValue("steps", 90.0))
		Expect(res.Seed).To(Equal(int64(config.DefaultSeed)))
	})

	It("stops when the context is cancelled", func() {
		s := newSim(nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		res, err := s.Run(ctx, 100, dt)
		Expect(err).To(MatchError(context.Canceled))
		Expect(res.Steps).To(BeZero())
		Expect(s.Steps()).To(BeZero())
	})

	It("rejects a negative step count", func() {
		_, err := newSim(nil).Run(context.Background(), -1, dt)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Ensemble", func() {
	It("runs one simulation per seed in seed order", func() {
		cfg := config.DefaultConfig()
		cfg.Seed = 100
		cfg.Swarm.Particles = 6

		factory := func() []sim.Metric { return []sim.Metric{&stepCounter{}} }
		results, err := sim.NewEnsemble(cfg, 4, factory, nil).Run(context.Background(), 40, dt)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(4))

		for i, r := range results {
			Expect(r.Seed).To(Equal(int64(100 + i)))
			Expect(r.Steps).To(Equal(40))
			Expect(r.Metrics).To(HaveKeyWithValue("steps", 40.0))
		}
	})

	It("matches a standalone run of the same seed", func() {
		cfg := config.DefaultConfig()
		cfg.Seed = 5
		cfg.Swarm.Particles = 16

		results, err := sim.NewEnsemble(cfg, 2, nil, nil).Run(context.Background(), 50, dt)
		Expect(err).NotTo(HaveOccurred())

		alone, err := sim.New(cfg)
		Expect(err).NotTo(HaveOccurred())
		res, err := alone.Run(context.Background(), 50, dt)
		Expect(err).NotTo(HaveOccurred())
		Expect(results[0].Collisions).To(Equal(res.Collisions))
		Expect(results[0].Unresolved).To(Equal(res.Unresolved))
	})

	It("reports the first failure", func() {
		cfg := config.DefaultConfig()
		cfg.Swarm.Particles = 0

		_, err := sim.NewEnsemble(cfg, 3, nil, nil).Run(context.Background(), 10, dt)
		Expect(err).To(HaveOccurred())
	})
})
