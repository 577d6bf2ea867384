package sim_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/swarmfield/internal/config"
	"github.com/san-kum/swarmfield/internal/dynamo"
	"github.com/san-kum/swarmfield/internal/sim"
)

const dt = 1.0 / 60

type stepCounter struct {
	steps []int
}

func (c *stepCounter) Name() string          { return "steps" }
func (c *stepCounter) Observe(f *sim.Frame)  { c.steps = append(c.steps, f.Step) }
func (c *stepCounter) Value() float64        { return float64(len(c.steps)) }
func (c *stepCounter) Reset()                { c.steps = c.steps[:0] }
func (c *stepCounter) OnStep(f *sim.Frame)   { c.Observe(f) }

func newSim(mutate func(*config.Config)) *sim.Simulation {
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	s, err := sim.New(cfg)
	Expect(err).NotTo(HaveOccurred())
	return s
}

var _ = Describe("Simulation", func() {
	Describe("New", func() {
		It("spawns the configured swarm inside the spawn box", func() {
			s := newSim(func(c *config.Config) { c.Swarm.Particles = 20 })
			ps := s.Particles()

			Expect(ps).To(HaveLen(20))
			for i, p := range ps {
				Expect(p.ID).To(Equal(i))
				Expect(math.Abs(p.Pos.X)).To(BeNumerically("<=", config.DefaultSpawnRange))
				Expect(math.Abs(p.Pos.Y)).To(BeNumerically("<=", config.DefaultSpawnRange))
				Expect(p.Pos.Z).To(Equal(config.DefaultSpawnHeight))
				Expect(r3.Norm(p.Vel)).To(BeNumerically("<=", config.DefaultSpawnSpeed))
			}
		})

		It("rejects an invalid configuration", func() {
			cfg := config.DefaultConfig()
			cfg.Swarm.Particles = 0
			_, err := sim.New(cfg)
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
		})

		It("starts with a flat field", func() {
			s := newSim(nil)
			h, err := s.HeightAt(r3.Vec{X: 1, Y: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(h).To(BeZero())

			g, err := s.GradientAt(r3.Vec{X: -5})
			Expect(err).NotTo(HaveOccurred())
			Expect(g).To(Equal(r3.Vec{}))
		})
	})

	Describe("Tick", func() {
		It("advances time and records one deformation per particle", func() {
			s := newSim(func(c *config.Config) { c.Swarm.Particles = 10 })
			for i := 0; i < 30; i++ {
				Expect(s.Tick(dt)).To(Succeed())
			}

			Expect(s.Steps()).To(Equal(30))
			Expect(s.Time()).To(BeNumerically("~", 30*dt, 1e-12))
			stats := s.FieldStats()
			Expect(stats.Records).To(Equal(300))
			Expect(stats.Kernels.Size).To(Equal(1))
			Expect(stats.Kernels.Misses).To(Equal(1))
			Expect(stats.Kernels.Hits).To(Equal(299))
		})

		It("raises the terrain under the swarm", func() {
			s := newSim(func(c *config.Config) { c.Swarm.Particles = 1 })
			pos := s.Particles()[0].Pos
			Expect(s.Tick(dt)).To(Succeed())

			h, err := s.HeightAt(pos)
			Expect(err).NotTo(HaveOccurred())
			Expect(h).To(BeNumerically(">", 0))
		})

		It("is deterministic for a given seed", func() {
			a := newSim(func(c *config.Config) { c.Seed = 9 })
			b := newSim(func(c *config.Config) { c.Seed = 9 })
			for i := 0; i < 120; i++ {
				Expect(a.Tick(dt)).To(Succeed())
				Expect(b.Tick(dt)).To(Succeed())
			}
			Expect(a.Particles()).To(Equal(b.Particles()))
			Expect(a.LastCollision()).To(Equal(b.LastCollision()))
		})

		It("separates coincident particles", func() {
			s := newSim(func(c *config.Config) { c.Swarm.Particles = 2 })
			Expect(s.Respawn(0, r3.Vec{X: 3, Y: 3, Z: 5})).To(Succeed())
			Expect(s.Respawn(1, r3.Vec{X: 3, Y: 3, Z: 5})).To(Succeed())

			Expect(s.Tick(dt)).To(Succeed())

			ps := s.Particles()
			Expect(r3.Norm(r3.Sub(ps[0].Pos, ps[1].Pos))).To(BeNumerically(">=", 1.0))
			Expect(s.LastCollision().Detected).To(Equal(1))
			Expect(s.LastCollision().Unresolved).To(BeZero())
		})

		It("rejects a negative dt without halting", func() {
			s := newSim(nil)
			Expect(s.Tick(-1)).To(MatchError(dynamo.ErrInvalidConfig))
			Expect(s.Err()).NotTo(HaveOccurred())
			Expect(s.Tick(dt)).To(Succeed())
		})

		It("notifies metrics and observers after every tick", func() {
			s := newSim(func(c *config.Config) { c.Swarm.Particles = 3 })
			m, o := &stepCounter{}, &stepCounter{}
			s.AddMetric(m)
			s.AddObserver(o)

			for i := 0; i < 5; i++ {
				Expect(s.Tick(dt)).To(Succeed())
			}
			Expect(m.steps).To(Equal([]int{1, 2, 3, 4, 5}))
			Expect(o.steps).To(Equal(m.steps))
		})
	})

	Describe("bounds failures", func() {
		It("halts when a particle leaves the field", func() {
			s := newSim(func(c *config.Config) { c.Swarm.Particles = 4 })
			Expect(s.Tick(dt)).To(Succeed())
			Expect(s.Respawn(2, r3.Vec{X: 1000})).To(Succeed())

			err := s.Tick(dt)
			Expect(err).To(MatchError(dynamo.ErrOutOfBounds))
			Expect(err).To(MatchError(dynamo.ErrHalted))

			var halted *dynamo.HaltedError
			Expect(errors.As(err, &halted)).To(BeTrue())
			Expect(halted.Step).To(Equal(1))

			Expect(s.Tick(dt)).To(MatchError(err))
			Expect(s.Err()).To(MatchError(err))
			Expect(s.Steps()).To(Equal(1))
		})

		It("halts on a non-finite particle before touching the field", func() {
			s := newSim(func(c *config.Config) { c.Swarm.Particles = 3 })
			Expect(s.Respawn(1, r3.Vec{X: math.NaN(), Z: 20})).To(Succeed())

			err := s.Tick(dt)
			Expect(err).To(MatchError(dynamo.ErrNonFinite))
			Expect(err).To(MatchError(dynamo.ErrHalted))
			Expect(errors.Is(err, dynamo.ErrOutOfBounds)).To(BeFalse())
			Expect(s.FieldStats().Records).To(BeZero())
			Expect(s.Steps()).To(BeZero())
		})

		It("does not clamp an oversized step", func() {
			s := newSim(nil)
			Expect(s.Tick(1000)).To(Succeed())
			Expect(s.Tick(dt)).To(MatchError(dynamo.ErrOutOfBounds))
		})

		It("fails queries outside the field", func() {
			s := newSim(nil)
			_, err := s.HeightAt(r3.Vec{Y: -500})
			Expect(err).To(MatchError(dynamo.ErrOutOfBounds))
			_, err = s.GradientAt(r3.Vec{Y: -500})
			Expect(err).To(MatchError(dynamo.ErrOutOfBounds))
			Expect(s.Err()).NotTo(HaveOccurred())
		})
	})

	Describe("presets", func() {
		for _, name := range config.ListPresets() {
			It("keeps the "+name+" swarm on the terrain", func() {
				cfg := config.GetPreset(name)
				s, err := sim.New(cfg)
				Expect(err).NotTo(HaveOccurred())

				for i := 0; i < 300; i++ {
					Expect(s.Tick(cfg.Run.Dt)).To(Succeed(), "preset %s, tick %d", name, i)
				}
				Expect(s.Err()).NotTo(HaveOccurred())
			})
		}
	})

	Describe("host actions", func() {
		var s *sim.Simulation

		BeforeEach(func() {
			s = newSim(func(c *config.Config) { c.Swarm.Particles = 6 })
		})

		It("respawns a particle at rest", func() {
			Expect(s.Tick(dt)).To(Succeed())
			Expect(s.Respawn(4, r3.Vec{X: 1, Y: -1, Z: 20})).To(Succeed())

			p := s.Particles()[4]
			Expect(p.Pos).To(Equal(r3.Vec{X: 1, Y: -1, Z: 20}))
			Expect(p.Vel).To(Equal(r3.Vec{}))
		})

		It("rejects unknown particle ids", func() {
			Expect(s.Respawn(6, r3.Vec{})).To(MatchError(dynamo.ErrUnknownParticle))
			Expect(s.Respawn(-1, r3.Vec{})).To(MatchError(dynamo.ErrUnknownParticle))
			Expect(s.RespawnRandom(99)).To(MatchError(dynamo.ErrUnknownParticle))
		})

		It("respawns at random inside the spawn box", func() {
			Expect(s.RespawnRandom(0)).To(Succeed())
			p := s.Particles()[0]
			Expect(math.Abs(p.Pos.X)).To(BeNumerically("<=", config.DefaultSpawnRange))
			Expect(p.Pos.Z).To(Equal(config.DefaultSpawnHeight))
			Expect(p.Vel).To(Equal(r3.Vec{}))

			s.RespawnAll()
			for _, p := range s.Particles() {
				Expect(p.Vel).To(Equal(r3.Vec{}))
			}
		})

		It("flattens the terrain", func() {
			for i := 0; i < 60; i++ {
				Expect(s.Tick(dt)).To(Succeed())
			}
			s.Flatten()
			Expect(s.FieldStats().Records).To(BeZero())

			for _, p := range s.Particles() {
				h, err := s.HeightAt(p.Pos)
				Expect(err).NotTo(HaveOccurred())
				Expect(h).To(BeNumerically("~", 0, 1e-9))
			}
		})

		It("returns a copy of the swarm", func() {
			ps := s.Particles()
			ps[0].Pos = r3.Vec{X: 99}
			Expect(s.Particles()[0].Pos).NotTo(Equal(r3.Vec{X: 99}))
		})
	})
})
