package sim_test

import (
	"io"
	"log/slog"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/collision"
	"github.com/san-kum/partsim/internal/dynamo"
	"github.com/san-kum/partsim/internal/sim"
)

func kinetic(ps []dynamo.Particle, h float64) float64 {
	e := 0.0
	for i := range ps {
		v := r2.Scale(1/h, ps[i].Velocity())
		e += 0.5 * r2.Norm2(v)
	}
	return e
}

func maxOverlap(ps []dynamo.Particle) float64 {
	worst := 0.0
	for i := range ps {
		for j := i + 1; j < len(ps); j++ {
			worst = math.Max(worst, collision.Overlap(&ps[i], &ps[j]))
		}
	}
	return worst
}

var _ = Describe("Solver", func() {
	var (
		cfg    sim.Config
		solver *sim.Solver
	)

	BeforeEach(func() {
		cfg = sim.DefaultConfig(r2.Vec{X: 400, Y: 400}, 8)
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	})

	JustBeforeEach(func() {
		var err error
		solver, err = sim.New(cfg)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(solver.Close)
	})

	Describe("a single particle", func() {
		It("comes to rest on the floor without leaving the box", func() {
			h, err := solver.Spawn(r2.Vec{X: 200, Y: 300}, 8)
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 600; i++ {
				Expect(solver.Update(1.0 / 60)).To(Succeed())
			}

			p, err := solver.Particle(h)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Pos.Y).To(BeNumerically("~", 8, 0.5))
			Expect(p.Pos.X).To(BeNumerically("~", 200, 1e-9))
		})

		It("loses energy on every bounce", func() {
			h, _ := solver.Spawn(r2.Vec{X: 200, Y: 350}, 4)
			sub := 1.0 / 60 / float64(solver.SubSteps())

			energy := func() float64 {
				p, _ := solver.Particle(h)
				return kinetic([]dynamo.Particle{*p}, sub) + cfg.Gravity*p.Pos.Y
			}

			initial := energy()
			previous := initial
			for second := 0; second < 4; second++ {
				for i := 0; i < 60; i++ {
					Expect(solver.Update(1.0 / 60)).To(Succeed())
					Expect(energy()).To(BeNumerically("<=", initial))
				}
				// resting contact jitters by a fraction of g*h^2 per sub-step
				current := energy()
				Expect(current).To(BeNumerically("<=", previous+50))
				previous = current
			}
			Expect(previous).To(BeNumerically("<", initial/4))
		})
	})

	DescribeTable("separating a dense cluster",
		func(strategy collision.Strategy, sequential bool) {
			cfg.Strategy = strategy
			cfg.Sequential = sequential
			cfg.Gravity = 0

			s, err := sim.New(cfg)
			Expect(err).NotTo(HaveOccurred())
			defer s.Close()

			for i := 0; i < 100; i++ {
				x := 150 + float64(i%10)*10
				y := 150 + float64(i/10)*10
				_, err := s.Spawn(r2.Vec{X: x, Y: y}, 7)
				Expect(err).NotTo(HaveOccurred())
			}
			start := maxOverlap(s.Particles())
			Expect(start).To(BeNumerically(">", 3))

			for i := 0; i < 60; i++ {
				Expect(s.Update(1.0 / 60)).To(Succeed())
			}
			Expect(maxOverlap(s.Particles())).To(BeNumerically("<", start/2))
		},
		Entry("brute force", collision.BruteForce, false),
		Entry("fixed grid", collision.FixedGrid, false),
		Entry("spatial hash kernel", collision.SpatialHash, false),
		Entry("spatial hash sequential", collision.SpatialHash, true),
	)

	Context("with drag enabled", func() {
		BeforeEach(func() {
			cfg.Drag = true
			cfg.Gravity = 0
		})

		It("slows a moving particle", func() {
			h, _ := solver.Spawn(r2.Vec{X: 200, Y: 200}, 5)
			p, _ := solver.Particle(h)
			p.SetVelocity(r2.Vec{X: 1})

			Expect(solver.Update(1.0 / 60)).To(Succeed())
			p, _ = solver.Particle(h)
			Expect(p.Velocity().X).To(BeNumerically("<", 1))
			Expect(p.Velocity().Y).To(BeNumerically("~", 0, 1e-12))
		})
	})

	It("rejects particles larger than the grid was sized for", func() {
		_, err := solver.Spawn(r2.Vec{X: 10, Y: 10}, 9)
		Expect(err).To(MatchError(dynamo.ErrRadiusTooLarge))
		Expect(solver.Len()).To(BeZero())
	})
})
