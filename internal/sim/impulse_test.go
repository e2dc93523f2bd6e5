package sim_test

import (
	"math/rand/v2"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/shapesim/internal/geom"
	"github.com/san-kum/shapesim/internal/sim"
)

var _ = Describe("ImpulseClock", func() {
	It("fires when the period is crossed and keeps the remainder", func() {
		c := sim.NewImpulseClock(1)
		Expect(c.Advance(0.4)).To(BeFalse())
		Expect(c.Advance(0.4)).To(BeFalse())
		Expect(c.Advance(0.4)).To(BeTrue())
		Expect(c.Elapsed()).To(BeNumerically("~", 0.2, 1e-6))
		Expect(c.Fires()).To(Equal(1))
	})

	It("fires at most once for a long tick", func() {
		c := sim.NewImpulseClock(1)
		Expect(c.Advance(3.5)).To(BeTrue())
		Expect(c.Fires()).To(Equal(1))
		Expect(c.Elapsed()).To(BeNumerically("~", 0.5, 1e-6))
		Expect(c.Advance(0.1)).To(BeFalse())
	})
})

var _ = Describe("RandomSource", func() {
	It("reproduces the same stream for the same seed", func() {
		a := sim.NewRandomSource(sim.SeedFromInt64(42))
		b := sim.NewRandomSource(sim.SeedFromInt64(42))
		for i := 0; i < 100; i++ {
			Expect(a.Float32()).To(Equal(b.Float32()))
			Expect(a.IntN(6)).To(Equal(b.IntN(6)))
		}
	})

	It("differs between seeds", func() {
		a := sim.NewRandomSource(sim.SeedFromInt64(1))
		b := sim.NewRandomSource(sim.SeedFromInt64(2))
		same := 0
		for i := 0; i < 32; i++ {
			if a.Float32() == b.Float32() {
				same++
			}
		}
		Expect(same).To(BeNumerically("<", 32))
	})

	It("samples uniform values inside [lo, hi)", func() {
		r := sim.NewRandomSource(sim.SeedFromInt64(3))
		for i := 0; i < 1000; i++ {
			v := r.Uniform(-200, 200)
			Expect(v).To(BeNumerically(">=", -200))
			Expect(v).To(BeNumerically("<", 200))
		}
		Expect(r.Uniform(5, 5)).To(Equal(float32(5)))
	})

	It("keeps scoped draws atomic under concurrent access", func() {
		r := sim.NewRandomSource(sim.SeedFromInt64(9))
		ref := rand.New(rand.NewChaCha8(sim.SeedFromInt64(9)))

		pairs := make(chan [2]float32, 400)
		var wg sync.WaitGroup
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					var p [2]float32
					r.Draw(func(rr *rand.Rand) {
						p[0] = rr.Float32()
						p[1] = rr.Float32()
					})
					pairs <- p
				}
			}()
		}
		wg.Wait()
		close(pairs)

		expected := make(map[[2]float32]bool, 400)
		for i := 0; i < 400; i++ {
			expected[[2]float32{ref.Float32(), ref.Float32()}] = true
		}
		for p := range pairs {
			Expect(expected).To(HaveKey(p))
		}
	})
})

var _ = Describe("ImpulseInjector", func() {
	var (
		w        *sim.World
		rng      *sim.RandomSource
		opts     sim.ImpulseOptions
		kickable []*sim.Entity
		inert    *sim.Entity
	)

	BeforeEach(func() {
		w = sim.NewWorld(arena)
		rng = sim.NewRandomSource(sim.SeedFromInt64(11))
		opts = sim.ImpulseOptions{Period: 1, Probability: 1, MinSpeed: 100, MaxSpeed: 200}
		kickable = nil
		for i := 0; i < 20; i++ {
			e, err := w.Spawn(sim.EntitySpec{
				Shape:     geom.Circle{Radius: 5},
				Velocity:  sim.Vec2{1, 2},
				Friction:  0.9,
				Impulsive: true,
			})
			Expect(err).NotTo(HaveOccurred())
			kickable = append(kickable, e)
		}
		var err error
		inert, err = w.Spawn(sim.EntitySpec{Shape: geom.Circle{Radius: 5}, Velocity: sim.Vec2{3, 4}, Friction: 0.9})
		Expect(err).NotTo(HaveOccurred())
	})

	It("does nothing until the clock fires", func() {
		inj := sim.NewImpulseInjector(sim.NewImpulseClock(1), rng, opts, nil)
		inj.Apply(w, 0.5)
		for _, e := range kickable {
			Expect(e.Motion.Velocity).To(Equal(sim.Vec2{1, 2}))
		}
		Expect(inj.Fires()).To(BeZero())
	})

	It("replaces velocity within the magnitude range with both signs", func() {
		inj := sim.NewImpulseInjector(sim.NewImpulseClock(1), rng, opts, nil)
		inj.Apply(w, 1)
		Expect(inj.Fires()).To(Equal(1))

		signs := map[bool]int{}
		for _, e := range kickable {
			for _, c := range e.Motion.Velocity {
				mag := c
				if mag < 0 {
					mag = -mag
				}
				Expect(mag).To(BeNumerically(">=", 100))
				Expect(mag).To(BeNumerically("<", 200))
				signs[c < 0]++
			}
		}
		Expect(signs[true]).To(BeNumerically(">", 0))
		Expect(signs[false]).To(BeNumerically(">", 0))
		Expect(inert.Motion.Velocity).To(Equal(sim.Vec2{3, 4}))
	})

	It("never selects with probability zero", func() {
		opts.Probability = 0
		inj := sim.NewImpulseInjector(sim.NewImpulseClock(1), rng, opts, nil)
		inj.Apply(w, 1)
		for _, e := range kickable {
			Expect(e.Motion.Velocity).To(Equal(sim.Vec2{1, 2}))
		}
	})

	It("leaves unselected entities bit-identical", func() {
		opts.Probability = 0.4
		inj := sim.NewImpulseInjector(sim.NewImpulseClock(1), rng, opts, nil)
		inj.Apply(w, 1)

		changed := 0
		for _, e := range kickable {
			if e.Motion.Velocity == (sim.Vec2{1, 2}) {
				continue
			}
			changed++
			Expect(e.Motion.Velocity[0]).To(Or(
				BeNumerically("<=", -100), BeNumerically(">=", 100)))
		}
		Expect(changed).To(BeNumerically(">", 0))
		Expect(changed).To(BeNumerically("<", len(kickable)))
	})
})
