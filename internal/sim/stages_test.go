package sim_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/shapesim/internal/geom"
	"github.com/san-kum/shapesim/internal/sim"
)

var arena = sim.Arena{Width: 1080, Height: 720}

func spawn(w *sim.World, shape geom.Shape, pos, vel sim.Vec2, friction float32) *sim.Entity {
	e, err := w.Spawn(sim.EntitySpec{Shape: shape, Position: pos, Velocity: vel, Friction: friction})
	Expect(err).NotTo(HaveOccurred())
	return e
}

var _ = Describe("FrictionIntegrator", func() {
	It("never increases speed", func() {
		for _, friction := range []float32{0.05, 0.5, 0.9, 0.999} {
			for _, dt := range []float32{1.0 / 120, 1.0 / 60, 0.25, 1} {
				m := sim.MotionState{Velocity: sim.Vec2{120, -80}, Friction: friction}
				after := sim.Decay(m, dt, sim.DefaultRestEpsilon)
				Expect(after.Len()).To(BeNumerically("<", m.Velocity.Len()))
			}
		}
	})

	It("keeps a zero velocity at zero", func() {
		after := sim.Decay(sim.MotionState{Friction: 0.5}, 0.1, sim.DefaultRestEpsilon)
		Expect(after).To(Equal(sim.Vec2{}))
	})

	It("decays by friction^dt", func() {
		after := sim.Decay(sim.MotionState{Velocity: sim.Vec2{100, 0}, Friction: 0.25}, 0.5, 0)
		Expect(after[0]).To(BeNumerically("~", 50, 1e-3))
	})

	It("does not depend on how time is sliced", func() {
		m := sim.MotionState{Velocity: sim.Vec2{100, 50}, Friction: 0.9}
		once := sim.Decay(m, 1, 0)

		sliced := m
		for i := 0; i < 60; i++ {
			sliced.Velocity = sim.Decay(sliced, 1.0/60, 0)
		}
		Expect(sliced.Velocity[0]).To(BeNumerically("~", once[0], 1e-2))
		Expect(sliced.Velocity[1]).To(BeNumerically("~", once[1], 1e-2))
	})

	It("snaps slow entities to exactly zero", func() {
		w := sim.NewWorld(arena)
		e := spawn(w, geom.Circle{Radius: 1}, sim.Vec2{}, sim.Vec2{0.008, 0.006}, 0.99)
		sim.NewFrictionIntegrator(sim.DefaultRestEpsilon).Apply(w, 0.01)
		Expect(e.Motion.Velocity).To(Equal(sim.Vec2{0, 0}))
	})

	It("leaves velocity untouched with friction 1", func() {
		w := sim.NewWorld(arena)
		e := spawn(w, geom.Circle{Radius: 1}, sim.Vec2{}, sim.Vec2{200, -3}, 1)
		sim.NewFrictionIntegrator(sim.DefaultRestEpsilon).Apply(w, 0.5)
		Expect(e.Motion.Velocity).To(Equal(sim.Vec2{200, -3}))
	})
})

var _ = Describe("BoundaryReflector", func() {
	var (
		w *sim.World
		r *sim.BoundaryReflector
	)

	BeforeEach(func() {
		w = sim.NewWorld(arena)
		r = sim.NewBoundaryReflector()
	})

	It("flips a circle touching the right wall", func() {
		const radius = 50
		e := spawn(w, geom.Circle{Radius: radius}, sim.Vec2{540 - radius + 0.5, 0}, sim.Vec2{120, 30}, 1)
		r.Apply(w, 1.0/60)
		Expect(e.Motion.Velocity).To(Equal(sim.Vec2{-120, 30}))
		Expect(r.Reflections()).To(Equal(1))
	})

	It("flips at the left and bottom walls", func() {
		e := spawn(w, geom.Circle{Radius: 10}, sim.Vec2{-535, -355}, sim.Vec2{-40, -70}, 1)
		r.Apply(w, 1.0/60)
		Expect(e.Motion.Velocity).To(Equal(sim.Vec2{40, 70}))
		Expect(r.Reflections()).To(Equal(2))
	})

	It("flips both axes in a corner", func() {
		e := spawn(w, geom.Rectangle{Width: 100, Height: 100}, sim.Vec2{500, 330}, sim.Vec2{10, 20}, 1)
		r.Apply(w, 1.0/60)
		Expect(e.Motion.Velocity).To(Equal(sim.Vec2{-10, -20}))
	})

	It("does nothing inside the arena", func() {
		e := spawn(w, geom.Circle{Radius: 50}, sim.Vec2{400, 0}, sim.Vec2{200, 200}, 1)
		r.Apply(w, 1.0/60)
		Expect(e.Motion.Velocity).To(Equal(sim.Vec2{200, 200}))
		Expect(r.Reflections()).To(BeZero())
	})

	It("keeps an overshooting entity heading inward", func() {
		e := spawn(w, geom.Circle{Radius: 50}, sim.Vec2{560, 0}, sim.Vec2{-200, 0}, 1)
		r.Apply(w, 1.0/60)
		Expect(e.Motion.Velocity).To(Equal(sim.Vec2{-200, 0}))
		Expect(r.Reflections()).To(BeZero())
	})

	It("uses half the rectangle width", func() {
		inside := spawn(w, geom.Rectangle{Width: 100, Height: 10}, sim.Vec2{485, 0}, sim.Vec2{10, 0}, 1)
		outside := spawn(w, geom.Rectangle{Width: 100, Height: 10}, sim.Vec2{495, 0}, sim.Vec2{10, 0}, 1)
		r.Apply(w, 1.0/60)
		Expect(inside.Motion.Velocity[0]).To(Equal(float32(10)))
		Expect(outside.Motion.Velocity[0]).To(Equal(float32(-10)))
	})

	It("tests each side of a triangle against its own vertices", func() {
		tri := geom.Triangle{A: sim.Vec2{0, 10}, B: sim.Vec2{20, -5}, C: sim.Vec2{5, 30}}
		right := spawn(w, tri, sim.Vec2{530, 0}, sim.Vec2{10, 0}, 1)
		// min x is 0, so the left wall is not reached at -535
		left := spawn(w, tri, sim.Vec2{-535, 0}, sim.Vec2{-10, 0}, 1)
		r.Apply(w, 1.0/60)
		Expect(right.Motion.Velocity[0]).To(Equal(float32(-10)))
		Expect(left.Motion.Velocity[0]).To(Equal(float32(-10)))
	})

	It("negates when a shape is wider than the arena", func() {
		small := sim.NewWorld(sim.Arena{Width: 50, Height: 500})
		e := spawn(small, geom.Circle{Radius: 40}, sim.Vec2{}, sim.Vec2{7, 0}, 1)
		r.Apply(small, 1.0/60)
		Expect(e.Motion.Velocity[0]).To(Equal(float32(-7)))
	})
})

var _ = Describe("PositionIntegrator", func() {
	It("advances by velocity times dt", func() {
		w := sim.NewWorld(arena)
		e := spawn(w, geom.Circle{Radius: 5}, sim.Vec2{10, -10}, sim.Vec2{200, -100}, 1)
		sim.NewPositionIntegrator().Apply(w, 0.25)
		Expect(e.Transform.Position).To(Equal(sim.Vec2{60, -35}))
	})
})

var _ = Describe("Stages on an empty world", func() {
	It("are no-ops", func() {
		w := sim.NewWorld(arena)
		rng := sim.NewRandomSource(sim.SeedFromInt64(1))
		clock := sim.NewImpulseClock(0.1)
		stages := []sim.Stage{
			sim.NewImpulseInjector(clock, rng, sim.DefaultOptions().Impulse, nil),
			sim.NewFrictionIntegrator(0.01),
			sim.NewBoundaryReflector(),
			sim.NewPositionIntegrator(),
		}
		for _, st := range stages {
			Expect(func() { st.Apply(w, 1) }).NotTo(Panic())
		}
		Expect(w.Len()).To(BeZero())
	})
})

var _ = Describe("ParallelFor", func() {
	It("covers every index exactly once", func() {
		const n = 10007
		hits := make([]int32, n)
		sim.ParallelFor(n, 64, func(start, end int) {
			for i := start; i < end; i++ {
				hits[i]++
			}
		})
		for i := range hits {
			Expect(hits[i]).To(Equal(int32(1)))
		}
	})

	It("handles an empty range", func() {
		called := 0
		sim.ParallelFor(0, 64, func(start, end int) { called += end - start })
		Expect(called).To(BeZero())
	})
})

var _ = Describe("Large worlds", func() {
	It("reflect and move every entity when iterated in parallel", func() {
		w := sim.NewWorld(arena)
		for i := 0; i < 3000; i++ {
			x := float32(math.Mod(float64(i)*7.3, 1000)) - 500
			spawn(w, geom.Circle{Radius: 45}, sim.Vec2{x, 0}, sim.Vec2{100, 0}, 1)
		}
		sim.NewBoundaryReflector().Apply(w, 0.1)
		sim.NewPositionIntegrator().Apply(w, 0.1)
		for _, e := range w.Entities() {
			if e.Transform.Position[0]-10 > 540-45 {
				Expect(e.Motion.Velocity[0]).To(BeNumerically("<", 0))
			}
		}
	})
})
