package sim_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/shapesim/internal/geom"
	"github.com/san-kum/shapesim/internal/sim"
)

type meshMap map[sim.EntityID]geom.RawMesh

func (m meshMap) Mesh(e *sim.Entity) (geom.RawMesh, bool) {
	raw, ok := m[e.ID]
	return raw, ok
}

// squareMeshes gives every entity a unit square with an interior vertex.
type squareMeshes struct{}

func (squareMeshes) Mesh(e *sim.Entity) (geom.RawMesh, bool) {
	return geom.RawMesh{{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0}, {0, 0, 5}}, true
}

type countingObserver struct{ ticks []int }

func (o *countingObserver) OnStep(w *sim.World, tick int, t float64) {
	o.ticks = append(o.ticks, tick)
}

type speedMetric struct {
	samples int
	last    float64
}

func (m *speedMetric) Name() string { return "speed" }
func (m *speedMetric) Observe(w *sim.World, t float64) {
	m.samples++
	if w.Len() > 0 {
		m.last = float64(w.Entities()[0].Motion.Velocity.Len())
	}
}
func (m *speedMetric) Value() float64 { return m.last }
func (m *speedMetric) Reset()         { m.samples, m.last = 0, 0 }

func newSim(seed int64) *sim.Simulator {
	opts := sim.DefaultOptions()
	opts.Seed = sim.SeedFromInt64(seed)
	s, err := sim.New(opts, nil)
	Expect(err).NotTo(HaveOccurred())
	return s
}

var _ = Describe("Options", func() {
	It("accepts the defaults", func() {
		Expect(sim.DefaultOptions().Validate()).To(Succeed())
	})

	DescribeTable("rejects invalid values",
		func(mutate func(*sim.Options)) {
			opts := sim.DefaultOptions()
			mutate(&opts)
			_, err := sim.New(opts, nil)
			Expect(err).To(MatchError(sim.ErrInvalidConfig))
		},
		Entry("zero arena width", func(o *sim.Options) { o.Arena.Width = 0 }),
		Entry("negative arena height", func(o *sim.Options) { o.Arena.Height = -1 }),
		Entry("zero friction", func(o *sim.Options) { o.Spawn.Friction = 0 }),
		Entry("friction above one", func(o *sim.Options) { o.Spawn.Friction = 1.5 }),
		Entry("zero impulse period", func(o *sim.Options) { o.Impulse.Period = 0 }),
		Entry("probability above one", func(o *sim.Options) { o.Impulse.Probability = 1.5 }),
		Entry("empty speed range", func(o *sim.Options) { o.Impulse.MaxSpeed = 0 }),
		Entry("negative count", func(o *sim.Options) { o.Spawn.Count = -1 }),
		Entry("region outside arena", func(o *sim.Options) { o.Spawn.Region = sim.Vec2{600, 10} }),
		Entry("empty catalog", func(o *sim.Options) { o.Spawn.Catalog = nil }),
		Entry("bad catalog shape", func(o *sim.Options) { o.Spawn.Catalog[0] = geom.Circle{Radius: -5} }),
		Entry("negative rest epsilon", func(o *sim.Options) { o.RestEpsilon = -1 }),
	)

	It("rejects invalid entities", func() {
		w := sim.NewWorld(arena)
		_, err := w.Spawn(sim.EntitySpec{Shape: geom.Circle{Radius: 0}, Friction: 0.5})
		Expect(err).To(MatchError(sim.ErrInvalidConfig))
		Expect(errors.Is(err, geom.ErrInvalidShape)).To(BeTrue())

		_, err = w.Spawn(sim.EntitySpec{Shape: geom.Circle{Radius: 1}, Friction: 0})
		Expect(err).To(MatchError(sim.ErrInvalidConfig))

		_, err = w.Spawn(sim.EntitySpec{Friction: 0.5})
		Expect(err).To(MatchError(sim.ErrInvalidConfig))
		Expect(w.Len()).To(BeZero())
	})
})

var _ = Describe("SpawnPlanner", func() {
	It("spawns the configured roster once", func() {
		s := newSim(5)
		spawned, err := s.Spawn()
		Expect(err).NotTo(HaveOccurred())
		Expect(spawned).To(HaveLen(sim.DefaultSpawnCount))

		for i, e := range spawned {
			Expect(e.ID).To(Equal(sim.EntityID(i + 1)))
			Expect(e.Transform.Depth).To(Equal(float32(i)))
			Expect(e.Impulsive).To(BeTrue())
			Expect(e.NeedsCollider).To(BeTrue())
			Expect(e.Motion.Velocity).To(Equal(sim.Vec2{}))
			Expect(e.Motion.Friction).To(Equal(float32(sim.DefaultFriction)))
			Expect(e.Transform.Position[0]).To(BeNumerically(">=", -sim.DefaultSpawnRegion))
			Expect(e.Transform.Position[0]).To(BeNumerically("<", sim.DefaultSpawnRegion))
			Expect(e.Transform.Position[1]).To(BeNumerically(">=", -sim.DefaultSpawnRegion))
			Expect(e.Transform.Position[1]).To(BeNumerically("<", sim.DefaultSpawnRegion))
		}

		_, err = s.Spawn()
		Expect(err).To(MatchError(sim.ErrAlreadySpawned))
		Expect(s.World().Len()).To(Equal(sim.DefaultSpawnCount))
	})

	It("draws every kind over many slots", func() {
		opts := sim.DefaultOptions()
		opts.Spawn.Count = 300
		opts.Seed = sim.SeedFromInt64(8)
		s, err := sim.New(opts, nil)
		Expect(err).NotTo(HaveOccurred())
		spawned, err := s.Spawn()
		Expect(err).NotTo(HaveOccurred())

		kinds := map[geom.Kind]bool{}
		for _, e := range spawned {
			kinds[e.Shape.Kind()] = true
		}
		Expect(kinds).To(HaveLen(geom.NumKinds))
	})

	It("is reproducible for a seed", func() {
		a, _ := newSim(77).Spawn()
		b, _ := newSim(77).Spawn()
		for i := range a {
			Expect(a[i].Shape).To(Equal(b[i].Shape))
			Expect(a[i].Transform).To(Equal(b[i].Transform))
		}
	})
})

var _ = Describe("AttachColliders", func() {
	var w *sim.World

	BeforeEach(func() {
		w = sim.NewWorld(arena)
		for i := 0; i < 3; i++ {
			_, err := w.Spawn(sim.EntitySpec{Shape: geom.Circle{Radius: 5}, Friction: 1, NeedsCollider: true})
			Expect(err).NotTo(HaveOccurred())
		}
	})

	It("attaches hulls and reports malformed meshes", func() {
		meshes := meshMap{
			1: {{0, 0, 0}, {4, 0, 0}, {4, 3, 0}, {0, 3, 0}, {2, 1, 0}},
			2: {{0, 0, 0}, {1, 1, 0}, {2, 2, 0}},
		}
		report := sim.AttachColliders(w, meshes, nil)
		Expect(report).To(Equal(sim.ColliderReport{Attached: 1, Missing: 1, Degenerate: 1}))

		e1, _ := w.Get(1)
		Expect(e1.NeedsCollider).To(BeFalse())
		Expect(e1.Collider).To(Equal(geom.Polygon{{0, 0}, {4, 0}, {4, 3}, {0, 3}}))
		Expect(e1.Collider.Area()).To(BeNumerically(">", 0))

		for _, id := range []sim.EntityID{2, 3} {
			e, _ := w.Get(id)
			Expect(e.NeedsCollider).To(BeTrue())
			Expect(e.Collider).To(BeNil())
		}
	})

	It("is safe to run again", func() {
		first := sim.AttachColliders(w, squareMeshes{}, nil)
		Expect(first.Attached).To(Equal(3))
		polys := make([]geom.Polygon, 0, 3)
		for _, e := range w.Entities() {
			polys = append(polys, e.Collider.Clone())
			e.NeedsCollider = true
		}

		again := sim.AttachColliders(w, squareMeshes{}, nil)
		Expect(again.Attached).To(Equal(3))
		for i, e := range w.Entities() {
			Expect(e.Collider).To(Equal(polys[i]))
		}

		Expect(sim.AttachColliders(w, squareMeshes{}, nil)).To(Equal(sim.ColliderReport{}))
	})
})

var _ = Describe("Simulator", func() {
	It("runs the stages in impulse, friction, boundary, position order", func() {
		Expect(newSim(1).Stages()).To(Equal([]string{"impulse", "friction", "boundary", "position"}))
	})

	It("bounces a circle off the right wall", func() {
		opts := sim.DefaultOptions()
		opts.Spawn.Count = 0
		s, err := sim.New(opts, nil)
		Expect(err).NotTo(HaveOccurred())

		e, err := s.AddEntity(sim.EntitySpec{
			Shape:    geom.Circle{Radius: 50},
			Position: sim.Vec2{500, 0},
			Velocity: sim.Vec2{200, 0},
			Friction: 1,
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(s.Step(0.5)).To(Succeed())
		Expect(e.Motion.Velocity).To(Equal(sim.Vec2{-200, 0}))
		Expect(e.Transform.Position).To(Equal(sim.Vec2{400, 0}))

		Expect(s.Step(0.5)).To(Succeed())
		Expect(e.Motion.Velocity).To(Equal(sim.Vec2{-200, 0}))
		Expect(e.Transform.Position).To(Equal(sim.Vec2{300, 0}))
		Expect(s.Reflections()).To(Equal(1))
		Expect(s.Tick()).To(Equal(2))
		Expect(s.Time()).To(BeNumerically("~", 1.0, 1e-9))
	})

	It("rejects non-positive elapsed time", func() {
		s := newSim(1)
		Expect(s.Step(0)).To(MatchError(sim.ErrInvalidDelta))
		Expect(s.Step(-0.1)).To(MatchError(sim.ErrInvalidDelta))
		Expect(s.Tick()).To(BeZero())
	})

	It("steps an empty world", func() {
		opts := sim.DefaultOptions()
		opts.Spawn.Count = 0
		s, err := sim.New(opts, nil)
		Expect(err).NotTo(HaveOccurred())
		_, err = s.Spawn()
		Expect(err).NotTo(HaveOccurred())

		result, err := s.Run(context.Background(), sim.RunConfig{Dt: 0.1, Duration: 5})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.StepsTaken).To(Equal(50))
		Expect(result.Fires).To(Equal(3))
	})

	It("validates the run config", func() {
		s := newSim(1)
		_, err := s.Run(context.Background(), sim.RunConfig{Dt: 0, Duration: 1})
		Expect(err).To(HaveOccurred())
		_, err = s.Run(context.Background(), sim.RunConfig{Dt: 0.1, Duration: 0})
		Expect(err).To(HaveOccurred())
	})

	It("stops on context cancellation", func() {
		s := newSim(1)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		result, err := s.Run(ctx, sim.RunConfig{Dt: 0.1, Duration: 5})
		Expect(err).To(MatchError(context.Canceled))
		Expect(result.StepsTaken).To(BeZero())
	})

	It("notifies metrics and observers every tick", func() {
		s := newSim(3)
		_, err := s.Spawn()
		Expect(err).NotTo(HaveOccurred())

		obs := &countingObserver{}
		metric := &speedMetric{}
		s.AddObserver(obs)
		s.AddMetric(metric)

		result, err := s.Run(context.Background(), sim.RunConfig{Dt: 0.1, Duration: 1, Record: true})
		Expect(err).NotTo(HaveOccurred())
		Expect(obs.ticks).To(Equal([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}))
		Expect(metric.samples).To(Equal(10))
		Expect(result.Metrics).To(HaveKey("speed"))
		Expect(result.Frames).To(HaveLen(11))
		Expect(result.Frames[0].Tick).To(BeZero())
		Expect(result.Frames[10].Bodies).To(HaveLen(sim.DefaultSpawnCount))
	})

	It("produces identical trajectories for the same seed", func() {
		run := func(seed int64) *sim.Result {
			s := newSim(seed)
			_, err := s.Spawn()
			Expect(err).NotTo(HaveOccurred())
			s.AttachColliders(squareMeshes{})
			result, err := s.Run(context.Background(), sim.RunConfig{Dt: 1.0 / 60, Duration: 20, Record: true})
			Expect(err).NotTo(HaveOccurred())
			return result
		}

		a, b := run(2024), run(2024)
		Expect(a.Fingerprint).To(Equal(b.Fingerprint))
		Expect(a.Frames).To(Equal(b.Frames))
		Expect(a.Fires).To(BeNumerically(">", 0))

		c := run(2025)
		Expect(c.Fingerprint).NotTo(Equal(a.Fingerprint))
	})

	It("keeps shapes near the arena over a long run", func() {
		opts := sim.DefaultOptions()
		opts.Spawn.Count = 40
		opts.Impulse.Period = 0.5
		opts.Seed = sim.SeedFromInt64(99)
		s, err := sim.New(opts, nil)
		Expect(err).NotTo(HaveOccurred())
		_, err = s.Spawn()
		Expect(err).NotTo(HaveOccurred())

		const dt = float32(1.0 / 60)
		slack := opts.Impulse.MaxSpeed*dt + 1e-3
		hw, hh := opts.Arena.Half()
		escaped := 0
		for i := 0; i < 30*60; i++ {
			Expect(s.Step(dt)).To(Succeed())
			for _, e := range s.World().Entities() {
				b := e.Bounds()
				if b.Max[0] > hw+slack || b.Min[0] < -hw-slack || b.Max[1] > hh+slack || b.Min[1] < -hh-slack {
					escaped++
				}
			}
		}
		Expect(escaped).To(BeZero())
		Expect(s.Reflections()).To(BeNumerically(">", 0))
	})
})

var _ = Describe("Ensemble", func() {
	It("matches standalone runs seed by seed", func() {
		cfg := sim.RunConfig{Dt: 1.0 / 30, Duration: 5}
		prepare := func(s *sim.Simulator) error {
			_, err := s.Spawn()
			return err
		}

		results, err := sim.NewEnsemble(sim.DefaultOptions(), 3, 10, nil).Run(context.Background(), cfg, prepare)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))

		for i, r := range results {
			s := newSim(10 + int64(i))
			Expect(prepare(s)).To(Succeed())
			standalone, err := s.Run(context.Background(), cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Fingerprint).To(Equal(standalone.Fingerprint))
		}
	})

	It("fails when preparation fails", func() {
		_, err := sim.NewEnsemble(sim.DefaultOptions(), 2, 0, nil).Run(context.Background(),
			sim.RunConfig{Dt: 0.1, Duration: 1},
			func(*sim.Simulator) error { return errors.New("boom") })
		Expect(err).To(MatchError("boom"))
	})
})
