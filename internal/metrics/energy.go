package metrics

import "github.com/san-kum/shapesim/internal/sim"

// KineticEnergy averages 0.5*|v|^2 per entity over all observations, with unit mass.
type KineticEnergy struct {
	name    string
	total   float64
	last    float64
	samples int
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (k *KineticEnergy) Name() string { return k.name }

func (k *KineticEnergy) Observe(w *sim.World, t float64) {
	k.last = Energy(w)
	k.total += k.last
	k.samples++
}

func (k *KineticEnergy) Value() float64 {
	if k.samples == 0 {
		return 0
	}
	return k.total / float64(k.samples)
}

// Last returns the energy seen by the most recent observation.
func (k *KineticEnergy) Last() float64 { return k.last }

func (k *KineticEnergy) Reset() {
	k.total = 0
	k.last = 0
	k.samples = 0
}

// Energy returns the mean kinetic energy per entity of w.
func Energy(w *sim.World) float64 {
	if w.Len() == 0 {
		return 0
	}
	sum := 0.0
	for _, e := range w.Entities() {
		v := e.Motion.Velocity
		sum += 0.5 * (float64(v[0])*float64(v[0]) + float64(v[1])*float64(v[1]))
	}
	return sum / float64(w.Len())
}

// RestRatio is the mean fraction of entities with zero velocity.
type RestRatio struct {
	name    string
	sum     float64
	samples int
}

func NewRestRatio() *RestRatio {
	return &RestRatio{name: "rest_ratio"}
}

func (r *RestRatio) Name() string { return r.name }

func (r *RestRatio) Observe(w *sim.World, t float64) {
	r.samples++
	if w.Len() == 0 {
		return
	}
	resting := 0
	for _, e := range w.Entities() {
		if e.Motion.Velocity == (sim.Vec2{}) {
			resting++
		}
	}
	r.sum += float64(resting) / float64(w.Len())
}

func (r *RestRatio) Value() float64 {
	if r.samples == 0 {
		return 0
	}
	return r.sum / float64(r.samples)
}

func (r *RestRatio) Reset() {
	r.sum = 0
	r.samples = 0
}

// Defaults returns the metrics attached to every CLI run.
func Defaults() []sim.Metric {
	return []sim.Metric{
		NewKineticEnergy(),
		NewContainment(0),
		NewRestRatio(),
	}
}
