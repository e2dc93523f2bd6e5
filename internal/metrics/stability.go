package metrics

import "github.com/san-kum/shapesim/internal/sim"

// Containment is the fraction of observations in which every entity's bounds
// stay within the arena grown by tolerance on each side.
type Containment struct {
	name       string
	tolerance  float32
	violations int
	samples    int
}

func NewContainment(tolerance float32) *Containment {
	return &Containment{
		name:      "containment",
		tolerance: tolerance,
	}
}

func (c *Containment) Name() string {
	return c.name
}

func (c *Containment) Observe(w *sim.World, t float64) {
	c.samples++
	grown := sim.Arena{Width: w.Arena.Width + 2*c.tolerance, Height: w.Arena.Height + 2*c.tolerance}
	for _, e := range w.Entities() {
		if !grown.Inside(e.Bounds()) {
			c.violations++
			break
		}
	}
}

func (c *Containment) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

func (c *Containment) Reset() {
	c.violations = 0
	c.samples = 0
}

// Outside lists the entities whose bounds cross a wall of w.
func Outside(w *sim.World) []sim.EntityID {
	var ids []sim.EntityID
	for _, e := range w.Entities() {
		if !w.Arena.Inside(e.Bounds()) {
			ids = append(ids, e.ID)
		}
	}
	return ids
}
