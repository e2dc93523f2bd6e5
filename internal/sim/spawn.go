package sim

import (
	"math/rand/v2"

	"github.com/san-kum/shapesim/internal/geom"
)

// SpawnPlanner creates the initial roster: a uniform pick from the catalog per
// slot, a uniform position inside the spawn region and depth by slot index.
type SpawnPlanner struct {
	rng  *RandomSource
	opts SpawnOptions
	done bool
}

func NewSpawnPlanner(rng *RandomSource, opts SpawnOptions) *SpawnPlanner {
	return &SpawnPlanner{rng: rng, opts: opts}
}

// Plan adds Count entities to w. It may only run once.
func (p *SpawnPlanner) Plan(w *World) ([]*Entity, error) {
	if p.done {
		return nil, ErrAlreadySpawned
	}
	p.done = true

	spawned := make([]*Entity, 0, p.opts.Count)
	for i := 0; i < p.opts.Count; i++ {
		var shape geom.Shape
		var pos Vec2
		p.rng.Draw(func(r *rand.Rand) {
			shape = p.opts.Catalog[r.IntN(len(p.opts.Catalog))]
			pos[0] = uniform(r, -p.opts.Region[0], p.opts.Region[0])
			pos[1] = uniform(r, -p.opts.Region[1], p.opts.Region[1])
		})

		e, err := w.Spawn(EntitySpec{
			Shape:         shape,
			Position:      pos,
			Depth:         float32(i),
			Friction:      p.opts.Friction,
			Impulsive:     true,
			NeedsCollider: true,
		})
		if err != nil {
			return spawned, err
		}
		spawned = append(spawned, e)
	}
	return spawned, nil
}
