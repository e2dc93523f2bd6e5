package sim

import (
	"fmt"

	"github.com/san-kum/shapesim/internal/geom"
)

type Vec2 = geom.Vec2

type EntityID uint32

// MotionState is the velocity of an entity and the fraction of speed it keeps per second.
type MotionState struct {
	Velocity Vec2
	Friction float32
}

// Transform places an entity in world coordinates, origin at the arena center.
// Depth only orders drawing.
type Transform struct {
	Position Vec2
	Depth    float32
}

type Entity struct {
	ID        EntityID
	Shape     geom.Shape
	Motion    MotionState
	Transform Transform

	// Impulsive entities receive random velocity replacements on clock fires.
	Impulsive bool
	// NeedsCollider is cleared once a collider polygon has been attached.
	NeedsCollider bool
	Collider      geom.Polygon
}

// Bounds returns the entity's wall-test box in world coordinates.
func (e *Entity) Bounds() geom.Bounds {
	return geom.Extent(e.Shape).Translate(e.Transform.Position)
}

// EntitySpec describes an entity to add to a world.
type EntitySpec struct {
	Shape         geom.Shape
	Position      Vec2
	Depth         float32
	Velocity      Vec2
	Friction      float32
	Impulsive     bool
	NeedsCollider bool
}

type Arena struct {
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
}

func (a Arena) Half() (float32, float32) {
	return a.Width / 2, a.Height / 2
}

// Inside reports whether b lies within the arena walls.
func (a Arena) Inside(b geom.Bounds) bool {
	hw, hh := a.Half()
	return b.Min[0] >= -hw && b.Max[0] <= hw && b.Min[1] >= -hh && b.Max[1] <= hh
}

func (a Arena) Validate() error {
	if !(a.Width > 0) || !(a.Height > 0) {
		return fmt.Errorf("%w: arena must have positive extents, got %gx%g", ErrInvalidConfig, a.Width, a.Height)
	}
	return nil
}

// World owns the entities of one simulation run in creation order.
type World struct {
	Arena    Arena
	entities []*Entity
	nextID   EntityID
}

func NewWorld(arena Arena) *World {
	return &World{Arena: arena, nextID: 1}
}

// Spawn validates es and adds a new entity.
func (w *World) Spawn(es EntitySpec) (*Entity, error) {
	if es.Shape == nil {
		return nil, fmt.Errorf("%w: entity has no shape", ErrInvalidConfig)
	}
	if err := es.Shape.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := validateFriction(es.Friction); err != nil {
		return nil, err
	}

	e := &Entity{
		ID:            w.nextID,
		Shape:         es.Shape,
		Motion:        MotionState{Velocity: es.Velocity, Friction: es.Friction},
		Transform:     Transform{Position: es.Position, Depth: es.Depth},
		Impulsive:     es.Impulsive,
		NeedsCollider: es.NeedsCollider,
	}
	w.nextID++
	w.entities = append(w.entities, e)
	return e, nil
}

// Entities returns the entities in ID order. The slice must not be modified.
func (w *World) Entities() []*Entity { return w.entities }

func (w *World) Len() int { return len(w.entities) }

func (w *World) Get(id EntityID) (*Entity, bool) {
	i := int(id) - 1
	if i < 0 || i >= len(w.entities) {
		return nil, false
	}
	return w.entities[i], true
}

// Stage is one step of the tick pipeline.
type Stage interface {
	Name() string
	Apply(w *World, dt float32)
}

type Metric interface {
	Name() string
	Observe(w *World, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(w *World, tick int, t float64)
}

// MeshSource supplies the vertex buffer of an entity's visual geometry.
type MeshSource interface {
	Mesh(e *Entity) (geom.RawMesh, bool)
}

// Body is the per-tick output for one entity.
type Body struct {
	ID       EntityID  `json:"id"`
	Kind     geom.Kind `json:"kind"`
	Position Vec2      `json:"position"`
	Velocity Vec2      `json:"velocity"`
	Depth    float32   `json:"depth"`
}

type Frame struct {
	Tick   int     `json:"tick"`
	Time   float64 `json:"time"`
	Bodies []Body  `json:"bodies"`
}

type RunConfig struct {
	Dt       float32
	Duration float64
	// Record keeps a frame per tick in the result.
	Record bool
}

type Result struct {
	Frames      []Frame
	Metrics     map[string]float64
	StepsTaken  int
	Fires       int
	Reflections int
	Fingerprint uint64
}
