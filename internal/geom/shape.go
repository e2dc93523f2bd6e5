package geom

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidShape is returned by Shape.Validate.
var ErrInvalidShape = errors.New("geom: invalid shape")

// Vec2 is the vector type shared by every package of the simulation.
type Vec2 = mgl32.Vec2

type Kind int

const (
	KindCircle Kind = iota
	KindRectangle
	KindAnnulus
	KindRhombus
	KindRegularPolygon
	KindTriangle
)

// NumKinds is the number of shape variants.
const NumKinds = 6

var kindNames = [NumKinds]string{
	"circle",
	"rectangle",
	"annulus",
	"rhombus",
	"regular_polygon",
	"triangle",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= NumKinds {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind maps a name produced by Kind.String back to its Kind.
func ParseKind(name string) (Kind, error) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown shape kind: %s", name)
}

// Shape is implemented only by the variants in this package.
type Shape interface {
	Kind() Kind
	Validate() error
	shape()
}

type Circle struct {
	Radius float32
}

type Rectangle struct {
	Width  float32
	Height float32
}

type Annulus struct {
	InnerRadius float32
	OuterRadius float32
}

type Rhombus struct {
	Width  float32
	Height float32
}

type RegularPolygon struct {
	Circumradius float32
	Sides        int
}

type Triangle struct {
	A, B, C Vec2
}

func (Circle) shape()         {}
func (Rectangle) shape()      {}
func (Annulus) shape()        {}
func (Rhombus) shape()        {}
func (RegularPolygon) shape() {}
func (Triangle) shape()       {}

func (Circle) Kind() Kind         { return KindCircle }
func (Rectangle) Kind() Kind      { return KindRectangle }
func (Annulus) Kind() Kind        { return KindAnnulus }
func (Rhombus) Kind() Kind        { return KindRhombus }
func (RegularPolygon) Kind() Kind { return KindRegularPolygon }
func (Triangle) Kind() Kind       { return KindTriangle }

func (c Circle) Validate() error {
	return positive("circle radius", c.Radius)
}

func (r Rectangle) Validate() error {
	if err := positive("rectangle width", r.Width); err != nil {
		return err
	}
	return positive("rectangle height", r.Height)
}

func (a Annulus) Validate() error {
	if err := positive("annulus inner radius", a.InnerRadius); err != nil {
		return err
	}
	if err := positive("annulus outer radius", a.OuterRadius); err != nil {
		return err
	}
	if a.InnerRadius >= a.OuterRadius {
		return fmt.Errorf("%w: annulus inner radius %g must be below outer radius %g",
			ErrInvalidShape, a.InnerRadius, a.OuterRadius)
	}
	return nil
}

func (r Rhombus) Validate() error {
	if err := positive("rhombus width", r.Width); err != nil {
		return err
	}
	return positive("rhombus height", r.Height)
}

func (p RegularPolygon) Validate() error {
	if err := positive("polygon circumradius", p.Circumradius); err != nil {
		return err
	}
	if p.Sides < 3 {
		return fmt.Errorf("%w: polygon needs at least 3 sides, got %d", ErrInvalidShape, p.Sides)
	}
	return nil
}

func (t Triangle) Validate() error {
	for _, v := range []Vec2{t.A, t.B, t.C} {
		if !finite(v[0]) || !finite(v[1]) {
			return fmt.Errorf("%w: triangle vertex %v is not finite", ErrInvalidShape, v)
		}
	}
	if cross(t.A, t.B, t.C) == 0 {
		return fmt.Errorf("%w: triangle vertices are collinear", ErrInvalidShape)
	}
	return nil
}

func positive(name string, v float32) error {
	if !finite(v) || v <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %g", ErrInvalidShape, name, v)
	}
	return nil
}

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
