package geom

// Bounds is an axis-aligned box relative to a shape's position.
type Bounds struct {
	Min Vec2
	Max Vec2
}

// Symmetric returns bounds spanning [-hx, hx] x [-hy, hy].
func Symmetric(hx, hy float32) Bounds {
	return Bounds{Min: Vec2{-hx, -hy}, Max: Vec2{hx, hy}}
}

// HalfSize returns half the width and height of the box.
func (b Bounds) HalfSize() Vec2 {
	return b.Max.Sub(b.Min).Mul(0.5)
}

// Translate moves the box to world coordinates.
func (b Bounds) Translate(p Vec2) Bounds {
	return Bounds{Min: b.Min.Add(p), Max: b.Max.Add(p)}
}

// Extent returns the bounds used for wall collision tests.
//
// Round shapes and regular polygons use their radius on both axes, which
// over-approximates polygons. Rectangle and Rhombus dimensions are full sizes,
// so the box spans half of each. Triangles use the true bounding box of their
// three vertices and are generally not centered on the position.
func Extent(s Shape) Bounds {
	switch v := s.(type) {
	case Circle:
		return Symmetric(v.Radius, v.Radius)
	case Annulus:
		return Symmetric(v.OuterRadius, v.OuterRadius)
	case RegularPolygon:
		return Symmetric(v.Circumradius, v.Circumradius)
	case Rectangle:
		return Symmetric(v.Width/2, v.Height/2)
	case Rhombus:
		return Symmetric(v.Width/2, v.Height/2)
	case Triangle:
		b := Bounds{Min: v.A, Max: v.A}
		for _, p := range [2]Vec2{v.B, v.C} {
			b.Min = Vec2{min(b.Min[0], p[0]), min(b.Min[1], p[1])}
			b.Max = Vec2{max(b.Max[0], p[0]), max(b.Max[1], p[1])}
		}
		return b
	}
	panic("geom: unknown shape variant")
}
