package geom

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// RawMesh is a vertex buffer as produced by a tessellator. Only x and y are used.
type RawMesh []mgl32.Vec3

// Project drops the z component of every vertex.
func (m RawMesh) Project() []Vec2 {
	pts := make([]Vec2, len(m))
	for i, v := range m {
		pts[i] = Vec2{v[0], v[1]}
	}
	return pts
}

// Polygon is a convex boundary in counter-clockwise order.
type Polygon []Vec2

// Area returns the signed area; positive for counter-clockwise winding.
func (p Polygon) Area() float64 {
	var sum float64
	for i := range p {
		a, b := p[i], p[(i+1)%len(p)]
		sum += float64(a[0])*float64(b[1]) - float64(b[0])*float64(a[1])
	}
	return sum / 2
}

// Contains reports whether q lies inside or on the boundary of the polygon.
func (p Polygon) Contains(q Vec2) bool {
	if len(p) < 3 {
		return false
	}
	for i := range p {
		if cross(p[i], p[(i+1)%len(p)], q) < 0 {
			return false
		}
	}
	return true
}

// Clone returns a copy that does not share storage with p.
func (p Polygon) Clone() Polygon {
	return slices.Clone(p)
}

// ConvexHull computes the convex hull of pts with Andrew's monotone chain.
//
// The result is counter-clockwise, starts at the point with the lowest x (then
// lowest y) and contains neither duplicates nor collinear points. ok is false
// when fewer than three points survive, which covers empty input, duplicates and
// collinear sets. The input slice is not modified.
func ConvexHull(pts []Vec2) (Polygon, bool) {
	if len(pts) < 3 {
		return nil, false
	}

	sorted := make([]Vec2, 0, len(pts))
	for _, p := range pts {
		if finite(p[0]) && finite(p[1]) {
			sorted = append(sorted, p)
		}
	}
	slices.SortFunc(sorted, comparePoints)
	sorted = slices.CompactFunc(sorted, func(a, b Vec2) bool { return a == b })
	if len(sorted) < 3 {
		return nil, false
	}

	hull := make([]Vec2, 0, 2*len(sorted))

	// lower chain
	for _, p := range sorted {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	// upper chain
	lower := len(hull) + 1
	for i := len(sorted) - 2; i >= 0; i-- {
		p := sorted[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	// last point repeats the first
	hull = hull[:len(hull)-1]
	if len(hull) < 3 {
		return nil, false
	}
	return Polygon(hull), true
}

func comparePoints(a, b Vec2) int {
	switch {
	case a[0] < b[0]:
		return -1
	case a[0] > b[0]:
		return 1
	case a[1] < b[1]:
		return -1
	case a[1] > b[1]:
		return 1
	}
	return 0
}

// cross returns the z component of (a-o) x (b-o) in float64.
func cross(o, a, b Vec2) float64 {
	ax, ay := float64(a[0])-float64(o[0]), float64(a[1])-float64(o[1])
	bx, by := float64(b[0])-float64(o[0]), float64(b[1])-float64(o[1])
	return ax*by - ay*bx
}
