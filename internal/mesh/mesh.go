// Package mesh turns shapes into vertex buffers, standing in for the
// renderer's tessellation when no external host supplies meshes.
package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/shapesim/internal/geom"
	"github.com/san-kum/shapesim/internal/sim"
)

// Resolution is the number of rim vertices used for round shapes.
const Resolution = 32

// Tessellate returns the vertex positions of s centered on the origin with z = 0.
func Tessellate(s geom.Shape) geom.RawMesh {
	switch v := s.(type) {
	case geom.Circle:
		m := geom.RawMesh{{0, 0, 0}}
		return append(m, ring(v.Radius, Resolution, 0)...)
	case geom.Rectangle:
		hw, hh := v.Width/2, v.Height/2
		return geom.RawMesh{{hw, hh, 0}, {-hw, hh, 0}, {-hw, -hh, 0}, {hw, -hh, 0}}
	case geom.Annulus:
		m := ring(v.OuterRadius, Resolution, 0)
		return append(m, ring(v.InnerRadius, Resolution, 0)...)
	case geom.Rhombus:
		hw, hh := v.Width/2, v.Height/2
		return geom.RawMesh{{hw, 0, 0}, {0, hh, 0}, {-hw, 0, 0}, {0, -hh, 0}}
	case geom.RegularPolygon:
		// first vertex points up
		return ring(v.Circumradius, v.Sides, math.Pi/2)
	case geom.Triangle:
		return geom.RawMesh{
			{v.A[0], v.A[1], 0},
			{v.B[0], v.B[1], 0},
			{v.C[0], v.C[1], 0},
		}
	}
	return nil
}

func ring(radius float32, n int, phase float64) geom.RawMesh {
	m := make(geom.RawMesh, n)
	step := 2 * math.Pi / float64(n)
	for i := 0; i < n; i++ {
		a := phase + float64(i)*step
		m[i] = mgl32.Vec3{
			radius * float32(math.Cos(a)),
			radius * float32(math.Sin(a)),
			0,
		}
	}
	return m
}

// Source tessellates each entity's own shape.
type Source struct{}

func NewSource() *Source {
	return &Source{}
}

func (s *Source) Mesh(e *sim.Entity) (geom.RawMesh, bool) {
	m := Tessellate(e.Shape)
	return m, len(m) > 0
}

// Static serves vertex buffers registered per entity.
type Static struct {
	meshes map[sim.EntityID]geom.RawMesh
}

func NewStatic() *Static {
	return &Static{meshes: make(map[sim.EntityID]geom.RawMesh)}
}

func (s *Static) Set(id sim.EntityID, m geom.RawMesh) {
	s.meshes[id] = m
}

func (s *Static) Mesh(e *sim.Entity) (geom.RawMesh, bool) {
	m, ok := s.meshes[e.ID]
	return m, ok
}
