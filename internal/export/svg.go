// Package export renders recorded runs as standalone SVG documents.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/shapesim/internal/geom"
	"github.com/san-kum/shapesim/internal/mesh"
	"github.com/san-kum/shapesim/internal/sim"
)

var kindColors = [geom.NumKinds]string{
	geom.KindCircle:         "#4fc3f7",
	geom.KindRectangle:      "#aed581",
	geom.KindAnnulus:        "#ffb74d",
	geom.KindRhombus:        "#ba68c8",
	geom.KindRegularPolygon: "#f06292",
	geom.KindTriangle:       "#fff176",
}

func color(k geom.Kind) string {
	if k >= 0 && int(k) < len(kindColors) {
		return kindColors[k]
	}
	return "#ffffff"
}

type point struct{ X, Y float64 }

// viewport maps arena coordinates, y up and centred, to SVG pixels.
type viewport struct {
	scale  float64
	hw, hh float64
}

func newViewport(arena sim.Arena, width int) viewport {
	return viewport{
		scale: float64(width) / float64(arena.Width),
		hw:    float64(arena.Width) / 2,
		hh:    float64(arena.Height) / 2,
	}
}

func (v viewport) at(p sim.Vec2) point {
	return point{
		X: (float64(p[0]) + v.hw) * v.scale,
		Y: (v.hh - float64(p[1])) * v.scale,
	}
}

// TrajectoryToSVG draws the arena, one polyline per entity through its
// recorded positions, and the outline of every shape in the last frame.
// catalog supplies the outlines by kind; entities of kinds it lacks are
// drawn as dots.
func TrajectoryToSVG(frames []sim.Frame, arena sim.Arena, catalog []geom.Shape, width int) string {
	if len(frames) == 0 || !(arena.Width > 0) || !(arena.Height > 0) {
		return ""
	}
	vp := newViewport(arena, width)
	height := int(float64(arena.Height)*vp.scale + 0.5)

	paths := make(map[sim.EntityID][]point)
	kinds := make(map[sim.EntityID]geom.Kind)
	order := make([]sim.EntityID, 0, len(frames[0].Bodies))
	for _, fr := range frames {
		for _, b := range fr.Bodies {
			if _, ok := paths[b.ID]; !ok {
				order = append(order, b.ID)
				kinds[b.ID] = b.Kind
			}
			paths[b.ID] = append(paths[b.ID], vp.at(b.Position))
		}
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a" stroke="#444" stroke-width="2"/>
`, width, height, width, height))

	for _, id := range order {
		pts := paths[id]
		if len(pts) < 2 {
			continue
		}
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-opacity="0.6" stroke-width="1.5" d="M`, color(kinds[id])))
		for i, p := range pts {
			if i == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", p.X, p.Y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", p.X, p.Y))
			}
		}
		sb.WriteString(`"/>` + "\n")
	}

	outlines := make(map[geom.Kind]geom.Polygon)
	for _, s := range catalog {
		if hull, ok := geom.ConvexHull(mesh.Tessellate(s).Project()); ok {
			outlines[s.Kind()] = hull
		}
	}

	last := frames[len(frames)-1]
	for _, b := range last.Bodies {
		hull, ok := outlines[b.Kind]
		if !ok {
			c := vp.at(b.Position)
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="3" fill="%s"/>`+"\n", c.X, c.Y, color(b.Kind)))
			continue
		}
		sb.WriteString(fmt.Sprintf(`<polygon fill="%s" fill-opacity="0.25" stroke="%s" stroke-width="1.5" points="`, color(b.Kind), color(b.Kind)))
		for i, v := range hull {
			p := vp.at(b.Position.Add(v))
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", p.X, p.Y))
		}
		sb.WriteString(`"/>` + "\n")
	}

	sb.WriteString("</svg>")
	return sb.String()
}
