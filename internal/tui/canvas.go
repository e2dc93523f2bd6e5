package tui

import (
	"strings"

	"github.com/san-kum/shapesim/internal/geom"
	"github.com/san-kum/shapesim/internal/sim"
)

var glyphs = [geom.NumKinds]rune{
	geom.KindCircle:         'o',
	geom.KindRectangle:      '#',
	geom.KindAnnulus:        '@',
	geom.KindRhombus:        '%',
	geom.KindRegularPolygon: '*',
	geom.KindTriangle:       '^',
}

// Glyph is the character an entity of kind k is drawn with.
func Glyph(k geom.Kind) rune {
	if k >= 0 && int(k) < len(glyphs) {
		return glyphs[k]
	}
	return '?'
}

// Canvas is a character grid mapped onto the arena, y up.
type Canvas struct {
	w, h  int
	arena sim.Arena
	cells [][]rune
}

func NewCanvas(w, h int, arena sim.Arena) *Canvas {
	cells := make([][]rune, h)
	for i := range cells {
		cells[i] = make([]rune, w)
	}
	c := &Canvas{w: w, h: h, arena: arena, cells: cells}
	c.Clear()
	return c
}

func (c *Canvas) Clear() {
	for y := range c.cells {
		for x := range c.cells[y] {
			c.cells[y][x] = ' '
		}
	}
}

// Cell maps an arena point to a grid cell. Points outside the arena map
// outside the grid.
func (c *Canvas) Cell(p sim.Vec2) (int, int) {
	hw, hh := c.arena.Half()
	fx := (p[0] + hw) / c.arena.Width * float32(c.w-1)
	fy := (hh - p[1]) / c.arena.Height * float32(c.h-1)
	return round(fx), round(fy)
}

func (c *Canvas) set(x, y int, r rune) {
	if x >= 0 && x < c.w && y >= 0 && y < c.h {
		c.cells[y][x] = r
	}
}

// Draw plots each entity's extent box with dots and its glyph at the
// center. Later entities draw over earlier ones.
func (c *Canvas) Draw(w *sim.World) {
	for _, e := range w.Entities() {
		b := e.Bounds()
		x0, y1 := c.Cell(b.Min)
		x1, y0 := c.Cell(b.Max)
		for x := x0; x <= x1; x++ {
			c.set(x, y0, '.')
			c.set(x, y1, '.')
		}
		for y := y0; y <= y1; y++ {
			c.set(x0, y, '.')
			c.set(x1, y, '.')
		}
	}
	for _, e := range w.Entities() {
		x, y := c.Cell(e.Transform.Position)
		c.set(x, y, Glyph(e.Shape.Kind()))
	}
}

func (c *Canvas) Rows() []string {
	rows := make([]string, c.h)
	for i, row := range c.cells {
		rows[i] = string(row)
	}
	return rows
}

func (c *Canvas) String() string {
	return strings.Join(c.Rows(), "\n")
}

func round(f float32) int {
	if f < 0 {
		return int(f - 0.5)
	}
	return int(f + 0.5)
}
