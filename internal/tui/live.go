package tui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/san-kum/shapesim/internal/metrics"
	"github.com/san-kum/shapesim/internal/sim"
)

const (
	width       = 72
	height      = 24
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer redraws the arena on a plain ANSI terminal while a headless
// run progresses. It is a sim.Observer and throttles itself to frameRate.
type LiveRenderer struct {
	out       io.Writer
	frameRate int
	lastFrame time.Time
	canvas    *Canvas
}

var _ sim.Observer = (*LiveRenderer)(nil)

func NewLiveRenderer(arena sim.Arena, frameRate int) *LiveRenderer {
	return NewLiveRendererTo(os.Stdout, arena, frameRate)
}

func NewLiveRendererTo(out io.Writer, arena sim.Arena, frameRate int) *LiveRenderer {
	if frameRate <= 0 {
		frameRate = 30
	}
	return &LiveRenderer{
		out:       out,
		frameRate: frameRate,
		canvas:    NewCanvas(width, height, arena),
	}
}

func (r *LiveRenderer) OnStep(w *sim.World, tick int, t float64) {
	elapsed := time.Since(r.lastFrame)
	if elapsed < time.Second/time.Duration(r.frameRate) {
		return
	}
	r.lastFrame = time.Now()

	r.canvas.Clear()
	r.canvas.Draw(w)
	r.render(w, tick, t)
}

func (r *LiveRenderer) render(w *sim.World, tick int, t float64) {
	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString(fmt.Sprintf("  shapes=%d  tick=%d  t=%.2fs\n", w.Len(), tick, t))
	b.WriteString("  +" + strings.Repeat("-", width) + "+\n")

	for _, row := range r.canvas.Rows() {
		b.WriteString("  |")
		b.WriteString(row)
		b.WriteString("|\n")
	}

	b.WriteString("  +" + strings.Repeat("-", width) + "+\n")
	b.WriteString(fmt.Sprintf("  energy=%.1f  outside=%d\n", metrics.Energy(w), len(metrics.Outside(w))))

	fmt.Fprint(r.out, b.String())
}

func (r *LiveRenderer) Start() { fmt.Fprint(r.out, hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Fprint(r.out, showCursor) }
