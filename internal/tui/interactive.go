package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/shapesim/internal/geom"
	"github.com/san-kum/shapesim/internal/metrics"
	"github.com/san-kum/shapesim/internal/sim"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))

	arenaBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238"))
)

var presetInfo = map[string]string{
	"calm":    "few shapes, heavy friction",
	"chaotic": "frequent strong impulses",
	"crowded": "sixty shapes",
	"bounce":  "one frictionless circle",
}

// Factory builds a spawned simulator for the named preset. An empty name
// means the base configuration.
type Factory func(preset string) (*sim.Simulator, error)

type state int

const (
	stateMenu state = iota
	stateSim
)

type model struct {
	state   state
	cursor  int
	presets []string
	current string
	factory Factory
	err     error

	sim       *sim.Simulator
	dt        float32
	duration  float64
	paused    bool
	speed     float64
	history   []float64
	lastFrame time.Time
	fps       float64

	width  int
	height int
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// NewInteractiveApp returns the bubbletea model. With a non-empty start
// preset it skips the menu.
func NewInteractiveApp(presets []string, start string, factory Factory, dt float32, duration float64) *model {
	m := &model{
		state:    stateMenu,
		presets:  presets,
		factory:  factory,
		dt:       dt,
		duration: duration,
		speed:    1,
		width:    80,
		height:   30,
	}
	if start != "" {
		m.current = start
		m.start()
	}
	return m
}

func (m model) Init() tea.Cmd {
	if m.state == stateSim {
		return tick()
	}
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if m.state != stateSim {
			return m, nil
		}
		if !m.paused && m.sim != nil {
			now := time.Now()
			if !m.lastFrame.IsZero() {
				if dt := now.Sub(m.lastFrame).Seconds(); dt > 0 {
					m.fps = 1.0 / dt
				}
			}
			m.lastFrame = now
			steps := int(m.speed)
			if steps < 1 {
				steps = 1
			}
			for i := 0; i < steps; i++ {
				m.step()
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateSim:
		return m.simKey(msg)
	}
	return m, nil
}

func (m model) menuKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		if len(m.presets) == 0 {
			return m, nil
		}
		m.current = m.presets[m.cursor]
		m.start()
		if m.err != nil {
			return m, nil
		}
		return m, tea.Batch(tea.ClearScreen, tick())
	}
	return m, nil
}

func (m model) simKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.state = stateMenu
		m.sim = nil
		return m, tea.ClearScreen
	case " ", "p":
		m.paused = !m.paused
	case "r":
		m.start()
		return m, tea.ClearScreen
	case "+", "=":
		m.speed = math.Min(m.speed*2, 16)
	case "-", "_":
		m.speed = math.Max(m.speed/2, 1)
	case "0":
		m.speed = 1
	}
	return m, nil
}

func (m *model) start() {
	s, err := m.factory(m.current)
	if err != nil {
		m.err = err
		m.state = stateMenu
		return
	}
	m.err = nil
	m.sim = s
	m.history = make([]float64, 0, 60)
	m.paused = false
	m.speed = 1
	m.lastFrame = time.Time{}
	m.state = stateSim
}

func (m *model) step() {
	if m.duration > 0 && m.sim.Time() >= m.duration {
		m.paused = true
		return
	}
	if err := m.sim.Step(m.dt); err != nil {
		m.err = err
		m.paused = true
		return
	}
	m.history = append(m.history, metrics.Energy(m.sim.World()))
	if len(m.history) > 60 {
		m.history = m.history[1:]
	}
}

func (m model) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateSim:
		return m.viewSim()
	}
	return ""
}

func (m model) viewMenu() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("          " + cyan.Render("s h a p e s i m") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("\n")

	for i, name := range m.presets {
		desc := presetInfo[name]
		if i == m.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-12s", name)) + dim.Render(desc) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-12s", name)) + dimmer.Render(desc) + "\n")
		}
	}

	if m.err != nil {
		b.WriteString("\n      " + red.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select   enter start   q quit") + "\n")

	return b.String()
}

func (m model) viewSim() string {
	cw := m.width - 8
	ch := m.height - 12
	if cw < 40 {
		cw = 40
	}
	if ch < 12 {
		ch = 12
	}

	w := m.sim.World()
	canvas := NewCanvas(cw, ch, w.Arena)
	canvas.Draw(w)

	var b strings.Builder

	statusIcon := green.Render("●")
	statusText := green.Render("running")
	if m.paused {
		statusIcon = yellow.Render("○")
		statusText = yellow.Render("paused")
	}
	name := m.current
	if name == "" {
		name = "default"
	}
	b.WriteString(fmt.Sprintf("\n   %s %s  %s  %s\n",
		statusIcon, cyan.Render(name), statusText, dim.Render(fmt.Sprintf("x%.0f", m.speed))))

	if m.duration > 0 {
		progress := math.Min(m.sim.Time()/m.duration, 1)
		barWidth := 36
		filled := int(progress * float64(barWidth))
		timeStr := fmt.Sprintf("%.1fs/%.0fs", m.sim.Time(), m.duration)
		bar := cyan.Render(strings.Repeat("━", filled)) + dimmer.Render(strings.Repeat("─", barWidth-filled))
		b.WriteString(fmt.Sprintf("   %s %s  %s\n", bar, dim.Render(timeStr), dim.Render(fmt.Sprintf("%.0ffps", m.fps))))
	}

	b.WriteString(indent(arenaBorder.Render(canvas.String()), "  ") + "\n")

	b.WriteString(fmt.Sprintf("   %s %s  %s %s  %s %s  %s %s\n",
		dim.Render("tick"), white.Render(fmt.Sprint(m.sim.Tick())),
		dim.Render("shapes"), white.Render(fmt.Sprint(w.Len())),
		dim.Render("fires"), magenta.Render(fmt.Sprint(m.sim.Clock().Fires())),
		dim.Render("reflections"), magenta.Render(fmt.Sprint(m.sim.Reflections())),
	))
	if len(m.history) > 0 {
		b.WriteString(fmt.Sprintf("   %s %s %s\n",
			dim.Render("energy"), cyan.Render(sparkline(m.history, 40)),
			white.Render(fmt.Sprintf("%.0f", m.history[len(m.history)-1]))))
	}
	b.WriteString("   " + legend() + "\n")
	if m.err != nil {
		b.WriteString("   " + red.Render(m.err.Error()) + "\n")
	}

	b.WriteString("\n" + dim.Render("   space pause  ±speed  r restart  esc menu  q quit") + "\n")
	return b.String()
}

func legend() string {
	parts := make([]string, 0, geom.NumKinds)
	for k := geom.Kind(0); k < geom.NumKinds; k++ {
		parts = append(parts, white.Render(string(Glyph(k)))+" "+dim.Render(k.String()))
	}
	return strings.Join(parts, "  ")
}

func sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return ""
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	rang := maxVal - minVal
	if rang == 0 {
		rang = 1
	}
	step := len(data) / width
	if step < 1 {
		step = 1
	}
	var sb strings.Builder
	for i := 0; i < width && i*step < len(data); i++ {
		idx := int((data[i*step] - minVal) / rang * 7)
		if idx > 7 {
			idx = 7
		}
		if idx < 0 {
			idx = 0
		}
		sb.WriteRune(chars[idx])
	}
	return sb.String()
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// RunInteractive opens the full-screen view.
func RunInteractive(presets []string, start string, factory Factory, dt float32, duration float64) error {
	p := tea.NewProgram(NewInteractiveApp(presets, start, factory, dt, duration), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
