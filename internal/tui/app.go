// Package tui is the terminal frontend: a protocol picker and a live
// session view with keyboard coil movement, pulse counters and a
// braille track plot.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/coilsim/internal/audio"
	"github.com/san-kum/coilsim/internal/headmodel"
	"github.com/san-kum/coilsim/internal/input"
	"github.com/san-kum/coilsim/internal/protocol"
	"github.com/san-kum/coilsim/internal/session"
	"github.com/san-kum/coilsim/internal/viz"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

type state int

const (
	stateMenu state = iota
	stateLive
)

// Terminals report key repeats, not releases. A pressed movement key
// stays held until its repeat stream goes quiet for this long.
const holdWindow = 150 * time.Millisecond

const trackWindow = 900 // ticks kept for the track plot

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type model struct {
	state   state
	cursor  int
	presets []string

	eng   *session.Engine
	snd   *audio.Processor
	sound bool

	heldUntil map[input.Action]time.Time
	precision bool
	sprint    bool
	snapToken uint64
	pendSnap  *input.SnapRequest

	delivered int
	last      session.TickOutput
	track     []session.TickOutput
	lastFrame time.Time
	fps       float64

	width  int
	height int

	err error
}

func newModel(seed int64, sound bool) (*model, error) {
	eng := session.New(session.DefaultOptions(), nil)
	src, fids := headmodel.Generate(seed)
	if err := eng.LoadHead(src, fids); err != nil {
		return nil, err
	}

	m := &model{
		state:     stateMenu,
		presets:   protocol.ListPresets(),
		eng:       eng,
		heldUntil: make(map[input.Action]time.Time),
		track:     make([]session.TickOutput, 0, trackWindow),
		width:     80,
		height:    24,
	}
	if sound {
		m.snd = audio.NewProcessor()
		m.sound = m.snd.Start() == nil
	}
	return m, nil
}

func (m *model) Init() tea.Cmd { return nil }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if m.state != stateLive {
			return m, nil
		}
		m.step()
		return m, tick()
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state == stateMenu {
		return m.menuKey(msg)
	}
	return m.liveKey(msg)
}

func (m *model) menuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, m.quit()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets) {
			m.cursor++
		}
	case "enter", " ":
		// Last row is a free-movement session with no protocol armed.
		if m.cursor < len(m.presets) {
			p := protocol.GetPreset(m.presets[m.cursor])
			if err := m.eng.StartProtocol(*p); err != nil {
				m.err = err
				return m, nil
			}
		} else {
			m.eng.StopProtocol()
		}
		m.err = nil
		m.delivered = 0
		m.track = m.track[:0]
		m.lastFrame = time.Time{}
		m.state = stateLive
		return m, tea.Batch(tea.ClearScreen, tick())
	}
	return m, nil
}

var moveKeys = map[string]input.Action{
	"up":    input.MoveUp,
	"w":     input.MoveUp,
	"down":  input.MoveDown,
	"s":     input.MoveDown,
	"left":  input.MoveLeft,
	"a":     input.MoveLeft,
	"right": input.MoveRight,
	"d":     input.MoveRight,
	"e":     input.TwistCW,
	"q":     input.TwistCCW,
	"r":     input.TiltForward,
	"f":     input.TiltBack,
}

func (m *model) liveKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if a, ok := moveKeys[key]; ok {
		m.heldUntil[a] = time.Now().Add(holdWindow)
		return m, nil
	}

	switch key {
	case "ctrl+c":
		return m, m.quit()
	case "esc":
		m.eng.StopProtocol()
		m.state = stateMenu
		return m, tea.ClearScreen
	case " ", "p":
		m.eng.SetPaused(!m.eng.Paused())
	case "z":
		m.precision = !m.precision
	case "x":
		m.sprint = !m.sprint
	case "g":
		m.snapToken++
		m.pendSnap = &input.SnapRequest{Token: m.snapToken, Yaw: 0, Pitch: 0.9}
	case "l":
		c := m.eng.Controller()
		c.SetLocked(!c.Locked())
	}
	return m, nil
}

func (m *model) quit() tea.Cmd {
	if m.snd != nil {
		m.snd.Stop()
	}
	return tea.Quit
}

func (m *model) step() {
	now := time.Now()
	dt := 1.0 / 60
	if !m.lastFrame.IsZero() {
		if real := now.Sub(m.lastFrame).Seconds(); real > 0 {
			dt = real
			m.fps = 1 / real
		}
	}
	m.lastFrame = now

	held := make(map[input.Action]bool, len(m.heldUntil)+2)
	for a, until := range m.heldUntil {
		if now.Before(until) {
			held[a] = true
		} else {
			delete(m.heldUntil, a)
		}
	}
	if m.precision {
		held[input.Precision] = true
	}
	if m.sprint {
		held[input.Sprint] = true
	}

	frame := input.Frame{Held: held, Snap: m.pendSnap}
	out := m.eng.Update(frame, dt)
	m.pendSnap = nil

	m.last = out
	m.delivered += out.Pulses
	if m.sound && out.Pulses > 0 {
		m.snd.Pulse(out.Pulses)
	}
	m.track = append(m.track, out)
	if len(m.track) > trackWindow {
		m.track = m.track[1:]
	}
}

func (m *model) View() string {
	if m.state == stateMenu {
		return m.viewMenu()
	}
	return m.viewLive()
}

func (m *model) viewMenu() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("          " + cyan.Render("c o i l s i m") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("\n")

	for i, name := range m.presets {
		p := protocol.GetPreset(name)
		desc := fmt.Sprintf("%s, %d pulses", p.Type, p.TotalPulses)
		if i == m.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-18s", name)) + dim.Render(desc) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-18s", name)) + dimmer.Render(desc) + "\n")
		}
	}
	free := "free movement"
	if m.cursor == len(m.presets) {
		b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-18s", free)) + dim.Render("no protocol") + "\n")
	} else {
		b.WriteString("        " + dim.Render(fmt.Sprintf("%-18s", free)) + dimmer.Render("no protocol") + "\n")
	}

	if m.err != nil {
		b.WriteString("\n      " + yellow.Render(m.err.Error()) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select   enter start   q quit") + "\n")
	return b.String()
}

func (m *model) viewLive() string {
	var b strings.Builder

	p := m.eng.Protocol()
	title := "free movement"
	if m.eng.Scheduler() != nil {
		title = p.Name
	}

	statusIcon := green.Render("●")
	statusText := green.Render("running")
	switch {
	case m.eng.Paused():
		statusIcon = yellow.Render("○")
		statusText = yellow.Render("paused")
	case m.last.Done:
		statusIcon = dim.Render("○")
		statusText = dim.Render("complete")
	case m.last.InInterTrain:
		statusText = yellow.Render("inter-train")
	}
	b.WriteString(fmt.Sprintf("\n   %s %s  %s  %s\n",
		statusIcon, cyan.Render(title), statusText, dim.Render(fmt.Sprintf("%.0ffps", m.fps))))

	if m.eng.Scheduler() != nil {
		barWidth := 36
		progress := 0.0
		if p.TotalPulses > 0 {
			progress = float64(m.delivered) / float64(p.TotalPulses)
		}
		if progress > 1 {
			progress = 1
		}
		filled := int(progress * float64(barWidth))
		bar := cyan.Render(strings.Repeat("━", filled)) + dimmer.Render(strings.Repeat("─", barWidth-filled))
		b.WriteString(fmt.Sprintf("   %s %s\n", bar,
			magenta.Render(fmt.Sprintf("%d/%d pulses", m.delivered, p.TotalPulses))))

		if m.last.InInterTrain {
			b.WriteString(fmt.Sprintf("   %s %s\n",
				yellow.Render("waiting"),
				dim.Render(fmt.Sprintf("next train in %.1fs", m.last.InterTrainRemaining))))
		} else {
			b.WriteString("\n")
		}
	} else {
		b.WriteString("\n\n")
	}

	cw := (m.width - 8) / 2
	ch := m.height - 12
	if cw < 24 {
		cw = 24
	}
	if ch < 8 {
		ch = 8
	}
	plot := viz.TrackPlot(m.eng.Tracker().Plane(), m.track, cw, ch)
	for _, row := range strings.Split(strings.TrimRight(plot, "\n"), "\n") {
		b.WriteString("   " + cyan.Render(row) + "\n")
	}

	if line := viz.Timeline(m.track, cw*2); line != "" {
		b.WriteString("   " + dim.Render(line) + "\n")
	}

	coords := m.eng.Controller().Coords()
	b.WriteString(fmt.Sprintf("   %s%s  %s%s  %s%s  %s%s",
		dim.Render("yaw="), white.Render(fmt.Sprintf("%.2f", coords.Yaw)),
		dim.Render("pitch="), white.Render(fmt.Sprintf("%.2f", coords.Pitch)),
		dim.Render("twist="), white.Render(fmt.Sprintf("%.2f", coords.Twist)),
		dim.Render("tilt="), white.Render(fmt.Sprintf("%.2f", coords.Tilt))))

	var mods []string
	if m.precision {
		mods = append(mods, green.Render("precision"))
	}
	if m.sprint {
		mods = append(mods, magenta.Render("sprint"))
	}
	if m.eng.Controller().Locked() {
		mods = append(mods, yellow.Render("locked"))
	}
	if len(mods) > 0 {
		b.WriteString("  " + strings.Join(mods, " "))
	}
	b.WriteString("\n")

	b.WriteString("\n" + dim.Render("   wasd/arrows move  q/e twist  r/f tilt  g snap  z/x precision/sprint  l lock  space pause  esc back") + "\n")
	return b.String()
}

// Run starts the interactive terminal frontend.
func Run(seed int64, sound bool) error {
	m, err := newModel(seed, sound)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	if m.snd != nil {
		m.snd.Stop()
	}
	return err
}
