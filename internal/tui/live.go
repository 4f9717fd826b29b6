// Package tui renders a live terminal monitor for a running session. It
// subscribes to the session's snapshot stream and forwards key presses
// as commands; the simulation loop itself runs in the session, not here.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/procmix/tanksim/internal/dynamo"
	"github.com/procmix/tanksim/internal/plant"
	"github.com/procmix/tanksim/internal/session"
)

const historyCapacity = 600

var (
	headerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeRowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	graphStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	tanksPanelStyle = lipgloss.NewStyle().Padding(1, 2)
	statsPanelStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(52)
	helpStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
	divergedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	setpointStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// series identifies one plottable measurement.
type series struct {
	tank     dynamo.Tank
	variable dynamo.Variable
	label    string
}

var allSeries = []series{
	{dynamo.TankA, dynamo.VarLevel, "level A"},
	{dynamo.TankB, dynamo.VarLevel, "level B"},
	{dynamo.TankC, dynamo.VarLevel, "level C"},
	{dynamo.TankC, dynamo.VarConcentration, "conc C"},
	{dynamo.TankD, dynamo.VarLevel, "level D"},
	{dynamo.TankD, dynamo.VarConcentration, "conc D"},
	{dynamo.TankE, dynamo.VarLevel, "level E"},
	{dynamo.TankE, dynamo.VarConcentration, "conc E"},
}

type eventMsg session.Event

type streamClosedMsg struct{}

// Model monitors one session over its subscriber stream.
type Model struct {
	sess   *session.Session
	params plant.Params
	eq     plant.Equilibrium

	events <-chan session.Event
	cancel func()

	snap     *session.Snapshot
	err      error
	closed   bool
	paused   bool
	selected int
	history  map[series][]float64
	showHelp bool
}

// NewModel subscribes to sess and returns a monitor ready for tea.NewProgram.
func NewModel(sess *session.Session, params plant.Params, eq plant.Equilibrium) Model {
	events, cancel := sess.Subscribe()
	return Model{
		sess:    sess,
		params:  params,
		eq:      eq,
		events:  events,
		cancel:  cancel,
		history: make(map[series][]float64, len(allSeries)),
	}
}

func (m Model) Init() tea.Cmd {
	return m.waitForEvent()
}

func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg(ev)
	}
}

// Update handles key presses and incoming snapshots.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancel()
			m.sess.Close()
			return m, tea.Quit
		case " ":
			if m.paused {
				m.submit(session.Command{Type: session.CmdResume})
			} else {
				m.submit(session.Command{Type: session.CmdPause})
			}
			m.paused = !m.paused
		case "r":
			m.submit(session.Command{Type: session.CmdReset})
			m.paused = false
		case "tab":
			m.selected = (m.selected + 1) % len(allSeries)
		case "up", "k":
			m.nudge(1)
		case "down", "j":
			m.nudge(-1)
		case "?":
			m.showHelp = !m.showHelp
		}
		return m, nil
	case eventMsg:
		if msg.Err != nil {
			m.err = msg.Err
		}
		if msg.Snapshot != nil {
			m.snap = msg.Snapshot
			m.record(*msg.Snapshot)
		}
		return m, m.waitForEvent()
	case streamClosedMsg:
		m.closed = true
		return m, nil
	}
	return m, nil
}

func (m Model) submit(cmd session.Command) {
	// A command lost to a closing session is fine; the view shows the
	// terminal state on the next event.
	_ = m.sess.Submit(cmd)
}

// nudge moves the selected series' setpoint by one increment. The new
// target is the current target plus the increment, so repeated presses
// walk the setpoint instead of jumping to the measured value.
func (m Model) nudge(dir float64) {
	sel := allSeries[m.selected]
	if sel.variable == dynamo.VarConcentration && !sel.tank.IsProcess() {
		return
	}
	step := 0.05
	if sel.variable == dynamo.VarConcentration {
		step = 5.0
	}
	value := m.target(sel) + dir*step
	if value < 0 {
		value = 0
	}
	switch sel.variable {
	case dynamo.VarLevel:
		if max := m.params.MaxLevel(sel.tank); value > max {
			value = max
		}
	case dynamo.VarConcentration:
		if value > m.params.BrineConcentration {
			value = m.params.BrineConcentration
		}
	}
	m.submit(session.Command{
		Type:     session.CmdSetSetpoint,
		Tank:     sel.tank,
		Variable: sel.variable,
		Value:    value,
	})
}

// target returns the active setpoint for a series, falling back to the
// equilibrium target when the operator has not overridden it.
func (m Model) target(sel series) float64 {
	if m.snap != nil {
		for _, sp := range m.snap.Setpoints {
			if sp.Tank == sel.tank && sp.Variable == sel.variable {
				return sp.Value
			}
		}
	}
	eq := m.eq.State()
	if sel.variable == dynamo.VarConcentration {
		return eq.Concentration(sel.tank)
	}
	return eq.Level(sel.tank)
}

func (m *Model) record(snap session.Snapshot) {
	for _, sel := range allSeries {
		v := snap.State.Level(sel.tank)
		if sel.variable == dynamo.VarConcentration {
			v = snap.State.Concentration(sel.tank)
		}
		h := append(m.history[sel], v)
		if len(h) > historyCapacity {
			h = h[1:]
		}
		m.history[sel] = h
	}
}

// View renders the tank fill bars, the sparkline of the selected series
// and the series table.
func (m Model) View() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render("TANKSIM") + "\n")
	s.WriteString(m.statusLine() + "\n\n")

	sel := allSeries[m.selected]
	if hist := m.history[sel]; len(hist) > 1 {
		chart := asciigraph.Plot(hist, asciigraph.Height(5), asciigraph.Width(36), asciigraph.Caption(sel.label))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	if m.snap != nil {
		s.WriteString(labelStyle.Render("Tick") + valueStyle.Render(fmt.Sprintf("%d", m.snap.Tick)) + "\n")
		s.WriteString(labelStyle.Render("Sim time") + valueStyle.Render(fmt.Sprintf("%.1fs", m.snap.SimTime)) + "\n\n")
		s.WriteString("SERIES\n")
		for i, sc := range allSeries {
			v := m.snap.State.Level(sc.tank)
			if sc.variable == dynamo.VarConcentration {
				v = m.snap.State.Concentration(sc.tank)
			}
			line := fmt.Sprintf("%-8s %8.3f  target %8.3f", sc.label, v, m.target(sc))
			if i == m.selected {
				s.WriteString(activeRowStyle.Render("> "+line) + "\n")
			} else {
				s.WriteString("  " + labelStyle.Render(line) + "\n")
			}
		}
		if len(m.snap.Setpoints) > 0 {
			s.WriteString("\n" + setpointStyle.Render(fmt.Sprintf("%d operator setpoint(s) active", len(m.snap.Setpoints))) + "\n")
		}
	} else {
		s.WriteString(labelStyle.Render("waiting for first snapshot...") + "\n")
	}

	s.WriteString(helpStyle.Render("\nSP:Pause R:Reset Tab:Series ↑↓:Setpoint Q:Quit ?:Help"))
	stats := statsPanelStyle.Render(s.String())
	tanks := tanksPanelStyle.Render(m.tankPanel())
	view := lipgloss.JoinHorizontal(lipgloss.Top, tanks, stats)
	if m.showHelp {
		return helpScreen + "\n" + view
	}
	return view
}

func (m Model) statusLine() string {
	switch {
	case m.err != nil:
		return divergedStyle.Render(fmt.Sprintf("DIVERGED: %v", m.err))
	case m.closed:
		return "CLOSED"
	case m.paused:
		return "PAUSED"
	default:
		return "RUNNING"
	}
}

// tankPanel draws one vertical fill bar per tank, scaled to that tank's
// maximum level.
func (m Model) tankPanel() string {
	const barHeight = 12
	if m.snap == nil {
		return strings.Repeat("\n", barHeight)
	}
	cols := make([][]string, 0, len(dynamo.Tanks))
	for _, tank := range dynamo.Tanks {
		level := m.snap.State.Level(tank)
		max := m.params.MaxLevel(tank)
		frac := 0.0
		if max > 0 {
			frac = level / max
		}
		if frac < 0 {
			frac = 0
		} else if frac > 1 {
			frac = 1
		}
		filled := int(frac * barHeight)
		col := make([]string, 0, barHeight+3)
		for row := barHeight; row > 0; row-- {
			if row <= filled {
				col = append(col, "|##|")
			} else {
				col = append(col, "|  |")
			}
		}
		col = append(col, "+--+")
		col = append(col, fmt.Sprintf("  %s ", tank))
		col = append(col, fmt.Sprintf("%.2f", level))
		cols = append(cols, col)
	}
	var b strings.Builder
	for row := 0; row < barHeight+3; row++ {
		for _, col := range cols {
			b.WriteString(" " + col[row] + " ")
		}
		b.WriteString("\n")
	}
	return b.String()
}

const helpScreen = `
  Space    pause or resume the simulation
  R        reset to the equilibrium state
  Tab      cycle the plotted series
  Up/K     raise the selected setpoint
  Down/J   lower the selected setpoint
  Q        close the session and quit
  ?        toggle this help`

// Run starts a monitor program for sess and blocks until it exits.
func Run(sess *session.Session, params plant.Params, eq plant.Equilibrium) error {
	p := tea.NewProgram(NewModel(sess, params, eq))
	_, err := p.Run()
	return err
}
