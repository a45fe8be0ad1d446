package display

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zaczkows/fb4rasp/internal/config"
	"github.com/zaczkows/fb4rasp/internal/touch"
)

// Options configure the dashboard.
type Options struct {
	// Draw is the redraw period.
	Draw time.Duration
	// NetRefresh is the router poll period, used to turn counter deltas
	// into rates.
	NetRefresh time.Duration
	// Mode is the initial screen.
	Mode string
	// Modes delivers screen switches requested by rule actions.
	Modes <-chan string
	// Sensor receives chords entered on the keyboard. May be nil.
	Sensor *touch.KeySensor
}

const queryTimeout = 2 * time.Second

// Model is the bubbletea model of the dashboard.
type Model struct {
	eng    Engine
	opts   Options
	sensor *touch.KeySensor
	mode   string

	frame    Frame
	hasFrame bool
	err      error

	chord    touch.Status
	viewport viewport.Model
	ready    bool
	width    int
	quitting bool
}

type tickMsg time.Time

type frameMsg struct {
	frame Frame
	err   error
}

type modeMsg string

// NewModel creates the dashboard model.
func NewModel(eng Engine, opts Options) Model {
	if opts.Draw <= 0 {
		opts.Draw = time.Second
	}
	if opts.Mode == "" {
		opts.Mode = config.ModeDashboard
	}
	return Model{eng: eng, opts: opts, sensor: opts.Sensor, mode: opts.Mode}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchCmd(), m.tickCmd(), m.waitModeCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if handled, cmd := m.handleKey(msg); handled {
			m.refreshContent()
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		height := max(msg.Height-1, 1)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.viewport.KeyMap = scrollKeys
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		m.refreshContent()

	case tickMsg:
		return m, tea.Batch(m.fetchCmd(), m.tickCmd())

	case frameMsg:
		m.err = msg.err
		if msg.err == nil {
			m.frame = msg.frame
			m.hasFrame = true
		}
		m.refreshContent()

	case modeMsg:
		m.mode = string(msg)
		m.refreshContent()
		return m, m.waitModeCmd()
	}

	if m.ready {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return m.content()
	}
	return m.viewport.View() + "\n" + m.footer()
}

// Mode returns the active screen.
func (m Model) Mode() string { return m.mode }

// Chord returns the pins toggled but not yet submitted.
func (m Model) Chord() touch.Status { return m.chord }

func (m *Model) refreshContent() {
	if m.ready {
		m.viewport.SetContent(m.content())
	}
}

func (m Model) content() string {
	switch {
	case m.err != nil:
		return errorStyle.Render("engine: " + m.err.Error())
	case !m.hasFrame:
		return labelStyle.Render("waiting for data...")
	}
	return Render(m.frame, m.mode, m.width)
}

func (m Model) footer() string {
	var parts []string
	if m.chord.WasTouched() {
		parts = append(parts, chordStyle.Render("pins "+m.chord.String()))
	}
	if fired := m.frame.Fired(); len(fired) > 0 {
		parts = append(parts, "fired "+strings.Join(fired, " "))
	}
	for _, b := range keys.bindings() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	parts = append(parts, "["+m.mode+"]")
	return footerStyle.Render(strings.Join(parts, " • "))
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.opts.Draw, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) fetchCmd() tea.Cmd {
	eng, refresh := m.eng, m.opts.NetRefresh
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
		defer cancel()
		f, err := Fetch(ctx, eng, refresh)
		return frameMsg{frame: f, err: err}
	}
}

func (m Model) waitModeCmd() tea.Cmd {
	modes := m.opts.Modes
	if modes == nil {
		return nil
	}
	return func() tea.Msg {
		mode, ok := <-modes
		if !ok {
			return nil
		}
		return modeMsg(mode)
	}
}
