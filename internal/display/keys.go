package display

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zaczkows/fb4rasp/internal/config"
	"github.com/zaczkows/fb4rasp/internal/touch"
)

type keyMap struct {
	Pins   key.Binding
	Submit key.Binding
	Clear  key.Binding
	Mode   key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Pins:   key.NewBinding(key.WithKeys("0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "a", "b"), key.WithHelp("0-9 a b", "toggle pin")),
	Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "touch")),
	Clear:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
	Mode:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mode")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) bindings() []key.Binding {
	return []key.Binding{k.Pins, k.Submit, k.Clear, k.Mode, k.Quit}
}

// pinForKey maps the emulated keypad to sensor pins: digits are pins 0-9,
// a and b are 10 and 11.
func pinForKey(s string) (int, bool) {
	if len(s) != 1 {
		return 0, false
	}
	c := s[0]
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c == 'a' || c == 'b':
		return 10 + int(c-'a'), true
	}
	return 0, false
}

func nextMode(mode string) string {
	if mode == config.ModeNetwork {
		return config.ModeDashboard
	}
	return config.ModeNetwork
}

// scrollKeys leave letters and space to the keypad.
var scrollKeys = viewport.KeyMap{
	Up:       key.NewBinding(key.WithKeys("up")),
	Down:     key.NewBinding(key.WithKeys("down")),
	PageUp:   key.NewBinding(key.WithKeys("pgup")),
	PageDown: key.NewBinding(key.WithKeys("pgdown")),
}

// handleKey reports whether the key was consumed.
func (m *Model) handleKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return true, tea.Quit
	case key.Matches(msg, keys.Pins):
		if pin, ok := pinForKey(msg.String()); ok {
			m.chord ^= touch.FromPins(pin)
		}
	case key.Matches(msg, keys.Submit):
		if m.chord.WasTouched() && m.sensor != nil {
			m.sensor.Submit(m.chord)
		}
		m.chord = 0
	case key.Matches(msg, keys.Clear):
		m.chord = 0
	case key.Matches(msg, keys.Mode):
		m.mode = nextMode(m.mode)
	default:
		return false, nil
	}
	return true, nil
}
