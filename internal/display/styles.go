package display

import "github.com/charmbracelet/lipgloss"

// Palette. Darker than a desktop terminal theme; the target is a small
// TFT behind a case window.
const (
	colorBorder    = lipgloss.Color("#2A2A4A")
	colorHealthy   = lipgloss.Color("#39FF14")
	colorWarning   = lipgloss.Color("#FFAA00")
	colorCritical  = lipgloss.Color("#FF0055")
	colorText      = lipgloss.Color("#E6E6E6")
	colorTextDim   = lipgloss.Color("#B4B4D0")
	colorTextMuted = lipgloss.Color("#6B6B8D")
	colorAccent    = lipgloss.Color("#FF2E97")

	// Same hues as the framebuffer build: amber CPU, red memory,
	// lime tx, blue rx.
	colorCPU = lipgloss.Color("#FFBF00")
	colorMem = lipgloss.Color("#FF3030")
	colorTx  = lipgloss.Color("#80FF00")
	colorRx  = lipgloss.Color("#2E8FD4")
)

const (
	warningThreshold  = 70.0
	criticalThreshold = 90.0
)

var (
	clockStyle = lipgloss.NewStyle().Foreground(colorText).Bold(true)

	cpuStyle   = lipgloss.NewStyle().Foreground(colorCPU)
	memStyle   = lipgloss.NewStyle().Foreground(colorMem)
	txStyle    = lipgloss.NewStyle().Foreground(colorTx)
	rxStyle    = lipgloss.NewStyle().Foreground(colorRx)
	touchStyle = lipgloss.NewStyle().Foreground(colorTextDim)
	labelStyle = lipgloss.NewStyle().Foreground(colorTextMuted)
	errorStyle = lipgloss.NewStyle().Foreground(colorCritical)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	panelTitleStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)

	chordStyle  = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	footerStyle = lipgloss.NewStyle().Foreground(colorTextMuted)
)

// usageColor picks the severity color of a percentage.
func usageColor(percent float64) lipgloss.Color {
	switch {
	case percent >= criticalThreshold:
		return colorCritical
	case percent >= warningThreshold:
		return colorWarning
	default:
		return colorHealthy
	}
}
