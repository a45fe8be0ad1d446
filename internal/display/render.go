package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zaczkows/fb4rasp/internal/config"
	"github.com/zaczkows/fb4rasp/internal/engine"
	"github.com/zaczkows/fb4rasp/internal/history"
	"github.com/zaczkows/fb4rasp/internal/params"
	"github.com/zaczkows/fb4rasp/internal/telemetry"
)

const (
	clockFormat   = "Mon, 02.01.2006, 15:04:05"
	minChartWidth = 10
	labelWidth    = 10
)

// Render draws f for a screen width columns wide.
func Render(f Frame, mode string, width int) string {
	if width <= 0 {
		width = 80
	}
	switch mode {
	case config.ModeNetwork:
		return renderNetworkMode(f, width)
	default:
		return renderDashboard(f, width)
	}
}

func renderDashboard(f Frame, width int) string {
	var lines []string
	lines = append(lines, clockStyle.Render(f.At.Format(clockFormat)))
	lines = append(lines, renderLocal(f)...)
	lines = append(lines, renderNetLines(f)...)
	lines = append(lines, renderTouches(f)...)
	header := strings.Join(lines, "\n")

	panelWidth := width
	if f.Layout == params.LayoutHorizontal {
		panelWidth = width / 2
	}
	systems := renderSystemsPanel(f, panelWidth)
	network := renderNetworkPanel(f, panelWidth)

	var charts string
	if f.Layout == params.LayoutHorizontal {
		charts = lipgloss.JoinHorizontal(lipgloss.Top, systems, network)
	} else {
		charts = lipgloss.JoinVertical(lipgloss.Left, systems, network)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, charts)
}

func renderLocal(f Frame) []string {
	s, ok := f.Latest(engine.DefaultHost)
	if !ok {
		return []string{labelStyle.Render("CPU: waiting for first sample")}
	}
	cores := make([]string, len(s.CPU.PerCore))
	for i, c := range s.CPU.PerCore {
		cores[i] = fmt.Sprintf("%2.0f", c)
	}
	return []string{
		cpuStyle.Render(fmt.Sprintf("CPU: %2.0f%% [%s]", s.CPU.Avg, strings.Join(cores, ", "))),
		memStyle.Render(fmt.Sprintf("Memory: %s / %s", kib(s.Mem.UsedMem), kib(s.Mem.TotalMem))),
	}
}

func renderNetLines(f Frame) []string {
	return []string{
		txStyle.Render(fmt.Sprintf("Bytes tx: %s, tx/s: %s", byteSize(f.Net.Last.TxBytes), byteSize(f.TxRate()))),
		rxStyle.Render(fmt.Sprintf("Bytes rx: %s, rx/s: %s", byteSize(f.Net.Last.RxBytes), byteSize(f.RxRate()))),
	}
}

func renderTouches(f Frame) []string {
	lines := make([]string, 0, len(f.Touches))
	for _, t := range f.Touches {
		lines = append(lines, touchStyle.Render("Touched pins: "+t.String()))
	}
	return lines
}

// chartWidth is what is left of a panel line after the label and value
// columns.
func chartWidth(panelWidth, valueWidth int) int {
	// border, padding and two separating spaces
	w := panelWidth - 4 - labelWidth - valueWidth - 2
	return max(w, minChartWidth)
}

func renderSystemsPanel(f Frame, width int) string {
	lines := []string{panelTitleStyle.Render("Systems")}
	const valueWidth = 20
	cw := chartWidth(width, valueWidth)

	for _, name := range f.Sources() {
		buf := f.Systems[name]
		s, ok := f.Latest(name)
		label := fmt.Sprintf("%-*s", labelWidth, truncate(name, labelWidth))
		if !ok {
			lines = append(lines, label+" "+errorStyle.Render("offline"))
			continue
		}

		cpu, mem := usageSeries(buf, cw)
		cpuLine := lipgloss.NewStyle().Foreground(usageColor(float64(s.CPU.Avg))).Render(sparkline(cpu, cw, 100))
		memLine := memStyle.Render(sparkline(mem, cw, 100))
		lines = append(lines,
			label+" "+cpuLine+" "+cpuStyle.Render(fmt.Sprintf("cpu %3.0f%%", s.CPU.Avg)),
			strings.Repeat(" ", labelWidth)+" "+memLine+" "+
				memStyle.Render(fmt.Sprintf("mem %s/%s", kib(s.Mem.UsedMem), kib(s.Mem.TotalMem))),
		)
	}
	return panelStyle.Width(max(width-2, 1)).Render(strings.Join(lines, "\n"))
}

// usageSeries returns CPU and memory percentages of the last n snapshots,
// one sparkline column each.
func usageSeries(buf *history.Buffer[telemetry.SystemSnapshot], n int) (cpu, mem []float64) {
	window := buf.Tail(n)
	cpu = make([]float64, 0, len(window))
	mem = make([]float64, 0, len(window))
	for _, snap := range window {
		cpu = append(cpu, float64(snap.CPU.Avg))
		mem = append(mem, snap.Mem.MemPercent())
	}
	return cpu, mem
}

func renderNetworkPanel(f Frame, width int) string {
	lines := []string{panelTitleStyle.Render("Network")}
	if len(f.Rates.Tx) == 0 {
		lines = append(lines, labelStyle.Render("waiting for router samples"))
		return panelStyle.Width(max(width-2, 1)).Render(strings.Join(lines, "\n"))
	}
	const valueWidth = 14
	cw := chartWidth(width, valueWidth)
	tx := toFloats(f.Rates.Tx)
	rx := toFloats(f.Rates.Rx)
	lines = append(lines,
		fmt.Sprintf("%-*s", labelWidth, "tx")+" "+txStyle.Render(sparkline(tx, cw, 0))+" "+txStyle.Render(byteSize(f.TxRate())+"/s"),
		fmt.Sprintf("%-*s", labelWidth, "rx")+" "+rxStyle.Render(sparkline(rx, cw, 0))+" "+rxStyle.Render(byteSize(f.RxRate())+"/s"),
	)
	return panelStyle.Width(max(width-2, 1)).Render(strings.Join(lines, "\n"))
}

// renderNetworkMode gives the whole screen to throughput, one tall chart
// per direction.
func renderNetworkMode(f Frame, width int) string {
	header := clockStyle.Render(f.At.Format(clockFormat))
	if len(f.Rates.Tx) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header, labelStyle.Render("waiting for router samples"))
	}
	cw := max(width-6, minChartWidth)
	tx := toFloats(f.Rates.Tx)
	rx := toFloats(f.Rates.Rx)
	peak := func(v []int64) string {
		var m int64
		for _, x := range v {
			m = max(m, x)
		}
		return byteSize(m) + "/s"
	}
	txPanel := panelStyle.Width(max(width-2, 1)).Render(strings.Join([]string{
		panelTitleStyle.Render("tx ") + txStyle.Render(byteSize(f.TxRate())+"/s") + labelStyle.Render("  peak "+peak(f.Rates.Tx)),
		txStyle.Render(column(tx, cw, 4)),
		labelStyle.Render("total " + byteSize(f.Net.Last.TxBytes)),
	}, "\n"))
	rxPanel := panelStyle.Width(max(width-2, 1)).Render(strings.Join([]string{
		panelTitleStyle.Render("rx ") + rxStyle.Render(byteSize(f.RxRate())+"/s") + labelStyle.Render("  peak "+peak(f.Rates.Rx)),
		rxStyle.Render(column(rx, cw, 4)),
		labelStyle.Render("total " + byteSize(f.Net.Last.RxBytes)),
	}, "\n"))
	return lipgloss.JoinVertical(lipgloss.Left, header, txPanel, rxPanel)
}

// column draws a multi-row block chart scaled to the largest value.
func column(data []float64, width, height int) string {
	points := downsample(data, width)
	var ceiling float64
	for _, v := range points {
		ceiling = max(ceiling, v)
	}
	pad := width - len(points)
	levels := height * len(sparkBlocks)

	rows := make([]string, height)
	for r := range rows {
		var b strings.Builder
		b.WriteString(strings.Repeat(" ", pad))
		floor := (height - 1 - r) * len(sparkBlocks)
		for _, v := range points {
			l := 0
			if ceiling > 0 && v > 0 {
				l = int(v / ceiling * float64(levels))
			}
			switch {
			case l >= floor+len(sparkBlocks):
				b.WriteRune(sparkBlocks[len(sparkBlocks)-1])
			case l > floor:
				b.WriteRune(sparkBlocks[l-floor-1])
			default:
				b.WriteRune(' ')
			}
		}
		rows[r] = b.String()
	}
	return strings.Join(rows, "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
