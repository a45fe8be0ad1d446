package display

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// sparkline draws data as one row of block characters, newest on the
// right. Values are scaled against ceiling; a non-positive ceiling scales
// against the largest value. Short data is right aligned.
func sparkline(data []float64, width int, ceiling float64) string {
	if width <= 0 {
		return ""
	}
	points := downsample(data, width)
	if ceiling <= 0 {
		for _, v := range points {
			ceiling = max(ceiling, v)
		}
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", width-len(points)))
	for _, v := range points {
		b.WriteRune(sparkBlocks[level(v, ceiling, len(sparkBlocks))])
	}
	return b.String()
}

func level(v, ceiling float64, levels int) int {
	if ceiling <= 0 || v <= 0 {
		return 0
	}
	idx := int(v / ceiling * float64(levels-1))
	return min(max(idx, 0), levels-1)
}

// downsample keeps at most target points, taking the maximum of each
// bucket so short spikes survive.
func downsample(data []float64, target int) []float64 {
	if target <= 0 || len(data) == 0 {
		return nil
	}
	if len(data) <= target {
		return data
	}
	out := make([]float64, target)
	bucket := float64(len(data)) / float64(target)
	for i := range out {
		start := int(float64(i) * bucket)
		end := min(int(float64(i+1)*bucket), len(data))
		if start >= end {
			start = end - 1
		}
		peak := data[start]
		for _, v := range data[start+1 : end] {
			peak = max(peak, v)
		}
		out[i] = peak
	}
	return out
}

// bar is a horizontal gauge colored by severity along its length.
func bar(width int, percent float64) string {
	if width < 1 {
		width = 1
	}
	percent = min(max(percent, 0), 100)
	filled := int(percent / 100 * float64(width))

	var b strings.Builder
	for i := 0; i < width; i++ {
		if i < filled {
			pos := float64(i+1) / float64(width) * 100
			b.WriteString(lipgloss.NewStyle().Foreground(usageColor(pos)).Render("█"))
		} else {
			b.WriteString(lipgloss.NewStyle().Foreground(colorTextMuted).Render("░"))
		}
	}
	return b.String()
}

func toFloats[T int64 | uint64 | float32](in []T) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}
