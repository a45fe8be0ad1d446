package display

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSparkline(t *testing.T) {
	got := sparkline([]float64{0, 50, 100}, 5, 100)
	assert.Equal(t, "  ▁▄█", got)
}

func TestSparkline_AutoCeiling(t *testing.T) {
	got := sparkline([]float64{1, 2, 4}, 3, 0)
	assert.Equal(t, "▂▄█", got)
}

func TestSparkline_AllZero(t *testing.T) {
	assert.Equal(t, "▁▁", sparkline([]float64{0, 0}, 2, 0))
}

func TestSparkline_Downsamples(t *testing.T) {
	data := make([]float64, 100)
	data[50] = 100
	got := sparkline(data, 10, 100)
	assert.Equal(t, 10, utf8.RuneCountInString(got))
	assert.Contains(t, got, "█")
}

func TestSparkline_ZeroWidth(t *testing.T) {
	assert.Empty(t, sparkline([]float64{1}, 0, 1))
}

func TestDownsample(t *testing.T) {
	assert.Equal(t, []float64{3, 9}, downsample([]float64{1, 3, 2, 9}, 2))
	assert.Equal(t, []float64{1, 2}, downsample([]float64{1, 2}, 5))
	assert.Nil(t, downsample(nil, 3))
}

func TestLevel(t *testing.T) {
	assert.Equal(t, 0, level(-5, 100, 8))
	assert.Equal(t, 7, level(100, 100, 8))
	assert.Equal(t, 7, level(500, 100, 8))
	assert.Equal(t, 0, level(5, 0, 8))
}

func TestBar(t *testing.T) {
	got := bar(10, 50)
	assert.Equal(t, 5, countRune(got, '█'))
	assert.Equal(t, 5, countRune(got, '░'))
	assert.Equal(t, 10, countRune(bar(10, 150), '█'))
}

func TestUsageColor(t *testing.T) {
	assert.Equal(t, colorHealthy, usageColor(10))
	assert.Equal(t, colorWarning, usageColor(75))
	assert.Equal(t, colorCritical, usageColor(95))
}

func TestColumn(t *testing.T) {
	got := column([]float64{0, 50, 100}, 3, 2)
	assert.Equal(t, "  █\n ██", got)
}

func countRune(s string, r rune) int {
	n := 0
	for _, c := range s {
		if c == r {
			n++
		}
	}
	return n
}
