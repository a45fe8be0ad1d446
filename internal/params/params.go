// Package params holds the mutable state that rule actions operate on.
package params

import (
	"fmt"
	"strings"

	"github.com/zaczkows/fb4rasp/internal/history"
	"github.com/zaczkows/fb4rasp/internal/telemetry"
	"github.com/zaczkows/fb4rasp/internal/touch"
)

// DefaultNetSamples is the network history length: one sample per two
// pixels of half the 320px display, plus one to derive that many rates.
const DefaultNetSamples = (320/2)/2 + 1

// Layout is the arrangement of the main dashboard panels.
type Layout int

const (
	LayoutVertical Layout = iota
	LayoutHorizontal
)

// Toggle returns the other layout.
func (l Layout) Toggle() Layout {
	if l == LayoutVertical {
		return LayoutHorizontal
	}
	return LayoutVertical
}

func (l Layout) String() string {
	switch l {
	case LayoutVertical:
		return "vertical"
	case LayoutHorizontal:
		return "horizontal"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// ParseLayout converts a layout name into a Layout.
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "vertical":
		return LayoutVertical, nil
	case "horizontal":
		return LayoutHorizontal, nil
	default:
		return LayoutVertical, fmt.Errorf("unknown layout %q (expected vertical or horizontal)", s)
	}
}

// Options are user-adjustable display settings.
type Options struct {
	MainLayout Layout
}

// Parameters is the state owned by the engine.
type Parameters struct {
	NetSamples *history.Buffer[telemetry.NetworkSample]
	// Touches are touch events not yet consumed by a rule or a reader.
	Touches []touch.Status
	Options Options
}

// New creates parameters with an empty network history of netCapacity
// samples. A non-positive capacity uses DefaultNetSamples.
func New(netCapacity int) *Parameters {
	if netCapacity <= 0 {
		netCapacity = DefaultNetSamples
	}
	return &Parameters{
		NetSamples: history.New(netCapacity, telemetry.NetworkSample{}),
		Options:    Options{MainLayout: LayoutVertical},
	}
}

// LastTouch returns the most recent pending touch.
func (p *Parameters) LastTouch() (touch.Status, bool) {
	if len(p.Touches) == 0 {
		return 0, false
	}
	return p.Touches[len(p.Touches)-1], true
}
