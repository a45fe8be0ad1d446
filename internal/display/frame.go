package display

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/zaczkows/fb4rasp/internal/engine"
	"github.com/zaczkows/fb4rasp/internal/params"
	"github.com/zaczkows/fb4rasp/internal/rules"
	"github.com/zaczkows/fb4rasp/internal/telemetry"
	"github.com/zaczkows/fb4rasp/internal/touch"
)

// Engine is the query side of the engine handle used to draw a frame.
type Engine interface {
	LastNetInfo(ctx context.Context) (engine.NetInfo, error)
	NetTxRx(ctx context.Context, refresh time.Duration) (engine.NetRates, error)
	SystemInfos(ctx context.Context) (engine.SystemInfos, error)
	Layout(ctx context.Context) (params.Layout, error)
	TouchInfo(ctx context.Context) ([]touch.Status, error)
	Rules(ctx context.Context) ([]rules.Info, error)
}

var _ Engine = (*engine.Handle)(nil)

// Frame is everything one redraw needs, gathered up front so rendering
// does no I/O.
type Frame struct {
	At      time.Time
	Net     engine.NetInfo
	Rates   engine.NetRates
	Systems engine.SystemInfos
	Layout  params.Layout
	Touches []touch.Status
	Rules   []rules.Info
}

// Fetch queries the engine once for each part of the frame. TouchInfo
// drains the pending touches, so each event is shown on exactly one frame.
func Fetch(ctx context.Context, eng Engine, netRefresh time.Duration) (Frame, error) {
	f := Frame{At: time.Now()}
	var err error
	if f.Layout, err = eng.Layout(ctx); err != nil {
		return f, err
	}
	if f.Touches, err = eng.TouchInfo(ctx); err != nil {
		return f, err
	}
	if f.Net, err = eng.LastNetInfo(ctx); err != nil {
		return f, err
	}
	if f.Systems, err = eng.SystemInfos(ctx); err != nil {
		return f, err
	}
	if f.Rates, err = eng.NetTxRx(ctx, netRefresh); err != nil {
		return f, err
	}
	if f.Rules, err = eng.Rules(ctx); err != nil {
		return f, err
	}
	return f, nil
}

// Sources lists the snapshot sources with the local host first and the
// rest sorted.
func (f Frame) Sources() []string {
	names := make([]string, 0, len(f.Systems))
	for name := range f.Systems {
		if name != engine.DefaultHost {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	if _, ok := f.Systems[engine.DefaultHost]; ok {
		names = append([]string{engine.DefaultHost}, names...)
	}
	return names
}

// Latest returns the newest snapshot of source, or false if there is none.
func (f Frame) Latest(source string) (telemetry.SystemSnapshot, bool) {
	buf, ok := f.Systems[source]
	if !ok || buf.Size() == 0 {
		return telemetry.SystemSnapshot{}, false
	}
	return buf.Last(), true
}

// TxRate and RxRate are the newest per-second rates, zero before two
// samples exist.
func (f Frame) TxRate() int64 { return lastOf(f.Rates.Tx) }
func (f Frame) RxRate() int64 { return lastOf(f.Rates.Rx) }

func lastOf(s []int64) int64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}

// Summary is the one-line form logged by the headless loop.
func (f Frame) Summary() string {
	var parts []string
	parts = append(parts, f.At.Format("15:04:05"))
	for _, name := range f.Sources() {
		s, ok := f.Latest(name)
		if !ok {
			parts = append(parts, name+" offline")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s cpu %.0f%% mem %s/%s", name, s.CPU.Avg,
			kib(s.Mem.UsedMem), kib(s.Mem.TotalMem)))
	}
	parts = append(parts, fmt.Sprintf("tx %s/s rx %s/s", byteSize(f.TxRate()), byteSize(f.RxRate())))
	for _, t := range f.Touches {
		parts = append(parts, "touch "+t.String())
	}
	return strings.Join(parts, " | ")
}

// Fired lists the rules that have fired at least once as "name×count".
func (f Frame) Fired() []string {
	var out []string
	for _, r := range f.Rules {
		if r.Fired > 0 {
			out = append(out, fmt.Sprintf("%s×%d", r.Name, r.Fired))
		}
	}
	return out
}

func kib(v uint64) string {
	return humanize.IBytes(v * 1024)
}

func byteSize(v int64) string {
	if v < 0 {
		return "-" + humanize.IBytes(uint64(-v))
	}
	return humanize.IBytes(uint64(v))
}
