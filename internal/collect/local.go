package collect

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/zaczkows/fb4rasp/internal/errors"
	"github.com/zaczkows/fb4rasp/internal/logger"
	"github.com/zaczkows/fb4rasp/internal/telemetry"
)

// SysSink receives system snapshots. A nil snapshot reports a failed poll.
type SysSink interface {
	PushSysInfo(source string, s *telemetry.SystemSnapshot) error
}

// Stats produces a snapshot of the machine it runs on.
type Stats interface {
	Snapshot(ctx context.Context) (telemetry.SystemSnapshot, error)
}

// HostStats reads CPU and memory through gopsutil. CPU usage is measured
// since the previous call, so the first snapshot may report zero.
type HostStats struct{}

var _ Stats = HostStats{}

func (HostStats) Snapshot(ctx context.Context) (telemetry.SystemSnapshot, error) {
	perCore, err := cpu.PercentWithContext(ctx, 0, true)
	if err != nil {
		return telemetry.SystemSnapshot{}, errors.WrapWithCode(err, errors.ErrSensor, "Failed to read CPU usage", "")
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return telemetry.SystemSnapshot{}, errors.WrapWithCode(err, errors.ErrSensor, "Failed to read memory usage", "")
	}
	// A board without swap is not an error.
	sw, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		sw = &mem.SwapMemoryStat{}
	}
	return BuildSnapshot(perCore, vm, sw), nil
}

// BuildSnapshot converts gopsutil readings into a snapshot with memory in
// KiB and Avg the mean of the per-core values.
func BuildSnapshot(perCore []float64, vm *mem.VirtualMemoryStat, sw *mem.SwapMemoryStat) telemetry.SystemSnapshot {
	var s telemetry.SystemSnapshot
	s.CPU.PerCore = make([]float32, len(perCore))
	var sum float64
	for i, p := range perCore {
		s.CPU.PerCore[i] = float32(p)
		sum += p
	}
	if len(perCore) > 0 {
		s.CPU.Avg = float32(sum / float64(len(perCore)))
	}
	if vm != nil {
		s.Mem.UsedMem = vm.Used / 1024
		s.Mem.TotalMem = vm.Total / 1024
	}
	if sw != nil {
		s.Mem.UsedSwap = sw.Used / 1024
		s.Mem.TotalSwap = sw.Total / 1024
	}
	return s
}

// DefaultDrawInterval is the local sampling period.
const DefaultDrawInterval = time.Second

// LocalSampler pushes a snapshot of this machine under a fixed source name.
type LocalSampler struct {
	stats    Stats
	sink     SysSink
	source   string
	interval time.Duration
	log      logger.Logger
}

// NewLocalSampler creates a sampler. A non-positive interval uses
// DefaultDrawInterval.
func NewLocalSampler(stats Stats, sink SysSink, source string, interval time.Duration, log logger.Logger) *LocalSampler {
	if interval <= 0 {
		interval = DefaultDrawInterval
	}
	if log == nil {
		log = logger.Noop()
	}
	return &LocalSampler{stats: stats, sink: sink, source: source, interval: interval, log: log}
}

// Run samples immediately and then every interval. Read failures are logged
// and skipped; the history keeps its last good value.
func (l *LocalSampler) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		snap, err := l.stats.Snapshot(ctx)
		if err != nil {
			l.log.Warn("local stats: %v", err)
		} else if err := l.sink.PushSysInfo(l.source, &snap); err != nil {
			return errors.WrapWithCode(err, errors.ErrSensor, "Cannot deliver local snapshot", "")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
