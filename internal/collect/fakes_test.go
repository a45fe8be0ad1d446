package collect

import (
	"context"
	"sync"

	"github.com/zaczkows/fb4rasp/internal/telemetry"
)

type sysEntry struct {
	source string
	snap   *telemetry.SystemSnapshot
}

type recordingSink struct {
	mu   sync.Mutex
	net  []telemetry.NetworkSample
	sys  []sysEntry
	fail error
}

func (r *recordingSink) PushNet(s telemetry.NetworkSample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.net = append(r.net, s)
	return nil
}

func (r *recordingSink) PushSysInfo(source string, s *telemetry.SystemSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	var cp *telemetry.SystemSnapshot
	if s != nil {
		c := s.Clone()
		cp = &c
	}
	r.sys = append(r.sys, sysEntry{source: source, snap: cp})
	return nil
}

func (r *recordingSink) netSamples() []telemetry.NetworkSample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]telemetry.NetworkSample(nil), r.net...)
}

func (r *recordingSink) sysEntries() []sysEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sysEntry(nil), r.sys...)
}

type fixedStats struct {
	snap telemetry.SystemSnapshot
	err  error
}

func (f fixedStats) Snapshot(context.Context) (telemetry.SystemSnapshot, error) {
	return f.snap, f.err
}
