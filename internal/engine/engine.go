// Package engine owns all dashboard state. A single goroutine consumes a
// command queue; producers push samples and touch events into it and the
// render loop queries it, each query answered over its own reply channel.
package engine

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/zaczkows/fb4rasp/internal/errors"
	"github.com/zaczkows/fb4rasp/internal/history"
	"github.com/zaczkows/fb4rasp/internal/logger"
	"github.com/zaczkows/fb4rasp/internal/metrics"
	"github.com/zaczkows/fb4rasp/internal/params"
	"github.com/zaczkows/fb4rasp/internal/rules"
	"github.com/zaczkows/fb4rasp/internal/telemetry"
	"github.com/zaczkows/fb4rasp/internal/touch"
)

const (
	// DefaultHost is the source name of the local machine.
	DefaultHost = "localhost"

	// DefaultSourceSamples is the snapshot history length per source.
	DefaultSourceSamples = (320 / 2) / 2

	// DefaultQueueSize is the command queue capacity.
	DefaultQueueSize = 64

	// DefaultNotifyRefresh is the sample interval used for throughput
	// notifications.
	DefaultNotifyRefresh = 3 * time.Second

	counterWrap = int64(1) << 32
)

// ErrStopped is returned when sending to an engine that has stopped.
var ErrStopped = errors.New(errors.ErrEngine, "Engine stopped", "")

// Options configures an Engine. Zero values pick the defaults.
type Options struct {
	QueueSize     int
	NetSamples    int
	SourceSamples int

	// Notify receives the current throughput after every NetCmd. Sends
	// never block; a busy receiver misses updates.
	Notify        chan<- telemetry.Throughput
	NotifyRefresh time.Duration

	// Layout is the initial main layout.
	Layout params.Layout

	Metrics *metrics.Recorder
	Logger  logger.Logger
}

// Engine is the single owner of parameters, source histories and rules.
type Engine struct {
	cmds     chan Command
	done     chan struct{}
	doneOnce sync.Once

	params    *params.Parameters
	sources   map[string]*history.Buffer[telemetry.SystemSnapshot]
	sourceCap int
	rules     []*rules.Rule
	fired     []int

	notify        chan<- telemetry.Throughput
	notifyRefresh time.Duration

	rec *metrics.Recorder
	log logger.Logger
}

// New creates an engine with an empty history for DefaultHost.
func New(opts Options) *Engine {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.SourceSamples <= 0 {
		opts.SourceSamples = DefaultSourceSamples
	}
	if opts.NetSamples <= 0 {
		opts.NetSamples = opts.SourceSamples + 1
	}
	if opts.NotifyRefresh <= 0 {
		opts.NotifyRefresh = DefaultNotifyRefresh
	}
	if opts.Logger == nil {
		opts.Logger = logger.Noop()
	}

	e := &Engine{
		cmds:          make(chan Command, opts.QueueSize),
		done:          make(chan struct{}),
		params:        params.New(opts.NetSamples),
		sources:       make(map[string]*history.Buffer[telemetry.SystemSnapshot]),
		sourceCap:     opts.SourceSamples,
		notify:        opts.Notify,
		notifyRefresh: opts.NotifyRefresh,
		rec:           opts.Metrics,
		log:           opts.Logger,
	}
	e.params.Options.MainLayout = opts.Layout
	e.source(DefaultHost)
	return e
}

// AddRule registers r directly. It must only be called before Run; once
// the engine runs, rules are added with AddRuleCmd.
func (e *Engine) AddRule(r *rules.Rule) {
	e.addRule(r)
}

func (e *Engine) addRule(r *rules.Rule) {
	if r == nil {
		return
	}
	e.rules = append(e.rules, r)
	e.fired = append(e.fired, 0)
	e.log.Debug("rule %q (%s) registered", r.Name, r.Kind)
}

// Handle returns the producer side of the engine.
func (e *Engine) Handle() *Handle {
	return &Handle{cmds: e.cmds, done: e.done}
}

// Run processes commands until ctx is cancelled or a StopCmd is received.
// It must be called once. Commands still queued when it returns are
// discarded and later sends fail with ErrStopped.
func (e *Engine) Run(ctx context.Context) error {
	defer e.doneOnce.Do(func() { close(e.done) })

	e.log.Debug("started with %d rules", len(e.rules))
	for {
		select {
		case <-ctx.Done():
			e.log.Debug("context done, stopping")
			return nil
		case cmd := <-e.cmds:
			e.rec.Command(cmd.Kind())
			if _, ok := cmd.(StopCmd); ok {
				e.log.Debug("stop requested")
				return nil
			}
			e.handle(cmd)
		}
	}
}

// Done is closed when Run returns.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

func (e *Engine) handle(cmd Command) {
	switch c := cmd.(type) {
	case NetCmd:
		e.handleNet(c.Sample)
	case SysInfoCmd:
		e.handleSysInfo(c.AnnotatedSnapshot)
	case TouchCmd:
		e.handleTouch(c.Status)
	case AddRuleCmd:
		e.addRule(c.Rule)
	case GetLastNetInfo:
		reply(e, c.Reply, NetInfo{
			Previous: e.params.NetSamples.Item(-2),
			Last:     e.params.NetSamples.Last(),
		})
	case GetTouchInfo:
		pending := e.params.Touches
		e.params.Touches = nil
		e.rec.PendingTouches(0)
		reply(e, c.Reply, pending)
	case GetNetTxRx:
		reply(e, c.Reply, txRx(e.params.NetSamples, c.Refresh))
	case GetLayout:
		reply(e, c.Reply, e.params.Options.MainLayout)
	case GetSystemInfos:
		reply(e, c.Reply, e.systemInfos())
	case GetRules:
		reply(e, c.Reply, e.ruleInfos())
	default:
		e.log.Warn("ignoring unknown command %T", cmd)
	}
}

// reply delivers v without blocking.
func reply[T any](e *Engine, ch chan<- T, v T) {
	if ch == nil {
		return
	}
	select {
	case ch <- v:
	default:
		e.log.Debug("reply of type %T dropped, receiver gone", v)
	}
}

func (e *Engine) handleNet(s telemetry.NetworkSample) {
	prev := e.params.NetSamples.Last()

	var wraps int
	s.TxBytes, wraps = unwrap(s.TxBytes, prev.TxBytes)
	e.rec.CounterWrap("tx", wraps)
	s.RxBytes, wraps = unwrap(s.RxBytes, prev.RxBytes)
	e.rec.CounterWrap("rx", wraps)

	e.params.NetSamples.Add(s)

	if e.notify == nil || e.params.NetSamples.Size() < 2 {
		return
	}
	rates := txRx(e.params.NetSamples, e.notifyRefresh)
	n := len(rates.Tx) - 1
	select {
	case e.notify <- telemetry.Throughput{TxPerSec: rates.Tx[n], RxPerSec: rates.Rx[n]}:
	default:
		e.rec.NotificationDropped()
	}
}

// unwrap adds multiples of 2^32 to raw until it is not below prev.
func unwrap(raw, prev int64) (int64, int) {
	if raw >= prev {
		return raw, 0
	}
	k := (prev - raw + counterWrap - 1) / counterWrap
	return raw + k*counterWrap, int(k)
}

func (e *Engine) handleSysInfo(a telemetry.AnnotatedSnapshot) {
	buf := e.source(a.Source)
	if a.Snapshot == nil {
		buf.Remove()
		e.log.Debug("source %s missed a sample, %d left", a.Source, buf.Size())
		return
	}
	buf.Add(a.Snapshot.Clone())
}

func (e *Engine) source(name string) *history.Buffer[telemetry.SystemSnapshot] {
	buf, ok := e.sources[name]
	if !ok {
		buf = history.New(e.sourceCap, telemetry.SystemSnapshot{})
		e.sources[name] = buf
		e.rec.Sources(len(e.sources))
		e.log.Debug("tracking source %s", name)
	}
	return buf
}

func (e *Engine) handleTouch(s touch.Status) {
	e.params.Touches = append(e.params.Touches, s)
	e.evaluate()
	e.rec.PendingTouches(len(e.params.Touches))
}

// evaluate checks every rule against the newest pending touch and applies
// the matching ones. Any match consumes all pending touches.
func (e *Engine) evaluate() {
	last, ok := e.params.LastTouch()
	if !ok {
		return
	}

	applied := false
	for i, r := range e.rules {
		if !r.Check(last) {
			continue
		}
		applied = true
		e.fired[i]++
		e.rec.RuleFired(r.Name)
		ran := r.Apply(e.params)
		e.log.Info("rule %q fired on pins %s (executed=%t)", r.Name, last, ran)
	}
	if applied {
		e.params.Touches = nil
	}
}

func (e *Engine) systemInfos() SystemInfos {
	out := make(SystemInfos, len(e.sources))
	for name, buf := range e.sources {
		out[name] = buf.CloneFunc(telemetry.SystemSnapshot.Clone)
	}
	return out
}

func (e *Engine) ruleInfos() []rules.Info {
	out := make([]rules.Info, len(e.rules))
	for i, r := range e.rules {
		out[i] = rules.Info{Name: r.Name, Kind: r.Kind, Fired: e.fired[i]}
	}
	return out
}

// txRx computes rates between consecutive live samples. A non-positive
// refresh is treated as one second.
func txRx(samples *history.Buffer[telemetry.NetworkSample], refresh time.Duration) NetRates {
	if refresh <= 0 {
		refresh = time.Second
	}
	secs := refresh.Seconds()

	values := samples.Values()
	if len(values) < 2 {
		return NetRates{Tx: []int64{}, Rx: []int64{}}
	}
	rates := NetRates{
		Tx: make([]int64, 0, len(values)-1),
		Rx: make([]int64, 0, len(values)-1),
	}
	for i := 1; i < len(values); i++ {
		rates.Tx = append(rates.Tx, int64(math.Round(float64(values[i].TxBytes-values[i-1].TxBytes)/secs)))
		rates.Rx = append(rates.Rx, int64(math.Round(float64(values[i].RxBytes-values[i-1].RxBytes)/secs)))
	}
	return rates
}
