// Package metrics exposes engine and producer counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fb4rasp"

// Recorder collects fb4rasp metrics on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	commands     *prometheus.CounterVec
	rulesFired   *prometheus.CounterVec
	counterWraps *prometheus.CounterVec
	sources      prometheus.Gauge
	pending      prometheus.Gauge
	queueDrops   prometheus.Counter
	pollFailures *prometheus.CounterVec
	agentClients prometheus.Gauge
}

// New creates a Recorder with a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		commands: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_commands_total",
			Help:      "Commands processed by the engine, by kind",
		}, []string{"kind"}),
		rulesFired: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rules_fired_total",
			Help:      "Touch rules whose conditions matched, by rule name",
		}, []string{"rule"}),
		counterWraps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "net_counter_wraps_total",
			Help:      "32-bit interface counter rollovers corrected, by direction",
		}, []string{"direction"}),
		sources: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "system_sources",
			Help:      "Number of hosts with a system snapshot history",
		}),
		pending: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_touches",
			Help:      "Touch events not yet consumed",
		}),
		queueDrops: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_dropped_total",
			Help:      "Throughput notifications dropped because the receiver was busy",
		}),
		pollFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_failures_total",
			Help:      "Failed producer polls, by source",
		}, []string{"source"}),
		agentClients: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "agent_clients",
			Help:      "WebSocket clients connected to the agent",
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// The methods below are nil-safe so callers can hold an optional *Recorder.

func (r *Recorder) Command(kind string) {
	if r != nil {
		r.commands.WithLabelValues(kind).Inc()
	}
}

func (r *Recorder) RuleFired(name string) {
	if r != nil {
		r.rulesFired.WithLabelValues(name).Inc()
	}
}

func (r *Recorder) CounterWrap(direction string, times int) {
	if r != nil && times > 0 {
		r.counterWraps.WithLabelValues(direction).Add(float64(times))
	}
}

func (r *Recorder) Sources(n int) {
	if r != nil {
		r.sources.Set(float64(n))
	}
}

func (r *Recorder) PendingTouches(n int) {
	if r != nil {
		r.pending.Set(float64(n))
	}
}

func (r *Recorder) NotificationDropped() {
	if r != nil {
		r.queueDrops.Inc()
	}
}

func (r *Recorder) PollFailed(source string) {
	if r != nil {
		r.pollFailures.WithLabelValues(source).Inc()
	}
}

func (r *Recorder) AgentClients(delta int) {
	if r != nil {
		r.agentClients.Add(float64(delta))
	}
}
