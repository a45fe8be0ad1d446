package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counters(t *testing.T) {
	r := New()

	r.Command("net")
	r.Command("net")
	r.Command("touch")
	r.RuleFired("swap-layout")
	r.CounterWrap("tx", 2)
	r.CounterWrap("rx", 0)
	r.Sources(3)
	r.PendingTouches(1)
	r.NotificationDropped()
	r.PollFailed("nas")
	r.AgentClients(1)
	r.AgentClients(1)
	r.AgentClients(-1)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.commands.WithLabelValues("net")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.commands.WithLabelValues("touch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.rulesFired.WithLabelValues("swap-layout")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.counterWraps.WithLabelValues("tx")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.counterWraps.WithLabelValues("rx")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.sources))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.pending))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.queueDrops))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.pollFailures.WithLabelValues("nas")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.agentClients))
}

func TestRecorder_NilSafe(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.Command("net")
		r.RuleFired("x")
		r.CounterWrap("tx", 1)
		r.Sources(1)
		r.PendingTouches(1)
		r.NotificationDropped()
		r.PollFailed("x")
		r.AgentClients(1)
	})
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.Command("sysinfo")

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `fb4rasp_engine_commands_total{kind="sysinfo"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
