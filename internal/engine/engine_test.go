package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zaczkows/fb4rasp/internal/errors"
	"github.com/zaczkows/fb4rasp/internal/logger"
	"github.com/zaczkows/fb4rasp/internal/metrics"
	"github.com/zaczkows/fb4rasp/internal/params"
	"github.com/zaczkows/fb4rasp/internal/rules"
	"github.com/zaczkows/fb4rasp/internal/telemetry"
	"github.com/zaczkows/fb4rasp/internal/touch"
)

func start(t *testing.T, opts Options) (*Engine, *Handle) {
	t.Helper()
	e := New(opts)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = e.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-e.Done()
	})
	return e, e.Handle()
}

func ctxT(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func net(tx, rx int64) telemetry.NetworkSample {
	return telemetry.NetworkSample{TxBytes: tx, RxBytes: rx}
}

func TestUnwrap(t *testing.T) {
	tests := []struct {
		name      string
		raw, prev int64
		want      int64
		wraps     int
	}{
		{"increasing", 150, 100, 150, 0},
		{"equal", 100, 100, 100, 0},
		{"single wrap", 50, 100, 50 + 1<<32, 1},
		{"raw just below prev", 99, 100, 99 + 1<<32, 1},
		{"double wrap", 10, 1<<32 + 100, 10 + 2<<32, 2},
		{"prev exactly one wrap above", 0, 1 << 32, 1 << 32, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, wraps := unwrap(tt.raw, tt.prev)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wraps, wraps)
			assert.GreaterOrEqual(t, got, tt.prev)
		})
	}
}

func TestNet_CounterWrap(t *testing.T) {
	_, h := start(t, Options{})

	require.NoError(t, h.PushNet(net(100, 1000)))
	require.NoError(t, h.PushNet(net(50, 2000)))

	info, err := h.LastNetInfo(ctxT(t))
	require.NoError(t, err)
	assert.Equal(t, net(100, 1000), info.Previous)
	assert.Equal(t, net(50+1<<32, 2000), info.Last)
}

func TestNet_MonotonicOverRawSequence(t *testing.T) {
	_, h := start(t, Options{NetSamples: 16})

	raw := []int64{10, 4_000_000_000, 5, 3_000_000_000, 3_000_000_000, 1, 2}
	for _, v := range raw {
		require.NoError(t, h.PushNet(net(v, v)))
	}

	rates, err := h.NetTxRx(ctxT(t), time.Second)
	require.NoError(t, err)
	require.Len(t, rates.Tx, len(raw)-1)
	for i, r := range rates.Tx {
		assert.GreaterOrEqual(t, r, int64(0), "rate %d", i)
		assert.GreaterOrEqual(t, rates.Rx[i], int64(0), "rate %d", i)
	}
}

func TestNetTxRx(t *testing.T) {
	_, h := start(t, Options{})

	for _, v := range []int64{100, 150, 210} {
		require.NoError(t, h.PushNet(net(v, v*2)))
	}

	rates, err := h.NetTxRx(ctxT(t), 3*time.Second)
	require.NoError(t, err)
	assert.Equal(t, []int64{17, 20}, rates.Tx)
	assert.Equal(t, []int64{33, 40}, rates.Rx)
}

func TestNetTxRx_Edges(t *testing.T) {
	_, h := start(t, Options{})

	rates, err := h.NetTxRx(ctxT(t), time.Second)
	require.NoError(t, err)
	assert.Empty(t, rates.Tx)
	assert.Empty(t, rates.Rx)

	require.NoError(t, h.PushNet(net(0, 0)))
	require.NoError(t, h.PushNet(net(10, 10)))
	rates, err = h.NetTxRx(ctxT(t), 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{10}, rates.Tx, "non-positive refresh counts as one second")
}

func TestNetTxRx_UsesOnlyLiveSamples(t *testing.T) {
	_, h := start(t, Options{NetSamples: 3})

	for _, v := range []int64{0, 10, 30, 60, 100} {
		require.NoError(t, h.PushNet(net(v, 0)))
	}

	rates, err := h.NetTxRx(ctxT(t), time.Second)
	require.NoError(t, err)
	assert.Equal(t, []int64{30, 40}, rates.Tx)
}

func TestSysInfo_LazySourcesAndRemove(t *testing.T) {
	_, h := start(t, Options{SourceSamples: 4})
	ctx := ctxT(t)

	infos, err := h.SystemInfos(ctx)
	require.NoError(t, err)
	require.Contains(t, infos, DefaultHost)
	assert.Equal(t, 0, infos[DefaultHost].Size())
	assert.Len(t, infos, 1)

	snap := &telemetry.SystemSnapshot{CPU: telemetry.CPUUsage{Avg: 42, PerCore: []float32{40, 44}}}
	require.NoError(t, h.PushSysInfo("nas", snap))
	require.NoError(t, h.PushSysInfo("nas", snap))
	require.NoError(t, h.PushSysInfo("nas", nil))

	snap.CPU.PerCore[0] = 99

	infos, err = h.SystemInfos(ctx)
	require.NoError(t, err)
	require.Contains(t, infos, "nas")
	nas := infos["nas"]
	assert.Equal(t, 4, nas.Cap(), "same capacity as other sources")
	assert.Equal(t, 1, nas.Size())
	assert.Equal(t, float32(42), nas.Last().CPU.Avg)
	assert.Equal(t, []float32{40, 44}, nas.Last().CPU.PerCore, "engine keeps its own copy")

	// A failure from a never-seen source still creates it.
	require.NoError(t, h.PushSysInfo("attic", nil))
	infos, err = h.SystemInfos(ctx)
	require.NoError(t, err)
	require.Contains(t, infos, "attic")
	assert.Equal(t, 0, infos["attic"].Size())
}

func TestSystemInfos_ReplyIsACopy(t *testing.T) {
	_, h := start(t, Options{})
	ctx := ctxT(t)

	require.NoError(t, h.PushSysInfo(DefaultHost, &telemetry.SystemSnapshot{CPU: telemetry.CPUUsage{PerCore: []float32{1}}}))
	first, err := h.SystemInfos(ctx)
	require.NoError(t, err)
	first[DefaultHost].Last().CPU.PerCore[0] = 77
	first[DefaultHost].Add(telemetry.SystemSnapshot{})

	second, err := h.SystemInfos(ctx)
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, second[DefaultHost].Last().CPU.PerCore)
	assert.Equal(t, 1, second[DefaultHost].Size())
}

func TestTouch_LayoutToggleRule(t *testing.T) {
	_, h := start(t, Options{})
	ctx := ctxT(t)

	require.NoError(t, h.AddRule(rules.Simple("swap-layout", rules.OnlyPin(2), rules.ToggleLayout{})))

	layout, err := h.Layout(ctx)
	require.NoError(t, err)
	assert.Equal(t, params.LayoutVertical, layout)

	require.NoError(t, h.PushTouch(touch.FromPins(2)))
	layout, err = h.Layout(ctx)
	require.NoError(t, err)
	assert.Equal(t, params.LayoutHorizontal, layout)

	pending, err := h.TouchInfo(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending, "firing consumes the touch")

	require.NoError(t, h.PushTouch(touch.FromPins(2)))
	layout, err = h.Layout(ctx)
	require.NoError(t, err)
	assert.Equal(t, params.LayoutVertical, layout)
}

func TestTouch_PendingAccumulatesUntilARuleFires(t *testing.T) {
	_, h := start(t, Options{})
	ctx := ctxT(t)

	require.NoError(t, h.AddRule(rules.All("chord", []rules.Condition{rules.NewExactPins(2, 3)}, rules.ToggleLayout{})))

	require.NoError(t, h.PushTouch(touch.FromPins(2)))
	require.NoError(t, h.PushTouch(touch.FromPins(3)))
	pending, err := h.TouchInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, []touch.Status{touch.FromPins(2), touch.FromPins(3)}, pending)

	require.NoError(t, h.PushTouch(touch.FromPins(2)))
	require.NoError(t, h.PushTouch(touch.FromPins(2, 3)))
	pending, err = h.TouchInfo(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	layout, err := h.Layout(ctx)
	require.NoError(t, err)
	assert.Equal(t, params.LayoutHorizontal, layout)
}

func TestTouchInfo_IsDestructive(t *testing.T) {
	_, h := start(t, Options{})
	ctx := ctxT(t)

	require.NoError(t, h.PushTouch(touch.FromPins(1)))
	require.NoError(t, h.PushTouch(touch.FromPins(5, 6)))

	first, err := h.TouchInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, []touch.Status{touch.FromPins(1), touch.FromPins(5, 6)}, first)

	second, err := h.TouchInfo(ctx)
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestTouch_AllRulesEvaluatedInOrder(t *testing.T) {
	_, h := start(t, Options{})
	ctx := ctxT(t)

	var order []string
	rec := func(name string) rules.Action {
		return rules.ActionFunc(func(*params.Parameters) bool {
			order = append(order, name)
			return true
		})
	}
	require.NoError(t, h.AddRule(rules.Simple("first", rules.AnyPin(4), rec("first"))))
	require.NoError(t, h.AddRule(rules.Simple("never", rules.AnyPin(9), rec("never"))))
	require.NoError(t, h.AddRule(rules.Any("third", []rules.Condition{rules.AnyPin(0), rules.AnyPin(4)}, rec("third"))))

	require.NoError(t, h.PushTouch(touch.FromPins(4)))

	infos, err := h.Rules(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "third"}, order)
	require.Len(t, infos, 3)
	assert.Equal(t, rules.Info{Name: "first", Kind: rules.KindSingle, Fired: 1}, infos[0])
	assert.Equal(t, 0, infos[1].Fired)
	assert.Equal(t, rules.Info{Name: "third", Kind: rules.KindAny, Fired: 1}, infos[2])
}

func TestAddRule_NilIgnored(t *testing.T) {
	_, h := start(t, Options{})
	require.NoError(t, h.AddRule(nil))

	infos, err := h.Rules(ctxT(t))
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestAddRule_BeforeRunPrecedesQueuedTouches(t *testing.T) {
	e := New(Options{})
	h := e.Handle()

	// the touch is queued first, yet the rule is already in place when it
	// is consumed
	require.NoError(t, h.PushTouch(touch.FromPins(2)))
	e.AddRule(rules.Simple("swap-layout", rules.OnlyPin(2), rules.ToggleLayout{}))
	e.AddRule(nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = e.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-e.Done()
	})

	layout, err := h.Layout(ctxT(t))
	require.NoError(t, err)
	assert.Equal(t, params.LayoutHorizontal, layout)

	infos, err := h.Rules(ctxT(t))
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, 1, infos[0].Fired)
}

func TestStop(t *testing.T) {
	e := New(Options{})
	h := e.Handle()

	require.NoError(t, h.PushNet(net(1, 1)))
	require.NoError(t, h.Stop())

	require.NoError(t, e.Run(context.Background()))

	err := h.PushNet(net(2, 2))
	require.ErrorIs(t, err, ErrStopped)
	assert.True(t, errors.IsCode(err, errors.ErrEngine))

	_, err = h.Layout(context.Background())
	assert.ErrorIs(t, err, ErrStopped)
}

func TestRun_ContextCancel(t *testing.T) {
	e := New(Options{})
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- e.Run(ctx) }()
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop")
	}
	_, err := e.Handle().TouchInfo(context.Background())
	assert.ErrorIs(t, err, ErrStopped)
}

func TestQuery_CallerContextExpires(t *testing.T) {
	e := New(Options{})
	h := e.Handle()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// Not running: the query is queued but never answered.
	_, err := h.Layout(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQuery_AbandonedReplyDoesNotBlock(t *testing.T) {
	_, h := start(t, Options{})

	// Unbuffered reply with no receiver: the engine must drop it.
	require.NoError(t, h.Send(GetLayout{Reply: make(chan params.Layout)}))
	require.NoError(t, h.Send(GetTouchInfo{}))

	layout, err := h.Layout(ctxT(t))
	require.NoError(t, err)
	assert.Equal(t, params.LayoutVertical, layout)
}

type unknownCmd struct{}

func (unknownCmd) Kind() string { return "unknown" }

func TestUnknownCommandIsLogged(t *testing.T) {
	log := logger.NewBufferLogger()
	_, h := start(t, Options{Logger: log})

	require.NoError(t, h.Send(unknownCmd{}))
	_, err := h.Layout(ctxT(t))
	require.NoError(t, err)
	assert.True(t, log.Contains("warn", "unknown command"))
}

func TestNotify(t *testing.T) {
	notify := make(chan telemetry.Throughput, 1)
	rec := metrics.New()
	_, h := start(t, Options{Notify: notify, NotifyRefresh: 3 * time.Second, Metrics: rec})

	require.NoError(t, h.PushNet(net(100, 0)))
	require.NoError(t, h.PushNet(net(150, 30)))

	select {
	case tp := <-notify:
		assert.Equal(t, telemetry.Throughput{TxPerSec: 17, RxPerSec: 10}, tp)
	case <-time.After(2 * time.Second):
		t.Fatal("no throughput notification")
	}

	// Receiver not draining: further sends are dropped, the engine keeps going.
	require.NoError(t, h.PushNet(net(210, 60)))
	require.NoError(t, h.PushNet(net(300, 90)))
	info, err := h.LastNetInfo(ctxT(t))
	require.NoError(t, err)
	assert.Equal(t, int64(300), info.Last.TxBytes)
}

func TestNew_Defaults(t *testing.T) {
	e := New(Options{})

	assert.Equal(t, DefaultQueueSize, cap(e.cmds))
	assert.Equal(t, DefaultSourceSamples, e.sourceCap)
	assert.Equal(t, 80, e.sourceCap)
	assert.Equal(t, 81, e.params.NetSamples.Cap())
	assert.Contains(t, e.sources, DefaultHost)
}

func TestNew_InitialLayout(t *testing.T) {
	_, h := start(t, Options{Layout: params.LayoutHorizontal})

	l, err := h.Layout(ctxT(t))
	require.NoError(t, err)
	assert.Equal(t, params.LayoutHorizontal, l)
}
