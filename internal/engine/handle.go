package engine

import (
	"context"
	"time"

	"github.com/zaczkows/fb4rasp/internal/params"
	"github.com/zaczkows/fb4rasp/internal/rules"
	"github.com/zaczkows/fb4rasp/internal/telemetry"
	"github.com/zaczkows/fb4rasp/internal/touch"
)

// Handle is the producer and query side of an Engine. It is safe for
// concurrent use and cheap to copy around.
type Handle struct {
	cmds chan<- Command
	done <-chan struct{}
}

// Send queues cmd, waiting while the queue is full. It fails with
// ErrStopped once the engine has stopped.
func (h *Handle) Send(cmd Command) error {
	return h.SendContext(context.Background(), cmd)
}

// SendContext is Send bounded by ctx.
func (h *Handle) SendContext(ctx context.Context, cmd Command) error {
	select {
	case <-h.done:
		return ErrStopped
	default:
	}

	select {
	case h.cmds <- cmd:
		return nil
	case <-h.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PushNet queues a router counter sample.
func (h *Handle) PushNet(s telemetry.NetworkSample) error {
	return h.Send(NetCmd{Sample: s})
}

// PushSysInfo queues a copy of a snapshot for a source. A nil snapshot
// reports a failed poll.
func (h *Handle) PushSysInfo(source string, s *telemetry.SystemSnapshot) error {
	if s != nil {
		c := s.Clone()
		s = &c
	}
	return h.Send(SysInfoCmd{telemetry.AnnotatedSnapshot{Source: source, Snapshot: s}})
}

// PushTouch queues a touch event.
func (h *Handle) PushTouch(s touch.Status) error {
	return h.Send(TouchCmd{Status: s})
}

// AddRule registers a rule.
func (h *Handle) AddRule(r *rules.Rule) error {
	return h.Send(AddRuleCmd{Rule: r})
}

// Stop asks the engine to stop after the commands already queued.
func (h *Handle) Stop() error {
	return h.Send(StopCmd{})
}

// Done is closed when the engine stops.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// ask sends a query and waits for its answer.
func ask[T any](ctx context.Context, h *Handle, build func(chan<- T) Command) (T, error) {
	var zero T
	replyCh := make(chan T, 1)

	if err := h.SendContext(ctx, build(replyCh)); err != nil {
		return zero, err
	}

	select {
	case v := <-replyCh:
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-h.done:
		// The engine may have answered just before stopping.
		select {
		case v := <-replyCh:
			return v, nil
		default:
			return zero, ErrStopped
		}
	}
}

// LastNetInfo returns the previous and the latest network samples.
func (h *Handle) LastNetInfo(ctx context.Context) (NetInfo, error) {
	return ask(ctx, h, func(r chan<- NetInfo) Command { return GetLastNetInfo{Reply: r} })
}

// TouchInfo takes all pending touch events.
func (h *Handle) TouchInfo(ctx context.Context) ([]touch.Status, error) {
	return ask(ctx, h, func(r chan<- []touch.Status) Command { return GetTouchInfo{Reply: r} })
}

// NetTxRx returns tx and rx rates for samples taken every refresh.
func (h *Handle) NetTxRx(ctx context.Context, refresh time.Duration) (NetRates, error) {
	return ask(ctx, h, func(r chan<- NetRates) Command { return GetNetTxRx{Refresh: refresh, Reply: r} })
}

// Layout returns the current main layout.
func (h *Handle) Layout(ctx context.Context) (params.Layout, error) {
	return ask(ctx, h, func(r chan<- params.Layout) Command { return GetLayout{Reply: r} })
}

// SystemInfos returns copies of all source histories.
func (h *Handle) SystemInfos(ctx context.Context) (SystemInfos, error) {
	return ask(ctx, h, func(r chan<- SystemInfos) Command { return GetSystemInfos{Reply: r} })
}

// Rules returns the registered rules with their fire counts.
func (h *Handle) Rules(ctx context.Context) ([]rules.Info, error) {
	return ask(ctx, h, func(r chan<- []rules.Info) Command { return GetRules{Reply: r} })
}
