package collect

import (
	"context"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zaczkows/fb4rasp/internal/errors"
	"github.com/zaczkows/fb4rasp/internal/logger"
	"github.com/zaczkows/fb4rasp/internal/metrics"
	"github.com/zaczkows/fb4rasp/internal/telemetry"
)

// Remote poller defaults.
const (
	DefaultRemoteRefresh  = time.Second
	DefaultDialBackoff    = 5 * time.Second
	DefaultRequestBackoff = 2 * time.Second
)

// RemoteURL builds the agent endpoint for ip and port.
func RemoteURL(ip string, port int) string {
	u := url.URL{
		Scheme: "ws",
		Host:   net.JoinHostPort(ip, strconv.Itoa(port)),
		Path:   telemetry.SysInfoPath,
	}
	return u.String()
}

// RemoteOptions configures a RemotePoller.
type RemoteOptions struct {
	// Name is the source the snapshots are recorded under.
	Name string
	URL  string

	// Refresh is the interval requested from the agent.
	Refresh time.Duration

	DialBackoff    time.Duration
	RequestBackoff time.Duration

	Dialer  *websocket.Dialer
	Metrics *metrics.Recorder
	Logger  logger.Logger
}

// RemotePoller keeps a WebSocket session with one agent and forwards every
// snapshot it streams. While the agent is unreachable the source's history
// shrinks by one entry per attempt.
type RemotePoller struct {
	opts RemoteOptions
	sink SysSink
	log  logger.Logger
}

// NewRemotePoller fills in defaults for zero options.
func NewRemotePoller(sink SysSink, opts RemoteOptions) *RemotePoller {
	if opts.Refresh <= 0 {
		opts.Refresh = DefaultRemoteRefresh
	}
	if opts.DialBackoff <= 0 {
		opts.DialBackoff = DefaultDialBackoff
	}
	if opts.RequestBackoff <= 0 {
		opts.RequestBackoff = DefaultRequestBackoff
	}
	if opts.Dialer == nil {
		opts.Dialer = &websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Noop()
	}
	return &RemotePoller{opts: opts, sink: sink, log: opts.Logger}
}

// Run connects, requests the refresh interval and reads until ctx is done.
// A dropped session is re-dialled right away.
func (p *RemotePoller) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		conn, _, err := p.opts.Dialer.DialContext(ctx, p.opts.URL, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.log.Warn("remote %s: connect to %s failed: %v", p.opts.Name, p.opts.URL, err)
			if err := p.failed(); err != nil {
				return err
			}
			sleep(ctx, p.opts.DialBackoff)
			continue
		}

		req := telemetry.RefreshRequest(p.opts.Refresh)
		if err := conn.WriteMessage(websocket.TextMessage, []byte(req)); err != nil {
			conn.Close()
			p.log.Warn("remote %s: refresh request failed: %v", p.opts.Name, err)
			if err := p.failed(); err != nil {
				return err
			}
			sleep(ctx, p.opts.RequestBackoff)
			continue
		}
		p.log.Debug("remote %s: connected, %s", p.opts.Name, req)

		err = p.read(ctx, conn)
		conn.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// read forwards snapshots until the session breaks. Only sink errors are
// returned.
func (p *RemotePoller) read(ctx context.Context, conn *websocket.Conn) error {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				p.log.Warn("remote %s: session lost: %v", p.opts.Name, err)
				p.opts.Metrics.PollFailed(p.opts.Name)
			}
			return nil
		}
		if kind != websocket.TextMessage {
			continue
		}
		batch, err := telemetry.DecodeSnapshots(data)
		if err != nil {
			p.log.Warn("remote %s: dropping malformed payload: %v", p.opts.Name, err)
			continue
		}
		for i := range batch {
			if err := p.sink.PushSysInfo(p.opts.Name, &batch[i]); err != nil {
				return errors.WrapWithCode(err, errors.ErrRemote, "Cannot deliver remote snapshot", "")
			}
		}
	}
}

func (p *RemotePoller) failed() error {
	p.opts.Metrics.PollFailed(p.opts.Name)
	if err := p.sink.PushSysInfo(p.opts.Name, nil); err != nil {
		return errors.WrapWithCode(err, errors.ErrRemote, "Cannot report remote failure", "")
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
