// Package agent serves this machine's CPU and memory snapshots to remote
// dashboards over a WebSocket, plus its own Prometheus metrics.
package agent

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zaczkows/fb4rasp/internal/collect"
	"github.com/zaczkows/fb4rasp/internal/errors"
	"github.com/zaczkows/fb4rasp/internal/logger"
	"github.com/zaczkows/fb4rasp/internal/metrics"
	"github.com/zaczkows/fb4rasp/internal/telemetry"
)

// DefaultListen is the address the dashboard expects agents on.
const DefaultListen = "0.0.0.0:12345"

// CloseReasonInvalidInterval is sent with close code 1011 when a refresh
// request cannot be parsed.
const CloseReasonInvalidInterval = "Invalid interval"

const (
	writeWait       = 5 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Options configures a Server.
type Options struct {
	Listen  string
	Stats   collect.Stats
	Metrics *metrics.Recorder
	Logger  logger.Logger
}

// Server is the agent's HTTP server.
type Server struct {
	listen   string
	stats    collect.Stats
	rec      *metrics.Recorder
	log      logger.Logger
	upgrader websocket.Upgrader
}

// New creates a server. Stats defaults to the gopsutil reader.
func New(opts Options) *Server {
	if opts.Listen == "" {
		opts.Listen = DefaultListen
	}
	if opts.Stats == nil {
		opts.Stats = collect.HostStats{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Noop()
	}
	return &Server{
		listen: opts.Listen,
		stats:  opts.Stats,
		rec:    opts.Metrics,
		log:    opts.Logger,
		upgrader: websocket.Upgrader{
			// Dashboards are not browsers; there is no origin to check.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler routes /ws/sysinfo and, when a recorder is set, /metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(telemetry.SysInfoPath, s.serveSysInfo)
	if s.rec != nil {
		mux.Handle("/metrics", s.rec.Handler())
	}
	return mux
}

// ListenAndServe serves until ctx is cancelled. Open sessions are closed
// on shutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.listen)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot listen on "+s.listen,
			"Pick another address with --listen or agent.listen")
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("agent listening on %s", ln.Addr())
	if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) serveSysInfo(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrade from %s failed: %v", r.RemoteAddr, err)
		return
	}
	s.rec.AgentClients(1)
	defer s.rec.AgentClients(-1)

	s.log.Debug("session from %s", r.RemoteAddr)
	sess := &session{conn: conn, stats: s.stats, log: s.log, peer: r.RemoteAddr}
	sess.run(r.Context())
	s.log.Debug("session from %s closed", r.RemoteAddr)
}

// session owns one client connection. gorilla allows one concurrent
// writer, so writes go through writeMu.
type session struct {
	conn  *websocket.Conn
	stats collect.Stats
	log   logger.Logger
	peer  string

	writeMu sync.Mutex
}

func (s *session) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, func() { s.conn.Close() })
	defer stop()
	defer s.conn.Close()

	var (
		wg         sync.WaitGroup
		stopStream context.CancelFunc
	)
	defer func() {
		if stopStream != nil {
			stopStream()
		}
		wg.Wait()
	}()

	for {
		kind, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		switch kind {
		case websocket.TextMessage:
			interval, err := telemetry.ParseRefreshRequest(string(data))
			if stderrors.Is(err, telemetry.ErrNotRefresh) {
				s.log.Debug("%s: ignoring %q", s.peer, data)
				continue
			}
			if err != nil {
				s.log.Warn("%s: %v", s.peer, err)
				s.closeWith(websocket.CloseInternalServerErr, CloseReasonInvalidInterval)
				return
			}
			if stopStream != nil {
				stopStream()
				wg.Wait()
			}
			var streamCtx context.Context
			streamCtx, stopStream = context.WithCancel(ctx)
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.stream(streamCtx, interval)
			}()
		case websocket.BinaryMessage:
			if err := s.write(websocket.BinaryMessage, data); err != nil {
				return
			}
		}
	}
}

// stream sends a one-element snapshot batch every interval.
func (s *session) stream(ctx context.Context, interval time.Duration) {
	s.log.Debug("%s: streaming every %v", s.peer, interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		snap, err := s.stats.Snapshot(ctx)
		if err != nil {
			s.log.Warn("%s: %v", s.peer, err)
			continue
		}
		payload, err := telemetry.EncodeSnapshots([]telemetry.SystemSnapshot{snap})
		if err != nil {
			s.log.Error("%s: encode: %v", s.peer, err)
			continue
		}
		if err := s.write(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func (s *session) write(kind int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(kind, data)
}

func (s *session) closeWith(code int, reason string) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	msg := websocket.FormatCloseMessage(code, reason)
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
