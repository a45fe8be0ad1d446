package metrics

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/zaczkows/fb4rasp/internal/errors"
)

// Path is where the metrics are served.
const Path = "/metrics"

// ListenAndServe serves Handler on addr until ctx is cancelled.
func (r *Recorder) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot serve metrics on "+addr,
			"Pick another address with --metrics-addr or metrics.addr")
	}
	return r.Serve(ctx, ln)
}

// Serve serves Handler under Path on ln until ctx is cancelled.
func (r *Recorder) Serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle(Path, r.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
