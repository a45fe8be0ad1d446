package cli

import (
	"context"
	stderrors "errors"

	"github.com/dustin/go-humanize"

	"github.com/zaczkows/fb4rasp/internal/collect"
	"github.com/zaczkows/fb4rasp/internal/config"
	"github.com/zaczkows/fb4rasp/internal/display"
	"github.com/zaczkows/fb4rasp/internal/engine"
	"github.com/zaczkows/fb4rasp/internal/exec"
	"github.com/zaczkows/fb4rasp/internal/logger"
	"github.com/zaczkows/fb4rasp/internal/metrics"
	"github.com/zaczkows/fb4rasp/internal/params"
	"github.com/zaczkows/fb4rasp/internal/rules"
	"github.com/zaczkows/fb4rasp/internal/telemetry"
	"github.com/zaczkows/fb4rasp/internal/touch"
	"github.com/zaczkows/fb4rasp/pkg/sshutil"
)

// RunOptions holds the flags of the run command.
type RunOptions struct {
	Headless    bool
	NoRouter    bool
	NoTouch     bool
	MetricsAddr string
}

// app is one dashboard session: the engine and everything feeding it.
type app struct {
	cfg  *config.Config
	opts RunOptions

	eng        *engine.Engine
	handle     *engine.Handle
	rec        *metrics.Recorder
	rules      []*rules.Rule
	modes      chan string
	throughput chan telemetry.Throughput
	sensor     *touch.KeySensor

	// Replaced in tests.
	stats collect.Stats
	dial  collect.DialFunc
	pool  *collect.Pool

	log logger.Logger
}

func runCommand(ctx context.Context, opts RunOptions) error {
	cfg, path, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return err
	}
	log := logger.NewEnvLogger("[run]")
	if path == "" {
		log.Debug("no config file found, using defaults")
	} else {
		log.Debug("config: %s", path)
	}

	a, err := newApp(cfg, opts, log)
	if err != nil {
		return err
	}
	defer a.close()
	return a.run(ctx)
}

func newApp(cfg *config.Config, opts RunOptions, log logger.Logger) (*app, error) {
	layout, err := params.ParseLayout(cfg.Display.Layout)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:        cfg,
		opts:       opts,
		rec:        metrics.New(),
		modes:      make(chan string, 4),
		throughput: make(chan telemetry.Throughput, 1),
		stats:      collect.HostStats{},
		dial: collect.SSHDialer(sshutil.Options{
			Timeout:         cfg.Router.Timeout,
			InsecureHostKey: cfg.Router.InsecureHostKey,
			Logger:          logger.NewEnvLogger("[ssh]"),
		}),
		log: log,
	}
	if cfg.Touch.Enable && !opts.NoTouch {
		a.sensor = touch.NewKeySensor()
	}

	a.eng = engine.New(engine.Options{
		SourceSamples: cfg.Display.HistorySamples,
		Notify:        a.throughput,
		NotifyRefresh: cfg.Refresh.Net,
		Layout:        layout,
		Metrics:       a.rec,
		Logger:        logger.NewEnvLogger("[engine]"),
	})
	a.handle = a.eng.Handle()

	a.rules, err = rules.Build(cfg.Rules, rules.Env{
		Modes:           a.modes,
		ShutdownCommand: cfg.Shutdown.Command,
		Runner:          exec.LocalRunner{Log: logger.NewEnvLogger("[exec]")},
		Log:             logger.NewEnvLogger("[rules]"),
	})
	if err != nil {
		return nil, err
	}
	// registered before any producer can push a touch
	for _, r := range a.rules {
		a.eng.AddRule(r)
	}
	return a, nil
}

// run blocks until the dashboard exits, ctx is cancelled or a producer
// fails.
func (a *app) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	producers := []collect.Producer{
		collect.ProducerFunc(a.eng.Run),
		collect.ProducerFunc(func(ctx context.Context) error {
			defer cancel()
			return display.Run(ctx, a.handle, a.displayOptions(), a.opts.Headless, logger.NewEnvLogger("[display]"))
		}),
		collect.ProducerFunc(a.logThroughput),
	}
	producers = append(producers, a.producers()...)

	err := collect.RunAll(ctx, producers...)
	if err != nil && ctx.Err() != nil && stderrors.Is(err, engine.ErrStopped) {
		// a producer raced the shutdown
		return nil
	}
	return err
}

func (a *app) displayOptions() display.Options {
	return display.Options{
		Draw:       a.cfg.Refresh.Draw,
		NetRefresh: a.cfg.Refresh.Net,
		Mode:       a.cfg.Display.Mode,
		Modes:      a.modes,
		Sensor:     a.sensor,
	}
}

// producers builds the data sources enabled by the config and flags.
func (a *app) producers() []collect.Producer {
	cfg := a.cfg
	out := []collect.Producer{
		collect.NewLocalSampler(a.stats, a.handle, engine.DefaultHost, cfg.Refresh.Draw, logger.NewEnvLogger("[local]")),
	}

	if cfg.Router.Enable && !a.opts.NoRouter {
		a.pool = collect.NewPool(a.dial)
		out = append(out, collect.NewRouterPoller(a.pool, a.handle, collect.RouterOptions{
			Host:      cfg.Router.Address,
			Interface: cfg.Router.Interface,
			Interval:  cfg.Refresh.Net,
			Metrics:   a.rec,
			Logger:    logger.NewEnvLogger("[router]"),
		}))
	}

	for _, name := range config.EnabledRemotes(cfg.Remotes) {
		r := cfg.Remotes[name]
		out = append(out, collect.NewRemotePoller(a.handle, collect.RemoteOptions{
			Name:    name,
			URL:     collect.RemoteURL(r.IP, r.Port),
			Refresh: cfg.Refresh.Remote,
			Metrics: a.rec,
			Logger:  logger.NewEnvLogger("[remote]"),
		}))
	}

	if a.sensor != nil {
		out = append(out, touch.NewPoller(a.sensor, a.handle, cfg.Refresh.Touch, logger.NewEnvLogger("[touch]")))
	}

	addr := a.opts.MetricsAddr
	if addr == "" {
		addr = cfg.Metrics.Addr
	}
	if addr != "" {
		out = append(out, collect.ProducerFunc(func(ctx context.Context) error {
			a.log.Info("metrics on http://%s%s", addr, metrics.Path)
			return a.rec.ListenAndServe(ctx, addr)
		}))
	}
	return out
}

// logThroughput drains the engine's throughput notifications.
func (a *app) logThroughput(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-a.throughput:
			a.log.Debug("throughput tx %s/s rx %s/s",
				humanize.IBytes(uint64(max(t.TxPerSec, 0))),
				humanize.IBytes(uint64(max(t.RxPerSec, 0))))
		}
	}
}

func (a *app) close() {
	if a.pool != nil {
		a.pool.Close()
	}
}
