package collect

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/zaczkows/fb4rasp/internal/errors"
	"github.com/zaczkows/fb4rasp/internal/logger"
	"github.com/zaczkows/fb4rasp/internal/metrics"
	"github.com/zaczkows/fb4rasp/internal/telemetry"
)

// NetSink receives interface counter samples.
type NetSink interface {
	PushNet(telemetry.NetworkSample) error
}

// Router poller defaults.
const (
	DefaultNetInterval = 3 * time.Second
	DefaultInterface   = "br0"
	routerSource       = "router"
)

// RouterOptions configures a RouterPoller.
type RouterOptions struct {
	Host      string
	Interface string
	Interval  time.Duration
	Metrics   *metrics.Recorder
	Logger    logger.Logger
}

// RouterPoller reads the byte counters of one router interface over SSH.
type RouterPoller struct {
	pool     *Pool
	sink     NetSink
	host     string
	iface    string
	interval time.Duration
	rec      *metrics.Recorder
	log      logger.Logger
}

// NewRouterPoller creates a poller that borrows connections from pool.
func NewRouterPoller(pool *Pool, sink NetSink, opts RouterOptions) *RouterPoller {
	if opts.Interface == "" {
		opts.Interface = DefaultInterface
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultNetInterval
	}
	if opts.Logger == nil {
		opts.Logger = logger.Noop()
	}
	return &RouterPoller{
		pool:     pool,
		sink:     sink,
		host:     opts.Host,
		iface:    opts.Interface,
		interval: opts.Interval,
		rec:      opts.Metrics,
		log:      opts.Logger,
	}
}

// Run polls immediately and then every interval.
func (p *RouterPoller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.tick(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (p *RouterPoller) tick() error {
	sample, err := p.Poll()
	if err != nil {
		p.log.Warn("router %s: %v", p.host, err)
		p.rec.PollFailed(routerSource)
		p.pool.Drop(p.host)
		return nil
	}
	p.log.Debug("router %s: tx %d rx %d", p.host, sample.TxBytes, sample.RxBytes)
	if err := p.sink.PushNet(sample); err != nil {
		return errors.WrapWithCode(err, errors.ErrRemote, "Cannot deliver router sample", "")
	}
	return nil
}

// Poll reads both counters once.
func (p *RouterPoller) Poll() (telemetry.NetworkSample, error) {
	conn, err := p.pool.Get(p.host)
	if err != nil {
		return telemetry.NetworkSample{}, err
	}
	tx, err := p.readCounter(conn.Exec, "tx_bytes")
	if err != nil {
		return telemetry.NetworkSample{}, err
	}
	rx, err := p.readCounter(conn.Exec, "rx_bytes")
	if err != nil {
		return telemetry.NetworkSample{}, err
	}
	return telemetry.NetworkSample{TxBytes: tx, RxBytes: rx}, nil
}

func (p *RouterPoller) readCounter(exec func(string) ([]byte, error), name string) (int64, error) {
	file := StatisticsPath(p.iface, name)
	out, err := exec("cat " + file)
	if err != nil {
		return 0, err
	}
	return ParseCounter(string(out))
}

// StatisticsPath is the sysfs file holding counter name of iface.
func StatisticsPath(iface, name string) string {
	return path.Join("/sys/class/net", iface, "statistics", name)
}

// ParseCounter reads the first whitespace separated integer of s.
func ParseCounter(s string) (int64, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, errors.New(errors.ErrRemote, "Empty counter file", "")
	}
	v, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrRemote, fmt.Sprintf("Bad counter value %q", fields[0]), "")
	}
	return v, nil
}
