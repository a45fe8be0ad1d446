package doctor

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/websocket"

	"github.com/zaczkows/fb4rasp/internal/collect"
	"github.com/zaczkows/fb4rasp/internal/config"
	"github.com/zaczkows/fb4rasp/internal/telemetry"
)

// DefaultAgentTimeout bounds one agent round trip.
const DefaultAgentTimeout = 5 * time.Second

// AgentCheck connects to a remote agent and waits for its first batch.
type AgentCheck struct {
	Remote  string
	URL     string
	Timeout time.Duration
}

func (c *AgentCheck) Name() string     { return "agent_" + c.Remote }
func (c *AgentCheck) Category() string { return "AGENTS" }

func (c *AgentCheck) Run(ctx context.Context) CheckResult {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultAgentTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	snap, err := c.fetch(ctx)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("%s (%s): %v", c.Remote, c.URL, err),
			Suggestion: "Start 'fb4rasp agent' on " + c.Remote + " and check the ip and port",
		}
	}
	return pass(c, fmt.Sprintf("%s: cpu %.0f%%, mem %s / %s", c.Remote, snap.CPU.Avg,
		humanize.IBytes(snap.Mem.UsedMem*1024), humanize.IBytes(snap.Mem.TotalMem*1024)))
}

func (c *AgentCheck) fetch(ctx context.Context) (telemetry.SystemSnapshot, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.URL, nil)
	if err != nil {
		return telemetry.SystemSnapshot{}, err
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	req := telemetry.RefreshRequest(100 * time.Millisecond)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(req)); err != nil {
		return telemetry.SystemSnapshot{}, err
	}
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			return telemetry.SystemSnapshot{}, err
		}
		if kind != websocket.TextMessage {
			continue
		}
		batch, err := telemetry.DecodeSnapshots(data)
		if err != nil {
			return telemetry.SystemSnapshot{}, fmt.Errorf("malformed payload: %w", err)
		}
		if len(batch) > 0 {
			return batch[len(batch)-1], nil
		}
	}
}

// NewChecks builds the checks for cfg. cfg may be nil when it failed to
// load; only the config checks run then.
func NewChecks(cfgPath string, cfg *config.Config, dial collect.DialFunc) []Check {
	checks := []Check{
		&ConfigFileCheck{ConfigPath: cfgPath},
		&ConfigSchemaCheck{ConfigPath: cfgPath},
	}
	if cfg == nil {
		return checks
	}
	checks = append(checks, &RouterCheck{Router: cfg.Router, Dial: dial})
	for _, name := range config.EnabledRemotes(cfg.Remotes) {
		r := cfg.Remotes[name]
		checks = append(checks, &AgentCheck{Remote: name, URL: collect.RemoteURL(r.IP, r.Port)})
	}
	return checks
}
