package engine

import (
	"time"

	"github.com/zaczkows/fb4rasp/internal/history"
	"github.com/zaczkows/fb4rasp/internal/params"
	"github.com/zaczkows/fb4rasp/internal/rules"
	"github.com/zaczkows/fb4rasp/internal/telemetry"
	"github.com/zaczkows/fb4rasp/internal/touch"
)

// Command is a message processed by the engine goroutine.
type Command interface {
	// Kind names the command for logs and metrics.
	Kind() string
}

// NetCmd stores a router counter sample, correcting 32-bit rollover.
type NetCmd struct {
	Sample telemetry.NetworkSample
}

// SysInfoCmd appends a snapshot to its source history, or forgets the
// oldest entry when the snapshot is nil.
type SysInfoCmd struct {
	telemetry.AnnotatedSnapshot
}

// TouchCmd appends a touch event and evaluates the rules.
type TouchCmd struct {
	Status touch.Status
}

// AddRuleCmd registers a rule after the existing ones.
type AddRuleCmd struct {
	Rule *rules.Rule
}

// StopCmd stops the engine after the commands queued before it.
type StopCmd struct{}

// NetInfo is the most recent pair of corrected network samples.
type NetInfo struct {
	Previous telemetry.NetworkSample
	Last     telemetry.NetworkSample
}

// NetRates are per-second tx and rx rates between consecutive samples,
// oldest first.
type NetRates struct {
	Tx []int64
	Rx []int64
}

// SystemInfos maps a source name to a copy of its snapshot history.
type SystemInfos map[string]*history.Buffer[telemetry.SystemSnapshot]

// Queries carry a reply channel. The engine never blocks on it: a full or
// abandoned channel drops the answer. Use a channel with capacity 1.

// GetLastNetInfo asks for the two most recent network samples.
type GetLastNetInfo struct {
	Reply chan<- NetInfo
}

// GetTouchInfo takes every pending touch event, leaving none.
type GetTouchInfo struct {
	Reply chan<- []touch.Status
}

// GetNetTxRx asks for throughput computed at the given sample interval.
type GetNetTxRx struct {
	Refresh time.Duration
	Reply   chan<- NetRates
}

// GetLayout asks for the current main layout.
type GetLayout struct {
	Reply chan<- params.Layout
}

// GetSystemInfos asks for copies of every source history.
type GetSystemInfos struct {
	Reply chan<- SystemInfos
}

// GetRules asks for the registered rules and how often each fired.
type GetRules struct {
	Reply chan<- []rules.Info
}

func (NetCmd) Kind() string         { return "net" }
func (SysInfoCmd) Kind() string     { return "sysinfo" }
func (TouchCmd) Kind() string       { return "touch" }
func (AddRuleCmd) Kind() string     { return "add_rule" }
func (StopCmd) Kind() string        { return "stop" }
func (GetLastNetInfo) Kind() string { return "get_last_net_info" }
func (GetTouchInfo) Kind() string   { return "get_touch_info" }
func (GetNetTxRx) Kind() string     { return "get_net_tx_rx" }
func (GetLayout) Kind() string      { return "get_layout" }
func (GetSystemInfos) Kind() string { return "get_system_infos" }
func (GetRules) Kind() string       { return "get_rules" }
