package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete fb4rasp configuration file.
type Config struct {
	Version  int                     `yaml:"version" toml:"version" mapstructure:"version"`
	Refresh  RefreshConfig           `yaml:"refresh" toml:"refresh" mapstructure:"refresh"`
	Router   RouterConfig            `yaml:"router" toml:"router" mapstructure:"router"`
	Remotes  map[string]RemoteConfig `yaml:"remote" toml:"remote" mapstructure:"remote"`
	Display  DisplayConfig           `yaml:"display" toml:"display" mapstructure:"display"`
	Touch    TouchConfig             `yaml:"touch" toml:"touch" mapstructure:"touch"`
	Shutdown ShutdownConfig          `yaml:"shutdown" toml:"shutdown" mapstructure:"shutdown"`
	Metrics  MetricsConfig           `yaml:"metrics" toml:"metrics" mapstructure:"metrics"`
	Agent    AgentConfig             `yaml:"agent" toml:"agent" mapstructure:"agent"`
	Rules    []RuleConfig            `yaml:"rules,omitempty" toml:"rules,omitempty" mapstructure:"rules"`
}

// RefreshConfig sets how often each producer runs.
type RefreshConfig struct {
	// Draw is the render loop and local sampler period.
	Draw time.Duration `yaml:"draw" toml:"draw" mapstructure:"draw"`

	// Net is the router counter poll period. Throughput is computed per Net.
	Net time.Duration `yaml:"net" toml:"net" mapstructure:"net"`

	Touch  time.Duration `yaml:"touch" toml:"touch" mapstructure:"touch"`
	Remote time.Duration `yaml:"remote" toml:"remote" mapstructure:"remote"`
}

// RouterConfig describes the SSH-reachable router whose interface counters
// feed the network history.
type RouterConfig struct {
	Enable bool `yaml:"enable" toml:"enable" mapstructure:"enable"`

	// Address accepts anything ssh accepts: alias, host, user@host:port.
	Address string `yaml:"address" toml:"address" mapstructure:"address"`

	// Interface whose statistics are read, e.g. br0.
	Interface string        `yaml:"interface" toml:"interface" mapstructure:"interface"`
	Timeout   time.Duration `yaml:"timeout" toml:"timeout" mapstructure:"timeout"`

	// InsecureHostKey skips known_hosts verification.
	InsecureHostKey bool `yaml:"insecure_host_key,omitempty" toml:"insecure_host_key,omitempty" mapstructure:"insecure_host_key"`
}

// RemoteConfig is a host running `fb4rasp agent`.
type RemoteConfig struct {
	IP   string `yaml:"ip" toml:"ip" mapstructure:"ip"`
	Port int    `yaml:"port,omitempty" toml:"port,omitempty" mapstructure:"port"`

	// Enable defaults to true when omitted.
	Enable *bool `yaml:"enable,omitempty" toml:"enable,omitempty" mapstructure:"enable"`
}

// Enabled reports whether the remote should be polled.
func (r RemoteConfig) Enabled() bool {
	return r.Enable == nil || *r.Enable
}

// DisplayConfig controls the dashboard.
type DisplayConfig struct {
	// Layout is "vertical" or "horizontal".
	Layout string `yaml:"layout" toml:"layout" mapstructure:"layout"`

	// HistorySamples is the per-source snapshot history length. The network
	// history keeps one extra sample.
	HistorySamples int `yaml:"history_samples" toml:"history_samples" mapstructure:"history_samples"`

	// Mode is the initial screen: "dashboard" or "network".
	Mode string `yaml:"mode" toml:"mode" mapstructure:"mode"`
}

// TouchConfig controls the touch poller.
type TouchConfig struct {
	Enable bool `yaml:"enable" toml:"enable" mapstructure:"enable"`
}

// ShutdownConfig is the command run by the shutdown action.
type ShutdownConfig struct {
	Command []string `yaml:"command" toml:"command" mapstructure:"command"`
}

// MetricsConfig controls the Prometheus endpoint of `fb4rasp run`.
type MetricsConfig struct {
	// Addr is the listen address; empty disables the endpoint.
	Addr string `yaml:"addr" toml:"addr" mapstructure:"addr"`
}

// AgentConfig configures `fb4rasp agent`.
type AgentConfig struct {
	Listen string `yaml:"listen" toml:"listen" mapstructure:"listen"`
}

// RuleConfig defines a touch rule.
type RuleConfig struct {
	Name string `yaml:"name" toml:"name" mapstructure:"name"`

	// Match is "all", "any" or "single".
	Match string            `yaml:"match" toml:"match" mapstructure:"match"`
	When  []ConditionConfig `yaml:"when" toml:"when" mapstructure:"when"`

	// Do lists actions: "toggle-layout", "shutdown", "mode:<name>".
	Do []string `yaml:"do" toml:"do" mapstructure:"do"`
}

// ConditionConfig matches a touch event. Exactly one field must be set.
type ConditionConfig struct {
	// Pin matches when this pin is the only one touched.
	Pin *int `yaml:"pin,omitempty" toml:"pin,omitempty" mapstructure:"pin"`

	// Pins matches when exactly this set of pins is touched.
	Pins []int `yaml:"pins,omitempty" toml:"pins,omitempty" mapstructure:"pins"`

	// AnyPin matches when this pin is touched, regardless of others.
	AnyPin *int `yaml:"any_pin,omitempty" toml:"any_pin,omitempty" mapstructure:"any_pin"`
}

// Display modes.
const (
	ModeDashboard = "dashboard"
	ModeNetwork   = "network"
)

// Rule match kinds.
const (
	MatchAll    = "all"
	MatchAny    = "any"
	MatchSingle = "single"
)

// Rule action names.
const (
	ActionToggleLayout = "toggle-layout"
	ActionShutdown     = "shutdown"
	ActionModePrefix   = "mode:"
)

// DefaultRemotePort is the agent's WebSocket port.
const DefaultRemotePort = 12345

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Refresh: RefreshConfig{
			Draw:   time.Second,
			Net:    3 * time.Second,
			Touch:  100 * time.Millisecond,
			Remote: time.Second,
		},
		Router: RouterConfig{
			Enable:    true,
			Address:   "192.168.1.1:2222",
			Interface: "br0",
			Timeout:   10 * time.Second,
		},
		Remotes: make(map[string]RemoteConfig),
		Display: DisplayConfig{
			Layout:         "vertical",
			HistorySamples: 80,
			Mode:           ModeDashboard,
		},
		Touch:    TouchConfig{Enable: true},
		Shutdown: ShutdownConfig{Command: []string{"poweroff"}},
		Agent:    AgentConfig{Listen: "0.0.0.0:12345"},
	}
}
