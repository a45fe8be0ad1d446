package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zaczkows/fb4rasp/internal/errors"
)

func intPtr(v int) *int { return &v }

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{
			name:    "future version",
			mutate:  func(c *Config) { c.Version = CurrentConfigVersion + 1 },
			wantErr: "from the future",
		},
		{
			name:    "draw too fast",
			mutate:  func(c *Config) { c.Refresh.Draw = time.Millisecond },
			wantErr: "refresh.draw",
		},
		{
			name:    "zero net refresh",
			mutate:  func(c *Config) { c.Refresh.Net = 0 },
			wantErr: "refresh.net",
		},
		{
			name:    "router without address",
			mutate:  func(c *Config) { c.Router.Address = " " },
			wantErr: "no address",
		},
		{
			name: "disabled router is not checked",
			mutate: func(c *Config) {
				c.Router.Enable = false
				c.Router.Address = ""
			},
		},
		{
			name:    "interface with slash",
			mutate:  func(c *Config) { c.Router.Interface = "../eth0" },
			wantErr: "not a valid interface",
		},
		{
			name:    "remote without ip",
			mutate:  func(c *Config) { c.Remotes["nas"] = RemoteConfig{} },
			wantErr: "needs an ip",
		},
		{
			name:    "remote bad port",
			mutate:  func(c *Config) { c.Remotes["nas"] = RemoteConfig{IP: "10.0.0.1", Port: 70000} },
			wantErr: "out of range",
		},
		{
			name:   "remote hostname allowed",
			mutate: func(c *Config) { c.Remotes["nas"] = RemoteConfig{IP: "nas.lan", Port: 12345} },
		},
		{
			name:    "bad layout",
			mutate:  func(c *Config) { c.Display.Layout = "diagonal" },
			wantErr: "unknown layout",
		},
		{
			name:    "bad mode",
			mutate:  func(c *Config) { c.Display.Mode = "pong" },
			wantErr: "unknown display mode",
		},
		{
			name:    "tiny history",
			mutate:  func(c *Config) { c.Display.HistorySamples = 1 },
			wantErr: "history_samples",
		},
		{
			name:    "empty shutdown",
			mutate:  func(c *Config) { c.Shutdown.Command = nil },
			wantErr: "Shutdown command is empty",
		},
		{
			name: "bad rule",
			mutate: func(c *Config) {
				c.Rules = []RuleConfig{{Name: "x", Match: "all", Do: []string{"shutdown"}}}
			},
			wantErr: "Rule #1 (x) is invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrConfig))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateRule(t *testing.T) {
	tests := []struct {
		name    string
		rule    RuleConfig
		wantErr string
	}{
		{
			name: "single pin toggle",
			rule: RuleConfig{Name: "swap", Match: MatchSingle, When: []ConditionConfig{{Pin: intPtr(2)}}, Do: []string{ActionToggleLayout}},
		},
		{
			name: "all with chord",
			rule: RuleConfig{Name: "off", Match: MatchAll, When: []ConditionConfig{{Pins: []int{2, 3, 4, 6, 8}}}, Do: []string{ActionShutdown}},
		},
		{
			name: "any with mode switch",
			rule: RuleConfig{Name: "net", Match: MatchAny, When: []ConditionConfig{{AnyPin: intPtr(0)}, {Pin: intPtr(1)}}, Do: []string{"mode:network"}},
		},
		{
			name:    "missing name",
			rule:    RuleConfig{Match: MatchAll, When: []ConditionConfig{{Pin: intPtr(1)}}, Do: []string{ActionShutdown}},
			wantErr: "needs a name",
		},
		{
			name:    "no actions",
			rule:    RuleConfig{Name: "r", Match: MatchAll, When: []ConditionConfig{{Pin: intPtr(1)}}},
			wantErr: "no actions",
		},
		{
			name:    "unknown match",
			rule:    RuleConfig{Name: "r", Match: "most", When: []ConditionConfig{{Pin: intPtr(1)}}, Do: []string{ActionShutdown}},
			wantErr: "unknown match",
		},
		{
			name:    "single with two actions",
			rule:    RuleConfig{Name: "r", Match: MatchSingle, When: []ConditionConfig{{Pin: intPtr(1)}}, Do: []string{ActionShutdown, ActionToggleLayout}},
			wantErr: "exactly one condition",
		},
		{
			name:    "condition with two fields",
			rule:    RuleConfig{Name: "r", Match: MatchAll, When: []ConditionConfig{{Pin: intPtr(1), AnyPin: intPtr(2)}}, Do: []string{ActionShutdown}},
			wantErr: "exactly one of",
		},
		{
			name:    "empty condition",
			rule:    RuleConfig{Name: "r", Match: MatchAll, When: []ConditionConfig{{}}, Do: []string{ActionShutdown}},
			wantErr: "exactly one of",
		},
		{
			name:    "pin out of range",
			rule:    RuleConfig{Name: "r", Match: MatchAll, When: []ConditionConfig{{Pins: []int{3, 12}}}, Do: []string{ActionShutdown}},
			wantErr: "pin 12 out of range",
		},
		{
			name:    "unknown action",
			rule:    RuleConfig{Name: "r", Match: MatchAll, When: []ConditionConfig{{Pin: intPtr(1)}}, Do: []string{"reboot"}},
			wantErr: "unknown action",
		},
		{
			name:    "unknown mode",
			rule:    RuleConfig{Name: "r", Match: MatchAll, When: []ConditionConfig{{Pin: intPtr(1)}}, Do: []string{"mode:pong"}},
			wantErr: "unknown mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRule(tt.rule)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
