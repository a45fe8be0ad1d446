package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/zaczkows/fb4rasp/internal/errors"
	"github.com/zaczkows/fb4rasp/internal/params"
	"github.com/zaczkows/fb4rasp/internal/touch"
)

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but fb4rasp only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade fb4rasp or lower the version field.")
	}

	if err := validateRefresh(cfg.Refresh); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'refresh' section, durations look like 500ms or 3s.")
	}

	if err := validateRouter(cfg.Router); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'router' section.")
	}

	for _, name := range SortedRemoteNames(cfg.Remotes) {
		if err := validateRemote(name, cfg.Remotes[name]); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'remote' section.")
		}
	}

	if err := validateDisplay(cfg.Display); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'display' section.")
	}

	if len(cfg.Shutdown.Command) == 0 || strings.TrimSpace(cfg.Shutdown.Command[0]) == "" {
		return errors.New(errors.ErrConfig,
			"Shutdown command is empty",
			"Set shutdown.command, for example [poweroff] or [sudo, shutdown, -h, now].")
	}

	for i, r := range cfg.Rules {
		if err := ValidateRule(r); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				fmt.Sprintf("Rule #%d (%s) is invalid", i+1, r.Name),
				"Each rule needs a name, a match kind, conditions and actions.")
		}
	}

	return nil
}

func validateRefresh(r RefreshConfig) error {
	checks := []struct {
		name string
		d    time.Duration
		min  time.Duration
	}{
		{"refresh.draw", r.Draw, 100 * time.Millisecond},
		{"refresh.net", r.Net, 100 * time.Millisecond},
		{"refresh.touch", r.Touch, 10 * time.Millisecond},
		{"refresh.remote", r.Remote, 100 * time.Millisecond},
	}
	for _, c := range checks {
		if c.d < c.min {
			return fmt.Errorf("%s is %s, must be at least %s", c.name, c.d, c.min)
		}
	}
	return nil
}

func validateRouter(r RouterConfig) error {
	if !r.Enable {
		return nil
	}
	if strings.TrimSpace(r.Address) == "" {
		return fmt.Errorf("router is enabled but has no address")
	}
	if r.Interface == "" || strings.ContainsAny(r.Interface, "/ ") {
		return fmt.Errorf("router interface %q is not a valid interface name", r.Interface)
	}
	if r.Timeout <= 0 {
		return fmt.Errorf("router timeout must be positive")
	}
	return nil
}

func validateRemote(name string, r RemoteConfig) error {
	if r.IP == "" {
		return fmt.Errorf("remote '%s' needs an ip", name)
	}
	if net.ParseIP(r.IP) == nil && strings.ContainsAny(r.IP, "/ :") {
		return fmt.Errorf("remote '%s' has an invalid ip %q", name, r.IP)
	}
	if r.Port < 0 || r.Port > 65535 {
		return fmt.Errorf("remote '%s' port %d is out of range", name, r.Port)
	}
	return nil
}

func validateDisplay(d DisplayConfig) error {
	if _, err := params.ParseLayout(d.Layout); err != nil {
		return err
	}
	if d.HistorySamples < 2 {
		return fmt.Errorf("display.history_samples must be at least 2, got %d", d.HistorySamples)
	}
	switch d.Mode {
	case ModeDashboard, ModeNetwork:
	default:
		return fmt.Errorf("unknown display mode %q (expected %s or %s)", d.Mode, ModeDashboard, ModeNetwork)
	}
	return nil
}

// ValidateRule checks a single rule definition.
func ValidateRule(r RuleConfig) error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("rule needs a name")
	}
	if len(r.When) == 0 {
		return fmt.Errorf("rule '%s' has no conditions", r.Name)
	}
	if len(r.Do) == 0 {
		return fmt.Errorf("rule '%s' has no actions", r.Name)
	}

	switch r.Match {
	case MatchAll, MatchAny:
	case MatchSingle:
		if len(r.When) != 1 || len(r.Do) != 1 {
			return fmt.Errorf("single rule '%s' takes exactly one condition and one action", r.Name)
		}
	default:
		return fmt.Errorf("rule '%s' has unknown match %q (expected all, any or single)", r.Name, r.Match)
	}

	for i, c := range r.When {
		if err := validateCondition(c); err != nil {
			return fmt.Errorf("rule '%s' condition %d: %w", r.Name, i+1, err)
		}
	}
	for _, a := range r.Do {
		if err := validateAction(a); err != nil {
			return fmt.Errorf("rule '%s': %w", r.Name, err)
		}
	}
	return nil
}

func validateCondition(c ConditionConfig) error {
	set := 0
	var pins []int
	if c.Pin != nil {
		set++
		pins = append(pins, *c.Pin)
	}
	if len(c.Pins) > 0 {
		set++
		pins = append(pins, c.Pins...)
	}
	if c.AnyPin != nil {
		set++
		pins = append(pins, *c.AnyPin)
	}
	if set != 1 {
		return fmt.Errorf("set exactly one of pin, pins or any_pin")
	}
	for _, p := range pins {
		if p < 0 || p >= touch.NumPins {
			return fmt.Errorf("pin %d out of range 0-%d", p, touch.NumPins-1)
		}
	}
	return nil
}

func validateAction(a string) error {
	switch {
	case a == ActionToggleLayout, a == ActionShutdown:
		return nil
	case strings.HasPrefix(a, ActionModePrefix):
		mode := strings.TrimPrefix(a, ActionModePrefix)
		if mode != ModeDashboard && mode != ModeNetwork {
			return fmt.Errorf("unknown mode %q in action %q", mode, a)
		}
		return nil
	default:
		return fmt.Errorf("unknown action %q", a)
	}
}
