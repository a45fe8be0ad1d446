package rules

import (
	"fmt"
	"strings"

	"github.com/zaczkows/fb4rasp/internal/config"
	"github.com/zaczkows/fb4rasp/internal/exec"
	"github.com/zaczkows/fb4rasp/internal/logger"
)

// Env supplies the collaborators that configured actions need.
type Env struct {
	// Modes receives display mode switches.
	Modes chan<- string

	// ShutdownCommand is the argv started by the shutdown action.
	ShutdownCommand []string
	Runner          exec.Runner
	Log             logger.Logger
}

// PowerDownPins is the chord that powers the board off.
var PowerDownPins = []int{2, 3, 4, 6, 8}

// LayoutPin toggles the layout when touched on its own.
const LayoutPin = 2

// Defaults returns the stock rules: power off on the 2-3-4-6-8 chord and
// toggle the layout on pin 2 alone.
func Defaults(env Env) []*Rule {
	return []*Rule{
		All("power-down", []Condition{NewExactPins(PowerDownPins...)}, env.shutdown()),
		Simple("swap-layout", OnlyPin(LayoutPin), ToggleLayout{}),
	}
}

// Build compiles rule definitions. An empty list yields Defaults.
func Build(cfgs []config.RuleConfig, env Env) ([]*Rule, error) {
	if len(cfgs) == 0 {
		return Defaults(env), nil
	}

	out := make([]*Rule, 0, len(cfgs))
	for _, rc := range cfgs {
		if err := config.ValidateRule(rc); err != nil {
			return nil, err
		}
		conds := make([]Condition, 0, len(rc.When))
		for _, cc := range rc.When {
			conds = append(conds, BuildCondition(cc))
		}
		acts, err := BuildActions(rc.Do, env)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rc.Name, err)
		}

		switch rc.Match {
		case config.MatchAll:
			out = append(out, All(rc.Name, conds, acts...))
		case config.MatchAny:
			out = append(out, Any(rc.Name, conds, acts...))
		case config.MatchSingle:
			out = append(out, Simple(rc.Name, conds[0], acts[0]))
		}
	}
	return out, nil
}

// BuildCondition compiles one condition definition.
func BuildCondition(cc config.ConditionConfig) Condition {
	switch {
	case cc.Pin != nil:
		return OnlyPin(*cc.Pin)
	case cc.AnyPin != nil:
		return AnyPin(*cc.AnyPin)
	default:
		return NewExactPins(cc.Pins...)
	}
}

// BuildActions compiles action names.
func BuildActions(names []string, env Env) ([]Action, error) {
	acts := make([]Action, 0, len(names))
	for _, name := range names {
		switch {
		case name == config.ActionToggleLayout:
			acts = append(acts, ToggleLayout{})
		case name == config.ActionShutdown:
			acts = append(acts, env.shutdown())
		case strings.HasPrefix(name, config.ActionModePrefix):
			acts = append(acts, SwitchMode{Modes: env.Modes, Mode: strings.TrimPrefix(name, config.ActionModePrefix)})
		default:
			return nil, fmt.Errorf("unsupported action %q", name)
		}
	}
	return acts, nil
}

func (e Env) shutdown() Shutdown {
	return Shutdown{Command: e.ShutdownCommand, Runner: e.Runner, Log: e.Log}
}
