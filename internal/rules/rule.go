package rules

import (
	"github.com/zaczkows/fb4rasp/internal/params"
	"github.com/zaczkows/fb4rasp/internal/touch"
)

// Kind selects how a rule combines its conditions.
type Kind int

const (
	// KindAll fires when every condition applies.
	KindAll Kind = iota
	// KindAny fires when at least one condition applies.
	KindAny
	// KindSingle has one condition and one action.
	KindSingle
)

func (k Kind) String() string {
	switch k {
	case KindAll:
		return "all"
	case KindAny:
		return "any"
	case KindSingle:
		return "single"
	default:
		return "unknown"
	}
}

// Rule pairs conditions with actions.
type Rule struct {
	Name       string
	Kind       Kind
	Conditions []Condition
	Actions    []Action
}

// All returns a rule that fires when every condition applies.
func All(name string, conds []Condition, acts ...Action) *Rule {
	return &Rule{Name: name, Kind: KindAll, Conditions: conds, Actions: acts}
}

// Any returns a rule that fires when any condition applies.
func Any(name string, conds []Condition, acts ...Action) *Rule {
	return &Rule{Name: name, Kind: KindAny, Conditions: conds, Actions: acts}
}

// Simple returns a single-condition, single-action rule.
func Simple(name string, cond Condition, act Action) *Rule {
	return &Rule{Name: name, Kind: KindSingle, Conditions: []Condition{cond}, Actions: []Action{act}}
}

// Check reports whether the rule matches the touch event.
func (r *Rule) Check(s touch.Status) bool {
	switch r.Kind {
	case KindAll:
		for _, c := range r.Conditions {
			if !c.Applies(s) {
				return false
			}
		}
		return true
	case KindAny:
		for _, c := range r.Conditions {
			if c.Applies(s) {
				return true
			}
		}
		return false
	case KindSingle:
		return len(r.Conditions) > 0 && r.Conditions[0].Applies(s)
	default:
		return false
	}
}

// Apply runs the rule's actions. All and Any rules run every action and
// return true; a Single rule returns its action's result.
func (r *Rule) Apply(p *params.Parameters) bool {
	if r.Kind == KindSingle {
		if len(r.Actions) == 0 {
			return false
		}
		return r.Actions[0].Apply(p)
	}
	for _, a := range r.Actions {
		a.Apply(p)
	}
	return true
}

// Info describes a registered rule.
type Info struct {
	Name  string
	Kind  Kind
	Fired int
}
