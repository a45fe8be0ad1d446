// Package rules implements touch gesture rules: conditions matched against
// a touch event and actions applied to the engine parameters.
package rules

import (
	"fmt"

	"github.com/zaczkows/fb4rasp/internal/touch"
)

// Condition is a predicate over a single touch event.
type Condition interface {
	Applies(touch.Status) bool
}

// ConditionFunc adapts a function to a Condition.
type ConditionFunc func(touch.Status) bool

// Applies implements Condition.
func (f ConditionFunc) Applies(s touch.Status) bool { return f(s) }

// OnlyPin matches when its pin is the sole touched pin.
type OnlyPin int

// Applies implements Condition.
func (p OnlyPin) Applies(s touch.Status) bool {
	return s.Mask() == touch.FromPins(int(p)).Mask() && s.WasTouched()
}

func (p OnlyPin) String() string { return fmt.Sprintf("only pin %d", int(p)) }

// ExactPins matches when the touched set equals its set exactly.
type ExactPins touch.Status

// NewExactPins builds an ExactPins condition from pin numbers.
func NewExactPins(pins ...int) ExactPins {
	return ExactPins(touch.FromPins(pins...))
}

// Applies implements Condition.
func (p ExactPins) Applies(s touch.Status) bool {
	return s.Mask() == touch.Status(p).Mask()
}

func (p ExactPins) String() string { return "pins " + touch.Status(p).String() }

// AnyPin matches when its pin is touched, whatever else is.
type AnyPin int

// Applies implements Condition.
func (p AnyPin) Applies(s touch.Status) bool {
	return s.Touched(int(p))
}

func (p AnyPin) String() string { return fmt.Sprintf("pin %d", int(p)) }
