// Package touch models the capacitive touch sensor: a bitset of touched
// pins and a poller that forwards touch events.
package touch

import (
	"strconv"
	"strings"
)

// NumPins is the number of electrodes on the sensor.
const NumPins = 12

// Status is the set of pins touched at the moment of a sensor read.
type Status uint16

const pinMask = Status(1)<<NumPins - 1

// FromPins builds a Status from pin numbers. Pins outside 0..NumPins-1 are
// ignored.
func FromPins(pins ...int) Status {
	var s Status
	for _, p := range pins {
		if p >= 0 && p < NumPins {
			s |= 1 << p
		}
	}
	return s
}

// Touched reports whether pin is touched.
func (s Status) Touched(pin int) bool {
	if pin < 0 || pin >= NumPins {
		return false
	}
	return s&(1<<pin) != 0
}

// WasTouched reports whether any pin is touched.
func (s Status) WasTouched() bool {
	return s&pinMask != 0
}

// Mask returns the raw bitmask limited to valid pins.
func (s Status) Mask() uint16 {
	return uint16(s & pinMask)
}

// Pins returns the touched pins in ascending order.
func (s Status) Pins() []int {
	var pins []int
	for p := 0; p < NumPins; p++ {
		if s.Touched(p) {
			pins = append(pins, p)
		}
	}
	return pins
}

// String renders the touched pins as "2, 3, 4".
func (s Status) String() string {
	pins := s.Pins()
	parts := make([]string, len(pins))
	for i, p := range pins {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ", ")
}
