package device

import (
	"github.com/stianeikeland/go-rpio/v4"
)

// Relay is the binary output collaborator driving the heating element.
type Relay interface {
	// Set energizes or de-energizes the heating element.
	Set(energized bool)
	// Energized reports the last commanded output.
	Energized() bool
}

// RelayPin drives a GPIO-attached relay board. Most relay boards are
// active-low: the coil energizes when the pin is pulled low.
type RelayPin struct {
	pin       rpio.Pin
	activeLow bool
	energized bool
}

// NewRelayPin configures the GPIO as an output and forces the relay to the
// de-energized state. rpio.Open must have been called by the caller.
func NewRelayPin(gpio uint8, activeLow bool) *RelayPin {
	r := &RelayPin{pin: rpio.Pin(gpio), activeLow: activeLow}
	r.pin.Output()
	r.Set(false)
	return r
}

// Set writes the pin level for the requested output, honoring inverted logic.
func (r *RelayPin) Set(energized bool) {
	if energized != r.activeLow {
		r.pin.High()
	} else {
		r.pin.Low()
	}
	r.energized = energized
}

// Energized reports the last commanded output.
func (r *RelayPin) Energized() bool {
	return r.energized
}
