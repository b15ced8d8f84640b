package repository

import (
	"context"

	"water_heater"
)

// StateRepo holds the single ControlState snapshot. Settings do not survive
// power loss, so the only implementation is memory-backed; the interface
// keeps services testable against fakes.
type StateRepo interface {
	Load(ctx context.Context) (water_heater.ControlState, error)
	Save(ctx context.Context, s water_heater.ControlState) error
	// Update applies fn atomically and returns the committed snapshot.
	// Command handlers and the control loop run on different goroutines;
	// read-modify-write must not interleave.
	Update(ctx context.Context, fn func(*water_heater.ControlState)) (water_heater.ControlState, error)
}

type Repository struct {
	State StateRepo
}

// NewRepository wires the state store with boot defaults: heater off,
// relay off, the configured setpoint.
func NewRepository(defaultSetpointC float64) *Repository {
	return &Repository{
		State: NewStateMemory(defaultSetpointC),
	}
}
