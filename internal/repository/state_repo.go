package repository

import (
	"context"
	"sync"

	"water_heater"
)

// StateMemory is the in-memory single-row state store.
type StateMemory struct {
	mu    sync.RWMutex
	state water_heater.ControlState
}

func NewStateMemory(defaultSetpointC float64) *StateMemory {
	return &StateMemory{
		state: water_heater.ControlState{
			SetpointC: defaultSetpointC,
			Status:    water_heater.StatusOff,
		},
	}
}

// Load returns a copy of the current snapshot.
func (r *StateMemory) Load(_ context.Context) (water_heater.ControlState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state, nil
}

// Save replaces the snapshot.
func (r *StateMemory) Save(_ context.Context, s water_heater.ControlState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = s
	return nil
}

// Update applies fn under the write lock and returns the committed snapshot.
func (r *StateMemory) Update(_ context.Context, fn func(*water_heater.ControlState)) (water_heater.ControlState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.state)
	return r.state, nil
}
