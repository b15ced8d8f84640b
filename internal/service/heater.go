package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"water_heater"
	"water_heater/internal/device"
	"water_heater/internal/logger"
	"water_heater/internal/repository"
)

// ErrSetpointOutOfRange rejects a setpoint the element cannot safely hold.
var ErrSetpointOutOfRange = errors.New("setpoint out of range")

// HeaterService implements the command surface operations.
type HeaterService struct {
	store repository.StateRepo
	relay device.Relay
	log   *logger.Logger
	now   func() time.Time

	minC, maxC float64
}

func NewHeaterService(store repository.StateRepo, relay device.Relay, log *logger.Logger, cfg Config) *HeaterService {
	return &HeaterService{
		store: store,
		relay: relay,
		log:   log,
		now:   time.Now,
		minC:  cfg.SetpointMinC,
		maxC:  cfg.SetpointMaxC,
	}
}

// Start requests heating and resets the session clock. The relay itself is
// energized by the next control cycle, once a temperature reading confirms
// heating is needed.
func (s *HeaterService) Start(ctx context.Context) error {
	now := s.now()
	st, err := s.store.Update(ctx, func(st *water_heater.ControlState) {
		st.HeaterRequested = true
		st.SessionStart = now
		st.UpdatedAt = now
	})
	if err != nil {
		return err
	}
	if s.log != nil {
		s.log.Infow("heater start requested", "setpoint_c", st.SetpointC)
	}
	return nil
}

// Stop clears the request and de-energizes the relay in the same call,
// regardless of temperature.
func (s *HeaterService) Stop(ctx context.Context) error {
	now := s.now()
	_, err := s.store.Update(ctx, func(st *water_heater.ControlState) {
		st.HeaterRequested = false
		st.Status = water_heater.StatusOff
		st.UpdatedAt = now
		s.relay.Set(false)
	})
	if err != nil {
		return err
	}
	if s.log != nil {
		s.log.Infow("heater stop requested, relay de-energized")
	}
	return nil
}

// SetSetpoint stores a validated setpoint. The query string is parsed once
// at the HTTP boundary; from here on the value is numeric.
func (s *HeaterService) SetSetpoint(ctx context.Context, celsius float64) error {
	if celsius < s.minC || celsius > s.maxC {
		return fmt.Errorf("%w: %.1f outside [%.1f, %.1f]", ErrSetpointOutOfRange, celsius, s.minC, s.maxC)
	}
	now := s.now()
	_, err := s.store.Update(ctx, func(st *water_heater.ControlState) {
		st.SetpointC = celsius
		st.UpdatedAt = now
	})
	if err != nil {
		return err
	}
	if s.log != nil {
		s.log.Infow("setpoint changed", "setpoint_c", celsius)
	}
	return nil
}
