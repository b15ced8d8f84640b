package service

import (
	"context"
	"time"

	"water_heater"
	"water_heater/internal/device"
	"water_heater/internal/logger"
	"water_heater/internal/repository"
)

// ControlService is the thermal state machine. Exactly one cycle runs at a
// time: it reads the probe, derives the relay output and status label, and
// commits the snapshot atomically.
type ControlService struct {
	store repository.StateRepo
	probe device.TemperatureProbe
	relay device.Relay
	log   *logger.Logger
	now   func() time.Time

	sessionTimeout time.Duration
}

func NewControlService(store repository.StateRepo, probe device.TemperatureProbe, relay device.Relay, log *logger.Logger, cfg Config) *ControlService {
	return &ControlService{
		store:          store,
		probe:          probe,
		relay:          relay,
		log:            log,
		now:            time.Now,
		sessionTimeout: cfg.SessionTimeout,
	}
}

// Run ticks at the given interval until ctx is canceled.
func (s *ControlService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Cycle(ctx)
		}
	}
}

// Cycle runs one pass of the state machine. A fault sentinel from the probe
// skips the pass entirely: sensor faults are transient-tolerant, so neither
// state nor relay change.
func (s *ControlService) Cycle(ctx context.Context) {
	s.probe.RequestConversion()
	reading := s.probe.ReadCelsius()
	if device.IsFault(reading) {
		if s.log != nil {
			s.log.Debugw("probe fault, cycle skipped", "reading", reading)
		}
		return
	}

	now := s.now()
	_, _ = s.store.Update(ctx, func(st *water_heater.ControlState) {
		st.LastTempC = reading

		switch {
		case !st.HeaterRequested:
			s.relay.Set(false)
			st.Status = water_heater.StatusOff

		case st.Elapsed(now) >= s.sessionTimeout:
			// Automatic session expiry bounds energy use.
			st.HeaterRequested = false
			s.relay.Set(false)
			st.Status = water_heater.StatusTimedOut
			if s.log != nil {
				s.log.Infow("session timed out, heater forced off",
					"elapsed", st.Elapsed(now), "temp_c", reading)
			}

		case reading >= st.SetpointC:
			// Setpoint reached. The request stays set so the session
			// clock keeps running and heating resumes if the water
			// cools back down before the timeout.
			s.relay.Set(false)
			st.Status = water_heater.StatusOff

		default:
			s.relay.Set(true)
			st.Status = water_heater.StatusHeating
		}

		st.UpdatedAt = now
	})
}
