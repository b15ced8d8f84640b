package service

import (
	"context"
	"time"

	"water_heater"
	"water_heater/internal/logger"
	"water_heater/internal/repository"
)

// BroadcastService pushes telemetry on an audience-aware cadence: every
// second while observers are connected, every five seconds otherwise. With
// zero observers the record is never built, only the liveness clock is
// refreshed — the cadence itself is evidence of a working transport.
type BroadcastService struct {
	store    repository.StateRepo
	hub      ObserverHub
	sink     TelemetrySink
	activity *Activity
	log      *logger.Logger
	now      func() time.Time

	activeInterval time.Duration
	idleInterval   time.Duration
}

func NewBroadcastService(store repository.StateRepo, hub ObserverHub, sink TelemetrySink, activity *Activity, log *logger.Logger, cfg Config) *BroadcastService {
	return &BroadcastService{
		store:          store,
		hub:            hub,
		sink:           sink,
		activity:       activity,
		log:            log,
		now:            time.Now,
		activeInterval: cfg.ActiveInterval,
		idleInterval:   cfg.IdleInterval,
	}
}

// Run fires until ctx is canceled, re-arming the timer with the interval
// the last firing decided on.
func (b *BroadcastService) Run(ctx context.Context) {
	timer := time.NewTimer(b.idleInterval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			timer.Reset(b.fire(ctx))
		}
	}
}

// fire performs one broadcast pass and returns the next interval.
func (b *BroadcastService) fire(ctx context.Context) time.Duration {
	observers := b.hub.Count()
	bridged := b.sink != nil && b.sink.Connected()

	if observers > 0 || bridged {
		st, err := b.store.Load(ctx)
		if err == nil {
			rec := water_heater.BuildTelemetry(st, b.now())
			if observers > 0 {
				b.hub.Broadcast(rec)
			}
			if bridged {
				if perr := b.sink.PublishTelemetry(rec); perr != nil && b.log != nil {
					b.log.Warnw("telemetry publish failed", "err", perr)
				}
			}
		} else if b.log != nil {
			b.log.Errorw("telemetry state load failed", "err", err)
		}
	}

	// A completed firing counts as activity even with nobody listening.
	b.activity.Touch(b.now())

	if observers > 0 {
		return b.activeInterval
	}
	return b.idleInterval
}
