package service

import (
	"context"
	"time"

	"water_heater/internal/device"
	"water_heater/internal/logger"
)

// WatchdogService trips when no activity has been observed within the
// liveness bound. Liveness is activity-based, not link-based: the transport
// can stop servicing clients while the association stays up, and only the
// absence of served requests and completed broadcasts reveals it.
type WatchdogService struct {
	activity *Activity
	link     device.NetworkLink
	relay    device.Relay
	restart  device.Restarter
	log      *logger.Logger
	now      func() time.Time
	sleep    func(time.Duration)

	bound     time.Duration
	resetWait time.Duration
	pollEvery time.Duration
}

func NewWatchdogService(activity *Activity, link device.NetworkLink, relay device.Relay, restart device.Restarter, log *logger.Logger, cfg Config) *WatchdogService {
	return &WatchdogService{
		activity:  activity,
		link:      link,
		relay:     relay,
		restart:   restart,
		log:       log,
		now:       time.Now,
		sleep:     time.Sleep,
		bound:     cfg.LivenessBound,
		resetWait: cfg.ResetWait,
		pollEvery: 250 * time.Millisecond,
	}
}

// Run ticks at the given interval until ctx is canceled.
func (w *WatchdogService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.Tick(ctx)
		}
	}
}

// Tick checks the liveness bound and escalates when it is exhausted.
func (w *WatchdogService) Tick(ctx context.Context) {
	if w.now().Sub(w.activity.Last()) < w.bound {
		return
	}

	if w.link.Associated() {
		// No traffic, but the link is fine: a spurious trip, not a fault.
		if w.log != nil {
			w.log.Infow("liveness bound hit with link up, refreshing")
		}
		w.activity.Touch(w.now())
		return
	}

	if w.log != nil {
		w.log.Warnw("liveness exhausted with link down, resetting interface")
	}
	if err := w.link.HardReset(ctx); err != nil && w.log != nil {
		w.log.Errorw("interface hard reset failed", "err", err)
	}
	if w.waitAssociated(ctx) {
		if w.log != nil {
			w.log.Infow("link recovered after interface reset")
		}
		w.activity.Touch(w.now())
		return
	}

	// Unrecoverable from here: trade a brief interruption for long-term
	// availability. Relay off before the image goes away.
	w.relay.Set(false)
	w.restart.Restart("liveness watchdog: network unrecoverable")
}

// waitAssociated polls the link for up to the reset grace period.
func (w *WatchdogService) waitAssociated(ctx context.Context) bool {
	deadline := w.now().Add(w.resetWait)
	for {
		if w.link.Associated() {
			return true
		}
		if !w.now().Before(deadline) || ctx.Err() != nil {
			return false
		}
		w.sleep(w.pollEvery)
	}
}
