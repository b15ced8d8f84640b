package service

import (
	"context"
	"time"

	"water_heater/internal/device"
	"water_heater/internal/logger"
	"water_heater/internal/repository"
)

// GuardianService keeps the wireless link alive and performs the idle
// periodic restart. Escalation is staged: soft reconnect attempts first, a
// hard interface reset after repeated failures; the full restart belongs to
// the idle clock and the watchdog.
type GuardianService struct {
	store   repository.StateRepo
	link    device.NetworkLink
	relay   device.Relay
	restart device.Restarter
	log     *logger.Logger
	now     func() time.Time

	checkInterval    time.Duration
	associateTimeout time.Duration
	failThreshold    int
	idleResetAfter   time.Duration

	lastCheck     time.Time
	failed        int
	lastIdleReset time.Time
}

func NewGuardianService(store repository.StateRepo, link device.NetworkLink, relay device.Relay, restart device.Restarter, log *logger.Logger, cfg Config) *GuardianService {
	g := &GuardianService{
		store:            store,
		link:             link,
		relay:            relay,
		restart:          restart,
		log:              log,
		now:              time.Now,
		checkInterval:    cfg.CheckInterval,
		associateTimeout: cfg.AssociateTimeout,
		failThreshold:    cfg.FailThreshold,
		idleResetAfter:   cfg.IdleResetAfter,
	}
	g.lastIdleReset = g.now()
	return g
}

// Run ticks at the given interval until ctx is canceled.
func (g *GuardianService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			g.Tick(ctx)
		}
	}
}

// Tick runs one guardian pass: advance or fire the idle-restart clock, then
// check the association and escalate if it is down.
func (g *GuardianService) Tick(ctx context.Context) {
	now := g.now()

	// The idle-restart clock only runs while the heater is genuinely idle,
	// so a preventive restart never interrupts an active session.
	st, err := g.store.Load(ctx)
	if err == nil && st.HeaterRequested {
		g.lastIdleReset = now
	} else if now.Sub(g.lastIdleReset) >= g.idleResetAfter {
		g.relay.Set(false)
		g.restart.Restart("idle interval elapsed, preventive restart")
		return
	}

	if g.link.Associated() {
		return
	}
	if now.Sub(g.lastCheck) < g.checkInterval {
		return
	}
	g.lastCheck = now

	rctx, cancel := context.WithTimeout(ctx, g.associateTimeout)
	err = g.link.Reconnect(rctx)
	cancel()
	if err == nil {
		if g.log != nil {
			g.log.Infow("wifi reconnected", "after_failures", g.failed)
		}
		g.failed = 0
		return
	}

	g.failed++
	if g.log != nil {
		g.log.Warnw("wifi reconnect failed", "err", err, "consecutive", g.failed)
	}
	if g.failed < g.failThreshold {
		return
	}

	// Repeated soft reconnects failing points at a driver-level lockup;
	// power-cycle the interface and try once more with a clean slate.
	if err := g.link.HardReset(ctx); err != nil && g.log != nil {
		g.log.Errorw("interface hard reset failed", "err", err)
	}
	rctx, cancel = context.WithTimeout(ctx, g.associateTimeout)
	err = g.link.Reconnect(rctx)
	cancel()
	if g.log != nil {
		if err != nil {
			g.log.Warnw("reconnect after hard reset failed", "err", err)
		} else {
			g.log.Infow("wifi reconnected after interface reset")
		}
	}
	g.failed = 0
}
