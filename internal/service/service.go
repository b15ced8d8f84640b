package service

import (
	"context"
	"time"

	"water_heater"
	"water_heater/internal/device"
	"water_heater/internal/logger"
	"water_heater/internal/repository"
)

// Heater exposes the command surface: start/stop and setpoint changes.
// These are the only external writers of ControlState.
type Heater interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	SetSetpoint(ctx context.Context, celsius float64) error
}

// Monitoring exposes the read-only state snapshot.
type Monitoring interface {
	GetState(ctx context.Context) (water_heater.ControlState, error)
}

// Control runs the thermal state machine, one cycle per tick.
type Control interface {
	Run(ctx context.Context, tick time.Duration)
}

// Guardian runs the connectivity-recovery loop: staged reconnect escalation
// plus the idle periodic restart.
type Guardian interface {
	Run(ctx context.Context, tick time.Duration)
}

// Watchdog runs the activity-based liveness check.
type Watchdog interface {
	Run(ctx context.Context, tick time.Duration)
}

// Broadcaster pushes throttled telemetry to connected observers.
type Broadcaster interface {
	Run(ctx context.Context)
}

// Updater receives the remote-update transport callbacks.
type Updater interface {
	OnStart(ctx context.Context, total int64) error
	OnProgress(written, total int64)
	OnError(stage UpdateStage, err error)
	OnEnd(ctx context.Context)
}

// ObserverHub is the borrowed broadcast capability of the transport layer:
// a count of connected observers and a push primitive. The hub package owns
// the connections themselves.
type ObserverHub interface {
	Count() int
	Broadcast(rec water_heater.Telemetry)
}

// TelemetrySink is an optional secondary outlet for telemetry records
// (the MQTT bridge). Publishing is skipped while the session is down.
type TelemetrySink interface {
	Connected() bool
	PublishTelemetry(rec water_heater.Telemetry) error
}

// Deps are the collaborators the services are wired with.
type Deps struct {
	Probe   device.TemperatureProbe
	Relay   device.Relay
	Link    device.NetworkLink
	Restart device.Restarter
	Hub     ObserverHub
	Sink    TelemetrySink // optional
	Log     *logger.Logger
}

// Config carries every tuning knob of the resilience and control policy.
// Zero values fall back to the device defaults.
type Config struct {
	SessionTimeout   time.Duration // bound on one heater-on interval
	SetpointMinC     float64
	SetpointMaxC     float64
	CheckInterval    time.Duration // guardian reconnect poll
	AssociateTimeout time.Duration // bounded wait for association
	FailThreshold    int           // reconnect failures before a hard reset
	IdleResetAfter   time.Duration // idle interval before a preventive restart
	LivenessBound    time.Duration // watchdog activity bound
	ResetWait        time.Duration // post-reset association grace
	ActiveInterval   time.Duration // broadcast cadence with observers
	IdleInterval     time.Duration // broadcast cadence without observers
}

func (c *Config) withDefaults() {
	if c.SessionTimeout == 0 {
		c.SessionTimeout = water_heater.SessionTimeout
	}
	if c.SetpointMinC == 0 {
		c.SetpointMinC = 5
	}
	if c.SetpointMaxC == 0 {
		c.SetpointMaxC = 60
	}
	if c.CheckInterval == 0 {
		c.CheckInterval = 10 * time.Second
	}
	if c.AssociateTimeout == 0 {
		c.AssociateTimeout = 30 * time.Second
	}
	if c.FailThreshold == 0 {
		c.FailThreshold = 3
	}
	if c.IdleResetAfter == 0 {
		c.IdleResetAfter = 30 * time.Minute
	}
	if c.LivenessBound == 0 {
		c.LivenessBound = 60 * time.Second
	}
	if c.ResetWait == 0 {
		c.ResetWait = 5 * time.Second
	}
	if c.ActiveInterval == 0 {
		c.ActiveInterval = time.Second
	}
	if c.IdleInterval == 0 {
		c.IdleInterval = 5 * time.Second
	}
}

// Service aggregates all sub-services.
type Service struct {
	Heater
	Monitoring
	Control
	Guardian
	Watchdog
	Broadcaster
	Updater

	// Activity is shared with the HTTP layer so every served request
	// refreshes the liveness clock.
	Activity *Activity

	// SetpointMinC and SetpointMaxC bound the slider on the control page.
	SetpointMinC float64
	SetpointMaxC float64
}

// NewService wires the repository and device collaborators into concrete
// services.
func NewService(repos *repository.Repository, deps Deps, cfg Config) *Service {
	cfg.withDefaults()
	activity := NewActivity(time.Now())

	heater := NewHeaterService(repos.State, deps.Relay, deps.Log, cfg)

	return &Service{
		Heater:       heater,
		Monitoring:   NewMonitoringService(repos.State),
		Control:      NewControlService(repos.State, deps.Probe, deps.Relay, deps.Log, cfg),
		Guardian:     NewGuardianService(repos.State, deps.Link, deps.Relay, deps.Restart, deps.Log, cfg),
		Watchdog:     NewWatchdogService(activity, deps.Link, deps.Relay, deps.Restart, deps.Log, cfg),
		Broadcaster:  NewBroadcastService(repos.State, deps.Hub, deps.Sink, activity, deps.Log, cfg),
		Updater:      NewUpdaterService(heater, deps.Restart, deps.Log),
		Activity:     activity,
		SetpointMinC: cfg.SetpointMinC,
		SetpointMaxC: cfg.SetpointMaxC,
	}
}
