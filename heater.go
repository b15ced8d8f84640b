package water_heater

import (
	"fmt"
	"time"
)

// Status labels the heater as seen by observers.
type Status string

const (
	StatusOff      Status = "OFF"
	StatusHeating  Status = "HEATING"
	StatusTimedOut Status = "TIMED_OUT"
)

// SessionTimeout bounds one continuous heater-on interval.
const SessionTimeout = 30 * time.Minute

// TimerPlaceholder is the remaining-time label while the heater is not running.
const TimerPlaceholder = "--:--"

// ControlState is the current snapshot of the heater.
type ControlState struct {
	HeaterRequested bool      `json:"heater_requested"`
	SessionStart    time.Time `json:"session_start,omitempty"`
	SetpointC       float64   `json:"setpoint_c"`
	LastTempC       float64   `json:"last_temp_c"`
	Status          Status    `json:"status"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Elapsed returns the session time consumed as of now.
func (s ControlState) Elapsed(now time.Time) time.Duration {
	if s.SessionStart.IsZero() {
		return 0
	}
	return now.Sub(s.SessionStart)
}

// Telemetry is the compact record pushed to connected observers.
type Telemetry struct {
	TempC  float64 `json:"temp"`
	Status Status  `json:"status"`
	Timer  string  `json:"timer"` // M:SS while heating, "--:--" otherwise
}

// RemainingLabel renders the time left in the current session as M:SS.
// Outside an active heating session it returns the placeholder.
func RemainingLabel(s ControlState, now time.Time) string {
	if s.Status != StatusHeating {
		return TimerPlaceholder
	}
	left := SessionTimeout - s.Elapsed(now)
	if left < 0 {
		left = 0
	}
	secs := int(left.Round(time.Second).Seconds())
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// BuildTelemetry derives the observer record from a committed state snapshot.
func BuildTelemetry(s ControlState, now time.Time) Telemetry {
	return Telemetry{
		TempC:  s.LastTempC,
		Status: s.Status,
		Timer:  RemainingLabel(s, now),
	}
}
