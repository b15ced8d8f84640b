package service

import (
	"sync/atomic"
	"time"
)

// Activity tracks the last evidence of a working transport: a served
// request, an accepted command, or a completed telemetry firing. The
// watchdog trips when this timestamp goes stale.
type Activity struct {
	last atomic.Int64 // unix nanoseconds
}

func NewActivity(now time.Time) *Activity {
	a := &Activity{}
	a.Touch(now)
	return a
}

// Touch records activity at the given instant.
func (a *Activity) Touch(now time.Time) {
	a.last.Store(now.UnixNano())
}

// Last returns the most recent activity instant.
func (a *Activity) Last() time.Time {
	return time.Unix(0, a.last.Load())
}
