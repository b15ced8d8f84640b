package service

import (
	"context"
	"testing"
	"time"
)

func newWatchdogForTest(activity *Activity, link *fakeLink, relay *fakeRelay, restart *fakeRestarter, clock *fixedClock) *WatchdogService {
	return &WatchdogService{
		activity:  activity,
		link:      link,
		relay:     relay,
		restart:   restart,
		now:       clock.now,
		sleep:     func(d time.Duration) { clock.advance(d) },
		bound:     60 * time.Second,
		resetWait: 5 * time.Second,
		pollEvery: 250 * time.Millisecond,
	}
}

func TestWatchdog_FreshActivityDoesNothing(t *testing.T) {
	t.Parallel()

	clock := &fixedClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	activity := NewActivity(clock.t)
	link := &fakeLink{}
	restart := &fakeRestarter{}
	w := newWatchdogForTest(activity, link, &fakeRelay{}, restart, clock)

	clock.advance(59 * time.Second)
	w.Tick(context.Background())

	if link.hardResets != 0 || len(restart.reasons) != 0 {
		t.Errorf("watchdog acted inside the bound: resets=%d restarts=%v", link.hardResets, restart.reasons)
	}
}

func TestWatchdog_SpuriousTripRefreshesOnly(t *testing.T) {
	t.Parallel()

	// Start command issued, then 61s of silence with the link up throughout:
	// the watchdog fires once, sees association, and merely refreshes.
	clock := &fixedClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	activity := NewActivity(clock.t)
	link := &fakeLink{associated: true}
	restart := &fakeRestarter{}
	w := newWatchdogForTest(activity, link, &fakeRelay{}, restart, clock)

	clock.advance(61 * time.Second)
	w.Tick(context.Background())

	if link.hardResets != 0 {
		t.Errorf("hard reset on a healthy link")
	}
	if len(restart.reasons) != 0 {
		t.Errorf("restart on a spurious trip: %v", restart.reasons)
	}
	if !activity.Last().Equal(clock.t) {
		t.Errorf("activity not refreshed: %v, want %v", activity.Last(), clock.t)
	}

	// Refreshed clock means the immediately following tick is quiet.
	w.Tick(context.Background())
	if link.hardResets != 0 || len(restart.reasons) != 0 {
		t.Errorf("watchdog re-fired right after refresh")
	}
}

func TestWatchdog_ResetRecoversLink(t *testing.T) {
	t.Parallel()

	clock := &fixedClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	activity := NewActivity(clock.t)
	link := &fakeLink{associated: false, associateAfterReset: true}
	restart := &fakeRestarter{}
	w := newWatchdogForTest(activity, link, &fakeRelay{}, restart, clock)

	clock.advance(61 * time.Second)
	w.Tick(context.Background())

	if link.hardResets != 1 {
		t.Errorf("hard resets = %d, want 1", link.hardResets)
	}
	if len(restart.reasons) != 0 {
		t.Errorf("restart despite recovery: %v", restart.reasons)
	}
	if !activity.Last().Equal(clock.t) {
		t.Errorf("activity not refreshed after recovery")
	}
}

func TestWatchdog_UnrecoverableLinkEscalatesToRestart(t *testing.T) {
	t.Parallel()

	clock := &fixedClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	activity := NewActivity(clock.t)
	link := &fakeLink{associated: false}
	relay := &fakeRelay{energized: true}
	restart := &fakeRestarter{}
	w := newWatchdogForTest(activity, link, relay, restart, clock)

	clock.advance(61 * time.Second)
	w.Tick(context.Background())

	if link.hardResets != 1 {
		t.Errorf("hard resets = %d, want 1", link.hardResets)
	}
	if len(restart.reasons) != 1 {
		t.Fatalf("restarts = %d, want 1", len(restart.reasons))
	}
	if relay.energized {
		t.Errorf("relay left energized across restart")
	}
}
