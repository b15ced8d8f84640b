package service

import (
	"context"
	"testing"
	"time"

	"water_heater"
	"water_heater/internal/repository"
)

func newHeaterForTest(store repository.StateRepo, relay *fakeRelay, clock *fixedClock) *HeaterService {
	return &HeaterService{
		store: store,
		relay: relay,
		now:   clock.now,
		minC:  5,
		maxC:  60,
	}
}

func TestHeater_StartResetsSessionClock(t *testing.T) {
	t.Parallel()

	clock := &fixedClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := repository.NewStateMemory(38)
	svc := newHeaterForTest(store, &fakeRelay{}, clock)

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	first, _ := store.Load(context.Background())
	if !first.HeaterRequested {
		t.Fatalf("heater not requested after start")
	}
	if !first.SessionStart.Equal(clock.t) {
		t.Fatalf("session start = %v, want %v", first.SessionStart, clock.t)
	}

	// A second start mid-session restarts the clock.
	clock.advance(10 * time.Minute)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	second, _ := store.Load(context.Background())
	if !second.SessionStart.Equal(clock.t) {
		t.Fatalf("session clock not reset: %v, want %v", second.SessionStart, clock.t)
	}
}

func TestHeater_StopDeenergizesImmediately(t *testing.T) {
	t.Parallel()

	clock := &fixedClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := repository.NewStateMemory(38)
	relay := &fakeRelay{energized: true}
	svc := newHeaterForTest(store, relay, clock)

	_, _ = store.Update(context.Background(), func(s *water_heater.ControlState) {
		s.HeaterRequested = true
		s.Status = water_heater.StatusHeating
		s.SessionStart = clock.t
	})

	if err := svc.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if relay.energized {
		t.Errorf("relay still energized after stop")
	}
	st, _ := store.Load(context.Background())
	if st.HeaterRequested {
		t.Errorf("heater still requested after stop")
	}
	if st.Status != water_heater.StatusOff {
		t.Errorf("status = %s, want OFF", st.Status)
	}
}

func TestHeater_SetSetpoint(t *testing.T) {
	t.Parallel()

	clock := &fixedClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := repository.NewStateMemory(38)
	svc := newHeaterForTest(store, &fakeRelay{}, clock)

	if err := svc.SetSetpoint(context.Background(), 42.5); err != nil {
		t.Fatalf("set setpoint: %v", err)
	}
	st, _ := store.Load(context.Background())
	if st.SetpointC != 42.5 {
		t.Errorf("setpoint = %.1f, want 42.5", st.SetpointC)
	}

	for _, bad := range []float64{4.9, 60.1, -3} {
		if err := svc.SetSetpoint(context.Background(), bad); err == nil {
			t.Errorf("setpoint %.1f accepted, want range error", bad)
		}
	}
	st, _ = store.Load(context.Background())
	if st.SetpointC != 42.5 {
		t.Errorf("rejected setpoint overwrote stored value: %.1f", st.SetpointC)
	}
}
