package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"water_heater"
)

func TestStateMemory_BootDefaults(t *testing.T) {
	t.Parallel()

	repo := NewStateMemory(38)
	st, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.HeaterRequested {
		t.Errorf("heater requested at boot")
	}
	if st.Status != water_heater.StatusOff {
		t.Errorf("status = %s, want OFF", st.Status)
	}
	if st.SetpointC != 38 {
		t.Errorf("setpoint = %.1f, want 38", st.SetpointC)
	}
}

func TestStateMemory_SaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	repo := NewStateMemory(38)
	now := time.Now().UTC()
	in := water_heater.ControlState{
		HeaterRequested: true,
		SessionStart:    now,
		SetpointC:       40,
		LastTempC:       31.2,
		Status:          water_heater.StatusHeating,
		UpdatedAt:       now,
	}
	if err := repo.Save(context.Background(), in); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != in {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, in)
	}
}

func TestStateMemory_UpdateIsAtomic(t *testing.T) {
	t.Parallel()

	repo := NewStateMemory(0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.Update(context.Background(), func(s *water_heater.ControlState) {
				s.SetpointC++
			})
		}()
	}
	wg.Wait()

	st, _ := repo.Load(context.Background())
	if st.SetpointC != 50 {
		t.Fatalf("lost updates: setpoint = %.0f, want 50", st.SetpointC)
	}
}

func TestStateMemory_UpdateReturnsCommittedSnapshot(t *testing.T) {
	t.Parallel()

	repo := NewStateMemory(38)
	got, err := repo.Update(context.Background(), func(s *water_heater.ControlState) {
		s.HeaterRequested = true
		s.Status = water_heater.StatusHeating
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !got.HeaterRequested || got.Status != water_heater.StatusHeating {
		t.Fatalf("snapshot does not reflect mutation: %+v", got)
	}
}
