package service

import (
	"context"

	"water_heater"
	"water_heater/internal/repository"
)

// MonitoringService returns the state as of the most recently completed
// control cycle. The store commits snapshots atomically, so a reader never
// observes a half-updated cycle.
type MonitoringService struct {
	store repository.StateRepo
}

func NewMonitoringService(store repository.StateRepo) *MonitoringService {
	return &MonitoringService{store: store}
}

func (s *MonitoringService) GetState(ctx context.Context) (water_heater.ControlState, error) {
	return s.store.Load(ctx)
}
