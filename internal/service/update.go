package service

import (
	"context"
	"errors"
	"sync"

	"water_heater/internal/device"
	"water_heater/internal/logger"
)

// UpdateStage classifies where a remote update failed. The causes are
// reported and logged, never retried automatically.
type UpdateStage string

const (
	StageAuth    UpdateStage = "auth"
	StageBegin   UpdateStage = "begin"
	StageConnect UpdateStage = "connect"
	StageReceive UpdateStage = "receive"
	StageEnd     UpdateStage = "end"
)

var errUpdateInProgress = errors.New("update already in progress")

// UpdaterService receives the remote-update transport callbacks. An update
// must never run against an energized heating element, so the heater is
// forced off before any bytes are accepted.
type UpdaterService struct {
	heater  Heater
	restart device.Restarter
	log     *logger.Logger

	mu       sync.Mutex
	active   bool
	received int64
}

func NewUpdaterService(heater Heater, restart device.Restarter, log *logger.Logger) *UpdaterService {
	return &UpdaterService{heater: heater, restart: restart, log: log}
}

// OnStart forces the relay off and marks the update active.
func (u *UpdaterService) OnStart(ctx context.Context, total int64) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.active {
		return errUpdateInProgress
	}
	if err := u.heater.Stop(ctx); err != nil {
		return err
	}
	u.active = true
	u.received = 0
	if u.log != nil {
		u.log.Infow("firmware update started, heater forced off", "total_bytes", total)
	}
	return nil
}

// OnProgress records received bytes.
func (u *UpdaterService) OnProgress(written, total int64) {
	u.mu.Lock()
	u.received = written
	u.mu.Unlock()
	if u.log != nil {
		u.log.Debugw("firmware update progress", "written", written, "total", total)
	}
}

// OnError reports a classified failure. The device resumes normal operation;
// nothing is retried.
func (u *UpdaterService) OnError(stage UpdateStage, err error) {
	u.mu.Lock()
	u.active = false
	u.mu.Unlock()
	if u.log != nil {
		u.log.Errorw("firmware update failed", "stage", stage, "err", err)
	}
}

// OnEnd completes the update and requests a restart into the new image.
func (u *UpdaterService) OnEnd(ctx context.Context) {
	u.mu.Lock()
	received := u.received
	u.active = false
	u.mu.Unlock()
	if u.log != nil {
		u.log.Infow("firmware update complete", "received_bytes", received)
	}
	u.restart.Restart("firmware update complete")
}
