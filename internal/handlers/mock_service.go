package handlers

import (
	"context"

	"water_heater"
	"water_heater/internal/hub"
	"water_heater/internal/logger"
	"water_heater/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockHeater struct {
	startErr    error
	stopErr     error
	setpointErr error

	startCalled   int
	stopCalled    int
	setpoints     []float64
	setpointCalls int
}

func (m *mockHeater) Start(ctx context.Context) error {
	m.startCalled++
	return m.startErr
}
func (m *mockHeater) Stop(ctx context.Context) error {
	m.stopCalled++
	return m.stopErr
}
func (m *mockHeater) SetSetpoint(ctx context.Context, celsius float64) error {
	m.setpointCalls++
	m.setpoints = append(m.setpoints, celsius)
	return m.setpointErr
}

type mockMonitoring struct {
	state water_heater.ControlState
	err   error
}

func (m *mockMonitoring) GetState(ctx context.Context) (water_heater.ControlState, error) {
	return m.state, m.err
}

type mockUpdater struct {
	startErr error

	startCalled int
	startTotal  int64
	progress    []int64
	errStages   []service.UpdateStage
	endCalled   int
}

func (m *mockUpdater) OnStart(ctx context.Context, total int64) error {
	m.startCalled++
	m.startTotal = total
	return m.startErr
}
func (m *mockUpdater) OnProgress(written, total int64) {
	m.progress = append(m.progress, written)
}
func (m *mockUpdater) OnError(stage service.UpdateStage, err error) {
	m.errStages = append(m.errStages, stage)
}
func (m *mockUpdater) OnEnd(ctx context.Context) {
	m.endCalled++
}

func newTestRouter(s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, hub.New(nil), logger.Get(logger.ErrorLevel))
	return h.InitRoutes()
}
