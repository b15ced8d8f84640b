package device

import (
	"os"

	"water_heater/internal/logger"
)

// Restarter is the sole recovery-of-last-resort capability. A restart
// discards all in-memory state; callers must force the relay off first.
type Restarter interface {
	Restart(reason string)
}

// ProcessRestarter exits the process and relies on the service supervisor
// (systemd Restart=always) to bring a fresh image up.
type ProcessRestarter struct {
	log *logger.Logger
}

func NewProcessRestarter(log *logger.Logger) *ProcessRestarter {
	return &ProcessRestarter{log: log}
}

func (p *ProcessRestarter) Restart(reason string) {
	if p.log != nil {
		p.log.Warnw("restarting process", "reason", reason)
		_ = p.log.Sync()
	}
	os.Exit(1)
}
