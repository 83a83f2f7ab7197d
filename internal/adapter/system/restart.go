package system

import (
	"os"

	"github.com/berfenger/solarpoll/internal/core/port"

	"go.uber.org/zap"
)

const RESTART_EXIT_CODE = 1

// ProcessRestarter exits the process and leaves the restart to the service
// manager. Nothing survives the restart.
type ProcessRestarter struct {
	logger   *zap.Logger
	notifier *SystemdNotifier
	exit     func(int)
}

var _ port.Restarter = (*ProcessRestarter)(nil)

func NewProcessRestarter(logger *zap.Logger, notifier *SystemdNotifier) *ProcessRestarter {
	return &ProcessRestarter{
		logger:   logger,
		notifier: notifier,
		exit:     os.Exit,
	}
}

func (r *ProcessRestarter) Restart(reason string) {
	r.logger.Error("restarting process", zap.String("reason", reason), zap.Int("exit_code", RESTART_EXIT_CODE))
	_ = r.logger.Sync()
	if r.notifier != nil {
		r.notifier.Stopping()
	}
	r.exit(RESTART_EXIT_CODE)
}
