package system

import (
	"time"

	"github.com/berfenger/solarpoll/internal/core/port"

	"github.com/coreos/go-systemd/v22/daemon"
	"go.uber.org/zap"
)

// SystemdNotifier talks to the service manager over NOTIFY_SOCKET. Every
// call is a no-op when the process does not run under systemd.
type SystemdNotifier struct {
	logger   *zap.Logger
	interval time.Duration
	last     time.Time
}

var _ port.Serviceable = (*SystemdNotifier)(nil)

func NewSystemdNotifier(logger *zap.Logger) *SystemdNotifier {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		logger.Warn("invalid systemd watchdog settings", zap.Error(err))
		interval = 0
	}
	return &SystemdNotifier{
		logger:   logger,
		interval: interval,
	}
}

func (n *SystemdNotifier) WatchdogEnabled() bool {
	return n.interval > 0
}

func (n *SystemdNotifier) Ready() bool {
	return n.notify(daemon.SdNotifyReady)
}

func (n *SystemdNotifier) Stopping() bool {
	return n.notify(daemon.SdNotifyStopping)
}

// Service pets the systemd watchdog at half its interval.
func (n *SystemdNotifier) Service() {
	if n.interval <= 0 {
		return
	}
	now := time.Now()
	if now.Sub(n.last) < n.interval/2 {
		return
	}
	n.last = now
	n.notify(daemon.SdNotifyWatchdog)
}

func (n *SystemdNotifier) notify(state string) bool {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		n.logger.Warn("systemd notify failed", zap.String("state", state), zap.Error(err))
		return false
	}
	return sent
}
