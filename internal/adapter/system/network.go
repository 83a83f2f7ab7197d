package system

import (
	"errors"
	"fmt"
	"net"
	"os/exec"
	"strings"

	"github.com/berfenger/solarpoll/internal/config"
	"github.com/berfenger/solarpoll/internal/core/port"

	"go.uber.org/zap"
)

// InterfaceMonitor reports the uplink as connected while the configured
// interface is up and holds an address. No interface means always connected.
type InterfaceMonitor struct {
	iface   string
	command []string
	logger  *zap.Logger
}

var _ port.Network = (*InterfaceMonitor)(nil)

func NewInterfaceMonitor(cfg config.NetworkConfig, logger *zap.Logger) *InterfaceMonitor {
	return &InterfaceMonitor{
		iface:   cfg.Interface,
		command: cfg.ReconnectCommand,
		logger:  logger,
	}
}

func (m *InterfaceMonitor) IsConnected() bool {
	if m.iface == "" {
		return true
	}
	ifi, err := net.InterfaceByName(m.iface)
	if err != nil {
		m.logger.Debug("interface lookup failed", zap.String("interface", m.iface), zap.Error(err))
		return false
	}
	if ifi.Flags&net.FlagUp == 0 {
		return false
	}
	addrs, err := ifi.Addrs()
	return err == nil && len(addrs) > 0
}

// Reconnect runs the configured reconnect command, if any.
func (m *InterfaceMonitor) Reconnect() error {
	if len(m.command) == 0 {
		return nil
	}
	if m.command[0] == "" {
		return errors.New("empty reconnect command")
	}
	out, err := exec.Command(m.command[0], m.command[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("reconnect command %q: %w: %s", strings.Join(m.command, " "), err, strings.TrimSpace(string(out)))
	}
	m.logger.Info("reconnect command executed", zap.String("interface", m.iface))
	return nil
}
