package port

import (
	"github.com/berfenger/solarpoll/internal/core/domain"
)

// RegisterReader is the Modbus link to the inverter. Implementations are
// used from a single goroutine.
type RegisterReader interface {
	// Settle drains the link before a poll cycle.
	Settle()
	ReadInputRegisters(address uint16, quantity uint16) ([]uint16, error)
	WriteRegister(address uint16, value uint16) error
}

type TelemetrySink interface {
	Name() string
	Publish(m domain.Measurement) error
}

type Network interface {
	IsConnected() bool
	Reconnect() error
}

// Serviceable is invoked on every scheduler tick.
type Serviceable interface {
	Service()
}

// Restarter normally does not return. The acquisition halts either way.
type Restarter interface {
	Restart(reason string)
}

type AcquisitionObserver interface {
	ReadFailed(reg domain.RegisterDefinition, err error)
	Sampled(reg domain.RegisterDefinition, value float32)
	Published(sink string, m domain.Measurement, err error)
	FailuresChanged(count uint)
	CycleCompleted(report domain.CycleReport)
}
