package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/berfenger/solarpoll/internal/core/domain"
	"github.com/berfenger/solarpoll/internal/core/port"

	"go.uber.org/zap"
)

type TickOutcome int

const (
	TickIdle TickOutcome = iota
	TickPolled
	TickOffline
	TickRestart
	TickHalted
)

func (o TickOutcome) String() string {
	switch o {
	case TickIdle:
		return "idle"
	case TickPolled:
		return "polled"
	case TickOffline:
		return "offline"
	case TickRestart:
		return "restart"
	case TickHalted:
		return "halted"
	}
	return "unknown"
}

var (
	ErrShortResponse     = errors.New("short register response")
	ErrAcquisitionHalted = errors.New("acquisition halted")
)

type AcquisitionConfig struct {
	PollInterval   time.Duration
	ReconnectDelay time.Duration
	FailureCeiling uint
	// default flush threshold for registers that do not set one
	Samples uint
}

type AcquisitionDeps struct {
	Table     domain.RegisterTable
	Reader    port.RegisterReader
	Filter    *SanityFilter
	Sinks     []port.TelemetrySink
	Network   port.Network
	Services  []port.Serviceable
	Restarter port.Restarter
	Observer  port.AcquisitionObserver
	Logger    *zap.Logger
	// nil uses time.Sleep
	Sleep func(time.Duration)
}

// Acquisition owns every piece of mutable pipeline state. It is not safe for
// concurrent use, a single owner drives Tick.
type Acquisition struct {
	cfg       AcquisitionConfig
	table     domain.RegisterTable
	reader    port.RegisterReader
	filter    *SanityFilter
	acc       *Accumulator
	watchdog  *FailureWatchdog
	sinks     []port.TelemetrySink
	network   port.Network
	services  []port.Serviceable
	restarter port.Restarter
	observer  port.AcquisitionObserver
	logger    *zap.Logger
	sleep     func(time.Duration)

	polled    bool
	lastPoll  time.Time
	lastCycle domain.CycleReport
	halted    bool
}

func NewAcquisition(cfg AcquisitionConfig, deps AcquisitionDeps) *Acquisition {
	a := &Acquisition{
		cfg:       cfg,
		table:     deps.Table,
		reader:    deps.Reader,
		filter:    deps.Filter,
		acc:       NewAccumulator(deps.Table.FlushThresholds(cfg.Samples)),
		watchdog:  NewFailureWatchdog(cfg.FailureCeiling),
		sinks:     deps.Sinks,
		network:   deps.Network,
		services:  deps.Services,
		restarter: deps.Restarter,
		observer:  deps.Observer,
		logger:    deps.Logger,
		sleep:     deps.Sleep,
	}
	if a.filter == nil {
		a.filter = NewSanityFilter()
	}
	if a.observer == nil {
		a.observer = NopObserver{}
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	if a.sleep == nil {
		a.sleep = time.Sleep
	}
	return a
}

// Tick runs one bounded scheduler step. It polls the register table when the
// poll interval has elapsed since the start of the previous cycle.
func (a *Acquisition) Tick(now time.Time) TickOutcome {
	if a.halted {
		return TickHalted
	}

	for _, s := range a.services {
		s.Service()
	}

	if a.network != nil && !a.network.IsConnected() {
		a.recordFailure()
		a.logger.Warn("network is down, reconnecting", zap.Uint("failures", a.watchdog.Count()))
		if err := a.network.Reconnect(); err != nil {
			a.logger.Error("network reconnect failed", zap.Error(err))
		}
		a.sleep(a.cfg.ReconnectDelay)
		if a.checkCeiling() {
			return TickRestart
		}
		return TickOffline
	}

	outcome := TickIdle
	if !a.polled || now.Sub(a.lastPoll) >= a.cfg.PollInterval {
		a.polled = true
		a.lastPoll = now
		a.PollCycle()
		outcome = TickPolled
	}

	if a.checkCeiling() {
		return TickRestart
	}
	return outcome
}

// PollCycle reads every register in table order. A failed register never
// aborts the cycle.
func (a *Acquisition) PollCycle() domain.CycleReport {
	start := time.Now()
	report := domain.CycleReport{Registers: len(a.table)}

	a.reader.Settle()
	for i, reg := range a.table {
		raw, err := a.reader.ReadInputRegisters(reg.Address, domain.REGISTER_READ_QUANTITY)
		if err == nil && len(raw) < domain.REGISTER_READ_QUANTITY {
			err = fmt.Errorf("%w: got %d words", ErrShortResponse, len(raw))
		}
		if err != nil {
			report.ReadFailures++
			a.recordFailure()
			a.logger.Warn("register read failed",
				zap.String("register", reg.Name),
				zap.Uint16("address", reg.Address),
				zap.Uint("failures", a.watchdog.Count()),
				zap.Error(err))
			a.observer.ReadFailed(reg, err)
			continue
		}
		a.recordSuccess()

		value := DecodeRegister([2]uint16{raw[0], raw[1]}, reg)
		value = a.filter.Filter(reg.Address, value)
		a.logger.Debug("register sampled", zap.String("register", reg.Name), zap.Float32("value", value))
		a.observer.Sampled(reg, value)

		a.acc.Add(i, value)
		if a.acc.ShouldFlush(i) {
			m := domain.Measurement{
				Name:    reg.Name,
				Address: reg.Address,
				Value:   a.acc.Flush(i),
			}
			report.Flushed++
			report.PublishFailures += a.publish(m)
		}
	}

	report.Duration = time.Since(start)
	a.lastCycle = report
	a.logger.Debug("poll cycle completed",
		zap.Int("read_failures", report.ReadFailures),
		zap.Int("flushed", report.Flushed),
		zap.Int("publish_failures", report.PublishFailures),
		zap.Duration("duration", report.Duration))
	a.observer.CycleCompleted(report)
	return report
}

func (a *Acquisition) publish(m domain.Measurement) int {
	failures := 0
	for _, sink := range a.sinks {
		err := sink.Publish(m)
		a.observer.Published(sink.Name(), m, err)
		if err != nil {
			failures++
			a.recordFailure()
			a.logger.Warn("publish failed",
				zap.String("sink", sink.Name()),
				zap.String("register", m.Name),
				zap.Uint("failures", a.watchdog.Count()),
				zap.Error(err))
			continue
		}
		a.recordSuccess()
	}
	return failures
}

// ApplyMode writes the inverter standby/output control word. A failed write
// counts as a fault and is not retried.
func (a *Acquisition) ApplyMode(mode domain.InverterMode) error {
	if a.halted {
		return ErrAcquisitionHalted
	}
	value := mode.RegisterValue()
	if err := a.reader.WriteRegister(domain.MODE_CONTROL_REGISTER, value); err != nil {
		a.recordFailure()
		a.logger.Error("inverter mode write failed",
			zap.Stringer("mode", mode),
			zap.Uint16("value", value),
			zap.Error(err))
		return err
	}
	a.recordSuccess()
	a.logger.Info("inverter mode set", zap.Stringer("mode", mode), zap.Uint16("value", value))
	return nil
}

func (a *Acquisition) checkCeiling() bool {
	if !a.watchdog.Exceeded() {
		return false
	}
	a.halted = true
	reason := fmt.Sprintf("failure counter reached %d", a.watchdog.Count())
	a.logger.Error("too many failures, restarting", zap.Uint("failures", a.watchdog.Count()))
	if a.restarter != nil {
		a.restarter.Restart(reason)
	}
	return true
}

func (a *Acquisition) recordFailure() {
	a.watchdog.RecordFailure()
	a.observer.FailuresChanged(a.watchdog.Count())
}

func (a *Acquisition) recordSuccess() {
	before := a.watchdog.Count()
	a.watchdog.RecordSuccess()
	if before != a.watchdog.Count() {
		a.observer.FailuresChanged(a.watchdog.Count())
	}
}

func (a *Acquisition) Failures() uint {
	return a.watchdog.Count()
}

func (a *Acquisition) FailureCeiling() uint {
	return a.watchdog.Ceiling()
}

func (a *Acquisition) State() WatchdogState {
	return a.watchdog.State()
}

func (a *Acquisition) Halted() bool {
	return a.halted
}

func (a *Acquisition) LastPoll() time.Time {
	return a.lastPoll
}

func (a *Acquisition) LastCycle() domain.CycleReport {
	return a.lastCycle
}

type NopObserver struct{}

var _ port.AcquisitionObserver = NopObserver{}

func (NopObserver) ReadFailed(domain.RegisterDefinition, error) {}
func (NopObserver) Sampled(domain.RegisterDefinition, float32) {}
func (NopObserver) Published(string, domain.Measurement, error) {}
func (NopObserver) FailuresChanged(uint) {}
func (NopObserver) CycleCompleted(domain.CycleReport) {}
