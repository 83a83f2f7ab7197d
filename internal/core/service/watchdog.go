package service

type WatchdogState string

const (
	WatchdogNominal  WatchdogState = "nominal"
	WatchdogDegraded WatchdogState = "degraded"

	DEFAULT_FAILURE_CEILING uint = 40
)

// FailureWatchdog counts faults against a restart ceiling. Successes pay
// back one fault each, never below zero.
type FailureWatchdog struct {
	count   uint
	ceiling uint
}

func NewFailureWatchdog(ceiling uint) *FailureWatchdog {
	if ceiling == 0 {
		ceiling = DEFAULT_FAILURE_CEILING
	}
	return &FailureWatchdog{ceiling: ceiling}
}

func (w *FailureWatchdog) RecordSuccess() {
	if w.count > 0 {
		w.count--
	}
}

func (w *FailureWatchdog) RecordFailure() {
	w.count++
}

func (w *FailureWatchdog) Exceeded() bool {
	return w.count >= w.ceiling
}

func (w *FailureWatchdog) State() WatchdogState {
	if w.count == 0 {
		return WatchdogNominal
	}
	return WatchdogDegraded
}

func (w *FailureWatchdog) Count() uint {
	return w.count
}

func (w *FailureWatchdog) Ceiling() uint {
	return w.ceiling
}
