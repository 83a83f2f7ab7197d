package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWatchdogNeverNegative(t *testing.T) {

	assert := assert.New(t)

	w := NewFailureWatchdog(40)
	w.RecordSuccess()
	w.RecordSuccess()
	assert.EqualValues(0, w.Count())
	assert.Equal(WatchdogNominal, w.State())

	w.RecordFailure()
	assert.Equal(WatchdogDegraded, w.State())
	w.RecordSuccess()
	w.RecordSuccess()
	assert.EqualValues(0, w.Count())
}

func TestWatchdogCeiling(t *testing.T) {

	assert := assert.New(t)

	w := NewFailureWatchdog(40)
	for i := 0; i < 39; i++ {
		w.RecordFailure()
		assert.False(w.Exceeded(), "failure %d", i+1)
	}
	w.RecordFailure()
	assert.True(w.Exceeded())
	assert.EqualValues(40, w.Count())
}

func TestWatchdogDefaultCeiling(t *testing.T) {
	assert.Equal(t, DEFAULT_FAILURE_CEILING, NewFailureWatchdog(0).Ceiling())
}
