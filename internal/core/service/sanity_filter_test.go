package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDischargeClampBoundary(t *testing.T) {

	assert := assert.New(t)

	f := DefaultSanityFilter(DEFAULT_DISCHARGE_CLAMP_WATTS)
	assert.Equal(1, f.Len())

	assert.EqualValues(0, f.Filter(AC_DISCHARGE_WATTS_ADDRESS, 6001))
	assert.EqualValues(6000, f.Filter(AC_DISCHARGE_WATTS_ADDRESS, 6000))
	assert.EqualValues(1520.5, f.Filter(AC_DISCHARGE_WATTS_ADDRESS, 1520.5))
}

func TestDischargeClampOnlyTouchesItsRegister(t *testing.T) {

	f := DefaultSanityFilter(DEFAULT_DISCHARGE_CLAMP_WATTS)
	assert.EqualValues(t, 9000, f.Filter(73, 9000))
}

func TestConfiguredClamp(t *testing.T) {

	f := DefaultSanityFilter(3000)
	assert.EqualValues(t, 0, f.Filter(AC_DISCHARGE_WATTS_ADDRESS, 3000.5))
	assert.EqualValues(t, 2999, f.Filter(AC_DISCHARGE_WATTS_ADDRESS, 2999))
}

func TestRulesApplyInOrder(t *testing.T) {

	assert := assert.New(t)

	f := NewSanityFilter().
		With(18, ReplaceAbove{Limit: 100, Replacement: 100}).
		With(18, SanityRuleFunc(func(v float32) float32 {
			if v < 0 {
				return 0
			}
			return v
		}))

	assert.EqualValues(100, f.Filter(18, 140))
	assert.EqualValues(0, f.Filter(18, -3))
	assert.EqualValues(57, f.Filter(18, 57))
	assert.Equal(2, f.Len())
}
