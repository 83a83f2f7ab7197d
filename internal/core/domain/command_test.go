package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInverterModeRegisterValues(t *testing.T) {

	assert := assert.New(t)

	expected := map[string]uint16{
		"0": 0x0000,
		"1": 0x0001,
		"2": 0x0100,
		"3": 0x0101,
	}
	for payload, value := range expected {
		mode, err := ParseInverterMode(payload)
		require.NoError(t, err, payload)
		assert.Equal(value, mode.RegisterValue(), "payload %s", payload)
	}
}

func TestInverterModeFlags(t *testing.T) {

	assert := assert.New(t)

	mode, err := ParseInverterMode("2")
	require.NoError(t, err)
	assert.True(mode.Standby)
	assert.False(mode.OutputDisabled)
	assert.Equal("standby on, output enabled", mode.String())
}

func TestInverterModeInvalidPayload(t *testing.T) {

	for _, payload := range []string{"", "4", "a", "01", " 1", "-1"} {
		_, err := ParseInverterMode(payload)
		assert.Error(t, err, "payload %q", payload)
	}
}
