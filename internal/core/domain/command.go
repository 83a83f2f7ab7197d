package domain

import (
	"fmt"
)

// holding register of the on/off control word
const MODE_CONTROL_REGISTER uint16 = 0

// InverterMode is the standby/output state written to the control register.
// High byte set puts the inverter in standby, low byte set disables the output.
type InverterMode struct {
	Standby        bool
	OutputDisabled bool
}

func ParseInverterMode(payload string) (InverterMode, error) {
	if len(payload) != 1 || payload[0] < '0' || payload[0] > '3' {
		return InverterMode{}, fmt.Errorf("invalid inverter mode payload %q", payload)
	}
	d := payload[0] - '0'
	return InverterMode{
		Standby:        d&2 != 0,
		OutputDisabled: d&1 != 0,
	}, nil
}

func (m InverterMode) RegisterValue() uint16 {
	var value uint16
	if m.Standby {
		value |= 0x0100
	}
	if m.OutputDisabled {
		value |= 0x0001
	}
	return value
}

func (m InverterMode) String() string {
	standby := "off"
	if m.Standby {
		standby = "on"
	}
	output := "enabled"
	if m.OutputDisabled {
		output = "disabled"
	}
	return fmt.Sprintf("standby %s, output %s", standby, output)
}
