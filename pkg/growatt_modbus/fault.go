package growatt_modbus

import (
	"errors"
	"fmt"

	"github.com/simonvetter/modbus"
)

const (
	OP_READ_INPUT_REGISTERS = "read_input_registers"
	OP_WRITE_REGISTER       = "write_register"
	OP_OPEN                 = "open"
)

// native result codes, modbus exceptions below 0xE0
const (
	CODE_ILLEGAL_FUNCTION     uint8 = 0x01
	CODE_ILLEGAL_DATA_ADDRESS uint8 = 0x02
	CODE_ILLEGAL_DATA_VALUE   uint8 = 0x03
	CODE_SLAVE_DEVICE_FAILURE uint8 = 0x04
	CODE_ACKNOWLEDGE          uint8 = 0x05
	CODE_SLAVE_DEVICE_BUSY    uint8 = 0x06
	CODE_MEMORY_PARITY_ERROR  uint8 = 0x08
	CODE_GATEWAY_PATH         uint8 = 0x0A
	CODE_GATEWAY_TARGET       uint8 = 0x0B
	CODE_INVALID_SLAVE_ID     uint8 = 0xE0
	CODE_INVALID_RESPONSE     uint8 = 0xE1
	CODE_RESPONSE_TIMED_OUT   uint8 = 0xE2
	CODE_INVALID_CRC          uint8 = 0xE3
	CODE_UNKNOWN              uint8 = 0xFF
)

// ModbusFault is returned by every failed bus operation.
type ModbusFault struct {
	Op      string
	Address uint16
	Code    uint8
	Err     error
}

func (f *ModbusFault) Error() string {
	return fmt.Sprintf("modbus %s at %d failed (code 0x%02X): %v", f.Op, f.Address, f.Code, f.Err)
}

func (f *ModbusFault) Unwrap() error {
	return f.Err
}

// LinkFault reports whether the fault points at the transport rather than at the slave.
func (f *ModbusFault) LinkFault() bool {
	return f.Code == CODE_UNKNOWN
}

func newFault(op string, address uint16, err error) *ModbusFault {
	return &ModbusFault{
		Op:      op,
		Address: address,
		Code:    FaultCode(err),
		Err:     err,
	}
}

func FaultCode(err error) uint8 {
	switch {
	case errors.Is(err, modbus.ErrIllegalFunction):
		return CODE_ILLEGAL_FUNCTION
	case errors.Is(err, modbus.ErrIllegalDataAddress):
		return CODE_ILLEGAL_DATA_ADDRESS
	case errors.Is(err, modbus.ErrIllegalDataValue):
		return CODE_ILLEGAL_DATA_VALUE
	case errors.Is(err, modbus.ErrServerDeviceFailure):
		return CODE_SLAVE_DEVICE_FAILURE
	case errors.Is(err, modbus.ErrAcknowledge):
		return CODE_ACKNOWLEDGE
	case errors.Is(err, modbus.ErrServerDeviceBusy):
		return CODE_SLAVE_DEVICE_BUSY
	case errors.Is(err, modbus.ErrMemoryParityError):
		return CODE_MEMORY_PARITY_ERROR
	case errors.Is(err, modbus.ErrGWPathUnavailable):
		return CODE_GATEWAY_PATH
	case errors.Is(err, modbus.ErrGWTargetFailedToRespond):
		return CODE_GATEWAY_TARGET
	case errors.Is(err, modbus.ErrBadUnitId):
		return CODE_INVALID_SLAVE_ID
	case errors.Is(err, modbus.ErrShortFrame),
		errors.Is(err, modbus.ErrProtocolError),
		errors.Is(err, modbus.ErrBadTransactionId),
		errors.Is(err, modbus.ErrUnknownProtocolId),
		errors.Is(err, modbus.ErrUnexpectedParameters):
		return CODE_INVALID_RESPONSE
	case errors.Is(err, modbus.ErrRequestTimedOut):
		return CODE_RESPONSE_TIMED_OUT
	case errors.Is(err, modbus.ErrBadCRC):
		return CODE_INVALID_CRC
	}
	return CODE_UNKNOWN
}
