package growatt_modbus

import (
	"github.com/simonvetter/modbus"
)

type RegisterWrite struct {
	Address uint16
	Value   uint16
}

// TestInverterModbusReader serves reads from an in-memory register bank.
type TestInverterModbusReader struct {
	Registers   map[uint16]uint16
	Failures    map[uint16]error
	WriteError  error
	Writes      []RegisterWrite
	Reads       []uint16
	SettleCalls int
}

var _ InverterReader = (*TestInverterModbusReader)(nil)

func NewTestInverterModbusReader(registers map[uint16]uint16) *TestInverterModbusReader {
	if registers == nil {
		registers = map[uint16]uint16{}
	}
	return &TestInverterModbusReader{
		Registers: registers,
		Failures:  map[uint16]error{},
	}
}

func (inv *TestInverterModbusReader) Open() error {
	return nil
}

func (inv *TestInverterModbusReader) Close() error {
	return nil
}

func (inv *TestInverterModbusReader) Settle() {
	inv.SettleCalls++
}

// FailAt makes reads at address fail with a timeout fault.
func (inv *TestInverterModbusReader) FailAt(address uint16) {
	inv.Failures[address] = modbus.ErrRequestTimedOut
}

func (inv *TestInverterModbusReader) ReadInputRegisters(address uint16, quantity uint16) ([]uint16, error) {
	inv.Reads = append(inv.Reads, address)
	if err, found := inv.Failures[address]; found && err != nil {
		return nil, newFault(OP_READ_INPUT_REGISTERS, address, err)
	}
	regs := make([]uint16, quantity)
	for i := range regs {
		regs[i] = inv.Registers[address+uint16(i)]
	}
	return regs, nil
}

func (inv *TestInverterModbusReader) WriteRegister(address uint16, value uint16) error {
	if inv.WriteError != nil {
		return newFault(OP_WRITE_REGISTER, address, inv.WriteError)
	}
	inv.Writes = append(inv.Writes, RegisterWrite{Address: address, Value: value})
	return nil
}
