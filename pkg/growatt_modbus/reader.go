package growatt_modbus

import (
	"fmt"
	"strings"
	"time"

	"github.com/simonvetter/modbus"
	"go.uber.org/zap"
)

type InverterReader interface {
	Open() error
	Close() error
	Settle()
	ReadInputRegisters(address uint16, quantity uint16) ([]uint16, error)
	WriteRegister(address uint16, value uint16) error
}

type ReaderConfig struct {
	// rtu:///dev/ttyUSB0 or tcp://host:502
	URL      string
	Speed    uint
	DataBits uint
	Parity   string
	StopBits uint
	UnitId   uint8
	Timeout  time.Duration
	// idle time before each poll cycle
	SettleDelay time.Duration
}

type InverterModbusReader struct {
	ModbusClient

	settleDelay time.Duration
	unitId      uint8
	isOpen      bool
	logger      *zap.Logger
}

var _ InverterReader = (*InverterModbusReader)(nil)

func ParseParity(parity string) (uint, error) {
	switch strings.ToLower(parity) {
	case "", "n", "none":
		return modbus.PARITY_NONE, nil
	case "e", "even":
		return modbus.PARITY_EVEN, nil
	case "o", "odd":
		return modbus.PARITY_ODD, nil
	}
	return 0, fmt.Errorf("unknown serial parity %q", parity)
}

func CreateInverterModbusReader(cfg ReaderConfig, logger *zap.Logger, instrument []ModbusInstrument) (*InverterModbusReader, error) {
	parity, err := ParseParity(cfg.Parity)
	if err != nil {
		return nil, err
	}

	client, err := modbus.NewClient(&modbus.ClientConfiguration{
		URL:      cfg.URL,
		Speed:    cfg.Speed,
		DataBits: cfg.DataBits,
		Parity:   parity,
		StopBits: cfg.StopBits,
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("modbus client %s: %w", cfg.URL, err)
	}

	if err := client.SetUnitId(cfg.UnitId); err != nil {
		return nil, err
	}

	return &InverterModbusReader{
		ModbusClient: ModbusClient{
			client:     client,
			instrument: instrument,
		},
		settleDelay: cfg.SettleDelay,
		unitId:      cfg.UnitId,
		logger:      logger.With(zap.String("modbus", cfg.URL)),
	}, nil
}

func (inv *InverterModbusReader) Open() error {
	if inv.isOpen {
		return nil
	}
	if err := inv.client.Open(); err != nil {
		return newFault(OP_OPEN, 0, err)
	}
	inv.isOpen = true
	inv.logger.Debug("modbus link open", zap.Uint8("unit_id", inv.unitId))
	return nil
}

func (inv *InverterModbusReader) Close() error {
	if !inv.isOpen {
		return nil
	}
	inv.isOpen = false
	return inv.client.Close()
}

func (inv *InverterModbusReader) Settle() {
	if inv.settleDelay > 0 {
		time.Sleep(inv.settleDelay)
	}
}

func (inv *InverterModbusReader) ReadInputRegisters(address uint16, quantity uint16) ([]uint16, error) {
	if err := inv.Open(); err != nil {
		return nil, err
	}
	regs, err := inv.readRegisters(address, quantity, modbus.INPUT_REGISTER)
	if err != nil {
		return nil, inv.fault(OP_READ_INPUT_REGISTERS, address, err)
	}
	return regs, nil
}

func (inv *InverterModbusReader) WriteRegister(address uint16, value uint16) error {
	if err := inv.Open(); err != nil {
		return err
	}
	if err := inv.writeRegister(address, value); err != nil {
		return inv.fault(OP_WRITE_REGISTER, address, err)
	}
	return nil
}

func (inv *InverterModbusReader) fault(op string, address uint16, err error) *ModbusFault {
	f := newFault(op, address, err)
	if f.LinkFault() {
		// reopen on next call
		inv.logger.Debug("modbus link fault, closing", zap.Error(err))
		_ = inv.Close()
	}
	return f
}
