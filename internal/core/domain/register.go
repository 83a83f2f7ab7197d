package domain

import (
	"errors"
	"fmt"
	"time"
)

type Encoding uint8

const (
	EncodingUnknown Encoding = iota
	EncodingUint16
	// high word shifted by 8, low word OR-ed in
	EncodingUint32WordPair
	// high word shifted by 16, low word added
	EncodingInt32WordPair
)

const (
	ENCODING_NAME_UINT16           = "uint16"
	ENCODING_NAME_UINT32_WORD_PAIR = "uint32_word_pair"
	ENCODING_NAME_INT32_WORD_PAIR  = "int32_word_pair"
)

// words read per register, whatever the encoding
const REGISTER_READ_QUANTITY = 2

func ParseEncoding(name string) (Encoding, error) {
	switch name {
	case ENCODING_NAME_UINT16:
		return EncodingUint16, nil
	case ENCODING_NAME_UINT32_WORD_PAIR:
		return EncodingUint32WordPair, nil
	case ENCODING_NAME_INT32_WORD_PAIR:
		return EncodingInt32WordPair, nil
	}
	return EncodingUnknown, fmt.Errorf("unknown register encoding %q", name)
}

func (e Encoding) String() string {
	switch e {
	case EncodingUint16:
		return ENCODING_NAME_UINT16
	case EncodingUint32WordPair:
		return ENCODING_NAME_UINT32_WORD_PAIR
	case EncodingInt32WordPair:
		return ENCODING_NAME_INT32_WORD_PAIR
	}
	return "unknown"
}

// Wide reports whether both words of the read carry data.
func (e Encoding) Wide() bool {
	return e == EncodingUint32WordPair || e == EncodingInt32WordPair
}

type RegisterDefinition struct {
	Name       string
	Address    uint16
	Encoding   Encoding
	Multiplier float32
	Unit       string
	// flush threshold override, 0 uses the configured default
	Samples uint
}

type RegisterTable []RegisterDefinition

var (
	ErrEmptyRegisterTable = errors.New("register table is empty")
)

func (t RegisterTable) Validate() error {
	if len(t) == 0 {
		return ErrEmptyRegisterTable
	}
	addresses := make(map[uint16]string, len(t))
	names := make(map[string]struct{}, len(t))
	for i, reg := range t {
		if reg.Name == "" {
			return fmt.Errorf("register #%d at address %d has no name", i, reg.Address)
		}
		if _, found := names[reg.Name]; found {
			return fmt.Errorf("duplicated register name %s", reg.Name)
		}
		names[reg.Name] = struct{}{}
		if other, found := addresses[reg.Address]; found {
			return fmt.Errorf("register %s reuses address %d of register %s", reg.Name, reg.Address, other)
		}
		addresses[reg.Address] = reg.Name
		if reg.Encoding == EncodingUnknown || reg.Encoding > EncodingInt32WordPair {
			return fmt.Errorf("register %s has an unknown encoding", reg.Name)
		}
		if reg.Multiplier == 0 {
			return fmt.Errorf("register %s has a zero multiplier", reg.Name)
		}
	}
	return nil
}

func (t RegisterTable) ByAddress(address uint16) (RegisterDefinition, bool) {
	for _, reg := range t {
		if reg.Address == address {
			return reg, true
		}
	}
	return RegisterDefinition{}, false
}

func (t RegisterTable) Names() []string {
	names := make([]string, len(t))
	for i, reg := range t {
		names[i] = reg.Name
	}
	return names
}

// FlushThresholds resolves the per-register sample count, falling back to def.
func (t RegisterTable) FlushThresholds(def uint) []uint {
	thresholds := make([]uint, len(t))
	for i, reg := range t {
		if reg.Samples > 0 {
			thresholds[i] = reg.Samples
		} else {
			thresholds[i] = def
		}
	}
	return thresholds
}

// Measurement is a flushed register value offered to the telemetry sinks.
type Measurement struct {
	Name    string
	Address uint16
	Value   float32
}

type CycleReport struct {
	Registers       int
	ReadFailures    int
	Flushed         int
	PublishFailures int
	Duration        time.Duration
}
