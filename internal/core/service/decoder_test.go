package service

import (
	"testing"

	"github.com/berfenger/solarpoll/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

func TestDecodeUint16(t *testing.T) {

	assert := assert.New(t)

	assert.InDelta(123.4, Decode([2]uint16{1234, 0}, domain.EncodingUint16, 0.1), 1e-4)
	// second word is ignored
	assert.Equal(Decode([2]uint16{1234, 0}, domain.EncodingUint16, 0.1), Decode([2]uint16{1234, 0xFFFF}, domain.EncodingUint16, 0.1))
	assert.EqualValues(65535, Decode([2]uint16{0xFFFF, 0}, domain.EncodingUint16, 1))
}

func TestDecodeUint32WordPairShiftsByEight(t *testing.T) {

	assert := assert.New(t)

	assert.EqualValues(258, Decode([2]uint16{0x0001, 0x0002}, domain.EncodingUint32WordPair, 1))
	assert.EqualValues(0xFF<<8|0xFF, Decode([2]uint16{0xFF, 0xFF}, domain.EncodingUint32WordPair, 1))
	assert.InDelta(6553.5, Decode([2]uint16{0xFF, 0xFF}, domain.EncodingUint32WordPair, 0.1), 1e-3)
	// overlapping bits are OR-ed, not added
	assert.EqualValues(0x0100, Decode([2]uint16{0x0001, 0x0100}, domain.EncodingUint32WordPair, 1))
}

func TestDecodeInt32WordPairShiftsBySixteen(t *testing.T) {

	assert := assert.New(t)

	assert.EqualValues(65538, Decode([2]uint16{0x0001, 0x0002}, domain.EncodingInt32WordPair, 1))
	// -1 as a 32-bit two's complement word pair
	assert.EqualValues(-1, Decode([2]uint16{0xFFFF, 0xFFFF}, domain.EncodingInt32WordPair, 1))
	// -150.0 W
	assert.InDelta(-150.0, Decode([2]uint16{0xFFFF, 0xFA24}, domain.EncodingInt32WordPair, 0.1), 1e-3)
}

func TestDecodeUnknownEncoding(t *testing.T) {
	assert.EqualValues(t, 0, Decode([2]uint16{10, 10}, domain.EncodingUnknown, 1))
}

func TestDecodeRegister(t *testing.T) {
	reg := domain.RegisterDefinition{Name: "Battery_Voltage", Address: 17, Encoding: domain.EncodingUint16, Multiplier: 0.01}
	assert.InDelta(t, 52.37, DecodeRegister([2]uint16{5237, 57}, reg), 1e-4)
}
