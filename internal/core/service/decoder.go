package service

import (
	"github.com/berfenger/solarpoll/internal/core/domain"
)

// Decode turns the two words of a register read into a scaled value.
// The unsigned 32-bit composition shifts the high word by 8 bits, unlike the
// signed one. Stored series rely on that shift.
func Decode(raw [2]uint16, enc domain.Encoding, multiplier float32) float32 {
	switch enc {
	case domain.EncodingUint16:
		return float32(raw[0]) * multiplier
	case domain.EncodingUint32WordPair:
		return float32(uint32(raw[0])<<8|uint32(raw[1])) * multiplier
	case domain.EncodingInt32WordPair:
		return float32(int32(raw[1])+int32(raw[0])<<16) * multiplier
	}
	return 0
}

func DecodeRegister(raw [2]uint16, reg domain.RegisterDefinition) float32 {
	return Decode(raw, reg.Encoding, reg.Multiplier)
}
