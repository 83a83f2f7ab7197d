package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccumulatorWindowOfThree(t *testing.T) {

	assert := assert.New(t)

	acc := NewAccumulator([]uint{3})

	acc.Add(0, 10)
	assert.False(acc.ShouldFlush(0))
	acc.Add(0, 20)
	assert.False(acc.ShouldFlush(0))
	acc.Add(0, 30)
	assert.True(acc.ShouldFlush(0))

	assert.EqualValues(20, acc.Flush(0))
	assert.EqualValues(0, acc.Count(0))
	assert.False(acc.ShouldFlush(0))
}

func TestAccumulatorDefaultFlushesEverySample(t *testing.T) {

	assert := assert.New(t)

	acc := NewAccumulator([]uint{0, 1})
	assert.EqualValues(1, acc.Threshold(0))

	for _, v := range []float32{123.4, 5, 0} {
		acc.Add(1, v)
		assert.True(acc.ShouldFlush(1))
		assert.Equal(v, acc.Flush(1))
	}
}

func TestAccumulatorWindowsAreIndependent(t *testing.T) {

	assert := assert.New(t)

	acc := NewAccumulator([]uint{2, 2})
	acc.Add(0, 1)
	acc.Add(1, 100)
	acc.Add(1, 300)

	assert.False(acc.ShouldFlush(0))
	assert.True(acc.ShouldFlush(1))
	assert.EqualValues(200, acc.Flush(1))
	assert.EqualValues(1, acc.Count(0))
	assert.Equal(2, acc.Len())
}

func TestAccumulatorFlushEmpty(t *testing.T) {
	acc := NewAccumulator([]uint{1})
	assert.EqualValues(t, 0, acc.Flush(0))
}

func TestAccumulatorNoCarryOverAfterFlush(t *testing.T) {

	assert := assert.New(t)

	acc := NewAccumulator([]uint{2})
	acc.Add(0, 1000)
	acc.Add(0, 2000)
	assert.EqualValues(1500, acc.Flush(0))

	acc.Add(0, 4)
	acc.Add(0, 6)
	assert.EqualValues(5, acc.Flush(0))
}
