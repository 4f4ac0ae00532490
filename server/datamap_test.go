package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDataMap(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		dm, err := NewDataMap(10, 10, 10, 10)
		assert.NoError(t, err)
		assert.NotNil(t, dm)
	})
	t.Run("nok, negative size", func(t *testing.T) {
		dm, err := NewDataMap(-1, 0, 0, 0)
		assert.Error(t, err)
		assert.Nil(t, dm)
	})
}

func TestDataMap_Coils(t *testing.T) {
	dm, err := NewDataMap(10, 0, 0, 0)
	assert.NoError(t, err)

	assert.True(t, dm.WriteSingleCoil(3, true))
	coils, ok := dm.ReadCoils(0, 5)
	assert.True(t, ok)
	assert.Equal(t, []bool{false, false, false, true, false}, coils)

	_, ok = dm.ReadCoils(8, 5)
	assert.False(t, ok)

	assert.False(t, dm.WriteSingleCoil(10, true))
}

func TestDataMap_WriteMultipleCoils_allOrNothing(t *testing.T) {
	dm, err := NewDataMap(4, 0, 0, 0)
	assert.NoError(t, err)

	assert.False(t, dm.WriteMultipleCoils(2, []bool{true, true, true}))
	coils, ok := dm.ReadCoils(0, 4)
	assert.True(t, ok)
	assert.Equal(t, []bool{false, false, false, false}, coils)

	assert.True(t, dm.WriteMultipleCoils(1, []bool{true, true}))
	coils, ok = dm.ReadCoils(0, 4)
	assert.True(t, ok)
	assert.Equal(t, []bool{false, true, true, false}, coils)
}

func TestDataMap_Registers(t *testing.T) {
	dm, err := NewDataMap(0, 0, 4, 4)
	assert.NoError(t, err)

	assert.True(t, dm.WriteSingleRegister(1, 0xABCD))
	regs, ok := dm.ReadHoldingRegisters(0, 4)
	assert.True(t, ok)
	assert.Equal(t, []uint16{0, 0xABCD, 0, 0}, regs)

	assert.False(t, dm.WriteMultipleRegisters(3, []uint16{1, 2}))

	_, ok = dm.ReadInputRegisters(0, 5)
	assert.False(t, ok)
}

func TestPackUnpackBits(t *testing.T) {
	values := []bool{true, false, true, true, false, false, false, false, true}
	packed := packBits(values)
	assert.Equal(t, []byte{0b00001101, 0b00000001}, packed)

	unpacked := unpackBits(packed, len(values))
	assert.Equal(t, values, unpacked)
}
