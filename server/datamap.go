package server

import (
	"fmt"
	"sync"
)

// DataMap is the slave-side register/coil storage a Dispatcher reads and writes. All four address
// spaces (coils, discrete inputs, holding registers, input registers) are allocated up front and
// sized independently, grounded on original_source's modbus_mapping_new/modbus_mapping_free
// all-or-nothing allocation: either every table is sized and present, or NewDataMap returns an
// error and no DataMap at all.
type DataMap struct {
	mu sync.RWMutex

	coils            []bool
	discreteInputs   []bool
	holdingRegisters []uint16
	inputRegisters   []uint16
}

// NewDataMap allocates a DataMap with the given table sizes, each zero-valued after allocation
// (coils/discrete inputs false, registers 0), mirroring modbus_mapping_new's memset.
func NewDataMap(nCoils, nDiscreteInputs, nHoldingRegisters, nInputRegisters int) (*DataMap, error) {
	if nCoils < 0 || nDiscreteInputs < 0 || nHoldingRegisters < 0 || nInputRegisters < 0 {
		return nil, fmt.Errorf("server: datamap table sizes must not be negative")
	}
	return &DataMap{
		coils:            make([]bool, nCoils),
		discreteInputs:   make([]bool, nDiscreteInputs),
		holdingRegisters: make([]uint16, nHoldingRegisters),
		inputRegisters:   make([]uint16, nInputRegisters),
	}, nil
}

// ReadCoils returns a copy of count coil values starting at address, or ok=false if the requested
// range falls outside the allocated table.
func (d *DataMap) ReadCoils(address, count uint16) ([]bool, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return readBoolRange(d.coils, address, count)
}

// ReadDiscreteInputs returns a copy of count discrete input values starting at address.
func (d *DataMap) ReadDiscreteInputs(address, count uint16) ([]bool, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return readBoolRange(d.discreteInputs, address, count)
}

// ReadHoldingRegisters returns a copy of count holding register values starting at address.
func (d *DataMap) ReadHoldingRegisters(address, count uint16) ([]uint16, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return readUint16Range(d.holdingRegisters, address, count)
}

// ReadInputRegisters returns a copy of count input register values starting at address.
func (d *DataMap) ReadInputRegisters(address, count uint16) ([]uint16, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return readUint16Range(d.inputRegisters, address, count)
}

// WriteSingleCoil sets one coil. Returns ok=false if address is out of range.
func (d *DataMap) WriteSingleCoil(address uint16, value bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if int(address) >= len(d.coils) {
		return false
	}
	d.coils[address] = value
	return true
}

// WriteSingleRegister sets one holding register. Returns ok=false if address is out of range.
func (d *DataMap) WriteSingleRegister(address uint16, value uint16) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if int(address) >= len(d.holdingRegisters) {
		return false
	}
	d.holdingRegisters[address] = value
	return true
}

// WriteMultipleCoils sets len(values) coils starting at address, all-or-nothing: if any target
// index falls outside the table, no coil is modified and ok is false.
func (d *DataMap) WriteMultipleCoils(address uint16, values []bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if int(address)+len(values) > len(d.coils) {
		return false
	}
	copy(d.coils[address:], values)
	return true
}

// WriteMultipleRegisters sets len(values) holding registers starting at address, all-or-nothing.
func (d *DataMap) WriteMultipleRegisters(address uint16, values []uint16) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if int(address)+len(values) > len(d.holdingRegisters) {
		return false
	}
	copy(d.holdingRegisters[address:], values)
	return true
}

func readBoolRange(table []bool, address, count uint16) ([]bool, bool) {
	start, end := int(address), int(address)+int(count)
	if count == 0 || end > len(table) {
		return nil, false
	}
	out := make([]bool, count)
	copy(out, table[start:end])
	return out, true
}

func readUint16Range(table []uint16, address, count uint16) ([]uint16, bool) {
	start, end := int(address), int(address)+int(count)
	if count == 0 || end > len(table) {
		return nil, false
	}
	out := make([]uint16, count)
	copy(out, table[start:end])
	return out, true
}

// packBits packs bools into bytes, 8 bits per byte, least-significant bit first, mirroring
// original_source's get_byte_from_bits.
func packBits(values []bool) []byte {
	out := make([]byte, (len(values)+7)/8)
	for i, v := range values {
		if v {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

// unpackBits unpacks count bits from data, least-significant bit first, mirroring
// original_source's set_bits_from_bytes.
func unpackBits(data []byte, count int) []bool {
	out := make([]bool, count)
	for i := 0; i < count; i++ {
		out[i] = data[i/8]&(1<<uint(i%8)) != 0
	}
	return out
}
