package server

import (
	"context"
	"testing"

	"github.com/go-industrial/modbus/packet"
	"github.com/stretchr/testify/assert"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	dm, err := NewDataMap(16, 16, 16, 16)
	assert.NoError(t, err)
	return &Dispatcher{Data: dm, ServerID: []byte("test-server"), RunStatus: 0xFF}
}

func TestDispatcher_ReadCoils(t *testing.T) {
	d := newTestDispatcher(t)
	assert.True(t, d.Data.WriteSingleCoil(2, true))

	req, err := packet.NewReadCoilsRequestTCP(1, 0, 8)
	assert.NoError(t, err)

	resp, err := d.Handle(context.Background(), req)
	assert.NoError(t, err)

	cr, ok := resp.(*packet.ReadCoilsResponseTCP)
	assert.True(t, ok)
	assert.Equal(t, []byte{0b00000100}, cr.Data)
}

func TestDispatcher_ReadCoils_illegalAddress(t *testing.T) {
	d := newTestDispatcher(t)

	req, err := packet.NewReadCoilsRequestTCP(1, 10, 20)
	assert.NoError(t, err)

	_, err = d.Handle(context.Background(), req)
	assert.Error(t, err)

	var target *packet.ErrorParseTCP
	assert.ErrorAs(t, err, &target)
	assert.Equal(t, packet.ErrIllegalDataAddress, target.Packet.Code)
}

func TestDispatcher_WriteSingleRegister(t *testing.T) {
	d := newTestDispatcher(t)

	req, err := packet.NewWriteSingleRegisterRequestTCP(1, 5, []byte{0x01, 0x02})
	assert.NoError(t, err)

	resp, err := d.Handle(context.Background(), req)
	assert.NoError(t, err)
	_, ok := resp.(*packet.WriteSingleRegisterResponseTCP)
	assert.True(t, ok)

	regs, ok := d.Data.ReadHoldingRegisters(5, 1)
	assert.True(t, ok)
	assert.Equal(t, []uint16{0x0102}, regs)
}

func TestDispatcher_WriteMultipleCoils_RTU(t *testing.T) {
	d := newTestDispatcher(t)

	req, err := packet.NewWriteMultipleCoilsRequestRTU(1, 0, []bool{true, false, true})
	assert.NoError(t, err)

	resp, err := d.Handle(context.Background(), req)
	assert.NoError(t, err)
	wr, ok := resp.(*packet.WriteMultipleCoilsResponseRTU)
	assert.True(t, ok)
	assert.Equal(t, uint16(3), wr.CoilCount)

	coils, ok := d.Data.ReadCoils(0, 3)
	assert.True(t, ok)
	assert.Equal(t, []bool{true, false, true}, coils)
}

func TestDispatcher_ReadExceptionStatus(t *testing.T) {
	d := newTestDispatcher(t)

	req, err := packet.NewReadExceptionStatusRequestRTU(1)
	assert.NoError(t, err)

	resp, err := d.Handle(context.Background(), req)
	assert.NoError(t, err)
	er, ok := resp.(*packet.ReadExceptionStatusResponseRTU)
	assert.True(t, ok)
	assert.Equal(t, uint8(0xFF), er.Status)
}

func TestDispatcher_ReadServerID(t *testing.T) {
	d := newTestDispatcher(t)

	req, err := packet.NewReadServerIDRequestTCP(1)
	assert.NoError(t, err)

	resp, err := d.Handle(context.Background(), req)
	assert.NoError(t, err)
	sr, ok := resp.(*packet.ReadServerIDResponseTCP)
	assert.True(t, ok)
	assert.Equal(t, []byte("test-server"), sr.ServerID)
}
