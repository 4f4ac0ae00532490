package modbus

import (
	"context"
	"fmt"

	"github.com/go-industrial/modbus/packet"
)

// ReadCoils sends Read Coils (FC=01) request over Modbus RTU and returns the parsed response.
func (c *SerialClient) ReadCoils(ctx context.Context, unitID uint8, startAddress uint16, quantity uint16) (*packet.ReadCoilsResponseRTU, error) {
	req, err := packet.NewReadCoilsRequestRTU(unitID, startAddress, quantity)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	r, ok := resp.(*packet.ReadCoilsResponseRTU)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}
	return r, nil
}

// ReadDiscreteInputs sends Read Discrete Inputs (FC=02) request over Modbus RTU and returns the parsed response.
func (c *SerialClient) ReadDiscreteInputs(ctx context.Context, unitID uint8, startAddress uint16, quantity uint16) (*packet.ReadDiscreteInputsResponseRTU, error) {
	req, err := packet.NewReadDiscreteInputsRequestRTU(unitID, startAddress, quantity)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	r, ok := resp.(*packet.ReadDiscreteInputsResponseRTU)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}
	return r, nil
}

// ReadHoldingRegisters sends Read Holding Registers (FC=03) request over Modbus RTU and returns the parsed response.
func (c *SerialClient) ReadHoldingRegisters(ctx context.Context, unitID uint8, startAddress uint16, quantity uint16) (*packet.ReadHoldingRegistersResponseRTU, error) {
	req, err := packet.NewReadHoldingRegistersRequestRTU(unitID, startAddress, quantity)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	r, ok := resp.(*packet.ReadHoldingRegistersResponseRTU)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}
	return r, nil
}

// ReadInputRegisters sends Read Input Registers (FC=04) request over Modbus RTU and returns the parsed response.
func (c *SerialClient) ReadInputRegisters(ctx context.Context, unitID uint8, startAddress uint16, quantity uint16) (*packet.ReadInputRegistersResponseRTU, error) {
	req, err := packet.NewReadInputRegistersRequestRTU(unitID, startAddress, quantity)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	r, ok := resp.(*packet.ReadInputRegistersResponseRTU)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}
	return r, nil
}

// WriteSingleCoil sends Write Single Coil (FC=05) request over Modbus RTU and returns the parsed response.
func (c *SerialClient) WriteSingleCoil(ctx context.Context, unitID uint8, address uint16, state bool) (*packet.WriteSingleCoilResponseRTU, error) {
	req, err := packet.NewWriteSingleCoilRequestRTU(unitID, address, state)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	r, ok := resp.(*packet.WriteSingleCoilResponseRTU)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}
	return r, nil
}

// WriteSingleRegister sends Write Single Register (FC=06) request over Modbus RTU and returns the parsed response.
// data must be exactly 2 bytes in BigEndian byte order.
func (c *SerialClient) WriteSingleRegister(ctx context.Context, unitID uint8, address uint16, data []byte) (*packet.WriteSingleRegisterResponseRTU, error) {
	req, err := packet.NewWriteSingleRegisterRequestRTU(unitID, address, data)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	r, ok := resp.(*packet.WriteSingleRegisterResponseRTU)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}
	return r, nil
}

// ReadExceptionStatus sends Read Exception Status (FC=07) request over Modbus RTU and returns the parsed response.
func (c *SerialClient) ReadExceptionStatus(ctx context.Context, unitID uint8) (*packet.ReadExceptionStatusResponseRTU, error) {
	req, err := packet.NewReadExceptionStatusRequestRTU(unitID)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	r, ok := resp.(*packet.ReadExceptionStatusResponseRTU)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}
	return r, nil
}

// WriteMultipleCoils sends Write Multiple Coils (FC=15) request over Modbus RTU and returns the parsed response.
func (c *SerialClient) WriteMultipleCoils(ctx context.Context, unitID uint8, startAddress uint16, coils []bool) (*packet.WriteMultipleCoilsResponseRTU, error) {
	req, err := packet.NewWriteMultipleCoilsRequestRTU(unitID, startAddress, coils)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	r, ok := resp.(*packet.WriteMultipleCoilsResponseRTU)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}
	return r, nil
}

// WriteMultipleRegisters sends Write Multiple Registers (FC=16) request over Modbus RTU and returns the parsed response.
// NB: data must be in BigEndian byte order for server to interpret them correctly.
func (c *SerialClient) WriteMultipleRegisters(ctx context.Context, unitID uint8, startAddress uint16, data []byte) (*packet.WriteMultipleRegistersResponseRTU, error) {
	req, err := packet.NewWriteMultipleRegistersRequestRTU(unitID, startAddress, data)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	r, ok := resp.(*packet.WriteMultipleRegistersResponseRTU)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}
	return r, nil
}

// ReportSlaveID sends Read Server ID (FC=17) request over Modbus RTU and returns the parsed response.
func (c *SerialClient) ReportSlaveID(ctx context.Context, unitID uint8) (*packet.ReadServerIDResponseRTU, error) {
	req, err := packet.NewReadServerIDRequestRTU(unitID)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	r, ok := resp.(*packet.ReadServerIDResponseRTU)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}
	return r, nil
}
