package modbus

import (
	"context"
	"fmt"

	"github.com/go-industrial/modbus/packet"
)

// ReadCoils sends Read Coils (FC=01) request over Modbus TCP and returns the parsed response.
func (c *Client) ReadCoils(ctx context.Context, unitID uint8, startAddress uint16, quantity uint16) (*packet.ReadCoilsResponseTCP, error) {
	req, err := packet.NewReadCoilsRequestTCP(unitID, startAddress, quantity)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	r, ok := resp.(*packet.ReadCoilsResponseTCP)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}
	return r, nil
}

// ReadDiscreteInputs sends Read Discrete Inputs (FC=02) request over Modbus TCP and returns the parsed response.
func (c *Client) ReadDiscreteInputs(ctx context.Context, unitID uint8, startAddress uint16, quantity uint16) (*packet.ReadDiscreteInputsResponseTCP, error) {
	req, err := packet.NewReadDiscreteInputsRequestTCP(unitID, startAddress, quantity)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	r, ok := resp.(*packet.ReadDiscreteInputsResponseTCP)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}
	return r, nil
}

// ReadHoldingRegisters sends Read Holding Registers (FC=03) request over Modbus TCP and returns the parsed response.
func (c *Client) ReadHoldingRegisters(ctx context.Context, unitID uint8, startAddress uint16, quantity uint16) (*packet.ReadHoldingRegistersResponseTCP, error) {
	req, err := packet.NewReadHoldingRegistersRequestTCP(unitID, startAddress, quantity)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	r, ok := resp.(*packet.ReadHoldingRegistersResponseTCP)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}
	return r, nil
}

// ReadInputRegisters sends Read Input Registers (FC=04) request over Modbus TCP and returns the parsed response.
func (c *Client) ReadInputRegisters(ctx context.Context, unitID uint8, startAddress uint16, quantity uint16) (*packet.ReadInputRegistersResponseTCP, error) {
	req, err := packet.NewReadInputRegistersRequestTCP(unitID, startAddress, quantity)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	r, ok := resp.(*packet.ReadInputRegistersResponseTCP)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}
	return r, nil
}

// WriteSingleCoil sends Write Single Coil (FC=05) request over Modbus TCP and returns the parsed response.
func (c *Client) WriteSingleCoil(ctx context.Context, unitID uint8, address uint16, state bool) (*packet.WriteSingleCoilResponseTCP, error) {
	req, err := packet.NewWriteSingleCoilRequestTCP(unitID, address, state)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	r, ok := resp.(*packet.WriteSingleCoilResponseTCP)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}
	return r, nil
}

// WriteSingleRegister sends Write Single Register (FC=06) request over Modbus TCP and returns the parsed response.
// data must be exactly 2 bytes in BigEndian byte order.
func (c *Client) WriteSingleRegister(ctx context.Context, unitID uint8, address uint16, data []byte) (*packet.WriteSingleRegisterResponseTCP, error) {
	req, err := packet.NewWriteSingleRegisterRequestTCP(unitID, address, data)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	r, ok := resp.(*packet.WriteSingleRegisterResponseTCP)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}
	return r, nil
}

// ReadExceptionStatus sends Read Exception Status (FC=07) request over Modbus TCP and returns the parsed response.
// NB: this function is defined by the Modbus specification for serial line devices, some TCP gateways still expose it.
func (c *Client) ReadExceptionStatus(ctx context.Context, unitID uint8) (*packet.ReadExceptionStatusResponseTCP, error) {
	req, err := packet.NewReadExceptionStatusRequestTCP(unitID)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	r, ok := resp.(*packet.ReadExceptionStatusResponseTCP)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}
	return r, nil
}

// WriteMultipleCoils sends Write Multiple Coils (FC=15) request over Modbus TCP and returns the parsed response.
func (c *Client) WriteMultipleCoils(ctx context.Context, unitID uint8, startAddress uint16, coils []bool) (*packet.WriteMultipleCoilsResponseTCP, error) {
	req, err := packet.NewWriteMultipleCoilsRequestTCP(unitID, startAddress, coils)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	r, ok := resp.(*packet.WriteMultipleCoilsResponseTCP)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}
	return r, nil
}

// WriteMultipleRegisters sends Write Multiple Registers (FC=16) request over Modbus TCP and returns the parsed response.
// NB: data must be in BigEndian byte order for server to interpret them correctly.
func (c *Client) WriteMultipleRegisters(ctx context.Context, unitID uint8, startAddress uint16, data []byte) (*packet.WriteMultipleRegistersResponseTCP, error) {
	req, err := packet.NewWriteMultipleRegistersRequestTCP(unitID, startAddress, data)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	r, ok := resp.(*packet.WriteMultipleRegistersResponseTCP)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}
	return r, nil
}

// ReportSlaveID sends Read Server ID (FC=17) request over Modbus TCP and returns the parsed response.
func (c *Client) ReportSlaveID(ctx context.Context, unitID uint8) (*packet.ReadServerIDResponseTCP, error) {
	req, err := packet.NewReadServerIDRequestTCP(unitID)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	r, ok := resp.(*packet.ReadServerIDResponseTCP)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}
	return r, nil
}
