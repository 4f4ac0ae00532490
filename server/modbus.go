package server

import (
	"bytes"
	"context"
	"errors"

	"github.com/go-industrial/modbus/packet"
	"github.com/go-industrial/modbus/transport"
)

// ModbusTCPAssembler assembles read data into complete Modbus TCP packets and calls ModbusHandler with assembled packet
type ModbusTCPAssembler struct {
	Handler  ModbusHandler
	received bytes.Buffer
}

// ReceiveRead assembles read bytes until a full TCP packet is formed or returns an error when received data does not look like a TCP packet
func (m *ModbusTCPAssembler) ReceiveRead(ctx context.Context, received []byte, bytesRead int) (response []byte, closeConnection bool) {
	m.received.Write(received)

	n, err := packet.LooksLikeModbusTCP(m.received.Bytes(), false)
	if err == packet.ErrTCPDataTooShort {
		return nil, false // wait for more data to arrive
	} else if err != nil {
		return asTCPErrorBytes(err), false
	}

	p, err := packet.ParseTCPRequest(m.received.Next(n))
	if err != nil {
		return asTCPErrorBytes(err), false
	}

	resp, err := m.Handler.Handle(ctx, p)
	if err != nil {
		return asTCPErrorBytes(err), false
	}

	return resp.Bytes(), false
}

// asTCPErrorBytes converts any error returned by a packet parser or ModbusHandler into a
// well-formed Modbus TCP exception response. Not every packet parser returns *ErrorParseTCP on
// invalid-but-well-formed input (some validation failures are plain errors), so this always goes
// through errors.As rather than a direct type assertion, falling back to ErrUnknown for errors
// that carry no packet-level exception code.
func asTCPErrorBytes(err error) []byte {
	var target *packet.ErrorParseTCP
	if errors.As(err, &target) {
		return target.Bytes()
	}
	return packet.NewErrorParseTCP(packet.ErrUnknown, err.Error()).Bytes()
}

// ModbusRTUAssembler assembles read data into complete Modbus RTU packets and calls ModbusHandler with assembled packet.
//
// Unlike TCP, RTU frames carry no length field so the expected frame length is computed progressively from the
// function code (and, for the multiple-write functions, the byte count field), mirroring the FUNCTION/BYTE/COMPLETE
// state walk of a traditional serial-line master/slave receive loop.
type ModbusRTUAssembler struct {
	Handler  ModbusHandler
	received bytes.Buffer
}

// ReceiveRead assembles read bytes until a full RTU packet (including its trailing CRC) is formed.
func (m *ModbusRTUAssembler) ReceiveRead(ctx context.Context, received []byte, bytesRead int) (response []byte, closeConnection bool) {
	m.received.Write(received)

	frameLen, ok := transport.RTUFrameLength(m.received.Bytes())
	if !ok {
		return nil, false // wait for more data to arrive
	}
	if m.received.Len() < frameLen {
		return nil, false
	}

	p, err := packet.ParseRTURequestWithCRC(m.received.Next(frameLen))
	if err != nil {
		var target *packet.ErrorParseRTU
		if errors.As(err, &target) {
			return target.Bytes(), false
		}
		return nil, false // bad CRC or noise on the line, drop silently and wait for the next frame
	}

	resp, err := m.Handler.Handle(ctx, p)
	if err != nil {
		var target *packet.ErrorParseRTU
		if errors.As(err, &target) {
			return target.Bytes(), false
		}
		return nil, false
	}

	return resp.Bytes(), false
}
