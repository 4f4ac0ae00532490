package server

import (
	"context"
	"fmt"

	"github.com/go-industrial/modbus/packet"
)

// Dispatcher implements ModbusHandler against a DataMap: it type-switches on the parsed request,
// applies the address-range and write-atomicity checks, and builds the matching response. Grounded
// on teacher's ModbusTCPAssembler/ModbusHandler split plus original_source's manage_query switch on
// function code, generalized to also implement the write functions and exception status/server id
// replies that manage_query leaves as "Not implemented".
type Dispatcher struct {
	Data *DataMap
	// ServerID is returned verbatim by ReadServerID responses, grounded on original_source's
	// report_slave_id.
	ServerID []byte
	// RunStatus is the "is running" byte returned by ReadServerID (0xFF running, 0x00 stopped).
	RunStatus uint8
}

// Handle builds the response for req against d.Data, or a *packet.ErrorParseTCP/*packet.ErrorParseRTU
// carrying a Modbus exception code when the request falls outside the mapped address ranges.
func (d *Dispatcher) Handle(ctx context.Context, req packet.Request) (packet.Response, error) {
	switch r := req.(type) {
	case *packet.ReadCoilsRequestTCP:
		data, ok := d.Data.ReadCoils(r.StartAddress, r.Quantity)
		if !ok {
			return nil, illegalAddressTCP(r.MBAPHeader.TransactionID, r.UnitID, r.FunctionCode())
		}
		bits := packBits(data)
		return &packet.ReadCoilsResponseTCP{
			MBAPHeader:        r.MBAPHeader,
			ReadCoilsResponse: packet.ReadCoilsResponse{UnitID: r.UnitID, CoilsByteLength: uint8(len(bits)), Data: bits},
		}, nil
	case *packet.ReadCoilsRequestRTU:
		data, ok := d.Data.ReadCoils(r.StartAddress, r.Quantity)
		if !ok {
			return nil, illegalAddressRTU(r.UnitID, r.FunctionCode())
		}
		bits := packBits(data)
		return &packet.ReadCoilsResponseRTU{
			ReadCoilsResponse: packet.ReadCoilsResponse{UnitID: r.UnitID, CoilsByteLength: uint8(len(bits)), Data: bits},
		}, nil

	case *packet.ReadDiscreteInputsRequestTCP:
		data, ok := d.Data.ReadDiscreteInputs(r.StartAddress, r.Quantity)
		if !ok {
			return nil, illegalAddressTCP(r.MBAPHeader.TransactionID, r.UnitID, r.FunctionCode())
		}
		bits := packBits(data)
		return &packet.ReadDiscreteInputsResponseTCP{
			MBAPHeader:                 r.MBAPHeader,
			ReadDiscreteInputsResponse: packet.ReadDiscreteInputsResponse{UnitID: r.UnitID, InputsByteLength: uint8(len(bits)), Data: bits},
		}, nil
	case *packet.ReadDiscreteInputsRequestRTU:
		data, ok := d.Data.ReadDiscreteInputs(r.StartAddress, r.Quantity)
		if !ok {
			return nil, illegalAddressRTU(r.UnitID, r.FunctionCode())
		}
		bits := packBits(data)
		return &packet.ReadDiscreteInputsResponseRTU{
			ReadDiscreteInputsResponse: packet.ReadDiscreteInputsResponse{UnitID: r.UnitID, InputsByteLength: uint8(len(bits)), Data: bits},
		}, nil

	case *packet.ReadHoldingRegistersRequestTCP:
		regs, ok := d.Data.ReadHoldingRegisters(r.StartAddress, r.Quantity)
		if !ok {
			return nil, illegalAddressTCP(r.MBAPHeader.TransactionID, r.UnitID, r.FunctionCode())
		}
		regBytes := registersToBytes(regs)
		return &packet.ReadHoldingRegistersResponseTCP{
			MBAPHeader:                   r.MBAPHeader,
			ReadHoldingRegistersResponse: packet.ReadHoldingRegistersResponse{UnitID: r.UnitID, RegisterByteLen: uint8(len(regBytes)), Data: regBytes},
		}, nil
	case *packet.ReadHoldingRegistersRequestRTU:
		regs, ok := d.Data.ReadHoldingRegisters(r.StartAddress, r.Quantity)
		if !ok {
			return nil, illegalAddressRTU(r.UnitID, r.FunctionCode())
		}
		regBytes := registersToBytes(regs)
		return &packet.ReadHoldingRegistersResponseRTU{
			ReadHoldingRegistersResponse: packet.ReadHoldingRegistersResponse{UnitID: r.UnitID, RegisterByteLen: uint8(len(regBytes)), Data: regBytes},
		}, nil

	case *packet.ReadInputRegistersRequestTCP:
		regs, ok := d.Data.ReadInputRegisters(r.StartAddress, r.Quantity)
		if !ok {
			return nil, illegalAddressTCP(r.MBAPHeader.TransactionID, r.UnitID, r.FunctionCode())
		}
		regBytes := registersToBytes(regs)
		return &packet.ReadInputRegistersResponseTCP{
			MBAPHeader:                 r.MBAPHeader,
			ReadInputRegistersResponse: packet.ReadInputRegistersResponse{UnitID: r.UnitID, RegisterByteLen: uint8(len(regBytes)), Data: regBytes},
		}, nil
	case *packet.ReadInputRegistersRequestRTU:
		regs, ok := d.Data.ReadInputRegisters(r.StartAddress, r.Quantity)
		if !ok {
			return nil, illegalAddressRTU(r.UnitID, r.FunctionCode())
		}
		regBytes := registersToBytes(regs)
		return &packet.ReadInputRegistersResponseRTU{
			ReadInputRegistersResponse: packet.ReadInputRegistersResponse{UnitID: r.UnitID, RegisterByteLen: uint8(len(regBytes)), Data: regBytes},
		}, nil

	case *packet.WriteSingleCoilRequestTCP:
		if !d.Data.WriteSingleCoil(r.Address, r.CoilState) {
			return nil, illegalAddressTCP(r.MBAPHeader.TransactionID, r.UnitID, r.FunctionCode())
		}
		return &packet.WriteSingleCoilResponseTCP{
			MBAPHeader: r.MBAPHeader,
			WriteSingleCoilResponse: packet.WriteSingleCoilResponse{
				UnitID: r.UnitID, StartAddress: r.Address, CoilState: r.CoilState,
			},
		}, nil
	case *packet.WriteSingleCoilRequestRTU:
		if !d.Data.WriteSingleCoil(r.Address, r.CoilState) {
			return nil, illegalAddressRTU(r.UnitID, r.FunctionCode())
		}
		return &packet.WriteSingleCoilResponseRTU{
			WriteSingleCoilResponse: packet.WriteSingleCoilResponse{
				UnitID: r.UnitID, StartAddress: r.Address, CoilState: r.CoilState,
			},
		}, nil

	case *packet.WriteSingleRegisterRequestTCP:
		value := uint16(r.Data[0])<<8 | uint16(r.Data[1])
		if !d.Data.WriteSingleRegister(r.Address, value) {
			return nil, illegalAddressTCP(r.MBAPHeader.TransactionID, r.UnitID, r.FunctionCode())
		}
		return &packet.WriteSingleRegisterResponseTCP{
			MBAPHeader:                    r.MBAPHeader,
			WriteSingleRegisterResponse: packet.WriteSingleRegisterResponse{UnitID: r.UnitID, Address: r.Address, Data: r.Data},
		}, nil
	case *packet.WriteSingleRegisterRequestRTU:
		value := uint16(r.Data[0])<<8 | uint16(r.Data[1])
		if !d.Data.WriteSingleRegister(r.Address, value) {
			return nil, illegalAddressRTU(r.UnitID, r.FunctionCode())
		}
		return &packet.WriteSingleRegisterResponseRTU{
			WriteSingleRegisterResponse: packet.WriteSingleRegisterResponse{UnitID: r.UnitID, Address: r.Address, Data: r.Data},
		}, nil

	case *packet.WriteMultipleCoilsRequestTCP:
		values := unpackBits(r.Data, int(r.CoilCount))
		if !d.Data.WriteMultipleCoils(r.StartAddress, values) {
			return nil, illegalAddressTCP(r.MBAPHeader.TransactionID, r.UnitID, r.FunctionCode())
		}
		return &packet.WriteMultipleCoilsResponseTCP{
			MBAPHeader: r.MBAPHeader,
			WriteMultipleCoilsResponse: packet.WriteMultipleCoilsResponse{
				UnitID: r.UnitID, StartAddress: r.StartAddress, CoilCount: r.CoilCount,
			},
		}, nil
	case *packet.WriteMultipleCoilsRequestRTU:
		values := unpackBits(r.Data, int(r.CoilCount))
		if !d.Data.WriteMultipleCoils(r.StartAddress, values) {
			return nil, illegalAddressRTU(r.UnitID, r.FunctionCode())
		}
		return &packet.WriteMultipleCoilsResponseRTU{
			WriteMultipleCoilsResponse: packet.WriteMultipleCoilsResponse{
				UnitID: r.UnitID, StartAddress: r.StartAddress, CoilCount: r.CoilCount,
			},
		}, nil

	case *packet.WriteMultipleRegistersRequestTCP:
		values := bytesToRegisters(r.Data)
		if !d.Data.WriteMultipleRegisters(r.StartAddress, values) {
			return nil, illegalAddressTCP(r.MBAPHeader.TransactionID, r.UnitID, r.FunctionCode())
		}
		return &packet.WriteMultipleRegistersResponseTCP{
			MBAPHeader: r.MBAPHeader,
			WriteMultipleRegistersResponse: packet.WriteMultipleRegistersResponse{
				UnitID: r.UnitID, StartAddress: r.StartAddress, RegisterCount: r.RegisterCount,
			},
		}, nil
	case *packet.WriteMultipleRegistersRequestRTU:
		values := bytesToRegisters(r.Data)
		if !d.Data.WriteMultipleRegisters(r.StartAddress, values) {
			return nil, illegalAddressRTU(r.UnitID, r.FunctionCode())
		}
		return &packet.WriteMultipleRegistersResponseRTU{
			WriteMultipleRegistersResponse: packet.WriteMultipleRegistersResponse{
				UnitID: r.UnitID, StartAddress: r.StartAddress, RegisterCount: r.RegisterCount,
			},
		}, nil

	case *packet.ReadExceptionStatusRequestTCP:
		return &packet.ReadExceptionStatusResponseTCP{
			MBAPHeader:                  r.MBAPHeader,
			ReadExceptionStatusResponse: packet.ReadExceptionStatusResponse{UnitID: r.UnitID, Status: d.RunStatus},
		}, nil
	case *packet.ReadExceptionStatusRequestRTU:
		return &packet.ReadExceptionStatusResponseRTU{
			ReadExceptionStatusResponse: packet.ReadExceptionStatusResponse{UnitID: r.UnitID, Status: d.RunStatus},
		}, nil

	case *packet.ReadServerIDRequestTCP:
		return &packet.ReadServerIDResponseTCP{
			MBAPHeader: r.MBAPHeader,
			ReadServerIDResponse: packet.ReadServerIDResponse{
				UnitID: r.UnitID, Status: d.RunStatus, ServerID: d.ServerID,
			},
		}, nil
	case *packet.ReadServerIDRequestRTU:
		return &packet.ReadServerIDResponseRTU{
			ReadServerIDResponse: packet.ReadServerIDResponse{
				UnitID: r.UnitID, Status: d.RunStatus, ServerID: d.ServerID,
			},
		}, nil
	// AdditionalData is intentionally left nil: original_source's report_slave_id does not emit any.

	default:
		return nil, fmt.Errorf("server: unsupported request type %T", req)
	}
}

func illegalAddressTCP(transactionID uint16, unitID, function uint8) error {
	err := packet.NewErrorParseTCP(packet.ErrIllegalDataAddress, "address range is outside the mapped data")
	err.Packet.TransactionID = transactionID
	err.Packet.UnitID = unitID
	err.Packet.Function = function
	return err
}

func illegalAddressRTU(unitID, function uint8) error {
	err := packet.NewErrorParseRTU(packet.ErrIllegalDataAddress, "address range is outside the mapped data")
	err.Packet.UnitID = unitID
	err.Packet.Function = function
	return err
}

func registersToBytes(regs []uint16) []byte {
	out := make([]byte, 2*len(regs))
	for i, v := range regs {
		out[2*i] = byte(v >> 8)
		out[2*i+1] = byte(v)
	}
	return out
}

func bytesToRegisters(data []byte) []uint16 {
	out := make([]uint16, len(data)/2)
	for i := range out {
		out[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return out
}
