package packet

import (
	"encoding/binary"
	"errors"
)

// ReadExceptionStatusResponseTCP is TCP Response for Read Exception Status (FC=07) 0x07
//
// Example packet: 0x81 0x80 0x00 0x00 0x00 0x03 0x10 0x07 0x6c
// 0x81 0x80 - transaction id (0,1)
// 0x00 0x00 - protocol id (2,3)
// 0x00 0x03 - number of bytes in the message (PDU = ProtocolDataUnit) to follow (4,5)
// 0x10 - unit id (6)
// 0x07 - function code (7)
// 0x6c - exception status byte, one bit per condition on the device (8)
type ReadExceptionStatusResponseTCP struct {
	MBAPHeader
	ReadExceptionStatusResponse
}

// ReadExceptionStatusResponseRTU is RTU Response for Read Exception Status (FC=07) 0x07
//
// Example packet: 0x10 0x07 0x6c 0x72 0x18
// 0x10 - unit id (0)
// 0x07 - function code (1)
// 0x6c - exception status byte (2)
// 0x72 0x18 - CRC16 (3,4)
type ReadExceptionStatusResponseRTU struct {
	ReadExceptionStatusResponse
}

// ReadExceptionStatusResponse is Response for Read Exception Status (FC=07) 0x07
type ReadExceptionStatusResponse struct {
	UnitID uint8
	Status uint8
}

// Bytes returns ReadExceptionStatusResponseTCP packet as bytes form
func (r ReadExceptionStatusResponseTCP) Bytes() []byte {
	length := uint16(3)
	result := make([]byte, tcpMBAPHeaderLen+int(length))
	r.MBAPHeader.bytes(result[0:6], length)
	r.ReadExceptionStatusResponse.bytes(result[6:])
	return result
}

// ParseReadExceptionStatusResponseTCP parses given bytes into ReadExceptionStatusResponseTCP
func ParseReadExceptionStatusResponseTCP(data []byte) (*ReadExceptionStatusResponseTCP, error) {
	dLen := len(data)
	if dLen != 9 {
		return nil, errors.New("received data length does not match Read Exception Status response length")
	}
	return &ReadExceptionStatusResponseTCP{
		MBAPHeader: MBAPHeader{
			TransactionID: binary.BigEndian.Uint16(data[0:2]),
			ProtocolID:    0,
		},
		ReadExceptionStatusResponse: ReadExceptionStatusResponse{
			UnitID: data[6],
			// function code = data[7]
			Status: data[8],
		},
	}, nil
}

// Bytes returns ReadExceptionStatusResponseRTU packet as bytes form
func (r ReadExceptionStatusResponseRTU) Bytes() []byte {
	result := make([]byte, 3+2)
	bytes := r.ReadExceptionStatusResponse.bytes(result)
	crc := CRC16(bytes[:3])
	result[3] = uint8(crc)
	result[4] = uint8(crc >> 8)
	return result
}

// ParseReadExceptionStatusResponseRTU parses given bytes into ReadExceptionStatusResponseRTU
func ParseReadExceptionStatusResponseRTU(data []byte) (*ReadExceptionStatusResponseRTU, error) {
	dLen := len(data)
	if dLen != 5 && dLen != 3 { // with or without CRC bytes
		return nil, errors.New("received data length does not match Read Exception Status response length")
	}
	return &ReadExceptionStatusResponseRTU{
		ReadExceptionStatusResponse: ReadExceptionStatusResponse{
			UnitID: data[0],
			// function code = data[1]
			Status: data[2],
		},
	}, nil
}

// FunctionCode returns function code of this request
func (r ReadExceptionStatusResponse) FunctionCode() uint8 {
	return FunctionReadExceptionStatus
}

// Bytes returns ReadExceptionStatusResponse packet as bytes form
func (r ReadExceptionStatusResponse) Bytes() []byte {
	return r.bytes(make([]byte, 3))
}

func (r ReadExceptionStatusResponse) bytes(data []byte) []byte {
	data[0] = r.UnitID
	data[1] = FunctionReadExceptionStatus
	data[2] = r.Status
	return data
}

// IsConditionSet checks if N-th exception condition bit is set in the status byte (bits 0-7).
func (r ReadExceptionStatusResponse) IsConditionSet(bit uint8) bool {
	return r.Status&(1<<bit) != 0
}
