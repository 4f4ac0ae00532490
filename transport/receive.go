package transport

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/go-industrial/modbus/packet"
)

// ErrReceiveTimeout is returned by ReadKnownLength when no complete frame arrives before the
// end-of-frame deadline expires.
var ErrReceiveTimeout = errors.New("transport: timed out waiting for complete frame")

// DeadlineReader is the subset of net.Conn / serial.Port that ReadKnownLength needs: a Read that
// can be bounded by a rolling per-call deadline.
type DeadlineReader interface {
	io.Reader
	SetReadDeadline(t time.Time) error
}

// ReadKnownLength reads from r until exactly expectedLen bytes have arrived. tBegin bounds the
// wait for the first byte of the frame; tEnd bounds the wait for every byte after that, mirroring
// the classic TIME_OUT_BEGIN_OF_TRAME / TIME_OUT_END_OF_TRAME split a serial-line master uses to
// tell "nobody is answering" apart from "the reply is still arriving". If r reports io.EOF before
// the frame is complete, the bytes read so far are returned with a nil error (ErrReceiveTimeout
// when none arrived). This is the master-side
// read loop factored out of Client.do/SerialClient.do so it can be tested without a real socket;
// the two callers keep their own inline read loops (see DESIGN.md) and this is used directly by
// tests and by any future Transport-based client path.
func ReadKnownLength(ctx context.Context, r DeadlineReader, buf []byte, expectedLen int, tBegin, tEnd time.Duration, now func() time.Time) (int, error) {
	total := 0
	wait := tBegin
	for total < expectedLen {
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		default:
		}

		_ = r.SetReadDeadline(now().Add(wait))
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || isTimeoutErr(err) {
				if total < expectedLen {
					return total, ErrReceiveTimeout
				}
				break
			}
			if errors.Is(err, io.EOF) {
				break
			}
			return total, err
		}
		wait = tEnd
	}
	if total == 0 {
		return 0, ErrReceiveTimeout
	}
	return total, nil
}

func isTimeoutErr(err error) bool {
	type timeouter interface{ Timeout() bool }
	te, ok := err.(timeouter)
	return ok && te.Timeout()
}

// RTUFrameLength computes the total number of bytes (unit id + function code + data + CRC16) that
// make up the next RTU frame given the bytes collected so far, reporting ok=false when not enough
// bytes have arrived yet to know that length. This is the FUNCTION/BYTE/COMPLETE state walk from a
// serial-line receive loop, expressed as a pure function so a server can drive it incrementally off
// whatever chunks its Read calls happen to return rather than owning a state machine goroutine.
func RTUFrameLength(data []byte) (length int, ok bool) {
	if len(data) < 2 {
		return 0, false
	}
	const crcLen = 2
	switch data[1] {
	case packet.FunctionReadCoils, packet.FunctionReadDiscreteInputs,
		packet.FunctionReadHoldingRegisters, packet.FunctionReadInputRegisters,
		packet.FunctionWriteSingleCoil, packet.FunctionWriteSingleRegister:
		return 2 + 4 + crcLen, true
	case packet.FunctionReadExceptionStatus, packet.FunctionReadServerID:
		return 2 + crcLen, true
	case packet.FunctionWriteMultipleCoils, packet.FunctionWriteMultipleRegisters:
		const header = 2 + 4 // unit id + function code + start address + count
		if len(data) < header+1 {
			return 0, false // byte count field hasn't arrived yet
		}
		byteCount := int(data[header])
		return header + 1 + byteCount + crcLen, true
	default:
		// unknown function code: let the caller's packet parser surface the error once the
		// minimal frame is in rather than blocking forever on an unrecognized code.
		return 2 + crcLen, true
	}
}
