// Package transport provides the network/serial plumbing shared by the Modbus master and
// slave sides: dialing/opening the wire, a known-length frame receive loop, an RTU frame-length
// helper, and the socket-option tuning TCP masters and slaves both want (TCP_NODELAY, IP_TOS).
package transport

import "context"

// ErrorMode controls what Send/Recv do when the underlying connection reports an error.
type ErrorMode int

const (
	// NopOnError returns the error as-is and leaves reconnecting to the caller.
	NopOnError ErrorMode = iota
	// ReconnectOnError closes and re-opens the connection after a failed Send/Recv and then
	// returns the original error; the failed operation itself is not retried.
	ReconnectOnError
)

// Transport is the minimal capability set a Modbus master/slave endpoint needs from its wire,
// independent of whether that wire is a TCP socket or a serial line.
type Transport interface {
	// Send writes a full request/response frame.
	Send(data []byte) error
	// Recv reads whatever bytes are currently available into buf, blocking at most until ctx is done.
	Recv(ctx context.Context, buf []byte) (int, error)
	// Flush discards any unread/unwritten buffered bytes. No-op for transports that don't buffer.
	Flush() error
	// Close releases the underlying connection.
	Close() error
	// Reconnect tears down and re-establishes the underlying connection using the settings
	// captured at construction time.
	Reconnect(ctx context.Context) error
}
