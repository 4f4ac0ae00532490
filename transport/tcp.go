package transport

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// IPTOSLowDelay is the IPTOS_LOWDELAY type-of-service value (RFC 1349), the recommended setting
// for interactive Modbus TCP traffic per §6 of the Modbus TCP guidance.
const IPTOSLowDelay = 0x10

// TCPOption configures a TCPTransport at dial time.
type TCPOption func(*TCPTransport)

// WithDialTimeout bounds how long Dial/Reconnect waits to establish the TCP connection.
func WithDialTimeout(d time.Duration) TCPOption {
	return func(t *TCPTransport) { t.dialTimeout = d }
}

// WithKeepAlive sets the interval between TCP keep-alive probes. Zero disables keep-alives.
func WithKeepAlive(d time.Duration) TCPOption {
	return func(t *TCPTransport) { t.keepAlive = d }
}

// WithNoDelay toggles TCP_NODELAY (enabled by default, matching Modbus TCP's request/response
// turnaround needs where Nagle's algorithm only adds latency).
func WithNoDelay(enabled bool) TCPOption {
	return func(t *TCPTransport) { t.noDelay = enabled }
}

// WithTOS sets the IP type-of-service byte on the socket (see IPTOSLowDelay). Zero leaves the OS default.
func WithTOS(tos byte) TCPOption {
	return func(t *TCPTransport) { t.tos = tos }
}

// WithErrorMode selects whether Send/Recv transparently reconnect on a transport error.
func WithErrorMode(mode ErrorMode) TCPOption {
	return func(t *TCPTransport) { t.errMode = mode }
}

// TCPTransport is a Transport over a TCP socket, grounded on Client's inline net.Dial handling in
// client.go but hoisted out so socket options (TCP_NODELAY, IP_TOS) and reconnect policy have a
// single place to live instead of being repeated by every caller that wants them.
type TCPTransport struct {
	address     string
	dialTimeout time.Duration
	keepAlive   time.Duration
	noDelay     bool
	tos         byte
	errMode     ErrorMode

	mu   sync.Mutex
	conn *net.TCPConn
}

// DialTCP connects to address (host:port) and returns a ready TCPTransport.
func DialTCP(ctx context.Context, address string, opts ...TCPOption) (*TCPTransport, error) {
	t := &TCPTransport{
		address:     address,
		dialTimeout: 1 * time.Second,
		keepAlive:   15 * time.Second,
		noDelay:     true,
	}
	for _, o := range opts {
		o(t)
	}
	if err := t.connect(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *TCPTransport) connect(ctx context.Context) error {
	dialer := &net.Dialer{
		Timeout:   t.dialTimeout,
		KeepAlive: t.keepAlive,
	}
	conn, err := dialer.DialContext(ctx, "tcp", t.address)
	if err != nil {
		return err
	}
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		_ = conn.Close()
		return errors.New("transport: dialed connection is not a TCP connection")
	}
	if t.noDelay {
		if err := tcpConn.SetNoDelay(true); err != nil {
			_ = tcpConn.Close()
			return err
		}
	}
	if t.tos != 0 {
		if err := setTOS(tcpConn, t.tos); err != nil {
			_ = tcpConn.Close()
			return err
		}
	}
	t.conn = tcpConn
	return nil
}

// setTOS sets IP_TOS on the connection's underlying file descriptor. net.TCPConn has no portable
// exported method for socket-level options beyond NoDelay/KeepAlive/Linger, so this reaches one
// layer below via SyscallConn, the same way every socket-option-tuning Go TCP server does it.
func setTOS(conn *net.TCPConn, tos byte) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	if err := raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptByte(int(fd), unix.IPPROTO_IP, unix.IP_TOS, tos)
	}); err != nil {
		return err
	}
	return sockErr
}

// Send writes a full frame to the socket.
func (t *TCPTransport) Send(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.conn.Write(data)
	return t.handleErr(err)
}

// Recv reads whatever bytes are available, bounded by ctx's deadline if it has one.
func (t *TCPTransport) Recv(ctx context.Context, buf []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if deadline, ok := ctx.Deadline(); ok {
		_ = t.conn.SetReadDeadline(deadline)
	}
	n, err := t.conn.Read(buf)
	return n, t.handleErr(err)
}

func (t *TCPTransport) handleErr(err error) error {
	if err == nil || t.errMode != ReconnectOnError {
		return err
	}
	if rErr := t.connect(context.Background()); rErr != nil {
		return errors.Join(err, rErr)
	}
	return err
}

// Flush is a no-op for TCP: the kernel socket buffer has no concept of a discardable queue the
// way a serial line's UART FIFO does.
func (t *TCPTransport) Flush() error { return nil }

// Close closes the underlying TCP connection.
func (t *TCPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	return t.conn.Close()
}

// Reconnect closes the current connection, if any, and redials using the original options.
func (t *TCPTransport) Reconnect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		_ = t.conn.Close()
	}
	return t.connect(ctx)
}

// Conn exposes the underlying net.Conn, e.g. to plug into modbus.ClientConfig.DialContextFunc.
func (t *TCPTransport) Conn() net.Conn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn
}
