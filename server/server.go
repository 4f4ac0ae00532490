package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-industrial/modbus/packet"
)

const (
	readTimeout  = 5 * time.Millisecond
	writeTimeout = 50 * time.Millisecond
	idleTimeout  = 25 * time.Second
)

var (
	// ErrServerClosed is returned when server context is ended (by shutdown)
	ErrServerClosed = errors.New("modbus server closed")
	// ErrServerIdleTimeout is returned when server closes connection that has been idle too long
	ErrServerIdleTimeout = errors.New("modbus server closed idle connection")
)

// PacketAssembler is called when server reads data from client connection. Is responsible for assembling data read
// from the connection to whole modbus packet.
//
// return with closeConnection=true when you are done sending and want to close connection
type PacketAssembler interface {
	ReceiveRead(ctx context.Context, received []byte, bytesRead int) (response []byte, closeConnection bool)
}

// RawReadTracer is PacketAssembler optional interface that is called for each Read from connection to allow tracing read results
type RawReadTracer interface {
	Read(data []byte, n int, err error)
}

// ModbusHandler calls Handle method when it has received enough data to be parsed into Modbus packet.
type ModbusHandler interface {
	Handle(ctx context.Context, received packet.Request) (packet.Response, error)
}

// Server is a single-connection Modbus TCP server: a fieldbus slave device only ever talks to one
// master at a time, so the accept loop serves one peer to completion before accepting the next.
//
// Public fields are not designed to be goroutine safe. Do not mutate after server has been started
type Server struct {
	mu         sync.RWMutex
	listener   net.Listener // for simplicity, we only allow serving one listener
	isShutdown atomic.Bool
	current    *connection

	// WriteTimeout is amount of time writing the request can take after it errors out
	WriteTimeout time.Duration
	// ReadTimeout is amount of time reading the response can take
	ReadTimeout time.Duration

	// AssemblerCreatorFunc creates Assembler for the active connection to assemble different read byte
	// fragments into complete modbus packet. Could have different implementations for TCP or RTU packets
	AssemblerCreatorFunc func(handler ModbusHandler) PacketAssembler

	// OnServeFunc allows capturing listener address just before server starts to accepting connections. This is useful
	// for testing when listener is started with random port `:0`.
	OnServeFunc func(addr net.Addr)

	// Logger is used for connection lifecycle diagnostics. Defaults to slog.Default().
	Logger *slog.Logger

	OnErrorFunc func(err error)

	// OnAcceptConnFunc is called when server accepts a new connection. When method returns an error the
	// connection will be rejected and the listener keeps waiting for the next peer.
	OnAcceptConnFunc func(ctx context.Context, remoteAddr net.Addr) error

	// OnCloseConnFunc is called when the active connection ends. isServerShutdown indicates if method is
	// called at server shutdown.
	OnCloseConnFunc func(ctx context.Context, remoteAddr net.Addr, isServerShutdown bool)
}

type connection struct {
	conn           net.Conn
	isBeingHandled atomic.Bool
	assembler      PacketAssembler

	writeTimeout time.Duration
	readTimeout  time.Duration

	onErrorFunc func(error)
}

// ListenAndServe starts accepting connections on given address and handles received data with handler function.
// Method blocks until context is cancelled. Only one peer is served at a time; once that peer disconnects the
// listener accepts the next one.
func (s *Server) ListenAndServe(ctx context.Context, address string, handler ModbusHandler) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("modbus listener creation error: %w", err)
	}
	return s.serve(ctx, listener, handler)
}

// Serve accepts connections from listener and handles received data with handler function.
// Method blocks until context is cancelled
func (s *Server) Serve(ctx context.Context, listener net.Listener, handler ModbusHandler) error {
	return s.serve(ctx, listener, handler)
}

// ContextRemoteAddr is context.Context value containing clients remote address
type ContextRemoteAddr struct{}

func (s *Server) serve(ctx context.Context, listener net.Listener, handler ModbusHandler) error {
	if s.AssemblerCreatorFunc == nil {
		s.AssemblerCreatorFunc = func(handler ModbusHandler) PacketAssembler {
			return &ModbusTCPAssembler{Handler: handler}
		}
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	onErrorFunc := s.OnErrorFunc
	if onErrorFunc == nil {
		onErrorFunc = func(err error) {
			logger.Error("modbus server connection error", "error", err)
		}
	}
	if s.OnServeFunc != nil {
		// when listener is started with ":0" (random port) this will be helpful knowing where to connect
		// and if server is listening already
		s.OnServeFunc(listener.Addr())
	}

	s.listener = listener
	l := onceCloseListener{Listener: listener}
	defer l.Close()

	for {
		netConn, err := l.Accept()
		if err != nil {
			if s.isShutdown.Load() {
				return ErrServerClosed
			}
			return err
		}

		if s.OnAcceptConnFunc != nil {
			if err := s.OnAcceptConnFunc(ctx, netConn.RemoteAddr()); err != nil {
				onErrorFunc(fmt.Errorf("connection rejected, err: %w", err))
				if err := netConn.Close(); err != nil {
					onErrorFunc(fmt.Errorf("connection.close error, err: %w", err))
				}
				continue
			}
		}

		select {
		case <-ctx.Done():
			_ = netConn.Close()
			return ErrServerClosed
		default:
		}

		logger.Info("modbus server accepted connection", "remote_addr", netConn.RemoteAddr())
		cCtx := context.WithValue(ctx, ContextRemoteAddr{}, netConn.RemoteAddr())
		c := &connection{
			conn:         netConn,
			assembler:    s.AssemblerCreatorFunc(handler),
			writeTimeout: s.WriteTimeout,
			readTimeout:  s.ReadTimeout,
			onErrorFunc:  onErrorFunc,
		}
		s.setCurrent(c)
		c.handle(cCtx)
		if err := netConn.Close(); err != nil {
			onErrorFunc(fmt.Errorf("failed to close handler connection, err: %w", err))
		}
		s.setCurrent(nil)
		if s.OnCloseConnFunc != nil {
			s.OnCloseConnFunc(cCtx, netConn.RemoteAddr(), s.isShutdown.Load())
		}
		logger.Info("modbus server closed connection", "remote_addr", netConn.RemoteAddr())

		select {
		case <-ctx.Done():
			return ErrServerClosed
		default:
		}
	}
}

type onceCloseListener struct {
	net.Listener
	once     sync.Once
	closeErr error
}

func (oc *onceCloseListener) Close() error {
	oc.once.Do(oc.close)
	return oc.closeErr
}

func (oc *onceCloseListener) close() {
	oc.closeErr = oc.Listener.Close()
}

func (s *Server) setCurrent(c *connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = c
}

func (c *connection) handle(ctx context.Context) {
	cCtx, cCancel := context.WithCancel(ctx)
	defer cCancel()

	rTimeout := readTimeout
	if c.readTimeout > 0 {
		rTimeout = c.readTimeout
	}
	wTimeout := writeTimeout
	if c.writeTimeout > 0 {
		wTimeout = c.writeTimeout
	}

	rrt, debugRawRead := c.assembler.(RawReadTracer)
	conn := c.conn
	lastReceived := time.Now()
	received := make([]byte, 300)
	for {
		select {
		case <-cCtx.Done():
			return
		default:
		}

		_ = conn.SetReadDeadline(time.Now().Add(rTimeout))
		n, err := conn.Read(received)
		if debugRawRead {
			rrt.Read(received[0:n], n, err)
		}
		if err != nil && !errors.Is(err, os.ErrDeadlineExceeded) {
			if !errors.Is(err, io.EOF) {
				c.onErrorFunc(err)
			}
			return // when read fails due some unknown error we close connection
		}
		if n > 0 {
			lastReceived = time.Now()
		} else if time.Since(lastReceived) > idleTimeout {
			c.onErrorFunc(ErrServerIdleTimeout)
			return // close idle connection
		} else {
			continue // nothing read and not idle yet
		}

		c.isBeingHandled.Store(true)
		toSend, closeConn := c.assembler.ReceiveRead(cCtx, received[0:n], n)
		if toSend != nil {
			_ = conn.SetWriteDeadline(time.Now().Add(wTimeout))
			if _, err := conn.Write(toSend); err != nil {
				c.onErrorFunc(err)
				return // when write fails to client we close connection
			}
		}
		c.isBeingHandled.Store(false)
		if closeConn {
			return
		}
	}
}

// Addr returns currently running server address
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listener.Addr()
}

// Shutdown gracefully shuts down the server without interrupting the active connection, if any.
// Works similarly as `http.Server.Shutdown()`
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.isShutdown.Store(true)
	err := s.listener.Close()
	s.mu.Unlock()

	timer := time.NewTimer(50 * time.Millisecond)
	defer timer.Stop()
	for {
		s.mu.RLock()
		c := s.current
		s.mu.RUnlock()
		if c == nil || !c.isBeingHandled.Load() {
			if c != nil {
				_ = c.conn.Close()
			}
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			timer.Reset(50 * time.Millisecond)
		}
	}
}
