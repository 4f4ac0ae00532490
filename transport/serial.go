package transport

import (
	"context"
	"sync"
	"time"

	"github.com/tarm/serial"
)

// SerialConfig mirrors the RTU line settings a Modbus slave device needs (§6): port name, baud
// rate, and the data/parity/stop-bit framing. It is kept separate from serial.Config so callers
// don't need to import tarm/serial directly to configure a SerialTransport.
type SerialConfig struct {
	Name        string
	Baud        int
	DataBits    int
	Parity      serial.Parity
	StopBits    serial.StopBits
	ReadTimeout time.Duration
}

func (c SerialConfig) toLibConfig() *serial.Config {
	dataBits := c.DataBits
	if dataBits == 0 {
		dataBits = 8
	}
	parity := c.Parity
	if parity == 0 {
		parity = serial.ParityNone
	}
	return &serial.Config{
		Name:        c.Name,
		Baud:        c.Baud,
		Size:        byte(dataBits),
		Parity:      parity,
		StopBits:    c.StopBits,
		ReadTimeout: c.ReadTimeout,
	}
}

// SerialTransport is a Transport over a serial line, wrapping github.com/tarm/serial. Reconnect
// re-opens the port with the exact settings captured at construction time, restoring "previous
// line settings" (§3 Data model) since the package does not expose raw termios to snapshot/restore
// directly.
type SerialTransport struct {
	cfg     SerialConfig
	errMode ErrorMode

	mu   sync.Mutex
	port *serial.Port
}

// OpenSerial opens the serial port described by cfg.
func OpenSerial(cfg SerialConfig, errMode ErrorMode) (*SerialTransport, error) {
	t := &SerialTransport{cfg: cfg, errMode: errMode}
	if err := t.open(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *SerialTransport) open() error {
	port, err := serial.OpenPort(t.cfg.toLibConfig())
	if err != nil {
		return err
	}
	t.port = port
	return nil
}

// Send writes a full frame to the serial port.
func (t *SerialTransport) Send(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.port.Write(data)
	return t.handleErr(err)
}

// Recv reads whatever bytes are currently available. ctx cancellation is best-effort: the
// underlying port's ReadTimeout (set at open time) is what actually bounds the blocking Read call,
// since tarm/serial has no per-call deadline or cancellation hook.
func (t *SerialTransport) Recv(ctx context.Context, buf []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, err := t.port.Read(buf)
	return n, t.handleErr(err)
}

func (t *SerialTransport) handleErr(err error) error {
	if err == nil || t.errMode != ReconnectOnError {
		return err
	}
	if rErr := t.reopen(); rErr != nil {
		return err
	}
	return err
}

func (t *SerialTransport) reopen() error {
	if t.port != nil {
		_ = t.port.Close()
	}
	return t.open()
}

// Flush discards unread/unwritten bytes buffered by the serial driver.
func (t *SerialTransport) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return nil
	}
	return t.port.Flush()
}

// Close closes the serial port.
func (t *SerialTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return nil
	}
	return t.port.Close()
}

// Reconnect closes and re-opens the port with the original SerialConfig.
func (t *SerialTransport) Reconnect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reopen()
}

// Port exposes the underlying io.ReadWriteCloser, e.g. to plug into modbus.NewSerialClient.
func (t *SerialTransport) Port() *serial.Port {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port
}
