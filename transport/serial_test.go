package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tarm/serial"
)

func TestSerialConfig_toLibConfig_defaults(t *testing.T) {
	cfg := SerialConfig{Name: "/dev/ttyUSB0", Baud: 19200}
	lib := cfg.toLibConfig()

	assert.Equal(t, "/dev/ttyUSB0", lib.Name)
	assert.Equal(t, 19200, lib.Baud)
	assert.Equal(t, byte(8), lib.Size)
	assert.Equal(t, serial.ParityNone, lib.Parity)
}

func TestSerialConfig_toLibConfig_explicit(t *testing.T) {
	cfg := SerialConfig{
		Name:     "/dev/ttyUSB1",
		Baud:     9600,
		DataBits: 7,
		Parity:   serial.ParityEven,
		StopBits: serial.Stop2,
	}
	lib := cfg.toLibConfig()

	assert.Equal(t, byte(7), lib.Size)
	assert.Equal(t, serial.ParityEven, lib.Parity)
	assert.Equal(t, serial.Stop2, lib.StopBits)
}

func TestSerialTransport_Flush_Close_withoutOpenPort(t *testing.T) {
	tr := &SerialTransport{}
	assert.NoError(t, tr.Flush())
	assert.NoError(t, tr.Close())
}
