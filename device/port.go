package device

import (
	"io"
	"time"

	"go.bug.st/serial"
)

// Port is the subset of serial.Port the connection needs. Tests substitute
// an in-memory implementation.
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
}

// Opener acquires exclusive access to the named device.
type Opener func(name string, baud int) (Port, error)

// OpenSerial opens a real serial port in 8N1 mode.
func OpenSerial(name string, baud int) (Port, error) {
	return serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
}
