package device

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyConnected is returned by Open while another port is held.
	ErrAlreadyConnected = errors.New("already connected")

	ErrInvalidBaud = errors.New("invalid baud rate")
)

// DeviceOpenError reports that the OS refused the port or it does not exist.
type DeviceOpenError struct {
	Port string
	Err  error
}

func (e *DeviceOpenError) Error() string {
	return fmt.Sprintf("open port %s: %v", e.Port, e.Err)
}
func (e *DeviceOpenError) Unwrap() error { return e.Err }

// EnumerationError reports a failed port listing.
type EnumerationError struct {
	Err error
}

func (e *EnumerationError) Error() string { return fmt.Sprintf("list ports: %v", e.Err) }
func (e *EnumerationError) Unwrap() error { return e.Err }
