// internal/protocol/errors.go
package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned when an operation needs an established session
	ErrNotConnected = errors.New("serial link is not connected")

	// ErrAlreadyConnected is returned by Connect while a session is active
	ErrAlreadyConnected = errors.New("serial link is already connected, disconnect first")

	// ErrHandshakeTimeout is returned when the device does not answer in time
	ErrHandshakeTimeout = errors.New("handshake timed out waiting for device")

	errStopRequested = errors.New("disconnect requested")
)

// IOError wraps a serial open/read/write failure. It ends the current session.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("serial %s failed: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ProtocolViolation reports an unexpected byte during the handshake
type ProtocolViolation struct {
	Stage    string
	Expected byte
	Got      byte
}

func (e *ProtocolViolation) Error() string {
	return fmt.Sprintf("invalid %s byte: expected 0x%02X, got 0x%02X", e.Stage, e.Expected, e.Got)
}
