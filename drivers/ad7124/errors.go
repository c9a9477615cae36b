package ad7124

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by the package matches exactly one of
// these with errors.Is.
var (
	ErrConfiguration = errors.New("ad7124: configuration error")
	ErrTransport     = errors.New("ad7124: transport error")
	ErrIdentity      = errors.New("ad7124: device is not an AD7124")
	ErrDataNotReady  = errors.New("ad7124: data not ready")
	ErrBusy          = errors.New("ad7124: device busy")
)

// Configuration errors are rejected before any bus I/O.
var (
	ErrRegisterOutOfRange = fmt.Errorf("%w: register out of range", ErrConfiguration)
	ErrValueOutOfRange    = fmt.Errorf("%w: value out of range", ErrConfiguration)
	ErrInvalidWidth       = fmt.Errorf("%w: invalid register width", ErrConfiguration)
	ErrAccessDenied       = fmt.Errorf("%w: register is read-only", ErrConfiguration)
	ErrChannelOutOfRange  = fmt.Errorf("%w: channel out of range", ErrConfiguration)
	ErrSetupOutOfRange    = fmt.Errorf("%w: setup out of range", ErrConfiguration)
	ErrFieldOutOfRange    = fmt.Errorf("%w: field out of range", ErrConfiguration)
)

// TransportError wraps a failed bus transfer.
type TransportError struct {
	Op  string // "read", "write", "reset"
	Reg Register
	Err error
}

func (e *TransportError) Error() string {
	if e.Op == "reset" {
		return "ad7124: reset: " + e.Err.Error()
	}
	return "ad7124: " + e.Op + " " + e.Reg.String() + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() []error { return []error{ErrTransport, e.Err} }

// IdentityError reports an ID register value other than 0x14 or 0x16.
type IdentityError struct {
	ID byte
}

func (e *IdentityError) Error() string {
	return fmt.Sprintf("ad7124: unexpected id 0x%02X", e.ID)
}

func (e *IdentityError) Unwrap() error { return ErrIdentity }
