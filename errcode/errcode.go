package errcode

import (
	"context"
	"errors"

	"ad7124-go/drivers/ad7124"
)

// Code is a stable, log- and exit-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK            Code = "ok"
	Busy          Code = "busy"
	InvalidParams Code = "invalid_params"
	BusError      Code = "bus_error"
	UnknownDevice Code = "unknown_device"
	Timeout       Code = "timeout"
	NotRunning    Code = "not_running"

	Error Code = "error" // generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Of extracts a Code from an error chain, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	type coder interface{ Code() Code }
	var x coder
	if errors.As(err, &x) {
		return x.Code()
	}
	return MapDriverErr(err)
}

// MapDriverErr maps AD7124 driver errors to a Code.
func MapDriverErr(err error) Code {
	switch {
	case err == nil:
		return OK
	case errors.Is(err, ad7124.ErrBusy):
		return Busy
	case errors.Is(err, ad7124.ErrConfiguration):
		return InvalidParams
	case errors.Is(err, ad7124.ErrTransport):
		return BusError
	case errors.Is(err, ad7124.ErrIdentity):
		return UnknownDevice
	case errors.Is(err, ad7124.ErrDataNotReady),
		errors.Is(err, context.DeadlineExceeded):
		return Timeout
	}
	return Error
}

// ExitStatus is the process exit status for a command that failed with c.
func ExitStatus(c Code) int {
	switch c {
	case OK:
		return 0
	case InvalidParams, UnknownDevice:
		return 2
	case BusError:
		return 3
	}
	return 1
}
