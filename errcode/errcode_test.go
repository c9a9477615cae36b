package errcode

import (
	"errors"
	"fmt"
	"testing"

	"ad7124-go/drivers/ad7124"
)

func TestCodesAreStable(t *testing.T) {
	want := map[Code]string{
		OK:            "ok",
		Busy:          "busy",
		InvalidParams: "invalid_params",
		BusError:      "bus_error",
		UnknownDevice: "unknown_device",
		Timeout:       "timeout",
		NotRunning:    "not_running",
		Error:         "error",
	}
	for c, s := range want {
		if c.Error() != s {
			t.Fatalf("%q != %q", c.Error(), s)
		}
	}
}

func TestMapDriverErr(t *testing.T) {
	cases := []struct {
		err  error
		want Code
	}{
		{nil, OK},
		{ad7124.ErrBusy, Busy},
		{fmt.Errorf("%w: 0x40", ad7124.ErrRegisterOutOfRange), InvalidParams},
		{&ad7124.TransportError{Op: "read", Reg: ad7124.RegData, Err: errors.New("eio")}, BusError},
		{&ad7124.IdentityError{ID: 0}, UnknownDevice},
		{ad7124.ErrDataNotReady, Timeout},
		{errors.New("other"), Error},
	}
	for _, c := range cases {
		if got := MapDriverErr(c.err); got != c.want {
			t.Fatalf("MapDriverErr(%v)=%s want %s", c.err, got, c.want)
		}
	}
}

func TestOf(t *testing.T) {
	e := &E{C: NotRunning, Op: "stop", Msg: "loop is idle"}
	if Of(fmt.Errorf("wrapped: %w", e)) != NotRunning {
		t.Fatal("wrapped E not found")
	}
	if Of(Busy) != Busy {
		t.Fatal("bare code")
	}
	if Of(&ad7124.IdentityError{ID: 1}) != UnknownDevice {
		t.Fatal("driver error not mapped")
	}
	if got := e.Error(); got != "stop: not_running: loop is idle" {
		t.Fatalf("Error()=%q", got)
	}
}

func TestExitStatus(t *testing.T) {
	cases := map[Code]int{OK: 0, InvalidParams: 2, UnknownDevice: 2, BusError: 3, Timeout: 1, Error: 1}
	for c, want := range cases {
		if got := ExitStatus(c); got != want {
			t.Fatalf("ExitStatus(%s)=%d want %d", c, got, want)
		}
	}
}
