package ad7124

import (
	"fmt"
	"sync/atomic"
)

// ReadRegister reads addr. It fails with ErrBusy while a Session holds the
// device.
func (d *Device) ReadRegister(addr Register) (uint32, error) {
	if d.claimed.Load() {
		return 0, ErrBusy
	}
	return d.readRegister(addr)
}

// ReadRegisterWithStatus reads addr plus the status byte the device appends
// when ADC_CTRL.DATA_STATUS is set. Without that bit the status byte is junk.
func (d *Device) ReadRegisterWithStatus(addr Register) (uint32, byte, error) {
	if d.claimed.Load() {
		return 0, 0, ErrBusy
	}
	return d.readRegisterWithStatus(addr)
}

// WriteRegister writes v to addr. v must fit the register width.
func (d *Device) WriteRegister(addr Register, v uint32) error {
	if d.claimed.Load() {
		return ErrBusy
	}
	return d.writeRegister(addr, v)
}

func (d *Device) readRegister(addr Register) (uint32, error) {
	n, err := Width(addr)
	if err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.tx(addr, n+1); err != nil {
		return 0, &TransportError{Op: "read", Reg: addr, Err: err}
	}
	return DecodeValue(d.r[:n+1]), nil
}

func (d *Device) readRegisterWithStatus(addr Register) (uint32, byte, error) {
	n, err := Width(addr)
	if err != nil {
		return 0, 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.tx(addr, n+2); err != nil {
		return 0, 0, &TransportError{Op: "read", Reg: addr, Err: err}
	}
	v, st := DecodeValueWithStatus(d.r[:n+2])
	return v, st, nil
}

// tx clocks a read command for addr followed by zero bytes; caller holds mu.
func (d *Device) tx(addr Register, n int) error {
	w := d.w[:n]
	w[0] = EncodeCommand(addr, true)
	clear(w[1:])
	return d.bus.Tx(w, d.r[:n])
}

func (d *Device) writeRegister(addr Register, v uint32) error {
	desc, ok := Lookup(addr)
	if !ok {
		return fmt.Errorf("%w: 0x%02X", ErrRegisterOutOfRange, uint8(addr))
	}
	if desc.Access == ReadOnly && !d.cfg.AllowReadOnlyWrites {
		return fmt.Errorf("%w: %s", ErrAccessDenied, desc.Name)
	}
	if v > maxValue(desc.Width) {
		return fmt.Errorf("%w: 0x%X for %s", ErrValueOutOfRange, v, desc.Name)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	w := d.w[:desc.Width+1]
	w[0] = EncodeCommand(addr, false)
	_ = putValue(w[1:], v)
	if err := d.bus.Tx(w, d.r[:len(w)]); err != nil {
		return &TransportError{Op: "write", Reg: addr, Err: err}
	}
	return nil
}

// Session is exclusive read access to a Device. While a Session is held the
// Device's own register methods fail with ErrBusy.
type Session struct {
	d        *Device
	released atomic.Bool
}

// Claim takes exclusive access. Only one Session may exist at a time.
func (d *Device) Claim() (*Session, error) {
	if !d.claimed.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	return &Session{d: d}, nil
}

var errReleased = fmt.Errorf("%w: session released", ErrBusy)

func (s *Session) ReadRegister(addr Register) (uint32, error) {
	if s.released.Load() {
		return 0, errReleased
	}
	return s.d.readRegister(addr)
}

func (s *Session) ReadRegisterWithStatus(addr Register) (uint32, byte, error) {
	if s.released.Load() {
		return 0, 0, errReleased
	}
	return s.d.readRegisterWithStatus(addr)
}

func (s *Session) ReadStatus() (Status, error) {
	v, err := s.ReadRegister(RegStatus)
	if err != nil {
		return Status{}, err
	}
	return DecodeStatus(byte(v)), nil
}

// Release returns the device to its owner. Extra calls are no-ops.
func (s *Session) Release() {
	if s.released.CompareAndSwap(false, true) {
		s.d.claimed.Store(false)
	}
}
