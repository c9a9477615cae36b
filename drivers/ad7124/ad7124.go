// Package ad7124 provides a driver for the Analog Devices AD7124 24-bit
// sigma-delta ADC over SPI.
//
// Every transfer starts with a command byte (bit6 read, bits5:0 address)
// followed by the register payload, most significant byte first. The byte
// clocked back while the command is sent carries no data and is discarded:
//
//	d := ad7124.New(spi, ad7124.Config{})
//	if err := d.Configure(); err != nil { ... } // reset, ID check, CH0 off
//	d.SetChannel(1, ad7124.ChannelConfig{Enable: true, Setup: 1, AINP: 2, AINM: 3})
//	ch, raw, err := d.ReadDataWait()
//
// The SPI port must be configured for mode 3 by the caller. A Device serialises
// its own transfers; it must not share the port with other drivers.
package ad7124

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"tinygo.org/x/drivers"
)

// Valid contents of the ID register.
const (
	IDAD7124_4 = 0x14
	IDAD7124_8 = 0x16
)

const (
	DefaultResetDelay   = 2 * time.Millisecond
	MinResetDelay       = time.Millisecond
	DefaultReadyRetries = 300
)

// Config controls non-hardware behaviour. All fields are optional.
type Config struct {
	// AllowReadOnlyWrites lets WriteRegister target registers the table marks
	// read-only. The zero value enforces access.
	AllowReadOnlyWrites bool
	// ResetDelay is the wait after the reset sequence. Default 2 ms, never
	// less than 1 ms.
	ResetDelay time.Duration
	// ReadyRetries bounds the status polls in ReadDataWait. Default 300.
	ReadyRetries int
	// ReadyTimeout optionally bounds ReadDataWait in wall-clock time as well.
	ReadyTimeout time.Duration
}

// Device wraps an SPI connection to an AD7124.
type Device struct {
	bus drivers.SPI
	cfg Config
	id  byte

	mu      sync.Mutex  // serialises command/response pairs
	claimed atomic.Bool // set while a Session owns the device
	w, r    [8]byte     // reuse buffers to avoid allocations
}

// New creates a Device. It does not touch the bus.
func New(bus drivers.SPI, cfg Config) *Device {
	if cfg.ResetDelay == 0 {
		cfg.ResetDelay = DefaultResetDelay
	}
	if cfg.ResetDelay < MinResetDelay {
		cfg.ResetDelay = MinResetDelay
	}
	if cfg.ReadyRetries <= 0 {
		cfg.ReadyRetries = DefaultReadyRetries
	}
	return &Device{bus: bus, cfg: cfg}
}

// Reset sends 64 clocks with DIN high and waits ResetDelay. All registers
// return to their defaults, which enables channel 0.
func (d *Device) Reset() error {
	if d.claimed.Load() {
		return ErrBusy
	}
	d.mu.Lock()
	for i := range d.w {
		d.w[i] = 0xFF
	}
	err := d.bus.Tx(d.w[:], d.r[:])
	d.mu.Unlock()
	if err != nil {
		return &TransportError{Op: "reset", Err: err}
	}
	time.Sleep(d.cfg.ResetDelay)
	return nil
}

// ReadID returns the ID register.
func (d *Device) ReadID() (byte, error) {
	v, err := d.ReadRegister(RegID)
	return byte(v), err
}

// ID returns the ID seen by the last successful Configure, or 0.
func (d *Device) ID() byte { return d.id }

// Configure resets the device, checks that it answers with a known ID and
// disables channel 0.
func (d *Device) Configure() error {
	if err := d.Reset(); err != nil {
		return err
	}
	id, err := d.ReadID()
	if err != nil {
		return err
	}
	if id != IDAD7124_4 && id != IDAD7124_8 {
		return &IdentityError{ID: id}
	}
	d.id = id
	return d.WriteRegister(RegCh0Map, 0x0001)
}

// SetChannel writes the map register of channel 0..15.
func (d *Device) SetChannel(ch int, c ChannelConfig) error {
	reg, err := ChannelReg(ch)
	if err != nil {
		return err
	}
	v, err := c.Value()
	if err != nil {
		return err
	}
	return d.WriteRegister(reg, v)
}

// SetSetupConfig writes the CONFIG register of setup 0..7.
func (d *Device) SetSetupConfig(setup int, c SetupConfig) error {
	reg, err := ConfigReg(setup)
	if err != nil {
		return err
	}
	v, err := c.Value()
	if err != nil {
		return err
	}
	return d.WriteRegister(reg, v)
}

// SetSetupFilter writes the FILTER register of setup 0..7.
func (d *Device) SetSetupFilter(setup int, c FilterConfig) error {
	reg, err := FilterReg(setup)
	if err != nil {
		return err
	}
	v, err := c.Value()
	if err != nil {
		return err
	}
	return d.WriteRegister(reg, v)
}

// SetSetupOffset writes the 24-bit OFFSET register of setup 0..7.
func (d *Device) SetSetupOffset(setup int, offset uint32) error {
	reg, err := OffsetReg(setup)
	if err != nil {
		return err
	}
	return d.WriteRegister(reg, offset)
}

// SetSetupGain writes the 24-bit GAIN register of setup 0..7.
func (d *Device) SetSetupGain(setup int, gain uint32) error {
	reg, err := GainReg(setup)
	if err != nil {
		return err
	}
	return d.WriteRegister(reg, gain)
}

func (d *Device) SetADCControl(c ADCControl) error {
	v, err := c.Value()
	if err != nil {
		return err
	}
	return d.WriteRegister(RegADCCtrl, v)
}

func (d *Device) ReadStatus() (Status, error) {
	v, err := d.ReadRegister(RegStatus)
	if err != nil {
		return Status{}, err
	}
	return DecodeStatus(byte(v)), nil
}

// ReadErrorFlags returns the ERROR register. Zero means no fault.
func (d *Device) ReadErrorFlags() (uint32, error) {
	return d.ReadRegister(RegError)
}

// ReadDataWait polls STATUS until a conversion is ready without error, then
// reads DATA. It gives up with ErrDataNotReady after ReadyRetries polls or
// ReadyTimeout, whichever comes first.
func (d *Device) ReadDataWait() (uint8, uint32, error) {
	var deadline time.Time
	if d.cfg.ReadyTimeout > 0 {
		deadline = time.Now().Add(d.cfg.ReadyTimeout)
	}
	for i := 0; i < d.cfg.ReadyRetries; i++ {
		st, err := d.ReadStatus()
		if err != nil {
			return 0, 0, err
		}
		if st.Ready && !st.Error {
			raw, err := d.ReadRegister(RegData)
			return st.Channel, raw, err
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			break
		}
	}
	return 0, 0, ErrDataNotReady
}

// RegisterValue is one entry of a register dump.
type RegisterValue struct {
	Descriptor
	Value uint32
	Err   error
}

func (v RegisterValue) String() string {
	if v.Err != nil {
		return fmt.Sprintf("%-10s 0x%02X: %v", v.Name, uint8(v.Address), v.Err)
	}
	return fmt.Sprintf("%-10s 0x%02X: 0x%0*X", v.Name, uint8(v.Address), v.Width*2, v.Value)
}

// DumpRegisters reads every known register in address order. A transport
// error on one register is recorded in its entry and the dump continues; the
// joined errors are returned alongside.
func (d *Device) DumpRegisters() ([]RegisterValue, error) {
	regs := Registers()
	out := make([]RegisterValue, 0, len(regs))
	var errs []error
	for _, desc := range regs {
		v, err := d.ReadRegister(desc.Address)
		if errors.Is(err, ErrBusy) {
			return nil, err
		}
		if err != nil {
			errs = append(errs, err)
		}
		out = append(out, RegisterValue{Descriptor: desc, Value: v, Err: err})
	}
	return out, errors.Join(errs...)
}
