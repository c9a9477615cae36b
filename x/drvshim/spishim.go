// Package drvshim adapts host SPI ports opened through periph.io to the
// tinygo driver SPI shape, so drivers written against drivers.SPI run on
// Linux spidev unchanged.
package drvshim

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
	"tinygo.org/x/drivers"
)

const (
	DefaultSpeed = physic.MegaHertz
	MaxSpeed     = 5 * physic.MegaHertz
	DefaultMode  = spi.Mode3
	DefaultBits  = 8
)

var ErrPosition = errors.New("drvshim: position must be 1 or 2")

// Config selects and configures a port. Zero values select the defaults.
type Config struct {
	// Port is a spireg name such as "/dev/spidev0.1". Empty opens the first
	// registered port.
	Port  string
	Speed physic.Frequency
	Mode  spi.Mode
	// ModeSet distinguishes an explicit Mode0 from "unset".
	ModeSet bool
	Bits    int
}

func (c Config) withDefaults() Config {
	if c.Speed <= 0 {
		c.Speed = DefaultSpeed
	}
	if c.Speed > MaxSpeed {
		c.Speed = MaxSpeed
	}
	if !c.ModeSet {
		c.Mode = DefaultMode
	}
	if c.Bits <= 0 {
		c.Bits = DefaultBits
	}
	return c
}

// PositionPort returns the spidev port of a click-shield position (1 or 2),
// which selects chip select 0 or 1 on bus 0.
func PositionPort(pos int) (string, error) {
	if pos != 1 && pos != 2 {
		return "", fmt.Errorf("%w: %d", ErrPosition, pos)
	}
	return fmt.Sprintf("/dev/spidev0.%d", pos-1), nil
}

var (
	initOnce sync.Once
	initErr  error
)

func hostInit() error {
	initOnce.Do(func() { _, initErr = host.Init() })
	return initErr
}

// SPI is an open host SPI connection.
type SPI struct {
	port spi.PortCloser
	conn spi.Conn
	cfg  Config
}

var _ drivers.SPI = (*SPI)(nil)

// Open initialises the host drivers once per process, then opens and
// connects cfg.Port.
func Open(cfg Config) (*SPI, error) {
	if err := hostInit(); err != nil {
		return nil, fmt.Errorf("drvshim: host init: %w", err)
	}
	cfg = cfg.withDefaults()
	p, err := spireg.Open(cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("drvshim: open %q: %w", cfg.Port, err)
	}
	if err := p.LimitSpeed(cfg.Speed); err != nil {
		p.Close()
		return nil, fmt.Errorf("drvshim: limit speed %s: %w", cfg.Speed, err)
	}
	c, err := p.Connect(cfg.Speed, cfg.Mode, cfg.Bits)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("drvshim: connect %q: %w", cfg.Port, err)
	}
	return &SPI{port: p, conn: c, cfg: cfg}, nil
}

// Tx performs one full-duplex transfer with chip select held throughout.
func (s *SPI) Tx(w, r []byte) error {
	return s.conn.Tx(w, r)
}

func (s *SPI) Transfer(b byte) (byte, error) {
	var r [1]byte
	err := s.conn.Tx([]byte{b}, r[:])
	return r[0], err
}

func (s *SPI) Close() error { return s.port.Close() }

func (s *SPI) String() string {
	return fmt.Sprintf("%s@%s mode%d", s.port, s.cfg.Speed, s.cfg.Mode&0x3)
}
