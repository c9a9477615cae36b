package drvshim

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

func TestDefaults(t *testing.T) {
	c := Config{}.withDefaults()
	if c.Speed != DefaultSpeed || c.Mode != spi.Mode3 || c.Bits != 8 {
		t.Fatalf("defaults=%+v", c)
	}
	c = Config{Speed: 20 * physic.MegaHertz, Mode: spi.Mode0, ModeSet: true}.withDefaults()
	if c.Speed != MaxSpeed || c.Mode != spi.Mode0 {
		t.Fatalf("explicit=%+v", c)
	}
}

func TestPositionPort(t *testing.T) {
	if p, err := PositionPort(1); err != nil || p != "/dev/spidev0.0" {
		t.Fatalf("1 -> %q %v", p, err)
	}
	if p, err := PositionPort(2); err != nil || p != "/dev/spidev0.1" {
		t.Fatalf("2 -> %q %v", p, err)
	}
	if _, err := PositionPort(3); !errors.Is(err, ErrPosition) {
		t.Fatalf("3 -> %v", err)
	}
}

func TestOpenUnknownPort(t *testing.T) {
	if _, err := Open(Config{Port: "no-such-spi-port"}); err == nil {
		t.Fatal("expected error")
	}
}
