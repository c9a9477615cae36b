package sink

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"ad7124-go/drivers/ad7124"
	"ad7124-go/services/acquire"
)

var ts = time.Date(2024, 3, 1, 12, 30, 45, 123_000_000, time.UTC)

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, map[uint8]string{1: "vin"})
	samples := []acquire.Sample{
		{Time: ts, Channel: 1, Kind: ad7124.KindVoltage, Value: -1.25},
		{Time: ts, Channel: 15, Kind: ad7124.KindTemperature, Value: 24.5},
		{Time: ts, Channel: 2, Raw: 0x123456, Err: true},
	}
	for _, s := range samples {
		if err := c.Write(s); err != nil {
			t.Fatal(err)
		}
	}
	want := []string{
		"12:30:45.123 vin -1.250000 V",
		"12:30:45.123 ch15 24.50 C",
		"12:30:45.123 ch2 0x123456 (err)",
	}
	got := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(got) != len(want) {
		t.Fatalf("lines=%q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d: %q want %q", i, got[i], want[i])
		}
	}
}

type fakeRegs struct {
	addr uint16
	qty  uint16
	data []byte
	err  error
}

func (f *fakeRegs) WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error) {
	f.addr, f.qty, f.data = address, quantity, append([]byte(nil), value...)
	return nil, f.err
}

func TestModbusLayout(t *testing.T) {
	f := &fakeRegs{}
	m := &Modbus{client: f, base: 100}
	s := acquire.Sample{Channel: 2, Raw: 0xABCDEF, Kind: ad7124.KindVoltage, Value: 1.0}
	if err := m.Write(s); err != nil {
		t.Fatal(err)
	}
	if f.addr != 108 || f.qty != 4 {
		t.Fatalf("addr=%d qty=%d", f.addr, f.qty)
	}
	// float32(1.0) = 0x3F800000
	want := []byte{0x3F, 0x80, 0x00, 0x00, 0x00, 0xAB, 0xCD, 0xEF}
	if !bytes.Equal(f.data, want) {
		t.Fatalf("data=% X", f.data)
	}
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestModbusError(t *testing.T) {
	boom := errors.New("exception 2")
	m := &Modbus{client: &fakeRegs{err: boom}}
	if err := m.Write(acquire.Sample{}); !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}
}

func TestDialModbusRequiresEndpoint(t *testing.T) {
	if _, err := DialModbus(ModbusConfig{}); err == nil {
		t.Fatal("expected error")
	}
}

type failSink struct{ err error }

func (f failSink) Write(acquire.Sample) error { return f.err }
func (f failSink) Close() error               { return nil }

func TestMultiWritesAll(t *testing.T) {
	var buf bytes.Buffer
	boom := errors.New("boom")
	m := Multi{failSink{boom}, NewConsole(&buf, nil)}
	err := m.Write(acquire.Sample{Time: ts, Channel: 3, Raw: 1})
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}
	if !strings.Contains(buf.String(), "ch3 0x000001") {
		t.Fatalf("console=%q", buf.String())
	}
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
}
