package sink

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/goburrow/modbus"

	"ad7124-go/services/acquire"
)

// RegistersPerChannel is the size of one channel's holding-register block:
// value as IEEE-754 float32 (high word first), then the 24-bit raw code in
// two words.
const RegistersPerChannel = 4

type ModbusConfig struct {
	Endpoint    string // host:port
	UnitID      uint8
	Timeout     time.Duration
	BaseAddress uint16 // channel n starts at BaseAddress + n*RegistersPerChannel
}

type registerWriter interface {
	WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error)
}

// Modbus mirrors the latest sample of every channel into the holding
// registers of a Modbus TCP server.
type Modbus struct {
	mu      sync.Mutex
	handler *modbus.TCPClientHandler
	client  registerWriter
	base    uint16
}

// DialModbus connects to cfg.Endpoint.
func DialModbus(cfg ModbusConfig) (*Modbus, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("sink modbus: endpoint required")
	}
	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.UnitID
	if err := h.Connect(); err != nil {
		return nil, err
	}
	return &Modbus{handler: h, client: modbus.NewClient(h), base: cfg.BaseAddress}, nil
}

func (m *Modbus) Write(s acquire.Sample) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	addr := m.base + uint16(s.Channel)*RegistersPerChannel
	regs := sampleRegisters(s)
	_, err := m.client.WriteMultipleRegisters(addr, uint16(len(regs)), packRegisters(regs[:]))
	return err
}

func (m *Modbus) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handler == nil {
		return nil
	}
	return m.handler.Close()
}

func sampleRegisters(s acquire.Sample) [RegistersPerChannel]uint16 {
	f := math.Float32bits(float32(s.Value))
	return [RegistersPerChannel]uint16{
		uint16(f >> 16), uint16(f),
		uint16(s.Raw >> 16), uint16(s.Raw),
	}
}

func packRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}
