// Package sim is an in-memory AD7124 that implements drivers.SPI.
//
// It decodes command bytes the way the part does, keeps a register file
// initialised from the register table, and produces conversions round-robin
// over the enabled channels. Readiness is driven by polls rather than time:
// after each DATA read the next conversion becomes ready once STATUS (or DATA
// with status) has been polled NotReadyPolls times.
package sim

import (
	"errors"
	"sync"

	"ad7124-go/drivers/ad7124"
)

// ErrFrame is returned for transfers the part would not understand.
var ErrFrame = errors.New("sim: malformed frame")

// Device is a simulated AD7124. The zero value is not usable; call New.
type Device struct {
	mu sync.Mutex

	regs  [ad7124.NumRegisters]uint32
	codes [ad7124.NumChannels]uint32
	id    byte

	notReadyPolls int
	pending       int
	stalled       bool
	ready         bool
	por           bool
	errFlag       bool
	cur           uint8
	next          int
	data          uint32

	failN   int
	failErr error

	transfers [][]byte
	resets    int
	dataReads int
}

// New returns a freshly powered device reporting id 0x14 with every channel
// code at midscale.
func New() *Device {
	s := &Device{id: ad7124.IDAD7124_4}
	for i := range s.codes {
		s.codes[i] = ad7124.CodeMidscale
	}
	s.reset()
	return s
}

func (s *Device) reset() {
	for _, d := range ad7124.Registers() {
		s.regs[d.Address] = d.Default
	}
	s.regs[ad7124.RegID] = uint32(s.id)
	s.por = true
	s.ready = false
	s.errFlag = false
	s.pending = s.notReadyPolls
	s.cur = 0
	s.next = 0
	s.data = 0
	s.resets++
}

// Tx implements drivers.SPI.
func (s *Device) Tx(w, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transfers = append(s.transfers, append([]byte(nil), w...))
	if s.failN > 0 {
		s.failN--
		return s.failErr
	}
	if r != nil && len(r) != len(w) {
		return ErrFrame
	}
	if len(w) == 0 {
		return nil
	}
	if isReset(w) {
		s.reset()
		fill(r, 0xFF)
		return nil
	}
	if w[0]&0x80 != 0 {
		return ErrFrame
	}
	addr, read := ad7124.DecodeCommand(w[0])
	if read {
		s.read(addr, r)
	} else {
		s.write(addr, w[1:])
	}
	return nil
}

// Transfer implements drivers.SPI as a one-byte Tx.
func (s *Device) Transfer(b byte) (byte, error) {
	r := []byte{0}
	err := s.Tx([]byte{b}, r)
	return r[0], err
}

func isReset(w []byte) bool {
	if len(w) < 8 {
		return false
	}
	for _, b := range w {
		if b != 0xFF {
			return false
		}
	}
	return true
}

func fill(r []byte, b byte) {
	for i := range r {
		r[i] = b
	}
}

func (s *Device) write(addr ad7124.Register, payload []byte) {
	d, ok := ad7124.Lookup(addr)
	if !ok || d.Access != ad7124.ReadWrite || len(payload) < d.Width {
		return
	}
	s.regs[addr] = be(payload[:d.Width])
}

func (s *Device) read(addr ad7124.Register, r []byte) {
	if r == nil {
		r = make([]byte, 1)
	}
	fill(r, 0)
	r[0] = 0xFF
	out := r[1:]

	d, ok := ad7124.Lookup(addr)
	if !ok {
		return
	}
	var v uint32
	consume := false
	switch addr {
	case ad7124.RegStatus:
		s.poll()
		v = uint32(s.status())
		s.por = false
	case ad7124.RegData:
		if len(out) > d.Width {
			s.poll()
		}
		v = s.data
		consume = s.ready
		s.dataReads++
	default:
		v = s.regs[addr]
	}
	put(out, v, d.Width)
	if len(out) > d.Width {
		out[d.Width] = s.status()
	}
	if consume {
		s.ready = false
		s.pending = s.notReadyPolls
	}
}

// poll advances the conversion state by one status observation.
func (s *Device) poll() {
	if s.ready || s.stalled {
		return
	}
	if s.pending > 0 {
		s.pending--
		return
	}
	for i := 0; i < ad7124.NumChannels; i++ {
		ch := (s.next + i) % ad7124.NumChannels
		if s.regs[int(ad7124.RegCh0Map)+ch]&0x8000 == 0 {
			continue
		}
		s.cur = uint8(ch)
		s.data = s.codes[ch] & ad7124.CodeMask
		s.next = ch + 1
		s.ready = true
		return
	}
}

func (s *Device) status() byte {
	return ad7124.Status{
		Ready:        s.ready,
		Error:        s.errFlag,
		PowerOnReset: s.por,
		Channel:      s.cur,
	}.Byte()
}

func put(dst []byte, v uint32, width int) {
	if len(dst) < width {
		width = len(dst)
	}
	for i := width - 1; i >= 0; i-- {
		dst[i] = byte(v)
		v >>= 8
	}
}

func be(b []byte) uint32 {
	var v uint32
	for _, x := range b {
		v = v<<8 | uint32(x)
	}
	return v
}

// SetCode sets the conversion result produced for channel ch.
func (s *Device) SetCode(ch int, code uint32) {
	s.mu.Lock()
	s.codes[ch] = code & ad7124.CodeMask
	s.mu.Unlock()
}

// SetID sets the value the ID register reports, also after a reset.
func (s *Device) SetID(id byte) {
	s.mu.Lock()
	s.id = id
	s.regs[ad7124.RegID] = uint32(id)
	s.mu.Unlock()
}

// SetNotReadyPolls sets how many polls report not-ready before each conversion.
func (s *Device) SetNotReadyPolls(n int) {
	s.mu.Lock()
	s.notReadyPolls = n
	s.pending = n
	s.mu.Unlock()
}

// SetStalled stops (or resumes) conversions.
func (s *Device) SetStalled(stalled bool) {
	s.mu.Lock()
	s.stalled = stalled
	s.mu.Unlock()
}

// SetErrorFlag sets the ERROR bit of the status byte.
func (s *Device) SetErrorFlag(on bool) {
	s.mu.Lock()
	s.errFlag = on
	s.mu.Unlock()
}

// Register returns the register file content of addr, including read-only
// registers.
func (s *Device) Register(addr ad7124.Register) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regs[addr]
}

// SetRegister overwrites the register file content of addr.
func (s *Device) SetRegister(addr ad7124.Register, v uint32) {
	s.mu.Lock()
	s.regs[addr] = v
	s.mu.Unlock()
}

// FailTransfers makes the next n transfers return err.
func (s *Device) FailTransfers(n int, err error) {
	s.mu.Lock()
	s.failN = n
	s.failErr = err
	s.mu.Unlock()
}

// Transfers returns a copy of every frame written so far.
func (s *Device) Transfers() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.transfers))
	copy(out, s.transfers)
	return out
}

// ClearTransfers forgets the recorded frames.
func (s *Device) ClearTransfers() {
	s.mu.Lock()
	s.transfers = nil
	s.mu.Unlock()
}

// Resets returns the number of resets seen, including power-up.
func (s *Device) Resets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resets
}

// DataReads returns the number of DATA register reads.
func (s *Device) DataReads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dataReads
}
