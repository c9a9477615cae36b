package ad7124

import "fmt"

// Command byte: bit7 must be 0 (WEN), bit6 selects read, bits5:0 address.
const (
	cmdRead  = 0x40
	addrMask = 0x3F
)

// EncodeCommand builds the communications byte that starts every transfer.
// Addresses are masked to six bits; the result is not checked against the
// register table.
func EncodeCommand(addr Register, read bool) byte {
	cmd := byte(addr) & addrMask
	if read {
		cmd |= cmdRead
	}
	return cmd
}

// DecodeCommand splits a communications byte back into address and direction.
func DecodeCommand(b byte) (Register, bool) {
	return Register(b & addrMask), b&cmdRead != 0
}

// EncodeValue serialises v big-endian into exactly width bytes.
func EncodeValue(v uint32, width int) ([]byte, error) {
	if width < 1 || width > 3 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWidth, width)
	}
	buf := make([]byte, width)
	if err := putValue(buf, v); err != nil {
		return nil, err
	}
	return buf, nil
}

// putValue fills dst big-endian; len(dst) is the register width.
func putValue(dst []byte, v uint32) error {
	if v > maxValue(len(dst)) {
		return fmt.Errorf("%w: 0x%X does not fit %d bytes", ErrValueOutOfRange, v, len(dst))
	}
	for i := len(dst) - 1; i >= 0; i-- {
		dst[i] = byte(v)
		v >>= 8
	}
	return nil
}

// DecodeValue drops the leading byte clocked out while the command byte was
// sent and accumulates the rest big-endian.
func DecodeValue(b []byte) uint32 {
	if len(b) < 2 {
		return 0
	}
	return beUint(b[1:])
}

// DecodeValueWithStatus decodes a read issued with DATA_STATUS enabled: after
// the leading byte is dropped the last byte is the status register.
func DecodeValueWithStatus(b []byte) (uint32, byte) {
	if len(b) < 2 {
		return 0, 0
	}
	rest := b[1:]
	last := len(rest) - 1
	return beUint(rest[:last]), rest[last]
}

func beUint(b []byte) uint32 {
	var v uint32
	for _, x := range b {
		v = v<<8 | uint32(x)
	}
	return v
}
