package ad7124

import "strconv"

// Status register bits.
const (
	statusNotReady     = 0x80 // RDY, driven low when a conversion is ready
	statusError        = 0x40
	statusPowerOnReset = 0x10
	statusChannelMask  = 0x0F
)

// Status is the decoded STATUS register.
type Status struct {
	Ready        bool
	Error        bool
	PowerOnReset bool
	Channel      uint8
}

// DecodeStatus decodes a status byte. RDY is inverted so that Ready reads like
// the other flags.
func DecodeStatus(b byte) Status {
	return Status{
		Ready:        b&statusNotReady == 0,
		Error:        b&statusError != 0,
		PowerOnReset: b&statusPowerOnReset != 0,
		Channel:      b & statusChannelMask,
	}
}

// Byte re-encodes s as the device would present it.
func (s Status) Byte() byte {
	b := s.Channel & statusChannelMask
	if !s.Ready {
		b |= statusNotReady
	}
	if s.Error {
		b |= statusError
	}
	if s.PowerOnReset {
		b |= statusPowerOnReset
	}
	return b
}

func (s Status) String() string {
	out := "ch" + strconv.Itoa(int(s.Channel))
	if s.Ready {
		out += " ready"
	} else {
		out += " busy"
	}
	if s.Error {
		out += " error"
	}
	if s.PowerOnReset {
		out += " por"
	}
	return out
}
