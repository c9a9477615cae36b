package ad7124

import "fmt"

// Analog input selections for the channel map.
const (
	AIN0 uint8 = iota
	AIN1
	AIN2
	AIN3
	AIN4
	AIN5
	AIN6
	AIN7
	AIN8
	AIN9
	AIN10
	AIN11
	AIN12
	AIN13
	AIN14
	AIN15

	// AINTemperature routes the internal temperature sensor to the modulator.
	AINTemperature uint8 = 0b10000
	AINAVss        uint8 = 0b10001
	AINRef         uint8 = 0b10010
	AINDGnd        uint8 = 0b10011
)

// ADC_CTRL power modes.
const (
	PowerModeLow  uint8 = 0
	PowerModeMid  uint8 = 1
	PowerModeFull uint8 = 2
)

// ADC_CTRL operating modes.
const (
	ModeContinuous uint8 = 0
	ModeSingle     uint8 = 1
	ModeStandby    uint8 = 2
	ModePowerDown  uint8 = 3
	ModeIdle       uint8 = 4
)

// CONFIG reference selections.
const (
	RefSelRefIn1   uint8 = 0b00
	RefSelRefIn2   uint8 = 0b01
	RefSelInternal uint8 = 0b10
	RefSelAVdd     uint8 = 0b11
)

// FILTER types.
const (
	FilterSinc4     uint8 = 0b000
	FilterSinc3     uint8 = 0b010
	FilterFastSinc4 uint8 = 0b100
	FilterFastSinc3 uint8 = 0b101
	FilterPost      uint8 = 0b111
)

// ChannelConfig is the layout of a CHx_MAP register.
type ChannelConfig struct {
	Enable bool
	Setup  uint8 // 0..7
	AINP   uint8 // 5-bit input select
	AINM   uint8
}

// Value encodes c: bit15 enable, bits14:12 setup, bits9:5 AINP, bits4:0 AINM.
func (c ChannelConfig) Value() (uint32, error) {
	if err := checkField("setup", uint32(c.Setup), 0x07); err != nil {
		return 0, err
	}
	if err := checkField("ainp", uint32(c.AINP), 0x1F); err != nil {
		return 0, err
	}
	if err := checkField("ainm", uint32(c.AINM), 0x1F); err != nil {
		return 0, err
	}
	v := uint32(c.Setup)<<12 | uint32(c.AINP)<<5 | uint32(c.AINM)
	if c.Enable {
		v |= 1 << 15
	}
	return v, nil
}

func DecodeChannelConfig(v uint32) ChannelConfig {
	return ChannelConfig{
		Enable: v&(1<<15) != 0,
		Setup:  uint8(v>>12) & 0x07,
		AINP:   uint8(v>>5) & 0x1F,
		AINM:   uint8(v) & 0x1F,
	}
}

// ADCControl is the layout of ADC_CTRL.
type ADCControl struct {
	DoutRdyDel  bool
	ContRead    bool
	DataStatus  bool
	NotCSEn     bool
	RefEn       bool
	PowerMode   uint8 // 2 bits
	Mode        uint8 // 4 bits
	ClockSelect uint8 // 2 bits
}

func (c ADCControl) Value() (uint32, error) {
	if err := checkField("power_mode", uint32(c.PowerMode), 0x03); err != nil {
		return 0, err
	}
	if err := checkField("mode", uint32(c.Mode), 0x0F); err != nil {
		return 0, err
	}
	if err := checkField("clock_select", uint32(c.ClockSelect), 0x03); err != nil {
		return 0, err
	}
	v := uint32(c.PowerMode)<<6 | uint32(c.Mode)<<2 | uint32(c.ClockSelect)
	v |= bit(c.DoutRdyDel, 12) | bit(c.ContRead, 11) | bit(c.DataStatus, 10) |
		bit(c.NotCSEn, 9) | bit(c.RefEn, 8)
	return v, nil
}

func DecodeADCControl(v uint32) ADCControl {
	return ADCControl{
		DoutRdyDel:  v&(1<<12) != 0,
		ContRead:    v&(1<<11) != 0,
		DataStatus:  v&(1<<10) != 0,
		NotCSEn:     v&(1<<9) != 0,
		RefEn:       v&(1<<8) != 0,
		PowerMode:   uint8(v>>6) & 0x03,
		Mode:        uint8(v>>2) & 0x0F,
		ClockSelect: uint8(v) & 0x03,
	}
}

// SetupConfig is the layout of a CONFIGx register.
type SetupConfig struct {
	Bipolar bool
	Burnout uint8 // 2 bits
	RefBufP bool
	RefBufM bool
	AINBufP bool
	AINBufM bool
	RefSel  uint8 // 2 bits
	PGA     uint8 // 3 bits, gain 2^PGA
}

func (c SetupConfig) Value() (uint32, error) {
	if err := checkField("burnout", uint32(c.Burnout), 0x03); err != nil {
		return 0, err
	}
	if err := checkField("ref_sel", uint32(c.RefSel), 0x03); err != nil {
		return 0, err
	}
	if err := checkField("pga", uint32(c.PGA), 0x07); err != nil {
		return 0, err
	}
	v := uint32(c.Burnout)<<9 | uint32(c.RefSel)<<3 | uint32(c.PGA)
	v |= bit(c.Bipolar, 11) | bit(c.RefBufP, 8) | bit(c.RefBufM, 7) |
		bit(c.AINBufP, 6) | bit(c.AINBufM, 5)
	return v, nil
}

func DecodeSetupConfig(v uint32) SetupConfig {
	return SetupConfig{
		Bipolar: v&(1<<11) != 0,
		Burnout: uint8(v>>9) & 0x03,
		RefBufP: v&(1<<8) != 0,
		RefBufM: v&(1<<7) != 0,
		AINBufP: v&(1<<6) != 0,
		AINBufM: v&(1<<5) != 0,
		RefSel:  uint8(v>>3) & 0x03,
		PGA:     uint8(v) & 0x07,
	}
}

// FilterConfig is the layout of a FILTERx register.
type FilterConfig struct {
	FilterType     uint8 // 3 bits
	Rej60          bool
	PostFilter     uint8 // 3 bits
	SingleCycle    bool
	OutputDataRate uint16 // FS, 1..2047
}

func (c FilterConfig) Value() (uint32, error) {
	if err := checkField("filter_type", uint32(c.FilterType), 0x07); err != nil {
		return 0, err
	}
	if err := checkField("post_filter", uint32(c.PostFilter), 0x07); err != nil {
		return 0, err
	}
	if c.OutputDataRate == 0 || c.OutputDataRate > 0x7FF {
		return 0, fmt.Errorf("%w: output_data_rate %d", ErrFieldOutOfRange, c.OutputDataRate)
	}
	v := uint32(c.FilterType)<<21 | uint32(c.PostFilter)<<17 | uint32(c.OutputDataRate)
	v |= bit(c.Rej60, 20) | bit(c.SingleCycle, 16)
	return v, nil
}

func DecodeFilterConfig(v uint32) FilterConfig {
	return FilterConfig{
		FilterType:     uint8(v>>21) & 0x07,
		Rej60:          v&(1<<20) != 0,
		PostFilter:     uint8(v>>17) & 0x07,
		SingleCycle:    v&(1<<16) != 0,
		OutputDataRate: uint16(v) & 0x7FF,
	}
}

func checkField(name string, v, max uint32) error {
	if v > max {
		return fmt.Errorf("%w: %s %d > %d", ErrFieldOutOfRange, name, v, max)
	}
	return nil
}

func bit(set bool, n uint) uint32 {
	if set {
		return 1 << n
	}
	return 0
}
