package config

import (
	"fmt"

	"ad7124-go/drivers/ad7124"
	"ad7124-go/errcode"
	"ad7124-go/services/sink"
	"ad7124-go/x/mathx"
)

const (
	maxSpeedHz = 5_000_000
	maxODR     = 0x7FF
	maxCode    = 0xFFFFFF

	maxModbusAddr = 0xFFFF
)

func invalid(format string, args ...any) error {
	return &errcode.E{C: errcode.InvalidParams, Op: "config", Msg: fmt.Sprintf(format, args...)}
}

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return invalid("nil config")
	}
	if err := validateTransport(&cfg.Transport); err != nil {
		return err
	}
	d := cfg.Device
	if d.ResetDelayMs < 0 || d.ReadyRetries < 0 || d.ReadyTimeoutMs < 0 {
		return invalid("device: negative value")
	}
	if err := validateAcquisition(&cfg.Acquisition); err != nil {
		return err
	}

	var setups [8]bool
	for _, s := range cfg.Setups {
		if err := validateSetup(&s); err != nil {
			return err
		}
		if setups[s.Index] {
			return invalid("setup %d defined twice", s.Index)
		}
		setups[s.Index] = true
	}

	if len(cfg.Channels) == 0 {
		return invalid("no channels")
	}
	var chans [16]bool
	for _, c := range cfg.Channels {
		if err := validateChannel(&c); err != nil {
			return err
		}
		if chans[c.Number] {
			return invalid("channel %d defined twice", c.Number)
		}
		chans[c.Number] = true
	}

	if m := cfg.Sink.Modbus; m != nil {
		if m.Endpoint == "" {
			return invalid("sink.modbus: endpoint required")
		}
		if m.TimeoutMs < 0 {
			return invalid("sink.modbus: negative timeout")
		}
		if int(m.BaseAddress)+ad7124.NumChannels*sink.RegistersPerChannel > maxModbusAddr+1 {
			return invalid("sink.modbus: base_address %d leaves no room for %d channels", m.BaseAddress, ad7124.NumChannels)
		}
	}
	return nil
}

func validateTransport(t *TransportConfig) error {
	if t.Port == "" && t.Position != 0 && !mathx.Between(t.Position, 1, 2) {
		return invalid("transport: position %d, want 1 or 2", t.Position)
	}
	if !mathx.Between(t.SpeedHz, 0, maxSpeedHz) {
		return invalid("transport: speed_hz %d outside 0..%d", t.SpeedHz, maxSpeedHz)
	}
	if t.Mode != nil && !mathx.Between(*t.Mode, 0, 3) {
		return invalid("transport: spi mode %d", *t.Mode)
	}
	return nil
}

func validateAcquisition(a *AcquisitionConfig) error {
	switch a.Mode {
	case "", ModeInline, ModeStatusPoll:
	default:
		return invalid("acquisition: mode %q, want %s or %s", a.Mode, ModeInline, ModeStatusPoll)
	}
	if a.MaxRetries < 0 || a.PollTimeoutMs < 0 || a.RetryBackoffUs < 0 || a.QueueSize < 0 {
		return invalid("acquisition: negative value")
	}
	c := a.Control
	switch {
	case !mathx.Between(c.PowerMode, 0, 3):
		return invalid("acquisition.control: power_mode %d", c.PowerMode)
	case !mathx.Between(c.Mode, 0, 15):
		return invalid("acquisition.control: mode %d", c.Mode)
	case !mathx.Between(c.ClockSelect, 0, 3):
		return invalid("acquisition.control: clock_select %d", c.ClockSelect)
	}
	return nil
}

func validateSetup(s *SetupConfig) error {
	switch {
	case !mathx.Between(s.Index, 0, 7):
		return invalid("setup %d: index outside 0..7", s.Index)
	case !mathx.Between(s.Burnout, 0, 3):
		return invalid("setup %d: burnout %d", s.Index, s.Burnout)
	case !mathx.Between(s.RefSel, 0, 3):
		return invalid("setup %d: ref_sel %d", s.Index, s.RefSel)
	case !mathx.Between(s.PGA, 0, 7):
		return invalid("setup %d: pga %d", s.Index, s.PGA)
	case !mathx.Between(s.Filter.Type, 0, 7):
		return invalid("setup %d: filter type %d", s.Index, s.Filter.Type)
	case !mathx.Between(s.Filter.PostFilter, 0, 7):
		return invalid("setup %d: post_filter %d", s.Index, s.Filter.PostFilter)
	case !mathx.Between(s.Filter.OutputDataRate, 0, maxODR):
		return invalid("setup %d: output_data_rate %d", s.Index, s.Filter.OutputDataRate)
	case s.Offset != nil && *s.Offset > maxCode:
		return invalid("setup %d: offset 0x%X exceeds 24 bits", s.Index, *s.Offset)
	case s.Gain != nil && *s.Gain > maxCode:
		return invalid("setup %d: gain 0x%X exceeds 24 bits", s.Index, *s.Gain)
	}
	return nil
}

func validateChannel(c *ChannelConfig) error {
	switch {
	case !mathx.Between(c.Number, 0, 15):
		return invalid("channel %d: number outside 0..15", c.Number)
	case !mathx.Between(c.Setup, 0, 7):
		return invalid("channel %d: setup %d", c.Number, c.Setup)
	case !mathx.Between(c.AINP, 0, 31), !mathx.Between(c.AINM, 0, 31):
		return invalid("channel %d: input outside 0..31", c.Number)
	case c.Gain < 0 || c.VRef < 0 || c.Scale < 0:
		return invalid("channel %d: negative conversion parameter", c.Number)
	}
	switch c.Kind {
	case "", KindRaw, KindVoltage, KindTemperature:
	default:
		return invalid("channel %d: kind %q", c.Number, c.Kind)
	}
	return nil
}
