package config

import (
	"time"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"ad7124-go/drivers/ad7124"
	"ad7124-go/services/acquire"
	"ad7124-go/services/sink"
	"ad7124-go/x/drvshim"
)

// The builders below expect a validated, normalised Config.

func (c *Config) SPIConfig() drvshim.Config {
	mode := DefaultSPIMode
	if c.Transport.Mode != nil {
		mode = *c.Transport.Mode
	}
	return drvshim.Config{
		Port:    c.Transport.Port,
		Speed:   physic.Frequency(c.Transport.SpeedHz) * physic.Hertz,
		Mode:    spi.Mode(mode),
		ModeSet: true,
	}
}

func (c *Config) DeviceConfig() ad7124.Config {
	d := c.Device
	return ad7124.Config{
		AllowReadOnlyWrites: d.AllowReadOnlyWrites,
		ResetDelay:          time.Duration(d.ResetDelayMs) * time.Millisecond,
		ReadyRetries:        d.ReadyRetries,
		ReadyTimeout:        time.Duration(d.ReadyTimeoutMs) * time.Millisecond,
	}
}

// AcquireConfig builds the loop configuration. A voltage channel is bipolar
// when its setup is; channels on setups not listed here use the register
// default, which is bipolar.
func (c *Config) AcquireConfig(logger acquire.Logger) acquire.Config {
	a := c.Acquisition
	out := acquire.Config{
		Control: ad7124.ADCControl{
			DoutRdyDel:  a.Control.DoutRdyDel,
			NotCSEn:     a.Control.NotCSEn,
			RefEn:       a.Control.RefEn,
			PowerMode:   uint8(a.Control.PowerMode),
			Mode:        uint8(a.Control.Mode),
			ClockSelect: uint8(a.Control.ClockSelect),
		},
		MaxRetries:   a.MaxRetries,
		PollTimeout:  time.Duration(a.PollTimeoutMs) * time.Millisecond,
		RetryBackoff: time.Duration(a.RetryBackoffUs) * time.Microsecond,
		QueueSize:    a.QueueSize,
		Logger:       logger,
	}
	if a.Mode == ModeStatusPoll {
		out.Mode = acquire.ModeStatusPoll
	}

	bipolar := [8]bool{true, true, true, true, true, true, true, true}
	for _, s := range c.Setups {
		bipolar[s.Index] = s.Bipolar
		out.Setups = append(out.Setups, acquire.Setup{
			Index: s.Index,
			Config: ad7124.SetupConfig{
				Bipolar: s.Bipolar,
				Burnout: uint8(s.Burnout),
				RefBufP: s.RefBufP,
				RefBufM: s.RefBufM,
				AINBufP: s.AINBufP,
				AINBufM: s.AINBufM,
				RefSel:  uint8(s.RefSel),
				PGA:     uint8(s.PGA),
			},
			Filter: ad7124.FilterConfig{
				FilterType:     uint8(s.Filter.Type),
				Rej60:          s.Filter.Rej60,
				PostFilter:     uint8(s.Filter.PostFilter),
				SingleCycle:    s.Filter.SingleCycle,
				OutputDataRate: uint16(s.Filter.OutputDataRate),
			},
			Offset: s.Offset,
			Gain:   s.Gain,
		})
	}

	for _, ch := range c.Channels {
		out.Channels = append(out.Channels, acquire.Channel{
			Number: ch.Number,
			Map: ad7124.ChannelConfig{
				Enable: true,
				Setup:  uint8(ch.Setup),
				AINP:   uint8(ch.AINP),
				AINM:   uint8(ch.AINM),
			},
			Conversion: ad7124.Conversion{
				Kind:    kind(ch.Kind),
				Gain:    ch.Gain,
				VRef:    ch.VRef,
				Bipolar: bipolar[ch.Setup],
				Scale:   ch.Scale,
			},
		})
	}
	return out
}

func kind(s string) ad7124.Kind {
	switch s {
	case KindVoltage:
		return ad7124.KindVoltage
	case KindTemperature:
		return ad7124.KindTemperature
	}
	return ad7124.KindRaw
}

// ChannelNames maps channel numbers to their configured names.
func (c *Config) ChannelNames() map[uint8]string {
	out := make(map[uint8]string, len(c.Channels))
	for _, ch := range c.Channels {
		if ch.Name != "" {
			out[uint8(ch.Number)] = ch.Name
		}
	}
	return out
}

// ConsoleEnabled reports whether samples are printed.
func (c *Config) ConsoleEnabled() bool {
	return c.Sink.Console == nil || *c.Sink.Console
}

// ModbusConfig returns the Modbus sink settings, if one is configured.
func (c *Config) ModbusConfig() (sink.ModbusConfig, bool) {
	m := c.Sink.Modbus
	if m == nil {
		return sink.ModbusConfig{}, false
	}
	return sink.ModbusConfig{
		Endpoint:    m.Endpoint,
		UnitID:      m.UnitID,
		Timeout:     time.Duration(m.TimeoutMs) * time.Millisecond,
		BaseAddress: m.BaseAddress,
	}, true
}
