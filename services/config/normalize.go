package config

import (
	"ad7124-go/services/acquire"
	"ad7124-go/x/drvshim"
	"ad7124-go/x/mathx"
)

// Accepted string values.
const (
	ModeInline     = "inline"
	ModeStatusPoll = "status_poll"

	KindRaw         = "raw"
	KindVoltage     = "voltage"
	KindTemperature = "temperature"
)

// Defaults applied by Normalize.
const (
	DefaultSpeedHz      = 1_000_000
	minSpeedHz          = 1_000
	DefaultSPIMode      = 3
	DefaultResetDelayMs = 2
	DefaultReadyRetries = 300
	DefaultMaxRetries   = 300
	DefaultQueueSize    = 1024
	maxQueueSize        = acquire.MaxQueueSize
	DefaultODR          = 0x180
	DefaultVRef         = 2.5
	DefaultModbusTimeMs = 1000
)

// Normalize applies post-validation defaults.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	t := &cfg.Transport
	if t.Position == 0 {
		t.Position = 1
	}
	if t.Port == "" {
		t.Port, _ = drvshim.PositionPort(t.Position)
	}
	if t.SpeedHz == 0 {
		t.SpeedHz = DefaultSpeedHz
	}
	t.SpeedHz = mathx.Clamp(t.SpeedHz, minSpeedHz, maxSpeedHz)
	if t.Mode == nil {
		m := DefaultSPIMode
		t.Mode = &m
	}

	d := &cfg.Device
	if d.ResetDelayMs == 0 {
		d.ResetDelayMs = DefaultResetDelayMs
	}
	if d.ReadyRetries == 0 {
		d.ReadyRetries = DefaultReadyRetries
	}

	a := &cfg.Acquisition
	if a.Mode == "" {
		a.Mode = ModeInline
	}
	if a.MaxRetries == 0 {
		a.MaxRetries = DefaultMaxRetries
	}
	if a.QueueSize == 0 {
		a.QueueSize = DefaultQueueSize
	}
	a.QueueSize = mathx.Clamp(a.QueueSize, 2, maxQueueSize)

	for i := range cfg.Setups {
		f := &cfg.Setups[i].Filter
		if f.OutputDataRate == 0 {
			f.OutputDataRate = DefaultODR
		}
	}

	for i := range cfg.Channels {
		c := &cfg.Channels[i]
		if c.Kind == "" {
			c.Kind = KindRaw
		}
		if c.VRef == 0 {
			c.VRef = DefaultVRef
		}
		if c.Scale == 0 {
			c.Scale = 1
		}
	}

	if cfg.Sink.Console == nil {
		on := true
		cfg.Sink.Console = &on
	}
	if m := cfg.Sink.Modbus; m != nil && m.TimeoutMs == 0 {
		m.TimeoutMs = DefaultModbusTimeMs
	}
}
