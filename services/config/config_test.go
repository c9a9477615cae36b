package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"ad7124-go/drivers/ad7124"
	"ad7124-go/errcode"
	"ad7124-go/services/acquire"
)

func mustPreset(t *testing.T, name string) *Config {
	t.Helper()
	cfg, err := Preset(name)
	if err != nil {
		t.Fatalf("preset %s: %v", name, err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("validate %s: %v", name, err)
	}
	Normalize(cfg)
	return cfg
}

func TestPresetsListed(t *testing.T) {
	got := strings.Join(Presets(), ",")
	if got != "temperature,voltmeter" {
		t.Fatalf("presets=%s", got)
	}
	if _, err := Preset("nope"); err == nil {
		t.Fatal("unknown preset accepted")
	}
}

func TestVoltmeterPreset(t *testing.T) {
	cfg := mustPreset(t, "voltmeter")
	if cfg.Transport.Port != "/dev/spidev0.0" || *cfg.Transport.Mode != 3 || cfg.Transport.SpeedHz != DefaultSpeedHz {
		t.Fatalf("transport=%+v", cfg.Transport)
	}
	ac := cfg.AcquireConfig(nil)
	if ac.Mode != acquire.ModeInline || ac.MaxRetries != 300 || ac.QueueSize != 1024 {
		t.Fatalf("acquire=%+v", ac)
	}
	if v, _ := ac.Control.Value(); v != 0x0080 {
		t.Fatalf("control=0x%04X", v)
	}
	if len(ac.Setups) != 2 || len(ac.Channels) != 2 {
		t.Fatalf("setups=%d channels=%d", len(ac.Setups), len(ac.Channels))
	}
	if v, _ := ac.Setups[0].Config.Value(); v != 0x09E0 {
		t.Fatalf("setup1 config=0x%04X", v)
	}
	if v, _ := ac.Setups[0].Filter.Value(); v != 0x000200 {
		t.Fatalf("setup1 filter=0x%06X", v)
	}
	ch1, ch2 := ac.Channels[0], ac.Channels[1]
	if v, _ := ch1.Map.Value(); v != 0x9043 {
		t.Fatalf("ch1 map=0x%04X", v)
	}
	if !ch1.Conversion.Bipolar || ch1.Conversion.Scale != 3 || ch1.Conversion.Kind != ad7124.KindVoltage {
		t.Fatalf("ch1 conversion=%+v", ch1.Conversion)
	}
	if ch2.Conversion.Bipolar || ch2.Conversion.Scale != 4 {
		t.Fatalf("ch2 conversion=%+v", ch2.Conversion)
	}
	if cfg.ChannelNames()[1] != "v1" || !cfg.ConsoleEnabled() {
		t.Fatal("names/console")
	}
}

func TestTemperaturePreset(t *testing.T) {
	cfg := mustPreset(t, "temperature")
	ac := cfg.AcquireConfig(nil)
	if ac.Mode != acquire.ModeStatusPoll {
		t.Fatalf("mode=%v", ac.Mode)
	}
	if v, _ := ac.Control.Value(); v != 0x0380 {
		t.Fatalf("control=0x%04X", v)
	}
	if v, _ := ac.Setups[0].Config.Value(); v != 0x0870 {
		t.Fatalf("config=0x%04X", v)
	}
	if v, _ := ac.Setups[0].Filter.Value(); v != 0x060180 {
		t.Fatalf("filter=0x%06X", v)
	}
	if v, _ := ac.Channels[0].Map.Value(); v != 0xF210 {
		t.Fatalf("channel=0x%04X", v)
	}
	if ac.Channels[0].Conversion.Kind != ad7124.KindTemperature {
		t.Fatalf("kind=%v", ac.Channels[0].Conversion.Kind)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("channels:\n  - number: 1\n    colour: red\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("unknown key accepted")
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("missing file accepted")
	}
	if _, err := Parse(nil); err == nil {
		t.Fatal("empty document accepted")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	doc := `
transport:
  port: SPI0.1
  speed_hz: 5000000
  mode: 0
acquisition:
  mode: status_poll
  poll_timeout_ms: 50
  retry_backoff_us: 200
  queue_size: 3
device:
  ready_timeout_ms: 100
channels:
  - number: 4
    ainp: 8
    ainm: 9
sink:
  console: false
  modbus:
    endpoint: 127.0.0.1:502
    unit_id: 7
    base_address: 40
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatal(err)
	}
	Normalize(cfg)

	spiCfg := cfg.SPIConfig()
	if spiCfg.Port != "SPI0.1" || spiCfg.Speed != 5*physic.MegaHertz || spiCfg.Mode != spi.Mode0 || !spiCfg.ModeSet {
		t.Fatalf("spi=%+v", spiCfg)
	}
	dc := cfg.DeviceConfig()
	if dc.ResetDelay != 2*time.Millisecond || dc.ReadyRetries != 300 || dc.ReadyTimeout != 100*time.Millisecond {
		t.Fatalf("device=%+v", dc)
	}
	ac := cfg.AcquireConfig(nil)
	if ac.PollTimeout != 50*time.Millisecond || ac.RetryBackoff != 200*time.Microsecond || ac.QueueSize != 3 {
		t.Fatalf("acquire=%+v", ac)
	}
	if c := ac.Channels[0].Conversion; c.Kind != ad7124.KindRaw || !c.Bipolar || c.VRef != 2.5 || c.Scale != 1 {
		t.Fatalf("conversion=%+v", c)
	}
	if cfg.ConsoleEnabled() {
		t.Fatal("console should be off")
	}
	mb, ok := cfg.ModbusConfig()
	if !ok || mb.UnitID != 7 || mb.BaseAddress != 40 || mb.Timeout != time.Second {
		t.Fatalf("modbus=%+v", mb)
	}
}

func TestValidateRejects(t *testing.T) {
	mutate := []func(*Config){
		func(c *Config) { c.Transport.Position = 3 },
		func(c *Config) { c.Transport.SpeedHz = 6_000_000 },
		func(c *Config) { m := 4; c.Transport.Mode = &m },
		func(c *Config) { c.Device.ReadyRetries = -1 },
		func(c *Config) { c.Acquisition.Mode = "irq" },
		func(c *Config) { c.Acquisition.Control.PowerMode = 4 },
		func(c *Config) { c.Setups[0].Index = 8 },
		func(c *Config) { c.Setups[1].Index = c.Setups[0].Index },
		func(c *Config) { c.Setups[0].PGA = 8 },
		func(c *Config) { c.Setups[0].Filter.OutputDataRate = 2048 },
		func(c *Config) { v := uint32(1 << 24); c.Setups[0].Offset = &v },
		func(c *Config) { c.Channels = nil },
		func(c *Config) { c.Channels[0].Number = 16 },
		func(c *Config) { c.Channels[1].Number = c.Channels[0].Number },
		func(c *Config) { c.Channels[0].AINP = 32 },
		func(c *Config) { c.Channels[0].Kind = "current" },
		func(c *Config) { c.Channels[0].Scale = -1 },
		func(c *Config) { c.Sink.Modbus = &ModbusConfig{} },
		func(c *Config) { c.Sink.Modbus = &ModbusConfig{Endpoint: "127.0.0.1:502", BaseAddress: 0xFFC1} },
		func(c *Config) { c.Sink.Modbus = &ModbusConfig{Endpoint: "127.0.0.1:502", BaseAddress: 0xFFFF} },
	}
	for i, m := range mutate {
		cfg, err := Preset("voltmeter")
		if err != nil {
			t.Fatal(err)
		}
		m(cfg)
		err = Validate(cfg)
		if err == nil {
			t.Fatalf("case %d: accepted", i)
		}
		if errcode.Of(err) != errcode.InvalidParams {
			t.Fatalf("case %d: code %s", i, errcode.Of(err))
		}
	}
}

func TestModbusBaseAddressFitsAllChannels(t *testing.T) {
	cfg, _ := Preset("voltmeter")
	cfg.Sink.Modbus = &ModbusConfig{Endpoint: "127.0.0.1:502", BaseAddress: 0xFFC0}
	if err := Validate(cfg); err != nil {
		t.Fatalf("base 0xFFC0 rejected: %v", err)
	}
}

func TestValidateDoesNotMutate(t *testing.T) {
	cfg, _ := Preset("voltmeter")
	if err := Validate(cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Transport.Port != "" || cfg.Acquisition.MaxRetries != 0 || cfg.Sink.Console != nil {
		t.Fatal("validate mutated config")
	}
}

func TestSelectChannels(t *testing.T) {
	cfg, _ := Preset("voltmeter")
	if err := cfg.SelectChannels([]int{2}); err != nil {
		t.Fatal(err)
	}
	if len(cfg.Channels) != 1 || cfg.Channels[0].Number != 2 {
		t.Fatalf("channels=%+v", cfg.Channels)
	}
	if len(cfg.Setups) != 1 || cfg.Setups[0].Index != 2 {
		t.Fatalf("setups=%+v", cfg.Setups)
	}
	cfg, _ = Preset("voltmeter")
	if err := cfg.SelectChannels([]int{1, 9}); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("err=%v", err)
	}
	if err := cfg.SelectChannels(nil); err != nil || len(cfg.Channels) != 2 {
		t.Fatalf("empty selection: %v", err)
	}
}
