// Package config loads the YAML description of an acquisition run: which SPI
// port, how the device is driven, which setups and channels are written and
// where samples go.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Transport   TransportConfig   `yaml:"transport"`
	Device      DeviceConfig      `yaml:"device"`
	Acquisition AcquisitionConfig `yaml:"acquisition"`
	Setups      []SetupConfig     `yaml:"setups"`
	Channels    []ChannelConfig   `yaml:"channels"`
	Sink        SinkConfig        `yaml:"sink"`
}

// ---- TRANSPORT ----

type TransportConfig struct {
	// Port is a spidev/periph port name. Empty derives it from Position.
	Port     string `yaml:"port"`
	Position int    `yaml:"position"` // click-shield position 1 or 2
	SpeedHz  int64  `yaml:"speed_hz"`
	Mode     *int   `yaml:"mode"` // SPI mode 0..3, default 3
	Simulate bool   `yaml:"simulate"`
}

// ---- DEVICE ----

type DeviceConfig struct {
	ResetDelayMs        int  `yaml:"reset_delay_ms"`
	ReadyRetries        int  `yaml:"ready_retries"`
	ReadyTimeoutMs      int  `yaml:"ready_timeout_ms"`
	AllowReadOnlyWrites bool `yaml:"allow_read_only_writes"`
}

// ---- ACQUISITION ----

type AcquisitionConfig struct {
	Mode           string        `yaml:"mode"` // inline | status_poll
	MaxRetries     int           `yaml:"max_retries"`
	PollTimeoutMs  int           `yaml:"poll_timeout_ms"`
	RetryBackoffUs int           `yaml:"retry_backoff_us"`
	QueueSize      int           `yaml:"queue_size"`
	Control        ControlConfig `yaml:"control"`
}

type ControlConfig struct {
	DoutRdyDel  bool `yaml:"dout_rdy_del"`
	NotCSEn     bool `yaml:"not_cs_en"`
	RefEn       bool `yaml:"ref_en"`
	PowerMode   int  `yaml:"power_mode"`
	Mode        int  `yaml:"mode"`
	ClockSelect int  `yaml:"clock_select"`
}

// ---- SETUPS ----

type SetupConfig struct {
	Index   int  `yaml:"index"`
	Bipolar bool `yaml:"bipolar"`
	Burnout int  `yaml:"burnout"`
	RefBufP bool `yaml:"ref_buf_p"`
	RefBufM bool `yaml:"ref_buf_m"`
	AINBufP bool `yaml:"ain_buf_p"`
	AINBufM bool `yaml:"ain_buf_m"`
	RefSel  int  `yaml:"ref_sel"`
	PGA     int  `yaml:"pga"`

	Filter FilterConfig `yaml:"filter"`

	Offset *uint32 `yaml:"offset"`
	Gain   *uint32 `yaml:"gain"`
}

type FilterConfig struct {
	Type           int  `yaml:"type"`
	Rej60          bool `yaml:"rej60"`
	PostFilter     int  `yaml:"post_filter"`
	SingleCycle    bool `yaml:"single_cycle"`
	OutputDataRate int  `yaml:"output_data_rate"`
}

// ---- CHANNELS ----

type ChannelConfig struct {
	Number int    `yaml:"number"`
	Name   string `yaml:"name"`
	Setup  int    `yaml:"setup"`
	AINP   int    `yaml:"ainp"`
	AINM   int    `yaml:"ainm"`

	Kind  string  `yaml:"kind"` // raw | voltage | temperature
	Gain  float64 `yaml:"gain"` // 0 = PGA gain of the setup
	VRef  float64 `yaml:"vref"`
	Scale float64 `yaml:"scale"`
}

// ---- SINK ----

type SinkConfig struct {
	Console *bool         `yaml:"console"` // default true
	Modbus  *ModbusConfig `yaml:"modbus"`
}

type ModbusConfig struct {
	Endpoint    string `yaml:"endpoint"`
	UnitID      uint8  `yaml:"unit_id"`
	TimeoutMs   int    `yaml:"timeout_ms"`
	BaseAddress uint16 `yaml:"base_address"`
}

// Load reads and decodes path. It does not validate.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decode(f)
}

// Parse decodes a YAML document. Unknown keys are rejected.
func Parse(b []byte) (*Config, error) {
	return decode(bytes.NewReader(b))
}

func decode(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("config: empty document")
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
