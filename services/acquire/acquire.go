// Package acquire runs continuous AD7124 conversions in a background goroutine
// and hands timestamped samples to a consumer through a bounded FIFO.
//
//	l, err := acquire.New(dev, cfg)
//	if err := l.Start(ctx); err != nil { ... } // Idle -> Configuring -> Running
//	for { s, err := l.Next(ctx); ... }
//	l.Stop()                                   // Running -> Stopping -> Idle
//
// While Running the loop holds an ad7124.Session, so register access through
// the Device fails with ad7124.ErrBusy until Stop returns.
package acquire

import (
	"fmt"
	"log"
	"os"
	"time"

	"ad7124-go/drivers/ad7124"
	"ad7124-go/errcode"
)

// State of a Loop.
type State int32

const (
	Idle State = iota
	Configuring
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Configuring:
		return "configuring"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Mode selects how readiness is detected.
type Mode uint8

const (
	// ModeInline reads DATA with the status byte appended. Start forces
	// ADC_CTRL.DATA_STATUS on.
	ModeInline Mode = iota
	// ModeStatusPoll reads STATUS until ready, then DATA.
	ModeStatusPoll
)

func (m Mode) String() string {
	if m == ModeStatusPoll {
		return "status-poll"
	}
	return "inline"
}

const (
	DefaultMaxRetries = 300
	DefaultQueueSize  = 1024
	MaxQueueSize      = 1 << 16
)

var (
	ErrAlreadyStarted = &errcode.E{C: errcode.Busy, Op: "acquire", Msg: "already started"}
	ErrNotRunning     = &errcode.E{C: errcode.NotRunning, Op: "acquire", Msg: "not running"}
)

// Setup is written to the four registers of setup Index.
type Setup struct {
	Index  int
	Config ad7124.SetupConfig
	Filter ad7124.FilterConfig
	Offset *uint32 // left at its current value if nil
	Gain   *uint32
}

// Channel is one enabled input. Map.Enable is forced on.
type Channel struct {
	Number     int
	Map        ad7124.ChannelConfig
	Conversion ad7124.Conversion
}

type Logger interface {
	Printf(format string, args ...any)
}

// Config of a Loop. Zero values select the defaults.
type Config struct {
	Setups   []Setup
	Channels []Channel
	Control  ad7124.ADCControl
	Mode     Mode

	// MaxRetries bounds the polls spent waiting for one conversion. Default 300.
	MaxRetries int
	// PollTimeout optionally bounds the same wait in wall-clock time.
	PollTimeout time.Duration
	// RetryBackoff is slept between not-ready polls. Default none.
	RetryBackoff time.Duration
	// QueueSize is rounded up to a power of two. Default 1024, at most
	// MaxQueueSize.
	QueueSize int

	Logger Logger
}

// Sample is one conversion result.
type Sample struct {
	Time    time.Time
	Channel uint8
	Raw     uint32
	Kind    ad7124.Kind
	Value   float64 // Raw converted per the channel's Conversion
	Err     bool    // status ERR bit was set with this result
}

// Stats are cumulative over the life of a Loop.
type Stats struct {
	Samples         uint64 // enqueued
	Misses          uint64 // retry budget exhausted
	TransportErrors uint64 // failed polls while running
	Overruns        uint64 // dropped because the queue was full
}

func validate(cfg *Config) error {
	if len(cfg.Channels) == 0 {
		return fmt.Errorf("acquire: no channels: %w", ad7124.ErrConfiguration)
	}
	if cfg.MaxRetries < 0 || cfg.QueueSize < 0 || cfg.PollTimeout < 0 || cfg.RetryBackoff < 0 {
		return fmt.Errorf("acquire: negative limit: %w", ad7124.ErrConfiguration)
	}
	if cfg.QueueSize > MaxQueueSize {
		return fmt.Errorf("acquire: queue size %d above %d: %w", cfg.QueueSize, MaxQueueSize, ad7124.ErrConfiguration)
	}
	if cfg.Mode != ModeInline && cfg.Mode != ModeStatusPoll {
		return fmt.Errorf("acquire: mode %d: %w", cfg.Mode, ad7124.ErrConfiguration)
	}
	var setups [ad7124.NumSetups]bool
	for _, s := range cfg.Setups {
		if s.Index < 0 || s.Index >= ad7124.NumSetups {
			return fmt.Errorf("acquire: setup %d: %w", s.Index, ad7124.ErrSetupOutOfRange)
		}
		if setups[s.Index] {
			return fmt.Errorf("acquire: setup %d listed twice: %w", s.Index, ad7124.ErrConfiguration)
		}
		setups[s.Index] = true
		if _, err := s.Config.Value(); err != nil {
			return fmt.Errorf("acquire: setup %d config: %w", s.Index, err)
		}
		if _, err := s.Filter.Value(); err != nil {
			return fmt.Errorf("acquire: setup %d filter: %w", s.Index, err)
		}
		for _, v := range []*uint32{s.Offset, s.Gain} {
			if v != nil && *v > ad7124.CodeMask {
				return fmt.Errorf("acquire: setup %d calibration 0x%X: %w", s.Index, *v, ad7124.ErrValueOutOfRange)
			}
		}
	}
	var chans [ad7124.NumChannels]bool
	for _, c := range cfg.Channels {
		if c.Number < 0 || c.Number >= ad7124.NumChannels {
			return fmt.Errorf("acquire: channel %d: %w", c.Number, ad7124.ErrChannelOutOfRange)
		}
		if chans[c.Number] {
			return fmt.Errorf("acquire: channel %d listed twice: %w", c.Number, ad7124.ErrConfiguration)
		}
		chans[c.Number] = true
		if _, err := c.Map.Value(); err != nil {
			return fmt.Errorf("acquire: channel %d: %w", c.Number, err)
		}
	}
	if _, err := cfg.Control.Value(); err != nil {
		return fmt.Errorf("acquire: adc control: %w", err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "acquire: ", log.LstdFlags)
	}
}

// conversions indexes each channel's Conversion by channel number. A voltage
// channel without an explicit gain takes the PGA gain of its setup.
func conversions(cfg *Config) [ad7124.NumChannels]ad7124.Conversion {
	var pga [ad7124.NumSetups]uint8
	for _, s := range cfg.Setups {
		pga[s.Index] = s.Config.PGA
	}
	var out [ad7124.NumChannels]ad7124.Conversion
	for _, c := range cfg.Channels {
		conv := c.Conversion
		if conv.Kind == ad7124.KindVoltage && conv.Gain == 0 {
			conv.Gain = ad7124.PGAGain(pga[c.Map.Setup&0x07])
		}
		out[c.Number] = conv
	}
	return out
}
