// Package sink delivers acquisition samples to their consumers.
package sink

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"ad7124-go/drivers/ad7124"
	"ad7124-go/services/acquire"
)

// Sink consumes samples. Write is called from a single goroutine.
type Sink interface {
	Write(s acquire.Sample) error
	Close() error
}

// Console writes one line per sample.
type Console struct {
	mu    sync.Mutex
	w     io.Writer
	names map[uint8]string
}

// NewConsole writes to w. names optionally labels channels; unnamed channels
// print as "chN".
func NewConsole(w io.Writer, names map[uint8]string) *Console {
	return &Console{w: w, names: names}
}

func (c *Console) Write(s acquire.Sample) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := io.WriteString(c.w, Format(s, c.name(s.Channel))+"\n")
	return err
}

func (c *Console) name(ch uint8) string {
	if n, ok := c.names[ch]; ok && n != "" {
		return n
	}
	return fmt.Sprintf("ch%d", ch)
}

func (c *Console) Close() error { return nil }

// Format renders a sample as "15:04:05.000 name value unit".
func Format(s acquire.Sample, name string) string {
	ts := s.Time.Format("15:04:05.000")
	var v string
	switch s.Kind {
	case ad7124.KindVoltage:
		v = fmt.Sprintf("%+.6f V", s.Value)
	case ad7124.KindTemperature:
		v = fmt.Sprintf("%.2f C", s.Value)
	default:
		v = fmt.Sprintf("0x%06X", s.Raw)
	}
	if s.Err {
		v += " (err)"
	}
	return ts + " " + name + " " + v
}

// Multi fans a sample out to every sink. All sinks are written; errors are
// joined.
type Multi []Sink

func (m Multi) Write(s acquire.Sample) error {
	var errs []error
	for _, k := range m {
		if err := k.Write(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, k := range m {
		if err := k.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
