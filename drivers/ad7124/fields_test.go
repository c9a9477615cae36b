package ad7124

import (
	"errors"
	"testing"
)

// Values used by the internal temperature sensor set-up.
func TestTemperatureSetupEncoding(t *testing.T) {
	cfg := SetupConfig{Bipolar: true, RefSel: RefSelInternal, AINBufP: true, AINBufM: true}
	if v, err := cfg.Value(); err != nil || v != 0x0870 {
		t.Fatalf("config=0x%04X,%v", v, err)
	}
	ch := ChannelConfig{Enable: true, Setup: 7, AINP: AINTemperature, AINM: AINTemperature}
	if v, err := ch.Value(); err != nil || v != 0xF210 {
		t.Fatalf("channel=0x%04X,%v", v, err)
	}
	ctrl := ADCControl{NotCSEn: true, RefEn: true, PowerMode: PowerModeFull}
	if v, err := ctrl.Value(); err != nil || v != 0x0380 {
		t.Fatalf("control=0x%04X,%v", v, err)
	}
}

func TestDecodeDefaults(t *testing.T) {
	cfg := DecodeSetupConfig(0x0860)
	if cfg != (SetupConfig{Bipolar: true, AINBufP: true, AINBufM: true}) {
		t.Fatalf("config=%+v", cfg)
	}
	f := DecodeFilterConfig(0x060180)
	if f != (FilterConfig{PostFilter: 3, OutputDataRate: 0x180}) {
		t.Fatalf("filter=%+v", f)
	}
	ch := DecodeChannelConfig(0x8001)
	if ch != (ChannelConfig{Enable: true, AINM: 1}) {
		t.Fatalf("channel=%+v", ch)
	}
}

func TestFieldRoundTrip(t *testing.T) {
	ctrl := ADCControl{DoutRdyDel: true, DataStatus: true, PowerMode: 2, Mode: ModeStandby, ClockSelect: 3}
	v, err := ctrl.Value()
	if err != nil {
		t.Fatal(err)
	}
	if got := DecodeADCControl(v); got != ctrl {
		t.Fatalf("control %+v -> 0x%04X -> %+v", ctrl, v, got)
	}

	f := FilterConfig{FilterType: FilterSinc3, Rej60: true, PostFilter: 5, SingleCycle: true, OutputDataRate: 0x7FF}
	v, err = f.Value()
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x5B07FF {
		t.Fatalf("filter=0x%06X", v)
	}
	if got := DecodeFilterConfig(v); got != f {
		t.Fatalf("filter %+v -> %+v", f, got)
	}

	s := SetupConfig{Burnout: 3, RefBufP: true, RefBufM: true, RefSel: RefSelAVdd, PGA: 7}
	v, err = s.Value()
	if err != nil {
		t.Fatal(err)
	}
	if got := DecodeSetupConfig(v); got != s {
		t.Fatalf("setup %+v -> %+v", s, got)
	}
}

func TestFieldOutOfRange(t *testing.T) {
	errs := []error{
		func() error { _, err := (ChannelConfig{Setup: 8}).Value(); return err }(),
		func() error { _, err := (ChannelConfig{AINP: 32}).Value(); return err }(),
		func() error { _, err := (ADCControl{Mode: 16}).Value(); return err }(),
		func() error { _, err := (SetupConfig{PGA: 8}).Value(); return err }(),
		func() error { _, err := (FilterConfig{OutputDataRate: 0}).Value(); return err }(),
		func() error { _, err := (FilterConfig{OutputDataRate: 2048}).Value(); return err }(),
	}
	for i, err := range errs {
		if !errors.Is(err, ErrFieldOutOfRange) || !errors.Is(err, ErrConfiguration) {
			t.Fatalf("case %d: err=%v", i, err)
		}
	}
}
