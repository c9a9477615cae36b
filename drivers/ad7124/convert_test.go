package ad7124

import (
	"math"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestToVoltage(t *testing.T) {
	if got := ToVoltage(0x800000, 1, 2.5, true, 1); got != 0 {
		t.Fatalf("bipolar midscale=%v", got)
	}
	if got := ToVoltage(0xFFFFFF, 1, 2.5, false, 1); !near(got, 2.5) {
		t.Fatalf("unipolar fullscale=%v", got)
	}
	if got := ToVoltage(0, 1, 2.5, false, 1); got != 0 {
		t.Fatalf("unipolar zero=%v", got)
	}
	if got := ToVoltage(0xFFFFFF, 1, 2.5, true, 1); !near(got, 2.5) {
		t.Fatalf("bipolar fullscale=%v", got)
	}
	// divider scale and PGA gain
	if got := ToVoltage(0xFFFFFF, 2, 2.5, false, 4); !near(got, 5) {
		t.Fatalf("scaled=%v", got)
	}
	// only 24 bits count
	if got := ToVoltage(0xFF800000, 1, 2.5, true, 1); got != 0 {
		t.Fatalf("masked=%v", got)
	}
}

func TestToTemperature(t *testing.T) {
	if got := ToTemperature(0x800000); got != -272.5 {
		t.Fatalf("midscale=%v", got)
	}
	if got := ToTemperature(0x800000 + 13584); !near(got, -271.5) {
		t.Fatalf("one degree=%v", got)
	}
}

func TestPGAGain(t *testing.T) {
	for pga, want := range []float64{1, 2, 4, 8, 16, 32, 64, 128} {
		if got := PGAGain(uint8(pga)); got != want {
			t.Fatalf("PGAGain(%d)=%v", pga, got)
		}
	}
}

func TestConversionApply(t *testing.T) {
	raw := Conversion{}
	if got := raw.Apply(0x123456); got != 0x123456 {
		t.Fatalf("raw=%v", got)
	}
	v := Conversion{Kind: KindVoltage, Bipolar: true, Scale: 7.5 / 2.5}
	if got := v.Apply(0xFFFFFF); !near(got, 7.5) {
		t.Fatalf("voltage=%v", got)
	}
	temp := Conversion{Kind: KindTemperature}
	if got := temp.Apply(0x800000); got != -272.5 {
		t.Fatalf("temperature=%v", got)
	}
	if KindTemperature.String() != "temperature" || KindRaw.String() != "raw" {
		t.Fatal("kind names")
	}
}
