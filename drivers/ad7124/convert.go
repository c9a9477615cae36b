package ad7124

// Conversion constants for a 24-bit code.
const (
	CodeMask      = 0xFFFFFF
	CodeMidscale  = 0x800000
	codeFullscale = 0xFFFFFF
	codeHalfscale = 0x7FFFFF

	// Internal temperature sensor, datasheet: (code - 0x800000)/13584 - 272.5.
	tempCodesPerDegree = 13584
	tempOffsetC        = 272.5

	// InternalVRef is the on-chip reference voltage.
	InternalVRef = 2.5
)

// ToVoltage converts a raw code to volts at the input pins, multiplied by
// scale to undo any external divider. gain must be non-zero.
//
//	unipolar: code/0xFFFFFF * vref/gain
//	bipolar:  (code-0x800000)/0x7FFFFF * vref/gain
func ToVoltage(raw uint32, gain, vref float64, bipolar bool, scale float64) float64 {
	code := float64(raw & CodeMask)
	var v float64
	if bipolar {
		v = (code - CodeMidscale) / codeHalfscale
	} else {
		v = code / codeFullscale
	}
	return v * vref / gain * scale
}

// ToTemperature converts a raw code from the internal sensor to °C using the
// datasheet formula.
func ToTemperature(raw uint32) float64 {
	code := float64(raw & CodeMask)
	return (code-CodeMidscale)/tempCodesPerDegree - tempOffsetC
}

// PGAGain returns the gain selected by a 3-bit PGA field (1..128).
func PGAGain(pga uint8) float64 {
	return float64(uint32(1) << (pga & 0x07))
}

// Kind selects how a channel's codes are interpreted.
type Kind uint8

const (
	KindRaw Kind = iota
	KindVoltage
	KindTemperature
)

func (k Kind) String() string {
	switch k {
	case KindVoltage:
		return "voltage"
	case KindTemperature:
		return "temperature"
	default:
		return "raw"
	}
}

// Conversion binds the conversion parameters of one channel. Zero Gain and
// Scale mean 1, zero VRef means InternalVRef.
type Conversion struct {
	Kind    Kind
	Gain    float64
	VRef    float64
	Bipolar bool
	Scale   float64
}

// Apply converts raw according to c.Kind. KindRaw returns the code itself.
func (c Conversion) Apply(raw uint32) float64 {
	switch c.Kind {
	case KindVoltage:
		gain, vref, scale := c.Gain, c.VRef, c.Scale
		if gain == 0 {
			gain = 1
		}
		if vref == 0 {
			vref = InternalVRef
		}
		if scale == 0 {
			scale = 1
		}
		return ToVoltage(raw, gain, vref, c.Bipolar, scale)
	case KindTemperature:
		return ToTemperature(raw)
	default:
		return float64(raw & CodeMask)
	}
}
