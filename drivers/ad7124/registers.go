package ad7124

import "fmt"

// Register is a 6-bit on-chip register address.
type Register uint8

// Register addresses (datasheet table 26).
const (
	RegComm      Register = 0x00 // W, shares the address with STATUS
	RegStatus    Register = 0x00 // R
	RegADCCtrl   Register = 0x01
	RegData      Register = 0x02
	RegIOCtrl1   Register = 0x03
	RegIOCtrl2   Register = 0x04
	RegID        Register = 0x05
	RegError     Register = 0x06
	RegErrorEn   Register = 0x07
	RegMCLKCount Register = 0x08

	RegCh0Map  Register = 0x09
	RegCh1Map  Register = 0x0A
	RegCh2Map  Register = 0x0B
	RegCh3Map  Register = 0x0C
	RegCh4Map  Register = 0x0D
	RegCh5Map  Register = 0x0E
	RegCh6Map  Register = 0x0F
	RegCh7Map  Register = 0x10
	RegCh8Map  Register = 0x11
	RegCh9Map  Register = 0x12
	RegCh10Map Register = 0x13
	RegCh11Map Register = 0x14
	RegCh12Map Register = 0x15
	RegCh13Map Register = 0x16
	RegCh14Map Register = 0x17
	RegCh15Map Register = 0x18

	RegConfig0 Register = 0x19
	RegConfig1 Register = 0x1A
	RegConfig2 Register = 0x1B
	RegConfig3 Register = 0x1C
	RegConfig4 Register = 0x1D
	RegConfig5 Register = 0x1E
	RegConfig6 Register = 0x1F
	RegConfig7 Register = 0x20

	RegFilter0 Register = 0x21
	RegFilter1 Register = 0x22
	RegFilter2 Register = 0x23
	RegFilter3 Register = 0x24
	RegFilter4 Register = 0x25
	RegFilter5 Register = 0x26
	RegFilter6 Register = 0x27
	RegFilter7 Register = 0x28

	RegOffset0 Register = 0x29
	RegOffset1 Register = 0x2A
	RegOffset2 Register = 0x2B
	RegOffset3 Register = 0x2C
	RegOffset4 Register = 0x2D
	RegOffset5 Register = 0x2E
	RegOffset6 Register = 0x2F
	RegOffset7 Register = 0x30

	RegGain0 Register = 0x31
	RegGain1 Register = 0x32
	RegGain2 Register = 0x33
	RegGain3 Register = 0x34
	RegGain4 Register = 0x35
	RegGain5 Register = 0x36
	RegGain6 Register = 0x37
	RegGain7 Register = 0x38
)

const (
	// NumRegisters is the size of the address space covered by the table.
	NumRegisters = 0x39
	// NumChannels and NumSetups bound the indexed register groups.
	NumChannels = 16
	NumSetups   = 8
)

// Access mode of a register.
type Access uint8

const (
	ReadOnly Access = iota + 1
	ReadWrite
)

func (a Access) String() string {
	switch a {
	case ReadOnly:
		return "RO"
	case ReadWrite:
		return "RW"
	default:
		return "?"
	}
}

// Descriptor is the static metadata of one register.
type Descriptor struct {
	Name    string
	Address Register
	Width   int // bytes, 1..3
	Default uint32
	Access  Access
}

var (
	channelRegs = [NumChannels]Register{
		RegCh0Map, RegCh1Map, RegCh2Map, RegCh3Map,
		RegCh4Map, RegCh5Map, RegCh6Map, RegCh7Map,
		RegCh8Map, RegCh9Map, RegCh10Map, RegCh11Map,
		RegCh12Map, RegCh13Map, RegCh14Map, RegCh15Map,
	}
	configRegs = [NumSetups]Register{
		RegConfig0, RegConfig1, RegConfig2, RegConfig3,
		RegConfig4, RegConfig5, RegConfig6, RegConfig7,
	}
	filterRegs = [NumSetups]Register{
		RegFilter0, RegFilter1, RegFilter2, RegFilter3,
		RegFilter4, RegFilter5, RegFilter6, RegFilter7,
	}
	offsetRegs = [NumSetups]Register{
		RegOffset0, RegOffset1, RegOffset2, RegOffset3,
		RegOffset4, RegOffset5, RegOffset6, RegOffset7,
	}
	gainRegs = [NumSetups]Register{
		RegGain0, RegGain1, RegGain2, RegGain3,
		RegGain4, RegGain5, RegGain6, RegGain7,
	}
)

// table is indexed by address. A zero Width marks an unused slot.
var table = buildTable()

func init() {
	if err := validateTable(table[:]); err != nil {
		panic(err)
	}
}

func buildTable() [NumRegisters]Descriptor {
	var t [NumRegisters]Descriptor
	set := func(name string, addr Register, width int, def uint32, acc Access) {
		t[addr] = Descriptor{Name: name, Address: addr, Width: width, Default: def, Access: acc}
	}

	set("STATUS", RegStatus, 1, 0x00, ReadOnly)
	set("ADC_CTRL", RegADCCtrl, 2, 0x0000, ReadWrite)
	set("DATA", RegData, 3, 0x000000, ReadOnly)
	set("IO_CTRL1", RegIOCtrl1, 3, 0x000000, ReadWrite)
	set("IO_CTRL2", RegIOCtrl2, 2, 0x0000, ReadWrite)
	set("ID", RegID, 1, 0x14, ReadOnly)
	set("ERROR", RegError, 3, 0x000000, ReadOnly)
	set("ERREN", RegErrorEn, 3, 0x000040, ReadWrite)
	set("MCLK_COUNT", RegMCLKCount, 1, 0x00, ReadOnly)

	for i, r := range channelRegs {
		def := uint32(0x0001)
		if i == 0 {
			def = 0x8001
		}
		set(fmt.Sprintf("CH%d_MAP", i), r, 2, def, ReadWrite)
	}
	for i := 0; i < NumSetups; i++ {
		set(fmt.Sprintf("CFG%d", i), configRegs[i], 2, 0x0860, ReadWrite)
		set(fmt.Sprintf("FILT%d", i), filterRegs[i], 3, 0x060180, ReadWrite)
		set(fmt.Sprintf("OFFS%d", i), offsetRegs[i], 3, 0x800000, ReadWrite)
		set(fmt.Sprintf("GAIN%d", i), gainRegs[i], 3, 0x500000, ReadWrite)
	}
	return t
}

// validateTable checks that every populated slot sits at its own address, has
// a legal width and a default that fits that width.
func validateTable(t []Descriptor) error {
	seen := make(map[Register]string, len(t))
	for i, d := range t {
		if d.Width == 0 {
			continue
		}
		if int(d.Address) != i {
			return fmt.Errorf("ad7124: register %s stored at 0x%02X, address 0x%02X", d.Name, i, d.Address)
		}
		if prev, dup := seen[d.Address]; dup {
			return fmt.Errorf("ad7124: registers %s and %s share address 0x%02X", prev, d.Name, d.Address)
		}
		seen[d.Address] = d.Name
		if d.Width < 1 || d.Width > 3 {
			return fmt.Errorf("ad7124: register %s width %d", d.Name, d.Width)
		}
		if d.Default > maxValue(d.Width) {
			return fmt.Errorf("ad7124: register %s default 0x%X exceeds %d bytes", d.Name, d.Default, d.Width)
		}
		if d.Access != ReadOnly && d.Access != ReadWrite {
			return fmt.Errorf("ad7124: register %s has no access mode", d.Name)
		}
	}
	return nil
}

// Lookup returns the descriptor for addr.
func Lookup(addr Register) (Descriptor, bool) {
	if int(addr) >= len(table) || table[addr].Width == 0 {
		return Descriptor{}, false
	}
	return table[addr], true
}

// Width returns the payload size of addr in bytes.
func Width(addr Register) (int, error) {
	d, ok := Lookup(addr)
	if !ok {
		return 0, fmt.Errorf("%w: 0x%02X", ErrRegisterOutOfRange, uint8(addr))
	}
	return d.Width, nil
}

// Registers returns every known register in address order.
func Registers() []Descriptor {
	out := make([]Descriptor, 0, len(table))
	for _, d := range table {
		if d.Width != 0 {
			out = append(out, d)
		}
	}
	return out
}

func (r Register) String() string {
	if d, ok := Lookup(r); ok {
		return d.Name
	}
	return fmt.Sprintf("REG(0x%02X)", uint8(r))
}

// ChannelReg returns the channel map register for channel 0..15.
func ChannelReg(ch int) (Register, error) {
	if ch < 0 || ch >= NumChannels {
		return 0, fmt.Errorf("%w: %d", ErrChannelOutOfRange, ch)
	}
	return channelRegs[ch], nil
}

// ConfigReg returns the configuration register of setup 0..7.
func ConfigReg(setup int) (Register, error) { return setupReg(&configRegs, setup) }

// FilterReg returns the filter register of setup 0..7.
func FilterReg(setup int) (Register, error) { return setupReg(&filterRegs, setup) }

// OffsetReg returns the offset register of setup 0..7.
func OffsetReg(setup int) (Register, error) { return setupReg(&offsetRegs, setup) }

// GainReg returns the gain register of setup 0..7.
func GainReg(setup int) (Register, error) { return setupReg(&gainRegs, setup) }

func setupReg(regs *[NumSetups]Register, setup int) (Register, error) {
	if setup < 0 || setup >= NumSetups {
		return 0, fmt.Errorf("%w: %d", ErrSetupOutOfRange, setup)
	}
	return regs[setup], nil
}

func maxValue(width int) uint32 {
	return uint32(1)<<(8*uint(width)) - 1
}
