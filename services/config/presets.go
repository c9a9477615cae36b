package config

import (
	"fmt"
	"sort"
)

// Voltmeter: channel 1 reads -7.5..+7.5 V on AIN2/AIN3, channel 2 reads
// 0..10 V on AIN4/AIN5, both through a divider onto the 2.5 V reference.
const cfgVoltmeter = `
transport:
  position: 1
acquisition:
  mode: inline
  control:
    power_mode: 2
setups:
  - index: 1
    bipolar: true
    ref_buf_p: true
    ref_buf_m: true
    ain_buf_p: true
    ain_buf_m: true
    filter:
      type: 0
      post_filter: 0
      output_data_rate: 0x200
  - index: 2
    bipolar: false
    ref_buf_p: true
    ref_buf_m: true
    ain_buf_p: true
    ain_buf_m: true
    filter:
      type: 0
      post_filter: 0
      output_data_rate: 0x200
channels:
  - number: 1
    name: v1
    setup: 1
    ainp: 2
    ainm: 3
    kind: voltage
    vref: 2.5
    scale: 3    # 7.5 / 2.5
  - number: 2
    name: v2
    setup: 2
    ainp: 4
    ainm: 5
    kind: voltage
    vref: 2.5
    scale: 4    # 10 / 2.5
`

// Temperature: the internal sensor on channel 15, setup 7, against the
// internal reference.
const cfgTemperature = `
transport:
  position: 1
acquisition:
  mode: status_poll
  control:
    not_cs_en: true
    ref_en: true
    power_mode: 2
setups:
  - index: 7
    bipolar: true
    ain_buf_p: true
    ain_buf_m: true
    ref_sel: 2
    filter:
      post_filter: 3
      output_data_rate: 0x180
channels:
  - number: 15
    name: temp
    setup: 7
    ainp: 16
    ainm: 16
    kind: temperature
`

var embeddedConfigs = map[string]string{
	"voltmeter":   cfgVoltmeter,
	"temperature": cfgTemperature,
}

// Presets lists the embedded configuration names.
func Presets() []string {
	out := make([]string, 0, len(embeddedConfigs))
	for k := range embeddedConfigs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Preset parses an embedded configuration. The result is not normalised.
func Preset(name string) (*Config, error) {
	raw, ok := embeddedConfigs[name]
	if !ok {
		return nil, fmt.Errorf("config: no preset %q", name)
	}
	return Parse([]byte(raw))
}

// SelectChannels keeps only the listed channel numbers and the setups they
// use. An empty list keeps everything.
func (c *Config) SelectChannels(nums []int) error {
	if len(nums) == 0 {
		return nil
	}
	want := map[int]bool{}
	for _, n := range nums {
		want[n] = true
	}
	var chans []ChannelConfig
	used := map[int]bool{}
	for _, ch := range c.Channels {
		if want[ch.Number] {
			chans = append(chans, ch)
			used[ch.Setup] = true
			delete(want, ch.Number)
		}
	}
	if len(want) > 0 {
		missing := make([]int, 0, len(want))
		for n := range want {
			missing = append(missing, n)
		}
		sort.Ints(missing)
		return invalid("channels %v not configured", missing)
	}
	var setups []SetupConfig
	for _, s := range c.Setups {
		if used[s.Index] {
			setups = append(setups, s)
		}
	}
	c.Channels, c.Setups = chans, setups
	return nil
}
