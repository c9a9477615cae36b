// cmd/voltmeter/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"tinygo.org/x/drivers"

	"ad7124-go/drivers/ad7124"
	"ad7124-go/drivers/ad7124/sim"
	"ad7124-go/errcode"
	"ad7124-go/services/acquire"
	"ad7124-go/services/config"
	"ad7124-go/services/sink"
	"ad7124-go/x/drvshim"
)

// ---------- Simulation ----------

const (
	simNotReadyPolls = 10
	simBackoff       = time.Millisecond
)

// Codes reported by the simulated device: +2.5 V on ch1 and 5 V on ch2 with
// the voltmeter preset, 25 C on the temperature channel.
var simCodes = map[int]uint32{
	1:  0xAAAAAA,
	2:  0x800000,
	15: 0x800000 + 4_041_240,
}

// ---------- Flags ----------

var (
	flagConfig   = flag.String("config", "", "YAML configuration file (overrides -preset)")
	flagPreset   = flag.String("preset", "voltmeter", "embedded configuration")
	flagPosition = flag.Int("position", 0, "SPI position 1 or 2 (overrides the configuration)")
	flagSim      = flag.Bool("sim", false, "use a simulated device instead of SPI")
	flagCount    = flag.Int("count", 0, "print at most this many readings (0 = until interrupted)")
	flagDuration = flag.Duration("duration", 0, "stop after this long (0 = until interrupted)")
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [channel ...]\n", os.Args[0])
		flag.PrintDefaults()
		fmt.Fprintf(flag.CommandLine.Output(), "presets: %v\n", config.Presets())
	}
	flag.Parse()

	if err := run(); err != nil {
		log.Printf("voltmeter: %v", err)
		os.Exit(errcode.ExitStatus(errcode.Of(err)))
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	bus, closeBus, err := openBus(cfg)
	if err != nil {
		return err
	}
	defer closeBus()

	dev := ad7124.New(bus, cfg.DeviceConfig())
	if err := dev.Configure(); err != nil {
		return err
	}
	log.Printf("AD7124 id=0x%02X", dev.ID())
	if flags, err := dev.ReadErrorFlags(); err != nil {
		return err
	} else if flags != 0 {
		log.Printf("warning: ERROR register 0x%06X", flags)
	}

	out, err := openSinks(cfg)
	if err != nil {
		return err
	}
	defer out.Close()

	loop, err := acquire.New(dev, cfg.AcquireConfig(log.New(os.Stderr, "acquire: ", log.LstdFlags)))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *flagDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *flagDuration)
		defer cancel()
	}

	start := time.Now()
	if err := loop.Start(ctx); err != nil {
		return err
	}

	readings := 0
	for *flagCount == 0 || readings < *flagCount {
		s, err := loop.Next(ctx)
		if err != nil {
			break
		}
		readings++
		if err := out.Write(s); err != nil {
			log.Printf("sink: %v", err)
		}
	}

	if err := loop.Stop(); err != nil {
		return err
	}
	// Whatever is still queued was measured; deliver it, up to -count.
	for _, s := range loop.Drain() {
		if *flagCount > 0 && readings >= *flagCount {
			break
		}
		readings++
		_ = out.Write(s)
	}

	elapsed := time.Since(start)
	st := loop.Stats()
	rate := 0.0
	if elapsed > 0 {
		rate = float64(readings) / elapsed.Seconds()
	}
	fmt.Printf("\n%d readings in %.3f s (%.1f/s)\n", readings, elapsed.Seconds(), rate)
	fmt.Printf("misses=%d transport_errors=%d overruns=%d\n", st.Misses, st.TransportErrors, st.Overruns)
	return nil
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if *flagConfig != "" {
		cfg, err = config.Load(*flagConfig)
	} else {
		cfg, err = config.Preset(*flagPreset)
	}
	if err != nil {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "config", Err: err}
	}

	if *flagPosition != 0 {
		cfg.Transport.Position = *flagPosition
		cfg.Transport.Port = ""
	}
	if *flagSim {
		cfg.Transport.Simulate = true
	}
	if cfg.Transport.Simulate && cfg.Acquisition.RetryBackoffUs == 0 {
		cfg.Acquisition.RetryBackoffUs = int(simBackoff / time.Microsecond)
	}

	var chans []int
	for _, a := range flag.Args() {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, &errcode.E{C: errcode.InvalidParams, Op: "args", Msg: "channel " + strconv.Quote(a)}
		}
		chans = append(chans, n)
	}
	if err := cfg.SelectChannels(chans); err != nil {
		return nil, err
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	config.Normalize(cfg)
	return cfg, nil
}

func openBus(cfg *config.Config) (drivers.SPI, func(), error) {
	if cfg.Transport.Simulate {
		s := sim.New()
		for ch, code := range simCodes {
			s.SetCode(ch, code)
		}
		s.SetNotReadyPolls(simNotReadyPolls)
		log.Printf("using simulated device")
		return s, func() {}, nil
	}
	p, err := drvshim.Open(cfg.SPIConfig())
	if err != nil {
		return nil, nil, &errcode.E{C: errcode.BusError, Op: "open", Err: err}
	}
	log.Printf("opened %s", p)
	return p, func() { _ = p.Close() }, nil
}

func openSinks(cfg *config.Config) (sink.Multi, error) {
	var out sink.Multi
	if cfg.ConsoleEnabled() {
		out = append(out, sink.NewConsole(os.Stdout, cfg.ChannelNames()))
	}
	if mc, ok := cfg.ModbusConfig(); ok {
		m, err := sink.DialModbus(mc)
		if err != nil {
			return nil, &errcode.E{C: errcode.BusError, Op: "modbus", Err: err}
		}
		out = append(out, m)
	}
	if len(out) == 0 {
		return nil, errors.New("no sinks enabled")
	}
	return out, nil
}
