// cmd/regdump/main.go
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"tinygo.org/x/drivers"

	"ad7124-go/drivers/ad7124"
	"ad7124-go/drivers/ad7124/sim"
	"ad7124-go/errcode"
	"ad7124-go/x/drvshim"
)

var (
	flagPort     = flag.String("port", "", "SPI port name (default from -position)")
	flagPosition = flag.Int("position", 1, "SPI position 1 or 2")
	flagSpeed    = flag.Int64("speed", 1_000_000, "SPI clock in Hz")
	flagSim      = flag.Bool("sim", false, "dump a simulated device")
	flagNoReset  = flag.Bool("no-reset", false, "dump without resetting the device first")
)

func main() {
	log.SetFlags(0)
	flag.Parse()

	if err := run(); err != nil {
		log.Printf("regdump: %v", err)
		os.Exit(errcode.ExitStatus(errcode.Of(err)))
	}
}

func run() error {
	bus, closeBus, err := openBus()
	if err != nil {
		return err
	}
	defer closeBus()

	dev := ad7124.New(bus, ad7124.Config{})
	if !*flagNoReset {
		if err := dev.Configure(); err != nil {
			return err
		}
		flags, err := dev.ReadErrorFlags()
		if err != nil {
			return err
		}
		if flags != 0 {
			log.Printf("warning: ERROR register 0x%06X", flags)
		}
	}

	regs, err := dev.DumpRegisters()
	for _, r := range regs {
		fmt.Println(r)
	}
	return err
}

func openBus() (drivers.SPI, func(), error) {
	if *flagSim {
		return sim.New(), func() {}, nil
	}
	port := *flagPort
	if port == "" {
		p, err := drvshim.PositionPort(*flagPosition)
		if err != nil {
			return nil, nil, &errcode.E{C: errcode.InvalidParams, Op: "args", Err: err}
		}
		port = p
	}
	if *flagSpeed <= 0 || *flagSpeed > int64(drvshim.MaxSpeed/physic.Hertz) {
		return nil, nil, &errcode.E{C: errcode.InvalidParams, Op: "args", Msg: fmt.Sprintf("speed %d Hz", *flagSpeed)}
	}
	p, err := drvshim.Open(drvshim.Config{
		Port:    port,
		Speed:   physic.Frequency(*flagSpeed) * physic.Hertz,
		Mode:    spi.Mode3,
		ModeSet: true,
	})
	if err != nil {
		return nil, nil, &errcode.E{C: errcode.BusError, Op: "open", Err: err}
	}
	return p, func() { _ = p.Close() }, nil
}
