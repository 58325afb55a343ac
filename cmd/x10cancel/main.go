package main

import (
	"fmt"
	"os"

	"gopkg.in/alecthomas/kingpin.v2"
	"periph.io/x/conn/v3/physic"
	periphspi "periph.io/x/conn/v3/spi"

	"github.com/flicker581/X10-raspberry/spi"
)

var (
	devicePath = kingpin.Flag("device", "Path to the SPI device").Required().String()
	speedHz    = kingpin.Flag("speed", "SPI clock frequency in Hz").Default("1000000").Uint()
)

func main() {
	kingpin.Version("0.1")
	kingpin.Parse()

	dev, err := spi.OpenPeriphDevice(*devicePath, physic.Frequency(*speedHz)*physic.Hertz, periphspi.Mode0)
	if err != nil {
		fmt.Printf("Error opening SPI device: %v\n", err)
		os.Exit(1)
	}
	defer dev.Close()

	t := &spi.Transport{Device: dev}
	reply, err := t.Cancel()
	if err != nil {
		fmt.Printf("Error cancelling pending transmission: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Cancelled, coprocessor reports %s\n", spi.ProgressName(reply.RrCode))
}
