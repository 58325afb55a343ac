package spi

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// PeriphDevice wraps a periph.io SPI connection as a Device. It's the real
// hardware side of the Device seam ("kernel-provided
// full-duplex byte-transfer primitive"); coproc.Engine is the in-memory
// stand-in used by tests.
type PeriphDevice struct {
	port spi.PortCloser
	conn spi.Conn
}

// OpenPeriphDevice initializes the periph.io host drivers and opens path
// (e.g. "/dev/spidev0.0" on Linux, or a spireg alias) at the given clock
// frequency and SPI mode. mode bit values match spi.Mode0..Mode3, optionally
// OR'd with spi.LSBFirst / spi.NoCS / spi.HalfDuplex.
func OpenPeriphDevice(path string, freq physic.Frequency, mode spi.Mode) (*PeriphDevice, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("spi: initializing host drivers: %w", err)
	}
	port, err := spireg.Open(path)
	if err != nil {
		return nil, fmt.Errorf("spi: opening %s: %w", path, err)
	}
	conn, err := port.Connect(freq, mode, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("spi: connecting to %s: %w", path, err)
	}
	return &PeriphDevice{port: port, conn: conn}, nil
}

// Tx performs one full-duplex exchange of equal-length w/r buffers.
func (d *PeriphDevice) Tx(w, r []byte) error {
	return d.conn.Tx(w, r)
}

// Close releases the underlying SPI port.
func (d *PeriphDevice) Close() error {
	return d.port.Close()
}

var _ Device = (*PeriphDevice)(nil)
