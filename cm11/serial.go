package cm11

import (
	"io"

	"github.com/jacobsa/go-serial/serial"
)

// NewSerialPeer opens path as an 8N1 serial line at baud, suitable for
// passing to Run as the host-facing peer.
func NewSerialPeer(path string, baud uint) (io.ReadWriteCloser, error) {
	opts := serial.OpenOptions{
		PortName:              path,
		BaudRate:              baud,
		DataBits:              8,
		StopBits:              1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
		MinimumReadSize:       1,
	}
	return serial.Open(opts)
}
