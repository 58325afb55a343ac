package spi

import (
	"encoding/binary"
	"fmt"

	x10 "github.com/flicker581/X10-raspberry"
)

// Request opcodes, carried in Frame.RrCode on a host -> coprocessor frame.
const (
	RequestPoll     uint8 = 0
	RequestCancel   uint8 = 1
	RequestTransmit uint8 = 2
)

// Progress codes, carried in Frame.RrCode on a coprocessor -> host frame.
// They are strictly ordered: for a given request id the code only moves
// forward (SEEN, INPROGRESS, COMPLETE) and may skip a step, as a CANCEL
// goes straight to COMPLETE.
const (
	ResponseSeen       uint8 = 1
	ResponseInProgress uint8 = 2
	ResponseComplete   uint8 = 3
)

// ProgressName renders a response progress code for logging.
func ProgressName(code uint8) string {
	switch code {
	case ResponseSeen:
		return "SEEN"
	case ResponseInProgress:
		return "INPROGRESS"
	case ResponseComplete:
		return "COMPLETE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", code)
	}
}

// frameLen is sizeof(spi_message_t) from the coprocessor's C header:
// 1 (rr_code) + 1 (rr_id) + 24 (bitstream data) + 1 (bitstream tail) + 2 (crc16).
const frameLen = 1 + 1 + x10.BitstreamCapacity/8 + 1 + 2

// Frame is the fixed-size, full-duplex SPI exchange unit: a
// request/response code, a rolling request id used to correlate polls with
// the in-flight transmit they're tracking, an X10 bitstream payload, and a
// trailing CRC-16 over everything preceding it.
type Frame struct {
	RrCode uint8
	RrID   uint8
	Data   x10.Bitstream
	Crc16  uint16
}

// MarshalBinary renders f in the coprocessor's packed wire layout.
func (f *Frame) MarshalBinary() ([]byte, error) {
	buf := make([]byte, frameLen)
	buf[0] = f.RrCode
	buf[1] = f.RrID
	copy(buf[2:2+len(f.Data.Data)], f.Data.Data[:])
	buf[2+len(f.Data.Data)] = uint8(f.Data.Tail)
	binary.LittleEndian.PutUint16(buf[frameLen-2:], f.Crc16)
	return buf, nil
}

// UnmarshalBinary parses a frameLen-byte wire buffer into f.
func (f *Frame) UnmarshalBinary(buf []byte) error {
	if len(buf) != frameLen {
		return fmt.Errorf("spi: frame must be %d bytes, got %d", frameLen, len(buf))
	}
	f.RrCode = buf[0]
	f.RrID = buf[1]
	copy(f.Data.Data[:], buf[2:2+len(f.Data.Data)])
	f.Data.Tail = int(buf[2+len(f.Data.Data)])
	f.Crc16 = binary.LittleEndian.Uint16(buf[frameLen-2:])
	return nil
}

// computedCrc returns the CRC that f's marshaled bytes (everything but the
// trailing CRC field itself) ought to carry.
func (f *Frame) computedCrc() uint16 {
	buf, _ := f.MarshalBinary()
	return CRC16(buf[:frameLen-2])
}

// Verify reports whether f's stored CRC matches its content.
func (f *Frame) Verify() error {
	if f.Crc16 != f.computedCrc() {
		return ErrCrcFailure
	}
	return nil
}

// Finalize recomputes and stores f's CRC, the last step before transmitting
// a request frame.
func (f *Frame) Finalize() {
	f.Crc16 = f.computedCrc()
}
