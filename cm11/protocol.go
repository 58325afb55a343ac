// Package cm11 emulates the Activehome CM11 serial-interface dialect on top
// of the X10 wire codec and SPI transport, so unmodified
// Activehome-compatible automation software can drive the bridge.
package cm11

import (
	"fmt"

	x10 "github.com/flicker581/X10-raspberry"
)

// wbufCapacity is the upload record buffer size (CM11_WBUF_OCTETS in the
// reference C), large enough for an address byte, a function byte, and
// either a dim-level byte or a 3-byte extended payload.
const wbufCapacity = 10

// parseCommandHeader decodes a CM11 two-or-five-byte transmission header
// (addr/func type bit, extended bit, dim-level count) plus its house/code
// byte into a Command, returning the number of bytes consumed, 0 if buf
// doesn't yet hold a complete record, or an error if the header's transfer
// bit (0x04) is unset.
func parseCommandHeader(buf []byte) (x10.Command, int, error) {
	if len(buf) < 2 {
		return x10.Command{}, 0, nil
	}
	hdr := buf[0]
	if hdr&0x04 == 0 {
		return x10.Command{}, 0, fmt.Errorf("cm11: header %#02x is not a transfer", hdr)
	}
	dims := int((hdr >> 3) & 0x1F)
	isFunction := hdr&0x02 != 0
	isExtended := hdr&0x01 != 0

	code := buf[1]
	hc := x10.HouseCode(decodeNibble((code >> 4) & 0xF))

	var cmd x10.Command
	cmd.HC, cmd.HasHC = hc, true
	length := 2

	if isFunction {
		fc := x10.Function(decodeNibble(code & 0xF))
		cmd.FC, cmd.HasFC = fc, true
		if fc == x10.FuncDim || fc == x10.FuncBright {
			cmd.FuncRepeat = dims
		} else {
			cmd.FuncRepeat = 2
		}
	} else {
		cmd.UC, cmd.HasUC = x10.UnitCode(decodeNibble(code&0xF)), true
		cmd.AddrRepeat = 2
	}

	if isExtended {
		if len(buf) < 5 {
			return x10.Command{}, 0, nil
		}
		cmd.UC, cmd.HasUC = x10.UnitCode(decodeNibble(buf[2]&0xF)), true
		cmd.XByte1 = buf[3]
		cmd.XByte2 = buf[4]
		length = 5
	}

	return cmd, length, nil
}

// commandToBuffer renders cmd as a CM11 upload record, appending it to wbuf
// (which may already hold earlier records batched together) and returning
// the result. wbuf[0] is the record length; wbuf[1] is a bitmap marking
// which of the following bytes are function bytes versus address bytes
// (matching cm11_command_tobuffer's little-endian bit-per-position scheme).
func commandToBuffer(cmd x10.Command, wbuf []byte) []byte {
	if wbuf == nil {
		wbuf = make([]byte, 2, wbufCapacity)
	}
	i := int(wbuf[0])
	if i == 0 {
		i = 1
	}

	if i+1 > wbufCapacity-1 {
		return wbuf
	}
	if cmd.AddrRepeat > 0 {
		i++
		wbuf = growTo(wbuf, i+1)
		wbuf[i] = encodeNibble(uint8(cmd.HC))<<4 | encodeNibble(uint8(cmd.UC))
	}
	if cmd.FuncRepeat > 0 {
		i++
		wbuf = growTo(wbuf, i+1)
		wbuf[i] = encodeNibble(uint8(cmd.HC))<<4 | encodeNibble(uint8(cmd.FC))
		wbuf[1] |= 1 << uint(i-2)

		switch cmd.FC {
		case x10.FuncDim, x10.FuncBright:
			if i+1 > wbufCapacity-1 {
				return wbuf
			}
			i++
			wbuf = growTo(wbuf, i+1)
			level := (cmd.FuncRepeat-1)*11 + 3
			if level > 210 {
				level = 210
			}
			wbuf[i] = byte(level)
		case x10.FuncExtendedCode:
			if i+3 > wbufCapacity-1 {
				return wbuf
			}
			wbuf = growTo(wbuf, i+4)
			wbuf[i+1] = encodeNibble(uint8(cmd.UC))
			wbuf[i+2] = cmd.XByte1
			wbuf[i+3] = cmd.XByte2
			i += 3
		}
	}
	wbuf[0] = byte(i)
	return wbuf
}

func growTo(buf []byte, n int) []byte {
	if len(buf) >= n {
		return buf
	}
	grown := make([]byte, n)
	copy(grown, buf)
	return grown
}

// checksum is the CM11 ack checksum: a byte-wise sum, truncated to 8 bits.
func checksum(buf []byte) uint8 {
	var cs uint8
	for _, b := range buf {
		cs += b
	}
	return cs
}

func decodeNibble(n uint8) uint8 { return x10.OrdinalFromWireNibble(n) }
func encodeNibble(idx uint8) uint8 { return x10.WireNibble(idx) }
