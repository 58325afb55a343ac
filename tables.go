package x10

// houseUnitCode translates an ordinal index (house code A..P, unit code 1..16,
// or function code 0..15) to the 4-bit nibble that travels on the wire. The
// same table serves all three because X10 uses one nibble encoding across
// house, unit and function fields.
var houseUnitCode = [16]uint8{
	0b0110, 0b1110, 0b0010, 0b1010, 0b0001, 0b1001, 0b0101, 0b1101,
	0b0111, 0b1111, 0b0011, 0b1011, 0b0000, 0b1000, 0b0100, 0b1100,
}

// houseUnitDecode is the inverse of houseUnitCode: wire nibble -> ordinal index.
var houseUnitDecode = [16]uint8{
	12, 4, 2, 10, 14, 6, 0, 8, 13, 5, 3, 11, 15, 7, 1, 9,
}

// WireNibble exports houseUnitCode for callers outside the wire codec itself
// (the cm11 dialect packs the same house/unit/function nibble into its
// upload records rather than a raw ordinal).
func WireNibble(ordinal uint8) uint8 { return houseUnitCode[ordinal&0xF] }

// OrdinalFromWireNibble exports houseUnitDecode, the inverse of WireNibble.
func OrdinalFromWireNibble(nibble uint8) uint8 { return houseUnitDecode[nibble&0xF] }
