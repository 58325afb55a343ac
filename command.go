package x10

import "fmt"

// HouseCode is an X10 house code, A..P stored as the ordinal 0..15.
type HouseCode uint8

// String renders the house code as its letter, A for 0 through P for 15.
func (h HouseCode) String() string {
	if h > 15 {
		return fmt.Sprintf("HouseCode(%d)", uint8(h))
	}
	return string(rune('A') + rune(h))
}

// UnitCode is an X10 unit code, 1..16 stored as the ordinal 0..15.
type UnitCode uint8

// String renders the unit code in its 1..16 user-facing form.
func (u UnitCode) String() string {
	return fmt.Sprintf("%d", uint8(u)+1)
}

// Function is one of the sixteen X10 function codes.
type Function uint8

const (
	FuncAllLightsOff  Function = 0
	FuncStatusOff     Function = 1
	FuncOn            Function = 2
	FuncPresetDim1    Function = 3
	FuncAllLightsOn   Function = 4
	FuncHailAck       Function = 5
	FuncBright        Function = 6
	FuncStatusOn      Function = 7
	FuncExtendedCode  Function = 8
	FuncStatusRequest Function = 9
	FuncOff           Function = 10
	FuncPresetDim2    Function = 11
	FuncAllUnitsOff   Function = 12
	FuncHailRequest   Function = 13
	FuncDim           Function = 14
	FuncExtendedData  Function = 15
)

var functionNames = [16]string{
	"AllLightsOff", "StatusOff", "On", "PresetDim1",
	"AllLightsOn", "HailAck", "Bright", "StatusOn",
	"ExtendedCode", "StatusRequest", "Off", "PresetDim2",
	"AllUnitsOff", "HailRequest", "Dim", "ExtendedData",
}

func (f Function) String() string {
	if int(f) < len(functionNames) {
		return functionNames[f]
	}
	return fmt.Sprintf("Function(%d)", uint8(f))
}

// Command is an abstract X10 command record: an address, a function, and the
// repeat/extended-payload metadata needed to encode or that a decode
// produced. HasHC/HasUC/HasFC distinguish "unset" from the zero ordinal
// (house A, unit 1, function AllLightsOff all being legitimate values).
type Command struct {
	HC    HouseCode
	HasHC bool
	UC    UnitCode
	HasUC bool
	FC    Function
	HasFC bool

	AddrRepeat int
	FuncRepeat int

	XByte1 uint8
	XByte2 uint8

	// Sticky suppresses the trailing 6-bit inter-frame pause so consecutive
	// dim/bright transmissions chain without a gap.
	Sticky bool
}

// Validate reports whether c is transmittable: a house code is set, and at
// least one of unit code or function is set; ExtendedCode additionally
// requires a unit code.
func (c Command) Validate() error {
	if !c.HasHC {
		return ErrHouseCodeRequired
	}
	if !c.HasUC && !c.HasFC {
		return ErrUnitOrFunctionRequired
	}
	if c.HasFC && c.FC == FuncExtendedCode && !c.HasUC {
		return ErrExtendedNeedsUnit
	}
	return nil
}

// Equal compares two commands for semantic equality, ignoring Sticky (which
// only affects encoding, not identity) and comparing extended payload fields
// only when FC is ExtendedCode.
func (c Command) Equal(other Command) bool {
	if c.HasHC != other.HasHC || (c.HasHC && c.HC != other.HC) {
		return false
	}
	if c.HasUC != other.HasUC || (c.HasUC && c.UC != other.UC) {
		return false
	}
	if c.HasFC != other.HasFC || (c.HasFC && c.FC != other.FC) {
		return false
	}
	if c.AddrRepeat != other.AddrRepeat || c.FuncRepeat != other.FuncRepeat {
		return false
	}
	if c.HasFC && c.FC == FuncExtendedCode {
		if c.XByte1 != other.XByte1 || c.XByte2 != other.XByte2 {
			return false
		}
	}
	return true
}

func (c Command) String() string {
	s := "?"
	if c.HasHC {
		s = c.HC.String()
	}
	if c.HasUC {
		s += c.UC.String()
	}
	if c.HasFC {
		s += ":" + c.FC.String()
	}
	return s
}
