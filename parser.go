package x10

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse parses the textual command grammar, case-insensitively:
//
//	[<hc>[<unit>]][":"<function>]
//
// <hc> is a single letter A..P, <unit> a decimal 1..16, and <function> one of
// the symbolic function names plus the aliases microdim/microbright and the
// extended form xpreset[<n>]. ExtendedCode is not accepted by name; it is
// reachable only through xpreset[<n>].
func Parse(s string) (Command, error) {
	var cmd Command
	lower := strings.ToLower(s)

	addrPart, funcPart, hasColon := lower, "", false
	if i := strings.IndexByte(lower, ':'); i >= 0 {
		addrPart, funcPart, hasColon = lower[:i], lower[i+1:], true
	}

	if addrPart != "" {
		if addrPart[0] < 'a' || addrPart[0] > 'p' {
			return Command{}, fmt.Errorf("%w: house code must be A..P, got %q", ErrInvalidCommand, s)
		}
		cmd.HC = HouseCode(addrPart[0] - 'a')
		cmd.HasHC = true

		if rest := addrPart[1:]; rest != "" {
			n, err := strconv.Atoi(rest)
			if err != nil {
				return Command{}, fmt.Errorf("%w: unit code must be a number, got %q", ErrInvalidCommand, s)
			}
			if n < 1 || n > 16 {
				return Command{}, fmt.Errorf("%w: unit code out of bounds [1..16], got %d", ErrInvalidCommand, n)
			}
			cmd.UC = UnitCode(n - 1)
			cmd.HasUC = true
			cmd.AddrRepeat = 2
		}
	}

	if hasColon {
		if err := parseFunction(funcPart, &cmd); err != nil {
			return Command{}, err
		}
	}

	return cmd, nil
}

func parseFunction(fn string, cmd *Command) error {
	cmd.FuncRepeat = 2
	switch {
	case fn == "allunitsoff":
		cmd.FC = FuncAllUnitsOff
	case fn == "alllightsoff":
		cmd.FC = FuncAllLightsOff
	case fn == "alllightson":
		cmd.FC = FuncAllLightsOn
	case fn == "off":
		cmd.FC = FuncOff
	case fn == "on":
		cmd.FC = FuncOn
	case fn == "dim":
		cmd.FC = FuncDim
	case fn == "bright":
		cmd.FC = FuncBright
	case fn == "microdim":
		cmd.FC = FuncDim
		cmd.FuncRepeat = 1
		cmd.Sticky = true
	case fn == "microbright":
		cmd.FC = FuncBright
		cmd.FuncRepeat = 1
		cmd.Sticky = true
	case fn == "status":
		cmd.FC = FuncStatusRequest
	case fn == "statuson":
		cmd.FC = FuncStatusOn
	case fn == "statusoff":
		cmd.FC = FuncStatusOff
	case fn == "hail", fn == "hailrequest":
		cmd.FC = FuncHailRequest
	case fn == "hailack":
		cmd.FC = FuncHailAck
	case fn == "presetdim1":
		cmd.FC = FuncPresetDim1
	case fn == "presetdim2":
		cmd.FC = FuncPresetDim2
	case fn == "statusrequest":
		cmd.FC = FuncStatusRequest
	case fn == "extendeddata":
		cmd.FC = FuncExtendedData
	case strings.HasPrefix(fn, "xpreset[") && strings.HasSuffix(fn, "]"):
		n, err := strconv.Atoi(fn[len("xpreset[") : len(fn)-1])
		if err != nil {
			return fmt.Errorf("%w: xpreset value must be a number, got %q", ErrInvalidCommand, fn)
		}
		if n < 0 || n > 63 {
			return fmt.Errorf("%w: xpreset value out of bounds [0..63], got %d", ErrInvalidCommand, n)
		}
		cmd.FC = FuncExtendedCode
		cmd.XByte1 = uint8(n)
		cmd.XByte2 = 0x31
		cmd.AddrRepeat = 0
	default:
		return fmt.Errorf("%w: unrecognized function %q", ErrInvalidCommand, fn)
	}
	cmd.HasFC = true
	return nil
}

// Format renders cmd back into the textual grammar Parse accepts, the
// inverse operation used by the parser round-trip property.
func Format(cmd Command) string {
	var b strings.Builder
	if cmd.HasHC {
		b.WriteString(strings.ToUpper(cmd.HC.String()))
		if cmd.HasUC {
			b.WriteString(cmd.UC.String())
		}
	}
	if cmd.HasFC {
		b.WriteByte(':')
		b.WriteString(formatFunction(cmd))
	}
	return b.String()
}

func formatFunction(cmd Command) string {
	switch {
	case cmd.FC == FuncDim && cmd.Sticky && cmd.FuncRepeat == 1:
		return "microdim"
	case cmd.FC == FuncBright && cmd.Sticky && cmd.FuncRepeat == 1:
		return "microbright"
	case cmd.FC == FuncExtendedCode && cmd.XByte2 == 0x31:
		return fmt.Sprintf("xpreset[%d]", cmd.XByte1)
	case cmd.FC == FuncStatusRequest:
		return "status"
	case cmd.FC == FuncHailRequest:
		return "hail"
	default:
		return strings.ToLower(cmd.FC.String())
	}
}
