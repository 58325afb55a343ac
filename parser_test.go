package x10

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParseAddressAndFunction(t *testing.T) {
	cmd, err := Parse("A1:On")
	require.NoError(t, err)
	require.Equal(t, HouseCode(0), cmd.HC)
	require.Equal(t, UnitCode(0), cmd.UC)
	require.Equal(t, FuncOn, cmd.FC)
	require.Equal(t, 2, cmd.AddrRepeat)
	require.Equal(t, 2, cmd.FuncRepeat)
}

func TestParseIsCaseInsensitive(t *testing.T) {
	upper, err := Parse("P16:BRIGHT")
	require.NoError(t, err)
	lower, err := Parse("p16:bright")
	require.NoError(t, err)
	require.True(t, upper.Equal(lower))
}

func TestParseAddressOnly(t *testing.T) {
	cmd, err := Parse("C4")
	require.NoError(t, err)
	require.True(t, cmd.HasHC)
	require.True(t, cmd.HasUC)
	require.False(t, cmd.HasFC)
}

func TestParseFunctionOnly(t *testing.T) {
	cmd, err := Parse("B:AllLightsOff")
	require.NoError(t, err)
	require.True(t, cmd.HasHC)
	require.False(t, cmd.HasUC)
	require.Equal(t, FuncAllLightsOff, cmd.FC)
}

func TestParseMicroDimSetsSingleStickyRepeat(t *testing.T) {
	cmd, err := Parse("A1:microdim")
	require.NoError(t, err)
	require.Equal(t, FuncDim, cmd.FC)
	require.Equal(t, 1, cmd.FuncRepeat)
	require.True(t, cmd.Sticky)
}

func TestParseXPreset(t *testing.T) {
	cmd, err := Parse("A1:xpreset[42]")
	require.NoError(t, err)
	require.Equal(t, FuncExtendedCode, cmd.FC)
	require.Equal(t, uint8(42), cmd.XByte1)
	require.Equal(t, uint8(0x31), cmd.XByte2)
	require.Equal(t, 0, cmd.AddrRepeat)
}

func TestParseRejectsBadHouseCode(t *testing.T) {
	_, err := Parse("Z1:On")
	require.ErrorIs(t, err, ErrInvalidCommand)
}

func TestParseRejectsUnitOutOfRange(t *testing.T) {
	_, err := Parse("A17:On")
	require.ErrorIs(t, err, ErrInvalidCommand)
}

func TestParseRejectsUnknownFunction(t *testing.T) {
	_, err := Parse("A1:sparkle")
	require.ErrorIs(t, err, ErrInvalidCommand)
}

func TestParseRejectsXPresetOutOfRange(t *testing.T) {
	_, err := Parse("A1:xpreset[64]")
	require.ErrorIs(t, err, ErrInvalidCommand)
}

func TestFormatAddressAndFunction(t *testing.T) {
	require.Equal(t, "A1:On", Format(Command{HasHC: true, HasUC: true, HasFC: true, FC: FuncOn}))
}

// TestParseFormatRoundTrip covers the textual grammar's round-trip property
// for the function names listed below, with and without a unit. Address-only
// strings, extendeddata and xpreset[<n>] are not drawn; the generic
// (non-xpreset) ExtendedCode form is excluded because the grammar never
// emits it directly.
func TestParseFormatRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		hc := rune('a' + rapid.IntRange(0, 15).Draw(rt, "hc"))
		unit := rapid.IntRange(1, 16).Draw(rt, "unit")

		names := []string{
			"allunitsoff", "alllightsoff", "alllightson", "off", "on",
			"dim", "bright", "microdim", "microbright", "status",
			"statuson", "statusoff", "hailrequest", "hailack",
			"presetdim1", "presetdim2",
		}
		fn := names[rapid.IntRange(0, len(names)-1).Draw(rt, "fn")]

		input := string(hc) + itoaIfPresent(rapid.Bool().Draw(rt, "hasUnit"), unit) + ":" + fn

		cmd, err := Parse(input)
		require.NoError(rt, err)

		again, err := Parse(Format(cmd))
		require.NoError(rt, err)
		require.True(rt, cmd.Equal(again), "round trip mismatch: %s -> %q -> %s", input, Format(cmd), again)
	})
}

func itoaIfPresent(present bool, n int) string {
	if !present {
		return ""
	}
	return Command{UC: UnitCode(n - 1)}.UC.String()
}
