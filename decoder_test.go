package x10

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecoderStateStringsAreHumanReadable(t *testing.T) {
	require.Equal(t, "Idle", StateIdle.String())
	require.Equal(t, "Received", StateReceived.String())
	require.Equal(t, "Unknown", DecoderState(99).String())
}

func TestConsumerFuncAdapts(t *testing.T) {
	var got Command
	called := false
	c := ConsumerFunc(func(cmd Command) { got, called = cmd, true })
	c.Commit(Command{HC: 4, HasHC: true})
	require.True(t, called)
	require.Equal(t, HouseCode(4), got.HC)
}

// TestDecoderCommitsOnDistinctWordWithCorrectRepeatCount exercises the
// repeat-coalescing edge case precisely: a run of two identical address
// frames for unit 1 interrupted by a single differing frame for unit 2 must
// commit the first record with its own accumulated repeat count (2), not the
// repeat count belonging to whatever word displaced it.
func TestDecoderCommitsOnDistinctWordWithCorrectRepeatCount(t *testing.T) {
	var got []Command
	d := NewDecoder(ConsumerFunc(func(cmd Command) { got = append(got, cmd) }))

	bs := &Bitstream{}
	require.NoError(t, bs.AppendBasic(0, 0, false)) // house A, unit 1
	require.NoError(t, bs.AppendBasic(0, 0, false)) // repeat
	require.NoError(t, bs.AppendBasic(0, 1, false)) // house A, unit 2 (distinct)

	for i := 0; i < bs.Tail; i++ {
		d.Feed(bs.Bit(i))
	}
	for i := 0; i < 5; i++ {
		d.Feed(0)
	}

	require.Len(t, got, 2)
	require.Equal(t, UnitCode(0), got[0].UC)
	require.Equal(t, 2, got[0].AddrRepeat)
	require.Equal(t, UnitCode(1), got[1].UC)
	require.Equal(t, 1, got[1].AddrRepeat)
}

func TestDecoderRecoversFromGarbledPhase(t *testing.T) {
	d := NewDecoder(ConsumerFunc(func(Command) {}))
	for _, b := range []uint8{1, 1, 1, 0} {
		d.Feed(b)
	}
	require.Equal(t, StateBasic, d.State())
	// Neither "10" nor "01": an invalid phase pair forces recovery.
	d.Feed(1)
	d.Feed(1)
	require.Equal(t, StateRecover, d.State())
	// Six zero bits anywhere force a return to Idle.
	for i := 0; i < 6; i++ {
		d.Feed(0)
	}
	require.Equal(t, StateIdle, d.State())
}

func TestDecodeBitstreamEmpty(t *testing.T) {
	require.Empty(t, DecodeBitstream(&Bitstream{}))
}
