package x10

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestBitstreamAppendBasicAdvancesTailBy22(t *testing.T) {
	bs := &Bitstream{}
	require.NoError(t, bs.AppendBasic(0, 0, false))
	require.Equal(t, 22, bs.Tail)
}

func TestBitstreamAppendExtendedPayloadAdvancesTailBy40(t *testing.T) {
	bs := &Bitstream{}
	require.NoError(t, bs.AppendExtendedPayload(0, 0xAA, 0x55))
	require.Equal(t, 40, bs.Tail)
}

func TestBitstreamPauseAdvancesTailByN(t *testing.T) {
	bs := &Bitstream{}
	require.NoError(t, bs.Pause(6))
	require.Equal(t, 6, bs.Tail)
}

func TestBitstreamEncodeOnDefaultRepeatsHasTail100(t *testing.T) {
	cmd := Command{HC: 0, HasHC: true, UC: 0, HasUC: true, FC: FuncOn, HasFC: true, AddrRepeat: 2, FuncRepeat: 2}
	bs, err := EncodeCommand(cmd)
	require.NoError(t, err)
	require.Equal(t, 100, bs.Tail)
}

func TestBitstreamFullAt192Boundary(t *testing.T) {
	bs := &Bitstream{Tail: 192 - 6}
	require.NoError(t, bs.Pause(6))
	require.Equal(t, 192, bs.Tail)

	bs2 := &Bitstream{Tail: 192 - 6}
	require.ErrorIs(t, bs2.Pause(7), ErrBitstreamFull)
}

func TestBitstreamAppendBasicFailsPastCapacity(t *testing.T) {
	bs := &Bitstream{Tail: 192 - 21}
	require.ErrorIs(t, bs.AppendBasic(0, 0, false), ErrBitstreamFull)
	require.Equal(t, 192-21, bs.Tail, "a failed append must not partially mutate the stream")
}

func TestBitstreamConcatIsAssociative(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		mk := func(n int) *Bitstream {
			bs := &Bitstream{}
			for i := 0; i < n; i++ {
				_ = bs.appendBit(uint8(rapid.IntRange(0, 1).Draw(rt, "bit")))
			}
			return bs
		}
		a := mk(rapid.IntRange(0, 60).Draw(rt, "na"))
		b := mk(rapid.IntRange(0, 60).Draw(rt, "nb"))
		c := mk(rapid.IntRange(0, 60).Draw(rt, "nc"))

		left := &Bitstream{Data: a.Data, Tail: a.Tail}
		err1 := left.Concat(b)
		if err1 == nil {
			err1 = left.Concat(c)
		}

		bc := &Bitstream{Data: b.Data, Tail: b.Tail}
		errBC := bc.Concat(c)
		right := &Bitstream{Data: a.Data, Tail: a.Tail}
		var err2 error
		if errBC == nil {
			err2 = right.Concat(bc)
		} else {
			err2 = errBC
		}

		if (err1 == nil) != (err2 == nil) {
			rt.Fatalf("associativity mismatch in success: %v vs %v", err1, err2)
		}
		if err1 == nil {
			if left.Tail != right.Tail {
				rt.Fatalf("tail mismatch: %d vs %d", left.Tail, right.Tail)
			}
			for i := 0; i < left.Tail; i++ {
				if left.Bit(i) != right.Bit(i) {
					rt.Fatalf("bit %d mismatch", i)
				}
			}
		}
	})
}
