package coproc

import (
	"testing"

	"github.com/stretchr/testify/require"

	x10 "github.com/flicker581/X10-raspberry"
	"github.com/flicker581/X10-raspberry/spi"
)

func poll(t *testing.T, e *Engine) *spi.Frame {
	t.Helper()
	req := spi.Frame{}
	reqBuf, _ := req.MarshalBinary()
	respBuf := make([]byte, len(reqBuf))
	require.NoError(t, e.Tx(reqBuf, respBuf))
	var resp spi.Frame
	require.NoError(t, resp.UnmarshalBinary(respBuf))
	require.NoError(t, resp.Verify())
	return &resp
}

func TestEngineBarePollDoesNotAdvanceState(t *testing.T) {
	e := NewEngine()
	first := poll(t, e)
	second := poll(t, e)
	require.Equal(t, first.RrCode, second.RrCode)
	require.Equal(t, first.RrID, second.RrID)
}

func TestEngineTransmitGoesInProgressThenComplete(t *testing.T) {
	e := NewEngine()
	p := poll(t, e)

	cmd := x10.Command{HC: 0, HasHC: true, UC: 0, HasUC: true, AddrRepeat: 2}
	bs, err := x10.EncodeCommand(cmd)
	require.NoError(t, err)

	req := spi.Frame{RrCode: spi.RequestTransmit, RrID: (p.RrID + 1) % 256, Data: *bs}
	req.Finalize()
	reqBuf, _ := req.MarshalBinary()
	respBuf := make([]byte, len(reqBuf))
	require.NoError(t, e.Tx(reqBuf, respBuf))

	var resp spi.Frame
	require.NoError(t, resp.UnmarshalBinary(respBuf))
	require.NoError(t, resp.Verify())
	require.Equal(t, spi.ResponseInProgress, resp.RrCode)
	require.True(t, e.Pending())

	for e.Pending() {
		poll(t, e)
	}
	final := poll(t, e)
	require.Equal(t, spi.ResponseComplete, final.RrCode)
}

func TestEngineSecondTransmitIsSeenThenChained(t *testing.T) {
	e := NewEngine()
	p := poll(t, e)

	cmd := x10.Command{HC: 0, HasHC: true, UC: 0, HasUC: true, AddrRepeat: 3}
	bs, err := x10.EncodeCommand(cmd)
	require.NoError(t, err)

	req1 := spi.Frame{RrCode: spi.RequestTransmit, RrID: (p.RrID + 1) % 256, Data: *bs}
	req1.Finalize()
	buf1, _ := req1.MarshalBinary()
	respBuf := make([]byte, len(buf1))
	require.NoError(t, e.Tx(buf1, respBuf))

	req2 := spi.Frame{RrCode: spi.RequestTransmit, RrID: (req1.RrID + 1) % 256, Data: *bs}
	req2.Finalize()
	buf2, _ := req2.MarshalBinary()
	require.NoError(t, e.Tx(buf2, respBuf))
	var resp2 spi.Frame
	require.NoError(t, resp2.UnmarshalBinary(respBuf))
	require.Equal(t, spi.ResponseSeen, resp2.RrCode)

	// Once the first transmission drains, the postponed one takes its place.
	reply := poll(t, e)
	for reply.RrCode == spi.ResponseSeen {
		reply = poll(t, e)
	}
	require.Equal(t, spi.ResponseInProgress, reply.RrCode)
	require.Equal(t, req2.RrID, reply.RrID)
	require.True(t, e.Pending())
}

func TestEngineCancelClearsPending(t *testing.T) {
	e := NewEngine()
	p := poll(t, e)

	cmd := x10.Command{HC: 0, HasHC: true, UC: 0, HasUC: true, AddrRepeat: 3}
	bs, err := x10.EncodeCommand(cmd)
	require.NoError(t, err)

	req := spi.Frame{RrCode: spi.RequestTransmit, RrID: (p.RrID + 1) % 256, Data: *bs}
	req.Finalize()
	buf, _ := req.MarshalBinary()
	respBuf := make([]byte, len(buf))
	require.NoError(t, e.Tx(buf, respBuf))
	require.True(t, e.Pending())

	cancel := spi.Frame{RrCode: spi.RequestCancel, RrID: (req.RrID + 1) % 256}
	cancel.Finalize()
	cbuf, _ := cancel.MarshalBinary()
	require.NoError(t, e.Tx(cbuf, respBuf))
	require.False(t, e.Pending())
}

func TestEngineFeedIncomingSurfacesOnNextPoll(t *testing.T) {
	e := NewEngine()
	for _, b := range []uint8{1, 1, 1, 0, 0, 1} {
		e.FeedIncoming(b)
	}
	resp := poll(t, e)
	require.Equal(t, 6, resp.Data.Tail)
	require.Equal(t, uint8(1), resp.Data.Bit(0))
	require.Equal(t, uint8(0), resp.Data.Bit(4))
}
