// Package coproc is an in-memory, goroutine-free simulation of the X10
// coprocessor's SPI dispatch and transmit state machine. It exists purely
// as a test/reference tool, standing in for the real ATtiny firmware (out of
// scope as hardware) behind a canned-bytes harness in its tests. Engine is
// never cross-compiled for the microcontroller and carries no AVR-specific
// code.
package coproc

import (
	"sync"

	x10 "github.com/flicker581/X10-raspberry"
	"github.com/flicker581/X10-raspberry/spi"
)

// Engine simulates the coprocessor's single-slot pending transmit queue and
// SPI request dispatch, matching main.c's main loop: at most one bitstream
// is ever "in flight" (has_bitstream), with room for exactly one more
// request to be chained behind it (has_postponed_rq). A mutex models the
// firmware's brief cli()/sei() critical sections rather than any real
// concurrency hazard, since Engine itself is single-threaded.
type Engine struct {
	mu sync.Mutex

	rrID   uint8
	rrCode uint8

	pending        *x10.Bitstream // bitstream currently being "transmitted"
	pendingIndex   int            // bits of pending already drained
	hasPostponedRq bool
	postponedBits  *x10.Bitstream

	rx x10.Bitstream // demodulated incoming line traffic, ring-fashion
}

// NewEngine returns a freshly reset Engine, matching the firmware's state at
// power-on (no bitstream in flight, rr_code/rr_id zero).
func NewEngine() *Engine {
	return &Engine{}
}

// Tx implements spi.Device: unmarshal the request frame, run one iteration
// of the dispatch switch, and marshal the current reply state back. This is
// the SPI ISR's job (copying spi_rx_message in, spi_tx_message out) plus the
// main loop's REQUEST_POLL/CANCEL/TRANSMIT switch, collapsed into a single
// synchronous call since the simulator has no separate ISR context.
func (e *Engine) Tx(w, r []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var req spi.Frame
	if err := req.UnmarshalBinary(w); err != nil {
		return err
	}

	// A bare POLL is never stored or dispatched (the firmware's rx_body
	// flag only latches for a non-POLL request code), and a CRC-invalid
	// request is ignored outright: spi_tx_message is left untouched, so
	// the host's next poll sees the same reply it would have before this
	// call.
	if req.RrCode != spi.RequestPoll {
		if err := req.Verify(); err == nil {
			e.dispatch(&req)
		}
	}

	e.advanceTransmit()

	reply := spi.Frame{RrCode: e.rrCode, RrID: e.rrID, Data: e.rxSnapshot()}
	reply.Finalize()
	buf, _ := reply.MarshalBinary()
	copy(r, buf)
	return nil
}

func (e *Engine) dispatch(req *spi.Frame) {
	switch req.RrCode {
	case spi.RequestCancel:
		e.pending = nil
		e.hasPostponedRq = false
		e.postponedBits = nil
		e.rrID = req.RrID
		e.rrCode = spi.ResponseComplete

	case spi.RequestTransmit:
		e.rrID = req.RrID
		bits := req.Data
		if e.pending == nil {
			e.pending = &bits
			e.pendingIndex = 0
			e.rrCode = spi.ResponseInProgress
		} else {
			e.hasPostponedRq = true
			e.postponedBits = &bits
			e.rrCode = spi.ResponseSeen
		}
	}
}

// advanceTransmit drains one simulated byte from the in-flight bitstream
// per call (standing in for the zero-crossing-paced byte-at-a-time drain in
// main.c), completing the transmission and chaining in any postponed
// request once it's fully drained.
func (e *Engine) advanceTransmit() {
	if e.pending == nil {
		return
	}
	remaining := e.pending.Tail - e.pendingIndex
	if remaining <= 0 {
		e.pending = nil
		e.rrCode = spi.ResponseComplete
		if e.hasPostponedRq {
			e.hasPostponedRq = false
			e.pending = e.postponedBits
			e.postponedBits = nil
			e.pendingIndex = 0
			e.rrCode = spi.ResponseInProgress
		}
		return
	}
	drain := 8
	if remaining < drain {
		drain = remaining
	}
	e.pendingIndex += drain
}

// FeedIncoming simulates the zero-crossing receiver demodulating one bit of
// line traffic, appending it to the ring buffer any POLL/CANCEL/TRANSMIT
// reply's Data field carries back to the host for decoding. Once full, the
// buffer wraps: it is cleared and Tail restarts at 0, matching the
// firmware's ring-indexed rx_x10_index.
func (e *Engine) FeedIncoming(bit uint8) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rx.Tail >= x10.BitstreamCapacity {
		e.rx = x10.Bitstream{}
	}
	idx, shift := e.rx.Tail/8, uint(7-e.rx.Tail%8)
	if bit != 0 {
		e.rx.Data[idx] |= 1 << shift
	} else {
		e.rx.Data[idx] &^= 1 << shift
	}
	e.rx.Tail++
}

func (e *Engine) rxSnapshot() x10.Bitstream {
	return e.rx
}

// Pending reports whether a transmit is currently in flight, for tests.
func (e *Engine) Pending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending != nil
}

var _ spi.Device = (*Engine)(nil)
