package spi

import (
	"log"
	"time"

	x10 "github.com/flicker581/X10-raspberry"
)

// MaxTries bounds both the CRC-valid-receive retry loop and the submit retry
// loop, matching the coprocessor firmware's MAX_SPI_TRIES.
const MaxTries = 10

// Device is the full-duplex, fixed-size exchange primitive a transport talks
// to: one Tx call is one SPI clock burst, request bytes out, reply bytes
// back, no read/write distinction. Both the real periph.io-backed device and
// the in-memory coprocessor simulator implement it.
type Device interface {
	Tx(w, r []byte) error
}

// Transport drives the reliable request/reply protocol on top of a Device:
// bounded-retry polling, id-correlated submission, and progress-gated
// waiting for a submitted request to reach a target progress code.
type Transport struct {
	Device Device

	// PollInterval is how long Submit sleeps between a submitted request's
	// acceptance and each following progress poll. Defaults to 200ms if zero.
	PollInterval time.Duration
	// RetryInterval is how long the submit loop sleeps between CRC/id
	// mismatches while trying to land a request. Defaults to 1ms if zero.
	RetryInterval time.Duration
}

func (t *Transport) pollInterval() time.Duration {
	if t.PollInterval > 0 {
		return t.PollInterval
	}
	return 200 * time.Millisecond
}

func (t *Transport) retryInterval() time.Duration {
	if t.RetryInterval > 0 {
		return t.RetryInterval
	}
	return time.Millisecond
}

// receive exchanges a zeroed poll frame and retries up to MaxTries times
// until a CRC-valid reply comes back.
func (t *Transport) receive() (*Frame, error) {
	req := &Frame{}
	reqBuf, _ := req.MarshalBinary()
	var reply Frame
	var lastErr error
	for try := MaxTries; try > 0; try-- {
		respBuf := make([]byte, frameLen)
		if err := t.Device.Tx(reqBuf, respBuf); err != nil {
			lastErr = err
			continue
		}
		if err := reply.UnmarshalBinary(respBuf); err != nil {
			lastErr = err
			continue
		}
		if err := reply.Verify(); err != nil {
			log.Printf("spi: incoming frame CRC error, %d tries remaining", try-1)
			lastErr = err
			continue
		}
		return &reply, nil
	}
	if lastErr == nil {
		lastErr = ErrMaxRetriesExceeded
	}
	return nil, ErrMaxRetriesExceeded
}

// Poll issues a single bare poll request and returns whatever reply the
// coprocessor currently has pending.
func (t *Transport) Poll() (*Frame, error) {
	return t.receive()
}

// Cancel requests the coprocessor abandon its pending transmit, if any.
func (t *Transport) Cancel() (*Frame, error) {
	poll, err := t.receive()
	if err != nil {
		return nil, err
	}
	req := &Frame{RrCode: RequestCancel, RrID: (poll.RrID + 1) % 256}
	req.Finalize()
	return t.submit(req)
}

// Submit transmits the already encoded bs, retrying until the coprocessor echoes
// back the request id it was given, then polls until targetCode is reached
// or exceeded. targetCode is usually ResponseSeen
// ("fire and forget", the CLI's --ff mode) or ResponseInProgress (wait until
// the coprocessor has actually started transmitting, the default).
func (t *Transport) Submit(bs *x10.Bitstream, targetCode uint8) (*Frame, error) {
	poll, err := t.receive()
	if err != nil {
		return nil, err
	}

	req := &Frame{RrCode: RequestTransmit, RrID: (poll.RrID + 1) % 256, Data: *bs}
	req.Finalize()

	reply, err := t.submit(req)
	if err != nil {
		return nil, err
	}

	for reply.RrCode < targetCode {
		time.Sleep(t.pollInterval())
		reply, err = t.receive()
		if err != nil {
			return nil, err
		}
		if reply.RrID != req.RrID {
			return nil, ErrUnexpectedRequestId
		}
	}
	return reply, nil
}

// submit is the shared id-correlated retry loop used by Submit and Cancel:
// keep re-sending req until the coprocessor's reply is CRC-valid and echoes
// req's id, meaning the request actually landed.
func (t *Transport) submit(req *Frame) (*Frame, error) {
	reqBuf, _ := req.MarshalBinary()
	var reply Frame
	for try := MaxTries + 1; try > 0; try-- {
		respBuf := make([]byte, frameLen)
		if err := t.Device.Tx(reqBuf, respBuf); err != nil {
			time.Sleep(t.retryInterval())
			continue
		}
		if err := reply.UnmarshalBinary(respBuf); err == nil {
			if verr := reply.Verify(); verr == nil && reply.RrID == req.RrID {
				return &reply, nil
			}
		}
		time.Sleep(t.retryInterval())
	}
	return nil, ErrMaxRetriesExceeded
}
