// Package spi implements the host-side half of the SPI framed request/reply
// protocol that talks to the X10 coprocessor.
package spi

import "errors"

var (
	// ErrCrcFailure is returned when a received Frame's stored CRC doesn't
	// match the CRC recomputed over its own bytes.
	ErrCrcFailure = errors.New("spi: crc failure")

	// ErrMaxRetriesExceeded is returned when MaxTries consecutive polls or
	// MaxTries+1 submit attempts all fail to produce a CRC-valid,
	// correctly-IDed reply.
	ErrMaxRetriesExceeded = errors.New("spi: max retries exceeded")

	// ErrUnexpectedRequestId is returned by Submit's final progress-gating loop
	// when the coprocessor's rr_id changes mid-poll, meaning some other
	// request displaced the one being tracked.
	ErrUnexpectedRequestId = errors.New("spi: unexpected request id mid-poll")
)
