package cm11

import (
	"io"
	"log"
	"time"

	x10 "github.com/flicker581/X10-raspberry"
	"github.com/flicker581/X10-raspberry/appdrivers"
	"github.com/flicker581/X10-raspberry/spi"
)

// State names the CM11 emulator's three-state serial dialect.
type State int

const (
	// Ready is the idle state: waiting for either a fresh transmission
	// header from the host or a PLC-originated command to offer it.
	Ready State = iota
	// TxAck is entered after acking a parsed transmission with its
	// checksum byte; waiting for the host's 0x00 "go ahead" byte.
	TxAck
	// RxPoll is entered after offering the host a 0x5A poll byte for a
	// pending PLC-originated command; waiting for the host's 0xC3 ack.
	RxPoll
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case TxAck:
		return "tx-ack"
	case RxPoll:
		return "rx-poll"
	default:
		return "unknown"
	}
}

const (
	pollByte    = 0x5A
	pollAckByte = 0xC3
	execByte    = 0x00
	execAckByte = 0x55
)

// Transmitter is the SPI-side seam Emulator drives, satisfied by
// *spi.Transport. It exists so tests can substitute a fake without a real
// Device underneath.
type Transmitter interface {
	Submit(bs *x10.Bitstream, targetCode uint8) (*spi.Frame, error)
	Poll() (*spi.Frame, error)
}

// Emulator is the byte-level CM11 state machine: it turns a stream of raw
// host bytes into X10 transmissions via a Transmitter, and turns
// PLC-originated X10 traffic (fed in bit by bit from SPI polls) into upload
// records offered back to the host.
type Emulator struct {
	state State

	rbuf      []byte
	freshRbuf bool

	wbuf []byte

	cbuf    []byte
	hasCbuf bool

	pending x10.Command

	tx      Transmitter
	decoder *x10.Decoder

	// Logger receives the same play-by-play the reference driver sent
	// through plog(): a PLC-originated command committing, and a
	// host-originated transmission executing. Defaults to appdrivers.GenericStdout.
	Logger appdrivers.LogText

	idleDeadline time.Time
	now          func() time.Time
}

// NewEmulator returns a ready-state Emulator. tx is used by Execute to turn
// parsed commands into SPI transmissions.
func NewEmulator(tx Transmitter) *Emulator {
	e := &Emulator{tx: tx, now: time.Now, Logger: appdrivers.GenericStdout{}}
	e.idleDeadline = e.now().Add(time.Second)
	e.decoder = x10.NewDecoder(x10.ConsumerFunc(e.onX10Command))
	return e
}

func (e *Emulator) onX10Command(cmd x10.Command) {
	e.commandLog().Log("cm11: received a command from the PLC: %s", x10.Format(cmd))
	e.cbuf = commandToBuffer(cmd, e.cbuf)
	e.hasCbuf = true
}

// commandLog wraps the current Logger in a CommandStdout so every
// decoded/transmitted Command is logged through one consistent formatter.
func (e *Emulator) commandLog() appdrivers.CommandStdout {
	return appdrivers.CommandStdout{Logger: e.Logger}
}

// FeedLineBits delivers newly demodulated wire bits (typically the delta
// between a Frame's previous and current Data.Tail across successive SPI
// polls) to the PLC-receive decoder, surfacing any committed command into
// the upload buffer for the next poll cycle.
func (e *Emulator) FeedLineBits(bits []uint8) {
	for _, b := range bits {
		e.decoder.Feed(b)
	}
}

// Input appends host-originated bytes to the receive buffer and marks it
// fresh, matching a single read(2) call in the reference driver loop.
func (e *Emulator) Input(p []byte) {
	e.rbuf = append(e.rbuf, p...)
	e.freshRbuf = true
}

// Output drains and returns any bytes queued for the host since the last
// call, or nil if none.
func (e *Emulator) Output() []byte {
	if len(e.wbuf) == 0 {
		return nil
	}
	out := e.wbuf
	e.wbuf = nil
	return out
}

// Tick runs the idle-timeout check followed by the state machine to a
// fixpoint (mirroring the reference driver's `while (cm11_state_machine())`
// inner loop), then clears the freshness flag for the next call. Callers
// drive this once per read-or-timeout cycle.
func (e *Emulator) Tick() {
	e.checkIdle()
	for e.step() {
	}
	e.freshRbuf = false
}

// checkIdle resets to Ready and discards any partial record once a full
// second has elapsed without forward progress. The timer itself restarts on
// every Tick that follows fresh bytes delivered via Input, in every state
// (the strictly safer of two legacy variants), not only while in RxPoll.
func (e *Emulator) checkIdle() {
	if e.freshRbuf {
		e.idleDeadline = e.now().Add(time.Second)
		return
	}
	if e.now().Before(e.idleDeadline) {
		return
	}
	if e.state != Ready || len(e.rbuf) > 0 {
		e.rbuf = nil
		e.state = Ready
	}
	e.idleDeadline = e.now().Add(time.Second)
}

// step runs one state-machine dispatch, returning true if it should be
// re-entered immediately (a fresh byte turned out to belong to a new
// transmission rather than the expected ack) without waiting for more host
// input, matching the reference's `return 1` re-dispatch.
func (e *Emulator) step() bool {
	switch e.state {
	case Ready:
		return e.stepReady()
	case TxAck:
		return e.stepTxAck()
	case RxPoll:
		return e.stepRxPoll()
	default:
		return false
	}
}

func (e *Emulator) stepReady() bool {
	var parsed int
	if e.freshRbuf {
		cmd, n, err := parseCommandHeader(e.rbuf)
		if err != nil {
			e.rbuf = nil
			parsed = 0
		} else {
			parsed = n
			if n > 0 {
				e.pending = cmd
			}
		}
	}
	if parsed > 0 {
		e.wbuf = append(e.wbuf, checksum(e.rbuf))
		e.rbuf = nil
		e.state = TxAck
		return false
	}
	if e.hasCbuf {
		e.wbuf = append(e.wbuf, pollByte)
		e.state = RxPoll
		return false
	}
	return false
}

func (e *Emulator) stepTxAck() bool {
	if !e.freshRbuf || len(e.rbuf) == 0 {
		return false
	}
	if e.rbuf[0] == execByte {
		e.Execute(e.pending)
		e.rbuf = nil
		e.wbuf = append(e.wbuf, execAckByte)
		e.state = Ready
		return false
	}
	e.state = Ready
	return true
}

func (e *Emulator) stepRxPoll() bool {
	if !e.freshRbuf || len(e.rbuf) == 0 {
		return false
	}
	if e.rbuf[0] == pollAckByte {
		e.rbuf = nil
		e.wbuf = append(e.wbuf, e.cbuf...)
		e.cbuf = nil
		e.hasCbuf = false
		e.state = Ready
		return false
	}
	e.state = Ready
	return true
}

// Execute submits cmd over SPI, splitting a Dim/Bright with more than two
// repetitions into repeat-1 sticky single-step transmissions gated on
// InProgress plus a final non-sticky single-step transmission gated on
// Complete, matching cm11_execute's
// staged dimming behavior.
func (e *Emulator) Execute(cmd x10.Command) {
	e.commandLog().Log("cm11: executing transmission %s", x10.Format(cmd))
	if cmd.HasFC && (cmd.FC == x10.FuncDim || cmd.FC == x10.FuncBright) && cmd.FuncRepeat > 2 {
		step := cmd
		step.FuncRepeat = 1
		step.Sticky = true
		bs, err := x10.EncodeCommand(step)
		if err != nil {
			log.Printf("cm11: encoding dim/bright step: %v", err)
			return
		}
		for i := cmd.FuncRepeat; i > 1; i-- {
			if _, err := e.tx.Submit(bs, spi.ResponseInProgress); err != nil {
				log.Printf("cm11: dim/bright step transmit failed: %v", err)
			}
		}
		cmd.FuncRepeat = 1
	}
	cmd.Sticky = false
	bs, err := x10.EncodeCommand(cmd)
	if err != nil {
		log.Printf("cm11: encoding final transmit: %v", err)
		return
	}
	if _, err := e.tx.Submit(bs, spi.ResponseComplete); err != nil {
		log.Printf("cm11: final transmit failed: %v", err)
	}
}

// Run drives the emulator against peer (typically a serial TTY) and an SPI
// transport, reading in a background goroutine so each 200ms tick can poll
// SPI and flush pending host output regardless of whether a read completed,
// mirroring the reference driver's select()-with-timeout loop. It returns
// when peer's reader returns an error (including io.EOF on a closed pipe).
// logger receives the PLC-receive/execute play-by-play; pass nil to keep the
// appdrivers.GenericStdout default.
func Run(peer io.ReadWriter, transport *spi.Transport, logger appdrivers.LogText) error {
	e := NewEmulator(transport)
	if logger != nil {
		e.Logger = logger
	}

	type readResult struct {
		buf []byte
		err error
	}
	reads := make(chan readResult)
	go func() {
		buf := make([]byte, 256)
		for {
			n, err := peer.Read(buf)
			if n > 0 {
				cp := make([]byte, n)
				copy(cp, buf[:n])
				reads <- readResult{buf: cp}
			}
			if err != nil {
				reads <- readResult{err: err}
				return
			}
		}
	}()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	lastTail := 0
	for {
		select {
		case r := <-reads:
			if r.err != nil {
				return r.err
			}
			e.Input(r.buf)
		case <-ticker.C:
		}

		if frame, err := transport.Poll(); err == nil {
			if frame.Data.Tail > lastTail {
				bits := make([]uint8, 0, frame.Data.Tail-lastTail)
				for i := lastTail; i < frame.Data.Tail; i++ {
					bits = append(bits, frame.Data.Bit(i))
				}
				e.FeedLineBits(bits)
				lastTail = frame.Data.Tail
			} else if frame.Data.Tail < lastTail {
				lastTail = frame.Data.Tail
			}
		}

		e.Tick()
		if out := e.Output(); out != nil {
			if _, err := peer.Write(out); err != nil {
				return err
			}
		}
	}
}
