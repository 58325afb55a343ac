package x10

// DecoderState is one of the streaming decoder's five states.
type DecoderState int

const (
	StateIdle DecoderState = iota
	StateBasic
	StateExtended
	StateRecover
	StateReceived
)

func (s DecoderState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateBasic:
		return "Basic"
	case StateExtended:
		return "Extended"
	case StateRecover:
		return "Recover"
	case StateReceived:
		return "Received"
	default:
		return "Unknown"
	}
}

// Consumer receives committed command records from a Decoder. Passing
// distinct handler values to distinct Decoders (rather than a single global
// callback pair, as the reference firmware's feed_bit_callback /
// commit_x10_callback statics did) is what makes running two decoders side
// by side in a test harness trivial.
type Consumer interface {
	Commit(cmd Command)
}

// ConsumerFunc adapts a plain function to the Consumer interface.
type ConsumerFunc func(Command)

func (f ConsumerFunc) Commit(cmd Command) { f(cmd) }

// pendingWord is a decoded-but-not-yet-committed word, accumulating repeats
// while the same frame keeps arriving back to back.
type pendingWord struct {
	word    uint32
	repeats int
}

// Decoder is a bit-at-a-time streaming X10 demodulator. It owns all of its
// state as plain fields (not package-level statics), so multiple instances
// run independently.
type Decoder struct {
	state     DecoderState
	window    uint32 // rolling low bits, used for start-condition and forced-idle checks
	accum     uint32 // logical bits accumulated in the current frame
	bitCount  int
	pending   *pendingWord
	consumer  Consumer
}

// NewDecoder returns a Decoder in the Idle state that delivers committed
// records to consumer.
func NewDecoder(consumer Consumer) *Decoder {
	return &Decoder{state: StateIdle, consumer: consumer}
}

// State reports the decoder's current state, mostly useful for tests and
// diagnostics.
func (d *Decoder) State() DecoderState { return d.state }

// Feed advances the decoder by one sampled wire bit (0 or 1).
func (d *Decoder) Feed(bit uint8) {
	d.window = (d.window<<1 | uint32(bit&1)) & 0x3F
	d.bitCount++

	if d.state != StateIdle && d.window == 0 {
		// Inter-frame pause: six consecutive zero bits force a return to
		// Idle regardless of where the decoder was.
		d.state = StateIdle
	}

	switch d.state {
	case StateIdle:
		if d.pending != nil && d.bitCount == 5 {
			d.commitPending()
		}
		if d.window&0xF == 0xE {
			d.bitCount = 0
			d.accum = 0
			d.state = StateBasic
		}
		return

	case StateBasic, StateExtended:
		if d.bitCount%2 != 0 {
			return
		}
		hi, lo := (d.window>>1)&1, d.window&1
		switch {
		case hi == 1 && lo == 0:
			d.accum = d.accum<<1 | 1
		case hi == 0 && lo == 1:
			d.accum = d.accum << 1
		default:
			d.state = StateRecover
			if d.pending != nil {
				d.commitPending()
			}
			return
		}
		switch {
		case d.bitCount == 18:
			if d.accum&1 == 1 && houseUnitDecode[(d.accum>>1)&0xF] == uint8(FuncExtendedCode) {
				d.state = StateExtended
				return
			}
			d.accum <<= 20
			d.state = StateReceived
		case d.bitCount == 58:
			d.state = StateReceived
		default:
			return
		}
	}

	if d.state == StateReceived {
		word := d.accum | (1 << 31)
		switch {
		case d.pending == nil:
			d.pending = &pendingWord{word: word, repeats: 1}
		case d.pending.word == word:
			d.pending.repeats++
		default:
			d.commitPending()
			d.pending = &pendingWord{word: word, repeats: 1}
		}
		d.window = 0
		d.bitCount = 0
		d.state = StateIdle
	}
}

// commitPending delivers the accumulated pending word to the consumer and
// clears it.
func (d *Decoder) commitPending() {
	p := d.pending
	d.pending = nil
	if p == nil {
		return
	}
	d.consumer.Commit(decodeWord(p.word, p.repeats))
}

// decodeWord unpacks the 29-bit decoded layout (house nibble, code nibble,
// address/function indicator, and for ExtendedCode the unit nibble plus two
// payload bytes) into a Command, attributing repeats to the correct field.
func decodeWord(word uint32, repeats int) Command {
	hcIdx := houseUnitDecode[(word>>25)&0xF]
	codeIdx := houseUnitDecode[(word>>21)&0xF]
	isFunction := (word>>20)&1 == 1

	cmd := Command{HC: HouseCode(hcIdx), HasHC: true}
	if isFunction {
		cmd.FC = Function(codeIdx)
		cmd.HasFC = true
		cmd.FuncRepeat = repeats
	} else {
		cmd.UC = UnitCode(codeIdx)
		cmd.HasUC = true
		cmd.AddrRepeat = repeats
	}
	if cmd.HasFC && cmd.FC == FuncExtendedCode {
		ucIdx := houseUnitDecode[(word>>16)&0xF]
		cmd.UC = UnitCode(ucIdx)
		cmd.HasUC = true
		cmd.XByte1 = uint8((word >> 8) & 0xFF)
		cmd.XByte2 = uint8(word & 0xFF)
	}
	return cmd
}

// DecodeBitstream feeds every meaningful bit of bs through a fresh Decoder
// and returns whatever records get committed, including one final flush
// commit for a still-pending word at end of stream. It is a convenience for
// tests and offline analysis; streaming callers should drive Feed directly
// bit by bit as samples arrive.
func DecodeBitstream(bs *Bitstream) []Command {
	var out []Command
	d := NewDecoder(ConsumerFunc(func(cmd Command) { out = append(out, cmd) }))
	for i := 0; i < bs.Tail; i++ {
		d.Feed(bs.Bit(i))
	}
	// Flush: five idle bits finalize a pending word: feed them explicitly.
	for i := 0; i < 5 && d.pending != nil; i++ {
		d.Feed(0)
	}
	if d.pending != nil {
		d.commitPending()
	}
	return out
}
