package x10

// pauseBits is the mandatory inter-frame gap between an address group and a
// function group, and after a non-sticky function group.
const pauseBits = 6

// EncodeCommand renders cmd into a fresh Bitstream following the X10 bit
// grammar: address repeats, a pause, then function repeats
// (each followed by its extended payload when FC is ExtendedCode), then a
// trailing pause unless the command is sticky. It does not itself validate
// cmd.Validate(); callers that want a fatal-at-call-site diagnostic like the
// reference CLI should call Validate first.
func EncodeCommand(cmd Command) (*Bitstream, error) {
	bs := &Bitstream{}

	if cmd.AddrRepeat > 0 {
		for i := 0; i < cmd.AddrRepeat; i++ {
			if err := bs.AppendBasic(cmd.HC, uint8(cmd.UC), false); err != nil {
				return nil, err
			}
		}
		if err := bs.Pause(pauseBits); err != nil {
			return nil, err
		}
	}

	if cmd.FuncRepeat > 0 {
		for i := 0; i < cmd.FuncRepeat; i++ {
			if err := bs.AppendBasic(cmd.HC, uint8(cmd.FC), true); err != nil {
				return nil, err
			}
			if cmd.FC == FuncExtendedCode {
				if err := bs.AppendExtendedPayload(cmd.UC, cmd.XByte1, cmd.XByte2); err != nil {
					return nil, err
				}
			}
		}
		if !cmd.Sticky {
			if err := bs.Pause(pauseBits); err != nil {
				return nil, err
			}
		}
	}

	return bs, nil
}
