package x10

import "errors"

// Sentinel errors for the wire codec and command model. Callers distinguish
// them with errors.Is; none of them carry dynamic state.
var (
	// ErrBitstreamFull is returned by any Bitstream append that would push
	// Tail past its 192-bit capacity. The bitstream is left unmodified.
	ErrBitstreamFull = errors.New("x10: bitstream is full")

	// ErrHouseCodeRequired is returned by Command.Validate when HC is unset.
	ErrHouseCodeRequired = errors.New("x10: house code is required")

	// ErrUnitOrFunctionRequired is returned when neither UC nor FC is set.
	ErrUnitOrFunctionRequired = errors.New("x10: unit code or function code is required")

	// ErrExtendedNeedsUnit is returned when FC is ExtendedCode without UC set.
	ErrExtendedNeedsUnit = errors.New("x10: extended code requires a unit code")

	// ErrInvalidCommand is returned by Parse for any grammar violation.
	ErrInvalidCommand = errors.New("x10: invalid command")
)
