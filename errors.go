package dhuff

import "errors"

var (
	ErrInvalidSize       = errors.New("alphabet size must be at least 1")
	ErrSymbolOutOfRange  = errors.New("symbol outside of the coder alphabet")
	ErrAlphabetExhausted = errors.New("every symbol of the alphabet has already been introduced")
	ErrCorruptStream     = errors.New("malformed escape identification in stream")
)

// ErrInvariantViolation is fatal: the tree cannot be recovered once it is
// reported, the coder must be discarded.
var ErrInvariantViolation = errors.New("coding tree invariant violated")

var (
	ErrBadMethod = errors.New("unknown compression method id")
	ErrChecksum  = errors.New("crc or length mismatch on decoded data")
)
