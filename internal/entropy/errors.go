package entropy

import "errors"

var (
	// ErrCorruptData reports a code-block whose bitstream or parameters
	// are structurally invalid. The block cannot be resynchronised.
	ErrCorruptData = errors.New("ebcot: corrupt code-block data")
	// ErrPrecondition reports inputs that violate the caller contract,
	// such as a segment count that does not match the pass count.
	ErrPrecondition = errors.New("ebcot: caller precondition violated")
	// ErrAllocation reports that per-call state could not be sized.
	ErrAllocation = errors.New("ebcot: code-block state allocation failed")
)
