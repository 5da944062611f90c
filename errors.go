package ebcot

import "github.com/go-j2k/ebcot/internal/entropy"

var (
	// ErrCorruptData reports a code-block that cannot be decoded: a
	// segmentation symbol mismatch or invalid bit-depth parameters. Only
	// the offending code-block is affected; the caller decides whether to
	// zero it or abandon the image.
	ErrCorruptData = entropy.ErrCorruptData

	// ErrAllocation reports that the per-call state for a code-block
	// could not be sized. It is not retried.
	ErrAllocation = entropy.ErrAllocation

	// ErrPrecondition reports a violated caller contract: an invalid
	// output grid, orientation, or a segment count that does not match
	// the number of coding passes.
	ErrPrecondition = entropy.ErrPrecondition
)
