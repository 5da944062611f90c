package ebcot

import "github.com/go-j2k/ebcot/internal/entropy"

// Code-block style flags, as carried by the SPcod/SPcoc parameters of the
// COD and COC markers (Table A.19).
const (
	// StyleBypass enables selective arithmetic coding bypass.
	StyleBypass uint8 = 0x01
	// StyleReset resets context probabilities on each coding pass.
	StyleReset uint8 = 0x02
	// StyleTermination enables termination on each coding pass.
	StyleTermination uint8 = 0x04
	// StyleVerticalCausal enables vertically causal context formation.
	StyleVerticalCausal uint8 = 0x08
	// StylePredictableTermination enables predictable termination.
	StylePredictableTermination uint8 = 0x10
	// StyleSegmentationSymbols enables segmentation symbols.
	StyleSegmentationSymbols uint8 = 0x20
	// StyleHT enables high-throughput block coding (HTJ2K).
	StyleHT uint8 = 0x40
)

// Options selects the coding style variations of a code-block.
// The zero value decodes baseline streams.
type Options struct {
	// SelectiveBypass reads significance propagation and magnitude
	// refinement bits verbatim from pass 10 onwards.
	SelectiveBypass bool

	// ResetContextPerPass restores every context to its initial state
	// after each coding pass.
	ResetContextPerPass bool

	// TerminateEveryPass places each coding pass in its own segment.
	TerminateEveryPass bool

	// VerticallyCausal treats coefficients below the current 4-row strip
	// as insignificant when forming contexts.
	VerticallyCausal bool

	// SegmentationSymbols expects the symbol 0xA after every cleanup
	// pass; any other value is reported as ErrCorruptData.
	SegmentationSymbols bool
}

// OptionsFromStyle decodes a code-block style byte. Predictable
// termination needs no decoder support; the HT flag selects a different
// block coder and is ignored here.
func OptionsFromStyle(style uint8) Options {
	return Options{
		SelectiveBypass:     style&StyleBypass != 0,
		ResetContextPerPass: style&StyleReset != 0,
		TerminateEveryPass:  style&StyleTermination != 0,
		VerticallyCausal:    style&StyleVerticalCausal != 0,
		SegmentationSymbols: style&StyleSegmentationSymbols != 0,
	}
}

// Style encodes o back into a code-block style byte.
func (o Options) Style() uint8 {
	var s uint8
	if o.SelectiveBypass {
		s |= StyleBypass
	}
	if o.ResetContextPerPass {
		s |= StyleReset
	}
	if o.TerminateEveryPass {
		s |= StyleTermination
	}
	if o.VerticallyCausal {
		s |= StyleVerticalCausal
	}
	if o.SegmentationSymbols {
		s |= StyleSegmentationSymbols
	}
	return s
}

func (o *Options) internal() entropy.Options {
	if o == nil {
		return entropy.Options{}
	}
	return entropy.Options(*o)
}

// SegmentCount returns how many segments a code-block with passes coding
// passes must be split into. Packet parsers use it to slice code-block
// contributions.
func SegmentCount(passes int, opts *Options) int {
	return entropy.SegmentCount(passes, opts.internal())
}

// SegmentIndex returns the segment holding the given pass.
func SegmentIndex(pass int, opts *Options) int {
	return entropy.SegmentIndex(pass, opts.internal())
}

// MaxPasses returns the number of coding passes needed to code all
// bitdepth-missing bitplanes of a code-block.
func MaxPasses(bitdepth, missing int) int {
	return entropy.MaxPasses(bitdepth, missing)
}
