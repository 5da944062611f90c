package entropy

// PassKind is the type of a coding pass.
type PassKind int

// Coding pass types.
const (
	SignificancePropagation PassKind = iota
	MagnitudeRefinement
	Cleanup
)

// String returns the pass name.
func (k PassKind) String() string {
	switch k {
	case SignificancePropagation:
		return "significance"
	case MagnitudeRefinement:
		return "refinement"
	case Cleanup:
		return "cleanup"
	default:
		return "invalid"
	}
}

// Options selects the code-block coding style variations (Table A.19).
// The zero value is the baseline behaviour.
type Options struct {
	// SelectiveBypass reads significance and refinement bits raw from
	// pass 10 onwards.
	SelectiveBypass bool
	// ResetContextPerPass restores all contexts after every pass.
	ResetContextPerPass bool
	// TerminateEveryPass places every pass in its own segment.
	TerminateEveryPass bool
	// VerticallyCausal ignores neighbours below the current strip.
	VerticallyCausal bool
	// SegmentationSymbols appends 0xA after every cleanup pass.
	SegmentationSymbols bool
}

// bypassFirstPass is the first pass eligible for raw coding: the first
// significance pass after four complete bitplanes.
const bypassFirstPass = 10

// Kind returns the type of pass. The first pass of a code-block is
// always a cleanup pass.
func Kind(pass int) PassKind {
	return PassKind((pass + 2) % 3)
}

// UsesBypass reports whether pass reads its bits raw.
func UsesBypass(pass int, opts Options) bool {
	return opts.SelectiveBypass && pass >= bypassFirstPass && Kind(pass) != Cleanup
}

// SegmentIndex returns the index of the segment holding pass.
func SegmentIndex(pass int, opts Options) int {
	switch {
	case opts.TerminateEveryPass:
		return pass
	case opts.SelectiveBypass:
		if pass < bypassFirstPass {
			return 0
		}
		// Each bitplane from here on has one raw segment for its
		// significance and refinement passes and one for its cleanup.
		idx := 1 + 2*((pass-bypassFirstPass)/3)
		if Kind(pass) == Cleanup {
			idx++
		}
		return idx
	default:
		return 0
	}
}

// SegmentCount returns the number of segments passes coding passes span.
func SegmentCount(passes int, opts Options) int {
	if passes <= 0 {
		return 0
	}
	return SegmentIndex(passes-1, opts) + 1
}

// StartsSegment reports whether pass is the first pass of its segment.
func StartsSegment(pass int, opts Options) bool {
	return pass == 0 || SegmentIndex(pass, opts) != SegmentIndex(pass-1, opts)
}

// MaxPasses returns the number of passes needed to code every bitplane of
// a block with mb magnitude bitplanes of which p are missing.
func MaxPasses(mb, p int) int {
	if p >= mb {
		return 0
	}
	return 1 + 3*(mb-p-1)
}
