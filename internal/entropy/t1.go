// Package entropy - t1.go implements Tier-1 (EBCOT) decoding.
//
// EBCOT (Embedded Block Coding with Optimized Truncation) codes each
// code-block independently as a sequence of coding passes over its
// bitplanes. A Session holds everything one code-block decode needs;
// nothing is shared between sessions.
package entropy

import (
	"fmt"

	"github.com/go-j2k/ebcot/internal/bio"
)

// MaxBitplanes is the largest supported coding bit-depth M_b.
const MaxBitplanes = 31

// Session decodes one code-block.
type Session struct {
	coeffs *Coefficients
	width  int
	height int

	band Band
	mb   int // Coding bit-depth M_b
	p    int // Missing (all-zero) most significant bitplanes
	opts Options

	contexts Contexts
	mq       MQDecoder
	raw      bio.RawReader
	rawMode  bool // Bits come from raw instead of mq

	bitplane int
	passes   int
}

// NewSession creates a session decoding into store. The store is reset.
func NewSession(store StateStore, band Band, mb, p int, opts Options) *Session {
	s := &Session{
		coeffs: NewCoefficients(store),
		width:  store.Width(),
		height: store.Height(),
		band:   band,
		mb:     mb,
		p:      p,
		opts:   opts,
	}
	s.contexts.Reset()
	s.bitplane = p
	return s
}

// Coefficients exposes the decoded state.
func (s *Session) Coefficients() *Coefficients {
	return s.coeffs
}

// Bitplane returns the bitplane the next cleanup pass will complete.
func (s *Session) Bitplane() int {
	return s.bitplane
}

// PassesDecoded returns the number of passes Run completed.
func (s *Session) PassesDecoded() int {
	return s.passes
}

// Run decodes up to passes coding passes from segments. The number of
// segments must equal SegmentCount(passes, opts).
func (s *Session) Run(passes int, segments [][]byte) error {
	if want := SegmentCount(passes, s.opts); len(segments) != want {
		return fmt.Errorf("%w: %d passes need %d segments, got %d",
			ErrPrecondition, passes, want, len(segments))
	}

	for pass := 0; pass < passes && s.bitplane < s.mb; pass++ {
		if StartsSegment(pass, s.opts) {
			s.bind(segments[SegmentIndex(pass, s.opts)], UsesBypass(pass, s.opts))
		}

		switch Kind(pass) {
		case SignificancePropagation:
			s.SignificancePass(s.bitplane, pass)
		case MagnitudeRefinement:
			s.RefinementPass(s.bitplane, pass)
		case Cleanup:
			if err := s.CleanupPass(s.bitplane, pass); err != nil {
				return err
			}
			s.bitplane++
		}
		s.passes = pass + 1

		if s.opts.ResetContextPerPass {
			s.contexts.Reset()
		}
	}
	return nil
}

// bind starts reading a new segment, raw or arithmetic coded.
func (s *Session) bind(segment []byte, raw bool) {
	s.rawMode = raw
	if raw {
		s.raw.Reset(segment)
		return
	}
	s.mq.Init(segment)
}

// horizon returns the first row treated as insignificant while coding the
// strip starting at y0.
func (s *Session) horizon(y0 int) int {
	if s.opts.VerticallyCausal {
		return y0 + 4
	}
	return s.height
}

// stripEnd returns the row after the strip starting at y0.
func (s *Session) stripEnd(y0 int) int {
	return min(y0+4, s.height)
}

// bit decodes one symbol with the given context label.
func (s *Session) bit(label int) int {
	if s.rawMode {
		return s.raw.ReadBit()
	}
	return s.mq.Decode(&s.contexts[label])
}

// decodeSign decodes the sign of (x, y) and reports whether it is negative.
func (s *Session) decodeSign(x, y, yHorizon int) bool {
	if s.rawMode {
		return s.raw.ReadBit() == 1
	}
	label, xorBit := SignContext(s.coeffs, x, y, yHorizon)
	return s.mq.Decode(&s.contexts[label])^xorBit == 1
}

// becomeSignificant records that (x, y) turned significant at bitplane.
func (s *Session) becomeSignificant(x, y, bitplane int, negative bool) {
	c := s.coeffs
	i := c.Index(x, y)
	c.SetSignificant(x, y)
	c.SetSign(x, y, negative)
	c.BecameSignificantAt[i] = bitplane
	c.Magnitude[i] |= s.bitMask(bitplane)
}

// bitMask returns the magnitude bit decoded at bitplane.
func (s *Session) bitMask(bitplane int) uint32 {
	return uint32(1) << uint(s.mb-1-bitplane)
}

// SignificancePass decodes a significance propagation pass: every
// insignificant coefficient with a significant neighbour is coded.
func (s *Session) SignificancePass(bitplane, pass int) {
	c := s.coeffs
	for y0 := 0; y0 < s.height; y0 += 4 {
		hz := s.horizon(y0)
		end := s.stripEnd(y0)
		for x := 0; x < s.width; x++ {
			for y := y0; y < end; y++ {
				if c.IsSignificant(x, y) {
					continue
				}
				label := SignificanceContext(c, x, y, hz, s.band)
				if label == CtxZC0 {
					continue
				}
				c.CodedInPass[c.Index(x, y)] = pass
				if s.bit(label) == 1 {
					s.becomeSignificant(x, y, bitplane, s.decodeSign(x, y, hz))
				}
			}
		}
	}
}

// RefinementPass decodes a magnitude refinement pass: every coefficient
// that was significant before this bitplane gets one more magnitude bit.
func (s *Session) RefinementPass(bitplane, pass int) {
	c := s.coeffs
	mask := s.bitMask(bitplane)
	for y0 := 0; y0 < s.height; y0 += 4 {
		hz := s.horizon(y0)
		end := s.stripEnd(y0)
		for x := 0; x < s.width; x++ {
			for y := y0; y < end; y++ {
				i := c.Index(x, y)
				if !c.IsSignificant(x, y) || c.BecameSignificantAt[i] == bitplane {
					continue
				}
				label := RefinementContext(c, x, y, hz, c.BecameSignificantAt[i], bitplane)
				c.CodedInPass[i] = pass
				if s.bit(label) == 1 {
					c.Magnitude[i] |= mask
				}
			}
		}
	}
}

// undecided reports whether the cleanup pass still has to code (x, y).
func (s *Session) undecided(x, y, pass int) bool {
	c := s.coeffs
	return !c.IsSignificant(x, y) && c.CodedInPass[c.Index(x, y)] != pass-2
}

// runLengthEligible reports whether the column of four coefficients at
// (x, y0) can use run-length coding.
func (s *Session) runLengthEligible(x, y0, yHorizon, pass int) bool {
	if y0+4 > s.height {
		return false
	}
	for y := y0; y < y0+4; y++ {
		if !s.undecided(x, y, pass) {
			return false
		}
		if SignificanceContext(s.coeffs, x, y, yHorizon, s.band) != CtxZC0 {
			return false
		}
	}
	return true
}

// CleanupPass decodes a cleanup pass, coding every coefficient the
// significance propagation pass of this bitplane skipped.
func (s *Session) CleanupPass(bitplane, pass int) error {
	c := s.coeffs
	for y0 := 0; y0 < s.height; y0 += 4 {
		hz := s.horizon(y0)
		end := s.stripEnd(y0)
		for x := 0; x < s.width; x++ {
			y := y0
			if s.runLengthEligible(x, y0, hz, pass) {
				// A 1 means the column is NOT all zero.
				if s.bit(CtxRL) == 0 {
					continue
				}
				r := s.bit(CtxUni) << 1
				r |= s.bit(CtxUni)
				y = y0 + r
				c.CodedInPass[c.Index(x, y)] = pass
				s.becomeSignificant(x, y, bitplane, s.decodeSign(x, y, hz))
				y++
			}
			for ; y < end; y++ {
				if !s.undecided(x, y, pass) {
					continue
				}
				c.CodedInPass[c.Index(x, y)] = pass
				label := SignificanceContext(c, x, y, hz, s.band)
				if s.bit(label) == 1 {
					s.becomeSignificant(x, y, bitplane, s.decodeSign(x, y, hz))
				}
			}
		}
	}

	if s.opts.SegmentationSymbols {
		var sym int
		for i := 0; i < 4; i++ {
			sym = sym<<1 | s.bit(CtxUni)
		}
		if sym != 0xA {
			return fmt.Errorf("%w: segmentation symbol %#x after pass %d (bitplane %d)",
				ErrCorruptData, sym, pass, bitplane)
		}
	}
	return nil
}

// Values returns the signed magnitudes in row-major order.
func (s *Session) Values() []int32 {
	c := s.coeffs
	out := make([]int32, s.width*s.height)
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			v := int32(c.Magnitude[c.Index(x, y)])
			if c.SignIsNegative(x, y) {
				v = -v
			}
			out[y*s.width+x] = v
		}
	}
	return out
}

// Emit writes magnitude x sign for every coefficient into out, whose rows
// are stride cells apart.
func (s *Session) Emit(out []float32, stride int) {
	c := s.coeffs
	for y := 0; y < s.height; y++ {
		row := out[y*stride : y*stride+s.width]
		for x := range row {
			v := float32(c.Magnitude[c.Index(x, y)])
			if c.SignIsNegative(x, y) {
				v = -v
			}
			row[x] = v
		}
	}
}
