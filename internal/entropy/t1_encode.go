package entropy

import (
	"math/bits"

	"github.com/go-j2k/ebcot/internal/bio"
)

// Encoded is a code-block produced by EncodeCodeBlock.
type Encoded struct {
	Segments [][]byte
	Passes   int
	Bitdepth int // M_b
	Missing  int // p
}

// EncodeCodeBlock codes row-major coefficients with mb magnitude bitplanes
// using every coding pass. It mirrors Session pass for pass and exists to
// produce streams for round-trip testing; it panics when a coefficient
// does not fit in mb bitplanes.
func EncodeCodeBlock(coeffs []int32, width, height int, band Band, mb int, opts Options) Encoded {
	var maxAbs uint32
	for _, v := range coeffs {
		if a := absInt32(v); a > maxAbs {
			maxAbs = a
		}
	}
	used := bits.Len32(maxAbs)
	if used > mb {
		panic("entropy: coefficient exceeds coding bit-depth")
	}

	e := &encoder{
		Session: NewSession(NewGridStore(width, height), band, mb, mb-used, opts),
		abs:     make([]uint32, len(coeffs)),
		neg:     make([]bool, len(coeffs)),
		mqEnc:   NewMQEncoder(),
		rawEnc:  bio.NewRawWriter(),
	}
	for i, v := range coeffs {
		e.abs[i] = absInt32(v)
		e.neg[i] = v < 0
	}

	out := Encoded{Passes: MaxPasses(mb, e.p), Bitdepth: mb, Missing: e.p}
	for pass := 0; pass < out.Passes; pass++ {
		if StartsSegment(pass, opts) {
			if pass > 0 {
				out.Segments = append(out.Segments, e.finish())
			}
			e.start(UsesBypass(pass, opts))
		}

		switch Kind(pass) {
		case SignificancePropagation:
			e.significancePass(e.bitplane, pass)
		case MagnitudeRefinement:
			e.refinementPass(e.bitplane, pass)
		case Cleanup:
			e.cleanupPass(e.bitplane, pass)
			e.bitplane++
		}

		if opts.ResetContextPerPass {
			e.contexts.Reset()
		}
	}
	if out.Passes > 0 {
		out.Segments = append(out.Segments, e.finish())
	}
	return out
}

func absInt32(v int32) uint32 {
	if v < 0 {
		return uint32(-int64(v))
	}
	return uint32(v)
}

// encoder reuses the decoder's state and scan helpers, replacing the
// symbol source with a sink.
type encoder struct {
	*Session

	abs []uint32
	neg []bool

	mqEnc  *MQEncoder
	rawEnc *bio.RawWriter
}

func (e *encoder) start(raw bool) {
	e.rawMode = raw
	if raw {
		e.rawEnc = bio.NewRawWriter()
		return
	}
	e.mqEnc.Init()
}

func (e *encoder) finish() []byte {
	if e.rawMode {
		return e.rawEnc.Bytes()
	}
	return e.mqEnc.Flush()
}

func (e *encoder) put(label, b int) {
	if e.rawMode {
		e.rawEnc.WriteBit(b)
		return
	}
	e.mqEnc.Encode(&e.contexts[label], b)
}

func (e *encoder) bitAt(x, y, bitplane int) int {
	return int(e.abs[y*e.width+x]>>uint(e.mb-1-bitplane)) & 1
}

func (e *encoder) putSign(x, y, yHorizon int) bool {
	negative := e.neg[y*e.width+x]
	b := 0
	if negative {
		b = 1
	}
	if e.rawMode {
		e.rawEnc.WriteBit(b)
		return negative
	}
	label, xorBit := SignContext(e.coeffs, x, y, yHorizon)
	e.mqEnc.Encode(&e.contexts[label], b^xorBit)
	return negative
}

func (e *encoder) significancePass(bitplane, pass int) {
	c := e.coeffs
	for y0 := 0; y0 < e.height; y0 += 4 {
		hz := e.horizon(y0)
		end := e.stripEnd(y0)
		for x := 0; x < e.width; x++ {
			for y := y0; y < end; y++ {
				if c.IsSignificant(x, y) {
					continue
				}
				label := SignificanceContext(c, x, y, hz, e.band)
				if label == CtxZC0 {
					continue
				}
				c.CodedInPass[c.Index(x, y)] = pass
				b := e.bitAt(x, y, bitplane)
				e.put(label, b)
				if b == 1 {
					e.becomeSignificant(x, y, bitplane, e.putSign(x, y, hz))
				}
			}
		}
	}
}

func (e *encoder) refinementPass(bitplane, pass int) {
	c := e.coeffs
	for y0 := 0; y0 < e.height; y0 += 4 {
		hz := e.horizon(y0)
		end := e.stripEnd(y0)
		for x := 0; x < e.width; x++ {
			for y := y0; y < end; y++ {
				i := c.Index(x, y)
				if !c.IsSignificant(x, y) || c.BecameSignificantAt[i] == bitplane {
					continue
				}
				label := RefinementContext(c, x, y, hz, c.BecameSignificantAt[i], bitplane)
				c.CodedInPass[i] = pass
				e.put(label, e.bitAt(x, y, bitplane))
			}
		}
	}
}

func (e *encoder) cleanupPass(bitplane, pass int) {
	c := e.coeffs
	for y0 := 0; y0 < e.height; y0 += 4 {
		hz := e.horizon(y0)
		end := e.stripEnd(y0)
		for x := 0; x < e.width; x++ {
			y := y0
			if e.runLengthEligible(x, y0, hz, pass) {
				r := 0
				for r < 4 && e.bitAt(x, y0+r, bitplane) == 0 {
					r++
				}
				if r == 4 {
					e.put(CtxRL, 0)
					continue
				}
				e.put(CtxRL, 1)
				e.put(CtxUni, r>>1)
				e.put(CtxUni, r&1)
				y = y0 + r
				c.CodedInPass[c.Index(x, y)] = pass
				e.becomeSignificant(x, y, bitplane, e.putSign(x, y, hz))
				y++
			}
			for ; y < end; y++ {
				if !e.undecided(x, y, pass) {
					continue
				}
				c.CodedInPass[c.Index(x, y)] = pass
				label := SignificanceContext(c, x, y, hz, e.band)
				b := e.bitAt(x, y, bitplane)
				e.put(label, b)
				if b == 1 {
					e.becomeSignificant(x, y, bitplane, e.putSign(x, y, hz))
				}
			}
		}
	}

	if e.opts.SegmentationSymbols {
		for _, b := range []int{1, 0, 1, 0} {
			e.put(CtxUni, b)
		}
	}
}
