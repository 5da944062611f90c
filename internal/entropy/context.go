package entropy

// Band identifies the sub-band orientation of a code-block.
type Band int

// Band type constants.
const (
	BandLL Band = iota
	BandHL
	BandLH
	BandHH
)

// String returns the band name.
func (b Band) String() string {
	switch b {
	case BandLL:
		return "LL"
	case BandHL:
		return "HL"
	case BandLH:
		return "LH"
	case BandHH:
		return "HH"
	default:
		return "invalid"
	}
}

// Valid reports whether b is one of the four orientations.
func (b Band) Valid() bool {
	return b >= BandLL && b <= BandHH
}

// Packed neighbour significance bit layout:
//
//	bit 0: W significant    bit 4: NW significant
//	bit 1: E significant    bit 5: NE significant
//	bit 2: N significant    bit 6: SW significant
//	bit 3: S significant    bit 7: SE significant
const (
	nbW uint8 = 1 << iota
	nbE
	nbN
	nbS
	nbNW
	nbNE
	nbSW
	nbSE
)

// lutZCCtx is the significance context lookup table, indexed by
// band*256 + packed neighbour flags.
var lutZCCtx [4 * 256]uint8

// lutSCCtx maps (H+1)*3 + (V+1) to (label << 1) | xorBit.
var lutSCCtx [9]uint8

func init() {
	for band := BandLL; band <= BandHH; band++ {
		for packed := 0; packed < 256; packed++ {
			w := (packed >> 0) & 1
			e := (packed >> 1) & 1
			n := (packed >> 2) & 1
			s := (packed >> 3) & 1
			nw := (packed >> 4) & 1
			ne := (packed >> 5) & 1
			sw := (packed >> 6) & 1
			se := (packed >> 7) & 1

			lutZCCtx[int(band)*256+packed] = uint8(zeroCodingLabel(band, w+e, n+s, nw+ne+sw+se))
		}
	}

	// Table D.3
	for h := -1; h <= 1; h++ {
		for v := -1; v <= 1; v++ {
			hh, vv, xor := h, v, 0
			if hh < 0 || (hh == 0 && vv < 0) {
				hh, vv, xor = -hh, -vv, 1
			}
			var label int
			switch {
			case hh == 1 && vv == 1:
				label = CtxSC4
			case hh == 1 && vv == 0:
				label = CtxSC3
			case hh == 1 && vv == -1:
				label = CtxSC2
			case hh == 0 && vv == 1:
				label = CtxSC1
			default:
				label = CtxSC0
			}
			lutSCCtx[(h+1)*3+(v+1)] = uint8(label<<1 | xor)
		}
	}
}

// zeroCodingLabel applies Table D.1 to the horizontal, vertical and
// diagonal significant neighbour counts.
func zeroCodingLabel(band Band, h, v, d int) int {
	switch band {
	case BandHL:
		// HL is the transpose of LL/LH: vertical neighbours dominate.
		h, v = v, h
		fallthrough
	case BandLL, BandLH:
		switch {
		case h == 2:
			return 8
		case h == 1 && v >= 1:
			return 7
		case h == 1 && d >= 1:
			return 6
		case h == 1:
			return 5
		case v == 2:
			return 4
		case v == 1:
			return 3
		case d >= 2:
			return 2
		case d == 1:
			return 1
		}
		return 0
	default:
		hv := h + v
		switch {
		case d >= 3:
			return 8
		case d == 2 && hv >= 1:
			return 7
		case d == 2:
			return 6
		case d == 1 && hv >= 2:
			return 5
		case d == 1 && hv == 1:
			return 4
		case d == 1:
			return 3
		case hv >= 2:
			return 2
		case hv == 1:
			return 1
		}
		return 0
	}
}

// significantAt reports whether (x, y) is significant and above the
// causal horizon.
func significantAt(s StateStore, x, y, yHorizon int) bool {
	return y < yHorizon && s.IsSignificant(x, y)
}

// packNeighbours gathers the significance of the eight neighbours of (x, y).
func packNeighbours(s StateStore, x, y, yHorizon int) uint8 {
	var packed uint8
	if significantAt(s, x-1, y, yHorizon) {
		packed |= nbW
	}
	if significantAt(s, x+1, y, yHorizon) {
		packed |= nbE
	}
	if significantAt(s, x, y-1, yHorizon) {
		packed |= nbN
	}
	if significantAt(s, x, y+1, yHorizon) {
		packed |= nbS
	}
	if significantAt(s, x-1, y-1, yHorizon) {
		packed |= nbNW
	}
	if significantAt(s, x+1, y-1, yHorizon) {
		packed |= nbNE
	}
	if significantAt(s, x-1, y+1, yHorizon) {
		packed |= nbSW
	}
	if significantAt(s, x+1, y+1, yHorizon) {
		packed |= nbSE
	}
	return packed
}

// SignificanceContext returns the zero coding label (0-8) for (x, y).
// Neighbours at rows >= yHorizon are treated as insignificant; callers
// not using vertically causal contexts pass the block height.
func SignificanceContext(s StateStore, x, y, yHorizon int, band Band) int {
	return int(lutZCCtx[int(band)*256+int(packNeighbours(s, x, y, yHorizon))])
}

// contribution folds a pair of neighbours into -1, 0 or +1 (Table D.2).
func contribution(s StateStore, x0, y0, x1, y1, yHorizon int) int {
	c := 0
	for _, p := range [2][2]int{{x0, y0}, {x1, y1}} {
		if !significantAt(s, p[0], p[1], yHorizon) {
			continue
		}
		if s.SignIsNegative(p[0], p[1]) {
			c--
		} else {
			c++
		}
	}
	switch {
	case c > 0:
		return 1
	case c < 0:
		return -1
	}
	return 0
}

// SignContext returns the sign coding label (9-13) for (x, y) and the bit
// the decoded symbol must be XORed with.
func SignContext(s StateStore, x, y, yHorizon int) (label int, xorBit int) {
	h := contribution(s, x-1, y, x+1, y, yHorizon)
	v := contribution(s, x, y-1, x, y+1, yHorizon)
	e := lutSCCtx[(h+1)*3+(v+1)]
	return int(e >> 1), int(e & 1)
}

// RefinementContext returns the magnitude refinement label (14-16) for a
// coefficient that became significant at becameAt, refined at bitplane.
func RefinementContext(s StateStore, x, y, yHorizon, becameAt, bitplane int) int {
	if becameAt != bitplane-1 {
		return CtxMag2
	}
	if packNeighbours(s, x, y, yHorizon) != 0 {
		return CtxMag1
	}
	return CtxMag0
}
