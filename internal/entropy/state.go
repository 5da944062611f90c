package entropy

// StateStore holds the significance and sign state of every coefficient in
// a code-block. Coordinates outside the block are permanently insignificant.
type StateStore interface {
	Width() int
	Height() int
	// IsSignificant reports false for any out-of-range coordinate.
	IsSignificant(x, y int) bool
	// SignIsNegative reports false for insignificant coefficients.
	SignIsNegative(x, y int) bool
	SetSignificant(x, y int)
	SetSign(x, y int, negative bool)
	// Reset clears all state.
	Reset()
}

// StripStore packs significance and sign for one 4-row strip column into a
// single byte: bits 0-3 hold significance, bits 4-7 the sign.
type StripStore struct {
	width  int
	height int
	bits   []uint8
}

// NewStripStore creates a packed store for a width x height block.
func NewStripStore(width, height int) *StripStore {
	strips := (height + 3) / 4
	return &StripStore{
		width:  width,
		height: height,
		bits:   make([]uint8, strips*width),
	}
}

// Width returns the block width.
func (s *StripStore) Width() int { return s.width }

// Height returns the block height.
func (s *StripStore) Height() int { return s.height }

func (s *StripStore) index(x, y int) (int, uint8) {
	return (y>>2)*s.width + x, uint8(1) << (y & 3)
}

func (s *StripStore) inside(x, y int) bool {
	return x >= 0 && y >= 0 && x < s.width && y < s.height
}

// IsSignificant implements StateStore.
func (s *StripStore) IsSignificant(x, y int) bool {
	if !s.inside(x, y) {
		return false
	}
	i, m := s.index(x, y)
	return s.bits[i]&m != 0
}

// SignIsNegative implements StateStore.
func (s *StripStore) SignIsNegative(x, y int) bool {
	if !s.inside(x, y) {
		return false
	}
	i, m := s.index(x, y)
	return s.bits[i]&m != 0 && s.bits[i]&(m<<4) != 0
}

// SetSignificant implements StateStore.
func (s *StripStore) SetSignificant(x, y int) {
	i, m := s.index(x, y)
	s.bits[i] |= m
}

// SetSign implements StateStore.
func (s *StripStore) SetSign(x, y int, negative bool) {
	i, m := s.index(x, y)
	if negative {
		s.bits[i] |= m << 4
	} else {
		s.bits[i] &^= m << 4
	}
}

// Reset implements StateStore.
func (s *StripStore) Reset() {
	clear(s.bits)
}

// GridStore keeps significance and sign in plain dense grids.
type GridStore struct {
	width       int
	height      int
	significant []bool
	negative    []bool
}

// NewGridStore creates a dense store for a width x height block.
func NewGridStore(width, height int) *GridStore {
	return &GridStore{
		width:       width,
		height:      height,
		significant: make([]bool, width*height),
		negative:    make([]bool, width*height),
	}
}

// Width returns the block width.
func (g *GridStore) Width() int { return g.width }

// Height returns the block height.
func (g *GridStore) Height() int { return g.height }

// IsSignificant implements StateStore.
func (g *GridStore) IsSignificant(x, y int) bool {
	if x < 0 || y < 0 || x >= g.width || y >= g.height {
		return false
	}
	return g.significant[y*g.width+x]
}

// SignIsNegative implements StateStore.
func (g *GridStore) SignIsNegative(x, y int) bool {
	if !g.IsSignificant(x, y) {
		return false
	}
	return g.negative[y*g.width+x]
}

// SetSignificant implements StateStore.
func (g *GridStore) SetSignificant(x, y int) {
	g.significant[y*g.width+x] = true
}

// SetSign implements StateStore.
func (g *GridStore) SetSign(x, y int, negative bool) {
	g.negative[y*g.width+x] = negative
}

// Reset implements StateStore.
func (g *GridStore) Reset() {
	clear(g.significant)
	clear(g.negative)
}

// Never marks a coefficient that has not become significant or has not
// been coded in any pass.
const Never = -1

// Coefficients is the full per-call coefficient state of a code-block.
type Coefficients struct {
	StateStore

	// Magnitude bits decoded so far, positioned at full bit-depth.
	Magnitude []uint32
	// BecameSignificantAt is the bitplane index at which each
	// coefficient became significant, or Never.
	BecameSignificantAt []int
	// CodedInPass is the last pass that coded each coefficient, or Never.
	CodedInPass []int
}

// NewCoefficients allocates state around store.
func NewCoefficients(store StateStore) *Coefficients {
	n := store.Width() * store.Height()
	c := &Coefficients{
		StateStore:          store,
		Magnitude:           make([]uint32, n),
		BecameSignificantAt: make([]int, n),
		CodedInPass:         make([]int, n),
	}
	c.Reset()
	return c
}

// Reset clears all coefficient state.
func (c *Coefficients) Reset() {
	c.StateStore.Reset()
	clear(c.Magnitude)
	for i := range c.BecameSignificantAt {
		c.BecameSignificantAt[i] = Never
		c.CodedInPass[i] = Never
	}
}

// Index returns the dense array index of (x, y).
func (c *Coefficients) Index(x, y int) int {
	return y*c.Width() + x
}
