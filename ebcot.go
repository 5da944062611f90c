// Package ebcot provides a pure Go JPEG 2000 EBCOT bitplane decoder.
//
// EBCOT (Embedded Block Coding with Optimized Truncation) is the entropy
// coder of JPEG 2000 Part 1 (ITU-T T.800 Annex D). This package turns the
// coding passes of a single code-block back into signed coefficient
// magnitudes, ready for dequantisation and the inverse wavelet transform.
// Packet headers, the wavelet transform and colour handling are left to
// the caller.
//
// Basic usage:
//
//	out := ebcot.NewGrid(64, 64)
//	err := ebcot.DecodeCodeBlock(out, ebcot.HL, passes, segments, bitdepth, missing, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Each call is self-contained: code-blocks may be decoded concurrently
// from separate goroutines.
package ebcot

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/go-j2k/ebcot/internal/entropy"
)

// SubBand is the orientation of the sub-band a code-block belongs to.
type SubBand int

// Sub-band orientations.
const (
	// LL is the low-pass band of the coarsest resolution.
	LL SubBand = iota
	// HL is horizontally high-pass, vertically low-pass.
	HL
	// LH is horizontally low-pass, vertically high-pass.
	LH
	// HH is high-pass in both directions.
	HH
)

// String returns the string representation of the sub-band.
func (b SubBand) String() string {
	return entropy.Band(b).String()
}

// Grid is a caller-owned view of float32 cells, one per coefficient.
type Grid struct {
	// Data holds the cells; row y starts at Data[y*Stride].
	Data []float32
	// Width and Height are the code-block dimensions.
	Width, Height int
	// Stride is the distance between rows, at least Width.
	Stride int
}

// NewGrid allocates a tightly packed width x height grid.
func NewGrid(width, height int) Grid {
	return Grid{
		Data:   make([]float32, width*height),
		Width:  width,
		Height: height,
		Stride: width,
	}
}

// At returns the cell at (x, y).
func (g Grid) At(x, y int) float32 {
	return g.Data[y*g.Stride+x]
}

// Set stores v at (x, y).
func (g Grid) Set(x, y int, v float32) {
	g.Data[y*g.Stride+x] = v
}

func (g Grid) validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("%w: invalid grid dimensions: %dx%d", ErrPrecondition, g.Width, g.Height)
	}
	if g.Stride < g.Width {
		return fmt.Errorf("%w: grid stride %d below width %d", ErrPrecondition, g.Stride, g.Width)
	}
	if need := (g.Height-1)*g.Stride + g.Width; len(g.Data) < need {
		return fmt.Errorf("%w: grid holds %d cells, need %d", ErrPrecondition, len(g.Data), need)
	}
	return nil
}

// CodeBlock describes one entropy coded code-block. Its dimensions are
// those of the output grid.
type CodeBlock struct {
	// Band is the sub-band orientation.
	Band SubBand

	// Passes is the number of coding passes included for the block.
	Passes int

	// Segments holds the codeword segments in pass order. Their number
	// must equal SegmentCount(Passes, &Options). They are read, never
	// modified or retained.
	Segments [][]byte

	// Bitdepth is the number of magnitude bitplanes M_b.
	Bitdepth int

	// Missing is the number p of leading all-zero bitplanes.
	Missing int

	// Options are the coding style variations in effect.
	Options Options
}

// Storage selects how coefficient significance and sign are held.
type Storage int

const (
	// StorageStrip packs significance and sign of a 4-row strip column
	// into one byte.
	StorageStrip Storage = iota
	// StorageGrid keeps dense boolean grids.
	StorageGrid
)

// DefaultMaxArea is the default limit on coefficients per code-block.
const DefaultMaxArea = 1 << 20

// Decoder decodes code-blocks. The zero value is ready to use and may be
// shared between goroutines.
type Decoder struct {
	// Logger receives a debug record for every rejected code-block.
	// Nil disables logging.
	Logger *slog.Logger

	// Storage selects the coefficient state layout.
	Storage Storage

	// MaxArea bounds width*height; 0 means DefaultMaxArea.
	MaxArea int
}

// DecodeCodeBlock decodes a code-block into out using a zero Decoder.
// A nil opts selects the baseline coding style.
func DecodeCodeBlock(out Grid, band SubBand, passes int, segments [][]byte, bitdepth, missing int, opts *Options) error {
	cb := CodeBlock{
		Band:     band,
		Passes:   passes,
		Segments: segments,
		Bitdepth: bitdepth,
		Missing:  missing,
	}
	if opts != nil {
		cb.Options = *opts
	}
	var d Decoder
	return d.Decode(out, cb)
}

// Decode decodes cb into out. On success every cell of out is overwritten
// with magnitude times sign; on error the contents of out are undefined.
func (d *Decoder) Decode(out Grid, cb CodeBlock) error {
	if err := d.validate(out, cb); err != nil {
		d.reject(cb, 0, 0, err)
		return err
	}

	s := entropy.NewSession(d.store(out.Width, out.Height), entropy.Band(cb.Band),
		cb.Bitdepth, cb.Missing, cb.Options.internal())
	if err := s.Run(cb.Passes, cb.Segments); err != nil {
		d.reject(cb, s.PassesDecoded(), s.Bitplane(), err)
		return err
	}
	s.Emit(out.Data, out.Stride)
	return nil
}

func (d *Decoder) validate(out Grid, cb CodeBlock) error {
	if err := out.validate(); err != nil {
		return err
	}
	if !entropy.Band(cb.Band).Valid() {
		return fmt.Errorf("%w: invalid sub-band %d", ErrPrecondition, int(cb.Band))
	}
	if cb.Passes < 0 {
		return fmt.Errorf("%w: negative pass count %d", ErrCorruptData, cb.Passes)
	}
	if cb.Bitdepth < 0 || cb.Bitdepth > entropy.MaxBitplanes {
		return fmt.Errorf("%w: bit-depth %d outside [0, %d]", ErrCorruptData, cb.Bitdepth, entropy.MaxBitplanes)
	}
	if cb.Missing < 0 || cb.Missing > cb.Bitdepth {
		return fmt.Errorf("%w: %d missing bitplanes for bit-depth %d", ErrCorruptData, cb.Missing, cb.Bitdepth)
	}

	maxArea := d.MaxArea
	if maxArea <= 0 {
		maxArea = DefaultMaxArea
	}
	if out.Width > math.MaxInt32/out.Height || out.Width*out.Height > maxArea {
		return fmt.Errorf("%w: %dx%d code-block exceeds %d coefficients",
			ErrAllocation, out.Width, out.Height, maxArea)
	}
	return nil
}

func (d *Decoder) store(width, height int) entropy.StateStore {
	if d.Storage == StorageGrid {
		return entropy.NewGridStore(width, height)
	}
	return entropy.NewStripStore(width, height)
}

func (d *Decoder) reject(cb CodeBlock, pass, bitplane int, err error) {
	if d.Logger == nil {
		return
	}
	d.Logger.Debug("code-block rejected",
		slog.String("band", cb.Band.String()),
		slog.Int("passes", cb.Passes),
		slog.Int("pass", pass),
		slog.Int("bitplane", bitplane),
		slog.Any("err", err))
}
