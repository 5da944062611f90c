// Package bio provides bit-level I/O for raw (bypass) coded JPEG 2000
// code-block segments.
package bio

// RawReader reads verbatim bits from a byte-aligned segment.
//
// After a 0xFF byte the most significant bit of the following byte is a
// stuffed zero: it is skipped, not returned as data. Once the segment is
// exhausted the reader behaves as if it were followed by 0xFF bytes, which
// matches how the arithmetic decoder treats the end of a segment.
type RawReader struct {
	data  []byte
	pos   int
	buf   byte  // Current byte buffer
	cnt   uint8 // Number of unread bits in buf
	sawFF bool  // Previous byte was 0xFF
}

// NewRawReader creates a reader over segment. The slice is never modified.
func NewRawReader(segment []byte) *RawReader {
	return &RawReader{data: segment}
}

// Reset rebinds the reader to a new segment.
func (r *RawReader) Reset(segment []byte) {
	*r = RawReader{data: segment}
}

// ReadBit reads a single bit (0 or 1).
func (r *RawReader) ReadBit() int {
	if r.cnt == 0 {
		b := byte(0xFF)
		if r.pos < len(r.data) {
			b = r.data[r.pos]
			r.pos++
		}
		// After 0xFF, next byte has only 7 bits
		if r.sawFF {
			r.cnt = 7
		} else {
			r.cnt = 8
		}
		r.sawFF = b == 0xFF
		r.buf = b
	}
	r.cnt--
	return int((r.buf >> r.cnt) & 1)
}

// ReadBits reads n bits (1-32), most significant first.
func (r *RawReader) ReadBits(n uint) uint32 {
	var result uint32
	for i := uint(0); i < n; i++ {
		result = (result << 1) | uint32(r.ReadBit())
	}
	return result
}

// Consumed returns the number of segment bytes fetched so far.
func (r *RawReader) Consumed() int {
	return r.pos
}

// RawWriter produces a bit-stuffed raw segment readable by RawReader.
type RawWriter struct {
	buf   []byte
	cur   byte
	cnt   uint8
	delay bool // Last flushed byte was 0xFF
}

// NewRawWriter creates an empty raw writer.
func NewRawWriter() *RawWriter {
	return &RawWriter{buf: make([]byte, 0, 64)}
}

// WriteBit writes a single bit.
func (w *RawWriter) WriteBit(bit int) {
	// After writing 0xFF, we must limit the next byte to 7 bits
	maxBits := uint8(8)
	if w.delay {
		maxBits = 7
	}

	w.cur = (w.cur << 1) | byte(bit&1)
	w.cnt++

	if w.cnt == maxBits {
		w.flushByte()
	}
}

// WriteBits writes the lowest n bits of val, most significant first.
func (w *RawWriter) WriteBits(val uint32, n uint) {
	for i := n; i > 0; i-- {
		w.WriteBit(int((val >> (i - 1)) & 1))
	}
}

func (w *RawWriter) flushByte() {
	w.buf = append(w.buf, w.cur)
	w.delay = w.cur == 0xFF
	w.cur = 0
	w.cnt = 0
}

// Bytes pads any partial byte with zeros and returns the segment.
func (w *RawWriter) Bytes() []byte {
	if w.cnt > 0 {
		maxBits := uint8(8)
		if w.delay {
			maxBits = 7
		}
		w.cur <<= maxBits - w.cnt
		w.flushByte()
	}
	return w.buf
}
