// Package entropy implements the EBCOT bitplane decoder of JPEG 2000 Part 1.
//
// This includes:
// - MQ coder (adaptive binary arithmetic decoder, Annex C)
// - Context modeling for EBCOT (Annex D)
// - Coefficient state storage
// - The coding pass orchestrator with bypass, termination, reset,
//   vertically causal and segmentation symbol modes
package entropy

// mqState represents a state in the MQ coder state machine.
// There are 94 states (47 * 2): even indices have MPS=0 and odd indices
// have MPS=1, so the MPS switch of Table C.2 is folded into NLPS.
type mqState struct {
	Qe   uint32 // Probability estimate (fixed-point, qeval)
	MPS  uint8  // Most probable symbol for this state (0 or 1)
	NMPS uint8  // Next state index if MPS occurs
	NLPS uint8  // Next state index if LPS occurs
}

// MQ coder state table (Table C.2, 94 states = 47 * 2)
var mqStates = []mqState{
	{0x5601, 0, 2, 3},   // 0
	{0x5601, 1, 3, 2},   // 1
	{0x3401, 0, 4, 12},  // 2
	{0x3401, 1, 5, 13},  // 3
	{0x1801, 0, 6, 18},  // 4
	{0x1801, 1, 7, 19},  // 5
	{0x0AC1, 0, 8, 24},  // 6
	{0x0AC1, 1, 9, 25},  // 7
	{0x0521, 0, 10, 58}, // 8
	{0x0521, 1, 11, 59}, // 9
	{0x0221, 0, 76, 66}, // 10
	{0x0221, 1, 77, 67}, // 11
	{0x5601, 0, 14, 13}, // 12
	{0x5601, 1, 15, 12}, // 13
	{0x5401, 0, 16, 28}, // 14
	{0x5401, 1, 17, 29}, // 15
	{0x4801, 0, 18, 28}, // 16
	{0x4801, 1, 19, 29}, // 17
	{0x3801, 0, 20, 28}, // 18
	{0x3801, 1, 21, 29}, // 19
	{0x3001, 0, 22, 34}, // 20
	{0x3001, 1, 23, 35}, // 21
	{0x2401, 0, 24, 36}, // 22
	{0x2401, 1, 25, 37}, // 23
	{0x1C01, 0, 26, 40}, // 24
	{0x1C01, 1, 27, 41}, // 25
	{0x1601, 0, 58, 42}, // 26
	{0x1601, 1, 59, 43}, // 27
	{0x5601, 0, 30, 29}, // 28
	{0x5601, 1, 31, 28}, // 29
	{0x5401, 0, 32, 28}, // 30
	{0x5401, 1, 33, 29}, // 31
	{0x5101, 0, 34, 30}, // 32
	{0x5101, 1, 35, 31}, // 33
	{0x4801, 0, 36, 32}, // 34
	{0x4801, 1, 37, 33}, // 35
	{0x3801, 0, 38, 34}, // 36
	{0x3801, 1, 39, 35}, // 37
	{0x3401, 0, 40, 36}, // 38
	{0x3401, 1, 41, 37}, // 39
	{0x3001, 0, 42, 38}, // 40
	{0x3001, 1, 43, 39}, // 41
	{0x2801, 0, 44, 38}, // 42
	{0x2801, 1, 45, 39}, // 43
	{0x2401, 0, 46, 40}, // 44
	{0x2401, 1, 47, 41}, // 45
	{0x2201, 0, 48, 42}, // 46
	{0x2201, 1, 49, 43}, // 47
	{0x1C01, 0, 50, 44}, // 48
	{0x1C01, 1, 51, 45}, // 49
	{0x1801, 0, 52, 46}, // 50
	{0x1801, 1, 53, 47}, // 51
	{0x1601, 0, 54, 48}, // 52
	{0x1601, 1, 55, 49}, // 53
	{0x1401, 0, 56, 50}, // 54
	{0x1401, 1, 57, 51}, // 55
	{0x1201, 0, 58, 52}, // 56
	{0x1201, 1, 59, 53}, // 57
	{0x1101, 0, 60, 54}, // 58
	{0x1101, 1, 61, 55}, // 59
	{0x0AC1, 0, 62, 56}, // 60
	{0x0AC1, 1, 63, 57}, // 61
	{0x09C1, 0, 64, 58}, // 62
	{0x09C1, 1, 65, 59}, // 63
	{0x08A1, 0, 66, 60}, // 64
	{0x08A1, 1, 67, 61}, // 65
	{0x0521, 0, 68, 62}, // 66
	{0x0521, 1, 69, 63}, // 67
	{0x0441, 0, 70, 64}, // 68
	{0x0441, 1, 71, 65}, // 69
	{0x02A1, 0, 72, 66}, // 70
	{0x02A1, 1, 73, 67}, // 71
	{0x0221, 0, 74, 68}, // 72
	{0x0221, 1, 75, 69}, // 73
	{0x0141, 0, 76, 70}, // 74
	{0x0141, 1, 77, 71}, // 75
	{0x0111, 0, 78, 72}, // 76
	{0x0111, 1, 79, 73}, // 77
	{0x0085, 0, 80, 74}, // 78
	{0x0085, 1, 81, 75}, // 79
	{0x0049, 0, 82, 76}, // 80
	{0x0049, 1, 83, 77}, // 81
	{0x0025, 0, 84, 78}, // 82
	{0x0025, 1, 85, 79}, // 83
	{0x0015, 0, 86, 80}, // 84
	{0x0015, 1, 87, 81}, // 85
	{0x0009, 0, 88, 82}, // 86
	{0x0009, 1, 89, 83}, // 87
	{0x0005, 0, 90, 84}, // 88
	{0x0005, 1, 91, 85}, // 89
	{0x0001, 0, 90, 86}, // 90
	{0x0001, 1, 91, 87}, // 91
	{0x5601, 0, 92, 92}, // 92 - Uniform context (MPS=0)
	{0x5601, 1, 93, 93}, // 93 - Uniform context (MPS=1)
}

// Flat arrays indexed directly by state number.
var (
	mqQe   [94]uint32 // Probability estimates
	mqNMPS [94]uint8  // Next state for MPS
	mqNLPS [94]uint8  // Next state for LPS
)

func init() {
	for i, s := range mqStates {
		mqQe[i] = s.Qe
		mqNMPS[i] = s.NMPS
		mqNLPS[i] = s.NLPS
	}
}

// Context labels. Labels 0-16 are the general purpose contexts selected by
// the context model; the uniform and run-length contexts are singletons.
const (
	// Significance (zero coding) contexts 0-8
	CtxZC0 = iota
	CtxZC1
	CtxZC2
	CtxZC3
	CtxZC4
	CtxZC5
	CtxZC6
	CtxZC7
	CtxZC8

	// Sign coding contexts 9-13
	CtxSC0
	CtxSC1
	CtxSC2
	CtxSC3
	CtxSC4

	// Magnitude refinement contexts 14-16
	CtxMag0
	CtxMag1
	CtxMag2

	// Uniform context
	CtxUni

	// Run-length context
	CtxRL

	NumContexts // Total number of contexts
)

// NumGeneralContexts is the number of labels the context model can produce.
const NumGeneralContexts = CtxMag2 + 1

// Initial state indices (Table D.7).
const (
	initStateZC0 = 4 * 2
	initStateRL  = 3 * 2
	initStateUni = 46 * 2
)

// Context is the adaptive probability state of one MQ context: an index
// into the doubled state table, whose low bit is the MPS.
type Context uint8

// MPS returns the current most probable symbol.
func (c Context) MPS() int {
	return int(c & 1)
}

// Qe returns the current probability estimate.
func (c Context) Qe() uint32 {
	return mqQe[c]
}

// Contexts holds every context used while coding one code-block.
type Contexts [NumContexts]Context

// NewContexts returns contexts in their initial states.
func NewContexts() *Contexts {
	c := new(Contexts)
	c.Reset()
	return c
}

// Reset restores all contexts, including the uniform and run-length
// singletons, to their Table D.7 initial states.
func (c *Contexts) Reset() {
	for i := range c {
		c[i] = 0
	}
	c[CtxZC0] = initStateZC0
	c[CtxRL] = initStateRL
	c[CtxUni] = initStateUni
}

// MQDecoder implements the MQ arithmetic decoder.
//
// The decoder owns only the interval and code registers; context states
// live in a Contexts value so they survive re-initialisation on a new
// segment.
type MQDecoder struct {
	// Code register
	C uint32
	// Interval size
	A uint32
	// Bit counter
	CT uint32
	// Input buffer position
	bp int
	// Input data
	data []byte
	// Number of times the decoder ran past the segment end
	endCounter int
}

// NewMQDecoder creates a new MQ decoder bound to data.
func NewMQDecoder(data []byte) *MQDecoder {
	d := &MQDecoder{}
	d.Init(data)
	return d
}

// Init binds the decoder to a new segment (INITDEC, C.3.5).
func (d *MQDecoder) Init(data []byte) {
	d.data = data
	d.bp = -1
	d.CT = 0
	d.endCounter = 0

	if len(data) == 0 {
		d.C = 0xFF << 16
	} else {
		d.bp = 0
		d.C = uint32(data[0]) << 16
	}
	d.byteIn()
	d.C <<= 7
	d.CT -= 7
	d.A = 0x8000
}

// byteIn reads a byte with bit stuffing handling.
func (d *MQDecoder) byteIn() {
	if d.bp < 0 {
		d.bp = 0
	}

	// Check if we're past the end
	if d.bp >= len(d.data) {
		d.C += 0xFF00
		d.CT = 8
		d.endCounter++
		return
	}

	var nextByte byte
	if d.bp+1 < len(d.data) {
		nextByte = d.data[d.bp+1]
	} else {
		nextByte = 0xFF
	}

	if d.data[d.bp] == 0xFF {
		if nextByte > 0x8F {
			// Marker - don't advance
			d.C += 0xFF00
			d.CT = 8
			d.endCounter++
		} else {
			d.bp++
			d.C += uint32(nextByte) << 9
			d.CT = 7
		}
	} else {
		d.bp++
		d.C += uint32(nextByte) << 8
		d.CT = 8
	}
}

// Decode decodes a binary decision using cx and updates its state (C.3.2).
func (d *MQDecoder) Decode(cx *Context) int {
	stateIdx := *cx
	qe := mqQe[stateIdx]
	mps := int(stateIdx & 1)

	d.A -= qe

	if (d.C >> 16) < qe {
		// Upper (LPS) sub-interval
		var decision int
		if d.A < qe {
			// Conditional exchange: actually MPS
			decision = mps
			*cx = Context(mqNMPS[stateIdx])
		} else {
			decision = 1 - mps
			*cx = Context(mqNLPS[stateIdx])
		}
		d.A = qe
		d.renormDec()
		return decision
	}

	// Lower (MPS) sub-interval
	d.C -= qe << 16
	if (d.A & 0x8000) == 0 {
		var decision int
		if d.A < qe {
			// Conditional exchange: actually LPS
			decision = 1 - mps
			*cx = Context(mqNLPS[stateIdx])
		} else {
			decision = mps
			*cx = Context(mqNMPS[stateIdx])
		}
		d.renormDec()
		return decision
	}
	return mps
}

// renormDec performs decoder interval renormalization.
func (d *MQDecoder) renormDec() {
	for (d.A & 0x8000) == 0 {
		if d.CT == 0 {
			d.byteIn()
		}
		d.A <<= 1
		d.C <<= 1
		d.CT--
	}
}

// Overrun reports how many bytes were synthesised past the segment end.
func (d *MQDecoder) Overrun() int {
	return d.endCounter
}

// MQEncoder implements the MQ arithmetic encoder. It only exists to
// produce code-block streams for EncodeCodeBlock.
type MQEncoder struct {
	// Interval size (A register)
	A uint32
	// Code register (C register)
	C uint32
	// Bit counter
	CT uint32
	// Output buffer; buf[0] is the byte preceding the segment
	buf []byte
	// Buffer position (index of last written byte)
	bp int
}

// NewMQEncoder creates a new MQ encoder.
func NewMQEncoder() *MQEncoder {
	e := &MQEncoder{}
	e.Init()
	return e
}

// Init starts a new segment (INITENC, C.2.8).
func (e *MQEncoder) Init() {
	e.A = 0x8000
	e.C = 0
	e.CT = 12
	e.buf = make([]byte, 1, 256)
	e.bp = 0
}

// Encode encodes a binary decision (0 or 1) with cx and updates its state.
func (e *MQEncoder) Encode(cx *Context, decision int) {
	stateIdx := *cx
	qe := mqQe[stateIdx]
	mps := stateIdx & 1

	e.A -= qe

	if Context(decision&1) == mps {
		// MPS path (most probable symbol)
		if (e.A & 0x8000) == 0 {
			if e.A < qe {
				e.A = qe
			} else {
				e.C += qe
			}
			*cx = Context(mqNMPS[stateIdx])
			e.renormEnc()
		} else {
			e.C += qe
		}
	} else {
		// LPS path (least probable symbol)
		if e.A < qe {
			e.C += qe
		} else {
			e.A = qe
		}
		*cx = Context(mqNLPS[stateIdx])
		e.renormEnc()
	}
}

// renormEnc performs encoder interval renormalization.
func (e *MQEncoder) renormEnc() {
	for (e.A & 0x8000) == 0 {
		e.A <<= 1
		e.C <<= 1
		e.CT--
		if e.CT == 0 {
			e.byteOut()
		}
	}
}

// emit advances the output position and stores b there.
func (e *MQEncoder) emit(b byte) {
	e.bp++
	if e.bp >= len(e.buf) {
		e.buf = append(e.buf, 0)
	}
	e.buf[e.bp] = b
}

// byteOut outputs a byte with bit stuffing.
func (e *MQEncoder) byteOut() {
	if e.buf[e.bp] == 0xFF {
		e.emit(byte(e.C >> 20))
		e.C &= 0xFFFFF
		e.CT = 7
		return
	}
	if (e.C & 0x8000000) == 0 {
		e.emit(byte(e.C >> 19))
		e.C &= 0x7FFFF
		e.CT = 8
		return
	}
	e.buf[e.bp]++
	if e.buf[e.bp] == 0xFF {
		e.C &= 0x7FFFFFF
		e.emit(byte(e.C >> 20))
		e.C &= 0xFFFFF
		e.CT = 7
	} else {
		e.emit(byte(e.C >> 19))
		e.C &= 0x7FFFF
		e.CT = 8
	}
}

// Flush terminates the segment (C.2.9) and returns its bytes.
func (e *MQEncoder) Flush() []byte {
	// setbits
	tempC := e.C + e.A
	e.C |= 0xFFFF
	if e.C >= tempC {
		e.C -= 0x8000
	}

	e.C <<= e.CT
	e.byteOut()
	e.C <<= e.CT
	e.byteOut()

	// Don't include trailing 0xFF
	endPos := e.bp + 1
	if e.buf[endPos-1] == 0xFF {
		endPos--
	}

	// Skip the initial dummy byte
	if endPos > 1 {
		return append([]byte(nil), e.buf[1:endPos]...)
	}
	return nil
}
