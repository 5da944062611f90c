package entropy

import (
	"testing"
)

func TestMQEncoder_Decoder_Roundtrip(t *testing.T) {
	tests := []struct {
		name     string
		bits     []int
		contexts []int
	}{
		{"single_zero", []int{0}, []int{0}},
		{"single_one", []int{1}, []int{0}},
		{"alternating", []int{0, 1, 0, 1, 0, 1, 0, 1}, []int{0, 0, 0, 0, 0, 0, 0, 0}},
		{"all_zeros", []int{0, 0, 0, 0, 0, 0, 0, 0}, []int{0, 0, 0, 0, 0, 0, 0, 0}},
		{"all_ones", []int{1, 1, 1, 1, 1, 1, 1, 1}, []int{0, 0, 0, 0, 0, 0, 0, 0}},
		{"mixed_contexts", []int{0, 1, 0, 1}, []int{0, 1, 2, 3}},
		{"uniform_context", []int{0, 1, 0, 1}, []int{CtxUni, CtxUni, CtxUni, CtxUni}},
		{"run_length_context", []int{0, 0, 1, 0}, []int{CtxRL, CtxRL, CtxRL, CtxRL}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encCtx := NewContexts()
			enc := NewMQEncoder()
			for i, bit := range tt.bits {
				enc.Encode(&encCtx[tt.contexts[i]], bit)
			}
			encoded := enc.Flush()

			decCtx := NewContexts()
			dec := NewMQDecoder(encoded)
			for i, expected := range tt.bits {
				got := dec.Decode(&decCtx[tt.contexts[i]])
				if got != expected {
					t.Errorf("bit %d: got %d, want %d", i, got, expected)
				}
			}
			if *encCtx != *decCtx {
				t.Errorf("context states diverged: enc %v, dec %v", encCtx, decCtx)
			}
		})
	}
}

func TestMQEncoder_LongSequence(t *testing.T) {
	bits := make([]int, 1000)
	contexts := make([]int, 1000)
	for i := range bits {
		bits[i] = (i / 3) % 2
		contexts[i] = i % NumContexts
	}

	encCtx := NewContexts()
	enc := NewMQEncoder()
	for i, bit := range bits {
		enc.Encode(&encCtx[contexts[i]], bit)
	}
	encoded := enc.Flush()

	decCtx := NewContexts()
	dec := NewMQDecoder(encoded)
	for i, expected := range bits {
		got := dec.Decode(&decCtx[contexts[i]])
		if got != expected {
			t.Fatalf("bit %d: got %d, want %d", i, got, expected)
		}
	}
}

func TestMQ_ContextsSurviveReinit(t *testing.T) {
	// Two segments share context states; only the registers restart.
	first := []int{1, 1, 1, 0, 1, 1}
	second := []int{1, 0, 1, 1, 1, 1}

	encCtx := NewContexts()
	enc := NewMQEncoder()
	for _, b := range first {
		enc.Encode(&encCtx[CtxZC3], b)
	}
	seg0 := enc.Flush()
	enc.Init()
	for _, b := range second {
		enc.Encode(&encCtx[CtxZC3], b)
	}
	seg1 := enc.Flush()

	decCtx := NewContexts()
	dec := NewMQDecoder(seg0)
	for i, want := range first {
		if got := dec.Decode(&decCtx[CtxZC3]); got != want {
			t.Fatalf("segment 0 bit %d: got %d, want %d", i, got, want)
		}
	}
	dec.Init(seg1)
	for i, want := range second {
		if got := dec.Decode(&decCtx[CtxZC3]); got != want {
			t.Fatalf("segment 1 bit %d: got %d, want %d", i, got, want)
		}
	}
}

func TestContexts_Reset(t *testing.T) {
	c := NewContexts()
	if c[CtxZC0] != 8 {
		t.Errorf("ZC0 initial state = %d, want 8 (state 4, MPS 0)", c[CtxZC0])
	}
	if c[CtxRL] != 6 {
		t.Errorf("RL initial state = %d, want 6 (state 3, MPS 0)", c[CtxRL])
	}
	if c[CtxUni] != 92 {
		t.Errorf("UNI initial state = %d, want 92 (state 46, MPS 0)", c[CtxUni])
	}
	for i := CtxZC1; i <= CtxMag2; i++ {
		if c[i] != 0 {
			t.Errorf("context %d initial state = %d, want 0", i, c[i])
		}
	}

	c[CtxZC5] = 17
	c[CtxUni] = 93
	c.Reset()
	if c[CtxZC5] != 0 || c[CtxUni] != 92 {
		t.Errorf("Reset() left ZC5=%d UNI=%d", c[CtxZC5], c[CtxUni])
	}
}

func TestContext_Accessors(t *testing.T) {
	if got := Context(13).MPS(); got != 1 {
		t.Errorf("Context(13).MPS() = %d, want 1", got)
	}
	if got := Context(92).Qe(); got != 0x5601 {
		t.Errorf("Context(92).Qe() = %#x, want 0x5601", got)
	}
}

func TestMQDecoder_EmptyData(t *testing.T) {
	ctx := NewContexts()
	dec := NewMQDecoder(nil)
	// Decoding from nothing must not panic and must stay deterministic.
	var a [16]int
	for i := range a {
		a[i] = dec.Decode(&ctx[CtxZC0])
	}
	ctx2 := NewContexts()
	dec2 := NewMQDecoder([]byte{})
	for i := range a {
		if got := dec2.Decode(&ctx2[CtxZC0]); got != a[i] {
			t.Fatalf("bit %d differs between nil and empty segment", i)
		}
	}
	if dec.Overrun() == 0 {
		t.Error("expected overrun on empty segment")
	}
}

func TestMQEncoder_FlushNoTrailingFF(t *testing.T) {
	ctx := NewContexts()
	enc := NewMQEncoder()
	for i := 0; i < 200; i++ {
		enc.Encode(&ctx[CtxUni], 1)
	}
	data := enc.Flush()
	if n := len(data); n > 0 && data[n-1] == 0xFF {
		t.Errorf("flushed data ends in 0xFF: %x", data)
	}
}
