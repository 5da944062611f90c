package entropy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	want := []PassKind{
		Cleanup,
		SignificancePropagation, MagnitudeRefinement, Cleanup,
		SignificancePropagation, MagnitudeRefinement, Cleanup,
	}
	for pass, k := range want {
		assert.Equal(t, k, Kind(pass), "pass %d", pass)
	}
	assert.Equal(t, SignificancePropagation, Kind(10))
	assert.Equal(t, "cleanup", Kind(0).String())
}

func TestUsesBypass(t *testing.T) {
	bypass := Options{SelectiveBypass: true}
	for pass := 0; pass < 10; pass++ {
		assert.False(t, UsesBypass(pass, bypass), "pass %d", pass)
	}
	assert.True(t, UsesBypass(10, bypass))
	assert.True(t, UsesBypass(11, bypass))
	assert.False(t, UsesBypass(12, bypass))
	assert.True(t, UsesBypass(13, bypass))

	assert.False(t, UsesBypass(10, Options{}))
	assert.True(t, UsesBypass(10, Options{SelectiveBypass: true, TerminateEveryPass: true}))
}

func TestSegmentIndex(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want []int // indexed by pass
	}{
		{"baseline", Options{}, []int{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}},
		{"termall", Options{TerminateEveryPass: true}, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}},
		{"bypass", Options{SelectiveBypass: true}, []int{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 2, 3, 3, 4}},
		{"bypass+termall", Options{SelectiveBypass: true, TerminateEveryPass: true}, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}},
		{"reset+segsym", Options{ResetContextPerPass: true, SegmentationSymbols: true}, []int{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for pass, want := range tt.want {
				assert.Equal(t, want, SegmentIndex(pass, tt.opts), "pass %d", pass)
			}
		})
	}
}

func TestSegmentCount(t *testing.T) {
	bypass := Options{SelectiveBypass: true}
	assert.Equal(t, 0, SegmentCount(0, bypass))
	assert.Equal(t, 1, SegmentCount(1, Options{}))
	assert.Equal(t, 1, SegmentCount(40, Options{}))
	assert.Equal(t, 1, SegmentCount(10, bypass))
	assert.Equal(t, 2, SegmentCount(11, bypass))
	assert.Equal(t, 2, SegmentCount(12, bypass))
	assert.Equal(t, 3, SegmentCount(13, bypass))
	assert.Equal(t, 7, SegmentCount(7, Options{TerminateEveryPass: true}))
}

func TestStartsSegment(t *testing.T) {
	bypass := Options{SelectiveBypass: true}
	var starts []int
	for pass := 0; pass < 19; pass++ {
		if StartsSegment(pass, bypass) {
			starts = append(starts, pass)
		}
	}
	assert.Equal(t, []int{0, 10, 12, 13, 15, 16, 18}, starts)
}

func TestMaxPasses(t *testing.T) {
	assert.Equal(t, 0, MaxPasses(5, 5))
	assert.Equal(t, 0, MaxPasses(0, 0))
	assert.Equal(t, 1, MaxPasses(1, 0))
	assert.Equal(t, 4, MaxPasses(3, 1))
	assert.Equal(t, 13, MaxPasses(5, 0))
}
