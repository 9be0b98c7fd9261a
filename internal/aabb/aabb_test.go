package aabb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-cascade/cascade/dynamics"
	"github.com/go-cascade/cascade/geom"
	"github.com/go-cascade/cascade/internal/stepdata"
	"github.com/go-cascade/cascade/internal/workerpool"
)

func TestSubstepBoundContainsConstantTerm(t *testing.T) {
	// order 2, position block [c0, c1, c2] per axis.
	coeffs := make([]float64, 7*3)
	coeffs[0], coeffs[1], coeffs[2] = 5, 1, -1 // x
	box := substepBound(coeffs, 2)
	assert.LessOrEqual(t, box.Lb[0], 5.0)
	assert.GreaterOrEqual(t, box.Ub[0], 5.0)
	assert.InDelta(t, 3.0, box.Lb[0], 1e-9) // 5 - (1+1)
	assert.InDelta(t, 7.0, box.Ub[0], 1e-9) // 5 + (1+1)
}

func TestBuildExpandsByRadiusAndReducesGlobal(t *testing.T) {
	store := stepdata.New(2)
	order := 2
	coeffsFor := func(x, y, z float64) []float64 {
		c := make([]float64, 7*(order+1))
		c[0*3+0], c[1*3+0], c[2*3+0] = x, y, z
		return c
	}
	store.Append(0, coeffsFor(0, 0, 0), dynamics.DFloatFromFloat64(0.5))
	store.Append(1, coeffsFor(10, 0, 0), dynamics.DFloatFromFloat64(0.5))

	radii := []float64{1.0, 2.0}
	active := []bool{true, true}
	pool := workerpool.New(2)

	lbs, ubs, global := Build(context.Background(), pool, store, order, [2]float64{0, 1}, radii, 0, active)
	require.Len(t, lbs, 2)

	assert.InDelta(t, -1.0, lbs[0][0], 1e-9)
	assert.InDelta(t, 1.0, ubs[0][0], 1e-9)
	assert.InDelta(t, 8.0, lbs[1][0], 1e-9)
	assert.InDelta(t, 12.0, ubs[1][0], 1e-9)

	assert.InDelta(t, -1.0, global[0][0], 1e-9)
	assert.InDelta(t, 12.0, global[1][0], 1e-9)
}

func TestBuildExpandsByConjThreshWhenLargerThanRadius(t *testing.T) {
	// A pair offset by 0.03 with radii of 0.01 would miss each other's
	// radius-only box (gap of 0.01), but a conjunction threshold of 0.03
	// must still bring their boxes into overlap so narrow phase gets a
	// chance to report the close approach.
	store := stepdata.New(2)
	order := 1
	coeffsFor := func(y float64) []float64 {
		c := make([]float64, 7*(order+1))
		c[1*2+0] = y
		return c
	}
	store.Append(0, coeffsFor(0), dynamics.DFloatFromFloat64(1.0))
	store.Append(1, coeffsFor(0.03), dynamics.DFloatFromFloat64(1.0))

	radii := []float64{0.01, 0.01}
	active := []bool{true, true}
	pool := workerpool.New(2)

	lbs, ubs, _ := Build(context.Background(), pool, store, order, [2]float64{0, 1}, radii, 0.03, active)
	box0 := geom.AABB{Lb: lbs[0], Ub: ubs[0]}
	box1 := geom.AABB{Lb: lbs[1], Ub: ubs[1]}
	assert.True(t, box0.Overlaps(box1))
}

func TestBuildExcludesSubstepsOutsideChunkBounds(t *testing.T) {
	store := stepdata.New(1)
	order := 1
	inBounds := make([]float64, 7*(order+1))
	inBounds[0] = 1
	outOfBounds := make([]float64, 7*(order+1))
	outOfBounds[0] = 100

	// First substep spans [0, 1), second spans [1, 5); only the first
	// overlaps a [0, 1) chunk.
	store.Append(0, inBounds, dynamics.DFloatFromFloat64(1.0))
	store.Append(0, outOfBounds, dynamics.DFloatFromFloat64(5.0))

	pool := workerpool.New(1)
	lbs, ubs, _ := Build(context.Background(), pool, store, order, [2]float64{0, 1}, []float64{0}, 0, []bool{true})
	assert.InDelta(t, 1.0, lbs[0][0], 1e-9)
	assert.InDelta(t, 1.0, ubs[0][0], 1e-9)
}

func TestMortonCodesInactiveSortsLast(t *testing.T) {
	global := [2][4]float64{{0, 0, 0, 0}, {10, 10, 10, 0}}
	lbs := [][4]float64{{1, 1, 1, 0}, {0, 0, 0, 0}}
	ubs := [][4]float64{{1, 1, 1, 0}, {0, 0, 0, 0}}
	codes := MortonCodes(lbs, ubs, global, []bool{true, false})
	assert.NotEqual(t, geomInactive(), codes[0])
	assert.Equal(t, geomInactive(), codes[1])
}

func geomInactive() uint64 { return ^uint64(0) }

func TestSortByMortonStableAndAscending(t *testing.T) {
	codes := []uint64{5, 1, 3, 1, 2}
	vidx := SortByMorton(codes)
	require.Len(t, vidx, 5)
	for i := 1; i < len(vidx); i++ {
		assert.LessOrEqual(t, codes[vidx[i-1]], codes[vidx[i]])
	}
	// The two particles sharing code 1 (indices 1 and 3) must keep their
	// original relative order.
	posOf := func(idx int32) int {
		for i, v := range vidx {
			if v == idx {
				return i
			}
		}
		return -1
	}
	assert.Less(t, posOf(1), posOf(3))
}

func TestSortByMortonLargeInputUsesRadixPath(t *testing.T) {
	n := radixThreshold + 10
	codes := make([]uint64, n)
	for i := range codes {
		codes[i] = uint64(n - i)
	}
	vidx := SortByMorton(codes)
	require.Len(t, vidx, n)
	for i := 1; i < len(vidx); i++ {
		assert.LessOrEqual(t, codes[vidx[i-1]], codes[vidx[i]])
	}

	// vidx must be a permutation of [0, n): every index appears once.
	seen := make([]bool, n)
	for _, idx := range vidx {
		require.False(t, seen[idx])
		seen[idx] = true
	}
}
