package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAABBOverlaps(t *testing.T) {
	a := FromPoint(Vec{0, 0, 0}, 0.1)
	b := FromPoint(Vec{0.15, 0, 0}, 0.1)
	c := FromPoint(Vec{10, 0, 0}, 0.1)

	assert.True(t, a.Overlaps(b), "boxes within combined radius should overlap")
	assert.False(t, a.Overlaps(c), "distant boxes should not overlap")
}

func TestAABBUnion(t *testing.T) {
	b := Empty()
	b.Union(FromPoint(Vec{1, 2, 3}, 0.5))
	b.Union(FromPoint(Vec{-1, 0, 3}, 0.25))

	assert.Equal(t, -1.25, b.Lb[0])
	assert.Equal(t, 1.5, b.Ub[0])
	assert.Equal(t, 0.5, b.Ub[3], "radius lane tracks the largest radius seen")
}

func TestMortonMonotonicAlongAxis(t *testing.T) {
	global := AABB{Lb: [4]float64{0, 0, 0, 0}, Ub: [4]float64{10, 10, 10, 0}}

	var prev uint64
	for i := 0; i <= 10; i++ {
		m := Morton(Vec{float64(i), 0, 0}, global)
		if i > 0 {
			assert.GreaterOrEqual(t, m, prev, "morton code must not decrease as x increases")
		}
		prev = m
	}
}

func TestMortonInactiveSentinelSortsLast(t *testing.T) {
	global := AABB{Lb: [4]float64{0, 0, 0, 0}, Ub: [4]float64{10, 10, 10, 0}}
	m := Morton(Vec{9.9, 9.9, 9.9}, global)
	assert.Less(t, m, InactiveMorton)
}
