package workerpool

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForVisitsEveryIndexOnce(t *testing.T) {
	p := New(4)
	const n = 1000
	var hits [n]int32

	p.For(context.Background(), n, func(i int) {
		atomic.AddInt32(&hits[i], 1)
	})

	for i, h := range hits {
		assert.Equal(t, int32(1), h, "index %d visited %d times", i, h)
	}
}

func TestSplitRangeCoversWithoutOverlap(t *testing.T) {
	ranges := SplitRange(17, 5)

	total := 0
	prevEnd := 0
	for _, r := range ranges {
		assert.Equal(t, prevEnd, r.Begin)
		assert.Less(t, r.Begin, r.End)
		total += r.End - r.Begin
		prevEnd = r.End
	}
	assert.Equal(t, 17, total)
	assert.Equal(t, 17, prevEnd)
}

func TestForRangeVisitsEveryRange(t *testing.T) {
	p := New(3)
	ranges := SplitRange(100, 7)
	var visited int32

	p.ForRange(context.Background(), ranges, func(r Range) {
		atomic.AddInt32(&visited, int32(r.End-r.Begin))
	})

	assert.Equal(t, int32(100), visited)
}
