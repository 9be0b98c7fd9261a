package chunker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountClampsToRange(t *testing.T) {
	assert.Equal(t, 1, Count(1, 100))
	assert.Equal(t, 1, Count(50, 100))
	assert.Equal(t, 2, Count(250, 100))
	assert.Equal(t, 200, Count(1_000_000, 100))
}

func TestBoundsPartitionsWithoutGaps(t *testing.T) {
	dt := 1.0
	nchunks := 7
	prev := 0.0
	for c := 0; c < nchunks; c++ {
		t0, t1 := Bounds(c, nchunks, dt)
		assert.Equal(t, prev, t0)
		assert.Less(t, t0, t1)
		prev = t1
	}
	assert.Equal(t, dt, prev)
}
