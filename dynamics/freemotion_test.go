package dynamics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreeMotionPropagatesInOneSubstep(t *testing.T) {
	provider := NewFreeMotion(4)
	state := [7]float64{0, 0, 0, 1, 2, 3, 0.1}
	integ := NewScalarIntegrator(provider, state, []float64{0, 0}, 1e-6)

	outcome, err := integ.PropagateUntil(context.Background(), 2.0, false, nil)
	require.NoError(t, err)
	assert.False(t, outcome.Terminal())
	assert.InDelta(t, 2.0, outcome.TimeReached, 1e-9)

	got := integ.StateSlice()
	assert.InDelta(t, 2.0, got[0], 1e-6) // x0 + vx*t = 0 + 1*2
	assert.InDelta(t, 4.0, got[1], 1e-6) // y0 + vy*t = 0 + 2*2
	assert.InDelta(t, 6.0, got[2], 1e-6) // z0 + vz*t = 0 + 3*2
}

func TestFreeMotionReentryFlag(t *testing.T) {
	provider := NewFreeMotion(4)
	// Starts at radius 10 along x, moving inward at speed 20; crosses a
	// reentry surface at radius 5 partway through a 1-unit step.
	state := [7]float64{10, 0, 0, -20, 0, 0, 0.1}
	integ := NewScalarIntegrator(provider, state, []float64{5, 0}, 1e-6)

	outcome, err := integ.PropagateUntil(context.Background(), 1.0, false, nil)
	require.NoError(t, err)
	assert.True(t, outcome.Terminal())
	assert.NotZero(t, outcome.Flags&FlagReentry)
}

func TestSqDistCoeffsZeroForCoincidentParticles(t *testing.T) {
	order := 3
	n := order + 1
	in := make([]float64, 6*n)
	for i := 0; i < n; i++ {
		in[i] = 1.0     // xi
		in[3*n+i] = 1.0 // xj == xi
	}
	out := make([]float64, 2*order+1)
	sqDistCoeffs(out, in, order)
	for _, v := range out {
		assert.InDelta(t, 0.0, v, 1e-12)
	}
}
