package dynamics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeplerPtaCfuncMatchesInitialConditions(t *testing.T) {
	provider := NewKepler(6, 1.0)
	in := []float64{1, 0, 0, 0, 1, 0, 0.01}
	n := provider.Order() + 1
	out := make([]float64, 7*n)
	provider.PtaCfunc(out, in, nil)

	// Index 0 of every component's block is the initial condition.
	assert.InDelta(t, 1.0, out[0*n+0], 1e-12) // x0
	assert.InDelta(t, 0.0, out[1*n+0], 1e-12) // y0
	assert.InDelta(t, 0.0, out[2*n+0], 1e-12) // z0
	assert.InDelta(t, 0.0, out[3*n+0], 1e-12) // vx0
	assert.InDelta(t, 1.0, out[4*n+0], 1e-12) // vy0
	assert.InDelta(t, 0.01, out[6*n+0], 1e-12)
}

func TestKeplerCircularOrbitCurvesInward(t *testing.T) {
	// A unit-mu circular orbit at radius 1 has centripetal acceleration
	// -1 along x at t=0, i.e. x''(0) = -mu/r^2 = -1, so the degree-2
	// position coefficient (x''(0)/2) should be -0.5.
	provider := NewKepler(4, 1.0)
	in := []float64{1, 0, 0, 0, 1, 0, 0}
	n := provider.Order() + 1
	out := make([]float64, 7*n)
	provider.PtaCfunc(out, in, nil)

	require.Greater(t, n, 2)
	assert.InDelta(t, -0.5, out[0*n+2], 1e-9)
}
