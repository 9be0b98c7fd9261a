package sim

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-cascade/cascade/internal/errs"
)

func flatState(rows ...[7]float64) []float64 {
	out := make([]float64, 0, len(rows)*7)
	for _, r := range rows {
		out = append(out, r[:]...)
	}
	return out
}

// Two particles colliding head-on under free motion.
func TestStepHeadOnCollision(t *testing.T) {
	state := flatState(
		[7]float64{-1, 0, 0, 1, 0, 0, 0.01},
		[7]float64{1, 0, 0, -1, 0, 0, 0.01},
	)
	s, err := New(state, 2, WithDynamics(DynFreeMotion))
	require.NoError(t, err)

	status, err := s.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusCollision, status)

	coll := s.CollVec()
	require.Len(t, coll, 1)
	assert.InDelta(t, 0.99, coll[0].T, 1e-6)
	assert.Equal(t, int32(0), coll[0].I)
	assert.Equal(t, int32(1), coll[0].J)
}

// Same setup but offset by 0.03 in y so the particles graze past
// each other instead of colliding; with a conjunction threshold at
// 0.03 the close approach is still reported as a conjunction.
func TestStepGrazingMissReportsConjunction(t *testing.T) {
	state := flatState(
		[7]float64{-1, 0, 0, 1, 0, 0, 0.01},
		[7]float64{1, 0.03, 0, -1, 0, 0, 0.01},
	)
	s, err := New(state, 2, WithDynamics(DynFreeMotion), WithConjThresh(0.03))
	require.NoError(t, err)

	status, err := s.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, status)
	assert.Empty(t, s.CollVec())

	var conj []struct{ t, dmin float64 }
	for _, chunk := range s.ConjVecs() {
		for _, c := range chunk {
			conj = append(conj, struct{ t, dmin float64 }{c.T, c.DMin})
		}
	}
	require.Len(t, conj, 1)
	assert.InDelta(t, 1.0, conj[0].t, 1e-6)
	assert.InDelta(t, 0.03, conj[0].dmin, 1e-6)
}

// A single radially infalling particle crosses the reentry sphere.
func TestStepReentry(t *testing.T) {
	state := flatState([7]float64{2, 0, 0, -1, 0, 0, 0.01})
	s, err := New(state, 3, WithDynamics(DynFreeMotion), WithReentryRadius(1.0))
	require.NoError(t, err)

	status, err := s.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusReentry, status)

	terms := s.TerminalEvents()
	require.Len(t, terms, 1)
	assert.InDelta(t, 1.0, terms[0].T, 1e-6)
}

// A default (empty) sim steps to success and leaves every event
// accessor empty.
func TestStepEmptySim(t *testing.T) {
	s, err := New(nil, 1)
	require.NoError(t, err)

	status, err := s.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, status)
	assert.Empty(t, s.GetState())
	assert.Empty(t, s.CollVec())
	assert.Empty(t, s.ConjVecs())
	assert.Empty(t, s.TerminalEvents())
}

// Removing a particle (with a duplicated index) leaves the
// remaining rows in their original relative order.
func TestRemoveParticlesThenStep(t *testing.T) {
	state := flatState(
		[7]float64{0, 0, 0, 0, 0, 0, 0.01},
		[7]float64{100, 0, 0, 0, 0, 0, 0.01},
		[7]float64{200, 0, 0, 0, 0, 0, 0.01},
	)
	s, err := New(state, 1, WithDynamics(DynFreeMotion))
	require.NoError(t, err)

	require.NoError(t, s.RemoveParticles([]int{1, 1}))
	assert.Equal(t, 2, s.NParts())
	assert.Equal(t, flatState(
		[7]float64{0, 0, 0, 0, 0, 0, 0.01},
		[7]float64{200, 0, 0, 0, 0, 0, 0.01},
	), s.GetState())

	status, err := s.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, status)
}

func TestRemoveParticlesRejectsOutOfRange(t *testing.T) {
	state := flatState([7]float64{0, 0, 0, 0, 0, 0, 0.01})
	s, err := New(state, 1)
	require.NoError(t, err)

	err = s.RemoveParticles([]int{5})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InvalidArgument))
}

// An invalid ct is rejected with InvalidArgument, both at
// construction and via SetCt.
func TestSetCtRejectsNonPositive(t *testing.T) {
	state := flatState([7]float64{0, 0, 0, 0, 0, 0, 0.01})
	s, err := New(state, 1)
	require.NoError(t, err)

	err = s.SetCt(-1.0)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InvalidArgument))
	assert.Contains(t, err.Error(), "-1")
}

func TestNewRejectsInvalidCt(t *testing.T) {
	state := flatState([7]float64{0, 0, 0, 0, 0, 0, 0.01})
	_, err := New(state, 0)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InvalidArgument))
}

func TestNewRejectsNonPositiveTol(t *testing.T) {
	state := flatState([7]float64{0, 0, 0, 0, 0, 0, 0.01})
	_, err := New(state, 1, WithTol(0))
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InvalidArgument))
}

// The first-collision-per-particle reporting policy is strictly opt-in:
// the same three-particle setup reports both of particle 0's collisions
// by default, and only the earliest with the option set.
func TestStepFirstCollisionOnlyPolicy(t *testing.T) {
	state := flatState(
		[7]float64{-1, 0, 0, 1, 0, 0, 0.01},
		[7]float64{1, 0, 0, -1, 0, 0, 0.01},
		[7]float64{1.1, 0, 0, -1, 0, 0, 0.01},
	)

	all, err := New(state, 2, WithDynamics(DynFreeMotion))
	require.NoError(t, err)
	_, err = all.Step(context.Background())
	require.NoError(t, err)
	require.Len(t, all.CollVec(), 2)

	first, err := New(state, 2, WithDynamics(DynFreeMotion), WithFirstCollisionOnly(true))
	require.NoError(t, err)
	_, err = first.Step(context.Background())
	require.NoError(t, err)
	coll := first.CollVec()
	require.Len(t, coll, 1)
	assert.InDelta(t, 0.99, coll[0].T, 1e-6)
}

// Every reported event's time lies within [0, Δt).
func TestCollisionTimesWithinSuperstep(t *testing.T) {
	state := flatState(
		[7]float64{-1, 0, 0, 1, 0, 0, 0.01},
		[7]float64{1, 0, 0, -1, 0, 0, 0.01},
	)
	s, err := New(state, 2, WithDynamics(DynFreeMotion))
	require.NoError(t, err)

	_, err = s.Step(context.Background())
	require.NoError(t, err)
	for _, c := range s.CollVec() {
		assert.GreaterOrEqual(t, c.T, 0.0)
		assert.Less(t, c.T, s.GetCt())
	}

	// No duplicate (i, j) may share an identical time.
	type key struct {
		i, j int32
		t    float64
	}
	seen := make(map[key]bool)
	for _, c := range s.CollVec() {
		k := key{c.I, c.J, c.T}
		assert.False(t, seen[k])
		seen[k] = true
	}
}

// Cloning a sim and stepping both the original and the
// clone independently produces identical states and events.
func TestCloneThenStepMatchesOriginal(t *testing.T) {
	state := flatState(
		[7]float64{-1, 0, 0, 1, 0, 0, 0.01},
		[7]float64{1, 0, 0, -1, 0, 0, 0.01},
	)
	s, err := New(state, 2, WithDynamics(DynFreeMotion))
	require.NoError(t, err)
	clone := s.Clone()

	status1, err := s.Step(context.Background())
	require.NoError(t, err)
	status2, err := clone.Step(context.Background())
	require.NoError(t, err)

	assert.Equal(t, status1, status2)
	assert.Equal(t, s.GetState(), clone.GetState())
	assert.Equal(t, s.CollVec(), clone.CollVec())
}

// Two particles on disjoint circular Kepler orbits never
// collide, no matter how many supersteps elapse.
func TestDisjointCircularOrbitsNeverCollide(t *testing.T) {
	const mu = 1.0
	vAt := func(r float64) float64 { return math.Sqrt(mu / r) }

	state := flatState(
		[7]float64{5, 0, 0, 0, vAt(5), 0, 0.01},
		[7]float64{10, 0, 0, 0, vAt(10), 0, 0.01},
	)
	s, err := New(state, 1, WithDynamics(DynKepler, mu))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		status, err := s.Step(context.Background())
		require.NoError(t, err)
		assert.NotEqual(t, StatusCollision, status)
		assert.Empty(t, s.CollVec())
	}
}

func TestSetNewStatePars(t *testing.T) {
	state := flatState([7]float64{0, 0, 0, 0, 0, 0, 0.01})
	s, err := New(state, 1, WithDynamics(DynKepler, 1.0), WithPars([]float64{2.0}))
	require.NoError(t, err)
	assert.Equal(t, 1, s.GetNPars())

	newState := flatState(
		[7]float64{1, 0, 0, 0, 0, 0, 0.01},
		[7]float64{2, 0, 0, 0, 0, 0, 0.01},
	)
	require.NoError(t, s.SetNewStatePars(newState))
	assert.Equal(t, []float64{0, 0}, s.GetPars())

	err = s.SetNewStatePars(newState, []float64{1})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InvalidArgument))

	require.NoError(t, s.SetNewStatePars(newState, []float64{3, 4}))
	assert.Equal(t, []float64{3, 4}, s.GetPars())
}
