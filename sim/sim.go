/*Package sim is the public façade over the collision-detection core:
construction, particle add/remove, state/parameter accessors, one
step() per superstep, and the event accessors a caller reads after each
step. It owns user-facing state (flat state/pars vectors, the
configuration knobs); the internal pipeline packages (stepdata, aabb,
bvh, narrow, events) own the per-superstep working state.
*/
package sim

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/go-cascade/cascade/dynamics"
	"github.com/go-cascade/cascade/geom"
	"github.com/go-cascade/cascade/internal/aabb"
	"github.com/go-cascade/cascade/internal/bvh"
	"github.com/go-cascade/cascade/internal/chunker"
	"github.com/go-cascade/cascade/internal/errs"
	"github.com/go-cascade/cascade/internal/events"
	"github.com/go-cascade/cascade/internal/intcache"
	"github.com/go-cascade/cascade/internal/narrow"
	"github.com/go-cascade/cascade/internal/propagate"
	"github.com/go-cascade/cascade/internal/stepdata"
	"github.com/go-cascade/cascade/internal/workerpool"
)

// machineEpsilon, the double-precision unit roundoff, is the default
// integrator tolerance.
const machineEpsilon = 2.220446049250313e-16

// Radius reports either a spherical (scalar) or triaxial-ellipsoid
// (vector) reentry surface, mirroring get_c_radius()'s std::variant.
type Radius struct {
	Vector bool
	Scalar float64
	Axes   [3]float64
}

// Sim is one collision-detection simulation instance: a flat particle
// state vector, optional per-particle dynamics parameters, and the
// configuration knobs controlling propagation and event detection.
type Sim struct {
	state []float64 // row-major, 7 per particle: x,y,z,vx,vy,vz,r
	pars  []float64 // row-major, npars per particle
	npars int

	time float64
	ct   float64

	tol           float64
	highAccuracy  bool
	nParCt        int
	firstCollOnly bool

	dynKind  DynKind
	dynExtra []float64

	reentryRadius []float64 // len 0 (disabled), 1 (sphere) or 3 (ellipsoid)
	exitRadius    float64
	conjThresh    float64
	minCollRadius float64
	collWhitelist map[int32]bool
	conjWhitelist map[int32]bool

	provider dynamics.Provider
	pool     *workerpool.Pool
	intCache *intcache.Cache[*dynamics.ScalarIntegrator]

	coll  []narrow.Collision
	conj  [][]narrow.Conjunction
	terms []events.Terminal
}

// New returns a Sim over state (flat, row-major 7-tuples) with
// superstep width ct, configured by opts. A nil or empty state
// constructs an empty Sim.
func New(state []float64, ct float64, opts ...Option) (*Sim, error) {
	if len(state)%7 != 0 {
		return nil, errs.New(errs.InvalidArgument, "the size of the state vector is %d, which is not a multiple of 7", len(state))
	}

	s := &Sim{
		ct:      1,
		tol:     machineEpsilon,
		nParCt:  1,
		dynKind: DynKepler,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := validateCt(ct); err != nil {
		return nil, err
	}
	s.ct = ct

	if math.IsNaN(s.tol) || math.IsInf(s.tol, 0) || s.tol <= 0 {
		return nil, errs.New(errs.InvalidArgument, "the tolerance value must be finite and positive, but it is %g", s.tol)
	}
	if s.nParCt < 1 {
		return nil, errs.New(errs.InvalidArgument, "the number of collisional timesteps to process in parallel must be at least 1, but it is %d", s.nParCt)
	}

	nparts := len(state) / 7
	if err := validateRadii(state); err != nil {
		return nil, err
	}
	s.state = append([]float64(nil), state...)

	if len(s.pars) > 0 {
		if nparts == 0 || len(s.pars)%nparts != 0 {
			return nil, errs.New(errs.InvalidArgument, "the input array of parameter values must have a size that is a multiple of the number of particles (%d)", nparts)
		}
		s.npars = len(s.pars) / nparts
	}

	if err := validateReentryRadius(s.reentryRadius); err != nil {
		return nil, err
	}
	if s.exitRadius < 0 || math.IsNaN(s.exitRadius) || math.IsInf(s.exitRadius, 0) {
		return nil, errs.New(errs.InvalidArgument, "the exit radius must be finite and non-negative, but it is %g", s.exitRadius)
	}
	if s.conjThresh < 0 || math.IsNaN(s.conjThresh) || math.IsInf(s.conjThresh, 0) {
		return nil, errs.New(errs.InvalidArgument, "the conjunction threshold must be finite and non-negative, but it is %g", s.conjThresh)
	}
	if err := validateWhitelist(s.collWhitelist, nparts); err != nil {
		return nil, err
	}
	if err := validateWhitelist(s.conjWhitelist, nparts); err != nil {
		return nil, err
	}

	s.provider = s.newProvider()
	s.pool = workerpool.New(0)
	template := dynamics.NewScalarIntegrator(s.provider, [7]float64{}, []float64{s.scalarReentry(), s.exitRadius}, s.tol)
	s.intCache = intcache.New[*dynamics.ScalarIntegrator](template)

	return s, nil
}

func validateCt(ct float64) error {
	if math.IsNaN(ct) || math.IsInf(ct, 0) || ct <= 0 {
		return errs.New(errs.InvalidArgument, "the collisional timestep must be finite and positive, but it is %g", ct)
	}
	return nil
}

func validateRadii(state []float64) error {
	nparts := len(state) / 7
	for p := 0; p < nparts; p++ {
		for k := 0; k < 7; k++ {
			v := state[p*7+k]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return errs.New(errs.InvalidArgument, "particle %d has a non-finite state component", p)
			}
		}
		r := state[p*7+6]
		if r < 0 {
			return errs.New(errs.InvalidArgument, "particle %d has a negative radius %g", p, r)
		}
	}
	return nil
}

func validateReentryRadius(r []float64) error {
	switch len(r) {
	case 0:
		return nil
	case 1, 3:
		for _, v := range r {
			if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
				return errs.New(errs.InvalidArgument, "reentry radius components must be finite and positive, but one is %g", v)
			}
		}
		return nil
	default:
		return errs.New(errs.InvalidArgument, "the reentry radius must be given as either 1 (sphere) or 3 (triaxial ellipsoid) values, but %d were given", len(r))
	}
}

func validateWhitelist(set map[int32]bool, nparts int) error {
	for idx := range set {
		if idx < 0 || int(idx) >= nparts {
			return errs.New(errs.InvalidArgument, "whitelist references particle index %d, but there are only %d particles", idx, nparts)
		}
	}
	return nil
}

// scalarReentry returns the sphere radius used by the provider's
// FexCheck/Rtscc, which only implements a spherical reentry surface;
// when a triaxial ellipsoid was configured, its first semiaxis is
// used as the sphere's radius and the other two semiaxes play no part
// in detection (see DESIGN.md).
func (s *Sim) scalarReentry() float64 {
	if len(s.reentryRadius) == 0 {
		return 0
	}
	return s.reentryRadius[0]
}

// NParts reports the number of particles currently in the simulation.
func (s *Sim) NParts() int { return len(s.state) / 7 }

// GetState returns the flat, row-major particle state vector.
func (s *Sim) GetState() []float64 { return append([]float64(nil), s.state...) }

// GetPars returns the flat, row-major per-particle dynamics parameter
// vector (empty if the dynamics has no parameters).
func (s *Sim) GetPars() []float64 { return append([]float64(nil), s.pars...) }

// GetNParts reports the number of particles.
func (s *Sim) GetNParts() int { return s.NParts() }

// GetNPars reports the number of dynamics parameters per particle.
func (s *Sim) GetNPars() int { return s.npars }

// GetTime reports the simulation's current time, advanced by Ct on
// every successful Step.
func (s *Sim) GetTime() float64 { return s.time }

// GetCt reports the configured superstep width.
func (s *Sim) GetCt() float64 { return s.ct }

// SetCt updates the superstep width, rejecting a non-finite or
// non-positive value.
func (s *Sim) SetCt(ct float64) error {
	if err := validateCt(ct); err != nil {
		return err
	}
	s.ct = ct
	return nil
}

// GetTol reports the integrator local error tolerance.
func (s *Sim) GetTol() float64 { return s.tol }

// GetHighAccuracy reports whether the higher-order integrator kernel
// is selected.
func (s *Sim) GetHighAccuracy() bool { return s.highAccuracy }

// GetCRadius reports the configured reentry surface.
func (s *Sim) GetCRadius() Radius {
	switch len(s.reentryRadius) {
	case 3:
		return Radius{Vector: true, Axes: [3]float64{s.reentryRadius[0], s.reentryRadius[1], s.reentryRadius[2]}}
	case 1:
		return Radius{Scalar: s.reentryRadius[0]}
	default:
		return Radius{}
	}
}

// GetDRadius reports the configured exit radius.
func (s *Sim) GetDRadius() float64 { return s.exitRadius }

// CollVec returns the collision events detected by the most recent
// Step, sorted by (t, i, j).
func (s *Sim) CollVec() []narrow.Collision { return s.coll }

// ConjVecs returns the conjunction events detected by the most recent
// Step, one sorted slice per chunk.
func (s *Sim) ConjVecs() [][]narrow.Conjunction { return s.conj }

// TerminalEvents returns the terminal events recorded by the most
// recent Step, sorted by time.
func (s *Sim) TerminalEvents() []events.Terminal { return s.terms }

// RemoveParticles removes every particle whose index appears in idxs
// (duplicates tolerated) from the state and parameter vectors,
// preserving the relative order of the particles that remain.
func (s *Sim) RemoveParticles(idxs []int) error {
	uniq := dedupSorted(idxs)
	if len(uniq) == 0 {
		return nil
	}

	nparts := s.NParts()
	for _, idx := range uniq {
		if idx < 0 || idx >= nparts {
			return errs.New(errs.InvalidArgument, "an invalid vector of indices was passed to the function for particle removal: %s", formatIdxs(uniq))
		}
	}

	remove := make(map[int]bool, len(uniq))
	for _, idx := range uniq {
		remove[idx] = true
	}

	newState := make([]float64, 0, len(s.state))
	for p := 0; p < nparts; p++ {
		if remove[p] {
			continue
		}
		newState = append(newState, s.state[p*7:p*7+7]...)
	}
	s.state = newState

	if s.npars > 0 {
		newPars := make([]float64, 0, len(s.pars))
		for p := 0; p < nparts; p++ {
			if remove[p] {
				continue
			}
			newPars = append(newPars, s.pars[p*s.npars:(p+1)*s.npars]...)
		}
		s.pars = newPars
	}
	return nil
}

// SetNewStatePars replaces the simulation's state vector (and,
// optionally, its parameter vector) wholesale. Omitting pars zero-fills
// the parameter vector when the dynamics has parameters.
func (s *Sim) SetNewStatePars(state []float64, pars ...[]float64) error {
	if len(state)%7 != 0 {
		return errs.New(errs.InvalidArgument, "the size of the state vector is %d, which is not a multiple of 7", len(state))
	}
	if err := validateRadii(state); err != nil {
		return err
	}
	nparts := len(state) / 7

	var flat []float64
	switch {
	case len(pars) == 0 || len(pars[0]) == 0:
		if s.npars > 0 {
			flat = make([]float64, nparts*s.npars)
		}
	default:
		flat = pars[0]
		if s.npars == 0 {
			return errs.New(errs.InvalidArgument, "the input array of parameter values must be empty when the number of parameters in the dynamics is zero")
		}
		if len(flat) != nparts*s.npars {
			return errs.New(errs.InvalidArgument, "the input array of parameter values must have shape (%d, %d), but instead its flattened size is %d", nparts, s.npars, len(flat))
		}
	}

	s.state = append([]float64(nil), state...)
	s.pars = flat
	return nil
}

// Clone returns an independent copy of s: mutable per-instance state
// (particle vectors, whitelists, last-step events) is deep-copied;
// the stateless provider and the shared worker pool / integrator cache
// are reused, matching property 7 (cloning then stepping each produces
// identical results at the same thread count).
func (s *Sim) Clone() *Sim {
	clone := *s
	clone.state = append([]float64(nil), s.state...)
	clone.pars = append([]float64(nil), s.pars...)
	clone.reentryRadius = append([]float64(nil), s.reentryRadius...)
	clone.collWhitelist = copySet(s.collWhitelist)
	clone.conjWhitelist = copySet(s.conjWhitelist)
	clone.coll = append([]narrow.Collision(nil), s.coll...)
	clone.conj = make([][]narrow.Conjunction, len(s.conj))
	for i, v := range s.conj {
		clone.conj[i] = append([]narrow.Conjunction(nil), v...)
	}
	clone.terms = append([]events.Terminal(nil), s.terms...)
	return &clone
}

func copySet(m map[int32]bool) map[int32]bool {
	if m == nil {
		return nil
	}
	out := make(map[int32]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func dedupSorted(idxs []int) []int {
	if len(idxs) == 0 {
		return nil
	}
	cp := append([]int(nil), idxs...)
	sort.Ints(cp)
	out := cp[:0]
	for i, v := range cp {
		if i == 0 || v != cp[i-1] {
			out = append(out, v)
		}
	}
	return out
}

func formatIdxs(idxs []int) string {
	s := "["
	for i, v := range idxs {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%d", v)
	}
	return s + "]"
}

// Step advances the simulation by one superstep: every active particle
// is propagated across Ct, the broad/narrow phase pipeline runs
// per-chunk over the resulting trajectories, and CollVec/ConjVecs/
// TerminalEvents are refreshed for the caller to read. ctx is checked
// at each phase barrier; cancellation between phases returns cleanly,
// mid-phase it is honored at the next barrier.
func (s *Sim) Step(ctx context.Context) (Status, error) {
	nparts := s.NParts()
	s.coll = nil
	s.conj = nil
	s.terms = nil

	if nparts == 0 {
		s.time += s.ct
		return StatusSuccess, nil
	}

	active := make([]bool, nparts)
	radii := make([]float64, nparts)
	states := make([][7]float64, nparts)
	for p := 0; p < nparts; p++ {
		active[p] = true
		copy(states[p][:], s.state[p*7:p*7+7])
		radii[p] = s.state[p*7+6]
	}

	store := stepdata.New(nparts)
	terms := &events.TerminalCollector{}

	propagate.Superstep(ctx, s.pool, s.intCache, store, states, active, propagate.Config{
		Dt:            s.ct,
		ReentryRadius: s.scalarReentry(),
		ExitRadius:    s.exitRadius,
	}, terms)

	for p := 0; p < nparts; p++ {
		copy(s.state[p*7:p*7+7], states[p][:])
	}

	nchunks := chunker.Count(nparts, s.nParCt)
	collectors := make([]*events.Collector, nchunks)
	narrowCfg := narrow.Config{
		ConjThreshSq:  s.conjThresh * s.conjThresh,
		MinCollRadius: s.minCollRadius,
		Tol:           1e-10,
		CollWhitelist: s.collWhitelist,
		ConjWhitelist: s.conjWhitelist,
	}

	for c := 0; c < nchunks; c++ {
		if err := ctx.Err(); err != nil {
			break
		}
		t0, t1 := chunker.Bounds(c, nchunks, s.ct)

		lbs, ubs, global := aabb.Build(ctx, s.pool, store, s.provider.Order(), [2]float64{t0, t1}, radii, s.conjThresh, active)
		codes := aabb.MortonCodes(lbs, ubs, global, active)
		vidx := aabb.SortByMorton(codes)
		srtLbs, srtUbs, srtCodes := aabb.Gather(vidx, lbs, ubs, codes)

		nActive := len(srtCodes)
		for nActive > 0 && srtCodes[nActive-1] == geom.InactiveMorton {
			nActive--
		}

		collector := &events.Collector{}
		collectors[c] = collector
		if nActive == 0 {
			continue
		}

		nodes := bvh.Build(ctx, s.pool, srtCodes[:nActive], srtLbs[:nActive], srtUbs[:nActive])
		pairs := bvh.BroadPhase(ctx, s.pool, nodes, srtLbs[:nActive], srtUbs[:nActive], vidx[:nActive], active, active)

		// narrow.Chunk attributes an event to this chunk only when its
		// time falls in the half-open [t0, t1); the final chunk's upper
		// bound is nudged to include a root landing exactly on the
		// superstep's own endpoint, which would otherwise belong to no
		// chunk at all.
		narrowEnd := t1
		if c == nchunks-1 {
			narrowEnd = math.Nextafter(t1, math.Inf(1))
		}
		coll, conj := narrow.Chunk(ctx, s.pool, s.provider, store, pairs, radii, t0, narrowEnd, narrowCfg)
		collector.AddCollisions(coll)
		collector.AddConjunctions(conj)
	}

	s.coll = events.MergeCollisions(collectors)
	if s.firstCollOnly {
		s.coll = events.FirstOnly(s.coll)
	}
	s.conj = events.MergeConjunctionsPerChunk(collectors)
	s.terms = terms.Events()
	s.time += s.ct

	return s.status(), nil
}

// status derives the façade's reported Status from this step's
// results: a collision takes priority (the strongest actionable
// signal), then reentry, then exit, then a bare non-finite state, with
// plain success only when nothing notable happened (see DESIGN.md for
// the ordering rationale).
func (s *Sim) status() Status {
	if len(s.coll) > 0 {
		return StatusCollision
	}
	sawReentry, sawExit, sawNonFinite := false, false, false
	for _, t := range s.terms {
		switch t.Code {
		case events.CodeReentry:
			sawReentry = true
		case events.CodeExit:
			sawExit = true
		case events.CodeNonFinite:
			sawNonFinite = true
		}
	}
	if sawReentry {
		return StatusReentry
	}
	if sawExit {
		return StatusExit
	}
	if sawNonFinite {
		return StatusNonFiniteState
	}
	return StatusSuccess
}
