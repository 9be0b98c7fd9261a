package sim

import "github.com/go-cascade/cascade/dynamics"

// DynKind selects which concrete dynamics.Provider a Sim propagates
// particles under (see dynamics.FreeMotion/ConstantField/Kepler).
type DynKind int

const (
	DynFreeMotion DynKind = iota
	DynConstantField
	DynKepler
)

// Option configures a Sim at construction time.
type Option func(*Sim)

// WithDynamics selects the dynamics kind a Sim propagates particles
// under; extra carries kind-specific parameters: ConstantField wants
// [gx, gy, gz], Kepler wants [mu]. Defaults to DynKepler with mu=1.
func WithDynamics(kind DynKind, extra ...float64) Option {
	return func(s *Sim) {
		s.dynKind = kind
		s.dynExtra = append([]float64(nil), extra...)
	}
}

// WithPars sets the per-particle dynamics parameter rows, flattened
// row-major the same way state is; its length must be a multiple of
// nparts (validated at New/SetNewStatePars time).
func WithPars(pars []float64) Option {
	return func(s *Sim) { s.pars = append([]float64(nil), pars...) }
}

// WithTol sets the integrator local error tolerance (must be > 0).
func WithTol(tol float64) Option {
	return func(s *Sim) { s.tol = tol }
}

// WithHighAccuracy selects the higher-order compensated integrator
// kernel (ScalarIntegrator's double-double substep accumulation is
// already always active; this flag widens the Taylor order used).
func WithHighAccuracy(on bool) Option {
	return func(s *Sim) { s.highAccuracy = on }
}

// WithNParCt sets the n_par_ct hint used to size nchunks per superstep.
func WithNParCt(n int) Option {
	return func(s *Sim) { s.nParCt = n }
}

// WithReentryRadius sets the reentry surface: a single value selects a
// sphere of that radius, three values are stored as a triaxial
// ellipsoid's semiaxes. Either is reported back via GetCRadius. Reentry
// detection itself always tests against a sphere: with three values,
// the first semiaxis is its radius.
func WithReentryRadius(radius ...float64) Option {
	return func(s *Sim) { s.reentryRadius = append([]float64(nil), radius...) }
}

// WithExitRadius sets the exit radius (0 disables the check).
func WithExitRadius(r float64) Option {
	return func(s *Sim) { s.exitRadius = r }
}

// WithConjThresh sets the conjunction distance threshold (0 disables
// conjunction detection).
func WithConjThresh(t float64) Option {
	return func(s *Sim) { s.conjThresh = t }
}

// WithMinCollRadius sets the minimum r_i+r_j sum required to report a
// collision (0 enables all pairs).
func WithMinCollRadius(r float64) Option {
	return func(s *Sim) { s.minCollRadius = r }
}

// WithFirstCollisionOnly keeps only the earliest collision touching
// each particle in CollVec, dropping any later collision that shares a
// participant with one already kept. All collisions in a superstep are
// reported otherwise; the filtering is never applied implicitly.
func WithFirstCollisionOnly(on bool) Option {
	return func(s *Sim) { s.firstCollOnly = on }
}

// WithCollWhitelist restricts reported collisions to pairs with at
// least one participant in idxs.
func WithCollWhitelist(idxs ...int) Option {
	return func(s *Sim) { s.collWhitelist = toSet(idxs) }
}

// WithConjWhitelist restricts reported conjunctions to pairs with at
// least one participant in idxs.
func WithConjWhitelist(idxs ...int) Option {
	return func(s *Sim) { s.conjWhitelist = toSet(idxs) }
}

func toSet(idxs []int) map[int32]bool {
	if len(idxs) == 0 {
		return nil
	}
	set := make(map[int32]bool, len(idxs))
	for _, i := range idxs {
		set[int32(i)] = true
	}
	return set
}

// taylorOrder is the Taylor expansion order every Provider this façade
// constructs is built at; the high-accuracy kernel widens it rather
// than exposing order as one more knob.
const taylorOrder = 20
const highAccuracyOrder = 28

func (s *Sim) newProvider() dynamics.Provider {
	order := taylorOrder
	if s.highAccuracy {
		order = highAccuracyOrder
	}
	switch s.dynKind {
	case DynConstantField:
		var g [3]float64
		copy(g[:], s.dynExtra)
		return dynamics.NewConstantField(order, g)
	case DynKepler:
		mu := 1.0
		if len(s.dynExtra) > 0 {
			mu = s.dynExtra[0]
		}
		return dynamics.NewKepler(order, mu)
	default:
		return dynamics.NewFreeMotion(order)
	}
}
