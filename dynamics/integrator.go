package dynamics

import (
	"context"
	"math"
)

const rtsccMaxRoots = 4

// ScalarIntegrator drives one Provider forward over a chunk, choosing
// each substep's size from the magnitude of the highest-order Taylor
// coefficient the Provider just produced (the standard local
// truncation-error estimate for a fixed-order Taylor series method).
type ScalarIntegrator struct {
	provider Provider
	pars     []float64
	state    [7]float64
	tol      float64
	minStep  float64

	scratch []float64
	ends    []DFloat
}

// NewScalarIntegrator returns an integrator over provider, seeded at
// state (length 7: x,y,z,vx,vy,vz,r), with parameters pars passed
// through to every PtaCfunc/Pssdiff3Cfunc call and step sizes controlled
// by tol.
func NewScalarIntegrator(provider Provider, state [7]float64, pars []float64, tol float64) *ScalarIntegrator {
	n := provider.Order() + 1
	return &ScalarIntegrator{
		provider: provider,
		pars:     pars,
		state:    state,
		tol:      tol,
		minStep:  1e-14,
		scratch:  make([]float64, 7*n),
	}
}

// Clone returns an independent copy sharing no mutable state, so that
// intcache.Cache[*ScalarIntegrator] can hand out fresh clones built from
// a single template without them stepping on one another.
func (si *ScalarIntegrator) Clone() *ScalarIntegrator {
	clone := *si
	clone.scratch = make([]float64, len(si.scratch))
	clone.ends = nil
	return &clone
}

func (si *ScalarIntegrator) Order() int { return si.provider.Order() }

func (si *ScalarIntegrator) StateSlice() []float64 { return si.state[:] }

func (si *ScalarIntegrator) SubstepEnds() []DFloat { return si.ends }

// Reset reseeds the integrator at state without discarding its scratch
// buffers, so a worker can reuse one handle across particles that share
// a Provider and Order.
func (si *ScalarIntegrator) Reset(state [7]float64, pars []float64) {
	si.state = state
	si.pars = pars
	si.ends = si.ends[:0]
}

func (si *ScalarIntegrator) PropagateUntil(ctx context.Context, dt float64, capture bool, record func(coeffs []float64, end DFloat)) (Outcome, error) {
	si.ends = si.ends[:0]
	order := si.provider.Order()
	n := order + 1

	var elapsed DFloat
	var flags uint32

	for elapsed.Float64() < dt {
		if err := ctx.Err(); err != nil {
			return Outcome{TimeReached: elapsed.Float64(), Flags: flags}, err
		}

		remaining := dt - elapsed.Float64()
		si.provider.PtaCfunc(si.scratch, si.state[:], si.pars)

		h := si.stepSize(si.scratch, n, remaining)
		scaled := scaleBlock(si.scratch, n, h)

		var termFlags [1]uint32
		si.provider.FexCheck(scaled, si.pars, termFlags[:])
		flags |= termFlags[0] & FlagNonFinite
		if termFlags[0]&FlagNonFinite != 0 {
			elapsed = elapsed.AddFloat64(h)
			si.ends = append(si.ends, elapsed)
			break
		}

		// Root-isolate the reentry/exit crossing polynomials over this
		// substep so a boundary crossing is dated to sub-substep
		// precision instead of only being caught once the endpoint has
		// already passed it.
		rtIn := make([]float64, 3*n+2)
		copy(rtIn[0:3*n], scaled[0:3*n])
		copy(rtIn[3*n:], si.thresholds())

		var rtR, rtTime [rtsccMaxRoots]float64
		var rtFlags [1]uint32
		si.provider.Rtscc(rtR[:], rtTime[:], rtFlags[:], rtIn)

		if rtFlags[0] > 0 {
			nRoots := int(rtFlags[0])
			if nRoots > rtsccMaxRoots {
				nRoots = rtsccMaxRoots
			}
			rMin := rtTime[0]
			for i := 1; i < nRoots; i++ {
				if rtTime[i] < rMin {
					rMin = rtTime[i]
				}
			}

			truncated := scaleBlock(scaled, n, rMin)
			var next [7]float64
			si.provider.Pt1(next[:], truncated)
			si.state = next
			elapsed = elapsed.AddFloat64(h * rMin)
			si.ends = append(si.ends, elapsed)
			if capture && record != nil {
				record(truncated, elapsed)
			}

			flags |= crossingFlag(next, si.thresholds())
			break
		}

		var next [7]float64
		si.provider.Pt1(next[:], scaled)
		si.state = next
		elapsed = elapsed.AddFloat64(h)
		si.ends = append(si.ends, elapsed)

		if capture && record != nil {
			record(scaled, elapsed)
		}

		if h <= si.minStep {
			break
		}
	}

	return Outcome{TimeReached: elapsed.Float64(), Flags: flags}, nil
}

// thresholds returns si.pars padded to exactly [reentryRadius,
// exitRadius], since Rtscc's input convention always carries both
// trailing values even when a particular Provider call only cares
// about one of them.
func (si *ScalarIntegrator) thresholds() []float64 {
	t := make([]float64, 2)
	copy(t, si.pars)
	return t
}

// crossingFlag reports which boundary state (length 7) lies at or
// beyond, given thresholds [reentryRadius, exitRadius].
func crossingFlag(state [7]float64, thresholds []float64) uint32 {
	r := math.Sqrt(state[0]*state[0] + state[1]*state[1] + state[2]*state[2])
	var flags uint32
	if thresholds[0] > 0 && r <= thresholds[0]*(1+1e-9) {
		flags |= FlagReentry
	}
	if thresholds[1] > 0 && r >= thresholds[1]*(1-1e-9) {
		flags |= FlagExit
	}
	return flags
}

// stepSize estimates an admissible step size from the magnitude of the
// highest-order coefficient across every state component: h such that
// tol/h^order matches that magnitude, clamped to the remaining interval.
func (si *ScalarIntegrator) stepSize(raw []float64, n int, remaining float64) float64 {
	order := n - 1
	if order == 0 {
		return remaining
	}
	h := remaining
	for c := 0; c < 7; c++ {
		lead := math.Abs(raw[c*n+order])
		if lead < 1e-300 {
			continue
		}
		cand := math.Pow(si.tol/lead, 1.0/float64(order))
		if cand < h {
			h = cand
		}
	}
	if h <= 0 || math.IsNaN(h) {
		h = remaining
	}
	if h > remaining {
		h = remaining
	}
	return h
}

// scaleBlock rescales a raw (unscaled-derivative) coefficient block so
// that evaluating it at local time u in [0,1) gives the state at
// elapsed local time h*u, matching the layout every Provider method
// downstream of PtaCfunc expects.
func scaleBlock(raw []float64, n int, h float64) []float64 {
	out := make([]float64, len(raw))
	for c := 0; c < 7; c++ {
		hk := 1.0
		for k := 0; k < n; k++ {
			out[c*n+k] = raw[c*n+k] * hk
			hk *= h
		}
	}
	return out
}
