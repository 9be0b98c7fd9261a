package dynamics

import (
	"math"

	"github.com/go-cascade/cascade/internal/poly"
)

// fexCheckPositions implements the coarse, endpoint-only terminal check
// shared by every concrete Provider: it inspects a coefficient block's
// position components for non-finite values and for radial distances
// outside the configured reentry/exit band at the substep's endpoint.
// pars is [reentryRadius, exitRadius]; either may be 0 to disable that
// check.
func fexCheckPositions(state, pars []float64, flagsOut []uint32, order int) {
	flagsOut[0] = 0
	n := order + 1
	for _, c := range state {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			flagsOut[0] |= FlagNonFinite
			return
		}
	}

	px, py, pz := state[0:n], state[n:2*n], state[2*n:3*n]
	x := sumCoeffs(px)
	y := sumCoeffs(py)
	z := sumCoeffs(pz)
	r := math.Sqrt(x*x + y*y + z*z)

	if len(pars) > 0 && pars[0] > 0 && r <= pars[0] {
		flagsOut[0] |= FlagReentry
	}
	if len(pars) > 1 && pars[1] > 0 && r >= pars[1] {
		flagsOut[0] |= FlagExit
	}
}

func sumCoeffs(c []float64) float64 {
	var s float64
	for _, v := range c {
		s += v
	}
	return s
}

// rtsccPositions isolates, within the local substep interval [0, 1),
// the roots of |position(t)|^2 - threshold^2 for both the reentry and
// exit thresholds in pars, reporting whichever roots exist. This is
// what lets a reentry or exit crossing be dated to sub-substep
// precision instead of only being caught at the substep endpoint.
func rtsccPositions(outR, outTime []float64, flagsOut []uint32, in []float64, pars []float64, order int) {
	n := order + 1
	px, py, pz := in[0:n], in[n:2*n], in[2*n:3*n]
	r2 := make([]float64, 2*n-1)
	sqDistCoeffsSelf(r2, px, py, pz)

	cache := poly.NewCache()
	found := 0
	thresholds := pars
	for _, thresh := range thresholds {
		if thresh <= 0 {
			continue
		}
		shifted := make([]float64, len(r2))
		copy(shifted, r2)
		shifted[0] -= thresh * thresh
		roots := poly.IsolateRoots(cache, shifted, 0, 1, 1e-10)
		for _, root := range roots {
			if found >= len(outTime) {
				break
			}
			t := root.Mid()
			outTime[found] = t
			outR[found] = math.Sqrt(poly.Eval(r2, t))
			found++
		}
	}
	flagsOut[0] = uint32(found)
}
