/*Package narrow resolves broad-phase candidate pairs into precise
collision times and conjunction minima: for each pair it composes the
squared-distance polynomial on every sub-sub-interval where both
particles' trajectories are dense polynomials, then root-isolates it
(for collisions) or its derivative (for conjunctions) via
internal/poly's Descartes'-rule-driven bisection.
*/
package narrow

import (
	"context"
	"math"
	"sort"

	"github.com/go-cascade/cascade/dynamics"
	"github.com/go-cascade/cascade/internal/bvh"
	"github.com/go-cascade/cascade/internal/poly"
	"github.com/go-cascade/cascade/internal/stepdata"
	"github.com/go-cascade/cascade/internal/workerpool"
)

// Collision is one detected collision event, relative to the superstep
// start (not the chunk).
type Collision struct {
	I, J int32
	T    float64
}

// Conjunction is one detected local distance minimum at or below the
// configured threshold, relative to the superstep start. DMin is the
// pair's separation distance at the minimum (not its square).
type Conjunction struct {
	I, J int32
	T    float64
	DMin float64
}

// Config carries the per-pair thresholds the narrow phase tests
// against; these come straight from the façade's configuration knobs.
type Config struct {
	ConjThreshSq  float64 // 0 disables the conjunction test
	MinCollRadius float64 // pairs with r_i+r_j below this are never reported as collisions
	Tol           float64

	// CollWhitelist and ConjWhitelist restrict reported events to pairs
	// where at least one participant's index is in the set; a nil or
	// empty map means unrestricted.
	CollWhitelist, ConjWhitelist map[int32]bool
}

func whitelisted(i, j int32, set map[int32]bool) bool {
	if len(set) == 0 {
		return true
	}
	return set[i] || set[j]
}

// substepSpan is one particle's recorded substep, localized to [start,
// end) within the superstep.
type substepSpan struct {
	start, end float64
	coeffs     []float64
}

func spans(store *stepdata.Store, p int32) []substepSpan {
	n := store.NSubsteps(int(p))
	out := make([]substepSpan, 0, n)
	var prev float64
	for i := 0; i < n; i++ {
		coeffs, end := store.Substep(int(p), i)
		t := end.Float64()
		out = append(out, substepSpan{start: prev, end: t, coeffs: coeffs})
		prev = t
	}
	return out
}

// segment is one sub-sub-interval [t0, t1) on which both particles'
// trajectories are simultaneously described by a single substep
// polynomial each.
type segment struct {
	t0, t1 float64
	si, sj substepSpan
}

// overlap splits [a.start,a.end) and [b.start,b.end) at every boundary
// point so the result is a set of sub-sub-intervals on which both
// spans are simultaneously defined by a single polynomial.
func overlap(spansI, spansJ []substepSpan) []segment {
	var out []segment
	for _, si := range spansI {
		for _, sj := range spansJ {
			t0 := si.start
			if sj.start > t0 {
				t0 = sj.start
			}
			t1 := si.end
			if sj.end < t1 {
				t1 = sj.end
			}
			if t1 <= t0 {
				continue
			}
			out = append(out, segment{t0: t0, t1: t1, si: si, sj: sj})
		}
	}
	return out
}

// rebaseAxes writes sp's three position coefficient blocks into dst,
// re-expressed in the segment-local variable tau in [0,1] covering
// [t0, t0+dtau). A substep's own block is parameterized over its own
// [start, end) interval, and the two substeps backing a segment
// generally have different start times and widths, so the blocks must
// be brought onto the shared parameterization before they can be
// differenced.
func rebaseAxes(dst []float64, sp substepSpan, t0, dtau float64, n int) {
	h := sp.end - sp.start
	a := (t0 - sp.start) / h
	b := dtau / h
	for axis := 0; axis < 3; axis++ {
		block := sp.coeffs[axis*n : (axis+1)*n]
		if a == 0 && b == 1 {
			copy(dst[axis*n:(axis+1)*n], block)
			continue
		}
		copy(dst[axis*n:(axis+1)*n], poly.Rebase(block, a, b))
	}
}

// Pair runs the narrow-phase test for one broad-phase candidate,
// appending any collision and conjunction events found to coll and
// conj (relative to the superstep start). A substep can span several
// chunks under exact dynamics (see internal/aabb), so the same shared
// sub-sub-interval may be examined by more than one chunk's narrow
// phase; chunkStart/chunkEnd restrict reported events to those whose
// time actually falls within this chunk's own [chunkStart, chunkEnd)
// window, so each event is attributed to exactly one chunk. ri, rj are
// the two particles' physical radii.
func Pair(pv dynamics.Provider, storeI, storeJ *stepdata.Store, i, j int32, ri, rj float64, chunkStart, chunkEnd float64, cfg Config) (coll []Collision, conj []Conjunction) {
	spansI := spans(storeI, i)
	spansJ := spans(storeJ, j)

	order := pv.Order()
	n := order + 1
	cache := poly.NewCache()

	rsum := ri + rj
	collEnabled := rsum >= cfg.MinCollRadius && whitelisted(i, j, cfg.CollWhitelist)
	conjEnabled := cfg.ConjThreshSq > 0 && whitelisted(i, j, cfg.ConjWhitelist)

	for _, seg := range overlap(spansI, spansJ) {
		dtau := seg.t1 - seg.t0
		if dtau <= 0 {
			continue
		}

		in := make([]float64, 6*n)
		rebaseAxes(in[0:3*n], seg.si, seg.t0, dtau, n)
		rebaseAxes(in[3*n:6*n], seg.sj, seg.t0, dtau, n)

		d := make([]float64, 2*n-1)
		pv.Pssdiff3Cfunc(d, in, nil)

		if collEnabled {
			shifted := make([]float64, len(d))
			copy(shifted, d)
			shifted[0] -= rsum * rsum
			roots := poly.IsolateRoots(cache, shifted, 0, 1, cfg.Tol)
			if len(roots) > 0 {
				best := roots[0]
				for _, r := range roots[1:] {
					if r.Lo < best.Lo {
						best = r
					}
				}
				tau := best.Mid()
				if t := seg.t0 + dtau*tau; t >= chunkStart && t < chunkEnd {
					coll = append(coll, Collision{I: i, J: j, T: t})
				}
			}
		}

		if conjEnabled {
			dprime := derivative(d)
			if len(dprime) > 0 {
				dsecond := derivative(dprime)
				roots := poly.IsolateRoots(cache, dprime, 0, 1, cfg.Tol)
				for _, r := range roots {
					tau := r.Mid()
					if poly.Eval(dsecond, tau) < 0 {
						// A local maximum of the separation, not a
						// minimum.
						continue
					}
					d2 := poly.Eval(d, tau)
					if d2 < 0 {
						d2 = 0
					}
					t := seg.t0 + dtau*tau
					if d2 <= cfg.ConjThreshSq && t >= chunkStart && t < chunkEnd {
						conj = append(conj, Conjunction{I: i, J: j, T: t, DMin: math.Sqrt(d2)})
					}
				}
			}
		}
	}

	return coll, conj
}

// derivative returns the power-basis coefficients of c's derivative.
func derivative(c []float64) []float64 {
	if len(c) <= 1 {
		return nil
	}
	out := make([]float64, len(c)-1)
	for k := 1; k < len(c); k++ {
		out[k-1] = float64(k) * c[k]
	}
	return out
}

// Chunk runs the narrow phase over every candidate pair found by broad
// phase within one chunk, one worker per pair, and returns the
// aggregated collision and conjunction lists for that chunk, each
// sorted by (t, i, j).
func Chunk(ctx context.Context, pool *workerpool.Pool, pv dynamics.Provider, store *stepdata.Store, pairs []bvh.Pair, radii []float64, chunkStart, chunkEnd float64, cfg Config) ([]Collision, []Conjunction) {
	collPerPair := make([][]Collision, len(pairs))
	conjPerPair := make([][]Conjunction, len(pairs))

	pool.For(ctx, len(pairs), func(k int) {
		p := pairs[k]
		c, cj := Pair(pv, store, store, p.A, p.B, radii[p.A], radii[p.B], chunkStart, chunkEnd, cfg)
		collPerPair[k] = c
		conjPerPair[k] = cj
	})

	var coll []Collision
	var conj []Conjunction
	for k := range pairs {
		coll = append(coll, collPerPair[k]...)
		conj = append(conj, conjPerPair[k]...)
	}

	sort.Slice(coll, func(a, b int) bool {
		if coll[a].T != coll[b].T {
			return coll[a].T < coll[b].T
		}
		if coll[a].I != coll[b].I {
			return coll[a].I < coll[b].I
		}
		return coll[a].J < coll[b].J
	})
	sort.Slice(conj, func(a, b int) bool {
		if conj[a].T != conj[b].T {
			return conj[a].T < conj[b].T
		}
		if conj[a].I != conj[b].I {
			return conj[a].I < conj[b].I
		}
		return conj[a].J < conj[b].J
	})

	return coll, conj
}
