/*Package aabb builds per-particle bounding boxes over a chunk's time
interval from recorded Taylor coefficient blocks, reduces them into one
chunk-global box, quantizes centroids into Morton codes, and produces
the Morton-sorted index permutation the BVH is built over.
*/
package aabb

import (
	"context"
	"math"

	"github.com/go-cascade/cascade/geom"
	"github.com/go-cascade/cascade/internal/stepdata"
	"github.com/go-cascade/cascade/internal/workerpool"
)

// substepBound computes a conservative [lb, ub] box for one substep's
// position coefficients over local time u in [0,1]: since
// |sum_k c_k u^k - c_0| <= sum_{k>=1} |c_k| for u in [0,1], c_0 plus or
// minus that coefficient-magnitude sum always contains the true range,
// without needing to find the polynomial's actual extrema.
func substepBound(coeffs []float64, order int) geom.AABB {
	n := order + 1
	var lb, ub [3]float64
	for axis := 0; axis < 3; axis++ {
		block := coeffs[axis*n : (axis+1)*n]
		c0 := block[0]
		var spread float64
		for _, c := range block[1:] {
			spread += math.Abs(c)
		}
		lb[axis] = c0 - spread
		ub[axis] = c0 + spread
	}
	return geom.AABB{
		Lb: [4]float64{lb[0], lb[1], lb[2], 0},
		Ub: [4]float64{ub[0], ub[1], ub[2], 0},
	}
}

// Build computes, for every particle, the union bounding box of its
// recorded trajectory within chunkBounds, expanded by the larger of its
// physical radius and conjThresh, and reduces every active particle's
// box into one chunk-global box via lock-free atomic min/max (concurrent
// because particles are processed one-per-worker over pool). Inactive
// particles get a degenerate empty box and are excluded from the global
// reduction.
//
// conjThresh must be at least as large as the conjunction distance
// narrow phase tests for (0 when conjunction detection is disabled):
// expanding only by physical radius would let the broad phase cull a
// candidate pair whose closest approach is within the conjunction
// threshold but outside both particles' combined radii, so narrow phase
// would never get a chance to report it.
func Build(ctx context.Context, pool *workerpool.Pool, store *stepdata.Store, order int, chunkBounds [2]float64, radii []float64, conjThresh float64, active []bool) (lbs, ubs [][4]float64, global [2][4]float64) {
	nparts := store.NParts()
	lbs = make([][4]float64, nparts)
	ubs = make([][4]float64, nparts)

	var gMin, gMax [3]atomicFloat64
	for i := range gMin {
		gMin[i].store(math.Inf(1))
		gMax[i].store(math.Inf(-1))
	}

	pool.For(ctx, nparts, func(p int) {
		if !active[p] {
			return
		}
		box := geom.Empty()
		var substepStart float64
		for i := 0; i < store.NSubsteps(p); i++ {
			coeffs, end := store.Substep(p, i)
			substepEnd := end.Float64()
			// A substep overlaps chunk c when its [start, end) interval
			// intersects [chunkBounds[0], chunkBounds[1]); the bound used
			// is conservative over the whole substep even when only part
			// of it falls in this chunk, which only ever widens the box.
			if substepEnd > chunkBounds[0] && substepStart < chunkBounds[1] {
				box.Union(substepBound(coeffs, order))
			}
			substepStart = substepEnd
		}
		expand := radii[p]
		if conjThresh > expand {
			expand = conjThresh
		}
		box.Expand(expand)
		lbs[p] = box.Lb
		ubs[p] = box.Ub

		for i := 0; i < 3; i++ {
			gMin[i].min(box.Lb[i])
			gMax[i].max(box.Ub[i])
		}
	})

	for i := 0; i < 3; i++ {
		global[0][i] = gMin[i].load()
		global[1][i] = gMax[i].load()
	}
	return lbs, ubs, global
}

// MortonCodes computes the Morton code of every particle's centroid
// box, quantized against global, with inactive particles (a degenerate,
// all-zero box) given the inactive sentinel so they sort to the end.
func MortonCodes(lbs, ubs [][4]float64, global [2][4]float64, active []bool) []uint64 {
	globalBox := geom.AABB{Lb: global[0], Ub: global[1]}
	codes := make([]uint64, len(lbs))
	for p := range codes {
		if !active[p] {
			codes[p] = geom.InactiveMorton
			continue
		}
		box := geom.AABB{Lb: lbs[p], Ub: ubs[p]}
		codes[p] = geom.Morton(box.Centroid(), globalBox)
	}
	return codes
}
