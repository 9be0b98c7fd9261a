package bvh

import (
	"context"
	"sync"

	"github.com/go-cascade/cascade/geom"
	"github.com/go-cascade/cascade/internal/workerpool"
)

// Pair is one candidate overlapping pair of original particle indices,
// always ordered a < b.
type Pair struct {
	A, B int32
}

// bpData is one worker's reusable scratch: an explicit traversal stack
// and the pair list it accumulates, drawn from a sync.Pool so repeated
// per-particle traversals within a chunk don't pay a fresh allocation
// each time. Treat the returned stack/pairs as internal buffers: they
// are reused by the next Get from the pool once Put is called.
type bpData struct {
	stack []int32
	pairs []Pair
}

func newBPData() *bpData {
	return &bpData{stack: make([]int32, 0, 64), pairs: make([]Pair, 0, 16)}
}

// BroadPhase walks the BVH once per leaf, testing candidate overlaps
// against collision- and conjunction-active flags, and returns every
// surviving pair (original particle indices, a < b) exactly once.
// nodes, lbs and ubs must be in the Morton-sorted order Build consumed;
// vidx maps a sorted position back to its original particle index.
func BroadPhase(ctx context.Context, pool *workerpool.Pool, nodes []Node, lbs, ubs [][4]float64, vidx []int32, collActive, conjActive []bool) []Pair {
	if len(nodes) == 0 {
		return nil
	}

	bpPool := sync.Pool{New: func() any { return newBPData() }}
	results := make([][]Pair, len(vidx))

	pool.For(ctx, len(vidx), func(leafPos int) {
		p := vidx[leafPos]
		if !collActive[p] && !conjActive[p] {
			return
		}
		box := geom.AABB{Lb: lbs[leafPos], Ub: ubs[leafPos]}

		bp := bpPool.Get().(*bpData)
		bp.stack = bp.stack[:0]
		bp.pairs = bp.pairs[:0]
		defer bpPool.Put(bp)

		bp.stack = append(bp.stack, 0)
		for len(bp.stack) > 0 {
			idx := bp.stack[len(bp.stack)-1]
			bp.stack = bp.stack[:len(bp.stack)-1]

			node := nodes[idx]
			nodeBox := geom.AABB{Lb: node.Lb, Ub: node.Ub}
			if !box.Overlaps(nodeBox) {
				continue
			}

			if node.IsLeaf() {
				qPos := node.Begin
				// Emit only from the lower sorted position so each
				// unordered candidate pair is produced exactly once.
				if qPos <= int32(leafPos) {
					continue
				}
				q := vidx[qPos]
				if !pairActive(p, q, collActive, conjActive) {
					continue
				}
				a, b := p, q
				if a > b {
					a, b = b, a
				}
				bp.pairs = append(bp.pairs, Pair{A: a, B: b})
				continue
			}

			bp.stack = append(bp.stack, node.Left, node.Right)
		}

		if len(bp.pairs) > 0 {
			cp := make([]Pair, len(bp.pairs))
			copy(cp, bp.pairs)
			results[leafPos] = cp
		}
	})

	var total int
	for _, r := range results {
		total += len(r)
	}
	out := make([]Pair, 0, total)
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

func pairActive(p, q int32, collActive, conjActive []bool) bool {
	return (collActive[p] && collActive[q]) || (conjActive[p] && conjActive[q])
}
