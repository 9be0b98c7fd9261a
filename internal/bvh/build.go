package bvh

import (
	"context"
	"math/bits"
	"sync"
	"sync/atomic"

	"github.com/go-cascade/cascade/internal/workerpool"
)

// findSplit locates the position within the sorted range [begin, end)
// at which the Morton codes' highest differing bit changes, the
// standard Karras LBVH split point: everything before it shares a
// longer common prefix with codes[begin] than anything from it onward.
// Equal boundary codes (degenerate, coincident particles) fall back to
// a plain midpoint split.
func findSplit(codes []uint64, begin, end int32) int32 {
	first, last := codes[begin], codes[end-1]
	if first == last {
		return (begin + end) / 2
	}
	commonPrefix := bits.LeadingZeros64(first ^ last)

	split := begin
	step := end - begin
	for {
		step = (step + 1) / 2
		newSplit := split + step
		if newSplit < end {
			prefix := bits.LeadingZeros64(first ^ codes[newSplit])
			if prefix > commonPrefix {
				split = newSplit
			}
		}
		if step <= 1 {
			break
		}
	}
	return split + 1
}

type buildTask struct {
	begin, end, idx int32
}

// Build constructs a linear BVH over nparts Morton-sorted particles,
// top-down and level-synchronous (one task per node at each level, so
// every level's work is independently parallelisable), with AABBs
// refit bottom-up once the topology is complete. codes, lbs and ubs
// must already be in Morton-sorted order (see aabb.SortByMorton/Gather).
func Build(ctx context.Context, pool *workerpool.Pool, codes []uint64, lbs, ubs [][4]float64) []Node {
	n := int32(len(codes))
	if n == 0 {
		return nil
	}
	if n == 1 {
		return []Node{{Begin: 0, End: 1, Parent: Null, Left: Null, Right: Null, Lb: lbs[0], Ub: ubs[0]}}
	}

	nodes := make([]Node, 2*n-1)
	nodes[0] = Node{Begin: 0, End: n, Parent: Null, Left: Null, Right: Null}

	var counter int32 = 1
	level := []buildTask{{0, n, 0}}

	for len(level) > 0 {
		ranges := make([]workerpool.Range, len(level))
		for i := range level {
			ranges[i] = workerpool.Range{Begin: i, End: i + 1}
		}

		var mu sync.Mutex
		var next []buildTask

		pool.ForRange(ctx, ranges, func(r workerpool.Range) {
			t := level[r.Begin]
			if t.end-t.begin == 1 {
				p := t.begin
				nodes[t.idx].Lb = lbs[p]
				nodes[t.idx].Ub = ubs[p]
				return
			}

			split := findSplit(codes, t.begin, t.end)
			leftIdx := atomic.AddInt32(&counter, 1) - 1
			rightIdx := atomic.AddInt32(&counter, 1) - 1

			nodes[t.idx].Left = leftIdx
			nodes[t.idx].Right = rightIdx
			nodes[leftIdx] = Node{Begin: t.begin, End: split, Parent: t.idx, Left: Null, Right: Null}
			nodes[rightIdx] = Node{Begin: split, End: t.end, Parent: t.idx, Left: Null, Right: Null}

			mu.Lock()
			next = append(next, buildTask{t.begin, split, leftIdx}, buildTask{split, t.end, rightIdx})
			mu.Unlock()
		})

		level = next
	}

	refitBottomUp(nodes)
	return nodes
}

// refitBottomUp computes every internal node's AABB as the union of its
// children's, in a single reverse pass: node allocation order guarantees
// a child's index is always greater than its parent's, so processing
// indices from highest to lowest visits every node's children before
// the node itself.
func refitBottomUp(nodes []Node) {
	for i := len(nodes) - 1; i >= 0; i-- {
		node := &nodes[i]
		if node.Left == Null && node.Right == Null {
			continue
		}
		l, r := nodes[node.Left], nodes[node.Right]
		for k := 0; k < 3; k++ {
			node.Lb[k] = minf(l.Lb[k], r.Lb[k])
			node.Ub[k] = maxf(l.Ub[k], r.Ub[k])
		}
		node.Lb[3] = maxf(l.Lb[3], r.Lb[3])
		node.Ub[3] = node.Lb[3]
	}
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
