/*Package bvh builds a linear bounding volume hierarchy over Morton-sorted
particle boxes and traverses it to produce broad-phase candidate pairs.
*/
package bvh

// Node is one arena-indexed BVH node. Leaves have Left == Right == -1
// and Begin+1 == End (one particle, referenced by its position in the
// Morton-sorted index space); internal nodes have Begin..End spanning
// the sorted range their subtree covers. Parent/child links are array
// positions into the arena slice with -1 as the null sentinel, so the
// tree carries no cyclic pointers.
type Node struct {
	Begin, End          int32
	Parent, Left, Right int32
	Lb, Ub              [4]float64
}

func (n *Node) IsLeaf() bool { return n.Left < 0 && n.Right < 0 }

const Null int32 = -1
