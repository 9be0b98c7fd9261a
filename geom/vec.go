/*Package geom contains the small geometric primitives shared by the
AABB/Morton builder, the BVH and the narrow phase: a 3D vector, a 4-lane
axis-aligned bounding box (the 4th lane carries a particle's physical
radius), and the Morton-code quantization used to sort boxes for BVH
construction.
*/
package geom

import "math"

// Vec is a three dimensional vector of double precision components.
type Vec [3]float64

// Add returns the sum of two vectors.
func (v Vec) Add(o Vec) Vec {
	return Vec{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

// Sub returns the difference of two vectors.
func (v Vec) Sub(o Vec) Vec {
	return Vec{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

// Scale returns v scaled by s.
func (v Vec) Scale(s float64) Vec {
	return Vec{v[0] * s, v[1] * s, v[2] * s}
}

// Dot returns the inner product of two vectors.
func (v Vec) Dot(o Vec) float64 {
	return v[0]*o[0] + v[1]*o[1] + v[2]*o[2]
}

// NormSq returns the squared Euclidean norm of v.
func (v Vec) NormSq() float64 {
	return v.Dot(v)
}

// AABB is a 4-lane axis-aligned bounding box. The first three lanes of Lb
// and Ub bound the particle's trajectory on a time sub-interval; the 4th
// lane holds the particle's physical radius in both Lb and Ub so that
// overlap tests naturally include particle size without a separate
// comparison.
type AABB struct {
	Lb, Ub [4]float64
}

// Empty returns an AABB with Lb set to +inf and Ub set to -inf on the
// spatial lanes, suitable as the identity element for Union.
func Empty() AABB {
	return AABB{
		Lb: [4]float64{math.Inf(1), math.Inf(1), math.Inf(1), 0},
		Ub: [4]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1), 0},
	}
}

// FromPoint returns the degenerate AABB enclosing a single point with the
// given radius carried in the 4th lane.
func FromPoint(p Vec, r float64) AABB {
	return AABB{
		Lb: [4]float64{p[0] - r, p[1] - r, p[2] - r, r},
		Ub: [4]float64{p[0] + r, p[1] + r, p[2] + r, r},
	}
}

// Union enlarges b in place to also enclose o. The radius lane is the max
// of the two radii, matching the "4th lane holds particle radius" contract
// for boxes describing a single particle across several sub-intervals.
func (b *AABB) Union(o AABB) {
	for i := 0; i < 3; i++ {
		if o.Lb[i] < b.Lb[i] {
			b.Lb[i] = o.Lb[i]
		}
		if o.Ub[i] > b.Ub[i] {
			b.Ub[i] = o.Ub[i]
		}
	}
	if o.Ub[3] > b.Ub[3] {
		b.Ub[3] = o.Ub[3]
		b.Lb[3] = o.Ub[3]
	}
}

// Expand grows the first three lanes of b by r on both sides, in place.
func (b *AABB) Expand(r float64) {
	for i := 0; i < 3; i++ {
		b.Lb[i] -= r
		b.Ub[i] += r
	}
	b.Lb[3], b.Ub[3] = r, r
}

// Overlaps reports whether a and b intersect, including the radius-carrying
// 4th lane being ignored (it never needs to be compared: the spatial lanes
// are already expanded by radius).
func (a AABB) Overlaps(b AABB) bool {
	for i := 0; i < 3; i++ {
		if a.Lb[i] > b.Ub[i] || b.Lb[i] > a.Ub[i] {
			return false
		}
	}
	return true
}

// Centroid returns the midpoint of the spatial lanes.
func (b AABB) Centroid() Vec {
	return Vec{
		0.5 * (b.Lb[0] + b.Ub[0]),
		0.5 * (b.Lb[1] + b.Ub[1]),
		0.5 * (b.Lb[2] + b.Ub[2]),
	}
}
