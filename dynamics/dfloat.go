package dynamics

// DFloat is a double-double number: a pair of float64s (Hi, Lo) whose
// sum carries roughly twice float64's mantissa precision. Substep end
// times are accumulated in this representation because a chunk can span
// many thousands of small steps, and naive float64 summation of step
// sizes drifts enough over that many additions to blur substep ordering
// near a chunk boundary.
type DFloat struct {
	Hi, Lo float64
}

// DFloatFromFloat64 lifts a float64 into DFloat with no error term.
func DFloatFromFloat64(x float64) DFloat { return DFloat{Hi: x} }

// Float64 collapses a DFloat back to its nearest float64 approximation.
func (d DFloat) Float64() float64 { return d.Hi + d.Lo }

// twoSum computes a+b exactly as hi+lo, hi the rounded sum and lo the
// rounding error, via Knuth's two-sum algorithm.
func twoSum(a, b float64) (hi, lo float64) {
	hi = a + b
	v := hi - a
	lo = (a - (hi - v)) + (b - v)
	return hi, lo
}

// quickTwoSum is twoSum specialized for the case |a| >= |b|.
func quickTwoSum(a, b float64) (hi, lo float64) {
	hi = a + b
	lo = b - (hi - a)
	return hi, lo
}

// Add returns d+e to double-double precision.
func (d DFloat) Add(e DFloat) DFloat {
	hi, lo := twoSum(d.Hi, e.Hi)
	lo += d.Lo + e.Lo
	hi, lo = quickTwoSum(hi, lo)
	return DFloat{Hi: hi, Lo: lo}
}

// AddFloat64 returns d+x to double-double precision.
func (d DFloat) AddFloat64(x float64) DFloat {
	hi, lo := twoSum(d.Hi, x)
	lo += d.Lo
	hi, lo = quickTwoSum(hi, lo)
	return DFloat{Hi: hi, Lo: lo}
}

// Sub returns d-e to double-double precision.
func (d DFloat) Sub(e DFloat) DFloat {
	return d.Add(DFloat{Hi: -e.Hi, Lo: -e.Lo})
}

// Cmp returns -1, 0, or 1 as d is less than, equal to, or greater than e.
func (d DFloat) Cmp(e DFloat) int {
	df, ef := d.Float64(), e.Float64()
	switch {
	case df < ef:
		return -1
	case df > ef:
		return 1
	default:
		return 0
	}
}
