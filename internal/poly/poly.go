/*Package poly holds the polynomial primitives shared by narrow-phase
collision detection and the dynamics providers' terminal-event root
isolation: Horner evaluation, Taylor-coefficient interval translation,
and a recursive sign-change root isolator together with the scoped
buffer cache that backs it.
*/
package poly

import "sort"

// Eval evaluates the power-basis polynomial with coefficients c (c[k] is
// the coefficient of t^k, ascending) at t via Horner's rule.
func Eval(c []float64, t float64) float64 {
	if len(c) == 0 {
		return 0
	}
	acc := c[len(c)-1]
	for i := len(c) - 2; i >= 0; i-- {
		acc = acc*t + c[i]
	}
	return acc
}

// taylorShift returns the coefficients of p(x + lo) given the
// coefficients of p(x), via repeated synthetic division. O(n^2) in the
// polynomial degree, which is small (at most twice the integration
// order) for every caller in this module.
func taylorShift(c []float64, lo float64) []float64 {
	n := len(c) - 1
	a := make([]float64, len(c))
	copy(a, c)
	for i := 0; i <= n; i++ {
		for j := n; j > i; j-- {
			a[j-1] += lo * a[j]
		}
	}
	return a
}

// scale returns the coefficients of p(h*x) given the coefficients of
// p(x).
func scale(c []float64, h float64) []float64 {
	out := make([]float64, len(c))
	hk := 1.0
	for k, v := range c {
		out[k] = v * hk
		hk *= h
	}
	return out
}

// Rebase returns the coefficients of p(a + b*x) given the coefficients
// of p(x): the change of variable that re-expresses a substep-local
// polynomial in another sub-interval's own local time.
func Rebase(c []float64, a, b float64) []float64 {
	return scale(taylorShift(c, a), b)
}

func reverse(c []float64) []float64 {
	n := len(c)
	out := make([]float64, n)
	for i, v := range c {
		out[n-1-i] = v
	}
	return out
}

// signChanges counts sign changes in c, skipping exact zeros, which is
// the classical Descartes'-rule-of-signs count: an upper bound (of the
// same parity) on the number of positive real roots of the polynomial
// with coefficients c.
func signChanges(c []float64) int {
	changes := 0
	last := 0.0
	haveLast := false
	for _, v := range c {
		if v == 0 {
			continue
		}
		if haveLast && (v > 0) != (last > 0) {
			changes++
		}
		last = v
		haveLast = true
	}
	return changes
}

// rootsIn01Bound bounds the number of real roots of q in the open
// interval (0, 1) using the standard 0-1 Möbius test: the reciprocal
// polynomial of q, shifted by 1, has a root at x in (0, infinity) for
// every root of q at u = 1/(x+1) in (0, 1); Descartes' rule on the
// shifted reciprocal therefore bounds the count in (0, 1).
func rootsIn01Bound(q []float64) int {
	return signChanges(taylorShift(reverse(q), 1))
}

// Interval is an isolated root location, tight to within the isolator's
// tolerance.
type Interval struct {
	Lo, Hi float64
}

// Mid returns the isolated interval's midpoint, a convenient point
// estimate of the root.
func (iv Interval) Mid() float64 { return 0.5 * (iv.Lo + iv.Hi) }

const maxSubdivisions = 4096

// IsolateRoots finds every real root of the power-basis polynomial c in
// the half-open interval [a, b), to within tol, by recursive bisection
// driven by a sign-change count: a subinterval with zero sign changes is
// discarded, one with exactly one is bisected to tolerance and reported,
// and one with more than one is split at its midpoint and each half is
// re-examined. cache supplies the scratch coefficient buffers; every
// buffer borrowed while isolating roots over [a, b) is released, in
// LIFO order, before IsolateRoots returns.
func IsolateRoots(cache *Cache, c []float64, a, b, tol float64) []Interval {
	if len(c) == 0 || b <= a {
		return nil
	}

	type frame struct {
		lo, hi float64
		held   *Borrowed
	}

	var wlist []*Borrowed
	defer func() {
		for i := len(wlist) - 1; i >= 0; i-- {
			wlist[i].Release()
		}
	}()

	push := func(buf []float64) *Borrowed {
		bw := cache.Borrow(len(buf))
		copy(bw.Slice(), buf)
		wlist = append(wlist, bw)
		return bw
	}

	var results []Interval
	stack := make([]frame, 0, 64)
	stack = append(stack, frame{lo: a, hi: b, held: push(c)})

	for len(stack) > 0 && len(stack) < maxSubdivisions {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		h := cur.hi - cur.lo
		shifted := taylorShift(cur.held.Slice(), cur.lo)
		scaled := scale(shifted, h)

		sc := rootsIn01Bound(scaled)
		switch {
		case sc == 0:
			// No root in this subinterval; discard.
		case sc == 1:
			lo, hi := bisect(scaled, tol/h)
			results = append(results, Interval{Lo: cur.lo + h*lo, Hi: cur.lo + h*hi})
		default:
			if h <= tol {
				// A root cluster or tangency at the resolution limit;
				// the whole interval is the best isolation available.
				results = append(results, Interval{Lo: cur.lo, Hi: cur.hi})
				continue
			}
			mid := 0.5 * (cur.lo + cur.hi)
			stack = append(stack,
				frame{lo: cur.lo, hi: mid, held: push(cur.held.Slice())},
				frame{lo: mid, hi: cur.hi, held: push(cur.held.Slice())},
			)
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Lo < results[j].Lo })
	return results
}

// bisect narrows u in [0, 1) to width tol, assuming exactly one sign
// change (and therefore one root, counting multiplicity as one crossing)
// of q in that interval.
func bisect(q []float64, tol float64) (lo, hi float64) {
	lo, hi = 0, 1
	flo := Eval(q, lo)
	for hi-lo > tol {
		mid := 0.5 * (lo + hi)
		fmid := Eval(q, mid)
		if fmid == 0 {
			return mid, mid
		}
		if (fmid > 0) == (flo > 0) {
			lo = mid
			flo = fmid
		} else {
			hi = mid
		}
	}
	return lo, hi
}
