package dynamics

import "math"

// convolveAdd accumulates the Cauchy product of a and b (power series
// coefficients, ascending) into out, which must have length
// len(a)+len(b)-1. Used to build squared-distance and squared-radius
// series from position coefficient series.
func convolveAdd(out, a, b []float64) {
	for i, av := range a {
		if av == 0 {
			continue
		}
		for j, bv := range b {
			out[i+j] += av * bv
		}
	}
}

// psPow fills y[0:n] with the coefficients of x(t)^p given x's
// coefficients (x[0] must be nonzero), via the standard power-series
// power-rule recurrence: k*y[k]*x[0] = sum_{i=1}^k (p*i-(k-i))*x[i]*y[k-i].
// Each y[k] depends only on x[0:k+1] and y[0:k], so it can be computed
// order by order alongside a simultaneous ODE recurrence.
func psPow(x []float64, p float64, n int) []float64 {
	y := make([]float64, n)
	if n == 0 {
		return y
	}
	y[0] = math.Pow(x[0], p)
	for k := 1; k < n; k++ {
		var sum float64
		for i := 1; i <= k && i < len(x); i++ {
			sum += (p*float64(i) - float64(k-i)) * x[i] * y[k-i]
		}
		y[k] = sum / (float64(k) * x[0])
	}
	return y
}
