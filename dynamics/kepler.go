package dynamics

import "math"

// Kepler is central 1/r^2 gravity dynamics with standard gravitational
// parameter Mu. Unlike FreeMotion and ConstantField its Taylor series
// has no closed form; coefficients are built order by order via the
// power-series recurrences in powerseries.go: at each order k the
// auxiliary series r2 = x^2+y^2+z^2 and u = r2^(-3/2) are extended by one
// term using only already-known lower-order terms, then the next
// position/velocity coefficients follow from x_{k+1} = v_k/(k+1),
// v_{k+1} = a_k/(k+1) with a = -Mu*pos*u.
type Kepler struct {
	order int
	Mu    float64
}

// NewKepler returns a Kepler provider with the given standard
// gravitational parameter and Taylor coefficient blocks dense to order.
func NewKepler(order int, mu float64) *Kepler {
	return &Kepler{order: order, Mu: mu}
}

func (k *Kepler) Order() int { return k.order }

// series builds the position and velocity Taylor coefficients of all
// three axes order by order and returns the x, y and z position series.
func (k *Kepler) series(in []float64) (x, y, z []float64) {
	n := k.order + 1
	pos := [3][]float64{make([]float64, n), make([]float64, n), make([]float64, n)}
	vel := [3][]float64{make([]float64, n), make([]float64, n), make([]float64, n)}
	for i := 0; i < 3; i++ {
		pos[i][0] = in[i]
		vel[i][0] = in[3+i]
	}

	r2 := make([]float64, n)
	u := make([]float64, n)

	for ord := 0; ord < k.order; ord++ {
		// Extend r2 and u by one term using position coefficients known
		// so far (indices 0..ord).
		var sum float64
		for i := 0; i <= ord; i++ {
			sum += pos[0][i]*pos[0][ord-i] + pos[1][i]*pos[1][ord-i] + pos[2][i]*pos[2][ord-i]
		}
		r2[ord] = sum
		u[ord] = psPowTerm(r2, u, -1.5, ord)

		for i := 0; i < 3; i++ {
			var acc float64
			for j := 0; j <= ord; j++ {
				acc += pos[i][j] * u[ord-j]
			}
			a := -k.Mu * acc
			vel[i][ord+1] = a / float64(ord+1)
			pos[i][ord+1] = vel[i][ord] / float64(ord+1)
		}
	}

	return pos[0], pos[1], pos[2]
}

// psPowTerm computes the ord'th coefficient of x(t)^p given x's
// coefficients up to index ord and y = x^p's coefficients up to index
// ord-1, via the same recurrence as psPow but evaluated one term at a
// time so it can be interleaved with the ODE recurrence above.
func psPowTerm(x, y []float64, p float64, ord int) float64 {
	if ord == 0 {
		return math.Pow(x[0], p)
	}
	var sum float64
	for i := 1; i <= ord; i++ {
		sum += (p*float64(i) - float64(ord-i)) * x[i] * y[ord-i]
	}
	return sum / (float64(ord) * x[0])
}

func (k *Kepler) PtaCfunc(out, in, _ []float64) {
	n := k.order + 1
	x, y, z := k.series(in)
	for i := range out {
		out[i] = 0
	}
	copy(out[0*n:1*n], x)
	copy(out[1*n:2*n], y)
	copy(out[2*n:3*n], z)

	// Velocity series: v_i(t) = x_i'(t), i.e. v coefficients are the
	// position coefficients shifted down by one index and rescaled,
	// v_k = (k+1) x_{k+1}.
	for i, p := range [][]float64{x, y, z} {
		for kk := 0; kk < n; kk++ {
			if kk+1 < len(p) {
				out[(3+i)*n+kk] = float64(kk+1) * p[kk+1]
			}
		}
	}
	out[6*n+0] = in[6]
}

func (k *Kepler) Pssdiff3Cfunc(out, in, _ []float64) {
	sqDistCoeffs(out, in, k.order)
}

func (k *Kepler) FexCheck(state, pars []float64, flagsOut []uint32) {
	fexCheckPositions(state, pars, flagsOut, k.order)
}

func (k *Kepler) Rtscc(outR, outTime []float64, flagsOut []uint32, in []float64) {
	rtsccPositions(outR, outTime, flagsOut, in, in[len(in)-2:], k.order)
}

func (k *Kepler) Pt1(out, in []float64) {
	n := k.order + 1
	for c := 0; c < 7; c++ {
		out[c] = sumCoeffs(in[c*n : (c+1)*n])
	}
}
