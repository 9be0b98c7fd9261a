package dynamics

// sqDistCoeffs computes the coefficients of the squared-distance
// polynomial between two particles' position components over one
// substep, given in as the concatenation of both particles' x,y,z
// coefficient blocks (each order+1 long, particle i then particle j).
// This is the shared implementation behind every concrete Provider's
// Pssdiff3Cfunc: the algebra is identical regardless of which dynamics
// produced the position series.
func sqDistCoeffs(out, in []float64, order int) {
	n := order + 1
	xi, yi, zi := in[0:n], in[n:2*n], in[2*n:3*n]
	xj, yj, zj := in[3*n:4*n], in[4*n:5*n], in[5*n:6*n]

	dx, dy, dz := make([]float64, n), make([]float64, n), make([]float64, n)
	for k := 0; k < n; k++ {
		dx[k] = xi[k] - xj[k]
		dy[k] = yi[k] - yj[k]
		dz[k] = zi[k] - zj[k]
	}

	for i := range out {
		out[i] = 0
	}
	convolveAdd(out, dx, dx)
	convolveAdd(out, dy, dy)
	convolveAdd(out, dz, dz)
}

// sqDistCoeffsSelf computes the coefficients of the squared-distance
// polynomial from the origin (i.e. squared radial distance) for a
// single position coefficient block px,py,pz (each order+1 long). Used
// by the shared terminal-event helpers to build the reentry/exit
// crossing polynomial.
func sqDistCoeffsSelf(out, px, py, pz []float64) {
	for i := range out {
		out[i] = 0
	}
	convolveAdd(out, px, px)
	convolveAdd(out, py, py)
	convolveAdd(out, pz, pz)
}
