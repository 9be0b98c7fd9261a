package dynamics

// FreeMotion is the zero-acceleration dynamics: particles coast in
// straight lines. Its Taylor series is exact at degree 1 (position) and
// degree 0 (velocity), so PropagateUntil with this Provider always
// takes the full requested step in a single substep once tolerance
// allows it.
type FreeMotion struct {
	order int
}

// NewFreeMotion returns a FreeMotion provider with Taylor coefficient
// blocks dense to the given order (orders beyond 1 are simply zero).
func NewFreeMotion(order int) *FreeMotion {
	return &FreeMotion{order: order}
}

func (f *FreeMotion) Order() int { return f.order }

func (f *FreeMotion) PtaCfunc(out, in, _ []float64) {
	n := f.order + 1
	for i := range out {
		out[i] = 0
	}
	for i := 0; i < 3; i++ {
		out[i*n+0] = in[i]
		if n > 1 {
			out[i*n+1] = in[3+i]
		}
	}
	for i := 0; i < 3; i++ {
		out[(3+i)*n+0] = in[3+i]
	}
	out[6*n+0] = in[6]
}

func (f *FreeMotion) Pssdiff3Cfunc(out, in, _ []float64) {
	sqDistCoeffs(out, in, f.order)
}

func (f *FreeMotion) FexCheck(state, pars []float64, flagsOut []uint32) {
	fexCheckPositions(state, pars, flagsOut, f.order)
}

func (f *FreeMotion) Rtscc(outR, outTime []float64, flagsOut []uint32, in []float64) {
	rtsccPositions(outR, outTime, flagsOut, in, in[len(in)-2:], f.order)
}

func (f *FreeMotion) Pt1(out, in []float64) {
	n := f.order + 1
	for c := 0; c < 7; c++ {
		out[c] = sumCoeffs(in[c*n : (c+1)*n])
	}
}
