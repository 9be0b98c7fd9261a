package dynamics

// ConstantField is uniform-acceleration dynamics: particles fall under
// a fixed field G. Its Taylor series is exact at degree 2 (position)
// and degree 1 (velocity).
type ConstantField struct {
	order int
	g     [3]float64
}

// NewConstantField returns a ConstantField provider with acceleration g
// and Taylor coefficient blocks dense to the given order.
func NewConstantField(order int, g [3]float64) *ConstantField {
	return &ConstantField{order: order, g: g}
}

func (f *ConstantField) Order() int { return f.order }

func (f *ConstantField) PtaCfunc(out, in, _ []float64) {
	n := f.order + 1
	for i := range out {
		out[i] = 0
	}
	for i := 0; i < 3; i++ {
		out[i*n+0] = in[i]
		if n > 1 {
			out[i*n+1] = in[3+i]
		}
		if n > 2 {
			out[i*n+2] = 0.5 * f.g[i]
		}
	}
	for i := 0; i < 3; i++ {
		out[(3+i)*n+0] = in[3+i]
		if n > 1 {
			out[(3+i)*n+1] = f.g[i]
		}
	}
	out[6*n+0] = in[6]
}

func (f *ConstantField) Pssdiff3Cfunc(out, in, _ []float64) {
	sqDistCoeffs(out, in, f.order)
}

func (f *ConstantField) FexCheck(state, pars []float64, flagsOut []uint32) {
	fexCheckPositions(state, pars, flagsOut, f.order)
}

func (f *ConstantField) Rtscc(outR, outTime []float64, flagsOut []uint32, in []float64) {
	rtsccPositions(outR, outTime, flagsOut, in, in[len(in)-2:], f.order)
}

func (f *ConstantField) Pt1(out, in []float64) {
	n := f.order + 1
	for c := 0; c < 7; c++ {
		out[c] = sumCoeffs(in[c*n : (c+1)*n])
	}
}
