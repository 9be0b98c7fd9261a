/*Package dynamics supplies the equations of motion a simulation
propagates against: a Provider generates dense Taylor coefficients for
one particle's state and exposes the handful of polynomial operations
the propagation and terminal-event pipeline need, and an Integrator
drives that Provider forward over a chunk's time interval, one adaptive
substep at a time, recording each accepted substep.

Provider methods operate on flat []float64 buffers so that a single
coefficient-block layout flows unchanged from propagation through the
bounding-box builder and the narrow phase; each concrete Provider
implements that buffer contract in a plain Go method.
*/
package dynamics

import "context"

// Order-independent bit flags reported by FexCheck and carried through
// to a terminal Status.
const (
	FlagNonFinite uint32 = 1 << iota
	FlagReentry
	FlagExit
)

// Provider generates the Taylor-series machinery for one dynamical
// system (the equations of motion plus whatever terminal-event surfaces
// apply to it).
type Provider interface {
	// PtaCfunc fills out with the dense Taylor coefficient block for the
	// state in, given parameters pars: out has length 7*(Order()+1),
	// row-major by state component (x,y,z,vx,vy,vz,r) then ascending
	// power.
	PtaCfunc(out, in, pars []float64)

	// Pssdiff3Cfunc fills out with the coefficients of the squared
	// distance polynomial between two particles' position components,
	// given in as the concatenation of both particles' x,y,z coefficient
	// blocks (each Order()+1 long, particle i then particle j). out has
	// length 2*Order()+1.
	Pssdiff3Cfunc(out, in, pars []float64)

	// FexCheck inspects a just-produced coefficient block (the layout
	// PtaCfunc's out parameter uses) together with configuration
	// parameters pars (reentry radius, exit radius, in that order) and
	// sets bits in flagsOut[0]: FlagNonFinite, FlagReentry, FlagExit.
	// A coarse endpoint-only check; Rtscc is used to pin down exactly
	// where within the substep a flagged crossing occurred.
	FexCheck(state, pars []float64, flagsOut []uint32)

	// Rtscc isolates the real roots, within the local substep interval
	// [0, 1), of the reentry/exit crossing polynomials implied by in: the
	// substep's x,y,z coefficient blocks (each Order()+1 long) followed
	// by the two threshold values [reentryRadius, exitRadius] (either may
	// be 0 to disable that check). Each root found writes its local time
	// into outTime and the radius at that time into outR, in order
	// discovered; flagsOut[0] reports how many roots were found.
	Rtscc(outR, outTime []float64, flagsOut []uint32, in []float64)

	// Pt1 evaluates the coefficient block in (PtaCfunc's out layout) at
	// the substep's right endpoint (local time 1), writing the resulting
	// state into out (length 7).
	Pt1(out, in []float64)

	// Order reports the Taylor expansion order every coefficient block
	// this Provider produces is dense to.
	Order() int
}

// Outcome reports what happened during one PropagateUntil call.
type Outcome struct {
	// TimeReached is how far, in [0, dt], propagation actually advanced
	// before either reaching dt or hitting a terminal condition.
	TimeReached float64

	// Flags is the bitwise OR of every FlagXxx constant observed across
	// the substeps taken.
	Flags uint32
}

// Terminal reports whether o represents a terminal (non-finite,
// reentry, or exit) outcome.
func (o Outcome) Terminal() bool { return o.Flags != 0 }

// Integrator drives a Provider forward over a chunk, adaptively sizing
// substeps and recording each accepted one.
type Integrator interface {
	// PropagateUntil advances the integrator's state by at most dt,
	// stopping early on a terminal condition. When capture is true,
	// every accepted substep's coefficient block and end time are
	// retained and retrievable via a caller-supplied recorder; callers
	// that only need the final state (e.g. probing) pass false.
	PropagateUntil(ctx context.Context, dt float64, capture bool, record func(coeffs []float64, end DFloat)) (Outcome, error)

	// Order reports the underlying Provider's expansion order.
	Order() int

	// StateSlice returns the integrator's current state (length 7:
	// x,y,z,vx,vy,vz,r), valid until the next PropagateUntil call.
	StateSlice() []float64

	// SubstepEnds returns the double-double end times of every substep
	// accepted by the most recent PropagateUntil call.
	SubstepEnds() []DFloat
}
