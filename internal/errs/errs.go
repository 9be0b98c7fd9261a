/*Package errs defines the error taxonomy used throughout the simulation
core: boundary-layer argument validation versus the in-run terminal
conditions that are reported as events rather than returned as errors.
*/
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error without pinning callers to a Go type, mirroring
// the "taxonomy, not type names" framing used for the core's error model.
type Kind string

const (
	// InvalidArgument flags a boundary-layer misuse: malformed state
	// vectors, negative radii, whitelists naming particles that don't
	// exist, non-finite configuration values. The core never encounters
	// these internally; they are rejected before a superstep begins.
	InvalidArgument Kind = "invalid_argument"

	// NonFiniteState flags a propagation that produced a non-finite
	// value. The core never returns this as an error from step(); it is
	// recorded as a terminal event and surfaced only through the
	// returned Status.
	NonFiniteState Kind = "non_finite_state"

	// ReentryCrossing flags a particle that crossed the reentry surface.
	ReentryCrossing Kind = "reentry_crossing"

	// ExitCrossing flags a particle that crossed the exit radius.
	ExitCrossing Kind = "exit_crossing"

	// PropagationFailure flags an internal breakdown reported by the
	// integrator. It surfaces as a non-finite terminal event.
	PropagationFailure Kind = "propagation_failure"
)

// Error is a typed error carrying one of the Kind values above plus a
// human-readable message built the way the originating check explains
// itself.
type Error struct {
	Kind Kind
	msg  string
}

func (e *Error) Error() string { return e.msg }

// New builds an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf reports the Kind carried by err, if any.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
