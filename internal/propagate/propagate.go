/*Package propagate drives one worker goroutine per particle across a
superstep, recording every accepted substep's Taylor coefficients into
a stepdata.Store and reporting terminal events (reentry, exit,
non-finite state) the moment the underlying integrator detects them.
Workers are dynamically scheduled and borrow their integrators from a
shared cache.
*/
package propagate

import (
	"context"

	"github.com/go-cascade/cascade/dynamics"
	"github.com/go-cascade/cascade/internal/events"
	"github.com/go-cascade/cascade/internal/intcache"
	"github.com/go-cascade/cascade/internal/stepdata"
	"github.com/go-cascade/cascade/internal/workerpool"
)

// Config carries the subset of façade configuration a superstep's
// propagation needs.
type Config struct {
	Dt            float64
	ReentryRadius float64
	ExitRadius    float64
}

// Superstep propagates every active particle in states across cfg.Dt,
// appending accepted substeps to store and terminal events to terms.
// states is mutated in place with each particle's final reached state;
// particles with active[p] == false are left untouched and contribute
// no substeps. Returns one Outcome per particle (zero value for
// inactive particles).
func Superstep(ctx context.Context, pool *workerpool.Pool, cache *intcache.Cache[*dynamics.ScalarIntegrator], store *stepdata.Store, states [][7]float64, active []bool, cfg Config, terms *events.TerminalCollector) []dynamics.Outcome {
	nparts := len(states)
	outcomes := make([]dynamics.Outcome, nparts)
	thresholds := []float64{cfg.ReentryRadius, cfg.ExitRadius}

	pool.For(ctx, nparts, func(p int) {
		if !active[p] {
			return
		}

		handle := cache.Acquire()
		defer handle.Release()

		integ := handle.Value()
		integ.Reset(states[p], thresholds)

		outcome, err := integ.PropagateUntil(ctx, cfg.Dt, true, func(coeffs []float64, end dynamics.DFloat) {
			store.Append(p, coeffs, end)
		})
		if err != nil {
			// Context cancellation between dispatched tasks; the phase
			// barrier at pool.For's return already stops further work.
			return
		}

		copy(states[p][:], integ.StateSlice())
		outcomes[p] = outcome

		if outcome.Terminal() {
			terms.Add(events.Terminal{I: int32(p), T: outcome.TimeReached, Code: codeFor(outcome.Flags)})
		}
	})

	return outcomes
}

// codeFor maps a set of dynamics.FlagXxx bits to a single terminal
// event code, giving non-finite state priority since it is checked
// first in the underlying integrator's per-substep sequence.
func codeFor(flags uint32) events.Code {
	switch {
	case flags&dynamics.FlagNonFinite != 0:
		return events.CodeNonFinite
	case flags&dynamics.FlagReentry != 0:
		return events.CodeReentry
	case flags&dynamics.FlagExit != 0:
		return events.CodeExit
	default:
		return events.CodeNonFinite
	}
}
