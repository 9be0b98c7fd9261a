/*Package config reads cmd/cascade-run's gcfg configuration file into
the knobs sim.Option exposes: a plain struct of sections, defaults
applied after parsing, and validation that returns a descriptive error
rather than letting a zero value silently pass through.
*/
package config

import (
	"fmt"

	"gopkg.in/gcfg.v1"
)

// DynamicsConfig selects and parameterizes the dynamics.Provider a run
// uses, mirroring sim.WithDynamics's kind-plus-extra shape.
type DynamicsConfig struct {
	// Kind is one of "FreeMotion", "ConstantField", "Kepler".
	Kind string

	// Gx, Gy, Gz parameterize ConstantField.
	Gx, Gy, Gz float64

	// Mu parameterizes Kepler (default 1 when Kind is Kepler and Mu is
	// left at its zero value).
	Mu float64

	// HighAccuracy widens the Taylor order used, per sim.WithHighAccuracy.
	HighAccuracy bool

	// Tol is the integrator local error tolerance.
	Tol float64
}

// Valid reports whether Kind names a dynamics kind this port supplies.
func (d *DynamicsConfig) Valid() bool {
	switch d.Kind {
	case "", "FreeMotion", "ConstantField", "Kepler":
		return true
	default:
		return false
	}
}

// ThresholdsConfig carries the collision/conjunction/reentry/exit knobs,
// mirroring sim's own configuration knobs table verbatim.
type ThresholdsConfig struct {
	ReentryRadius   float64
	ExitRadius      float64
	ConjThresh      float64
	MinCollRadius   float64
	NParCt          int
}

// RunConfig is the top-level gcfg document cascade-run parses: one
// [Dynamics] section, one [Thresholds] section, and run-loop controls.
type RunConfig struct {
	Dynamics   DynamicsConfig
	Thresholds ThresholdsConfig
	Run        struct {
		// StateFile names a text file of whitespace-separated particle
		// rows (x y z vx vy vz r), one particle per line.
		StateFile string

		// Ct is the superstep length; must be positive.
		Ct float64

		// NSteps is how many supersteps to advance; defaults to 1.
		NSteps int

		// StopOnEvent ends the run loop early on the first superstep
		// whose Status is not StatusSuccess.
		StopOnEvent bool
	}
}

// Default returns a RunConfig with the same defaults sim.New applies
// when an Option is omitted, so an empty or partial config file still
// produces a runnable configuration.
func Default() *RunConfig {
	cfg := &RunConfig{}
	cfg.Run.NSteps = 1
	return cfg
}

// Read parses fname into a RunConfig seeded with Default's values and
// validates it, the way io.ReadBoundsConfig validates the sections it
// reads before handing them back to its caller.
func Read(fname string) (*RunConfig, error) {
	cfg := Default()
	if err := gcfg.ReadFileInto(cfg, fname); err != nil {
		return nil, fmt.Errorf("reading config %q: %w", fname, err)
	}
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *RunConfig) check() error {
	if c.Run.StateFile == "" {
		return fmt.Errorf("config: [Run] StateFile must be set")
	}
	if c.Run.Ct <= 0 {
		return fmt.Errorf("config: [Run] Ct must be positive, got %g", c.Run.Ct)
	}
	if c.Run.NSteps <= 0 {
		return fmt.Errorf("config: [Run] NSteps must be positive, got %d", c.Run.NSteps)
	}
	if !c.Dynamics.Valid() {
		return fmt.Errorf("config: [Dynamics] Kind %q is not one of FreeMotion, ConstantField, Kepler", c.Dynamics.Kind)
	}
	if c.Thresholds.ConjThresh < 0 {
		return fmt.Errorf("config: [Thresholds] ConjThresh must be non-negative, got %g", c.Thresholds.ConjThresh)
	}
	return nil
}

// Example is the template printed by cascade-run's -example-config
// flag.
const Example = `; cascade-run configuration file
[Run]
StateFile = particles.txt
Ct = 1.0
NSteps = 10
StopOnEvent = false

[Dynamics]
Kind = Kepler
Mu = 1.0
Tol = 1e-12

[Thresholds]
ReentryRadius = 0
ExitRadius = 0
ConjThresh = 0
MinCollRadius = 0
NParCt = 1
`
