/*Command cascade-run drives a sim.Sim through a configured number of
supersteps from the command line: flag parsing selects a mode, a gcfg
configuration file supplies the run's knobs, and every collision,
conjunction and terminal event is logged as it's produced.
*/
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/go-cascade/cascade/internal/config"
	"github.com/go-cascade/cascade/sim"
)

func main() {
	var (
		runConfig     string
		exampleConfig bool
	)
	flag.StringVar(&runConfig, "config", "", "Configuration file for a run.")
	flag.BoolVar(&exampleConfig, "example-config", false,
		"Print an example configuration file to stdout and exit.")
	flag.Parse()

	if exampleConfig {
		fmt.Print(config.Example)
		return
	}

	if runConfig == "" {
		slog.Error("no -config given; use -example-config to see the expected format")
		os.Exit(1)
	}

	if err := run(runConfig); err != nil {
		slog.Error("cascade-run failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Read(configPath)
	if err != nil {
		return err
	}

	state, err := readStateFile(cfg.Run.StateFile)
	if err != nil {
		return fmt.Errorf("reading state file: %w", err)
	}

	opts := optionsFromConfig(cfg)
	s, err := sim.New(state, cfg.Run.Ct, opts...)
	if err != nil {
		return fmt.Errorf("constructing sim: %w", err)
	}

	slog.Info("starting run", "particles", s.NParts(), "ct", cfg.Run.Ct, "nsteps", cfg.Run.NSteps)

	ctx := context.Background()
	for i := 0; i < cfg.Run.NSteps; i++ {
		status, err := s.Step(ctx)
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		logStep(i, status, s)
		if cfg.Run.StopOnEvent && status != sim.StatusSuccess {
			break
		}
	}

	return nil
}

func logStep(i int, status sim.Status, s *sim.Sim) {
	slog.Info("step complete", "step", i, "time", s.GetTime(), "status", status.String())
	for _, c := range s.CollVec() {
		slog.Info("collision", "step", i, "i", c.I, "j", c.J, "t", c.T)
	}
	for _, chunk := range s.ConjVecs() {
		for _, c := range chunk {
			slog.Info("conjunction", "step", i, "i", c.I, "j", c.J, "t", c.T, "d_min", c.DMin)
		}
	}
	for _, term := range s.TerminalEvents() {
		slog.Warn("terminal event", "step", i, "particle", term.I, "t", term.T, "code", term.Code.String())
	}
}

func optionsFromConfig(cfg *config.RunConfig) []sim.Option {
	var opts []sim.Option

	switch cfg.Dynamics.Kind {
	case "ConstantField":
		opts = append(opts, sim.WithDynamics(sim.DynConstantField, cfg.Dynamics.Gx, cfg.Dynamics.Gy, cfg.Dynamics.Gz))
	case "FreeMotion":
		opts = append(opts, sim.WithDynamics(sim.DynFreeMotion))
	default:
		mu := cfg.Dynamics.Mu
		if mu == 0 {
			mu = 1.0
		}
		opts = append(opts, sim.WithDynamics(sim.DynKepler, mu))
	}

	if cfg.Dynamics.Tol > 0 {
		opts = append(opts, sim.WithTol(cfg.Dynamics.Tol))
	}
	if cfg.Dynamics.HighAccuracy {
		opts = append(opts, sim.WithHighAccuracy(true))
	}
	if cfg.Thresholds.NParCt > 0 {
		opts = append(opts, sim.WithNParCt(cfg.Thresholds.NParCt))
	}
	if cfg.Thresholds.ReentryRadius > 0 {
		opts = append(opts, sim.WithReentryRadius(cfg.Thresholds.ReentryRadius))
	}
	if cfg.Thresholds.ExitRadius > 0 {
		opts = append(opts, sim.WithExitRadius(cfg.Thresholds.ExitRadius))
	}
	if cfg.Thresholds.ConjThresh > 0 {
		opts = append(opts, sim.WithConjThresh(cfg.Thresholds.ConjThresh))
	}
	if cfg.Thresholds.MinCollRadius > 0 {
		opts = append(opts, sim.WithMinCollRadius(cfg.Thresholds.MinCollRadius))
	}

	return opts
}

// readStateFile parses one particle per non-blank, non-comment line as
// seven whitespace-separated fields (x, y, z, vx, vy, vz, r), flattened
// row-major the way sim.New expects.
func readStateFile(fname string) ([]float64, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var state []float64
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 7 {
			return nil, fmt.Errorf("%s:%d: expected 7 fields (x y z vx vy vz r), got %d", fname, lineNo, len(fields))
		}
		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", fname, lineNo, err)
			}
			state = append(state, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return state, nil
}
