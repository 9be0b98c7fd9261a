package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	fname := filepath.Join(dir, "cascade.gcfg")
	require.NoError(t, os.WriteFile(fname, []byte(contents), 0o644))
	return fname
}

func TestReadParsesSectionsAndAppliesDefaults(t *testing.T) {
	fname := writeTemp(t, `
[Run]
StateFile = particles.txt
Ct = 2.5
NSteps = 5

[Dynamics]
Kind = Kepler
Mu = 3.0

[Thresholds]
ConjThresh = 0.1
`)
	cfg, err := Read(fname)
	require.NoError(t, err)
	assert.Equal(t, "particles.txt", cfg.Run.StateFile)
	assert.InDelta(t, 2.5, cfg.Run.Ct, 1e-9)
	assert.Equal(t, 5, cfg.Run.NSteps)
	assert.Equal(t, "Kepler", cfg.Dynamics.Kind)
	assert.InDelta(t, 3.0, cfg.Dynamics.Mu, 1e-9)
	assert.InDelta(t, 0.1, cfg.Thresholds.ConjThresh, 1e-9)
}

func TestReadAppliesNStepsDefaultWhenOmitted(t *testing.T) {
	fname := writeTemp(t, `
[Run]
StateFile = particles.txt
Ct = 1.0
`)
	cfg, err := Read(fname)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Run.NSteps)
}

func TestReadRejectsMissingStateFile(t *testing.T) {
	fname := writeTemp(t, `
[Run]
Ct = 1.0
`)
	_, err := Read(fname)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "StateFile")
}

func TestReadRejectsNonPositiveCt(t *testing.T) {
	fname := writeTemp(t, `
[Run]
StateFile = particles.txt
Ct = 0
`)
	_, err := Read(fname)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Ct")
}

func TestReadRejectsUnknownDynamicsKind(t *testing.T) {
	fname := writeTemp(t, `
[Run]
StateFile = particles.txt
Ct = 1.0

[Dynamics]
Kind = Newtonian
`)
	_, err := Read(fname)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Kind")
}

func TestReadRejectsNegativeConjThresh(t *testing.T) {
	fname := writeTemp(t, `
[Run]
StateFile = particles.txt
Ct = 1.0

[Thresholds]
ConjThresh = -1
`)
	_, err := Read(fname)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ConjThresh")
}
