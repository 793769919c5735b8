package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabtriage/fabtriage/triage"
)

func TestLoadRunConfig_EmptyPathUsesDefaults(t *testing.T) {
	cfg := loadRunConfig("")
	assert.Equal(t, DefaultRunConfig(), cfg)
	assert.Equal(t, 100.0, cfg.Budget)
	assert.Equal(t, triage.ThresholdPercentile, cfg.Threshold.Kind)
	assert.Equal(t, 10000, cfg.BootstrapSamples)
}

func TestLoadRunConfig_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
budget: 250
scorer: heuristic
threshold:
  kind: absolute
  value: 0.65
breakpoints:
  critical: 0.4
  warning: 0.9
  surplus: 2.5
`), 0o644))

	cfg := loadRunConfig(path)
	assert.Equal(t, 250.0, cfg.Budget)
	assert.Equal(t, "heuristic", cfg.Scorer)
	assert.Equal(t, triage.ThresholdAbsolute, cfg.Threshold.Kind)
	assert.Equal(t, 0.65, cfg.Threshold.Value)
	assert.Equal(t, 0.4, cfg.Breakpoints.Critical)

	// Untouched fields keep their defaults.
	assert.Equal(t, 1.0, cfg.InspectCost)
	assert.Equal(t, 0.20, cfg.HighRiskQuantile)
	assert.Equal(t, "risk_score", cfg.RuleFeature)
}
