package cmd

import (
	"bytes"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/fabtriage/fabtriage/triage"
)

// RunConfig is the full run configuration YAML structure.
// All fields must be listed to satisfy KnownFields(true) strict parsing.
type RunConfig struct {
	Budget            float64                     `yaml:"budget"`
	InspectCost       float64                     `yaml:"inspect_cost"`
	HighRiskQuantile  float64                     `yaml:"high_risk_quantile"`
	Threshold         triage.ThresholdConfig      `yaml:"threshold"`
	Breakpoints       triage.SchedulerBreakpoints `yaml:"breakpoints"`
	Scorer            string                      `yaml:"scorer"`
	Target            string                      `yaml:"target"`
	PercentileGrid    bool                        `yaml:"percentile_grid"`
	BootstrapSamples  int                         `yaml:"bootstrap_samples"`
	RandomRate        float64                     `yaml:"random_rate"`
	RuleFeature       string                      `yaml:"rule_feature"`
	RuleCutoff        float64                     `yaml:"rule_cutoff"`
	FeatureColumns    []string                    `yaml:"feature_columns"`
	PipelineWorkers   int                         `yaml:"pipeline_workers"`
}

// DefaultRunConfig returns the configuration used when no --config file is
// given.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Budget:           100,
		InspectCost:      1.0,
		HighRiskQuantile: 0.20,
		Threshold:        triage.Percentile(0.90),
		Breakpoints:      triage.DefaultBreakpoints(),
		Scorer:           "static",
		Target:           string(triage.TargetRecall),
		PercentileGrid:   true,
		BootstrapSamples: 10000,
		RandomRate:       0.10,
		RuleFeature:      "risk_score",
		RuleCutoff:       0.5,
	}
}

// loadRunConfig parses a run config YAML with strict field checking, so a
// typo in a field name fails instead of silently using a default.
func loadRunConfig(path string) RunConfig {
	if path == "" {
		return DefaultRunConfig()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Fatalf("Failed to read config file: %v", err)
	}

	cfg := DefaultRunConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		logrus.Fatalf("Failed to parse config YAML: %v", err)
	}
	if err := cfg.Threshold.Validate(); err != nil {
		logrus.Fatalf("Invalid threshold config: %v", err)
	}
	if cfg.RandomRate < 0 || cfg.RandomRate > 1 {
		logrus.Fatalf("random_rate must be in [0, 1], got %v", cfg.RandomRate)
	}
	return cfg
}
