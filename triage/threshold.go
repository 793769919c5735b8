package triage

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ThresholdKind discriminates the two threshold representations.
type ThresholdKind string

const (
	// ThresholdAbsolute compares risk scores against Value directly.
	ThresholdAbsolute ThresholdKind = "absolute"
	// ThresholdPercentile resolves Value (a selection percentile, e.g. 0.90
	// = select the top 10%) against a batch's risk-score distribution
	// before comparing.
	ThresholdPercentile ThresholdKind = "percentile"
)

// ThresholdConfig is the tagged threshold variant. Downstream comparisons
// never read Value for a percentile config directly; they use Resolve.
type ThresholdConfig struct {
	Kind  ThresholdKind `yaml:"kind" json:"kind"`
	Value float64       `yaml:"value" json:"value"`
}

// Absolute builds an absolute threshold.
func Absolute(value float64) ThresholdConfig {
	return ThresholdConfig{Kind: ThresholdAbsolute, Value: value}
}

// Percentile builds a percentile threshold. target is the selection
// percentile in (0, 1): 0.90 selects scores at or above the empirical 90th
// percentile.
func Percentile(target float64) ThresholdConfig {
	return ThresholdConfig{Kind: ThresholdPercentile, Value: target}
}

// Validate rejects out-of-range threshold values.
func (c ThresholdConfig) Validate() error {
	switch c.Kind {
	case ThresholdAbsolute:
		if c.Value < 0 || c.Value > 1 {
			return fmt.Errorf("absolute threshold %v outside [0,1]", c.Value)
		}
	case ThresholdPercentile:
		if c.Value <= 0 || c.Value >= 1 {
			return fmt.Errorf("percentile target %v outside (0,1)", c.Value)
		}
	default:
		return fmt.Errorf("unknown threshold kind %q", c.Kind)
	}
	return nil
}

// Resolve produces the absolute cut for this config against the given
// risk-score distribution. Absolute configs return Value unchanged; the
// distribution is ignored. Percentile configs compute the empirical quantile
// at the target, so "risk >= cut" selects approximately the top
// (1-target) fraction.
//
// Resolve panics on an unknown kind: threshold configs are validated at
// construction, so an unknown kind here is a programmer error.
func (c ThresholdConfig) Resolve(scores []float64) float64 {
	switch c.Kind {
	case ThresholdAbsolute:
		return c.Value
	case ThresholdPercentile:
		if len(scores) == 0 {
			return c.Value
		}
		sorted := make([]float64, len(scores))
		copy(sorted, scores)
		sort.Float64s(sorted)
		return stat.Quantile(c.Value, stat.Empirical, sorted, nil)
	default:
		panic(fmt.Sprintf("unknown threshold kind %q", c.Kind))
	}
}

// clip bounds v to [lo, hi].
func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
