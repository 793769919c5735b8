package triage

import (
	"fmt"
	"math"
	"math/rand"
)

// Scorer predicts a risk score in [0, 1] from an item's feature map. Stage
// agents receive a Scorer by injection so a trained model, a heuristic
// fallback and a random baseline are interchangeable.
type Scorer interface {
	Predict(features map[string]float64) float64
}

// StaticScorer returns the item's precomputed risk score, read from the
// designated feature key. This is the production path: scores arrive with
// the input records.
type StaticScorer struct {
	Key string
}

func (s *StaticScorer) Predict(features map[string]float64) float64 {
	return clip(features[s.Key], 0, 1)
}

// HeuristicScorer squashes a weighted sum of feature deviations through a
// sigmoid. Used when no trained scorer is available for a stage.
type HeuristicScorer struct {
	Weights map[string]float64 // feature -> weight
	Centers map[string]float64 // feature -> nominal value
	Bias    float64
}

func (s *HeuristicScorer) Predict(features map[string]float64) float64 {
	z := s.Bias
	for name, w := range s.Weights {
		v, ok := features[name]
		if !ok {
			continue
		}
		z += w * (v - s.Centers[name])
	}
	return 1 / (1 + math.Exp(-z))
}

// RandomScorer draws uniform scores from a seeded RNG. Baseline use only.
type RandomScorer struct {
	rng *rand.Rand
}

// NewRandomScorer creates a RandomScorer from the run's partitioned RNG.
func NewRandomScorer(p *PartitionedRNG) *RandomScorer {
	return &RandomScorer{rng: p.ForSubsystem(SubsystemScorer)}
}

func (s *RandomScorer) Predict(_ map[string]float64) float64 {
	return s.rng.Float64()
}

// NewScorer creates a Scorer by name. Valid names: "static" (default),
// "heuristic", "random". An empty string defaults to static (for CLI flag
// default compatibility). Panics on unrecognized names.
func NewScorer(name string, p *PartitionedRNG) Scorer {
	switch name {
	case "", "static":
		return &StaticScorer{Key: "risk_score"}
	case "heuristic":
		return &HeuristicScorer{Weights: map[string]float64{}, Centers: map[string]float64{}}
	case "random":
		return NewRandomScorer(p)
	default:
		panic(fmt.Sprintf("unknown scorer %q", name))
	}
}
