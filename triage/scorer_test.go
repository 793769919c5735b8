package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStaticScorer_ReadsAndClipsKey(t *testing.T) {
	s := &StaticScorer{Key: "risk_score"}
	assert.Equal(t, 0.42, s.Predict(map[string]float64{"risk_score": 0.42}))
	assert.Equal(t, 1.0, s.Predict(map[string]float64{"risk_score": 3.5}))
	assert.Equal(t, 0.0, s.Predict(map[string]float64{"risk_score": -0.1}))
	assert.Equal(t, 0.0, s.Predict(map[string]float64{}), "missing key reads as zero")
}

func TestHeuristicScorer_SigmoidAroundCenters(t *testing.T) {
	s := &HeuristicScorer{
		Weights: map[string]float64{"leakage": 2.0},
		Centers: map[string]float64{"leakage": 0.5},
	}

	// At the center the sigmoid sits at 0.5; deviations push it off.
	assert.InDelta(t, 0.5, s.Predict(map[string]float64{"leakage": 0.5}), 1e-9)
	assert.Greater(t, s.Predict(map[string]float64{"leakage": 0.9}), 0.5)
	assert.Less(t, s.Predict(map[string]float64{"leakage": 0.1}), 0.5)

	// Missing features contribute nothing.
	assert.InDelta(t, 0.5, s.Predict(map[string]float64{"other": 99}), 1e-9)
}

func TestRandomScorer_DeterministicPerRunKey(t *testing.T) {
	a := NewRandomScorer(NewPartitionedRNG(NewRunKey(7)))
	b := NewRandomScorer(NewPartitionedRNG(NewRunKey(7)))
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Predict(nil), b.Predict(nil))
	}
}

func TestNewScorer_Factory(t *testing.T) {
	p := NewPartitionedRNG(NewRunKey(1))

	assert.IsType(t, &StaticScorer{}, NewScorer("static", p))
	assert.IsType(t, &StaticScorer{}, NewScorer("", p))
	assert.IsType(t, &HeuristicScorer{}, NewScorer("heuristic", p))
	assert.IsType(t, &RandomScorer{}, NewScorer("random", p))

	assert.Panics(t, func() { NewScorer("neural", p) })
}
