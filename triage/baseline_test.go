package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomBaseline_SelectsFloorRateN(t *testing.T) {
	ds := gradedDataset(SplitTest, 47)
	b := &RandomBaseline{Rate: 0.10, RNG: NewPartitionedRNG(NewRunKey(7))}
	sel := b.Select(ds)
	assert.Equal(t, 4, sel.Count()) // floor(0.10 × 47)
}

func TestRandomBaseline_DeterministicPerSeed(t *testing.T) {
	ds := gradedDataset(SplitTest, 30)

	a := (&RandomBaseline{Rate: 0.3, RNG: NewPartitionedRNG(NewRunKey(42))}).Select(ds)
	b := (&RandomBaseline{Rate: 0.3, RNG: NewPartitionedRNG(NewRunKey(42))}).Select(ds)
	assert.Equal(t, a.IDs, b.IDs)

	c := (&RandomBaseline{Rate: 0.3, RNG: NewPartitionedRNG(NewRunKey(43))}).Select(ds)
	assert.NotEqual(t, a.IDs, c.IDs)
}

func TestRandomBaseline_WithoutReplacement(t *testing.T) {
	ds := gradedDataset(SplitTest, 20)
	sel := (&RandomBaseline{Rate: 0.5, RNG: NewPartitionedRNG(NewRunKey(1))}).Select(ds)
	// A map of size 10 means 10 distinct IDs.
	assert.Equal(t, 10, sel.Count())
	for id := range sel.IDs {
		assert.Contains(t, ds.IDs(), id)
	}
}

func TestRandomBaseline_RateOutOfRange_Clamps(t *testing.T) {
	ds := gradedDataset(SplitTest, 10)

	// Rate above 1 selects everything instead of overrunning the draw.
	all := (&RandomBaseline{Rate: 1.5, RNG: NewPartitionedRNG(NewRunKey(1))}).Select(ds)
	assert.Equal(t, 10, all.Count())

	none := (&RandomBaseline{Rate: -0.2, RNG: NewPartitionedRNG(NewRunKey(1))}).Select(ds)
	assert.Equal(t, 0, none.Count())
}

func TestRuleBasedBaseline_AppliesCutoff(t *testing.T) {
	ds := &Dataset{Split: SplitTest, Items: []*Item{
		{ID: "a", Features: map[string]float64{"temp": 400}},
		{ID: "b", Features: map[string]float64{"temp": 349}},
		{ID: "c", Features: map[string]float64{"temp": 350}},
	}}
	sel, err := (&RuleBasedBaseline{Feature: "temp", Cutoff: 350}).Select(ds)
	require.NoError(t, err)
	assert.True(t, sel.Selected("a"))
	assert.False(t, sel.Selected("b"))
	assert.True(t, sel.Selected("c"))
}

func TestRuleBasedBaseline_MissingFeatureFails(t *testing.T) {
	ds := &Dataset{Split: SplitTest, Items: []*Item{
		{ID: "a", Features: map[string]float64{}},
	}}
	_, err := (&RuleBasedBaseline{Feature: "temp", Cutoff: 350}).Select(ds)
	assert.Error(t, err)
}

func TestTopKBaseline_HighestScoresFirst(t *testing.T) {
	ds := &Dataset{Split: SplitTest, Items: []*Item{
		{ID: "a", RiskScore: 0.2},
		{ID: "b", RiskScore: 0.9},
		{ID: "c", RiskScore: 0.5},
		{ID: "d", RiskScore: 0.9},
	}}
	sel := (&TopKBaseline{K: 2}).Select(ds)
	assert.Equal(t, 2, sel.Count())
	assert.True(t, sel.Selected("b"))
	assert.True(t, sel.Selected("d")) // tie at 0.9, both beat 0.5
}

func TestTopKBaseline_KLargerThanN(t *testing.T) {
	ds := gradedDataset(SplitTest, 3)
	sel := (&TopKBaseline{K: 10}).Select(ds)
	assert.Equal(t, 3, sel.Count())
}
