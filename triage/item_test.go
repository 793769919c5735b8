package triage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestBuildDataset_Valid(t *testing.T) {
	records := []RawRecord{
		{LotID: "L1", ItemID: "w1", Outcome: f(0.9), RiskScore: f(0.2),
			Features: map[string]float64{"temp": 350}},
		{LotID: "L1", ItemID: "w2", Outcome: f(0.8), RiskScore: f(0.6),
			Features: map[string]float64{"temp": 360}},
	}
	ds, err := BuildDataset(SplitFit, records, []string{"temp"})
	require.NoError(t, err)
	assert.Len(t, ds.Items, 2)
	assert.Equal(t, SplitFit, ds.Split)
	assert.Equal(t, []float64{0.2, 0.6}, ds.RiskScores())
	assert.Equal(t, []string{"w1", "w2"}, ds.IDs())
}

func TestBuildDataset_MissingRequiredField_NamesColumn(t *testing.T) {
	records := []RawRecord{
		{LotID: "L1", ItemID: "w1", Outcome: f(0.9)}, // no risk_score
	}
	_, err := BuildDataset(SplitFit, records, nil)

	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "risk_score", se.Field)
	assert.Equal(t, 0, se.Row)
}

func TestBuildDataset_RiskScoreOutOfRange(t *testing.T) {
	records := []RawRecord{
		{LotID: "L1", ItemID: "w1", Outcome: f(0.9), RiskScore: f(1.2)},
	}
	_, err := BuildDataset(SplitFit, records, nil)
	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "risk_score", se.Field)
}

func TestBuildDataset_MissingDeclaredFeature(t *testing.T) {
	records := []RawRecord{
		{LotID: "L1", ItemID: "w1", Outcome: f(0.9), RiskScore: f(0.5),
			Features: map[string]float64{}},
	}
	_, err := BuildDataset(SplitFit, records, []string{"pressure"})
	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "pressure", se.Field)
}

func TestDataset_Lots_GroupedAndSorted(t *testing.T) {
	ds := &Dataset{Split: SplitTest, Items: []*Item{
		{ID: "w1", LotID: "B"},
		{ID: "w2", LotID: "A"},
		{ID: "w3", LotID: "B"},
	}}
	lots := ds.Lots()
	require.Len(t, lots, 2)
	assert.Equal(t, "A", lots[0].ID)
	assert.Equal(t, "B", lots[1].ID)
	assert.Len(t, lots[1].Items, 2)
}

func TestItem_Feature_MissingTyped(t *testing.T) {
	it := &Item{ID: "w1", Features: map[string]float64{"a": 1}}

	v, err := it.Feature("a")
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	_, err = it.Feature("b")
	var mfe *MissingFeatureError
	require.True(t, errors.As(err, &mfe))
	assert.Equal(t, "b", mfe.Feature)
}
