package validate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabtriage/fabtriage/triage"
)

func TestSweepCostRatios_RowShapeAndScaling(t *testing.T) {
	test, label, framework, baseline := scenarioDataset()
	policies := []*triage.Selection{framework, baseline}

	rows := SweepCostRatios(test, label, policies, 1.0)
	require.Len(t, rows, len(CostRatios)*2)

	// Framework selects 40 items: TotalCost is 40 x ratio, recall is fixed.
	for _, row := range rows {
		if row.Policy != "framework" {
			continue
		}
		assert.InDelta(t, 40*row.Ratio, row.TotalCost, 1e-9)
		assert.InDelta(t, 0.9, row.Recall, 1e-9)
		assert.InDelta(t, 40*row.Ratio/36, row.CostPerCatch, 1e-9)
	}
}

func TestSweepCostRatios_FrameworkDominatesAtEveryRatio(t *testing.T) {
	test, label, framework, baseline := scenarioDataset()

	rows := SweepCostRatios(test, label, []*triage.Selection{framework, baseline}, 1.0)
	for _, row := range rows {
		if row.Policy == "framework" {
			assert.True(t, row.Dominant, "ratio %v", row.Ratio)
		} else {
			assert.False(t, row.Dominant, "baseline rows never carry the flag")
		}
	}
}

func TestSweepCostRatios_WeakFrameworkNotDominant(t *testing.T) {
	test, label, _, baseline := scenarioDataset()

	// A framework that catches nothing labeled loses on recall.
	weak := &triage.Selection{Policy: "framework", IDs: map[string]bool{
		"w150": true, "w151": true,
	}}

	rows := SweepCostRatios(test, label, []*triage.Selection{weak, baseline}, 1.0)
	for _, row := range rows {
		assert.False(t, row.Dominant)
	}
}

func TestSweepCostRatios_SinglePolicy_NoDominance(t *testing.T) {
	test, label, framework, _ := scenarioDataset()

	rows := SweepCostRatios(test, label, []*triage.Selection{framework}, 1.0)
	require.Len(t, rows, len(CostRatios))
	for _, row := range rows {
		assert.False(t, row.Dominant, "dominance needs a baseline to dominate")
	}
}

func TestSweepCostRatios_InfiniteCostPerCatch(t *testing.T) {
	test, label, framework, _ := scenarioDataset()

	// Baseline with zero true positives: cost per catch is +Inf, so any
	// finite framework cost per catch wins.
	empty := &triage.Selection{Policy: "miss_all", IDs: map[string]bool{
		"w150": true, "w151": true, "w152": true,
	}}

	rows := SweepCostRatios(test, label, []*triage.Selection{framework, empty}, 1.0)
	for _, row := range rows {
		switch row.Policy {
		case "framework":
			assert.True(t, row.Dominant)
		case "miss_all":
			assert.True(t, math.IsInf(row.CostPerCatch, 1))
		}
	}
}

func TestCostPerCatchLE(t *testing.T) {
	inf := math.Inf(1)
	assert.True(t, costPerCatchLE(1.0, 2.0))
	assert.True(t, costPerCatchLE(2.0, 2.0))
	assert.False(t, costPerCatchLE(3.0, 2.0))
	assert.True(t, costPerCatchLE(3.0, inf))
	assert.True(t, costPerCatchLE(inf, inf))
	assert.False(t, costPerCatchLE(inf, 3.0))
}
