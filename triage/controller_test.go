package triage

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabtriage/fabtriage/triage/trace"
)

// newTestController wires a controller with a fixed scorer and fresh budget.
func newTestController(score float64, budget float64, items int) *Controller {
	scorer := &fixedScorer{score: score}
	costs := DefaultCostModel()
	return &Controller{
		Stage0:  NewStage0Agent(scorer, costs, nil),
		Stage1:  NewStage1Agent(scorer, costs, nil),
		Stage2A: NewStage2AAgent(costs, testLimits(), []string{"vth"}),
		Stage2B: NewStage2BAgent(scorer, costs),
		Stage3:  NewStage3Agent(costs),
		Budget:  NewBudgetState(budget, items),
		Trace:   trace.NewRunTrace(trace.TraceLevelDecisions),
	}
}

// cleanLotItems builds n in-spec items with the features every stage needs.
func cleanLotItems(lotID string, n int) []*Item {
	items := make([]*Item, n)
	for i := range items {
		items[i] = &Item{
			ID:    fmt.Sprintf("%s-w%03d", lotID, i),
			LotID: lotID,
			Features: map[string]float64{
				"vth":            0.5,
				"leakage":        0.5,
				"defect_density": 20,
				"defect_count":   2,
			},
			RiskScore: 0.5,
		}
	}
	return items
}

func TestController_CleanLot_FullPathToSkip(t *testing.T) {
	// Low anomaly score: skip at stage0, proceed at stage1, lot proceeds,
	// benign map skips at stage2b.
	c := newTestController(0.2, 1000, 5)
	lot := &Lot{ID: "lotA", Items: cleanLotItems("lotA", 5)}

	result, failures, err := c.RunLot(lot)
	require.NoError(t, err)
	assert.Empty(t, failures)
	assert.Equal(t, ActionLotProceed, result.GateAction)
	require.Len(t, result.Items, 5)
	for _, r := range result.Items {
		assert.Equal(t, []Stage{Stage0, Stage1, Stage2A, Stage2B}, r.Path)
		assert.Equal(t, ActionSkip, r.Terminal)
		assert.Equal(t, 0.0, r.CumulativeCost)
	}
	assert.Equal(t, 0.0, result.TotalCost)
}

func TestController_HighSeverity_ReachesStage3(t *testing.T) {
	// Score 0.75: inspect at stage0 (cost 1), yield 0.25 still proceeds
	// on EV, escalate at stage2b (severity 0.75), stage3 terminal.
	c := newTestController(0.75, 1000, 2)
	lot := &Lot{ID: "lotA", Items: cleanLotItems("lotA", 2)}

	result, failures, err := c.RunLot(lot)
	require.NoError(t, err)
	assert.Empty(t, failures)
	require.Len(t, result.Items, 2)
	for _, r := range result.Items {
		assert.Equal(t, []Stage{Stage0, Stage1, Stage2A, Stage2B, Stage3}, r.Path)
		assert.Equal(t, ActionMonitor, r.Terminal)
		require.NotNil(t, r.NextLot)
		assert.Equal(t, "LOW", r.NextLot.Priority)
		// Inline inspection plus escalation.
		assert.InDelta(t, 1.0+5.33, r.CumulativeCost, 1e-9)
	}
}

func TestController_ReworkTerminal_SkipsPhase2(t *testing.T) {
	// Cheap rework makes stage1 pick rework, which is terminal before
	// completion: the item never reaches the lot gate.
	c := newTestController(0.5, 1000, 1)
	cheap := DefaultCostModel()
	cheap.Rework = 0.5
	c.Stage1 = NewStage1Agent(&fixedScorer{score: 0.5}, cheap, nil)

	items := cleanLotItems("lotA", 1)
	items[0].Features["cd"] = 6.0 // inline issue, improvement 0.15
	items[0].Features["overlay"] = 1.0
	items[0].Features["thickness"] = 100
	items[0].Features["uniformity"] = 1.0
	lot := &Lot{ID: "lotA", Items: items}

	result, failures, err := c.RunLot(lot)
	require.NoError(t, err)
	assert.Empty(t, failures)
	assert.False(t, result.GateApplied) // no survivors, gate never ran
	require.Len(t, result.Items, 1)
	assert.Equal(t, ActionRework, result.Items[0].Terminal)
	assert.Equal(t, []Stage{Stage0, Stage1}, result.Items[0].Path)
	assert.Equal(t, 0.5, c.Budget.SpentBy(CostRework))
}

func TestController_LotScrap_ShortCircuitsMembersAtZeroCost(t *testing.T) {
	// 25-item lot with critical violations on three members and a wide
	// uniformity spread: the gate scraps the lot, every member terminates
	// with no stage2b/stage3 spend, and the only phase-2 cost is the one
	// lot-level scrap charge.
	c := newTestController(0.2, 10000, 25)
	items := cleanLotItems("lotA", 25)
	for i := 0; i < 3; i++ {
		items[i].Features["vth"] = 0.9 // critical violation
	}
	for i := 3; i < 13; i++ {
		items[i].Features["leakage"] = 0.1 // spread drives uniformity down
	}
	lot := &Lot{ID: "lotA", Items: items}

	preSpent := c.Budget.Spent()
	result, failures, err := c.RunLot(lot)
	require.NoError(t, err)
	assert.Empty(t, failures)
	assert.Equal(t, ActionLotScrap, result.GateAction)

	for _, r := range result.Items {
		assert.Equal(t, ActionLotScrap, r.Terminal)
		assert.Equal(t, Stage2A, r.Path[len(r.Path)-1])
		// No per-item phase-2 charges after the gate.
		assert.Equal(t, 0.0, r.CumulativeCost)
	}
	// Exactly one lot-level scrap charge beyond phase 1.
	assert.InDelta(t, 333.0, c.Budget.SpentBy(CostLotScrap), 1e-9)
	assert.InDelta(t, preSpent+333.0, c.Budget.Spent(), 1e-9)
	assert.InDelta(t, 333.0, result.TotalCost, 1e-9)
}

func TestController_ItemFailure_DoesNotAbortLot(t *testing.T) {
	c := newTestController(0.2, 1000, 3)
	c.Stage0.RequiredFeatures = []string{"pressure"}

	items := cleanLotItems("lotA", 3)
	items[0].Features["pressure"] = 1.0
	items[2].Features["pressure"] = 1.0
	// items[1] lacks the required feature.
	lot := &Lot{ID: "lotA", Items: items}

	result, failures, err := c.RunLot(lot)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, "lotA-w001", failures[0].ItemID)
	assert.Len(t, result.Items, 2)
}

func TestController_RunBatch_PartialFailureAndOrder(t *testing.T) {
	itemsA := cleanLotItems("lotA", 2)
	itemsB := cleanLotItems("lotB", 2)
	itemsB[0].Features["defect_density"] = 10 // still valid

	all := append(append([]*Item{}, itemsA...), itemsB...)
	ds := &Dataset{Split: SplitTest, Items: all}

	c := newTestController(0.2, 1000, len(all))
	c.Workers = 2

	batch, err := c.RunBatch(context.Background(), ds)
	require.NoError(t, err)
	require.Len(t, batch.Lots, 2)
	assert.Equal(t, "lotA", batch.Lots[0].LotID)
	assert.Equal(t, "lotB", batch.Lots[1].LotID)
	assert.Empty(t, batch.Failures)
}

func TestController_RunBatch_SharedTraceCompleteUnderWorkers(t *testing.T) {
	// Many lots across many workers recording into one trace: every
	// decision and item path must land, none dropped or duplicated.
	const lots = 16
	const perLot = 3

	var all []*Item
	for i := 0; i < lots; i++ {
		all = append(all, cleanLotItems(fmt.Sprintf("lot%02d", i), perLot)...)
	}
	ds := &Dataset{Split: SplitTest, Items: all}

	c := newTestController(0.2, 10000, len(all))
	c.Workers = 8

	batch, err := c.RunBatch(context.Background(), ds)
	require.NoError(t, err)
	require.Len(t, batch.Lots, lots)
	assert.Empty(t, batch.Failures)

	summary := trace.Summarize(c.Trace)
	assert.Equal(t, lots*perLot, summary.ItemsTraced)
	// Per item: stage0, stage1, stage2b; per lot: one gate decision.
	assert.Equal(t, lots*(perLot*3+1), summary.TotalDecisions)
}

func TestController_Trace_RecordsPathsAndDecisions(t *testing.T) {
	c := newTestController(0.2, 1000, 2)
	lot := &Lot{ID: "lotA", Items: cleanLotItems("lotA", 2)}

	_, _, err := c.RunLot(lot)
	require.NoError(t, err)

	summary := trace.Summarize(c.Trace)
	assert.Equal(t, 2, summary.ItemsTraced)
	// Per item: stage0, stage1, stage2b; plus one lot gate decision.
	assert.Equal(t, 7, summary.TotalDecisions)
	// Stage0 and stage2b both skip for each of the two items.
	assert.Equal(t, 4, summary.ActionCounts[string(ActionSkip)])
}
