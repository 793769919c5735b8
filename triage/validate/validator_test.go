package validate

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabtriage/fabtriage/triage"
)

// scenarioDataset wraps the shared fixture's population in a test-split
// dataset with the same outcomes.
func scenarioDataset() (*triage.Dataset, *triage.HighRiskLabel, *triage.Selection, *triage.Selection) {
	ids, label, framework, baseline := scenario()
	items := make([]*triage.Item, len(ids))
	for i, id := range ids {
		items[i] = &triage.Item{ID: id, Outcome: float64(i) / 199.0}
	}
	return &triage.Dataset{Split: triage.SplitTest, Items: items}, label, framework, baseline
}

func newTestRunner() *Runner {
	b := NewBootstrap(triage.NewPartitionedRNG(triage.NewRunKey(42)), 1.0)
	b.Resamples = 500
	return &Runner{UnitCost: 1.0, Bootstrap: b}
}

func TestRunner_Run_FullReport(t *testing.T) {
	test, label, framework, baseline := scenarioDataset()

	r := newTestRunner()
	report, err := r.Run(context.Background(), test, label, framework, []*triage.Selection{baseline})
	require.NoError(t, err)

	require.Len(t, report.Policies, 2)
	assert.Equal(t, "framework", report.Policies[0].Policy)
	assert.Equal(t, "random", report.Policies[1].Policy)
	assert.InDelta(t, 0.9, report.Policies[0].Detection.Recall, 1e-9)
	assert.InDelta(t, 0.2, report.Policies[1].Detection.Recall, 1e-9)

	require.Len(t, report.Primary, 1)
	assert.Equal(t, "random", report.Primary[0].Baseline)
	assert.True(t, report.Primary[0].RecallDiff.Significant)

	sec, ok := report.Secondary["random"]
	require.True(t, ok)
	require.Len(t, sec, 3)
	assert.Equal(t, "t_test", sec[0].Name)
	assert.Equal(t, "chi_square", sec[1].Name)
	assert.Equal(t, "mcnemar", sec[2].Name)
	for _, tr := range sec {
		assert.True(t, tr.Exploratory)
	}

	assert.Len(t, report.Sensitivity, len(CostRatios)*2)
	assert.Equal(t, 40, report.Label.K)
}

func TestRunner_Run_RejectsNonTestSplit(t *testing.T) {
	test, label, framework, baseline := scenarioDataset()
	test.Split = triage.SplitValidation

	_, err := newTestRunner().Run(context.Background(), test, label, framework, []*triage.Selection{baseline})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "test split")
}

func TestRunner_Run_SplitOverlapIsLeakage(t *testing.T) {
	test, label, framework, baseline := scenarioDataset()

	r := newTestRunner()
	r.ValidationIDs = []string{"w010", "w999", "w005"} // w999 is not in the split

	_, err := r.Run(context.Background(), test, label, framework, []*triage.Selection{baseline})
	require.Error(t, err)

	var leak *LeakageError
	require.True(t, errors.As(err, &leak))
	assert.Equal(t, "split_overlap", leak.Kind)
	assert.Equal(t, []string{"w005", "w010"}, leak.Overlap)
	assert.Contains(t, leak.Error(), "split_overlap")
}

func TestRunner_Run_LabelCountMismatchIsLeakage(t *testing.T) {
	test, label, framework, baseline := scenarioDataset()
	label.Definition.K = 41 // definition disagrees with the labeled set

	_, err := newTestRunner().Run(context.Background(), test, label, framework, []*triage.Selection{baseline})
	require.Error(t, err)

	var leak *LeakageError
	require.True(t, errors.As(err, &leak))
	assert.Equal(t, "label_count", leak.Kind)
	assert.Empty(t, leak.Overlap)
}

func TestRunner_Run_MultipleBaselines(t *testing.T) {
	test, label, framework, baseline := scenarioDataset()

	second := &triage.Selection{Policy: "rule_based", IDs: map[string]bool{}}
	for i := 0; i < 20; i++ {
		second.IDs[fmt.Sprintf("w%03d", i)] = true
	}

	r := newTestRunner()
	report, err := r.Run(context.Background(), test, label, framework,
		[]*triage.Selection{baseline, second})
	require.NoError(t, err)

	assert.Len(t, report.Policies, 3)
	assert.Len(t, report.Primary, 2)
	assert.Len(t, report.Secondary, 2)
	assert.Len(t, report.Sensitivity, len(CostRatios)*3)
}
