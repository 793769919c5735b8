package triage

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func selectionOf(ids ...string) *Selection {
	sel := &Selection{Policy: "test", IDs: make(map[string]bool)}
	for _, id := range ids {
		sel.IDs[id] = true
	}
	return sel
}

func labelOf(ids ...string) *HighRiskLabel {
	l := &HighRiskLabel{IDs: make(map[string]bool)}
	for _, id := range ids {
		l.IDs[id] = true
	}
	l.Definition.K = len(ids)
	return l
}

func TestComputeDetection_ConfusionCounts(t *testing.T) {
	all := []string{"a", "b", "c", "d", "e", "f"}
	label := labelOf("a", "b", "c")
	sel := selectionOf("a", "b", "d")

	m := ComputeDetection(sel, label, all)
	assert.Equal(t, 2, m.TP)
	assert.Equal(t, 1, m.FP)
	assert.Equal(t, 1, m.FN)
	assert.Equal(t, 2, m.TN)
	assert.InDelta(t, 2.0/3.0, m.Recall, 1e-12)
	assert.InDelta(t, 2.0/3.0, m.Precision, 1e-12)
	assert.InDelta(t, 2.0/3.0, m.F1, 1e-12)
	assert.InDelta(t, 1.0/3.0, m.FPR, 1e-12)
	assert.InDelta(t, 0.5, m.SelectionRate, 1e-12)
}

func TestComputeDetection_EmptySelection(t *testing.T) {
	all := []string{"a", "b"}
	m := ComputeDetection(selectionOf(), labelOf("a"), all)
	assert.Equal(t, 0, m.TP)
	assert.Equal(t, 0.0, m.Recall)
	assert.Equal(t, 0.0, m.Precision)
	assert.Equal(t, 0.0, m.F1)
}

func TestComputeCost_PerCatch(t *testing.T) {
	m := DetectionMetrics{TP: 4, FP: 6}
	c := ComputeCost(m, 1.0)
	assert.Equal(t, 10.0, c.TotalCost)
	assert.Equal(t, 2.5, c.CostPerCatch)
}

func TestComputeCost_NoCatches_IsInfinite(t *testing.T) {
	c := ComputeCost(DetectionMetrics{TP: 0, FP: 5}, 1.0)
	assert.True(t, math.IsInf(c.CostPerCatch, 1))
	assert.Equal(t, 5.0, c.TotalCost)
}
