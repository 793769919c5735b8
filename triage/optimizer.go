package triage

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
)

// TargetMetric selects what the grid search optimizes.
type TargetMetric string

const (
	TargetRecall       TargetMetric = "recall"
	TargetF1           TargetMetric = "f1"
	TargetCostPerCatch TargetMetric = "cost_per_catch" // minimized
)

var validTargets = map[TargetMetric]bool{
	TargetRecall:       true,
	TargetF1:           true,
	TargetCostPerCatch: true,
}

// Candidate is one evaluated grid point in the search history.
type Candidate struct {
	Thresholds [3]ThresholdConfig `json:"thresholds"`
	Resolved   [3]float64         `json:"resolved"`
	Detection  DetectionMetrics   `json:"detection"`
	Cost       CostMetrics        `json:"cost"`
	Feasible   bool               `json:"feasible"`
	Score      float64            `json:"score"`
}

// SearchSummary records the provenance of a search so downstream reports
// can verify the protocol was followed.
type SearchSummary struct {
	ValidationSize   int          `json:"validation_size"`
	ValidationSplit  SplitName    `json:"validation_split"`
	Target           TargetMetric `json:"target"`
	Budget           float64      `json:"budget"`
	CandidatesTried  int          `json:"candidates_tried"`
	BudgetInfeasible bool         `json:"budget_infeasible"`
	TestSetTouched   bool         `json:"test_set_touched"` // always false
}

// SearchResult is the optimizer's complete output.
type SearchResult struct {
	Best      [3]ThresholdConfig `json:"best"`
	BestScore float64            `json:"best_score"`
	History   []Candidate        `json:"history"`
	Summary   SearchSummary      `json:"summary"`
}

// Default candidate grids, one axis per gated stage.
var (
	defaultPercentileGrid = []float64{0.85, 0.88, 0.90, 0.92, 0.95}
	defaultAbsoluteGrid   = []float64{0.3, 0.4, 0.5, 0.6, 0.7, 0.8}
)

// Optimizer tunes the three per-stage inspection thresholds by exhaustive
// grid search over the validation split. It never receives the test split;
// the validator cross-checks item IDs afterward.
type Optimizer struct {
	Grid       [3][]float64
	Percentile bool // interpret grid values as selection percentiles
	Target     TargetMetric
	Budget     float64
	UnitCost   float64
	Log        *logrus.Logger
}

// NewOptimizer builds an Optimizer over the default grid for the given
// threshold space. It panics on an unknown target metric.
func NewOptimizer(percentile bool, target TargetMetric, budget, unitCost float64) *Optimizer {
	if !validTargets[target] {
		panic(fmt.Sprintf("unknown target metric: %q", target))
	}
	grid := defaultAbsoluteGrid
	if percentile {
		grid = defaultPercentileGrid
	}
	return &Optimizer{
		Grid:       [3][]float64{grid, grid, grid},
		Percentile: percentile,
		Target:     target,
		Budget:     budget,
		UnitCost:   unitCost,
	}
}

func (o *Optimizer) logger() *logrus.Logger {
	if o.Log != nil {
		return o.Log
	}
	return logrus.StandardLogger()
}

func (o *Optimizer) config(v float64) ThresholdConfig {
	if o.Percentile {
		return Percentile(v)
	}
	return Absolute(v)
}

// score maps a candidate's metrics onto the axis being maximized. Cost per
// catch is negated so argmax works uniformly.
func (o *Optimizer) score(c Candidate) float64 {
	switch o.Target {
	case TargetRecall:
		return c.Detection.Recall
	case TargetF1:
		return c.Detection.F1
	case TargetCostPerCatch:
		if math.IsInf(c.Cost.CostPerCatch, 1) {
			return math.Inf(-1)
		}
		return -c.Cost.CostPerCatch
	}
	panic(fmt.Sprintf("unknown target metric: %q", o.Target))
}

// Search evaluates the full Cartesian grid against the validation split. An
// item is selected when its risk score clears all three resolved cuts.
// Candidates over budget are excluded from selection; if none fit, the
// global minimum-cost candidate wins and the summary is flagged
// budget-infeasible (not an error).
func (o *Optimizer) Search(validation *Dataset, label *HighRiskLabel) (*SearchResult, error) {
	if validation.Split == SplitTest {
		return nil, fmt.Errorf("optimizer must not receive the test split")
	}
	if len(validation.Items) == 0 {
		return nil, fmt.Errorf("optimizer: empty validation split")
	}

	scores := validation.RiskScores()
	ids := validation.IDs()

	var history []Candidate
	for _, v0 := range o.Grid[0] {
		for _, v1 := range o.Grid[1] {
			for _, v2 := range o.Grid[2] {
				configs := [3]ThresholdConfig{o.config(v0), o.config(v1), o.config(v2)}
				var resolved [3]float64
				for i, cfg := range configs {
					resolved[i] = cfg.Resolve(scores)
				}

				sel := &Selection{Policy: "candidate", IDs: make(map[string]bool)}
				for i, id := range ids {
					s := scores[i]
					if s >= resolved[0] && s >= resolved[1] && s >= resolved[2] {
						sel.IDs[id] = true
					}
				}

				det := ComputeDetection(sel, label, ids)
				cost := ComputeCost(det, o.UnitCost)
				cand := Candidate{
					Thresholds: configs,
					Resolved:   resolved,
					Detection:  det,
					Cost:       cost,
					Feasible:   cost.TotalCost <= o.Budget,
				}
				cand.Score = o.score(cand)
				history = append(history, cand)
			}
		}
	}

	// Stable argmax: grid order breaks ties so equal-scoring candidates
	// always resolve the same way.
	best := -1
	for i, c := range history {
		if !c.Feasible {
			continue
		}
		if best < 0 || c.Score > history[best].Score {
			best = i
		}
	}

	infeasible := best < 0
	if infeasible {
		// No candidate fits the budget: fall back to the cheapest one.
		sort.SliceStable(history, func(i, j int) bool {
			return history[i].Cost.TotalCost < history[j].Cost.TotalCost
		})
		best = 0
		o.logger().WithFields(logrus.Fields{
			"budget":    o.Budget,
			"min_cost":  history[0].Cost.TotalCost,
			"validated": len(validation.Items),
		}).Warn("no threshold candidate fits budget, using minimum-cost fallback")
	}

	return &SearchResult{
		Best:      history[best].Thresholds,
		BestScore: history[best].Score,
		History:   history,
		Summary: SearchSummary{
			ValidationSize:   len(validation.Items),
			ValidationSplit:  validation.Split,
			Target:           o.Target,
			Budget:           o.Budget,
			CandidatesTried:  len(history),
			BudgetInfeasible: infeasible,
			TestSetTouched:   false,
		},
	}, nil
}
