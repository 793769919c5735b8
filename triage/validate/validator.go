package validate

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/fabtriage/fabtriage/triage"
)

// LeakageError is run-fatal: any overlap between the optimizer's validation
// items and the test split, or a policy labeled under a different high-risk
// definition, invalidates every downstream number. No artifacts are written
// once leakage is detected.
type LeakageError struct {
	Kind    string // "split_overlap" or "label_count"
	Detail  string
	Overlap []string // offending item IDs, split_overlap only
}

func (e *LeakageError) Error() string {
	return fmt.Sprintf("leakage (%s): %s", e.Kind, e.Detail)
}

// PolicyMetrics is one row of the per-policy metrics table.
type PolicyMetrics struct {
	Policy    string                  `json:"policy"`
	Detection triage.DetectionMetrics `json:"detection"`
	Cost      triage.CostMetrics      `json:"cost"`
}

// Report is the validator's complete output for one run.
type Report struct {
	Policies    []PolicyMetrics           `json:"policies"`
	Primary     []*BootstrapResult        `json:"primary"`
	Secondary   map[string][]TestResult   `json:"secondary"` // baseline → tests
	Sensitivity []SensitivityRow          `json:"sensitivity"`
	Label       triage.HighRiskDefinition `json:"high_risk_definition"`
}

// Runner compares the framework policy against every baseline on the
// frozen test split. All policies are scored against one shared
// HighRiskLabel; the leakage guards run before anything else.
type Runner struct {
	UnitCost      float64
	ValidationIDs []string // item IDs the optimizer saw
	Bootstrap     *Bootstrap
	Log           *logrus.Logger
}

func (r *Runner) logger() *logrus.Logger {
	if r.Log != nil {
		return r.Log
	}
	return logrus.StandardLogger()
}

// guardSplits fails if any optimizer-validation item ID appears in the test
// split.
func (r *Runner) guardSplits(test *triage.Dataset) error {
	seen := make(map[string]bool, len(r.ValidationIDs))
	for _, id := range r.ValidationIDs {
		seen[id] = true
	}
	var overlap []string
	for _, it := range test.Items {
		if seen[it.ID] {
			overlap = append(overlap, it.ID)
		}
	}
	if len(overlap) > 0 {
		sort.Strings(overlap)
		return &LeakageError{
			Kind:    "split_overlap",
			Detail:  fmt.Sprintf("%d item(s) shared between validation and test splits", len(overlap)),
			Overlap: overlap,
		}
	}
	return nil
}

// guardLabel fails if a policy's view of the high-risk set disagrees with
// the canonical k. Each policy must have been scored against the one label
// computed for this run.
func (r *Runner) guardLabel(label *triage.HighRiskLabel, test *triage.Dataset) error {
	count := 0
	for _, it := range test.Items {
		if label.IsHighRisk(it.ID) {
			count++
		}
	}
	if count != label.Definition.K {
		return &LeakageError{
			Kind: "label_count",
			Detail: fmt.Sprintf("test split carries %d labeled items, definition says k=%d",
				count, label.Definition.K),
		}
	}
	return nil
}

// selectedOutcomes gathers the outcomes of the items a policy selected, in
// item order, for the t-test.
func selectedOutcomes(test *triage.Dataset, sel *triage.Selection) []float64 {
	var out []float64
	for _, it := range test.Items {
		if sel.Selected(it.ID) {
			out = append(out, it.Outcome)
		}
	}
	return out
}

// Run executes the full comparison: leakage guards, per-policy metrics,
// paired bootstrap primaries against each baseline, secondary tests, and
// the cost-ratio sensitivity sweep.
func (r *Runner) Run(ctx context.Context, test *triage.Dataset, label *triage.HighRiskLabel, framework *triage.Selection, baselines []*triage.Selection) (*Report, error) {
	if test.Split != triage.SplitTest {
		return nil, fmt.Errorf("validator requires the test split, got %q", test.Split)
	}
	if err := r.guardSplits(test); err != nil {
		return nil, err
	}
	if err := r.guardLabel(label, test); err != nil {
		return nil, err
	}

	ids := test.IDs()
	report := &Report{
		Label:     label.Definition,
		Secondary: make(map[string][]TestResult),
	}

	policies := append([]*triage.Selection{framework}, baselines...)
	for _, sel := range policies {
		det := triage.ComputeDetection(sel, label, ids)
		report.Policies = append(report.Policies, PolicyMetrics{
			Policy:    sel.Policy,
			Detection: det,
			Cost:      triage.ComputeCost(det, r.UnitCost),
		})
	}

	fwOutcomes := selectedOutcomes(test, framework)
	fwDet := triage.ComputeDetection(framework, label, ids)
	for _, base := range baselines {
		boot, err := r.Bootstrap.Run(ctx, ids, label, framework, base)
		if err != nil {
			return nil, err
		}
		report.Primary = append(report.Primary, boot)

		baseDet := triage.ComputeDetection(base, label, ids)
		b, c := PairedCorrectness(ids, label, framework, base)
		report.Secondary[base.Policy] = []TestResult{
			TTest(fwOutcomes, selectedOutcomes(test, base)),
			ChiSquare(baseDet.TP, baseDet.FN, fwDet.TP, fwDet.FN),
			McNemar(b, c),
		}

		r.logger().WithFields(logrus.Fields{
			"baseline":     base.Policy,
			"recall_diff":  boot.RecallDiff.Observed,
			"significant":  boot.RecallDiff.Significant,
			"cost_red_pct": boot.CostReductionPct.Observed,
		}).Info("bootstrap comparison complete")
	}

	report.Sensitivity = SweepCostRatios(test, label, policies, r.UnitCost)
	return report, nil
}
