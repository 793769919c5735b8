package validate

import (
	"math"

	"github.com/fabtriage/fabtriage/triage"
)

// CostRatios is the unit-cost multiplier sweep. A conclusion that only
// holds at one ratio is fragile; the sweep shows where it flips.
var CostRatios = []float64{1, 2, 3, 5, 7, 10}

// SensitivityRow is one policy's cost metrics at one cost ratio.
type SensitivityRow struct {
	Ratio        float64 `json:"ratio"`
	Policy       string  `json:"policy"`
	TotalCost    float64 `json:"total_cost"`
	CostPerCatch float64 `json:"cost_per_catch"`
	Recall       float64 `json:"recall"`
	// Dominant marks the framework row at a ratio where the framework is
	// at least as good as every baseline on both recall and cost per
	// catch.
	Dominant bool `json:"dominant"`
}

// SweepCostRatios recomputes normalized cost metrics at each ratio for each
// policy and flags the ratios where the framework (the first policy)
// dominates every baseline.
func SweepCostRatios(test *triage.Dataset, label *triage.HighRiskLabel, policies []*triage.Selection, unitCost float64) []SensitivityRow {
	ids := test.IDs()

	type scored struct {
		det  triage.DetectionMetrics
		name string
	}
	var scoredPolicies []scored
	for _, sel := range policies {
		scoredPolicies = append(scoredPolicies, scored{
			det:  triage.ComputeDetection(sel, label, ids),
			name: sel.Policy,
		})
	}

	var rows []SensitivityRow
	for _, r := range CostRatios {
		costs := make([]triage.CostMetrics, len(scoredPolicies))
		for i, sp := range scoredPolicies {
			costs[i] = triage.ComputeCost(sp.det, unitCost*r)
		}

		// Framework dominance at this ratio: recall no worse and cost per
		// catch no worse than every baseline. Infinite cost per catch on a
		// baseline counts as worse unless the framework's is infinite too.
		dominant := len(scoredPolicies) > 1
		fw := scoredPolicies[0]
		for i := 1; i < len(scoredPolicies); i++ {
			if fw.det.Recall < scoredPolicies[i].det.Recall {
				dominant = false
				break
			}
			if !costPerCatchLE(costs[0].CostPerCatch, costs[i].CostPerCatch) {
				dominant = false
				break
			}
		}

		for i, sp := range scoredPolicies {
			rows = append(rows, SensitivityRow{
				Ratio:        r,
				Policy:       sp.name,
				TotalCost:    costs[i].TotalCost,
				CostPerCatch: costs[i].CostPerCatch,
				Recall:       sp.det.Recall,
				Dominant:     i == 0 && dominant,
			})
		}
	}
	return rows
}

func costPerCatchLE(a, b float64) bool {
	if math.IsInf(a, 1) {
		return math.IsInf(b, 1)
	}
	return a <= b || math.IsInf(b, 1)
}
