package triage

import "math"

// Selection is the policy-agnostic output every inspection policy produces:
// the set of item IDs chosen for costly inspection. The validator compares
// Selections without knowing which policy made them.
type Selection struct {
	Policy string
	IDs    map[string]bool
}

// Selected reports whether the item was chosen.
func (s *Selection) Selected(itemID string) bool {
	return s.IDs[itemID]
}

// Count returns the number of selected items.
func (s *Selection) Count() int {
	return len(s.IDs)
}

// DetectionMetrics scores a Selection against the high-risk label.
type DetectionMetrics struct {
	TP            int     `json:"tp"`
	FP            int     `json:"fp"`
	FN            int     `json:"fn"`
	TN            int     `json:"tn"`
	Recall        float64 `json:"recall"`
	Precision     float64 `json:"precision"`
	F1            float64 `json:"f1"`
	FPR           float64 `json:"fpr"`
	SelectionRate float64 `json:"selection_rate"`
}

// CostMetrics are unitless normalized cost figures for a Selection. Costs
// are multiples of the unit inline inspection cost, never currency.
type CostMetrics struct {
	TotalCost    float64 `json:"total_cost"`
	CostPerCatch float64 `json:"cost_per_catch"` // +Inf when nothing was caught
}

// ComputeDetection scores the selection over the full item population.
func ComputeDetection(sel *Selection, label *HighRiskLabel, itemIDs []string) DetectionMetrics {
	var m DetectionMetrics
	for _, id := range itemIDs {
		selected := sel.Selected(id)
		risky := label.IsHighRisk(id)
		switch {
		case selected && risky:
			m.TP++
		case selected && !risky:
			m.FP++
		case !selected && risky:
			m.FN++
		default:
			m.TN++
		}
	}
	if m.TP+m.FN > 0 {
		m.Recall = float64(m.TP) / float64(m.TP+m.FN)
	}
	if m.TP+m.FP > 0 {
		m.Precision = float64(m.TP) / float64(m.TP+m.FP)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	if m.FP+m.TN > 0 {
		m.FPR = float64(m.FP) / float64(m.FP+m.TN)
	}
	if n := len(itemIDs); n > 0 {
		m.SelectionRate = float64(m.TP+m.FP) / float64(n)
	}
	return m
}

// ComputeCost derives normalized cost figures from the detection counts.
// unitCost is the per-item inspection cost in normalized units.
func ComputeCost(m DetectionMetrics, unitCost float64) CostMetrics {
	total := float64(m.TP+m.FP) * unitCost
	perCatch := math.Inf(1)
	if m.TP > 0 {
		perCatch = total / float64(m.TP)
	}
	return CostMetrics{TotalCost: total, CostPerCatch: perCatch}
}
