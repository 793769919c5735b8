package triage

import "sort"

// RiskLevel buckets a continuous risk score for reasoning strings and
// decision gating.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "HIGH"
	RiskMedium RiskLevel = "MEDIUM"
	RiskLow    RiskLevel = "LOW"
)

// classifyRisk applies the fixed risk bands: HIGH above 0.7, MEDIUM above
// 0.4, LOW otherwise.
func classifyRisk(score float64) RiskLevel {
	switch {
	case score > 0.7:
		return RiskHigh
	case score > 0.4:
		return RiskMedium
	default:
		return RiskLow
	}
}

// actionValue pairs a candidate action with its expected value and cost for
// the economic argmax.
type actionValue struct {
	action Action
	value  float64
	cost   float64
}

// bestAction selects the action maximizing expected value. Ties favor the
// cheaper action; a remaining tie falls back to declaration order for
// determinism.
func bestAction(options []actionValue) actionValue {
	sorted := make([]actionValue, len(options))
	copy(sorted, options)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].value != sorted[j].value {
			return sorted[i].value > sorted[j].value
		}
		return sorted[i].cost < sorted[j].cost
	})
	return sorted[0]
}

// reworkYieldCap bounds the deterministic yield-improvement heuristic: no
// rework outcome may be projected above this.
const reworkYieldCap = 0.95
