package triage

import (
	"fmt"
	"strings"
)

// NextLotRecommendation is Stage 3's forward-looking output: what to adjust
// before the next lot enters the line.
type NextLotRecommendation struct {
	Priority          string   `json:"priority"` // HIGH, MEDIUM, LOW
	Actions           []string `json:"actions"`
	ExpectedYieldGain float64  `json:"expected_yield_gain"` // fractional
}

// Stage3Analysis is the output of Stage3Agent.Analyze.
type Stage3Analysis struct {
	DefectCount    int
	DominantDefect string
	NextLot        NextLotRecommendation
}

// Stage3Agent is the terminal stage. It never gates: every item that reaches
// it is monitored, and the value of the stage is the next-lot
// recommendation fed back to the line.
type Stage3Agent struct {
	Costs CostModel
}

func NewStage3Agent(costs CostModel) *Stage3Agent {
	return &Stage3Agent{Costs: costs}
}

// Analyze counts review-confirmed defects and derives the next-lot
// recommendation from the defect load.
func (a *Stage3Agent) Analyze(item *Item) (Stage3Analysis, error) {
	count := 0
	if v, ok := item.Features["defect_count"]; ok {
		count = int(v)
	}

	dominant := "none"
	best := 0.0
	for name, v := range item.Features {
		if strings.HasPrefix(name, "defect_") && name != "defect_count" && name != "defect_density" && v > best {
			dominant = strings.TrimPrefix(name, "defect_")
			best = v
		}
	}

	return Stage3Analysis{
		DefectCount:    count,
		DominantDefect: dominant,
		NextLot:        a.recommendNextLot(count, dominant),
	}, nil
}

// recommendNextLot bands on confirmed defect count: >20 HIGH, 10..20
// MEDIUM, <10 LOW, with expected yield gains of 10%, 5%, and 2%.
func (a *Stage3Agent) recommendNextLot(defectCount int, dominant string) NextLotRecommendation {
	switch {
	case defectCount > 20:
		return NextLotRecommendation{
			Priority: "HIGH",
			Actions: []string{
				"hold next lot pending process review",
				fmt.Sprintf("root-cause dominant defect type %q", dominant),
				"tighten inline sampling on affected steps",
			},
			ExpectedYieldGain: 0.10,
		}
	case defectCount >= 10:
		return NextLotRecommendation{
			Priority: "MEDIUM",
			Actions: []string{
				fmt.Sprintf("review recipe for defect type %q", dominant),
				"increase inspection sampling for next lot",
			},
			ExpectedYieldGain: 0.05,
		}
	default:
		return NextLotRecommendation{
			Priority:          "LOW",
			Actions:           []string{"continue standard monitoring"},
			ExpectedYieldGain: 0.02,
		}
	}
}

// Recommend always monitors; Stage 3 is terminal for the item itself.
func (a *Stage3Agent) Recommend(item *Item, analysis Stage3Analysis) (Decision, error) {
	reason := fmt.Sprintf("%d confirmed defects, dominant %q; next-lot priority %s (expected gain %.0f%%)",
		analysis.DefectCount, analysis.DominantDefect,
		analysis.NextLot.Priority, analysis.NextLot.ExpectedYieldGain*100)
	return NewDecision(item.ID, item.LotID, Stage3, ActionMonitor, 1.0, 0, 0, reason), nil
}
