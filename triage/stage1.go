package triage

import (
	"fmt"
	"strings"
)

// inlineFeatures are the measurements an inline inspection adds to an item.
// Their presence shrinks Stage 1's prediction uncertainty.
var inlineFeatures = []string{"cd", "overlay", "thickness", "uniformity"}

// inlineSpec is one inline-measurement spec check.
type inlineSpec struct {
	Name    string
	Check   func(v float64) bool // true when the value violates spec
	Explain func(v float64) string
}

// defaultInlineSpecs mirror the reference process windows: CD 7.0±0.3,
// overlay < 3.0, thickness 100±5, uniformity < 2.0.
var defaultInlineSpecs = []inlineSpec{
	{"cd", func(v float64) bool { return v < 6.7 || v > 7.3 },
		func(v float64) string { return fmt.Sprintf("cd deviation %.2f (spec 7.0±0.3)", v) }},
	{"overlay", func(v float64) bool { return v > 3.0 },
		func(v float64) string { return fmt.Sprintf("overlay error %.2f (spec <3.0)", v) }},
	{"thickness", func(v float64) bool { return v < 95 || v > 105 },
		func(v float64) string { return fmt.Sprintf("thickness deviation %.1f (spec 100±5)", v) }},
	{"uniformity", func(v float64) bool { return v > 2.0 },
		func(v float64) string { return fmt.Sprintf("poor uniformity %.2f (spec <2.0)", v) }},
}

// Stage1Analysis is the output of Stage1Agent.Analyze.
type Stage1Analysis struct {
	PredictedYield float64
	YieldLower     float64
	YieldUpper     float64
	Uncertainty    float64
	HasInlineData  bool
	Issues         []string
}

// Stage1Agent makes the proceed/rework/scrap economics call from a predicted
// yield. Action set: {proceed, rework, scrap}.
type Stage1Agent struct {
	Scorer           Scorer // predicts P(bad); yield is its complement
	Costs            CostModel
	RequiredFeatures []string
	Specs            []inlineSpec
}

// NewStage1Agent builds a Stage1Agent with the default inline spec checks.
func NewStage1Agent(scorer Scorer, costs CostModel, required []string) *Stage1Agent {
	return &Stage1Agent{Scorer: scorer, Costs: costs, RequiredFeatures: required, Specs: defaultInlineSpecs}
}

// Analyze predicts yield and flags inline spec violations. Uncertainty is
// lower (0.05 vs 0.10) when inline measurements are present.
func (a *Stage1Agent) Analyze(item *Item) (Stage1Analysis, error) {
	for _, f := range a.RequiredFeatures {
		if _, err := item.Feature(f); err != nil {
			return Stage1Analysis{}, err
		}
	}

	predictedYield := clip(1-a.Scorer.Predict(item.Features), 0, 1)

	hasInline := true
	for _, f := range inlineFeatures {
		if _, ok := item.Features[f]; !ok {
			hasInline = false
			break
		}
	}

	uncertainty := 0.10
	if hasInline {
		uncertainty = 0.05
	}

	var issues []string
	if hasInline {
		for _, s := range a.Specs {
			v := item.Features[s.Name]
			if s.Check(v) {
				issues = append(issues, s.Explain(v))
			}
		}
	}

	return Stage1Analysis{
		PredictedYield: predictedYield,
		YieldLower:     clip(predictedYield-uncertainty, 0, 1),
		YieldUpper:     clip(predictedYield+uncertainty, 0, 1),
		Uncertainty:    uncertainty,
		HasInlineData:  hasInline,
		Issues:         issues,
	}, nil
}

// Recommend picks the expected-value-maximizing action:
//
//	value(proceed) = yield × asset
//	value(rework)  = min(cap, yield + improvement) × asset − reworkCost
//	value(scrap)   = 0
//
// Improvement is 0.15 when spec issues were identified (rework has a target)
// and 0.05 otherwise. Ties favor the cheaper action.
func (a *Stage1Agent) Recommend(item *Item, analysis Stage1Analysis) (Decision, error) {
	improvement := 0.05
	if len(analysis.Issues) > 0 {
		improvement = 0.15
	}
	reworkYield := clip(analysis.PredictedYield+improvement, 0, reworkYieldCap)

	options := []actionValue{
		{ActionProceed, analysis.PredictedYield * a.Costs.AssetValue, 0},
		{ActionRework, reworkYield*a.Costs.AssetValue - a.Costs.Rework, a.Costs.Rework},
		{ActionScrap, 0, 0},
	}
	best := bestAction(options)

	var confidence float64
	switch {
	case analysis.Uncertainty < 0.06 && analysis.HasInlineData:
		confidence = 0.90
	case analysis.Uncertainty < 0.11:
		confidence = 0.75
	default:
		confidence = 0.60
	}

	reasons := []string{fmt.Sprintf("predicted yield %.1f%%", analysis.PredictedYield*100)}
	if analysis.HasInlineData {
		reasons = append(reasons, "inline data available")
	} else {
		reasons = append(reasons, "no inline data (higher uncertainty)")
	}
	if len(analysis.Issues) > 0 {
		reasons = append(reasons, strings.Join(analysis.Issues, "; "))
	}
	reasons = append(reasons, fmt.Sprintf("values proceed=%.2f rework=%.2f scrap=0", options[0].value, options[1].value))

	return NewDecision(item.ID, item.LotID, Stage1, best.action, confidence, best.value, best.cost, strings.Join(reasons, " | ")), nil
}
