package triage

import (
	"fmt"
	"strings"
)

// Stage0Analysis is the output of Stage0Agent.Analyze.
type Stage0Analysis struct {
	AnomalyScore   float64
	RiskLevel      RiskLevel
	OutlierSensors []string
}

// sensorRange is the nominal band for one in-range check.
type sensorRange struct {
	Name string
	Low  float64
	High float64
}

// Stage0Agent decides whether to spend inline-inspection budget on an item.
// Action set: {inspect, skip}.
type Stage0Agent struct {
	Scorer              Scorer
	Costs               CostModel
	ConfidenceThreshold float64       // MEDIUM-band gate; default 0.7
	RequiredFeatures    []string      // features Analyze must find on the item
	NominalRanges       []sensorRange // optional in-range checks for reasoning
}

// NewStage0Agent builds a Stage0Agent with the default confidence gate.
func NewStage0Agent(scorer Scorer, costs CostModel, required []string) *Stage0Agent {
	return &Stage0Agent{
		Scorer:              scorer,
		Costs:               costs,
		ConfidenceThreshold: 0.7,
		RequiredFeatures:    required,
	}
}

// Analyze scores the item's process features for anomaly. Pure: no side
// effects, no budget interaction.
func (a *Stage0Agent) Analyze(item *Item) (Stage0Analysis, error) {
	for _, f := range a.RequiredFeatures {
		if _, err := item.Feature(f); err != nil {
			return Stage0Analysis{}, err
		}
	}
	score := a.Scorer.Predict(item.Features)

	var outliers []string
	for _, r := range a.NominalRanges {
		v, ok := item.Features[r.Name]
		if !ok {
			continue
		}
		if v < r.Low || v > r.High {
			outliers = append(outliers, fmt.Sprintf("%s=%.2f", r.Name, v))
		}
	}

	return Stage0Analysis{
		AnomalyScore:   score,
		RiskLevel:      classifyRisk(score),
		OutlierSensors: outliers,
	}, nil
}

// Recommend maps the analysis to inspect or skip. HIGH risk always inspects;
// MEDIUM inspects above the confidence threshold; LOW skips.
func (a *Stage0Agent) Recommend(item *Item, analysis Stage0Analysis) (Decision, error) {
	var action Action
	var confidence float64
	switch {
	case analysis.RiskLevel == RiskHigh:
		action = ActionInspect
		confidence = analysis.AnomalyScore
	case analysis.RiskLevel == RiskMedium && analysis.AnomalyScore > a.ConfidenceThreshold:
		action = ActionInspect
		confidence = 0.75
	default:
		action = ActionSkip
		confidence = 1 - analysis.AnomalyScore
	}

	reasons := []string{fmt.Sprintf("%s risk (anomaly score %.2f)", analysis.RiskLevel, analysis.AnomalyScore)}
	if len(analysis.OutlierSensors) > 0 {
		reasons = append(reasons, "out-of-range: "+strings.Join(analysis.OutlierSensors, ", "))
	} else {
		reasons = append(reasons, "all monitored features in range")
	}

	cost := 0.0
	expected := 0.0
	if action == ActionInspect {
		cost = a.Costs.Inline
		// Value of inspecting: the chance of catching a bad item times the
		// asset at stake, net of the inspection spend.
		expected = analysis.AnomalyScore*a.Costs.AssetValue - cost
		reasons = append(reasons, "inline inspection selected")
	} else {
		reasons = append(reasons, "no action needed")
	}

	return NewDecision(item.ID, item.LotID, Stage0, action, confidence, expected, cost, strings.Join(reasons, " | ")), nil
}
