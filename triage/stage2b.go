package triage

import (
	"fmt"
	"strings"
)

// Highest-priority spatial signatures. These indicate a process excursion
// regardless of raw defect counts.
var highPriorityPatterns = map[string]bool{
	"scratch": true,
	"cluster": true,
	"ring":    true,
	"edge":    true,
}

// Stage2BAnalysis is the output of Stage2BAgent.Analyze.
type Stage2BAnalysis struct {
	Pattern       string
	Severity      float64 // 0..1
	DefectDensity float64 // defects per unit area
	HighPriority  bool
}

// Stage2BAgent decides whether a final-inspection map warrants SEM review.
// Action set: {escalate, skip}.
type Stage2BAgent struct {
	Scorer           Scorer
	Costs            CostModel
	SeverityCutoff   float64 // escalate at or above; default 0.7
	DensityCutoff    float64 // defects per cm^2; default 300
	RequiredFeatures []string
}

// NewStage2BAgent builds a Stage2BAgent with the default escalation cutoffs.
func NewStage2BAgent(scorer Scorer, costs CostModel) *Stage2BAgent {
	return &Stage2BAgent{
		Scorer:           scorer,
		Costs:            costs,
		SeverityCutoff:   0.7,
		DensityCutoff:    300,
		RequiredFeatures: []string{"defect_density"},
	}
}

// Analyze extracts the defect pattern, severity, and density from the item's
// final-inspection features.
func (a *Stage2BAgent) Analyze(item *Item) (Stage2BAnalysis, error) {
	for _, f := range a.RequiredFeatures {
		if _, err := item.Feature(f); err != nil {
			return Stage2BAnalysis{}, err
		}
	}
	density := item.Features["defect_density"]
	severity := clip(a.Scorer.Predict(item.Features), 0, 1)

	// Pattern is encoded as a one-hot family of pattern_* features.
	pattern := "none"
	best := 0.0
	for name, v := range item.Features {
		if strings.HasPrefix(name, "pattern_") && v > best {
			pattern = strings.TrimPrefix(name, "pattern_")
			best = v
		}
	}

	return Stage2BAnalysis{
		Pattern:       pattern,
		Severity:      severity,
		DefectDensity: density,
		HighPriority:  highPriorityPatterns[pattern],
	}, nil
}

// Recommend escalates to SEM review on a high-priority pattern, severity at
// or above the cutoff, or defect density above the cutoff. Everything else
// skips with confidence proportional to how benign the map looks.
func (a *Stage2BAgent) Recommend(item *Item, analysis Stage2BAnalysis) (Decision, error) {
	escalate := analysis.HighPriority ||
		analysis.Severity >= a.SeverityCutoff ||
		analysis.DefectDensity > a.DensityCutoff

	if escalate {
		var why []string
		if analysis.HighPriority {
			why = append(why, fmt.Sprintf("high-priority pattern %q", analysis.Pattern))
		}
		if analysis.Severity >= a.SeverityCutoff {
			why = append(why, fmt.Sprintf("severity %.2f >= %.2f", analysis.Severity, a.SeverityCutoff))
		}
		if analysis.DefectDensity > a.DensityCutoff {
			why = append(why, fmt.Sprintf("defect density %.0f > %.0f", analysis.DefectDensity, a.DensityCutoff))
		}
		cost := a.Costs.Escalate
		ev := analysis.Severity*a.Costs.AssetValue - cost
		return NewDecision(item.ID, item.LotID, Stage2B, ActionEscalate,
			analysis.Severity, ev, cost, strings.Join(why, " | ")), nil
	}

	conf := 1 - analysis.Severity
	reason := fmt.Sprintf("pattern %q, severity %.2f, density %.0f below escalation cutoffs",
		analysis.Pattern, analysis.Severity, analysis.DefectDensity)
	return NewDecision(item.ID, item.LotID, Stage2B, ActionSkip, conf, 0, 0, reason), nil
}
