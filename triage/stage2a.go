package triage

import (
	"fmt"
	"math"
	"strings"
)

// SpecLimit is a [lower, upper] acceptance band for one electrical
// parameter.
type SpecLimit struct {
	Lower float64
	Upper float64
}

// SpecViolation records one out-of-band electrical measurement in a lot.
type SpecViolation struct {
	Parameter string
	ItemID    string
	Value     float64
	Critical  bool
}

// LotAnalysis is the output of Stage2AAgent.Analyze.
type LotAnalysis struct {
	LotID              string
	ItemCount          int
	Violations         []SpecViolation
	CriticalViolation  bool
	UniformityScore    float64 // 0..1, higher is better
	Quality            string  // "PASS" or "FAIL"
	QualityConfidence  float64
	RiskLevel          RiskLevel
	EstimatedYieldLoss float64 // 0..1
}

// Stage2AAgent gates an entire lot on aggregated electrical data. Action
// set: {lot_proceed, lot_scrap}. A lot_scrap short-circuits every member
// item downstream at zero further cost.
type Stage2AAgent struct {
	Costs               CostModel
	SpecLimits          map[string]SpecLimit
	CriticalParams      []string
	UniformityThreshold float64 // CV band edge; default 0.10
}

// NewStage2AAgent builds a Stage2AAgent with the default uniformity band.
func NewStage2AAgent(costs CostModel, limits map[string]SpecLimit, critical []string) *Stage2AAgent {
	return &Stage2AAgent{
		Costs:               costs,
		SpecLimits:          limits,
		CriticalParams:      critical,
		UniformityThreshold: 0.10,
	}
}

func (a *Stage2AAgent) isCritical(param string) bool {
	for _, p := range a.CriticalParams {
		if p == param {
			return true
		}
	}
	return false
}

// Analyze scans the lot's electrical parameters for spec violations,
// computes a uniformity score from the mean coefficient of variation, and
// estimates the yield loss of proceeding.
func (a *Stage2AAgent) Analyze(lot *Lot) (LotAnalysis, error) {
	if len(lot.Items) == 0 {
		return LotAnalysis{}, fmt.Errorf("lot %s: no member items", lot.ID)
	}

	// Parameters present on every member; each member must carry every
	// spec-limited parameter.
	var violations []SpecViolation
	for param, limit := range a.SpecLimits {
		for _, it := range lot.Items {
			v, err := it.Feature(param)
			if err != nil {
				return LotAnalysis{}, err
			}
			if v < limit.Lower || v > limit.Upper {
				violations = append(violations, SpecViolation{
					Parameter: param,
					ItemID:    it.ID,
					Value:     v,
					Critical:  a.isCritical(param),
				})
			}
		}
	}
	critical := false
	for _, v := range violations {
		if v.Critical {
			critical = true
			break
		}
	}

	uniformity := a.uniformityScore(lot)
	quality, qualityConf := a.predictQuality(critical, uniformity)
	risk := a.assessRisk(quality, len(violations), critical, uniformity)
	yieldLoss := a.estimateYieldLoss(len(violations), uniformity, critical)

	return LotAnalysis{
		LotID:              lot.ID,
		ItemCount:          len(lot.Items),
		Violations:         violations,
		CriticalViolation:  critical,
		UniformityScore:    uniformity,
		Quality:            quality,
		QualityConfidence:  qualityConf,
		RiskLevel:          risk,
		EstimatedYieldLoss: yieldLoss,
	}, nil
}

// uniformityScore maps the mean per-parameter coefficient of variation onto
// [0, 1]: 0.7..1.0 inside the CV band, decaying to 0 at twice the band.
func (a *Stage2AAgent) uniformityScore(lot *Lot) float64 {
	var cvs []float64
	for param := range a.SpecLimits {
		var sum, sumSq float64
		n := 0
		for _, it := range lot.Items {
			v, ok := it.Features[param]
			if !ok {
				continue
			}
			sum += v
			sumSq += v * v
			n++
		}
		if n == 0 {
			continue
		}
		mean := sum / float64(n)
		if mean == 0 {
			continue
		}
		variance := sumSq/float64(n) - mean*mean
		if variance < 0 {
			variance = 0
		}
		cvs = append(cvs, math.Sqrt(variance)/math.Abs(mean))
	}
	if len(cvs) == 0 {
		return 1.0
	}
	var avgCV float64
	for _, cv := range cvs {
		avgCV += cv
	}
	avgCV /= float64(len(cvs))

	switch {
	case avgCV == 0:
		return 1.0
	case avgCV < a.UniformityThreshold:
		return 0.7 + 0.3*(1-avgCV/a.UniformityThreshold)
	default:
		return math.Max(0, 0.7*(1-(avgCV-a.UniformityThreshold)/a.UniformityThreshold))
	}
}

// predictQuality is the rule-based quality call: FAIL on a critical
// violation or poor uniformity.
func (a *Stage2AAgent) predictQuality(critical bool, uniformity float64) (string, float64) {
	if critical || uniformity < 0.7 {
		return "FAIL", 0.6
	}
	return "PASS", 0.8
}

func (a *Stage2AAgent) assessRisk(quality string, violationCount int, critical bool, uniformity float64) RiskLevel {
	switch {
	case critical, quality == "FAIL", violationCount > 10, uniformity < 0.6:
		return RiskHigh
	case violationCount > 5, uniformity < 0.8:
		return RiskMedium
	default:
		return RiskLow
	}
}

// estimateYieldLoss: critical violations imply near-total loss; otherwise 2%
// per violation capped at 50%, plus a uniformity penalty, capped at 95%.
func (a *Stage2AAgent) estimateYieldLoss(violationCount int, uniformity float64, critical bool) float64 {
	if critical {
		return 0.9
	}
	violationLoss := math.Min(0.5, float64(violationCount)*0.02)
	uniformityLoss := math.Max(0, (0.8-uniformity)*0.5)
	return math.Min(0.95, violationLoss+uniformityLoss)
}

// Recommend makes the lot gate call. Critical violations and FAIL quality
// always scrap; HIGH risk scraps when the expected loss of proceeding
// exceeds the scrap cost; otherwise the lot proceeds.
func (a *Stage2AAgent) Recommend(lot *Lot, analysis LotAnalysis) (Decision, error) {
	expectedLossIfProceed := analysis.EstimatedYieldLoss * float64(analysis.ItemCount) * a.Costs.AssetValue
	netBenefitOfScrap := expectedLossIfProceed - a.Costs.LotScrap

	var action Action
	var confidence float64
	var reason string
	switch {
	case analysis.CriticalViolation:
		action = ActionLotScrap
		confidence = 0.9
		reason = "critical electrical parameter violation; scrapping lot to prevent downstream loss"
	case analysis.Quality == "FAIL":
		action = ActionLotScrap
		confidence = 0.9
		reason = fmt.Sprintf("quality FAIL with %d spec violations, expected loss if proceed %.1f",
			len(analysis.Violations), expectedLossIfProceed)
	case analysis.RiskLevel == RiskHigh && netBenefitOfScrap > 0:
		action = ActionLotScrap
		confidence = 0.7
		reason = fmt.Sprintf("high-risk lot, uniformity %.3f; scrap favored (net benefit %.1f)",
			analysis.UniformityScore, netBenefitOfScrap)
	case analysis.RiskLevel == RiskHigh:
		action = ActionLotProceed
		confidence = 0.5
		reason = fmt.Sprintf("high-risk lot but scrap cost %.1f exceeds expected loss %.1f; proceed with caution",
			a.Costs.LotScrap, expectedLossIfProceed)
	default:
		action = ActionLotProceed
		if analysis.RiskLevel == RiskLow {
			confidence = 0.9
		} else {
			confidence = 0.7
		}
		reason = fmt.Sprintf("quality %s, risk %s, uniformity %.3f",
			analysis.Quality, analysis.RiskLevel, analysis.UniformityScore)
	}

	cost := 0.0
	expected := -expectedLossIfProceed
	if action == ActionLotScrap {
		cost = a.Costs.LotScrap
		expected = -a.Costs.LotScrap
	}

	reasons := []string{reason}
	if len(analysis.Violations) > 0 {
		var parts []string
		for i, v := range analysis.Violations {
			if i == 3 {
				parts = append(parts, fmt.Sprintf("+%d more", len(analysis.Violations)-3))
				break
			}
			parts = append(parts, fmt.Sprintf("%s@%s=%.3f", v.Parameter, v.ItemID, v.Value))
		}
		reasons = append(reasons, "violations: "+strings.Join(parts, ", "))
	}

	return NewDecision(lot.ID, lot.ID, Stage2A, action, confidence, expected, cost, strings.Join(reasons, " | ")), nil
}
