package validate

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/fabtriage/fabtriage/triage"
)

// TestResult is one classical test's outcome. Secondary tests are
// exploratory: they annotate the bootstrap evidence, never replace it.
type TestResult struct {
	Name        string  `json:"name"`
	Statistic   float64 `json:"statistic"`
	PValue      float64 `json:"p_value"`
	EffectSize  float64 `json:"effect_size,omitempty"` // Cohen's d or odds ratio
	Significant bool    `json:"significant"`
	Exploratory bool    `json:"exploratory"` // always true here
	NA          int     `json:"n_a,omitempty"`
	NB          int     `json:"n_b,omitempty"`
}

const testAlpha = 0.05

// TTest runs a pooled-variance two-sample t-test on the outcomes of the
// items each policy selected, with Cohen's d as the effect size.
func TTest(a, b []float64) TestResult {
	res := TestResult{Name: "t_test", Exploratory: true, NA: len(a), NB: len(b), PValue: 1}
	if len(a) < 2 || len(b) < 2 {
		return res
	}

	meanA, varA := stat.MeanVariance(a, nil)
	meanB, varB := stat.MeanVariance(b, nil)
	na, nb := float64(len(a)), float64(len(b))

	pooledVar := ((na-1)*varA + (nb-1)*varB) / (na + nb - 2)
	if pooledVar == 0 {
		return res
	}
	se := math.Sqrt(pooledVar * (1/na + 1/nb))
	t := (meanA - meanB) / se
	df := na + nb - 2

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * (1 - dist.CDF(math.Abs(t)))

	res.Statistic = t
	res.PValue = p
	res.EffectSize = (meanA - meanB) / math.Sqrt(pooledVar)
	res.Significant = p < testAlpha
	return res
}

// ChiSquare runs a chi-square test of independence on the 2x2
// detection-rate table [policy x caught/missed]: one row of labeled-item
// TP/FN counts per policy. It compares the baseline's recall against the
// framework's, with Yates continuity correction and the detection odds
// ratio as the effect size.
func ChiSquare(baselineTP, baselineFN, frameworkTP, frameworkFN int) TestResult {
	res := TestResult{
		Name:        "chi_square",
		Exploratory: true,
		PValue:      1,
		NA:          baselineTP + baselineFN,
		NB:          frameworkTP + frameworkFN,
	}

	obs := [2][2]float64{
		{float64(baselineTP), float64(baselineFN)},
		{float64(frameworkTP), float64(frameworkFN)},
	}
	total := obs[0][0] + obs[0][1] + obs[1][0] + obs[1][1]
	if total == 0 {
		return res
	}

	rowSums := [2]float64{obs[0][0] + obs[0][1], obs[1][0] + obs[1][1]}
	colSums := [2]float64{obs[0][0] + obs[1][0], obs[0][1] + obs[1][1]}

	chi2 := 0.0
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			expected := rowSums[i] * colSums[j] / total
			if expected == 0 {
				return res
			}
			d := math.Abs(obs[i][j]-expected) - 0.5 // Yates, 2x2 table
			if d < 0 {
				d = 0
			}
			chi2 += d * d / expected
		}
	}

	dist := distuv.ChiSquared{K: 1}
	p := 1 - dist.CDF(chi2)

	res.Statistic = chi2
	res.PValue = p
	// Detection odds ratio, baseline over framework; +Inf when a
	// denominator cell is empty.
	if baselineFN > 0 && frameworkTP > 0 {
		res.EffectSize = (float64(baselineTP) * float64(frameworkFN)) /
			(float64(baselineFN) * float64(frameworkTP))
	} else {
		res.EffectSize = math.Inf(1)
	}
	res.Significant = p < testAlpha
	return res
}

// McNemar runs McNemar's test with continuity correction on the paired
// correct/incorrect indicators of two policies. b counts items only policy
// A got right; c counts items only policy B got right.
func McNemar(b, c int) TestResult {
	res := TestResult{Name: "mcnemar", Exploratory: true, PValue: 1, NA: b, NB: c}
	if b+c == 0 {
		return res
	}

	num := math.Abs(float64(b)-float64(c)) - 1
	if num < 0 {
		num = 0
	}
	chi2 := num * num / float64(b+c)

	dist := distuv.ChiSquared{K: 1}
	p := 1 - dist.CDF(chi2)

	res.Statistic = chi2
	res.PValue = p
	res.Significant = p < testAlpha
	return res
}

// PairedCorrectness derives McNemar's discordant counts from two
// selections against the shared label: an item is "correct" for a policy
// when selection matches the label.
func PairedCorrectness(itemIDs []string, label *triage.HighRiskLabel, selA, selB *triage.Selection) (b, c int) {
	for _, id := range itemIDs {
		risky := label.IsHighRisk(id)
		okA := selA.Selected(id) == risky
		okB := selB.Selected(id) == risky
		switch {
		case okA && !okB:
			b++
		case !okA && okB:
			c++
		}
	}
	return b, c
}
