package triage

import (
	"github.com/sirupsen/logrus"
)

// BudgetRegime classifies how tight the remaining budget is relative to the
// remaining work.
type BudgetRegime string

const (
	RegimeCritical BudgetRegime = "critical"
	RegimeWarning  BudgetRegime = "warning"
	RegimeNormal   BudgetRegime = "normal"
	RegimeSurplus  BudgetRegime = "surplus"
)

// Signed threshold adjustments per regime. Scarcity raises the bar so only
// the riskiest items spend budget; surplus lowers it to use budget that
// would otherwise go unspent.
const (
	adjustCritical = 0.15
	adjustWarning  = 0.08
	adjustSurplus  = -0.05
)

// Percentile targets and resolved thresholds clip to different ranges: a
// percentile outside [0.10, 0.95] degenerates to all-or-nothing selection,
// while a resolved score cut stays inside the open unit interval.
const (
	minPercentile = 0.10
	maxPercentile = 0.95
	minAbsolute   = 0.01
	maxAbsolute   = 0.99
)

// SchedulerBreakpoints are the budget-per-item boundaries between regimes,
// in multiples of the unit inspection cost.
type SchedulerBreakpoints struct {
	Critical float64 `yaml:"critical" json:"critical"`
	Warning  float64 `yaml:"warning" json:"warning"`
	Surplus  float64 `yaml:"surplus" json:"surplus"`
}

// DefaultBreakpoints returns the standard regime boundaries for a unit
// inspection cost of 1.0.
func DefaultBreakpoints() SchedulerBreakpoints {
	return SchedulerBreakpoints{Critical: 0.5, Warning: 1.0, Surplus: 2.0}
}

// ScheduleRecord is the scheduler's per-item output. BudgetExhausted marks
// an item whose score cleared the cut but whose inspection the remaining
// budget could not cover.
type ScheduleRecord struct {
	ItemID               string       `json:"item_id"`
	Inspect              bool         `json:"inspect"`
	RiskScore            float64      `json:"risk_score"`
	AdjustedThreshold    float64      `json:"adjusted_threshold"`
	Regime               BudgetRegime `json:"regime"`
	BudgetPerItem        float64      `json:"budget_per_item"`
	BudgetRemainingAfter float64      `json:"budget_remaining_after"`
	BudgetExhausted      bool         `json:"budget_exhausted,omitempty"`
}

// Scheduler is the online budget-aware inspection controller. It is pure
// feedback control: no learning, no lookahead, no reordering. Each decision
// depends on the BudgetState left by every prior item in the fixed order,
// so a Scheduler must be driven by one goroutine (or behind one mutex); it
// remains correct when invoked one item at a time with the state persisted
// externally between calls.
type Scheduler struct {
	Threshold   ThresholdConfig
	Breakpoints SchedulerBreakpoints
	InspectCost float64
	Budget      *BudgetState
	// ReferenceScores is the risk-score distribution percentile targets
	// resolve against. Fixed at construction so the resolved cut does not
	// drift with the arrival order.
	ReferenceScores []float64
	Log             *logrus.Logger
}

// NewScheduler builds a Scheduler over a shared BudgetState.
func NewScheduler(threshold ThresholdConfig, budget *BudgetState, inspectCost float64, reference []float64) *Scheduler {
	return &Scheduler{
		Threshold:       threshold,
		Breakpoints:     DefaultBreakpoints(),
		InspectCost:     inspectCost,
		Budget:          budget,
		ReferenceScores: reference,
	}
}

// classify maps budget-per-item onto a regime via the fixed breakpoints.
func (s *Scheduler) classify(budgetPerItem float64) (BudgetRegime, float64) {
	switch {
	case budgetPerItem < s.Breakpoints.Critical:
		return RegimeCritical, adjustCritical
	case budgetPerItem < s.Breakpoints.Warning:
		return RegimeWarning, adjustWarning
	case budgetPerItem > s.Breakpoints.Surplus:
		return RegimeSurplus, adjustSurplus
	default:
		return RegimeNormal, 0
	}
}

// adjustedThreshold applies the regime adjustment. Percentile targets move
// additively in percentile space before resolving; absolute thresholds
// scale multiplicatively. Both clip to their valid range.
func (s *Scheduler) adjustedThreshold(adjust float64) float64 {
	switch s.Threshold.Kind {
	case ThresholdPercentile:
		cfg := Percentile(clip(s.Threshold.Value+adjust, minPercentile, maxPercentile))
		return cfg.Resolve(s.ReferenceScores)
	default:
		return clip(s.Threshold.Value*(1+adjust), minAbsolute, maxAbsolute)
	}
}

// Next decides one item. Inspect iff the risk score clears the adjusted
// cut and the remaining budget covers the inspection cost; an inspect
// debits the inspection cost, so remaining budget never goes negative.
// Call once per item, in the fixed evaluation order.
func (s *Scheduler) Next(itemID string, riskScore float64) ScheduleRecord {
	remaining := s.Budget.Remaining()
	itemsLeft := s.Budget.ItemsRemaining()

	budgetPerItem := remaining
	if itemsLeft > 0 {
		budgetPerItem = remaining / float64(itemsLeft)
	}
	regime, adjust := s.classify(budgetPerItem)
	cut := s.adjustedThreshold(adjust)

	inspect := riskScore >= cut
	exhausted := false
	if inspect && remaining < s.InspectCost {
		inspect = false
		exhausted = true
	}
	if inspect {
		s.Budget.Debit(CostInline, s.InspectCost)
	}
	s.Budget.ItemDone()

	rec := ScheduleRecord{
		ItemID:               itemID,
		Inspect:              inspect,
		RiskScore:            riskScore,
		AdjustedThreshold:    cut,
		Regime:               regime,
		BudgetPerItem:        budgetPerItem,
		BudgetRemainingAfter: s.Budget.Remaining(),
		BudgetExhausted:      exhausted,
	}
	if s.Log != nil && s.Log.IsLevelEnabled(logrus.DebugLevel) {
		s.Log.WithFields(logrus.Fields{
			"item":      itemID,
			"regime":    regime,
			"cut":       cut,
			"inspect":   inspect,
			"exhausted": exhausted,
			"remaining": rec.BudgetRemainingAfter,
		}).Debug("schedule decision")
	}
	return rec
}

// Run drives the scheduler over a whole dataset in order and returns the
// per-item records plus the resulting Selection.
func (s *Scheduler) Run(ds *Dataset) ([]ScheduleRecord, *Selection) {
	records := make([]ScheduleRecord, 0, len(ds.Items))
	sel := &Selection{Policy: "scheduler", IDs: make(map[string]bool)}
	for _, it := range ds.Items {
		rec := s.Next(it.ID, it.RiskScore)
		records = append(records, rec)
		if rec.Inspect {
			sel.IDs[it.ID] = true
		}
	}
	return records, sel
}
