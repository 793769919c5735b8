package triage

import "fmt"

// Stage identifies a pipeline stage.
type Stage string

const (
	Stage0  Stage = "stage0"  // inline-inspection selection
	Stage1  Stage = "stage1"  // yield economics: proceed / rework / scrap
	Stage2A Stage = "stage2a" // lot-level electrical gate
	Stage2B Stage = "stage2b" // escalation to detailed inspection
	Stage3  Stage = "stage3"  // terminal defect analysis
)

// Action is one member of a stage's closed action set. Each stage accepts
// only its own subset; the controller's state machine switches exhaustively
// over the variants it can receive.
type Action string

const (
	// Stage 0
	ActionInspect Action = "inspect"
	ActionSkip    Action = "skip"

	// Stage 1
	ActionProceed Action = "proceed"
	ActionRework  Action = "rework"
	ActionScrap   Action = "scrap"

	// Stage 2A (lot level)
	ActionLotProceed Action = "lot_proceed"
	ActionLotScrap   Action = "lot_scrap"

	// Stage 2B
	ActionEscalate Action = "escalate"
	// ActionSkip is shared with Stage 0.

	// Stage 3 (terminal; the item itself is only monitored)
	ActionMonitor Action = "monitor"
)

// stageActions maps each stage to its closed action set.
var stageActions = map[Stage][]Action{
	Stage0:  {ActionInspect, ActionSkip},
	Stage1:  {ActionProceed, ActionRework, ActionScrap},
	Stage2A: {ActionLotProceed, ActionLotScrap},
	Stage2B: {ActionEscalate, ActionSkip},
	Stage3:  {ActionMonitor},
}

// ValidAction reports whether action belongs to stage's closed set.
func ValidAction(stage Stage, action Action) bool {
	for _, a := range stageActions[stage] {
		if a == action {
			return true
		}
	}
	return false
}

// Decision is the immutable outcome of one (item, stage) visit. Created
// exactly once per visit and appended to the run trace; never mutated.
type Decision struct {
	ItemID        string  `json:"item_id"`
	LotID         string  `json:"lot_id,omitempty"`
	Stage         Stage   `json:"stage"`
	Action        Action  `json:"action"`
	Confidence    float64 `json:"confidence"`
	ExpectedValue float64 `json:"expected_value"`
	Cost          float64 `json:"cost"`
	Reasoning     string  `json:"reasoning"`
}

// NewDecision builds a Decision, panicking if action is not in stage's
// closed set. Agents construct actions from their own constants, so a
// violation is a programmer error.
func NewDecision(itemID, lotID string, stage Stage, action Action, confidence, expectedValue, cost float64, reasoning string) Decision {
	if !ValidAction(stage, action) {
		panic(fmt.Sprintf("action %q not in closed set of %s", action, stage))
	}
	return Decision{
		ItemID:        itemID,
		LotID:         lotID,
		Stage:         stage,
		Action:        action,
		Confidence:    confidence,
		ExpectedValue: expectedValue,
		Cost:          cost,
		Reasoning:     reasoning,
	}
}

// CostModel holds the normalized unit costs the agents and controller charge
// against the budget. All values are multiples of the inline inspection
// cost; the default model pins inline at 1.0.
type CostModel struct {
	Inline     float64 `yaml:"inline" json:"inline"`
	Escalate   float64 `yaml:"escalate" json:"escalate"`
	Rework     float64 `yaml:"rework" json:"rework"`
	LotScrap   float64 `yaml:"lot_scrap" json:"lot_scrap"`
	AssetValue float64 `yaml:"asset_value" json:"asset_value"`
}

// DefaultCostModel mirrors the reference cost ratios: escalation at ~5.3x
// inline, rework at ~1.3x, lot scrap at ~333x, asset value at ~6.7x.
func DefaultCostModel() CostModel {
	return CostModel{
		Inline:     1.0,
		Escalate:   5.33,
		Rework:     1.33,
		LotScrap:   333.0,
		AssetValue: 6.67,
	}
}
