// Package trace provides decision-trace recording for pipeline and scheduler
// analysis. This package has no dependencies on triage/ — it stores pure data
// types.
package trace

// DecisionRecord captures a single stage or scheduler decision.
type DecisionRecord struct {
	ItemID    string
	LotID     string
	Stage     string
	Action    string
	RiskScore float64
	Threshold float64 // adjusted cut in effect, 0 if none applied
	Regime    string  // scheduler budget regime, "" for pipeline decisions
	Cost      float64
	Reasons   []string // top reasons, capped at MaxReasons
}

// MaxReasons bounds the reason list stored per record.
const MaxReasons = 5

// ItemTrace captures one item's path through the pipeline.
type ItemTrace struct {
	ItemID         string
	LotID          string
	Path           []string // stage names in visit order
	CumulativeCost float64
	Terminal       string // final action that ended the item
}
