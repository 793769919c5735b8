// Package triage provides the decision-and-validation engine for budget-
// constrained wafer inspection.
//
// # Reading Guide
//
// Start with these three files to understand the engine:
//   - item.go: Item records, dataset splits, and schema validation
//   - decision.go: Per-stage closed action sets and the Decision record
//   - controller.go: The two-phase pipeline state machine and budget debits
//
// # Architecture
//
// The triage package holds the decision engine; supporting concerns live in
// sub-packages:
//   - triage/trace/: append-only decision-trace recording (pure data types)
//   - triage/validate/: statistical comparison of policies on the test split
//
// # Key Interfaces
//
// The extension points are small interfaces:
//   - Scorer: predict a risk score from a feature map (trained model,
//     heuristic fallback, or random baseline — injected into stage agents)
//   - StageAgent: Analyze an item and Recommend an action from the stage's
//     closed action set
//
// Thresholds are a tagged variant (absolute value or percentile target); one
// resolution function produces the absolute cut every comparison uses.
//
// All components are synchronous. Batch work over independent items is fanned
// out across workers sharing only read-only inputs; the budget-aware
// scheduler is the one serial component and must run items in order.
package triage
