package trace

import (
	"sync"
)

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures all stage and scheduler decisions.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// RunTrace collects decision records and item paths during one run.
//
// Recording is safe for concurrent use: batch drivers fan lots out across
// workers that share one RunTrace. Read the slices only after every
// recorder is done.
type RunTrace struct {
	Level TraceLevel

	mu        sync.Mutex
	Decisions []DecisionRecord
	Items     []ItemTrace
}

// NewRunTrace creates a RunTrace ready for recording.
func NewRunTrace(level TraceLevel) *RunTrace {
	return &RunTrace{
		Level:     level,
		Decisions: make([]DecisionRecord, 0),
		Items:     make([]ItemTrace, 0),
	}
}

// RecordDecision appends a decision record, capping the reason list.
func (rt *RunTrace) RecordDecision(record DecisionRecord) {
	if rt == nil || rt.Level == TraceLevelNone || rt.Level == "" {
		return
	}
	if len(record.Reasons) > MaxReasons {
		record.Reasons = record.Reasons[:MaxReasons]
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.Decisions = append(rt.Decisions, record)
}

// RecordItem appends an item path record.
func (rt *RunTrace) RecordItem(item ItemTrace) {
	if rt == nil || rt.Level == TraceLevelNone || rt.Level == "" {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.Items = append(rt.Items, item)
}
