package trace

// TraceSummary aggregates statistics from a RunTrace.
type TraceSummary struct {
	TotalDecisions  int
	ActionCounts    map[string]int // action → decision count
	RegimeCounts    map[string]int // scheduler regime → decision count
	MeanThreshold   float64        // over decisions with a threshold in effect
	MinThreshold    float64
	MaxThreshold    float64
	TerminalActions map[string]int // terminal action → item count
	MeanCostPerItem float64
	ItemsTraced     int
}

// Summarize computes aggregate statistics from a RunTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(rt *RunTrace) *TraceSummary {
	summary := &TraceSummary{
		ActionCounts:    make(map[string]int),
		RegimeCounts:    make(map[string]int),
		TerminalActions: make(map[string]int),
	}
	if rt == nil {
		return summary
	}

	summary.TotalDecisions = len(rt.Decisions)
	thresholded := 0
	totalThreshold := 0.0
	for _, d := range rt.Decisions {
		summary.ActionCounts[d.Action]++
		if d.Regime != "" {
			summary.RegimeCounts[d.Regime]++
		}
		if d.Threshold > 0 {
			if thresholded == 0 || d.Threshold < summary.MinThreshold {
				summary.MinThreshold = d.Threshold
			}
			if d.Threshold > summary.MaxThreshold {
				summary.MaxThreshold = d.Threshold
			}
			totalThreshold += d.Threshold
			thresholded++
		}
	}
	if thresholded > 0 {
		summary.MeanThreshold = totalThreshold / float64(thresholded)
	}

	summary.ItemsTraced = len(rt.Items)
	if len(rt.Items) > 0 {
		totalCost := 0.0
		for _, it := range rt.Items {
			summary.TerminalActions[it.Terminal]++
			totalCost += it.CumulativeCost
		}
		summary.MeanCostPerItem = totalCost / float64(len(rt.Items))
	}

	return summary
}
