// Package validate implements the offline statistical comparison of
// inspection policies on the frozen test split: paired bootstrap confidence
// intervals as the primary evidence, classical tests as secondary signals,
// and the leakage guards that make the comparison defensible.
package validate

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/fabtriage/fabtriage/triage"
)

// DefaultResamples is the bootstrap resample count. Fewer than 10000
// resamples makes the percentile CI endpoints too noisy at alpha 0.05.
const DefaultResamples = 10000

// bootstrapChunks partitions resamples into fixed chunks, each with its own
// derived RNG. Workers consume whole chunks, so the resample stream is
// identical for any worker count.
const bootstrapChunks = 64

// Interval is a two-sided percentile confidence interval.
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// ExcludesZero reports whether zero lies outside the interval.
func (iv Interval) ExcludesZero() bool {
	return iv.Lower > 0 || iv.Upper < 0
}

// BootstrapEndpoint is one primary endpoint's bootstrap summary.
type BootstrapEndpoint struct {
	Observed    float64  `json:"observed"`
	CI          Interval `json:"ci"`
	Significant bool     `json:"significant"`
}

// BootstrapResult holds the primary evidence for one framework-vs-baseline
// comparison. Scope records that the CIs describe this run's test split
// only; they are never pooled across runs.
type BootstrapResult struct {
	Baseline         string            `json:"baseline"`
	Resamples        int               `json:"resamples"`
	Seed             int64             `json:"seed"`
	Alpha            float64           `json:"alpha"`
	RecallDiff       BootstrapEndpoint `json:"recall_diff"`
	CostReductionPct BootstrapEndpoint `json:"cost_reduction_pct"`
	Scope            string            `json:"scope"`
}

// Bootstrap runs the item-level paired bootstrap: every resample draws one
// shared index vector with replacement and scores all policies on it, so
// the two endpoints are estimated on identical data per draw.
type Bootstrap struct {
	Resamples int
	Alpha     float64
	UnitCost  float64
	RNG       *triage.PartitionedRNG
	Workers   int
}

// NewBootstrap builds a Bootstrap with the default resample count and 95%
// intervals.
func NewBootstrap(rng *triage.PartitionedRNG, unitCost float64) *Bootstrap {
	return &Bootstrap{
		Resamples: DefaultResamples,
		Alpha:     0.05,
		UnitCost:  unitCost,
		RNG:       rng,
	}
}

// perItem is the flattened per-item view the resampling loop reads.
type perItem struct {
	risky     bool
	framework bool
	baseline  bool
}

// resampleStats computes recall and normalized cost per policy for one
// index draw.
func resampleStats(items []perItem, idx []int, unitCost float64) (fwRecall, baseRecall, fwCost, baseCost float64) {
	var fwTP, baseTP, risky, fwSel, baseSel int
	for _, i := range idx {
		it := items[i]
		if it.risky {
			risky++
			if it.framework {
				fwTP++
			}
			if it.baseline {
				baseTP++
			}
		}
		if it.framework {
			fwSel++
		}
		if it.baseline {
			baseSel++
		}
	}
	if risky > 0 {
		fwRecall = float64(fwTP) / float64(risky)
		baseRecall = float64(baseTP) / float64(risky)
	}
	fwCost = float64(fwSel) * unitCost
	baseCost = float64(baseSel) * unitCost
	return
}

// Run executes the paired bootstrap for one framework-vs-baseline pair over
// the test items. Parallel across chunks, bit-deterministic for any worker
// count.
func (b *Bootstrap) Run(ctx context.Context, itemIDs []string, label *triage.HighRiskLabel, framework, baseline *triage.Selection) (*BootstrapResult, error) {
	n := len(itemIDs)
	if n == 0 {
		return nil, fmt.Errorf("bootstrap: no items")
	}

	items := make([]perItem, n)
	for i, id := range itemIDs {
		items[i] = perItem{
			risky:     label.IsHighRisk(id),
			framework: framework.Selected(id),
			baseline:  baseline.Selected(id),
		}
	}

	// Observed point estimates on the unresampled data.
	identity := make([]int, n)
	for i := range identity {
		identity[i] = i
	}
	obsFwRecall, obsBaseRecall, obsFwCost, obsBaseCost := resampleStats(items, identity, b.UnitCost)

	recallDiffs := make([]float64, b.Resamples)
	costReductions := make([]float64, b.Resamples)

	// Each chunk derives its own RNG from the run key, so workers never
	// share RNG state and the resample stream is a function of the seed
	// alone.
	type chunk struct {
		start, end int
		subsystem  string
	}
	chunks := make([]chunk, 0, bootstrapChunks)
	per := (b.Resamples + bootstrapChunks - 1) / bootstrapChunks
	for c := 0; c*per < b.Resamples; c++ {
		start := c * per
		end := start + per
		if end > b.Resamples {
			end = b.Resamples
		}
		chunks = append(chunks, chunk{start: start, end: end, subsystem: triage.SubsystemWorker(c)})
	}

	workers := b.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	key := b.RNG.Key()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, ch := range chunks {
		ch := ch
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := triage.NewPartitionedRNG(key).ForSubsystem(ch.subsystem)
			idx := make([]int, n)
			for r := ch.start; r < ch.end; r++ {
				for i := range idx {
					idx[i] = rng.Intn(n)
				}
				fwRecall, baseRecall, fwCost, baseCost := resampleStats(items, idx, b.UnitCost)
				recallDiffs[r] = fwRecall - baseRecall
				if baseCost > 0 {
					costReductions[r] = (baseCost - fwCost) / baseCost * 100
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	recallCI := percentileCI(recallDiffs, b.Alpha)
	costCI := percentileCI(costReductions, b.Alpha)

	obsCostReduction := 0.0
	if obsBaseCost > 0 {
		obsCostReduction = (obsBaseCost - obsFwCost) / obsBaseCost * 100
	}

	return &BootstrapResult{
		Baseline:  baseline.Policy,
		Resamples: b.Resamples,
		Seed:      int64(key),
		Alpha:     b.Alpha,
		RecallDiff: BootstrapEndpoint{
			Observed:    obsFwRecall - obsBaseRecall,
			CI:          recallCI,
			Significant: recallCI.ExcludesZero(),
		},
		CostReductionPct: BootstrapEndpoint{
			Observed:    obsCostReduction,
			CI:          costCI,
			Significant: costCI.ExcludesZero(),
		},
		Scope: "current run only",
	}, nil
}

// percentileCI computes the two-sided (1-alpha) percentile interval.
func percentileCI(samples []float64, alpha float64) Interval {
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)
	return Interval{
		Lower: stat.Quantile(alpha/2, stat.Empirical, sorted, nil),
		Upper: stat.Quantile(1-alpha/2, stat.Empirical, sorted, nil),
	}
}
