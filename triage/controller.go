package triage

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/fabtriage/fabtriage/triage/trace"
)

// ItemResult is one item's complete journey through the pipeline.
type ItemResult struct {
	ItemID         string     `json:"item_id"`
	LotID          string     `json:"lot_id"`
	Path           []Stage    `json:"path"`
	Decisions      []Decision `json:"decisions"`
	CumulativeCost float64    `json:"cumulative_cost"`
	Terminal       Action     `json:"terminal"`
	NextLot        *NextLotRecommendation `json:"next_lot,omitempty"`
}

// LotResult aggregates one lot's run: pre-completion per item, the lot gate,
// and post-completion for survivors.
type LotResult struct {
	LotID       string       `json:"lot_id"`
	GateAction  Action       `json:"gate_action"`
	GateApplied bool         `json:"gate_applied"`
	Items       []ItemResult `json:"items"`
	TotalCost   float64      `json:"total_cost"`
}

// ItemFailure records a per-item analysis failure in a batch.
type ItemFailure struct {
	ItemID string
	LotID  string
	Err    error
}

// BatchResult collects the outcome of a concurrent batch run.
type BatchResult struct {
	Lots     []LotResult
	Failures []ItemFailure
}

// Controller sequences the stage agents through the two-phase state
// machine and debits the shared budget on every committed decision.
//
// Phase 1 (pre-completion): Stage0 then Stage1 per item. Scrap and rework
// are terminal; only proceed advances. Phase 2 (post-completion): Stage2A
// gates the surviving lot as a whole; lot_scrap short-circuits every member
// at zero further cost. Survivors pass Stage2B, and escalations reach the
// terminal Stage3.
type Controller struct {
	Stage0  *Stage0Agent
	Stage1  *Stage1Agent
	Stage2A *Stage2AAgent
	Stage2B *Stage2BAgent
	Stage3  *Stage3Agent
	Budget  *BudgetState
	Trace   *trace.RunTrace
	Workers int // concurrent lots in RunBatch; <=0 means GOMAXPROCS
	Log     *logrus.Logger
}

func (c *Controller) logger() *logrus.Logger {
	if c.Log != nil {
		return c.Log
	}
	return logrus.StandardLogger()
}

// splitReasons turns a Decision's composite reasoning string back into its
// individual clauses for trace storage.
func splitReasons(reasoning string) []string {
	if reasoning == "" {
		return nil
	}
	return strings.Split(reasoning, " | ")
}

func (c *Controller) record(d Decision, riskScore float64) {
	c.Trace.RecordDecision(trace.DecisionRecord{
		ItemID:    d.ItemID,
		LotID:     d.LotID,
		Stage:     string(d.Stage),
		Action:    string(d.Action),
		RiskScore: riskScore,
		Cost:      d.Cost,
		Reasons:   splitReasons(d.Reasoning),
	})
}

func (c *Controller) commit(d Decision, category CostCategory, res *ItemResult) {
	if d.Cost > 0 {
		c.Budget.Debit(category, d.Cost)
	}
	res.Path = append(res.Path, d.Stage)
	res.Decisions = append(res.Decisions, d)
	res.CumulativeCost += d.Cost
}

// runPre runs the pre-completion phase for one item. It returns the partial
// result and whether the item survives to phase 2.
func (c *Controller) runPre(item *Item) (ItemResult, bool, error) {
	res := ItemResult{ItemID: item.ID, LotID: item.LotID}

	a0, err := c.Stage0.Analyze(item)
	if err != nil {
		return res, false, err
	}
	d0, err := c.Stage0.Recommend(item, a0)
	if err != nil {
		return res, false, err
	}
	c.commit(d0, CostInline, &res)
	c.record(d0, item.RiskScore)

	a1, err := c.Stage1.Analyze(item)
	if err != nil {
		return res, false, err
	}
	d1, err := c.Stage1.Recommend(item, a1)
	if err != nil {
		return res, false, err
	}
	c.commit(d1, CostRework, &res)
	c.record(d1, item.RiskScore)

	if d1.Action != ActionProceed {
		res.Terminal = d1.Action
		return res, false, nil
	}
	return res, true, nil
}

// runPost runs Stage2B and, on escalation, Stage3 for one surviving item.
func (c *Controller) runPost(item *Item, res *ItemResult) error {
	a2b, err := c.Stage2B.Analyze(item)
	if err != nil {
		return err
	}
	d2b, err := c.Stage2B.Recommend(item, a2b)
	if err != nil {
		return err
	}
	c.commit(d2b, CostEscalate, res)
	c.record(d2b, item.RiskScore)

	if d2b.Action != ActionEscalate {
		res.Terminal = d2b.Action
		return nil
	}

	a3, err := c.Stage3.Analyze(item)
	if err != nil {
		return err
	}
	d3, err := c.Stage3.Recommend(item, a3)
	if err != nil {
		return err
	}
	c.commit(d3, CostInline, res)
	c.record(d3, item.RiskScore)
	res.Terminal = d3.Action
	next := a3.NextLot
	res.NextLot = &next
	return nil
}

// RunLot executes the full two-phase state machine for one lot. Per-item
// failures inside the lot are returned as ItemFailure entries, never as an
// error: the lot-level error is reserved for the lot gate itself.
func (c *Controller) RunLot(lot *Lot) (LotResult, []ItemFailure, error) {
	result := LotResult{LotID: lot.ID}
	var failures []ItemFailure

	type survivor struct {
		item *Item
		idx  int // index into result.Items
	}
	var survivors []survivor

	for _, item := range lot.Items {
		res, alive, err := c.runPre(item)
		if err != nil {
			failures = append(failures, ItemFailure{ItemID: item.ID, LotID: lot.ID, Err: err})
			c.logger().WithFields(logrus.Fields{
				"item": item.ID,
				"lot":  lot.ID,
			}).WithError(err).Warn("item excluded from lot run")
			continue
		}
		result.Items = append(result.Items, res)
		if alive {
			survivors = append(survivors, survivor{item: item, idx: len(result.Items) - 1})
		}
	}

	if len(survivors) > 0 {
		gateLot := &Lot{ID: lot.ID}
		for _, s := range survivors {
			gateLot.Items = append(gateLot.Items, s.item)
		}
		a2a, err := c.Stage2A.Analyze(gateLot)
		if err != nil {
			return result, failures, fmt.Errorf("lot gate %s: %w", lot.ID, err)
		}
		d2a, err := c.Stage2A.Recommend(gateLot, a2a)
		if err != nil {
			return result, failures, fmt.Errorf("lot gate %s: %w", lot.ID, err)
		}
		result.GateAction = d2a.Action
		result.GateApplied = true
		if d2a.Cost > 0 {
			c.Budget.Debit(CostLotScrap, d2a.Cost)
		}
		c.record(d2a, 0)

		if d2a.Action == ActionLotScrap {
			// Short-circuit: every surviving member terminates at zero
			// further cost. The scrap cost is debited once, at lot level.
			for _, s := range survivors {
				r := &result.Items[s.idx]
				r.Path = append(r.Path, Stage2A)
				r.Terminal = ActionLotScrap
			}
			result.TotalCost = c.finishLot(&result, d2a.Cost)
			return result, failures, nil
		}

		for _, s := range survivors {
			r := &result.Items[s.idx]
			r.Path = append(r.Path, Stage2A)
			if err := c.runPost(s.item, r); err != nil {
				failures = append(failures, ItemFailure{ItemID: s.item.ID, LotID: lot.ID, Err: err})
			}
		}
		result.TotalCost = c.finishLot(&result, d2a.Cost)
		return result, failures, nil
	}

	result.TotalCost = c.finishLot(&result, 0)
	return result, failures, nil
}

// finishLot records item traces, marks budget progress, and sums cost.
func (c *Controller) finishLot(result *LotResult, gateCost float64) float64 {
	total := gateCost
	for i := range result.Items {
		r := &result.Items[i]
		total += r.CumulativeCost
		path := make([]string, len(r.Path))
		for j, s := range r.Path {
			path[j] = string(s)
		}
		c.Trace.RecordItem(trace.ItemTrace{
			ItemID:         r.ItemID,
			LotID:          r.LotID,
			Path:           path,
			CumulativeCost: r.CumulativeCost,
			Terminal:       string(r.Terminal),
		})
		c.Budget.ItemDone()
	}
	return total
}

// RunBatch executes all lots of a dataset concurrently. Lots run on an
// errgroup-bounded worker pool; one lot's gate failure or one item's
// analysis failure is collected, never aborting the batch. Results come
// back in lot-ID order regardless of scheduling.
func (c *Controller) RunBatch(ctx context.Context, ds *Dataset) (*BatchResult, error) {
	lots := ds.Lots()
	results := make([]*LotResult, len(lots))
	failuresByLot := make([][]ItemFailure, len(lots))

	workers := c.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, lot := range lots {
		i, lot := i, lot
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, fails, err := c.RunLot(lot)
			if err != nil {
				fails = append(fails, ItemFailure{LotID: lot.ID, Err: err})
			} else {
				results[i] = &res
			}
			failuresByLot[i] = fails
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	batch := &BatchResult{}
	for i := range lots {
		if results[i] != nil {
			batch.Lots = append(batch.Lots, *results[i])
		}
		batch.Failures = append(batch.Failures, failuresByLot[i]...)
	}
	sort.SliceStable(batch.Lots, func(a, b int) bool { return batch.Lots[a].LotID < batch.Lots[b].LotID })
	return batch, nil
}
