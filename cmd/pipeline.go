package cmd

import (
	"context"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fabtriage/fabtriage/triage"
	"github.com/fabtriage/fabtriage/triage/trace"
)

var pipelineDataPath string // lot records

// Default electrical spec limits for the lot gate. Values are in the
// normalized units of the input features.
var defaultSpecLimits = map[string]triage.SpecLimit{
	"vth":     {Lower: 0.3, Upper: 0.7},
	"leakage": {Lower: 0, Upper: 1.0},
	"ron":     {Lower: 0.8, Upper: 1.2},
}

var defaultCriticalParams = []string{"vth"}

// pipelineCmd routes every lot through the two-phase decision pipeline.
var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run lots through the staged decision pipeline under a budget",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		cfg := loadRunConfig(configPath)

		ds := loadDataset(pipelineDataPath, triage.SplitTest, cfg.FeatureColumns)

		rng := triage.NewPartitionedRNG(triage.NewRunKey(seed))
		scorer := triage.NewScorer(cfg.Scorer, rng)
		costs := triage.DefaultCostModel()
		budget := triage.NewBudgetState(cfg.Budget, len(ds.Items))
		runTrace := trace.NewRunTrace(trace.TraceLevelDecisions)

		controller := &triage.Controller{
			Stage0:  triage.NewStage0Agent(scorer, costs, nil),
			Stage1:  triage.NewStage1Agent(scorer, costs, nil),
			Stage2A: triage.NewStage2AAgent(costs, defaultSpecLimits, defaultCriticalParams),
			Stage2B: triage.NewStage2BAgent(scorer, costs),
			Stage3:  triage.NewStage3Agent(costs),
			Budget:  budget,
			Trace:   runTrace,
			Workers: cfg.PipelineWorkers,
			Log:     logrus.StandardLogger(),
		}

		batch, err := controller.RunBatch(context.Background(), ds)
		if err != nil {
			logrus.Fatalf("Batch run failed: %v", err)
		}
		for _, f := range batch.Failures {
			logrus.Warnf("Item failure: lot=%s item=%s: %v", f.LotID, f.ItemID, f.Err)
		}

		summary := trace.Summarize(runTrace)
		logrus.Infof("Pipeline complete: %d lots, %d failures, %d decisions, %.2f budget spent",
			len(batch.Lots), len(batch.Failures), summary.TotalDecisions, budget.Spent())

		lotsPath := filepath.Join(outDir, "pipeline_lots.json")
		writeJSON(lotsPath, batch.Lots)
		summaryPath := filepath.Join(outDir, "trace_summary.json")
		writeJSON(summaryPath, summary)

		manifest := triage.NewManifest()
		if err := manifest.AddInput(pipelineDataPath); err != nil {
			logrus.Fatalf("Manifest input failed: %v", err)
		}
		for _, p := range []string{lotsPath, summaryPath} {
			if err := manifest.AddOutput(p); err != nil {
				logrus.Fatalf("Manifest output failed: %v", err)
			}
		}
		if err := manifest.Write(filepath.Join(outDir, "manifest.json")); err != nil {
			logrus.Fatalf("Manifest write failed: %v", err)
		}
	},
}

func init() {
	pipelineCmd.Flags().StringVar(&pipelineDataPath, "data", "", "Lot records (JSON)")
	pipelineCmd.MarkFlagRequired("data")
	rootCmd.AddCommand(pipelineCmd)
}
