package cmd

import (
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fabtriage/fabtriage/triage"
)

var scheduleDataPath string // evaluation sequence records

// scheduleCmd runs the budget-aware online scheduler over a fixed
// evaluation sequence and emits the per-item decision records.
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the budget-aware inspection scheduler over an item sequence",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		cfg := loadRunConfig(configPath)

		ds := loadDataset(scheduleDataPath, triage.SplitTest, cfg.FeatureColumns)

		budget := triage.NewBudgetState(cfg.Budget, len(ds.Items))
		sched := triage.NewScheduler(cfg.Threshold, budget, cfg.InspectCost, ds.RiskScores())
		sched.Breakpoints = cfg.Breakpoints
		sched.Log = logrus.StandardLogger()

		records, sel := sched.Run(ds)

		logrus.Infof("Scheduled %d items: %d inspected, %.2f budget remaining",
			len(records), sel.Count(), budget.Remaining())

		recordsPath := filepath.Join(outDir, "schedule_records.json")
		writeJSON(recordsPath, records)

		manifest := triage.NewManifest()
		if err := manifest.AddInput(scheduleDataPath); err != nil {
			logrus.Fatalf("Manifest input failed: %v", err)
		}
		if err := manifest.AddOutput(recordsPath); err != nil {
			logrus.Fatalf("Manifest output failed: %v", err)
		}
		if err := manifest.Write(filepath.Join(outDir, "manifest.json")); err != nil {
			logrus.Fatalf("Manifest write failed: %v", err)
		}
	},
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleDataPath, "data", "", "Evaluation sequence records (JSON)")
	scheduleCmd.MarkFlagRequired("data")
	rootCmd.AddCommand(scheduleCmd)
}
