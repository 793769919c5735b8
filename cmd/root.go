package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// CLI flags shared by all subcommands
	seed       int64  // Seed for all randomized subsystems
	logLevel   string // Log verbosity level
	configPath string // Optional run config YAML
	outDir     string // Directory for run artifacts
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "fabtriage",
	Short: "Budget-aware inspection triage and policy validation for wafer fabs",
}

// setupLogging applies the --log flag. Called at the top of every
// subcommand Run.
func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up shared CLI flags
func init() {
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 42, "Seed for randomized subsystems (bootstrap, baselines)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Run config YAML (defaults used when empty)")
	rootCmd.PersistentFlags().StringVar(&outDir, "out", "out", "Directory for run artifacts")
}
