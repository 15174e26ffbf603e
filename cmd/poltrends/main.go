package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/poltrends/internal/common"
	"github.com/ternarybob/poltrends/internal/pipeline"
)

var (
	// Persistent flags
	configFiles []string // Repeatable; later files override earlier ones
	runDate     string
	dataDir     string
	logLevel    string

	// Global state, set in PersistentPreRunE
	config *common.Config
	logger arbor.ILogger
)

var rootCmd = &cobra.Command{
	Use:   "poltrends",
	Short: "Search-trend analytics for political entities",
	Long: `PolTrends turns raw search-interest snapshots into normalized series, explained
interest spikes, related-query sentiment and a weekly combined ranking.

Raw captures are read from <data_dir>/raw/<date>/ and results are written to
<data_dir>/processed/<date>/.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringArrayVarP(&configFiles, "config", "c", nil, "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flags.StringVar(&runDate, "date", "", "Snapshot date YYYY-MM-DD (default: latest raw snapshot)")
	flags.StringVar(&dataDir, "data-dir", "", "Data directory (overrides config)")
	flags.StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(
		stepCommand(pipeline.StepNormalize, "Merge batch captures into one normalized interest series"),
		stepCommand(pipeline.StepSpikes, "Detect interest spikes and attach matching news"),
		stepCommand(pipeline.StepSentiment, "Classify related search queries per entity"),
		stepCommand(pipeline.StepWeekly, "Score the trailing week from processed outputs"),
		dailyCmd,
		runWeeklyCmd,
		scheduleCmd,
		versionCmd,
	)
}

// setup runs the startup sequence in order:
// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
// 2. Apply CLI overrides
// 3. Validate
// 4. Initialize logger
// 5. Print banner
func setup(cmd *cobra.Command, args []string) error {
	if cmd == versionCmd {
		return nil
	}

	// .env is optional
	_ = godotenv.Load()

	if len(configFiles) == 0 {
		if found := common.FindConfigFile(); found != "" {
			configFiles = append(configFiles, found)
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		return err
	}
	common.ApplyFlagOverrides(config, dataDir, logLevel)
	if err := config.Validate(); err != nil {
		return err
	}

	logger = common.InitLogger(config)
	common.PrintBanner(common.Version)

	logger.Debug().
		Strs("config_files", configFiles).
		Str("data_dir", config.Storage.DataDir).
		Str("log_level", config.Logging.Level).
		Int("geographies", len(config.Geographies)).
		Msg("Configuration loaded")
	return nil
}

func newRunner() (*pipeline.Runner, error) {
	runner, err := pipeline.NewRunner(config, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize pipeline: %w", err)
	}
	return runner, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	defer common.RecoverWithCrashFile()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
