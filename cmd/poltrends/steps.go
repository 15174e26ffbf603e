package main

import (
	"github.com/spf13/cobra"

	"github.com/ternarybob/poltrends/internal/pipeline"
)

// stepCommand runs one pipeline step against the selected snapshot
func stepCommand(step pipeline.Step, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(step),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSteps(string(step), step)
		},
	}
}

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Normalize the snapshot and detect spikes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSteps("daily", pipeline.DailySteps...)
	},
}

var runWeeklyCmd = &cobra.Command{
	Use:   "run-weekly",
	Short: "Run the daily steps plus sentiment and the weekly analysis",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSteps("weekly", pipeline.WeeklySteps...)
	},
}

func runSteps(command string, steps ...pipeline.Step) error {
	ctx, cancel := signalContext()
	defer cancel()

	runner, err := newRunner()
	if err != nil {
		return err
	}

	results, err := runner.Run(ctx, command, runDate, steps...)
	for _, r := range results {
		if r.Skipped {
			continue
		}
		records, winner := 0, ""
		if r.Series != nil {
			records = len(r.Series.Records)
		}
		if r.Weekly != nil {
			winner = r.Weekly.OverallWinner
		}
		logger.Info().
			Str("geography", r.Geography).
			Str("date", r.Date).
			Strs("steps", pipeline.StepNames(r.Steps)).
			Int("records", records).
			Int("spikes", len(r.Spikes)).
			Str("overall_winner", winner).
			Msg("Geography complete")
	}
	return err
}
