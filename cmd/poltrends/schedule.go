package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ternarybob/poltrends/internal/scheduler"
)

var runOnStart bool

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the daily and weekly pipelines on their cron schedules",
	Long: `Blocks until SIGINT or SIGTERM, running the daily pipeline on schedule.daily and the
weekly pipeline on schedule.weekly, evaluated in schedule.timezone. Runs never overlap.
Scheduled runs always use the latest raw snapshot.`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().BoolVar(&runOnStart, "run-now", false, "Run the daily pipeline once before waiting for the schedule")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	runner, err := newRunner()
	if err != nil {
		return err
	}
	loc, err := config.Location()
	if err != nil {
		return err
	}

	s := scheduler.New(loc, logger)
	if err := s.Register("daily", config.Schedule.Daily, func(ctx context.Context) error {
		_, err := runner.Daily(ctx, "")
		return err
	}); err != nil {
		return err
	}
	if err := s.Register("weekly", config.Schedule.Weekly, func(ctx context.Context) error {
		_, err := runner.Weekly(ctx, "")
		return err
	}); err != nil {
		return err
	}

	if err := s.Start(ctx); err != nil {
		return err
	}
	defer s.Stop()

	for _, status := range s.Statuses() {
		if status.NextRun == nil {
			continue
		}
		logger.Info().
			Str("job_name", status.Name).
			Str("schedule", status.Schedule).
			Str("next_run", status.NextRun.Format("2006-01-02 15:04:05 MST")).
			Msg("Job scheduled")
	}

	if runOnStart {
		if err := s.RunNow(ctx, "daily"); err != nil {
			logger.Error().Err(err).Msg("Initial daily run failed")
		}
	}

	logger.Info().Str("timezone", loc.String()).Msg("Scheduler running - Press Ctrl+C to stop")
	<-ctx.Done()
	logger.Info().Msg("Interrupt signal received, waiting for running job")
	return nil
}
