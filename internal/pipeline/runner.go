// Package pipeline runs the analytics engine over raw snapshots and writes processed outputs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/poltrends/internal/analytics"
	"github.com/ternarybob/poltrends/internal/common"
	"github.com/ternarybob/poltrends/internal/metrics"
	"github.com/ternarybob/poltrends/internal/models"
	"github.com/ternarybob/poltrends/internal/provider"
	"github.com/ternarybob/poltrends/internal/snapshot"
)

// FetcherFactory builds the batch fetcher for one geography and snapshot date.
type FetcherFactory func(store *snapshot.Store, date string, geo common.Geography) provider.BatchFetcher

// SnapshotFetchers replays batches captured under raw/<date>/<subdir>/.
func SnapshotFetchers(store *snapshot.Store, date string, geo common.Geography) provider.BatchFetcher {
	return provider.NewSnapshotFetcher(store, date, geo.Subdir, geo.Registry)
}

// Result is the outcome of one geography's run.
type Result struct {
	Geography string
	Date      string
	Skipped   bool
	Steps     []Step
	Series    *models.InterestSeries
	Report    *analytics.NormalizationReport
	Spikes    []models.SpikeRecord
	Sentiment map[string]models.SentimentResult
	Weekly    *models.WeeklyAnalysis
}

// Runner executes pipeline steps for every configured geography.
type Runner struct {
	geographies []common.Geography
	store       *snapshot.Store
	engine      analytics.EngineConfig
	pacing      time.Duration
	fetchers    FetcherFactory
	recorder    *metrics.Recorder
	textfile    string
	logger      arbor.ILogger
}

// Option customises a Runner
type Option func(*Runner)

// WithFetcherFactory replaces the snapshot replay fetcher
func WithFetcherFactory(f FetcherFactory) Option {
	return func(r *Runner) { r.fetchers = f }
}

// WithRecorder sets the metrics recorder; it is flushed to textfile after each run when textfile is set
func WithRecorder(recorder *metrics.Recorder) Option {
	return func(r *Runner) { r.recorder = recorder }
}

// NewRunner resolves the configured geographies and builds a runner
func NewRunner(config *common.Config, logger arbor.ILogger, opts ...Option) (*Runner, error) {
	if logger == nil {
		logger = common.GetLogger()
	}

	geographies, err := config.Registries()
	if err != nil {
		return nil, err
	}
	pacing, err := config.PacingInterval()
	if err != nil {
		return nil, err
	}

	engine := analytics.DefaultEngineConfig()
	engine.Normalizer.BatchSize = config.Provider.MaxEntitiesPerRequest
	engine.News.WindowDays = config.News.WindowDays
	engine.News.MaxArticles = config.News.MaxPerSpike
	engine.News.SortByProximity = config.News.SortByProximity

	r := &Runner{
		geographies: geographies,
		store:       snapshot.NewStore(config.Storage.DataDir, logger),
		engine:      engine,
		pacing:      pacing,
		fetchers:    SnapshotFetchers,
		textfile:    config.Metrics.Textfile,
		logger:      logger,
	}
	if r.textfile != "" {
		r.recorder = metrics.NewRecorder()
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Store returns the snapshot store
func (r *Runner) Store() *snapshot.Store {
	return r.store
}

// Geographies returns the resolved geographies in configuration order
func (r *Runner) Geographies() []common.Geography {
	return r.geographies
}

// Daily normalizes the snapshot and detects spikes
func (r *Runner) Daily(ctx context.Context, date string) ([]Result, error) {
	return r.Run(ctx, "daily", date, DailySteps...)
}

// Weekly runs the daily steps plus sentiment and the weekly analysis
func (r *Runner) Weekly(ctx context.Context, date string) ([]Result, error) {
	return r.Run(ctx, "weekly", date, WeeklySteps...)
}

// Run executes steps for every geography against one snapshot date. An empty date selects the
// latest raw snapshot. Geographies without a raw directory are skipped with a warning; a failing
// geography does not stop the others. Missing or unreadable news, related queries and sentiment
// inputs degrade to empty defaults.
func (r *Runner) Run(ctx context.Context, command, date string, steps ...Step) ([]Result, error) {
	steps, err := orderSteps(steps)
	if err != nil {
		return nil, err
	}

	date, err = r.resolveDate(date)
	if err != nil {
		return nil, err
	}

	runID := common.NewRunID()
	logger := r.logger.WithCorrelationId(runID)
	logger.Info().
		Str("command", command).
		Str("date", date).
		Strs("steps", StepNames(steps)).
		Int("geographies", len(r.geographies)).
		Msg("Pipeline run started")

	results := make([]Result, 0, len(r.geographies))
	var errs []error
	processed := 0

	for _, geo := range r.geographies {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		if !r.store.HasRaw(date, geo.Subdir) {
			logger.Warn().
				Str("geography", geo.Name).
				Str("date", date).
				Str("subdir", geo.Subdir).
				Msg("No raw snapshot for geography, skipping")
			results = append(results, Result{Geography: geo.Name, Date: date, Skipped: true})
			continue
		}

		result, err := r.runGeography(ctx, logger, date, geo, steps)
		results = append(results, result)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return results, ctxErr
			}
			logger.Error().Str("geography", geo.Name).Err(err).Msg("Geography run failed")
			errs = append(errs, fmt.Errorf("geography %s: %w", geo.Name, err))
			continue
		}
		processed++
		r.recorder.RecordRun(geo.Name, command, time.Now())
	}

	if err := r.recorder.Flush(r.textfile); err != nil {
		logger.Warn().Err(err).Msg("Failed to write metrics textfile")
	}

	if processed == 0 && len(errs) == 0 {
		return results, fmt.Errorf("%w for %s", snapshot.ErrNoSnapshot, date)
	}
	if len(errs) > 0 {
		return results, errors.Join(errs...)
	}

	logger.Info().
		Str("command", command).
		Str("date", date).
		Int("processed", processed).
		Msg("Pipeline run completed")
	return results, nil
}

func (r *Runner) resolveDate(date string) (string, error) {
	if date == "" {
		latest, err := r.store.LatestDate()
		if err != nil {
			return "", err
		}
		return latest, nil
	}
	if _, err := models.ParseDate(date); err != nil {
		return "", fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}
	return date, nil
}

// runGeography executes the ordered steps, passing outputs forward in memory.
// Steps whose inputs were not produced in this run read them from processed/.
func (r *Runner) runGeography(ctx context.Context, logger arbor.ILogger, date string, geo common.Geography, steps []Step) (Result, error) {
	engine := analytics.NewEngineWithConfig(geo.Registry, r.engine, logger)
	result := Result{Geography: geo.Name, Date: date, Steps: steps}

	for _, step := range steps {
		start := time.Now()
		err := r.runStep(ctx, logger, engine, date, geo, step, &result)
		r.recorder.ObserveStep(geo.Name, string(step), time.Since(start), err)
		if err != nil {
			return result, fmt.Errorf("%s: %w", step, err)
		}
	}
	return result, nil
}

func (r *Runner) runStep(ctx context.Context, logger arbor.ILogger, engine *analytics.Engine, date string, geo common.Geography, step Step, result *Result) error {
	reg := geo.Registry

	switch step {
	case StepNormalize:
		fetcher := provider.Paced(r.fetchers(r.store, date, geo), r.pacing)
		batches, err := provider.FetchAll(ctx, fetcher, reg, engine.Plan(), logger)
		if err != nil {
			return err
		}
		series, report := engine.Normalize(batches)
		if err := r.store.WriteSeries(date, geo.Subdir, series); err != nil {
			return err
		}
		result.Series = series
		result.Report = &report
		r.recorder.RecordSeries(geo.Name, series)

		logger.Info().
			Str("geography", geo.Name).
			Int("records", len(series.Records)).
			Int("batches", report.Batches).
			Str("confidence", string(report.Confidence)).
			Msg("Series normalized")

	case StepSpikes:
		series, err := r.series(date, geo, result)
		if err != nil {
			return err
		}
		feed, err := r.store.ReadNews(date, geo.Subdir, reg)
		if err != nil {
			if errors.Is(err, snapshot.ErrNotFound) {
				logger.Info().Str("geography", geo.Name).Msg("No news captured, spikes will use the fallback explanation")
			} else {
				logger.Warn().Str("geography", geo.Name).Err(err).Msg("Unreadable news, spikes will use the fallback explanation")
			}
			feed = models.NewsFeed{}
		}
		spikes := engine.Spikes(series, feed)
		if err := r.store.WriteSpikes(date, geo.Subdir, spikes); err != nil {
			return err
		}
		result.Spikes = spikes
		r.recorder.RecordSpikes(geo.Name, spikes)

		logger.Info().Str("geography", geo.Name).Int("spikes", len(spikes)).Msg("Spikes detected")

	case StepSentiment:
		related, err := r.store.ReadRelatedQueries(date, geo.Subdir, reg)
		if err != nil {
			logger.Warn().Str("geography", geo.Name).Err(err).Msg("No usable related queries, sentiment will be unknown")
			related = map[string]models.RelatedQueries{}
		}
		sentiment := engine.Sentiment(related)
		if err := r.store.WriteSentiment(date, geo.Subdir, sentiment); err != nil {
			return err
		}
		result.Sentiment = sentiment
		r.recorder.RecordSentiment(geo.Name, sentiment)

		logger.Info().Str("geography", geo.Name).Int("entities", len(sentiment)).Msg("Sentiment classified")

	case StepWeekly:
		series, err := r.series(date, geo, result)
		if err != nil {
			return err
		}
		sentiment := result.Sentiment
		if sentiment == nil {
			sentiment, err = r.store.ReadSentiment(date, geo.Subdir)
			if err != nil {
				logger.Warn().Str("geography", geo.Name).Err(err).Msg("No usable sentiment results, weekly scores use interest only")
				sentiment = nil
			}
		}
		analysis := engine.Weekly(series, sentiment)
		if err := r.store.WriteWeekly(date, geo.Subdir, analysis); err != nil {
			return err
		}
		result.Weekly = &analysis
		r.recorder.RecordWeekly(geo.Name, analysis)

		logger.Info().
			Str("geography", geo.Name).
			Str("search_winner", analysis.SearchWinner).
			Str("overall_winner", analysis.OverallWinner).
			Str("confidence", string(analysis.Confidence)).
			Msg("Weekly analysis written")

	default:
		return fmt.Errorf("unknown step %q", step)
	}
	return nil
}

// series returns the series normalized earlier in this run, or the processed one on disk
func (r *Runner) series(date string, geo common.Geography, result *Result) (*models.InterestSeries, error) {
	if result.Series != nil {
		return result.Series, nil
	}
	series, err := r.store.ReadSeries(date, geo.Subdir, geo.Registry)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			return nil, fmt.Errorf("normalized series missing, run normalize first: %w", err)
		}
		return nil, err
	}
	result.Series = series
	return series, nil
}
