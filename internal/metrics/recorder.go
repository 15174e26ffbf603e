// Package metrics records run outcomes as Prometheus metrics and writes them to a
// node-exporter textfile collector file. There is no HTTP endpoint; runs are batch jobs.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ternarybob/poltrends/internal/models"
)

// Recorder holds all Prometheus metrics for a run. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	// Series and spike metrics
	SeriesRecords  *prometheus.GaugeVec
	SpikesDetected *prometheus.GaugeVec

	// Weekly metrics
	SentimentScore *prometheus.GaugeVec
	CombinedScore  *prometheus.GaugeVec
	AvgInterest    *prometheus.GaugeVec

	// Run metrics
	StepDuration *prometheus.HistogramVec
	StepRuns     *prometheus.CounterVec
	LastRunTime  *prometheus.GaugeVec
}

// NewRecorder creates a recorder on its own registry
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),

		SeriesRecords: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "poltrends_series_records",
				Help: "Number of daily records in the normalized interest series",
			},
			[]string{"geography"},
		),

		SpikesDetected: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "poltrends_spikes_detected",
				Help: "Number of spikes written for the snapshot",
			},
			[]string{"geography"},
		),

		SentimentScore: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "poltrends_sentiment_score",
				Help: "Keyword sentiment score per entity (-1 to 1)",
			},
			[]string{"geography", "entity"},
		),

		CombinedScore: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "poltrends_combined_score",
				Help: "Weekly combined interest and sentiment score per entity (0 to 1)",
			},
			[]string{"geography", "entity"},
		),

		AvgInterest: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "poltrends_avg_interest",
				Help: "Trailing seven day average interest per entity",
			},
			[]string{"geography", "entity"},
		),

		StepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "poltrends_step_duration_seconds",
				Help:    "Duration of each pipeline step in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0, 120.0},
			},
			[]string{"geography", "step"},
		),

		StepRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "poltrends_step_runs_total",
				Help: "Pipeline step executions by status",
			},
			[]string{"geography", "step", "status"},
		),

		LastRunTime: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "poltrends_last_run_timestamp_seconds",
				Help: "Unix time of the last completed run per command",
			},
			[]string{"geography", "command"},
		),
	}

	r.registry.MustRegister(
		r.SeriesRecords,
		r.SpikesDetected,
		r.SentimentScore,
		r.CombinedScore,
		r.AvgInterest,
		r.StepDuration,
		r.StepRuns,
		r.LastRunTime,
	)
	return r
}

// Registry returns the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveStep records a step duration and outcome
func (r *Recorder) ObserveStep(geography, step string, d time.Duration, err error) {
	if r == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.StepDuration.WithLabelValues(geography, step).Observe(d.Seconds())
	r.StepRuns.WithLabelValues(geography, step, status).Inc()
}

// RecordSeries records the normalized series size
func (r *Recorder) RecordSeries(geography string, series *models.InterestSeries) {
	if r == nil || series == nil {
		return
	}
	r.SeriesRecords.WithLabelValues(geography).Set(float64(len(series.Records)))
}

// RecordSpikes records the spike count
func (r *Recorder) RecordSpikes(geography string, spikes []models.SpikeRecord) {
	if r == nil {
		return
	}
	r.SpikesDetected.WithLabelValues(geography).Set(float64(len(spikes)))
}

// RecordSentiment records per-entity sentiment scores
func (r *Recorder) RecordSentiment(geography string, results map[string]models.SentimentResult) {
	if r == nil {
		return
	}
	for code, res := range results {
		r.SentimentScore.WithLabelValues(geography, code).Set(res.Score)
	}
}

// RecordWeekly records per-entity weekly scores
func (r *Recorder) RecordWeekly(geography string, analysis models.WeeklyAnalysis) {
	if r == nil {
		return
	}
	for code, v := range analysis.AvgInterest {
		r.AvgInterest.WithLabelValues(geography, code).Set(v)
	}
	for code, v := range analysis.CombinedScores {
		r.CombinedScore.WithLabelValues(geography, code).Set(v)
	}
}

// RecordRun stamps the completion time of a command
func (r *Recorder) RecordRun(geography, command string, at time.Time) {
	if r == nil {
		return
	}
	r.LastRunTime.WithLabelValues(geography, command).Set(float64(at.Unix()))
}

// Flush writes all metrics to a textfile collector file
func (r *Recorder) Flush(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", path, err)
	}
	return nil
}
