package analytics

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/poltrends/internal/common"
	"github.com/ternarybob/poltrends/internal/models"
)

// EngineConfig groups the tunable component configurations.
type EngineConfig struct {
	Normalizer NormalizerConfig
	Spikes     SpikeConfig
	News       NewsMatchConfig
}

// DefaultEngineConfig returns the default configuration
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Normalizer: DefaultNormalizerConfig(),
		Spikes:     DefaultSpikeConfig(),
		News:       DefaultNewsMatchConfig(),
	}
}

// Engine runs the analytics components for one registry.
// It is synchronous and holds no state between calls.
type Engine struct {
	registry   *models.Registry
	normalizer *BatchNormalizer
	spikes     *SpikeDetector
	news       *NewsMatcher
	sentiment  *SentimentClassifier
	weekly     *WeeklyScorer
}

// NewEngine creates an engine with default component configurations
func NewEngine(registry *models.Registry, logger arbor.ILogger) *Engine {
	return NewEngineWithConfig(registry, DefaultEngineConfig(), logger)
}

// NewEngineWithConfig creates an engine with custom component configurations
func NewEngineWithConfig(registry *models.Registry, config EngineConfig, logger arbor.ILogger) *Engine {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &Engine{
		registry:   registry,
		normalizer: NewBatchNormalizer(registry, config.Normalizer, logger),
		spikes:     NewSpikeDetector(registry, config.Spikes, logger),
		news:       NewNewsMatcher(config.News, logger),
		sentiment:  NewSentimentClassifier(registry, logger),
		weekly:     NewWeeklyScorer(registry, logger),
	}
}

// Registry returns the engine's registry
func (e *Engine) Registry() *models.Registry {
	return e.registry
}

// Plan returns the provider batches needed for the registry
func (e *Engine) Plan() []Batch {
	return e.normalizer.Plan()
}

// Normalize merges batch results into one series
func (e *Engine) Normalize(results []BatchResult) (*models.InterestSeries, NormalizationReport) {
	return e.normalizer.Normalize(results)
}

// Spikes detects spikes and matches them against the news feed
func (e *Engine) Spikes(series *models.InterestSeries, feed models.NewsFeed) []models.SpikeRecord {
	spikes := e.spikes.Detect(series)
	e.news.Match(spikes, feed)
	return spikes
}

// Sentiment classifies related queries for every entity
func (e *Engine) Sentiment(related map[string]models.RelatedQueries) map[string]models.SentimentResult {
	return e.sentiment.AnalyseAll(related)
}

// Weekly computes the weekly analysis
func (e *Engine) Weekly(series *models.InterestSeries, sentiment map[string]models.SentimentResult) models.WeeklyAnalysis {
	return e.weekly.Score(series, sentiment)
}
