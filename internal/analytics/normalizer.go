package analytics

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/poltrends/internal/common"
	"github.com/ternarybob/poltrends/internal/models"
)

// DefaultBatchSize is the provider's cap on entities per request.
const DefaultBatchSize = 5

// NormalizerConfig holds configuration for batch normalization
type NormalizerConfig struct {
	BatchSize int `json:"batch_size"`
}

// DefaultNormalizerConfig returns the default configuration
func DefaultNormalizerConfig() NormalizerConfig {
	return NormalizerConfig{BatchSize: DefaultBatchSize}
}

// Batch is one provider request: a 1-based index and the entity codes it covers.
// Every batch after the first starts with the anchor code.
type Batch struct {
	Index int      `json:"index"`
	Codes []string `json:"codes"`
}

// BatchResult pairs a planned batch with the series the provider returned for it.
// A nil or empty Series means the provider returned nothing.
type BatchResult struct {
	Batch  Batch
	Series *models.InterestSeries
}

// NormalizationReport describes how a merge went.
type NormalizationReport struct {
	Anchor            string            `json:"anchor"`
	Batches           int               `json:"batches"`
	EmptyBatches      []int             `json:"empty_batches"`
	UncorrectedValues int               `json:"uncorrected_values"`
	MissingDates      int               `json:"missing_dates"`
	Confidence        models.Confidence `json:"confidence"`
}

// BatchNormalizer merges separately fetched batches into one consistent series
// by rescaling later batches against the anchor entity's batch 1 values.
type BatchNormalizer struct {
	registry *models.Registry
	config   NormalizerConfig
	logger   arbor.ILogger
}

// NewBatchNormalizer creates a new batch normalizer for a registry
func NewBatchNormalizer(registry *models.Registry, config NormalizerConfig, logger arbor.ILogger) *BatchNormalizer {
	if config.BatchSize < 2 {
		config.BatchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = common.GetLogger()
	}
	return &BatchNormalizer{registry: registry, config: config, logger: logger}
}

// Anchor returns the anchor entity code (the first registry entity).
func (n *BatchNormalizer) Anchor() string {
	return n.registry.Codes()[0]
}

// Plan splits the registry into provider batches.
func (n *BatchNormalizer) Plan() []Batch {
	codes := n.registry.Codes()
	k := n.config.BatchSize
	if len(codes) <= k {
		return []Batch{{Index: 1, Codes: codes}}
	}

	anchor := codes[0]
	batches := []Batch{{Index: 1, Codes: append([]string(nil), codes[:k]...)}}
	rest := codes[k:]
	for len(rest) > 0 {
		take := k - 1
		if take > len(rest) {
			take = len(rest)
		}
		batchCodes := make([]string, 0, take+1)
		batchCodes = append(batchCodes, anchor)
		batchCodes = append(batchCodes, rest[:take]...)
		batches = append(batches, Batch{Index: len(batches) + 1, Codes: batchCodes})
		rest = rest[take:]
	}
	return batches
}

// Normalize merges batch results into one series keyed by batch 1's dates.
// It never fails: empty batches leave their entities at 0 and lower the confidence.
func (n *BatchNormalizer) Normalize(results []BatchResult) (*models.InterestSeries, NormalizationReport) {
	plan := n.Plan()
	anchor := n.Anchor()
	report := NormalizationReport{
		Anchor:       anchor,
		Batches:      len(plan),
		EmptyBatches: []int{},
		Confidence:   models.ConfidenceHigh,
	}

	out := &models.InterestSeries{
		Geo:       n.registry.Geo(),
		Timeframe: n.registry.Timeframe(),
		Records:   []models.DailyRecord{},
	}

	byIndex := make(map[int]*models.InterestSeries, len(results))
	for _, r := range results {
		byIndex[r.Batch.Index] = r.Series
	}

	base := byIndex[1]
	if base.IsEmpty() {
		n.logger.Warn().
			Str("geo", n.registry.Geo()).
			Strs("codes", plan[0].Codes).
			Msg("Baseline batch is empty, no dates to normalize")
		report.EmptyBatches = append(report.EmptyBatches, 1)
		report.Confidence = models.ConfidenceUnknown
		return out, report
	}

	// Baseline is stored verbatim.
	anchorBase := make(map[string]int, len(base.Records))
	for _, rec := range base.Records {
		values := n.registry.ZeroInts()
		for _, code := range plan[0].Codes {
			values[code] = rec.Value(code)
		}
		out.Records = append(out.Records, models.DailyRecord{Date: rec.Date, Values: values})
		anchorBase[rec.DateString()] = rec.Value(anchor)
	}

	for _, batch := range plan[1:] {
		series := byIndex[batch.Index]
		if series.IsEmpty() {
			n.logger.Warn().
				Str("geo", n.registry.Geo()).
				Int("batch", batch.Index).
				Strs("codes", batch.Codes).
				Msg("Empty batch response, treating entities as zero")
			report.EmptyBatches = append(report.EmptyBatches, batch.Index)
			continue
		}

		byDate := make(map[string]models.DailyRecord, len(series.Records))
		for _, rec := range series.Records {
			byDate[rec.DateString()] = rec
		}

		for i := range out.Records {
			date := out.Records[i].DateString()
			rec, ok := byDate[date]
			if !ok {
				report.MissingDates++
				continue
			}

			a1 := anchorBase[date]
			ab := rec.Value(anchor)
			scale := 1.0
			scaled := a1 > 0 && ab > 0
			if scaled {
				scale = float64(a1) / float64(ab)
			}

			for _, code := range batch.Codes[1:] {
				v := rec.Value(code)
				if !scaled && v > 0 {
					report.UncorrectedValues++
				}
				out.Records[i].Values[code] = roundInt(float64(v) * scale)
			}
		}
	}

	if len(report.EmptyBatches) > 0 || report.MissingDates > 0 || report.UncorrectedValues > 0 {
		report.Confidence = models.ConfidenceLow
	}
	if report.MissingDates > 0 || report.UncorrectedValues > 0 {
		n.logger.Warn().
			Str("geo", n.registry.Geo()).
			Int("missing_dates", report.MissingDates).
			Int("uncorrected_values", report.UncorrectedValues).
			Msg("Some batch values could not be rescaled against the anchor")
	}

	n.logger.Debug().
		Str("geo", n.registry.Geo()).
		Int("batches", report.Batches).
		Int("records", len(out.Records)).
		Msg("Series normalized")

	return out, report
}
