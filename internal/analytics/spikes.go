package analytics

import (
	"sort"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/poltrends/internal/common"
	"github.com/ternarybob/poltrends/internal/models"
)

// SpikeConfig holds configuration for spike detection
type SpikeConfig struct {
	Window    int     `json:"window"`
	Threshold float64 `json:"threshold"`
	MinValue  int     `json:"min_value"`
	TopN      int     `json:"top_n"`
}

// DefaultSpikeConfig returns the default configuration
func DefaultSpikeConfig() SpikeConfig {
	return SpikeConfig{
		Window:    7,
		Threshold: 2.0,
		MinValue:  10,
		TopN:      10,
	}
}

// SpikeDetector flags days where an entity's interest is well above its trailing average
type SpikeDetector struct {
	registry *models.Registry
	config   SpikeConfig
	logger   arbor.ILogger
}

// NewSpikeDetector creates a new spike detector
func NewSpikeDetector(registry *models.Registry, config SpikeConfig, logger arbor.ILogger) *SpikeDetector {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &SpikeDetector{registry: registry, config: config, logger: logger}
}

// Detect scans the series and returns at most TopN spikes, highest ratio first.
// The result is never nil.
func (d *SpikeDetector) Detect(series *models.InterestSeries) []models.SpikeRecord {
	spikes := []models.SpikeRecord{}
	w := d.config.Window

	if series.IsEmpty() || len(series.Records) < w+1 {
		n := 0
		if series != nil {
			n = len(series.Records)
		}
		d.logger.Warn().
			Str("geo", d.registry.Geo()).
			Int("records", n).
			Int("required", w+1).
			Msg("Not enough history for spike detection")
		return spikes
	}

	for _, entity := range d.registry.Entities() {
		values := series.Values(entity.Code)
		for i := w; i < len(values); i++ {
			rollingAvg := avg(values[i-w : i])
			if rollingAvg <= 0 || values[i] < d.config.MinValue {
				continue
			}
			ratio := float64(values[i]) / rollingAvg
			if ratio < d.config.Threshold {
				continue
			}
			spikes = append(spikes, models.SpikeRecord{
				Date:        series.Records[i].DateString(),
				EntityCode:  entity.Code,
				EntityName:  entity.ShortName,
				Value:       values[i],
				RollingAvg:  round(rollingAvg, 1),
				Ratio:       round(ratio, 1),
				MatchedNews: []models.NewsArticle{},
				Confidence:  models.ConfidenceUnknown,
			})
		}
	}

	// Stable so equal ratios keep registry then date order.
	sort.SliceStable(spikes, func(i, j int) bool {
		return spikes[i].Ratio > spikes[j].Ratio
	})

	if d.config.TopN > 0 && len(spikes) > d.config.TopN {
		spikes = spikes[:d.config.TopN]
	}

	d.logger.Debug().
		Str("geo", d.registry.Geo()).
		Int("spikes", len(spikes)).
		Msg("Spike detection complete")

	return spikes
}
