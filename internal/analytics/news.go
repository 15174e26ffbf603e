package analytics

import (
	"sort"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/poltrends/internal/common"
	"github.com/ternarybob/poltrends/internal/models"
)

// FallbackExplanation is used when no article falls inside the match window.
const FallbackExplanation = "Significant spike in search interest"

// NewsMatchConfig holds configuration for news matching
type NewsMatchConfig struct {
	WindowDays      int  `json:"window_days"`
	MaxArticles     int  `json:"max_articles"`
	SortByProximity bool `json:"sort_by_proximity"`
}

// DefaultNewsMatchConfig returns the default configuration
func DefaultNewsMatchConfig() NewsMatchConfig {
	return NewsMatchConfig{
		WindowDays:  2,
		MaxArticles: 3,
	}
}

// NewsMatcher attaches nearby headlines to spikes
type NewsMatcher struct {
	config NewsMatchConfig
	logger arbor.ILogger
}

// NewNewsMatcher creates a new news matcher
func NewNewsMatcher(config NewsMatchConfig, logger arbor.ILogger) *NewsMatcher {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &NewsMatcher{config: config, logger: logger}
}

// Match fills MatchedNews, Explanation and Confidence on each spike in place.
// Spikes with no nearby news get the fallback explanation and low confidence.
func (m *NewsMatcher) Match(spikes []models.SpikeRecord, feed models.NewsFeed) {
	for i := range spikes {
		spike := &spikes[i]
		matched := m.nearby(spike, feed[spike.EntityCode])
		spike.MatchedNews = matched

		explanation := FallbackExplanation
		spike.Confidence = models.ConfidenceLow
		if len(matched) > 0 {
			explanation = matched[0].Title
			spike.Confidence = models.ConfidenceHigh
		} else {
			m.logger.Debug().
				Str("entity", spike.EntityCode).
				Str("date", spike.Date).
				Msg("No news near spike, using fallback explanation")
		}
		spike.Explanation = &explanation
	}
}

func (m *NewsMatcher) nearby(spike *models.SpikeRecord, articles []models.NewsArticle) []models.NewsArticle {
	matched := []models.NewsArticle{}

	spikeDate, err := models.ParseDate(spike.Date)
	if err != nil {
		m.logger.Warn().Str("date", spike.Date).Err(err).Msg("Spike has unparseable date")
		return matched
	}

	type candidate struct {
		article  models.NewsArticle
		distance time.Duration
	}
	window := time.Duration(m.config.WindowDays) * 24 * time.Hour
	var candidates []candidate
	for _, a := range articles {
		published, ok := a.PublishedOn()
		if !ok {
			continue
		}
		distance := published.Sub(spikeDate)
		if distance < 0 {
			distance = -distance
		}
		if distance <= window {
			candidates = append(candidates, candidate{article: a, distance: distance})
		}
	}

	if m.config.SortByProximity {
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].distance < candidates[j].distance
		})
	}

	for _, c := range candidates {
		if m.config.MaxArticles > 0 && len(matched) >= m.config.MaxArticles {
			break
		}
		matched = append(matched, c.article)
	}
	return matched
}
