package analytics

import (
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/poltrends/internal/common"
	"github.com/ternarybob/poltrends/internal/models"
)

// negativeKeywords and positiveKeywords are matched as lowercase substrings.
// Entries are chosen so they do not occur inside common party or leader terms.
var negativeKeywords = []string{
	"scandal",
	"corruption",
	"corrupt",
	"resign",
	"crisis",
	"fail",
	"liar",
	"controversy",
	"sacked",
	"leak",
	"chaos",
	"backflip",
	"broken promise",
	"investigation",
	"allegation",
	"inquiry",
	"protest",
	"rort",
	"waste",
	"blowout",
	"slump",
	"defeat",
	"disaster",
	"outrage",
}

var positiveKeywords = []string{
	"victory",
	"success",
	"support",
	"boost",
	"praise",
	"landslide",
	"achievement",
	"surge",
	"record high",
	"funding",
	"relief",
	"improve",
	"strong",
	"welcome",
	"breakthrough",
	"endorse",
}

// SentimentClassifier scores search queries with keyword lexicons
type SentimentClassifier struct {
	registry *models.Registry
	logger   arbor.ILogger
}

// NewSentimentClassifier creates a new sentiment classifier
func NewSentimentClassifier(registry *models.Registry, logger arbor.ILogger) *SentimentClassifier {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &SentimentClassifier{registry: registry, logger: logger}
}

// Classify labels a single query. Equal hit counts, including none, are neutral.
func (c *SentimentClassifier) Classify(query string) models.QueryRecord {
	q := strings.ToLower(query)
	neg := countHits(q, negativeKeywords)
	pos := countHits(q, positiveKeywords)

	rec := models.QueryRecord{Query: query, Sentiment: models.SentimentNeutral}
	switch {
	case neg > pos:
		rec.Sentiment = models.SentimentNegative
		rec.Confidence = models.ConfidenceHigh
	case pos > neg:
		rec.Sentiment = models.SentimentPositive
		rec.Confidence = models.ConfidenceHigh
	case pos > 0:
		rec.Confidence = models.ConfidenceLow
	default:
		rec.Confidence = models.ConfidenceUnknown
	}
	return rec
}

func countHits(q string, keywords []string) int {
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(q, kw) {
			hits++
		}
	}
	return hits
}

// Analyse classifies an entity's queries after dropping exact duplicates.
func (c *SentimentClassifier) Analyse(code string, queries []string) models.SentimentResult {
	result := models.SentimentResult{
		EntityCode:        code,
		EntityName:        c.registry.ShortName(code),
		ClassifiedQueries: []models.QueryRecord{},
		Confidence:        models.ConfidenceUnknown,
	}

	seen := make(map[string]bool, len(queries))
	anyHits := false
	for _, q := range queries {
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true

		rec := c.Classify(q)
		result.ClassifiedQueries = append(result.ClassifiedQueries, rec)
		result.Counts.Add(rec.Sentiment)
		if rec.Confidence != models.ConfidenceUnknown {
			anyHits = true
		}
	}

	result.QueriesAnalysed = len(result.ClassifiedQueries)
	total := result.QueriesAnalysed
	if total == 0 {
		total = 1
	}
	score := float64(result.Counts.Positive-result.Counts.Negative) / float64(total)
	result.Score = round(clamp(score, -1, 1), 2)

	switch {
	case result.QueriesAnalysed == 0:
		result.Confidence = models.ConfidenceUnknown
	case !anyHits:
		result.Confidence = models.ConfidenceLow
	default:
		result.Confidence = models.ConfidenceHigh
	}
	return result
}

// AnalyseAll produces a result for every registry entity, using top then rising queries.
// Entities without related queries get an empty result with unknown confidence.
func (c *SentimentClassifier) AnalyseAll(related map[string]models.RelatedQueries) map[string]models.SentimentResult {
	results := make(map[string]models.SentimentResult, c.registry.Len())
	var missing []string
	for _, code := range c.registry.Codes() {
		rq, ok := related[code]
		if !ok {
			missing = append(missing, code)
		}
		results[code] = c.Analyse(code, rq.All())
	}

	if len(missing) > 0 {
		c.logger.Warn().
			Str("geo", c.registry.Geo()).
			Strs("entities", missing).
			Msg("No related queries for entities, sentiment defaults to neutral")
	}
	return results
}
