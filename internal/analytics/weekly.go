package analytics

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/poltrends/internal/common"
	"github.com/ternarybob/poltrends/internal/models"
)

// Weekly window length and scoring weights. InterestWeight + SentimentWeight == 1.
const (
	WeekLength      = 7
	InterestWeight  = 0.7
	SentimentWeight = 0.3

	// sentimentLabelThreshold separates positive/negative from neutral in the summary.
	sentimentLabelThreshold = 0.1
)

// WeeklyScorer blends trailing interest and sentiment into weekly winners
type WeeklyScorer struct {
	registry *models.Registry
	logger   arbor.ILogger
}

// NewWeeklyScorer creates a new weekly scorer
func NewWeeklyScorer(registry *models.Registry, logger arbor.ILogger) *WeeklyScorer {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &WeeklyScorer{registry: registry, logger: logger}
}

// Score computes the weekly analysis. Every map carries every registry code.
func (s *WeeklyScorer) Score(series *models.InterestSeries, sentiment map[string]models.SentimentResult) models.WeeklyAnalysis {
	codes := s.registry.Codes()

	var records []models.DailyRecord
	if series != nil {
		records = series.Records
	}
	n := len(records)

	current := records
	if n > WeekLength {
		current = records[n-WeekLength:]
	}
	var previous []models.DailyRecord
	if n >= 2*WeekLength {
		previous = records[n-2*WeekLength : n-WeekLength]
	}

	analysis := models.WeeklyAnalysis{
		Period:          models.Period{Start: models.PeriodNA, End: models.PeriodNA},
		AvgInterest:     s.registry.ZeroFloats(),
		MomentumPct:     s.registry.ZeroFloats(),
		SentimentScores: s.registry.ZeroFloats(),
		CombinedScores:  s.registry.ZeroFloats(),
		Confidence:      models.ConfidenceHigh,
	}

	if len(current) > 0 {
		analysis.Period.Start = current[0].DateString()
		analysis.Period.End = current[len(current)-1].DateString()
	} else {
		s.logger.Warn().Str("geo", s.registry.Geo()).Msg("No interest records for weekly analysis")
		analysis.Confidence = models.ConfidenceUnknown
	}
	if len(previous) == 0 && len(current) > 0 {
		s.logger.Warn().
			Str("geo", s.registry.Geo()).
			Int("records", n).
			Msg("No previous week available, momentum is zero")
		analysis.Confidence = analysis.Confidence.Lower(models.ConfidenceLow)
	}

	avgInterest := make(map[string]float64, len(codes))
	maxInterest := 0.0
	searchWinner := codes[0]
	for _, code := range codes {
		cur := avg(recordValues(current, code))
		prev := avg(recordValues(previous, code))
		avgInterest[code] = cur
		analysis.AvgInterest[code] = round(cur, 1)
		analysis.MomentumPct[code] = round(pctChange(prev, cur), 1)

		if cur > avgInterest[searchWinner] {
			searchWinner = code
		}
		if cur > maxInterest {
			maxInterest = cur
		}
	}
	if maxInterest == 0 {
		maxInterest = 1
	}

	var missing []string
	overallWinner := codes[0]
	for _, code := range codes {
		result, ok := sentiment[code]
		if ok {
			analysis.SentimentScores[code] = result.Score
		} else {
			missing = append(missing, code)
		}

		normInterest := avgInterest[code] / maxInterest
		normSentiment := (analysis.SentimentScores[code] + 1) / 2
		analysis.CombinedScores[code] = round(InterestWeight*normInterest+SentimentWeight*normSentiment, 3)

		if analysis.CombinedScores[code] > analysis.CombinedScores[overallWinner] {
			overallWinner = code
		}
	}
	if len(missing) > 0 {
		s.logger.Warn().
			Str("geo", s.registry.Geo()).
			Strs("entities", missing).
			Msg("Missing sentiment for entities, using neutral score")
		analysis.Confidence = analysis.Confidence.Lower(models.ConfidenceLow)
	}

	analysis.SearchWinner = searchWinner
	analysis.OverallWinner = overallWinner
	analysis.Summary = s.summary(analysis)

	s.logger.Info().
		Str("geo", s.registry.Geo()).
		Str("period_start", analysis.Period.Start).
		Str("period_end", analysis.Period.End).
		Str("search_winner", searchWinner).
		Str("overall_winner", overallWinner).
		Msg("Weekly analysis complete")

	return analysis
}

func recordValues(records []models.DailyRecord, code string) []int {
	out := make([]int, len(records))
	for i, r := range records {
		out[i] = r.Value(code)
	}
	return out
}

// summary renders the markdown week-in-review for the overall winner.
func (s *WeeklyScorer) summary(a models.WeeklyAnalysis) string {
	winner := a.OverallWinner
	lines := []string{
		fmt.Sprintf("## Week in Review: %s to %s", a.Period.Start, a.Period.End),
		"",
		fmt.Sprintf("**%s** dominated search interest this week with an average score of %.1f.",
			s.registry.ShortName(winner), a.AvgInterest[winner]),
		"",
		"### Party Breakdown",
		"",
	}

	for _, code := range s.registry.Codes() {
		m := a.MomentumPct[code]
		momentum := "0%"
		if m != 0 {
			momentum = strconv.FormatFloat(m, 'f', 1, 64) + "%"
		}
		if m > 0 {
			momentum = "+" + momentum
		}
		score := a.SentimentScores[code]
		lines = append(lines, fmt.Sprintf("- **%s**: Avg interest %.1f (%s WoW), sentiment: %s (%+.2f)",
			s.registry.ShortName(code), a.AvgInterest[code], momentum, SentimentLabel(score), score))
	}

	return strings.Join(lines, "\n")
}

// SentimentLabel maps a sentiment score to its summary label.
func SentimentLabel(score float64) models.Sentiment {
	switch {
	case score > sentimentLabelThreshold:
		return models.SentimentPositive
	case score < -sentimentLabelThreshold:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}
