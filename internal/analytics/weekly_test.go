package analytics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/poltrends/internal/models"
)

func TestWeeklyScorer_InterestDominatesWeighting(t *testing.T) {
	reg := testRegistry(t, "A", "B")
	s := NewWeeklyScorer(reg, arbor.NewLogger())

	series := buildSeries(map[string][]int{
		"A": repeat(80, 7),
		"B": repeat(40, 7),
	})
	sentiment := map[string]models.SentimentResult{
		"A": {EntityCode: "A", Score: -1.0},
		"B": {EntityCode: "B", Score: 0.5},
	}

	a := s.Score(series, sentiment)
	assert.Equal(t, 80.0, a.AvgInterest["A"])
	assert.Equal(t, 40.0, a.AvgInterest["B"])
	assert.Equal(t, 0.7, a.CombinedScores["A"])
	assert.Equal(t, 0.575, a.CombinedScores["B"])
	assert.Equal(t, "A", a.SearchWinner)
	assert.Equal(t, "A", a.OverallWinner)
}

func TestWeeklyScorer_MomentumZeroWithoutPreviousWeek(t *testing.T) {
	reg := testRegistry(t, "A", "B")
	s := NewWeeklyScorer(reg, arbor.NewLogger())

	for _, n := range []int{1, 7, 10, 13} {
		a := s.Score(buildSeries(map[string][]int{
			"A": repeat(50, n),
			"B": repeat(5, n),
		}), nil)
		for _, code := range reg.Codes() {
			assert.Equal(t, 0.0, a.MomentumPct[code], "records=%d code=%s", n, code)
		}
		assert.Equal(t, models.ConfidenceLow, a.Confidence)
	}
}

func TestWeeklyScorer_MomentumZeroWhenPreviousAverageZero(t *testing.T) {
	reg := testRegistry(t, "A")
	s := NewWeeklyScorer(reg, arbor.NewLogger())

	values := append(repeat(0, 7), repeat(30, 7)...)
	a := s.Score(buildSeries(map[string][]int{"A": values}), nil)
	assert.Equal(t, 0.0, a.MomentumPct["A"])
	assert.Equal(t, 30.0, a.AvgInterest["A"])
}

func TestWeeklyScorer_Windows(t *testing.T) {
	reg := testRegistry(t, "A", "B")
	s := NewWeeklyScorer(reg, arbor.NewLogger())

	// 16 records: the first two are outside both windows.
	a := append([]int{999, 999}, append(repeat(40, 7), repeat(50, 7)...)...)
	b := append([]int{0, 0}, append(repeat(20, 7), repeat(15, 7)...)...)

	result := s.Score(buildSeries(map[string][]int{"A": a, "B": b}), map[string]models.SentimentResult{
		"A": {Score: 0}, "B": {Score: 0},
	})

	assert.Equal(t, day(9), result.Period.Start)
	assert.Equal(t, day(15), result.Period.End)
	assert.Equal(t, 50.0, result.AvgInterest["A"])
	assert.Equal(t, 25.0, result.MomentumPct["A"])
	assert.Equal(t, -25.0, result.MomentumPct["B"])
	assert.Equal(t, models.ConfidenceHigh, result.Confidence)
}

func TestWeeklyScorer_TiesFollowRegistryOrder(t *testing.T) {
	reg := testRegistry(t, "B", "A")
	s := NewWeeklyScorer(reg, arbor.NewLogger())

	a := s.Score(buildSeries(map[string][]int{
		"A": repeat(30, 7),
		"B": repeat(30, 7),
	}), nil)

	assert.Equal(t, "B", a.SearchWinner)
	assert.Equal(t, "B", a.OverallWinner)
}

func TestWeeklyScorer_CombinedInRange(t *testing.T) {
	reg := testRegistry(t, "A", "B", "C")
	s := NewWeeklyScorer(reg, arbor.NewLogger())

	assert.Equal(t, 1.0, InterestWeight+SentimentWeight)

	for _, scores := range [][3]float64{{-1, 0, 1}, {1, 1, 1}, {-1, -1, -1}} {
		a := s.Score(buildSeries(map[string][]int{
			"A": repeat(100, 7),
			"B": repeat(3, 7),
			"C": repeat(0, 7),
		}), map[string]models.SentimentResult{
			"A": {Score: scores[0]}, "B": {Score: scores[1]}, "C": {Score: scores[2]},
		})
		for code, v := range a.CombinedScores {
			assert.GreaterOrEqual(t, v, 0.0, code)
			assert.LessOrEqual(t, v, 1.0, code)
		}
	}
}

func TestWeeklyScorer_NoData(t *testing.T) {
	reg := testRegistry(t, "A", "B")
	s := NewWeeklyScorer(reg, arbor.NewLogger())

	a := s.Score(&models.InterestSeries{}, nil)
	assert.Equal(t, models.PeriodNA, a.Period.Start)
	assert.Equal(t, models.PeriodNA, a.Period.End)
	assert.Equal(t, "A", a.SearchWinner)
	assert.Equal(t, models.ConfidenceUnknown, a.Confidence)
	assert.Len(t, a.AvgInterest, 2)
	assert.Equal(t, 0.15, a.CombinedScores["A"])
}

func TestWeeklyScorer_Summary(t *testing.T) {
	reg := testRegistry(t, "A", "B", "C")
	s := NewWeeklyScorer(reg, arbor.NewLogger())

	a := append(repeat(40, 7), repeat(50, 7)...)
	b := append(repeat(20, 7), repeat(15, 7)...)
	c := append(repeat(0, 7), repeat(10, 7)...)
	result := s.Score(buildSeries(map[string][]int{"A": a, "B": b, "C": c}), map[string]models.SentimentResult{
		"A": {Score: 0.5},
		"B": {Score: -0.25},
		"C": {Score: 0.1},
	})

	lines := strings.Split(result.Summary, "\n")
	require.Len(t, lines, 9)
	assert.Equal(t, "## Week in Review: "+day(7)+" to "+day(13), lines[0])
	assert.Equal(t, "**A** dominated search interest this week with an average score of 50.0.", lines[2])
	assert.Equal(t, "### Party Breakdown", lines[4])
	assert.Equal(t, "- **A**: Avg interest 50.0 (+25.0% WoW), sentiment: positive (+0.50)", lines[6])
	assert.Equal(t, "- **B**: Avg interest 15.0 (-25.0% WoW), sentiment: negative (-0.25)", lines[7])
	assert.Equal(t, "- **C**: Avg interest 10.0 (0% WoW), sentiment: neutral (+0.10)", lines[8])
}

func TestSentimentLabel(t *testing.T) {
	tests := []struct {
		score float64
		want  models.Sentiment
	}{
		{0.5, models.SentimentPositive},
		{0.11, models.SentimentPositive},
		{0.1, models.SentimentNeutral},
		{0, models.SentimentNeutral},
		{-0.1, models.SentimentNeutral},
		{-0.11, models.SentimentNegative},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SentimentLabel(tt.score), "score=%v", tt.score)
	}
}
