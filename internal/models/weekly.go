package models

// PeriodNA is used for both period bounds when there is no data.
const PeriodNA = "N/A"

// Period is the inclusive date range of the current weekly window.
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// WeeklyAnalysis is the weekly winner determination for one geography.
type WeeklyAnalysis struct {
	Period          Period             `json:"period"`
	AvgInterest     map[string]float64 `json:"avg_interest"`
	MomentumPct     map[string]float64 `json:"momentum_pct"`
	SentimentScores map[string]float64 `json:"sentiment_scores"`
	CombinedScores  map[string]float64 `json:"combined_scores"`
	SearchWinner    string             `json:"search_winner"`
	OverallWinner   string             `json:"overall_winner"`
	Summary         string             `json:"summary"`
	Confidence      Confidence         `json:"confidence"`
}
