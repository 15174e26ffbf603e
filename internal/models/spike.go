package models

// SpikeRecord is one day where an entity's interest jumped well above its trailing average.
type SpikeRecord struct {
	Date        string        `json:"date"`
	EntityCode  string        `json:"entity_code"`
	EntityName  string        `json:"entity_name"`
	Value       int           `json:"value"`
	RollingAvg  float64       `json:"rolling_avg"`
	Ratio       float64       `json:"ratio"`
	Explanation *string       `json:"explanation"`
	MatchedNews []NewsArticle `json:"matched_news"`
	Confidence  Confidence    `json:"confidence"`
}

// HasExplanation reports whether an explanation has been attached.
func (s *SpikeRecord) HasExplanation() bool {
	return s.Explanation != nil && *s.Explanation != ""
}
