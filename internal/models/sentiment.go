package models

import "encoding/json"

// Sentiment is the label assigned to a single query.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// QueryRecord is a classified search query.
type QueryRecord struct {
	Query      string     `json:"query"`
	Sentiment  Sentiment  `json:"sentiment"`
	Confidence Confidence `json:"confidence"`
}

// SentimentCounts tallies labels for one entity.
type SentimentCounts struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

// Add increments the counter for a label.
func (c *SentimentCounts) Add(s Sentiment) {
	switch s {
	case SentimentPositive:
		c.Positive++
	case SentimentNegative:
		c.Negative++
	default:
		c.Neutral++
	}
}

// SentimentResult aggregates the classified queries for one entity.
type SentimentResult struct {
	EntityCode        string          `json:"entity_code"`
	EntityName        string          `json:"entity_name"`
	QueriesAnalysed   int             `json:"queries_analysed"`
	Counts            SentimentCounts `json:"counts"`
	Score             float64         `json:"score"`
	ClassifiedQueries []QueryRecord   `json:"classified_queries"`
	Confidence        Confidence      `json:"confidence"`
}

// RelatedQuery is one provider related-query row. Value is kept raw since the
// provider mixes integers and strings such as "Breakout".
type RelatedQuery struct {
	Query string          `json:"query"`
	Value json.RawMessage `json:"value,omitempty"`
}

// RelatedQueries holds the top and rising queries for one entity.
type RelatedQueries struct {
	Top    []RelatedQuery `json:"top"`
	Rising []RelatedQuery `json:"rising"`
}

// All returns the query strings from top then rising, skipping empty ones.
func (r RelatedQueries) All() []string {
	out := make([]string, 0, len(r.Top)+len(r.Rising))
	for _, list := range [][]RelatedQuery{r.Top, r.Rising} {
		for _, q := range list {
			if q.Query != "" {
				out = append(out, q.Query)
			}
		}
	}
	return out
}
