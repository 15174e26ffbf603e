package models

import "time"

// NewsArticle is one headline associated with an entity.
// Date is nil when the upstream feed gave no date.
type NewsArticle struct {
	Title  string  `json:"title"`
	Source string  `json:"source"`
	URL    string  `json:"url"`
	Date   *string `json:"date"`
}

// PublishedOn parses the article date. ok is false when the date is missing or malformed.
func (a NewsArticle) PublishedOn() (time.Time, bool) {
	if a.Date == nil {
		return time.Time{}, false
	}
	t, err := ParseDate(*a.Date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// NewsFeed maps entity codes to their headlines in upstream order.
type NewsFeed map[string][]NewsArticle
