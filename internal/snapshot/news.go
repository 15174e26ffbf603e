package snapshot

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ternarybob/poltrends/internal/models"
)

// pubDateLayouts are the RSS pubDate forms seen from news feeds.
var pubDateLayouts = []string{
	time.RFC1123,
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	time.RFC3339,
}

// rawArticle accepts both the stored shape and raw RSS item field names.
type rawArticle struct {
	Title   string  `json:"title"`
	Source  string  `json:"source"`
	URL     string  `json:"url"`
	Link    string  `json:"link"`
	Date    *string `json:"date"`
	PubDate string  `json:"pubDate"`
}

// ReadNews reads news.json keyed by entity code or provider id, cleaning titles and dates.
func (s *Store) ReadNews(date, subdir string, registry *models.Registry) (models.NewsFeed, error) {
	path := s.RawPath(date, subdir, NewsFile)
	data, err := s.readFile(path)
	if err != nil {
		return nil, err
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	keys, shadowed, unknown := resolveKeys(registry, doc)
	for _, key := range unknown {
		s.logger.Debug().Str("path", path).Str("key", key).Msg("Ignoring news for unknown entity")
	}
	if len(shadowed) > 0 {
		s.logger.Warn().Str("path", path).Strs("keys", shadowed).Msg("Ignoring news keyed by provider id shadowed by entity code")
	}

	feed := make(models.NewsFeed, len(keys))
	for code, key := range keys {
		var items []json.RawMessage
		if err := json.Unmarshal(doc[key], &items); err != nil {
			s.logger.Warn().Str("path", path).Str("entity", code).Err(err).Msg("Skipping malformed news list")
			continue
		}

		articles := make([]models.NewsArticle, 0, len(items))
		for i, item := range items {
			var ra rawArticle
			if err := json.Unmarshal(item, &ra); err != nil {
				s.logger.Warn().Str("entity", code).Int("article", i).Err(err).Msg("Skipping malformed news article")
				continue
			}
			articles = append(articles, CleanArticle(ra.Title, ra.Source, firstNonEmpty(ra.URL, ra.Link), ra.date()))
		}
		feed[code] = articles
	}
	return feed, nil
}

func (r rawArticle) date() *string {
	if r.Date != nil {
		return r.Date
	}
	if r.PubDate != "" {
		d := r.PubDate
		return &d
	}
	return nil
}

// CleanArticle strips markup from the title, splits a trailing " - Source" into source
// when source is empty, and normalizes RSS pubDates to YYYY-MM-DD. Unparseable dates are
// kept as given so the matcher treats the article as undated. When source is already set
// the title is only trimmed of a suffix naming that source, so cleaning is idempotent.
func CleanArticle(title, source, url string, date *string) models.NewsArticle {
	title = stripMarkup(title)
	source = strings.TrimSpace(source)
	if idx := strings.LastIndex(title, " - "); idx >= 0 {
		suffix := strings.TrimSpace(title[idx+3:])
		switch {
		case source == "" && suffix != "":
			source = suffix
			title = strings.TrimSpace(title[:idx])
		case strings.EqualFold(suffix, source):
			title = strings.TrimSpace(title[:idx])
		}
	}

	a := models.NewsArticle{
		Title:  title,
		Source: source,
		URL:    strings.TrimSpace(url),
	}
	if date != nil {
		d := normalizeDate(strings.TrimSpace(*date))
		a.Date = &d
	}
	return a
}

func stripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func normalizeDate(s string) string {
	if _, err := models.ParseDate(s); err == nil {
		return s
	}
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(models.DateLayout)
		}
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
