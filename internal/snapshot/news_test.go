package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestCleanArticle(t *testing.T) {
	strp := func(s string) *string { return &s }

	tests := []struct {
		name       string
		title      string
		source     string
		date       *string
		wantTitle  string
		wantSource string
		wantDate   *string
	}{
		{
			name:       "google news suffix becomes source",
			title:      "Labor unveils housing plan - ABC News",
			date:       strp("Fri, 21 Feb 2025 03:00:00 GMT"),
			wantTitle:  "Labor unveils housing plan",
			wantSource: "ABC News",
			wantDate:   strp("2025-02-21"),
		},
		{
			name:       "suffix matching existing source is trimmed",
			title:      "Greens push rent freeze - The Guardian",
			source:     "The Guardian",
			date:       strp("2025-02-20"),
			wantTitle:  "Greens push rent freeze",
			wantSource: "The Guardian",
			wantDate:   strp("2025-02-20"),
		},
		{
			name:       "existing source keeps hyphenated headline",
			title:      "Coalition - Greens preference deal",
			source:     "The Guardian",
			wantTitle:  "Coalition - Greens preference deal",
			wantSource: "The Guardian",
		},
		{
			name:      "markup and entities stripped",
			title:     "<b>Dutton</b> &amp; the  budget",
			wantTitle: "Dutton & the budget",
		},
		{
			name:      "unparseable date kept raw",
			title:     "Headline",
			date:      strp("last Tuesday"),
			wantTitle: "Headline",
			wantDate:  strp("last Tuesday"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := CleanArticle(tt.title, tt.source, " https://example.com/a ", tt.date)
			assert.Equal(t, tt.wantTitle, a.Title)
			assert.Equal(t, tt.wantSource, a.Source)
			assert.Equal(t, "https://example.com/a", a.URL)
			if tt.wantDate == nil {
				assert.Nil(t, a.Date)
			} else {
				require.NotNil(t, a.Date)
				assert.Equal(t, *tt.wantDate, *a.Date)
			}
		})
	}
}

func TestCleanArticle_Idempotent(t *testing.T) {
	titles := []string{
		"Albanese - Dutton debate heats up - ABC News",
		"Coalition - Greens preference deal - The Guardian",
		"Budget reply - SBS",
		"No suffix here",
	}

	for _, title := range titles {
		t.Run(title, func(t *testing.T) {
			once := CleanArticle(title, "", "https://example.com/a", nil)
			twice := CleanArticle(once.Title, once.Source, once.URL, once.Date)
			assert.Equal(t, once, twice)
		})
	}

	once := CleanArticle("Albanese - Dutton debate heats up - ABC News", "", "", nil)
	assert.Equal(t, "Albanese - Dutton debate heats up", once.Title)
	assert.Equal(t, "ABC News", once.Source)
}

func TestStore_ReadNews(t *testing.T) {
	store := NewStore(t.TempDir(), arbor.NewLogger())
	reg := testRegistry(t)

	writeRaw(t, store, "2025-03-10", "", NewsFile, `{
		"ALP": [
			{"title": "Albanese speaks - SBS", "source": "", "url": "https://sbs/1", "date": "2025-03-09"},
			{"title": "Undated", "url": "https://x/2", "date": null},
			42,
			{"title": "RSS item", "link": "https://rss/3", "pubDate": "Sun, 09 Mar 2025 21:00:00 GMT"},
			{"title": "Coalition - Greens preference deal", "source": "The Guardian", "url": "https://g/4", "date": "2025-03-08"}
		],
		"/m/0lib": [],
		"NOPE": [{"title": "ignored"}]
	}`)

	feed, err := store.ReadNews("2025-03-10", "", reg)
	require.NoError(t, err)
	require.Len(t, feed["ALP"], 4)
	assert.Equal(t, "Albanese speaks", feed["ALP"][0].Title)
	assert.Equal(t, "SBS", feed["ALP"][0].Source)
	assert.Nil(t, feed["ALP"][1].Date)
	assert.Equal(t, "https://rss/3", feed["ALP"][2].URL)
	assert.Equal(t, "2025-03-09", *feed["ALP"][2].Date)
	assert.Equal(t, "Coalition - Greens preference deal", feed["ALP"][3].Title)
	assert.Equal(t, "The Guardian", feed["ALP"][3].Source)
	assert.Empty(t, feed["LIB"])
	_, ok := feed["NOPE"]
	assert.False(t, ok)
}
