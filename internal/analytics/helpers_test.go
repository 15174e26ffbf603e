package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ternarybob/poltrends/internal/models"
)

func testRegistry(t *testing.T, codes ...string) *models.Registry {
	t.Helper()
	entities := make([]models.Entity, len(codes))
	for i, code := range codes {
		entities[i] = models.Entity{
			Code:        code,
			DisplayName: code + " Party",
			ShortName:   code,
			ProviderID:  "/m/" + code,
		}
	}
	reg, err := models.NewRegistry("AU", "today 3-m", entities)
	require.NoError(t, err)
	return reg
}

func seriesStart() time.Time {
	return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
}

func day(i int) string {
	return seriesStart().AddDate(0, 0, i).Format(models.DateLayout)
}

// buildSeries builds a series from per-code value columns, starting at seriesStart.
func buildSeries(columns map[string][]int) *models.InterestSeries {
	n := 0
	for _, col := range columns {
		if len(col) > n {
			n = len(col)
		}
	}
	s := &models.InterestSeries{Geo: "AU", Timeframe: "today 3-m"}
	for i := 0; i < n; i++ {
		values := make(map[string]int, len(columns))
		for code, col := range columns {
			if i < len(col) {
				values[code] = col[i]
			}
		}
		s.Records = append(s.Records, models.DailyRecord{Date: seriesStart().AddDate(0, 0, i), Values: values})
	}
	return s
}

func repeat(v, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func codesN(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("E%d", i+1)
	}
	return out
}

func strPtr(s string) *string { return &s }
