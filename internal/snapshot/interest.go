package snapshot

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ternarybob/poltrends/internal/models"
)

// ReadRawInterest reads a raw interest file (a batch file or interest_over_time.json).
func (s *Store) ReadRawInterest(date, subdir, name string, registry *models.Registry) (*models.InterestSeries, error) {
	return s.readInterest(s.RawPath(date, subdir, name), registry)
}

// ReadSeries reads the normalized series written by WriteSeries.
func (s *Store) ReadSeries(date, subdir string, registry *models.Registry) (*models.InterestSeries, error) {
	return s.readInterest(s.ProcessedPath(date, subdir, InterestFile), registry)
}

// WriteSeries writes the normalized series.
func (s *Store) WriteSeries(date, subdir string, series *models.InterestSeries) error {
	return s.writeJSON(s.ProcessedPath(date, subdir, InterestFile), series)
}

// readInterest decodes an interest file record by record. Malformed records are skipped,
// provider ids are mapped to entity codes, and unknown columns are dropped. A column named
// by entity code wins over a provider id column for the same entity.
func (s *Store) readInterest(path string, registry *models.Registry) (*models.InterestSeries, error) {
	data, err := s.readFile(path)
	if err != nil {
		return nil, err
	}

	var doc struct {
		Geo       string            `json:"geo"`
		Timeframe string            `json:"timeframe"`
		Data      []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	series := &models.InterestSeries{
		Geo:       doc.Geo,
		Timeframe: doc.Timeframe,
		Records:   make([]models.DailyRecord, 0, len(doc.Data)),
	}
	if series.Geo == "" {
		series.Geo = registry.Geo()
	}
	if series.Timeframe == "" {
		series.Timeframe = registry.Timeframe()
	}

	seen := make(map[string]bool, len(doc.Data))
	skipped := 0
	unknown := map[string]bool{}
	for i, raw := range doc.Data {
		var rec models.DailyRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			s.logger.Warn().Str("path", path).Int("record", i).Err(err).Msg("Skipping malformed interest record")
			skipped++
			continue
		}
		if seen[rec.DateString()] {
			s.logger.Warn().Str("path", path).Str("date", rec.DateString()).Msg("Skipping duplicate interest date")
			skipped++
			continue
		}
		seen[rec.DateString()] = true

		keys, shadowed, unknownKeys := resolveKeys(registry, rec.Values)
		values := make(map[string]int, len(keys))
		for code, key := range keys {
			values[code] = rec.Values[key]
		}
		for _, key := range unknownKeys {
			unknown[key] = true
		}
		if len(shadowed) > 0 {
			s.logger.Warn().
				Str("path", path).
				Str("date", rec.DateString()).
				Strs("columns", shadowed).
				Msg("Ignoring provider id columns shadowed by entity code")
		}
		series.Records = append(series.Records, models.DailyRecord{Date: rec.Date, Values: values})
	}

	sort.SliceStable(series.Records, func(i, j int) bool {
		return series.Records[i].Date.Before(series.Records[j].Date)
	})

	if len(unknown) > 0 {
		keys := make([]string, 0, len(unknown))
		for k := range unknown {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		s.logger.Warn().Str("path", path).Strs("columns", keys).Msg("Ignoring columns not in registry")
	}
	s.logger.Debug().
		Str("path", path).
		Int("records", len(series.Records)).
		Int("skipped", skipped).
		Msg("Read interest series")

	return series, nil
}
