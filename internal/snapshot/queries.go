package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/ternarybob/poltrends/internal/models"
)

// ReadRelatedQueries reads related_queries.json keyed by entity code or provider id.
// Entities whose entry cannot be decoded are skipped with a warning.
func (s *Store) ReadRelatedQueries(date, subdir string, registry *models.Registry) (map[string]models.RelatedQueries, error) {
	path := s.RawPath(date, subdir, RelatedQueriesFile)
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
		s.logger.Debug().Str("path", path).Str("key", key).Msg("Ignoring related queries for unknown entity")
	}
	if len(shadowed) > 0 {
		s.logger.Warn().Str("path", path).Strs("keys", shadowed).Msg("Ignoring related queries keyed by provider id shadowed by entity code")
	}

	out := make(map[string]models.RelatedQueries, len(keys))
	for code, key := range keys {
		var rq models.RelatedQueries
		if err := json.Unmarshal(doc[key], &rq); err != nil {
			s.logger.Warn().Str("path", path).Str("entity", code).Err(err).Msg("Skipping malformed related queries")
			continue
		}
		out[code] = rq
	}
	return out, nil
}

// ReadSentiment reads sentiment_analysis.json written by WriteSentiment.
func (s *Store) ReadSentiment(date, subdir string) (map[string]models.SentimentResult, error) {
	path := s.ProcessedPath(date, subdir, SentimentFile)
	data, err := s.readFile(path)
	if err != nil {
		return nil, err
	}
	var out map[string]models.SentimentResult
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return out, nil
}

// WriteSentiment writes per-entity sentiment results.
func (s *Store) WriteSentiment(date, subdir string, results map[string]models.SentimentResult) error {
	return s.writeJSON(s.ProcessedPath(date, subdir, SentimentFile), results)
}

// WriteSpikes writes the enriched spike list.
func (s *Store) WriteSpikes(date, subdir string, spikes []models.SpikeRecord) error {
	if spikes == nil {
		spikes = []models.SpikeRecord{}
	}
	return s.writeJSON(s.ProcessedPath(date, subdir, SpikesFile), spikes)
}

// ReadSpikes reads spikes.json written by WriteSpikes.
func (s *Store) ReadSpikes(date, subdir string) ([]models.SpikeRecord, error) {
	path := s.ProcessedPath(date, subdir, SpikesFile)
	data, err := s.readFile(path)
	if err != nil {
		return nil, err
	}
	var out []models.SpikeRecord
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return out, nil
}
