// Package snapshot reads and writes the flat dated-file layout:
//
//	<data_dir>/raw/<YYYY-MM-DD>/[<subdir>/]        provider captures
//	<data_dir>/processed/<YYYY-MM-DD>/[<subdir>/]  derived artifacts
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/poltrends/internal/common"
	"github.com/ternarybob/poltrends/internal/models"
)

var (
	// ErrNoSnapshot is returned when the raw directory holds no dated captures.
	ErrNoSnapshot = errors.New("no raw snapshot found")
	// ErrNotFound is returned when a snapshot file does not exist.
	ErrNotFound = errors.New("snapshot file not found")
)

// File names inside a dated directory
const (
	RawDir       = "raw"
	ProcessedDir = "processed"

	InterestFile       = "interest_over_time.json"
	RelatedQueriesFile = "related_queries.json"
	NewsFile           = "news.json"
	SpikesFile         = "spikes.json"
	SentimentFile      = "sentiment_analysis.json"
	WeeklyFile         = "weekly_analysis.json"
	WeeklySummaryFile  = "weekly_summary.html"
)

// BatchFile returns the raw file name for a 1-based batch index.
func BatchFile(index int) string {
	return fmt.Sprintf("interest_batch_%02d.json", index)
}

// Store is a snapshot store rooted at the configured data directory
type Store struct {
	root   string
	logger arbor.ILogger
}

// NewStore creates a store rooted at dataDir
func NewStore(dataDir string, logger arbor.ILogger) *Store {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &Store{root: dataDir, logger: logger}
}

// Root returns the data directory
func (s *Store) Root() string {
	return s.root
}

// RawPath returns the path of a raw file; subdir may be empty.
func (s *Store) RawPath(date, subdir, name string) string {
	return filepath.Join(s.root, RawDir, date, subdir, name)
}

// ProcessedPath returns the path of a processed file; subdir may be empty.
func (s *Store) ProcessedPath(date, subdir, name string) string {
	return filepath.Join(s.root, ProcessedDir, date, subdir, name)
}

// HasRaw reports whether the raw directory for a date and subdir exists.
func (s *Store) HasRaw(date, subdir string) bool {
	info, err := os.Stat(filepath.Join(s.root, RawDir, date, subdir))
	return err == nil && info.IsDir()
}

// LatestDate returns the newest YYYY-MM-DD directory under raw/.
func (s *Store) LatestDate() (string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, RawDir))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoSnapshot
		}
		return "", fmt.Errorf("failed to list raw snapshots: %w", err)
	}

	var dates []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := models.ParseDate(e.Name()); err == nil {
			dates = append(dates, e.Name())
		}
	}
	if len(dates) == 0 {
		return "", ErrNoSnapshot
	}
	sort.Strings(dates)
	return dates[len(dates)-1], nil
}

func (s *Store) readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// encodeJSON renders indented JSON without HTML escaping and with a trailing newline.
// Map keys are sorted by encoding/json, so output is byte-stable.
func encodeJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeAtomic writes data to a temp file in the target directory and renames it into place.
func (s *Store) writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}

func (s *Store) writeJSON(path string, v interface{}) error {
	data, err := encodeJSON(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := s.writeAtomic(path, data); err != nil {
		return err
	}
	s.logger.Debug().Str("path", path).Int("bytes", len(data)).Msg("Wrote snapshot file")
	return nil
}

// resolveKeys maps registry codes to the document keys they are read from. An exact
// entity-code key wins over a provider id resolving to the same code. shadowed holds the
// keys that lost to another key for the same code, unknown the keys not in the registry;
// both are sorted.
func resolveKeys[V any](registry *models.Registry, doc map[string]V) (keys map[string]string, shadowed, unknown []string) {
	names := make([]string, 0, len(doc))
	for k := range doc {
		names = append(names, k)
	}
	sort.Strings(names)

	keys = make(map[string]string, len(doc))
	for _, key := range names {
		code, ok := registry.ResolveCode(key)
		if !ok {
			unknown = append(unknown, key)
			continue
		}
		prev, taken := keys[code]
		switch {
		case !taken:
			keys[code] = key
		case key == code:
			shadowed = append(shadowed, prev)
			keys[code] = key
		default:
			shadowed = append(shadowed, key)
		}
	}
	sort.Strings(shadowed)
	return keys, shadowed, unknown
}
