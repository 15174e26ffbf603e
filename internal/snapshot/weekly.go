package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/ternarybob/poltrends/internal/models"
)

// WriteWeekly writes weekly_analysis.json and the rendered summary fragment.
func (s *Store) WriteWeekly(date, subdir string, analysis models.WeeklyAnalysis) error {
	if err := s.writeJSON(s.ProcessedPath(date, subdir, WeeklyFile), analysis); err != nil {
		return err
	}

	fragment, err := RenderSummary(analysis.Summary)
	if err != nil {
		return fmt.Errorf("failed to render weekly summary: %w", err)
	}
	return s.writeAtomic(s.ProcessedPath(date, subdir, WeeklySummaryFile), fragment)
}

// ReadWeekly reads weekly_analysis.json written by WriteWeekly.
func (s *Store) ReadWeekly(date, subdir string) (*models.WeeklyAnalysis, error) {
	path := s.ProcessedPath(date, subdir, WeeklyFile)
	data, err := s.readFile(path)
	if err != nil {
		return nil, err
	}
	var out models.WeeklyAnalysis
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &out, nil
}

// RenderSummary converts the weekly markdown summary into an HTML fragment for the site builder.
func RenderSummary(markdown string) ([]byte, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)

	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
