package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"
)

// DateLayout is the calendar-date format used for every date in inputs and artifacts.
const DateLayout = "2006-01-02"

// partialColumn is the provider's "incomplete day" flag; it is not an entity value.
const partialColumn = "isPartial"

// ParseDate parses a YYYY-MM-DD calendar date in UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// DailyRecord holds one day's interest value per entity code.
type DailyRecord struct {
	Date   time.Time
	Values map[string]int
}

// DateString returns the record date as YYYY-MM-DD.
func (r DailyRecord) DateString() string {
	return r.Date.Format(DateLayout)
}

// Value returns the entity's value, 0 when absent.
func (r DailyRecord) Value(code string) int {
	return r.Values[code]
}

// MarshalJSON writes the flat provider shape: {"date": "...", "<code>": n, ...}.
// Codes are written in sorted order so output is byte-stable.
func (r DailyRecord) MarshalJSON() ([]byte, error) {
	codes := make([]string, 0, len(r.Values))
	for code := range r.Values {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var buf bytes.Buffer
	buf.WriteString(`{"date":`)
	date, _ := json.Marshal(r.DateString())
	buf.Write(date)
	for _, code := range codes {
		key, err := json.Marshal(code)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(key)
		fmt.Fprintf(&buf, ":%d", r.Values[code])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the flat provider shape. A missing or unparseable date, or a
// non-numeric or negative value, is an error so callers can skip the record.
func (r *DailyRecord) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("record is not an object: %w", err)
	}

	rawDate, ok := fields["date"]
	if !ok {
		return fmt.Errorf("record has no date")
	}
	var dateStr string
	if err := json.Unmarshal(rawDate, &dateStr); err != nil {
		return fmt.Errorf("record date is not a string: %w", err)
	}
	date, err := ParseDate(dateStr)
	if err != nil {
		return fmt.Errorf("record date %q: %w", dateStr, err)
	}

	values := make(map[string]int, len(fields)-1)
	for key, raw := range fields {
		if key == "date" || key == partialColumn {
			continue
		}
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			values[key] = 0
			continue
		}
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("value for %q on %s is not numeric", key, dateStr)
		}
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("value for %q on %s is out of range: %v", key, dateStr, v)
		}
		values[key] = int(math.Round(v))
	}

	r.Date = date
	r.Values = values
	return nil
}

// InterestSeries is one capture of daily interest for a geography.
type InterestSeries struct {
	Geo       string        `json:"geo"`
	Timeframe string        `json:"timeframe"`
	Records   []DailyRecord `json:"data"`
}

// IsEmpty reports whether the series is nil or has no records.
func (s *InterestSeries) IsEmpty() bool {
	return s == nil || len(s.Records) == 0
}

// Values returns the entity's values in record order.
func (s *InterestSeries) Values(code string) []int {
	if s == nil {
		return nil
	}
	out := make([]int, len(s.Records))
	for i, r := range s.Records {
		out[i] = r.Value(code)
	}
	return out
}
