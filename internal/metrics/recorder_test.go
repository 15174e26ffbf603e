package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/poltrends/internal/models"
)

func TestRecorder_Gauges(t *testing.T) {
	r := NewRecorder()

	r.RecordSeries("federal", &models.InterestSeries{Records: make([]models.DailyRecord, 14)})
	r.RecordSpikes("federal", []models.SpikeRecord{{}, {}, {}})
	r.RecordSentiment("federal", map[string]models.SentimentResult{
		"ALP": {Score: 0.5},
		"LIB": {Score: -0.25},
	})
	r.RecordWeekly("federal", models.WeeklyAnalysis{
		AvgInterest:    map[string]float64{"ALP": 42.5},
		CombinedScores: map[string]float64{"ALP": 0.81},
	})

	assert.Equal(t, 14.0, testutil.ToFloat64(r.SeriesRecords.WithLabelValues("federal")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.SpikesDetected.WithLabelValues("federal")))
	assert.Equal(t, 0.5, testutil.ToFloat64(r.SentimentScore.WithLabelValues("federal", "ALP")))
	assert.Equal(t, -0.25, testutil.ToFloat64(r.SentimentScore.WithLabelValues("federal", "LIB")))
	assert.Equal(t, 42.5, testutil.ToFloat64(r.AvgInterest.WithLabelValues("federal", "ALP")))
	assert.Equal(t, 0.81, testutil.ToFloat64(r.CombinedScore.WithLabelValues("federal", "ALP")))
}

func TestRecorder_ObserveStep(t *testing.T) {
	r := NewRecorder()

	r.ObserveStep("vic", "spikes", 20*time.Millisecond, nil)
	r.ObserveStep("vic", "spikes", 10*time.Millisecond, nil)
	r.ObserveStep("vic", "spikes", time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(r.StepRuns.WithLabelValues("vic", "spikes", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.StepRuns.WithLabelValues("vic", "spikes", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.StepDuration))
}

func TestRecorder_Flush(t *testing.T) {
	r := NewRecorder()
	at := time.Date(2025, 3, 10, 6, 30, 0, 0, time.UTC)
	r.RecordRun("federal", "daily", at)

	path := filepath.Join(t.TempDir(), "textfile", "poltrends.prom")
	require.NoError(t, r.Flush(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `poltrends_last_run_timestamp_seconds{command="daily",geography="federal"} 1.7415882e+09`)
}

func TestRecorder_FlushWithoutPath(t *testing.T) {
	assert.NoError(t, NewRecorder().Flush(""))
}

func TestRecorder_Nil(t *testing.T) {
	var r *Recorder

	assert.NotPanics(t, func() {
		r.ObserveStep("federal", "normalize", time.Second, nil)
		r.RecordSeries("federal", &models.InterestSeries{})
		r.RecordSpikes("federal", nil)
		r.RecordSentiment("federal", nil)
		r.RecordWeekly("federal", models.WeeklyAnalysis{})
		r.RecordRun("federal", "daily", time.Now())
	})
	assert.Nil(t, r.Registry())
	assert.NoError(t, r.Flush("/nonexistent/poltrends.prom"))
}
