package provider

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/poltrends/internal/analytics"
	"github.com/ternarybob/poltrends/internal/models"
	"github.com/ternarybob/poltrends/internal/snapshot"
)

func testRegistry(t *testing.T, n int) *models.Registry {
	t.Helper()
	codes := []string{"ALP", "LIB", "GRN", "NAT", "PHON", "UAP", "IND"}[:n]
	entities := make([]models.Entity, len(codes))
	for i, c := range codes {
		entities[i] = models.Entity{Code: c, DisplayName: c, ShortName: c, ProviderID: "/m/" + c}
	}
	reg, err := models.NewRegistry("AU", "today 3-m", entities)
	require.NoError(t, err)
	return reg
}

func TestFetchAll_FailuresBecomeEmptyBatches(t *testing.T) {
	reg := testRegistry(t, 7)
	plan := analytics.NewBatchNormalizer(reg, analytics.DefaultNormalizerConfig(), arbor.NewLogger()).Plan()

	var mu sync.Mutex
	var seen []BatchRequest
	fetcher := FetcherFunc(func(ctx context.Context, req BatchRequest) (*models.InterestSeries, error) {
		mu.Lock()
		seen = append(seen, req)
		mu.Unlock()
		if req.Index == 2 {
			return nil, &FetchError{Batch: 2, Err: errors.New("429 too many requests")}
		}
		return &models.InterestSeries{Geo: req.Geo}, nil
	})

	results, err := FetchAll(context.Background(), fetcher, reg, plan, arbor.NewLogger())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.NotNil(t, results[0].Series)
	assert.Nil(t, results[1].Series)
	assert.Equal(t, []string{"ALP", "UAP", "IND"}, results[1].Batch.Codes)

	require.Len(t, seen, 2)
	assert.Equal(t, "AU", seen[0].Geo)
	assert.Equal(t, "today 3-m", seen[1].Timeframe)
}

func TestFetchAll_Cancelled(t *testing.T) {
	reg := testRegistry(t, 2)
	plan := []analytics.Batch{{Index: 1, Codes: reg.Codes()}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := FetchAll(ctx, FetcherFunc(func(ctx context.Context, req BatchRequest) (*models.InterestSeries, error) {
		t.Fatal("fetcher should not be called")
		return nil, nil
	}), reg, plan, arbor.NewLogger())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchError(t *testing.T) {
	inner := errors.New("boom")
	err := error(&FetchError{Batch: 3, Err: inner})
	assert.Equal(t, "batch 3: boom", err.Error())
	assert.ErrorIs(t, err, inner)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 3, fe.Batch)
}

func TestSnapshotFetcher(t *testing.T) {
	reg := testRegistry(t, 2)
	store := snapshot.NewStore(t.TempDir(), arbor.NewLogger())
	dir := filepath.Dir(store.RawPath("2025-03-10", "", snapshot.InterestFile))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, snapshot.InterestFile),
		[]byte(`{"geo": "AU", "data": [{"date": "2025-03-01", "ALP": 5, "LIB": 6}]}`), 0o644))

	f := NewSnapshotFetcher(store, "2025-03-10", "", reg)

	series, err := f.FetchBatch(context.Background(), BatchRequest{Index: 1, Codes: reg.Codes()})
	require.NoError(t, err)
	require.Len(t, series.Records, 1)
	assert.Equal(t, 6, series.Records[0].Value("LIB"))

	_, err = f.FetchBatch(context.Background(), BatchRequest{Index: 2})
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 2, fe.Batch)
	assert.ErrorIs(t, err, snapshot.ErrNotFound)
}

func TestPaced(t *testing.T) {
	calls := 0
	base := FetcherFunc(func(ctx context.Context, req BatchRequest) (*models.InterestSeries, error) {
		calls++
		return &models.InterestSeries{}, nil
	})

	// Disabled pacing returns the fetcher unchanged.
	assert.NotNil(t, Paced(base, 0))
	_, isPaced := Paced(base, 0).(*pacedFetcher)
	assert.False(t, isPaced)

	paced := Paced(base, 50*time.Millisecond)
	start := time.Now()
	for i := 1; i <= 3; i++ {
		_, err := paced.FetchBatch(context.Background(), BatchRequest{Index: i})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, calls)
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestPaced_RespectsContext(t *testing.T) {
	base := FetcherFunc(func(ctx context.Context, req BatchRequest) (*models.InterestSeries, error) {
		return &models.InterestSeries{}, nil
	})
	paced := Paced(base, time.Hour)

	_, err := paced.FetchBatch(context.Background(), BatchRequest{Index: 1})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = paced.FetchBatch(ctx, BatchRequest{Index: 2})
	assert.Error(t, err)
}
