package provider

import (
	"context"
	"errors"

	"github.com/ternarybob/poltrends/internal/models"
	"github.com/ternarybob/poltrends/internal/snapshot"
)

// SnapshotFetcher replays batch captures from a raw snapshot directory.
type SnapshotFetcher struct {
	store    *snapshot.Store
	date     string
	subdir   string
	registry *models.Registry
}

// NewSnapshotFetcher creates a fetcher for raw/<date>/<subdir>/
func NewSnapshotFetcher(store *snapshot.Store, date, subdir string, registry *models.Registry) *SnapshotFetcher {
	return &SnapshotFetcher{store: store, date: date, subdir: subdir, registry: registry}
}

// FetchBatch reads interest_batch_NN.json. Batch 1 falls back to interest_over_time.json,
// which is how single-batch captures are stored.
func (f *SnapshotFetcher) FetchBatch(ctx context.Context, req BatchRequest) (*models.InterestSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	series, err := f.store.ReadRawInterest(f.date, f.subdir, snapshot.BatchFile(req.Index), f.registry)
	if errors.Is(err, snapshot.ErrNotFound) && req.Index == 1 {
		series, err = f.store.ReadRawInterest(f.date, f.subdir, snapshot.InterestFile, f.registry)
	}
	if err != nil {
		return nil, &FetchError{Batch: req.Index, Err: err}
	}
	return series, nil
}
