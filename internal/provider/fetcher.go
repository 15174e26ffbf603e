// Package provider is the boundary to the search-trend provider. The analytics core never
// fetches; it receives batch results gathered here.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/poltrends/internal/analytics"
	"github.com/ternarybob/poltrends/internal/common"
	"github.com/ternarybob/poltrends/internal/models"
)

// BatchRequest asks the provider for one batch of entities.
type BatchRequest struct {
	Index     int
	Codes     []string
	Geo       string
	Timeframe string
}

// BatchFetcher returns the interest series for one batch.
type BatchFetcher interface {
	FetchBatch(ctx context.Context, req BatchRequest) (*models.InterestSeries, error)
}

// FetcherFunc adapts a function to BatchFetcher.
type FetcherFunc func(ctx context.Context, req BatchRequest) (*models.InterestSeries, error)

// FetchBatch calls f.
func (f FetcherFunc) FetchBatch(ctx context.Context, req BatchRequest) (*models.InterestSeries, error) {
	return f(ctx, req)
}

// FetchError reports which batch failed.
type FetchError struct {
	Batch int
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("batch %d: %v", e.Batch, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// FetchAll fetches every planned batch in order. A failed batch becomes an empty result
// and a warning; only context cancellation aborts.
func FetchAll(ctx context.Context, fetcher BatchFetcher, registry *models.Registry, plan []analytics.Batch, logger arbor.ILogger) ([]analytics.BatchResult, error) {
	if logger == nil {
		logger = common.GetLogger()
	}

	results := make([]analytics.BatchResult, 0, len(plan))
	for _, batch := range plan {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		series, err := fetcher.FetchBatch(ctx, BatchRequest{
			Index:     batch.Index,
			Codes:     batch.Codes,
			Geo:       registry.Geo(),
			Timeframe: registry.Timeframe(),
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if errors.Is(err, context.Canceled) {
				return nil, err
			}
			logger.Warn().
				Str("geo", registry.Geo()).
				Int("batch", batch.Index).
				Strs("codes", batch.Codes).
				Err(err).
				Msg("Batch fetch failed, treating batch as empty")
			series = nil
		}
		results = append(results, analytics.BatchResult{Batch: batch, Series: series})
	}
	return results, nil
}
