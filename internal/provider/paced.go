package provider

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/ternarybob/poltrends/internal/models"
)

// pacedFetcher waits on a limiter before each request.
type pacedFetcher struct {
	next    BatchFetcher
	limiter *rate.Limiter
}

// Paced spaces requests to next at least interval apart. A non-positive interval returns next unchanged.
func Paced(next BatchFetcher, interval time.Duration) BatchFetcher {
	if interval <= 0 {
		return next
	}
	return &pacedFetcher{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

func (p *pacedFetcher) FetchBatch(ctx context.Context, req BatchRequest) (*models.InterestSeries, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return p.next.FetchBatch(ctx, req)
}
