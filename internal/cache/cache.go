package cache

import (
	"context"
	"time"

	"fuelpos/backend/internal/domain"
)

// ReportCache holds rendered daily reports keyed per station and day. Writes
// that change a day's figures delete the key instead of rewriting it.
type ReportCache interface {
	Get(ctx context.Context, key string) (*domain.DailyReport, bool, error)
	Set(ctx context.Context, key string, value *domain.DailyReport, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type noopReportCache struct{}

// NewNoop returns a cache that stores nothing. Used when no Redis address is
// configured and in tests.
func NewNoop() ReportCache {
	return noopReportCache{}
}

func (noopReportCache) Get(_ context.Context, _ string) (*domain.DailyReport, bool, error) {
	return nil, false, nil
}

func (noopReportCache) Set(_ context.Context, _ string, _ *domain.DailyReport, _ time.Duration) error {
	return nil
}

func (noopReportCache) Delete(_ context.Context, _ string) error {
	return nil
}
