package ports

import (
	"context"
	"time"

	"cargo-dispatch-service/internal/domain"
)

// StatsCache keeps the last planning analysis for a bounded time.
type StatsCache interface {
	// Get reports false when the key is missing or expired.
	Get(ctx context.Context, key string) (domain.PlanningAnalysis, bool, error)
	Set(ctx context.Context, key string, v domain.PlanningAnalysis, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}
