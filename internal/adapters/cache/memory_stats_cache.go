package cache

import (
	"context"
	"sync"
	"time"

	"cargo-dispatch-service/internal/domain"
)

type memoryEntry struct {
	value     domain.PlanningAnalysis
	expiresAt time.Time
}

// MemoryStatsCache is a process-local TTL cache. A zero or negative TTL
// stores the value without expiry.
type MemoryStatsCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStatsCache() *MemoryStatsCache {
	return &MemoryStatsCache{entries: map[string]memoryEntry{}, now: time.Now}
}

// WithClock replaces the time source. Intended for tests.
func (c *MemoryStatsCache) WithClock(now func() time.Time) *MemoryStatsCache {
	c.now = now
	return c
}

func (c *MemoryStatsCache) Get(ctx context.Context, key string) (domain.PlanningAnalysis, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.PlanningAnalysis{}, false, nil
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return domain.PlanningAnalysis{}, false, nil
	}
	return e.value, true, nil
}

func (c *MemoryStatsCache) Set(ctx context.Context, key string, v domain.PlanningAnalysis, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := memoryEntry{value: v}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.entries[key] = e
	return nil
}

func (c *MemoryStatsCache) Invalidate(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}
