package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/peakwatch/stock-gateway/internal/model"
)

// CachedStore wraps a primary Store with a Redis read-through cache.
// Reads check Redis first then fall back to the primary; saves write the
// primary and republish the cache entry in one Set, preserving the
// old-or-new (never partial) visibility guarantee for concurrent searches.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

func (s *CachedStore) LoadCatalog(ctx context.Context, marketCode string) (*model.MarketCatalog, error) {
	// Try cache.
	data, err := s.rdb.Get(ctx, catalogKey(marketCode)).Bytes()
	if err == nil {
		var c model.MarketCatalog
		if json.Unmarshal(data, &c) == nil {
			return &c, nil
		}
	}

	// Cache miss: read from primary.
	c, err := s.primary.LoadCatalog(ctx, marketCode)
	if err != nil {
		return nil, err
	}

	s.cacheCatalog(ctx, c)
	return c, nil
}

func (s *CachedStore) SaveCatalog(ctx context.Context, catalog *model.MarketCatalog) error {
	if err := s.primary.SaveCatalog(ctx, catalog); err != nil {
		return err
	}
	s.cacheCatalog(ctx, catalog)
	return nil
}

// --- Passthrough (not cached) ---

func (s *CachedStore) LoadManifest(ctx context.Context) (*model.RefreshManifest, error) {
	return s.primary.LoadManifest(ctx)
}

func (s *CachedStore) SaveManifest(ctx context.Context, manifest *model.RefreshManifest) error {
	return s.primary.SaveManifest(ctx, manifest)
}

func (s *CachedStore) cacheCatalog(ctx context.Context, c *model.MarketCatalog) {
	if data, err := json.Marshal(c); err == nil {
		s.rdb.Set(ctx, catalogKey(c.MarketCode), data, s.ttl)
	}
}

func catalogKey(code string) string { return fmt.Sprintf("catalog:%s", code) }
