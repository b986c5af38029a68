package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/peakwatch/stock-gateway/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu       sync.RWMutex
	catalogs map[string]*model.MarketCatalog
	manifest *model.RefreshManifest
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		catalogs: make(map[string]*model.MarketCatalog),
	}
}

func (s *MemoryStore) LoadCatalog(_ context.Context, marketCode string) (*model.MarketCatalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.catalogs[marketCode]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, marketCode)
	}

	// Return a copy to avoid external mutation.
	out := model.MarketCatalog{
		MarketCode: c.MarketCode,
		Stocks:     append([]model.Symbol(nil), c.Stocks...),
	}
	return &out, nil
}

func (s *MemoryStore) SaveCatalog(_ context.Context, catalog *model.MarketCatalog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := model.MarketCatalog{
		MarketCode: catalog.MarketCode,
		Stocks:     append([]model.Symbol(nil), catalog.Stocks...),
	}
	s.catalogs[catalog.MarketCode] = &stored
	return nil
}

func (s *MemoryStore) LoadManifest(_ context.Context) (*model.RefreshManifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.manifest == nil {
		return nil, ErrNotFound
	}
	out := *s.manifest
	return &out, nil
}

func (s *MemoryStore) SaveManifest(_ context.Context, manifest *model.RefreshManifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *manifest
	s.manifest = &stored
	return nil
}
