// Package catalog provides read/write access to per-market symbol snapshots.
// Implementations include the file store (one JSON file per market, the
// refresher's native format), PostgreSQL, Redis (read-through cache), and
// in-memory (for testing). Catalog replacement is atomic at the storage
// layer: a reader sees either the old or the fully-written new catalog,
// never a partial one.
package catalog

import (
	"context"
	"errors"

	"github.com/peakwatch/stock-gateway/internal/model"
)

// ErrNotFound is returned when no snapshot exists for a market code.
// The search engine treats this as skip-and-continue, never a fatal abort.
var ErrNotFound = errors.New("catalog: not found")

// Store is the snapshot persistence interface. Catalogs are written whole
// by the refresher and read whole by the search engine.
type Store interface {
	// LoadCatalog retrieves the snapshot for a market code.
	// Returns ErrNotFound for an unknown or missing code.
	LoadCatalog(ctx context.Context, marketCode string) (*model.MarketCatalog, error)

	// SaveCatalog atomically replaces the snapshot for a market.
	SaveCatalog(ctx context.Context, catalog *model.MarketCatalog) error

	// LoadManifest retrieves the last refresh manifest, or ErrNotFound
	// if no refresh has completed yet.
	LoadManifest(ctx context.Context) (*model.RefreshManifest, error)

	// SaveManifest records the outcome of a refresh run.
	SaveManifest(ctx context.Context, manifest *model.RefreshManifest) error
}
