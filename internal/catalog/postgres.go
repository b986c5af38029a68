package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/peakwatch/stock-gateway/internal/model"
)

// PostgresStore implements Store using PostgreSQL. Each market's snapshot is
// one row holding the symbol list as JSONB, replaced whole in a single
// upsert so readers never see a partial catalog.
//
// Schema:
//
//	CREATE TABLE market_catalogs (
//	    market_code TEXT PRIMARY KEY,
//	    stocks      JSONB NOT NULL,
//	    updated_at  TIMESTAMPTZ NOT NULL
//	);
//	CREATE TABLE refresh_manifest (
//	    id      INT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
//	    payload JSONB NOT NULL
//	);
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) LoadCatalog(ctx context.Context, marketCode string) (*model.MarketCatalog, error) {
	var stocksJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT stocks FROM market_catalogs WHERE market_code = $1`, marketCode).
		Scan(&stocksJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, marketCode)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: load %s: %w", marketCode, err)
	}

	var stocks []model.Symbol
	if err := json.Unmarshal(stocksJSON, &stocks); err != nil {
		return nil, fmt.Errorf("catalog: decode %s: %w", marketCode, err)
	}
	return &model.MarketCatalog{MarketCode: marketCode, Stocks: stocks}, nil
}

func (s *PostgresStore) SaveCatalog(ctx context.Context, catalog *model.MarketCatalog) error {
	stocksJSON, err := json.Marshal(catalog.Stocks)
	if err != nil {
		return fmt.Errorf("catalog: encode %s: %w", catalog.MarketCode, err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO market_catalogs (market_code, stocks, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (market_code)
		 DO UPDATE SET stocks = EXCLUDED.stocks, updated_at = NOW()`,
		catalog.MarketCode, stocksJSON)
	if err != nil {
		return fmt.Errorf("catalog: save %s: %w", catalog.MarketCode, err)
	}
	return nil
}

func (s *PostgresStore) LoadManifest(ctx context.Context) (*model.RefreshManifest, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM refresh_manifest WHERE id = 1`).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: load manifest: %w", err)
	}

	var manifest model.RefreshManifest
	if err := json.Unmarshal(payload, &manifest); err != nil {
		return nil, fmt.Errorf("catalog: decode manifest: %w", err)
	}
	return &manifest, nil
}

func (s *PostgresStore) SaveManifest(ctx context.Context, manifest *model.RefreshManifest) error {
	payload, err := json.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("catalog: encode manifest: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO refresh_manifest (id, payload) VALUES (1, $1)
		 ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload`,
		payload)
	if err != nil {
		return fmt.Errorf("catalog: save manifest: %w", err)
	}
	return nil
}
