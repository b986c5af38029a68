// Package search implements case-insensitive substring search for a query
// string across a selectable subset of market catalogs.
package search

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/peakwatch/stock-gateway/internal/catalog"
	"github.com/peakwatch/stock-gateway/internal/classify"
	"github.com/peakwatch/stock-gateway/internal/metrics"
	"github.com/peakwatch/stock-gateway/internal/model"
)

// ErrEmptyQuery is returned when the query string is empty or missing.
var ErrEmptyQuery = errors.New("search: query is required")

// DefaultLimit caps the result list when the caller does not specify one;
// MaxLimit bounds client-supplied limits so an oversized value cannot
// drive the result preallocation.
const (
	DefaultLimit = 30
	MaxLimit     = 200
)

// Engine searches catalogs loaded from a snapshot store. The catalog list
// is injected as configuration so the engine is testable against fixture
// catalogs.
type Engine struct {
	store       catalog.Store
	marketCodes []string
}

// NewEngine creates a search engine over the given store. marketCodes is
// the full set of known catalogs, searched in order when no filter is given.
func NewEngine(store catalog.Store, marketCodes []string) *Engine {
	return &Engine{store: store, marketCodes: marketCodes}
}

// Result is the search response envelope. Count always equals len(Results)
// after truncation; Query echoes the original query string.
type Result struct {
	Results []model.ClassifiedSymbol `json:"results"`
	Count   int                      `json:"count"`
	Query   string                   `json:"query"`
}

// Search finds symbols whose code or name contains the query,
// case-insensitively, across the selected catalogs.
//
// Market tokens are normalized through the alias table; unrecognized tokens
// pass through as literal catalog codes. An absent filter searches every
// known catalog. Catalogs are scanned in list order and the concatenated
// result list is cut at limit (clamped to MaxLimit) — a prefix cut over
// catalog order, not a relevance ranking. A missing or corrupt catalog is
// logged and skipped;
// it degrades result completeness, not correctness.
func (e *Engine) Search(ctx context.Context, query string, marketFilter []string, limit int) (*Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	codes := e.marketCodes
	if len(marketFilter) > 0 {
		codes = make([]string, 0, len(marketFilter))
		for _, token := range marketFilter {
			codes = append(codes, classify.NormalizeMarketToken(token))
		}
	}

	needle := strings.ToLower(query)
	results := make([]model.ClassifiedSymbol, 0, limit)

	for _, code := range codes {
		if len(results) >= limit {
			break
		}

		cat, err := e.store.LoadCatalog(ctx, code)
		if err != nil {
			metrics.CatalogLoadFailures.WithLabelValues(code).Inc()
			slog.Warn("catalog unavailable, skipping", "market", code, "err", err)
			continue
		}

		for _, sym := range cat.Stocks {
			if len(results) >= limit {
				break
			}
			if !matches(sym, needle) {
				continue
			}
			results = append(results, model.ClassifiedSymbol{
				Symbol: sym,
				Type:   classify.InstrumentType(sym.Market, cat.MarketCode),
			})
		}
	}

	metrics.SearchesTotal.Inc()

	return &Result{
		Results: results,
		Count:   len(results),
		Query:   query,
	}, nil
}

// matches reports whether the case-folded query is a substring of the
// symbol code or name.
func matches(sym model.Symbol, needle string) bool {
	return strings.Contains(strings.ToLower(sym.Symbol), needle) ||
		strings.Contains(strings.ToLower(sym.Name), needle)
}
