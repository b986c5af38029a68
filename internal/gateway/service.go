// Package gateway provides the HTTP handlers for the stock analytics
// gateway: symbol search, peak-drop analysis, chart payloads, and DCA
// backtest enrichment.
package gateway

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/peakwatch/stock-gateway/internal/backtest"
	"github.com/peakwatch/stock-gateway/internal/catalog"
	"github.com/peakwatch/stock-gateway/internal/chart"
	"github.com/peakwatch/stock-gateway/internal/classify"
	"github.com/peakwatch/stock-gateway/internal/drawdown"
	"github.com/peakwatch/stock-gateway/internal/metrics"
	"github.com/peakwatch/stock-gateway/internal/model"
	"github.com/peakwatch/stock-gateway/internal/refresh"
	"github.com/peakwatch/stock-gateway/internal/search"
	"github.com/peakwatch/stock-gateway/internal/upstream"
)

// Service handles gateway requests. All analytics are synchronous pure
// transforms over already-fetched data; the only I/O on the request path
// is the upstream provider call.
type Service struct {
	search    *search.Engine
	provider  *upstream.Client
	store     catalog.Store
	refresher *refresh.Refresher
}

// NewService creates a gateway service. refresher may be nil when the
// admin refresh endpoints are not exposed.
func NewService(engine *search.Engine, provider *upstream.Client, store catalog.Store, refresher *refresh.Refresher) *Service {
	return &Service{
		search:    engine,
		provider:  provider,
		store:     store,
		refresher: refresher,
	}
}

// Search handles GET /api/v1/search?query=&markets=&limit=
func (s *Service) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	var marketFilter []string
	if raw := q.Get("markets"); raw != "" {
		for _, token := range strings.Split(raw, ",") {
			if token = strings.TrimSpace(token); token != "" {
				marketFilter = append(marketFilter, token)
			}
		}
	}

	result, err := s.search.Search(r.Context(), q.Get("query"), marketFilter, limit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeData(w, http.StatusOK, result)
}

// PeakDrop handles GET /api/v1/peak-drop?symbol=&market=&days=
func (s *Service) PeakDrop(w http.ResponseWriter, r *http.Request) {
	record, ok := s.fetchRecord(w, r)
	if !ok {
		return
	}

	report, err := drawdown.Analyze(record)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeData(w, http.StatusOK, report)
}

// Chart handles GET /api/v1/chart?symbol=&market=&days=
func (s *Service) Chart(w http.ResponseWriter, r *http.Request) {
	record, ok := s.fetchRecord(w, r)
	if !ok {
		return
	}

	payload, err := chart.Project(record)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeData(w, http.StatusOK, payload)
}

// fetchRecord parses the shared symbol/market/days query parameters and
// fetches the upstream snapshot, writing the error response itself on
// failure.
func (s *Service) fetchRecord(w http.ResponseWriter, r *http.Request) (*model.StockRecord, bool) {
	q := r.URL.Query()

	symbol := q.Get("symbol")
	if symbol == "" {
		writeError(w, "symbol is required", http.StatusBadRequest)
		return nil, false
	}

	days := 0
	if raw := q.Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, "days must be a positive integer", http.StatusBadRequest)
			return nil, false
		}
		days = n
	}

	record, err := s.provider.FetchStockData(r.Context(), symbol, q.Get("market"), days)
	if err != nil {
		s.writeDomainError(w, err)
		return nil, false
	}
	return record, true
}

// HistoricalPrices handles GET /api/v1/backtest/historical-prices
// ?symbols=&start_date=&end_date=&interval= — proxies the multi-symbol
// price history and stamps each symbol's instrument type from its market
// label, the same classification the search results carry.
func (s *Service) HistoricalPrices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	symbols := q.Get("symbols")
	if symbols == "" || q.Get("start_date") == "" {
		writeError(w, "symbols and start date are required", http.StatusBadRequest)
		return
	}

	prices, err := s.provider.FetchHistoricalPrices(r.Context(),
		symbols, q.Get("start_date"), q.Get("end_date"), q.Get("interval"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	for _, history := range prices.Data {
		history.Type = classify.InstrumentType(history.Market, "")
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "success",
		"data":              prices.Data,
		"symbols_requested": prices.SymbolsRequested,
		"symbols_found":     prices.SymbolsFound,
	})
}

// MarketIndices handles GET /api/v1/market-indices — passes through the
// provider's latest index quotes.
func (s *Service) MarketIndices(w http.ResponseWriter, r *http.Request) {
	indices, err := s.provider.FetchMarketIndices(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, indices)
}

// RunBacktest handles POST /api/v1/backtest/dca — validates the request,
// dispatches the simulation upstream, and enriches the raw result.
func (s *Service) RunBacktest(w http.ResponseWriter, r *http.Request) {
	var req model.BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if report := backtest.Validate(&req); !report.Valid {
		metrics.BacktestsTotal.WithLabelValues("invalid").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"status": "error",
			"valid":  false,
			"errors": report.Errors,
		})
		return
	}

	result, err := s.provider.RunBacktest(r.Context(), &req)
	if err != nil {
		metrics.BacktestsTotal.WithLabelValues("error").Inc()
		s.writeDomainError(w, err)
		return
	}

	enriched := backtest.Enrich(result, req.MarketGroup, req.Currency)
	metrics.BacktestsTotal.WithLabelValues("ok").Inc()

	slog.Info("backtest enriched",
		"symbols", len(req.Symbols),
		"start", req.StartDate,
		"holdings", len(enriched.Portfolio),
	)

	writeData(w, http.StatusOK, enriched)
}

// ValidateBacktest handles POST /api/v1/backtest/validate — precondition
// checks only, never dispatches upstream. Always returns a report.
func (s *Service) ValidateBacktest(w http.ResponseWriter, r *http.Request) {
	var req model.BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	report := backtest.Validate(&req)
	status := "success"
	if !report.Valid {
		status = "error"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": status,
		"valid":  report.Valid,
		"errors": report.Errors,
	})
}

// RefreshStatus handles GET /api/v1/admin/refresh — reports the last
// snapshot refresh manifest.
func (s *Service) RefreshStatus(w http.ResponseWriter, r *http.Request) {
	manifest, err := s.store.LoadManifest(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, manifest)
}

// TriggerRefresh handles POST /api/v1/admin/refresh — runs a snapshot
// refresh immediately instead of waiting for the schedule.
func (s *Service) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	if s.refresher == nil {
		writeError(w, "refresher is not configured", http.StatusServiceUnavailable)
		return
	}

	manifest, err := s.refresher.RunOnce(r.Context())
	if err != nil {
		writeError(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeData(w, http.StatusOK, manifest)
}

// writeDomainError maps core errors onto HTTP status codes: missing input
// 400, absent data 404, degenerate numeric input 422, everything else 500.
func (s *Service) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, search.ErrEmptyQuery):
		writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, upstream.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, chart.ErrNoChartData):
		writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, drawdown.ErrZeroPeakPrice):
		writeError(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		slog.Error("request failed", "err", err)
		writeError(w, "internal error", http.StatusInternalServerError)
	}
}

// writeData writes the success envelope around a payload.
func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{
		"status": "success",
		"data":   data,
	})
}

// writeError writes the error envelope.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]any{
		"status":  "error",
		"message": message,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
