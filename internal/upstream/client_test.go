package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/peakwatch/stock-gateway/internal/model"
)

func TestFetchStockData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/stock-data" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("symbol") != "AAPL" || q.Get("market") != "NASDAQ" || q.Get("days") != "365" {
			t.Errorf("unexpected query %v", q)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"symbol":        "AAPL",
			"name":          "Apple Inc.",
			"market":        "NASDAQ",
			"current_price": 180.5,
			"peak_price":    200,
			"peak_date":     "2026-03-02",
			"days_analyzed": 365,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	rec, err := c.FetchStockData(context.Background(), "AAPL", "NASDAQ", 365)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if rec.Symbol != "AAPL" || !rec.PeakPrice.Equal(decimal.NewFromInt(200)) {
		t.Errorf("record mismatch: %+v", rec)
	}
	if rec.ChartData != nil {
		t.Error("chart data should be nil when upstream omits it")
	}
}

func TestFetchStockDataNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such symbol", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	if _, err := c.FetchStockData(context.Background(), "NOPE", "", 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFetchStockDataUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	_, err := c.FetchStockData(context.Background(), "AAPL", "", 0)
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected a status error, got %v", err)
	}
}

func TestFetchMarketSymbols(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/market-symbols/KOSPI" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		// market_code deliberately omitted; the client fills it in.
		json.NewEncoder(w).Encode(map[string]any{
			"stocks": []map[string]string{
				{"symbol": "005930", "name": "Samsung Electronics", "market": "KOSPI"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	cat, err := c.FetchMarketSymbols(context.Background(), "KOSPI")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if cat.MarketCode != "KOSPI" || len(cat.Stocks) != 1 {
		t.Errorf("catalog mismatch: %+v", cat)
	}
}

func TestFetchHistoricalPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/backtest/historical-prices" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("symbols") != "005930,AAPL" || q.Get("start_date") != "2020-01-01" || q.Get("interval") != "1m" {
			t.Errorf("unexpected query %v", q)
		}
		if q.Has("end_date") {
			t.Error("empty end_date must be omitted")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data": map[string]any{
				"005930": map[string]any{
					"name":   "Samsung Electronics",
					"market": "KOSPI",
					"data": map[string]any{
						"dates": []string{"2020-01-31"},
						"close": []float64{56400},
					},
				},
			},
			"symbols_requested": 2,
			"symbols_found":     1,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	prices, err := c.FetchHistoricalPrices(context.Background(), "005930,AAPL", "2020-01-01", "", "1m")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if prices.SymbolsRequested != 2 || prices.SymbolsFound != 1 {
		t.Errorf("counts wrong: %+v", prices)
	}
	history := prices.Data["005930"]
	if history == nil || history.Market != "KOSPI" || len(history.Data.Close) != 1 {
		t.Errorf("history mismatch: %+v", history)
	}
}

func TestFetchMarketIndices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/market-indices" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{"kospi": map[string]any{"Close": 2650.1}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	raw, err := c.FetchMarketIndices(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	var indices map[string]map[string]float64
	if err := json.Unmarshal(raw, &indices); err != nil {
		t.Fatal(err)
	}
	if indices["kospi"]["Close"] != 2650.1 {
		t.Errorf("indices mismatch: %+v", indices)
	}
}

func TestRunBacktest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/backtest/dca" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req model.BacktestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Symbols) != 1 || req.Symbols[0] != "005930" {
			t.Errorf("request not forwarded: %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data": map[string]any{
				"summary": map[string]any{
					"start_date": "2020-01-01",
					"end_date":   "2025-01-01",
					"cagr":       8.4,
				},
				"portfolio": []map[string]any{
					{"symbol": "005930", "current_value": 1000000},
				},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	res, err := c.RunBacktest(context.Background(), &model.BacktestRequest{
		Symbols:    []string{"005930"},
		Allocation: map[string]decimal.Decimal{"005930": decimal.NewFromInt(100)},
		StartDate:  "2020-01-01",
	})
	if err != nil {
		t.Fatalf("backtest: %v", err)
	}
	if res.Summary == nil || !res.Summary.CAGR.Equal(decimal.NewFromFloat(8.4)) {
		t.Errorf("summary mismatch: %+v", res.Summary)
	}
	if len(res.Portfolio) != 1 {
		t.Errorf("portfolio mismatch: %+v", res.Portfolio)
	}
}

func TestRunBacktestEmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "success"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	_, err := c.RunBacktest(context.Background(), &model.BacktestRequest{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty data, got %v", err)
	}
}
