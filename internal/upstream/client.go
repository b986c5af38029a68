// Package upstream provides the HTTP client for the upstream price-data
// provider. The provider is a black box to the analytics core: it supplies
// per-market symbol listings, stock snapshots with peak statistics, and raw
// DCA backtest results, all consumed here as already-shaped JSON.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/peakwatch/stock-gateway/internal/model"
)

// Defaults for the provider connection.
const (
	DefaultBaseURL = "http://localhost:8000"
	DefaultTimeout = 30 * time.Second

	// Backtests walk years of daily prices and can take longer.
	BacktestTimeout = 60 * time.Second
)

// ErrNotFound is returned when the provider has no data for the requested
// symbol or market.
var ErrNotFound = errors.New("upstream: not found")

// Client talks to the upstream provider over HTTP. Backtests run on a
// separate client with a longer timeout.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	backtestClient *http.Client
}

// NewClient creates a provider client. An empty baseURL or zero timeout
// falls back to the defaults.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	backtestTimeout := BacktestTimeout
	if timeout > backtestTimeout {
		backtestTimeout = timeout
	}
	return &Client{
		baseURL:        baseURL,
		httpClient:     &http.Client{Timeout: timeout},
		backtestClient: &http.Client{Timeout: backtestTimeout},
	}
}

// FetchStockData retrieves the snapshot (current price, peak statistics and
// OHLCV series) for one symbol. market and days are optional refinements.
func (c *Client) FetchStockData(ctx context.Context, symbol, market string, days int) (*model.StockRecord, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	if market != "" {
		q.Set("market", market)
	}
	if days > 0 {
		q.Set("days", strconv.Itoa(days))
	}

	var record model.StockRecord
	if err := c.getJSON(ctx, "/api/stock-data?"+q.Encode(), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// FetchHistoricalPrices retrieves daily ("1d") or monthly ("1m") price
// history for a comma-separated symbol list. The provider resolves each
// symbol's market itself and drops symbols it cannot find.
func (c *Client) FetchHistoricalPrices(ctx context.Context, symbols, startDate, endDate, interval string) (*model.HistoricalPrices, error) {
	q := url.Values{}
	q.Set("symbols", symbols)
	q.Set("start_date", startDate)
	if endDate != "" {
		q.Set("end_date", endDate)
	}
	if interval != "" {
		q.Set("interval", interval)
	}

	var prices model.HistoricalPrices
	if err := c.getJSON(ctx, "/api/backtest/historical-prices?"+q.Encode(), &prices); err != nil {
		return nil, err
	}
	return &prices, nil
}

// FetchMarketIndices retrieves the latest major index quotes (KOSPI, KOSDAQ,
// S&P 500, NASDAQ) as provider-shaped JSON, passed through untouched.
func (c *Client) FetchMarketIndices(ctx context.Context) (json.RawMessage, error) {
	var indices json.RawMessage
	if err := c.getJSON(ctx, "/api/market-indices", &indices); err != nil {
		return nil, err
	}
	return indices, nil
}

// FetchMarketSymbols retrieves the full symbol listing for one market code.
// Used by the snapshot refresher, never on the request path.
func (c *Client) FetchMarketSymbols(ctx context.Context, marketCode string) (*model.MarketCatalog, error) {
	var catalog model.MarketCatalog
	if err := c.getJSON(ctx, "/api/market-symbols/"+url.PathEscape(marketCode), &catalog); err != nil {
		return nil, err
	}
	if catalog.MarketCode == "" {
		catalog.MarketCode = marketCode
	}
	return &catalog, nil
}

// dcaEnvelope is the provider's backtest response wrapper.
type dcaEnvelope struct {
	Status string                `json:"status"`
	Data   *model.BacktestResult `json:"data"`
}

// RunBacktest dispatches a DCA simulation to the provider and returns the
// raw result for enrichment.
func (c *Client) RunBacktest(ctx context.Context, req *model.BacktestRequest) (*model.BacktestResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("upstream: encode backtest request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/backtest/dca", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("upstream: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.backtestClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("upstream: backtest: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("backtest: %w", err)
	}

	var envelope dcaEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("upstream: decode backtest response: %w", err)
	}
	if envelope.Data == nil {
		return nil, fmt.Errorf("%w: empty backtest result", ErrNotFound)
	}
	return envelope.Data, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("upstream: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upstream: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("upstream: decode %s: %w", path, err)
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("upstream: status %d: %s", resp.StatusCode, snippet)
	}
	return nil
}
