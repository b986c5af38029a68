// Package model defines the core domain types shared across the stock gateway.
// All monetary values use shopspring/decimal — never float64 for money.
package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// The API speaks plain JSON numbers for all monetary fields.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Symbol is one entry in a market catalog: a tradable instrument as listed
// by the upstream provider. Uniquely identified by (symbol, market) within
// a catalog. The instrument type is derived at query time, never stored.
type Symbol struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Market string `json:"market"`
}

// ClassifiedSymbol is a Symbol enriched with its derived instrument type.
type ClassifiedSymbol struct {
	Symbol
	Type string `json:"type"`
}

// MarketCatalog is one market's flat snapshot of tradable symbols, refreshed
// out-of-band by the snapshot refresher and read by the search engine.
// Immutable for the duration of a search.
type MarketCatalog struct {
	MarketCode string   `json:"market_code"`
	Stocks     []Symbol `json:"stocks"`
}

// RefreshManifest records the outcome of the most recent snapshot refresh.
type RefreshManifest struct {
	RunID      string    `json:"run_id"`
	LastUpdate time.Time `json:"last_update"`
	Markets    []string  `json:"markets"`
}

// ChartPrices holds the per-day price arrays of a chart. Close is always
// present; Open/High/Low are nil when the upstream omits them.
type ChartPrices struct {
	Open  []decimal.Decimal `json:"open,omitempty"`
	High  []decimal.Decimal `json:"high,omitempty"`
	Low   []decimal.Decimal `json:"low,omitempty"`
	Close []decimal.Decimal `json:"close"`
}

// ChartData holds parallel arrays of equal length indexed by position:
// position i across Dates, the price arrays, and Volume describes one
// trading day.
type ChartData struct {
	Dates  []string    `json:"dates"`
	Prices ChartPrices `json:"prices"`
	Volume []int64     `json:"volume,omitempty"`
}

// PriceSeries holds one symbol's flat daily (or monthly) price arrays as
// the upstream historical-prices endpoint shapes them. Close is always
// present; the rest are nil when the upstream omits them.
type PriceSeries struct {
	Dates  []string          `json:"dates"`
	Open   []decimal.Decimal `json:"open,omitempty"`
	High   []decimal.Decimal `json:"high,omitempty"`
	Low    []decimal.Decimal `json:"low,omitempty"`
	Close  []decimal.Decimal `json:"close"`
	Volume []int64           `json:"volume,omitempty"`
}

// PriceHistory is one symbol's slice of the multi-symbol historical price
// response. Type is derived from the market label at the gateway, never
// supplied by upstream. Timeframe is passed through untouched.
type PriceHistory struct {
	Name      string          `json:"name,omitempty"`
	Market    string          `json:"market,omitempty"`
	Type      string          `json:"type,omitempty"`
	Data      *PriceSeries    `json:"data,omitempty"`
	Timeframe json.RawMessage `json:"timeframe,omitempty"`
}

// HistoricalPrices is the upstream multi-symbol price-history response,
// keyed by symbol. SymbolsFound counts the symbols the provider could
// resolve; the rest are silently absent from Data.
type HistoricalPrices struct {
	Data             map[string]*PriceHistory `json:"data"`
	SymbolsRequested int                      `json:"symbols_requested"`
	SymbolsFound     int                      `json:"symbols_found"`
}

// StockRecord is the upstream provider's snapshot of one instrument:
// current price, historical peak, and optionally the raw OHLCV series.
type StockRecord struct {
	Symbol       string          `json:"symbol"`
	Name         string          `json:"name"`
	Market       string          `json:"market"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	PeakPrice    decimal.Decimal `json:"peak_price"`
	PeakDate     string          `json:"peak_date"`
	DaysAnalyzed int             `json:"days_analyzed"`
	LastUpdate   string          `json:"last_update"`
	ChartData    *ChartData      `json:"chart_data,omitempty"`
}

// CashSymbol is the sentinel holding symbol representing uninvested funds
// in a backtest portfolio.
const CashSymbol = "CASH"

// Holding is one position in a backtest portfolio. Type and Weight are
// filled in by the enricher; the remaining fields come from upstream.
type Holding struct {
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name,omitempty"`
	Shares        decimal.Decimal `json:"shares"`
	CostBasis     decimal.Decimal `json:"cost_basis,omitempty"`
	CurrentPrice  decimal.Decimal `json:"current_price,omitempty"`
	CurrentValue  decimal.Decimal `json:"current_value"`
	ProfitLoss    decimal.Decimal `json:"profit_loss,omitempty"`
	ProfitLossPct decimal.Decimal `json:"profit_loss_pct,omitempty"`
	Type          string          `json:"type,omitempty"`
	Weight        decimal.Decimal `json:"weight"`
}

// InvestmentPeriod describes the simulated investment window.
type InvestmentPeriod struct {
	Days   int             `json:"days"`
	Years  decimal.Decimal `json:"years"`
	Months decimal.Decimal `json:"months,omitempty"`
}

// Summary carries the aggregate metrics of a backtest run. PerformanceScore,
// CAGRRating, CashBalance, MarketGroup and Currency are optional upstream
// fields; the enricher fills them in when absent.
type Summary struct {
	StartDate         string           `json:"start_date"`
	EndDate           string           `json:"end_date"`
	InvestmentPeriod  InvestmentPeriod `json:"investment_period"`
	TotalInvested     decimal.Decimal  `json:"total_invested"`
	FinalValue        decimal.Decimal  `json:"final_value"`
	TotalProfit       decimal.Decimal  `json:"total_profit"`
	TotalProfitPct    decimal.Decimal  `json:"total_profit_pct"`
	CAGR              decimal.Decimal  `json:"cagr"`
	TransactionsCount int              `json:"transactions_count"`
	PerformanceScore  *int             `json:"performance_score,omitempty"`
	CAGRRating        string           `json:"cagr_rating,omitempty"`
	CashBalance       decimal.Decimal  `json:"cash_balance"`
	MarketGroup       string           `json:"market_group,omitempty"`
	Currency          string           `json:"currency,omitempty"`
}

// KeyMetric is one line of the enriched analysis block.
type KeyMetric struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Rating string `json:"rating"`
}

// Analysis is the natural-language block the enricher appends to a
// backtest result.
type Analysis struct {
	Comment    string      `json:"comment"`
	KeyMetrics []KeyMetric `json:"key_metrics"`
}

// BacktestResult is the upstream DCA backtest output. Transactions and
// ValueHistory are passed through to the client untouched.
type BacktestResult struct {
	Summary      *Summary        `json:"summary"`
	Portfolio    []Holding       `json:"portfolio"`
	Transactions json.RawMessage `json:"transactions,omitempty"`
	ValueHistory json.RawMessage `json:"value_history,omitempty"`
	Analysis     *Analysis       `json:"analysis,omitempty"`
}

// BacktestRequest is the JSON body for a DCA backtest. Symbols, Allocation
// and StartDate are required; the remaining parameters default upstream.
type BacktestRequest struct {
	Symbols             []string                   `json:"symbols"`
	Allocation          map[string]decimal.Decimal `json:"allocation"`
	StartDate           string                     `json:"start_date"`
	EndDate             string                     `json:"end_date,omitempty"`
	InitialAmount       decimal.Decimal            `json:"initial_amount,omitempty"`
	InvestmentAmount    decimal.Decimal            `json:"investment_amount,omitempty"`
	InvestmentFrequency string                     `json:"investment_frequency,omitempty"`
	FeeRate             decimal.Decimal            `json:"fee_rate,omitempty"`
	TaxRate             decimal.Decimal            `json:"tax_rate,omitempty"`
	MarketGroup         string                     `json:"market_group,omitempty"`
	Currency            string                     `json:"currency,omitempty"`
}
