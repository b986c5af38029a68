// Package backtest post-processes raw DCA backtest results from the upstream
// engine into decision-ready reports: renormalized portfolio weights, a
// 0–100 performance score, a CAGR quality rating, and a natural-language
// summary. It also validates backtest request parameters before dispatch.
package backtest

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/peakwatch/stock-gateway/internal/classify"
	"github.com/peakwatch/stock-gateway/internal/model"
)

// Defaults applied when the request does not specify them.
const (
	DefaultMarketGroup = "kr"
	DefaultCurrency    = "KRW"
)

var (
	hundred = decimal.NewFromInt(100)
	ten     = decimal.NewFromInt(10)
)

// Enrich post-processes an upstream backtest result in place and returns it.
//
// Portfolio weights are recomputed from current values (cash included) —
// never trusted from upstream. The CASH sentinel holding is typed cash and
// exempt from symbol-pattern classification; every other holding gets a
// type guess from its symbol pattern conditioned on the market group.
// Share counts are floored to whole units for display. Summary metrics
// already supplied by upstream (performance score, CAGR rating) take
// precedence and are not recomputed.
func Enrich(result *model.BacktestResult, marketGroup, currency string) *model.BacktestResult {
	if marketGroup == "" {
		marketGroup = DefaultMarketGroup
	}
	if currency == "" {
		currency = DefaultCurrency
	}

	totalValue := decimal.Zero
	for _, h := range result.Portfolio {
		totalValue = totalValue.Add(h.CurrentValue)
	}

	for i := range result.Portfolio {
		h := &result.Portfolio[i]

		h.Weight = decimal.Zero
		if totalValue.IsPositive() {
			h.Weight = h.CurrentValue.Div(totalValue).Mul(hundred)
		}

		if h.Symbol == model.CashSymbol {
			h.Type = classify.TypeCash
			continue
		}
		h.Type = classify.HoldingType(marketGroup, h.Symbol, h.Name)
		h.Shares = h.Shares.Floor()
	}

	if s := result.Summary; s != nil {
		if s.PerformanceScore == nil {
			score := PerformanceScore(s.CAGR, s.TotalProfitPct)
			s.PerformanceScore = &score
		}
		if s.CAGRRating == "" {
			s.CAGRRating = CAGRRating(s.CAGR)
		}
		s.MarketGroup = marketGroup
		s.Currency = currency

		result.Analysis = buildAnalysis(s, currency)
	}

	return result
}

// PerformanceScore maps summary metrics onto a 0–100 integer. The CAGR base
// contributes up to 80 points (clamped at 80 for positive CAGR, floored at
// 0 for negative), and total profit adds a bonus of up to 20 points.
func PerformanceScore(cagr, totalProfitPct decimal.Decimal) int {
	four := decimal.NewFromInt(4)
	base := decimal.NewFromInt(40).Add(cagr.Mul(four))
	if cagr.IsNegative() {
		base = decimal.Max(decimal.Zero, base)
	} else {
		base = decimal.Min(decimal.NewFromInt(80), base)
	}

	bonus := decimal.Min(decimal.NewFromInt(20), decimal.Max(decimal.Zero, totalProfitPct.Div(ten)))

	return int(base.Add(bonus).Round(0).IntPart())
}

// cagrRatingTable is evaluated in order; the first bucket whose upper bound
// exceeds the CAGR wins.
var cagrRatingTable = []struct {
	upper     decimal.Decimal // exclusive
	unbounded bool
	label     string
}{
	{upper: decimal.Zero, label: "loss"},
	{upper: decimal.NewFromInt(5), label: "low"},
	{upper: decimal.NewFromInt(10), label: "fair"},
	{upper: decimal.NewFromInt(15), label: "good"},
	{unbounded: true, label: "excellent"},
}

// CAGRRating buckets a CAGR percentage into a 5-level quality label.
func CAGRRating(cagr decimal.Decimal) string {
	for _, bucket := range cagrRatingTable {
		if bucket.unbounded || cagr.LessThan(bucket.upper) {
			return bucket.label
		}
	}
	return cagrRatingTable[len(cagrRatingTable)-1].label
}

// buildAnalysis composes the narrative comment and the key-metrics list.
// A residual-cash line is appended only when the cash balance is positive.
func buildAnalysis(s *model.Summary, currency string) *model.Analysis {
	profitRating := "loss"
	if s.TotalProfitPct.IsPositive() {
		profitRating = "profit"
	}

	metrics := []model.KeyMetric{
		{
			Name:   "CAGR",
			Value:  s.CAGR.StringFixed(2) + "%",
			Rating: s.CAGRRating,
		},
		{
			Name:   "Total return",
			Value:  s.TotalProfitPct.StringFixed(2) + "%",
			Rating: profitRating,
		},
		{
			Name:   "Investment period",
			Value:  s.InvestmentPeriod.Years.StringFixed(1) + " years",
			Rating: "N/A",
		},
	}

	if s.CashBalance.IsPositive() {
		metrics = append(metrics, model.KeyMetric{
			Name:   "Remaining cash",
			Value:  FormatCurrency(s.CashBalance, currency),
			Rating: "N/A",
		})
	}

	return &model.Analysis{
		Comment:    summaryComment(s),
		KeyMetrics: metrics,
	}
}

// summaryComment builds one sentence from the investment period, a
// profit-magnitude clause, and a CAGR-magnitude clause.
func summaryComment(s *model.Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Over %s years of dollar-cost-averaging simulation, ",
		s.InvestmentPeriod.Years.StringFixed(1))

	profit := s.TotalProfitPct
	switch {
	case profit.GreaterThan(decimal.NewFromInt(50)):
		fmt.Fprintf(&b, "the portfolio recorded a high total return of %s%%. ", profit.StringFixed(1))
	case profit.GreaterThan(decimal.NewFromInt(20)):
		fmt.Fprintf(&b, "the portfolio recorded a solid total return of %s%%. ", profit.StringFixed(1))
	case profit.IsPositive():
		fmt.Fprintf(&b, "the portfolio recorded a modest total return of %s%%. ", profit.StringFixed(1))
	default:
		fmt.Fprintf(&b, "the portfolio recorded a loss of %s%%. ", profit.Abs().StringFixed(1))
	}

	cagr := s.CAGR
	switch {
	case cagr.GreaterThan(decimal.NewFromInt(15)):
		fmt.Fprintf(&b, "The annualized return (CAGR) of %s%% is outstanding.", cagr.StringFixed(1))
	case cagr.GreaterThan(decimal.NewFromInt(10)):
		fmt.Fprintf(&b, "The annualized return (CAGR) of %s%% is a strong result.", cagr.StringFixed(1))
	case cagr.GreaterThan(decimal.NewFromInt(5)):
		fmt.Fprintf(&b, "The annualized return (CAGR) of %s%% is an adequate level.", cagr.StringFixed(1))
	case cagr.IsPositive():
		fmt.Fprintf(&b, "The annualized return (CAGR) of %s%% is somewhat low.", cagr.StringFixed(1))
	default:
		fmt.Fprintf(&b, "The annualized return (CAGR) of %s%% represents a loss.", cagr.StringFixed(1))
	}

	return b.String()
}

// FormatCurrency renders a residual-cash amount for display: a dollar-prefixed
// integer with thousands separators for USD, an integer with the won suffix
// for KRW (and anything else).
func FormatCurrency(amount decimal.Decimal, currency string) string {
	grouped := groupThousands(amount.Round(0).String())
	if currency == "USD" {
		return "$" + grouped
	}
	return grouped + "원"
}

// groupThousands inserts comma separators into a decimal integer string.
func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	digits := strings.TrimPrefix(s, "-")

	if len(digits) <= 3 {
		if neg {
			return "-" + digits
		}
		return digits
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 && !(neg && b.Len() == 1) {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
