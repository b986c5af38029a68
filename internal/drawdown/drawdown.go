// Package drawdown computes peak-to-current drop analysis for a single
// instrument: drop magnitude, percentage, a discrete severity bucket, and a
// narrative classification.
//
// Severity buckets are fixed constants expressed as an ordered rule table
// evaluated first-match-wins; each bucket carries one narrative per
// instrument class (single-issuer stocks vs basket-tracking ETFs).
package drawdown

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/peakwatch/stock-gateway/internal/classify"
	"github.com/peakwatch/stock-gateway/internal/model"
)

// ErrZeroPeakPrice is returned when the upstream record carries a zero peak
// price, which makes the drop percentage undefined.
var ErrZeroPeakPrice = errors.New("drawdown: peak price must be non-zero")

// Drop holds the peak-to-current decline, rounded to 2 decimal places.
type Drop struct {
	Value        decimal.Decimal `json:"value"`
	Percent      decimal.Decimal `json:"percent"`
	Significance string          `json:"significance"`
}

// Report is the display-ready drawdown analysis for one instrument.
type Report struct {
	Symbol       string          `json:"symbol"`
	Name         string          `json:"name"`
	Market       string          `json:"market"`
	Type         string          `json:"type"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
	PeakPrice    decimal.Decimal `json:"peakPrice"`
	PeakDate     string          `json:"peakDate"`
	Drop         Drop            `json:"drop"`
	DaysAnalyzed int             `json:"daysAnalyzed"`
	Analysis     string          `json:"analysis"`
	LastUpdate   string          `json:"lastUpdate"`
}

// severityBucket covers drop percentages in [lower bound of the previous
// bucket, Upper). The table's last entry is open-ended.
type severityBucket struct {
	upper     decimal.Decimal // exclusive; zero value on the last bucket
	unbounded bool
	label     string
	stockText string
	etfText   string
}

var severityBuckets = []severityBucket{
	{
		upper:     decimal.NewFromInt(5),
		label:     "normal fluctuation",
		stockText: "The decline is within the normal range of market fluctuation.",
		etfText:   "The decline is within the normal range of market fluctuation. ETFs typically show lower short-term volatility.",
	},
	{
		upper:     decimal.NewFromInt(10),
		label:     "minor correction",
		stockText: "A minor correction is underway and worth monitoring.",
		etfText:   "A minor correction is underway and worth monitoring. Check the trend of the ETF's underlying assets.",
	},
	{
		upper:     decimal.NewFromInt(20),
		label:     "meaningful correction",
		stockText: "A meaningful correction is underway. This may be worth evaluating as a buying opportunity.",
		etfText:   "A meaningful correction is underway. Review the ETF's underlying assets together with the broader market trend.",
	},
	{
		upper:     decimal.NewFromInt(30),
		label:     "large decline",
		stockText: "A large decline is in progress. Be mindful of further downside risk.",
		etfText:   "A large decline is in progress. Check whether the index or sector the ETF tracks is broadly weak.",
	},
	{
		unbounded: true,
		label:     "severe decline",
		stockText: "A severe decline is in progress. Investment decisions require particular caution.",
		etfText:   "A severe decline is in progress. Check the ETF's underlying asset class for structural problems.",
	},
}

// noDropBucket covers percent <= 0 — the instrument trades at or above
// its peak.
var noDropBucket = severityBucket{
	label:     "no drop",
	stockText: "The price shows no decline from its recent peak.",
	etfText:   "The price shows no decline from its recent peak.",
}

// Analyze computes the drawdown report for an upstream stock record.
// Fails with ErrZeroPeakPrice when the peak price is zero.
func Analyze(record *model.StockRecord) (*Report, error) {
	if record.PeakPrice.IsZero() {
		return nil, ErrZeroPeakPrice
	}

	value := record.PeakPrice.Sub(record.CurrentPrice)
	percent := value.Div(record.PeakPrice).Mul(decimal.NewFromInt(100))

	instrumentType := classify.InstrumentType(record.Market, "")
	bucket := bucketFor(percent)

	name := record.Name
	if name == "" {
		name = "Unknown"
	}

	return &Report{
		Symbol:       record.Symbol,
		Name:         name,
		Market:       record.Market,
		Type:         instrumentType,
		CurrentPrice: record.CurrentPrice,
		PeakPrice:    record.PeakPrice,
		PeakDate:     record.PeakDate,
		Drop: Drop{
			Value:        value.Round(2),
			Percent:      percent.Round(2),
			Significance: bucket.label,
		},
		DaysAnalyzed: record.DaysAnalyzed,
		Analysis:     bucket.narrative(instrumentType),
		LastUpdate:   record.LastUpdate,
	}, nil
}

// Significance returns the severity label for a drop percentage. Boundaries
// are upper-exclusive except the open-ended top bucket: exactly 5 percent is
// a minor correction, exactly 20 a large decline.
func Significance(percent decimal.Decimal) string {
	return bucketFor(percent).label
}

func bucketFor(percent decimal.Decimal) severityBucket {
	if !percent.IsPositive() {
		return noDropBucket
	}
	for _, b := range severityBuckets {
		if b.unbounded || percent.LessThan(b.upper) {
			return b
		}
	}
	// Unreachable: the last bucket is unbounded.
	return severityBuckets[len(severityBuckets)-1]
}

func (b severityBucket) narrative(instrumentType string) string {
	if instrumentType == classify.TypeETF {
		return b.etfText
	}
	return b.stockText
}
