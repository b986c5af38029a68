// Package chart reshapes a raw OHLCV time series plus peak/current markers
// into a display-ready multi-series payload for the frontend chart widget.
package chart

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/peakwatch/stock-gateway/internal/model"
)

// ErrNoChartData is returned when the upstream record carries no time series.
var ErrNoChartData = errors.New("chart: chart data not available")

// Annotation marker colors.
const (
	peakColor    = "#f5222d"
	currentColor = "#1890ff"
)

// Timeframe reports the series window: first and last date verbatim from
// the upstream dates array.
type Timeframe struct {
	Days  int    `json:"days"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// PeakInfo marks the historical peak.
type PeakInfo struct {
	Date  string          `json:"date"`
	Price decimal.Decimal `json:"price"`
}

// Point is one (date, value) sample of a line or volume series.
type Point struct {
	Date  string          `json:"date"`
	Value decimal.Decimal `json:"value"`
}

// OHLCPoint is one trading day of an open-high-low-close series.
type OHLCPoint struct {
	Date  string          `json:"date"`
	Open  decimal.Decimal `json:"open"`
	High  decimal.Decimal `json:"high"`
	Low   decimal.Decimal `json:"low"`
	Close decimal.Decimal `json:"close"`
}

// VolumePoint is one trading day's volume.
type VolumePoint struct {
	Date   string `json:"date"`
	Volume int64  `json:"volume"`
}

// Series is one renderable data series.
type Series struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Annotation is a fixed horizontal marker line.
type Annotation struct {
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
	Color string          `json:"color"`
}

// Options carries chart rendering hints.
type Options struct {
	HighlightPeak bool         `json:"highlightPeak"`
	Annotations   []Annotation `json:"annotations"`
}

// Payload is the display-ready chart structure.
type Payload struct {
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Market    string    `json:"market"`
	Timeframe Timeframe `json:"timeframe"`
	PeakInfo  PeakInfo  `json:"peakInfo"`
	Series    []Series  `json:"series"`
	Options   Options   `json:"options"`
}

// Project builds the chart payload from an upstream stock record. The close
// line is always emitted; an OHLC series is added only when open, high and
// low are all present, and a volume series only when volume is present —
// additive, order-preserving appends after the close series. Fails with
// ErrNoChartData when the record has no series.
func Project(record *model.StockRecord) (*Payload, error) {
	cd := record.ChartData
	if cd == nil {
		return nil, ErrNoChartData
	}

	closeLine := make([]Point, 0, len(cd.Dates))
	for i, date := range cd.Dates {
		if i >= len(cd.Prices.Close) {
			break
		}
		closeLine = append(closeLine, Point{Date: date, Value: cd.Prices.Close[i]})
	}

	series := []Series{{Name: "close", Type: "line", Data: closeLine}}

	if cd.Prices.Open != nil && cd.Prices.High != nil && cd.Prices.Low != nil {
		ohlc := make([]OHLCPoint, 0, len(cd.Dates))
		for i, date := range cd.Dates {
			if i >= len(cd.Prices.Open) || i >= len(cd.Prices.High) ||
				i >= len(cd.Prices.Low) || i >= len(cd.Prices.Close) {
				break
			}
			ohlc = append(ohlc, OHLCPoint{
				Date:  date,
				Open:  cd.Prices.Open[i],
				High:  cd.Prices.High[i],
				Low:   cd.Prices.Low[i],
				Close: cd.Prices.Close[i],
			})
		}
		series = append(series, Series{Name: "ohlc", Type: "ohlc", Data: ohlc})
	}

	if cd.Volume != nil {
		volume := make([]VolumePoint, 0, len(cd.Dates))
		for i, date := range cd.Dates {
			if i >= len(cd.Volume) {
				break
			}
			volume = append(volume, VolumePoint{Date: date, Volume: cd.Volume[i]})
		}
		series = append(series, Series{Name: "volume", Type: "volume", Data: volume})
	}

	var start, end string
	if len(cd.Dates) > 0 {
		start = cd.Dates[0]
		end = cd.Dates[len(cd.Dates)-1]
	}

	return &Payload{
		Symbol: record.Symbol,
		Name:   record.Name,
		Market: record.Market,
		Timeframe: Timeframe{
			Days:  record.DaysAnalyzed,
			Start: start,
			End:   end,
		},
		PeakInfo: PeakInfo{
			Date:  record.PeakDate,
			Price: record.PeakPrice,
		},
		Series: series,
		Options: Options{
			HighlightPeak: true,
			Annotations: []Annotation{
				{Label: "peak", Value: record.PeakPrice, Color: peakColor},
				{Label: "current", Value: record.CurrentPrice, Color: currentColor},
			},
		},
	}, nil
}
