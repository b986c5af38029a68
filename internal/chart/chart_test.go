package chart

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/peakwatch/stock-gateway/internal/model"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func ds(fs ...float64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(fs))
	for i, f := range fs {
		out[i] = d(f)
	}
	return out
}

func closeOnlyRecord() *model.StockRecord {
	return &model.StockRecord{
		Symbol:       "AAPL",
		Name:         "Apple Inc.",
		Market:       "NASDAQ",
		CurrentPrice: d(180),
		PeakPrice:    d(200),
		PeakDate:     "2026-03-02",
		DaysAnalyzed: 3,
		ChartData: &model.ChartData{
			Dates:  []string{"2026-03-01", "2026-03-02", "2026-03-03"},
			Prices: model.ChartPrices{Close: ds(195, 200, 180)},
		},
	}
}

func TestProjectNoData(t *testing.T) {
	rec := closeOnlyRecord()
	rec.ChartData = nil
	if _, err := Project(rec); !errors.Is(err, ErrNoChartData) {
		t.Fatalf("expected ErrNoChartData, got %v", err)
	}
}

func TestProjectCloseOnly(t *testing.T) {
	p, err := Project(closeOnlyRecord())
	if err != nil {
		t.Fatalf("project: %v", err)
	}

	if len(p.Series) != 1 {
		t.Fatalf("expected only the close series, got %d series", len(p.Series))
	}
	if p.Series[0].Name != "close" || p.Series[0].Type != "line" {
		t.Errorf("unexpected series head: %+v", p.Series[0])
	}
	line, ok := p.Series[0].Data.([]Point)
	if !ok {
		t.Fatalf("close series data is %T, want []Point", p.Series[0].Data)
	}
	if len(line) != 3 || line[1].Date != "2026-03-02" || !line[1].Value.Equal(d(200)) {
		t.Errorf("close line wrong: %+v", line)
	}

	if p.Timeframe.Start != "2026-03-01" || p.Timeframe.End != "2026-03-03" || p.Timeframe.Days != 3 {
		t.Errorf("timeframe wrong: %+v", p.Timeframe)
	}
	if p.PeakInfo.Date != "2026-03-02" || !p.PeakInfo.Price.Equal(d(200)) {
		t.Errorf("peak info wrong: %+v", p.PeakInfo)
	}
}

func TestProjectFullOHLCV(t *testing.T) {
	rec := closeOnlyRecord()
	rec.ChartData.Prices.Open = ds(190, 196, 198)
	rec.ChartData.Prices.High = ds(196, 201, 199)
	rec.ChartData.Prices.Low = ds(189, 195, 178)
	rec.ChartData.Volume = []int64{1000, 2000, 3000}

	p, err := Project(rec)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if len(p.Series) != 3 {
		t.Fatalf("expected close+ohlc+volume, got %d series", len(p.Series))
	}
	if p.Series[1].Name != "ohlc" || p.Series[2].Name != "volume" {
		t.Errorf("series order wrong: %s, %s", p.Series[1].Name, p.Series[2].Name)
	}

	ohlc := p.Series[1].Data.([]OHLCPoint)
	if len(ohlc) != 3 || !ohlc[2].Low.Equal(d(178)) {
		t.Errorf("ohlc data wrong: %+v", ohlc)
	}
	vol := p.Series[2].Data.([]VolumePoint)
	if len(vol) != 3 || vol[2].Volume != 3000 {
		t.Errorf("volume data wrong: %+v", vol)
	}
}

func TestProjectPartialOHLCSkipsSeries(t *testing.T) {
	// High and Low present but Open missing: no OHLC series.
	rec := closeOnlyRecord()
	rec.ChartData.Prices.High = ds(196, 201, 199)
	rec.ChartData.Prices.Low = ds(189, 195, 178)

	p, err := Project(rec)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if len(p.Series) != 1 {
		t.Fatalf("expected close series only, got %d", len(p.Series))
	}
}

func TestProjectAnnotations(t *testing.T) {
	p, err := Project(closeOnlyRecord())
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if !p.Options.HighlightPeak {
		t.Error("expected HighlightPeak to be set")
	}
	if len(p.Options.Annotations) != 2 {
		t.Fatalf("expected 2 annotations, got %d", len(p.Options.Annotations))
	}
	peak, current := p.Options.Annotations[0], p.Options.Annotations[1]
	if peak.Label != "peak" || !peak.Value.Equal(d(200)) || peak.Color != "#f5222d" {
		t.Errorf("peak annotation wrong: %+v", peak)
	}
	if current.Label != "current" || !current.Value.Equal(d(180)) || current.Color != "#1890ff" {
		t.Errorf("current annotation wrong: %+v", current)
	}
}

func TestProjectRaggedArrays(t *testing.T) {
	// Dates longer than close: extra dates are dropped, not zero-filled.
	rec := closeOnlyRecord()
	rec.ChartData.Dates = append(rec.ChartData.Dates, "2026-03-04")

	p, err := Project(rec)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	line := p.Series[0].Data.([]Point)
	if len(line) != 3 {
		t.Errorf("expected 3 points, got %d", len(line))
	}
	// The timeframe still reflects the dates array verbatim.
	if p.Timeframe.End != "2026-03-04" {
		t.Errorf("timeframe end = %q, want 2026-03-04", p.Timeframe.End)
	}
}
