package backtest

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/peakwatch/stock-gateway/internal/model"
)

func validRequest() *model.BacktestRequest {
	return &model.BacktestRequest{
		Symbols: []string{"005930", "000660"},
		Allocation: map[string]decimal.Decimal{
			"005930": d(60),
			"000660": d(40),
		},
		StartDate: "2020-01-01",
		EndDate:   "2025-01-01",
	}
}

func TestValidateOK(t *testing.T) {
	rep := Validate(validRequest())
	if !rep.Valid {
		t.Fatalf("expected valid, got errors: %v", rep.Errors)
	}
	if rep.Errors == nil || len(rep.Errors) != 0 {
		t.Fatalf("expected empty non-nil error slice, got %#v", rep.Errors)
	}
}

func TestValidateAccumulatesErrors(t *testing.T) {
	rep := Validate(&model.BacktestRequest{})
	if rep.Valid {
		t.Fatal("expected invalid")
	}
	// Symbols, allocation and start date all fail independently.
	if len(rep.Errors) != 3 {
		t.Fatalf("expected 3 errors, got %d: %v", len(rep.Errors), rep.Errors)
	}
}

func TestValidateAllocationSum(t *testing.T) {
	cases := []struct {
		total float64
		valid bool
	}{
		{100, true},
		{100.05, true},  // within tolerance
		{99.95, true},   // within tolerance
		{100.2, false},  // outside tolerance
		{99.8, false},   // outside tolerance
		{50, false},
	}
	for _, c := range cases {
		req := validRequest()
		req.Allocation = map[string]decimal.Decimal{"005930": d(c.total)}
		rep := Validate(req)
		if rep.Valid != c.valid {
			t.Errorf("allocation sum %v: valid = %v, want %v (%v)", c.total, rep.Valid, c.valid, rep.Errors)
		}
	}
}

func TestValidateAllocationErrorMessage(t *testing.T) {
	req := validRequest()
	req.Allocation = map[string]decimal.Decimal{"005930": d(80)}
	rep := Validate(req)
	if len(rep.Errors) != 1 || !strings.Contains(rep.Errors[0], "80.0%") {
		t.Fatalf("expected current sum in message, got %v", rep.Errors)
	}
}

func TestValidateDates(t *testing.T) {
	cases := []struct {
		start, end string
		valid      bool
	}{
		{"2020-01-01", "", true},          // end optional
		{"", "", false},                   // start required
		{"2020/01/01", "", false},         // wrong format
		{"2020-1-1", "", false},           // wrong format
		{"2020-01-01", "2019-12-31", false}, // inverted range
		{"2020-01-01", "2020-01-01", true},  // equal is allowed
		{"2020-01-01", "01-01-2025", false}, // bad end format
	}
	for _, c := range cases {
		req := validRequest()
		req.StartDate = c.start
		req.EndDate = c.end
		rep := Validate(req)
		if rep.Valid != c.valid {
			t.Errorf("dates (%q, %q): valid = %v, want %v (%v)", c.start, c.end, rep.Valid, c.valid, rep.Errors)
		}
	}
}

func TestValidateBadEndFormatSkipsOrderCheck(t *testing.T) {
	req := validRequest()
	req.StartDate = "2025-01-01"
	req.EndDate = "bogus"
	rep := Validate(req)
	// Only the format error; no ordering error on an unparseable date.
	if len(rep.Errors) != 1 {
		t.Fatalf("expected 1 error, got %v", rep.Errors)
	}
	if !strings.Contains(rep.Errors[0], "YYYY-MM-DD") {
		t.Errorf("unexpected error: %v", rep.Errors)
	}
}
