package backtest

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/peakwatch/stock-gateway/internal/model"
)

// datePattern matches the YYYY-MM-DD request date format.
var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// allocationTolerance is the absolute tolerance on the allocation sum.
var allocationTolerance = decimal.NewFromFloat(0.1)

// ValidationReport is the outcome of precondition checks on a backtest
// request. Valid is true iff Errors is empty.
type ValidationReport struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Validate runs all precondition checks on a backtest request and returns a
// report. Checks are evaluated independently — every violated precondition
// produces its own error line, none short-circuits the rest — and Validate
// itself never fails.
func Validate(req *model.BacktestRequest) *ValidationReport {
	errs := []string{}

	if len(req.Symbols) == 0 {
		errs = append(errs, "at least one symbol must be selected")
	}

	if req.Allocation == nil {
		errs = append(errs, "an allocation must be set for each symbol")
	} else {
		total := decimal.Zero
		for _, pct := range req.Allocation {
			total = total.Add(pct)
		}
		if total.Sub(hundred).Abs().GreaterThan(allocationTolerance) {
			errs = append(errs, fmt.Sprintf(
				"allocation must sum to 100%% (current: %s%%)", total.StringFixed(1)))
		}
	}

	startOK := false
	if req.StartDate == "" {
		errs = append(errs, "start date is required")
	} else if !datePattern.MatchString(req.StartDate) {
		errs = append(errs, "start date must be in YYYY-MM-DD format")
	} else {
		startOK = true
	}

	endOK := false
	if req.EndDate != "" {
		if !datePattern.MatchString(req.EndDate) {
			errs = append(errs, "end date must be in YYYY-MM-DD format")
		} else {
			endOK = true
		}
	}

	// YYYY-MM-DD strings order lexicographically, so no parsing is needed.
	if startOK && endOK && req.StartDate > req.EndDate {
		errs = append(errs, "start date must be on or before the end date")
	}

	return &ValidationReport{
		Valid:  len(errs) == 0,
		Errors: errs,
	}
}
