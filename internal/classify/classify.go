// Package classify maps market labels, catalog codes, and symbol patterns to
// coarse instrument types. Classification and alias resolution are expressed
// as ordered rule tables evaluated first-match-wins, so individual rules can
// be tested and extended without touching control flow.
package classify

import (
	"regexp"
	"strings"
)

// Instrument types.
const (
	TypeKRStock = "kr-stock"
	TypeUSStock = "us-stock"
	TypeETF     = "etf"
	TypeCash    = "cash"
	TypeStock   = "stock"
)

// typeRule pairs a predicate over (market label, catalog code) with the
// instrument type it selects.
type typeRule struct {
	match  func(label, catalogCode string) bool
	result string
}

// typeRules is evaluated in order; the first matching rule wins.
// InstrumentType falls through to TypeStock when nothing matches.
var typeRules = []typeRule{
	{
		match: func(label, _ string) bool {
			return strings.Contains(label, "KOSPI") || strings.Contains(label, "KOSDAQ")
		},
		result: TypeKRStock,
	},
	{
		match: func(label, catalogCode string) bool {
			return strings.Contains(label, "ETF") || IsETFCatalog(catalogCode)
		},
		result: TypeETF,
	},
	{
		match: func(label, _ string) bool {
			return strings.Contains(label, "NASDAQ") ||
				strings.Contains(label, "NYSE") ||
				strings.Contains(label, "AMEX")
		},
		result: TypeUSStock,
	},
}

// InstrumentType derives the coarse instrument type from a market label and,
// for search results, the originating catalog's market code. Total function:
// unknown inputs classify as TypeStock.
func InstrumentType(marketLabel, catalogCode string) string {
	for _, rule := range typeRules {
		if rule.match(marketLabel, catalogCode) {
			return rule.result
		}
	}
	return TypeStock
}

// IsETFCatalog reports whether a catalog code holds ETF listings.
func IsETFCatalog(catalogCode string) bool {
	return strings.HasPrefix(catalogCode, "ETF")
}

// marketAliases maps user-facing market tokens (upper-cased) to catalog
// codes. Tokens not present pass through unchanged as literal codes.
var marketAliases = map[string]string{
	"ETF":    "ETF_KR",
	"ETFS":   "ETF_KR",
	"ETF/KR": "ETF_KR",
	"ETF/US": "ETF_US",
	"KS":     "KOSPI",
	"KRX":    "KOSPI",
	"KQ":     "KOSDAQ",
	"NQ":     "NASDAQ",
	"NY":     "NYSE",
}

// NormalizeMarketToken upper-cases a market token and resolves it through
// the alias table. Unrecognized tokens are returned as-is (upper-cased) to
// be treated as literal catalog codes.
func NormalizeMarketToken(token string) string {
	upper := strings.ToUpper(strings.TrimSpace(token))
	if code, ok := marketAliases[upper]; ok {
		return code
	}
	return upper
}

// Symbol patterns for backtest holding classification.
var (
	krSymbolPattern = regexp.MustCompile(`^(A)?[0-9]{6}$`)
	usSymbolPattern = regexp.MustCompile(`^[A-Z]{1,5}$`)
)

// HoldingType guesses the instrument type of a backtest holding from its
// symbol pattern, conditioned on the market group. An ETF hint in the symbol
// or name overrides the per-group stock type. The CASH sentinel is handled
// by the enricher before this is consulted.
func HoldingType(marketGroup, symbol, name string) string {
	etfHint := strings.Contains(symbol, "ETF") || strings.Contains(name, "ETF")

	switch marketGroup {
	case "kr":
		if krSymbolPattern.MatchString(symbol) {
			if etfHint {
				return TypeETF
			}
			return TypeKRStock
		}
	case "us":
		if usSymbolPattern.MatchString(symbol) {
			if etfHint {
				return TypeETF
			}
			return TypeUSStock
		}
	}
	return TypeStock
}
