package eodhd

import (
	"encoding/json"
	"strconv"
	"strings"

	"pelican-stonks/internal/types"
)

// fundamentalsResponse is the subset of /fundamentals used here. Statement
// values arrive as strings, numbers or null, so they stay untyped.
type fundamentalsResponse struct {
	Valuation struct {
		TrailingPE   any `json:"TrailingPE"`
		PriceBookMRQ any `json:"PriceBookMRQ"`
	} `json:"Valuation"`
	SharesStats struct {
		SharesOutstanding any `json:"SharesOutstanding"`
	} `json:"SharesStats"`
	Financials struct {
		BalanceSheet    statement `json:"Balance_Sheet"`
		IncomeStatement statement `json:"Income_Statement"`
	} `json:"Financials"`
}

type statement struct {
	Yearly map[string]map[string]any `json:"yearly"`
}

type eodRow struct {
	Date          string  `json:"date"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Close         float64 `json:"close"`
	AdjustedClose float64 `json:"adjusted_close"`
	Volume        int64   `json:"volume"`
}

// Field names per canonical statement line.
var (
	incomeFields = map[string]string{
		types.LineTotalRevenue:    "totalRevenue",
		types.LineGrossProfit:     "grossProfit",
		types.LineOperatingIncome: "operatingIncome",
		types.LineNetIncome:       "netIncome",
	}
	balanceFields = map[string]string{
		types.LineTotalAssets:      "totalAssets",
		types.LineTotalLiabilities: "totalLiab",
		types.LineTotalEquity:      "totalStockholderEquity",
		types.LineTotalDebt:        "shortLongTermDebtTotal",
	}
)

// number reads a value that may be a JSON number, a numeric string or null.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" || strings.EqualFold(s, "none") || strings.EqualFold(s, "null") {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func numberPtr(v any) *float64 {
	if f, ok := number(v); ok {
		return &f
	}
	return nil
}
