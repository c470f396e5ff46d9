// Package metrics derives secondary ratios from raw statement periods.
// Everything here is pure: no network, no database, no logging.
package metrics

import (
	"fmt"
	"math"
	"sort"

	"pelican-stonks/internal/types"
)

// Lookback is the number of fiscal periods fed to the deriver.
const Lookback = 4

// Trim keeps the n most recent periods of each statement.
func Trim(raw types.RawFinancials, n int) types.RawFinancials {
	if len(raw.Income) > n {
		raw.Income = raw.Income[:n]
	}
	if len(raw.Balance) > n {
		raw.Balance = raw.Balance[:n]
	}
	return raw
}

// Derive computes book value, margins, debt/equity and historical P/E for one
// ticker. closes maps ISO dates to daily closing prices. A sub-metric that
// panics is reported in the returned slice and left partial; the others are
// still computed.
func Derive(raw types.RawFinancials, ratios types.SummaryRatios, closes map[string]float64) (types.DerivedMetrics, []error) {
	var failures []error
	dm := types.DerivedMetrics{
		BookValue:    map[string]*float64{},
		Margins:      map[string]types.Margins{},
		DebtToEquity: map[string]*float64{},
		HistoricalPE: map[string]*float64{},
		TrailingPE:   finitePtr(ratios.TrailingPE),
		CurrentPBV:   finitePtr(ratios.PriceToBook),
	}

	guard("bookValue", &failures, func() { bookValues(raw.Balance, dm.BookValue) })
	guard("margins", &failures, func() { margins(raw.Income, dm.Margins) })
	guard("debtToEquity", &failures, func() { debtToEquity(raw.Balance, dm.DebtToEquity) })
	guard("historicalPE", &failures, func() {
		historicalPE(raw.Income, ratios.SharesOutstanding, closes, dm.HistoricalPE)
	})

	return dm, failures
}

func guard(name string, failures *[]error, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			*failures = append(*failures, fmt.Errorf("derive %s: %v", name, r))
		}
	}()
	fn()
}

// bookValues skips any period that lacks assets or liabilities.
func bookValues(balance []types.Period, out map[string]*float64) {
	for _, p := range balance {
		assets, okA := p.Line(types.LineTotalAssets)
		liab, okL := p.Line(types.LineTotalLiabilities)
		if !okA || !okL {
			continue
		}
		out[p.EndDate] = finite(assets - liab)
	}
}

func margins(income []types.Period, out map[string]types.Margins) {
	for _, p := range income {
		revenue, ok := p.Line(types.LineTotalRevenue)
		if !ok || revenue == 0 {
			out[p.EndDate] = types.Margins{}
			continue
		}
		out[p.EndDate] = types.Margins{
			GrossMargin:     ratio(p, types.LineGrossProfit, revenue),
			OperatingMargin: ratio(p, types.LineOperatingIncome, revenue),
			NetMargin:       ratio(p, types.LineNetIncome, revenue),
		}
	}
}

func ratio(p types.Period, line string, denom float64) *float64 {
	num, ok := p.Line(line)
	if !ok {
		return nil
	}
	return finite(num / denom)
}

// debtToEquity treats missing debt as zero; missing or zero equity is null.
func debtToEquity(balance []types.Period, out map[string]*float64) {
	for _, p := range balance {
		debt, _ := p.Line(types.LineTotalDebt)
		equity, ok := p.Line(types.LineTotalEquity)
		if !ok || equity == 0 {
			out[p.EndDate] = nil
			continue
		}
		out[p.EndDate] = finite(debt / equity)
	}
}

// historicalPE uses the latest close at or before each period end. Shares
// outstanding is today's count applied to every period.
func historicalPE(income []types.Period, shares *float64, closes map[string]float64, out map[string]*float64) {
	dates := make([]string, 0, len(closes))
	for d := range closes {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	for _, p := range income {
		out[p.EndDate] = nil

		price, ok := closeAtOrBefore(dates, closes, p.EndDate)
		if !ok {
			continue
		}
		netIncome, ok := p.Line(types.LineNetIncome)
		if !ok || shares == nil || *shares == 0 {
			continue
		}
		eps := netIncome / *shares
		if eps == 0 {
			continue
		}
		out[p.EndDate] = finite(price / eps)
	}
}

func closeAtOrBefore(sorted []string, closes map[string]float64, date string) (float64, bool) {
	i := sort.SearchStrings(sorted, date)
	if i < len(sorted) && sorted[i] == date {
		return closes[date], true
	}
	if i == 0 {
		return 0, false
	}
	return closes[sorted[i-1]], true
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func finitePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return finite(*v)
}
