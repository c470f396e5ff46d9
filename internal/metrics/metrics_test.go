package metrics

import (
	"math"
	"testing"

	"pelican-stonks/internal/types"
)

func period(date string, lines map[string]float64) types.Period {
	return types.Period{EndDate: date, Lines: lines}
}

func TestMarginsNullOnZeroOrAbsentRevenue(t *testing.T) {
	raw := types.RawFinancials{
		Ticker: "AAPL",
		Income: []types.Period{
			period("2024-09-30", map[string]float64{
				types.LineTotalRevenue:    0,
				types.LineGrossProfit:     10,
				types.LineOperatingIncome: 5,
				types.LineNetIncome:       2,
			}),
			period("2023-09-30", map[string]float64{
				types.LineGrossProfit: 10,
				types.LineNetIncome:   2,
			}),
			period("2022-09-30", map[string]float64{
				types.LineTotalRevenue: 100,
				types.LineGrossProfit:  40,
				types.LineNetIncome:    25,
			}),
		},
	}

	dm, failures := Derive(raw, types.SummaryRatios{}, nil)
	if len(failures) != 0 {
		t.Fatalf("Expected no failures, got %v", failures)
	}

	for _, date := range []string{"2024-09-30", "2023-09-30"} {
		m, ok := dm.Margins[date]
		if !ok {
			t.Fatalf("Expected margins entry for %s", date)
		}
		if m.GrossMargin != nil || m.OperatingMargin != nil || m.NetMargin != nil {
			t.Errorf("Expected all margins null for %s, got %+v", date, m)
		}
	}

	m := dm.Margins["2022-09-30"]
	if m.GrossMargin == nil || *m.GrossMargin != 0.4 {
		t.Errorf("Expected gross margin 0.4, got %v", m.GrossMargin)
	}
	if m.NetMargin == nil || *m.NetMargin != 0.25 {
		t.Errorf("Expected net margin 0.25, got %v", m.NetMargin)
	}
	if m.OperatingMargin != nil {
		t.Errorf("Expected operating margin null when the line is absent, got %v", *m.OperatingMargin)
	}
}

func TestBookValueIsolation(t *testing.T) {
	raw := types.RawFinancials{
		Balance: []types.Period{
			period("2024-12-31", map[string]float64{types.LineTotalAssets: 500, types.LineTotalLiabilities: 200}),
			period("2023-12-31", map[string]float64{types.LineTotalAssets: 450}),
			period("2022-12-31", map[string]float64{types.LineTotalAssets: 400, types.LineTotalLiabilities: 150}),
		},
	}

	dm, _ := Derive(raw, types.SummaryRatios{}, nil)

	if v := dm.BookValue["2024-12-31"]; v == nil || *v != 300 {
		t.Errorf("Expected book value 300, got %v", v)
	}
	if v := dm.BookValue["2022-12-31"]; v == nil || *v != 250 {
		t.Errorf("Expected book value 250, got %v", v)
	}
	if v, ok := dm.BookValue["2023-12-31"]; ok && v != nil {
		t.Errorf("Expected no book value for period missing liabilities, got %v", *v)
	}
}

func TestDebtToEquity(t *testing.T) {
	raw := types.RawFinancials{
		Balance: []types.Period{
			period("2024-12-31", map[string]float64{types.LineTotalDebt: 50, types.LineTotalEquity: 100}),
			period("2023-12-31", map[string]float64{types.LineTotalEquity: 80}),
			period("2022-12-31", map[string]float64{types.LineTotalDebt: 50, types.LineTotalEquity: 0}),
			period("2021-12-31", map[string]float64{types.LineTotalDebt: 50}),
		},
	}

	dm, _ := Derive(raw, types.SummaryRatios{}, nil)

	if v := dm.DebtToEquity["2024-12-31"]; v == nil || *v != 0.5 {
		t.Errorf("Expected D/E 0.5, got %v", v)
	}
	if v := dm.DebtToEquity["2023-12-31"]; v == nil || *v != 0 {
		t.Errorf("Expected D/E 0 when debt is absent, got %v", v)
	}
	for _, date := range []string{"2022-12-31", "2021-12-31"} {
		v, ok := dm.DebtToEquity[date]
		if !ok {
			t.Errorf("Expected an entry for %s", date)
		}
		if v != nil {
			t.Errorf("Expected null D/E for %s, got %v", date, *v)
		}
	}
}

func TestHistoricalPE(t *testing.T) {
	shares := 10.0
	raw := types.RawFinancials{
		Income: []types.Period{
			period("2024-09-28", map[string]float64{types.LineNetIncome: 100}),
			period("2023-09-30", map[string]float64{types.LineNetIncome: 0}),
			period("2019-09-30", map[string]float64{types.LineNetIncome: 100}),
		},
	}
	closes := map[string]float64{
		"2024-09-27": 200,
		"2024-09-30": 999,
		"2023-09-29": 150,
	}

	dm, _ := Derive(raw, types.SummaryRatios{SharesOutstanding: &shares}, closes)

	// Saturday period end uses Friday's close.
	if v := dm.HistoricalPE["2024-09-28"]; v == nil || *v != 20 {
		t.Errorf("Expected P/E 20, got %v", v)
	}
	if v := dm.HistoricalPE["2023-09-30"]; v != nil {
		t.Errorf("Expected null P/E for zero EPS, got %v", *v)
	}
	if v := dm.HistoricalPE["2019-09-30"]; v != nil {
		t.Errorf("Expected null P/E when no close precedes the period, got %v", *v)
	}
}

func TestHistoricalPEWithoutShares(t *testing.T) {
	raw := types.RawFinancials{
		Income: []types.Period{period("2024-09-28", map[string]float64{types.LineNetIncome: 100})},
	}
	dm, _ := Derive(raw, types.SummaryRatios{}, map[string]float64{"2024-09-27": 200})

	v, ok := dm.HistoricalPE["2024-09-28"]
	if !ok || v != nil {
		t.Errorf("Expected a null entry, got present=%v value=%v", ok, v)
	}
}

func TestNonFiniteRatiosBecomeNull(t *testing.T) {
	nan := math.NaN()
	inf := math.Inf(1)
	dm, _ := Derive(types.RawFinancials{}, types.SummaryRatios{TrailingPE: &nan, PriceToBook: &inf}, nil)

	if dm.TrailingPE != nil {
		t.Errorf("Expected NaN trailing P/E to become null, got %v", *dm.TrailingPE)
	}
	if dm.CurrentPBV != nil {
		t.Errorf("Expected Inf P/B to become null, got %v", *dm.CurrentPBV)
	}
}

func TestGuardRecoversPanic(t *testing.T) {
	var failures []error
	out := map[string]*float64{}
	guard("boom", &failures, func() {
		out["2024-01-01"] = finite(1)
		var m map[string]float64
		m["x"] = 1
	})

	if len(failures) != 1 {
		t.Fatalf("Expected 1 recovered failure, got %d", len(failures))
	}
	if len(out) != 1 {
		t.Errorf("Expected partial mapping to survive, got %d entries", len(out))
	}
}

func TestTrim(t *testing.T) {
	raw := types.RawFinancials{}
	for i := 0; i < 6; i++ {
		raw.Income = append(raw.Income, types.Period{})
		raw.Balance = append(raw.Balance, types.Period{})
	}
	raw = Trim(raw, Lookback)
	if len(raw.Income) != 4 || len(raw.Balance) != 4 {
		t.Errorf("Expected 4 periods each, got %d/%d", len(raw.Income), len(raw.Balance))
	}
}
