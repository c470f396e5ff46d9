package prompt

import (
	"strings"
	"testing"
	"time"

	"pelican-stonks/internal/types"
)

func TestBuildFundamentalEmbedsPersonaDataAndSchema(t *testing.T) {
	pe := 31.5
	batch := map[string]types.AnalysisRequest{
		"TSLA": {Fundamentals: types.Fundamentals{RawFinancials: types.RawFinancials{Ticker: "TSLA"}}},
		"AAPL": {
			Fundamentals: types.Fundamentals{
				RawFinancials:  types.RawFinancials{Ticker: "AAPL"},
				DerivedMetrics: types.DerivedMetrics{TrailingPE: &pe},
			},
			News: []types.NewsItem{{Headline: "Apple ships", Summary: "s", URL: "https://example.com/a"}},
		},
	}

	out, err := BuildFundamental(batch, Fundamental)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	for _, want := range []string{
		"professional equity research analyst",
		`"trailingPE": 31.5`,
		`"currentPBV": null`,
		"Apple ships",
		`"recommendations": [`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected prompt to contain %q", want)
		}
	}

	if strings.Index(out, `"AAPL"`) > strings.Index(out, `"TSLA"`) {
		t.Error("Expected tickers in sorted order")
	}
}

func TestBuildForecastCarriesCountConstraint(t *testing.T) {
	bars := []types.Bar{
		{Timestamp: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100, TradeCount: 7, VWAP: 1.2},
	}

	out, err := BuildForecast("AAPL", bars, types.Indicators{}, Forecast)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !strings.Contains(out, "EXACTLY 30 days") {
		t.Error("Expected explicit 30-day constraint")
	}
	if !strings.Contains(out, "2025-03-03") {
		t.Error("Expected bar date in table")
	}
	if !strings.Contains(out, `"weekly_forecast"`) {
		t.Error("Expected forecast schema")
	}
}
