package eodhd

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"pelican-stonks/internal/datasource/cache"
	"pelican-stonks/internal/types"
)

const fundamentalsBody = `{
  "Valuation": {"TrailingPE": 28.5, "PriceBookMRQ": "45.1"},
  "SharesStats": {"SharesOutstanding": 15000000000},
  "Financials": {
    "Income_Statement": {"yearly": {
      "2023-09-30": {"date": "2023-09-30", "totalRevenue": "383285000000.00", "grossProfit": "169148000000.00", "operatingIncome": "114301000000.00", "netIncome": "96995000000.00"},
      "2024-09-30": {"date": "2024-09-30", "totalRevenue": "391035000000.00", "grossProfit": null, "operatingIncome": "123216000000.00", "netIncome": "93736000000.00"}
    }},
    "Balance_Sheet": {"yearly": {
      "2024-09-30": {"date": "2024-09-30", "totalAssets": "364980000000.00", "totalLiab": "308030000000.00", "totalStockholderEquity": "56950000000.00", "shortLongTermDebtTotal": null}
    }}
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient("test-token", append([]Option{WithBaseURL(server.URL), WithRateLimit(1000)}, opts...)...)
}

func TestStatementsAndRatios(t *testing.T) {
	var hits int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path != "/fundamentals/AAPL.US" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("api_token") != "test-token" || r.URL.Query().Get("fmt") != "json" {
			t.Errorf("Missing token or fmt in %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(fundamentalsBody))
	})
	ctx := context.Background()

	income, err := c.IncomeStatement(ctx, "AAPL")
	if err != nil {
		t.Fatalf("IncomeStatement failed: %v", err)
	}
	if len(income) != 2 || income[0].EndDate != "2024-09-30" {
		t.Fatalf("Expected two periods, most recent first, got %+v", income)
	}
	if _, ok := income[0].Line(types.LineGrossProfit); ok {
		t.Error("Expected null grossProfit to be absent")
	}
	if v, _ := income[0].Line(types.LineTotalRevenue); v != 391035000000 {
		t.Errorf("Unexpected revenue %f", v)
	}

	balance, err := c.BalanceSheet(ctx, "AAPL")
	if err != nil {
		t.Fatalf("BalanceSheet failed: %v", err)
	}
	if _, ok := balance[0].Line(types.LineTotalDebt); ok {
		t.Error("Expected null debt to be absent")
	}

	ratios, err := c.SummaryRatios(ctx, "AAPL")
	if err != nil {
		t.Fatalf("SummaryRatios failed: %v", err)
	}
	if ratios.TrailingPE == nil || *ratios.TrailingPE != 28.5 {
		t.Errorf("Unexpected trailing PE %v", ratios.TrailingPE)
	}
	if ratios.PriceToBook == nil || *ratios.PriceToBook != 45.1 {
		t.Errorf("Expected string P/B to parse, got %v", ratios.PriceToBook)
	}

	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("Expected fundamentals fetched once, got %d", n)
	}
}

func TestFundamentalsServedFromDiskCache(t *testing.T) {
	dir := t.TempDir()
	var hits int32
	handler := func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(fundamentalsBody))
	}

	for i := 0; i < 2; i++ {
		fc, err := cache.New(dir, time.Hour)
		if err != nil {
			t.Fatal(err)
		}
		c := newTestClient(t, handler, WithCache(fc))
		if _, err := c.IncomeStatement(context.Background(), "AAPL"); err != nil {
			t.Fatal(err)
		}
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("Expected second client to hit the disk cache, got %d requests", n)
	}
}

func TestDailyCloses(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/eod/TSLA.US") {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("from") != "2021-01-01" || r.URL.Query().Get("period") != "d" {
			t.Errorf("Unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`[{"date":"2024-09-27","close":255.0},{"date":"2024-09-30","close":261.6}]`))
	})

	closes, err := c.DailyCloses(context.Background(), "TSLA",
		time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if closes["2024-09-30"] != 261.6 || len(closes) != 2 {
		t.Errorf("Unexpected closes %v", closes)
	}
}

func TestNotFoundIsDataFetchError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Ticker Not Found.", http.StatusNotFound)
	})

	_, err := c.IncomeStatement(context.Background(), "NOPE")
	var dfe *types.DataFetchError
	if !errors.As(err, &dfe) {
		t.Fatalf("Expected DataFetchError, got %v", err)
	}
	if dfe.Ticker != "NOPE" || dfe.Source != "eodhd" {
		t.Errorf("Unexpected error fields %+v", dfe)
	}
}

func TestSymbolKeepsExplicitExchange(t *testing.T) {
	c := NewClient("k", WithExchange("NSE"))
	if got := c.symbol("RELIANCE"); got != "RELIANCE.NSE" {
		t.Errorf("Expected RELIANCE.NSE, got %s", got)
	}
	if got := c.symbol("BHP.AU"); got != "BHP.AU" {
		t.Errorf("Expected BHP.AU, got %s", got)
	}
}
