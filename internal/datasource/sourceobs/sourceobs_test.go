package sourceobs

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"pelican-stonks/internal/logger"
	"pelican-stonks/internal/types"
)

type fakeSource struct {
	err error
}

func (f fakeSource) IncomeStatement(ctx context.Context, ticker string) ([]types.Period, error) {
	return []types.Period{{EndDate: "2024-09-30"}}, f.err
}

func (f fakeSource) BalanceSheet(ctx context.Context, ticker string) ([]types.Period, error) {
	return []types.Period{{EndDate: "2024-09-30"}}, f.err
}

func (f fakeSource) DailyCloses(ctx context.Context, ticker string, from, to time.Time) (map[string]float64, error) {
	return map[string]float64{"2024-09-30": 1}, f.err
}

func (f fakeSource) SummaryRatios(ctx context.Context, ticker string) (types.SummaryRatios, error) {
	return types.SummaryRatios{TrailingPE: types.Float64(20)}, f.err
}

func (f fakeSource) DailyBars(ctx context.Context, ticker string, start, end time.Time) ([]types.Bar, error) {
	return []types.Bar{{Symbol: ticker}}, f.err
}

func (f fakeSource) RecentNews(ctx context.Context, ticker string, lookbackDays, limit int) ([]types.NewsItem, error) {
	return []types.NewsItem{{Headline: "h"}}, f.err
}

func TestWrappersPassThrough(t *testing.T) {
	ctx := context.Background()
	src := fakeSource{}

	if p, err := WrapStatements(src).IncomeStatement(ctx, "AAPL"); err != nil || len(p) != 1 {
		t.Errorf("IncomeStatement: got %v %v", p, err)
	}
	if r, err := WrapStatements(src).SummaryRatios(ctx, "AAPL"); err != nil || r.TrailingPE == nil {
		t.Errorf("SummaryRatios: got %+v %v", r, err)
	}
	if b, err := WrapBars(src).DailyBars(ctx, "AAPL", time.Now(), time.Now()); err != nil || b[0].Symbol != "AAPL" {
		t.Errorf("DailyBars: got %v %v", b, err)
	}
	if n, err := WrapNews(src).RecentNews(ctx, "AAPL", 30, 15); err != nil || len(n) != 1 {
		t.Errorf("RecentNews: got %v %v", n, err)
	}
}

func TestWrappersLogAndKeepErrors(t *testing.T) {
	var buf bytes.Buffer
	if err := logger.InitWithConfig(logger.LogConfig{Level: "INFO", Format: "json", Output: &buf}); err != nil {
		t.Fatal(err)
	}
	defer logger.InitWithConfig(logger.LogConfig{Level: "INFO", Format: "text"})

	fetchErr := &types.DataFetchError{Ticker: "TSLA", Source: "eodhd", Err: errors.New("404")}
	_, err := WrapStatements(fakeSource{err: fetchErr}).BalanceSheet(context.Background(), "TSLA")

	var dfe *types.DataFetchError
	if !errors.As(err, &dfe) {
		t.Fatalf("Expected DataFetchError, got %v", err)
	}
	if !strings.Contains(buf.String(), "Failed to fetch balance sheet") {
		t.Errorf("Expected error log, got %q", buf.String())
	}
}
