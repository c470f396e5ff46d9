package alpaca

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"pelican-stonks/internal/types"
)

type fakeMarketData struct {
	bars    []marketdata.Bar
	news    []marketdata.News
	err     error
	barsReq marketdata.GetBarsRequest
	newsReq marketdata.GetNewsRequest
}

func (f *fakeMarketData) GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error) {
	f.barsReq = req
	return f.bars, f.err
}

func (f *fakeMarketData) GetNews(req marketdata.GetNewsRequest) ([]marketdata.News, error) {
	f.newsReq = req
	return f.news, f.err
}

func TestDailyBars(t *testing.T) {
	ts := time.Date(2025, 1, 2, 5, 0, 0, 0, time.UTC)
	md := &fakeMarketData{bars: []marketdata.Bar{
		{Timestamp: ts, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 1000, TradeCount: 12, VWAP: 1.2},
	}}
	c := newWithMarketData(md)

	bars, err := c.DailyBars(context.Background(), "AAPL", ts.AddDate(-1, 0, 0), ts)
	if err != nil {
		t.Fatal(err)
	}
	if len(bars) != 1 || bars[0].Symbol != "AAPL" || bars[0].Volume != 1000 || bars[0].TradeCount != 12 {
		t.Errorf("Unexpected bars %+v", bars)
	}
	if md.barsReq.TimeFrame != marketdata.OneDay {
		t.Errorf("Expected daily timeframe, got %v", md.barsReq.TimeFrame)
	}
}

func TestDailyBarsErrors(t *testing.T) {
	c := newWithMarketData(&fakeMarketData{err: errors.New("forbidden")})
	_, err := c.DailyBars(context.Background(), "TSLA", time.Now(), time.Now())
	var dfe *types.DataFetchError
	if !errors.As(err, &dfe) || dfe.Ticker != "TSLA" {
		t.Fatalf("Expected DataFetchError for TSLA, got %v", err)
	}

	c = newWithMarketData(&fakeMarketData{})
	if _, err := c.DailyBars(context.Background(), "TSLA", time.Now(), time.Now()); !errors.As(err, &dfe) {
		t.Errorf("Expected DataFetchError for empty bars, got %v", err)
	}
}

func TestRecentNewsHonorsLimit(t *testing.T) {
	md := &fakeMarketData{news: []marketdata.News{
		{Headline: "One", Summary: "s1", URL: "u1"},
		{Headline: "  "},
		{Headline: "Two", URL: "u2"},
		{Headline: "Three"},
	}}
	c := newWithMarketData(md)

	items, err := c.RecentNews(context.Background(), "AAPL", 30, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[0].Headline != "One" || items[1].Headline != "Two" {
		t.Errorf("Unexpected items %+v", items)
	}
	if md.newsReq.TotalLimit != 2 || len(md.newsReq.Symbols) != 1 {
		t.Errorf("Unexpected news request %+v", md.newsReq)
	}
}
