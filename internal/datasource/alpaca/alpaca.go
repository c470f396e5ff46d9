// Package alpaca reads daily bars and recent news from Alpaca market data.
package alpaca

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"pelican-stonks/internal/interfaces"
	"pelican-stonks/internal/logger"
	"pelican-stonks/internal/types"
)

const sourceName = "alpaca"

// marketData is the part of *marketdata.Client used here.
type marketData interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
	GetNews(req marketdata.GetNewsRequest) ([]marketdata.News, error)
}

type Client struct {
	md marketData
}

var (
	_ interfaces.BarSource  = (*Client)(nil)
	_ interfaces.NewsSource = (*Client)(nil)
)

// New builds a client. baseURL overrides the data endpoint when non-empty.
func New(keyID, secret, baseURL string) (*Client, error) {
	if keyID == "" || secret == "" {
		return nil, errors.New("alpaca: key id and secret are required")
	}
	return &Client{md: marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    keyID,
		APISecret: secret,
		BaseURL:   baseURL,
	})}, nil
}

func newWithMarketData(md marketData) *Client {
	return &Client{md: md}
}

// DailyBars returns one bar per trading day in [start, end], oldest first.
func (c *Client) DailyBars(ctx context.Context, ticker string, start, end time.Time) ([]types.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bars, err := c.md.GetBars(ticker, marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Start:      start,
		End:        end,
		Adjustment: marketdata.Split,
	})
	if err != nil {
		return nil, &types.DataFetchError{Ticker: ticker, Source: sourceName, Err: err}
	}
	if len(bars) == 0 {
		return nil, &types.DataFetchError{Ticker: ticker, Source: sourceName, Err: errors.New("no bars returned")}
	}

	out := make([]types.Bar, 0, len(bars))
	for _, b := range bars {
		out = append(out, types.Bar{
			Symbol:     ticker,
			Timestamp:  b.Timestamp.UTC(),
			Open:       b.Open,
			High:       b.High,
			Low:        b.Low,
			Close:      b.Close,
			Volume:     int64(b.Volume),
			TradeCount: int64(b.TradeCount),
			VWAP:       b.VWAP,
		})
	}
	logger.Debug(ctx, "Fetched daily bars", "ticker", ticker, "count", len(out),
		"from", start.Format(types.DateLayout), "to", end.Format(types.DateLayout))
	return out, nil
}

// RecentNews returns up to limit articles published in the lookback window.
func (c *Client) RecentNews(ctx context.Context, ticker string, lookbackDays, limit int) ([]types.NewsItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	news, err := c.md.GetNews(marketdata.GetNewsRequest{
		Symbols:    []string{ticker},
		Start:      time.Now().AddDate(0, 0, -lookbackDays),
		TotalLimit: limit,
		Sort:       marketdata.SortDesc,
	})
	if err != nil {
		return nil, &types.DataFetchError{Ticker: ticker, Source: sourceName, Err: err}
	}

	out := make([]types.NewsItem, 0, len(news))
	for _, n := range news {
		if strings.TrimSpace(n.Headline) == "" {
			continue
		}
		out = append(out, types.NewsItem{Headline: n.Headline, Summary: n.Summary, URL: n.URL})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
