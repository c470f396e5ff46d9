// Package eodhd reads annual statements, valuation ratios and daily closes
// from the EODHD API.
package eodhd

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"pelican-stonks/internal/api"
	"pelican-stonks/internal/datasource/cache"
	"pelican-stonks/internal/interfaces"
	"pelican-stonks/internal/logger"
	"pelican-stonks/internal/types"
)

const (
	DefaultBaseURL   = "https://eodhd.com/api"
	DefaultRateLimit = 5
	sourceName       = "eodhd"
)

type Client struct {
	http     *api.Client
	apiKey   string
	exchange string
	cache    *cache.Cache

	baseURL string
	rps     float64

	mu   sync.Mutex
	memo map[string]*fundamentalsResponse
}

var _ interfaces.StatementSource = (*Client)(nil)

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

func WithRateLimit(requestsPerSecond float64) Option {
	return func(c *Client) {
		c.rps = requestsPerSecond
	}
}

// WithCache stores fundamentals responses on disk between runs.
func WithCache(fc *cache.Cache) Option {
	return func(c *Client) {
		c.cache = fc
	}
}

// WithExchange sets the suffix appended to bare tickers (default "US").
func WithExchange(code string) Option {
	return func(c *Client) {
		c.exchange = code
	}
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:   apiKey,
		exchange: "US",
		baseURL:  DefaultBaseURL,
		rps:      DefaultRateLimit,
		memo:     make(map[string]*fundamentalsResponse),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = api.NewClient(
		api.WithBaseURL(c.baseURL),
		api.WithTimeout(30*time.Second),
		api.WithHeader("Accept", "application/json"),
		api.WithRateLimit(c.rps, int(c.rps)+1),
		api.WithLogging(true),
	)
	return c
}

func (c *Client) symbol(ticker string) string {
	if strings.Contains(ticker, ".") {
		return ticker
	}
	return ticker + "." + c.exchange
}

func (c *Client) path(endpoint string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")
	return endpoint + "?" + params.Encode()
}

func (c *Client) fetchErr(ticker string, err error) error {
	return &types.DataFetchError{Ticker: ticker, Source: sourceName, Err: err}
}

func (c *Client) fundamentals(ctx context.Context, ticker string) (*fundamentalsResponse, error) {
	sym := c.symbol(ticker)

	c.mu.Lock()
	if f, ok := c.memo[sym]; ok {
		c.mu.Unlock()
		return f, nil
	}
	c.mu.Unlock()

	fetch := func() ([]byte, error) {
		resp, err := c.http.GETWithRetry(ctx, c.path("/fundamentals/"+sym, nil), nil)
		if err != nil {
			return nil, err
		}
		return resp.Body, nil
	}

	var body []byte
	var err error
	if c.cache != nil {
		body, err = c.cache.GetOrFetch(cache.Key(sourceName, "fundamentals", sym, time.Now().Format(types.DateLayout)), fetch)
	} else {
		body, err = fetch()
	}
	if err != nil {
		return nil, c.fetchErr(ticker, err)
	}

	var f fundamentalsResponse
	if err := (&api.Response{Body: body}).ParseJSON(&f); err != nil {
		return nil, c.fetchErr(ticker, err)
	}

	c.mu.Lock()
	c.memo[sym] = &f
	c.mu.Unlock()
	return &f, nil
}

// periods converts yearly statement rows, most recent first. Unreported or
// unparseable values are left out of the period.
func periods(st statement, fields map[string]string) []types.Period {
	dates := make([]string, 0, len(st.Yearly))
	for d := range st.Yearly {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	out := make([]types.Period, 0, len(dates))
	for _, d := range dates {
		row := st.Yearly[d]
		p := types.Period{EndDate: d, Lines: make(map[string]float64, len(fields))}
		if rd, ok := row["date"].(string); ok && rd != "" {
			p.EndDate = rd
		}
		for line, field := range fields {
			if v, ok := number(row[field]); ok {
				p.Lines[line] = v
			}
		}
		out = append(out, p)
	}
	return out
}

func (c *Client) IncomeStatement(ctx context.Context, ticker string) ([]types.Period, error) {
	f, err := c.fundamentals(ctx, ticker)
	if err != nil {
		return nil, err
	}
	ps := periods(f.Financials.IncomeStatement, incomeFields)
	if len(ps) == 0 {
		return nil, c.fetchErr(ticker, fmt.Errorf("no yearly income statement"))
	}
	return ps, nil
}

func (c *Client) BalanceSheet(ctx context.Context, ticker string) ([]types.Period, error) {
	f, err := c.fundamentals(ctx, ticker)
	if err != nil {
		return nil, err
	}
	ps := periods(f.Financials.BalanceSheet, balanceFields)
	if len(ps) == 0 {
		return nil, c.fetchErr(ticker, fmt.Errorf("no yearly balance sheet"))
	}
	return ps, nil
}

func (c *Client) SummaryRatios(ctx context.Context, ticker string) (types.SummaryRatios, error) {
	f, err := c.fundamentals(ctx, ticker)
	if err != nil {
		return types.SummaryRatios{}, err
	}
	return types.SummaryRatios{
		TrailingPE:        numberPtr(f.Valuation.TrailingPE),
		PriceToBook:       numberPtr(f.Valuation.PriceBookMRQ),
		SharesOutstanding: numberPtr(f.SharesStats.SharesOutstanding),
	}, nil
}

// DailyCloses returns closing prices keyed by ISO date for [from, to].
func (c *Client) DailyCloses(ctx context.Context, ticker string, from, to time.Time) (map[string]float64, error) {
	params := url.Values{}
	params.Set("from", from.Format(types.DateLayout))
	params.Set("to", to.Format(types.DateLayout))
	params.Set("period", "d")

	resp, err := c.http.GETWithRetry(ctx, c.path("/eod/"+c.symbol(ticker), params), nil)
	if err != nil {
		return nil, c.fetchErr(ticker, err)
	}
	var rows []eodRow
	if err := resp.ParseJSON(&rows); err != nil {
		return nil, c.fetchErr(ticker, err)
	}

	closes := make(map[string]float64, len(rows))
	for _, r := range rows {
		closes[r.Date] = r.Close
	}
	logger.Debug(ctx, "Fetched daily closes", "ticker", ticker, "count", len(closes))
	return closes, nil
}
