// Package kite reads daily bars for NSE/BSE symbols from Zerodha Kite Connect.
package kite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"pelican-stonks/internal/interfaces"
	"pelican-stonks/internal/logger"
	"pelican-stonks/internal/types"
)

const sourceName = "kite"

// kiteAPI is the part of *kiteconnect.Client used here.
type kiteAPI interface {
	GetInstrumentsByExchange(exchange string) (kiteconnect.Instruments, error)
	GetHistoricalData(instrumentToken int, interval string, fromDate time.Time, toDate time.Time, continuous bool, oi bool) ([]kiteconnect.HistoricalData, error)
}

type Params struct {
	APIKey      string
	AccessToken string
	Exchange    string
}

type Client struct {
	kc       kiteAPI
	exchange string
	mapper   *instrumentMapper

	loadOnce sync.Once
	loadErr  error
}

var _ interfaces.BarSource = (*Client)(nil)

func New(p Params) (*Client, error) {
	if p.APIKey == "" || p.AccessToken == "" {
		return nil, errors.New("kite: api key and access token are required")
	}
	kc := kiteconnect.New(p.APIKey)
	kc.SetAccessToken(p.AccessToken)
	return newWithAPI(kc, p.Exchange), nil
}

func newWithAPI(kc kiteAPI, exchange string) *Client {
	if exchange == "" {
		exchange = "NSE"
	}
	return &Client{kc: kc, exchange: exchange, mapper: newInstrumentMapper()}
}

// loadInstruments fills the mapper from the exchange instrument dump, once.
func (c *Client) loadInstruments(ctx context.Context) error {
	c.loadOnce.Do(func() {
		instruments, err := c.kc.GetInstrumentsByExchange(c.exchange)
		if err != nil {
			c.loadErr = fmt.Errorf("load %s instruments: %w", c.exchange, err)
			return
		}
		for _, inst := range instruments {
			c.mapper.addMapping(inst.Tradingsymbol, inst.InstrumentToken)
		}
		logger.Info(ctx, "Loaded Kite instruments", "exchange", c.exchange, "count", c.mapper.size())
	})
	return c.loadErr
}

// DailyBars fetches day candles. Kite does not report trade count or VWAP,
// so VWAP is approximated by the typical price.
func (c *Client) DailyBars(ctx context.Context, ticker string, start, end time.Time) ([]types.Bar, error) {
	if err := c.loadInstruments(ctx); err != nil {
		return nil, &types.DataFetchError{Ticker: ticker, Source: sourceName, Err: err}
	}
	symbol := strings.TrimSuffix(strings.TrimSuffix(ticker, ".NS"), "."+c.exchange)
	token, ok := c.mapper.getToken(symbol)
	if !ok {
		return nil, &types.DataFetchError{Ticker: ticker, Source: sourceName, Err: fmt.Errorf("unknown %s symbol %s", c.exchange, symbol)}
	}

	candles, err := c.kc.GetHistoricalData(token, "day", start, end, false, false)
	if err != nil {
		return nil, &types.DataFetchError{Ticker: ticker, Source: sourceName, Err: err}
	}
	if len(candles) == 0 {
		return nil, &types.DataFetchError{Ticker: ticker, Source: sourceName, Err: errors.New("no candles returned")}
	}

	bars := make([]types.Bar, 0, len(candles))
	for _, k := range candles {
		bars = append(bars, types.Bar{
			Symbol:    c.mapper.getSymbol(token),
			Timestamp: k.Date.Time,
			Open:      k.Open,
			High:      k.High,
			Low:       k.Low,
			Close:     k.Close,
			Volume:    int64(k.Volume),
			VWAP:      (k.High + k.Low + k.Close) / 3,
		})
	}
	return bars, nil
}
