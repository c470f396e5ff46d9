package kite

import (
	"context"
	"errors"
	"testing"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"
	"github.com/zerodha/gokiteconnect/v4/models"

	"pelican-stonks/internal/types"
)

type fakeKite struct {
	instrumentCalls int
	gotToken        int
}

func (f *fakeKite) GetInstrumentsByExchange(exchange string) (kiteconnect.Instruments, error) {
	f.instrumentCalls++
	return kiteconnect.Instruments{
		{InstrumentToken: 738561, Tradingsymbol: "RELIANCE"},
		{InstrumentToken: 2953217, Tradingsymbol: "TCS"},
	}, nil
}

func (f *fakeKite) GetHistoricalData(instrumentToken int, interval string, fromDate time.Time, toDate time.Time, continuous bool, oi bool) ([]kiteconnect.HistoricalData, error) {
	f.gotToken = instrumentToken
	d := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	return []kiteconnect.HistoricalData{
		{Date: models.Time{Time: d}, Open: 100, High: 110, Low: 90, Close: 105, Volume: 5000},
	}, nil
}

func TestDailyBarsResolvesToken(t *testing.T) {
	fk := &fakeKite{}
	c := newWithAPI(fk, "NSE")

	for _, sym := range []string{"TCS", "tcs.NS"} {
		bars, err := c.DailyBars(context.Background(), sym, time.Now().AddDate(-1, 0, 0), time.Now())
		if err != nil {
			t.Fatalf("%s: unexpected error %v", sym, err)
		}
		if fk.gotToken != 2953217 {
			t.Errorf("%s: expected TCS token, got %d", sym, fk.gotToken)
		}
		if bars[0].Symbol != "TCS" || bars[0].VWAP != 305.0/3 {
			t.Errorf("%s: unexpected bar %+v", sym, bars[0])
		}
	}
	if fk.instrumentCalls != 1 {
		t.Errorf("Expected instruments loaded once, got %d", fk.instrumentCalls)
	}
}

func TestUnknownSymbol(t *testing.T) {
	c := newWithAPI(&fakeKite{}, "NSE")
	_, err := c.DailyBars(context.Background(), "NOPE", time.Now(), time.Now())
	var dfe *types.DataFetchError
	if !errors.As(err, &dfe) || dfe.Source != "kite" {
		t.Errorf("Expected kite DataFetchError, got %v", err)
	}
}
