package ta

import (
	"math"
	"testing"
	"time"

	"pelican-stonks/internal/types"
)

func TestSMA(t *testing.T) {
	if got := SMA([]float64{1, 2, 3, 4}, 2); got != 3.5 {
		t.Errorf("Expected 3.5, got %f", got)
	}
	if !math.IsNaN(SMA([]float64{1}, 2)) {
		t.Error("Expected NaN for short series")
	}
}

func TestRSIAllGains(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = float64(i)
	}
	if got := RSI(closes, 14); got != 100 {
		t.Errorf("Expected RSI 100 for monotonic gains, got %f", got)
	}
}

func TestComputeLeavesShortHistoryNil(t *testing.T) {
	start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, 30)
	for i := range bars {
		p := 100 + float64(i)
		bars[i] = types.Bar{Timestamp: start.AddDate(0, 0, i), Open: p, High: p + 1, Low: p - 1, Close: p}
	}

	ind := Compute(bars)

	if ind.SMA[20] == nil {
		t.Error("Expected SMA20 with 30 bars")
	}
	if ind.SMA[50] != nil || ind.SMA[200] != nil {
		t.Error("Expected SMA50/200 to be nil with 30 bars")
	}
	if ind.RSI == nil || ind.ATR == nil || ind.BBMid == nil {
		t.Error("Expected RSI, ATR and Bollinger with 30 bars")
	}
	if *ind.ATR != 2 {
		t.Errorf("Expected ATR 2, got %f", *ind.ATR)
	}
}
