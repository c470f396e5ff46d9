// Package ta computes the indicator context attached to forecast prompts.
package ta

import (
	"math"

	"pelican-stonks/internal/types"
)

// SMAWindows are the moving-average windows reported to the model.
var SMAWindows = []int{20, 50, 200}

const (
	rsiPeriod = 14
	atrPeriod = 14
	bbWindow  = 20
	bbStdDev  = 2.0
)

// Compute summarizes bars, oldest first. Indicators needing more history
// than is available are left nil.
func Compute(bars []types.Bar) types.Indicators {
	closes := make([]float64, len(bars))
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	for i, b := range bars {
		closes[i], highs[i], lows[i] = b.Close, b.High, b.Low
	}

	ind := types.Indicators{SMA: make(map[int]*float64, len(SMAWindows))}
	for _, w := range SMAWindows {
		ind.SMA[w] = ptr(SMA(closes, w))
	}
	ind.RSI = ptr(RSI(closes, rsiPeriod))
	ind.ATR = ptr(ATR(highs, lows, closes, atrPeriod))
	mid, up, low := Bollinger(closes, bbWindow, bbStdDev)
	ind.BBMid, ind.BBUpper, ind.BBLower = ptr(mid), ptr(up), ptr(low)
	return ind
}

func ptr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func SMA(closes []float64, n int) float64 {
	if len(closes) < n || n <= 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(closes) - n; i < len(closes); i++ {
		sum += closes[i]
	}
	return sum / float64(n)
}

func RSI(closes []float64, period int) float64 {
	if len(closes) < period+1 || period <= 0 {
		return math.NaN()
	}
	gain, loss := 0.0, 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	if loss == 0 {
		return 100.0
	}
	rs := gain / loss
	return 100.0 - (100.0 / (1.0 + rs))
}

func StdDev(vals []float64, n int) float64 {
	if len(vals) < n || n <= 0 {
		return math.NaN()
	}
	m := SMA(vals, n)
	s := 0.0
	for i := len(vals) - n; i < len(vals); i++ {
		d := vals[i] - m
		s += d * d
	}
	return math.Sqrt(s / float64(n))
}

func Bollinger(closes []float64, n int, k float64) (mid, up, low float64) {
	mid = SMA(closes, n)
	sd := StdDev(closes, n)
	return mid, mid + k*sd, mid - k*sd
}

// ATR is the simple average true range over the last period bars.
func ATR(highs, lows, closes []float64, period int) float64 {
	if len(highs) != len(lows) || len(lows) != len(closes) {
		return math.NaN()
	}
	if period <= 0 || len(closes) < period+1 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		tr := math.Max(highs[i]-lows[i], math.Max(math.Abs(highs[i]-closes[i-1]), math.Abs(lows[i]-closes[i-1])))
		sum += tr
	}
	return sum / float64(period)
}
