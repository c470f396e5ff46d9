// Package noop is an offline provider that answers with well-formed canned
// output. It lets the pipeline run end to end without API keys.
package noop

import (
	"context"
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"pelican-stonks/internal/interfaces"
	"pelican-stonks/internal/logger"
	"pelican-stonks/internal/types"
)

type Provider struct {
	// ForecastDays is the number of days in canned forecasts.
	ForecastDays int
}

var _ interfaces.LLMProvider = (*Provider)(nil)

func New(forecastDays int) *Provider {
	return &Provider{ForecastDays: forecastDays}
}

func (p *Provider) Name() string { return "noop" }

var (
	tickerRe  = regexp.MustCompile(`"ticker":\s*"([^"]+)"`)
	barLineRe = regexp.MustCompile(`(?m)^(\d{4}-\d{2}-\d{2})\s+\S+\s+\S+\s+\S+\s+(\S+)`)
)

// Invoke answers fundamental prompts with a WAIT for every ticker it finds and
// forecast prompts with a flat forecast continuing from the last bar.
func (p *Provider) Invoke(ctx context.Context, model string, req types.LLMRequest) (types.RawResponse, error) {
	logger.Debug(ctx, "Noop provider called", "model", model)

	if strings.Contains(req.Prompt, "weekly_forecast") {
		b, err := json.Marshal(p.forecast(req.Prompt))
		if err != nil {
			return types.RawResponse{}, err
		}
		return types.RawResponse{Model: model, Text: string(b)}, nil
	}

	b, err := json.Marshal(map[string]any{"recommendations": recommendations(req.Prompt)})
	if err != nil {
		return types.RawResponse{}, err
	}
	if req.Tool != nil {
		return types.RawResponse{Model: model, ToolArguments: string(b)}, nil
	}
	return types.RawResponse{Model: model, Text: "```json\n" + string(b) + "\n```"}, nil
}

func recommendations(prompt string) []types.Recommendation {
	seen := map[string]bool{}
	var tickers []string
	for _, m := range tickerRe.FindAllStringSubmatch(prompt, -1) {
		if m[1] == "TICKER_SYMBOL" || seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		tickers = append(tickers, m[1])
	}
	sort.Strings(tickers)

	recs := make([]types.Recommendation, 0, len(tickers))
	for _, t := range tickers {
		recs = append(recs, types.Recommendation{
			Ticker:         t,
			Recommendation: "WAIT",
			Confidence:     "Low",
			Pro:            "No model configured.",
			Con:            "No model configured.",
			Summary:        "Placeholder recommendation produced without a language model.",
		})
	}
	return recs
}

func (p *Provider) forecast(prompt string) types.ForecastResult {
	last := time.Now().UTC().Truncate(24 * time.Hour)
	closePrice := 0.0
	if m := barLineRe.FindAllStringSubmatch(prompt, -1); len(m) > 0 {
		tail := m[len(m)-1]
		if d, err := time.Parse(types.DateLayout, tail[1]); err == nil {
			last = d
		}
		closePrice, _ = strconv.ParseFloat(tail[2], 64)
	}

	days := make([]types.ForecastDay, 0, p.ForecastDays)
	day := last
	for len(days) < p.ForecastDays {
		day = day.AddDate(0, 0, 1)
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		days = append(days, types.ForecastDay{
			Day:   day.Format(types.DateLayout),
			Open:  closePrice,
			High:  closePrice,
			Low:   closePrice,
			Close: closePrice,
			VWAP:  closePrice,
		})
	}
	return types.ForecastResult{
		WeeklyForecast:   days,
		Recommendation:   "hold",
		ConfidenceLevel:  0,
		Reasoning:        "Flat forecast produced without a language model.",
		DetectedPatterns: []types.Pattern{},
	}
}
