package interfaces

import (
	"context"
	"time"

	"pelican-stonks/internal/types"
)

// StatementSource provides annual statements and summary ratios.
type StatementSource interface {
	IncomeStatement(ctx context.Context, ticker string) ([]types.Period, error)
	BalanceSheet(ctx context.Context, ticker string) ([]types.Period, error)
	// DailyCloses returns closing prices keyed by ISO date.
	DailyCloses(ctx context.Context, ticker string, from, to time.Time) (map[string]float64, error)
	SummaryRatios(ctx context.Context, ticker string) (types.SummaryRatios, error)
}

type BarSource interface {
	DailyBars(ctx context.Context, ticker string, start, end time.Time) ([]types.Bar, error)
}

type NewsSource interface {
	RecentNews(ctx context.Context, ticker string, lookbackDays, limit int) ([]types.NewsItem, error)
}
