package sourceobs

import (
	"context"
	"time"

	"pelican-stonks/internal/interfaces"
	"pelican-stonks/internal/logger"
	"pelican-stonks/internal/trace"
	"pelican-stonks/internal/types"
)

// observableStatements wraps a StatementSource with logging and tracing
type observableStatements struct {
	src interfaces.StatementSource
}

var _ interfaces.StatementSource = (*observableStatements)(nil)

func WrapStatements(src interfaces.StatementSource) interfaces.StatementSource {
	return &observableStatements{src: src}
}

func (o *observableStatements) IncomeStatement(ctx context.Context, ticker string) ([]types.Period, error) {
	ctx, span := trace.StartSpan(ctx, "source.IncomeStatement")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching income statement", "ticker", ticker)

	periods, err := o.src.IncomeStatement(ctx, ticker)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch income statement", err, "ticker", ticker)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Income statement fetched", "ticker", ticker, "periods", len(periods))
	return periods, nil
}

func (o *observableStatements) BalanceSheet(ctx context.Context, ticker string) ([]types.Period, error) {
	ctx, span := trace.StartSpan(ctx, "source.BalanceSheet")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching balance sheet", "ticker", ticker)

	periods, err := o.src.BalanceSheet(ctx, ticker)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch balance sheet", err, "ticker", ticker)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Balance sheet fetched", "ticker", ticker, "periods", len(periods))
	return periods, nil
}

func (o *observableStatements) DailyCloses(ctx context.Context, ticker string, from, to time.Time) (map[string]float64, error) {
	ctx, span := trace.StartSpan(ctx, "source.DailyCloses")
	defer span.End()

	closes, err := o.src.DailyCloses(ctx, ticker, from, to)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch daily closes", err, "ticker", ticker)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Daily closes fetched", "ticker", ticker, "count", len(closes))
	return closes, nil
}

func (o *observableStatements) SummaryRatios(ctx context.Context, ticker string) (types.SummaryRatios, error) {
	ctx, span := trace.StartSpan(ctx, "source.SummaryRatios")
	defer span.End()

	ratios, err := o.src.SummaryRatios(ctx, ticker)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch summary ratios", err, "ticker", ticker)
		return types.SummaryRatios{}, err
	}
	return ratios, nil
}

// observableBars wraps a BarSource with logging and tracing
type observableBars struct {
	src interfaces.BarSource
}

var _ interfaces.BarSource = (*observableBars)(nil)

func WrapBars(src interfaces.BarSource) interfaces.BarSource {
	return &observableBars{src: src}
}

func (o *observableBars) DailyBars(ctx context.Context, ticker string, start, end time.Time) ([]types.Bar, error) {
	ctx, span := trace.StartSpan(ctx, "source.DailyBars")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching daily bars", "ticker", ticker,
		"start", start.Format(types.DateLayout), "end", end.Format(types.DateLayout))

	bars, err := o.src.DailyBars(ctx, ticker, start, end)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch daily bars", err, "ticker", ticker)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Daily bars fetched", "ticker", ticker, "count", len(bars))
	return bars, nil
}

// observableNews wraps a NewsSource with logging and tracing
type observableNews struct {
	src interfaces.NewsSource
}

var _ interfaces.NewsSource = (*observableNews)(nil)

func WrapNews(src interfaces.NewsSource) interfaces.NewsSource {
	return &observableNews{src: src}
}

func (o *observableNews) RecentNews(ctx context.Context, ticker string, lookbackDays, limit int) ([]types.NewsItem, error) {
	ctx, span := trace.StartSpan(ctx, "source.RecentNews")
	defer span.End()

	items, err := o.src.RecentNews(ctx, ticker, lookbackDays, limit)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch news", err, "ticker", ticker)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "News fetched", "ticker", ticker, "count", len(items))
	return items, nil
}
