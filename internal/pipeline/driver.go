// Package pipeline runs the analysis stages: fetch, derive, prompt, call the
// model through the orchestrator, extract, persist.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"pelican-stonks/internal/extract"
	"pelican-stonks/internal/interfaces"
	"pelican-stonks/internal/llm/orchestrator"
	"pelican-stonks/internal/logger"
	"pelican-stonks/internal/metrics"
	"pelican-stonks/internal/persistence"
	"pelican-stonks/internal/prompt"
	"pelican-stonks/internal/store"
	"pelican-stonks/internal/ta"
	"pelican-stonks/internal/types"
)

// Settings are the per-run knobs taken from config.
type Settings struct {
	LookbackPeriods  int
	NewsLookbackDays int
	NewsLimit        int
	HistoryDays      int

	System      string
	Temperature *float32
	MaxTokens   int32

	ForecastTemperature float32
	ForecastTopP        float32
	ForecastTopK        float32
	ForecastMaxTokens   int32

	// DumpPath, when set, receives the fundamental batch as indented JSON.
	DumpPath string
}

func SettingsFromConfig(cfg *store.Config) Settings {
	s := Settings{
		LookbackPeriods:     cfg.Analysis.LookbackPeriods,
		NewsLookbackDays:    cfg.Analysis.NewsLookbackDays,
		NewsLimit:           cfg.Analysis.NewsLimit,
		HistoryDays:         cfg.Analysis.HistoryDays,
		System:              cfg.LLM.System,
		MaxTokens:           cfg.LLM.MaxTokens,
		ForecastTemperature: cfg.LLM.Forecast.Temperature,
		ForecastTopP:        cfg.LLM.Forecast.TopP,
		ForecastTopK:        cfg.LLM.Forecast.TopK,
		ForecastMaxTokens:   cfg.LLM.Forecast.MaxTokens,
	}
	if cfg.LLM.Temperature > 0 {
		s.Temperature = types.Float32(cfg.LLM.Temperature)
	}
	return s
}

// Params are the collaborators of a Driver. News may be nil.
type Params struct {
	Statements  interfaces.StatementSource
	Bars        interfaces.BarSource
	News        interfaces.NewsSource
	Store       interfaces.DocumentStore
	Fundamental *orchestrator.Orchestrator
	Forecast    *orchestrator.Orchestrator
	Settings    Settings
}

type Driver struct {
	p     Params
	now   func() time.Time
	newID func() string
}

type Option func(*Driver)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) {
		d.now = now
	}
}

// WithRunIDs replaces the uuid run id generator.
func WithRunIDs(next func() string) Option {
	return func(d *Driver) {
		d.newID = next
	}
}

func New(p Params, opts ...Option) *Driver {
	if p.Settings.LookbackPeriods <= 0 {
		p.Settings.LookbackPeriods = metrics.Lookback
	}
	if p.Settings.HistoryDays <= 0 {
		p.Settings.HistoryDays = 365
	}
	d := &Driver{p: p, now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// RunFundamentalAnalysis builds one batch for all fetchable tickers and
// asks the model for a recommendation per ticker.
func (d *Driver) RunFundamentalAnalysis(ctx context.Context, tickers []string) (map[string]types.Recommendation, error) {
	return d.runFundamental(ctx, d.newID(), tickers, types.NewRunReport("", d.now()))
}

// RunTechnicalAnalysis forecasts each ticker independently. A ticker that
// fails is logged and left out of the result.
func (d *Driver) RunTechnicalAnalysis(ctx context.Context, tickers []string) (map[string]types.ForecastResult, error) {
	return d.runTechnical(ctx, d.newID(), tickers, types.NewRunReport("", d.now()))
}

// DailyUpdate runs both stages. A failing stage is recorded in the report
// and does not stop the other.
func (d *Driver) DailyUpdate(ctx context.Context, fundamental, technical []string) *types.RunReport {
	runID := d.newID()
	report := types.NewRunReport(runID, d.now())
	op := logger.StartOperation(ctx, "daily_update", "run_id", runID)
	ctx = op.GetContext()

	logger.Info(ctx, "Starting daily update", "run_id", runID)

	if recs, err := d.runFundamental(ctx, runID, fundamental, report); err != nil {
		logger.ErrorWithErr(ctx, "Fundamental analysis failed", err, "run_id", runID)
		report.StageErrors[types.StageFundamental] = err.Error()
	} else {
		report.Fundamental = recs
	}

	if forecasts, err := d.runTechnical(ctx, runID, technical, report); err != nil {
		logger.ErrorWithErr(ctx, "Technical analysis failed", err, "run_id", runID)
		report.StageErrors[types.StageTechnical] = err.Error()
	} else {
		report.Technical = forecasts
	}

	report.Finished = d.now()
	op.End("fundamental", len(report.Fundamental), "technical", len(report.Technical), "skipped", len(report.Skipped))
	return report
}

func (d *Driver) runFundamental(ctx context.Context, runID string, tickers []string, report *types.RunReport) (map[string]types.Recommendation, error) {
	if d.p.Fundamental == nil {
		return nil, errors.New("no fundamental orchestrator configured")
	}

	batch := make(map[string]types.AnalysisRequest, len(tickers))
	for _, ticker := range tickers {
		logger.Info(ctx, "Collecting data", "ticker", ticker)
		req, err := d.collect(ctx, ticker)
		if err != nil {
			logger.ErrorWithErr(ctx, "Skipping ticker", err, "ticker", ticker, "stage", types.StageFundamental)
			report.Skip(types.StageFundamental, ticker, err)
			continue
		}
		batch[ticker] = req
	}
	if len(batch) == 0 {
		logger.Warn(ctx, "No ticker data could be fetched, skipping model call", "requested", len(tickers))
		return map[string]types.Recommendation{}, nil
	}

	if d.p.Settings.DumpPath != "" {
		if err := dumpJSON(d.p.Settings.DumpPath, batch); err != nil {
			logger.Warn(ctx, "Failed to write dataset dump", "path", d.p.Settings.DumpPath, "error", err)
		}
	}

	if err := d.p.Store.Insert(ctx, persistence.CollectionFinancialReports, persistence.FinancialReport{
		RunID:     runID,
		Timestamp: d.now().UTC(),
		Stocks:    batch,
	}); err != nil {
		return nil, fmt.Errorf("failed to persist financial report: %w", err)
	}

	text, err := prompt.BuildFundamental(batch, prompt.Fundamental)
	if err != nil {
		return nil, err
	}
	req := types.LLMRequest{
		System:      d.p.Settings.System,
		Prompt:      text,
		Tool:        prompt.ReturnRecommendationsTool,
		Temperature: d.p.Settings.Temperature,
		MaxTokens:   d.p.Settings.MaxTokens,
		JSONOutput:  true,
	}

	logger.Info(ctx, "Requesting recommendations", "tickers", len(batch))
	validate := func(raw types.RawResponse) ([]types.Recommendation, error) {
		recs, err := extract.Recommendations(raw)
		if err != nil {
			return nil, err
		}
		return coverBatch(ctx, recs, batch)
	}
	recs, err := orchestrator.Call(ctx, d.p.Fundamental, req, validate)
	if err != nil {
		return nil, fmt.Errorf("fundamental analysis: %w", err)
	}

	results := make(map[string]types.Recommendation, len(recs))
	for _, rec := range recs {
		if _, dup := results[rec.Ticker]; dup {
			logger.Debug(ctx, "Duplicate ticker in response, keeping the later entry", "ticker", rec.Ticker)
		}
		results[rec.Ticker] = rec
		logger.Recommendation(ctx, rec.Ticker, rec.Recommendation, rec.Confidence, "run_id", runID)
	}

	if err := d.p.Store.Insert(ctx, persistence.CollectionFundamentalAnalysis, persistence.FundamentalAnalysis{
		RunID:     runID,
		Timestamp: d.now().UTC(),
		Stocks:    results,
	}); err != nil {
		return nil, fmt.Errorf("failed to persist fundamental analysis: %w", err)
	}
	return results, nil
}

// coverBatch drops recommendations for tickers outside the batch and
// rejects a response that leaves a batch ticker without one.
func coverBatch(ctx context.Context, recs []types.Recommendation, batch map[string]types.AnalysisRequest) ([]types.Recommendation, error) {
	kept := make([]types.Recommendation, 0, len(recs))
	seen := make(map[string]bool, len(batch))
	for _, rec := range recs {
		if _, ok := batch[rec.Ticker]; !ok {
			logger.Warn(ctx, "Dropping recommendation for unrequested ticker", "ticker", rec.Ticker)
			continue
		}
		seen[rec.Ticker] = true
		kept = append(kept, rec)
	}

	var missing []string
	for _, ticker := range sortedKeys(batch) {
		if !seen[ticker] {
			missing = append(missing, ticker)
		}
	}
	if len(missing) > 0 {
		return nil, &types.SchemaViolation{Key: extract.BatchKey, Reason: "missing " + strings.Join(missing, ", ")}
	}
	return kept, nil
}

// collect fetches one ticker. Statement and ratio failures exclude the
// ticker; missing closes or news only degrade its entry.
func (d *Driver) collect(ctx context.Context, ticker string) (types.AnalysisRequest, error) {
	income, err := d.p.Statements.IncomeStatement(ctx, ticker)
	if err != nil {
		return types.AnalysisRequest{}, asFetchError(ticker, "income_statement", err)
	}
	balance, err := d.p.Statements.BalanceSheet(ctx, ticker)
	if err != nil {
		return types.AnalysisRequest{}, asFetchError(ticker, "balance_sheet", err)
	}
	ratios, err := d.p.Statements.SummaryRatios(ctx, ticker)
	if err != nil {
		return types.AnalysisRequest{}, asFetchError(ticker, "summary_ratios", err)
	}

	raw := metrics.Trim(types.RawFinancials{Ticker: ticker, Income: income, Balance: balance}, d.p.Settings.LookbackPeriods)

	var closes map[string]float64
	if from, ok := oldestPeriod(raw.Income); ok {
		closes, err = d.p.Statements.DailyCloses(ctx, ticker, from.AddDate(0, 0, -7), d.now())
		if err != nil {
			logger.Warn(ctx, "Closing prices unavailable, historical P/E will be null", "ticker", ticker, "error", err)
		}
	}

	derived, failures := metrics.Derive(raw, ratios, closes)
	for _, f := range failures {
		logger.ErrorWithErr(ctx, "Metric derivation failed", f, "ticker", ticker)
	}

	news := []types.NewsItem{}
	if d.p.News != nil {
		items, err := d.p.News.RecentNews(ctx, ticker, d.p.Settings.NewsLookbackDays, d.p.Settings.NewsLimit)
		if err != nil {
			logger.Warn(ctx, "Failed to fetch news", "ticker", ticker, "error", err)
		} else if items != nil {
			news = items
		}
	}

	return types.AnalysisRequest{
		Fundamentals: types.Fundamentals{RawFinancials: raw, DerivedMetrics: derived},
		News:         news,
	}, nil
}

func (d *Driver) runTechnical(ctx context.Context, runID string, tickers []string, report *types.RunReport) (map[string]types.ForecastResult, error) {
	if d.p.Forecast == nil {
		return nil, errors.New("no forecast orchestrator configured")
	}

	now := d.now()
	end := now.AddDate(0, 0, -1)
	start := now.AddDate(0, 0, -d.p.Settings.HistoryDays)

	results := map[string]types.ForecastResult{}
	history := map[string][]types.Bar{}
	for _, symbol := range tickers {
		logger.Info(ctx, "Processing", "symbol", symbol)
		fr, bars, err := d.forecast(ctx, symbol, start, end)
		if err != nil {
			logger.ErrorWithErr(ctx, "Forecast failed", err, "symbol", symbol)
			report.Skip(types.StageTechnical, symbol, err)
			continue
		}
		results[symbol] = fr
		history[symbol] = bars
		logger.Forecast(ctx, symbol, fr.Recommendation, fr.ConfidenceLevel, len(fr.WeeklyForecast), "run_id", runID)
	}

	if len(results) == 0 {
		return results, nil
	}

	if err := d.p.Store.Insert(ctx, persistence.CollectionTechnicalAnalysis, persistence.TechnicalAnalysis{
		RunID:     runID,
		Timestamp: d.now().UTC(),
		Stocks:    results,
	}); err != nil {
		return nil, fmt.Errorf("failed to persist forecasts: %w", err)
	}
	if err := d.p.Store.Insert(ctx, persistence.CollectionStonkHistory, persistence.StonkHistory{
		RunID:     runID,
		Timestamp: d.now().UTC(),
		Stocks:    history,
	}); err != nil {
		return nil, fmt.Errorf("failed to persist history: %w", err)
	}

	logger.Info(ctx, "Saved forecasts", "symbols", strings.Join(sortedKeys(results), ", "))
	return results, nil
}

func (d *Driver) forecast(ctx context.Context, symbol string, start, end time.Time) (types.ForecastResult, []types.Bar, error) {
	bars, err := d.p.Bars.DailyBars(ctx, symbol, start, end)
	if err != nil {
		return types.ForecastResult{}, nil, asFetchError(symbol, "bars", err)
	}
	if len(bars) == 0 {
		return types.ForecastResult{}, nil, &types.DataFetchError{Ticker: symbol, Source: "bars", Err: errors.New("no bars returned")}
	}

	text, err := prompt.BuildForecast(symbol, bars, ta.Compute(bars), prompt.Forecast)
	if err != nil {
		return types.ForecastResult{}, nil, err
	}
	req := types.LLMRequest{
		System:      d.p.Settings.System,
		Prompt:      text,
		Temperature: types.Float32(d.p.Settings.ForecastTemperature),
		TopP:        types.Float32(d.p.Settings.ForecastTopP),
		TopK:        types.Float32(d.p.Settings.ForecastTopK),
		MaxTokens:   d.p.Settings.ForecastMaxTokens,
		JSONOutput:  true,
	}
	policy := extract.ForecastPolicy{
		Days:   prompt.ForecastDays,
		After:  bars[len(bars)-1].Timestamp,
		Strict: true,
	}

	fr, err := orchestrator.Call(ctx, d.p.Forecast, req, func(raw types.RawResponse) (types.ForecastResult, error) {
		return extract.Forecast(ctx, raw, policy)
	})
	if err != nil {
		return types.ForecastResult{}, nil, err
	}
	return fr, bars, nil
}

func asFetchError(ticker, source string, err error) error {
	var dfe *types.DataFetchError
	if errors.As(err, &dfe) {
		return err
	}
	return &types.DataFetchError{Ticker: ticker, Source: source, Err: err}
}

func oldestPeriod(periods []types.Period) (time.Time, bool) {
	var oldest time.Time
	for _, p := range periods {
		t, err := time.Parse(types.DateLayout, p.EndDate)
		if err != nil {
			continue
		}
		if oldest.IsZero() || t.Before(oldest) {
			oldest = t
		}
	}
	return oldest, !oldest.IsZero()
}

func dumpJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
