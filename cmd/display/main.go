package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"pelican-stonks/internal/persistence"
	"pelican-stonks/internal/store"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[1;32m"
	colorYellow = "\033[1;33m"
	colorRed    = "\033[1;31m"
	colorCyan   = "\033[1;36m"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	raw := flag.Bool("raw", false, "also print the raw JSON documents")
	noColor := flag.Bool("no-color", false, "disable ANSI colors")
	flag.Parse()

	_ = godotenv.Load()

	if err := run(*configPath, *raw, !*noColor); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(configPath string, raw, color bool) error {
	ctx := context.Background()

	cfg, err := store.LoadConfig(configPath)
	if err != nil {
		return err
	}
	secrets, err := store.LoadStoreSecrets(cfg)
	if err != nil {
		return err
	}
	docs, err := persistence.Open(ctx, cfg, secrets)
	if err != nil {
		return err
	}
	defer docs.Close(ctx)

	var fa persistence.FundamentalAnalysis
	foundFA, err := docs.FindLatest(ctx, persistence.CollectionFundamentalAnalysis, &fa)
	if err != nil {
		return err
	}
	var ta persistence.TechnicalAnalysis
	foundTA, err := docs.FindLatest(ctx, persistence.CollectionTechnicalAnalysis, &ta)
	if err != nil {
		return err
	}

	p := printer{w: os.Stdout, color: color}
	if foundFA {
		p.fundamental(&fa)
	} else {
		fmt.Fprintln(p.w, "No analysis found in the database.")
	}
	if foundTA {
		p.technical(&ta)
	}
	if raw {
		p.raw(fa, ta)
	}
	return nil
}

type printer struct {
	w     io.Writer
	color bool
}

func (p printer) paint(code, s string) string {
	if !p.color {
		return s
	}
	return code + s + colorReset
}

func (p printer) recommendationColor(rec string) string {
	switch strings.ToUpper(rec) {
	case "BUY":
		return colorGreen
	case "WAIT", "HOLD":
		return colorYellow
	default:
		return colorRed
	}
}

func (p printer) fundamental(fa *persistence.FundamentalAnalysis) {
	fmt.Fprintf(p.w, "\n=== STOCK ANALYSIS SUMMARY (Generated: %s) ===\n\n", fa.Timestamp.Format("2006-01-02 15:04:05"))

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Ticker\tRecommendation\tConfidence\tKey Strength\tKey Concern")
	tickers := sortedTickers(fa.Stocks)
	for _, t := range tickers {
		r := fa.Stocks[t]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t, p.paint(p.recommendationColor(r.Recommendation), r.Recommendation), r.Confidence, r.Pro, r.Con)
	}
	tw.Flush()

	fmt.Fprint(p.w, "\n=== DETAILED ANALYSIS ===\n\n")
	for _, t := range tickers {
		r := fa.Stocks[t]
		fmt.Fprintf(p.w, "%s - %s (%s confidence)\n", p.paint(colorCyan, t), r.Recommendation, r.Confidence)
		fmt.Fprintf(p.w, "Summary: %s\n\n", r.Summary)
	}
}

// technical prints the forecast horizon close and its change from the first forecast day.
func (p printer) technical(ta *persistence.TechnicalAnalysis) {
	fmt.Fprintf(p.w, "\n=== TECHNICAL FORECAST (Generated: %s) ===\n\n", ta.Timestamp.Format("2006-01-02 15:04:05"))

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Symbol\tRecommendation\tConfidence\tHorizon\tLast Close\tChange")
	for _, t := range sortedTickers(ta.Stocks) {
		fr := ta.Stocks[t]
		horizon, lastClose, change := "-", "-", "-"
		if n := len(fr.WeeklyForecast); n > 0 {
			first := decimal.NewFromFloat(fr.WeeklyForecast[0].Open)
			last := decimal.NewFromFloat(fr.WeeklyForecast[n-1].Close)
			horizon = fr.WeeklyForecast[n-1].Day
			lastClose = last.StringFixed(2)
			if !first.IsZero() {
				change = last.Sub(first).Div(first).Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n", t, p.paint(p.recommendationColor(fr.Recommendation), fr.Recommendation), fr.ConfidenceLevel, horizon, lastClose, change)
	}
	tw.Flush()
}

func (p printer) raw(docs ...any) {
	fmt.Fprint(p.w, "\n=== RAW JSON DATA ===\n\n")
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	for _, d := range docs {
		_ = enc.Encode(d)
	}
}

func sortedTickers[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
