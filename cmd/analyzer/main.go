package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"pelican-stonks/internal/app"
	"pelican-stonks/internal/logger"
	"pelican-stonks/internal/pipeline"
	"pelican-stonks/internal/report"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	mode := flag.String("mode", "daily", "fundamental, technical or daily")
	tickers := flag.String("tickers", "", "comma-separated tickers, overrides config")
	dump := flag.Bool("dump", false, "write the fundamental dataset to dataset.json")
	flag.Parse()

	if err := app.InitializeSystem(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *configPath, *mode, *tickers, *dump); err != nil {
		logger.ErrorWithErr(ctx, "Analyzer failed", err, "mode", *mode)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, mode, tickerFlag string, dump bool) error {
	cfg, secrets, err := app.LoadConfig(ctx, configPath)
	if err != nil {
		return err
	}

	fundamental, technical := cfg.Tickers.Fundamental, cfg.Tickers.Technical
	if list := parseTickers(tickerFlag); len(list) > 0 {
		fundamental, technical = list, list
	}

	settings := pipeline.SettingsFromConfig(cfg)
	if dump {
		settings.DumpPath = "dataset.json"
	}

	a, err := app.New(ctx, cfg, secrets, &settings)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	switch mode {
	case "fundamental":
		recs, err := a.Driver.RunFundamentalAnalysis(ctx, fundamental)
		if err != nil {
			return err
		}
		return printJSON(recs)
	case "technical":
		forecasts, err := a.Driver.RunTechnicalAnalysis(ctx, technical)
		if err != nil {
			return err
		}
		return printJSON(forecasts)
	case "daily":
		rep := a.Driver.DailyUpdate(ctx, fundamental, technical)
		path, err := report.NewWriter(cfg.Report.Dir).Write(rep)
		if err != nil {
			return fmt.Errorf("failed to write run report: %w", err)
		}
		logger.Info(ctx, "Run report written", "path", path)
		if len(rep.StageErrors) == 2 {
			return fmt.Errorf("daily update failed: %v", rep.StageErrors)
		}
		return nil
	default:
		return fmt.Errorf("unknown mode %q: must be fundamental, technical or daily", mode)
	}
}

func parseTickers(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
