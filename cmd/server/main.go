package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pelican-stonks/internal/app"
	"pelican-stonks/internal/logger"
	"pelican-stonks/internal/report"
	"pelican-stonks/internal/scheduler"
	"pelican-stonks/internal/server"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	runNow := flag.Bool("run-now", false, "run the daily update once at startup")
	noSchedule := flag.Bool("no-schedule", false, "serve only, without the daily cron job")
	flag.Parse()

	if err := app.InitializeSystem(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ctx := context.Background()

	cfg, secrets, err := app.LoadConfig(ctx, *configPath)
	if err != nil {
		os.Exit(1)
	}
	a, err := app.New(ctx, cfg, secrets, nil)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to initialize", err)
		os.Exit(1)
	}
	defer a.Close(context.Background())

	writer := report.NewWriter(cfg.Report.Dir)
	sched := scheduler.New(func(ctx context.Context) {
		rep := a.Driver.DailyUpdate(ctx, cfg.Tickers.Fundamental, cfg.Tickers.Technical)
		if path, err := writer.Write(rep); err != nil {
			logger.ErrorWithErr(ctx, "Failed to write run report", err)
		} else {
			logger.Info(ctx, "Run report written", "path", path)
		}
	})
	if !*noSchedule {
		if err := sched.Start(cfg.Server.DailySchedule); err != nil {
			logger.ErrorWithErr(ctx, "Invalid daily schedule", err, "schedule", cfg.Server.DailySchedule)
			os.Exit(1)
		}
	}
	if *runNow {
		sched.RunNow()
	}

	srv := server.New(cfg.Server.Addr, a.Store, cfg.Server.FrontendURL)
	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		if err != nil {
			logger.ErrorWithErr(ctx, "HTTP server stopped", err)
		}
	case <-sigc:
		logger.Info(ctx, "Shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn(ctx, "Graceful shutdown failed", "error", err)
	}
	sched.Stop()
}
