// Package app wires configuration, secrets, data sources, model providers and
// the document store into a pipeline.Driver. Every cmd builds through here.
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"pelican-stonks/internal/datasource/alpaca"
	"pelican-stonks/internal/datasource/cache"
	"pelican-stonks/internal/datasource/eodhd"
	"pelican-stonks/internal/datasource/kite"
	"pelican-stonks/internal/datasource/sourceobs"
	"pelican-stonks/internal/interfaces"
	"pelican-stonks/internal/llm/claude"
	"pelican-stonks/internal/llm/gemini"
	"pelican-stonks/internal/llm/llmobs"
	"pelican-stonks/internal/llm/noop"
	"pelican-stonks/internal/llm/openai"
	"pelican-stonks/internal/llm/orchestrator"
	"pelican-stonks/internal/logger"
	"pelican-stonks/internal/news"
	"pelican-stonks/internal/persistence"
	"pelican-stonks/internal/pipeline"
	"pelican-stonks/internal/prompt"
	"pelican-stonks/internal/store"
	"pelican-stonks/internal/trace"
)

// App holds the constructed collaborators. Close releases them.
type App struct {
	Config  *store.Config
	Secrets *store.Secrets
	Store   interfaces.DocumentStore
	Driver  *pipeline.Driver
}

// InitializeSystem loads .env and starts logging and tracing.
func InitializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

// LoadConfig reads the yaml config and the secrets it requires.
func LoadConfig(ctx context.Context, path string) (*store.Config, *store.Secrets, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, nil, err
	}
	secrets, err := store.LoadSecrets(cfg)
	if err != nil {
		logger.ErrorWithErr(ctx, "Missing configuration", err)
		return nil, nil, err
	}
	return cfg, secrets, nil
}

// New builds every collaborator and the driver. settings may override the
// ones derived from cfg; pass nil to use cfg as is.
func New(ctx context.Context, cfg *store.Config, secrets *store.Secrets, settings *pipeline.Settings) (*App, error) {
	statements, err := initializeStatements(cfg, secrets)
	if err != nil {
		return nil, err
	}
	bars, err := initializeBars(cfg, secrets)
	if err != nil {
		return nil, err
	}
	newsSource, err := initializeNews(cfg, secrets)
	if err != nil {
		return nil, err
	}

	fundamental, err := initializeOrchestrator(ctx, cfg, secrets, cfg.LLM.FundamentalModels)
	if err != nil {
		return nil, err
	}
	forecast, err := initializeOrchestrator(ctx, cfg, secrets, cfg.LLM.ForecastModels)
	if err != nil {
		return nil, err
	}

	docs, err := persistence.Open(ctx, cfg, secrets)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "Document store ready", "backend", cfg.Persistence.Backend)

	s := pipeline.SettingsFromConfig(cfg)
	if settings != nil {
		s = *settings
	}

	return &App{
		Config:  cfg,
		Secrets: secrets,
		Store:   docs,
		Driver: pipeline.New(pipeline.Params{
			Statements:  statements,
			Bars:        bars,
			News:        newsSource,
			Store:       docs,
			Fundamental: fundamental,
			Forecast:    forecast,
			Settings:    s,
		}),
	}, nil
}

func (a *App) Close(ctx context.Context) {
	if err := a.Store.Close(ctx); err != nil {
		logger.Warn(ctx, "Failed to close document store", "error", err)
	}
	if err := trace.Shutdown(ctx); err != nil {
		logger.Warn(ctx, "Failed to flush traces", "error", err)
	}
}

func initializeStatements(cfg *store.Config, secrets *store.Secrets) (interfaces.StatementSource, error) {
	fc, err := cache.New(cfg.Sources.CacheDir, cfg.Sources.CacheTTL.Duration)
	if err != nil {
		return nil, fmt.Errorf("failed to create response cache: %w", err)
	}
	client := eodhd.NewClient(secrets.EODHDAPIKey,
		eodhd.WithRateLimit(cfg.Sources.RequestsPerSecond),
		eodhd.WithCache(fc),
	)
	return sourceobs.WrapStatements(client), nil
}

func initializeBars(cfg *store.Config, secrets *store.Secrets) (interfaces.BarSource, error) {
	if cfg.Sources.Bars == "KITE" {
		client, err := kite.New(kite.Params{
			APIKey:      secrets.KiteAPIKey,
			AccessToken: secrets.KiteAccessToken,
			Exchange:    cfg.Sources.KiteExchange,
		})
		if err != nil {
			return nil, err
		}
		return sourceobs.WrapBars(client), nil
	}

	client, err := alpaca.New(secrets.AlpacaKeyID, secrets.AlpacaSecret, "")
	if err != nil {
		return nil, err
	}
	return sourceobs.WrapBars(client), nil
}

// initializeNews puts the scraper behind Alpaca, or uses it alone.
func initializeNews(cfg *store.Config, secrets *store.Secrets) (interfaces.NewsSource, error) {
	svcCfg := news.DefaultServiceConfig()
	svcCfg.MaxArticles = cfg.Analysis.NewsLimit
	scraper := news.NewScraper(svcCfg.ScraperTimeout, news.DefaultSources()...)

	var primary interfaces.NewsSource
	if cfg.Sources.News == "ALPACA" {
		client, err := alpaca.New(secrets.AlpacaKeyID, secrets.AlpacaSecret, "")
		if err != nil {
			return nil, err
		}
		primary = client
	}
	return sourceobs.WrapNews(news.NewService(primary, scraper, svcCfg)), nil
}

func initializeOrchestrator(ctx context.Context, cfg *store.Config, secrets *store.Secrets, models []string) (*orchestrator.Orchestrator, error) {
	providers := map[string]interfaces.LLMProvider{}
	var candidates []orchestrator.Candidate

	for _, c := range cfg.Candidates(models) {
		p, ok := providers[c.Provider]
		if !ok {
			var err error
			p, err = initializeProvider(ctx, c.Provider, secrets)
			if err != nil {
				return nil, err
			}
			p = llmobs.Wrap(p)
			providers[c.Provider] = p
		}
		candidates = append(candidates, orchestrator.Candidate{Provider: p, Model: c.Model})
	}

	return orchestrator.New(candidates, orchestrator.Config{
		MaxRetries:     cfg.LLM.MaxRetries,
		UseFallback:    cfg.LLM.UseFallback,
		RateLimitDelay: cfg.LLM.RateLimitDelay.Duration,
		TransientDelay: cfg.LLM.TransientDelay.Duration,
		CallTimeout:    cfg.LLM.CallTimeout.Duration,
	}), nil
}

func initializeProvider(ctx context.Context, name string, secrets *store.Secrets) (interfaces.LLMProvider, error) {
	switch name {
	case store.ProviderGemini:
		return gemini.New(ctx, secrets.GeminiAPIKey)
	case store.ProviderOpenAI:
		return openai.New(secrets.OpenAIAPIKey, os.Getenv("OPENAI_BASE_URL"))
	case store.ProviderClaude:
		return claude.New(secrets.AnthropicAPIKey)
	case store.ProviderNoop:
		logger.Warn(ctx, "No LLM provider configured - using noop provider (always WAIT / flat forecast)")
		return noop.New(prompt.ForecastDays), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", name)
	}
}
