package store

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider names accepted in llm.provider and in "provider:model" entries.
const (
	ProviderGemini = "GEMINI"
	ProviderOpenAI = "OPENAI"
	ProviderClaude = "CLAUDE"
	ProviderNoop   = "NOOP"
)

// Backend names accepted in persistence.backend.
const (
	BackendMongo    = "MONGO"
	BackendPostgres = "POSTGRES"
	BackendBadger   = "BADGER"
	BackendMemory   = "MEMORY"
)

type Config struct {
	Tickers struct {
		Fundamental []string `yaml:"fundamental"`
		Technical   []string `yaml:"technical"`
	} `yaml:"tickers"`
	Analysis struct {
		LookbackPeriods  int `yaml:"lookback_periods"`
		NewsLookbackDays int `yaml:"news_lookback_days"`
		NewsLimit        int `yaml:"news_limit"`
		HistoryDays      int `yaml:"history_days"`
	} `yaml:"analysis"`
	LLM struct {
		Provider          string   `yaml:"provider"`
		FundamentalModels []string `yaml:"fundamental_models"`
		ForecastModels    []string `yaml:"forecast_models"`
		MaxRetries        int      `yaml:"max_retries"`
		UseFallback       bool     `yaml:"use_fallback"`
		RateLimitDelay    Duration `yaml:"rate_limit_delay"`
		TransientDelay    Duration `yaml:"transient_delay"`
		CallTimeout       Duration `yaml:"call_timeout"`
		Temperature       float32  `yaml:"temperature"`
		MaxTokens         int32    `yaml:"max_tokens"`
		System            string   `yaml:"system"`
		Forecast          struct {
			Temperature float32 `yaml:"temperature"`
			TopP        float32 `yaml:"top_p"`
			TopK        float32 `yaml:"top_k"`
			MaxTokens   int32   `yaml:"max_tokens"`
		} `yaml:"forecast"`
	} `yaml:"llm"`
	Sources struct {
		Statements string `yaml:"statements"`
		Bars       string `yaml:"bars"`
		News       string `yaml:"news"`
		CacheDir   string `yaml:"cache_dir"`
		CacheTTL   Duration `yaml:"cache_ttl"`
		// RequestsPerSecond throttles the statement API client.
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		KiteExchange      string  `yaml:"kite_exchange"`
	} `yaml:"sources"`
	Persistence struct {
		Backend    string `yaml:"backend"`
		Database   string `yaml:"database"`
		BadgerPath string `yaml:"badger_path"`
	} `yaml:"persistence"`
	Server struct {
		Addr          string `yaml:"addr"`
		FrontendURL   string `yaml:"frontend_url"`
		DailySchedule string `yaml:"daily_schedule"`
	} `yaml:"server"`
	Report struct {
		Dir string `yaml:"dir"`
	} `yaml:"report"`
}

// Duration unmarshals yaml strings like "10s" or "2m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// Candidate is one configured model and the provider that serves it.
type Candidate struct {
	Provider string
	Model    string
}

// Candidates resolves model entries. An entry may name its provider as
// "openai:gpt-4o"; bare entries use llm.provider.
func (c *Config) Candidates(models []string) []Candidate {
	out := make([]Candidate, 0, len(models))
	for _, m := range models {
		provider := c.LLM.Provider
		if p, name, ok := strings.Cut(m, ":"); ok {
			provider, m = strings.ToUpper(p), name
		}
		out = append(out, Candidate{Provider: provider, Model: m})
	}
	return out
}

// Providers lists every distinct provider referenced by the model lists.
func (c *Config) Providers() []string {
	seen := map[string]bool{}
	var out []string
	for _, cand := range append(c.Candidates(c.LLM.FundamentalModels), c.Candidates(c.LLM.ForecastModels)...) {
		if !seen[cand.Provider] {
			seen[cand.Provider] = true
			out = append(out, cand.Provider)
		}
	}
	return out
}

func (c *Config) Validate() error {
	if len(c.Tickers.Fundamental) == 0 && len(c.Tickers.Technical) == 0 {
		return errors.New("tickers cannot be empty")
	}
	if len(c.LLM.FundamentalModels) == 0 || len(c.LLM.ForecastModels) == 0 {
		return errors.New("llm.fundamental_models and llm.forecast_models must list at least one model")
	}
	for _, p := range c.Providers() {
		switch p {
		case ProviderGemini, ProviderOpenAI, ProviderClaude, ProviderNoop:
		default:
			return fmt.Errorf("invalid llm provider '%s': must be GEMINI, OPENAI, CLAUDE or NOOP", p)
		}
	}
	if c.LLM.MaxRetries < 1 {
		return fmt.Errorf("llm.max_retries must be at least 1, got %d", c.LLM.MaxRetries)
	}
	if c.Analysis.LookbackPeriods < 1 {
		return fmt.Errorf("analysis.lookback_periods must be positive, got %d", c.Analysis.LookbackPeriods)
	}
	if c.Sources.Statements != "EODHD" {
		return fmt.Errorf("invalid sources.statements '%s': must be 'EODHD'", c.Sources.Statements)
	}
	if c.Sources.Bars != "ALPACA" && c.Sources.Bars != "KITE" {
		return fmt.Errorf("invalid sources.bars '%s': must be 'ALPACA' or 'KITE'", c.Sources.Bars)
	}
	if c.Sources.News != "ALPACA" && c.Sources.News != "SCRAPER" {
		return fmt.Errorf("invalid sources.news '%s': must be 'ALPACA' or 'SCRAPER'", c.Sources.News)
	}
	switch c.Persistence.Backend {
	case BackendMongo, BackendPostgres, BackendBadger, BackendMemory:
	default:
		return fmt.Errorf("invalid persistence.backend '%s': must be MONGO, POSTGRES, BADGER or MEMORY", c.Persistence.Backend)
	}
	return nil
}

// Default returns a config with every default applied and no tickers.
func Default() *Config {
	var c Config
	applyDefaults(&c)
	return &c
}

func applyDefaults(c *Config) {
	if c.Analysis.LookbackPeriods == 0 {
		c.Analysis.LookbackPeriods = 4
	}
	if c.Analysis.NewsLookbackDays == 0 {
		c.Analysis.NewsLookbackDays = 30
	}
	if c.Analysis.NewsLimit == 0 {
		c.Analysis.NewsLimit = 15
	}
	if c.Analysis.HistoryDays == 0 {
		c.Analysis.HistoryDays = 365
	}
	if len(c.Tickers.Technical) == 0 {
		c.Tickers.Technical = c.Tickers.Fundamental
	}

	if c.LLM.Provider == "" {
		c.LLM.Provider = ProviderGemini
	}
	c.LLM.Provider = strings.ToUpper(c.LLM.Provider)
	if len(c.LLM.FundamentalModels) == 0 {
		c.LLM.FundamentalModels = []string{"gemini-1.5-pro", "gemini-1.5-flash"}
	}
	if len(c.LLM.ForecastModels) == 0 {
		c.LLM.ForecastModels = []string{"gemini-1.5-flash", "gemini-1.5-flash"}
	}
	if c.LLM.MaxRetries == 0 {
		c.LLM.MaxRetries = 3
	}
	if c.LLM.RateLimitDelay.Duration == 0 {
		c.LLM.RateLimitDelay.Duration = 10 * time.Second
	}
	if c.LLM.TransientDelay.Duration == 0 {
		c.LLM.TransientDelay.Duration = 5 * time.Second
	}
	if c.LLM.CallTimeout.Duration == 0 {
		c.LLM.CallTimeout.Duration = 2 * time.Minute
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 8192
	}
	if c.LLM.Forecast.Temperature == 0 {
		c.LLM.Forecast.Temperature = 0.2
	}
	if c.LLM.Forecast.TopP == 0 {
		c.LLM.Forecast.TopP = 0.8
	}
	if c.LLM.Forecast.TopK == 0 {
		c.LLM.Forecast.TopK = 40
	}
	if c.LLM.Forecast.MaxTokens == 0 {
		c.LLM.Forecast.MaxTokens = 8192
	}

	if c.Sources.Statements == "" {
		c.Sources.Statements = "EODHD"
	}
	if c.Sources.Bars == "" {
		c.Sources.Bars = "ALPACA"
	}
	if c.Sources.News == "" {
		c.Sources.News = "ALPACA"
	}
	if c.Sources.CacheDir == "" {
		c.Sources.CacheDir = "cache"
	}
	if c.Sources.CacheTTL.Duration == 0 {
		c.Sources.CacheTTL.Duration = 24 * time.Hour
	}
	if c.Sources.RequestsPerSecond == 0 {
		c.Sources.RequestsPerSecond = 5
	}
	if c.Sources.KiteExchange == "" {
		c.Sources.KiteExchange = "NSE"
	}

	if c.Persistence.Backend == "" {
		c.Persistence.Backend = BackendMongo
	}
	c.Persistence.Backend = strings.ToUpper(c.Persistence.Backend)
	if c.Persistence.Database == "" {
		c.Persistence.Database = "PeliCanStonks"
	}
	if c.Persistence.BadgerPath == "" {
		c.Persistence.BadgerPath = "data/badger"
	}

	if c.Server.Addr == "" {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8000"
		}
		c.Server.Addr = ":" + port
	}
	if c.Server.FrontendURL == "" {
		c.Server.FrontendURL = os.Getenv("FRONTEND_URL")
	}
	if c.Server.FrontendURL == "" {
		c.Server.FrontendURL = "http://localhost:5173"
	}
	if c.Server.DailySchedule == "" {
		c.Server.DailySchedule = "0 30 21 * * 1-5"
	}

	if c.Report.Dir == "" {
		c.Report.Dir = "logs/runs"
	}
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	applyDefaults(&c)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}
