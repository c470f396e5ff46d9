package store

import (
	"fmt"
	"os"
	"strings"
)

// Secrets are credentials read from the environment.
type Secrets struct {
	MongoURI        string
	PostgresDSN     string
	GeminiAPIKey    string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	AlpacaKeyID     string
	AlpacaSecret    string
	EODHDAPIKey     string
	KiteAPIKey      string
	KiteAccessToken string
}

// EnvVar describes one expected environment variable.
type EnvVar struct {
	Name     string
	Purpose  string
	Required bool
}

// ExpectedEnv lists the variables cfg needs, in a stable order.
func ExpectedEnv(cfg *Config) []EnvVar {
	providers := map[string]bool{}
	for _, p := range cfg.Providers() {
		providers[p] = true
	}
	alpaca := cfg.Sources.Bars == "ALPACA" || cfg.Sources.News == "ALPACA"
	kite := cfg.Sources.Bars == "KITE"

	return []EnvVar{
		{"MONGO_URI", "MongoDB connection string", cfg.Persistence.Backend == BackendMongo},
		{"POSTGRES_DSN", "PostgreSQL connection string", cfg.Persistence.Backend == BackendPostgres},
		{"GEMINI_API_KEY", "Google Gemini API key", providers[ProviderGemini]},
		{"OPENAI_API_KEY", "OpenAI API key", providers[ProviderOpenAI]},
		{"ANTHROPIC_API_KEY", "Anthropic API key", providers[ProviderClaude]},
		{"ALPACA_API_KEY_ID", "Alpaca market data key id", alpaca},
		{"ALPACA_API_SECRET_KEY", "Alpaca market data secret", alpaca},
		{"EODHD_API_KEY", "EODHD fundamentals API key", cfg.Sources.Statements == "EODHD"},
		{"KITE_API_KEY", "Zerodha Kite API key", kite},
		{"KITE_ACCESS_TOKEN", "Zerodha Kite access token", kite},
	}
}

// LoadSecrets reads credentials from the environment and fails listing every
// required variable that is unset.
func LoadSecrets(cfg *Config) (*Secrets, error) {
	return loadSecrets(ExpectedEnv(cfg))
}

// LoadStoreSecrets requires only the persistence backend's credentials, for
// tools that read stored results without calling any API.
func LoadStoreSecrets(cfg *Config) (*Secrets, error) {
	var db []EnvVar
	for _, v := range ExpectedEnv(cfg) {
		if v.Name == "MONGO_URI" || v.Name == "POSTGRES_DSN" {
			db = append(db, v)
		}
	}
	return loadSecrets(db)
}

func loadSecrets(expected []EnvVar) (*Secrets, error) {
	var missing []string
	for _, v := range expected {
		if v.Required && strings.TrimSpace(os.Getenv(v.Name)) == "" {
			missing = append(missing, v.Name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return &Secrets{
		MongoURI:        os.Getenv("MONGO_URI"),
		PostgresDSN:     os.Getenv("POSTGRES_DSN"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AlpacaKeyID:     os.Getenv("ALPACA_API_KEY_ID"),
		AlpacaSecret:    os.Getenv("ALPACA_API_SECRET_KEY"),
		EODHDAPIKey:     os.Getenv("EODHD_API_KEY"),
		KiteAPIKey:      os.Getenv("KITE_API_KEY"),
		KiteAccessToken: os.Getenv("KITE_ACCESS_TOKEN"),
	}, nil
}
