// Package persistence names the collections and document shapes the pipeline
// writes, and opens the configured DocumentStore backend.
package persistence

import (
	"context"
	"fmt"
	"time"

	"pelican-stonks/internal/interfaces"
	"pelican-stonks/internal/persistence/badgerstore"
	"pelican-stonks/internal/persistence/memstore"
	"pelican-stonks/internal/persistence/mongostore"
	"pelican-stonks/internal/persistence/pgstore"
	"pelican-stonks/internal/store"
	"pelican-stonks/internal/types"
)

const (
	CollectionFinancialReports    = "financial_reports"
	CollectionFundamentalAnalysis = "fundamental_analysis"
	CollectionTechnicalAnalysis   = "technical_analysis"
	CollectionStonkHistory        = "stonk_history"
)

// FinancialReport is the raw batch sent to the model.
type FinancialReport struct {
	RunID     string                           `json:"run_id" bson:"run_id"`
	Timestamp time.Time                        `json:"timestamp" bson:"timestamp"`
	Stocks    map[string]types.AnalysisRequest `json:"stocks" bson:"stocks"`
}

type FundamentalAnalysis struct {
	RunID     string                          `json:"run_id" bson:"run_id"`
	Timestamp time.Time                       `json:"timestamp" bson:"timestamp"`
	Stocks    map[string]types.Recommendation `json:"stocks" bson:"stocks"`
}

type TechnicalAnalysis struct {
	RunID     string                          `json:"run_id" bson:"run_id"`
	Timestamp time.Time                       `json:"timestamp" bson:"timestamp"`
	Stocks    map[string]types.ForecastResult `json:"stocks" bson:"stocks"`
}

// StonkHistory holds the bars each forecast was made from.
type StonkHistory struct {
	RunID     string                 `json:"run_id" bson:"run_id"`
	Timestamp time.Time              `json:"timestamp" bson:"timestamp"`
	Stocks    map[string][]types.Bar `json:"stocks" bson:"stocks"`
}

// Open connects the backend named by cfg.Persistence.Backend.
func Open(ctx context.Context, cfg *store.Config, secrets *store.Secrets) (interfaces.DocumentStore, error) {
	switch cfg.Persistence.Backend {
	case store.BackendMongo:
		return mongostore.Connect(ctx, secrets.MongoURI, cfg.Persistence.Database)
	case store.BackendPostgres:
		return pgstore.Open(ctx, secrets.PostgresDSN)
	case store.BackendBadger:
		return badgerstore.Open(cfg.Persistence.BadgerPath)
	case store.BackendMemory:
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unsupported persistence backend: %s", cfg.Persistence.Backend)
	}
}
