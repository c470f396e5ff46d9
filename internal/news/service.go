package news

import (
	"context"
	"errors"
	"sync"
	"time"

	"pelican-stonks/internal/interfaces"
	"pelican-stonks/internal/logger"
	"pelican-stonks/internal/types"
)

// Service serves recent news from a primary API source, falling back to the
// HTML scraper when the primary fails or returns nothing. Results are cached
// per ticker.
type Service struct {
	primary interfaces.NewsSource
	scraper *Scraper
	cache   *newsCache
	cfg     *ServiceConfig
}

var _ interfaces.NewsSource = (*Service)(nil)

// ServiceConfig configures the news service
type ServiceConfig struct {
	MaxArticles    int           // Cap applied when the caller passes no limit
	CacheDuration  time.Duration // How long results are reused
	ScraperTimeout time.Duration // Per-request timeout for scraping
	Enabled        bool          // When false RecentNews returns no items
}

func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		MaxArticles:    15,
		CacheDuration:  1 * time.Hour,
		ScraperTimeout: 30 * time.Second,
		Enabled:        true,
	}
}

type newsCache struct {
	mu   sync.RWMutex
	data map[string]*cacheEntry
	ttl  time.Duration
}

type cacheEntry struct {
	items     []types.NewsItem
	timestamp time.Time
}

func newNewsCache(ttl time.Duration) *newsCache {
	return &newsCache{
		data: make(map[string]*cacheEntry),
		ttl:  ttl,
	}
}

func (c *newsCache) get(key string) ([]types.NewsItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.data[key]
	if !exists || time.Since(entry.timestamp) > c.ttl {
		return nil, false
	}
	return entry.items, true
}

func (c *newsCache) set(key string, items []types.NewsItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = &cacheEntry{items: items, timestamp: time.Now()}
}

// cleanupLoop removes expired entries until ctx is done
func (c *newsCache) cleanupLoop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *newsCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, entry := range c.data {
		if now.Sub(entry.timestamp) > c.ttl {
			delete(c.data, key)
		}
	}
}

// NewService builds the service. primary or scraper may be nil, not both.
func NewService(primary interfaces.NewsSource, scraper *Scraper, cfg *ServiceConfig) *Service {
	if cfg == nil {
		cfg = DefaultServiceConfig()
	}
	return &Service{
		primary: primary,
		scraper: scraper,
		cache:   newNewsCache(cfg.CacheDuration),
		cfg:     cfg,
	}
}

// StartCleanup evicts expired cache entries in the background until ctx is done.
func (s *Service) StartCleanup(ctx context.Context) {
	go s.cache.cleanupLoop(ctx, 10*time.Minute)
}

func (s *Service) RecentNews(ctx context.Context, ticker string, lookbackDays, limit int) ([]types.NewsItem, error) {
	if !s.cfg.Enabled {
		return []types.NewsItem{}, nil
	}
	if limit <= 0 || limit > s.cfg.MaxArticles {
		limit = s.cfg.MaxArticles
	}

	if cached, ok := s.cache.get(ticker); ok {
		logger.Debug(ctx, "Using cached news", "ticker", ticker, "items", len(cached))
		return capItems(cached, limit), nil
	}

	items, err := s.fetch(ctx, ticker, lookbackDays, limit)
	if err != nil {
		return nil, err
	}
	s.cache.set(ticker, items)
	return items, nil
}

func (s *Service) fetch(ctx context.Context, ticker string, lookbackDays, limit int) ([]types.NewsItem, error) {
	var primaryErr error
	if s.primary != nil {
		items, err := s.primary.RecentNews(ctx, ticker, lookbackDays, limit)
		if err == nil && len(items) > 0 {
			return capItems(items, limit), nil
		}
		primaryErr = err
		if err != nil {
			logger.Warn(ctx, "Primary news source failed, trying scraper", "ticker", ticker, "error", err)
		}
	}

	if s.scraper == nil {
		if primaryErr != nil {
			return nil, primaryErr
		}
		return []types.NewsItem{}, nil
	}

	items, err := s.scraper.ScrapeNews(ctx, ticker, limit)
	if err != nil {
		if primaryErr != nil {
			return nil, &types.DataFetchError{Ticker: ticker, Source: "news", Err: errors.Join(primaryErr, err)}
		}
		return nil, &types.DataFetchError{Ticker: ticker, Source: "news", Err: err}
	}
	if items == nil {
		items = []types.NewsItem{}
	}
	return capItems(items, limit), nil
}

func capItems(items []types.NewsItem, limit int) []types.NewsItem {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
