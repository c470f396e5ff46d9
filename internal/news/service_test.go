package news

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pelican-stonks/internal/types"
)

type fakeSource struct {
	items []types.NewsItem
	err   error
	calls int
}

func (f *fakeSource) RecentNews(ctx context.Context, ticker string, lookbackDays, limit int) ([]types.NewsItem, error) {
	f.calls++
	return f.items, f.err
}

const listingHTML = `<html><body><table id="news-table">
<tr><td><a class="tab-link" href="/news/1">Apple beats estimates</a></td></tr>
<tr><td><a class="tab-link" href="https://example.com/2">Apple unveils new chip</a></td></tr>
<tr><td><a class="tab-link" href="/news/1">Apple beats estimates</a></td></tr>
<tr><td>no link here</td></tr>
</table></body></html>`

func testScraper(t *testing.T, status int) (*Scraper, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(status)
		fmt.Fprint(w, listingHTML)
	}))
	t.Cleanup(server.Close)

	return NewScraper(5*time.Second, Source{
		Name:       "Test",
		BaseURL:    server.URL,
		SearchPath: "/quote?t={symbol}",
		Selectors: ArticleSelectors{
			ArticleContainer: "table#news-table tr",
			Title:            "a.tab-link",
			URL:              "a.tab-link",
		},
	}), server
}

func TestNewsCache(t *testing.T) {
	cache := newNewsCache(50 * time.Millisecond)
	cache.set("AAPL", []types.NewsItem{{Headline: "h"}})

	items, found := cache.get("AAPL")
	if !found || len(items) != 1 {
		t.Fatal("Expected to find cached news")
	}

	time.Sleep(100 * time.Millisecond)
	if _, found = cache.get("AAPL"); found {
		t.Error("Expected cache entry to be expired")
	}
	cache.cleanup()
	if len(cache.data) != 0 {
		t.Errorf("Expected cleanup to remove expired entries, got %d", len(cache.data))
	}
}

func TestServiceConfig(t *testing.T) {
	cfg := DefaultServiceConfig()

	if cfg.MaxArticles != 15 {
		t.Errorf("Expected MaxArticles to be 15, got %d", cfg.MaxArticles)
	}
	if cfg.CacheDuration != 1*time.Hour {
		t.Errorf("Expected CacheDuration to be 1 hour, got %v", cfg.CacheDuration)
	}
	if !cfg.Enabled {
		t.Error("Expected Enabled to be true")
	}
}

func TestScraperParsesListing(t *testing.T) {
	scraper, server := testScraper(t, http.StatusOK)

	items, err := scraper.ScrapeNews(context.Background(), "AAPL", 10)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Expected 2 deduplicated items, got %d: %+v", len(items), items)
	}
	if items[0].URL != server.URL+"/news/1" {
		t.Errorf("Expected absolute URL, got %s", items[0].URL)
	}
	if items[1].Headline != "Apple unveils new chip" {
		t.Errorf("Unexpected headline %q", items[1].Headline)
	}
}

func TestServicePrefersPrimary(t *testing.T) {
	primary := &fakeSource{items: []types.NewsItem{{Headline: "From API"}}}
	scraper, _ := testScraper(t, http.StatusOK)
	svc := NewService(primary, scraper, nil)

	items, err := svc.RecentNews(context.Background(), "AAPL", 30, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Headline != "From API" {
		t.Errorf("Expected primary items, got %+v", items)
	}

	if _, err := svc.RecentNews(context.Background(), "AAPL", 30, 5); err != nil {
		t.Fatal(err)
	}
	if primary.calls != 1 {
		t.Errorf("Expected second call to be served from cache, got %d primary calls", primary.calls)
	}
}

func TestServiceFallsBackToScraper(t *testing.T) {
	primary := &fakeSource{err: errors.New("unauthorized")}
	scraper, _ := testScraper(t, http.StatusOK)
	svc := NewService(primary, scraper, nil)

	items, err := svc.RecentNews(context.Background(), "AAPL", 30, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Headline != "Apple beats estimates" {
		t.Errorf("Expected one scraped item, got %+v", items)
	}
}

func TestServiceBothFail(t *testing.T) {
	primary := &fakeSource{err: errors.New("unauthorized")}
	scraper, _ := testScraper(t, http.StatusInternalServerError)
	svc := NewService(primary, scraper, nil)

	_, err := svc.RecentNews(context.Background(), "AAPL", 30, 5)
	var dfe *types.DataFetchError
	if !errors.As(err, &dfe) {
		t.Fatalf("Expected DataFetchError, got %v", err)
	}
}

func TestServiceDisabled(t *testing.T) {
	cfg := DefaultServiceConfig()
	cfg.Enabled = false
	primary := &fakeSource{items: []types.NewsItem{{Headline: "x"}}}
	svc := NewService(primary, nil, cfg)

	items, err := svc.RecentNews(context.Background(), "AAPL", 30, 5)
	if err != nil || len(items) != 0 || primary.calls != 0 {
		t.Errorf("Expected no news when disabled, got %v %v", items, err)
	}
}
