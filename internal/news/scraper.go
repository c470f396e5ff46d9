package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"pelican-stonks/internal/logger"
	"pelican-stonks/internal/types"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Scraper collects headlines from HTML news pages
type Scraper struct {
	sources []Source
	timeout time.Duration
	// Enrich fetches the article page to fill empty summaries
	Enrich bool
}

// Source describes one news listing page
type Source struct {
	Name       string
	BaseURL    string
	SearchPath string // e.g. "/quote.ashx?t={symbol}"
	Selectors  ArticleSelectors
	Delay      time.Duration
}

// ArticleSelectors are CSS selectors relative to the page or container
type ArticleSelectors struct {
	ArticleContainer string
	Title            string
	URL              string
	Summary          string
}

func NewScraper(timeout time.Duration, sources ...Source) *Scraper {
	if len(sources) == 0 {
		sources = DefaultSources()
	}
	return &Scraper{sources: sources, timeout: timeout}
}

// DefaultSources returns the built-in listing pages for US tickers
func DefaultSources() []Source {
	return []Source{
		{
			Name:       "Finviz",
			BaseURL:    "https://finviz.com",
			SearchPath: "/quote.ashx?t={symbol}",
			Selectors: ArticleSelectors{
				ArticleContainer: "table#news-table tr",
				Title:            "a.tab-link-news, a.tab-link",
				URL:              "a.tab-link-news, a.tab-link",
			},
			Delay: 2 * time.Second,
		},
		{
			Name:       "YahooFinance",
			BaseURL:    "https://finance.yahoo.com",
			SearchPath: "/quote/{symbol}/news",
			Selectors: ArticleSelectors{
				ArticleContainer: "li.stream-item, section[data-testid=storyitem]",
				Title:            "h3",
				URL:              "a",
				Summary:          "p",
			},
			Delay: 2 * time.Second,
		},
	}
}

// ScrapeNews gathers up to maxArticles items across sources, in source order.
// A failing source is logged and skipped.
func (s *Scraper) ScrapeNews(ctx context.Context, symbol string, maxArticles int) ([]types.NewsItem, error) {
	logger.Debug(ctx, "Starting news scraping", "symbol", symbol, "sources", len(s.sources))

	var all []types.NewsItem
	var lastErr error
	for _, source := range s.sources {
		if len(all) >= maxArticles {
			break
		}
		if err := ctx.Err(); err != nil {
			return all, err
		}
		items, err := s.scrapeSource(ctx, source, symbol, maxArticles-len(all))
		if err != nil {
			logger.Warn(ctx, "Failed to scrape source", "source", source.Name, "symbol", symbol, "error", err)
			lastErr = err
			continue
		}
		all = append(all, items...)
	}

	if len(all) == 0 && lastErr != nil {
		return nil, lastErr
	}
	logger.Debug(ctx, "News scraping completed", "symbol", symbol, "articles", len(all))
	return all, nil
}

func (s *Scraper) scrapeSource(ctx context.Context, source Source, symbol string, maxArticles int) ([]types.NewsItem, error) {
	var items []types.NewsItem
	seen := map[string]bool{}

	c := colly.NewCollector(
		colly.AllowedDomains(getDomain(source.BaseURL)),
		colly.MaxDepth(1),
		colly.UserAgent(userAgent),
	)
	c.SetRequestTimeout(s.timeout)
	if source.Delay > 0 {
		_ = c.Limit(&colly.LimitRule{DomainGlob: "*", Delay: source.Delay})
	}

	c.OnHTML(source.Selectors.ArticleContainer, func(e *colly.HTMLElement) {
		if len(items) >= maxArticles {
			return
		}
		item, ok := parseArticle(e.DOM, source)
		if !ok || seen[item.URL] {
			return
		}
		seen[item.URL] = true
		items = append(items, item)
	})

	var scrapeErr error
	c.OnError(func(r *colly.Response, err error) {
		scrapeErr = fmt.Errorf("%s returned %d: %w", source.Name, r.StatusCode, err)
	})

	searchURL := source.BaseURL + strings.ReplaceAll(source.SearchPath, "{symbol}", url.PathEscape(symbol))
	if err := c.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("failed to visit %s: %w", searchURL, err)
	}
	c.Wait()
	if scrapeErr != nil {
		return nil, scrapeErr
	}

	if s.Enrich {
		for i := range items {
			if items[i].Summary == "" {
				items[i].Summary = s.fetchSummary(ctx, items[i].URL)
			}
		}
	}
	return items, nil
}

// parseArticle reads one container element. Relative links are made absolute.
func parseArticle(sel *goquery.Selection, source Source) (types.NewsItem, bool) {
	title := strings.TrimSpace(sel.Find(source.Selectors.Title).First().Text())
	if title == "" {
		return types.NewsItem{}, false
	}
	href, ok := sel.Find(source.Selectors.URL).First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return types.NewsItem{}, false
	}
	href = absoluteURL(source.BaseURL, strings.TrimSpace(href))

	var summary string
	if source.Selectors.Summary != "" {
		summary = strings.TrimSpace(sel.Find(source.Selectors.Summary).First().Text())
	}
	return types.NewsItem{Headline: title, Summary: summary, URL: href}, true
}

// fetchSummary returns the page's meta description, or "" on failure
func (s *Scraper) fetchSummary(ctx context.Context, articleURL string) string {
	c := colly.NewCollector(colly.UserAgent(userAgent))
	c.SetRequestTimeout(s.timeout)

	var summary string
	c.OnHTML("head", func(e *colly.HTMLElement) {
		for _, q := range []string{`meta[name="description"]`, `meta[property="og:description"]`} {
			if v, ok := e.DOM.Find(q).Attr("content"); ok && strings.TrimSpace(v) != "" {
				summary = strings.TrimSpace(v)
				return
			}
		}
	})

	if err := c.Visit(articleURL); err != nil {
		logger.Debug(ctx, "Failed to fetch article summary", "url", articleURL, "error", err)
		return ""
	}
	c.Wait()
	return summary
}

func absoluteURL(base, href string) string {
	u, err := url.Parse(href)
	if err != nil || u.IsAbs() {
		return href
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	return b.ResolveReference(u).String()
}

func getDomain(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
