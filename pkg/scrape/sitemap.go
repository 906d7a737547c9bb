package scrape

import (
	"context"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/storelens/storelens/internal/logger"
)

// SitemapFetcher walks a site's sitemap.xml, best-effort. When the root
// document is a sitemap index, each child sitemap is visited and its page
// URLs collected; otherwise page URLs are read from the root directly.
type SitemapFetcher struct {
	userAgent string
	timeout   time.Duration
}

// NewSitemapFetcher creates a sitemap walker.
func NewSitemapFetcher(userAgent string, timeout time.Duration) *SitemapFetcher {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &SitemapFetcher{userAgent: userAgent, timeout: timeout}
}

// URLs returns every page URL reachable from site's sitemap. Failures on
// sub-sitemaps are logged and skipped; a failure on the root sitemap is
// returned.
func (s *SitemapFetcher) URLs(ctx context.Context, site string) ([]string, error) {
	c := colly.NewCollector(
		colly.UserAgent(s.userAgent),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(s.timeout)

	var urls []string

	c.OnXML("//urlset/url/loc", func(e *colly.XMLElement) {
		urls = append(urls, e.Text)
	})
	c.OnXML("//sitemapindex/sitemap/loc", func(e *colly.XMLElement) {
		if err := e.Request.Visit(e.Text); err != nil {
			logger.Warn("sub-sitemap visit failed", "url", e.Text, "error", err)
		}
	})

	root := resolveURL("/sitemap.xml", site)
	if err := c.Visit(root); err != nil {
		return nil, &NetworkError{URL: root, Err: err}
	}

	return urls, nil
}
