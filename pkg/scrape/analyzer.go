package scrape

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/storelens/storelens/internal/logger"
)

// AnalyzerConfig holds configuration for a site analyzer.
type AnalyzerConfig struct {
	Client    ClientConfig
	PageDelay time.Duration
}

// Analyzer composes the pipeline for one full site scrape: normalize the
// URL, fetch the homepage, detect the platform, run the extraction passes
// and — for commerce platforms — walk the product catalog.
type Analyzer struct {
	client    *Client
	extractor *Extractor
	catalog   *CatalogFetcher
	sitemap   *SitemapFetcher
}

// NewAnalyzer creates an analyzer whose fetches share a single client.
func NewAnalyzer(cfg AnalyzerConfig) *Analyzer {
	client := NewClient(cfg.Client)
	return &Analyzer{
		client:    client,
		extractor: NewExtractor(client),
		catalog:   NewCatalogFetcher(client, cfg.PageDelay),
		sitemap:   NewSitemapFetcher(cfg.Client.UserAgent, cfg.Client.Timeout),
	}
}

// Analyze scrapes rawURL and returns a Result. Failures that make the
// scrape unusable (bad URL, homepage unreachable) are reported through
// Result.Status and Result.Error rather than an error return, so callers
// always get the url/domain identity they asked about. Individual
// extraction passes and catalog truncation never fail the scrape.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string) *Result {
	url, domain, err := Normalize(rawURL)
	if err != nil {
		return &Result{WebsiteURL: rawURL, Status: StatusFailed, Error: err.Error()}
	}

	logger.Info("scrape starting", "url", url)

	res := &Result{WebsiteURL: url, Domain: domain, Status: StatusCompleted}

	body, err := a.client.Fetch(ctx, url)
	if err != nil {
		res.Status = StatusFailed
		res.Error = err.Error()
		logger.Error("homepage fetch failed", "url", url, "error", err)
		return res
	}

	res.IsShopify = IsShopify(body, url)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		res.Status = StatusFailed
		res.Error = (&ParseError{URL: url, Err: err}).Error()
		return res
	}

	res.Name = a.extractor.Name(doc, domain)
	res.Description = a.extractor.Description(doc)
	res.ContactEmail = a.extractor.Email(body)
	res.ContactPhone = a.extractor.Phone(body)
	res.SocialHandles = a.extractor.Socials(body)
	res.ImportantLinks = a.extractor.Links(body, url)
	res.Policies = a.extractor.Policies(ctx, doc, url)
	res.FAQs = a.extractor.FAQs(doc)
	res.HeroProducts = a.extractor.HeroProducts(doc, url)

	if res.IsShopify {
		catalog, err := a.catalog.FetchAll(ctx, url)
		if err != nil {
			// Partial catalogs are kept; pagination failure is not fatal.
			logger.Warn("catalog collection truncated", "url", url, "collected", len(catalog), "error", err)
		}
		res.Catalog = catalog
	}

	logger.Info("scrape complete",
		"url", url,
		"shopify", res.IsShopify,
		"faqs", len(res.FAQs),
		"hero_products", len(res.HeroProducts),
		"catalog", len(res.Catalog))

	return res
}

// SitemapURLs walks the site's sitemap, best-effort.
func (a *Analyzer) SitemapURLs(ctx context.Context, rawURL string) ([]string, error) {
	url, _, err := Normalize(rawURL)
	if err != nil {
		return nil, err
	}
	return a.sitemap.URLs(ctx, url)
}
