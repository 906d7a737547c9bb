// Package analysis drives end-to-end brand analysis runs: idempotent
// brand upsert, the scraping status state machine, best-effort LLM
// enrichment, product persistence and the optional competitor fan-out.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/storelens/storelens/internal/logger"
	"github.com/storelens/storelens/internal/store"
	"github.com/storelens/storelens/pkg/insight"
	"github.com/storelens/storelens/pkg/scrape"
)

// SiteAnalyzer runs one full site scrape. Implemented by
// scrape.Analyzer; stubbed in tests.
type SiteAnalyzer interface {
	Analyze(ctx context.Context, rawURL string) *scrape.Result
}

// Config wires an Orchestrator's collaborators.
type Config struct {
	Store     store.Store
	Analyzer  SiteAnalyzer
	Processor *insight.Processor
	Discovery Discovery

	// Concurrency bounds the competitor fan-out. Defaults to 3.
	Concurrency int
}

// BrandAnalysis is the outcome of one analysis run. BrandID is set as
// soon as the brand row exists, even when the run fails afterwards.
type BrandAnalysis struct {
	BrandID string `json:"brand_id"`
	Status  string `json:"analysis_status"`

	Brand    *store.Brand    `json:"brand_data,omitempty"`
	Products []store.Product `json:"products,omitempty"`

	Competitors       []store.Competitor `json:"competitors,omitempty"`
	CompetitiveReport *Report            `json:"competitive_analysis,omitempty"`
}

// Orchestrator owns the analysis state machine. Runs for the same
// domain serialize on a per-domain lock so concurrent requests cannot
// race on the final persist.
type Orchestrator struct {
	store       store.Store
	analyzer    SiteAnalyzer
	processor   *insight.Processor
	discovery   Discovery
	competitive *Competitive

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewOrchestrator creates an orchestrator from its collaborators.
func NewOrchestrator(cfg Config) *Orchestrator {
	processor := cfg.Processor
	if processor == nil {
		processor = insight.NewProcessor(nil)
	}

	discovery := cfg.Discovery
	if discovery == nil {
		discovery = StaticDiscovery{}
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 3
	}

	return &Orchestrator{
		store:       cfg.Store,
		analyzer:    cfg.Analyzer,
		processor:   processor,
		discovery:   discovery,
		competitive: NewCompetitive(cfg.Store, cfg.Analyzer, processor, concurrency),
		locks:       make(map[string]*sync.Mutex),
	}
}

// AnalyzeBrand runs the full analysis flow for one storefront URL.
// Once the brand row exists its ID is always returned, including on
// failure, so callers can look up what state the domain was left in.
func (o *Orchestrator) AnalyzeBrand(ctx context.Context, rawURL string, includeCompetitors bool) (*BrandAnalysis, error) {
	normalized, domain, err := scrape.Normalize(rawURL)
	if err != nil {
		return nil, err
	}

	unlock := o.lockDomain(domain)
	defer unlock()

	start := time.Now()
	logger.Info("starting brand analysis", "url", normalized, "domain", domain)

	// Persist in_progress before any network I/O so concurrent status
	// reads see the run started.
	brand, err := o.store.GetBrandByDomain(ctx, domain)
	switch {
	case errors.Is(err, store.ErrNotFound):
		brand = &store.Brand{
			Name:           domain,
			WebsiteURL:     normalized,
			Domain:         domain,
			ScrapingStatus: store.StatusInProgress,
		}
		if err := o.store.UpsertBrand(ctx, brand); err != nil {
			return nil, fmt.Errorf("failed to register brand: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to look up brand: %w", err)
	default:
		if err := o.store.UpdateBrandStatus(ctx, brand.ID, store.StatusInProgress, ""); err != nil {
			return nil, fmt.Errorf("failed to mark brand in progress: %w", err)
		}
	}

	run := &BrandAnalysis{BrandID: brand.ID}

	result := o.analyzer.Analyze(ctx, normalized)
	if result.Status == scrape.StatusFailed {
		o.fail(ctx, brand.ID, result.Error)
		run.Status = store.StatusFailed
		return run, fmt.Errorf("failed to scrape %s: %s", domain, result.Error)
	}

	brandInsights := o.processor.BrandInsights(ctx, result)
	catalogInsights := o.processor.CatalogInsights(ctx, result.Catalog)

	applyResult(brand, result)
	now := time.Now().UTC()
	brand.LastScraped = &now
	brand.ScrapingStatus = store.StatusCompleted
	brand.ScrapingErrors = ""

	if err := o.store.UpsertBrand(ctx, brand); err != nil {
		o.fail(ctx, brand.ID, err.Error())
		run.Status = store.StatusFailed
		return run, fmt.Errorf("failed to persist brand: %w", err)
	}

	if err := o.store.ReplaceProducts(ctx, brand.ID, productsFromCatalog(result.Catalog)); err != nil {
		o.fail(ctx, brand.ID, err.Error())
		run.Status = store.StatusFailed
		return run, fmt.Errorf("failed to persist products: %w", err)
	}

	took := time.Since(start)
	if brandInsights != nil {
		o.appendAnalysis(ctx, brand, "brand_analysis", brandInsights, took)
	}
	if catalogInsights != nil {
		o.appendAnalysis(ctx, brand, "catalog_analysis", catalogInsights, took)
	}

	run.Status = store.StatusCompleted
	run.Brand = brand
	if products, err := o.store.ListProducts(ctx, brand.ID); err == nil {
		run.Products = products
	}

	if includeCompetitors {
		urls := o.discovery.Discover(ctx, brand.Name)
		competitors, report := o.competitive.Run(ctx, brand, result, urls)
		run.Competitors = competitors
		run.CompetitiveReport = report
		o.appendAnalysis(ctx, brand, "competitor_analysis", report.asMap(), time.Since(start))
	}

	logger.Info("brand analysis completed", "domain", domain, "duration", time.Since(start))
	return run, nil
}

// GetBrandAnalysis returns a brand and every record attached to it.
func (o *Orchestrator) GetBrandAnalysis(ctx context.Context, brandID string) (*BrandAnalysis, []store.Analysis, error) {
	brand, err := o.store.GetBrand(ctx, brandID)
	if err != nil {
		return nil, nil, err
	}

	run := &BrandAnalysis{
		BrandID: brand.ID,
		Status:  brand.ScrapingStatus,
		Brand:   brand,
	}

	if run.Products, err = o.store.ListProducts(ctx, brandID); err != nil {
		return nil, nil, err
	}
	if run.Competitors, err = o.store.ListCompetitors(ctx, brandID); err != nil {
		return nil, nil, err
	}

	analyses, err := o.store.ListAnalyses(ctx, brandID)
	if err != nil {
		return nil, nil, err
	}
	return run, analyses, nil
}

// fail forces a brand into the failed state, keeping the run's error.
func (o *Orchestrator) fail(ctx context.Context, brandID, msg string) {
	if err := o.store.UpdateBrandStatus(ctx, brandID, store.StatusFailed, msg); err != nil {
		logger.Error("failed to record brand failure", "brand_id", brandID, "error", err)
	}
}

func (o *Orchestrator) appendAnalysis(ctx context.Context, brand *store.Brand, analysisType string, results map[string]any, took time.Duration) {
	a := &store.Analysis{
		BrandID:          brand.ID,
		AnalysisType:     analysisType,
		Title:            titleFor(analysisType, brand.Name),
		Description:      "Automated " + strings.ReplaceAll(analysisType, "_", " "),
		Results:          store.ResultMap(results),
		Status:           store.StatusCompleted,
		ProcessingTimeMS: took.Milliseconds(),
	}

	if err := o.store.AppendAnalysis(ctx, a); err != nil {
		logger.Warn("failed to persist analysis record", "brand_id", brand.ID, "type", analysisType, "error", err)
	}
}

// titleFor renders "brand_analysis" + "Acme" as "Brand Analysis for Acme".
func titleFor(analysisType, brandName string) string {
	words := strings.Split(analysisType, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ") + " for " + brandName
}

// lockDomain serializes analysis runs per domain.
func (o *Orchestrator) lockDomain(domain string) func() {
	o.mu.Lock()
	l, ok := o.locks[domain]
	if !ok {
		l = &sync.Mutex{}
		o.locks[domain] = l
	}
	o.mu.Unlock()

	l.Lock()
	return l.Unlock
}
