package analysis

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/storelens/storelens/internal/logger"
	"github.com/storelens/storelens/internal/store"
	"github.com/storelens/storelens/pkg/insight"
	"github.com/storelens/storelens/pkg/scrape"
)

// Market position thresholds relative to the mean competitor product
// count.
const (
	strongPositionFactor      = 1.5
	competitivePositionFactor = 0.8
)

// Report is the quantitative comparison of a brand against its
// analyzed competitors.
type Report struct {
	BrandName           string    `json:"brand_name"`
	AnalysisDate        time.Time `json:"analysis_date"`
	CompetitorsAnalyzed int       `json:"competitors_analyzed"`
	MarketPosition      string    `json:"market_position"`

	CompetitiveAdvantages    []string `json:"competitive_advantages"`
	CompetitiveDisadvantages []string `json:"competitive_disadvantages"`
	MarketOpportunities      []string `json:"market_opportunities"`
	StrategicRecommendations []string `json:"strategic_recommendations"`

	LLMInsights map[string]any `json:"llm_insights,omitempty"`
}

// asMap renders the report for storage in an analysis record.
func (r *Report) asMap() map[string]any {
	raw, err := json.Marshal(r)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return map[string]any{"error": err.Error()}
	}
	return m
}

// Competitive scrapes competitors with bounded concurrency and derives
// a comparative report. One competitor's failure never blocks the
// others; failed scrapes are recorded as failed competitor rows.
type Competitive struct {
	store       store.Store
	analyzer    SiteAnalyzer
	processor   *insight.Processor
	concurrency int
}

// NewCompetitive creates the competitor fan-out pipeline.
func NewCompetitive(st store.Store, analyzer SiteAnalyzer, processor *insight.Processor, concurrency int) *Competitive {
	if concurrency <= 0 {
		concurrency = 3
	}
	return &Competitive{
		store:       st,
		analyzer:    analyzer,
		processor:   processor,
		concurrency: concurrency,
	}
}

// Run analyzes each candidate URL, persists the competitor rows in
// candidate order, and builds the comparative report.
func (c *Competitive) Run(ctx context.Context, brand *store.Brand, brandResult *scrape.Result, urls []string) ([]store.Competitor, *Report) {
	results := make([]*scrape.Result, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, url := range urls {
		g.Go(func() error {
			results[i] = c.analyzer.Analyze(gctx, url)
			return nil
		})
	}
	// Worker funcs never return errors; failures live in the results.
	_ = g.Wait()

	competitors := make([]store.Competitor, 0, len(results))
	var succeeded []*scrape.Result
	for _, r := range results {
		comp := competitorFromResult(brand.ID, r)
		if err := c.store.InsertCompetitor(ctx, &comp); err != nil {
			logger.Warn("failed to persist competitor", "domain", comp.Domain, "error", err)
			continue
		}
		competitors = append(competitors, comp)

		if r.Status == scrape.StatusCompleted {
			succeeded = append(succeeded, r)
		} else {
			logger.Warn("competitor scrape failed", "domain", r.Domain, "error", r.Error)
		}
	}

	report := buildReport(brand.Name, brandResult, succeeded)
	if llm := c.processor.CompetitorComparison(ctx, brandResult, succeeded); llm != nil {
		report.LLMInsights = llm
	}
	return competitors, report
}

// buildReport computes the mean-relative comparisons and templated
// recommendations.
func buildReport(brandName string, brand *scrape.Result, competitors []*scrape.Result) *Report {
	report := &Report{
		BrandName:                brandName,
		AnalysisDate:             time.Now().UTC(),
		CompetitorsAnalyzed:      len(competitors),
		MarketPosition:           "Unknown",
		CompetitiveAdvantages:    []string{},
		CompetitiveDisadvantages: []string{},
		MarketOpportunities:      []string{},
		StrategicRecommendations: []string{},
	}

	if len(competitors) == 0 {
		return report
	}

	meanProducts := meanOf(competitors, func(r *scrape.Result) int { return len(r.Catalog) })
	brandProducts := float64(len(brand.Catalog))
	switch {
	case brandProducts > meanProducts*strongPositionFactor:
		report.MarketPosition = "Strong"
	case brandProducts > meanProducts*competitivePositionFactor:
		report.MarketPosition = "Competitive"
	default:
		report.MarketPosition = "Emerging"
	}

	meanSocial := meanOf(competitors, func(r *scrape.Result) int { return len(r.SocialHandles) })
	brandSocial := float64(len(brand.SocialHandles))
	if brandSocial > meanSocial {
		report.CompetitiveAdvantages = append(report.CompetitiveAdvantages, "Strong social media presence")
	} else if brandSocial < meanSocial {
		report.CompetitiveDisadvantages = append(report.CompetitiveDisadvantages, "Limited social media presence")
	}

	meanFAQs := meanOf(competitors, func(r *scrape.Result) int { return len(r.FAQs) })
	brandFAQs := float64(len(brand.FAQs))
	if brandFAQs > meanFAQs {
		report.CompetitiveAdvantages = append(report.CompetitiveAdvantages, "Comprehensive customer support")
	} else if brandFAQs < meanFAQs {
		report.CompetitiveDisadvantages = append(report.CompetitiveDisadvantages, "Limited customer support information")
	}

	if report.MarketPosition == "Emerging" {
		report.StrategicRecommendations = append(report.StrategicRecommendations,
			"Expand product catalog", "Increase social media presence")
	}
	for _, disadvantage := range report.CompetitiveDisadvantages {
		switch disadvantage {
		case "Limited social media presence":
			report.StrategicRecommendations = append(report.StrategicRecommendations, "Develop social media strategy")
		case "Limited customer support information":
			report.StrategicRecommendations = append(report.StrategicRecommendations, "Improve customer support documentation")
		}
	}

	return report
}

func meanOf(results []*scrape.Result, count func(*scrape.Result) int) float64 {
	total := 0
	for _, r := range results {
		total += count(r)
	}
	return float64(total) / float64(len(results))
}
