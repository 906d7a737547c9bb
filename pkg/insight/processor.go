package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/storelens/storelens/internal/logger"
	"github.com/storelens/storelens/pkg/scrape"
)

// Processor turns scraped brand facts into LLM-generated insight maps.
// A nil provider means enrichment is unavailable and every method
// returns nil without error.
type Processor struct {
	provider Provider
}

// NewProcessor creates a processor. provider may be nil.
func NewProcessor(provider Provider) *Processor {
	return &Processor{provider: provider}
}

// Available reports whether a provider is configured.
func (p *Processor) Available() bool {
	return p.provider != nil
}

// BrandInsights generates a structured brand summary from scraped facts.
// Provider or parse failures degrade to an error map so callers can
// persist what happened without aborting the analysis.
func (p *Processor) BrandInsights(ctx context.Context, r *scrape.Result) map[string]any {
	if p.provider == nil {
		return nil
	}

	prompt := fmt.Sprintf(`Analyze the following brand information and provide a structured summary:

Brand Data:
%s

Please provide a JSON response with the following structure:
{
    "brand_summary": "Brief description of the brand",
    "key_features": ["feature1", "feature2", "feature3"],
    "target_audience": "Description of target audience",
    "unique_selling_points": ["usp1", "usp2"],
    "brand_positioning": "Brand positioning statement",
    "content_themes": ["theme1", "theme2"],
    "business_model": "Description of business model"
}

Only return valid JSON.`, buildBrandContext(r))

	return p.complete(ctx, "brand insights",
		"You are a brand analyst. Analyze brand data and provide structured insights in JSON format.",
		prompt, 1000)
}

// CatalogInsights generates insights over a product catalog. The
// total_products count is always authoritative, even on failure.
func (p *Processor) CatalogInsights(ctx context.Context, products []scrape.CatalogProduct) map[string]any {
	if p.provider == nil || len(products) == 0 {
		return nil
	}

	type productSummary struct {
		Title string   `json:"title"`
		Price string   `json:"price"`
		Type  string   `json:"type"`
		Tags  []string `json:"tags"`
	}

	summaries := make([]productSummary, 0, 20)
	for _, prod := range products {
		if len(summaries) == 20 {
			break
		}
		tags := prod.Tags
		if len(tags) > 5 {
			tags = tags[:5]
		}
		summaries = append(summaries, productSummary{
			Title: prod.Title,
			Price: prod.Price,
			Type:  prod.ProductType,
			Tags:  tags,
		})
	}

	summaryJSON, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return map[string]any{"total_products": len(products)}
	}

	prompt := fmt.Sprintf(`Analyze this product catalog and provide insights:

Products: %s

Provide a JSON response with:
{
    "total_products": number,
    "price_range": {"min": number, "max": number},
    "main_categories": ["category1", "category2"],
    "popular_tags": ["tag1", "tag2"],
    "business_type": "Description of business type",
    "target_market": "Target market description",
    "product_diversity": "Assessment of product range"
}

Only return valid JSON.`, summaryJSON)

	insights := p.complete(ctx, "catalog insights",
		"You are a product analyst. Analyze product catalogs and provide insights.",
		prompt, 800)

	if insights == nil || insights["error"] != nil {
		return map[string]any{"total_products": len(products)}
	}

	insights["total_products"] = len(products)
	return insights
}

// CompetitorComparison compares a brand against its analyzed competitors.
func (p *Processor) CompetitorComparison(ctx context.Context, brand *scrape.Result, competitors []*scrape.Result) map[string]any {
	if p.provider == nil || len(competitors) == 0 {
		return nil
	}

	type presence struct {
		Name           string `json:"name"`
		Products       int    `json:"products"`
		SocialPresence int    `json:"social_presence"`
	}

	brandSummary := presence{
		Name:           brand.Name,
		Products:       len(brand.Catalog),
		SocialPresence: len(brand.SocialHandles),
	}

	compSummaries := make([]presence, 0, 3)
	for _, comp := range competitors {
		if len(compSummaries) == 3 {
			break
		}
		compSummaries = append(compSummaries, presence{
			Name:           comp.Name,
			Products:       len(comp.Catalog),
			SocialPresence: len(comp.SocialHandles),
		})
	}

	brandJSON, err := json.MarshalIndent(brandSummary, "", "  ")
	if err != nil {
		return nil
	}
	compJSON, err := json.MarshalIndent(compSummaries, "", "  ")
	if err != nil {
		return nil
	}

	prompt := fmt.Sprintf(`Compare this brand with its competitors:

Brand: %s

Competitors: %s

Provide a JSON response with:
{
    "competitive_position": "Strong/Moderate/Weak",
    "key_advantages": ["advantage1", "advantage2"],
    "areas_for_improvement": ["area1", "area2"],
    "market_opportunities": ["opportunity1", "opportunity2"],
    "competitive_threats": ["threat1", "threat2"],
    "strategic_recommendations": ["recommendation1", "recommendation2"]
}

Only return valid JSON.`, brandJSON, compJSON)

	return p.complete(ctx, "competitor comparison",
		"You are a competitive analyst. Analyze brand positioning vs competitors.",
		prompt, 1000)
}

// complete runs one completion and parses the response as a JSON object.
func (p *Processor) complete(ctx context.Context, task, system, prompt string, maxTokens int) map[string]any {
	resp, err := p.provider.Complete(ctx, Request{
		Messages: []Message{
			{Role: RoleSystem, Content: system},
			{Role: RoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		logger.Warn("LLM request failed", "task", task, "error", err)
		return map[string]any{"error": err.Error()}
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(stripFences(resp.Content)), &result); err != nil {
		logger.Warn("failed to parse LLM response as JSON", "task", task, "error", err)
		return map[string]any{"error": "failed to parse LLM response"}
	}

	return result
}

// buildBrandContext renders a bounded textual summary of scraped facts
// for the prompt: featured product titles, social handles, the first 5
// FAQ questions and up to 10 distinct product types.
func buildBrandContext(r *scrape.Result) string {
	var parts []string

	if r.Name != "" {
		parts = append(parts, "Brand Name: "+r.Name)
	}

	if r.Description != "" {
		parts = append(parts, "Brand Description: "+r.Description)
	}

	if len(r.HeroProducts) > 0 {
		titles := make([]string, 0, len(r.HeroProducts))
		for _, hp := range r.HeroProducts {
			titles = append(titles, hp.Title)
		}
		parts = append(parts, "Featured Products: "+strings.Join(titles, ", "))
	}

	if len(r.SocialHandles) > 0 {
		handles := make([]string, 0, len(r.SocialHandles))
		for _, platform := range scrape.SocialPlatforms {
			if handle, ok := r.SocialHandles[platform]; ok {
				handles = append(handles, platform+": "+handle)
			}
		}
		parts = append(parts, "Social Media: "+strings.Join(handles, ", "))
	}

	if len(r.FAQs) > 0 {
		questions := make([]string, 0, 5)
		for _, faq := range r.FAQs {
			if len(questions) == 5 {
				break
			}
			questions = append(questions, faq.Question)
		}
		parts = append(parts, "Common Questions: "+strings.Join(questions, ", "))
	}

	if len(r.Catalog) > 0 {
		seen := make(map[string]bool)
		var types []string
		for _, prod := range r.Catalog {
			if len(types) == 10 {
				break
			}
			if prod.ProductType == "" || seen[prod.ProductType] {
				continue
			}
			seen[prod.ProductType] = true
			types = append(types, prod.ProductType)
		}
		if len(types) > 0 {
			parts = append(parts, "Product Types: "+strings.Join(types, ", "))
		}
	}

	return strings.Join(parts, "\n")
}

// stripFences removes markdown code fences that some models wrap around
// JSON output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
