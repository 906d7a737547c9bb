package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/storelens/storelens/pkg/scrape"
)

// stubProvider returns canned content or a fixed error.
type stubProvider struct {
	content string
	err     error
	lastReq Request
}

func (s *stubProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &Response{Content: s.content}, nil
}

func (s *stubProvider) Name() string  { return "stub" }
func (s *stubProvider) Model() string { return "stub-model" }

func TestProcessor_NilProvider(t *testing.T) {
	p := NewProcessor(nil)

	if p.Available() {
		t.Error("Available() = true for nil provider")
	}

	if got := p.BrandInsights(context.Background(), &scrape.Result{Name: "Acme"}); got != nil {
		t.Errorf("BrandInsights() = %v, want nil", got)
	}

	if got := p.CatalogInsights(context.Background(), []scrape.CatalogProduct{{Title: "Socks"}}); got != nil {
		t.Errorf("CatalogInsights() = %v, want nil", got)
	}
}

func TestBrandInsights_ParsesJSON(t *testing.T) {
	stub := &stubProvider{content: `{"brand_summary": "Sock maker", "business_model": "DTC"}`}
	p := NewProcessor(stub)

	got := p.BrandInsights(context.Background(), &scrape.Result{Name: "Acme Co"})
	if got == nil {
		t.Fatal("BrandInsights() = nil")
	}

	if got["brand_summary"] != "Sock maker" {
		t.Errorf("brand_summary = %v", got["brand_summary"])
	}

	if got["business_model"] != "DTC" {
		t.Errorf("business_model = %v", got["business_model"])
	}
}

func TestBrandInsights_StripsMarkdownFences(t *testing.T) {
	stub := &stubProvider{content: "```json\n{\"brand_summary\": \"fenced\"}\n```"}
	p := NewProcessor(stub)

	got := p.BrandInsights(context.Background(), &scrape.Result{Name: "Acme"})
	if got["brand_summary"] != "fenced" {
		t.Errorf("brand_summary = %v, want fenced", got["brand_summary"])
	}
}

func TestBrandInsights_MalformedJSON(t *testing.T) {
	stub := &stubProvider{content: "here is your analysis: the brand is great"}
	p := NewProcessor(stub)

	got := p.BrandInsights(context.Background(), &scrape.Result{Name: "Acme"})
	if got == nil {
		t.Fatal("BrandInsights() = nil")
	}

	if got["error"] != "failed to parse LLM response" {
		t.Errorf("error = %v", got["error"])
	}
}

func TestBrandInsights_ProviderError(t *testing.T) {
	stub := &stubProvider{err: errors.New("rate limited")}
	p := NewProcessor(stub)

	got := p.BrandInsights(context.Background(), &scrape.Result{Name: "Acme"})
	if got["error"] != "rate limited" {
		t.Errorf("error = %v, want rate limited", got["error"])
	}
}

func TestBrandInsights_PromptContainsContext(t *testing.T) {
	stub := &stubProvider{content: `{}`}
	p := NewProcessor(stub)

	r := &scrape.Result{
		Name:        "Acme Co",
		Description: "We sell socks",
		SocialHandles: map[string]string{
			"instagram": "acmeco",
			"twitter":   "acme",
		},
		HeroProducts: []scrape.HeroProduct{{Title: "Wool Socks"}},
		FAQs:         []scrape.FAQ{{Question: "Do you ship abroad?", Answer: "Yes"}},
	}

	p.BrandInsights(context.Background(), r)

	if len(stub.lastReq.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(stub.lastReq.Messages))
	}

	prompt := stub.lastReq.Messages[1].Content
	for _, want := range []string{
		"Brand Name: Acme Co",
		"Brand Description: We sell socks",
		"Featured Products: Wool Socks",
		"instagram: acmeco",
		"Common Questions: Do you ship abroad?",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestCatalogInsights_SetsAuthoritativeCount(t *testing.T) {
	stub := &stubProvider{content: `{"total_products": 9999, "business_type": "apparel"}`}
	p := NewProcessor(stub)

	products := []scrape.CatalogProduct{
		{Title: "Socks", ProductType: "Apparel"},
		{Title: "Hats", ProductType: "Apparel"},
	}

	got := p.CatalogInsights(context.Background(), products)
	if got == nil {
		t.Fatal("CatalogInsights() = nil")
	}

	if got["total_products"] != 2 {
		t.Errorf("total_products = %v, want 2", got["total_products"])
	}

	if got["business_type"] != "apparel" {
		t.Errorf("business_type = %v", got["business_type"])
	}
}

func TestCatalogInsights_DegradesToCount(t *testing.T) {
	stub := &stubProvider{err: errors.New("boom")}
	p := NewProcessor(stub)

	got := p.CatalogInsights(context.Background(), []scrape.CatalogProduct{{Title: "Socks"}})
	if len(got) != 1 || got["total_products"] != 1 {
		t.Errorf("CatalogInsights() = %v, want only total_products", got)
	}
}

func TestCatalogInsights_EmptyCatalog(t *testing.T) {
	stub := &stubProvider{content: `{}`}
	p := NewProcessor(stub)

	if got := p.CatalogInsights(context.Background(), nil); got != nil {
		t.Errorf("CatalogInsights() = %v, want nil", got)
	}
}

func TestCompetitorComparison(t *testing.T) {
	stub := &stubProvider{content: `{"competitive_position": "Strong"}`}
	p := NewProcessor(stub)

	brand := &scrape.Result{Name: "Acme", Catalog: make([]scrape.CatalogProduct, 3)}
	comps := []*scrape.Result{
		{Name: "Rival", Catalog: make([]scrape.CatalogProduct, 1)},
	}

	got := p.CompetitorComparison(context.Background(), brand, comps)
	if got["competitive_position"] != "Strong" {
		t.Errorf("competitive_position = %v", got["competitive_position"])
	}

	prompt := stub.lastReq.Messages[1].Content
	if !strings.Contains(prompt, `"name": "Acme"`) || !strings.Contains(prompt, `"name": "Rival"`) {
		t.Errorf("prompt missing brand or competitor name:\n%s", prompt)
	}
}

func TestCompetitorComparison_NoCompetitors(t *testing.T) {
	p := NewProcessor(&stubProvider{content: `{}`})

	if got := p.CompetitorComparison(context.Background(), &scrape.Result{}, nil); got != nil {
		t.Errorf("CompetitorComparison() = %v, want nil", got)
	}
}

func TestBuildBrandContext_Bounds(t *testing.T) {
	r := &scrape.Result{Name: "Acme"}
	for i := 0; i < 8; i++ {
		r.FAQs = append(r.FAQs, scrape.FAQ{Question: fmt.Sprintf("q%d", i)})
	}
	for i := 0; i < 15; i++ {
		r.Catalog = append(r.Catalog, scrape.CatalogProduct{ProductType: fmt.Sprintf("type%d", i)})
	}

	ctx := buildBrandContext(r)

	if strings.Contains(ctx, "q5") {
		t.Error("expected at most 5 FAQ questions")
	}

	if strings.Contains(ctx, "type10") {
		t.Error("expected at most 10 product types")
	}

	// Duplicate types are collapsed.
	r2 := &scrape.Result{Catalog: []scrape.CatalogProduct{
		{ProductType: "Apparel"}, {ProductType: "Apparel"},
	}}
	if got := buildBrandContext(r2); strings.Count(got, "Apparel") != 1 {
		t.Errorf("expected single Apparel entry, got %q", got)
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"whitespace", "  {\"a\": 1}  ", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripFences(tt.in); got != tt.want {
				t.Errorf("stripFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
