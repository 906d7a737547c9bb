package analysis

import (
	"context"
	"testing"

	"github.com/storelens/storelens/internal/store"
	"github.com/storelens/storelens/pkg/insight"
	"github.com/storelens/storelens/pkg/scrape"
)

func resultWithCounts(domain string, products, socials, faqs int) *scrape.Result {
	r := &scrape.Result{
		WebsiteURL:    "https://" + domain,
		Domain:        domain,
		Status:        scrape.StatusCompleted,
		Name:          domain,
		SocialHandles: map[string]string{},
	}
	for i := 0; i < products; i++ {
		r.Catalog = append(r.Catalog, scrape.CatalogProduct{Title: "p"})
	}
	for i := 0; i < socials; i++ {
		r.SocialHandles[socialKey(i)] = "handle"
	}
	for i := 0; i < faqs; i++ {
		r.FAQs = append(r.FAQs, scrape.FAQ{Question: "q", Answer: "a"})
	}
	return r
}

// socialKey yields distinct platform keys for test fixtures.
func socialKey(i int) string {
	keys := []string{"instagram", "facebook", "twitter", "tiktok", "youtube", "linkedin"}
	return keys[i%len(keys)]
}

func TestBuildReport_MarketPosition(t *testing.T) {
	tests := []struct {
		name          string
		brandProducts int
		compProducts  []int
		want          string
	}{
		{"strong above 1.5x mean", 10, []int{4, 4}, "Strong"},
		{"competitive above 0.8x mean", 4, []int{4, 4}, "Competitive"},
		{"emerging below 0.8x mean", 2, []int{10, 10}, "Emerging"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			brand := resultWithCounts("acme.com", tt.brandProducts, 0, 0)
			var comps []*scrape.Result
			for i, n := range tt.compProducts {
				comps = append(comps, resultWithCounts(socialKey(i)+".com", n, 0, 0))
			}

			report := buildReport("Acme", brand, comps)
			if report.MarketPosition != tt.want {
				t.Errorf("MarketPosition = %s, want %s", report.MarketPosition, tt.want)
			}
		})
	}
}

func TestBuildReport_NoCompetitors(t *testing.T) {
	report := buildReport("Acme", resultWithCounts("acme.com", 5, 0, 0), nil)

	if report.MarketPosition != "Unknown" {
		t.Errorf("MarketPosition = %s, want Unknown", report.MarketPosition)
	}
	if report.CompetitorsAnalyzed != 0 {
		t.Errorf("CompetitorsAnalyzed = %d, want 0", report.CompetitorsAnalyzed)
	}
}

func TestBuildReport_AdvantagesAndDisadvantages(t *testing.T) {
	// Brand leads on social, trails on FAQs.
	brand := resultWithCounts("acme.com", 5, 4, 1)
	comps := []*scrape.Result{
		resultWithCounts("a.com", 5, 1, 5),
		resultWithCounts("b.com", 5, 1, 5),
	}

	report := buildReport("Acme", brand, comps)

	if !contains(report.CompetitiveAdvantages, "Strong social media presence") {
		t.Errorf("advantages = %v", report.CompetitiveAdvantages)
	}
	if !contains(report.CompetitiveDisadvantages, "Limited customer support information") {
		t.Errorf("disadvantages = %v", report.CompetitiveDisadvantages)
	}
	if !contains(report.StrategicRecommendations, "Improve customer support documentation") {
		t.Errorf("recommendations = %v", report.StrategicRecommendations)
	}
}

func TestBuildReport_EmergingRecommendations(t *testing.T) {
	brand := resultWithCounts("acme.com", 1, 0, 0)
	comps := []*scrape.Result{resultWithCounts("a.com", 10, 0, 0)}

	report := buildReport("Acme", brand, comps)

	if !contains(report.StrategicRecommendations, "Expand product catalog") {
		t.Errorf("recommendations = %v", report.StrategicRecommendations)
	}
	if !contains(report.StrategicRecommendations, "Increase social media presence") {
		t.Errorf("recommendations = %v", report.StrategicRecommendations)
	}
}

func TestCompetitiveRun_RecordsFailures(t *testing.T) {
	st := store.NewMemory()
	brand := &store.Brand{Name: "Acme Co", WebsiteURL: "https://acme.com", Domain: "acme.com"}
	if err := st.UpsertBrand(context.Background(), brand); err != nil {
		t.Fatalf("UpsertBrand() error = %v", err)
	}

	analyzer := &stubAnalyzer{results: map[string]*scrape.Result{
		"rival.com": resultWithCounts("rival.com", 3, 1, 1),
	}}
	pipeline := NewCompetitive(st, analyzer, insight.NewProcessor(nil), 2)

	brandResult := resultWithCounts("acme.com", 6, 2, 2)
	competitors, report := pipeline.Run(context.Background(), brand, brandResult, []string{"rival.com", "down.com"})

	if len(competitors) != 2 {
		t.Fatalf("expected 2 competitor records, got %d", len(competitors))
	}

	var failed, completed int
	for _, c := range competitors {
		switch c.ScrapingStatus {
		case store.StatusFailed:
			failed++
			if c.ScrapingErrors == "" {
				t.Error("failed competitor should carry its error")
			}
		case store.StatusCompleted:
			completed++
			if c.ProductCount != 3 {
				t.Errorf("ProductCount = %d, want 3", c.ProductCount)
			}
		}
	}
	if failed != 1 || completed != 1 {
		t.Errorf("failed=%d completed=%d, want 1 each", failed, completed)
	}

	// Only successful scrapes feed the report.
	if report.CompetitorsAnalyzed != 1 {
		t.Errorf("CompetitorsAnalyzed = %d, want 1", report.CompetitorsAnalyzed)
	}
	if report.MarketPosition != "Strong" {
		t.Errorf("MarketPosition = %s, want Strong", report.MarketPosition)
	}

	persisted, _ := st.ListCompetitors(context.Background(), brand.ID)
	if len(persisted) != 2 {
		t.Errorf("expected 2 persisted competitors, got %d", len(persisted))
	}
}

func TestCompetitiveRun_AttachesLLMInsights(t *testing.T) {
	st := store.NewMemory()
	brand := &store.Brand{Name: "Acme Co", WebsiteURL: "https://acme.com", Domain: "acme.com"}
	if err := st.UpsertBrand(context.Background(), brand); err != nil {
		t.Fatalf("UpsertBrand() error = %v", err)
	}

	analyzer := &stubAnalyzer{results: map[string]*scrape.Result{
		"rival.com": resultWithCounts("rival.com", 3, 1, 1),
	}}
	provider := &stubInsightProvider{content: `{"competitive_position": "Strong"}`}
	pipeline := NewCompetitive(st, analyzer, insight.NewProcessor(provider), 2)

	_, report := pipeline.Run(context.Background(), brand, resultWithCounts("acme.com", 6, 2, 2), []string{"rival.com"})

	if report.LLMInsights == nil || report.LLMInsights["competitive_position"] != "Strong" {
		t.Errorf("LLMInsights = %v", report.LLMInsights)
	}
}

func TestReportAsMap(t *testing.T) {
	report := buildReport("Acme", resultWithCounts("acme.com", 1, 0, 0), nil)

	m := report.asMap()
	if m["brand_name"] != "Acme" {
		t.Errorf("brand_name = %v", m["brand_name"])
	}
	if m["market_position"] != "Unknown" {
		t.Errorf("market_position = %v", m["market_position"])
	}
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
