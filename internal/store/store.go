// Package store persists brand analysis records. Two implementations
// exist: an in-memory store for one-shot CLI runs and tests, and a
// PostgreSQL store for the API server.
package store

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/storelens/storelens/pkg/scrape"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Scraping status values for brands and competitors.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Brand is the persistent record for an analyzed storefront. Domain is
// the upsert key; re-analysis overwrites the fact columns in place.
type Brand struct {
	ID         string `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	WebsiteURL string `db:"website_url" json:"website_url"`
	Domain     string `db:"domain" json:"domain"`

	BrandContext string `db:"brand_context" json:"brand_context,omitempty"`
	ContactEmail string `db:"contact_email" json:"contact_email,omitempty"`
	ContactPhone string `db:"contact_phone" json:"contact_phone,omitempty"`

	SocialHandles  JSONMap `db:"social_handles" json:"social_handles,omitempty"`
	ImportantLinks JSONMap `db:"important_links" json:"important_links,omitempty"`

	PrivacyPolicyURL  string `db:"privacy_policy_url" json:"privacy_policy_url,omitempty"`
	PrivacyPolicyText string `db:"privacy_policy_text" json:"privacy_policy_text,omitempty"`
	ReturnPolicyURL   string `db:"return_policy_url" json:"return_policy_url,omitempty"`
	ReturnPolicyText  string `db:"return_policy_text" json:"return_policy_text,omitempty"`
	RefundPolicyURL   string `db:"refund_policy_url" json:"refund_policy_url,omitempty"`
	RefundPolicyText  string `db:"refund_policy_text" json:"refund_policy_text,omitempty"`

	FAQs         FAQList         `db:"faqs" json:"faqs,omitempty"`
	HeroProducts HeroProductList `db:"hero_products" json:"hero_products,omitempty"`

	IsShopifyStore bool       `db:"is_shopify_store" json:"is_shopify_store"`
	ScrapingStatus string     `db:"scraping_status" json:"scraping_status"`
	ScrapingErrors string     `db:"scraping_errors" json:"scraping_errors,omitempty"`
	LastScraped    *time.Time `db:"last_scraped" json:"last_scraped,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Product is one catalog entry owned by a brand. The whole set is
// replaced on every successful re-analysis.
type Product struct {
	ID      string `db:"id" json:"id"`
	BrandID string `db:"brand_id" json:"brand_id"`

	ShopifyID string `db:"shopify_id" json:"shopify_id,omitempty"`
	Handle    string `db:"handle" json:"handle,omitempty"`

	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description,omitempty"`
	Vendor      string     `db:"vendor" json:"vendor,omitempty"`
	ProductType string     `db:"product_type" json:"product_type,omitempty"`
	Tags        StringList `db:"tags" json:"tags,omitempty"`

	Price          string `db:"price" json:"price,omitempty"`
	CompareAtPrice string `db:"compare_at_price" json:"compare_at_price,omitempty"`

	ProductURL    string     `db:"product_url" json:"product_url,omitempty"`
	ImageURLs     StringList `db:"image_urls" json:"image_urls,omitempty"`
	FeaturedImage string     `db:"featured_image" json:"featured_image,omitempty"`

	Available bool `db:"available" json:"available"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Competitor is one competitor analysis attached to a brand. Records
// are append-only; repeated fan-outs add new rows.
type Competitor struct {
	ID      string `db:"id" json:"id"`
	BrandID string `db:"brand_id" json:"brand_id"`

	Name       string `db:"name" json:"name"`
	WebsiteURL string `db:"website_url" json:"website_url"`
	Domain     string `db:"domain" json:"domain"`

	BrandContext  string  `db:"brand_context" json:"brand_context,omitempty"`
	ContactEmail  string  `db:"contact_email" json:"contact_email,omitempty"`
	SocialHandles JSONMap `db:"social_handles" json:"social_handles,omitempty"`

	FAQs         FAQList         `db:"faqs" json:"faqs,omitempty"`
	HeroProducts HeroProductList `db:"hero_products" json:"hero_products,omitempty"`

	EstimatedRevenue string `db:"estimated_revenue" json:"estimated_revenue,omitempty"`
	MarketPosition   string `db:"market_position" json:"market_position,omitempty"`
	ProductCount     int    `db:"product_count" json:"product_count"`

	IsShopifyStore bool       `db:"is_shopify_store" json:"is_shopify_store"`
	ScrapingStatus string     `db:"scraping_status" json:"scraping_status"`
	ScrapingErrors string     `db:"scraping_errors" json:"scraping_errors,omitempty"`
	LastScraped    *time.Time `db:"last_scraped" json:"last_scraped,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Analysis is an append-only artifact produced by an analysis run,
// such as LLM insights or a competitive report.
type Analysis struct {
	ID      string `db:"id" json:"id"`
	BrandID string `db:"brand_id" json:"brand_id"`

	AnalysisType string `db:"analysis_type" json:"analysis_type"`
	Title        string `db:"title" json:"title"`
	Description  string `db:"description" json:"description,omitempty"`

	Results  ResultMap `db:"results" json:"results,omitempty"`
	Insights ResultMap `db:"insights" json:"insights,omitempty"`

	Status           string `db:"status" json:"status"`
	ProcessingTimeMS int64  `db:"processing_time_ms" json:"processing_time_ms"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Store is the persistence boundary for analysis runs.
type Store interface {
	// UpsertBrand inserts or updates a brand keyed by domain. The
	// brand's ID and CreatedAt are populated on return.
	UpsertBrand(ctx context.Context, b *Brand) error

	// UpdateBrandStatus transitions a brand's scraping status without
	// touching its fact columns.
	UpdateBrandStatus(ctx context.Context, id, status, scrapeErr string) error

	GetBrand(ctx context.Context, id string) (*Brand, error)
	GetBrandByDomain(ctx context.Context, domain string) (*Brand, error)
	ListBrands(ctx context.Context) ([]Brand, error)

	// DeleteBrand removes a brand and all owned records.
	DeleteBrand(ctx context.Context, id string) error

	// ReplaceProducts atomically swaps a brand's product set.
	ReplaceProducts(ctx context.Context, brandID string, products []Product) error
	ListProducts(ctx context.Context, brandID string) ([]Product, error)

	InsertCompetitor(ctx context.Context, c *Competitor) error
	ListCompetitors(ctx context.Context, brandID string) ([]Competitor, error)

	AppendAnalysis(ctx context.Context, a *Analysis) error
	ListAnalyses(ctx context.Context, brandID string) ([]Analysis, error)
}

// JSONMap stores a string-keyed map as a JSON column.
type JSONMap map[string]string

func (m JSONMap) Value() (driver.Value, error) { return jsonValue(m, len(m) == 0) }
func (m *JSONMap) Scan(src any) error          { return jsonScan(m, src) }

// StringList stores a string slice as a JSON column.
type StringList []string

func (l StringList) Value() (driver.Value, error) { return jsonValue(l, len(l) == 0) }
func (l *StringList) Scan(src any) error          { return jsonScan(l, src) }

// FAQList stores scraped FAQs as a JSON column.
type FAQList []scrape.FAQ

func (l FAQList) Value() (driver.Value, error) { return jsonValue(l, len(l) == 0) }
func (l *FAQList) Scan(src any) error          { return jsonScan(l, src) }

// HeroProductList stores scraped hero products as a JSON column.
type HeroProductList []scrape.HeroProduct

func (l HeroProductList) Value() (driver.Value, error) { return jsonValue(l, len(l) == 0) }
func (l *HeroProductList) Scan(src any) error          { return jsonScan(l, src) }

// ResultMap stores arbitrary structured results as a JSON column.
type ResultMap map[string]any

func (m ResultMap) Value() (driver.Value, error) { return jsonValue(m, len(m) == 0) }
func (m *ResultMap) Scan(src any) error          { return jsonScan(m, src) }

func jsonValue(v any, empty bool) (driver.Value, error) {
	if empty {
		return nil, nil
	}
	return json.Marshal(v)
}

func jsonScan(dst any, src any) error {
	switch s := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(s, dst)
	case string:
		return json.Unmarshal([]byte(s), dst)
	default:
		return fmt.Errorf("unsupported JSON column type %T", src)
	}
}
