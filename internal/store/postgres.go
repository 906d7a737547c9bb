package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 5 * time.Minute
	defaultPingTimeout     = 5 * time.Second
)

// Postgres is a Store backed by PostgreSQL.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres connects to PostgreSQL and verifies the connection.
func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), defaultPingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{db: db}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// Migrate creates the schema if it does not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS brands (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		website_url TEXT NOT NULL,
		domain TEXT NOT NULL UNIQUE,
		brand_context TEXT NOT NULL DEFAULT '',
		contact_email TEXT NOT NULL DEFAULT '',
		contact_phone TEXT NOT NULL DEFAULT '',
		social_handles JSONB,
		important_links JSONB,
		privacy_policy_url TEXT NOT NULL DEFAULT '',
		privacy_policy_text TEXT NOT NULL DEFAULT '',
		return_policy_url TEXT NOT NULL DEFAULT '',
		return_policy_text TEXT NOT NULL DEFAULT '',
		refund_policy_url TEXT NOT NULL DEFAULT '',
		refund_policy_text TEXT NOT NULL DEFAULT '',
		faqs JSONB,
		hero_products JSONB,
		is_shopify_store BOOLEAN NOT NULL DEFAULT FALSE,
		scraping_status TEXT NOT NULL DEFAULT 'pending',
		scraping_errors TEXT NOT NULL DEFAULT '',
		last_scraped TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		brand_id TEXT NOT NULL REFERENCES brands(id) ON DELETE CASCADE,
		shopify_id TEXT NOT NULL DEFAULT '',
		handle TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		vendor TEXT NOT NULL DEFAULT '',
		product_type TEXT NOT NULL DEFAULT '',
		tags JSONB,
		price TEXT NOT NULL DEFAULT '',
		compare_at_price TEXT NOT NULL DEFAULT '',
		product_url TEXT NOT NULL DEFAULT '',
		image_urls JSONB,
		featured_image TEXT NOT NULL DEFAULT '',
		available BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_products_brand_id ON products(brand_id);

	CREATE TABLE IF NOT EXISTS competitors (
		id TEXT PRIMARY KEY,
		brand_id TEXT NOT NULL REFERENCES brands(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		website_url TEXT NOT NULL,
		domain TEXT NOT NULL,
		brand_context TEXT NOT NULL DEFAULT '',
		contact_email TEXT NOT NULL DEFAULT '',
		social_handles JSONB,
		faqs JSONB,
		hero_products JSONB,
		estimated_revenue TEXT NOT NULL DEFAULT '',
		market_position TEXT NOT NULL DEFAULT '',
		product_count INTEGER NOT NULL DEFAULT 0,
		is_shopify_store BOOLEAN NOT NULL DEFAULT FALSE,
		scraping_status TEXT NOT NULL DEFAULT 'pending',
		scraping_errors TEXT NOT NULL DEFAULT '',
		last_scraped TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_competitors_brand_id ON competitors(brand_id);

	CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		brand_id TEXT NOT NULL REFERENCES brands(id) ON DELETE CASCADE,
		analysis_type TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		results JSONB,
		insights JSONB,
		status TEXT NOT NULL DEFAULT 'completed',
		processing_time_ms BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_analyses_brand_id ON analyses(brand_id);
	`

	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// UpsertBrand inserts or updates a brand keyed by domain.
func (p *Postgres) UpsertBrand(ctx context.Context, b *Brand) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}

	query := `
		INSERT INTO brands (
			id, name, website_url, domain, brand_context, contact_email, contact_phone,
			social_handles, important_links,
			privacy_policy_url, privacy_policy_text,
			return_policy_url, return_policy_text,
			refund_policy_url, refund_policy_text,
			faqs, hero_products,
			is_shopify_store, scraping_status, scraping_errors, last_scraped
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (domain) DO UPDATE SET
			name = EXCLUDED.name,
			website_url = EXCLUDED.website_url,
			brand_context = EXCLUDED.brand_context,
			contact_email = EXCLUDED.contact_email,
			contact_phone = EXCLUDED.contact_phone,
			social_handles = EXCLUDED.social_handles,
			important_links = EXCLUDED.important_links,
			privacy_policy_url = EXCLUDED.privacy_policy_url,
			privacy_policy_text = EXCLUDED.privacy_policy_text,
			return_policy_url = EXCLUDED.return_policy_url,
			return_policy_text = EXCLUDED.return_policy_text,
			refund_policy_url = EXCLUDED.refund_policy_url,
			refund_policy_text = EXCLUDED.refund_policy_text,
			faqs = EXCLUDED.faqs,
			hero_products = EXCLUDED.hero_products,
			is_shopify_store = EXCLUDED.is_shopify_store,
			scraping_status = EXCLUDED.scraping_status,
			scraping_errors = EXCLUDED.scraping_errors,
			last_scraped = EXCLUDED.last_scraped,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := p.db.QueryRowContext(ctx, query,
		b.ID, b.Name, b.WebsiteURL, b.Domain, b.BrandContext, b.ContactEmail, b.ContactPhone,
		b.SocialHandles, b.ImportantLinks,
		b.PrivacyPolicyURL, b.PrivacyPolicyText,
		b.ReturnPolicyURL, b.ReturnPolicyText,
		b.RefundPolicyURL, b.RefundPolicyText,
		b.FAQs, b.HeroProducts,
		b.IsShopifyStore, b.ScrapingStatus, b.ScrapingErrors, b.LastScraped,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert brand: %w", err)
	}
	return nil
}

// UpdateBrandStatus transitions a brand's scraping status.
func (p *Postgres) UpdateBrandStatus(ctx context.Context, id, status, scrapeErr string) error {
	query := `
		UPDATE brands
		SET scraping_status = $2, scraping_errors = $3, updated_at = NOW()
		WHERE id = $1
	`

	res, err := p.db.ExecContext(ctx, query, id, status, scrapeErr)
	if err != nil {
		return fmt.Errorf("failed to update brand status: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) GetBrand(ctx context.Context, id string) (*Brand, error) {
	var b Brand
	err := p.db.GetContext(ctx, &b, `SELECT * FROM brands WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get brand: %w", err)
	}
	return &b, nil
}

func (p *Postgres) GetBrandByDomain(ctx context.Context, domain string) (*Brand, error) {
	var b Brand
	err := p.db.GetContext(ctx, &b, `SELECT * FROM brands WHERE domain = $1`, domain)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get brand by domain: %w", err)
	}
	return &b, nil
}

func (p *Postgres) ListBrands(ctx context.Context) ([]Brand, error) {
	brands := []Brand{}
	err := p.db.SelectContext(ctx, &brands, `SELECT * FROM brands ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}
	return brands, nil
}

// DeleteBrand removes a brand; owned rows cascade.
func (p *Postgres) DeleteBrand(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM brands WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete brand: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceProducts swaps a brand's product set in one transaction.
func (p *Postgres) ReplaceProducts(ctx context.Context, brandID string, products []Product) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM products WHERE brand_id = $1`, brandID); err != nil {
		return fmt.Errorf("failed to delete products: %w", err)
	}

	insert := `
		INSERT INTO products (
			id, brand_id, shopify_id, handle, title, description, vendor, product_type,
			tags, price, compare_at_price, product_url, image_urls, featured_image, available
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	for i := range products {
		prod := &products[i]
		prod.ID = uuid.New().String()
		prod.BrandID = brandID

		if _, err := tx.ExecContext(ctx, insert,
			prod.ID, prod.BrandID, prod.ShopifyID, prod.Handle, prod.Title,
			prod.Description, prod.Vendor, prod.ProductType,
			prod.Tags, prod.Price, prod.CompareAtPrice,
			prod.ProductURL, prod.ImageURLs, prod.FeaturedImage, prod.Available,
		); err != nil {
			return fmt.Errorf("failed to insert product %q: %w", prod.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit products: %w", err)
	}
	return nil
}

func (p *Postgres) ListProducts(ctx context.Context, brandID string) ([]Product, error) {
	products := []Product{}
	err := p.db.SelectContext(ctx, &products,
		`SELECT * FROM products WHERE brand_id = $1 ORDER BY created_at, title`, brandID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (p *Postgres) InsertCompetitor(ctx context.Context, c *Competitor) error {
	c.ID = uuid.New().String()

	query := `
		INSERT INTO competitors (
			id, brand_id, name, website_url, domain, brand_context, contact_email,
			social_handles, faqs, hero_products,
			estimated_revenue, market_position, product_count,
			is_shopify_store, scraping_status, scraping_errors, last_scraped
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING created_at
	`

	err := p.db.QueryRowContext(ctx, query,
		c.ID, c.BrandID, c.Name, c.WebsiteURL, c.Domain, c.BrandContext, c.ContactEmail,
		c.SocialHandles, c.FAQs, c.HeroProducts,
		c.EstimatedRevenue, c.MarketPosition, c.ProductCount,
		c.IsShopifyStore, c.ScrapingStatus, c.ScrapingErrors, c.LastScraped,
	).Scan(&c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert competitor: %w", err)
	}
	return nil
}

func (p *Postgres) ListCompetitors(ctx context.Context, brandID string) ([]Competitor, error) {
	competitors := []Competitor{}
	err := p.db.SelectContext(ctx, &competitors,
		`SELECT * FROM competitors WHERE brand_id = $1 ORDER BY created_at`, brandID)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitors: %w", err)
	}
	return competitors, nil
}

func (p *Postgres) AppendAnalysis(ctx context.Context, a *Analysis) error {
	a.ID = uuid.New().String()

	query := `
		INSERT INTO analyses (
			id, brand_id, analysis_type, title, description,
			results, insights, status, processing_time_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`

	err := p.db.QueryRowContext(ctx, query,
		a.ID, a.BrandID, a.AnalysisType, a.Title, a.Description,
		a.Results, a.Insights, a.Status, a.ProcessingTimeMS,
	).Scan(&a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append analysis: %w", err)
	}
	return nil
}

func (p *Postgres) ListAnalyses(ctx context.Context, brandID string) ([]Analysis, error) {
	analyses := []Analysis{}
	err := p.db.SelectContext(ctx, &analyses,
		`SELECT * FROM analyses WHERE brand_id = $1 ORDER BY created_at`, brandID)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	return analyses, nil
}

var _ Store = (*Postgres)(nil)
