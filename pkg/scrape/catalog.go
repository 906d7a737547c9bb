package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/storelens/storelens/internal/logger"
)

const (
	catalogPageSize = 250
	// defaultPageDelay is the politeness throttle between catalog pages.
	defaultPageDelay = 1 * time.Second
)

// CatalogFetcher pages through a store's JSON product endpoint until an
// empty page terminates the walk.
type CatalogFetcher struct {
	client    *Client
	pageDelay time.Duration
}

// NewCatalogFetcher creates a catalog fetcher. A pageDelay of zero uses
// the default politeness throttle.
func NewCatalogFetcher(client *Client, pageDelay time.Duration) *CatalogFetcher {
	if pageDelay == 0 {
		pageDelay = defaultPageDelay
	}
	return &CatalogFetcher{client: client, pageDelay: pageDelay}
}

// catalogPage mirrors the platform's products.json response shape.
type catalogPage struct {
	Products []catalogEntry `json:"products"`
}

type catalogEntry struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Handle      string          `json:"handle"`
	BodyHTML    string          `json:"body_html"`
	Vendor      string          `json:"vendor"`
	ProductType string          `json:"product_type"`
	Tags        json.RawMessage `json:"tags"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
	Available   *bool           `json:"available"`
	Variants    []struct {
		Price          string  `json:"price"`
		CompareAtPrice *string `json:"compare_at_price"`
	} `json:"variants"`
	Images []struct {
		Src string `json:"src"`
	} `json:"images"`
}

// FetchAll collects the complete product catalog of site. The walk stops
// on the first empty page (normal termination) or on a JSON parse failure
// (logged, accumulated results returned without error). A fetch failure
// aborts the walk and returns the partial catalog alongside the error.
func (f *CatalogFetcher) FetchAll(ctx context.Context, site string) ([]CatalogProduct, error) {
	var products []CatalogProduct

	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/products.json?limit=%d&page=%d", strings.TrimRight(site, "/"), catalogPageSize, page)

		body, err := f.client.Fetch(ctx, url)
		if err != nil {
			return products, err
		}

		var parsed catalogPage
		if err := json.Unmarshal([]byte(body), &parsed); err != nil {
			logger.Warn("catalog page parse failed", "url", url, "error", err)
			return products, nil
		}
		if len(parsed.Products) == 0 {
			return products, nil
		}

		for i := range parsed.Products {
			products = append(products, normalizeProduct(&parsed.Products[i], site))
		}
		logger.Debug("catalog page collected", "page", page, "products", len(parsed.Products))

		if err := sleepContext(ctx, f.pageDelay); err != nil {
			return products, err
		}
	}
}

// normalizeProduct converts a raw catalog entry to the canonical record:
// price and compare-at-price come from the first variant, the featured
// image from the first image, tags from the string-or-list wire form, and
// the product URL from the handle.
func normalizeProduct(entry *catalogEntry, site string) CatalogProduct {
	p := CatalogProduct{
		ID:          entry.ID,
		Title:       entry.Title,
		Handle:      entry.Handle,
		Description: cleanText(entry.BodyHTML),
		Vendor:      entry.Vendor,
		ProductType: entry.ProductType,
		Tags:        parseTags(entry.Tags),
		URL:         resolveURL("/products/"+entry.Handle, site),
		CreatedAt:   entry.CreatedAt,
		UpdatedAt:   entry.UpdatedAt,
		Available:   entry.Available == nil || *entry.Available,
	}

	if len(entry.Variants) > 0 {
		p.Price = entry.Variants[0].Price
		if compareAt := entry.Variants[0].CompareAtPrice; compareAt != nil {
			p.CompareAtPrice = *compareAt
		}
	}

	for _, img := range entry.Images {
		p.Images = append(p.Images, img.Src)
	}
	if len(p.Images) > 0 {
		p.FeaturedImage = p.Images[0]
	}

	return p
}

// parseTags accepts the platform's two tag encodings: a comma-separated
// string or a JSON list.
func parseTags(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var joined string
	if err := json.Unmarshal(raw, &joined); err == nil {
		if joined == "" {
			return nil
		}
		tags := strings.Split(joined, ",")
		for i := range tags {
			tags[i] = strings.TrimSpace(tags[i])
		}
		return tags
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	return nil
}
