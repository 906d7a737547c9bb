package analysis

import (
	"strconv"
	"time"

	"github.com/storelens/storelens/internal/store"
	"github.com/storelens/storelens/pkg/scrape"
)

// applyResult overwrites a brand's fact columns from a completed scrape.
func applyResult(b *store.Brand, r *scrape.Result) {
	b.Name = r.Name
	b.WebsiteURL = r.WebsiteURL
	b.Domain = r.Domain
	b.BrandContext = r.Description
	b.ContactEmail = r.ContactEmail
	b.ContactPhone = r.ContactPhone
	b.SocialHandles = store.JSONMap(r.SocialHandles)
	b.ImportantLinks = store.JSONMap(r.ImportantLinks)
	b.PrivacyPolicyURL = r.Policies.Privacy.URL
	b.PrivacyPolicyText = r.Policies.Privacy.Text
	b.ReturnPolicyURL = r.Policies.Return.URL
	b.ReturnPolicyText = r.Policies.Return.Text
	b.RefundPolicyURL = r.Policies.Refund.URL
	b.RefundPolicyText = r.Policies.Refund.Text
	b.FAQs = store.FAQList(r.FAQs)
	b.HeroProducts = store.HeroProductList(r.HeroProducts)
	b.IsShopifyStore = r.IsShopify
}

// productsFromCatalog converts normalized catalog entries into
// persistent product rows.
func productsFromCatalog(catalog []scrape.CatalogProduct) []store.Product {
	products := make([]store.Product, 0, len(catalog))
	for _, entry := range catalog {
		products = append(products, store.Product{
			ShopifyID:      strconv.FormatInt(entry.ID, 10),
			Handle:         entry.Handle,
			Title:          entry.Title,
			Description:    entry.Description,
			Vendor:         entry.Vendor,
			ProductType:    entry.ProductType,
			Tags:           store.StringList(entry.Tags),
			Price:          entry.Price,
			CompareAtPrice: entry.CompareAtPrice,
			ProductURL:     entry.URL,
			ImageURLs:      store.StringList(entry.Images),
			FeaturedImage:  entry.FeaturedImage,
			Available:      entry.Available,
		})
	}
	return products
}

// competitorFromResult builds a competitor row from a scrape outcome,
// successful or not.
func competitorFromResult(brandID string, r *scrape.Result) store.Competitor {
	c := store.Competitor{
		BrandID:        brandID,
		Name:           r.Name,
		WebsiteURL:     r.WebsiteURL,
		Domain:         r.Domain,
		ScrapingStatus: string(r.Status),
		ScrapingErrors: r.Error,
	}

	if r.Status != scrape.StatusCompleted {
		if c.Name == "" {
			c.Name = r.Domain
		}
		return c
	}

	c.BrandContext = r.Description
	c.ContactEmail = r.ContactEmail
	c.SocialHandles = store.JSONMap(r.SocialHandles)
	c.FAQs = store.FAQList(r.FAQs)
	c.HeroProducts = store.HeroProductList(r.HeroProducts)
	c.ProductCount = len(r.Catalog)
	c.IsShopifyStore = r.IsShopify
	now := time.Now().UTC()
	c.LastScraped = &now
	return c
}
