package scrape

import "strings"

// shopifySignatures are tokens injected by the platform into themes,
// analytics snippets and asset URLs. A single hit anywhere is sufficient;
// false negatives are expected and acceptable.
var shopifySignatures = []string{
	"Shopify.theme",
	"shopify.com",
	"shopify-analytics",
	"cdn.shopify.com",
	"myshopify.com",
	"Shopify.shop",
	"window.Shopify",
}

// IsShopify reports whether the fetched homepage looks like a Shopify
// storefront. Detection never errors; it degrades to false.
func IsShopify(html, url string) bool {
	if html == "" {
		return false
	}
	for _, sig := range shopifySignatures {
		if strings.Contains(html, sig) {
			return true
		}
	}
	return url != "" && strings.Contains(url, "myshopify.com")
}
