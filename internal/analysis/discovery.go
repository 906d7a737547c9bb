package analysis

import "context"

// Discovery finds candidate competitor storefronts for a brand.
type Discovery interface {
	Discover(ctx context.Context, brandName string) []string
}

// wellKnownStores is a fixed list of prominent storefronts used as
// discovery candidates until a real discovery backend exists.
var wellKnownStores = []string{
	"gymshark.com",
	"allbirds.com",
	"colourpop.com",
	"bombas.com",
	"casper.com",
	"warbyparker.com",
	"glossier.com",
	"away.com",
	"outdoor-voices.com",
	"everlane.com",
}

// StaticDiscovery returns a fixed shortlist of well-known storefronts
// regardless of the brand. It stands in for a search-backed discovery
// service.
type StaticDiscovery struct {
	// Limit bounds the number of candidates returned. Defaults to 3.
	Limit int
}

func (d StaticDiscovery) Discover(ctx context.Context, brandName string) []string {
	limit := d.Limit
	if limit <= 0 || limit > len(wellKnownStores) {
		limit = 3
	}
	return wellKnownStores[:limit]
}
