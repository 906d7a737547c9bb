package scrape

// Status reports the outcome of a site scrape.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Result holds everything extracted from one site scrape. It is owned by
// the pipeline run that produced it and is folded into persistent records
// by the caller.
type Result struct {
	WebsiteURL string `json:"website_url"`
	Domain     string `json:"domain"`
	IsShopify  bool   `json:"is_shopify_store"`
	Status     Status `json:"scraping_status"`
	Error      string `json:"scraping_errors,omitempty"`

	Name        string `json:"name,omitempty"`
	Description string `json:"brand_context,omitempty"`

	ContactEmail string `json:"contact_email,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`

	SocialHandles  map[string]string `json:"social_handles,omitempty"`
	ImportantLinks map[string]string `json:"important_links,omitempty"`

	Policies Policies `json:"policies"`

	FAQs         []FAQ            `json:"faqs,omitempty"`
	HeroProducts []HeroProduct    `json:"hero_products,omitempty"`
	Catalog      []CatalogProduct `json:"product_catalog,omitempty"`
}

// Policy is a policy page reference with its (truncated) body text.
type Policy struct {
	URL  string `json:"url,omitempty"`
	Text string `json:"text,omitempty"`
}

// Policies groups the fixed set of policy types looked for on a store.
type Policies struct {
	Privacy Policy `json:"privacy"`
	Return  Policy `json:"return"`
	Refund  Policy `json:"refund"`
}

// FAQ is one question/answer pair found on the site.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// HeroProduct is a product featured on the homepage, as opposed to the
// full catalog.
type HeroProduct struct {
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
	Image string `json:"image,omitempty"`
	Price string `json:"price,omitempty"`
}

// CatalogProduct is one normalized entry from the platform's JSON catalog
// endpoint.
type CatalogProduct struct {
	ID             int64    `json:"shopify_id"`
	Title          string   `json:"title"`
	Handle         string   `json:"handle"`
	Description    string   `json:"description,omitempty"`
	Vendor         string   `json:"vendor,omitempty"`
	ProductType    string   `json:"product_type,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	Price          string   `json:"price,omitempty"`
	CompareAtPrice string   `json:"compare_at_price,omitempty"`
	URL            string   `json:"product_url"`
	Images         []string `json:"image_urls,omitempty"`
	FeaturedImage  string   `json:"featured_image,omitempty"`
	Available      bool     `json:"available"`
	CreatedAt      string   `json:"created_at,omitempty"`
	UpdatedAt      string   `json:"updated_at,omitempty"`
}
