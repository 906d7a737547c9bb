package scrape

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/storelens/storelens/internal/logger"
)

const (
	descriptionLimit = 1000
	policyTextLimit  = 2000
	faqAnswerLimit   = 500
	maxFAQs          = 10
	maxHeroProducts  = 5
)

var (
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phoneRe = regexp.MustCompile(`(\+?1?[-.\s]?)?\(?([0-9]{3})\)?[-.\s]?([0-9]{3})[-.\s]?([0-9]{4})`)
	priceRe = regexp.MustCompile(`([0-9][0-9,]*\.?[0-9]*)`)

	nonPhoneRe = regexp.MustCompile(`[^\d+]`)
)

// skipEmailTokens marks transactional or placeholder addresses that are
// never a usable contact.
var skipEmailTokens = []string{"no-reply", "noreply", "donotreply", "example.com"}

// SocialPlatforms lists the recognized social platforms in a stable
// rendering order.
var SocialPlatforms = []string{"instagram", "facebook", "twitter", "tiktok", "youtube", "linkedin"}

// socialPatterns is the ordered fallback chain per platform. The first
// capture group of the first matching pattern wins; platforms are
// independent of each other.
var socialPatterns = []struct {
	platform string
	patterns []*regexp.Regexp
}{
	{"instagram", compileAll(`instagram\.com/([a-zA-Z0-9_.]+)`)},
	{"facebook", compileAll(`facebook\.com/([a-zA-Z0-9_.]+)`, `fb\.com/([a-zA-Z0-9_.]+)`)},
	{"twitter", compileAll(`twitter\.com/([a-zA-Z0-9_.]+)`, `x\.com/([a-zA-Z0-9_.]+)`)},
	{"tiktok", compileAll(`tiktok\.com/@([a-zA-Z0-9_.]+)`, `tiktok\.com/([a-zA-Z0-9_.]+)`)},
	{"youtube", compileAll(`youtube\.com/channel/([a-zA-Z0-9_.]+)`, `youtube\.com/user/([a-zA-Z0-9_.]+)`, `youtube\.com/@([a-zA-Z0-9_.]+)`)},
	{"linkedin", compileAll(`linkedin\.com/company/([a-zA-Z0-9_.]+)`, `linkedin\.com/in/([a-zA-Z0-9_.]+)`)},
}

// linkPatterns is the ordered keyword chain per link category. The first
// matching href wins per category.
var linkPatterns = []struct {
	category string
	patterns []*regexp.Regexp
}{
	{"contact_us", compileHrefAll("contact", "about")},
	{"order_tracking", compileHrefAll("track", "order")},
	{"shipping", compileHrefAll("shipping", "delivery")},
	{"returns", compileHrefAll("return", "refund")},
	{"faq", compileHrefAll("faq", "help")},
	{"blog", compileHrefAll("blog", "news")},
}

// policyKeywords is the ordered href keyword chain per policy type.
var policyKeywords = struct {
	privacy []string
	ret     []string
	refund  []string
}{
	privacy: []string{"privacy", "privacy-policy"},
	ret:     []string{"return", "returns", "return-policy"},
	refund:  []string{"refund", "refunds", "refund-policy"},
}

func compileAll(patterns ...string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		res = append(res, regexp.MustCompile(`(?i)`+p))
	}
	return res
}

func compileHrefAll(keywords ...string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(keywords))
	for _, k := range keywords {
		res = append(res, regexp.MustCompile(`(?i)href="([^"]*`+k+`[^"]*)"`))
	}
	return res
}

// Extractor runs the independent heuristic passes over a parsed homepage.
// Each pass has an explicit fallback order; the first match wins, and one
// pass never blocks another. The client is only used to fetch policy
// pages, and those fetches degrade to empty text on failure.
type Extractor struct {
	client *Client
}

// NewExtractor creates an extractor that fetches policy pages with client.
func NewExtractor(client *Client) *Extractor {
	return &Extractor{client: client}
}

// nameStrategy is one step in the brand-name fallback chain.
type nameStrategy func(doc *goquery.Document) (string, bool)

var nameStrategies = []nameStrategy{
	nameFromTitle,
	nameFromSiteMeta,
	nameFromHeaderLogo,
}

// Name extracts the brand name, falling back to the domain's first label.
func (e *Extractor) Name(doc *goquery.Document, domain string) string {
	for _, strategy := range nameStrategies {
		if name, ok := strategy(doc); ok {
			return name
		}
	}
	return titleCaseLabel(domain)
}

func nameFromTitle(doc *goquery.Document) (string, bool) {
	name := cleanText(doc.Find("title").First().Text())
	return name, name != ""
}

func nameFromSiteMeta(doc *goquery.Document) (string, bool) {
	var name string
	doc.Find(`meta[property="og:site_name"], meta[property="twitter:site"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if content := cleanText(s.AttrOr("content", "")); content != "" {
			name = content
			return false
		}
		return true
	})
	return name, name != ""
}

func nameFromHeaderLogo(doc *goquery.Document) (string, bool) {
	var name string
	doc.Find("header").First().Find("img, h1, h2").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		candidate := cleanText(s.AttrOr("alt", ""))
		if candidate == "" {
			candidate = cleanText(s.AttrOr("title", ""))
		}
		if candidate == "" {
			candidate = cleanText(s.Text())
		}
		if candidate != "" {
			name = candidate
			return false
		}
		return true
	})
	return name, name != ""
}

// Description extracts the brand description: meta description, replaced
// by an "about"-classed section's text when that text is longer.
func (e *Extractor) Description(doc *goquery.Document) string {
	desc := cleanText(doc.Find(`meta[name="description"]`).First().AttrOr("content", ""))

	if about := findByClassToken(doc, "about").First(); about.Length() > 0 {
		if text := cleanText(about.Text()); len(text) > len(desc) {
			desc = text
		}
	}

	return truncate(desc, descriptionLimit)
}

// Email scans raw HTML for addresses, filters transactional ones, and
// returns the first remaining (else the first overall).
func (e *Extractor) Email(html string) string {
	matches := emailRe.FindAllString(html, -1)
	if len(matches) == 0 {
		return ""
	}
	for _, email := range matches {
		lower := strings.ToLower(email)
		skip := false
		for _, token := range skipEmailTokens {
			if strings.Contains(lower, token) {
				skip = true
				break
			}
		}
		if !skip {
			return email
		}
	}
	return matches[0]
}

// Phone returns the first phone-like match with at least 10 digits,
// normalized to digits plus an optional leading +.
func (e *Extractor) Phone(html string) string {
	for _, m := range phoneRe.FindAllStringSubmatch(html, -1) {
		phone := nonPhoneRe.ReplaceAllString(strings.Join(m[1:], ""), "")
		if countDigits(phone) >= 10 {
			return phone
		}
	}
	return ""
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// Socials extracts one handle per platform from the combined text and
// HTML. Platforms are independent: a miss on one never blocks the others.
func (e *Extractor) Socials(html string) map[string]string {
	handles := make(map[string]string)
	for _, entry := range socialPatterns {
		for _, re := range entry.patterns {
			if m := re.FindStringSubmatch(html); m != nil {
				handles[entry.platform] = m[1]
				break
			}
		}
	}
	return handles
}

// Links extracts the first matching href per fixed link category,
// resolved against base.
func (e *Extractor) Links(html, base string) map[string]string {
	links := make(map[string]string)
	for _, entry := range linkPatterns {
		for _, re := range entry.patterns {
			if m := re.FindStringSubmatch(html); m != nil {
				if resolved := resolveURL(m[1], base); resolved != "" {
					links[entry.category] = resolved
				}
				break
			}
		}
	}
	return links
}

// Policies locates privacy/return/refund policy links and fetches their
// text. A policy page that cannot be fetched degrades to an empty text,
// never a pipeline failure.
func (e *Extractor) Policies(ctx context.Context, doc *goquery.Document, base string) Policies {
	return Policies{
		Privacy: e.policy(ctx, doc, base, policyKeywords.privacy),
		Return:  e.policy(ctx, doc, base, policyKeywords.ret),
		Refund:  e.policy(ctx, doc, base, policyKeywords.refund),
	}
}

func (e *Extractor) policy(ctx context.Context, doc *goquery.Document, base string, keywords []string) Policy {
	for _, keyword := range keywords {
		href, found := "", false
		doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			h := s.AttrOr("href", "")
			if strings.Contains(strings.ToLower(h), keyword) {
				href, found = h, true
				return false
			}
			return true
		})
		if !found {
			continue
		}

		p := Policy{URL: resolveURL(href, base)}
		body, err := e.client.Fetch(ctx, p.URL)
		if err != nil {
			logger.Warn("policy fetch failed", "url", p.URL, "error", err)
			return p
		}

		pageDoc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
		if err != nil {
			return p
		}
		pageDoc.Find("nav, header, footer").Remove()
		p.Text = truncate(cleanText(pageDoc.Text()), policyTextLimit)
		return p
	}
	return Policy{}
}

// FAQs extracts question/answer pairs from faq-like sections: question
// elements paired with their next sibling's text. Pairs with an empty
// question or answer are dropped; at most maxFAQs are returned in
// document order.
func (e *Extractor) FAQs(doc *goquery.Document) []FAQ {
	var faqs []FAQ

	findByClassToken(doc, "faq", "question", "help").Each(func(_ int, section *goquery.Selection) {
		section.Find(`h3, h4, dt, [class]`).FilterFunction(isQuestionElement).Each(func(_ int, q *goquery.Selection) {
			question := cleanText(q.Text())
			if question == "" {
				return
			}
			answer := cleanText(q.Next().Text())
			if answer == "" {
				return
			}
			faqs = append(faqs, FAQ{
				Question: question,
				Answer:   truncate(answer, faqAnswerLimit),
			})
		})
	})

	if len(faqs) > maxFAQs {
		faqs = faqs[:maxFAQs]
	}
	return faqs
}

// isQuestionElement matches FAQ question nodes: heading/term tags, or any
// element whose class mentions "question". Class matching is
// case-insensitive, same as the section scan.
func isQuestionElement(_ int, s *goquery.Selection) bool {
	switch goquery.NodeName(s) {
	case "h3", "h4", "dt":
		return true
	}
	return strings.Contains(strings.ToLower(s.AttrOr("class", "")), "question")
}

// HeroProducts extracts products featured on the homepage. Only entries
// with a non-empty title are kept; at most maxHeroProducts are returned
// in document order.
func (e *Extractor) HeroProducts(doc *goquery.Document, base string) []HeroProduct {
	var products []HeroProduct

	findByClassToken(doc, "product", "featured", "hero").Each(func(_ int, section *goquery.Selection) {
		section.Find(`div[class*="product"], article[class*="product"]`).Each(func(_ int, item *goquery.Selection) {
			p := HeroProduct{
				Title: cleanText(item.Find("h1, h2, h3, h4").First().Text()),
			}
			if p.Title == "" {
				return
			}
			if href, ok := item.Find("a").First().Attr("href"); ok {
				p.URL = resolveURL(href, base)
			}
			if src, ok := item.Find("img").First().Attr("src"); ok {
				p.Image = resolveURL(src, base)
			}
			priceText := cleanText(findByClassTokenIn(item, "price").First().Text())
			if m := priceRe.FindStringSubmatch(priceText); m != nil {
				p.Price = strings.ReplaceAll(m[1], ",", "")
			}
			products = append(products, p)
		})
	})

	if len(products) > maxHeroProducts {
		products = products[:maxHeroProducts]
	}
	return products
}

// findByClassToken selects section/div elements whose class attribute
// contains any of the given tokens, case-insensitively.
func findByClassToken(doc *goquery.Document, tokens ...string) *goquery.Selection {
	return doc.Find("section, div").FilterFunction(classContains(tokens))
}

// findByClassTokenIn is findByClassToken scoped to span/div descendants
// of a selection.
func findByClassTokenIn(s *goquery.Selection, tokens ...string) *goquery.Selection {
	return s.Find("span, div").FilterFunction(classContains(tokens))
}

func classContains(tokens []string) func(int, *goquery.Selection) bool {
	return func(_ int, s *goquery.Selection) bool {
		class, ok := s.Attr("class")
		if !ok {
			return false
		}
		class = strings.ToLower(class)
		for _, token := range tokens {
			if strings.Contains(class, token) {
				return true
			}
		}
		return false
	}
}
