// Package scrape implements the acquisition and extraction pipeline for
// storefront sites: URL normalization, resilient fetching, platform
// detection, heuristic fact extraction and catalog pagination.
package scrape

import (
	"html"
	"net/url"
	"strings"
	"unicode"
)

// Normalize canonicalizes a user-supplied string into a scheme-qualified
// URL and extracts its lower-cased host as the domain. Inputs without a
// scheme default to https. Returns ErrInvalidURL when no host can be
// parsed. No network access.
func Normalize(raw string) (string, string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", ErrInvalidURL
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", "", ErrInvalidURL
	}
	u.Host = strings.ToLower(u.Host)

	return u.String(), u.Hostname(), nil
}

// resolveURL resolves href against base and trims a trailing slash,
// mirroring how extracted links are stored.
func resolveURL(href, base string) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if !ref.IsAbs() {
		b, err := url.Parse(base)
		if err != nil {
			return ""
		}
		ref = b.ResolveReference(ref)
	}
	return strings.TrimRight(ref.String(), "/")
}

// cleanText unescapes HTML entities and collapses runs of whitespace.
func cleanText(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}

// truncate shortens text to at most max characters, cutting at the last
// space when one falls within the final 20% of the limit, and appends an
// ellipsis marker. Limits count runes, not bytes, so multibyte text is
// never split mid-rune.
func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	cut := runes[:max]
	if i := lastRuneIndex(cut, ' '); i > int(float64(max)*0.8) {
		cut = cut[:i]
	}
	return string(cut) + "..."
}

func lastRuneIndex(runes []rune, r rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}

// titleCaseLabel title-cases a domain's first label, used as the
// last-resort brand name ("my-store.example.com" -> "My-Store"). Each
// letter run starts upper-cased with the rest lowered, so hyphenated
// labels read as separate words.
func titleCaseLabel(domain string) string {
	label, _, _ := strings.Cut(domain, ".")
	r := []rune(label)
	prevLetter := false
	for i, c := range r {
		if unicode.IsLetter(c) {
			if prevLetter {
				r[i] = unicode.ToLower(c)
			} else {
				r[i] = unicode.ToUpper(c)
			}
			prevLetter = true
		} else {
			prevLetter = false
		}
	}
	return string(r)
}
