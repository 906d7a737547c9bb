package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

// catalogServer serves products.json pages from a fixed page list,
// recording every request. Pages beyond the list are empty.
func catalogServer(t *testing.T, pages []string) (*httptest.Server, *[]string) {
	t.Helper()
	requested := &[]string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*requested = append(*requested, r.URL.RequestURI())
		if r.URL.Path != "/products.json" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 || page > len(pages) {
			fmt.Fprint(w, `{"products": []}`)
			return
		}
		fmt.Fprint(w, pages[page-1])
	}))
	t.Cleanup(srv.Close)
	return srv, requested
}

func newCatalogFetcher() *CatalogFetcher {
	c, _ := newTestClient(ClientConfig{MaxRetries: 1})
	return NewCatalogFetcher(c, time.Millisecond)
}

func TestCatalogFetchAll(t *testing.T) {
	page1 := `{"products": [
		{
			"id": 101,
			"title": "Wool Runner",
			"handle": "wool-runner",
			"body_html": "<p>Soft &amp; warm.</p>",
			"vendor": "Acme",
			"product_type": "Shoes",
			"tags": "wool, runner",
			"variants": [{"price": "98.00", "compare_at_price": "120.00"}],
			"images": [{"src": "https://cdn/img1.jpg"}, {"src": "https://cdn/img2.jpg"}]
		},
		{
			"id": 102,
			"title": "Tree Dasher",
			"handle": "tree-dasher",
			"tags": ["tree", "dasher"],
			"available": false,
			"variants": [{"price": "135.00", "compare_at_price": null}]
		}
	]}`

	srv, requested := catalogServer(t, []string{page1})
	f := newCatalogFetcher()

	products, err := f.FetchAll(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("len(products) = %d, want 2", len(products))
	}
	// One data page plus the terminating empty page.
	if len(*requested) != 2 {
		t.Errorf("requests = %v, want 2", *requested)
	}

	p := products[0]
	if p.ID != 101 || p.Title != "Wool Runner" || p.Handle != "wool-runner" {
		t.Errorf("product identity = %+v", p)
	}
	if p.Description != "Soft & warm." {
		t.Errorf("description = %q", p.Description)
	}
	if p.Price != "98.00" || p.CompareAtPrice != "120.00" {
		t.Errorf("prices = %q / %q", p.Price, p.CompareAtPrice)
	}
	if len(p.Tags) != 2 || p.Tags[0] != "wool" || p.Tags[1] != "runner" {
		t.Errorf("tags = %v", p.Tags)
	}
	if p.URL != srv.URL+"/products/wool-runner" {
		t.Errorf("url = %q", p.URL)
	}
	if p.FeaturedImage != "https://cdn/img1.jpg" || len(p.Images) != 2 {
		t.Errorf("images = %v featured = %q", p.Images, p.FeaturedImage)
	}
	if !p.Available {
		t.Error("available should default to true")
	}

	q := products[1]
	if q.Available {
		t.Error("explicit available=false lost")
	}
	if len(q.Tags) != 2 || q.Tags[0] != "tree" {
		t.Errorf("list tags = %v", q.Tags)
	}
	if q.CompareAtPrice != "" {
		t.Errorf("compare_at_price = %q, want empty for null", q.CompareAtPrice)
	}
}

func TestCatalogPagination(t *testing.T) {
	makePage := func(startID, n int) string {
		type entry struct {
			ID     int    `json:"id"`
			Title  string `json:"title"`
			Handle string `json:"handle"`
		}
		entries := make([]entry, n)
		for i := range entries {
			entries[i] = entry{ID: startID + i, Title: fmt.Sprintf("P%d", startID+i), Handle: fmt.Sprintf("p-%d", startID+i)}
		}
		b, _ := json.Marshal(map[string]any{"products": entries})
		return string(b)
	}

	srv, requested := catalogServer(t, []string{makePage(1, 250), makePage(251, 250), makePage(501, 3)})
	f := newCatalogFetcher()

	products, err := f.FetchAll(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(products) != 503 {
		t.Errorf("len(products) = %d, want 503", len(products))
	}
	if len(*requested) != 4 {
		t.Errorf("requests = %d, want 4 (3 pages + terminator)", len(*requested))
	}
	if (*requested)[0] != "/products.json?limit=250&page=1" {
		t.Errorf("first request = %q", (*requested)[0])
	}
	if products[502].ID != 503 {
		t.Errorf("last product id = %d, want 503", products[502].ID)
	}
}

func TestCatalogParseFailureKeepsPartial(t *testing.T) {
	page1 := `{"products": [{"id": 1, "title": "A", "handle": "a"}]}`

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			fmt.Fprint(w, page1)
			return
		}
		fmt.Fprint(w, `<html>maintenance</html>`)
	}))
	defer srv.Close()

	f := newCatalogFetcher()

	products, err := f.FetchAll(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("parse failure must not error, got %v", err)
	}
	if len(products) != 1 {
		t.Errorf("len(products) = %d, want 1", len(products))
	}
}

func TestCatalogFetchFailureReturnsPartial(t *testing.T) {
	page1 := `{"products": [{"id": 1, "title": "A", "handle": "a"}]}`

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			fmt.Fprint(w, page1)
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := newCatalogFetcher()

	products, err := f.FetchAll(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected error from aborted walk")
	}
	if len(products) != 1 {
		t.Errorf("len(products) = %d, want partial catalog of 1", len(products))
	}
}

func TestCatalogEmptyStore(t *testing.T) {
	srv, requested := catalogServer(t, nil)
	f := newCatalogFetcher()

	products, err := f.FetchAll(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(products) != 0 {
		t.Errorf("len(products) = %d, want 0", len(products))
	}
	if len(*requested) != 1 {
		t.Errorf("requests = %d, want 1", len(*requested))
	}
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "comma string", raw: `"wool, runner"`, want: []string{"wool", "runner"}},
		{name: "json list", raw: `["wool", "runner"]`, want: []string{"wool", "runner"}},
		{name: "empty string", raw: `""`, want: nil},
		{name: "absent", raw: ``, want: nil},
		{name: "unexpected shape", raw: `42`, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTags(json.RawMessage(tt.raw))
			if len(got) != len(tt.want) {
				t.Fatalf("parseTags(%s) = %v, want %v", tt.raw, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("tags[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
