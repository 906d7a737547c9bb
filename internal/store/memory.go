package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-memory Store used by one-shot CLI runs and tests.
type Memory struct {
	mu          sync.RWMutex
	brands      map[string]Brand
	byDomain    map[string]string
	products    map[string][]Product
	competitors map[string][]Competitor
	analyses    map[string][]Analysis
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		brands:      make(map[string]Brand),
		byDomain:    make(map[string]string),
		products:    make(map[string][]Product),
		competitors: make(map[string][]Competitor),
		analyses:    make(map[string][]Analysis),
	}
}

// UpsertBrand inserts or updates a brand keyed by domain.
func (m *Memory) UpsertBrand(ctx context.Context, b *Brand) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	if id, ok := m.byDomain[b.Domain]; ok {
		existing := m.brands[id]
		b.ID = existing.ID
		b.CreatedAt = existing.CreatedAt
	} else {
		b.ID = uuid.New().String()
		b.CreatedAt = now
	}
	b.UpdatedAt = now

	m.brands[b.ID] = *b
	m.byDomain[b.Domain] = b.ID
	return nil
}

// UpdateBrandStatus transitions a brand's scraping status.
func (m *Memory) UpdateBrandStatus(ctx context.Context, id, status, scrapeErr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.brands[id]
	if !ok {
		return ErrNotFound
	}

	b.ScrapingStatus = status
	b.ScrapingErrors = scrapeErr
	b.UpdatedAt = time.Now().UTC()
	m.brands[id] = b
	return nil
}

func (m *Memory) GetBrand(ctx context.Context, id string) (*Brand, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.brands[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (m *Memory) GetBrandByDomain(ctx context.Context, domain string) (*Brand, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byDomain[domain]
	if !ok {
		return nil, ErrNotFound
	}
	b := m.brands[id]
	return &b, nil
}

func (m *Memory) ListBrands(ctx context.Context) ([]Brand, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	brands := make([]Brand, 0, len(m.brands))
	for _, b := range m.brands {
		brands = append(brands, b)
	}
	sort.Slice(brands, func(i, j int) bool {
		return brands[i].CreatedAt.Before(brands[j].CreatedAt)
	})
	return brands, nil
}

// DeleteBrand removes a brand and all owned records.
func (m *Memory) DeleteBrand(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.brands[id]
	if !ok {
		return ErrNotFound
	}

	delete(m.brands, id)
	delete(m.byDomain, b.Domain)
	delete(m.products, id)
	delete(m.competitors, id)
	delete(m.analyses, id)
	return nil
}

// ReplaceProducts swaps a brand's product set.
func (m *Memory) ReplaceProducts(ctx context.Context, brandID string, products []Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.brands[brandID]; !ok {
		return ErrNotFound
	}

	now := time.Now().UTC()
	stored := make([]Product, len(products))
	for i, p := range products {
		p.ID = uuid.New().String()
		p.BrandID = brandID
		p.CreatedAt = now
		stored[i] = p
	}
	m.products[brandID] = stored
	return nil
}

func (m *Memory) ListProducts(ctx context.Context, brandID string) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	products := make([]Product, len(m.products[brandID]))
	copy(products, m.products[brandID])
	return products, nil
}

func (m *Memory) InsertCompetitor(ctx context.Context, c *Competitor) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.brands[c.BrandID]; !ok {
		return ErrNotFound
	}

	c.ID = uuid.New().String()
	c.CreatedAt = time.Now().UTC()
	m.competitors[c.BrandID] = append(m.competitors[c.BrandID], *c)
	return nil
}

func (m *Memory) ListCompetitors(ctx context.Context, brandID string) ([]Competitor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	competitors := make([]Competitor, len(m.competitors[brandID]))
	copy(competitors, m.competitors[brandID])
	return competitors, nil
}

func (m *Memory) AppendAnalysis(ctx context.Context, a *Analysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.brands[a.BrandID]; !ok {
		return ErrNotFound
	}

	a.ID = uuid.New().String()
	a.CreatedAt = time.Now().UTC()
	m.analyses[a.BrandID] = append(m.analyses[a.BrandID], *a)
	return nil
}

func (m *Memory) ListAnalyses(ctx context.Context, brandID string) ([]Analysis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	analyses := make([]Analysis, len(m.analyses[brandID]))
	copy(analyses, m.analyses[brandID])
	return analyses, nil
}

var _ Store = (*Memory)(nil)
