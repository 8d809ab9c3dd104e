package opentdb

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"trivia-quiz-service/internal/domain"
)

const defaultCategoryURL = "https://opentdb.com/api_category.php"

type categoryResponse struct {
	TriviaCategories []domain.Category `json:"trivia_categories"`
}

// Catalog serves the provider's category list for the setup screen, cached
// with a TTL so repeated setups don't hammer the provider. Concurrent cache
// misses collapse into a single upstream call.
type Catalog struct {
	httpClient *http.Client
	url        string
	ttl        time.Duration
	clock      func() time.Time
	sf         singleflight.Group
	rnd        *rand.Rand

	mu        sync.RWMutex
	cached    []domain.Category
	expiresAt time.Time
}

// CatalogOption customizes a Catalog.
type CatalogOption func(*Catalog)

// WithCatalogURL overrides the category endpoint.
func WithCatalogURL(u string) CatalogOption {
	return func(c *Catalog) {
		if u != "" {
			c.url = u
		}
	}
}

// WithCatalogHTTPClient swaps the underlying HTTP client (test seam).
func WithCatalogHTTPClient(hc *http.Client) CatalogOption {
	return func(c *Catalog) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func NewCatalog(ttl time.Duration, opts ...CatalogOption) *Catalog {
	c := &Catalog{
		httpClient: &http.Client{Timeout: defaultTimeout},
		url:        defaultCategoryURL,
		ttl:        ttl,
		clock:      time.Now,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListCategories returns the cached category list, refreshing it when the
// TTL has lapsed.
func (c *Catalog) ListCategories(ctx context.Context) ([]domain.Category, error) {
	now := c.clock()

	c.mu.RLock()
	if c.cached != nil && c.expiresAt.After(now) {
		cached := c.cached
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("categories", func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if c.cached != nil && c.expiresAt.After(now) {
			cached := c.cached
			c.mu.RUnlock()
			return cached, nil
		}
		c.mu.RUnlock()

		categories, err := c.fetch(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cached = categories
		c.expiresAt = now.Add(c.ttlWithJitter())
		c.mu.Unlock()
		return categories, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Category), nil
}

func (c *Catalog) fetch(ctx context.Context) ([]domain.Category, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch categories: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch categories: provider returned status %d", resp.StatusCode)
	}

	var payload categoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("fetch categories: %w", err)
	}
	return payload.TriviaCategories, nil
}

func (c *Catalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread refreshes
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
