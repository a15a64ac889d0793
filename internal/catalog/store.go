// Package catalog owns the product list, the current-product detail
// slot, and the derived filter views. Nothing here is persisted; the
// catalog is always re-fetched from the backend.
package catalog

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/shopfront/shopfront/internal/api"
	"github.com/shopfront/shopfront/internal/metrics"
)

// CategoryAll is the sentinel category meaning no category filter.
const CategoryAll = "all"

// DefaultPageSize is used when a fetch doesn't specify a limit.
const DefaultPageSize = 12

// Backend is the slice of the API client the catalog store uses.
type Backend interface {
	Products(ctx context.Context, q api.ProductQuery) (*api.ProductPage, error)
	Product(ctx context.Context, id int64) (*api.Product, error)
	SearchProducts(ctx context.Context, q string) ([]api.Product, error)
	CreateProduct(ctx context.Context, input api.ProductInput) (*api.Product, error)
	UpdateProduct(ctx context.Context, id int64, input api.ProductInput) (*api.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// Store holds the catalog state. Thread-safe.
//
// List-replacing fetches carry a generation number: a response is applied
// only when no newer fetch has started since, so a slow page cannot
// overwrite the result of a later request.
type Store struct {
	backend Backend
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu               sync.RWMutex
	products         []api.Product
	current          *api.Product
	categories       []string
	loading          bool
	lastErr          string
	searchQuery      string
	selectedCategory string
	currentPage      int
	totalPages       int
	itemsPerPage     int
	fetchGen         uint64
}

// NewStore creates a catalog store.
func NewStore(backend Backend, logger *slog.Logger, m *metrics.Metrics) *Store {
	return &Store{
		backend:          backend,
		logger:           logger,
		metrics:          m,
		selectedCategory: CategoryAll,
		currentPage:      1,
		totalPages:       1,
		itemsPerPage:     DefaultPageSize,
	}
}

// FetchProducts loads one catalog page. Page one replaces the product
// list; later pages append (infinite-scroll semantics). Page position
// is taken from the response envelope, and the category list is
// recomputed from the products held in memory.
func (s *Store) FetchProducts(ctx context.Context, page, limit int, search, category string) error {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = s.ItemsPerPage()
	}

	gen := s.beginFetch()
	defer s.end()

	result, err := s.backend.Products(ctx, api.ProductQuery{
		Page:     page,
		Limit:    limit,
		Search:   search,
		Category: category,
	})
	if err != nil {
		s.fail("fetch_products", api.ErrorMessage(err, "Failed to fetch products"))
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.fetchGen {
		s.logger.Debug("dropping stale product fetch", "page", page)
		return nil
	}

	if page == 1 {
		s.products = result.Products
	} else {
		s.products = append(s.products, result.Products...)
	}
	s.currentPage = result.CurrentPage
	s.totalPages = result.TotalPages
	s.categories = distinctCategories(s.products)

	s.record("fetch_products", "ok")
	return nil
}

// FetchProduct loads a single product into the current-product slot.
func (s *Store) FetchProduct(ctx context.Context, id int64) error {
	s.begin()
	defer s.end()

	p, err := s.backend.Product(ctx, id)
	if err != nil {
		s.fail("fetch_product", api.ErrorMessage(err, "Failed to fetch product"))
		return err
	}

	s.mu.Lock()
	s.current = p
	s.mu.Unlock()

	s.record("fetch_product", "ok")
	return nil
}

// SearchProducts replaces the product list with search results. There is
// no pagination merge for searches.
func (s *Store) SearchProducts(ctx context.Context, query string) error {
	gen := s.beginFetch()
	defer s.end()

	products, err := s.backend.SearchProducts(ctx, query)
	if err != nil {
		s.fail("search_products", api.ErrorMessage(err, "Search failed"))
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.fetchGen {
		s.logger.Debug("dropping stale search", "query", query)
		return nil
	}

	s.products = products
	s.categories = distinctCategories(s.products)

	s.record("search_products", "ok")
	return nil
}

// CreateProduct creates a product and prepends it to the in-memory list,
// avoiding a full re-fetch.
func (s *Store) CreateProduct(ctx context.Context, input api.ProductInput) (*api.Product, error) {
	s.begin()
	defer s.end()

	p, err := s.backend.CreateProduct(ctx, input)
	if err != nil {
		s.fail("create_product", api.ErrorMessage(err, "Failed to create product"))
		return nil, err
	}

	s.mu.Lock()
	s.products = append([]api.Product{*p}, s.products...)
	s.categories = distinctCategories(s.products)
	s.mu.Unlock()

	s.record("create_product", "ok")
	return p, nil
}

// UpdateProduct updates a product and reconciles the in-memory list by id.
func (s *Store) UpdateProduct(ctx context.Context, id int64, input api.ProductInput) (*api.Product, error) {
	s.begin()
	defer s.end()

	p, err := s.backend.UpdateProduct(ctx, id, input)
	if err != nil {
		s.fail("update_product", api.ErrorMessage(err, "Failed to update product"))
		return nil, err
	}

	s.mu.Lock()
	for i := range s.products {
		if s.products[i].ID == id {
			s.products[i] = *p
			break
		}
	}
	s.categories = distinctCategories(s.products)
	s.mu.Unlock()

	s.record("update_product", "ok")
	return p, nil
}

// DeleteProduct deletes a product and filters it out of the in-memory list.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	s.begin()
	defer s.end()

	if err := s.backend.DeleteProduct(ctx, id); err != nil {
		s.fail("delete_product", api.ErrorMessage(err, "Failed to delete product"))
		return err
	}

	s.mu.Lock()
	kept := s.products[:0]
	for _, p := range s.products {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.products = kept
	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
	s.categories = distinctCategories(s.products)
	s.mu.Unlock()

	s.record("delete_product", "ok")
	return nil
}

// SetSearchQuery sets the in-memory filter query for FilteredProducts.
func (s *Store) SetSearchQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchQuery = query
}

// SetSelectedCategory sets the category filter. CategoryAll disables it.
func (s *Store) SetSelectedCategory(category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedCategory = category
}

// ClearCurrent empties the current-product slot.
func (s *Store) ClearCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

// FilteredProducts returns the products matching the current search
// query (case-insensitive substring over name and description) and the
// selected category. It is a pure, order-preserving view over the
// in-memory list.
func (s *Store) FilteredProducts() []api.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := strings.ToLower(s.searchQuery)
	filtered := make([]api.Product, 0, len(s.products))
	for _, p := range s.products {
		if query != "" &&
			!strings.Contains(strings.ToLower(p.Name), query) &&
			!strings.Contains(strings.ToLower(p.Description), query) {
			continue
		}
		if s.selectedCategory != CategoryAll && p.Category != s.selectedCategory {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered
}

// AvailableProducts returns the products with stock remaining.
func (s *Store) AvailableProducts() []api.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	available := make([]api.Product, 0, len(s.products))
	for _, p := range s.products {
		if p.StockQuantity > 0 {
			available = append(available, p)
		}
	}
	return available
}

// Categories returns the distinct non-empty categories of the in-memory
// products, in order of first appearance. This is recomputed from the
// loaded pages, not from the server's full catalog.
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	categories := make([]string, len(s.categories))
	copy(categories, s.categories)
	return categories
}

// Products returns a copy of the in-memory product list.
func (s *Store) Products() []api.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	products := make([]api.Product, len(s.products))
	copy(products, s.products)
	return products
}

// Current returns a copy of the current product, or nil.
func (s *Store) Current() *api.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	p := *s.current
	return &p
}

// CurrentPage returns the last-fetched page number.
func (s *Store) CurrentPage() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentPage
}

// TotalPages returns the page count reported by the backend.
func (s *Store) TotalPages() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalPages
}

// ItemsPerPage returns the configured page size.
func (s *Store) ItemsPerPage() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.itemsPerPage
}

// SetItemsPerPage overrides the default page size.
func (s *Store) SetItemsPerPage(n int) {
	if n < 1 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.itemsPerPage = n
}

// SearchQuery returns the in-memory filter query.
func (s *Store) SearchQuery() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.searchQuery
}

// SelectedCategory returns the category filter.
func (s *Store) SelectedCategory() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedCategory
}

// IsLoading reports whether a catalog action is in flight.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// LastError returns the user-facing message of the last failed action.
func (s *Store) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// begin marks an action in flight and clears the previous error.
func (s *Store) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = true
	s.lastErr = ""
}

// beginFetch is begin plus a claim on a new fetch generation. The caller
// applies its response only while its generation is still current.
func (s *Store) beginFetch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = true
	s.lastErr = ""
	s.fetchGen++
	return s.fetchGen
}

// end clears the in-flight flag regardless of outcome.
func (s *Store) end() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}

// fail records a failed action and its user-facing message.
func (s *Store) fail(action, msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
	s.record(action, "error")
}

// record increments the store action counter when metrics are enabled.
func (s *Store) record(action, result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.StoreActions.WithLabelValues("catalog", action, result).Inc()
}

// distinctCategories returns the non-empty categories in order of first
// appearance.
func distinctCategories(products []api.Product) []string {
	seen := make(map[string]struct{}, len(products))
	var categories []string
	for _, p := range products {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		categories = append(categories, p.Category)
	}
	return categories
}
