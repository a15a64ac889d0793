// Package cart owns the shopping cart: an ordered list of line items
// mirrored to durable local storage on every mutation, plus the
// drawer-visibility flag the UI binds to.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopfront/shopfront/internal/api"
	"github.com/shopfront/shopfront/internal/localstore"
	"github.com/shopfront/shopfront/internal/metrics"
)

// cartKey is the durable storage key the item list is mirrored to.
const cartKey = "cart"

// ErrOutOfStock is returned when adding a product whose stock snapshot
// is zero. Zero-quantity items never enter the cart.
var ErrOutOfStock = errors.New("product is out of stock")

// Item is one cart line: a product reference plus a price and stock
// snapshot taken at add time. JSON tags match the persisted layout.
type Item struct {
	ProductID     int64   `json:"id"`
	Name          string  `json:"name"`
	UnitPrice     float64 `json:"price"`
	ImageURL      string  `json:"image_url,omitempty"`
	StockQuantity int     `json:"stock_quantity"`
	Quantity      int     `json:"quantity"`
}

// ProductFetcher is the slice of the API client Validate uses to refresh
// stock snapshots against the backend.
type ProductFetcher interface {
	Product(ctx context.Context, id int64) (*api.Product, error)
}

// Store holds the cart state. Thread-safe. Every item mutation persists
// the full list before returning.
type Store struct {
	products ProductFetcher
	local    *localstore.Store
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu         sync.RWMutex
	items      []Item
	drawerOpen bool
}

// NewStore creates a cart store, restoring any persisted item list.
func NewStore(products ProductFetcher, local *localstore.Store, logger *slog.Logger, m *metrics.Metrics) (*Store, error) {
	s := &Store{
		products: products,
		local:    local,
		logger:   logger,
		metrics:  m,
	}

	var items []Item
	if _, err := local.Get(cartKey, &items); err != nil {
		return nil, fmt.Errorf("restore cart: %w", err)
	}
	s.items = items
	s.updateGauge()

	return s, nil
}

// Add inserts a product snapshot, or increments the existing line's
// quantity. Quantities are clamped to the stock snapshot at increment
// time, so a retained line never exceeds its last-known stock.
func (s *Store) Add(p api.Product, quantity int) error {
	if p.StockQuantity <= 0 {
		return ErrOutOfStock
	}
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.find(p.ID); item != nil {
		item.Quantity = clamp(item.Quantity+quantity, item.StockQuantity)
	} else {
		s.items = append(s.items, Item{
			ProductID:     p.ID,
			Name:          p.Name,
			UnitPrice:     p.Price,
			ImageURL:      p.ImageURL,
			StockQuantity: p.StockQuantity,
			Quantity:      clamp(quantity, p.StockQuantity),
		})
	}

	return s.persist("add")
}

// Remove deletes the matching line, if present.
func (s *Store) Remove(productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.remove(productID)
	return s.persist("remove")
}

// SetQuantity sets a line's quantity. A quantity of zero or less removes
// the line; anything above the stock snapshot is clamped down to it.
func (s *Store) SetQuantity(productID int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.find(productID)
	if item == nil {
		return nil
	}

	if quantity <= 0 {
		s.remove(productID)
	} else {
		item.Quantity = clamp(quantity, item.StockQuantity)
	}
	return s.persist("set_quantity")
}

// Increase increments a line's quantity by one, refusing to pass the
// stock snapshot.
func (s *Store) Increase(productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.find(productID)
	if item == nil || item.Quantity >= item.StockQuantity {
		return nil
	}
	item.Quantity++
	return s.persist("increase")
}

// Decrease decrements a line's quantity by one. Dropping below one
// removes the line.
func (s *Store) Decrease(productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.find(productID)
	if item == nil {
		return nil
	}
	if item.Quantity > 1 {
		item.Quantity--
	} else {
		s.remove(productID)
	}
	return s.persist("decrease")
}

// Clear empties the cart.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	return s.persist("clear")
}

// Validate reconciles the cart against the backend: each line's stock
// snapshot is refreshed, lines whose product is gone or out of stock are
// removed, and remaining quantities are clamped. Lines whose refresh
// fails for transport reasons keep their snapshot (best effort).
func (s *Store) Validate(ctx context.Context) error {
	// Fetch outside the lock; reconcile under it.
	s.mu.RLock()
	ids := make([]int64, len(s.items))
	for i, item := range s.items {
		ids[i] = item.ProductID
	}
	s.mu.RUnlock()

	stocks := make(map[int64]int, len(ids))
	gone := make(map[int64]bool)
	for _, id := range ids {
		p, err := s.products.Product(ctx, id)
		switch {
		case errors.Is(err, api.ErrNotFound):
			gone[id] = true
		case err != nil:
			s.logger.Warn("stock refresh failed, keeping snapshot", "product_id", id, "error", err)
		default:
			stocks[id] = p.StockQuantity
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.items[:0]
	for _, item := range s.items {
		if gone[item.ProductID] {
			s.logger.Info("dropping cart item, product gone", "product_id", item.ProductID)
			continue
		}
		if stock, ok := stocks[item.ProductID]; ok {
			item.StockQuantity = stock
		}
		if item.StockQuantity <= 0 {
			s.logger.Info("dropping cart item, out of stock", "product_id", item.ProductID)
			continue
		}
		item.Quantity = clamp(item.Quantity, item.StockQuantity)
		kept = append(kept, item)
	}
	s.items = kept

	return s.persist("validate")
}

// TotalItems returns the sum of line quantities.
func (s *Store) TotalItems() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, item := range s.items {
		total += item.Quantity
	}
	return total
}

// TotalPrice returns the sum of price times quantity over all lines.
func (s *Store) TotalPrice() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0.0
	for _, item := range s.items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return total
}

// FormattedTotalPrice returns the total rendered with two decimals.
func (s *Store) FormattedTotalPrice() string {
	return fmt.Sprintf("%.2f", s.TotalPrice())
}

// IsEmpty reports whether the cart holds no lines.
func (s *Store) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items) == 0
}

// Quantity returns the quantity held for a product, or zero.
func (s *Store) Quantity(productID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if item := s.find(productID); item != nil {
		return item.Quantity
	}
	return 0
}

// Items returns a copy of the line items in insertion order.
func (s *Store) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]Item, len(s.items))
	copy(items, s.items)
	return items
}

// ToggleDrawer flips the drawer-visibility flag. Not persisted.
func (s *Store) ToggleDrawer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drawerOpen = !s.drawerOpen
}

// OpenDrawer sets the drawer-visibility flag.
func (s *Store) OpenDrawer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drawerOpen = true
}

// CloseDrawer clears the drawer-visibility flag.
func (s *Store) CloseDrawer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drawerOpen = false
}

// IsDrawerOpen reports the drawer-visibility flag.
func (s *Store) IsDrawerOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.drawerOpen
}

// find returns the line for a product, or nil. Caller holds the lock.
func (s *Store) find(productID int64) *Item {
	for i := range s.items {
		if s.items[i].ProductID == productID {
			return &s.items[i]
		}
	}
	return nil
}

// remove deletes the line for a product. Caller holds the lock.
func (s *Store) remove(productID int64) {
	kept := s.items[:0]
	for _, item := range s.items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	s.items = kept
}

// persist mirrors the full item list to durable storage. Caller holds
// the lock. The persisted snapshot always equals the in-memory list.
func (s *Store) persist(action string) error {
	items := s.items
	if items == nil {
		items = []Item{}
	}
	err := s.local.Put(cartKey, items)
	if err != nil {
		s.record(action, "error")
		return fmt.Errorf("persist cart: %w", err)
	}
	s.updateGauge()
	s.record(action, "ok")
	return nil
}

// updateGauge refreshes the cart size gauge when metrics are enabled.
func (s *Store) updateGauge() {
	if s.metrics == nil {
		return
	}
	s.metrics.CartItems.Set(float64(len(s.items)))
}

// record increments the store action counter when metrics are enabled.
func (s *Store) record(action, result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.StoreActions.WithLabelValues("cart", action, result).Inc()
}

// clamp bounds quantity to [1, stock].
func clamp(quantity, stock int) int {
	if quantity > stock {
		return stock
	}
	if quantity < 1 {
		return 1
	}
	return quantity
}
