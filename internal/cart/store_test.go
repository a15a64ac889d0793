package cart

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/shopfront/shopfront/internal/api"
	"github.com/shopfront/shopfront/internal/localstore"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func newTestLocal(t *testing.T) *localstore.Store {
	t.Helper()
	local, err := localstore.NewStore(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("failed to create local store: %v", err)
	}
	return local
}

func newTestStore(t *testing.T) (*Store, *localstore.Store) {
	t.Helper()
	local := newTestLocal(t)
	store, err := NewStore(nil, local, testLogger(), nil)
	if err != nil {
		t.Fatalf("failed to create cart store: %v", err)
	}
	return store, local
}

// persistedItems reads the snapshot back the way a restart would.
func persistedItems(t *testing.T, local *localstore.Store) []Item {
	t.Helper()
	var items []Item
	found, err := local.Get("cart", &items)
	if err != nil {
		t.Fatalf("failed to read persisted cart: %v", err)
	}
	if !found {
		t.Fatal("expected a persisted cart snapshot")
	}
	return items
}

// requireMirrored asserts the persisted snapshot matches memory.
func requireMirrored(t *testing.T, store *Store, local *localstore.Store) {
	t.Helper()
	got := persistedItems(t, local)
	want := store.Items()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("persisted snapshot diverged from memory:\n  disk: %+v\n  mem:  %+v", got, want)
	}
}

func lamp(stock int) api.Product {
	return api.Product{ID: 7, Name: "Lamp", Price: 19.99, StockQuantity: stock, Category: "home"}
}

func mug(stock int) api.Product {
	return api.Product{ID: 11, Name: "Mug", Price: 4.50, StockQuantity: stock, Category: "kitchen"}
}

func TestAddNewItem(t *testing.T) {
	store, local := newTestStore(t)

	if err := store.Add(lamp(5), 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.TotalItems() != 2 {
		t.Errorf("expected 2 items, got %d", store.TotalItems())
	}
	if store.Quantity(7) != 2 {
		t.Errorf("expected quantity 2, got %d", store.Quantity(7))
	}
	requireMirrored(t, store, local)
}

func TestAddExistingItemIncrementsQuantity(t *testing.T) {
	store, local := newTestStore(t)

	if err := store.Add(lamp(5), 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Add(lamp(5), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.Quantity(7) != 3 {
		t.Errorf("expected quantity 3, got %d", store.Quantity(7))
	}
	if len(store.Items()) != 1 {
		t.Errorf("expected one line, got %d", len(store.Items()))
	}
	requireMirrored(t, store, local)
}

func TestAddClampsToStock(t *testing.T) {
	store, _ := newTestStore(t)

	if err := store.Add(lamp(3), 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.Quantity(7) != 3 {
		t.Errorf("expected clamp to stock 3, got %d", store.Quantity(7))
	}

	// Further increments cannot pass the snapshot either.
	if err := store.Add(lamp(3), 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.Quantity(7) != 3 {
		t.Errorf("expected quantity still 3, got %d", store.Quantity(7))
	}
}

func TestAddOutOfStockRefused(t *testing.T) {
	store, _ := newTestStore(t)

	if err := store.Add(lamp(0), 1); err != ErrOutOfStock {
		t.Errorf("expected ErrOutOfStock, got %v", err)
	}
	if !store.IsEmpty() {
		t.Error("expected empty cart")
	}
}

func TestAddNonPositiveQuantityMeansOne(t *testing.T) {
	store, _ := newTestStore(t)

	if err := store.Add(lamp(5), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.Quantity(7) != 1 {
		t.Errorf("expected quantity 1, got %d", store.Quantity(7))
	}
}

func TestRemove(t *testing.T) {
	store, local := newTestStore(t)

	if err := store.Add(lamp(5), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Add(mug(9), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Remove(7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.Quantity(7) != 0 {
		t.Error("expected lamp removed")
	}
	if store.Quantity(11) != 1 {
		t.Error("expected mug retained")
	}
	requireMirrored(t, store, local)
}

func TestSetQuantity(t *testing.T) {
	store, local := newTestStore(t)

	if err := store.Add(lamp(5), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.SetQuantity(7, 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.Quantity(7) != 4 {
		t.Errorf("expected 4, got %d", store.Quantity(7))
	}

	// Above stock: clamped down.
	if err := store.SetQuantity(7, 99); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.Quantity(7) != 5 {
		t.Errorf("expected clamp to 5, got %d", store.Quantity(7))
	}

	// Zero removes.
	if err := store.SetQuantity(7, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !store.IsEmpty() {
		t.Error("expected empty cart")
	}

	// Absent line is a no-op.
	if err := store.SetQuantity(999, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !store.IsEmpty() {
		t.Error("expected cart still empty")
	}
	requireMirrored(t, store, local)
}

func TestIncreaseDecrease(t *testing.T) {
	store, local := newTestStore(t)

	if err := store.Add(lamp(2), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.Increase(7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.Quantity(7) != 2 {
		t.Errorf("expected 2, got %d", store.Quantity(7))
	}

	// At the stock snapshot: no-op.
	if err := store.Increase(7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.Quantity(7) != 2 {
		t.Errorf("expected still 2, got %d", store.Quantity(7))
	}

	if err := store.Decrease(7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.Quantity(7) != 1 {
		t.Errorf("expected 1, got %d", store.Quantity(7))
	}

	// Below one: the line goes away.
	if err := store.Decrease(7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !store.IsEmpty() {
		t.Error("expected empty cart")
	}
	requireMirrored(t, store, local)
}

func TestClearPersistsEmptyList(t *testing.T) {
	store, local := newTestStore(t)

	if err := store.Add(lamp(5), 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !store.IsEmpty() {
		t.Error("expected empty cart")
	}
	items := persistedItems(t, local)
	if len(items) != 0 {
		t.Errorf("expected empty persisted list, got %+v", items)
	}
}

func TestTotals(t *testing.T) {
	store, _ := newTestStore(t)

	if err := store.Add(lamp(5), 2); err != nil { // 2 * 19.99
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Add(mug(9), 3); err != nil { // 3 * 4.50
		t.Fatalf("unexpected error: %v", err)
	}

	if store.TotalItems() != 5 {
		t.Errorf("expected 5 total items, got %d", store.TotalItems())
	}
	if got := store.FormattedTotalPrice(); got != "53.48" {
		t.Errorf("expected 53.48, got %q", got)
	}
}

func TestRestoreFromPersistedSnapshot(t *testing.T) {
	local := newTestLocal(t)

	first, err := NewStore(nil, local, testLogger(), nil)
	if err != nil {
		t.Fatalf("failed to create cart store: %v", err)
	}
	if err := first.Add(lamp(5), 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := NewStore(nil, local, testLogger(), nil)
	if err != nil {
		t.Fatalf("failed to create cart store: %v", err)
	}
	if second.Quantity(7) != 2 {
		t.Errorf("expected restored quantity 2, got %d", second.Quantity(7))
	}
	if second.Items()[0].Name != "Lamp" {
		t.Errorf("expected restored snapshot, got %+v", second.Items())
	}
}

func TestRestoreCorruptSnapshotFailsConstruction(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(dir+"/cart.json", []byte("{not json"), 0600); err != nil {
		t.Fatalf("failed to write corrupt file: %v", err)
	}
	local, err := localstore.NewStore(dir, testLogger())
	if err != nil {
		t.Fatalf("failed to create local store: %v", err)
	}

	if _, err := NewStore(nil, local, testLogger(), nil); err == nil {
		t.Error("expected constructor error on corrupt snapshot")
	}
}

func TestValidateReconcilesAgainstBackend(t *testing.T) {
	// Backend state: lamp (7) down to 1 in stock, mug (11) gone,
	// plate (13) out of stock.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/products/"), 10, 64)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch id {
		case 7:
			json.NewEncoder(w).Encode(api.Product{ID: 7, Name: "Lamp", Price: 19.99, StockQuantity: 1})
		case 13:
			json.NewEncoder(w).Encode(api.Product{ID: 13, Name: "Plate", Price: 2.00, StockQuantity: 0})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := api.NewClient(api.WithBaseURL(server.URL), api.WithLogger(testLogger()))
	local := newTestLocal(t)
	store, err := NewStore(client, local, testLogger(), nil)
	if err != nil {
		t.Fatalf("failed to create cart store: %v", err)
	}

	if err := store.Add(lamp(5), 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Add(mug(9), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Add(api.Product{ID: 13, Name: "Plate", Price: 2.00, StockQuantity: 4}, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.Validate(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items := store.Items()
	if len(items) != 1 {
		t.Fatalf("expected only the lamp left, got %+v", items)
	}
	if items[0].ProductID != 7 {
		t.Errorf("expected lamp, got %+v", items[0])
	}
	if items[0].Quantity != 1 {
		t.Errorf("expected quantity clamped to new stock 1, got %d", items[0].Quantity)
	}
	if items[0].StockQuantity != 1 {
		t.Errorf("expected stock snapshot refreshed to 1, got %d", items[0].StockQuantity)
	}
	requireMirrored(t, store, local)
}

func TestValidateKeepsSnapshotOnTransportError(t *testing.T) {
	// Nothing listening: every refresh fails at the transport level.
	client := api.NewClient(api.WithBaseURL("http://127.0.0.1:1"), api.WithLogger(testLogger()))
	local := newTestLocal(t)
	store, err := NewStore(client, local, testLogger(), nil)
	if err != nil {
		t.Fatalf("failed to create cart store: %v", err)
	}

	if err := store.Add(lamp(5), 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Validate(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.Quantity(7) != 2 {
		t.Errorf("expected line kept on transport failure, got quantity %d", store.Quantity(7))
	}
}

func TestDrawer(t *testing.T) {
	store, _ := newTestStore(t)

	if store.IsDrawerOpen() {
		t.Error("drawer should start closed")
	}
	store.ToggleDrawer()
	if !store.IsDrawerOpen() {
		t.Error("expected drawer open after toggle")
	}
	store.CloseDrawer()
	if store.IsDrawerOpen() {
		t.Error("expected drawer closed")
	}
	store.OpenDrawer()
	if !store.IsDrawerOpen() {
		t.Error("expected drawer open")
	}
}
