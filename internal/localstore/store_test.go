package localstore

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestGetMissingKey(t *testing.T) {
	s, err := NewStore(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	var v string
	found, err := s.Get("token", &v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected missing key to report found=false")
	}
	if v != "" {
		t.Errorf("expected value untouched, got %q", v)
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	s, err := NewStore(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if err := s.Put("token", "abc123"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	var v string
	found, err := s.Get("token", &v)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found {
		t.Fatal("expected key to be found")
	}
	if v != "abc123" {
		t.Errorf("expected abc123, got %q", v)
	}
}

func TestPutOverwrites(t *testing.T) {
	s, err := NewStore(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	type item struct {
		ID       int64 `json:"id"`
		Quantity int   `json:"quantity"`
	}

	if err := s.Put("cart", []item{{ID: 1, Quantity: 2}, {ID: 2, Quantity: 1}}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put("cart", []item{{ID: 2, Quantity: 3}}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	var items []item
	if _, err := s.Get("cart", &items); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(items) != 1 || items[0].ID != 2 || items[0].Quantity != 3 {
		t.Errorf("expected overwrite to win, got %+v", items)
	}
}

func TestDelete(t *testing.T) {
	s, err := NewStore(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if err := s.Put("token", "abc"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Delete("token"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var v string
	found, err := s.Get("token", &v)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Error("expected deleted key to be absent")
	}

	// Deleting an absent key is not an error.
	if err := s.Delete("token"); err != nil {
		t.Errorf("expected idempotent delete, got %v", err)
	}
}

func TestKeys(t *testing.T) {
	s, err := NewStore(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if err := s.Put("token", "abc"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put("cart", []int{}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	keys, err := s.Keys()
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	got := map[string]bool{}
	for _, k := range keys {
		got[k] = true
	}
	if !got["token"] || !got["cart"] || len(keys) != 2 {
		t.Errorf("expected [token cart], got %v", keys)
	}
}

func TestCorruptFileReturnsError(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, testLogger())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "cart.json"), []byte("{not json"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var items []int
	if _, err := s.Get("cart", &items); err == nil {
		t.Error("expected parse error for corrupt file")
	}
}

func TestFilePermissions(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, testLogger())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if err := s.Put("token", "abc"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "token.json"))
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if mode := info.Mode().Perm(); mode&0077 != 0 {
		t.Errorf("expected 0600 permissions, got %04o", mode)
	}
}

func TestNoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, testLogger())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if err := s.Put("token", "abc"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}
