package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfig_SetDefaults(t *testing.T) {
	t.Parallel()

	var cfg Config
	cfg.SetDefaults()

	if cfg.API.BaseURL != "http://localhost:3000" {
		t.Errorf("BaseURL = %q, want %q", cfg.API.BaseURL, "http://localhost:3000")
	}
	if cfg.API.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.API.Timeout)
	}
	if cfg.State.Dir == "" {
		t.Error("State.Dir should default to the per-user state directory")
	}
	if cfg.Catalog.PageSize != 12 {
		t.Errorf("PageSize = %d, want 12", cfg.Catalog.PageSize)
	}
	if cfg.Cache.MaxSize != 256 {
		t.Errorf("Cache.MaxSize = %d, want 256", cfg.Cache.MaxSize)
	}
	if cfg.Cache.TTL != 0 {
		t.Errorf("Cache.TTL = %v, want 0 (caching off by default)", cfg.Cache.TTL)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
}

func TestConfig_SetDefaults_PreservesExistingValues(t *testing.T) {
	t.Parallel()

	cfg := Config{
		API: APIConfig{
			BaseURL: "https://shop.example.com",
			Timeout: 10 * time.Second,
		},
		State:    StateConfig{Dir: "/var/lib/shopfront"},
		Catalog:  CatalogConfig{PageSize: 24},
		Cache:    CacheConfig{TTL: time.Minute, MaxSize: 64},
		LogLevel: "warn",
	}
	cfg.SetDefaults()

	if cfg.API.BaseURL != "https://shop.example.com" {
		t.Errorf("BaseURL was overwritten: %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Errorf("Timeout was overwritten: %v", cfg.API.Timeout)
	}
	if cfg.State.Dir != "/var/lib/shopfront" {
		t.Errorf("State.Dir was overwritten: %q", cfg.State.Dir)
	}
	if cfg.Catalog.PageSize != 24 {
		t.Errorf("PageSize was overwritten: %d", cfg.Catalog.PageSize)
	}
	if cfg.Cache.MaxSize != 64 {
		t.Errorf("Cache.MaxSize was overwritten: %d", cfg.Cache.MaxSize)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel was overwritten: %q", cfg.LogLevel)
	}
}

func TestConfig_SetDevDefaults(t *testing.T) {
	t.Parallel()

	var cfg Config
	cfg.SetDefaults()
	cfg.DevMode = true
	cfg.SetDevDefaults()

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug in dev mode", cfg.LogLevel)
	}

	var cfg2 Config
	cfg2.SetDefaults()
	cfg2.SetDevDefaults()

	if cfg2.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info when dev mode is off", cfg2.LogLevel)
	}
}

func TestValidate_Defaults(t *testing.T) {
	t.Parallel()

	var cfg Config
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestValidate_MissingBaseURL(t *testing.T) {
	t.Parallel()

	var cfg Config
	cfg.SetDefaults()
	cfg.API.BaseURL = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "required") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestValidate_BaseURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want bool
	}{
		{"http://localhost:3000", true},
		{"https://shop.example.com", true},
		{"https://shop.example.com/api", true},
		{"ftp://shop.example.com", false},
		{"localhost:3000", false},
		{"http://", false},
		{"https://shop.example.com?x=1", false},
		{"https://shop.example.com#frag", false},
	}
	for _, tt := range tests {
		var cfg Config
		cfg.SetDefaults()
		cfg.API.BaseURL = tt.url

		err := cfg.Validate()
		if tt.want && err != nil {
			t.Errorf("Validate(%q) = %v, want ok", tt.url, err)
		}
		if !tt.want && err == nil {
			t.Errorf("Validate(%q) = ok, want error", tt.url)
		}
	}
}

func TestValidate_PageSizeRange(t *testing.T) {
	t.Parallel()

	var cfg Config
	cfg.SetDefaults()
	cfg.Catalog.PageSize = 101

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for page size above 100")
	}

	cfg.Catalog.PageSize = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative page size")
	}
}

func TestValidate_LogLevel(t *testing.T) {
	t.Parallel()

	var cfg Config
	cfg.SetDefaults()
	cfg.LogLevel = "verbose"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "must be one of") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestValidate_NegativeDurations(t *testing.T) {
	t.Parallel()

	var cfg Config
	cfg.SetDefaults()
	cfg.API.Timeout = -time.Second

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative timeout")
	}

	var cfg2 Config
	cfg2.SetDefaults()
	cfg2.Cache.TTL = -time.Minute

	if err := cfg2.Validate(); err == nil {
		t.Error("expected error for negative cache TTL")
	}
}

func TestFindConfigFileInPaths_EmptyDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	got := findConfigFileInPaths([]string{dir})
	if got != "" {
		t.Errorf("findConfigFileInPaths(empty dir) = %q, want empty", got)
	}
}

func TestFindConfigFileInPaths_MatchesYAML(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "shopfront.yaml")
	_ = os.WriteFile(cfgPath, []byte("api:\n  base_url: http://localhost:3000\n"), 0644)

	got := findConfigFileInPaths([]string{dir})
	if got != cfgPath {
		t.Errorf("findConfigFileInPaths = %q, want %q", got, cfgPath)
	}
}

func TestFindConfigFileInPaths_MatchesYML(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "shopfront.yml")
	_ = os.WriteFile(cfgPath, []byte("api:\n  base_url: http://localhost:3000\n"), 0644)

	got := findConfigFileInPaths([]string{dir})
	if got != cfgPath {
		t.Errorf("findConfigFileInPaths = %q, want %q", got, cfgPath)
	}
}

func TestFindConfigFileInPaths_IgnoresNoExtension(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	// Simulate the binary: a file named "shopfront" with no extension
	_ = os.WriteFile(filepath.Join(dir, "shopfront"), []byte("\x7fELF binary"), 0755)

	got := findConfigFileInPaths([]string{dir})
	if got != "" {
		t.Errorf("findConfigFileInPaths matched binary = %q, want empty", got)
	}
}

func TestFindConfigFileInPaths_PrefersYAMLOverYML(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "shopfront.yaml")
	ymlPath := filepath.Join(dir, "shopfront.yml")
	_ = os.WriteFile(yamlPath, []byte("log_level: info\n"), 0644)
	_ = os.WriteFile(ymlPath, []byte("log_level: warn\n"), 0644)

	got := findConfigFileInPaths([]string{dir})
	if got != yamlPath {
		t.Errorf("findConfigFileInPaths = %q, want %q (.yaml preferred)", got, yamlPath)
	}
}
