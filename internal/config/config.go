// Package config provides configuration loading for shopfront.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the top-level configuration for the shopfront client.
type Config struct {
	// API configures the backend endpoint.
	API APIConfig `yaml:"api" mapstructure:"api"`

	// State configures durable local storage.
	State StateConfig `yaml:"state" mapstructure:"state"`

	// Catalog configures catalog browsing.
	Catalog CatalogConfig `yaml:"catalog" mapstructure:"catalog"`

	// Cache configures the GET response cache. A zero TTL disables it.
	Cache CacheConfig `yaml:"cache" mapstructure:"cache"`

	// LogLevel sets the minimum log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`

	// DevMode enables development features (verbose logging, etc).
	DevMode bool `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// APIConfig configures the backend endpoint.
type APIConfig struct {
	// BaseURL is the backend base URL, e.g. "http://localhost:3000".
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"required,base_url"`

	// Timeout is the per-request timeout.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// StateConfig configures durable local storage.
type StateConfig struct {
	// Dir is the state directory the token and cart are mirrored into.
	Dir string `yaml:"dir" mapstructure:"dir" validate:"required"`
}

// CatalogConfig configures catalog browsing.
type CatalogConfig struct {
	// PageSize is the default number of products per page.
	PageSize int `yaml:"page_size" mapstructure:"page_size" validate:"min=1,max=100"`
}

// CacheConfig configures the client's GET response cache.
type CacheConfig struct {
	// TTL is the cache entry time-to-live. Zero disables caching.
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`

	// MaxSize is the maximum number of cached responses.
	MaxSize int `yaml:"max_size" mapstructure:"max_size" validate:"min=0"`
}

// Defaults.
const (
	DefaultBaseURL  = "http://localhost:3000"
	DefaultTimeout  = 5 * time.Second
	DefaultPageSize = 12
	DefaultCacheMax = 256
	DefaultLogLevel = "info"
)

// DefaultStateDir returns the per-user state directory,
// $HOME/.shopfront/state, falling back to a relative path when the home
// directory cannot be determined.
func DefaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".shopfront", "state")
	}
	return filepath.Join(home, ".shopfront", "state")
}

// SetDefaults fills unset optional fields with their defaults.
func (c *Config) SetDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultTimeout
	}
	if c.State.Dir == "" {
		c.State.Dir = DefaultStateDir()
	}
	if c.Catalog.PageSize == 0 {
		c.Catalog.PageSize = DefaultPageSize
	}
	if c.Cache.MaxSize == 0 {
		c.Cache.MaxSize = DefaultCacheMax
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// SetDevDefaults applies development-mode overrides. Must run after
// SetDefaults and before Validate.
func (c *Config) SetDevDefaults() {
	if !c.DevMode {
		return
	}
	c.LogLevel = "debug"
}
