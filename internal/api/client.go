// Package api implements the HTTP client adapter for the shopfront
// backend. It wraps the REST contract with typed endpoint methods,
// per-request bearer-token injection, and an optional GET response cache.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/shopfront/shopfront/internal/metrics"
)

// TokenSource supplies the current bearer token for outbound requests.
// It is read on every request, so credential changes (login, logout)
// take effect immediately without mutating client state.
type TokenSource interface {
	// Token returns the current session token, or "" when unauthenticated.
	Token() string
}

// TokenSourceFunc adapts a function to the TokenSource interface.
type TokenSourceFunc func() string

// Token returns f().
func (f TokenSourceFunc) Token() string { return f() }

// Client is the shopfront backend API client.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
	metrics    *metrics.Metrics

	// GET response cache.
	cache        sync.Map
	cacheTTL     time.Duration
	cacheMaxSize int
	cacheCount   int64
	cacheMu      sync.Mutex
}

// cacheEntry is a cached GET response body with expiry.
type cacheEntry struct {
	body      []byte
	expiresAt time.Time
	createdAt time.Time
}

// NewClient creates a new API client. Options override the defaults
// (5s timeout, no token source, cache disabled).
func NewClient(opts ...Option) *Client {
	c := &Client{
		timeout:      5 * time.Second,
		cacheMaxSize: 256,
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout: c.timeout,
		}
	}

	return c
}

// Login exchanges credentials for a session token and user profile.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	var result LoginResult
	err := c.do(ctx, http.MethodPost, "/auth/login", nil, creds, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Register creates a new account. The backend does not issue a token
// on registration; callers log in separately.
func (c *Client) Register(ctx context.Context, reg Registration) error {
	return c.do(ctx, http.MethodPost, "/auth/register", nil, reg, nil)
}

// Profile fetches the authenticated user's profile.
func (c *Client) Profile(ctx context.Context) (*User, error) {
	var user User
	err := c.do(ctx, http.MethodGet, "/users/profile", nil, nil, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile sends a partial profile update and returns the backend's
// updated representation.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*User, error) {
	var user User
	err := c.do(ctx, http.MethodPut, "/users/profile", nil, update, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Products fetches one catalog page.
func (c *Client) Products(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(q.Page))
	query.Set("limit", strconv.Itoa(q.Limit))
	query.Set("search", q.Search)
	query.Set("category", q.Category)

	var page ProductPage
	err := c.do(ctx, http.MethodGet, "/products", query, nil, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// Product fetches a single product by id.
func (c *Client) Product(ctx context.Context, id int64) (*Product, error) {
	var p Product
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/products/%d", id), nil, nil, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SearchProducts runs a full catalog search. The response is a flat
// product list with no pagination envelope.
func (c *Client) SearchProducts(ctx context.Context, q string) ([]Product, error) {
	query := url.Values{}
	query.Set("q", q)

	var products []Product
	err := c.do(ctx, http.MethodGet, "/products/search", query, nil, &products)
	if err != nil {
		return nil, err
	}
	return products, nil
}

// CreateProduct creates a product through the admin endpoint.
func (c *Client) CreateProduct(ctx context.Context, input ProductInput) (*Product, error) {
	var p Product
	err := c.do(ctx, http.MethodPost, "/admin/products", nil, input, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProduct updates a product through the admin endpoint.
func (c *Client) UpdateProduct(ctx context.Context, id int64, input ProductInput) (*Product, error) {
	var p Product
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/admin/products/%d", id), nil, input, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProduct removes a product through the admin endpoint.
func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/admin/products/%d", id), nil, nil, nil)
}

// do performs one HTTP round trip. GET responses are served from and
// stored in the response cache when caching is enabled; any mutating
// method invalidates the whole cache before the request is sent.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, result any) error {
	fullURL := strings.TrimRight(c.baseURL, "/") + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	cacheable := method == http.MethodGet && c.cacheTTL > 0
	cacheKey := ""
	if cacheable {
		cacheKey = buildCacheKey(method, fullURL)
		if data, ok := c.getFromCache(cacheKey); ok {
			if c.metrics != nil {
				c.metrics.CacheHitsTotal.Inc()
			}
			if result != nil {
				if err := json.Unmarshal(data, result); err != nil {
					return fmt.Errorf("failed to unmarshal cached response: %w", err)
				}
			}
			return nil
		}
		if c.metrics != nil {
			c.metrics.CacheMissesTotal.Inc()
		}
	}
	if method != http.MethodGet {
		c.invalidateCache()
	}

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.New().String()
	httpReq.Header.Set("X-Request-ID", requestID)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if c.metrics != nil {
		c.metrics.RequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		c.recordRequest(method, path, "transport_error")
		c.logger.Debug("request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return &TransportError{Cause: err}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		c.recordRequest(method, path, "read_error")
		return fmt.Errorf("failed to read response body: %w", err)
	}

	c.recordRequest(method, path, strconv.Itoa(httpResp.StatusCode))

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		apiErr := &APIError{
			Status:    httpResp.StatusCode,
			Message:   extractMessage(respBody),
			RequestID: requestID,
		}
		c.logger.Debug("request rejected",
			"method", method,
			"path", path,
			"status", httpResp.StatusCode,
			"request_id", requestID,
		)
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	if cacheable {
		c.putInCache(cacheKey, respBody)
	}

	return nil
}

// recordRequest increments the request counter when metrics are enabled.
// The path label carries the route, not the full URL, to bound cardinality.
func (c *Client) recordRequest(method, path, status string) {
	if c.metrics == nil {
		return
	}
	c.metrics.RequestsTotal.WithLabelValues(method, routeTemplate(path), status).Inc()
}

// routeTemplate collapses numeric path segments so /products/42 and
// /products/7 share one metric series.
func routeTemplate(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if _, err := strconv.ParseInt(seg, 10, 64); err == nil {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}

// extractMessage pulls the message field from an error response body.
func extractMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Message
}

// buildCacheKey hashes the request line into a fixed-width cache key.
func buildCacheKey(method, url string) string {
	h := xxhash.New()
	_, _ = h.WriteString(method)
	_, _ = h.WriteString(" ")
	_, _ = h.WriteString(url)
	return strconv.FormatUint(h.Sum64(), 16)
}

// getFromCache retrieves a cached response if it exists and hasn't expired.
func (c *Client) getFromCache(key string) ([]byte, bool) {
	val, ok := c.cache.Load(key)
	if !ok {
		return nil, false
	}
	entry := val.(*cacheEntry)
	if time.Now().After(entry.expiresAt) {
		c.cache.Delete(key)
		c.cacheMu.Lock()
		c.cacheCount--
		c.cacheMu.Unlock()
		return nil, false
	}
	return entry.body, true
}

// putInCache stores a response body in the cache.
func (c *Client) putInCache(key string, body []byte) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()

	// Best-effort eviction: if over max size, drop the oldest entry.
	if c.cacheCount >= int64(c.cacheMaxSize) {
		var oldest time.Time
		var oldestKey any
		c.cache.Range(func(k, v any) bool {
			entry := v.(*cacheEntry)
			if oldest.IsZero() || entry.createdAt.Before(oldest) {
				oldest = entry.createdAt
				oldestKey = k
			}
			return true
		})
		if oldestKey != nil {
			c.cache.Delete(oldestKey)
			c.cacheCount--
		}
	}

	c.cache.Store(key, &cacheEntry{
		body:      body,
		expiresAt: time.Now().Add(c.cacheTTL),
		createdAt: time.Now(),
	})
	c.cacheCount++
}

// invalidateCache drops every cached response. Called before any
// mutating request so stale catalog pages cannot be served afterwards.
func (c *Client) invalidateCache() {
	if c.cacheTTL <= 0 {
		return
	}
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	c.cache.Range(func(k, _ any) bool {
		c.cache.Delete(k)
		return true
	})
	c.cacheCount = 0
}
