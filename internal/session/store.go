// Package session owns the authenticated session: the current user
// profile, the bearer token, and their mirror in durable local storage.
// The store is the client's TokenSource, so login and logout change what
// outbound requests carry without any shared mutable header.
package session

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

// tokenKey is the durable storage key the session token is mirrored to.
const tokenKey = "token"

// Backend is the slice of the API client the session store uses.
type Backend interface {
	Login(ctx context.Context, creds api.Credentials) (*api.LoginResult, error)
	Register(ctx context.Context, reg api.Registration) error
	Profile(ctx context.Context) (*api.User, error)
	UpdateProfile(ctx context.Context, update api.ProfileUpdate) (*api.User, error)
}

// Store holds the session state. Thread-safe.
type Store struct {
	backend Backend
	local   *localstore.Store
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu      sync.RWMutex
	user    *api.User
	token   string
	loading bool
	lastErr string
}

// NewStore creates a session store. The store starts logged out;
// call Initialize to restore a persisted token.
func NewStore(backend Backend, local *localstore.Store, logger *slog.Logger, m *metrics.Metrics) *Store {
	return &Store{
		backend: backend,
		local:   local,
		logger:  logger,
		metrics: m,
	}
}

// Login exchanges credentials for a session. On success the user profile
// and token are set together and the token is mirrored to durable
// storage. On failure the prior session state is left untouched and the
// backend's message (or a fixed fallback) becomes LastError.
func (s *Store) Login(ctx context.Context, creds api.Credentials) error {
	s.begin()
	defer s.end()

	result, err := s.backend.Login(ctx, creds)
	if err != nil {
		s.fail("session", "login", api.ErrorMessage(err, "Login failed"))
		return err
	}

	s.mu.Lock()
	user := result.User
	s.user = &user
	s.token = result.Token
	s.mu.Unlock()

	if err := s.local.Put(tokenKey, result.Token); err != nil {
		// The in-memory session stays valid; only the restore-on-restart
		// path is affected.
		s.logger.Warn("failed to persist session token", "error", err)
	}

	s.record("session", "login", "ok")
	s.logger.Info("logged in", "email", result.User.Email, "role", result.User.Role)
	return nil
}

// Register creates a new account. It does not log the user in.
func (s *Store) Register(ctx context.Context, reg api.Registration) error {
	s.begin()
	defer s.end()

	if err := s.backend.Register(ctx, reg); err != nil {
		s.fail("session", "register", api.ErrorMessage(err, "Registration failed"))
		return err
	}

	s.record("session", "register", "ok")
	return nil
}

// FetchProfile refreshes the user profile from the backend. It is a
// no-op without a token. A 401 means the persisted token is no longer
// honored, so the store logs out as a side effect.
func (s *Store) FetchProfile(ctx context.Context) error {
	if s.Token() == "" {
		return nil
	}

	user, err := s.backend.Profile(ctx)
	if err != nil {
		s.logger.Warn("failed to fetch profile", "error", err)
		if errors.Is(err, api.ErrUnauthorized) {
			s.Logout()
		}
		s.record("session", "fetch_profile", "error")
		return err
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()

	s.record("session", "fetch_profile", "ok")
	return nil
}

// UpdateProfile sends a partial update and replaces the profile with the
// backend's returned representation.
func (s *Store) UpdateProfile(ctx context.Context, update api.ProfileUpdate) error {
	s.begin()
	defer s.end()

	user, err := s.backend.UpdateProfile(ctx, update)
	if err != nil {
		s.fail("session", "update_profile", api.ErrorMessage(err, "Profile update failed"))
		return err
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()

	s.record("session", "update_profile", "ok")
	return nil
}

// Logout clears the session in memory and removes the persisted token.
// Subsequent requests carry no Authorization header.
func (s *Store) Logout() {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.lastErr = ""
	s.mu.Unlock()

	if err := s.local.Delete(tokenKey); err != nil {
		s.logger.Warn("failed to remove persisted token", "error", err)
	}

	s.record("session", "logout", "ok")
	s.logger.Info("logged out")
}

// Initialize restores a persisted token, if any, and refreshes the
// profile. A profile fetch failure does not fail initialization; the
// 401 side effect inside FetchProfile still clears a dead token.
func (s *Store) Initialize(ctx context.Context) error {
	var token string
	found, err := s.local.Get(tokenKey, &token)
	if err != nil {
		return fmt.Errorf("restore session token: %w", err)
	}
	if !found || token == "" {
		return nil
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	if err := s.FetchProfile(ctx); err != nil {
		s.logger.Debug("profile refresh on startup failed", "error", err)
	}
	return nil
}

// Token returns the current session token, or "" when logged out.
// It implements api.TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// IsAuthenticated reports whether a session token is held.
func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

// IsAdmin reports whether the current user has the admin role.
func (s *Store) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.user.Role == "admin"
}

// UserName returns "First Last" for the current user, or "".
func (s *Store) UserName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.FirstName + " " + s.user.LastName
}

// User returns a copy of the current profile, or nil when none is loaded.
func (s *Store) User() *api.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	user := *s.user
	return &user
}

// IsLoading reports whether a session action is in flight.
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
	s.loading = true
	s.lastErr = ""
	s.mu.Unlock()
}

// end clears the in-flight flag regardless of outcome.
func (s *Store) end() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}

// fail records a failed action and its user-facing message.
func (s *Store) fail(store, action, msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
	s.record(store, action, "error")
}

// record increments the store action counter when metrics are enabled.
func (s *Store) record(store, action, result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.StoreActions.WithLabelValues(store, action, result).Inc()
}
