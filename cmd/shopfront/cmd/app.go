package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shopfront/shopfront/internal/api"
	"github.com/shopfront/shopfront/internal/cart"
	"github.com/shopfront/shopfront/internal/catalog"
	"github.com/shopfront/shopfront/internal/config"
	"github.com/shopfront/shopfront/internal/localstore"
	"github.com/shopfront/shopfront/internal/metrics"
	"github.com/shopfront/shopfront/internal/route"
	"github.com/shopfront/shopfront/internal/session"
)

// app wires the stores, the API client, and the guard together for one
// CLI invocation: restore the session first, then let the command
// navigate through the guard.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	client  *api.Client
	session *session.Store
	cart    *cart.Store
	catalog *catalog.Store
	guard   *route.Guard
}

// newApp loads configuration and builds the component graph.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg)
	m := metrics.NewMetrics(prometheus.NewRegistry())

	local, err := localstore.NewStore(cfg.State.Dir, logger)
	if err != nil {
		return nil, err
	}

	// The session store is the client's token source; the variable is
	// assigned before any request can be issued.
	var sess *session.Store
	client := api.NewClient(
		api.WithBaseURL(cfg.API.BaseURL),
		api.WithTimeout(cfg.API.Timeout),
		api.WithLogger(logger),
		api.WithMetrics(m),
		api.WithCacheTTL(cfg.Cache.TTL),
		api.WithCacheMaxSize(cfg.Cache.MaxSize),
		api.WithTokenSource(api.TokenSourceFunc(func() string {
			return sess.Token()
		})),
	)
	sess = session.NewStore(client, local, logger, m)

	cartStore, err := cart.NewStore(client, local, logger, m)
	if err != nil {
		return nil, err
	}

	catalogStore := catalog.NewStore(client, logger, m)
	catalogStore.SetItemsPerPage(cfg.Catalog.PageSize)

	if err := sess.Initialize(ctx); err != nil {
		logger.Warn("session restore failed", "error", err)
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		client:  client,
		session: sess,
		cart:    cartStore,
		catalog: catalogStore,
		guard:   route.NewGuard(sess),
	}, nil
}

// loadConfig resolves the effective configuration, applying CLI flag
// overrides before validation.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigRaw()
	if err != nil {
		return nil, err
	}
	if devMode {
		cfg.DevMode = true
	}
	if stateDir != "" {
		cfg.State.Dir = stateDir
	}

	cfg.SetDevDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger to stderr, leaving stdout for
// command output.
func newLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
}

// parseLogLevel converts a string log level to slog.Level.
// Returns slog.LevelInfo for unrecognized values.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// navigate runs the route guard for the page a command is about to act
// on. A redirect decision becomes a user-facing error, the CLI analog of
// the browser navigation being diverted.
func (a *app) navigate(path string) error {
	decision := a.guard.Evaluate(path)
	if decision.Action != route.Redirect {
		return nil
	}
	if decision.Target == route.PathLogin {
		return fmt.Errorf("authentication required for %s (redirected to %s); run 'shopfront login' first",
			path, decision.TargetURL())
	}
	return fmt.Errorf("already logged in; redirected to %s", decision.TargetURL())
}
