package vibesearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vibesearch/internal/db"
	dbRedis "github.com/kailas-cloud/vibesearch/internal/db/redis"
	dbSQLite "github.com/kailas-cloud/vibesearch/internal/db/sqlite"
	"github.com/kailas-cloud/vibesearch/internal/domain/property"
	"github.com/kailas-cloud/vibesearch/internal/repository/previewcache"
	staterepo "github.com/kailas-cloud/vibesearch/internal/repository/state"
	"github.com/kailas-cloud/vibesearch/internal/transport/gateway"
	healthuc "github.com/kailas-cloud/vibesearch/internal/usecase/health"
	"github.com/kailas-cloud/vibesearch/internal/usecase/mapview"
	"github.com/kailas-cloud/vibesearch/internal/usecase/session"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	sweepInterval           = time.Minute
)

// Внутренние интерфейсы для подмены в тестах.
type previewer interface {
	Preview(ctx context.Context, id, queryHint string) (property.Preview, error)
}

type detailFetcher interface {
	Details(ctx context.Context, id string) (property.Detail, error)
}

// Client is the vibesearch SDK entry point.
type Client struct {
	store     db.Store
	previews  previewer
	details   detailFetcher
	sessions  *session.Manager
	healthSvc healthUseCase
	obs       *observer
	stopSweep context.CancelFunc
}

// New creates a Client, connects to the state store and starts the idle
// session sweeper. The provided context is used for the readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.gatewayURL == "" {
		return nil, errors.New("vibesearch: gateway url required (use WithGateway)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	gw, err := gateway.New(gateway.Config{
		BaseURL:    cfg.gatewayURL,
		Timeout:    cfg.gatewayTimeout,
		HTTPClient: cfg.httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("vibesearch: %w", err)
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("vibesearch: database not ready: %w", err)
	}

	return wireClient(store, gw, cfg, obs), nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "sqlite":
		s, err := dbSQLite.Open(cfg.sqlitePath)
		if err != nil {
			return nil, fmt.Errorf("vibesearch: open sqlite store: %w", err)
		}
		return s, nil
	case "valkey", "redis":
		if len(cfg.addrs) == 0 || cfg.addrs[0] == "" {
			return nil, fmt.Errorf("vibesearch: %s address required", cfg.driver)
		}
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("vibesearch: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("vibesearch: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, gw *gateway.Client, cfg *clientConfig, obs *observer) *Client {
	logger := zap.NewNop()
	previews := previewcache.New(gw, store, previewcache.Options{}, nil, logger)
	states := staterepo.New(store, cfg.stateTTL, logger)

	sessions := session.NewManager(gw, previews, states, session.Config{
		PageSize:    cfg.pageSize,
		Debounce:    cfg.debounce,
		IdleTimeout: cfg.idleTimeout,
		Map: mapview.Options{
			MaxRetries: cfg.mapRetries,
			Backoff:    cfg.mapBackoff,
		},
		Logger: logger,
	})

	sweepCtx, stop := context.WithCancel(context.Background())
	go sessions.RunSweeper(sweepCtx, sweepInterval)

	return &Client{
		store:     store,
		previews:  previews,
		details:   gw,
		sessions:  sessions,
		healthSvc: healthuc.New(store, gw, nil),
		obs:       obs,
		stopSweep: stop,
	}
}

// Close saves pending session state and releases all resources.
func (c *Client) Close(ctx context.Context) {
	if c.stopSweep != nil {
		c.stopSweep()
	}
	if c.sessions != nil {
		c.sessions.Close(ctx)
	}
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// NewSessionID returns a random session id.
func NewSessionID() string {
	return uuid.NewString()
}

// Seed is what a new session starts from when it has no saved state.
type Seed struct {
	Query     string
	ImageURLs []string
	View      View
}

// Open returns the session for id. A new session restores its saved state,
// or runs the seed search when nothing is saved. Later opens ignore the seed.
// When the seed search fails the session is returned together with the error.
func (c *Client) Open(ctx context.Context, id string, seed Seed) (_ *Session, err error) {
	start := time.Now()
	defer func() { c.obs.observe("open", start, err, "session", id) }()

	s, err := c.sessions.Open(ctx, id, session.Seed{
		Query:     seed.Query,
		ImageURLs: seed.ImageURLs,
		View:      seed.View.internal(),
	})
	if s == nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	sess := &Session{id: id, client: c, s: s}
	if err != nil {
		return sess, fmt.Errorf("open session: %w", err)
	}
	return sess, nil
}

// Reset clears a session and its saved state.
func (c *Client) Reset(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("reset", start, err, "session", id) }()

	if err = c.sessions.Reset(ctx, id); err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	return nil
}

// Preview returns the preview of an apartment. Results are cached.
func (c *Client) Preview(ctx context.Context, id, query string) (_ Preview, err error) {
	start := time.Now()
	defer func() { c.obs.observe("preview", start, err, "id", id) }()

	p, err := c.previews.Preview(ctx, id, query)
	if err != nil {
		return Preview{}, fmt.Errorf("preview: %w", err)
	}
	return previewFromDomain(p), nil
}

// Details returns the full gateway record of an apartment, unchanged.
func (c *Client) Details(ctx context.Context, id string) (_ json.RawMessage, err error) {
	start := time.Now()
	defer func() { c.obs.observe("details", start, err, "id", id) }()

	d, err := c.details.Details(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("details: %w", err)
	}
	return d, nil
}
