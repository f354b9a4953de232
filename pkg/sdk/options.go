package vibesearch

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	gatewayURL     string
	gatewayTimeout time.Duration
	httpClient     *http.Client

	driver     string // "sqlite", "valkey" or "redis"
	addrs      []string
	password   string
	sqlitePath string

	stateTTL    time.Duration
	debounce    time.Duration
	pageSize    int
	idleTimeout time.Duration
	mapRetries  int
	mapBackoff  time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		gatewayTimeout: 10 * time.Second,
		driver:         "sqlite",
		sqlitePath:     ":memory:",
		stateTTL:       24 * time.Hour,
		debounce:       500 * time.Millisecond,
		pageSize:       25,
		idleTimeout:    30 * time.Minute,
		mapRetries:     2,
		mapBackoff:     300 * time.Millisecond,
	}
}

// WithGateway sets the base URL of the search gateway. Required.
func WithGateway(baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.gatewayURL = baseURL
	})
}

// WithGatewayTimeout sets the per-request gateway timeout. Default: 10s.
func WithGatewayTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.gatewayTimeout = d
	})
}

// WithHTTPClient sets the HTTP client used for gateway calls.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithSQLite stores saved sessions and cached previews in a local SQLite file.
// This is the default driver, with an in-memory database that does not
// outlive the process.
func WithSQLite(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "sqlite"
		c.sqlitePath = path
	})
}

// WithValkey stores saved sessions and cached previews in Valkey.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis stores saved sessions and cached previews in Redis.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithStateTTL sets how long a saved session stays restorable. Default: 24h.
func WithStateTTL(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.stateTTL = d
	})
}

// WithDebounce sets the quiet period before a changed session is saved.
// Default: 500ms.
func WithDebounce(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.debounce = d
	})
}

// WithPageSize sets the number of results requested per gateway page.
// Default: 25.
func WithPageSize(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.pageSize = n
	})
}

// WithIdleTimeout sets how long an unused session stays in memory. Default: 30m.
func WithIdleTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.idleTimeout = d
	})
}

// WithMapRetries sets how many times a timed-out map preview is retried and
// the base delay; the n-th retry waits n × backoff. Default: 2 retries, 300ms.
// Zero retries marks the first timeout as an error.
func WithMapRetries(n int, backoff time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.mapRetries = n
		c.mapBackoff = backoff
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
