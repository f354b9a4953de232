package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the vibesearch service configuration.
type Config struct {
	HTTP         HTTPConfig         `yaml:"http"`
	Gateway      GatewayConfig      `yaml:"gateway"`
	Search       SearchConfig       `yaml:"search"`
	State        StateConfig        `yaml:"state"`
	PreviewCache PreviewCacheConfig `yaml:"preview_cache"`
	Map          MapConfig          `yaml:"map"`
	Database     DatabaseConfig     `yaml:"database"`
	Uploads      UploadsConfig      `yaml:"uploads"`
	Auth         AuthConfig         `yaml:"auth"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string        `yaml:"level"` // debug, info, warn, error (default: determined by env)
	File  LogFileConfig `yaml:"file"`
}

// LogFileConfig enables a rotating log file next to stdout. Empty Filename disables it.
type LogFileConfig struct {
	Filename   string `yaml:"filename"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// GatewayConfig points at the remote search backend.
type GatewayConfig struct {
	BaseURL    string `yaml:"base_url"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// SearchConfig holds page sizes. List and map page lengths are independent.
type SearchConfig struct {
	RequestPageSize int `yaml:"request_page_size"`
	ListPageSize    int `yaml:"list_page_size"`
	MapPageSize     int `yaml:"map_page_size"`
}

// StateConfig holds persisted search state settings.
type StateConfig struct {
	TTLHours       int `yaml:"ttl_hours"`
	DebounceMs     int `yaml:"debounce_ms"`
	SessionIdleMin int `yaml:"session_idle_min"`
}

// PreviewCacheConfig holds preview freshness windows.
type PreviewCacheConfig struct {
	FreshSec  int `yaml:"fresh_sec"`
	RetainSec int `yaml:"retain_sec"`
}

// GeocoderConfig selects a fallback geocoder strategy: "city_jitter" or "uniform_box".
type GeocoderConfig struct {
	Strategy  string  `yaml:"strategy"`
	CenterLat float64 `yaml:"center_lat"`
	CenterLng float64 `yaml:"center_lng"`
	RadiusDeg float64 `yaml:"radius_deg"`
	MinLat    float64 `yaml:"min_lat"`
	MaxLat    float64 `yaml:"max_lat"`
	MinLng    float64 `yaml:"min_lng"`
	MaxLng    float64 `yaml:"max_lng"`
}

// MapConfig holds map projection settings.
type MapConfig struct {
	MaxRetries          int            `yaml:"max_retries"`
	BackoffMs           int            `yaml:"backoff_ms"`
	PlaceholderGeocoder GeocoderConfig `yaml:"placeholder_geocoder"`
	FallbackGeocoder    GeocoderConfig `yaml:"fallback_geocoder"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, sqlite (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	SQLitePath       string   `yaml:"sqlite_path"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// UploadsConfig holds S3-compatible object storage settings for image uploads.
// Empty Endpoint disables uploads.
type UploadsConfig struct {
	Endpoint      string `yaml:"endpoint"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	UseSSL        bool   `yaml:"use_ssl"`
	Region        string `yaml:"region"`
	Bucket        string `yaml:"bucket"`
	PublicBaseURL string `yaml:"public_base_url"`
	MaxBytes      int64  `yaml:"max_bytes"`
}

// Enabled reports whether uploads are configured.
func (u UploadsConfig) Enabled() bool { return u.Endpoint != "" }

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Gateway.TimeoutSec <= 0 {
		c.Gateway.TimeoutSec = 10
	}
	if c.Search.RequestPageSize <= 0 {
		c.Search.RequestPageSize = 25
	}
	if c.Search.ListPageSize <= 0 {
		c.Search.ListPageSize = 15
	}
	if c.Search.MapPageSize <= 0 {
		c.Search.MapPageSize = 25
	}
	if c.State.TTLHours <= 0 {
		c.State.TTLHours = 24
	}
	if c.State.DebounceMs <= 0 {
		c.State.DebounceMs = 500
	}
	if c.State.SessionIdleMin <= 0 {
		c.State.SessionIdleMin = 60
	}
	if c.PreviewCache.FreshSec <= 0 {
		c.PreviewCache.FreshSec = 300
	}
	if c.PreviewCache.RetainSec <= 0 {
		c.PreviewCache.RetainSec = 1800
	}
	if c.Map.MaxRetries <= 0 {
		c.Map.MaxRetries = 2
	}
	if c.Map.BackoffMs <= 0 {
		c.Map.BackoffMs = 300
	}
	if c.Map.PlaceholderGeocoder.Strategy == "" {
		c.Map.PlaceholderGeocoder = GeocoderConfig{
			Strategy: "city_jitter", CenterLat: 37.7749, CenterLng: -122.4194, RadiusDeg: 0.05,
		}
	}
	if c.Map.FallbackGeocoder.Strategy == "" {
		c.Map.FallbackGeocoder = GeocoderConfig{
			Strategy: "uniform_box", MinLat: 24.5, MaxLat: 49.4, MinLng: -124.8, MaxLng: -66.9,
		}
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "valkey"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.Driver == "sqlite" && c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "vibesearch.db"
	}
	if c.Uploads.Bucket == "" {
		c.Uploads.Bucket = "image-search-2"
	}
	if c.Uploads.MaxBytes <= 0 {
		c.Uploads.MaxBytes = 10 << 20
	}
	if c.Logging.File.Filename != "" {
		if c.Logging.File.MaxSizeMB <= 0 {
			c.Logging.File.MaxSizeMB = 100
		}
		if c.Logging.File.MaxBackups <= 0 {
			c.Logging.File.MaxBackups = 5
		}
		if c.Logging.File.MaxAgeDays <= 0 {
			c.Logging.File.MaxAgeDays = 30
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Gateway.BaseURL == "" {
		return fmt.Errorf("gateway.base_url is required")
	}
	switch c.Database.Driver {
	case "valkey", "redis":
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	case "sqlite":
	default:
		return fmt.Errorf("database.driver must be \"valkey\", \"redis\" or \"sqlite\", got %q", c.Database.Driver)
	}
	if c.PreviewCache.FreshSec > c.PreviewCache.RetainSec {
		return fmt.Errorf("preview_cache.fresh_sec (%d) must not exceed retain_sec (%d)",
			c.PreviewCache.FreshSec, c.PreviewCache.RetainSec)
	}
	for name, g := range map[string]GeocoderConfig{
		"map.placeholder_geocoder": c.Map.PlaceholderGeocoder,
		"map.fallback_geocoder":    c.Map.FallbackGeocoder,
	} {
		switch g.Strategy {
		case "city_jitter", "uniform_box":
		default:
			return fmt.Errorf("%s.strategy must be \"city_jitter\" or \"uniform_box\", got %q", name, g.Strategy)
		}
	}
	if c.Uploads.Enabled() && c.Uploads.PublicBaseURL == "" {
		return fmt.Errorf("uploads.public_base_url is required when uploads.endpoint is set")
	}
	return nil
}

// GatewayTimeout returns the gateway client timeout.
func (c *Config) GatewayTimeout() time.Duration {
	return time.Duration(c.Gateway.TimeoutSec) * time.Second
}

// StateTTL returns how long a persisted search state stays valid.
func (c *Config) StateTTL() time.Duration {
	return time.Duration(c.State.TTLHours) * time.Hour
}

// Debounce returns the persisted state write coalescing window.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.State.DebounceMs) * time.Millisecond
}

// SessionIdle returns the idle timeout after which sessions are evicted.
func (c *Config) SessionIdle() time.Duration {
	return time.Duration(c.State.SessionIdleMin) * time.Minute
}

// MapBackoff returns the base retry backoff for map preview fetches.
func (c *Config) MapBackoff() time.Duration {
	return time.Duration(c.Map.BackoffMs) * time.Millisecond
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
