package vibesearch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/vibesearch/internal/domain"
)

func TestNew_NoGateway(t *testing.T) {
	_, err := New(context.Background())
	if err == nil {
		t.Fatal("expected error when no gateway provided")
	}
}

func TestCreateStore_UnknownDriver(t *testing.T) {
	cfg := &clientConfig{driver: "unknown"}
	if _, err := createStore(cfg); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestCreateStore_ValkeyNeedsAddress(t *testing.T) {
	cfg := &clientConfig{driver: "valkey"}
	if _, err := createStore(cfg); err == nil {
		t.Fatal("expected error for valkey without address")
	}
}

func TestCreateStore_SQLiteMemory(t *testing.T) {
	s, err := createStore(defaultConfig())
	if err != nil {
		t.Fatalf("createStore: %v", err)
	}
	defer s.Close()
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()
	if cfg.driver != "sqlite" || cfg.sqlitePath != ":memory:" {
		t.Errorf("store = %s %q, want sqlite :memory:", cfg.driver, cfg.sqlitePath)
	}
	if cfg.pageSize != 25 {
		t.Errorf("pageSize = %d, want 25", cfg.pageSize)
	}
	if cfg.stateTTL != 24*time.Hour {
		t.Errorf("stateTTL = %s, want 24h", cfg.stateTTL)
	}
	if cfg.debounce != 500*time.Millisecond {
		t.Errorf("debounce = %s, want 500ms", cfg.debounce)
	}
	if cfg.mapRetries != 2 || cfg.mapBackoff != 300*time.Millisecond {
		t.Errorf("map retries = %d x %s, want 2 x 300ms", cfg.mapRetries, cfg.mapBackoff)
	}
}

func TestClientOptions(t *testing.T) {
	cfg := &clientConfig{}

	WithValkey("localhost:6379", "secret").apply(cfg)
	if cfg.driver != "valkey" {
		t.Errorf("driver = %q, want valkey", cfg.driver)
	}
	if cfg.addrs[0] != "localhost:6379" {
		t.Errorf("addr = %q, want localhost:6379", cfg.addrs[0])
	}
	if cfg.password != "secret" {
		t.Errorf("password = %q, want secret", cfg.password)
	}

	cfg2 := &clientConfig{}
	WithRedis("localhost:6380", "pass").apply(cfg2)
	if cfg2.driver != "redis" {
		t.Errorf("driver = %q, want redis", cfg2.driver)
	}

	cfg3 := &clientConfig{}
	WithSQLite("/tmp/state.db").apply(cfg3)
	if cfg3.driver != "sqlite" || cfg3.sqlitePath != "/tmp/state.db" {
		t.Errorf("sqlite = %s %q", cfg3.driver, cfg3.sqlitePath)
	}

	WithGateway("http://gw.test").apply(cfg3)
	WithGatewayTimeout(3 * time.Second).apply(cfg3)
	WithPageSize(10).apply(cfg3)
	WithDebounce(time.Second).apply(cfg3)
	WithStateTTL(time.Hour).apply(cfg3)
	WithIdleTimeout(time.Minute).apply(cfg3)
	WithMapRetries(0, time.Second).apply(cfg3)
	if cfg3.mapRetries != 0 || cfg3.mapBackoff != time.Second {
		t.Errorf("map retries = %d x %s", cfg3.mapRetries, cfg3.mapBackoff)
	}
	if cfg3.gatewayURL != "http://gw.test" || cfg3.gatewayTimeout != 3*time.Second {
		t.Errorf("gateway = %q %s", cfg3.gatewayURL, cfg3.gatewayTimeout)
	}
	if cfg3.pageSize != 10 || cfg3.debounce != time.Second {
		t.Errorf("pageSize = %d, debounce = %s", cfg3.pageSize, cfg3.debounce)
	}
	if cfg3.stateTTL != time.Hour || cfg3.idleTimeout != time.Minute {
		t.Errorf("stateTTL = %s, idleTimeout = %s", cfg3.stateTTL, cfg3.idleTimeout)
	}

	cfg4 := &clientConfig{}
	logger := slog.Default()
	WithLogger(logger).apply(cfg4)
	if cfg4.logger != logger {
		t.Error("expected logger to be set")
	}

	cfg5 := &clientConfig{}
	reg := prometheus.NewRegistry()
	WithPrometheus(reg).apply(cfg5)
	if cfg5.metricsReg != reg {
		t.Error("expected metricsReg to be set")
	}
}

func TestClient_Close_Empty(t *testing.T) {
	c := &Client{}
	c.Close(context.Background())
}

func TestObserver_NilSafe(t *testing.T) {
	var obs *observer
	obs.observe("test", time.Now(), nil)
	obs.observe("test", time.Now(), errors.New("err"))
}

func TestObserver_WithPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}

	obs.observe("search", time.Now().Add(-10*time.Millisecond), nil)
	obs.observe("search", time.Now(), errors.New("fail"))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	found := false
	for _, f := range families {
		if f.GetName() == "vibesearch_sdk_operations_total" {
			found = true
			if len(f.GetMetric()) != 2 {
				t.Errorf("expected 2 metric samples, got %d", len(f.GetMetric()))
			}
		}
	}
	if !found {
		t.Error("vibesearch_sdk_operations_total not found")
	}
}

func TestObserver_ReusesRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("first observer: %v", err)
	}
	second, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("second observer: %v", err)
	}
	if first.metrics.operations != second.metrics.operations {
		t.Error("expected second observer to reuse the registered counter")
	}
}

func TestObserver_WithLogger(t *testing.T) {
	obs, err := newObserver(slog.Default(), nil)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}
	obs.observe("open", time.Now(), nil)
	obs.observe("open", time.Now(), errors.New("test error"))
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{fmt.Errorf("search: %w", domain.ErrSuperseded), "superseded"},
		{fmt.Errorf("search: %w", domain.ErrTimeout), "timeout"},
		{domain.ErrNetwork, "network"},
		{domain.NewBackendError(404, ""), "not_found"},
		{domain.NewBackendError(500, "boom"), "backend"},
		{errors.New("other"), "error"},
	}
	for _, tc := range tests {
		if got := errorStatus(tc.err); got != tc.want {
			t.Errorf("errorStatus(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
