package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Gateway and search pipeline Prometheus metrics.
var (
	GatewayRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vibesearch",
			Name:      "gateway_requests_total",
			Help:      "Total number of requests sent to the search gateway",
		},
		[]string{"endpoint", "outcome"}, // outcome: ok, timeout, network, backend
	)

	GatewayRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vibesearch",
			Name:      "gateway_request_duration_seconds",
			Help:      "Search gateway request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	PreviewCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vibesearch",
			Name:      "preview_cache_total",
			Help:      "Preview cache lookups by result",
		},
		[]string{"result"}, // "hit" / "miss" / "stale"
	)

	MapRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vibesearch",
			Name:      "map_preview_retries_total",
			Help:      "Preview fetch retries issued by the map projection",
		},
	)

	PersistWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vibesearch",
			Name:      "state_writes_total",
			Help:      "Persisted search state writes by status",
		},
		[]string{"status"},
	)
)

var registerGatewayOnce sync.Once

// RegisterGatewayMetrics registers gateway and pipeline metrics. Safe to call more than once.
func RegisterGatewayMetrics() {
	registerGatewayOnce.Do(func() {
		prometheus.MustRegister(GatewayRequestsTotal)
		prometheus.MustRegister(GatewayRequestDuration)
		prometheus.MustRegister(PreviewCacheTotal)
		prometheus.MustRegister(MapRetriesTotal)
		prometheus.MustRegister(PersistWritesTotal)
	})
}
