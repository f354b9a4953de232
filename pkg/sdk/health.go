package vibesearch

import (
	"context"
	"time"

	healthuc "github.com/kailas-cloud/vibesearch/internal/usecase/health"
)

// HealthStatus is the result of checking the state store and the gateway.
type HealthStatus struct {
	Status string            // "ok" or "degraded"
	Checks map[string]string // "database", "gateway" → "ok"/"error"
}

// Healthy reports whether every check passed.
func (h HealthStatus) Healthy() bool {
	return h.Status == string(healthuc.Healthy)
}

// Health checks the state store and the search gateway.
func (c *Client) Health(ctx context.Context) HealthStatus {
	start := time.Now()
	report := c.healthSvc.Check(ctx)

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	h := HealthStatus{Status: string(report.Status), Checks: checks}
	c.obs.observe("health", start, nil, "status", h.Status)
	return h
}

// healthUseCase is the internal interface for health checks.
type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
