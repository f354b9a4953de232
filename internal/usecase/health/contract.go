package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// GatewayChecker checks the search gateway.
type GatewayChecker interface {
	Health(ctx context.Context) error
}

// StorageChecker checks the upload bucket.
type StorageChecker interface {
	HealthCheck(ctx context.Context) error
}
