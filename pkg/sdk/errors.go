package vibesearch

import "github.com/kailas-cloud/vibesearch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrTimeout        = domain.ErrTimeout
	ErrNetwork        = domain.ErrNetwork
	ErrBackend        = domain.ErrBackend
	ErrNotFound       = domain.ErrNotFound
	ErrInvalidInput   = domain.ErrInvalidInput
	ErrLoadInProgress = domain.ErrLoadInProgress
	ErrSuperseded     = domain.ErrSuperseded
)

// BackendError is a failed gateway response. It matches ErrBackend, and
// ErrNotFound for 404 responses.
type BackendError = domain.BackendError

// UserMessage returns the message to show an end user for err.
func UserMessage(err error) string {
	return domain.UserMessage(err)
}
