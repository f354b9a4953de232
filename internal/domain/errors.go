package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTimeout signals that a gateway request exceeded the client timeout or was aborted.
	ErrTimeout = errors.New("gateway timeout")
	// ErrNetwork signals a connection-level failure reaching the gateway.
	ErrNetwork = errors.New("gateway unreachable")
	// ErrBackend signals a non-success status returned by the gateway.
	ErrBackend = errors.New("gateway error")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a duplicate resource.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidInput signals a rejected request argument.
	ErrInvalidInput = errors.New("invalid input")
	// ErrLoadInProgress signals that a load-more request is already outstanding.
	ErrLoadInProgress = errors.New("load already in progress")
	// ErrSuperseded signals that a newer search replaced this one before it completed.
	ErrSuperseded = errors.New("superseded by a newer search")
	// ErrUploadsDisabled signals that object storage is not configured.
	ErrUploadsDisabled = errors.New("uploads are not configured")
)

// BackendError carries the status and message of a failed gateway response.
// It matches ErrBackend, and ErrNotFound for 404 responses.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", ErrBackend.Error(), e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", ErrBackend.Error(), e.Status, e.Message)
}

func (e *BackendError) Unwrap() error { return ErrBackend }

// Is lets a 404 response satisfy errors.Is(err, ErrNotFound).
func (e *BackendError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// NewBackendError creates a backend error for the given status and message.
func NewBackendError(status int, message string) error {
	return &BackendError{Status: status, Message: message}
}

// InvalidInput wraps ErrInvalidInput with a reason.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// UserMessage returns the message shown to end users for a failed search operation.
func UserMessage(err error) string {
	var be *BackendError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "The request timed out. Please try again."
	case errors.Is(err, ErrNetwork):
		return "Cannot connect to the search service. Please check your connection."
	case errors.Is(err, ErrAlreadyExists):
		return "This email is already on our waitlist."
	case errors.As(err, &be) && be.Message != "":
		return be.Message
	default:
		return "Search failed. Please try again."
	}
}
