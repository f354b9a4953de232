// Package chi serves the vibesearch HTTP API on a chi router.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vibesearch/internal/domain"
	"github.com/kailas-cloud/vibesearch/internal/domain/property"
	logpkg "github.com/kailas-cloud/vibesearch/internal/logger"
	feedbackuc "github.com/kailas-cloud/vibesearch/internal/usecase/feedback"
	healthuc "github.com/kailas-cloud/vibesearch/internal/usecase/health"
	"github.com/kailas-cloud/vibesearch/internal/usecase/session"
	uploaduc "github.com/kailas-cloud/vibesearch/internal/usecase/upload"
	waitlistuc "github.com/kailas-cloud/vibesearch/internal/usecase/waitlist"
)

// Error codes returned in the "code" field of error bodies.
const (
	codeBadRequest      = "bad_request"
	codeUnauthorized    = "unauthorized"
	codeNotFound        = "not_found"
	codeAlreadyExists   = "already_exists"
	codeTimeout         = "gateway_timeout"
	codeUnreachable     = "gateway_unreachable"
	codeGatewayError    = "gateway_error"
	codeLoadInProgress  = "load_in_progress"
	codeSuperseded      = "superseded"
	codeUploadsDisabled = "uploads_disabled"
	codeInternal        = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Previewer returns property previews, usually through the preview cache.
type Previewer interface {
	Preview(ctx context.Context, id, queryHint string) (property.Preview, error)
}

// DetailFetcher returns the full backend record of a property.
type DetailFetcher interface {
	Details(ctx context.Context, id string) (property.Detail, error)
}

// Deps are the services behind the HTTP API.
type Deps struct {
	Sessions *session.Manager
	Previews Previewer
	Details  DetailFetcher
	Uploads  *uploaduc.Service
	Waitlist *waitlistuc.Service
	Feedback *feedbackuc.Service
	Health   *healthuc.Service
	Logger   *zap.Logger
}

// Server implements the HTTP handlers.
type Server struct {
	sessions      *session.Manager
	previews      Previewer
	details       DetailFetcher
	uploads       *uploaduc.Service
	waitlist      *waitlistuc.Service
	feedback      *feedbackuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		sessions: deps.Sessions,
		previews: deps.Previews,
		details:  deps.Details,
		uploads:  deps.Uploads,
		waitlist: deps.Waitlist,
		feedback: deps.Feedback,
		health:   deps.Health,
		logger:   logger,
	}
	// A gateway 404 matches both ErrNotFound and ErrBackend; not-found wins.
	s.errorHandlers = []errorHandler{
		userMessageHandler(domain.ErrTimeout, http.StatusGatewayTimeout, codeTimeout),
		userMessageHandler(domain.ErrNetwork, http.StatusBadGateway, codeUnreachable),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		userMessageHandler(domain.ErrBackend, http.StatusBadGateway, codeGatewayError),
		userMessageHandler(domain.ErrAlreadyExists, http.StatusConflict, codeAlreadyExists),
		invalidInputHandler,
		sentinelHandler(domain.ErrLoadInProgress, http.StatusConflict, codeLoadInProgress),
		sentinelHandler(domain.ErrSuperseded, http.StatusConflict, codeSuperseded),
		sentinelHandler(domain.ErrUploadsDisabled, http.StatusServiceUnavailable, codeUploadsDisabled),
	}
	return s
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// sentinelHandler returns an errorHandler that matches a single sentinel
// and reports the sentinel's own message.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

// userMessageHandler is like sentinelHandler but reports the end-user message.
func userMessageHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, domain.UserMessage(err))
		return true
	}
}

// invalidInputHandler reports the validation reason without the wrapping context.
func invalidInputHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrInvalidInput) {
		return false
	}
	writeError(w, http.StatusBadRequest, codeBadRequest, invalidReason(err))
	return true
}

func invalidReason(err error) string {
	msg := err.Error()
	prefix := domain.ErrInvalidInput.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	return domain.ErrInvalidInput.Error()
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		// client went away
		return
	}
	log := logpkg.FromContext(r.Context(), s.logger)
	log.Warn("domain error", zap.String("path", r.URL.Path), zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}

// decodeBody decodes an optional JSON body. An empty body leaves v unchanged.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return domain.InvalidInput("invalid request body: %v", err)
	}
	return nil
}
