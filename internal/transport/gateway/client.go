// Package gateway is the HTTP client for the remote search and property gateway.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vibesearch/internal/domain"
	"github.com/kailas-cloud/vibesearch/internal/metrics"
)

// Endpoint labels for metrics and logs.
const (
	EndpointSearch  = "search"
	EndpointPreview = "preview"
	EndpointDetails = "details"
	EndpointHealth  = "health"
)

const maxErrorBody = 64 << 10

// Config holds the gateway client settings.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client talks to the search gateway. Every call runs under its own timeout
// and returns errors classified as domain.ErrTimeout, domain.ErrNetwork or
// *domain.BackendError.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	logger  *zap.Logger
}

// New creates a gateway client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		return nil, fmt.Errorf("gateway base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse gateway base url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{baseURL: base, timeout: timeout, http: hc, logger: logger}, nil
}

// get issues a GET and decodes a 2xx JSON body into out.
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.GatewayRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		classified := classifyTransport(ctx, err)
		c.record(endpoint, classified)
		c.logger.Warn("gateway request failed",
			zap.String("endpoint", endpoint), zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return fmt.Errorf("%s: %w", endpoint, classified)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		berr := domain.NewBackendError(resp.StatusCode, errorMessage(resp.Body))
		c.record(endpoint, berr)
		return fmt.Errorf("%s: %w", endpoint, berr)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			if ctx.Err() != nil {
				c.record(endpoint, domain.ErrTimeout)
				return fmt.Errorf("%s: read body: %w", endpoint, domain.ErrTimeout)
			}
			c.record(endpoint, domain.ErrBackend)
			return fmt.Errorf("%s: decode response: %w: %w", endpoint, domain.ErrBackend, err)
		}
	}
	c.record(endpoint, nil)
	return nil
}

func (c *Client) record(endpoint string, err error) {
	metrics.GatewayRequestsTotal.WithLabelValues(endpoint, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrNetwork):
		return "network"
	default:
		return "backend"
	}
}

// classifyTransport maps a failed round trip to a timeout (deadline, abort) or a network error.
func classifyTransport(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return domain.ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.ErrTimeout
	}
	return domain.ErrNetwork
}

// errorMessage extracts {"error": "..."} from a failed response body.
func errorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &parsed) == nil {
		if parsed.Error != "" {
			return parsed.Error
		}
		return parsed.Message
	}
	return ""
}
