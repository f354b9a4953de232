package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/kailas-cloud/vibesearch/internal/domain"
	"github.com/kailas-cloud/vibesearch/internal/domain/property"
)

type previewResponse struct {
	Apartment *property.Preview `json:"apartment"`
}

type detailsResponse struct {
	Apartment json.RawMessage `json:"apartment"`
}

// Preview runs GET /api/apartment/preview/{id}. queryHint, when set, lets the
// gateway order photos by relevance to the search.
func (c *Client) Preview(ctx context.Context, id, queryHint string) (property.Preview, error) {
	if id == "" {
		return property.Preview{}, domain.InvalidInput("property id is required")
	}
	var q url.Values
	if queryHint != "" {
		q = url.Values{"query": {queryHint}}
	}

	var resp previewResponse
	if err := c.get(ctx, EndpointPreview, "/api/apartment/preview/"+url.PathEscape(id), q, &resp); err != nil {
		return property.Preview{}, err
	}
	if resp.Apartment == nil {
		return property.Preview{}, fmt.Errorf("preview %s: apartment missing: %w", id, domain.ErrBackend)
	}
	p := *resp.Apartment
	if p.ID == "" {
		p.ID = id
	}
	return p, nil
}

// Details runs GET /api/apartment/details/{id} and returns the record untouched.
func (c *Client) Details(ctx context.Context, id string) (property.Detail, error) {
	if id == "" {
		return nil, domain.InvalidInput("property id is required")
	}
	var resp detailsResponse
	if err := c.get(ctx, EndpointDetails, "/api/apartment/details/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	raw := bytes.TrimSpace(resp.Apartment)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, fmt.Errorf("details %s: %w", id, domain.ErrNotFound)
	}
	return property.Detail(raw), nil
}

// Health runs GET /api/health.
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, EndpointHealth, "/api/health", nil, nil)
}
