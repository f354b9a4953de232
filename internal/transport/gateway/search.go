package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/vibesearch/internal/domain"
	"github.com/kailas-cloud/vibesearch/internal/domain/search/request"
	"github.com/kailas-cloud/vibesearch/internal/domain/search/result"
)

type searchResponse struct {
	Results json.RawMessage `json:"results"`
}

type rawMatch struct {
	ID       string          `json:"id"`
	Score    float64         `json:"score"`
	Metadata json.RawMessage `json:"metadata"`
}

// Search runs GET /api/search. A missing or non-array results field is an empty page.
func (c *Client) Search(ctx context.Context, req request.Request) ([]result.Result, error) {
	if req.Page < 1 {
		return nil, domain.InvalidInput("page must be >= 1, got %d", req.Page)
	}
	q, err := EncodeSearchQuery(req)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := c.get(ctx, EndpointSearch, "/api/search", q, &resp); err != nil {
		return nil, err
	}

	raw := bytes.TrimSpace(resp.Results)
	if len(raw) == 0 || raw[0] != '[' {
		return []result.Result{}, nil
	}
	var items []rawMatch
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("search: decode results: %w: %w", domain.ErrBackend, err)
	}

	out := make([]result.Result, 0, len(items))
	for _, it := range items {
		m := result.Result{ID: it.ID, Score: it.Score, Metadata: map[string]any{}}
		// Non-object metadata is treated as empty.
		_ = json.Unmarshal(it.Metadata, &m.Metadata)
		if m.Metadata == nil {
			m.Metadata = map[string]any{}
		}
		out = append(out, m)
	}
	return out, nil
}

// EncodeSearchQuery builds the query string of a search request. Unset
// filters are omitted; studio and has_available_units appear only when true.
func EncodeSearchQuery(req request.Request) (url.Values, error) {
	values := url.Values{}
	add := func(name string, v any) error {
		frag, err := runtime.StyleParamWithLocation("form", true, name, runtime.ParamLocationQuery, v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		parsed, err := url.ParseQuery(frag)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		for k, vs := range parsed {
			for _, v := range vs {
				values.Add(k, v)
			}
		}
		return nil
	}

	params := []struct {
		name string
		set  bool
		v    any
	}{
		{"query", true, req.Query},
		{"limit", req.Limit > 0, req.Limit},
		{"page", req.Page > 0, req.Page},
		{"city", req.Filters.City != "", req.Filters.City},
		{"state", req.Filters.State != "", req.Filters.State},
		{"min_rent", req.Filters.MinRent != nil, deref(req.Filters.MinRent)},
		{"max_rent", req.Filters.MaxRent != nil, deref(req.Filters.MaxRent)},
		{"min_beds", req.Filters.MinBeds != nil, deref(req.Filters.MinBeds)},
		{"max_beds", req.Filters.MaxBeds != nil, deref(req.Filters.MaxBeds)},
		{"min_baths", req.Filters.MinBaths != nil, deref(req.Filters.MinBaths)},
		{"max_baths", req.Filters.MaxBaths != nil, deref(req.Filters.MaxBaths)},
		{"studio", req.Filters.Studio, true},
		{"has_available_units", req.Filters.HasAvailableUnits, true},
		{"image_urls", len(req.ImageURLs) > 0, req.ImageURLs},
	}
	for _, p := range params {
		if !p.set {
			continue
		}
		if err := add(p.name, p.v); err != nil {
			return nil, err
		}
	}
	return values, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
