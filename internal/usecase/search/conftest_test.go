package search

import (
	"context"
	"fmt"
	"sync"

	"github.com/kailas-cloud/vibesearch/internal/domain/search/request"
	"github.com/kailas-cloud/vibesearch/internal/domain/search/result"
)

// mockGateway implements Gateway for tests and records every request.
type mockGateway struct {
	mu       sync.Mutex
	requests []request.Request
	searchFn func(ctx context.Context, req request.Request) ([]result.Result, error)
}

func (m *mockGateway) Search(ctx context.Context, req request.Request) ([]result.Result, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.searchFn != nil {
		return m.searchFn(ctx, req)
	}
	return nil, nil
}

func (m *mockGateway) calls() []request.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]request.Request(nil), m.requests...)
}

// numbered returns results with Ids from..to inclusive.
func numbered(from, to int) []result.Result {
	out := make([]result.Result, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, result.Result{
			ID:       fmt.Sprint(i),
			Metadata: map[string]any{"property_name": fmt.Sprintf("Apartment %d", i)},
		})
	}
	return out
}
