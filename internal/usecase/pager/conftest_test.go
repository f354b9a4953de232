package pager

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/kailas-cloud/vibesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/vibesearch/internal/domain/search/request"
	"github.com/kailas-cloud/vibesearch/internal/domain/search/result"
	"github.com/kailas-cloud/vibesearch/internal/domain/search/state"
)

// mockSource implements Source for tests.
type mockSource struct {
	mu         sync.Mutex
	ids        []string
	hasMore    bool
	nextPage   int
	loadMoreFn func(ctx context.Context, filters *filter.Set, page int) ([]string, error)
	loads      []int
}

func (m *mockSource) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.ids)
}

func (m *mockSource) State() state.State { return state.Empty() }

func (m *mockSource) HasMore() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasMore
}

func (m *mockSource) NextPage() int { return m.nextPage }

func (m *mockSource) LoadMore(ctx context.Context, filters *filter.Set, page int) ([]string, error) {
	m.mu.Lock()
	m.loads = append(m.loads, page)
	m.mu.Unlock()
	if m.loadMoreFn != nil {
		return m.loadMoreFn(ctx, filters, page)
	}
	return nil, nil
}

// mockGateway serves pages of a fixed-size result list.
type mockGateway struct {
	mu       sync.Mutex
	requests []request.Request
	searchFn func(ctx context.Context, req request.Request) ([]result.Result, error)
}

func (m *mockGateway) Search(ctx context.Context, req request.Request) ([]result.Result, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	return m.searchFn(ctx, req)
}

func ids(from, to int) []string {
	out := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, fmt.Sprint(i))
	}
	return out
}

func results(from, to int) []result.Result {
	out := make([]result.Result, 0, to-from+1)
	for _, id := range ids(from, to) {
		out = append(out, result.Result{ID: id})
	}
	return out
}
