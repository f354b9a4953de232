package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/kailas-cloud/vibesearch/internal/domain/property"
	"github.com/kailas-cloud/vibesearch/internal/domain/search/request"
	"github.com/kailas-cloud/vibesearch/internal/domain/search/result"
	"github.com/kailas-cloud/vibesearch/internal/domain/search/state"
)

// mockGateway implements search.Gateway for tests.
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
	out := make([]result.Result, 0, 30)
	for i := 1; i <= 30; i++ {
		out = append(out, result.Result{ID: fmt.Sprint(i)})
	}
	return out, nil
}

func (m *mockGateway) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// mockPreviewer implements mapview.Previewer for tests.
type mockPreviewer struct{}

func (mockPreviewer) Preview(_ context.Context, id, _ string) (property.Preview, error) {
	return property.Preview{ID: id, Coordinates: &property.Coordinates{Latitude: 37.7, Longitude: -122.4}}, nil
}

// mockStore implements persist.Store for tests.
type mockStore struct {
	mu     sync.Mutex
	saved  map[string]state.State
	saves  int
	clears []string
}

func newMockStore() *mockStore {
	return &mockStore{saved: map[string]state.State{}}
}

func (m *mockStore) Save(_ context.Context, session string, st state.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[session] = st
	m.saves++
	return nil
}

func (m *mockStore) Load(_ context.Context, session string) (state.State, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.saved[session]
	if !ok {
		return state.State{}, false, nil
	}
	return st.Restored(), true, nil
}

func (m *mockStore) Clear(_ context.Context, session string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.saved, session)
	m.clears = append(m.clears, session)
	return nil
}

func (m *mockStore) get(session string) (state.State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.saved[session]
	return st, ok
}

func (m *mockStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
