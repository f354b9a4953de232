package persist

import (
	"context"
	"sync"

	"github.com/kailas-cloud/vibesearch/internal/domain/search/state"
)

// mockStore implements Store for tests.
type mockStore struct {
	mu      sync.Mutex
	saved   map[string]state.State
	saves   int
	clears  int
	saveErr error
	savedCh chan struct{}
}

func newMockStore() *mockStore {
	return &mockStore{saved: map[string]state.State{}, savedCh: make(chan struct{}, 16)}
}

func (m *mockStore) Save(_ context.Context, session string, st state.State) error {
	m.mu.Lock()
	m.saves++
	err := m.saveErr
	if err == nil {
		m.saved[session] = st
	}
	m.mu.Unlock()
	m.savedCh <- struct{}{}
	return err
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
	m.clears++
	return nil
}

func (m *mockStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
