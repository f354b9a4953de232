package previewcache

import (
	"context"
	"sync"
	"time"

	"github.com/kailas-cloud/vibesearch/internal/db"
	"github.com/kailas-cloud/vibesearch/internal/domain/property"
)

// mockPreviewer implements previewer for tests.
type mockPreviewer struct {
	mu        sync.Mutex
	calls     int
	previewFn func(ctx context.Context, id, queryHint string) (property.Preview, error)
}

func (m *mockPreviewer) Preview(ctx context.Context, id, queryHint string) (property.Preview, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.previewFn != nil {
		return m.previewFn(ctx, id, queryHint)
	}
	return property.Preview{ID: id, PropertyName: "Loft " + id}, nil
}

func (m *mockPreviewer) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockKVStore implements store for tests.
type mockKVStore struct {
	mu    sync.Mutex
	data  map[string][]byte
	ttl   time.Duration
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{data: map[string][]byte{}}
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttl = ttl
	return nil
}
