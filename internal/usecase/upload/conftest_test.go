package upload

import (
	"context"
	"io"
	"sync"
)

type storedObject struct {
	contentType string
	size        int64
	data        []byte
}

// mockObjectStore implements ObjectStore for tests.
type mockObjectStore struct {
	mu      sync.Mutex
	objects map[string]storedObject
	putFn   func(ctx context.Context, name string) error
}

func newMockObjectStore() *mockObjectStore {
	return &mockObjectStore{objects: map[string]storedObject{}}
}

func (m *mockObjectStore) Put(ctx context.Context, name string, body io.Reader, size int64, contentType string) error {
	if m.putFn != nil {
		if err := m.putFn(ctx, name); err != nil {
			return err
		}
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[name] = storedObject{contentType: contentType, size: size, data: data}
	return nil
}
