package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vibesearch/internal/domain"
	domfb "github.com/kailas-cloud/vibesearch/internal/domain/feedback"
	"github.com/kailas-cloud/vibesearch/internal/domain/property"
	"github.com/kailas-cloud/vibesearch/internal/domain/search/request"
	"github.com/kailas-cloud/vibesearch/internal/domain/search/result"
	"github.com/kailas-cloud/vibesearch/internal/domain/search/state"
	domwl "github.com/kailas-cloud/vibesearch/internal/domain/waitlist"
	feedbackuc "github.com/kailas-cloud/vibesearch/internal/usecase/feedback"
	healthuc "github.com/kailas-cloud/vibesearch/internal/usecase/health"
	"github.com/kailas-cloud/vibesearch/internal/usecase/session"
	uploaduc "github.com/kailas-cloud/vibesearch/internal/usecase/upload"
	waitlistuc "github.com/kailas-cloud/vibesearch/internal/usecase/waitlist"
)

// mockGateway implements search.Gateway. By default every page holds 30
// results with Ids "{page}-{n}" and a title in their metadata.
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
		id := fmt.Sprintf("%d-%d", req.Page, i)
		out = append(out, result.Result{ID: id, Metadata: map[string]any{"property_name": "Loft " + id}})
	}
	return out, nil
}

// mockPreviewer implements Previewer and DetailFetcher.
type mockPreviewer struct {
	mu        sync.Mutex
	hints     []string
	previewFn func(ctx context.Context, id, queryHint string) (property.Preview, error)
	detailFn  func(ctx context.Context, id string) (property.Detail, error)
}

func (m *mockPreviewer) Preview(ctx context.Context, id, queryHint string) (property.Preview, error) {
	m.mu.Lock()
	m.hints = append(m.hints, queryHint)
	m.mu.Unlock()
	if m.previewFn != nil {
		return m.previewFn(ctx, id, queryHint)
	}
	return property.Preview{
		ID:           id,
		PropertyName: "Preview " + id,
		Coordinates:  &property.Coordinates{Latitude: 37.77, Longitude: -122.42},
	}, nil
}

func (m *mockPreviewer) Details(ctx context.Context, id string) (property.Detail, error) {
	if m.detailFn != nil {
		return m.detailFn(ctx, id)
	}
	return property.Detail(`{"id":"` + id + `","units":[]}`), nil
}

// mockStateStore implements persist.Store.
type mockStateStore struct {
	mu     sync.Mutex
	saved  map[string]state.State
	clears []string
}

func newMockStateStore() *mockStateStore {
	return &mockStateStore{saved: map[string]state.State{}}
}

func (m *mockStateStore) Save(_ context.Context, sess string, st state.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[sess] = st
	return nil
}

func (m *mockStateStore) Load(_ context.Context, sess string) (state.State, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.saved[sess]
	if !ok {
		return state.State{}, false, nil
	}
	return st.Restored(), true, nil
}

func (m *mockStateStore) Clear(_ context.Context, sess string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.saved, sess)
	m.clears = append(m.clears, sess)
	return nil
}

// mockWaitlistRepo implements waitlist.Repository.
type mockWaitlistRepo struct {
	mu      sync.Mutex
	entries map[string]domwl.Entry
}

func (m *mockWaitlistRepo) Add(_ context.Context, e domwl.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = map[string]domwl.Entry{}
	}
	if _, ok := m.entries[e.Email()]; ok {
		return fmt.Errorf("add %s: %w", e.Email(), domain.ErrAlreadyExists)
	}
	m.entries[e.Email()] = e
	return nil
}

// mockFeedbackRepo implements feedback.Repository.
type mockFeedbackRepo struct {
	mu      sync.Mutex
	entries []domfb.Entry
}

func (m *mockFeedbackRepo) Save(_ context.Context, e domfb.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockFeedbackRepo) List(_ context.Context) ([]domfb.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domfb.Entry(nil), m.entries...), nil
}

// mockObjectStore implements upload.ObjectStore.
type mockObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *mockObjectStore) Put(_ context.Context, name string, body io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[name] = data
	return nil
}

// mockPinger implements the health checkers.
type mockPinger struct {
	err error
}

func (m mockPinger) Ping(context.Context) error        { return m.err }
func (m mockPinger) Health(context.Context) error      { return m.err }
func (m mockPinger) HealthCheck(context.Context) error { return m.err }

type testEnv struct {
	gateway   *mockGateway
	previewer *mockPreviewer
	store     *mockStateStore
	objects   *mockObjectStore
	db        *mockPinger
	manager   *session.Manager
	handler   http.Handler
}

type envOption func(*testEnv, *Deps)

func withoutUploads() envOption {
	return func(_ *testEnv, d *Deps) { d.Uploads = uploaduc.New(nil, uploaduc.Options{}) }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	env := &testEnv{
		gateway:   &mockGateway{},
		previewer: &mockPreviewer{},
		store:     newMockStateStore(),
		objects:   &mockObjectStore{},
		db:        &mockPinger{},
	}
	env.manager = session.NewManager(env.gateway, env.previewer, env.store, session.Config{
		PageSize:    30,
		Debounce:    time.Hour,
		IdleTimeout: time.Hour,
	})
	t.Cleanup(func() { env.manager.Close(context.Background()) })

	deps := Deps{
		Sessions: env.manager,
		Previews: env.previewer,
		Details:  env.previewer,
		Uploads: uploaduc.New(env.objects, uploaduc.Options{
			PublicBaseURL: "https://cdn.test",
			Bucket:        "images",
		}),
		Waitlist: waitlistuc.New(&mockWaitlistRepo{}, zap.NewNop()),
		Feedback: feedbackuc.New(&mockFeedbackRepo{}, zap.NewNop()),
		Health:   healthuc.New(env.db, mockPinger{}, nil),
	}
	for _, o := range opts {
		o(env, &deps)
	}
	env.handler = NewRouter(NewServer(deps), RouterOptions{})
	return env
}

func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader = http.NoBody
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response (status %d): %v", rr.Code, err)
	}
	return v
}
