package mapview

import (
	"context"
	"sync"
	"time"

	"github.com/kailas-cloud/vibesearch/internal/domain/geo"
	"github.com/kailas-cloud/vibesearch/internal/domain/property"
)

// mockPreviewer implements Previewer for tests.
type mockPreviewer struct {
	mu        sync.Mutex
	calls     map[string]int
	previewFn func(ctx context.Context, id string, attempt int) (property.Preview, error)
}

func (m *mockPreviewer) Preview(ctx context.Context, id, _ string) (property.Preview, error) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[id]++
	attempt := m.calls[id]
	m.mu.Unlock()
	if m.previewFn != nil {
		return m.previewFn(ctx, id, attempt)
	}
	return property.Preview{
		ID:          id,
		Coordinates: &property.Coordinates{Latitude: 37.78, Longitude: -122.41},
	}, nil
}

func (m *mockPreviewer) callCount(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[id]
}

// recordingSleeper records requested delays without sleeping.
type recordingSleeper struct {
	mu  sync.Mutex
	all []time.Duration
}

func (r *recordingSleeper) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.all = append(r.all, d)
	return nil
}

func (r *recordingSleeper) recorded() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.all...)
}

// fixedGeocoder always returns the same point.
type fixedGeocoder struct{ p geo.Point }

func (f fixedGeocoder) Locate() geo.Point { return f.p }

var (
	placeholderPoint = geo.Point{Lat: 37.7749, Lng: -122.4194}
	fallbackPoint    = geo.Point{Lat: 40, Lng: -100}
)

func newTestProjector(prev *mockPreviewer, sl *recordingSleeper) *Projector {
	return New(prev, Options{
		Placeholder: fixedGeocoder{placeholderPoint},
		Fallback:    fixedGeocoder{fallbackPoint},
		MaxRetries:  2,
		Backoff:     300 * time.Millisecond,
		Sleep:       sl.sleep,
	})
}
