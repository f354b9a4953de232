package state

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vibesearch/internal/domain/search/filter"
	searchstate "github.com/kailas-cloud/vibesearch/internal/domain/search/state"
)

func newTestStore(t *testing.T) (*Store, *mockStore, *time.Time) {
	t.Helper()
	ms := newMockStore()
	s := New(ms, 24*time.Hour, zap.NewNop())
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, ms, &now
}

func sampleState() searchstate.State {
	return searchstate.Empty().WithResults(
		"sunny loft",
		&filter.Set{MinBeds: filter.Float(2)},
		[]string{"https://img/1.jpg"},
		[]string{"1", "2", "3"},
	)
}

func TestKey(t *testing.T) {
	if got := Key(""); got != "vibesearch_state" {
		t.Errorf("Key(\"\") = %q", got)
	}
	if got := Key("abc"); got != "vibesearch:state:abc:vibesearch_state" {
		t.Errorf("Key(abc) = %q", got)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s, ms, now := newTestStore(t)
	ctx := context.Background()
	want := sampleState()

	if err := s.Save(ctx, "abc", want); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ms.ttls[Key("abc")] != 24*time.Hour {
		t.Errorf("backend TTL = %s", ms.ttls[Key("abc")])
	}

	*now = now.Add(23 * time.Hour)
	got, ok, err := s.Load(ctx, "abc")
	if err != nil || !ok {
		t.Fatalf("load = %v, %v", ok, err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\ngot:  %+v\nwant: %+v", got, want)
	}
}

func TestSave_StoredFormat(t *testing.T) {
	s, ms, _ := newTestStore(t)
	if err := s.Save(context.Background(), "", sampleState()); err != nil {
		t.Fatalf("save: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(ms.data["vibesearch_state"], &raw); err != nil {
		t.Fatalf("stored value is not JSON: %v", err)
	}
	if raw["lastUpdated"] != "2026-03-01T09:00:00Z" {
		t.Errorf("lastUpdated = %v", raw["lastUpdated"])
	}
	if raw["searchTerm"] != "sunny loft" || raw["searchType"] != "both" {
		t.Errorf("unexpected stored state: %v", raw)
	}
}

func TestLoad_Missing(t *testing.T) {
	s, _, _ := newTestStore(t)
	_, ok, err := s.Load(context.Background(), "abc")
	if err != nil || ok {
		t.Fatalf("load = %v, %v; want absent", ok, err)
	}
}

func TestLoad_StaleIsCleared(t *testing.T) {
	s, ms, now := newTestStore(t)
	ctx := context.Background()
	_ = s.Save(ctx, "abc", sampleState())

	*now = now.Add(24 * time.Hour)
	_, ok, err := s.Load(ctx, "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("stale state must be absent")
	}
	if _, exists := ms.data[Key("abc")]; exists {
		t.Error("stale state must be deleted")
	}
}

func TestLoad_CorruptIsCleared(t *testing.T) {
	s, ms, _ := newTestStore(t)
	ms.data[Key("abc")] = []byte("{not json")

	_, ok, err := s.Load(context.Background(), "abc")
	if err != nil || ok {
		t.Fatalf("load = %v, %v; want absent", ok, err)
	}
	if ms.dels != 1 {
		t.Errorf("expected one delete, got %d", ms.dels)
	}
}

func TestLoad_StoreError(t *testing.T) {
	s, ms, _ := newTestStore(t)
	ms.getFn = func(context.Context, string) ([]byte, error) {
		return nil, errors.New("connection refused")
	}
	if _, _, err := s.Load(context.Background(), "abc"); err == nil {
		t.Fatal("expected error")
	}
}

func TestClear(t *testing.T) {
	s, ms, _ := newTestStore(t)
	ctx := context.Background()
	_ = s.Save(ctx, "abc", sampleState())

	if err := s.Clear(ctx, "abc"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(ms.data) != 0 {
		t.Errorf("expected empty store, got %v", ms.data)
	}
}
