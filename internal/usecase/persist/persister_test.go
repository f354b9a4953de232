package persist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vibesearch/internal/domain/search/state"
)

func performed(query string, ids ...string) state.State {
	return state.Empty().WithResults(query, nil, nil, ids)
}

func waitSaved(t *testing.T, ms *mockStore) {
	t.Helper()
	select {
	case <-ms.savedCh:
	case <-time.After(time.Second):
		t.Fatal("state was not saved")
	}
}

func TestSave_DebouncesToLatest(t *testing.T) {
	ms := newMockStore()
	writes := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_state_writes"}, []string{"status"})
	p := New(ms, "s1", 20*time.Millisecond, writes, zap.NewNop())

	p.Save(performed("a", "1"))
	p.Save(performed("b", "1", "2"))
	p.Save(performed("c", "1", "2", "3"))
	waitSaved(t, ms)
	time.Sleep(40 * time.Millisecond)

	if ms.saveCount() != 1 {
		t.Errorf("saves = %d, want 1", ms.saveCount())
	}
	st, ok, _ := p.Load(context.Background())
	if !ok || st.QueryText != "c" || len(st.ResultIDs) != 3 {
		t.Errorf("latest state not saved: %+v", st)
	}
	if v := testutil.ToFloat64(writes.WithLabelValues("ok")); v != 1 {
		t.Errorf("ok writes = %v", v)
	}
}

func TestSave_IgnoresUnperformed(t *testing.T) {
	ms := newMockStore()
	p := New(ms, "s1", time.Millisecond, nil, zap.NewNop())

	p.Save(state.Empty().Seed("loft", nil, nil))
	if err := p.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if ms.saveCount() != 0 {
		t.Error("unperformed state must not schedule a write")
	}
}

func TestFlush(t *testing.T) {
	ms := newMockStore()
	p := New(ms, "s1", time.Hour, nil, zap.NewNop())
	ctx := context.Background()

	if err := p.Flush(ctx); err != nil {
		t.Fatalf("flush with nothing pending: %v", err)
	}
	if ms.saveCount() != 0 {
		t.Fatal("nothing to flush")
	}

	p.Save(performed("loft", "1"))
	if err := p.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if ms.saveCount() != 1 {
		t.Errorf("saves = %d, want 1", ms.saveCount())
	}
	if err := p.Flush(ctx); err != nil {
		t.Fatalf("second flush: %v", err)
	}
	if ms.saveCount() != 1 {
		t.Error("flush must consume the pending write")
	}
}

func TestFlush_Error(t *testing.T) {
	ms := newMockStore()
	ms.saveErr = errors.New("down")
	writes := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_state_writes_err"}, []string{"status"})
	p := New(ms, "s1", time.Hour, writes, zap.NewNop())

	p.Save(performed("loft", "1"))
	if err := p.Flush(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if v := testutil.ToFloat64(writes.WithLabelValues("error")); v != 1 {
		t.Errorf("error writes = %v", v)
	}
}

func TestClear_CancelsPending(t *testing.T) {
	ms := newMockStore()
	p := New(ms, "s1", 20*time.Millisecond, nil, zap.NewNop())
	ctx := context.Background()

	p.Save(performed("loft", "1"))
	if err := p.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if ms.saveCount() != 0 {
		t.Error("pending write must be cancelled")
	}
	if _, ok, _ := p.Load(ctx); ok {
		t.Error("state must be absent after clear")
	}
}
