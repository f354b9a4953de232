package persist

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vibesearch/internal/domain/search/state"
)

// DefaultDebounce is the quiet period before a save is written.
const DefaultDebounce = 500 * time.Millisecond

const writeTimeout = 5 * time.Second

// Store is the storage port for one session's search state.
type Store interface {
	Save(ctx context.Context, session string, st state.State) error
	Load(ctx context.Context, session string) (state.State, bool, error)
	Clear(ctx context.Context, session string) error
}

// Persister saves a session's search state, coalescing bursts of changes.
type Persister struct {
	store   Store
	session string
	writes  *prometheus.CounterVec
	logger  *zap.Logger
	deb     *Debouncer

	mu     sync.Mutex
	latest state.State
}

// New creates a Persister for session. writes is a counter vec with label
// "status" ("ok"/"error"), passed explicitly; it may be nil.
func New(
	store Store, session string, debounce time.Duration,
	writes *prometheus.CounterVec, logger *zap.Logger,
) *Persister {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	p := &Persister{store: store, session: session, writes: writes, logger: logger}
	p.deb = NewDebouncer(debounce, p.writeLatest)
	return p
}

// Save schedules a write of st. States without a performed search are ignored.
func (p *Persister) Save(st state.State) {
	if !st.SearchPerformed {
		return
	}
	p.mu.Lock()
	p.latest = st
	p.mu.Unlock()
	p.deb.Trigger()
}

// Load returns the saved state; see the state repository for freshness rules.
func (p *Persister) Load(ctx context.Context) (state.State, bool, error) {
	st, ok, err := p.store.Load(ctx, p.session)
	if err != nil {
		return state.State{}, false, fmt.Errorf("load state: %w", err)
	}
	return st, ok, nil
}

// Clear cancels a pending write and removes the saved state.
func (p *Persister) Clear(ctx context.Context) error {
	p.deb.Cancel()
	if err := p.store.Clear(ctx, p.session); err != nil {
		return fmt.Errorf("clear state: %w", err)
	}
	return nil
}

// Flush writes a pending save now.
func (p *Persister) Flush(ctx context.Context) error {
	if !p.deb.Cancel() {
		return nil
	}
	return p.write(ctx)
}

func (p *Persister) writeLatest() {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := p.write(ctx); err != nil {
		p.logger.Warn("Search state write failed", zap.String("session", p.session), zap.Error(err))
	}
}

func (p *Persister) write(ctx context.Context) error {
	p.mu.Lock()
	st := p.latest
	p.mu.Unlock()

	if err := p.store.Save(ctx, p.session, st); err != nil {
		p.incWrites("error")
		return fmt.Errorf("save state: %w", err)
	}
	p.incWrites("ok")
	p.logger.Debug("Search state saved",
		zap.String("session", p.session), zap.Int("ids", len(st.ResultIDs)))
	return nil
}

func (p *Persister) incWrites(status string) {
	if p.writes != nil {
		p.writes.WithLabelValues(status).Inc()
	}
}
