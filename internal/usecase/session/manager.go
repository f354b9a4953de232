// Package session keeps one search session per client.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vibesearch/internal/domain"
	"github.com/kailas-cloud/vibesearch/internal/usecase/mapview"
	"github.com/kailas-cloud/vibesearch/internal/usecase/pager"
	"github.com/kailas-cloud/vibesearch/internal/usecase/persist"
	"github.com/kailas-cloud/vibesearch/internal/usecase/search"
)

// Config configures the sessions a Manager creates.
type Config struct {
	PageSize    int
	ListPageLen int
	MapPageLen  int
	Debounce    time.Duration
	IdleTimeout time.Duration
	// Map configures every projector. Its Logger is replaced per session.
	Map    mapview.Options
	Writes *prometheus.CounterVec
	Logger *zap.Logger
}

// Manager creates, restores and evicts sessions.
type Manager struct {
	gateway   search.Gateway
	previewer mapview.Previewer
	store     persist.Store
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a Manager.
func NewManager(gw search.Gateway, previewer mapview.Previewer, store persist.Store, cfg Config) *Manager {
	if cfg.ListPageLen <= 0 {
		cfg.ListPageLen = pager.ListPageLen
	}
	if cfg.MapPageLen <= 0 {
		cfg.MapPageLen = pager.MapPageLen
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 30 * time.Minute
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		gateway:   gw,
		previewer: previewer,
		store:     store,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		sessions:  map[string]*Session{},
	}
}

// Open returns the session for id, creating it on first use. A new session
// restores its saved state when one is fresh; otherwise a non-empty seed
// starts the first search. Later opens ignore the seed. When the seed search
// fails the session is still returned with the error.
func (m *Manager) Open(ctx context.Context, id string, seed Seed) (*Session, error) {
	if id == "" {
		return nil, domain.InvalidInput("session id is required")
	}

	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		s = m.newSession(id)
		m.sessions[id] = s
	}
	m.mu.Unlock()
	s.touch(m.now())

	s.initOnce.Do(func() { s.initErr = m.initialize(ctx, s, seed) })
	if ok {
		return s, nil
	}
	return s, s.initErr
}

// Get returns the session for id without seeding it.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	return m.Open(ctx, id, Seed{})
}

func (m *Manager) initialize(ctx context.Context, s *Session, seed Seed) error {
	st, found, err := s.Persister.Load(ctx)
	if err != nil {
		m.logger.Warn("Saved search state unavailable", zap.String("session", s.ID), zap.Error(err))
	}
	if found {
		s.Orchestrator.Restore(st)
		m.logger.Debug("Session restored",
			zap.String("session", s.ID), zap.Int("ids", len(st.ResultIDs)))
		return nil
	}
	if seed.IsEmpty() {
		return nil
	}

	if _, err := s.Search(ctx, nil, seed.Query, seed.ImageURLs); err != nil {
		return fmt.Errorf("seed search: %w", err)
	}
	if seed.View == MapView {
		s.ResolveMap(ctx)
	}
	return nil
}

func (m *Manager) newSession(id string) *Session {
	logger := m.logger.With(zap.String("session", id))
	p := persist.New(m.store, id, m.cfg.Debounce, m.cfg.Writes, logger)
	orch := search.New(m.gateway, search.Options{
		PageSize: m.cfg.PageSize,
		OnChange: p.Save,
		Logger:   logger,
	})
	mapOpts := m.cfg.Map
	mapOpts.Logger = logger
	return &Session{
		ID:           id,
		Orchestrator: orch,
		List:         pager.New(orch, m.cfg.ListPageLen),
		Map:          pager.New(orch, m.cfg.MapPageLen),
		Projector:    mapview.New(m.previewer, mapOpts),
		Persister:    p,
		previewer:    m.previewer,
		logger:       logger,
	}
}

// Reset clears a session's state, pagers, projection and saved entry.
// Saved state is cleared even when the session is not in memory.
func (m *Manager) Reset(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		if err := m.store.Clear(ctx, id); err != nil {
			return fmt.Errorf("clear state: %w", err)
		}
		return nil
	}
	s.touch(m.now())
	return s.reset(ctx)
}

// Sweep evicts sessions idle longer than the idle timeout. Pending writes are
// flushed first, so an evicted session restores on its next open.
func (m *Manager) Sweep(ctx context.Context, now time.Time) int {
	m.mu.Lock()
	var evicted []*Session
	for id, s := range m.sessions {
		if now.Sub(s.idleSince()) > m.cfg.IdleTimeout {
			evicted = append(evicted, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range evicted {
		m.release(ctx, s)
	}
	if len(evicted) > 0 {
		m.logger.Info("Evicted idle sessions", zap.Int("count", len(evicted)))
	}
	return len(evicted)
}

// RunSweeper sweeps every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			m.Sweep(ctx, t)
		}
	}
}

// Close flushes and releases every session.
func (m *Manager) Close(ctx context.Context) {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		all = append(all, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range all {
		m.release(ctx, s)
	}
}

// Len returns the number of sessions in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) release(ctx context.Context, s *Session) {
	if err := s.Persister.Flush(ctx); err != nil {
		m.logger.Warn("Flush on release failed", zap.String("session", s.ID), zap.Error(err))
	}
	s.Projector.Close()
}
