package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vibesearch/internal/db"
	"github.com/kailas-cloud/vibesearch/internal/domain"
	searchstate "github.com/kailas-cloud/vibesearch/internal/domain/search/state"
)

// store is the consumer interface for persisted search state (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// record is the stored JSON: the state fields plus an ISO-8601 timestamp.
type record struct {
	searchstate.State
	LastUpdated string `json:"lastUpdated"`
}

// Store keeps one search state per session with a freshness TTL.
// The TTL is enforced at read time; the backend expiry only reclaims space.
type Store struct {
	store  store
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// New creates a state store. ttl is how long a saved state stays valid (24h by default).
func New(s store, ttl time.Duration, logger *zap.Logger) *Store {
	return &Store{store: s, ttl: ttl, now: time.Now, logger: logger}
}

// Key returns the storage key for a session. The empty session maps to the bare key.
func Key(session string) string {
	if session == "" {
		return domain.StateKey
	}
	return domain.KeyPrefix + "state:" + session + ":" + domain.StateKey
}

// Save writes the state stamped with the current time.
func (s *Store) Save(ctx context.Context, session string, st searchstate.State) error {
	data, err := json.Marshal(record{State: st, LastUpdated: s.now().UTC().Format(time.RFC3339Nano)})
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := s.store.SetWithTTL(ctx, Key(session), data, s.ttl); err != nil {
		return fmt.Errorf("state SET %s: %w", session, err)
	}
	return nil
}

// Load returns the saved state. It reports false when nothing is saved, and
// also when the entry is as old as the TTL or unreadable; such entries are deleted.
func (s *Store) Load(ctx context.Context, session string) (searchstate.State, bool, error) {
	key := Key(session)
	data, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return searchstate.State{}, false, nil
		}
		return searchstate.State{}, false, fmt.Errorf("state GET %s: %w", session, err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.logger.Warn("Discarding unreadable search state", zap.String("key", key), zap.Error(err))
		return searchstate.State{}, false, s.Clear(ctx, session)
	}
	updated, err := time.Parse(time.RFC3339Nano, rec.LastUpdated)
	if err != nil || s.now().Sub(updated) >= s.ttl {
		return searchstate.State{}, false, s.Clear(ctx, session)
	}
	return rec.State.Restored(), true, nil
}

// Clear removes the saved state.
func (s *Store) Clear(ctx context.Context, session string) error {
	if err := s.store.Del(ctx, Key(session)); err != nil {
		return fmt.Errorf("state DEL %s: %w", session, err)
	}
	return nil
}
