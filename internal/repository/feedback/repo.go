package feedback

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/kailas-cloud/vibesearch/internal/domain"
	domfb "github.com/kailas-cloud/vibesearch/internal/domain/feedback"
)

// store is the consumer interface for feedback (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo stores feedback entries as hashes.
type Repo struct {
	store store
}

// New creates a feedback repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Save stores an entry under its id.
func (r *Repo) Save(ctx context.Context, e domfb.Entry) error {
	if err := r.store.HSet(ctx, entryKey(e.ID()), entryToHash(e)); err != nil {
		return fmt.Errorf("hset feedback %s: %w", e.ID(), err)
	}
	return nil
}

// List returns all entries, newest first.
func (r *Repo) List(ctx context.Context) ([]domfb.Entry, error) {
	keys, err := r.store.Scan(ctx, entryKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan feedback: %w", err)
	}
	if len(keys) == 0 {
		return []domfb.Entry{}, nil
	}

	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi feedback: %w", err)
	}

	entries := make([]domfb.Entry, 0, len(results))
	for i, m := range results {
		if len(m) == 0 {
			continue
		}
		e, err := entryFromHash(m)
		if err != nil {
			return nil, fmt.Errorf("parse feedback %s: %w", keys[i], err)
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt() > entries[j].CreatedAt()
	})
	return entries, nil
}

func entryKey(id string) string {
	return domain.KeyPrefix + "feedback:" + id
}

func entryToHash(e domfb.Entry) map[string]string {
	return map[string]string{
		"id":         e.ID(),
		"category":   string(e.Category()),
		"feedback":   e.Text(),
		"user_id":    e.UserID(),
		"created_at": strconv.FormatInt(e.CreatedAt(), 10),
	}
}

func entryFromHash(m map[string]string) (domfb.Entry, error) {
	createdAt, err := strconv.ParseInt(m["created_at"], 10, 64)
	if err != nil {
		return domfb.Entry{}, fmt.Errorf("parse created_at: %w", err)
	}
	return domfb.Reconstruct(m["id"], domfb.Category(m["category"]), m["feedback"], m["user_id"], createdAt), nil
}
