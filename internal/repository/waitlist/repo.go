package waitlist

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/vibesearch/internal/domain"
	domwl "github.com/kailas-cloud/vibesearch/internal/domain/waitlist"
)

// store is the consumer interface for the waitlist (ISP).
type store interface {
	SetNX(ctx context.Context, key string, value []byte) (bool, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
}

// Repo stores waitlist entries as hashes keyed by the normalized email.
type Repo struct {
	store store
}

// New creates a waitlist repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Add stores an entry. A second sign-up for the same email returns
// domain.ErrAlreadyExists. The claim key makes the check atomic across replicas.
func (r *Repo) Add(ctx context.Context, e domwl.Entry) error {
	claimed, err := r.store.SetNX(ctx, claimKey(e.Email()), []byte(e.ID()))
	if err != nil {
		return fmt.Errorf("claim waitlist %s: %w", e.Email(), err)
	}
	if !claimed {
		return domain.ErrAlreadyExists
	}

	// HSET, rolling back the claim on error
	if err := r.store.HSet(ctx, entryKey(e.Email()), entryToHash(e)); err != nil {
		cleanupErr := r.store.Del(ctx, claimKey(e.Email()))
		return errors.Join(fmt.Errorf("hset waitlist %s: %w", e.Email(), err), cleanupErr)
	}
	return nil
}

// Get returns the entry for an email.
func (r *Repo) Get(ctx context.Context, email string) (domwl.Entry, error) {
	email = domwl.NormalizeEmail(email)
	m, err := r.store.HGetAll(ctx, entryKey(email))
	if err != nil {
		return domwl.Entry{}, fmt.Errorf("hgetall waitlist %s: %w", email, err)
	}
	if len(m) == 0 {
		return domwl.Entry{}, domain.ErrNotFound
	}
	return entryFromHash(m)
}

// Valkey key patterns: vibesearch:waitlist:{email}, vibesearch:waitlist_claim:{email}

func entryKey(email string) string {
	return domain.KeyPrefix + "waitlist:" + email
}

func claimKey(email string) string {
	return domain.KeyPrefix + "waitlist_claim:" + email
}

func entryToHash(e domwl.Entry) map[string]string {
	return map[string]string{
		"id":         e.ID(),
		"email":      e.Email(),
		"vibe":       e.Vibe(),
		"created_at": strconv.FormatInt(e.CreatedAt(), 10),
	}
}

func entryFromHash(m map[string]string) (domwl.Entry, error) {
	createdAt, err := strconv.ParseInt(m["created_at"], 10, 64)
	if err != nil {
		return domwl.Entry{}, fmt.Errorf("parse created_at: %w", err)
	}
	return domwl.Reconstruct(m["id"], m["email"], m["vibe"], createdAt), nil
}
