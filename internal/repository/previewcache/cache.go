// Package previewcache memoizes property previews keyed by (id, query).
package previewcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/vibesearch/internal/db"
	"github.com/kailas-cloud/vibesearch/internal/domain"
	"github.com/kailas-cloud/vibesearch/internal/domain/property"
)

var cacheKeyPrefix = domain.KeyPrefix + "preview:"

// store is the consumer interface for the preview cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// previewer fetches a preview from the gateway.
type previewer interface {
	Preview(ctx context.Context, id, queryHint string) (property.Preview, error)
}

type entry struct {
	Preview   property.Preview `json:"preview"`
	FetchedAt int64            `json:"fetchedAt"` // unix millis
}

// Options sets the cache windows.
type Options struct {
	// Fresh is how long an entry is served without asking the gateway.
	Fresh time.Duration
	// Retain is how long an entry is kept to be served when the gateway fails.
	Retain time.Duration
}

// CachedPreviewer serves previews from a key-value store and falls back to
// stale entries when a refresh fails.
type CachedPreviewer struct {
	inner      previewer
	store      store
	fresh      time.Duration
	retain     time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
	group      singleflight.Group
	now        func() time.Time
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"/"stale"), passed explicitly.
func New(
	inner previewer,
	s store,
	opts Options,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedPreviewer {
	if opts.Fresh <= 0 {
		opts.Fresh = 5 * time.Minute
	}
	if opts.Retain < opts.Fresh {
		opts.Retain = 6 * opts.Fresh
	}
	return &CachedPreviewer{
		inner:      inner,
		store:      s,
		fresh:      opts.Fresh,
		retain:     opts.Retain,
		cacheTotal: cacheTotal,
		logger:     logger,
		now:        time.Now,
	}
}

// Preview returns a fresh cached preview, or fetches one. Concurrent misses
// for the same key share a single gateway call.
func (c *CachedPreviewer) Preview(ctx context.Context, id, queryHint string) (property.Preview, error) {
	key := c.cacheKey(id, queryHint)

	cached, age, ok := c.getFromCache(ctx, key)
	if ok && age < c.fresh {
		c.incCache("hit")
		return cached, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		p, err := c.inner.Preview(ctx, id, queryHint)
		if err != nil {
			return property.Preview{}, err
		}
		c.putToCache(ctx, key, p)
		return p, nil
	})
	if err != nil {
		if ok && age < c.retain {
			c.incCache("stale")
			c.logger.Warn("Serving stale preview",
				zap.String("id", id), zap.Duration("age", age), zap.Error(err))
			return cached, nil
		}
		c.incCache("miss")
		return property.Preview{}, fmt.Errorf("fetch preview %s: %w", id, err)
	}

	c.incCache("miss")
	p, _ := v.(property.Preview)
	return p, nil
}

func (c *CachedPreviewer) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedPreviewer) cacheKey(id, queryHint string) string {
	h := sha256.Sum256([]byte(queryHint))
	return cacheKeyPrefix + id + ":" + hex.EncodeToString(h[:8])
}

func (c *CachedPreviewer) getFromCache(ctx context.Context, key string) (property.Preview, time.Duration, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Preview cache read failed", zap.String("key", key), zap.Error(err))
		}
		return property.Preview{}, 0, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		c.logger.Warn("Preview cache entry corrupted", zap.String("key", key), zap.Error(err))
		return property.Preview{}, 0, false
	}
	return e.Preview, c.now().Sub(time.UnixMilli(e.FetchedAt)), true
}

func (c *CachedPreviewer) putToCache(ctx context.Context, key string, p property.Preview) {
	data, err := json.Marshal(entry{Preview: p, FetchedAt: c.now().UnixMilli()})
	if err != nil {
		c.logger.Warn("Preview cache marshal failed", zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.retain); err != nil {
		c.logger.Warn("Preview cache write failed", zap.String("key", key), zap.Error(err))
	}
}
