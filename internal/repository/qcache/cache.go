// Package qcache caches query-understanding results in a key-value store,
// keyed by a hash of the raw query. Repeated queries skip the language model.
package qcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/osool-guide/codifier/internal/db"
	"github.com/osool-guide/codifier/internal/domain"
)

const cacheKeyPrefix = "codifier:query_cache:"

type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// entry is the stored representation of an understanding. Degraded results
// are never cached, so the flag is not persisted.
type entry struct {
	CanonicalQuery string            `json:"canonical_query"`
	Attributes     map[string]string `json:"attributes,omitempty"`
}

// Cache stores query understandings in a key-value store.
type Cache struct {
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates an understanding cache.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(s store, ttl time.Duration, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Cache {
	return &Cache{store: s, ttl: ttl, cacheTotal: cacheTotal, logger: logger}
}

// Get returns the cached understanding for a raw query, if present.
func (c *Cache) Get(ctx context.Context, rawQuery string) (domain.Understanding, bool) {
	key := c.cacheKey(rawQuery)

	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached understanding", zap.String("key", key), zap.Error(err))
		}
		c.incCache("miss")
		return domain.Understanding{}, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		c.logger.Warn("Failed to parse cached understanding", zap.String("key", key), zap.Error(err))
		c.incCache("miss")
		return domain.Understanding{}, false
	}

	c.incCache("hit")
	return domain.Understanding{
		CanonicalQuery: e.CanonicalQuery,
		Attributes:     e.Attributes,
	}, true
}

// Put stores an understanding. Degraded results are not cached: they carry
// no model output worth reusing.
func (c *Cache) Put(ctx context.Context, rawQuery string, u domain.Understanding) {
	if u.Degraded {
		return
	}

	data, err := json.Marshal(entry{
		CanonicalQuery: u.CanonicalQuery,
		Attributes:     u.Attributes,
	})
	if err != nil {
		c.logger.Warn("Failed to encode understanding", zap.Error(err))
		return
	}

	key := c.cacheKey(rawQuery)
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache understanding", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *Cache) cacheKey(rawQuery string) string {
	h := sha256.Sum256([]byte(rawQuery))
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}
