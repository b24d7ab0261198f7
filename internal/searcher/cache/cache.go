// Package cache memoises query results for the search service. Concurrent
// identical queries are collapsed into one execution.
package cache

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/invindex/internal/searcher/ranker"
)

const keyPrefix = "search:"

// Query kinds. Free-text queries are whitespace normalised; document
// queries are keyed on their exact canonical encoding.
const (
	KindQuery    = "query"
	KindDocument = "document"
)

// QueryCache holds complete, unlimited hit sets keyed by kind, field and
// normalised query text. When full it is emptied before the next insert.
type QueryCache struct {
	maxEntries int
	group      singleflight.Group
	mu         sync.RWMutex
	entries    map[string]ranker.Hits
	logger     *slog.Logger
	hits       atomic.Int64
	misses     atomic.Int64
}

func New(maxEntries int) *QueryCache {
	return &QueryCache{
		maxEntries: maxEntries,
		entries:    make(map[string]ranker.Hits),
		logger:     slog.Default().With("component", "query-cache"),
	}
}

func (c *QueryCache) Get(kind, field, query string) (ranker.Hits, bool) {
	key := buildKey(kind, field, query)
	c.mu.RLock()
	hits, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "kind", kind, "field", field, "key", key)
	return hits, true
}

func (c *QueryCache) Set(kind, field, query string, hits ranker.Hits) {
	if c.maxEntries <= 0 {
		return
	}
	key := buildKey(kind, field, query)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.maxEntries {
		c.logger.Debug("cache full, evicting", "entries", len(c.entries))
		c.entries = make(map[string]ranker.Hits)
	}
	c.entries[key] = hits
}

// GetOrCompute returns the cached hits for the query or runs computeFn
// once for all concurrent callers asking the same thing.
func (c *QueryCache) GetOrCompute(kind, field, query string, computeFn func() (ranker.Hits, error)) (ranker.Hits, bool, error) {
	if hits, ok := c.Get(kind, field, query); ok {
		return hits, true, nil
	}
	key := buildKey(kind, field, query)
	val, err, _ := c.group.Do(key, func() (any, error) {
		hits, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(kind, field, query, hits)
		return hits, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(ranker.Hits), false, nil
}

func (c *QueryCache) Invalidate() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[string]ranker.Hits)
	c.logger.Info("cache invalidate", "entries_deleted", n)
	return n
}

func (c *QueryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func buildKey(kind, field, query string) string {
	if kind != KindDocument {
		query = normalizeQuery(query)
	}
	raw := fmt.Sprintf("%s|%s|%s", kind, field, query)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

// normalizeQuery folds whitespace runs so "quick  fox" and "quick fox"
// share an entry. Case is kept: analysis may be case sensitive.
func normalizeQuery(query string) string {
	return strings.Join(strings.Fields(query), " ")
}
