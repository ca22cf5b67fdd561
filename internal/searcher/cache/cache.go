// Package cache keeps ranked results in Redis so repeated evaluation runs
// over the same index skip ranking. Keys are scoped by the index fingerprint,
// so a rebuilt index never serves stale rankings.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/redis"
)

const keyPrefix = "rank:"

// Backend is the key-value store behind the cache. *redis.Client
// implements it.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type RankCache struct {
	backend   Backend
	ttl       time.Duration
	namespace string
	group     singleflight.Group
	metrics   *metrics.Metrics
	logger    *slog.Logger
	hits      atomic.Int64
	misses    atomic.Int64
}

// New creates a cache whose keys live under namespace, normally the index
// fingerprint.
func New(backend Backend, ttl time.Duration, namespace string, m *metrics.Metrics) *RankCache {
	if m == nil {
		m = metrics.NewNop()
	}
	return &RankCache{
		backend:   backend,
		ttl:       ttl,
		namespace: namespace,
		metrics:   m,
		logger:    slog.Default().With("component", "rank-cache"),
	}
}

func (c *RankCache) Get(ctx context.Context, model string, tokens []string, limit int) (*executor.SearchResult, bool) {
	key := c.buildKey(model, tokens, limit)
	data, err := c.backend.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return nil, false
	}
	var result executor.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hits.Add(1)
	c.metrics.RankCacheHitsTotal.Inc()
	c.logger.Debug("cache hit", "model", model, "key", key)
	return &result, true
}

func (c *RankCache) Set(ctx context.Context, model string, tokens []string, limit int, result *executor.SearchResult) {
	key := c.buildKey(model, tokens, limit)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.backend.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns a cached ranking or computes and stores it.
// Concurrent misses for the same key share one computation.
func (c *RankCache) GetOrCompute(
	ctx context.Context,
	model string,
	tokens []string,
	limit int,
	computeFn func() (*executor.SearchResult, error),
) (*executor.SearchResult, bool, error) {
	if result, ok := c.Get(ctx, model, tokens, limit); ok {
		return result, true, nil
	}
	key := c.buildKey(model, tokens, limit)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, model, tokens, limit, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*executor.SearchResult), false, nil
}

// Invalidate drops every ranking of this namespace.
func (c *RankCache) Invalidate(ctx context.Context) error {
	pattern := keyPrefix + c.namespace + ":*"
	deleted, err := c.backend.FlushByPattern(ctx, pattern)
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidate", "keys_deleted", deleted)
	return nil
}

func (c *RankCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *RankCache) miss() {
	c.misses.Add(1)
	c.metrics.RankCacheMissesTotal.Inc()
}

// buildKey ignores token order: rankings depend on term counts only.
func (c *RankCache) buildKey(model string, tokens []string, limit int) string {
	sorted := make([]string, len(tokens))
	copy(sorted, tokens)
	sort.Strings(sorted)
	raw := fmt.Sprintf("%s|%s|limit=%d", model, strings.Join(sorted, ","), limit)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%s:%x", keyPrefix, c.namespace, hash[:16])
}

// Executor puts a RankCache in front of an executor.Executor.
type Executor struct {
	exec  *executor.Executor
	cache *RankCache
}

func NewExecutor(exec *executor.Executor, cache *RankCache) *Executor {
	return &Executor{exec: exec, cache: cache}
}

func (e *Executor) Execute(ctx context.Context, model executor.Model, query string, limit int) (*executor.SearchResult, error) {
	tokens := e.exec.Engine().Analyzer().Analyze(query)
	result, _, err := e.cache.GetOrCompute(ctx, model.Name, tokens, limit, func() (*executor.SearchResult, error) {
		return e.exec.ExecuteTokens(ctx, model, tokens, limit)
	})
	if err != nil {
		return nil, err
	}
	out := *result
	out.Query = query
	return &out, nil
}
