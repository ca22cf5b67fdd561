package cache

import (
	"context"
	"time"

	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/resilience"
)

// GuardedBackend stops calling a failing backend for a while. Once the
// breaker opens every call fails fast with resilience.ErrCircuitOpen, which
// the RankCache treats as a miss, so ranking continues without Redis.
type GuardedBackend struct {
	backend Backend
	breaker *resilience.CircuitBreaker
}

func NewGuardedBackend(backend Backend, breaker *resilience.CircuitBreaker) *GuardedBackend {
	return &GuardedBackend{backend: backend, breaker: breaker}
}

func (g *GuardedBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		data   []byte
		getErr error
	)
	err := g.breaker.Execute(func() error {
		data, getErr = g.backend.Get(ctx, key)
		if redis.IsNilError(getErr) {
			return nil
		}
		return getErr
	})
	if err != nil {
		return nil, err
	}
	return data, getErr
}

func (g *GuardedBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return g.breaker.Execute(func() error {
		return g.backend.Set(ctx, key, value, ttl)
	})
}

func (g *GuardedBackend) FlushByPattern(ctx context.Context, pattern string) (int64, error) {
	var n int64
	err := g.breaker.Execute(func() error {
		var err error
		n, err = g.backend.FlushByPattern(ctx, pattern)
		return err
	})
	return n, err
}
