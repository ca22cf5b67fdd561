package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/resilience"
)

type recordingBackend struct {
	mu      sync.Mutex
	flushed []string
	getErr  error
}

func (b *recordingBackend) Get(context.Context, string) ([]byte, error) {
	return nil, b.getErr
}

func (b *recordingBackend) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

func (b *recordingBackend) FlushByPattern(_ context.Context, pattern string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.flushed = append(b.flushed, pattern)
	return 0, nil
}

func testApp(rebuild bool) *app {
	cfg := &config.Config{}
	cfg.Indexer.Rebuild = rebuild
	cfg.Redis.CacheTTL = time.Minute
	return &app{cfg: cfg, format: "text", metrics: metrics.NewNop()}
}

func TestRankCacheInvalidatedOnRebuild(t *testing.T) {
	tests := []struct {
		rebuild bool
		want    []string
	}{
		{false, nil},
		{true, []string{"rank:fp1:*"}},
	}
	for _, tt := range tests {
		backend := &recordingBackend{}
		testApp(tt.rebuild).rankCache(context.Background(), backend, "fp1")
		if len(backend.flushed) != len(tt.want) || (len(tt.want) > 0 && backend.flushed[0] != tt.want[0]) {
			t.Errorf("rebuild=%v: flushed %v, want %v", tt.rebuild, backend.flushed, tt.want)
		}
	}
}

func TestRankCacheBreakerStateIsExported(t *testing.T) {
	a := testApp(false)
	rc := a.rankCache(context.Background(), &recordingBackend{getErr: errors.New("connection refused")}, "fp1")
	for i := 0; i < 3; i++ {
		if _, ok := rc.Get(context.Background(), "atc.atc", []string{"cat"}, 10); ok {
			t.Fatal("unexpected hit")
		}
	}
	got := testutil.ToFloat64(a.metrics.CircuitBreakerState.WithLabelValues("redis"))
	if got != float64(resilience.StateOpen) {
		t.Errorf("breaker state gauge = %v, want %v", got, float64(resilience.StateOpen))
	}
}
