package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/evaluation/publisher"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/evaluation/runstore"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/resilience"
)

const sinkTimeout = 10 * time.Second

// app holds what every command needs: configuration, metrics and the
// cleanup functions of whatever services were opened.
type app struct {
	cfg     *config.Config
	format  string
	metrics *metrics.Metrics
	closers []func() error
}

func newApp(cmd *cobra.Command) (*app, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrInvalidInput, err.Error())
	}
	if flags.Changed("rebuild") {
		cfg.Indexer.Rebuild, _ = flags.GetBool("rebuild")
	}
	format, _ := flags.GetString("format")
	if format != "text" && format != "json" {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "unknown output format %q", format)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	a := &app{cfg: cfg, format: format}
	if cfg.Metrics.Enabled {
		a.metrics = metrics.New(nil)
		srv, err := metrics.StartServer(cfg.Metrics.Port)
		if err != nil {
			slog.Warn("metrics endpoint disabled", "error", err)
		} else {
			a.closers = append(a.closers, func() error {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(ctx)
			})
		}
	} else {
		a.metrics = metrics.NewNop()
	}
	return a, nil
}

// Close runs the cleanup functions in reverse order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("cleanup failed", "error", err)
		}
	}
}

func (a *app) analyzer() (tokenizer.Analyzer, error) {
	stop := tokenizer.DefaultStopWords()
	if path := a.cfg.Corpus.StopWordsFile; path != "" {
		var err error
		stop, err = tokenizer.LoadStopWords(path)
		if err != nil {
			return nil, apperrors.New(apperrors.ErrInvalidInput, err.Error())
		}
	}
	return tokenizer.NewEnglish(tokenizer.Options{StopWords: stop}), nil
}

func (a *app) openEngine(ctx context.Context) (*indexer.Engine, error) {
	analyzer, err := a.analyzer()
	if err != nil {
		return nil, err
	}
	return indexer.Open(ctx, a.cfg.Indexer, a.cfg.Corpus.DocsDir, analyzer, a.metrics)
}

// searcher returns the executor, fronted by the Redis rank cache when it is
// enabled and reachable.
func (a *app) searcher(ctx context.Context, engine *indexer.Engine) evaluation.Searcher {
	exec := executor.New(engine, a.metrics)
	if !a.cfg.Redis.Enabled {
		return exec
	}
	client, err := pkgredis.NewClient(ctx, a.cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, rank caching disabled", "error", err)
		return exec
	}
	a.closers = append(a.closers, client.Close)
	return cache.NewExecutor(exec, a.rankCache(ctx, client, engine.Fingerprint()))
}

// rankCache puts backend behind a circuit breaker. A rebuild drops every
// ranking cached under fingerprint.
func (a *app) rankCache(ctx context.Context, backend cache.Backend, fingerprint string) *cache.RankCache {
	breaker := resilience.NewCircuitBreaker("redis", resilience.CircuitBreakerConfig{
		FailureThreshold: 3,
		ResetTimeout:     30 * time.Second,
		OnStateChange: func(name string, _, to resilience.State) {
			a.metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
	rc := cache.New(cache.NewGuardedBackend(backend, breaker), a.cfg.Redis.CacheTTL, fingerprint, a.metrics)
	if a.cfg.Indexer.Rebuild {
		if err := rc.Invalidate(ctx); err != nil {
			slog.Warn("rank cache invalidation failed", "error", err)
		}
	}
	slog.Info("rank cache enabled", "addr", a.cfg.Redis.Addr, "ttl", a.cfg.Redis.CacheTTL)
	return rc
}

// runStore opens the Postgres run history, or returns nil when disabled.
func (a *app) runStore(ctx context.Context) (*runstore.Store, error) {
	if !a.cfg.Postgres.Enabled {
		return nil, nil
	}
	db, err := postgres.New(ctx, a.cfg.Postgres)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)
	s := runstore.New(db)
	if err := s.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// dispatcher collects the enabled report sinks. A sink that cannot be
// opened is logged and skipped.
func (a *app) dispatcher(ctx context.Context) *evaluation.Dispatcher {
	var sinks []evaluation.Sink
	store, err := a.runStore(ctx)
	switch {
	case err != nil:
		slog.Warn("postgres unavailable, run history disabled", "error", err)
	case store != nil:
		sinks = append(sinks, store)
	}
	if a.cfg.Kafka.Enabled {
		producer := kafka.NewProducer(a.cfg.Kafka, a.cfg.Kafka.ReportsTopic)
		a.closers = append(a.closers, producer.Close)
		sinks = append(sinks, publisher.New(producer))
	}
	return evaluation.NewDispatcher(sinkTimeout, resilience.RetryConfig{MaxAttempts: 3}, sinks...)
}

// models resolves the weighting flag, falling back to the configured one.
func (a *app) models(cmd *cobra.Command) ([]executor.Model, error) {
	list, _ := cmd.Flags().GetString("weighting")
	if list == "" {
		list = a.cfg.Search.Weighting
	}
	return executor.ParseModels(list)
}

func (a *app) limit(cmd *cobra.Command) int {
	if cmd.Flags().Changed("limit") {
		n, _ := cmd.Flags().GetInt("limit")
		return n
	}
	return a.cfg.Search.Limit
}
