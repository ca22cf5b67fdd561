package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/indexer/corpus"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/indexer/store"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/indexer/termstats"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/metrics"
)

const (
	SourceBuilt  = "built"
	SourceLoaded = "loaded"
)

// Engine owns the term statistics of one collection and the analyzer that
// produced them. Queries must be analysed with the same analyzer.
type Engine struct {
	stats    *termstats.Stats
	analyzer tokenizer.Analyzer
	store    store.Store
	source   string
	report   *store.LoadReport
	logger   *slog.Logger

	fingerprintOnce sync.Once
	fingerprint     string
}

// Open loads the persisted index when one exists, otherwise it builds the
// index from docsDir and persists it. cfg.Rebuild forces a build.
func Open(ctx context.Context, cfg config.IndexerConfig, docsDir string, analyzer tokenizer.Analyzer, m *metrics.Metrics) (*Engine, error) {
	if m == nil {
		m = metrics.NewNop()
	}
	st, err := store.Open(cfg.Format, filepath.Join(cfg.DataDir, cfg.FileName))
	if err != nil {
		return nil, err
	}
	e := &Engine{
		analyzer: analyzer,
		store:    st,
		logger:   slog.Default().With("component", "indexer"),
	}

	exists, err := st.Exists()
	if err != nil {
		return nil, err
	}
	if exists && !cfg.Rebuild {
		if err := e.load(ctx, m); err != nil {
			m.IndexLoadsTotal.WithLabelValues(SourceLoaded, "error").Inc()
			return nil, err
		}
		m.IndexLoadsTotal.WithLabelValues(SourceLoaded, "ok").Inc()
	} else {
		if err := e.build(ctx, docsDir, m); err != nil {
			m.IndexLoadsTotal.WithLabelValues(SourceBuilt, "error").Inc()
			return nil, err
		}
		m.IndexLoadsTotal.WithLabelValues(SourceBuilt, "ok").Inc()
	}
	m.VocabularySize.Set(float64(e.stats.VocabularySize()))
	return e, nil
}

// NewEngine wraps already-built stats. Nothing is persisted.
func NewEngine(stats *termstats.Stats, analyzer tokenizer.Analyzer) *Engine {
	return &Engine{
		stats:    stats,
		analyzer: analyzer,
		source:   SourceBuilt,
		logger:   slog.Default().With("component", "indexer"),
	}
}

func (e *Engine) load(ctx context.Context, m *metrics.Metrics) error {
	start := time.Now()
	stats, report, err := e.store.Load(ctx)
	if report != nil {
		for _, le := range report.Malformed {
			m.MalformedLinesTotal.WithLabelValues(le.Section).Inc()
		}
	}
	if err != nil {
		return err
	}
	e.stats = stats
	e.report = report
	e.source = SourceLoaded
	e.logger.Info("index opened from disk",
		"path", e.store.Path(),
		"docs", stats.DocumentCount(),
		"malformed", report.MalformedCount(),
		"duration", time.Since(start),
	)
	return nil
}

func (e *Engine) build(ctx context.Context, docsDir string, m *metrics.Metrics) error {
	start := time.Now()
	stats, err := Build(ctx, docsDir, e.analyzer)
	if err != nil {
		return err
	}
	m.DocsIndexedTotal.Add(float64(stats.DocumentCount()))
	if err := e.store.Save(ctx, stats); err != nil {
		return fmt.Errorf("persisting index: %w", err)
	}
	e.stats = stats
	e.source = SourceBuilt
	e.logger.Info("index built",
		"docs_dir", docsDir,
		"path", e.store.Path(),
		"docs", stats.DocumentCount(),
		"terms", stats.VocabularySize(),
		"duration", time.Since(start),
	)
	return nil
}

// Build analyses every document under docsDir into fresh stats.
func Build(ctx context.Context, docsDir string, analyzer tokenizer.Analyzer) (*termstats.Stats, error) {
	b := termstats.NewBuilder()
	err := corpus.Walk(ctx, docsDir, func(d corpus.Document) error {
		if err := b.Add(d.ID, analyzer.Analyze(d.Text)); err != nil {
			return fmt.Errorf("indexing %s: %w", d.Path, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b.Build()
}

func (e *Engine) Stats() *termstats.Stats {
	return e.stats
}

func (e *Engine) Analyzer() tokenizer.Analyzer {
	return e.analyzer
}

// Source reports whether the index was built or loaded.
func (e *Engine) Source() string {
	return e.source
}

// LoadReport returns the malformed-line report of a load, or nil after a
// build.
func (e *Engine) LoadReport() *store.LoadReport {
	return e.report
}

// Path returns the persisted index location, empty for in-memory engines.
func (e *Engine) Path() string {
	if e.store == nil {
		return ""
	}
	return e.store.Path()
}

func (e *Engine) GetDocLength(docID string) int {
	return e.stats.DocumentLength(docID)
}

func (e *Engine) GetAvgDocLength() float64 {
	return e.stats.AverageDocumentLength()
}

func (e *Engine) GetTotalDocs() int64 {
	return int64(e.stats.DocumentCount())
}

// Fingerprint identifies the index contents. Two engines with the same
// persisted form share a fingerprint, so it can scope cache keys.
func (e *Engine) Fingerprint() string {
	e.fingerprintOnce.Do(func() {
		h := sha256.New()
		if err := store.Encode(h, e.stats); err != nil {
			e.logger.Error("fingerprinting index", "error", err)
		}
		e.fingerprint = hex.EncodeToString(h.Sum(nil)[:8])
	})
	return e.fingerprint
}
