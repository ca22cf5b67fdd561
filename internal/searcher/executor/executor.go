package executor

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/indexer/termstats"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/searcher/weighting"
	apperrors "github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/metrics"
)

// BM25 is the model name of the probabilistic baseline.
const BM25 = "bm25"

// Model selects how queries are scored: a SMART weighting pair or BM25.
type Model struct {
	Name string
	Pair weighting.Pair
	BM25 bool
}

// ParseModel accepts "ddd.qqq" or "bm25".
func ParseModel(name string) (Model, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == BM25 {
		return Model{Name: BM25, BM25: true}, nil
	}
	pair, err := weighting.ParsePair(name)
	if err != nil {
		return Model{}, err
	}
	return Model{Name: pair.String(), Pair: pair}, nil
}

// ParseModels parses a comma-separated model list.
func ParseModels(list string) ([]Model, error) {
	var models []Model
	for _, name := range strings.Split(list, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		m, err := ParseModel(name)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	if len(models) == 0 {
		return nil, apperrors.New(apperrors.ErrInvalidScheme, "no weighting given")
	}
	return models, nil
}

type SearchResult struct {
	Query     string             `json:"query"`
	Model     string             `json:"model"`
	Terms     []string           `json:"terms"`
	TotalHits int                `json:"total_hits"`
	Results   []ranker.ScoredDoc `json:"results"`
}

// Executor ranks the documents of one index. Document vectors are computed
// once per document scheme and shared by every query.
type Executor struct {
	engine  *indexer.Engine
	stats   *termstats.Stats
	metrics *metrics.Metrics
	logger  *slog.Logger

	vectorsMu sync.RWMutex
	vectors   map[weighting.Scheme][]ranker.DocVector
	group     singleflight.Group

	bm25Once sync.Once
	bm25Docs []ranker.DocInfo
}

func New(engine *indexer.Engine, m *metrics.Metrics) *Executor {
	if m == nil {
		m = metrics.NewNop()
	}
	return &Executor{
		engine:  engine,
		stats:   engine.Stats(),
		metrics: m,
		logger:  slog.Default().With("component", "query-executor"),
		vectors: make(map[weighting.Scheme][]ranker.DocVector),
	}
}

// Engine returns the index the executor ranks against.
func (e *Executor) Engine() *indexer.Engine {
	return e.engine
}

// Vectorize weighs query tokens with the query scheme.
func (e *Executor) Vectorize(tokens []string, scheme weighting.Scheme) weighting.Vector {
	return scheme.Weigh(termstats.CountTokens(tokens), e.stats)
}

// DocumentVectors returns the weighted vectors of every document in
// insertion order. Concurrent first calls for a scheme share one
// computation.
func (e *Executor) DocumentVectors(scheme weighting.Scheme) []ranker.DocVector {
	e.vectorsMu.RLock()
	vs, ok := e.vectors[scheme]
	e.vectorsMu.RUnlock()
	if ok {
		return vs
	}
	val, _, _ := e.group.Do(scheme.String(), func() (interface{}, error) {
		e.vectorsMu.RLock()
		vs, ok := e.vectors[scheme]
		e.vectorsMu.RUnlock()
		if ok {
			return vs, nil
		}
		start := time.Now()
		docs := e.stats.Documents()
		vs = make([]ranker.DocVector, len(docs))
		for i, d := range docs {
			tf := make(map[string]int, len(d.Terms))
			for _, tc := range d.Terms {
				tf[tc.Term] = tc.Count
			}
			vs[i] = ranker.DocVector{DocID: d.ID, Vector: scheme.Weigh(tf, e.stats)}
		}
		e.vectorsMu.Lock()
		e.vectors[scheme] = vs
		e.vectorsMu.Unlock()
		e.metrics.VectorCacheBuildsTotal.WithLabelValues(scheme.String()).Inc()
		e.logger.Debug("document vectors computed",
			"scheme", scheme.String(),
			"docs", len(vs),
			"duration", time.Since(start),
		)
		return vs, nil
	})
	return val.([]ranker.DocVector)
}

// Execute analyses query with the index analyzer and ranks it.
func (e *Executor) Execute(ctx context.Context, model Model, query string, limit int) (*SearchResult, error) {
	tokens := e.engine.Analyzer().Analyze(query)
	result, err := e.ExecuteTokens(ctx, model, tokens, limit)
	if err != nil {
		return nil, err
	}
	result.Query = query
	return result, nil
}

// ExecuteTokens ranks already analysed query tokens. A query without tokens
// returns an empty result.
func (e *Executor) ExecuteTokens(ctx context.Context, model Model, tokens []string, limit int) (*SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := &SearchResult{
		Query:   strings.Join(tokens, " "),
		Model:   model.Name,
		Terms:   tokens,
		Results: []ranker.ScoredDoc{},
	}
	if len(tokens) == 0 {
		return result, nil
	}

	start := time.Now()
	if model.BM25 {
		result.Results = e.rankBM25(tokens, limit)
	} else {
		query := e.Vectorize(tokens, model.Pair.Query)
		docs := e.DocumentVectors(model.Pair.Document)
		result.Results = ranker.Cosine(query, docs, model.Pair.Normalize(), limit)
	}
	for _, r := range result.Results {
		if r.Score > 0 {
			result.TotalHits++
		}
	}
	e.metrics.QueryLatency.WithLabelValues(model.Name).Observe(time.Since(start).Seconds())
	e.metrics.RankedResultsCount.Observe(float64(len(result.Results)))
	e.logger.Debug("query executed",
		"model", model.Name,
		"terms", tokens,
		"hits", result.TotalHits,
		"results", len(result.Results),
	)
	return result, nil
}

func (e *Executor) rankBM25(tokens []string, limit int) []ranker.ScoredDoc {
	e.bm25Once.Do(func() {
		ids := e.stats.DocumentIDs()
		e.bm25Docs = make([]ranker.DocInfo, len(ids))
		for i, id := range ids {
			tf, _ := e.stats.TermFrequencies(id)
			e.bm25Docs[i] = ranker.DocInfo{
				DocID:     id,
				DocLength: e.engine.GetDocLength(id),
				Terms:     tf,
			}
		}
	})
	params := ranker.RankParams{
		TotalDocs:    e.engine.GetTotalDocs(),
		AvgDocLength: e.engine.GetAvgDocLength(),
	}
	docFreq := func(term string) int {
		df, _ := e.stats.DocumentFrequency(term)
		return df
	}
	return ranker.BM25(tokens, docFreq, params, e.bm25Docs, limit)
}
