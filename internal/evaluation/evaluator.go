// Package evaluation scores rankings against relevance judgments: average
// precision per query and mean average precision per weighting model.
package evaluation

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/searcher/parser"
	apperrors "github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/tracing"
)

// Searcher ranks one query. *executor.Executor and *cache.Executor
// implement it.
type Searcher interface {
	Execute(ctx context.Context, model executor.Model, query string, limit int) (*executor.SearchResult, error)
}

type Options struct {
	// Workers bounds concurrent queries. Zero means GOMAXPROCS.
	Workers int
	// IndexFingerprint and Documents describe the index in reports.
	IndexFingerprint string
	Documents        int
}

type Evaluator struct {
	searcher Searcher
	opts     Options
	metrics  *metrics.Metrics
}

func New(searcher Searcher, opts Options, m *metrics.Metrics) *Evaluator {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &Evaluator{searcher: searcher, opts: opts, metrics: m}
}

// Evaluate ranks every query with model and scores it against judgments.
// Per-query failures are recorded in the report; only cancellation of ctx
// aborts the run.
func (e *Evaluator) Evaluate(
	ctx context.Context,
	queries []parser.Query,
	judgments parser.Judgments,
	model executor.Model,
	limit int,
) (*Report, error) {
	report := &Report{
		RunID:            uuid.NewString(),
		Model:            model.Name,
		IndexFingerprint: e.opts.IndexFingerprint,
		Documents:        e.opts.Documents,
		Limit:            limit,
		StartedAt:        time.Now().UTC(),
		Queries:          make([]QueryResult, len(queries)),
	}
	ctx = logger.WithRunID(ctx, report.RunID)
	log := logger.FromContext(ctx).With("component", "evaluator", "model", model.Name)
	ctx, root := tracing.StartSpan(ctx, "evaluate", report.RunID)
	root.SetAttr("model", model.Name)
	root.SetAttr("queries", len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			qctx, span := tracing.StartChildSpan(gctx, "query")
			res := e.evaluateQuery(qctx, q, judgments[q.ID], model, limit)
			span.SetAttr("query_id", q.ID)
			span.SetAttr("status", string(res.Status))
			span.End()
			if res.Status == StatusError {
				if err := gctx.Err(); err != nil {
					return err
				}
				log.Warn("query failed", "query_id", q.ID, "error", res.Error)
			}
			e.metrics.QueriesEvaluatedTotal.WithLabelValues(string(res.Status)).Inc()
			report.Queries[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evaluating %s: %w", model.Name, err)
	}

	root.End()
	root.Log(ctx, log, slog.LevelDebug)

	report.UnmatchedJudged = unmatchedJudgments(queries, judgments)
	report.Duration = time.Since(report.StartedAt)
	report.Summarize()
	e.metrics.MeanAveragePrecision.WithLabelValues(model.Name).Set(report.MAP)

	log.Info("evaluation complete",
		"queries", len(queries),
		"evaluated", report.Evaluated,
		"excluded", report.Excluded,
		"map", report.MAP,
		"duration", report.Duration,
	)
	return report, nil
}

// EvaluateAll runs Evaluate once per model, in the given order.
func (e *Evaluator) EvaluateAll(
	ctx context.Context,
	queries []parser.Query,
	judgments parser.Judgments,
	models []executor.Model,
	limit int,
) ([]*Report, error) {
	reports := make([]*Report, 0, len(models))
	for _, model := range models {
		r, err := e.Evaluate(ctx, queries, judgments, model, limit)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}

func (e *Evaluator) evaluateQuery(
	ctx context.Context,
	q parser.Query,
	relevant map[string]struct{},
	model executor.Model,
	limit int,
) QueryResult {
	res := QueryResult{
		QueryID:  q.ID,
		Query:    q.Text,
		Relevant: len(relevant),
	}
	if len(relevant) == 0 {
		res.Status = StatusEmptyRelevanceSet
		res.Error = apperrors.ErrEmptyRelevanceSet.Error()
		return res
	}

	result, err := e.searcher.Execute(ctx, model, q.Text, limit)
	if err != nil {
		res.Status = StatusError
		res.Error = err.Error()
		return res
	}
	res.Ranking = result.Results
	res.Retrieved = len(result.Results)
	if len(result.Terms) == 0 {
		res.Status = StatusEmptyQuery
		res.Error = apperrors.ErrEmptyQuery.Error()
		return res
	}

	ranked := make([]string, len(result.Results))
	for i, r := range result.Results {
		ranked[i] = r.DocID
	}
	res.Status = StatusOK
	res.AveragePrecision = AveragePrecision(relevant, ranked)
	res.Precision = Precision(relevant, ranked)
	res.Recall = Recall(relevant, ranked)
	res.RelevantRetrieved = countRelevant(relevant, ranked)
	return res
}

func unmatchedJudgments(queries []parser.Query, judgments parser.Judgments) int {
	ids := make(map[int]struct{}, len(queries))
	for _, q := range queries {
		ids[q.ID] = struct{}{}
	}
	n := 0
	for id := range judgments {
		if _, ok := ids[id]; !ok {
			n++
		}
	}
	return n
}
