package executor

import (
	"context"
	"errors"
	"math"
	"reflect"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/indexer/termstats"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/searcher/weighting"
	apperrors "github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/metrics"
)

func newTestExecutor(t *testing.T, m *metrics.Metrics) *Executor {
	t.Helper()
	stats, err := termstats.Build([]termstats.Entry{
		{ID: "DOC1", Tokens: []string{"cat", "dog", "cat"}},
		{ID: "DOC2", Tokens: []string{"dog", "bird"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return New(indexer.NewEngine(stats, tokenizer.Whitespace), m)
}

func mustModel(t *testing.T, name string) Model {
	t.Helper()
	m, err := ParseModel(name)
	if err != nil {
		t.Fatalf("ParseModel(%q): %v", name, err)
	}
	return m
}

func ids(docs []ranker.ScoredDoc) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.DocID
	}
	return out
}

func TestRawCountsEndToEnd(t *testing.T) {
	e := newTestExecutor(t, nil)
	res, err := e.Execute(context.Background(), mustModel(t, "nnn.nnn"), "cat", 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []ranker.ScoredDoc{{DocID: "DOC1", Score: 2}, {DocID: "DOC2", Score: 0}}
	if !reflect.DeepEqual(res.Results, want) {
		t.Errorf("results = %v, want %v", res.Results, want)
	}
	if res.TotalHits != 1 {
		t.Errorf("TotalHits = %d, want 1", res.TotalHits)
	}
}

func TestStandardIDFEndToEnd(t *testing.T) {
	e := newTestExecutor(t, nil)
	res, err := e.Execute(context.Background(), mustModel(t, "ntn.ntn"), "cat", 0)
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(res.Results); !reflect.DeepEqual(got, []string{"DOC1", "DOC2"}) {
		t.Fatalf("order = %v", got)
	}
	// "cat" has df 1 of N 2, so ntn scales both sides by ln 2: the raw score
	// of 2 from nnn.nnn becomes 2*ln(2)^2 here, not 2.
	want := 2 * math.Log(2) * math.Log(2)
	if math.Abs(res.Results[0].Score-want) > 1e-12 {
		t.Errorf("DOC1 score = %v, want %v", res.Results[0].Score, want)
	}
	if res.Results[1].Score != 0 {
		t.Errorf("DOC2 score = %v, want 0", res.Results[1].Score)
	}
}

func TestSelfQueryCosineIsOne(t *testing.T) {
	e := newTestExecutor(t, nil)
	res, err := e.ExecuteTokens(context.Background(), mustModel(t, "atc.atc"), []string{"cat", "dog", "cat"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.Results[0].DocID != "DOC1" || math.Abs(res.Results[0].Score-1) > 1e-9 {
		t.Errorf("self query = %v, want DOC1 with score 1", res.Results[0])
	}
	for _, r := range res.Results {
		if r.Score < 0 || r.Score > 1+1e-9 {
			t.Errorf("cosine score out of [0,1]: %v", r)
		}
	}
}

func TestEmptyQuery(t *testing.T) {
	e := newTestExecutor(t, nil)
	res, err := e.Execute(context.Background(), mustModel(t, "atc.atc"), "   ", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Results) != 0 || len(res.Terms) != 0 {
		t.Errorf("empty query result = %+v", res)
	}
}

func TestUnknownTermsRankEverythingAtZero(t *testing.T) {
	e := newTestExecutor(t, nil)
	res, err := e.Execute(context.Background(), mustModel(t, "ntc.ntc"), "zebra", 0)
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(res.Results); !reflect.DeepEqual(got, []string{"DOC1", "DOC2"}) {
		t.Errorf("order = %v", got)
	}
	if res.TotalHits != 0 {
		t.Errorf("TotalHits = %d, want 0", res.TotalHits)
	}
}

func TestLimit(t *testing.T) {
	e := newTestExecutor(t, nil)
	res, err := e.Execute(context.Background(), mustModel(t, "nnn.nnn"), "dog", 1)
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(res.Results); !reflect.DeepEqual(got, []string{"DOC1"}) {
		t.Errorf("limit 1 = %v (tie broken by id)", got)
	}
}

func TestBM25Model(t *testing.T) {
	e := newTestExecutor(t, nil)
	res, err := e.Execute(context.Background(), mustModel(t, "BM25"), "bird", 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.Model != BM25 {
		t.Errorf("Model = %q", res.Model)
	}
	if got := ids(res.Results); !reflect.DeepEqual(got, []string{"DOC2", "DOC1"}) {
		t.Errorf("order = %v", got)
	}
	if res.Results[0].Score <= 0 {
		t.Errorf("DOC2 score = %v, want > 0", res.Results[0].Score)
	}
}

func TestDocumentVectorsComputedOnce(t *testing.T) {
	m := metrics.NewNop()
	e := newTestExecutor(t, m)
	scheme, _ := weighting.ParseScheme("atc")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if vs := e.DocumentVectors(scheme); len(vs) != 2 {
				t.Errorf("got %d vectors", len(vs))
			}
		}()
	}
	wg.Wait()
	if got := testutil.ToFloat64(m.VectorCacheBuildsTotal.WithLabelValues("atc")); got != 1 {
		t.Errorf("vector builds = %v, want 1", got)
	}
}

func TestDeterministicAcrossRuns(t *testing.T) {
	e := newTestExecutor(t, nil)
	model := mustModel(t, "atc.atc")
	first, _ := e.Execute(context.Background(), model, "dog cat bird", 0)
	for i := 0; i < 10; i++ {
		again, _ := e.Execute(context.Background(), model, "dog cat bird", 0)
		if !reflect.DeepEqual(first.Results, again.Results) {
			t.Fatalf("run %d differs: %v vs %v", i, first.Results, again.Results)
		}
	}
}

func TestCancelledContext(t *testing.T) {
	e := newTestExecutor(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Execute(ctx, mustModel(t, "nnn.nnn"), "cat", 0); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestParseModels(t *testing.T) {
	models, err := ParseModels("atc.atc, bm25,ann.bpn")
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, m := range models {
		names = append(names, m.Name)
	}
	if want := []string{"atc.atc", "bm25", "ann.bpn"}; !reflect.DeepEqual(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}
	if _, err := ParseModels(""); !errors.Is(err, apperrors.ErrInvalidScheme) {
		t.Errorf("empty list error = %v", err)
	}
	if _, err := ParseModels("atc.atc,zzz"); !errors.Is(err, apperrors.ErrInvalidScheme) {
		t.Errorf("bad list error = %v", err)
	}
}
