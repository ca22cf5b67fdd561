package executor

import (
	"context"
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/indexer/termstats"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/indexer/tokenizer"
)

func benchExecutor(b *testing.B, numDocs int) *Executor {
	b.Helper()
	vocab := []string{"search", "retriev", "index", "rank", "queri", "vector", "weight", "cosin", "term", "document"}
	entries := make([]termstats.Entry, numDocs)
	for d := range entries {
		tokens := make([]string, 0, 60)
		for i := 0; i < 60; i++ {
			tokens = append(tokens, vocab[(d*7+i*i)%len(vocab)])
		}
		entries[d] = termstats.Entry{ID: fmt.Sprintf("doc-%d", d), Tokens: tokens}
	}
	stats, err := termstats.Build(entries)
	if err != nil {
		b.Fatal(err)
	}
	return New(indexer.NewEngine(stats, tokenizer.Whitespace), nil)
}

// BenchmarkExecuteModels measures one query against a warm vector cache for
// each model family.
func BenchmarkExecuteModels(b *testing.B) {
	exec := benchExecutor(b, 3000)
	tokens := []string{"search", "rank", "vector"}
	for _, name := range []string{"nnn.nnn", "ntc.ntc", "atc.atc", "bpn.bpn", BM25} {
		model, err := ParseModel(name)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := exec.ExecuteTokens(context.Background(), model, tokens, 10); err != nil {
			b.Fatal(err)
		}
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := exec.ExecuteTokens(context.Background(), model, tokens, 10); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkDocumentVectors measures the one-off cost of weighting every
// document for a scheme.
func BenchmarkDocumentVectors(b *testing.B) {
	for _, numDocs := range []int{100, 1000, 10000} {
		b.Run(fmt.Sprintf("docs_%d", numDocs), func(b *testing.B) {
			exec := benchExecutor(b, numDocs)
			model, _ := ParseModel("atc.atc")
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				fresh := New(exec.Engine(), nil)
				_ = fresh.DocumentVectors(model.Pair.Document)
			}
		})
	}
}
