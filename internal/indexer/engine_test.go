package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/metrics"
)

func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func indexerConfig(t *testing.T, format string) config.IndexerConfig {
	return config.IndexerConfig{
		DataDir:  t.TempDir(),
		FileName: "dd_index.txt",
		Format:   format,
	}
}

func TestOpenBuildsThenLoads(t *testing.T) {
	for _, format := range []string{"text", "sqlite"} {
		t.Run(format, func(t *testing.T) {
			docs := writeCorpus(t, map[string]string{
				"DOC1.txt": "cat dog cat",
				"DOC2.txt": "dog bird",
			})
			cfg := indexerConfig(t, format)
			m := metrics.NewNop()

			built, err := Open(context.Background(), cfg, docs, tokenizer.Whitespace, m)
			if err != nil {
				t.Fatalf("Open (build): %v", err)
			}
			if built.Source() != SourceBuilt {
				t.Errorf("Source = %s, want %s", built.Source(), SourceBuilt)
			}
			if built.LoadReport() != nil {
				t.Error("LoadReport should be nil after a build")
			}

			loaded, err := Open(context.Background(), cfg, docs, tokenizer.Whitespace, m)
			if err != nil {
				t.Fatalf("Open (load): %v", err)
			}
			if loaded.Source() != SourceLoaded {
				t.Errorf("Source = %s, want %s", loaded.Source(), SourceLoaded)
			}
			if !built.Stats().Equal(loaded.Stats()) {
				t.Error("loaded stats differ from built stats")
			}
			if err := loaded.Stats().Validate(); err != nil {
				t.Errorf("df invariant after reload: %v", err)
			}
			if got := testutil.ToFloat64(m.IndexLoadsTotal.WithLabelValues(SourceLoaded, "ok")); got != 1 {
				t.Errorf("loaded counter = %v, want 1", got)
			}
			if got := testutil.ToFloat64(m.DocsIndexedTotal); got != 2 {
				t.Errorf("docs indexed = %v, want 2", got)
			}
		})
	}
}

func TestOpenRebuild(t *testing.T) {
	docs := writeCorpus(t, map[string]string{"DOC1.txt": "cat"})
	cfg := indexerConfig(t, "text")
	if _, err := Open(context.Background(), cfg, docs, tokenizer.Whitespace, nil); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(docs, "DOC2.txt"), []byte("dog"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg.Rebuild = true
	e, err := Open(context.Background(), cfg, docs, tokenizer.Whitespace, nil)
	if err != nil {
		t.Fatal(err)
	}
	if e.Source() != SourceBuilt || e.Stats().DocumentCount() != 2 {
		t.Errorf("rebuild: source=%s docs=%d", e.Source(), e.Stats().DocumentCount())
	}
}

func TestOpenReportsMalformedLines(t *testing.T) {
	cfg := indexerConfig(t, "text")
	content := "DOC1:cat 1;\nbroken line\nIDF_START\ncat 1\n"
	if err := os.WriteFile(filepath.Join(cfg.DataDir, cfg.FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	m := metrics.NewNop()
	e, err := Open(context.Background(), cfg, "unused", tokenizer.Whitespace, m)
	if err != nil {
		t.Fatal(err)
	}
	if e.LoadReport().MalformedCount() != 1 {
		t.Errorf("malformed = %d, want 1", e.LoadReport().MalformedCount())
	}
	if got := testutil.ToFloat64(m.MalformedLinesTotal.WithLabelValues("documents")); got != 1 {
		t.Errorf("malformed metric = %v, want 1", got)
	}
}

func TestOpenEmptyCorpus(t *testing.T) {
	docs := t.TempDir()
	_, err := Open(context.Background(), indexerConfig(t, "text"), docs, tokenizer.Whitespace, nil)
	if !errors.Is(err, apperrors.ErrZeroDocumentCollection) {
		t.Fatalf("expected ErrZeroDocumentCollection, got %v", err)
	}
}

func TestOpenMissingCorpus(t *testing.T) {
	_, err := Open(context.Background(), indexerConfig(t, "text"), filepath.Join(t.TempDir(), "nope"), tokenizer.Whitespace, nil)
	if !errors.Is(err, apperrors.ErrCorpusAccess) {
		t.Fatalf("expected ErrCorpusAccess, got %v", err)
	}
}

func TestDocumentLengths(t *testing.T) {
	docs := writeCorpus(t, map[string]string{
		"DOC1.txt": "cat dog cat",
		"DOC2.txt": "dog",
	})
	stats, err := Build(context.Background(), docs, tokenizer.Whitespace)
	if err != nil {
		t.Fatal(err)
	}
	e := NewEngine(stats, tokenizer.Whitespace)
	if e.GetDocLength("DOC1") != 3 || e.GetTotalDocs() != 2 || e.GetAvgDocLength() != 2 {
		t.Errorf("len=%d total=%d avg=%v", e.GetDocLength("DOC1"), e.GetTotalDocs(), e.GetAvgDocLength())
	}
	if e.Path() != "" {
		t.Errorf("in-memory engine Path = %q", e.Path())
	}
}

func TestFingerprint(t *testing.T) {
	docs := writeCorpus(t, map[string]string{"DOC1.txt": "cat dog"})
	a, err := Build(context.Background(), docs, tokenizer.Whitespace)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := Build(context.Background(), docs, tokenizer.Whitespace)
	fa := NewEngine(a, tokenizer.Whitespace).Fingerprint()
	if fa == "" || fa != NewEngine(b, tokenizer.Whitespace).Fingerprint() {
		t.Errorf("fingerprints of identical indexes differ or are empty: %q", fa)
	}

	other := writeCorpus(t, map[string]string{"DOC1.txt": "cat bird"})
	c, _ := Build(context.Background(), other, tokenizer.Whitespace)
	if NewEngine(c, tokenizer.Whitespace).Fingerprint() == fa {
		t.Error("different indexes share a fingerprint")
	}
}
