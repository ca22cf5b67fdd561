package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/evaluation"
	apperrors "github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// setupCorpus writes a small collection with queries, judgments and a
// config file pointing at them, and returns the config path.
func setupCorpus(t *testing.T, docs map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, text := range docs {
		writeFile(t, filepath.Join(dir, "docs", name), text)
	}
	if len(docs) == 0 {
		if err := os.MkdirAll(filepath.Join(dir, "docs"), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	writeFile(t, filepath.Join(dir, "queries.txt"), "1,cat\n2,bark\n3,unjudged\n")
	writeFile(t, filepath.Join(dir, "judgments.txt"), "1 d1\n2 d2\n")
	cfg := strings.Join([]string{
		"corpus:",
		"  docsDir: " + filepath.Join(dir, "docs"),
		"  queryFile: " + filepath.Join(dir, "queries.txt"),
		"  judgmentFile: " + filepath.Join(dir, "judgments.txt"),
		"indexer:",
		"  dataDir: " + filepath.Join(dir, "index"),
		"logging:",
		"  level: error",
	}, "\n")
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, cfg+"\n")
	return path
}

var sampleDocs = map[string]string{
	"d1.txt": "The cat sat with another cat.",
	"d2.txt": "Dogs bark at the mailman.",
	"d3.txt": "Fish swim in the sea.",
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestIndexBuildsThenLoads(t *testing.T) {
	cfg := setupCorpus(t, sampleDocs)
	out, err := run(t, "index", "--config", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "(built)") || !strings.Contains(out, "documents:   3") {
		t.Errorf("first run output:\n%s", out)
	}
	out, err = run(t, "index", "--config", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "(loaded)") {
		t.Errorf("second run output:\n%s", out)
	}
	out, err = run(t, "index", "--config", cfg, "--rebuild")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "(built)") {
		t.Errorf("rebuild output:\n%s", out)
	}
}

func TestSearchJSON(t *testing.T) {
	cfg := setupCorpus(t, sampleDocs)
	out, err := run(t, "search", "--config", cfg, "--format", "json", "-w", "atc.atc,bm25", "-n", "2", "cats")
	if err != nil {
		t.Fatal(err)
	}
	var results []struct {
		Model   string `json:"model"`
		Results []struct {
			DocID string  `json:"doc_id"`
			Score float64 `json:"score"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %+v", results)
	}
	for _, r := range results {
		if len(r.Results) != 2 || r.Results[0].DocID != "d1" || r.Results[0].Score <= 0 {
			t.Errorf("%s: results = %+v", r.Model, r.Results)
		}
	}
}

func TestEvaluate(t *testing.T) {
	cfg := setupCorpus(t, sampleDocs)
	out, err := run(t, "evaluate", "--config", cfg, "--format", "json", "-w", "atc.atc,nnn.nnn")
	if err != nil {
		t.Fatal(err)
	}
	var reports []evaluation.Report
	if err := json.Unmarshal([]byte(out), &reports); err != nil {
		t.Fatalf("decoding: %v\n%s", err, out)
	}
	if len(reports) != 2 {
		t.Fatalf("reports = %d", len(reports))
	}
	for _, r := range reports {
		if r.MAP != 1 || r.Evaluated != 2 || r.Excluded != 1 {
			t.Errorf("%s: MAP=%v evaluated=%d excluded=%d", r.Model, r.MAP, r.Evaluated, r.Excluded)
		}
		if r.Queries[2].Status != evaluation.StatusEmptyRelevanceSet {
			t.Errorf("%s: query 3 status = %s", r.Model, r.Queries[2].Status)
		}
	}

	text, err := run(t, "evaluate", "--config", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "Model: atc.atc") || !strings.Contains(text, "1.0000") {
		t.Errorf("text output:\n%s", text)
	}
}

func TestExitCodes(t *testing.T) {
	cfg := setupCorpus(t, sampleDocs)
	empty := setupCorpus(t, nil)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"invalid scheme", []string{"search", "--config", cfg, "-w", "xyz.atc", "cat"}, apperrors.ExitInvalidScheme},
		{"bad format", []string{"index", "--config", cfg, "--format", "xml"}, apperrors.ExitUsage},
		{"unknown flag", []string{"index", "--bogus"}, apperrors.ExitUsage},
		{"missing config", []string{"index", "--config", filepath.Join(t.TempDir(), "nope.yaml")}, apperrors.ExitUsage},
		{"empty corpus", []string{"index", "--config", empty}, apperrors.ExitEmptyCorpus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if got := apperrors.ExitCode(err); got != tt.want {
				t.Errorf("exit code = %d (err %v), want %d", got, err, tt.want)
			}
		})
	}
}

func TestVersionAndSchemes(t *testing.T) {
	out, err := run(t, "version")
	if err != nil || !strings.HasPrefix(out, "smart-eval dev") {
		t.Errorf("version: %q, %v", out, err)
	}
	out, err = run(t, "schemes")
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Count(out, "\n"); lines != 19 {
		t.Errorf("schemes printed %d lines, want 19", lines)
	}
}
