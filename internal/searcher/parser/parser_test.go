package parser

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/errors"
)

func TestParseQueries(t *testing.T) {
	input := strings.Join([]string{
		"2,what articles exist, if any, on sorting",
		"1, retrieval systems ",
		"",
		"no comma here",
		"x,not a number",
		"1,duplicate",
		"3,",
	}, "\n")

	queries, skipped, err := ParseQueries(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	want := []Query{
		{ID: 1, Text: "retrieval systems"},
		{ID: 2, Text: "what articles exist, if any, on sorting"},
		{ID: 3, Text: ""},
	}
	if !reflect.DeepEqual(queries, want) {
		t.Errorf("queries = %+v, want %+v", queries, want)
	}
	var lines []int
	for _, s := range skipped {
		lines = append(lines, s.Line)
		if !errors.Is(s, apperrors.ErrInvalidInput) {
			t.Errorf("line %d: error does not unwrap to ErrInvalidInput", s.Line)
		}
	}
	if want := []int{4, 5, 6}; !reflect.DeepEqual(lines, want) {
		t.Errorf("skipped lines = %v, want %v", lines, want)
	}
}

func TestParseJudgments(t *testing.T) {
	input := "1 CACM-1410 CACM-1572 CACM-1410\n2\nabc CACM-1\n1 CACM-9\n\n3   CACM-7\tCACM-8\n"
	j, skipped, err := ParseJudgments(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if got := j.Relevant(1); !reflect.DeepEqual(got, []string{"CACM-1410", "CACM-1572"}) {
		t.Errorf("Relevant(1) = %v", got)
	}
	if set, ok := j[2]; !ok || len(set) != 0 {
		t.Errorf("query 2 should have an empty set, got %v (ok=%v)", set, ok)
	}
	if got := j.Relevant(3); !reflect.DeepEqual(got, []string{"CACM-7", "CACM-8"}) {
		t.Errorf("Relevant(3) = %v", got)
	}
	if got := j.Relevant(99); len(got) != 0 {
		t.Errorf("Relevant(99) = %v", got)
	}
	if len(skipped) != 2 || skipped[0].Line != 3 || skipped[1].Line != 4 {
		t.Errorf("skipped = %v", skipped)
	}
}

func TestLoadMissingFiles(t *testing.T) {
	dir := t.TempDir()
	if _, _, err := LoadQueries(dir + "/q.txt"); err == nil {
		t.Error("expected error for missing query file")
	}
	if _, _, err := LoadJudgments(dir + "/r.txt"); err == nil {
		t.Error("expected error for missing judgment file")
	}
}

func TestCRLFInput(t *testing.T) {
	queries, _, err := ParseQueries(strings.NewReader("1,cat\r\n2,dog\r\n"))
	if err != nil {
		t.Fatal(err)
	}
	if queries[0].Text != "cat" || queries[1].Text != "dog" {
		t.Errorf("queries = %+v", queries)
	}
}
