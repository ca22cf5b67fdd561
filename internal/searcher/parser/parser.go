// Package parser reads the query and relevance judgment files of an
// evaluation batch.
//
// Query file: one "id,text" per line; text runs to the end of the line and
// may contain further commas. Judgment file: "id doc1 doc2 ..." per line,
// whitespace separated.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/errors"
)

type Query struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// Judgments maps a query ID to its set of relevant document IDs.
type Judgments map[int]map[string]struct{}

// Relevant returns the relevant documents of a query, sorted.
func (j Judgments) Relevant(queryID int) []string {
	set := j[queryID]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// LineError is a skipped input line.
type LineError struct {
	Line int
	Err  error
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e LineError) Unwrap() error {
	return e.Err
}

// ParseQueries reads a query file. Queries are returned sorted by ID.
// Malformed lines and repeated IDs are skipped and returned as LineErrors.
func ParseQueries(r io.Reader) ([]Query, []LineError, error) {
	var (
		queries []Query
		skipped []LineError
		seen    = make(map[int]struct{})
	)
	err := eachLine(r, func(n int, line string) {
		if strings.TrimSpace(line) == "" {
			return
		}
		idText, text, ok := strings.Cut(line, ",")
		if !ok {
			skipped = append(skipped, LineError{Line: n, Err: apperrors.New(apperrors.ErrInvalidInput, "missing ',' after query id")})
			return
		}
		id, err := strconv.Atoi(strings.TrimSpace(idText))
		if err != nil {
			skipped = append(skipped, LineError{Line: n, Err: apperrors.Newf(apperrors.ErrInvalidInput, "query id %q is not a number", idText)})
			return
		}
		if _, dup := seen[id]; dup {
			skipped = append(skipped, LineError{Line: n, Err: apperrors.Newf(apperrors.ErrInvalidInput, "duplicate query id %d", id)})
			return
		}
		seen[id] = struct{}{}
		queries = append(queries, Query{ID: id, Text: strings.TrimSpace(text)})
	})
	if err != nil {
		return nil, skipped, err
	}
	sort.Slice(queries, func(i, j int) bool {
		return queries[i].ID < queries[j].ID
	})
	return queries, skipped, nil
}

// ParseJudgments reads a judgment file. A line with an ID and no documents
// records an empty relevance set.
func ParseJudgments(r io.Reader) (Judgments, []LineError, error) {
	judgments := make(Judgments)
	var skipped []LineError
	err := eachLine(r, func(n int, line string) {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			return
		}
		id, err := strconv.Atoi(fields[0])
		if err != nil {
			skipped = append(skipped, LineError{Line: n, Err: apperrors.Newf(apperrors.ErrInvalidInput, "query id %q is not a number", fields[0])})
			return
		}
		if _, dup := judgments[id]; dup {
			skipped = append(skipped, LineError{Line: n, Err: apperrors.Newf(apperrors.ErrInvalidInput, "duplicate judgments for query %d", id)})
			return
		}
		set := make(map[string]struct{}, len(fields)-1)
		for _, doc := range fields[1:] {
			set[doc] = struct{}{}
		}
		judgments[id] = set
	})
	if err != nil {
		return nil, skipped, err
	}
	return judgments, skipped, nil
}

// LoadQueries parses a query file from disk.
func LoadQueries(path string) ([]Query, []LineError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening query file: %w", err)
	}
	defer f.Close()
	return ParseQueries(f)
}

// LoadJudgments parses a judgment file from disk.
func LoadJudgments(path string) (Judgments, []LineError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening judgment file: %w", err)
	}
	defer f.Close()
	return ParseJudgments(f)
}

func eachLine(r io.Reader, fn func(n int, line string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		fn(n, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading line %d: %w", n+1, err)
	}
	return nil
}
