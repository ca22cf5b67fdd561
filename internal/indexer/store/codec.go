package store

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/indexer/termstats"
	apperrors "github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/errors"
)

// Sentinel separates document lines from document frequency lines.
const Sentinel = "IDF_START"

const (
	SectionDocuments = "documents"
	SectionTerms     = "terms"
)

// LineError describes one persisted line that could not be parsed. It
// unwraps to errors.ErrMalformedIndexLine.
type LineError struct {
	Line    int
	Section string
	Err     error
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d (%s): %v", e.Line, e.Section, e.Err)
}

func (e LineError) Unwrap() error {
	return e.Err
}

// LoadReport summarises a load. Malformed lines are skipped, not fatal, and
// are listed here so callers can surface them.
type LoadReport struct {
	DocumentLines int         `json:"document_lines"`
	TermLines     int         `json:"term_lines"`
	SentinelFound bool        `json:"sentinel_found"`
	Malformed     []LineError `json:"-"`
}

// MalformedCount returns the number of skipped lines.
func (r *LoadReport) MalformedCount() int {
	return len(r.Malformed)
}

// Encode writes stats in the flat text format: one "id:term count;...;" line
// per document in insertion order, the sentinel line, then one "term df" line
// per term in first-seen order.
func Encode(w io.Writer, stats *termstats.Stats) error {
	bw := bufio.NewWriter(w)
	for _, doc := range stats.Documents() {
		bw.WriteString(doc.ID)
		bw.WriteByte(':')
		for _, tc := range doc.Terms {
			bw.WriteString(tc.Term)
			bw.WriteByte(' ')
			bw.WriteString(strconv.Itoa(tc.Count))
			bw.WriteByte(';')
		}
		bw.WriteByte('\n')
	}
	bw.WriteString(Sentinel)
	bw.WriteByte('\n')
	for _, tc := range stats.Vocabulary() {
		bw.WriteString(tc.Term)
		bw.WriteByte(' ')
		bw.WriteString(strconv.Itoa(tc.Count))
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	return nil
}

// Decode reads the flat text format. Lines before the sentinel are
// documents; lines after it are document frequencies, restored as written.
// The document count is the number of valid document lines.
func Decode(r io.Reader) (*termstats.Stats, *LoadReport, error) {
	report := &LoadReport{}
	br := bufio.NewReader(r)
	var (
		docs    []termstats.DocumentCounts
		df      []termstats.TermCount
		seenDoc = make(map[string]struct{})
		seenDF  = make(map[string]struct{})
		lineNo  int
		inTerms bool
	)
	for {
		raw, readErr := br.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return nil, report, fmt.Errorf("reading index line %d: %w", lineNo+1, readErr)
		}
		if raw == "" && readErr == io.EOF {
			break
		}
		lineNo++
		line := strings.TrimRight(raw, "\r\n")

		switch {
		case strings.TrimSpace(line) == "":
		case strings.TrimSpace(line) == Sentinel:
			inTerms = true
			report.SentinelFound = true
		case inTerms:
			tc, err := parseTermLine(line)
			if err == nil {
				if _, dup := seenDF[tc.Term]; dup {
					err = apperrors.Newf(apperrors.ErrMalformedIndexLine, "duplicate term %q", tc.Term)
				}
			}
			if err != nil {
				report.Malformed = append(report.Malformed, LineError{Line: lineNo, Section: SectionTerms, Err: err})
				break
			}
			seenDF[tc.Term] = struct{}{}
			df = append(df, tc)
			report.TermLines++
		default:
			doc, err := parseDocumentLine(line)
			if err == nil {
				if _, dup := seenDoc[doc.ID]; dup {
					err = apperrors.Newf(apperrors.ErrMalformedIndexLine, "duplicate document %q", doc.ID)
				}
			}
			if err != nil {
				report.Malformed = append(report.Malformed, LineError{Line: lineNo, Section: SectionDocuments, Err: err})
				break
			}
			seenDoc[doc.ID] = struct{}{}
			docs = append(docs, doc)
			report.DocumentLines++
		}

		if readErr == io.EOF {
			break
		}
	}

	stats, err := termstats.Restore(docs, df)
	if err != nil {
		return nil, report, err
	}
	return stats, report, nil
}

func parseDocumentLine(line string) (termstats.DocumentCounts, error) {
	id, rest, ok := strings.Cut(line, ":")
	id = strings.TrimSpace(id)
	if !ok || id == "" {
		return termstats.DocumentCounts{}, apperrors.New(apperrors.ErrMalformedIndexLine, "missing document separator")
	}
	doc := termstats.DocumentCounts{ID: id}
	seen := make(map[string]struct{})
	for _, pair := range strings.Split(rest, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		tc, err := parseTermCount(pair)
		if err != nil {
			return termstats.DocumentCounts{}, err
		}
		if _, dup := seen[tc.Term]; dup {
			return termstats.DocumentCounts{}, apperrors.Newf(apperrors.ErrMalformedIndexLine, "duplicate term %q in document %q", tc.Term, id)
		}
		seen[tc.Term] = struct{}{}
		doc.Terms = append(doc.Terms, tc)
	}
	return doc, nil
}

func parseTermLine(line string) (termstats.TermCount, error) {
	return parseTermCount(strings.TrimSpace(line))
}

func parseTermCount(s string) (termstats.TermCount, error) {
	i := strings.LastIndexByte(s, ' ')
	if i <= 0 {
		return termstats.TermCount{}, apperrors.Newf(apperrors.ErrMalformedIndexLine, "missing count in %q", s)
	}
	term := strings.TrimSpace(s[:i])
	count, err := strconv.Atoi(strings.TrimSpace(s[i+1:]))
	if err != nil {
		return termstats.TermCount{}, apperrors.Newf(apperrors.ErrMalformedIndexLine, "non-numeric count in %q", s)
	}
	if term == "" || strings.ContainsAny(term, " \t") {
		return termstats.TermCount{}, apperrors.Newf(apperrors.ErrMalformedIndexLine, "invalid term in %q", s)
	}
	if count <= 0 {
		return termstats.TermCount{}, apperrors.Newf(apperrors.ErrMalformedIndexLine, "non-positive count in %q", s)
	}
	return termstats.TermCount{Term: term, Count: count}, nil
}
