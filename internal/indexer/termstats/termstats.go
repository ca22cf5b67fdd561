// Package termstats holds the collection-wide term statistics every scorer
// reads: per-document term frequencies, document frequencies, and the
// document count. Stats are built once and never modified afterwards.
package termstats

import (
	"fmt"

	apperrors "github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/errors"
)

// TermCount pairs a term with a count. It is used both for per-document term
// frequencies and for document frequencies.
type TermCount struct {
	Term  string
	Count int
}

// DocumentCounts is the term frequency list of one document in first-seen
// term order.
type DocumentCounts struct {
	ID    string
	Terms []TermCount
}

type document struct {
	id    string
	terms []string
	freq  map[string]int
	len   int
}

// Stats is an immutable snapshot of the collection. It is safe for
// concurrent readers.
type Stats struct {
	docs       []*document
	byID       map[string]*document
	df         map[string]int
	vocab      []string
	totalTerms int64
}

// DocumentCount returns N, the number of documents in the collection.
func (s *Stats) DocumentCount() int {
	return len(s.docs)
}

// DocumentIDs returns document IDs in insertion order.
func (s *Stats) DocumentIDs() []string {
	ids := make([]string, len(s.docs))
	for i, d := range s.docs {
		ids[i] = d.id
	}
	return ids
}

// HasDocument reports whether id is part of the collection.
func (s *Stats) HasDocument(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// TermFrequencies returns a copy of the term frequency map of a document.
func (s *Stats) TermFrequencies(id string) (map[string]int, bool) {
	d, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	out := make(map[string]int, len(d.freq))
	for t, c := range d.freq {
		out[t] = c
	}
	return out, true
}

// Documents returns every document's term counts, documents in insertion
// order and terms in first-seen order.
func (s *Stats) Documents() []DocumentCounts {
	out := make([]DocumentCounts, 0, len(s.docs))
	for _, d := range s.docs {
		terms := make([]TermCount, 0, len(d.terms))
		for _, t := range d.terms {
			terms = append(terms, TermCount{Term: t, Count: d.freq[t]})
		}
		out = append(out, DocumentCounts{ID: d.id, Terms: terms})
	}
	return out
}

// DocumentFrequency returns the number of documents containing term.
func (s *Stats) DocumentFrequency(term string) (int, bool) {
	df, ok := s.df[term]
	return df, ok
}

// Vocabulary returns document frequencies in first-seen term order.
func (s *Stats) Vocabulary() []TermCount {
	out := make([]TermCount, 0, len(s.vocab))
	for _, t := range s.vocab {
		out = append(out, TermCount{Term: t, Count: s.df[t]})
	}
	return out
}

// VocabularySize returns the number of distinct terms with a document
// frequency.
func (s *Stats) VocabularySize() int {
	return len(s.vocab)
}

// DocumentLength returns the number of tokens in a document (sum of its term
// frequencies).
func (s *Stats) DocumentLength(id string) int {
	if d, ok := s.byID[id]; ok {
		return d.len
	}
	return 0
}

// AverageDocumentLength returns the mean document length in tokens.
func (s *Stats) AverageDocumentLength() float64 {
	if len(s.docs) == 0 {
		return 0
	}
	return float64(s.totalTerms) / float64(len(s.docs))
}

// Validate checks that every document frequency equals the number of
// documents containing the term, and that no document term lacks one.
func (s *Stats) Validate() error {
	counted := make(map[string]int, len(s.df))
	for _, d := range s.docs {
		for _, t := range d.terms {
			counted[t]++
		}
	}
	for t, want := range counted {
		if got := s.df[t]; got != want {
			return fmt.Errorf("term %q: document frequency %d, found in %d documents", t, got, want)
		}
	}
	for t, df := range s.df {
		if _, ok := counted[t]; !ok {
			return fmt.Errorf("term %q: document frequency %d, found in no document", t, df)
		}
		if df > len(s.docs) {
			return fmt.Errorf("term %q: document frequency %d exceeds document count %d", t, df, len(s.docs))
		}
	}
	return nil
}

// Equal reports whether two Stats hold the same documents, term
// frequencies, and document frequencies. Ordering is ignored.
func (s *Stats) Equal(other *Stats) bool {
	if s == nil || other == nil {
		return s == other
	}
	if len(s.docs) != len(other.docs) || len(s.df) != len(other.df) {
		return false
	}
	for id, d := range s.byID {
		od, ok := other.byID[id]
		if !ok || len(d.freq) != len(od.freq) {
			return false
		}
		for t, c := range d.freq {
			if od.freq[t] != c {
				return false
			}
		}
	}
	for t, df := range s.df {
		if odf, ok := other.df[t]; !ok || odf != df {
			return false
		}
	}
	return true
}

// Restore reconstructs Stats from persisted counts. Document frequencies are
// taken as given, not recomputed from the documents.
func Restore(docs []DocumentCounts, df []TermCount) (*Stats, error) {
	if len(docs) == 0 {
		return nil, apperrors.New(apperrors.ErrZeroDocumentCollection, "restored index contains no documents")
	}
	s := &Stats{
		docs: make([]*document, 0, len(docs)),
		byID: make(map[string]*document, len(docs)),
		df:   make(map[string]int, len(df)),
	}
	for _, dc := range docs {
		if err := ValidateID(dc.ID); err != nil {
			return nil, err
		}
		if _, dup := s.byID[dc.ID]; dup {
			return nil, apperrors.Newf(apperrors.ErrDuplicateDocument, "document %q", dc.ID)
		}
		d := &document{
			id:    dc.ID,
			terms: make([]string, 0, len(dc.Terms)),
			freq:  make(map[string]int, len(dc.Terms)),
		}
		for _, tc := range dc.Terms {
			if err := ValidateTerm(tc.Term); err != nil {
				return nil, apperrors.Newf(apperrors.ErrInvalidInput, "document %q: %v", dc.ID, err)
			}
			if tc.Count <= 0 {
				return nil, apperrors.Newf(apperrors.ErrInvalidInput, "document %q term %q has count %d", dc.ID, tc.Term, tc.Count)
			}
			if _, seen := d.freq[tc.Term]; !seen {
				d.terms = append(d.terms, tc.Term)
			}
			d.freq[tc.Term] += tc.Count
			d.len += tc.Count
		}
		s.totalTerms += int64(d.len)
		s.docs = append(s.docs, d)
		s.byID[d.id] = d
	}
	for _, tc := range df {
		if err := ValidateTerm(tc.Term); err != nil {
			return nil, err
		}
		if _, seen := s.df[tc.Term]; !seen {
			s.vocab = append(s.vocab, tc.Term)
		}
		s.df[tc.Term] = tc.Count
	}
	return s, nil
}
