package termstats

import (
	"strings"
	"unicode"

	apperrors "github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/errors"
)

// Builder accumulates documents into Stats. It is not safe for concurrent
// use; the index is built by a single goroutine and then shared read-only.
type Builder struct {
	stats *Stats
	built bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		stats: &Stats{
			byID: make(map[string]*document),
			df:   make(map[string]int),
		},
	}
}

// Add counts the tokens of one document. A document with no tokens is still
// recorded with an empty frequency map. Each distinct term raises its
// document frequency by exactly one.
func (b *Builder) Add(docID string, tokens []string) error {
	if b.built {
		return apperrors.New(apperrors.ErrInvalidInput, "builder already finished")
	}
	if err := ValidateID(docID); err != nil {
		return err
	}
	s := b.stats
	if _, dup := s.byID[docID]; dup {
		return apperrors.Newf(apperrors.ErrDuplicateDocument, "document %q", docID)
	}
	d := &document{
		id:   docID,
		freq: make(map[string]int),
		len:  len(tokens),
	}
	for _, tok := range tokens {
		if tok == "" {
			d.len--
			continue
		}
		if err := ValidateTerm(tok); err != nil {
			return apperrors.Newf(apperrors.ErrInvalidInput, "document %q: %v", docID, err)
		}
		if _, seen := d.freq[tok]; !seen {
			d.terms = append(d.terms, tok)
		}
		d.freq[tok]++
	}
	for _, t := range d.terms {
		if _, known := s.df[t]; !known {
			s.vocab = append(s.vocab, t)
		}
		s.df[t]++
	}
	s.totalTerms += int64(d.len)
	s.docs = append(s.docs, d)
	s.byID[docID] = d
	return nil
}

// ValidateID rejects document IDs the index file cannot hold: the first
// ':' on a line ends the ID, and IDs are whitespace-trimmed on load.
func ValidateID(id string) error {
	switch {
	case id == "":
		return apperrors.New(apperrors.ErrInvalidInput, "empty document id")
	case strings.ContainsAny(id, ":\r\n"):
		return apperrors.Newf(apperrors.ErrInvalidInput, "document id %q contains ':' or a line break", id)
	case strings.TrimSpace(id) != id:
		return apperrors.Newf(apperrors.ErrInvalidInput, "document id %q has surrounding whitespace", id)
	}
	return nil
}

// ValidateTerm rejects terms containing the pair separator ';' or any
// whitespace, which separates a term from its count.
func ValidateTerm(term string) error {
	if term == "" {
		return apperrors.New(apperrors.ErrInvalidInput, "empty term")
	}
	if strings.IndexFunc(term, func(r rune) bool { return r == ';' || unicode.IsSpace(r) }) >= 0 {
		return apperrors.Newf(apperrors.ErrInvalidInput, "term %q contains ';' or whitespace", term)
	}
	return nil
}

// Len returns the number of documents added so far.
func (b *Builder) Len() int {
	return len(b.stats.docs)
}

// Build finishes construction. An empty collection is a configuration error
// because every idf formula divides by the document count.
func (b *Builder) Build() (*Stats, error) {
	if len(b.stats.docs) == 0 {
		return nil, apperrors.New(apperrors.ErrZeroDocumentCollection, "no documents were indexed")
	}
	b.built = true
	return b.stats, nil
}

// Entry is one document of a corpus: its ID and analyzed tokens.
type Entry struct {
	ID     string
	Tokens []string
}

// Build constructs Stats from a whole corpus in order.
func Build(corpus []Entry) (*Stats, error) {
	b := NewBuilder()
	for _, e := range corpus {
		if err := b.Add(e.ID, e.Tokens); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

// CountTokens returns the term frequency map of a token sequence.
func CountTokens(tokens []string) map[string]int {
	counts := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		counts[tok]++
	}
	return counts
}
