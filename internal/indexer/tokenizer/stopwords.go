package tokenizer

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// StopWords is a set of lower-case words the analyzer drops.
type StopWords map[string]struct{}

// Contains reports whether w is a stop word. A nil set contains nothing.
func (s StopWords) Contains(w string) bool {
	_, ok := s[w]
	return ok
}

// NewStopWords builds a set from words, trimmed and lower-cased.
func NewStopWords(ws ...string) StopWords {
	s := make(StopWords, len(ws))
	for _, w := range ws {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			s[w] = struct{}{}
		}
	}
	return s
}

// DefaultStopWords returns a small English stop list. Callers own the
// returned set.
func DefaultStopWords() StopWords {
	return NewStopWords(
		"a", "an", "and", "are", "as", "at",
		"be", "by", "for", "from", "has", "he",
		"in", "is", "it", "its", "of", "on",
		"or", "that", "the", "to", "was", "were",
		"will", "with", "this", "but", "they",
		"have", "had", "what", "when", "where",
		"who", "which", "their", "if", "each",
		"do", "not", "no", "so", "can",
	)
}

// ReadStopWords reads one word per line. Blank lines are ignored.
func ReadStopWords(r io.Reader) (StopWords, error) {
	s := make(StopWords)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		w := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if w == "" {
			continue
		}
		s[w] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading stop words: %w", err)
	}
	return s, nil
}

// LoadStopWords reads a stop-word file from disk.
func LoadStopWords(path string) (StopWords, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening stop-word file: %w", err)
	}
	defer f.Close()
	return ReadStopWords(f)
}
