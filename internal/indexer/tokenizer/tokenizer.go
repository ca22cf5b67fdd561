// Package tokenizer turns raw text into index terms. Text is NFKC-normalised
// and lower-cased, split on UAX#29 word boundaries, stop-word filtered and
// reduced with the Snowball English stemmer.
package tokenizer

import (
	"strings"
	"unicode"

	"github.com/clipperhouse/uax29/v2/words"
	"github.com/kljensen/snowball/english"
	"golang.org/x/text/unicode/norm"
)

// Analyzer converts text into a sequence of normalised terms. The same
// Analyzer must be used for documents and queries.
type Analyzer interface {
	Analyze(text string) []string
}

// Token represents a single normalised term and its position in the
// analysed text.
type Token struct {
	Term     string
	Position int
}

// Options configures an English analyzer.
type Options struct {
	// StopWords are dropped before and after stemming. Nil means no stop
	// words.
	StopWords StopWords
	// MinLength drops words shorter than this many runes.
	MinLength int
	// DisableStemming keeps surface forms.
	DisableStemming bool
}

// English is the default Analyzer.
type English struct {
	stop      StopWords
	minLength int
	stem      bool
}

// NewEnglish creates an English analyzer from opts.
func NewEnglish(opts Options) *English {
	return &English{
		stop:      opts.StopWords,
		minLength: opts.MinLength,
		stem:      !opts.DisableStemming,
	}
}

// Analyze returns the terms of text in order.
func (a *English) Analyze(text string) []string {
	tokens := a.Tokenize(text)
	terms := make([]string, len(tokens))
	for i, tok := range tokens {
		terms[i] = tok.Term
	}
	return terms
}

// Tokenize is Analyze with term positions. Positions count kept terms only.
func (a *English) Tokenize(text string) []Token {
	text = strings.ToLower(norm.NFKC.String(text))
	seg := words.FromString(text)
	tokens := make([]Token, 0, len(text)/6)
	pos := 0
	for seg.Next() {
		// UAX#29 keeps "3;4" together; ';' separates pairs in the index file.
		for _, word := range strings.FieldsFunc(seg.Value(), isPairSeparator) {
			term, ok := a.term(word)
			if !ok {
				continue
			}
			tokens = append(tokens, Token{
				Term:     term,
				Position: pos,
			})
			pos++
		}
	}
	return tokens
}

func (a *English) term(word string) (string, bool) {
	if !isWord(word) {
		return "", false
	}
	if a.minLength > 0 && len([]rune(word)) < a.minLength {
		return "", false
	}
	if a.stop.Contains(word) {
		return "", false
	}
	term := word
	if a.stem {
		term = english.Stem(word, true)
	}
	if term == "" || a.stop.Contains(term) {
		return "", false
	}
	return term, true
}

func isPairSeparator(r rune) bool {
	return r == ';'
}

// isWord reports whether a segment carries a letter or digit; UAX#29 also
// yields whitespace and punctuation segments.
func isWord(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// AnalyzerFunc adapts a plain function to the Analyzer interface.
type AnalyzerFunc func(text string) []string

func (f AnalyzerFunc) Analyze(text string) []string {
	return f(text)
}

// Whitespace splits on whitespace only. Tests use it to feed exact tokens.
var Whitespace Analyzer = AnalyzerFunc(strings.Fields)
