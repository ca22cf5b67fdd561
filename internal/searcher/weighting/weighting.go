// Package weighting turns term frequency maps into weight vectors using the
// three-letter SMART notation: term frequency (n, a, b), inverse document
// frequency (n, t, p) and normalisation (n, c).
//
// A pair "ddd.qqq" names the document scheme first and the query scheme
// second, e.g. "atc.atc" or "lnc.ltc"-style combinations such as "ann.bpn".
package weighting

import (
	"fmt"
	"math"
	"sort"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/errors"
)

// Term frequency components.
const (
	TFRaw       byte = 'n'
	TFAugmented byte = 'a'
	TFBinary    byte = 'b'
)

// Document frequency components.
const (
	IDFNone          byte = 'n'
	IDFStandard      byte = 't'
	IDFProbabilistic byte = 'p'
)

// Normalisation components.
const (
	NormNone   byte = 'n'
	NormCosine byte = 'c'
)

// Scheme is one side of a weighting: how tf, idf and normalisation are
// applied to a vector.
type Scheme struct {
	TF   byte
	IDF  byte
	Norm byte
}

// ParseScheme parses a three-letter scheme such as "atc".
func ParseScheme(s string) (Scheme, error) {
	if len(s) != 3 {
		return Scheme{}, apperrors.Newf(apperrors.ErrInvalidScheme, "%q: want three letters", s)
	}
	sc := Scheme{TF: s[0], IDF: s[1], Norm: s[2]}
	switch sc.TF {
	case TFRaw, TFAugmented, TFBinary:
	default:
		return Scheme{}, apperrors.Newf(apperrors.ErrInvalidScheme, "%q: unknown term frequency %q", s, sc.TF)
	}
	switch sc.IDF {
	case IDFNone, IDFStandard, IDFProbabilistic:
	default:
		return Scheme{}, apperrors.Newf(apperrors.ErrInvalidScheme, "%q: unknown document frequency %q", s, sc.IDF)
	}
	switch sc.Norm {
	case NormNone, NormCosine:
	default:
		return Scheme{}, apperrors.Newf(apperrors.ErrInvalidScheme, "%q: unknown normalisation %q", s, sc.Norm)
	}
	return sc, nil
}

func (s Scheme) String() string {
	return string([]byte{s.TF, s.IDF, s.Norm})
}

// Cosine reports whether the scheme normalises to unit length.
func (s Scheme) Cosine() bool {
	return s.Norm == NormCosine
}

// Schemes returns all eighteen valid schemes in notation order.
func Schemes() []Scheme {
	var out []Scheme
	for _, tf := range []byte{TFRaw, TFAugmented, TFBinary} {
		for _, idf := range []byte{IDFNone, IDFStandard, IDFProbabilistic} {
			for _, n := range []byte{NormNone, NormCosine} {
				out = append(out, Scheme{TF: tf, IDF: idf, Norm: n})
			}
		}
	}
	return out
}

// Pair combines the document scheme and the query scheme.
type Pair struct {
	Document Scheme
	Query    Scheme
}

// ParsePair parses "ddd.qqq".
func ParsePair(s string) (Pair, error) {
	d, q, ok := strings.Cut(s, ".")
	if !ok {
		return Pair{}, apperrors.Newf(apperrors.ErrInvalidScheme, "%q: want ddd.qqq", s)
	}
	doc, err := ParseScheme(d)
	if err != nil {
		return Pair{}, err
	}
	query, err := ParseScheme(q)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Document: doc, Query: query}, nil
}

func (p Pair) String() string {
	return p.Document.String() + "." + p.Query.String()
}

// Normalize reports whether scores are divided by the product of the
// vector norms. That happens only when both sides are cosine.
func (p Pair) Normalize() bool {
	return p.Document.Cosine() && p.Query.Cosine()
}

// Collection is the collection-wide information idf needs.
type Collection interface {
	DocumentCount() int
	DocumentFrequency(term string) (int, bool)
}

// Vector is a weighted term vector. Norm is 1 for unnormalised vectors; for
// cosine vectors it is the length of the final weights (1, or 0 when every
// weight is zero). Vectors are never mutated after Weigh returns.
type Vector struct {
	Weights map[string]float64
	Norm    float64
}

// Weigh applies the scheme to a term frequency map.
func (s Scheme) Weigh(tf map[string]int, c Collection) Vector {
	terms := make([]string, 0, len(tf))
	maxCount := 0
	for t, n := range tf {
		if n <= 0 {
			continue
		}
		terms = append(terms, t)
		if n > maxCount {
			maxCount = n
		}
	}
	// Sorted so the norm is summed in a fixed order.
	sort.Strings(terms)

	weights := make(map[string]float64, len(terms))
	for _, t := range terms {
		weights[t] = s.tfWeight(tf[t], maxCount) * s.idfWeight(t, c)
	}

	v := Vector{Weights: weights, Norm: 1}
	if !s.Cosine() {
		return v
	}
	var sum float64
	for _, t := range terms {
		sum += weights[t] * weights[t]
	}
	if sum == 0 {
		v.Norm = 0
		return v
	}
	length := math.Sqrt(sum)
	var final float64
	for _, t := range terms {
		weights[t] /= length
		final += weights[t] * weights[t]
	}
	v.Norm = math.Sqrt(final)
	return v
}

func (s Scheme) tfWeight(count, maxCount int) float64 {
	switch s.TF {
	case TFAugmented:
		if maxCount == 0 {
			return 0
		}
		return 0.5 + 0.5*float64(count)/float64(maxCount)
	case TFBinary:
		if count > 0 {
			return 1
		}
		return 0
	default:
		return float64(count)
	}
}

// idfWeight treats terms without a document frequency as idf 1 so unknown
// query terms never abort scoring.
func (s Scheme) idfWeight(term string, c Collection) float64 {
	if s.IDF == IDFNone {
		return 1
	}
	df, ok := c.DocumentFrequency(term)
	if !ok || df <= 0 {
		return 1
	}
	n := float64(c.DocumentCount())
	switch s.IDF {
	case IDFStandard:
		return math.Log(n / float64(df))
	case IDFProbabilistic:
		if n-float64(df) <= 0 {
			return 0
		}
		return math.Log((n - float64(df)) / float64(df))
	}
	return 1
}

// Terms returns the vector's terms in sorted order.
func (v Vector) Terms() []string {
	terms := make([]string, 0, len(v.Weights))
	for t := range v.Weights {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}

// Describe expands a scheme into words, e.g. "augmented tf, idf, cosine".
func (s Scheme) Describe() string {
	tf := map[byte]string{TFRaw: "raw tf", TFAugmented: "augmented tf", TFBinary: "binary tf"}[s.TF]
	idf := map[byte]string{IDFNone: "no idf", IDFStandard: "idf", IDFProbabilistic: "probabilistic idf"}[s.IDF]
	norm := map[byte]string{NormNone: "no normalisation", NormCosine: "cosine"}[s.Norm]
	return fmt.Sprintf("%s, %s, %s", tf, idf, norm)
}
