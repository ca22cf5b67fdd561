// Package ranker scores documents against a query and orders them by
// descending score, ties broken by ascending document ID.
package ranker

import (
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/searcher/weighting"
)

const (
	k1 = 1.2
	b  = 0.75
)

type ScoredDoc struct {
	DocID string  `json:"doc_id"`
	Score float64 `json:"score"`
}

// DocVector is a document's weight vector.
type DocVector struct {
	DocID  string
	Vector weighting.Vector
}

// Cosine scores every document by the dot product with query over shared
// terms. When normalize is set the dot product is divided by the product of
// both norms, and a zero divisor yields a score of 0. Every document is
// ranked, including those scoring 0. An empty query ranks nothing. limit <= 0
// returns all documents.
func Cosine(query weighting.Vector, docs []DocVector, normalize bool, limit int) []ScoredDoc {
	if len(query.Weights) == 0 {
		return []ScoredDoc{}
	}
	terms := query.Terms()
	weights := make([]float64, len(terms))
	for i, t := range terms {
		weights[i] = query.Weights[t]
	}

	scored := make([]ScoredDoc, 0, len(docs))
	for _, d := range docs {
		var dot float64
		for i, t := range terms {
			if w, ok := d.Vector.Weights[t]; ok {
				dot += weights[i] * w
			}
		}
		score := dot
		if normalize {
			divisor := d.Vector.Norm * query.Norm
			if divisor == 0 {
				score = 0
			} else {
				score = dot / divisor
			}
		}
		scored = append(scored, ScoredDoc{DocID: d.DocID, Score: score})
	}
	return TopK(scored, limit)
}

// RankParams carries the collection statistics BM25 needs.
type RankParams struct {
	TotalDocs    int64
	AvgDocLength float64
}

// DocInfo describes one candidate document for BM25.
type DocInfo struct {
	DocID     string
	DocLength int
	Terms     map[string]int
}

// BM25 scores documents with Okapi BM25 as a baseline for the vector space
// schemes. Query term frequencies are ignored; each distinct query term
// contributes once.
func BM25(queryTerms []string, docFreq func(term string) int, params RankParams, docs []DocInfo, limit int) []ScoredDoc {
	if len(queryTerms) == 0 {
		return []ScoredDoc{}
	}
	seen := make(map[string]struct{}, len(queryTerms))
	distinct := make([]string, 0, len(queryTerms))
	for _, t := range queryTerms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		distinct = append(distinct, t)
	}
	sort.Strings(distinct)
	idfs := make([]float64, len(distinct))
	for i, t := range distinct {
		idfs[i] = computeIDF(params.TotalDocs, int64(docFreq(t)))
	}

	scored := make([]ScoredDoc, 0, len(docs))
	for _, d := range docs {
		var score float64
		for i, t := range distinct {
			tf, ok := d.Terms[t]
			if !ok {
				continue
			}
			score += idfs[i] * computeTFNorm(float64(tf), float64(d.DocLength), params.AvgDocLength)
		}
		scored = append(scored, ScoredDoc{DocID: d.DocID, Score: score})
	}
	return TopK(scored, limit)
}

func computeIDF(totalDocs int64, docFreq int64) float64 {
	numerator := float64(totalDocs) - float64(docFreq)
	denominator := float64(docFreq) + 0.5
	return math.Log(numerator/denominator + 1)
}

func computeTFNorm(termFreq float64, docLength float64, avgDocLength float64) float64 {
	if avgDocLength == 0 {
		return 0
	}
	lengthRatio := docLength / avgDocLength
	denominator := termFreq + k1*(1-b+b*lengthRatio)
	return (termFreq * (k1 + 1)) / denominator
}

// Less reports whether a ranks before b.
func Less(a, b ScoredDoc) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.DocID < b.DocID
}

// Sort orders docs in place by rank.
func Sort(docs []ScoredDoc) {
	sort.Slice(docs, func(i, j int) bool {
		return Less(docs[i], docs[j])
	})
}
