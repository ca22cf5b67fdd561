package evaluation

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/searcher/ranker"
)

// Status classifies how a query took part in an evaluation run.
type Status string

const (
	// StatusOK queries are ranked and included in MAP.
	StatusOK Status = "ok"
	// StatusEmptyQuery queries analysed to no terms. They rank nothing, score
	// AP 0 and are included in MAP.
	StatusEmptyQuery Status = "empty_query"
	// StatusEmptyRelevanceSet queries have no relevant documents and are
	// excluded from MAP.
	StatusEmptyRelevanceSet Status = "empty_relevance_set"
	// StatusError queries failed to rank and are excluded from MAP.
	StatusError Status = "error"
)

// Included reports whether a query with this status counts towards MAP.
func (s Status) Included() bool {
	return s == StatusOK || s == StatusEmptyQuery
}

// QueryResult is the outcome of one query.
type QueryResult struct {
	QueryID           int     `json:"query_id"`
	Query             string  `json:"query"`
	Status            Status  `json:"status"`
	AveragePrecision  float64 `json:"average_precision"`
	Precision         float64 `json:"precision"`
	Recall            float64 `json:"recall"`
	Relevant          int     `json:"relevant"`
	Retrieved         int     `json:"retrieved"`
	RelevantRetrieved int     `json:"relevant_retrieved"`
	// Error explains every status other than ok.
	Error string `json:"error,omitempty"`

	Ranking []ranker.ScoredDoc `json:"ranking,omitempty"`
}

// Report summarises one evaluation run of one weighting model.
type Report struct {
	RunID            string        `json:"run_id"`
	Model            string        `json:"model"`
	IndexFingerprint string        `json:"index_fingerprint,omitempty"`
	Documents        int           `json:"documents"`
	Limit            int           `json:"limit"`
	StartedAt        time.Time     `json:"started_at"`
	Duration         time.Duration `json:"duration_ns"`
	Queries          []QueryResult `json:"queries"`
	Evaluated        int           `json:"evaluated"`
	Excluded         int           `json:"excluded"`
	UnmatchedJudged  int           `json:"unmatched_judgments"`
	MAP              float64       `json:"map"`
	MeanPrecision    float64       `json:"mean_precision"`
	MeanRecall       float64       `json:"mean_recall"`
}

// Summarize recomputes the aggregate fields from Queries. Only included
// queries contribute to the means.
func (r *Report) Summarize() {
	r.Evaluated, r.Excluded = 0, 0
	var ap, p, rec float64
	for _, q := range r.Queries {
		if !q.Status.Included() {
			r.Excluded++
			continue
		}
		r.Evaluated++
		ap += q.AveragePrecision
		p += q.Precision
		rec += q.Recall
	}
	r.MAP, r.MeanPrecision, r.MeanRecall = 0, 0, 0
	if r.Evaluated > 0 {
		n := float64(r.Evaluated)
		r.MAP = ap / n
		r.MeanPrecision = p / n
		r.MeanRecall = rec / n
	}
}
