// Package publisher emits finished evaluation reports to Kafka, keyed by
// model so every run of one model lands on the same partition.
package publisher

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/kafka"
)

// ReportEvent is the message body. Per-query rankings are left out to keep
// messages small; consumers that need them read the run store.
type ReportEvent struct {
	RunID            string                   `json:"run_id"`
	Model            string                   `json:"model"`
	IndexFingerprint string                   `json:"index_fingerprint"`
	Documents        int                      `json:"documents"`
	Limit            int                      `json:"limit"`
	MAP              float64                  `json:"map"`
	MeanPrecision    float64                  `json:"mean_precision"`
	MeanRecall       float64                  `json:"mean_recall"`
	Evaluated        int                      `json:"evaluated"`
	Excluded         int                      `json:"excluded"`
	Queries          []evaluation.QueryResult `json:"queries"`
}

type Publisher struct {
	producer *kafka.Producer
}

func New(producer *kafka.Producer) *Publisher {
	return &Publisher{producer: producer}
}

func (p *Publisher) Name() string { return "kafka" }

func (p *Publisher) Publish(ctx context.Context, report *evaluation.Report) error {
	return p.producer.Publish(ctx, kafka.Event{
		Key:   report.Model,
		Value: NewReportEvent(report),
		Headers: map[string]string{
			"run_id":            report.RunID,
			"index_fingerprint": report.IndexFingerprint,
		},
	})
}

func NewReportEvent(r *evaluation.Report) ReportEvent {
	queries := make([]evaluation.QueryResult, len(r.Queries))
	for i, q := range r.Queries {
		q.Ranking = nil
		queries[i] = q
	}
	return ReportEvent{
		RunID:            r.RunID,
		Model:            r.Model,
		IndexFingerprint: r.IndexFingerprint,
		Documents:        r.Documents,
		Limit:            r.Limit,
		MAP:              r.MAP,
		MeanPrecision:    r.MeanPrecision,
		MeanRecall:       r.MeanRecall,
		Evaluated:        r.Evaluated,
		Excluded:         r.Excluded,
		Queries:          queries,
	}
}
