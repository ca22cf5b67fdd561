// Package runstore keeps the history of evaluation runs in PostgreSQL so
// MAP can be compared across weighting models and index rebuilds.
package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/resilience"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS evaluation_runs (
		run_id            UUID PRIMARY KEY,
		model             TEXT NOT NULL,
		index_fingerprint TEXT NOT NULL,
		map               DOUBLE PRECISION NOT NULL,
		evaluated         INTEGER NOT NULL,
		excluded          INTEGER NOT NULL,
		started_at        TIMESTAMPTZ NOT NULL,
		report            JSONB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS evaluation_runs_model_idx
		ON evaluation_runs (model, started_at DESC)`,
	`CREATE TABLE IF NOT EXISTS evaluation_queries (
		run_id            UUID NOT NULL REFERENCES evaluation_runs (run_id) ON DELETE CASCADE,
		query_id          INTEGER NOT NULL,
		status            TEXT NOT NULL,
		average_precision DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (run_id, query_id)
	)`,
}

// Summary is one row of the run history.
type Summary struct {
	RunID            string
	Model            string
	IndexFingerprint string
	MAP              float64
	Evaluated        int
	Excluded         int
}

type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

func New(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "run-store"),
	}
}

// EnsureSchema creates the tables if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.db.Migrate(ctx, schema...)
}

func (s *Store) Name() string { return "postgres" }

// Publish stores the report and its per-query scores in one transaction.
func (s *Store) Publish(ctx context.Context, report *evaluation.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return resilience.Permanent(fmt.Errorf("marshaling report: %w", err))
	}
	err = s.db.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO evaluation_runs
				(run_id, model, index_fingerprint, map, evaluated, excluded, started_at, report)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (run_id) DO NOTHING`,
			report.RunID, report.Model, report.IndexFingerprint, report.MAP,
			report.Evaluated, report.Excluded, report.StartedAt, data,
		)
		if err != nil {
			return fmt.Errorf("inserting run: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO evaluation_queries (run_id, query_id, status, average_precision)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (run_id, query_id) DO NOTHING`)
		if err != nil {
			return fmt.Errorf("preparing query insert: %w", err)
		}
		defer stmt.Close()
		for _, q := range report.Queries {
			if _, err := stmt.ExecContext(ctx, report.RunID, q.QueryID, string(q.Status), q.AveragePrecision); err != nil {
				return fmt.Errorf("inserting query %d: %w", q.QueryID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("run saved", "run_id", report.RunID, "model", report.Model, "map", report.MAP)
	return nil
}

// Get loads a stored report. It returns nil, nil for an unknown run.
func (s *Store) Get(ctx context.Context, runID string) (*evaluation.Report, error) {
	var data []byte
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT report FROM evaluation_runs WHERE run_id = $1`, runID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying run %s: %w", runID, err)
	}
	var report evaluation.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("unmarshaling run %s: %w", runID, err)
	}
	return &report, nil
}

// List returns the newest runs first. An empty model lists every model.
func (s *Store) List(ctx context.Context, model string, limit int) ([]Summary, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT run_id, model, index_fingerprint, map, evaluated, excluded
		   FROM evaluation_runs
		  WHERE $1 = '' OR model = $1
		  ORDER BY started_at DESC
		  LIMIT $2`,
		model, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Summary
	for rows.Next() {
		var r Summary
		if err := rows.Scan(&r.RunID, &r.Model, &r.IndexFingerprint, &r.MAP, &r.Evaluated, &r.Excluded); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
