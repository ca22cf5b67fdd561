package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/glebarez/sqlite"

	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/indexer/termstats"
	apperrors "github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/errors"
)

const (
	SectionDocumentRows   = "documents_table"
	SectionFrequencyRows  = "term_frequencies_table"
	SectionVocabularyRows = "vocabulary_table"
)

const schema = `
	CREATE TABLE documents (
		id INTEGER PRIMARY KEY,
		doc_key TEXT UNIQUE NOT NULL,
		word_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE vocabulary (
		id INTEGER PRIMARY KEY,
		term TEXT UNIQUE NOT NULL,
		document_frequency INTEGER,
		position INTEGER
	);

	CREATE TABLE term_frequencies (
		doc_id INTEGER NOT NULL,
		term_id INTEGER NOT NULL,
		frequency INTEGER NOT NULL,
		position INTEGER NOT NULL,
		FOREIGN KEY (doc_id) REFERENCES documents(id) ON DELETE CASCADE,
		FOREIGN KEY (term_id) REFERENCES vocabulary(id) ON DELETE CASCADE,
		UNIQUE(doc_id, term_id)
	);

	CREATE INDEX idx_term_frequencies_doc ON term_frequencies(doc_id);
`

// SQLiteStore keeps the index in a sqlite database. Document order is the
// documents.id order; df order is vocabulary.position.
type SQLiteStore struct {
	path   string
	logger *slog.Logger
}

// NewSQLiteStore creates a SQLiteStore for the given database file.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{
		path:   path,
		logger: slog.Default().With("component", "index-store", "format", "sqlite"),
	}
}

func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Exists() (bool, error) {
	_, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("checking index database: %w", err)
	}
	return true, nil
}

// Save builds a fresh database next to the target and renames it into
// place, so a failed save never leaves a half-written index behind.
func (s *SQLiteStore) Save(ctx context.Context, stats *termstats.Stats) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}
	tmpPath := s.path + ".tmp"
	os.Remove(tmpPath)

	if err := s.write(ctx, tmpPath, stats); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming index database: %w", err)
	}
	s.logger.Info("index written",
		"path", s.path,
		"docs", stats.DocumentCount(),
		"terms", stats.VocabularySize(),
	)
	return nil
}

func (s *SQLiteStore) write(ctx context.Context, path string, stats *termstats.Stats) (err error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening index database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating index schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	termIDs := make(map[string]int64)
	insertTerm, err := tx.PrepareContext(ctx, "INSERT INTO vocabulary (id, term, document_frequency, position) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing vocabulary insert: %w", err)
	}
	defer insertTerm.Close()

	for i, tc := range stats.Vocabulary() {
		id := int64(len(termIDs) + 1)
		if _, err = insertTerm.ExecContext(ctx, id, tc.Term, tc.Count, i); err != nil {
			return fmt.Errorf("inserting term %q: %w", tc.Term, err)
		}
		termIDs[tc.Term] = id
	}

	insertDoc, err := tx.PrepareContext(ctx, "INSERT INTO documents (id, doc_key, word_count) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing document insert: %w", err)
	}
	defer insertDoc.Close()
	insertFreq, err := tx.PrepareContext(ctx, "INSERT INTO term_frequencies (doc_id, term_id, frequency, position) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing frequency insert: %w", err)
	}
	defer insertFreq.Close()

	for i, doc := range stats.Documents() {
		docID := int64(i + 1)
		if _, err = insertDoc.ExecContext(ctx, docID, doc.ID, stats.DocumentLength(doc.ID)); err != nil {
			return fmt.Errorf("inserting document %q: %w", doc.ID, err)
		}
		for pos, tc := range doc.Terms {
			termID, ok := termIDs[tc.Term]
			if !ok {
				// Terms without a document frequency keep a NULL df.
				termID = int64(len(termIDs) + 1)
				if _, err = insertTerm.ExecContext(ctx, termID, tc.Term, nil, nil); err != nil {
					return fmt.Errorf("inserting term %q: %w", tc.Term, err)
				}
				termIDs[tc.Term] = termID
			}
			if _, err = insertFreq.ExecContext(ctx, docID, termID, tc.Count, pos); err != nil {
				return fmt.Errorf("inserting frequency %q/%q: %w", doc.ID, tc.Term, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing index: %w", err)
	}
	return nil
}

// Load reads the database back into Stats. Rows with non-positive counts are
// skipped and reported the same way malformed text lines are.
func (s *SQLiteStore) Load(ctx context.Context) (*termstats.Stats, *LoadReport, error) {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening index database: %w", err)
	}
	defer db.Close()

	report := &LoadReport{SentinelFound: true}

	docs, positions, err := s.loadDocuments(ctx, db, report)
	if err != nil {
		return nil, report, err
	}
	if err := s.loadFrequencies(ctx, db, docs, positions, report); err != nil {
		return nil, report, err
	}
	df, err := s.loadVocabulary(ctx, db, report)
	if err != nil {
		return nil, report, err
	}

	for _, le := range report.Malformed {
		s.logger.Warn("skipping malformed index row",
			"row", le.Line,
			"section", le.Section,
			"error", le.Err,
		)
	}

	stats, err := termstats.Restore(docs, df)
	if err != nil {
		return nil, report, fmt.Errorf("loading index %s: %w", s.path, err)
	}
	s.logger.Info("index loaded",
		"path", s.path,
		"docs", stats.DocumentCount(),
		"terms", stats.VocabularySize(),
		"malformed_rows", report.MalformedCount(),
	)
	return stats, report, nil
}

func (s *SQLiteStore) loadDocuments(ctx context.Context, db *sql.DB, report *LoadReport) ([]termstats.DocumentCounts, map[int64]int, error) {
	rows, err := db.QueryContext(ctx, "SELECT id, doc_key FROM documents ORDER BY id")
	if err != nil {
		return nil, nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []termstats.DocumentCounts
	positions := make(map[int64]int)
	for rows.Next() {
		var (
			id  int64
			key string
		)
		if err := rows.Scan(&id, &key); err != nil {
			return nil, nil, fmt.Errorf("scanning document: %w", err)
		}
		if key == "" {
			report.Malformed = append(report.Malformed, LineError{
				Line:    int(id),
				Section: SectionDocumentRows,
				Err:     apperrors.New(apperrors.ErrMalformedIndexLine, "empty document key"),
			})
			continue
		}
		positions[id] = len(docs)
		docs = append(docs, termstats.DocumentCounts{ID: key})
		report.DocumentLines++
	}
	return docs, positions, rows.Err()
}

func (s *SQLiteStore) loadFrequencies(ctx context.Context, db *sql.DB, docs []termstats.DocumentCounts, positions map[int64]int, report *LoadReport) error {
	rows, err := db.QueryContext(ctx, `
		SELECT tf.doc_id, v.term, tf.frequency
		FROM term_frequencies tf
		JOIN vocabulary v ON v.id = tf.term_id
		ORDER BY tf.doc_id, tf.position`)
	if err != nil {
		return fmt.Errorf("querying term frequencies: %w", err)
	}
	defer rows.Close()

	row := 0
	for rows.Next() {
		row++
		var (
			docID int64
			term  string
			freq  int
		)
		if err := rows.Scan(&docID, &term, &freq); err != nil {
			return fmt.Errorf("scanning term frequency: %w", err)
		}
		pos, ok := positions[docID]
		if !ok {
			continue
		}
		if freq <= 0 {
			report.Malformed = append(report.Malformed, LineError{
				Line:    row,
				Section: SectionFrequencyRows,
				Err:     apperrors.Newf(apperrors.ErrMalformedIndexLine, "non-positive count %d for %q", freq, term),
			})
			continue
		}
		docs[pos].Terms = append(docs[pos].Terms, termstats.TermCount{Term: term, Count: freq})
	}
	return rows.Err()
}

func (s *SQLiteStore) loadVocabulary(ctx context.Context, db *sql.DB, report *LoadReport) ([]termstats.TermCount, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, term, document_frequency
		FROM vocabulary
		WHERE document_frequency IS NOT NULL
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying vocabulary: %w", err)
	}
	defer rows.Close()

	var df []termstats.TermCount
	for rows.Next() {
		var (
			id    int64
			term  string
			count int
		)
		if err := rows.Scan(&id, &term, &count); err != nil {
			return nil, fmt.Errorf("scanning vocabulary: %w", err)
		}
		if count <= 0 {
			report.Malformed = append(report.Malformed, LineError{
				Line:    int(id),
				Section: SectionVocabularyRows,
				Err:     apperrors.Newf(apperrors.ErrMalformedIndexLine, "non-positive document frequency %d for %q", count, term),
			})
			continue
		}
		df = append(df, termstats.TermCount{Term: term, Count: count})
		report.TermLines++
	}
	return df, rows.Err()
}
