package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/indexer/termstats"
)

// FileStore keeps the index in a single text file.
type FileStore struct {
	path   string
	logger *slog.Logger
}

// NewFileStore creates a FileStore for the given file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path:   path,
		logger: slog.Default().With("component", "index-store", "format", "text"),
	}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Exists() (bool, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("checking index file: %w", err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("index path %s is a directory", s.path)
	}
	return true, nil
}

// Save atomically replaces the index file. It writes to a .tmp file first
// and renames on success.
func (s *FileStore) Save(ctx context.Context, stats *termstats.Stats) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}
	tmpPath := s.path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp index file: %w", err)
	}
	defer f.Close()

	if err := Encode(f, stats); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := f.Sync(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("syncing index file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing index file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("renaming index file: %w", err)
	}
	s.logger.Info("index written",
		"path", s.path,
		"docs", stats.DocumentCount(),
		"terms", stats.VocabularySize(),
	)
	return nil
}

// Load reads the whole index file. Malformed lines are logged and reported
// but do not abort the load.
func (s *FileStore) Load(ctx context.Context) (*termstats.Stats, *LoadReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening index file: %w", err)
	}
	defer f.Close()

	stats, report, err := Decode(f)
	for _, le := range report.Malformed {
		s.logger.Warn("skipping malformed index line",
			"line", le.Line,
			"section", le.Section,
			"error", le.Err,
		)
	}
	if err != nil {
		return nil, report, fmt.Errorf("loading index %s: %w", s.path, err)
	}
	if !report.SentinelFound {
		s.logger.Warn("index file has no document frequency section", "path", s.path)
	}
	s.logger.Info("index loaded",
		"path", s.path,
		"docs", stats.DocumentCount(),
		"terms", stats.VocabularySize(),
		"malformed_lines", report.MalformedCount(),
	)
	return stats, report, nil
}
