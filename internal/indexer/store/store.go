// Package store persists term statistics so an index is built once and
// reused across runs. The text format is the default; a sqlite database can
// be used instead.
package store

import (
	"context"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/internal/indexer/termstats"
)

// Store saves and restores a complete index.
type Store interface {
	// Exists reports whether a persisted index is present.
	Exists() (bool, error)
	Save(ctx context.Context, stats *termstats.Stats) error
	Load(ctx context.Context) (*termstats.Stats, *LoadReport, error)
	Path() string
}

// Open returns the Store for the given format ("text" or "sqlite").
func Open(format, path string) (Store, error) {
	switch format {
	case "", "text":
		return NewFileStore(path), nil
	case "sqlite":
		return NewSQLiteStore(path), nil
	default:
		return nil, fmt.Errorf("unknown index format %q", format)
	}
}
