// Package corpus walks a document directory and yields one document per
// regular file.
package corpus

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/errors"
)

// Document is one corpus file.
type Document struct {
	ID   string
	Path string
	Text string
}

// DocumentID derives a document ID from a file name: the text before the
// first '.', or the whole name when there is none.
func DocumentID(name string) string {
	id, _, _ := strings.Cut(filepath.Base(name), ".")
	return id
}

// Walk visits every regular file under root in lexical order and calls fn
// with its contents. Files whose ID would be empty (dotfiles) are skipped.
func Walk(ctx context.Context, root string, fn func(Document) error) error {
	info, err := os.Stat(root)
	if err != nil {
		return apperrors.Newf(apperrors.ErrCorpusAccess, "%s: %v", root, err)
	}
	if !info.IsDir() {
		return apperrors.Newf(apperrors.ErrCorpusAccess, "%s is not a directory", root)
	}

	logger := slog.Default().With("component", "corpus")
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return apperrors.Newf(apperrors.ErrCorpusAccess, "%s: %v", path, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		id := DocumentID(d.Name())
		if id == "" {
			logger.Debug("skipping file without a document id", "path", path)
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return apperrors.Newf(apperrors.ErrCorpusAccess, "reading %s: %v", path, err)
		}
		return fn(Document{ID: id, Path: path, Text: string(data)})
	})
}

// Load reads every document under root.
func Load(ctx context.Context, root string) ([]Document, error) {
	var docs []Document
	err := Walk(ctx, root, func(d Document) error {
		docs = append(docs, d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}
