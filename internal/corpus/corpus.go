// Package corpus walks the labeled sample directories of a corpus root in
// canonical order.
package corpus

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/DennisG8153/apkfeat/internal/store"
)

// sniffLen is the number of leading bytes used to detect a file's type.
const sniffLen = 512

// Sample is one feature file found by a walk.
type Sample struct {
	ID    string
	Path  string
	Label int
}

// WalkFunc is called for each sample. Returning an error stops the walk.
type WalkFunc func(Sample) error

// Walk visits every sample of the root's sub-corpora: benign before
// malicious, files in lexicographic path order. Missing sub-corpora,
// unreadable entries and non-text files are logged and skipped. The walk
// stops between files when ctx is done.
func Walk(ctx context.Context, s *store.Store, fn WalkFunc) error {
	for _, sc := range store.SubCorpora {
		dir := s.Path(sc.Dir)
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			slog.Warn("Sub-corpus not found, skipping", "path", dir)
			continue
		}
		err = walkDir(ctx, dir, func(path string) error {
			id, err := s.SampleID(path)
			if err != nil {
				return err
			}
			return fn(Sample{ID: id, Path: path, Label: sc.Label})
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// WalkDir visits every sample file under dir with the given label. Sample
// ids are paths relative to dir.
func WalkDir(ctx context.Context, dir string, label int, fn WalkFunc) error {
	return walkDir(ctx, dir, func(path string) error {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		return fn(Sample{ID: filepath.ToSlash(rel), Path: path, Label: label})
	})
}

func walkDir(ctx context.Context, dir string, visit func(path string) error) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			slog.Warn("Cannot read corpus entry", "path", path, "error", err)
			if d != nil && d.IsDir() && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		// Temporary and hidden files.
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		ok, err := IsText(path)
		if err != nil {
			slog.Warn("Cannot read sample file", "path", path, "error", err)
			return nil
		}
		if !ok {
			slog.Warn("Skipping non-text sample file", "path", path)
			return nil
		}
		return visit(path)
	})
}

// IsText reports whether the file at path sniffs as text. Empty files count
// as text.
func IsText(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return false, err
	}
	if n == 0 {
		return true, nil
	}
	for m := mimetype.Detect(buf[:n]); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true, nil
		}
	}
	return false, nil
}
