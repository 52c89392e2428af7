package apkfeat

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/DennisG8153/apkfeat/categorize"
	"github.com/DennisG8153/apkfeat/feature"
	"github.com/DennisG8153/apkfeat/internal/corpus"
	"github.com/DennisG8153/apkfeat/internal/store"
)

// EncodeCorpus encodes every sample under root in canonical order and
// passes each vector to fn. A root with labeled sub-corpora yields their
// labels; any other directory is walked as a whole with label -1. Samples
// of a root recorded as categorized are encoded as stored, which requires
// the snapshot to carry the same categorization. It returns the number of
// vectors produced.
func (e *Encoder) EncodeCorpus(ctx context.Context, root string, fn func(Vector) error) (int, error) {
	encode, err := e.forRoot(root)
	if err != nil {
		return 0, fmt.Errorf("apkfeat: %w", err)
	}
	n := 0
	visit := func(s corpus.Sample) error {
		rec, err := feature.ReadFile(s.Path, s.ID)
		if err != nil {
			slog.Warn("Cannot read sample", "path", s.Path, "error", err)
			return nil
		}
		v := encode(rec)
		v.Label = s.Label
		if err := fn(v); err != nil {
			return err
		}
		n++
		return nil
	}

	if hasSubCorpora(root) {
		err = corpus.Walk(ctx, store.New(root), visit)
	} else {
		err = corpus.WalkDir(ctx, root, -1, visit)
	}
	if err != nil {
		return n, fmt.Errorf("apkfeat: %w", err)
	}
	return n, nil
}

// forRoot returns the encoding function for samples stored under root.
func (e *Encoder) forRoot(root string) (func(*feature.Record) Vector, error) {
	m, err := store.New(root).ReadManifest()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return e.Encode, nil
	case err != nil:
		return nil, err
	case m.Categorization == nil:
		return e.Encode, nil
	}
	if err := categorize.SameProfile(e.Snapshot().Categorization(), m.Categorization); err != nil {
		return nil, fmt.Errorf("%s: %w", root, err)
	}
	return e.encodeStored, nil
}

func hasSubCorpora(root string) bool {
	s := store.New(root)
	for _, sc := range store.SubCorpora {
		if info, err := os.Stat(s.Path(sc.Dir)); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}
