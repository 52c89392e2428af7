package apkfeat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DennisG8153/apkfeat/feature"
	"github.com/DennisG8153/apkfeat/internal/corpus"
	"github.com/DennisG8153/apkfeat/internal/store"
	"github.com/DennisG8153/apkfeat/vocab"
)

// ReduceResult summarizes a pruning pass.
type ReduceResult struct {
	Total   int
	Before  int
	After   int
	Written int
	Failed  int
	Index   *vocab.Index
}

// Reduce prunes the vocabulary under in with b and writes the surviving
// vocabulary, the filtered sample files and fresh totals under out. in and
// out may be the same root. Surviving tokens keep their ids and out keeps
// in's categorization. A sample that cannot be read or written is logged
// and counted as failed.
func Reduce(ctx context.Context, in, out string, b vocab.Bounds) (*ReduceResult, error) {
	src := store.New(in)
	dst := store.New(out)

	srcManifest, err := src.Check()
	if err != nil {
		return nil, fmt.Errorf("apkfeat: %w", err)
	}
	x, err := src.LoadVocabulary(store.LoadOptions{})
	if err != nil {
		return nil, fmt.Errorf("apkfeat: %w", err)
	}
	corp, err := src.LoadCorpus()
	if err != nil {
		return nil, fmt.Errorf("apkfeat: %w", err)
	}
	total := corp.Files
	x.SetSamples(total)

	reduced, err := vocab.Reduce(x, total, b.Floor, b.Ceiling)
	if err != nil {
		return nil, fmt.Errorf("apkfeat: %w", err)
	}
	res := &ReduceResult{Total: total, Before: x.Total(), After: reduced.Total(), Index: reduced}
	slog.Info("Reduced vocabulary", "samples", total, "floor", b.Floor, "ceiling", b.Ceiling,
		"before", res.Before, "after", res.After)

	m, err := dst.Init()
	if err != nil {
		return nil, fmt.Errorf("apkfeat: %w", err)
	}
	m.Categorization = nil
	if srcManifest != nil {
		m.Categorization = srcManifest.Categorization
	}
	if err := dst.WriteManifest(m); err != nil {
		return nil, fmt.Errorf("apkfeat: %w", err)
	}
	if err := dst.SaveVocabulary(reduced); err != nil {
		return nil, fmt.Errorf("apkfeat: %w", err)
	}

	totals := vocab.NewCorpus()
	err = corpus.Walk(ctx, src, func(s corpus.Sample) error {
		rec, err := feature.ReadFile(s.Path, s.ID)
		if err != nil {
			slog.Warn("Cannot read sample", "path", s.Path, "error", err)
			res.Failed++
			return nil
		}
		rec = vocab.ReduceRecord(rec, reduced)
		if err := store.WriteSample(dst.SamplePath(s.ID), rec); err != nil {
			slog.Warn("Cannot write sample", "sample", s.ID, "root", dst.Root, "error", err)
			res.Failed++
			return nil
		}
		totals.Add(s.ID, rec.Total())
		res.Written++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("apkfeat: %w", err)
	}
	// Document frequencies were counted over all of in's samples.
	totals.Files = max(totals.Files, total)
	if err := dst.SaveCorpus(totals); err != nil {
		return nil, fmt.Errorf("apkfeat: %w", err)
	}
	if res.Failed > 0 {
		slog.Warn("Some samples were not reduced", "failed", res.Failed, "written", res.Written)
	}
	logMemory()
	return res, nil
}

// Freeze snapshots the vocabulary under root with dense ids and writes it
// to path, or to the root's snapshot.json when path is empty.
func Freeze(root, path string) (*vocab.Snapshot, error) {
	s := store.New(root)
	snap, err := snapshotOf(s)
	if err != nil {
		return nil, fmt.Errorf("apkfeat: %w", err)
	}
	if path == "" {
		path = s.Path(store.SnapshotFile)
	}
	if err := store.SaveSnapshot(path, snap); err != nil {
		return nil, fmt.Errorf("apkfeat: %w", err)
	}
	slog.Info("Froze vocabulary", "path", path, "dim", snap.Dim(), "samples", snap.Samples(),
		"categorized", snap.Categorization() != nil)
	return snap, nil
}
