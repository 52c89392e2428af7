package apkfeat

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/shirou/gopsutil/process"

	"github.com/DennisG8153/apkfeat/categorize"
	"github.com/DennisG8153/apkfeat/feature"
	"github.com/DennisG8153/apkfeat/internal/corpus"
	"github.com/DennisG8153/apkfeat/internal/store"
	"github.com/DennisG8153/apkfeat/vocab"
)

// DefaultCheckpointEvery is the number of samples between checkpoints.
const DefaultCheckpointEvery = 500

// ErrCategorizeInPlace is returned for a categorizing build without a
// separate output root: the vocabulary would no longer describe the raw
// samples stored next to it.
var ErrCategorizeInPlace = errors.New("categorizing build needs a separate output root")

// BuildOptions configures a vocabulary pass.
type BuildOptions struct {
	// Categorize coarsens API, library and URL tokens before ingestion.
	// It requires Out.
	Categorize bool
	// Categorizer configures categorization.
	Categorizer categorize.Options
	// CheckpointEvery is the number of samples between checkpoints; values
	// below 1 use DefaultCheckpointEvery.
	CheckpointEvery int
	// Fresh discards persisted vocabulary, totals and the processed log
	// before the pass.
	Fresh bool
	// Recount reruns the frequency pass over the persisted vocabulary. Ids
	// are kept, frequencies and totals are counted again over every sample
	// and tokens outside the vocabulary are ignored. Nothing is persisted
	// unless the whole pass completes.
	Recount bool
	// Out, when set, receives the (categorized) sample files under their
	// original ids together with the vocabulary. Otherwise the vocabulary is
	// written under the source root.
	Out string
}

// BuildResult summarizes a vocabulary pass.
type BuildResult struct {
	RunID     string
	Processed int
	Skipped   int
	Failed    int
	// Dropped counts tokens a recount ignored.
	Dropped   int
	Index     *vocab.Index
	Corpus    *vocab.Corpus
}

// Build accumulates the vocabulary of every sample under root. The pass is
// resumable: samples already in the processed log or the saved totals are
// skipped, and every CheckpointEvery samples the vocabulary and totals are
// saved before the checkpoint's ids are appended to the log. A sample that
// cannot be read or copied is logged and counted as failed. When ctx is
// cancelled the work done so far is checkpointed and ctx's error is
// returned.
func Build(ctx context.Context, root string, opts BuildOptions) (*BuildResult, error) {
	if opts.Fresh && opts.Recount {
		return nil, errors.New("apkfeat: fresh and recount are mutually exclusive")
	}
	src := store.New(root)
	dst := src
	if opts.Out != "" {
		dst = store.New(opts.Out)
	}
	every := opts.CheckpointEvery
	if every < 1 {
		every = DefaultCheckpointEvery
	}

	cat, want, err := buildCategorizer(src, opts)
	if err != nil {
		return nil, fmt.Errorf("apkfeat: %w", err)
	}

	if opts.Fresh {
		if err := dst.ResetRun(); err != nil {
			return nil, fmt.Errorf("apkfeat: reset: %w", err)
		}
	}
	m, err := dst.Init()
	if err != nil {
		return nil, fmt.Errorf("apkfeat: %w", err)
	}
	x, err := dst.LoadVocabulary(store.LoadOptions{ResetCounts: opts.Recount})
	if err != nil {
		return nil, fmt.Errorf("apkfeat: %w", err)
	}
	corp, err := dst.LoadCorpus()
	if err != nil {
		return nil, fmt.Errorf("apkfeat: %w", err)
	}
	if corp.Files == 0 && x.Total() == 0 {
		m.Categorization = want
		if err := dst.WriteManifest(m); err != nil {
			return nil, fmt.Errorf("apkfeat: %w", err)
		}
	} else if err := categorize.SameProfile(m.Categorization, want); err != nil {
		return nil, fmt.Errorf("apkfeat: %s: %w", dst.Root, err)
	}

	var copyTo *store.Store
	if opts.Out != "" {
		copyTo = dst
	}
	if opts.Recount {
		return recount(ctx, src, dst, copyTo, cat, m, x)
	}
	x.SetSamples(corp.Files)

	processed, err := dst.OpenLog()
	if err != nil {
		return nil, fmt.Errorf("apkfeat: %w", err)
	}
	defer func() { _ = processed.Close() }()

	res := &BuildResult{RunID: m.RunID, Index: x, Corpus: corp}
	var pending []string
	checkpoint := func() error {
		if len(pending) == 0 {
			return nil
		}
		if err := dst.SaveVocabulary(x); err != nil {
			return err
		}
		if err := dst.SaveCorpus(corp); err != nil {
			return err
		}
		if err := dst.WriteManifest(m); err != nil {
			return err
		}
		if err := processed.Append(pending...); err != nil {
			return err
		}
		slog.Debug("Checkpoint", "samples", corp.Files, "tokens", x.Total())
		pending = pending[:0]
		return nil
	}

	walkErr := corpus.Walk(ctx, src, func(s corpus.Sample) error {
		if processed.Has(s.ID) {
			res.Skipped++
			return nil
		}
		if _, counted := corp.Total(s.ID); counted {
			// Saved by a checkpoint that did not reach the log.
			res.Skipped++
			pending = append(pending, s.ID)
			return nil
		}
		rec := readSample(s, cat, copyTo, res)
		if rec == nil {
			return nil
		}
		x.Ingest(rec)
		corp.Add(s.ID, rec.Total())
		pending = append(pending, s.ID)
		res.Processed++
		if len(pending) >= every {
			return checkpoint()
		}
		return nil
	})
	if err := checkpoint(); err != nil {
		return nil, fmt.Errorf("apkfeat: checkpoint: %w", err)
	}
	if walkErr != nil {
		return res, fmt.Errorf("apkfeat: %w", walkErr)
	}
	if err := x.Validate(corp.Files); err != nil {
		return nil, fmt.Errorf("apkfeat: %w", err)
	}

	slog.Info("Built vocabulary",
		"root", dst.Root,
		"processed", res.Processed,
		"skipped", res.Skipped,
		"failed", res.Failed,
		"samples", corp.Files,
		"tokens", x.Total())
	logMemory()
	return res, nil
}

// recount counts every sample under src against the fixed vocabulary x and
// replaces dst's vocabulary, totals and processed log once the walk is
// complete.
func recount(ctx context.Context, src, dst, copyTo *store.Store, cat *categorize.Categorizer, m *store.Manifest, x *vocab.Index) (*BuildResult, error) {
	corp := vocab.NewCorpus()
	res := &BuildResult{RunID: m.RunID, Index: x, Corpus: corp}

	var ids []string
	err := corpus.Walk(ctx, src, func(s corpus.Sample) error {
		rec := readSample(s, cat, copyTo, res)
		if rec == nil {
			return nil
		}
		res.Dropped += x.Recount(rec)
		corp.Add(s.ID, rec.Total())
		ids = append(ids, s.ID)
		res.Processed++
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("apkfeat: recount: %w", err)
	}
	if err := x.Validate(corp.Files); err != nil {
		return nil, fmt.Errorf("apkfeat: %w", err)
	}

	if err := dst.SaveVocabulary(x); err != nil {
		return nil, fmt.Errorf("apkfeat: %w", err)
	}
	if err := dst.ResetProgress(); err != nil {
		return nil, fmt.Errorf("apkfeat: %w", err)
	}
	if err := dst.SaveCorpus(corp); err != nil {
		return nil, fmt.Errorf("apkfeat: %w", err)
	}
	if err := dst.WriteManifest(m); err != nil {
		return nil, fmt.Errorf("apkfeat: %w", err)
	}
	processed, err := dst.OpenLog()
	if err != nil {
		return nil, fmt.Errorf("apkfeat: %w", err)
	}
	err = processed.Append(ids...)
	if cerr := processed.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("apkfeat: %w", err)
	}

	slog.Info("Recounted vocabulary",
		"root", dst.Root,
		"processed", res.Processed,
		"failed", res.Failed,
		"dropped", res.Dropped,
		"tokens", x.Total())
	logMemory()
	return res, nil
}

// buildCategorizer returns the categorizer a build applies, if any, and the
// categorization of the samples the build ingests.
func buildCategorizer(src *store.Store, opts BuildOptions) (*categorize.Categorizer, *categorize.Profile, error) {
	var have *categorize.Profile
	m, err := src.ReadManifest()
	switch {
	case err == nil:
		have = m.Categorization
	case !errors.Is(err, fs.ErrNotExist):
		return nil, nil, err
	}
	if !opts.Categorize {
		return nil, have, nil
	}
	if opts.Out == "" {
		return nil, nil, ErrCategorizeInPlace
	}
	if have != nil {
		return nil, nil, fmt.Errorf("%s is already categorized: %w", src.Root, categorize.ErrProfileMismatch)
	}
	c, err := categorize.New(opts.Categorizer)
	if err != nil {
		return nil, nil, err
	}
	p := c.Profile()
	return c, &p, nil
}

// readSample reads and categorizes one sample and copies it to copyTo. It
// returns nil, after logging and counting the failure, when the sample
// cannot be used.
func readSample(s corpus.Sample, cat *categorize.Categorizer, copyTo *store.Store, res *BuildResult) *feature.Record {
	rec, err := feature.ReadFile(s.Path, s.ID)
	if err != nil {
		slog.Warn("Cannot read sample", "path", s.Path, "error", err)
		res.Failed++
		return nil
	}
	if cat != nil {
		rec = cat.Record(rec)
	}
	if copyTo != nil {
		if err := store.WriteSample(copyTo.SamplePath(s.ID), rec); err != nil {
			slog.Warn("Cannot write sample", "sample", s.ID, "root", copyTo.Root, "error", err)
			res.Failed++
			return nil
		}
	}
	return rec
}

// logMemory reports the resident set size of the process at debug level.
func logMemory() {
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return
	}
	mem, err := p.MemoryInfo()
	if err != nil {
		return
	}
	slog.Debug("Memory", "rss_mb", mem.RSS/(1<<20))
}
