package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/DennisG8153/apkfeat"
	"github.com/DennisG8153/apkfeat/categorize"
	"github.com/DennisG8153/apkfeat/internal/vecstore"
)

func (c *CLI) newEncodeCommand() *cobra.Command {
	var cat categorizeFlags
	var vocabPath, mode, out, badgerDir string
	var dense bool

	cmd := &cobra.Command{
		Use:   "encode <corpus|file>",
		Short: "Encode samples as vectors against a frozen vocabulary",
		Args:  cobra.ExactArgs(1),
		Example: `  # Encode a labeled corpus to JSON lines
  apkfeat encode data-reduced --vocab data-reduced --out vectors.jsonl

  # Encode one raw sample, dense output on stdout; a categorized
  # vocabulary categorizes the sample the same way
  apkfeat encode sample.txt --vocab snapshot.json --dense

  # Store tf-idf vectors in Badger
  apkfeat encode data --vocab snapshot.json --mode tfidf --badger vectors.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := apkfeat.ParseMode(mode)
			if err != nil {
				return err
			}
			if vocabPath == "" {
				vocabPath = args[0]
			}
			snap, err := apkfeat.LoadSnapshot(vocabPath)
			if err != nil {
				return err
			}
			opts := apkfeat.EncoderOptions{Mode: m, CacheSize: c.cfg.CacheSize}
			if cat.enabled {
				co, err := c.categorizerOptions(&cat)
				if err != nil {
					return err
				}
				if opts.Categorizer, err = categorize.New(co); err != nil {
					return err
				}
			}
			enc, err := apkfeat.NewEncoder(snap, opts)
			if err != nil {
				return err
			}

			sink, err := openSink(out, badgerDir, dense)
			if err != nil {
				return err
			}
			put := func(v apkfeat.Vector) error {
				return sink.Put(vecstore.Record{
					Sample:  v.Sample,
					Label:   v.Label,
					Dim:     v.Dim,
					Indices: v.Indices,
					Values:  v.Values,
				})
			}

			n, err := encodeTarget(cmd, enc, args[0], put)
			if cerr := sink.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			slog.Info("Encoded samples", "count", n, "dim", enc.Dim(), "mode", m, "categorized", enc.Categorized())
			return nil
		},
	}

	c.addCategorizeFlags(cmd, &cat)
	cmd.Flag("categorize").Usage = "Check that the vocabulary was categorized with these rules"
	cmd.Flags().StringVar(&vocabPath, "vocab", "", "Snapshot file or vocabulary root (default: the corpus itself)")
	cmd.Flags().StringVar(&mode, "mode", c.cfg.Mode, "Encoding mode: binary, count or tfidf")
	cmd.Flags().BoolVar(&dense, "dense", false, "Write dense vectors")
	cmd.Flags().StringVarP(&out, "out", "o", "", "JSON lines output file (default stdout)")
	cmd.Flags().StringVar(&badgerDir, "badger", "", "Store vectors in a Badger database directory")
	cmd.MarkFlagsMutuallyExclusive("out", "badger")
	cmd.MarkFlagsMutuallyExclusive("dense", "badger")
	return cmd
}

func openSink(out, badgerDir string, dense bool) (vecstore.Sink, error) {
	switch {
	case badgerDir != "":
		return vecstore.OpenBadger(badgerDir)
	case out != "":
		if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
			return nil, err
		}
		f, err := os.Create(out)
		if err != nil {
			return nil, err
		}
		return vecstore.NewJSONLWriter(f, dense), nil
	default:
		return vecstore.NewJSONLWriter(nopCloser{os.Stdout}, dense), nil
	}
}

// nopCloser keeps stdout open when the sink is closed.
type nopCloser struct{ *os.File }

func (nopCloser) Close() error { return nil }

func encodeTarget(cmd *cobra.Command, enc *apkfeat.Encoder, target string, put func(apkfeat.Vector) error) (int, error) {
	info, err := os.Stat(target)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return enc.EncodeCorpus(cmd.Context(), target, put)
	}
	v, err := enc.EncodeFile(target)
	if err != nil {
		return 0, err
	}
	if err := put(v); err != nil {
		return 0, fmt.Errorf("write %s: %w", target, err)
	}
	return 1, nil
}
