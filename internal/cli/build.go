package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/DennisG8153/apkfeat"
	"github.com/DennisG8153/apkfeat/categorize"
	"github.com/DennisG8153/apkfeat/vocab"
)

// categorizeFlags are shared by the commands that may categorize tokens.
type categorizeFlags struct {
	enabled  bool
	rules    string
	collapse bool
}

func (c *CLI) addCategorizeFlags(cmd *cobra.Command, f *categorizeFlags) {
	cmd.Flags().BoolVar(&f.enabled, "categorize", false, "Coarsen API, library and URL tokens before use")
	cmd.Flags().StringVar(&f.rules, "dotted-rules", c.cfg.DottedRules, "Dotted-name rules: truncate or package")
	cmd.Flags().BoolVar(&f.collapse, "collapse-urls", c.cfg.CollapseURLs, "Collapse uncategorized URLs to their registered domain")
}

func (c *CLI) categorizerOptions(f *categorizeFlags) (categorize.Options, error) {
	rules, ok := categorize.ParseDottedRules(f.rules)
	if !ok {
		return categorize.Options{}, fmt.Errorf("unknown dotted rules %q", f.rules)
	}
	return categorize.Options{
		Dotted:                    &rules,
		CollapseUncategorizedURLs: f.collapse,
		CacheSize:                 c.cfg.CacheSize,
	}, nil
}

func (c *CLI) newBuildCommand() *cobra.Command {
	var cat categorizeFlags
	var out string
	var every int
	var fresh, recount bool

	cmd := &cobra.Command{
		Use:   "build <corpus>",
		Short: "Accumulate the feature vocabulary of a corpus (resumable)",
		Args:  cobra.ExactArgs(1),
		Example: `  apkfeat build data
  apkfeat build data --categorize --out data-categorized
  apkfeat build data --fresh --checkpoint-every 100 -v
  apkfeat build data-reduced --recount`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := apkfeat.BuildOptions{
				Categorize:      cat.enabled,
				CheckpointEvery: every,
				Fresh:           fresh,
				Recount:         recount,
				Out:             out,
			}
			if cat.enabled {
				co, err := c.categorizerOptions(&cat)
				if err != nil {
					return err
				}
				opts.Categorizer = co
			}

			slog.Info("Building vocabulary", "corpus", args[0], "out", out, "categorize", cat.enabled)
			start := time.Now()
			res, err := apkfeat.Build(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			slog.Debug("Build completed", "duration", time.Since(start), "run_id", res.RunID)
			if res.Failed > 0 {
				slog.Warn("Some samples were skipped", "failed", res.Failed)
			}

			st := apkfeat.NewStats(res.Index)
			fmt.Printf("%d samples, %d tokens (%d would survive floor=%d ceiling=%d)\n",
				st.Files, st.Tokens, st.Surviving(c.bounds()), c.cfg.Floor, c.cfg.Ceiling)
			return nil
		},
	}

	c.addCategorizeFlags(cmd, &cat)
	cmd.Flags().StringVar(&out, "out", "", "Write (categorized) samples and the vocabulary under this root")
	cmd.Flags().IntVar(&every, "checkpoint-every", c.cfg.CheckpointEvery, "Samples between checkpoints")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "Discard persisted vocabulary and processed log first")
	cmd.Flags().BoolVar(&recount, "recount", false, "Recount document frequencies over the existing vocabulary")
	cmd.MarkFlagsMutuallyExclusive("fresh", "recount")
	return cmd
}

func (c *CLI) bounds() vocab.Bounds {
	return vocab.Bounds{Floor: c.cfg.Floor, Ceiling: c.cfg.Ceiling}
}
