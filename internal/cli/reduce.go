package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/DennisG8153/apkfeat"
	"github.com/DennisG8153/apkfeat/internal/store"
	"github.com/DennisG8153/apkfeat/vocab"
)

func (c *CLI) newReduceCommand() *cobra.Command {
	var floor, ceiling int

	cmd := &cobra.Command{
		Use:   "reduce <in> <out>",
		Short: "Prune rare and ubiquitous tokens from a vocabulary and its samples",
		Args:  cobra.ExactArgs(2),
		Example: `  apkfeat reduce data data-reduced
  apkfeat reduce data data-reduced --floor 10 --ceiling 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := apkfeat.Reduce(cmd.Context(), args[0], args[1], vocab.Bounds{Floor: floor, Ceiling: ceiling})
			if err != nil {
				return err
			}
			fmt.Printf("%d -> %d tokens over %d samples, %d sample files written, %d failed\n",
				res.Before, res.After, res.Total, res.Written, res.Failed)
			return nil
		},
	}

	cmd.Flags().IntVar(&floor, "floor", c.cfg.Floor, "Drop tokens seen in this many samples or fewer")
	cmd.Flags().IntVar(&ceiling, "ceiling", c.cfg.Ceiling, "Drop tokens missing from this many samples or fewer")
	return cmd
}

func (c *CLI) newFreezeCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "freeze <corpus>",
		Short: "Write a dense vocabulary snapshot for encoding",
		Args:  cobra.ExactArgs(1),
		Example: `  apkfeat freeze data-reduced
  apkfeat freeze data-reduced --out model/snapshot.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := apkfeat.Freeze(args[0], out)
			if err != nil {
				return err
			}
			path := out
			if path == "" {
				path = filepath.Join(args[0], store.SnapshotFile)
			}
			fmt.Printf("%d dimensions written to %s\n", snap.Dim(), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Snapshot path (default <corpus>/snapshot.json)")
	return cmd
}

func (c *CLI) newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "migrate <corpus>",
		Short:   "Upgrade a corpus written by an older layout",
		Args:    cobra.ExactArgs(1),
		Example: `  apkfeat migrate data`,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := store.New(args[0]).Migrate()
			if err != nil {
				return err
			}
			slog.Info("Migration complete", "corpus", args[0], "renamed", n, "layout", store.LayoutVersion)
			return nil
		},
	}
}
