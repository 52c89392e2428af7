package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/DennisG8153/apkfeat/internal/vecstore"
)

func (c *CLI) newVectorsCommand() *cobra.Command {
	var dense bool

	cmd := &cobra.Command{
		Use:   "vectors <badger-dir> [sample...]",
		Short: "Print vectors stored by encode --badger as JSON lines",
		Args:  cobra.MinimumNArgs(1),
		Example: `  apkfeat vectors vectors.db
  apkfeat vectors vectors.db benign_features/a.txt --dense`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := vecstore.OpenBadger(args[0])
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			// The command's output stays open after the writer is closed.
			w := vecstore.NewJSONLWriter(struct{ io.Writer }{cmd.OutOrStdout()}, dense)
			if samples := args[1:]; len(samples) > 0 {
				for _, sample := range samples {
					r, err := db.Get(sample)
					if err != nil {
						_ = w.Close()
						return err
					}
					if err := w.Put(r); err != nil {
						_ = w.Close()
						return err
					}
				}
			} else if err := db.Each(w.Put); err != nil {
				_ = w.Close()
				return err
			}
			if err := w.Close(); err != nil {
				return err
			}
			slog.Info("Printed vectors", "count", w.Count())
			return nil
		},
	}

	cmd.Flags().BoolVar(&dense, "dense", false, "Print dense vectors")
	return cmd
}
