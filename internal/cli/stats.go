package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/DennisG8153/apkfeat"
	"github.com/DennisG8153/apkfeat/vocab"
)

func (c *CLI) newStatsCommand() *cobra.Command {
	var distribution bool
	var floor, ceiling int

	cmd := &cobra.Command{
		Use:   "stats <corpus>",
		Short: "Show vocabulary sizes and the document-frequency distribution",
		Args:  cobra.ExactArgs(1),
		Example: `  apkfeat stats data
  apkfeat stats data --distribution --floor 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := apkfeat.LoadStats(args[0])
			if err != nil {
				return err
			}

			table := newTable([]string{"Type", "Tokens", "Occurrences", "Singletons", "Max DF"})
			for _, ts := range st.Types {
				table.Append([]string{
					ts.Type.String(),
					strconv.Itoa(ts.Tokens),
					strconv.Itoa(ts.Occurrences),
					strconv.Itoa(ts.Singletons),
					strconv.Itoa(ts.MaxDocFreq),
				})
			}
			table.Render()

			b := vocab.Bounds{Floor: floor, Ceiling: ceiling}
			fmt.Printf("\n%d samples, %d tokens, %d kept by floor=%d ceiling=%d\n",
				st.Files, st.Tokens, st.Surviving(b), floor, ceiling)

			if distribution {
				fmt.Println()
				table := newTable([]string{"Document frequency", "Tokens"})
				for _, bucket := range st.Distribution() {
					table.Append([]string{strconv.Itoa(bucket.DocFreq), strconv.Itoa(bucket.Tokens)})
				}
				table.Render()
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&distribution, "distribution", false, "Print the document-frequency distribution")
	cmd.Flags().IntVar(&floor, "floor", c.cfg.Floor, "Floor used for the surviving-token count")
	cmd.Flags().IntVar(&ceiling, "ceiling", c.cfg.Ceiling, "Ceiling used for the surviving-token count")
	return cmd
}

func newTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	return table
}
