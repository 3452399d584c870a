package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "List persisted similarity indexes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := setupApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(ctx, app)

		if app.Catalog == nil {
			return errors.New("no index catalog configured (set VECTOR_STORE_DIR or CATALOG_DSN)")
		}

		out := cmd.OutOrStdout()
		if prune, _ := cmd.Flags().GetBool("prune"); prune {
			removed, err := app.Catalog.PruneMissing(ctx)
			if err != nil {
				return err
			}
			for _, p := range removed {
				fmt.Fprintf(out, "pruned %s\n", p)
			}
		}

		entries, err := app.Catalog.ListIndexes(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "VIEW\tCOLUMN\tENTRIES\tEMBEDDER\tLAST USED\tPATH")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n", e.View, e.Column, e.Entries, e.Embedder, e.LastUsedAt.Format("2006-01-02 15:04"), e.Path)
		}
		return w.Flush()
	},
}

func init() {
	indexesCmd.Flags().Bool("prune", false, "remove catalog entries whose index file is gone")
}
