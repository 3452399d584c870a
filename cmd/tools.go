package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the registered tools",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := setupApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(ctx, app)

		for _, t := range app.Registry.List() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n    %s\n", t.Name(), t.Description())
		}
		return nil
	},
}
