package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var invokeCmd = &cobra.Command{
	Use:   "invoke <tool> <input...>",
	Short: "Invoke one tool and print its output",
	Long: "Invoke one tool and print its output. Remaining arguments are joined with spaces, so\n" +
		"  querytools invoke query_sql_db SELECT name FROM employees\n" +
		"works without quoting.",
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := setupApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(ctx, app)

		output, err := app.Registry.ExecuteTool(ctx, args[0], strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), output)
		return nil
	},
}
