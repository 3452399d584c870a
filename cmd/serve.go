package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/va6996/querytools/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tools over Connect RPC",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := setupApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(ctx, app)

		return server.Run(ctx, server.New(app.Config.Server.Port, app.Registry))
	},
}
