// Package cmd implements the querytools command line
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/va6996/querytools/bootstrap"
	"github.com/va6996/querytools/config"
	"github.com/va6996/querytools/log"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "querytools",
	Short:         "SQL and similar-value tools for LLM agents",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a config YAML file (default: ./config.yaml if present, then env)")
	rootCmd.AddCommand(serveCmd, invokeCmd, toolsCmd, indexesCmd)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if err := log.Init(cfg.Log.Level); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupApp loads config and bootstraps the application
func setupApp(ctx context.Context) (*bootstrap.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return bootstrap.Setup(ctx, cfg)
}

func closeApp(ctx context.Context, c io.Closer) {
	if err := c.Close(); err != nil {
		log.Warnf(ctx, "Failed to close cleanly: %v", err)
	}
}
