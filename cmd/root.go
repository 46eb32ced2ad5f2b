// Package cmd holds the CLI entrypoints.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/newsmill/blog-ingest/internal/app"
	"github.com/newsmill/blog-ingest/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "blogingest",
	Short:         "Scrape, normalize and ingest blog articles",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")
}

// buildApp loads configuration and wires the application container.
func buildApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	a, err := app.Build(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	return a, nil
}
