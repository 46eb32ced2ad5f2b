package cmd

import (
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the article read API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		return a.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
