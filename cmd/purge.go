package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var purgeConfirmed bool

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every article from the store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !purgeConfirmed {
			return fmt.Errorf("refusing to purge without --confirm")
		}
		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context()) //nolint:errcheck // close errors are logged

		catalog := a.Catalog()
		ctx := cmd.Context()
		deleted := 0
		for {
			records, _, err := catalog.ListArticles(ctx, 100, 0)
			if err != nil {
				return fmt.Errorf("list articles: %w", err)
			}
			if len(records) == 0 {
				break
			}
			for _, rec := range records {
				if err := catalog.DeleteArticle(ctx, rec.ID); err != nil {
					return fmt.Errorf("delete %s: %w", rec.ID, err)
				}
				deleted++
			}
		}
		a.Logger().Info("purge complete", zap.Int("deleted", deleted))
		return nil
	},
}

func init() {
	purgeCmd.Flags().BoolVar(&purgeConfirmed, "confirm", false, "actually delete everything")
	rootCmd.AddCommand(purgeCmd)
}
