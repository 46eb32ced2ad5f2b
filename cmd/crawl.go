package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newsmill/blog-ingest/internal/clock/system"
	"github.com/newsmill/blog-ingest/internal/source/web"
)

var crawlBaseURL string

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl configured sections and ingest the articles found",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context()) //nolint:errcheck // close errors are logged

		cfg := a.Config()
		baseURL := crawlBaseURL
		if baseURL == "" {
			baseURL = cfg.Scraper.BaseURL
		}
		if baseURL == "" {
			return fmt.Errorf("scraper.base_url is required (or pass --base-url)")
		}

		source, err := web.New(web.Config{
			BaseURL:        baseURL,
			Sections:       cfg.Scraper.Sections,
			AllowedDomains: cfg.Scraper.AllowedDomains,
			UserAgent:      cfg.Scraper.UserAgent,
			MaxPerSection:  cfg.Scraper.MaxPerSection,
			Parallelism:    cfg.Scraper.Parallelism,
			Delay:          cfg.ScrapeDelay(),
		}, system.New(), a.Logger().Named("web"))
		if err != nil {
			return err
		}

		report, err := a.Runner().IngestPages(cmd.Context(), source)
		if err != nil {
			return err
		}
		a.Logger().Info("crawl complete",
			zap.String("run_id", report.RunID),
			zap.Int("processed", report.Processed),
			zap.Int("created", report.Created),
			zap.Int("updated", report.Updated),
			zap.Int("errors", report.Failed),
			zap.Int("skipped", report.Skipped))
		return nil
	},
}

func init() {
	crawlCmd.Flags().StringVar(&crawlBaseURL, "base-url", "", "site base URL to crawl")
	rootCmd.AddCommand(crawlCmd)
}
