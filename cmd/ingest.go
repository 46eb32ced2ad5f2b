package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newsmill/blog-ingest/internal/source/csvfile"
)

var ingestDir string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest datestamped CSV exports from the data directory",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context()) //nolint:errcheck // close errors are logged

		dir := ingestDir
		if dir == "" {
			dir = a.Config().Ingest.DataDir
		}
		files, err := csvfile.ListDataFiles(dir)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no datestamped CSV files in %s", dir)
		}

		logger := a.Logger()
		var created, updated, failed, skipped int
		for _, file := range files {
			fields, err := csvfile.ReadFields(file)
			if err != nil {
				logger.Error("read export failed", zap.String("file", file), zap.Error(err))
				continue
			}
			// One run per file keeps title dedup scoped to the file.
			report, err := a.Runner().IngestFields(cmd.Context(), fields)
			if err != nil {
				logger.Error("ingest failed", zap.String("file", file), zap.Error(err))
				continue
			}
			logger.Info("file ingested",
				zap.String("file", file),
				zap.String("run_id", report.RunID),
				zap.Int("created", report.Created),
				zap.Int("updated", report.Updated),
				zap.Int("errors", report.Failed),
				zap.Int("skipped", report.Skipped))
			created += report.Created
			updated += report.Updated
			failed += report.Failed
			skipped += report.Skipped
		}
		logger.Info("ingestion complete",
			zap.Int("files", len(files)),
			zap.Int("created", created),
			zap.Int("updated", updated),
			zap.Int("errors", failed),
			zap.Int("skipped", skipped))
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDir, "dir", "", "directory holding CSV exports")
	rootCmd.AddCommand(ingestCmd)
}
